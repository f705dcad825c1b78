package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/conslogger/conslogger/internal/analytics"
	"github.com/conslogger/conslogger/internal/client/syncgraph"
	"github.com/conslogger/conslogger/internal/models"
)

func (c *Cli) runPartners(ctx context.Context) error {
	if err := c.requirePartnerMode(); err != nil {
		return err
	}

	conns, err := c.graph.Connections(ctx)
	if err != nil {
		return err
	}
	if len(conns) == 0 {
		c.io.Println("No sync partners.")
		c.io.Println("Use 'conslogger request <handle>' to invite someone.")
		return nil
	}

	// Разовый запуск: вливаем сегодняшние логи каждого партнёра
	for _, conn := range conns {
		err := c.agg.RefreshPartner(ctx, conn.PartnerID, conn.PartnerHandle, conn.PartnerDisplay, conn.Scope())
		if err != nil {
			c.io.Printf("Warning: failed to fetch logs of %s: %v\n", conn.PartnerHandle, err)
		}
	}

	c.io.Println("=== Partners ===")
	for _, view := range c.agg.Views() {
		c.io.Println()
		c.io.Printf("%s", view.PartnerHandle)
		if view.PartnerDisplay != "" {
			c.io.Printf(" (%s)", view.PartnerDisplay)
		}
		c.io.Printf("  scope: %s\n", view.Scope.DisplayName())

		if len(view.Logs) == 0 {
			c.io.Println("  no halts today")
			continue
		}
		for _, log := range view.Logs {
			c.io.Printf("  %s  %s", log.ArrivalTime().Format("15:04"), statusLabel(log))
			if log.Category != "" {
				c.io.Printf("  %s", log.Category)
			}
			if name, ok := view.SiteNames[log.SiteID]; ok {
				c.io.Printf("  @ %s", name)
			}
			c.io.Println()
		}
	}
	return nil
}

func (c *Cli) runRequest(ctx context.Context, args []string) error {
	if err := c.requirePartnerMode(); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("missing handle. Usage: conslogger request <handle> [site-id]")
	}
	handle := args[0]

	var scope *models.Scope
	if len(args) > 1 {
		site, err := c.sites.Get(ctx, args[1])
		if err != nil {
			return err
		}
		s := models.SiteScope(site.ID, site.Name)
		scope = &s
	}

	outcome, err := c.graph.SendRequest(ctx, handle, scope)
	if err != nil {
		switch {
		case errors.Is(err, syncgraph.ErrNotFound):
			return fmt.Errorf("user %q not found", handle)
		case errors.Is(err, syncgraph.ErrSelfReference):
			return fmt.Errorf("you cannot invite yourself")
		case errors.Is(err, syncgraph.ErrAlreadyConnected):
			return fmt.Errorf("already connected to %s", handle)
		}
		return err
	}

	if outcome == syncgraph.OutcomeRescoped {
		c.io.Printf("Already connected to %s; connection re-scoped.\n", handle)
	} else {
		c.io.Printf("Sync request sent to %s.\n", handle)
	}
	return nil
}

func (c *Cli) runRequests(ctx context.Context) error {
	if err := c.requirePartnerMode(); err != nil {
		return err
	}

	pending, err := c.graph.PendingRequests(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		c.io.Println("No pending requests.")
		return nil
	}

	c.io.Println("=== Pending sync requests ===")
	c.io.Println()
	for _, req := range pending {
		c.printRequest(req)
	}
	return nil
}

func (c *Cli) printRequest(req *models.SyncRequest) {
	c.io.Printf("%s  from %s", req.ID, req.FromHandle)
	if req.FromDisplay != "" {
		c.io.Printf(" (%s)", req.FromDisplay)
	}
	if req.ProposedSite != "" {
		c.io.Printf("  proposed site: %s", req.ProposedName)
	}
	c.io.Printf("  %s\n", time.UnixMilli(req.Timestamp).Format("2006-01-02 15:04"))
}

func (c *Cli) runAccept(ctx context.Context, args []string) error {
	if err := c.requirePartnerMode(); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("missing request id. Usage: conslogger accept <request-id> [site-id]")
	}

	var override *models.Scope
	if len(args) > 1 {
		site, err := c.sites.Get(ctx, args[1])
		if err != nil {
			return err
		}
		s := models.SiteScope(site.ID, site.Name)
		override = &s
	}

	conn, err := c.graph.AcceptRequest(ctx, args[0], override)
	if err != nil {
		if errors.Is(err, syncgraph.ErrRequestNotFound) {
			return fmt.Errorf("request not found or already handled")
		}
		if errors.Is(err, syncgraph.ErrPartialPropagation) {
			c.io.Printf("Warning: %v\n", err)
			c.io.Println("Your side of the connection is saved; it will settle on the next sync.")
			return nil
		}
		return err
	}

	c.io.Printf("Connected to %s (scope: %s).\n", conn.PartnerHandle, conn.Scope().DisplayName())
	return nil
}

func (c *Cli) runReject(ctx context.Context, args []string) error {
	if err := c.requirePartnerMode(); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("missing request id. Usage: conslogger reject <request-id>")
	}

	if err := c.graph.RejectRequest(ctx, args[0]); err != nil {
		if errors.Is(err, syncgraph.ErrRequestNotFound) {
			return fmt.Errorf("request not found or already handled")
		}
		return err
	}
	c.io.Println("Request rejected.")
	return nil
}

func (c *Cli) runDisconnect(ctx context.Context, args []string) error {
	if err := c.requirePartnerMode(); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("missing partner id. Usage: conslogger disconnect <partner-id>")
	}
	partnerID := args[0]

	if err := c.graph.Disconnect(ctx, partnerID); err != nil {
		if errors.Is(err, syncgraph.ErrNotFound) {
			return fmt.Errorf("no connection with %s", partnerID)
		}
		if errors.Is(err, syncgraph.ErrPartialPropagation) {
			c.io.Printf("Warning: %v\n", err)
		} else {
			return err
		}
	}

	c.agg.RemovePartner(partnerID)
	c.io.Println("Disconnected.")
	return nil
}

// runWatch следит за лентой изменений до прерывания: печатает события
// связей и интерактивно предлагает принять входящие запросы
func (c *Cli) runWatch(ctx context.Context) error {
	if err := c.requirePartnerMode(); err != nil {
		return err
	}

	hooks := syncgraph.Hooks{
		OnConnection: func(ctx context.Context, kind models.ChangeKind, partnerID string, conn *models.Connection) {
			c.agg.OnConnectionChange(ctx, kind, partnerID, conn)
			if conn == nil {
				c.io.Printf("[%s] partner %s disconnected\n", time.Now().Format("15:04:05"), partnerID)
				return
			}
			c.io.Printf("[%s] connection %s: %s (scope: %s)\n",
				time.Now().Format("15:04:05"), kind, conn.PartnerHandle, conn.Scope().DisplayName())
		},
		OnRequest: func(ctx context.Context, req *models.SyncRequest) {
			c.io.Println()
			c.io.Printf("Sync request from %s", req.FromHandle)
			if req.ProposedSite != "" {
				c.io.Printf(" (proposed site: %s)", req.ProposedName)
			}
			c.io.Println()
			answer, err := c.io.ReadInput("Accept? [y/N]: ")
			if err != nil {
				return
			}
			if answer == "y" || answer == "Y" {
				if _, err := c.graph.AcceptRequest(ctx, req.ID, nil); err != nil {
					c.io.Printf("Accept failed: %v\n", err)
					return
				}
				c.io.Println("Accepted.")
			} else {
				if err := c.graph.RejectRequest(ctx, req.ID); err != nil {
					c.io.Printf("Reject failed: %v\n", err)
					return
				}
				c.io.Println("Rejected.")
			}
		},
	}

	watcher := syncgraph.NewWatcher(c.logger, c.api, c.self.UserID, c.prefs, hooks)

	// Стартовое наполнение партнёрских представлений
	if conns, err := c.graph.Connections(ctx); err == nil {
		for _, conn := range conns {
			if err := c.agg.RefreshPartner(ctx, conn.PartnerID, conn.PartnerHandle, conn.PartnerDisplay, conn.Scope()); err != nil {
				c.logger.WarnContext(ctx, "initial partner refresh failed",
					"partner_id", conn.PartnerID, "error", err)
			}
		}
	}

	stopC := make(chan struct{})
	go c.agg.Run(ctx, stopC)

	watcher.Start(ctx)
	c.io.Println("Watching for sync events. Press Ctrl+C to stop.")

	<-ctx.Done()
	close(stopC)
	watcher.Stop()
	c.io.Println()
	c.io.Println("Stopped.")

	// Итог дня по партнёрам на выходе
	views := c.agg.Views()
	if len(views) > 0 {
		c.io.Println()
		for _, view := range views {
			total := int64(0)
			for _, log := range view.Logs {
				total += log.DurationSec
			}
			c.io.Printf("%s: %d halts, %s\n", view.PartnerHandle, len(view.Logs), analytics.FormatDuration(total))
		}
	}
	return nil
}
