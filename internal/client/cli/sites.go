package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/conslogger/conslogger/internal/client/reconciler"
	"github.com/conslogger/conslogger/internal/client/syncgraph"
)

func (c *Cli) runSite(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing subcommand. Usage: conslogger site <list|add|select|switch|delete>")
	}

	switch args[0] {
	case "list":
		return c.runSiteList(ctx)
	case "add":
		return c.runSiteAdd(ctx, args[1:])
	case "select":
		return c.runSiteSelect(ctx, args[1:])
	case "switch":
		return c.runSiteSwitch(ctx, args[1:])
	case "delete":
		return c.runSiteDelete(ctx, args[1:])
	default:
		return fmt.Errorf("unknown site subcommand: %s", args[0])
	}
}

func (c *Cli) runSiteList(ctx context.Context) error {
	all, err := c.sites.List(ctx)
	if err != nil {
		return err
	}

	selectedID := ""
	if selected, err := c.sites.Selected(ctx); err == nil {
		selectedID = selected.ID
	}

	c.io.Println("=== Sites ===")
	c.io.Println()
	for _, site := range all {
		marker := " "
		if site.ID == selectedID {
			marker = "*"
		}
		c.io.Printf("%s %s  %s", marker, site.ID, site.Name)
		if site.Location != "" {
			c.io.Printf(" (%s)", site.Location)
		}
		if site.IsDefault {
			c.io.Printf("  [default]")
		}
		c.io.Println()
	}
	return nil
}

func (c *Cli) runSiteAdd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing site name. Usage: conslogger site add <name> [location]")
	}
	name := args[0]
	location := ""
	if len(args) > 1 {
		location = strings.Join(args[1:], " ")
	}

	site, err := c.sites.Create(ctx, name, location)
	if err != nil {
		return err
	}
	c.io.Printf("Site created: %s (%s)\n", site.Name, site.ID)
	return nil
}

func (c *Cli) runSiteSelect(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing site id. Usage: conslogger site select <id>")
	}

	site, err := c.sites.Select(ctx, args[0])
	if err != nil {
		return err
	}
	c.io.Printf("Selected site: %s\n", site.Name)
	return nil
}

// runSiteSwitch меняет площадку через reconciler: при активных партнёрах
// пользователь решает, что делать с существующими связями
func (c *Cli) runSiteSwitch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing site id. Usage: conslogger site switch <id>")
	}
	if c.rec == nil {
		// Без партнёрского режима switch эквивалентен select
		return c.runSiteSelect(ctx, args)
	}

	site, err := c.sites.Get(ctx, args[0])
	if err != nil {
		return err
	}

	state, err := c.rec.Begin(ctx, site)
	if err != nil {
		return err
	}
	if state == reconciler.StateApplied {
		c.io.Printf("Selected site: %s\n", site.Name)
		return nil
	}

	c.io.Printf("You have active sync partners. Switching to %s:\n", site.Name)
	c.io.Println()
	c.io.Println("  1. Limit partners to the new site")
	c.io.Println("  2. Invite a new partner for this site")
	c.io.Println("  3. Work solo (keep partner scopes as they are)")
	c.io.Println("  4. Cancel")
	c.io.Println()

	choice, err := c.io.ReadInput("Choice [1-4]: ")
	if err != nil {
		return err
	}

	option, ok := map[string]reconciler.Option{
		"1": reconciler.OptionLimitCurrent,
		"2": reconciler.OptionAddNew,
		"3": reconciler.OptionSolo,
		"4": reconciler.OptionCancel,
	}[choice]
	if !ok {
		return fmt.Errorf("invalid choice: %s", choice)
	}

	state, err = c.rec.Choose(ctx, option)
	if err != nil && !errors.Is(err, syncgraph.ErrPartialPropagation) {
		return err
	}
	if errors.Is(err, syncgraph.ErrPartialPropagation) {
		c.io.Printf("Warning: %v\n", err)
	}

	switch state {
	case reconciler.StateIdle:
		c.io.Println("Cancelled.")
		return nil
	case reconciler.StateAwaitingInput:
		handle, err := c.io.ReadInput("Partner handle: ")
		if err != nil {
			return err
		}
		if _, err := c.rec.SubmitPartner(ctx, handle); err != nil {
			return err
		}
		c.io.Printf("Invite sent to %s.\n", handle)
	}

	c.io.Printf("Selected site: %s\n", site.Name)
	return nil
}

func (c *Cli) runSiteDelete(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing site id. Usage: conslogger site delete <id>")
	}

	if err := c.sites.Delete(ctx, args[0]); err != nil {
		return err
	}
	c.io.Println("Site deleted.")

	if selected, err := c.sites.Selected(ctx); err == nil {
		c.io.Printf("Selected site is now: %s\n", selected.Name)
	}
	return nil
}
