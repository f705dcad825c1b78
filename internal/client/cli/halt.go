package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/conslogger/conslogger/internal/analytics"
	"github.com/conslogger/conslogger/internal/client/halt"
	"github.com/conslogger/conslogger/internal/client/storage"
	"github.com/conslogger/conslogger/internal/models"
)

func (c *Cli) runStart(ctx context.Context, args []string) error {
	siteID, siteName, err := c.selectedSite(ctx)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		return fmt.Errorf("missing category. Usage: conslogger start <category> [note]")
	}
	category := args[0]
	note := ""
	if len(args) > 1 {
		note = strings.Join(args[1:], " ")
	}

	configured, err := c.shifts.GetShiftsBySite(ctx, siteID)
	if err != nil {
		return fmt.Errorf("failed to load shifts: %w", err)
	}

	log, err := c.halts.Start(ctx, halt.StartParams{
		Category:    category,
		SubCategory: note,
		SiteID:      siteID,
		Shifts:      configured,
	})
	if err != nil {
		if errors.Is(err, halt.ErrAlreadyRunning) {
			return fmt.Errorf("a halt is already running on %s. Stop it first", siteName)
		}
		return err
	}

	c.io.Printf("Halt started on %s at %s", siteName, log.ArrivalTime().Format("15:04:05"))
	if log.ShiftName != "" {
		c.io.Printf(" (%s)", log.ShiftName)
	}
	c.io.Println()
	return nil
}

func (c *Cli) runStop(ctx context.Context) error {
	siteID, siteName, err := c.selectedSite(ctx)
	if err != nil {
		return err
	}

	running, err := c.halts.Running(ctx, siteID)
	if err != nil {
		if errors.Is(err, storage.ErrLogNotFound) {
			return fmt.Errorf("no halt is running on %s", siteName)
		}
		return err
	}

	stopped, err := c.halts.Stop(ctx, running)
	if err != nil {
		return err
	}

	c.io.Printf("Halt stopped: %s\n", analytics.FormatDurationHuman(stopped.DurationSec))
	return nil
}

func (c *Cli) runList(ctx context.Context, args []string) error {
	date := ""
	if len(args) > 0 {
		date = args[0]
		if _, err := time.Parse(models.DateBucket, date); err != nil {
			return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
		}
	}

	logs, err := c.halts.ListByDate(ctx, date)
	if err != nil {
		return err
	}

	if date == "" {
		date = "today"
	}
	if len(logs) == 0 {
		c.io.Printf("No halts for %s.\n", date)
		return nil
	}

	c.io.Printf("=== Halts for %s ===\n", date)
	c.io.Println()
	for _, log := range logs {
		c.printLog(log)
	}
	return nil
}

func (c *Cli) printLog(log *models.HaltLog) {
	c.io.Printf("%s  %s", log.ArrivalTime().Format("15:04"), statusLabel(log))
	if log.Category != "" {
		c.io.Printf("  %s", log.Category)
	}
	if log.SubCategory != "" {
		c.io.Printf(" - %s", log.SubCategory)
	}
	c.io.Println()
	c.io.Printf("       id: %s", log.ID)
	if log.ShiftName != "" {
		c.io.Printf("  shift: %s", log.ShiftName)
	}
	c.io.Println()
}

func statusLabel(log *models.HaltLog) string {
	if log.IsRunning() {
		return "RUNNING"
	}
	return analytics.FormatDuration(log.DurationSec)
}

// runUpdate правит завершённый лог: пустой ввод оставляет поле как есть
func (c *Cli) runUpdate(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing halt id. Usage: conslogger update <id> [YYYY-MM-DD]")
	}
	id := args[0]
	date := time.Now().Format(models.DateBucket)
	if len(args) > 1 {
		date = args[1]
	}

	logs, err := c.halts.ListByDate(ctx, date)
	if err != nil {
		return err
	}
	var log *models.HaltLog
	for _, l := range logs {
		if l.ID == id {
			log = l
			break
		}
	}
	if log == nil {
		return fmt.Errorf("halt %s not found on %s", id, date)
	}

	c.io.Println("Editing halt (blank keeps the current value):")
	c.io.Println()

	arrival, err := c.promptClock("Arrival", log.Arrival, date)
	if err != nil {
		return err
	}
	departure, err := c.promptClock("Departure", log.Departure, date)
	if err != nil {
		return err
	}
	category, err := c.io.ReadInput(fmt.Sprintf("Category [%s]: ", log.Category))
	if err != nil {
		return err
	}
	note, err := c.io.ReadInput(fmt.Sprintf("Note [%s]: ", log.SubCategory))
	if err != nil {
		return err
	}

	updated := log.Clone()
	updated.Arrival = arrival
	updated.Departure = departure
	if category != "" {
		updated.Category = category
	}
	if note != "" {
		updated.SubCategory = note
	}

	result, err := c.halts.Update(ctx, updated)
	if err != nil {
		return err
	}

	c.io.Printf("Updated: %s\n", analytics.FormatDuration(result.DurationSec))
	return nil
}

// promptClock читает время "HH:MM" и переводит его в unix ms на дате date
func (c *Cli) promptClock(label string, current int64, date string) (int64, error) {
	currentLabel := "-"
	if current != 0 {
		currentLabel = time.UnixMilli(current).Format("15:04")
	}
	input, err := c.io.ReadInput(fmt.Sprintf("%s (HH:MM) [%s]: ", label, currentLabel))
	if err != nil {
		return 0, err
	}
	if input == "" {
		return current, nil
	}
	t, err := time.ParseInLocation(models.DateBucket+" 15:04", date+" "+input, time.Local)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", input)
	}
	return t.UnixMilli(), nil
}

func (c *Cli) runDelete(ctx context.Context, args []string) error {
	// Дата может идти последним аргументом после -d
	ids := make([]string, 0, len(args))
	date := time.Now().Format(models.DateBucket)
	for i := 0; i < len(args); i++ {
		if args[i] == "-d" && i+1 < len(args) {
			date = args[i+1]
			i++
			continue
		}
		ids = append(ids, args[i])
	}
	if len(ids) == 0 {
		return fmt.Errorf("missing halt id. Usage: conslogger delete <id>... [-d YYYY-MM-DD]")
	}

	if len(ids) == 1 {
		if err := c.halts.Delete(ctx, date, ids[0]); err != nil {
			return err
		}
		c.io.Println("Halt deleted.")
		return nil
	}

	deleted, err := c.halts.BulkDelete(ctx, date, ids)
	if err != nil {
		return err
	}
	c.io.Printf("Deleted %d of %d halts.\n", deleted, len(ids))
	return nil
}
