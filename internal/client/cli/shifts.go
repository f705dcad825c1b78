package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/conslogger/conslogger/internal/models"
	"github.com/conslogger/conslogger/internal/shifts"
)

func (c *Cli) runShift(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing subcommand. Usage: conslogger shift <list|add|delete>")
	}

	switch args[0] {
	case "list":
		return c.runShiftList(ctx, args[1:])
	case "add":
		return c.runShiftAdd(ctx, args[1:])
	case "delete":
		return c.runShiftDelete(ctx, args[1:])
	default:
		return fmt.Errorf("unknown shift subcommand: %s", args[0])
	}
}

func (c *Cli) runShiftList(ctx context.Context, args []string) error {
	siteID, siteName, err := c.shiftSite(ctx, args)
	if err != nil {
		return err
	}

	configured, err := c.shifts.GetShiftsBySite(ctx, siteID)
	if err != nil {
		return err
	}

	c.io.Printf("=== Shifts for %s ===\n", siteName)
	c.io.Println()
	if len(configured) == 0 {
		c.io.Println("No shift windows configured.")
		c.io.Println("Halts fall back to Day Shift (06:00-18:00) / Night Shift.")
		return nil
	}
	for _, shift := range configured {
		c.io.Printf("%s  %s-%s  %s\n", shift.ID, shift.StartTime, shift.EndTime, shift.Name)
	}
	return nil
}

func (c *Cli) runShiftAdd(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: conslogger shift add <name> <HH:MM> <HH:MM> [site-id]")
	}
	name, start, end := args[0], args[1], args[2]

	siteID, _, err := c.shiftSite(ctx, args[3:])
	if err != nil {
		return err
	}

	shift := &models.Shift{
		ID:        uuid.New().String(),
		SiteID:    siteID,
		Name:      name,
		StartTime: start,
		EndTime:   end,
	}
	// Отсекаем некорректные границы до записи
	if _, err := shifts.Contains(shift, time.Now()); err != nil {
		return err
	}

	if err := c.shifts.SaveShift(ctx, shift); err != nil {
		return err
	}
	c.io.Printf("Shift created: %s (%s)\n", shift.Name, shift.ID)
	return nil
}

func (c *Cli) runShiftDelete(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing shift id. Usage: conslogger shift delete <id>")
	}
	if err := c.shifts.DeleteShift(ctx, args[0]); err != nil {
		return err
	}
	c.io.Println("Shift deleted.")
	return nil
}

// shiftSite берет site id из аргументов либо из выбранной площадки
func (c *Cli) shiftSite(ctx context.Context, args []string) (string, string, error) {
	if len(args) > 0 {
		site, err := c.sites.Get(ctx, args[0])
		if err != nil {
			return "", "", err
		}
		return site.ID, site.Name, nil
	}
	return c.selectedSite(ctx)
}
