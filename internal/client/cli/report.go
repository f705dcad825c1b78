package cli

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/conslogger/conslogger/internal/analytics"
	"github.com/conslogger/conslogger/internal/export"
	"github.com/conslogger/conslogger/internal/models"
)

func (c *Cli) runSummary(ctx context.Context, args []string) error {
	date := ""
	if len(args) > 0 {
		if args[0] == "week" {
			return c.runWeekSummary(ctx)
		}
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
		date = time.Now().Format(models.DateBucket)
	}
	summary := analytics.Calculate(logs)

	c.io.Printf("=== Summary for %s ===\n", date)
	c.io.Println()
	c.io.Printf("Halts: %d\n", summary.HaltCount)
	c.io.Printf("Total: %s\n", analytics.FormatDuration(summary.TotalSeconds))

	if len(summary.CategorySeconds) > 0 {
		c.io.Println()
		categories := make([]string, 0, len(summary.CategorySeconds))
		for cat := range summary.CategorySeconds {
			categories = append(categories, cat)
		}
		sort.Slice(categories, func(i, j int) bool {
			return summary.CategorySeconds[categories[i]] > summary.CategorySeconds[categories[j]]
		})
		for _, cat := range categories {
			c.io.Printf("  %-20s %s (%d)\n", cat,
				analytics.FormatDuration(summary.CategorySeconds[cat]), summary.CategoryCounts[cat])
		}
		c.io.Println()
		c.io.Printf("Most frequent: %s\n", summary.TopCategory)
	}
	return nil
}

// runWeekSummary итоги по дням за последние 7 дней
func (c *Cli) runWeekSummary(ctx context.Context) error {
	now := time.Now()
	var logs []*models.HaltLog
	for i := 6; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).Format(models.DateBucket)
		dayLogs, err := c.halts.ListByDate(ctx, date)
		if err != nil {
			return err
		}
		logs = append(logs, dayLogs...)
	}

	c.io.Println("=== Last 7 days ===")
	c.io.Println()
	for _, day := range analytics.LastNDays(logs, 7, now) {
		c.io.Printf("%s  %s  %d halts\n", day.Date,
			analytics.FormatDuration(day.TotalHaltSeconds), day.HaltCount)
	}
	return nil
}

func (c *Cli) runExport(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: conslogger export <csv|json> <path> [YYYY-MM-DD]")
	}
	format, path := args[0], args[1]
	date := ""
	if len(args) > 2 {
		date = args[2]
	}

	logs, err := c.halts.ListByDate(ctx, date)
	if err != nil {
		return err
	}

	siteNames := map[string]string{}
	if all, err := c.sites.List(ctx); err == nil {
		for _, site := range all {
			siteNames[site.ID] = site.Name
		}
	}

	owner := "me"
	if c.self != nil {
		owner = c.self.Handle
	}

	rows := make([]export.Row, 0, len(logs))
	for _, log := range logs {
		rows = append(rows, export.Row{
			Owner:    owner,
			SiteName: siteNames[log.SiteID],
			Log:      log,
		})
	}

	switch format {
	case "csv":
		err = export.ToCSV(rows, path)
	case "json":
		err = export.ToJSON(rows, path)
	default:
		return fmt.Errorf("unknown format %q, use csv or json", format)
	}
	if err != nil {
		return err
	}

	c.io.Printf("Exported %d halts to %s\n", len(rows), path)
	return nil
}
