package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/conslogger/conslogger/internal/analytics"
)

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	Count      int         `json:"count"`
	Entries    []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	ID          string `json:"id"`
	Owner       string `json:"owner"`
	Date        string `json:"date"`
	Site        string `json:"site,omitempty"`
	Category    string `json:"category,omitempty"`
	Arrival     string `json:"arrival"`
	Departure   string `json:"departure,omitempty"`
	DurationSec int64  `json:"duration_seconds"`
	Duration    string `json:"duration"`
	Status      string `json:"status"`
	Shift       string `json:"shift,omitempty"`
}

// ToJSON пишет строки в JSON-файл по указанному пути.
func ToJSON(rows []Row, path string) error {
	out := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(rows),
	}

	for _, r := range rows {
		departure := ""
		if r.Log.Departure > 0 {
			departure = time.UnixMilli(r.Log.Departure).Local().Format(time.RFC3339)
		}

		out.Entries = append(out.Entries, jsonEntry{
			ID:          r.Log.ID,
			Owner:       r.Owner,
			Date:        r.Log.Date,
			Site:        r.SiteName,
			Category:    r.Log.Category,
			Arrival:     time.UnixMilli(r.Log.Arrival).Local().Format(time.RFC3339),
			Departure:   departure,
			DurationSec: r.Log.DurationSec,
			Duration:    analytics.FormatDuration(r.Log.DurationSec),
			Status:      string(r.Log.Status),
			Shift:       r.Log.ShiftName,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
