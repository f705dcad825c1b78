package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conslogger/conslogger/internal/models"
)

func sampleRows() []Row {
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	return []Row{
		{
			Owner:    "me",
			SiteName: "Main Site",
			Log: &models.HaltLog{
				ID:          "1",
				Date:        "2025-06-15",
				Arrival:     now.UnixMilli(),
				Departure:   now.Add(750 * time.Second).UnixMilli(),
				DurationSec: 750,
				Status:      models.StatusCompleted,
				Category:    "Weather",
				ShiftName:   "Day Shift",
			},
		},
		{
			Owner: "b.partner",
			Log: &models.HaltLog{
				ID:      "2",
				Date:    "2025-06-15",
				Arrival: now.Add(time.Hour).UnixMilli(),
				Status:  models.StatusRunning,
			},
		},
	}
}

func TestToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.csv")
	require.NoError(t, ToCSV(sampleRows(), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3) // header + 2 rows

	assert.Equal(t, "Owner", records[0][0])
	assert.Equal(t, "me", records[1][0])
	assert.Equal(t, "Weather", records[1][3])
	assert.Equal(t, "750", records[1][6])
	assert.Equal(t, "00:12:30", records[1][7])

	// RUNNING-лог: departure пустой
	assert.Equal(t, "b.partner", records[2][0])
	assert.Empty(t, records[2][5])
	assert.Equal(t, "RUNNING", records[2][8])
}

func TestToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.json")
	require.NoError(t, ToJSON(sampleRows(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var out struct {
		Count   int `json:"count"`
		Entries []struct {
			Owner       string `json:"owner"`
			DurationSec int64  `json:"duration_seconds"`
			Status      string `json:"status"`
			Departure   string `json:"departure"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, 2, out.Count)
	require.Len(t, out.Entries, 2)
	assert.Equal(t, "me", out.Entries[0].Owner)
	assert.Equal(t, int64(750), out.Entries[0].DurationSec)
	assert.Equal(t, "RUNNING", out.Entries[1].Status)
	assert.Empty(t, out.Entries[1].Departure)
}
