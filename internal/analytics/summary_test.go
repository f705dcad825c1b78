package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conslogger/conslogger/internal/models"
)

func completedLog(category string, durationSec int64, arrival time.Time) *models.HaltLog {
	return &models.HaltLog{
		ID:          category + arrival.String(),
		Date:        arrival.Format(models.DateBucket),
		Arrival:     arrival.UnixMilli(),
		Departure:   arrival.Add(time.Duration(durationSec) * time.Second).UnixMilli(),
		DurationSec: durationSec,
		Status:      models.StatusCompleted,
		Category:    category,
	}
}

func TestCalculate(t *testing.T) {
	now := time.Now()
	logs := []*models.HaltLog{
		completedLog("Weather", 400, now),
		completedLog("Equipment", 200, now.Add(time.Hour)),
	}

	s := Calculate(logs)

	assert.Equal(t, int64(600), s.TotalSeconds)
	assert.Equal(t, 2, s.HaltCount)
	assert.Equal(t, int64(400), s.CategorySeconds["Weather"])
	assert.Equal(t, int64(200), s.CategorySeconds["Equipment"])
	assert.Equal(t, 1, s.CategoryCounts["Weather"])
	assert.Equal(t, 1, s.CategoryCounts["Equipment"])
	// Равный счёт: выигрывает первая встреченная категория
	assert.Equal(t, "Weather", s.TopCategory)
}

func TestCalculate_TieBreakFollowsInsertionOrder(t *testing.T) {
	now := time.Now()
	logs := []*models.HaltLog{
		completedLog("Equipment", 10, now),
		completedLog("Weather", 999, now.Add(time.Minute)),
	}

	s := Calculate(logs)

	// Счётчики равны (1 и 1); первой встречена Equipment,
	// несмотря на большую длительность Weather.
	assert.Equal(t, "Equipment", s.TopCategory)
}

func TestCalculate_UncategorizedAndRunning(t *testing.T) {
	now := time.Now()
	running := &models.HaltLog{
		ID:      "r1",
		Arrival: now.UnixMilli(),
		Status:  models.StatusRunning,
	}
	logs := []*models.HaltLog{
		running,
		completedLog("", 60, now),
	}

	s := Calculate(logs)

	assert.Equal(t, int64(60), s.TotalSeconds)
	assert.Equal(t, 2, s.HaltCount)
	assert.Equal(t, 2, s.CategoryCounts[Uncategorized])
}

func TestCalculate_Empty(t *testing.T) {
	s := Calculate(nil)
	assert.Zero(t, s.TotalSeconds)
	assert.Zero(t, s.HaltCount)
	assert.Empty(t, s.TopCategory)
}

func TestLastNDays(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)
	logs := []*models.HaltLog{
		completedLog("Weather", 100, now.AddDate(0, 0, -2)),
		completedLog("Weather", 200, now.AddDate(0, 0, -2).Add(time.Hour)),
		completedLog("Equipment", 50, now),
	}

	result := LastNDays(logs, 3, now)
	require.Len(t, result, 3)

	assert.Equal(t, "2025-06-13", result[0].Date)
	assert.Equal(t, int64(300), result[0].TotalHaltSeconds)
	assert.Equal(t, 2, result[0].HaltCount)

	assert.Equal(t, "2025-06-14", result[1].Date)
	assert.Zero(t, result[1].TotalHaltSeconds)

	assert.Equal(t, "2025-06-15", result[2].Date)
	assert.Equal(t, int64(50), result[2].TotalHaltSeconds)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "00:12:30", FormatDuration(750))
	assert.Equal(t, "02:00:05", FormatDuration(7205))
	assert.Equal(t, "00:00:00", FormatDuration(0))
}

func TestFormatDurationHuman(t *testing.T) {
	assert.Equal(t, "2h 15m", FormatDurationHuman(8100))
	assert.Equal(t, "5m", FormatDurationHuman(300))
	assert.Equal(t, "45s", FormatDurationHuman(45))
}
