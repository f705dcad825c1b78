// Package analytics считает сводную статистику по уже разрешённым
// спискам логов — итоги дня, разбивку по категориям и т.п.
package analytics

import (
	"fmt"
	"time"

	"github.com/conslogger/conslogger/internal/models"
)

// Uncategorized категория для логов без причины простоя.
const Uncategorized = "Uncategorized"

// Summary сводка по списку логов.
type Summary struct {
	TotalSeconds    int64            // суммарная длительность простоев
	HaltCount       int              // число логов
	CategorySeconds map[string]int64 // категория -> секунды
	CategoryCounts  map[string]int   // категория -> число логов
	TopCategory     string           // самая частая категория (первая встреченная при равенстве)
}

// Calculate строит сводку по списку логов.
// RUNNING-логи учитываются с нулевой длительностью (duration ещё не рассчитан).
// При равенстве счётчиков TopCategory выигрывает категория, встреченная
// в списке первой.
func Calculate(logs []*models.HaltLog) *Summary {
	s := &Summary{
		CategorySeconds: make(map[string]int64),
		CategoryCounts:  make(map[string]int),
	}

	var firstSeen []string

	for _, log := range logs {
		s.TotalSeconds += log.DurationSec
		s.HaltCount++

		cat := log.Category
		if cat == "" {
			cat = Uncategorized
		}
		if _, seen := s.CategoryCounts[cat]; !seen {
			firstSeen = append(firstSeen, cat)
		}
		s.CategorySeconds[cat] += log.DurationSec
		s.CategoryCounts[cat]++
	}

	best := 0
	for _, cat := range firstSeen {
		if s.CategoryCounts[cat] > best {
			best = s.CategoryCounts[cat]
			s.TopCategory = cat
		}
	}

	return s
}

// DailySummary сводка за один день.
type DailySummary struct {
	Date              string           // дневная корзина YYYY-MM-DD
	TotalHaltSeconds  int64            // суммарные секунды простоя
	HaltCount         int              // число логов
	CategoryBreakdown map[string]int64 // категория -> секунды
}

// LastNDays группирует логи по дням за последние days дней (включая
// сегодняшний) и считает сводку для каждого дня. Возвращает дни в
// хронологическом порядке.
func LastNDays(logs []*models.HaltLog, days int, now time.Time) []DailySummary {
	result := make([]DailySummary, 0, days)

	for i := days - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		bucket := day.Format(models.DateBucket)

		var dayLogs []*models.HaltLog
		for _, log := range logs {
			if log.ArrivalTime().Format(models.DateBucket) == bucket {
				dayLogs = append(dayLogs, log)
			}
		}

		summary := Calculate(dayLogs)
		result = append(result, DailySummary{
			Date:              bucket,
			TotalHaltSeconds:  summary.TotalSeconds,
			HaltCount:         summary.HaltCount,
			CategoryBreakdown: summary.CategorySeconds,
		})
	}

	return result
}

// FormatDuration форматирует секунды как HH:MM:SS.
func FormatDuration(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatDurationHuman форматирует секунды в крупных единицах ("2h 15m").
func FormatDurationHuman(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", seconds)
}
