package models

import (
	"fmt"
	"sort"
	"time"
)

// LogStatus представляет состояние таймера простоя
type LogStatus string

const (
	// StatusRunning таймер запущен, departure ещё не зафиксирован
	StatusRunning LogStatus = "RUNNING"
	// StatusCompleted простой завершён, duration рассчитан
	StatusCompleted LogStatus = "COMPLETED"
)

// DateBucket формат дневной корзины для логов (YYYY-MM-DD)
const DateBucket = "2006-01-02"

// HaltLog представляет одну запись простоя (halt).
// Timestamps хранятся в миллисекундах Unix epoch — формат, в котором
// записи ходят по проводу и лежат в обоих хранилищах.
type HaltLog struct {
	ID          string    `json:"id"`                             // уникальный в пределах владельца идентификатор
	Date        string    `json:"date"`                           // дневная корзина YYYY-MM-DD
	Arrival     int64     `json:"arrival_timestamp"`              // момент начала простоя, unix ms
	Departure   int64     `json:"departure_timestamp,omitempty"`  // момент окончания, unix ms (0 = ещё идёт)
	DurationSec int64     `json:"halt_duration_seconds,omitempty"` // производная длительность в секундах
	Status      LogStatus `json:"status"`                         // RUNNING или COMPLETED
	Category    string    `json:"category,omitempty"`             // причина простоя ("Weather", "Equipment", ...)
	SubCategory string    `json:"sub_category,omitempty"`         // уточнение/заметка
	SiteID      string    `json:"site_id,omitempty"`              // площадка, к которой привязан лог (пусто = без метки)
	ShiftID     string    `json:"shift_id,omitempty"`             // смена, в которую начался простой
	ShiftName   string    `json:"shift_name,omitempty"`           // имя смены на момент создания
	CreatedAt   int64     `json:"created_at"`                     // момент создания записи, unix ms
}

// IsRunning сообщает, идёт ли простой прямо сейчас.
func (l *HaltLog) IsRunning() bool {
	return l.Status == StatusRunning
}

// ComputeDuration пересчитывает DurationSec из пары timestamps.
// Возвращает ошибку, если departure раньше arrival.
func (l *HaltLog) ComputeDuration() error {
	if l.Departure == 0 {
		return fmt.Errorf("departure timestamp is not set")
	}
	if l.Departure < l.Arrival {
		return fmt.Errorf("departure %d is before arrival %d", l.Departure, l.Arrival)
	}
	l.DurationSec = (l.Departure - l.Arrival) / 1000
	return nil
}

// ArrivalTime возвращает arrival как time.Time.
func (l *HaltLog) ArrivalTime() time.Time {
	return time.UnixMilli(l.Arrival)
}

// Clone создает копию записи
func (l *HaltLog) Clone() *HaltLog {
	c := *l
	return &c
}

// SortLogsByArrivalDesc сортирует логи по arrival по убыванию
// (самые свежие первыми) — порядок, в котором их показывает UI.
func SortLogsByArrivalDesc(logs []*HaltLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Arrival > logs[j].Arrival
	})
}
