// Package shifts определяет принадлежность момента времени именованной
// смене площадки. Смены задаются окнами "HH:MM"-"HH:MM" и могут
// переходить через полночь.
package shifts

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/conslogger/conslogger/internal/models"
)

// Имена смен по умолчанию, когда у площадки нет настроенных окон.
const (
	DayShiftName   = "Day Shift"
	NightShiftName = "Night Shift"
)

// parseClock разбирает строку "HH:MM" в минуты от полуночи.
func parseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

// Contains проверяет, попадает ли момент t в окно смены.
// Окно с start >= end трактуется как ночное (через полночь).
func Contains(shift *models.Shift, t time.Time) (bool, error) {
	start, err := parseClock(shift.StartTime)
	if err != nil {
		return false, fmt.Errorf("shift %s: %w", shift.ID, err)
	}
	end, err := parseClock(shift.EndTime)
	if err != nil {
		return false, fmt.Errorf("shift %s: %w", shift.ID, err)
	}

	current := t.Hour()*60 + t.Minute()

	if start < end {
		// Обычная дневная смена (например 09:00 - 17:00)
		return current >= start && current < end, nil
	}
	// Ночная смена (например 22:00 - 06:00)
	return current >= start || current < end, nil
}

// Current возвращает смену, в которую попадает момент t, или nil,
// если ни одно окно не подошло. Окна с некорректным форматом пропускаются.
func Current(configured []*models.Shift, t time.Time) *models.Shift {
	for _, shift := range configured {
		ok, err := Contains(shift, t)
		if err != nil {
			continue
		}
		if ok {
			return shift
		}
	}
	return nil
}

// FallbackName возвращает имя смены по простому правилу день/ночь,
// когда настроенных смен нет: 06:00-18:00 дневная, иначе ночная.
func FallbackName(t time.Time) string {
	h := t.Hour()
	if h >= 6 && h < 18 {
		return DayShiftName
	}
	return NightShiftName
}

// Resolve определяет смену для момента t: сначала настроенные окна,
// затем день/ночь fallback. Возвращает (id, имя).
func Resolve(configured []*models.Shift, t time.Time) (string, string) {
	if shift := Current(configured, t); shift != nil {
		return shift.ID, shift.Name
	}
	return "", FallbackName(t)
}
