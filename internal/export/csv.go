// Package export пишет уже разрешённые (слитые, с владельцами) списки
// логов в плоские файлы. Табличные/PDF форматы остаются за внешней
// утилитой; здесь только CSV и JSON дампы.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/conslogger/conslogger/internal/analytics"
	"github.com/conslogger/conslogger/internal/models"
)

// Row один лог с уже разрешёнными метаданными владельца и площадки.
type Row struct {
	Owner    string          // handle владельца ("me" или handle партнёра)
	SiteName string          // имя площадки (пустое = без метки)
	Log      *models.HaltLog // сама запись
}

// ToCSV пишет строки в CSV-файл по указанному пути.
func ToCSV(rows []Row, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"Owner", "Date", "Site", "Category", "Arrival", "Departure", "Duration (s)", "Duration", "Status", "Shift"}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		departure := ""
		if r.Log.Departure > 0 {
			departure = time.UnixMilli(r.Log.Departure).Local().Format(time.RFC3339)
		}

		row := []string{
			r.Owner,
			r.Log.Date,
			r.SiteName,
			r.Log.Category,
			time.UnixMilli(r.Log.Arrival).Local().Format(time.RFC3339),
			departure,
			fmt.Sprintf("%d", r.Log.DurationSec),
			analytics.FormatDuration(r.Log.DurationSec),
			string(r.Log.Status),
			r.Log.ShiftName,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}
