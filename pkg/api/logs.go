package api

// HaltLog представляет запись простоя на проводе.
// Формат полей совпадает с models.HaltLog (timestamps в unix ms).
type HaltLog struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Arrival     int64  `json:"arrival_timestamp"`
	Departure   int64  `json:"departure_timestamp,omitempty"`
	DurationSec int64  `json:"halt_duration_seconds,omitempty"`
	Status      string `json:"status"`
	Category    string `json:"category,omitempty"`
	SubCategory string `json:"sub_category,omitempty"`
	SiteID      string `json:"site_id,omitempty"`
	ShiftID     string `json:"shift_id,omitempty"`
	ShiftName   string `json:"shift_name,omitempty"`
	CreatedAt   int64  `json:"created_at"`
}

// LogsResponse список логов владельца за дневную корзину
type LogsResponse struct {
	Logs []HaltLog `json:"logs"`
}

// BulkDeleteRequest пакетное удаление логов в пределах одного владельца.
// Коммитится атомарно (all-or-nothing) на стороне сервера.
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// BulkDeleteResponse результат пакетного удаления
type BulkDeleteResponse struct {
	Deleted int `json:"deleted"`
}

// Site представляет площадку на проводе
type Site struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Location  string `json:"location,omitempty"`
	CreatedAt int64  `json:"created_at"`
	IsDefault bool   `json:"is_default"`
}

// SitesResponse список площадок владельца
type SitesResponse struct {
	Sites []Site `json:"sites"`
}

// Shift представляет смену на проводе
type Shift struct {
	ID        string `json:"id"`
	SiteID    string `json:"site_id"`
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// ShiftsResponse список смен площадки
type ShiftsResponse struct {
	Shifts []Shift `json:"shifts"`
}
