package models

// Site представляет рабочую площадку пользователя
type Site struct {
	ID        string `json:"id"`                 // идентификатор площадки
	Name      string `json:"name"`               // имя площадки
	Location  string `json:"location,omitempty"` // необязательная локация
	CreatedAt int64  `json:"created_at"`         // момент создания, unix ms
	IsDefault bool   `json:"is_default"`         // флаг площадки по умолчанию (ровно одна на пользователя)
}

// Shift представляет именованную смену, привязанную к площадке.
// Времена заданы строками "HH:MM"; смена может переходить через полночь.
type Shift struct {
	ID        string `json:"id"`         // идентификатор смены
	SiteID    string `json:"site_id"`    // площадка, к которой относится смена
	Name      string `json:"name"`       // имя смены ("Day Shift", "Night Shift", ...)
	StartTime string `json:"start_time"` // начало, "HH:MM"
	EndTime   string `json:"end_time"`   // конец, "HH:MM" (меньше start = через полночь)
}
