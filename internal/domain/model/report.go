package model

import "time"

// ReportPriority — приоритет инцидента.
type ReportPriority string

const (
	PriorityHigh   ReportPriority = "Alta"
	PriorityMedium ReportPriority = "Media"
	PriorityLow    ReportPriority = "Baja"
)

// Valid сообщает, допустим ли приоритет.
func (p ReportPriority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// ReportStatus — состояние инцидента.
type ReportStatus string

const (
	ReportOpen     ReportStatus = "En Proceso"
	ReportResolved ReportStatus = "Resuelto"
)

// Valid сообщает, допустимо ли состояние.
func (s ReportStatus) Valid() bool {
	return s == ReportOpen || s == ReportResolved
}

// Report — сообщение об инциденте (reporte_incidente).
type Report struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Location    string         `json:"location"`
	Priority    ReportPriority `json:"priority"`
	Status      ReportStatus   `json:"status"`
	BrigadeID   int64          `json:"brigade_id"`
	BrigadeName string         `json:"brigade_name,omitempty"`
	ReporterID  *int64         `json:"reporter_id,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ReportStats — счётчики инцидентов.
type ReportStats struct {
	Total    int `json:"total"`
	Open     int `json:"open"`
	Resolved int `json:"resolved"`
}
