package model

import "time"

// ShiftStatus — состояние смены.
type ShiftStatus string

const (
	ShiftScheduled ShiftStatus = "Programado"
	ShiftCompleted ShiftStatus = "Completado"
	ShiftCancelled ShiftStatus = "Cancelado"
)

// Valid сообщает, допустимо ли состояние.
func (s ShiftStatus) Valid() bool {
	return s == ShiftScheduled || s == ShiftCompleted || s == ShiftCancelled
}

// Shift — дежурство бригады. Время хранится как «ЧЧ:ММ».
type Shift struct {
	ID          int64       `json:"id"`
	BrigadeID   int64       `json:"brigade_id"`
	BrigadeName string      `json:"brigade_name,omitempty"`
	Date        time.Time   `json:"date"`
	StartTime   string      `json:"start_time"`
	EndTime     string      `json:"end_time"`
	Location    string      `json:"location"`
	Notes       string      `json:"notes"`
	Status      ShiftStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
}

// ShiftStats — сводка по сменам.
type ShiftStats struct {
	TotalShifts     int `json:"total_shifts"`
	AssignedMembers int `json:"assigned_members"`
	DaysWithShifts  int `json:"days_with_shifts"`
}
