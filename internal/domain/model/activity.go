package model

import "time"

// ActivityStatus — состояние активности.
type ActivityStatus string

const (
	ActivityPlanned    ActivityStatus = "Planificada"
	ActivityInProgress ActivityStatus = "En curso"
	ActivityFinished   ActivityStatus = "Finalizada"
	ActivityCancelled  ActivityStatus = "Cancelada"
)

// Valid сообщает, допустимо ли состояние.
func (s ActivityStatus) Valid() bool {
	switch s {
	case ActivityPlanned, ActivityInProgress, ActivityFinished, ActivityCancelled:
		return true
	}
	return false
}

// Activity — мероприятие бригады.
type Activity struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	StartsOn    time.Time      `json:"starts_on"`
	EndsOn      *time.Time     `json:"ends_on,omitempty"`
	Status      ActivityStatus `json:"status"`
	BrigadeID   int64          `json:"brigade_id"`
	BrigadeName string         `json:"brigade_name,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// MonthCount — число активностей за календарный месяц.
type MonthCount struct {
	// Month — первый день месяца.
	Month time.Time `json:"month"`
	Count int       `json:"count"`
}
