package model

import "time"

// Dashboard — ключевые показатели учреждения.
type Dashboard struct {
	TotalBrigades       int          `json:"total_brigades"`
	TotalUsers          int          `json:"total_users"`
	ActiveActivities    int          `json:"active_activities"`
	CompletedActivities int          `json:"completed_activities"`
	ActivitiesPerMonth  []MonthCount `json:"activities_per_month"`
	Reports             ReportStats  `json:"reports"`
}

// Setting — настройка учреждения (ключ/значение).
type Setting struct {
	InstitutionID int64     `json:"institution_id"`
	Key           string    `json:"key"`
	Value         string    `json:"value"`
	UpdatedBy     *int64    `json:"updated_by,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SettingMessageOfDay — ключ «сообщения дня» (Markdown).
const SettingMessageOfDay = "mensaje_dia"
