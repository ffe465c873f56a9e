package model

import "time"

// Brigade — бригада учреждения.
type Brigade struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	ActionArea    string `json:"action_area"`
	Description   string `json:"description"`
	Coordinator   string `json:"coordinator"`
	Color         string `json:"color"`
	InstitutionID int64  `json:"institution_id"`
	// TeacherID — профессор-владелец (создатель) бригады.
	TeacherID *int64 `json:"teacher_id,omitempty"`
	// DeputyID — заместитель руководителя (Subjefe).
	DeputyID  *int64    `json:"deputy_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// MemberCount — число пользователей, привязанных к бригаде (при чтении списков).
	MemberCount int `json:"member_count"`
}

// DefaultBrigadeName — бригада, создаваемая при регистрации учреждения.
const (
	DefaultBrigadeName = "Brigada General"
	DefaultBrigadeArea = "General"
)

// MaxActionAreaLen — ограничение длины area_accion исходной схемы.
const MaxActionAreaLen = 45
