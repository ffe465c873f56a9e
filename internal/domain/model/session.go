package model

import "time"

// Session — снимок аутентифицированного пользователя.
// Создаётся при входе, уничтожается при выходе или по истечении ExpiresAt.
type Session struct {
	ID              string    `json:"id"`
	UserID          int64     `json:"user_id"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Email           string    `json:"email"`
	Username        string    `json:"username,omitempty"`
	Role            Role      `json:"role"`
	BrigadeID       *int64    `json:"brigade_id,omitempty"`
	InstitutionID   int64     `json:"institution_id"`
	InstitutionName string    `json:"institution_name"`
	LogoPath        *string   `json:"logo_path,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// Expired сообщает, истёк ли срок сессии на момент now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// DisplayName — «Dir. Ana Pérez» для заголовков клиента.
func (s *Session) DisplayName() string {
	name := s.FirstName
	if s.LastName != "" {
		name += " " + s.LastName
	}
	return s.Role.Abbrev() + " " + name
}
