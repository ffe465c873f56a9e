package model

import "time"

// User — пользователь системы (таблица users).
type User struct {
	ID         int64   `json:"id"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	NationalID *string `json:"national_id,omitempty"`
	Email      string  `json:"email"`
	Username   *string `json:"username,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Role       Role    `json:"role"`
	BrigadeID  *int64  `json:"brigade_id,omitempty"`
	// InstitutionID — прямая привязка к учреждению.
	// Для записей, перенесённых без неё, учреждение берётся через бригаду.
	InstitutionID *int64    `json:"institution_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// PasswordHash никогда не сериализуется в ответы API.
	PasswordHash string `json:"-"`

	// BrigadeName — денормализованное имя бригады (только при чтении списков).
	BrigadeName string `json:"brigade_name,omitempty"`
}

// FullName возвращает «Имя Фамилия».
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
