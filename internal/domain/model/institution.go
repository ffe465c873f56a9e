package model

import "time"

// Institution — учебное учреждение, верхний уровень арендатора.
type Institution struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Address        string    `json:"address"`
	Phone          string    `json:"phone"`
	EducationLevel string    `json:"education_level"`
	LogoPath       *string   `json:"logo_path,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
