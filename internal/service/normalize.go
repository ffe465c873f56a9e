package service

import (
	"strings"
	"unicode/utf8"
)

// maxPasswordBytes — bcrypt учитывает только первые 72 байта.
const (
	minPasswordLen   = 6
	maxPasswordBytes = 72
)

// normalizeIdentifier приводит логин или email к виду, в котором они хранятся.
func normalizeIdentifier(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// optional возвращает nil для пустой (после trim) строки.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// optionalLower — optional с приведением к нижнему регистру.
func optionalLower(s string) *string {
	return optional(strings.ToLower(s))
}

func validEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}

// checkPassword проверяет длину пароля и совпадение с подтверждением.
func checkPassword(password, confirm string) error {
	switch {
	case password == "":
		return invalid("password_required")
	case password != confirm:
		return invalid("password_mismatch")
	case utf8.RuneCountInString(password) < minPasswordLen:
		return invalid("password_too_short")
	case len(password) > maxPasswordBytes:
		return invalid("password_too_long")
	}
	return nil
}
