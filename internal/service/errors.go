// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import (
	"errors"
	"fmt"

	"github.com/bigkaa/brigadas/internal/database"
	"github.com/bigkaa/brigadas/internal/repository"
)

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrConflict — конфликт (дублирующийся или используемый ресурс).
	ErrConflict = errors.New("конфликт — ресурс уже существует или используется")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrInvalidCredentials — неверные учётные данные. Причина отказа
	// (нет пользователя, неверный пароль, не тот класс роли) не раскрывается.
	ErrInvalidCredentials = errors.New("неверные учётные данные")
	// ErrForbidden — действие запрещено политикой ролей.
	ErrForbidden = errors.New("действие запрещено")
	// ErrStoreUnavailable — хранилище данных недоступно.
	ErrStoreUnavailable = errors.New("хранилище данных недоступно")
	// ErrInvalidRole — некорректная роль.
	ErrInvalidRole = errors.New("некорректная роль")
	// ErrBrigadeHasMembers — бригада не удалена: к ней привязаны пользователи.
	ErrBrigadeHasMembers = errors.New("к бригаде привязаны пользователи")
)

// ValidationError — ошибка валидации с ключом сообщения каталога i18n.
type ValidationError struct {
	Key string
}

func (e *ValidationError) Error() string { return "ошибка валидации: " + e.Key }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(key string) error { return &ValidationError{Key: key} }

// DeleteBlockedError — удаление заблокировано зависимыми записями.
type DeleteBlockedError struct {
	Count   int
	Message string
}

func (e *DeleteBlockedError) Error() string { return e.Message }

func (e *DeleteBlockedError) Unwrap() error { return ErrBrigadeHasMembers }

// storeError переводит ошибки репозиториев в ошибки сервиса.
// what — описание операции для обёртки.
func storeError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrConflict), errors.Is(err, repository.ErrForeignKey):
		return fmt.Errorf("%s: %w", what, ErrConflict)
	case database.IsUnavailable(err):
		return fmt.Errorf("%s: %w: %v", what, ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// ConflictError — конфликт уникальности или использования с ключом сообщения i18n.
type ConflictError struct {
	Key string
}

func (e *ConflictError) Error() string { return "конфликт: " + e.Key }

func (e *ConflictError) Unwrap() error { return ErrConflict }

func conflict(key string) error { return &ConflictError{Key: key} }
