// Пакет service — бизнес-логика: аутентификация, сессии и CRUD учреждения.
// auth.go — вход по учреждению/идентификатору/паролю и регистрация учреждения.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/brigadas/internal/auth"
	"github.com/bigkaa/brigadas/internal/domain/model"
	"github.com/bigkaa/brigadas/internal/domain/rbac"
	"github.com/bigkaa/brigadas/internal/repository"
)

var authAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "br_auth_attempts_total",
	Help: "Попытки входа по результату (success, invalid, validation, unavailable).",
}, []string{"result"})

// Transactor выполняет fn с репозиториями одной транзакции.
type Transactor interface {
	InTx(ctx context.Context, fn func(repos *repository.Repositories) error) error
}

// Credentials — данные формы входа.
type Credentials struct {
	InstitutionID int64
	// Identifier — логин или email.
	Identifier string
	Password   string
	// Class — класс формы входа: "teacher", "admin" или пусто/"any".
	Class string
}

// Registration — данные регистрации учреждения и его администратора.
type Registration struct {
	InstitutionName string
	Address         string
	Phone           string
	EducationLevel  string

	FirstName       string
	LastName        string
	Email           string
	Username        string
	Password        string
	PasswordConfirm string
	// Role — Directivo или Coordinador; пусто означает Directivo.
	Role string
}

// AuthService — аутентификация и регистрация.
type AuthService struct {
	users  repository.UserRepository
	tx     Transactor
	hasher *auth.Hasher
	logger *slog.Logger
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(
	users repository.UserRepository,
	tx Transactor,
	hasher *auth.Hasher,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:  users,
		tx:     tx,
		hasher: hasher,
		logger: logger.With(slog.String("component", "auth_service")),
	}
}

// Authenticate проверяет учётные данные и возвращает пользователя.
// Только чтение: обновление устаревшего хеша выполняет вызывающий
// через UserService.UpgradePasswordHash.
func (s *AuthService) Authenticate(ctx context.Context, c Credentials) (*model.User, error) {
	identifier := normalizeIdentifier(c.Identifier)
	var verr error
	switch {
	case c.InstitutionID <= 0:
		verr = invalid("institution_required")
	case identifier == "":
		verr = invalid("identifier_required")
	case strings.TrimSpace(c.Password) == "":
		verr = invalid("password_required")
	}
	class, err := rbac.ParseLoginClass(c.Class)
	if verr == nil && err != nil {
		verr = invalid("login_class_invalid")
	}
	if verr != nil {
		authAttemptsTotal.WithLabelValues("validation").Inc()
		return nil, verr
	}

	user, err := s.users.FindByIdentifier(ctx, c.InstitutionID, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.hasher.VerifyDummy(c.Password)
			return nil, s.reject(c.InstitutionID, "unknown_identifier")
		}
		authAttemptsTotal.WithLabelValues("unavailable").Inc()
		return nil, storeError(err, "поиск пользователя")
	}

	if !s.hasher.Verify(c.Password, user.PasswordHash) {
		return nil, s.reject(c.InstitutionID, "wrong_password")
	}
	if !class.Accepts(user.Role) {
		return nil, s.reject(c.InstitutionID, "role_class_mismatch")
	}

	authAttemptsTotal.WithLabelValues("success").Inc()
	s.logger.Info("Успешный вход",
		slog.Int64("institution_id", c.InstitutionID),
		slog.Int64("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return user, nil
}

// reject логирует причину отказа и возвращает обезличенную ошибку.
func (s *AuthService) reject(institutionID int64, cause string) error {
	authAttemptsTotal.WithLabelValues("invalid").Inc()
	s.logger.Warn("Отказ во входе",
		slog.Int64("institution_id", institutionID),
		slog.String("cause", cause),
	)
	return ErrInvalidCredentials
}

// Register создаёт учреждение, бригаду по умолчанию и администратора
// в одной транзакции.
func (s *AuthService) Register(ctx context.Context, r Registration) (*model.Institution, *model.User, error) {
	role, err := registrationRole(r.Role)
	if err != nil {
		return nil, nil, err
	}

	inst := &model.Institution{
		Name:           strings.TrimSpace(r.InstitutionName),
		Address:        strings.TrimSpace(r.Address),
		Phone:          strings.TrimSpace(r.Phone),
		EducationLevel: strings.TrimSpace(r.EducationLevel),
	}
	user := &model.User{
		FirstName: strings.TrimSpace(r.FirstName),
		LastName:  strings.TrimSpace(r.LastName),
		Email:     normalizeIdentifier(r.Email),
		Username:  optionalLower(r.Username),
		Role:      role,
	}

	switch {
	case inst.Name == "":
		return nil, nil, invalid("institution_name_required")
	case inst.Address == "" || inst.Phone == "" || inst.EducationLevel == "":
		return nil, nil, invalid("institution_fields_required")
	case user.FirstName == "" || user.LastName == "":
		return nil, nil, invalid("name_required")
	case user.Email == "":
		return nil, nil, invalid("email_required")
	case !validEmail(user.Email):
		return nil, nil, invalid("email_invalid")
	case user.Username == nil:
		return nil, nil, invalid("username_required")
	}
	if err := checkPassword(r.Password, r.PasswordConfirm); err != nil {
		return nil, nil, err
	}

	user.PasswordHash, err = s.hasher.Hash(r.Password)
	if err != nil {
		return nil, nil, err
	}

	err = s.tx.InTx(ctx, func(repos *repository.Repositories) error {
		if exists, err := repos.Users.EmailExists(ctx, user.Email); err != nil {
			return err
		} else if exists {
			return conflict("email_taken")
		}
		if exists, err := repos.Users.UsernameExists(ctx, *user.Username); err != nil {
			return err
		} else if exists {
			return conflict("username_taken")
		}

		if err := repos.Institutions.Create(ctx, inst); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return conflict("institution_exists")
			}
			return err
		}

		general := &model.Brigade{
			Name:          model.DefaultBrigadeName,
			ActionArea:    model.DefaultBrigadeArea,
			InstitutionID: inst.ID,
		}
		if err := repos.Brigades.Create(ctx, general); err != nil {
			return err
		}

		user.InstitutionID = &inst.ID
		return repos.Users.Create(ctx, user)
	})
	if err != nil {
		var ce *ConflictError
		if errors.As(err, &ce) {
			return nil, nil, err
		}
		return nil, nil, storeError(err, "регистрация учреждения")
	}

	s.logger.Info("Учреждение зарегистрировано",
		slog.Int64("institution_id", inst.ID),
		slog.Int64("user_id", user.ID),
	)
	return inst, user, nil
}

func registrationRole(raw string) (model.Role, error) {
	if strings.TrimSpace(raw) == "" {
		return model.RoleDirectivo, nil
	}
	role, err := model.ParseRole(raw)
	if err != nil || !rbac.IsAdmin(role) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
	}
	return role, nil
}
