// user.go — управление людьми учреждения: профессора и бригадисты.
package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bigkaa/brigadas/internal/auth"
	"github.com/bigkaa/brigadas/internal/domain/model"
	"github.com/bigkaa/brigadas/internal/domain/rbac"
	"github.com/bigkaa/brigadas/internal/repository"
)

// UserInput — поля пользователя, задаваемые при создании и изменении.
// Password используется только при создании.
type UserInput struct {
	FirstName       string
	LastName        string
	NationalID      string
	Email           string
	Username        string
	Phone           string
	Role            string
	BrigadeID       *int64
	Password        string
	PasswordConfirm string
}

// UserService — сервис пользователей.
type UserService struct {
	users    repository.UserRepository
	brigades repository.BrigadeRepository
	hasher   *auth.Hasher
	logger   *slog.Logger
}

// NewUserService создаёт сервис пользователей.
func NewUserService(
	users repository.UserRepository,
	brigades repository.BrigadeRepository,
	hasher *auth.Hasher,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:    users,
		brigades: brigades,
		hasher:   hasher,
		logger:   logger.With(slog.String("component", "user_service")),
	}
}

// Create создаёт пользователя в учреждении сессии.
func (s *UserService) Create(ctx context.Context, viewer *model.Session, in UserInput) (*model.User, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	u, err := s.fromInput(ctx, viewer, in)
	if err != nil {
		return nil, err
	}
	if err := checkPassword(in.Password, in.PasswordConfirm); err != nil {
		return nil, err
	}
	if u.PasswordHash, err = s.hasher.Hash(in.Password); err != nil {
		return nil, err
	}
	u.InstitutionID = &viewer.InstitutionID

	if err := s.users.Create(ctx, u); err != nil {
		return nil, storeError(err, "создание пользователя")
	}

	s.logger.Info("Пользователь создан",
		slog.Int64("user_id", u.ID),
		slog.String("role", string(u.Role)),
		slog.Int64("created_by", viewer.UserID),
	)
	return u, nil
}

// Get возвращает пользователя учреждения сессии.
func (s *UserService) Get(ctx context.Context, viewer *model.Session, id int64) (*model.User, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	return loadUser(ctx, s.users, viewer, id)
}

// Update изменяет пользователя (без пароля).
func (s *UserService) Update(ctx context.Context, viewer *model.Session, id int64, in UserInput) (*model.User, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	current, err := loadUser(ctx, s.users, viewer, id)
	if err != nil {
		return nil, err
	}
	if !rbac.CanManagePeople(viewer, current.Role) {
		return nil, ErrForbidden
	}

	u, err := s.fromInput(ctx, viewer, in)
	if err != nil {
		return nil, err
	}
	u.ID = current.ID
	u.InstitutionID = current.InstitutionID

	if err := s.users.Update(ctx, u); err != nil {
		return nil, storeError(err, "обновление пользователя")
	}
	return loadUser(ctx, s.users, viewer, id)
}

// ChangePassword меняет пароль: себе — любой роли, другим — по CanManagePeople.
func (s *UserService) ChangePassword(ctx context.Context, viewer *model.Session, id int64, password, confirm string) error {
	if err := requireViewer(viewer); err != nil {
		return err
	}
	target, err := loadUser(ctx, s.users, viewer, id)
	if err != nil {
		return err
	}
	if target.ID != viewer.UserID && !rbac.CanManagePeople(viewer, target.Role) {
		return ErrForbidden
	}
	if err := checkPassword(password, confirm); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, id, hash); err != nil {
		return storeError(err, "смена пароля")
	}
	s.logger.Info("Пароль изменён", slog.Int64("user_id", id), slog.Int64("changed_by", viewer.UserID))
	return nil
}

// Delete удаляет пользователя. Удалить себя нельзя.
func (s *UserService) Delete(ctx context.Context, viewer *model.Session, id int64) error {
	if err := requireViewer(viewer); err != nil {
		return err
	}
	if id == viewer.UserID {
		return invalid("cannot_delete_self")
	}
	target, err := loadUser(ctx, s.users, viewer, id)
	if err != nil {
		return err
	}
	if !rbac.CanManagePeople(viewer, target.Role) {
		return ErrForbidden
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return storeError(err, "удаление пользователя")
	}
	s.logger.Info("Пользователь удалён", slog.Int64("user_id", id), slog.Int64("deleted_by", viewer.UserID))
	return nil
}

// People возвращает «бригадистов» учреждения: без фильтра — по группам,
// с фильтром — единым списком (профессора первыми).
func (s *UserService) People(ctx context.Context, viewer *model.Session, f rbac.PeopleFilter) (rbac.People, []model.User, error) {
	if viewer == nil || !(rbac.IsAdmin(viewer.Role) || rbac.IsTeacher(viewer.Role)) {
		return rbac.People{}, nil, ErrForbidden
	}
	users, err := s.users.ListByInstitution(ctx, viewer.InstitutionID)
	if err != nil {
		return rbac.People{}, nil, storeError(err, "получение пользователей")
	}
	if f.Empty() {
		return rbac.VisiblePeople(users), nil, nil
	}
	return rbac.People{}, rbac.FilterPeople(users, f), nil
}

// UpgradePasswordHash пересчитывает устаревший хеш после успешного входа.
// Ошибка записи не мешает входу и только логируется вызывающим.
func (s *UserService) UpgradePasswordHash(ctx context.Context, u *model.User, plaintext string) error {
	if !s.hasher.NeedsRehash(u.PasswordHash) {
		return nil
	}
	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, u.ID, hash); err != nil {
		return storeError(err, "обновление хеша пароля")
	}
	u.PasswordHash = hash
	s.logger.Info("Хеш пароля обновлён", slog.Int64("user_id", u.ID))
	return nil
}

// fromInput валидирует ввод и проверяет права на роль и бригаду.
func (s *UserService) fromInput(ctx context.Context, viewer *model.Session, in UserInput) (*model.User, error) {
	role, err := model.ParseRole(in.Role)
	if err != nil {
		return nil, ErrInvalidRole
	}
	if !rbac.CanManagePeople(viewer, role) {
		return nil, ErrForbidden
	}

	u := &model.User{
		FirstName:  strings.TrimSpace(in.FirstName),
		LastName:   strings.TrimSpace(in.LastName),
		NationalID: optional(in.NationalID),
		Email:      normalizeIdentifier(in.Email),
		Username:   optionalLower(in.Username),
		Phone:      optional(in.Phone),
		Role:       role,
		BrigadeID:  in.BrigadeID,
	}
	switch {
	case u.FirstName == "":
		return nil, invalid("name_required")
	case u.Email == "":
		return nil, invalid("email_required")
	case !validEmail(u.Email):
		return nil, invalid("email_invalid")
	}

	if u.BrigadeID != nil {
		b, err := loadBrigade(ctx, s.brigades, viewer, *u.BrigadeID)
		if err != nil {
			if isNotFound(err) {
				return nil, invalid("brigade_not_found")
			}
			return nil, err
		}
		// Пользователь создаётся в учреждении сессии и в его же бригаде.
		if b.InstitutionID != viewer.InstitutionID {
			return nil, invalid("brigade_not_found")
		}
		// Профессор распределяет людей только в свои бригады.
		if rbac.IsTeacher(viewer.Role) && !rbac.CanMutateBrigade(viewer, b) {
			return nil, ErrForbidden
		}
	}
	return u, nil
}
