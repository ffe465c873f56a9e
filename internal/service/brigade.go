// brigade.go — бригады: видимость по ролям, изменение владельцем,
// защита удаления при наличии участников.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/bigkaa/brigadas/internal/domain/model"
	"github.com/bigkaa/brigadas/internal/domain/rbac"
	"github.com/bigkaa/brigadas/internal/repository"
)

// BrigadeInput — изменяемые поля бригады.
type BrigadeInput struct {
	Name        string
	ActionArea  string
	Description string
	Coordinator string
	Color       string
	// TeacherID — владелец; учитывается только для admin.
	TeacherID *int64
}

// BrigadeService — сервис бригад.
type BrigadeService struct {
	brigades repository.BrigadeRepository
	users    repository.UserRepository
	logger   *slog.Logger
}

// NewBrigadeService создаёт сервис бригад.
func NewBrigadeService(
	brigades repository.BrigadeRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *BrigadeService {
	return &BrigadeService{
		brigades: brigades,
		users:    users,
		logger:   logger.With(slog.String("component", "brigade_service")),
	}
}

// Create создаёт бригаду. Бригада профессора принадлежит ему.
func (s *BrigadeService) Create(ctx context.Context, viewer *model.Session, in BrigadeInput) (*model.Brigade, error) {
	if !rbac.CanCreateBrigade(viewer) {
		return nil, ErrForbidden
	}
	b, err := brigadeFromInput(in)
	if err != nil {
		return nil, err
	}
	b.InstitutionID = viewer.InstitutionID

	switch {
	case rbac.IsTeacher(viewer.Role):
		owner := viewer.UserID
		b.TeacherID = &owner
	case in.TeacherID != nil:
		if err := s.checkTeacher(ctx, viewer, *in.TeacherID); err != nil {
			return nil, err
		}
		b.TeacherID = in.TeacherID
	}

	if err := s.brigades.Create(ctx, b); err != nil {
		return nil, storeError(err, "создание бригады")
	}
	s.logger.Info("Бригада создана",
		slog.Int64("brigade_id", b.ID),
		slog.Int64("created_by", viewer.UserID),
	)
	return b, nil
}

// Get возвращает бригаду с признаком Editable. Участник бригады
// видит свою бригаду, профессор — свои и бригады коллег.
func (s *BrigadeService) Get(ctx context.Context, viewer *model.Session, id int64) (*rbac.BrigadeView, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	b, err := loadBrigade(ctx, s.brigades, viewer, id)
	if err != nil {
		return nil, err
	}

	member, err := memberOf(ctx, s.users, viewer, b.ID)
	if err != nil {
		return nil, err
	}
	if member {
		return &rbac.BrigadeView{Brigade: *b, Editable: rbac.CanMutateBrigade(viewer, b)}, nil
	}

	views, err := s.visible(ctx, viewer, []model.Brigade{*b})
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, ErrNotFound
	}
	return &views[0], nil
}

// List возвращает бригады, видимые сессии.
func (s *BrigadeService) List(ctx context.Context, viewer *model.Session) ([]rbac.BrigadeView, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	if !rbac.IsAdmin(viewer.Role) && !rbac.IsTeacher(viewer.Role) {
		return []rbac.BrigadeView{}, nil
	}
	var (
		brigades []model.Brigade
		err      error
	)
	if rbac.IsAdmin(viewer.Role) {
		brigades, err = s.brigades.ListAll(ctx)
	} else {
		brigades, err = s.brigades.ListByInstitution(ctx, viewer.InstitutionID)
	}
	if err != nil {
		return nil, storeError(err, "получение бригад")
	}
	return s.visible(ctx, viewer, brigades)
}

func (s *BrigadeService) visible(ctx context.Context, viewer *model.Session, brigades []model.Brigade) ([]rbac.BrigadeView, error) {
	var teachers []model.User
	if rbac.IsTeacher(viewer.Role) {
		var err error
		teachers, err = s.users.ListByInstitution(ctx, viewer.InstitutionID, model.RoleProfesor)
		if err != nil {
			return nil, storeError(err, "получение профессоров")
		}
	}
	views := rbac.VisibleBrigades(viewer, brigades, teachers)
	if views == nil {
		views = []rbac.BrigadeView{}
	}
	return views, nil
}

// Update изменяет бригаду (admin или профессор-владелец).
func (s *BrigadeService) Update(ctx context.Context, viewer *model.Session, id int64, in BrigadeInput) (*model.Brigade, error) {
	current, err := mutableBrigade(ctx, s.brigades, viewer, id)
	if err != nil {
		return nil, err
	}
	b, err := brigadeFromInput(in)
	if err != nil {
		return nil, err
	}
	current.Name = b.Name
	current.ActionArea = b.ActionArea
	current.Description = b.Description
	current.Coordinator = b.Coordinator
	current.Color = b.Color

	if err := s.brigades.Update(ctx, current); err != nil {
		return nil, storeError(err, "обновление бригады")
	}
	return current, nil
}

// Delete удаляет бригаду без участников. Иначе возвращает
// *DeleteBlockedError с числом блокирующих пользователей.
func (s *BrigadeService) Delete(ctx context.Context, viewer *model.Session, id int64) error {
	if _, err := mutableBrigade(ctx, s.brigades, viewer, id); err != nil {
		return err
	}

	count, err := s.users.CountByBrigade(ctx, id)
	if err != nil {
		return storeError(err, "подсчёта участников")
	}
	if ok, msg := rbac.CanDeleteBrigade(count); !ok {
		return &DeleteBlockedError{Count: count, Message: msg}
	}

	if err := s.brigades.Delete(ctx, id); err != nil {
		// Участник добавлен между проверкой и удалением.
		if errors.Is(err, repository.ErrForeignKey) {
			if n, cerr := s.users.CountByBrigade(ctx, id); cerr == nil && n > 0 {
				_, msg := rbac.CanDeleteBrigade(n)
				return &DeleteBlockedError{Count: n, Message: msg}
			}
		}
		return storeError(err, "удаление бригады")
	}

	s.logger.Info("Бригада удалена", slog.Int64("brigade_id", id), slog.Int64("deleted_by", viewer.UserID))
	return nil
}

// Members возвращает участников бригады.
func (s *BrigadeService) Members(ctx context.Context, viewer *model.Session, id int64) ([]model.User, error) {
	if _, err := s.Get(ctx, viewer, id); err != nil {
		return nil, err
	}
	users, err := s.users.ListByBrigade(ctx, id)
	if err != nil {
		return nil, storeError(err, "получение участников")
	}
	return orEmpty(users), nil
}

// AssignMember привязывает пользователя учреждения бригады к бригаде.
func (s *BrigadeService) AssignMember(ctx context.Context, viewer *model.Session, brigadeID, userID int64) error {
	b, err := mutableBrigade(ctx, s.brigades, viewer, brigadeID)
	if err != nil {
		return err
	}
	u, err := loadUserIn(ctx, s.users, b.InstitutionID, userID)
	if err != nil {
		return err
	}
	if !rbac.CanManagePeople(viewer, u.Role) {
		return ErrForbidden
	}
	if err := s.users.AssignBrigade(ctx, userID, &brigadeID); err != nil {
		return storeError(err, "назначение бригады")
	}
	return nil
}

// SetDeputy назначает (или снимает при nil) заместителя из участников бригады.
func (s *BrigadeService) SetDeputy(ctx context.Context, viewer *model.Session, brigadeID int64, userID *int64) error {
	b, err := mutableBrigade(ctx, s.brigades, viewer, brigadeID)
	if err != nil {
		return err
	}
	if userID != nil {
		u, err := loadUserIn(ctx, s.users, b.InstitutionID, *userID)
		if err != nil {
			return err
		}
		if u.BrigadeID == nil || *u.BrigadeID != brigadeID || !rbac.IsBrigadeMember(u.Role) {
			return invalid("deputy_not_member")
		}
	}
	if err := s.brigades.SetDeputy(ctx, brigadeID, userID); err != nil {
		return storeError(err, "назначение заместителя")
	}
	return nil
}

func (s *BrigadeService) checkTeacher(ctx context.Context, viewer *model.Session, id int64) error {
	u, err := loadUser(ctx, s.users, viewer, id)
	if err != nil {
		if isNotFound(err) {
			return invalid("teacher_not_found")
		}
		return err
	}
	if !rbac.IsTeacher(u.Role) {
		return invalid("teacher_not_found")
	}
	return nil
}

func brigadeFromInput(in BrigadeInput) (*model.Brigade, error) {
	b := &model.Brigade{
		Name:        strings.TrimSpace(in.Name),
		ActionArea:  strings.TrimSpace(in.ActionArea),
		Description: strings.TrimSpace(in.Description),
		Coordinator: strings.TrimSpace(in.Coordinator),
		Color:       strings.TrimSpace(in.Color),
	}
	switch {
	case b.Name == "":
		return nil, invalid("brigade_name_required")
	case utf8.RuneCountInString(b.ActionArea) > model.MaxActionAreaLen:
		return nil, invalid("action_area_too_long")
	}
	return b, nil
}
