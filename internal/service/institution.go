// institution.go — учреждения: публичный список для формы входа,
// изменение карточки и логотипа, удаление.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/bigkaa/brigadas/internal/domain/model"
	"github.com/bigkaa/brigadas/internal/repository"
)

const institutionListKey = 0

// InstitutionInput — изменяемые поля учреждения.
type InstitutionInput struct {
	Name           string
	Address        string
	Phone          string
	EducationLevel string
}

// InstitutionService — сервис учреждений. Список и карточки кэшируются.
type InstitutionService struct {
	repo   repository.InstitutionRepository
	tx     Transactor
	list   *Cache[int, []model.Institution]
	byID   *Cache[int64, *model.Institution]
	logger *slog.Logger
}

// NewInstitutionService создаёт сервис учреждений.
func NewInstitutionService(
	repo repository.InstitutionRepository,
	tx Transactor,
	list *Cache[int, []model.Institution],
	byID *Cache[int64, *model.Institution],
	logger *slog.Logger,
) *InstitutionService {
	return &InstitutionService{
		repo:   repo,
		tx:     tx,
		list:   list,
		byID:   byID,
		logger: logger.With(slog.String("component", "institution_service")),
	}
}

// List возвращает все учреждения (публично, для формы входа).
func (s *InstitutionService) List(ctx context.Context) ([]model.Institution, error) {
	if cached, ok := s.list.Get(institutionListKey); ok {
		return cached, nil
	}
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeError(err, "получение учреждений")
	}
	s.list.Set(institutionListKey, list)
	return list, nil
}

// Get возвращает учреждение по id.
func (s *InstitutionService) Get(ctx context.Context, id int64) (*model.Institution, error) {
	if cached, ok := s.byID.Get(id); ok {
		return cached, nil
	}
	inst, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "получение учреждения")
	}
	s.byID.Set(id, inst)
	return inst, nil
}

// Update изменяет карточку учреждения сессии (только admin).
func (s *InstitutionService) Update(ctx context.Context, viewer *model.Session, in InstitutionInput) (*model.Institution, error) {
	if err := requireAdmin(viewer); err != nil {
		return nil, err
	}

	inst, err := s.repo.GetByID(ctx, viewer.InstitutionID)
	if err != nil {
		return nil, storeError(err, "получение учреждения")
	}
	inst.Name = strings.TrimSpace(in.Name)
	inst.Address = strings.TrimSpace(in.Address)
	inst.Phone = strings.TrimSpace(in.Phone)
	inst.EducationLevel = strings.TrimSpace(in.EducationLevel)
	if inst.Name == "" {
		return nil, invalid("institution_name_required")
	}

	if err := s.repo.Update(ctx, inst); err != nil {
		return nil, storeError(err, "обновление учреждения")
	}
	s.Invalidate(inst.ID)
	return inst, nil
}

// SetLogo сохраняет путь к логотипу; пустой путь удаляет логотип.
func (s *InstitutionService) SetLogo(ctx context.Context, viewer *model.Session, path string) error {
	if err := requireAdmin(viewer); err != nil {
		return err
	}
	if err := s.repo.SetLogo(ctx, viewer.InstitutionID, optional(path)); err != nil {
		return storeError(err, "сохранение логотипа")
	}
	s.Invalidate(viewer.InstitutionID)
	return nil
}

// Delete удаляет учреждение сессии вместе с учётной записью
// администратора, если других пользователей и бригад нет.
func (s *InstitutionService) Delete(ctx context.Context, viewer *model.Session, id int64) error {
	if err := requireAdmin(viewer); err != nil {
		return err
	}
	if id != viewer.InstitutionID {
		return ErrForbidden
	}

	err := s.tx.InTx(ctx, func(repos *repository.Repositories) error {
		users, brigades, err := repos.Institutions.CountDependents(ctx, id)
		if err != nil {
			return err
		}
		if users > 1 || brigades > 0 {
			return conflict("institution_in_use")
		}
		if err := repos.Users.Delete(ctx, viewer.UserID); err != nil {
			return err
		}
		return repos.Institutions.Delete(ctx, id)
	})
	if err != nil {
		var ce *ConflictError
		if errors.As(err, &ce) {
			return err
		}
		return storeError(err, "удаление учреждения")
	}

	s.Invalidate(id)
	s.logger.Info("Учреждение удалено", slog.Int64("institution_id", id))
	return nil
}

// Invalidate сбрасывает кэш карточки учреждения и списка учреждений.
func (s *InstitutionService) Invalidate(id int64) {
	s.byID.Delete(id)
	s.list.Purge()
}
