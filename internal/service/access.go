package service

import (
	"context"
	"errors"

	"github.com/bigkaa/brigadas/internal/domain/model"
	"github.com/bigkaa/brigadas/internal/domain/rbac"
	"github.com/bigkaa/brigadas/internal/repository"
)

// requireViewer проверяет наличие сессии.
func requireViewer(viewer *model.Session) error {
	if viewer == nil {
		return ErrForbidden
	}
	return nil
}

// requireAdmin — только администраторы учреждения.
func requireAdmin(viewer *model.Session) error {
	if viewer == nil || !rbac.IsAdmin(viewer.Role) {
		return ErrForbidden
	}
	return nil
}

// loadBrigade читает бригаду. Admin видит бригады всех учреждений,
// для остальных бригада чужого учреждения неотличима от несуществующей.
func loadBrigade(ctx context.Context, brigades repository.BrigadeRepository, viewer *model.Session, id int64) (*model.Brigade, error) {
	b, err := brigades.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "получение бригады")
	}
	if !rbac.IsAdmin(viewer.Role) && b.InstitutionID != viewer.InstitutionID {
		return nil, ErrNotFound
	}
	return b, nil
}

// mutableBrigade — loadBrigade + rbac.CanMutateBrigade.
func mutableBrigade(ctx context.Context, brigades repository.BrigadeRepository, viewer *model.Session, id int64) (*model.Brigade, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	b, err := loadBrigade(ctx, brigades, viewer, id)
	if err != nil {
		return nil, err
	}
	if !rbac.CanMutateBrigade(viewer, b) {
		return nil, ErrForbidden
	}
	return b, nil
}

// loadUser читает пользователя учреждения сессии.
func loadUser(ctx context.Context, users repository.UserRepository, viewer *model.Session, id int64) (*model.User, error) {
	return loadUserIn(ctx, users, viewer.InstitutionID, id)
}

// loadUserIn читает пользователя указанного учреждения.
func loadUserIn(ctx context.Context, users repository.UserRepository, institutionID, id int64) (*model.User, error) {
	u, err := users.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "получение пользователя")
	}
	if u.InstitutionID == nil || *u.InstitutionID != institutionID {
		return nil, ErrNotFound
	}
	return u, nil
}

// memberOf сообщает, состоит ли пользователь сессии в бригаде сейчас.
// Бригада в сессии фиксируется при входе и после перевода устаревает,
// поэтому она перечитывается из хранилища.
func memberOf(ctx context.Context, users repository.UserRepository, viewer *model.Session, brigadeID int64) (bool, error) {
	if !rbac.IsBrigadeMember(viewer.Role) {
		return false, nil
	}
	u, err := users.GetByID(ctx, viewer.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, storeError(err, "получение пользователя")
	}
	return u.BrigadeID != nil && *u.BrigadeID == brigadeID, nil
}

func isNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
