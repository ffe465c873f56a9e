package repository

import (
	"context"

	"github.com/bigkaa/brigadas/internal/domain/model"
)

// SettingRepository — настройки учреждения (ключ/значение).
type SettingRepository interface {
	Get(ctx context.Context, institutionID int64, key string) (*model.Setting, error)
	Upsert(ctx context.Context, s *model.Setting) error
}

type settingRepo struct {
	db DBTX
}

// NewSettingRepository создаёт репозиторий настроек.
func NewSettingRepository(db DBTX) SettingRepository {
	return &settingRepo{db: db}
}

func (r *settingRepo) Get(ctx context.Context, institutionID int64, key string) (*model.Setting, error) {
	s := &model.Setting{}
	err := r.db.QueryRow(ctx, `
		SELECT institution_id, key, value, updated_by, updated_at
		FROM settings WHERE institution_id = $1 AND key = $2`, institutionID, key,
	).Scan(&s.InstitutionID, &s.Key, &s.Value, &s.UpdatedBy, &s.UpdatedAt)
	if err != nil {
		return nil, mapError(err, "получения настройки")
	}
	return s, nil
}

func (r *settingRepo) Upsert(ctx context.Context, s *model.Setting) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO settings (institution_id, key, value, updated_by, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (institution_id, key)
		DO UPDATE SET value = EXCLUDED.value, updated_by = EXCLUDED.updated_by, updated_at = now()
		RETURNING updated_at`,
		s.InstitutionID, s.Key, s.Value, s.UpdatedBy,
	).Scan(&s.UpdatedAt)
	return mapError(err, "сохранения настройки")
}
