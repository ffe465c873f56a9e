package repository

import (
	"context"
	"fmt"

	"github.com/bigkaa/brigadas/internal/domain/model"
)

// InstitutionRepository — CRUD для таблицы institutions.
type InstitutionRepository interface {
	Create(ctx context.Context, inst *model.Institution) error
	GetByID(ctx context.Context, id int64) (*model.Institution, error)
	List(ctx context.Context) ([]model.Institution, error)
	Update(ctx context.Context, inst *model.Institution) error
	SetLogo(ctx context.Context, id int64, logoPath *string) error
	Delete(ctx context.Context, id int64) error
	// CountDependents возвращает число пользователей и бригад учреждения.
	CountDependents(ctx context.Context, id int64) (users int, brigades int, err error)
}

type institutionRepo struct {
	db DBTX
}

// NewInstitutionRepository создаёт репозиторий учреждений.
func NewInstitutionRepository(db DBTX) InstitutionRepository {
	return &institutionRepo{db: db}
}

const instColumns = `id, name, address, phone, education_level, logo_path, created_at`

func scanInstitution(row interface{ Scan(...any) error }, inst *model.Institution) error {
	return row.Scan(&inst.ID, &inst.Name, &inst.Address, &inst.Phone,
		&inst.EducationLevel, &inst.LogoPath, &inst.CreatedAt)
}

func (r *institutionRepo) Create(ctx context.Context, inst *model.Institution) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO institutions (name, address, phone, education_level, logo_path)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		inst.Name, inst.Address, inst.Phone, inst.EducationLevel, inst.LogoPath,
	).Scan(&inst.ID, &inst.CreatedAt)
	return mapError(err, "создания учреждения")
}

func (r *institutionRepo) GetByID(ctx context.Context, id int64) (*model.Institution, error) {
	query := fmt.Sprintf(`SELECT %s FROM institutions WHERE id = $1`, instColumns)

	inst := &model.Institution{}
	if err := scanInstitution(r.db.QueryRow(ctx, query, id), inst); err != nil {
		return nil, mapError(err, "получения учреждения")
	}
	return inst, nil
}

func (r *institutionRepo) List(ctx context.Context) ([]model.Institution, error) {
	query := fmt.Sprintf(`SELECT %s FROM institutions ORDER BY name`, instColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, mapError(err, "получения списка учреждений")
	}
	defer rows.Close()

	var result []model.Institution
	for rows.Next() {
		var inst model.Institution
		if err := scanInstitution(rows, &inst); err != nil {
			return nil, fmt.Errorf("ошибка сканирования учреждения: %w", err)
		}
		result = append(result, inst)
	}
	return result, rows.Err()
}

func (r *institutionRepo) Update(ctx context.Context, inst *model.Institution) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE institutions
		SET name = $2, address = $3, phone = $4, education_level = $5
		WHERE id = $1`,
		inst.ID, inst.Name, inst.Address, inst.Phone, inst.EducationLevel,
	)
	return checkAffected(tag, err, "обновления учреждения")
}

func (r *institutionRepo) SetLogo(ctx context.Context, id int64, logoPath *string) error {
	tag, err := r.db.Exec(ctx, `UPDATE institutions SET logo_path = $2 WHERE id = $1`, id, logoPath)
	return checkAffected(tag, err, "обновления логотипа")
}

func (r *institutionRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM institutions WHERE id = $1`, id)
	return checkAffected(tag, err, "удаления учреждения")
}

func (r *institutionRepo) CountDependents(ctx context.Context, id int64) (int, int, error) {
	var users, brigades int
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users WHERE institution_id = $1),
			(SELECT COUNT(*) FROM brigades WHERE institution_id = $1)`,
		id,
	).Scan(&users, &brigades)
	if err != nil {
		return 0, 0, mapError(err, "подсчёта зависимостей учреждения")
	}
	return users, brigades, nil
}
