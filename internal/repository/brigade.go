package repository

import (
	"context"
	"fmt"

	"github.com/bigkaa/brigadas/internal/domain/model"
)

// BrigadeRepository — доступ к таблице brigades.
type BrigadeRepository interface {
	Create(ctx context.Context, b *model.Brigade) error
	GetByID(ctx context.Context, id int64) (*model.Brigade, error)
	ListByInstitution(ctx context.Context, institutionID int64) ([]model.Brigade, error)
	ListAll(ctx context.Context) ([]model.Brigade, error)
	Update(ctx context.Context, b *model.Brigade) error
	SetDeputy(ctx context.Context, id int64, deputyID *int64) error
	SetTeacher(ctx context.Context, id int64, teacherID *int64) error
	Delete(ctx context.Context, id int64) error
	CountByInstitution(ctx context.Context, institutionID int64) (int, error)
}

type brigadeRepo struct {
	db DBTX
}

// NewBrigadeRepository создаёт репозиторий бригад.
func NewBrigadeRepository(db DBTX) BrigadeRepository {
	return &brigadeRepo{db: db}
}

const brigadeSelect = `
	SELECT b.id, b.name, b.action_area, b.description, b.coordinator, b.color,
		b.institution_id, b.teacher_id, b.deputy_id, b.created_at,
		(SELECT COUNT(*) FROM users u WHERE u.brigade_id = b.id)
	FROM brigades b`

func scanBrigade(row interface{ Scan(...any) error }, b *model.Brigade) error {
	return row.Scan(&b.ID, &b.Name, &b.ActionArea, &b.Description, &b.Coordinator,
		&b.Color, &b.InstitutionID, &b.TeacherID, &b.DeputyID, &b.CreatedAt, &b.MemberCount)
}

func (r *brigadeRepo) Create(ctx context.Context, b *model.Brigade) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO brigades (name, action_area, description, coordinator, color,
			institution_id, teacher_id, deputy_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		b.Name, b.ActionArea, b.Description, b.Coordinator, b.Color,
		b.InstitutionID, b.TeacherID, b.DeputyID,
	).Scan(&b.ID, &b.CreatedAt)
	return mapError(err, "создания бригады")
}

func (r *brigadeRepo) GetByID(ctx context.Context, id int64) (*model.Brigade, error) {
	b := &model.Brigade{}
	if err := scanBrigade(r.db.QueryRow(ctx, brigadeSelect+` WHERE b.id = $1`, id), b); err != nil {
		return nil, mapError(err, "получения бригады")
	}
	return b, nil
}

func (r *brigadeRepo) ListByInstitution(ctx context.Context, institutionID int64) ([]model.Brigade, error) {
	return r.list(ctx, brigadeSelect+` WHERE b.institution_id = $1 ORDER BY b.name`, institutionID)
}

// ListAll возвращает бригады всех учреждений.
func (r *brigadeRepo) ListAll(ctx context.Context) ([]model.Brigade, error) {
	return r.list(ctx, brigadeSelect+` ORDER BY b.name, b.id`)
}

func (r *brigadeRepo) list(ctx context.Context, query string, args ...any) ([]model.Brigade, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "получения списка бригад")
	}
	defer rows.Close()

	var result []model.Brigade
	for rows.Next() {
		var b model.Brigade
		if err := scanBrigade(rows, &b); err != nil {
			return nil, fmt.Errorf("ошибка сканирования бригады: %w", err)
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func (r *brigadeRepo) Update(ctx context.Context, b *model.Brigade) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE brigades
		SET name = $2, action_area = $3, description = $4, coordinator = $5, color = $6
		WHERE id = $1`,
		b.ID, b.Name, b.ActionArea, b.Description, b.Coordinator, b.Color,
	)
	return checkAffected(tag, err, "обновления бригады")
}

func (r *brigadeRepo) SetDeputy(ctx context.Context, id int64, deputyID *int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE brigades SET deputy_id = $2 WHERE id = $1`, id, deputyID)
	return checkAffected(tag, err, "назначения заместителя")
}

func (r *brigadeRepo) SetTeacher(ctx context.Context, id int64, teacherID *int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE brigades SET teacher_id = $2 WHERE id = $1`, id, teacherID)
	return checkAffected(tag, err, "назначения владельца бригады")
}

func (r *brigadeRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM brigades WHERE id = $1`, id)
	return checkAffected(tag, err, "удаления бригады")
}

func (r *brigadeRepo) CountByInstitution(ctx context.Context, institutionID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM brigades WHERE institution_id = $1`, institutionID).Scan(&n)
	if err != nil {
		return 0, mapError(err, "подсчёта бригад")
	}
	return n, nil
}
