package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bigkaa/brigadas/internal/domain/model"
)

// ActivityRepository — доступ к таблице activities.
// Списки ограничены учреждением через бригаду активности.
type ActivityRepository interface {
	Create(ctx context.Context, a *model.Activity) error
	GetByID(ctx context.Context, id int64) (*model.Activity, error)
	ListRecent(ctx context.Context, institutionID int64, limit int) ([]model.Activity, error)
	ListByBrigade(ctx context.Context, brigadeID int64) ([]model.Activity, error)
	Update(ctx context.Context, a *model.Activity) error
	Delete(ctx context.Context, id int64) error
	// CountByStatus возвращает число активных (не завершённых и не отменённых)
	// и завершённых активностей учреждения.
	CountByStatus(ctx context.Context, institutionID int64) (active int, finished int, err error)
	// PerMonth возвращает число активностей по месяцам начала,
	// начиная с месяца since (включительно).
	PerMonth(ctx context.Context, institutionID int64, since time.Time) ([]model.MonthCount, error)
}

type activityRepo struct {
	db DBTX
}

// NewActivityRepository создаёт репозиторий активностей.
func NewActivityRepository(db DBTX) ActivityRepository {
	return &activityRepo{db: db}
}

const activitySelect = `
	SELECT a.id, a.title, a.description, a.starts_on, a.ends_on, a.status,
		a.brigade_id, b.name, a.created_at
	FROM activities a
	JOIN brigades b ON b.id = a.brigade_id`

func scanActivity(row interface{ Scan(...any) error }, a *model.Activity) error {
	var status string
	err := row.Scan(&a.ID, &a.Title, &a.Description, &a.StartsOn, &a.EndsOn,
		&status, &a.BrigadeID, &a.BrigadeName, &a.CreatedAt)
	a.Status = model.ActivityStatus(status)
	return err
}

func (r *activityRepo) Create(ctx context.Context, a *model.Activity) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO activities (title, description, starts_on, ends_on, status, brigade_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		a.Title, a.Description, a.StartsOn, a.EndsOn, string(a.Status), a.BrigadeID,
	).Scan(&a.ID, &a.CreatedAt)
	return mapError(err, "создания активности")
}

func (r *activityRepo) GetByID(ctx context.Context, id int64) (*model.Activity, error) {
	a := &model.Activity{}
	if err := scanActivity(r.db.QueryRow(ctx, activitySelect+` WHERE a.id = $1`, id), a); err != nil {
		return nil, mapError(err, "получения активности")
	}
	return a, nil
}

func (r *activityRepo) ListRecent(ctx context.Context, institutionID int64, limit int) ([]model.Activity, error) {
	return r.list(ctx, activitySelect+`
		WHERE b.institution_id = $1
		ORDER BY a.starts_on DESC, a.id DESC
		LIMIT $2`, institutionID, limit)
}

func (r *activityRepo) ListByBrigade(ctx context.Context, brigadeID int64) ([]model.Activity, error) {
	return r.list(ctx, activitySelect+` WHERE a.brigade_id = $1 ORDER BY a.starts_on DESC, a.id DESC`, brigadeID)
}

func (r *activityRepo) list(ctx context.Context, query string, args ...any) ([]model.Activity, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "получения списка активностей")
	}
	defer rows.Close()

	var result []model.Activity
	for rows.Next() {
		var a model.Activity
		if err := scanActivity(rows, &a); err != nil {
			return nil, fmt.Errorf("ошибка сканирования активности: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *activityRepo) Update(ctx context.Context, a *model.Activity) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE activities
		SET title = $2, description = $3, starts_on = $4, ends_on = $5, status = $6, brigade_id = $7
		WHERE id = $1`,
		a.ID, a.Title, a.Description, a.StartsOn, a.EndsOn, string(a.Status), a.BrigadeID,
	)
	return checkAffected(tag, err, "обновления активности")
}

func (r *activityRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM activities WHERE id = $1`, id)
	return checkAffected(tag, err, "удаления активности")
}

func (r *activityRepo) CountByStatus(ctx context.Context, institutionID int64) (int, int, error) {
	var active, finished int
	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE a.status NOT IN ('Finalizada', 'Cancelada')),
			COUNT(*) FILTER (WHERE a.status = 'Finalizada')
		FROM activities a
		JOIN brigades b ON b.id = a.brigade_id
		WHERE b.institution_id = $1`, institutionID,
	).Scan(&active, &finished)
	if err != nil {
		return 0, 0, mapError(err, "подсчёта активностей")
	}
	return active, finished, nil
}

func (r *activityRepo) PerMonth(ctx context.Context, institutionID int64, since time.Time) ([]model.MonthCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT date_trunc('month', a.starts_on)::date AS month, COUNT(*)
		FROM activities a
		JOIN brigades b ON b.id = a.brigade_id
		WHERE b.institution_id = $1 AND a.starts_on >= $2
		GROUP BY month
		ORDER BY month`, institutionID, since,
	)
	if err != nil {
		return nil, mapError(err, "подсчёта активностей по месяцам")
	}
	defer rows.Close()

	var result []model.MonthCount
	for rows.Next() {
		var mc model.MonthCount
		if err := rows.Scan(&mc.Month, &mc.Count); err != nil {
			return nil, fmt.Errorf("ошибка сканирования месяца: %w", err)
		}
		result = append(result, mc)
	}
	return result, rows.Err()
}
