package repository

import (
	"context"
	"fmt"

	"github.com/bigkaa/brigadas/internal/domain/model"
)

// IndicatorFilter — условия выборки показателей.
type IndicatorFilter struct {
	ActivityID *int64
	// Type сравнивается без учёта регистра.
	Type string
}

// IndicatorRepository — доступ к таблице environmental_indicators.
type IndicatorRepository interface {
	Create(ctx context.Context, ind *model.Indicator) error
	GetByID(ctx context.Context, id int64) (*model.Indicator, error)
	List(ctx context.Context, institutionID int64, f IndicatorFilter) ([]model.Indicator, error)
	Update(ctx context.Context, ind *model.Indicator) error
	Delete(ctx context.Context, id int64) error
	// Summary суммирует значения по паре (тип, единица).
	Summary(ctx context.Context, institutionID int64) ([]model.IndicatorSummary, error)
	// InstitutionOf возвращает учреждение, которому принадлежит активность показателя.
	InstitutionOf(ctx context.Context, id int64) (int64, error)
}

type indicatorRepo struct {
	db DBTX
}

// NewIndicatorRepository создаёт репозиторий показателей.
func NewIndicatorRepository(db DBTX) IndicatorRepository {
	return &indicatorRepo{db: db}
}

const indicatorSelect = `
	SELECT i.id, i.activity_id, a.title, i.indicator_type, i.value::float8, i.unit, i.recorded_at
	FROM environmental_indicators i
	JOIN activities a ON a.id = i.activity_id
	JOIN brigades b ON b.id = a.brigade_id`

func scanIndicator(row interface{ Scan(...any) error }, ind *model.Indicator) error {
	return row.Scan(&ind.ID, &ind.ActivityID, &ind.ActivityTitle, &ind.Type,
		&ind.Value, &ind.Unit, &ind.RecordedAt)
}

func (r *indicatorRepo) Create(ctx context.Context, ind *model.Indicator) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO environmental_indicators (activity_id, indicator_type, value, unit)
		VALUES ($1, $2, $3, $4)
		RETURNING id, recorded_at`,
		ind.ActivityID, ind.Type, ind.Value, ind.Unit,
	).Scan(&ind.ID, &ind.RecordedAt)
	return mapError(err, "создания показателя")
}

func (r *indicatorRepo) GetByID(ctx context.Context, id int64) (*model.Indicator, error) {
	ind := &model.Indicator{}
	if err := scanIndicator(r.db.QueryRow(ctx, indicatorSelect+` WHERE i.id = $1`, id), ind); err != nil {
		return nil, mapError(err, "получения показателя")
	}
	return ind, nil
}

func (r *indicatorRepo) List(ctx context.Context, institutionID int64, f IndicatorFilter) ([]model.Indicator, error) {
	rows, err := r.db.Query(ctx, indicatorSelect+`
		WHERE b.institution_id = $1
		  AND ($2::bigint IS NULL OR i.activity_id = $2)
		  AND ($3::text = '' OR lower(i.indicator_type) = lower($3::text))
		ORDER BY i.recorded_at DESC, i.id DESC`,
		institutionID, f.ActivityID, f.Type,
	)
	if err != nil {
		return nil, mapError(err, "получения списка показателей")
	}
	defer rows.Close()

	var result []model.Indicator
	for rows.Next() {
		var ind model.Indicator
		if err := scanIndicator(rows, &ind); err != nil {
			return nil, fmt.Errorf("ошибка сканирования показателя: %w", err)
		}
		result = append(result, ind)
	}
	return result, rows.Err()
}

func (r *indicatorRepo) Update(ctx context.Context, ind *model.Indicator) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE environmental_indicators
		SET activity_id = $2, indicator_type = $3, value = $4, unit = $5
		WHERE id = $1`,
		ind.ID, ind.ActivityID, ind.Type, ind.Value, ind.Unit,
	)
	return checkAffected(tag, err, "обновления показателя")
}

func (r *indicatorRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM environmental_indicators WHERE id = $1`, id)
	return checkAffected(tag, err, "удаления показателя")
}

func (r *indicatorRepo) Summary(ctx context.Context, institutionID int64) ([]model.IndicatorSummary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT i.indicator_type, i.unit, SUM(i.value)::float8, COUNT(*)
		FROM environmental_indicators i
		JOIN activities a ON a.id = i.activity_id
		JOIN brigades b ON b.id = a.brigade_id
		WHERE b.institution_id = $1
		GROUP BY i.indicator_type, i.unit
		ORDER BY i.indicator_type, i.unit`, institutionID,
	)
	if err != nil {
		return nil, mapError(err, "сводки показателей")
	}
	defer rows.Close()

	var result []model.IndicatorSummary
	for rows.Next() {
		var s model.IndicatorSummary
		if err := rows.Scan(&s.Type, &s.Unit, &s.Total, &s.Count); err != nil {
			return nil, fmt.Errorf("ошибка сканирования сводки: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *indicatorRepo) InstitutionOf(ctx context.Context, id int64) (int64, error) {
	var inst int64
	err := r.db.QueryRow(ctx, `
		SELECT b.institution_id
		FROM environmental_indicators i
		JOIN activities a ON a.id = i.activity_id
		JOIN brigades b ON b.id = a.brigade_id
		WHERE i.id = $1`, id,
	).Scan(&inst)
	if err != nil {
		return 0, mapError(err, "получения учреждения показателя")
	}
	return inst, nil
}
