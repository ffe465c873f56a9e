package repository

import (
	"context"
	"fmt"

	"github.com/bigkaa/brigadas/internal/domain/model"
)

// ReportRepository — доступ к таблице incident_reports.
type ReportRepository interface {
	Create(ctx context.Context, rep *model.Report) error
	GetByID(ctx context.Context, id int64) (*model.Report, error)
	// List возвращает инциденты учреждения, новые первыми.
	List(ctx context.Context, institutionID int64, brigadeID *int64) ([]model.Report, error)
	Update(ctx context.Context, rep *model.Report) error
	UpdateStatus(ctx context.Context, id int64, status model.ReportStatus) error
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context, institutionID int64) (model.ReportStats, error)
}

type reportRepo struct {
	db DBTX
}

// NewReportRepository создаёт репозиторий инцидентов.
func NewReportRepository(db DBTX) ReportRepository {
	return &reportRepo{db: db}
}

const reportSelect = `
	SELECT r.id, r.title, r.description, r.location, r.priority, r.status,
		r.brigade_id, b.name, r.reporter_id, r.created_at, r.updated_at
	FROM incident_reports r
	JOIN brigades b ON b.id = r.brigade_id`

func scanReport(row interface{ Scan(...any) error }, rep *model.Report) error {
	var priority, status string
	err := row.Scan(&rep.ID, &rep.Title, &rep.Description, &rep.Location, &priority,
		&status, &rep.BrigadeID, &rep.BrigadeName, &rep.ReporterID, &rep.CreatedAt, &rep.UpdatedAt)
	rep.Priority = model.ReportPriority(priority)
	rep.Status = model.ReportStatus(status)
	return err
}

func (r *reportRepo) Create(ctx context.Context, rep *model.Report) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO incident_reports (title, description, location, priority, status, brigade_id, reporter_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		rep.Title, rep.Description, rep.Location, string(rep.Priority), string(rep.Status),
		rep.BrigadeID, rep.ReporterID,
	).Scan(&rep.ID, &rep.CreatedAt, &rep.UpdatedAt)
	return mapError(err, "создания инцидента")
}

func (r *reportRepo) GetByID(ctx context.Context, id int64) (*model.Report, error) {
	rep := &model.Report{}
	if err := scanReport(r.db.QueryRow(ctx, reportSelect+` WHERE r.id = $1`, id), rep); err != nil {
		return nil, mapError(err, "получения инцидента")
	}
	return rep, nil
}

func (r *reportRepo) List(ctx context.Context, institutionID int64, brigadeID *int64) ([]model.Report, error) {
	rows, err := r.db.Query(ctx, reportSelect+`
		WHERE b.institution_id = $1 AND ($2::bigint IS NULL OR r.brigade_id = $2)
		ORDER BY r.created_at DESC, r.id DESC`, institutionID, brigadeID,
	)
	if err != nil {
		return nil, mapError(err, "получения списка инцидентов")
	}
	defer rows.Close()

	var result []model.Report
	for rows.Next() {
		var rep model.Report
		if err := scanReport(rows, &rep); err != nil {
			return nil, fmt.Errorf("ошибка сканирования инцидента: %w", err)
		}
		result = append(result, rep)
	}
	return result, rows.Err()
}

func (r *reportRepo) Update(ctx context.Context, rep *model.Report) error {
	err := r.db.QueryRow(ctx, `
		UPDATE incident_reports
		SET title = $2, description = $3, location = $4, priority = $5, status = $6,
			brigade_id = $7, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		rep.ID, rep.Title, rep.Description, rep.Location, string(rep.Priority),
		string(rep.Status), rep.BrigadeID,
	).Scan(&rep.UpdatedAt)
	return mapError(err, "обновления инцидента")
}

func (r *reportRepo) UpdateStatus(ctx context.Context, id int64, status model.ReportStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE incident_reports SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	return checkAffected(tag, err, "обновления состояния инцидента")
}

func (r *reportRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM incident_reports WHERE id = $1`, id)
	return checkAffected(tag, err, "удаления инцидента")
}

func (r *reportRepo) Stats(ctx context.Context, institutionID int64) (model.ReportStats, error) {
	var st model.ReportStats
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE r.status = 'En Proceso'),
			COUNT(*) FILTER (WHERE r.status = 'Resuelto')
		FROM incident_reports r
		JOIN brigades b ON b.id = r.brigade_id
		WHERE b.institution_id = $1`, institutionID,
	).Scan(&st.Total, &st.Open, &st.Resolved)
	if err != nil {
		return model.ReportStats{}, mapError(err, "подсчёта инцидентов")
	}
	return st, nil
}
