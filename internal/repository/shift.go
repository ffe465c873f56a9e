package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bigkaa/brigadas/internal/domain/model"
)

// ShiftRepository — доступ к таблице shifts.
// Время начала и окончания передаётся и возвращается строкой «ЧЧ:ММ».
type ShiftRepository interface {
	Create(ctx context.Context, s *model.Shift) error
	GetByID(ctx context.Context, id int64) (*model.Shift, error)
	// List возвращает смены учреждения, новые даты первыми;
	// brigadeID сужает выборку одной бригадой.
	List(ctx context.Context, institutionID int64, brigadeID *int64) ([]model.Shift, error)
	UpdateStatus(ctx context.Context, id int64, status model.ShiftStatus) error
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context, institutionID int64, brigadeID *int64) (model.ShiftStats, error)
	// CloseElapsed переводит в Completado запланированные смены,
	// окончание которых не позже now (по настенному времени now).
	CloseElapsed(ctx context.Context, now time.Time) (int64, error)
}

type shiftRepo struct {
	db DBTX
}

// NewShiftRepository создаёт репозиторий смен.
func NewShiftRepository(db DBTX) ShiftRepository {
	return &shiftRepo{db: db}
}

const shiftSelect = `
	SELECT s.id, s.brigade_id, b.name, s.shift_date,
		to_char(s.start_time, 'HH24:MI'), to_char(s.end_time, 'HH24:MI'),
		s.location, s.notes, s.status, s.created_at
	FROM shifts s
	JOIN brigades b ON b.id = s.brigade_id`

func scanShift(row interface{ Scan(...any) error }, s *model.Shift) error {
	var status string
	err := row.Scan(&s.ID, &s.BrigadeID, &s.BrigadeName, &s.Date, &s.StartTime,
		&s.EndTime, &s.Location, &s.Notes, &status, &s.CreatedAt)
	s.Status = model.ShiftStatus(status)
	return err
}

func (r *shiftRepo) Create(ctx context.Context, s *model.Shift) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO shifts (brigade_id, shift_date, start_time, end_time, location, notes, status)
		VALUES ($1, $2, $3::text::time, $4::text::time, $5, $6, $7)
		RETURNING id, created_at`,
		s.BrigadeID, s.Date, s.StartTime, s.EndTime, s.Location, s.Notes, string(s.Status),
	).Scan(&s.ID, &s.CreatedAt)
	return mapError(err, "создания смены")
}

func (r *shiftRepo) GetByID(ctx context.Context, id int64) (*model.Shift, error) {
	s := &model.Shift{}
	if err := scanShift(r.db.QueryRow(ctx, shiftSelect+` WHERE s.id = $1`, id), s); err != nil {
		return nil, mapError(err, "получения смены")
	}
	return s, nil
}

func (r *shiftRepo) List(ctx context.Context, institutionID int64, brigadeID *int64) ([]model.Shift, error) {
	rows, err := r.db.Query(ctx, shiftSelect+`
		WHERE b.institution_id = $1 AND ($2::bigint IS NULL OR s.brigade_id = $2)
		ORDER BY s.shift_date DESC, s.start_time`, institutionID, brigadeID,
	)
	if err != nil {
		return nil, mapError(err, "получения списка смен")
	}
	defer rows.Close()

	var result []model.Shift
	for rows.Next() {
		var s model.Shift
		if err := scanShift(rows, &s); err != nil {
			return nil, fmt.Errorf("ошибка сканирования смены: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *shiftRepo) UpdateStatus(ctx context.Context, id int64, status model.ShiftStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE shifts SET status = $2 WHERE id = $1`, id, string(status))
	return checkAffected(tag, err, "обновления смены")
}

func (r *shiftRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM shifts WHERE id = $1`, id)
	return checkAffected(tag, err, "удаления смены")
}

// Stats: AssignedMembers — число пользователей в бригадах, у которых есть смены.
func (r *shiftRepo) Stats(ctx context.Context, institutionID int64, brigadeID *int64) (model.ShiftStats, error) {
	var st model.ShiftStats
	err := r.db.QueryRow(ctx, `
		WITH scoped AS (
			SELECT s.brigade_id, s.shift_date
			FROM shifts s
			JOIN brigades b ON b.id = s.brigade_id
			WHERE b.institution_id = $1 AND ($2::bigint IS NULL OR s.brigade_id = $2)
		)
		SELECT
			(SELECT COUNT(*) FROM scoped),
			(SELECT COUNT(*) FROM users u WHERE u.brigade_id IN (SELECT brigade_id FROM scoped)),
			(SELECT COUNT(DISTINCT shift_date) FROM scoped)`,
		institutionID, brigadeID,
	).Scan(&st.TotalShifts, &st.AssignedMembers, &st.DaysWithShifts)
	if err != nil {
		return model.ShiftStats{}, mapError(err, "подсчёта смен")
	}
	return st, nil
}

func (r *shiftRepo) CloseElapsed(ctx context.Context, now time.Time) (int64, error) {
	wall := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), now.Second(), 0, time.UTC)
	tag, err := r.db.Exec(ctx, `
		UPDATE shifts SET status = 'Completado'
		WHERE status = 'Programado' AND (shift_date + end_time) <= $1::timestamp`, wall,
	)
	if err != nil {
		return 0, mapError(err, "закрытия смен")
	}
	return tag.RowsAffected(), nil
}
