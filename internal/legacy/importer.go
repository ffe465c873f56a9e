package legacy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/brigadas/internal/repository"
)

// TxRunner выполняет функцию в транзакции PostgreSQL.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// Result — итог переноса.
type Result struct {
	Institutions int
	Brigades     int
	Users        int
	Activities   int
	Shifts       int
	Reports      int
	Skipped      []Skip
}

// Importer переносит исходную базу в PostgreSQL одной транзакцией.
// Повторный запуск обновляет ранее перенесённые строки по id.
type Importer struct {
	source Source
	tx     TxRunner
	dryRun bool
	logger *slog.Logger
}

// NewImporter создаёт перенос. dryRun — только построить план и вывести итог.
func NewImporter(source Source, tx TxRunner, dryRun bool, logger *slog.Logger) *Importer {
	return &Importer{
		source: source,
		tx:     tx,
		dryRun: dryRun,
		logger: logger.With(slog.String("component", "legacy_import")),
	}
}

// Run читает исходную базу, строит план и записывает его.
func (i *Importer) Run(ctx context.Context) (*Result, error) {
	dump, err := i.source.Read(ctx)
	if err != nil {
		return nil, err
	}
	i.logger.Info("Исходная база прочитана",
		slog.Int("institutions", len(dump.Institutions)),
		slog.Int("brigades", len(dump.Brigades)),
		slog.Int("users", len(dump.Users)),
		slog.Int("activities", len(dump.Activities)),
		slog.Int("shifts", len(dump.Shifts)),
		slog.Int("reports", len(dump.Reports)),
	)

	plan := BuildPlan(dump)
	for _, s := range plan.Skipped {
		i.logger.Warn("Строка пропущена",
			slog.String("table", s.Table),
			slog.Int64("id", s.ID),
			slog.String("reason", s.Reason),
		)
	}

	res := &Result{
		Institutions: len(plan.Institutions),
		Brigades:     len(plan.Brigades),
		Users:        len(plan.Users),
		Activities:   len(plan.Activities),
		Shifts:       len(plan.Shifts),
		Reports:      len(plan.Reports),
		Skipped:      plan.Skipped,
	}
	if i.dryRun {
		i.logger.Info("Пробный запуск, запись пропущена")
		return res, nil
	}

	if err := i.tx.RunInTx(ctx, func(tx pgx.Tx) error { return writePlan(ctx, tx, plan) }); err != nil {
		return nil, fmt.Errorf("ошибка записи в PostgreSQL: %w", err)
	}
	return res, nil
}

// writePlan записывает план. Владельцы бригад проставляются после
// пользователей из-за взаимных внешних ключей.
func writePlan(ctx context.Context, db repository.DBTX, p *Plan) error {
	for _, inst := range p.Institutions {
		_, err := db.Exec(ctx, `
			INSERT INTO institutions (id, name, address, phone)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name, address = EXCLUDED.address, phone = EXCLUDED.phone`,
			inst.ID, inst.Name, inst.Address, inst.Phone)
		if err != nil {
			return fmt.Errorf("учреждение %d: %w", inst.ID, err)
		}
	}

	for _, b := range p.Brigades {
		_, err := db.Exec(ctx, `
			INSERT INTO brigades (id, name, action_area, description, coordinator, color, institution_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name, action_area = EXCLUDED.action_area,
			    description = EXCLUDED.description, coordinator = EXCLUDED.coordinator,
			    color = EXCLUDED.color, institution_id = EXCLUDED.institution_id`,
			b.ID, b.Name, b.ActionArea, b.Description, b.Coordinator, b.Color, b.InstitutionID)
		if err != nil {
			return fmt.Errorf("бригада %d: %w", b.ID, err)
		}
	}

	for _, u := range p.Users {
		_, err := db.Exec(ctx, `
			INSERT INTO users (id, first_name, last_name, email, password_hash, role, brigade_id, institution_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE
			SET first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name,
			    email = EXCLUDED.email, password_hash = EXCLUDED.password_hash,
			    role = EXCLUDED.role, brigade_id = EXCLUDED.brigade_id,
			    institution_id = EXCLUDED.institution_id, updated_at = now()`,
			u.ID, u.FirstName, u.LastName, u.Email, u.PasswordHash, string(u.Role), u.BrigadeID, u.InstitutionID)
		if err != nil {
			return fmt.Errorf("пользователь %d: %w", u.ID, err)
		}
	}

	for _, b := range p.Brigades {
		if b.TeacherID == nil {
			continue
		}
		if _, err := db.Exec(ctx, `UPDATE brigades SET teacher_id = $2 WHERE id = $1`, b.ID, *b.TeacherID); err != nil {
			return fmt.Errorf("владелец бригады %d: %w", b.ID, err)
		}
	}

	for _, a := range p.Activities {
		_, err := db.Exec(ctx, `
			INSERT INTO activities (id, title, description, starts_on, ends_on, status, brigade_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE
			SET title = EXCLUDED.title, description = EXCLUDED.description,
			    starts_on = EXCLUDED.starts_on, ends_on = EXCLUDED.ends_on,
			    status = EXCLUDED.status, brigade_id = EXCLUDED.brigade_id`,
			a.ID, a.Title, a.Description, a.StartsOn, a.EndsOn, string(a.Status), a.BrigadeID)
		if err != nil {
			return fmt.Errorf("активность %d: %w", a.ID, err)
		}
	}

	for _, s := range p.Shifts {
		_, err := db.Exec(ctx, `
			INSERT INTO shifts (id, brigade_id, shift_date, start_time, end_time, location, notes, status, created_at)
			VALUES ($1, $2, $3, $4::text::time, $5::text::time, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE
			SET brigade_id = EXCLUDED.brigade_id, shift_date = EXCLUDED.shift_date,
			    start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time,
			    location = EXCLUDED.location, notes = EXCLUDED.notes, status = EXCLUDED.status`,
			s.ID, s.BrigadeID, s.Date, s.StartTime, s.EndTime, s.Location, s.Notes, string(s.Status), s.CreatedAt)
		if err != nil {
			return fmt.Errorf("смена %d: %w", s.ID, err)
		}
	}

	for _, r := range p.Reports {
		_, err := db.Exec(ctx, `
			INSERT INTO incident_reports (id, title, description, location, priority, status, brigade_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE
			SET title = EXCLUDED.title, description = EXCLUDED.description,
			    location = EXCLUDED.location, priority = EXCLUDED.priority,
			    status = EXCLUDED.status, brigade_id = EXCLUDED.brigade_id,
			    updated_at = EXCLUDED.updated_at`,
			r.ID, r.Title, r.Description, r.Location, string(r.Priority), string(r.Status),
			r.BrigadeID, r.CreatedAt, r.UpdatedAt)
		if err != nil {
			return fmt.Errorf("инцидент %d: %w", r.ID, err)
		}
	}

	return resetSequences(ctx, db)
}

// sequenceTables — таблицы, чьи последовательности сдвигаются после
// вставки с явными id.
var sequenceTables = []string{
	"institutions", "brigades", "users", "activities", "shifts", "incident_reports",
}

func resetSequences(ctx context.Context, db repository.DBTX) error {
	for _, table := range sequenceTables {
		q := fmt.Sprintf(`SELECT setval(pg_get_serial_sequence('%[1]s', 'id'),
			COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)`, table)
		if _, err := db.Exec(ctx, q); err != nil {
			return fmt.Errorf("последовательность %s: %w", table, err)
		}
	}
	return nil
}
