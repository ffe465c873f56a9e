// Пакет legacy — перенос данных из MySQL-базы настольного приложения
// в схему PostgreSQL и загрузка начальных данных из YAML.
package legacy

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // драйвер database/sql

	"github.com/bigkaa/brigadas/internal/config"
)

// Строки исходной базы в том виде, в каком они хранятся.

type InstitutionRow struct {
	ID      int64
	Name    string
	Address string
	Phone   string
}

type BrigadeRow struct {
	ID            int64
	Name          string
	ActionArea    string
	Description   string
	Coordinator   string
	Color         string
	InstitutionID int64
}

type UserRow struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         string
	BrigadeID    *int64
}

type ActivityRow struct {
	ID          int64
	Title       string
	Description string
	StartsOn    time.Time
	EndsOn      *time.Time
	Status      string
	BrigadeID   int64
}

type ShiftRow struct {
	ID        int64
	BrigadeID int64
	Date      time.Time
	StartTime string
	EndTime   string
	Location  string
	Notes     string
	Status    string
	CreatedAt time.Time
}

type ReportRow struct {
	ID          int64
	Title       string
	Description string
	Location    string
	Priority    string
	Status      string
	BrigadeID   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Dump — всё содержимое исходной базы.
type Dump struct {
	Institutions []InstitutionRow
	Brigades     []BrigadeRow
	Users        []UserRow
	Activities   []ActivityRow
	Shifts       []ShiftRow
	Reports      []ReportRow
}

// Source — источник строк исходной базы.
type Source interface {
	Read(ctx context.Context) (*Dump, error)
}

// MySQLSource читает исходную базу MySQL.
// Таблицы actividad, turno и reporte_incidente и расширенные колонки
// Brigada создавались приложением по мере надобности, поэтому набор
// колонок определяется по information_schema, а не перебором запросов.
type MySQLSource struct {
	db        *sql.DB
	batchSize int
}

// OpenMySQL открывает соединение с исходной базой и проверяет его.
func OpenMySQL(ctx context.Context, cfg *config.LegacyConfig) (*MySQLSource, error) {
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия MySQL: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("MySQL недоступен: %w", err)
	}
	return &MySQLSource{db: db, batchSize: cfg.BatchSize}, nil
}

// Close закрывает соединение.
func (s *MySQLSource) Close() error {
	return s.db.Close()
}

// columns возвращает колонки таблицы текущей базы. Пустой набор — таблицы нет.
func (s *MySQLSource) columns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT COLUMN_NAME FROM information_schema.COLUMNS
		 WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?`, table)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения схемы %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("ошибка чтения схемы %s: %w", table, err)
		}
		cols[strings.ToLower(name)] = true
	}
	return cols, rows.Err()
}

// optionalColumn возвращает выражение колонки или пустую строку, если её нет.
func optionalColumn(cols map[string]bool, name string) string {
	if cols[strings.ToLower(name)] {
		return "COALESCE(" + name + ", '')"
	}
	return "''"
}

// Read читает все таблицы исходной базы.
func (s *MySQLSource) Read(ctx context.Context) (*Dump, error) {
	d := &Dump{}
	var err error

	if d.Institutions, err = s.readInstitutions(ctx); err != nil {
		return nil, err
	}
	if d.Brigades, err = s.readBrigades(ctx); err != nil {
		return nil, err
	}
	if d.Users, err = s.readUsers(ctx); err != nil {
		return nil, err
	}
	if d.Activities, err = s.readActivities(ctx); err != nil {
		return nil, err
	}
	if d.Shifts, err = s.readShifts(ctx); err != nil {
		return nil, err
	}
	if d.Reports, err = s.readReports(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// query выполняет запрос постранично по первичному ключу и вызывает scan для каждой строки.
// Запрос должен содержать "WHERE <pk> > ?" и "ORDER BY <pk> LIMIT ?"; scan возвращает pk строки.
func (s *MySQLSource) query(ctx context.Context, table, q string, scan func(*sql.Rows) (int64, error)) error {
	var last int64
	for {
		rows, err := s.db.QueryContext(ctx, q, last, s.batchSize)
		if err != nil {
			return fmt.Errorf("ошибка чтения %s: %w", table, err)
		}

		n := 0
		for rows.Next() {
			id, err := scan(rows)
			if err != nil {
				rows.Close()
				return fmt.Errorf("ошибка разбора строки %s: %w", table, err)
			}
			last = id
			n++
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return fmt.Errorf("ошибка чтения %s: %w", table, err)
		}
		if n < s.batchSize {
			return nil
		}
	}
}

func (s *MySQLSource) readInstitutions(ctx context.Context) ([]InstitutionRow, error) {
	cols, err := s.columns(ctx, "Institucion_Educativa")
	if err != nil || len(cols) == 0 {
		return nil, err
	}

	q := fmt.Sprintf(`SELECT idInstitucion, nombre_institucion, %s, %s
		FROM Institucion_Educativa WHERE idInstitucion > ? ORDER BY idInstitucion LIMIT ?`,
		optionalColumn(cols, "direccion"), optionalColumn(cols, "telefono"))

	var out []InstitutionRow
	err = s.query(ctx, "Institucion_Educativa", q, func(rows *sql.Rows) (int64, error) {
		var r InstitutionRow
		if err := rows.Scan(&r.ID, &r.Name, &r.Address, &r.Phone); err != nil {
			return 0, err
		}
		out = append(out, r)
		return r.ID, nil
	})
	return out, err
}

func (s *MySQLSource) readBrigades(ctx context.Context) ([]BrigadeRow, error) {
	cols, err := s.columns(ctx, "Brigada")
	if err != nil || len(cols) == 0 {
		return nil, err
	}

	q := fmt.Sprintf(`SELECT idBrigada, nombre_brigada, %s, %s, %s, %s, Institucion_Educativa_idInstitucion
		FROM Brigada WHERE idBrigada > ? ORDER BY idBrigada LIMIT ?`,
		optionalColumn(cols, "area_accion"), optionalColumn(cols, "descripcion"),
		optionalColumn(cols, "coordinador"), optionalColumn(cols, "color_identificador"))

	var out []BrigadeRow
	err = s.query(ctx, "Brigada", q, func(rows *sql.Rows) (int64, error) {
		var r BrigadeRow
		if err := rows.Scan(&r.ID, &r.Name, &r.ActionArea, &r.Description, &r.Coordinator, &r.Color, &r.InstitutionID); err != nil {
			return 0, err
		}
		out = append(out, r)
		return r.ID, nil
	})
	return out, err
}

func (s *MySQLSource) readUsers(ctx context.Context) ([]UserRow, error) {
	cols, err := s.columns(ctx, "Usuario")
	if err != nil || len(cols) == 0 {
		return nil, err
	}

	q := fmt.Sprintf(`SELECT idUsuario, nombre, %s, email, COALESCE(contrasena, ''), rol, Brigada_idBrigada
		FROM Usuario WHERE idUsuario > ? ORDER BY idUsuario LIMIT ?`,
		optionalColumn(cols, "apellido"))

	var out []UserRow
	err = s.query(ctx, "Usuario", q, func(rows *sql.Rows) (int64, error) {
		var r UserRow
		var brigade sql.NullInt64
		if err := rows.Scan(&r.ID, &r.FirstName, &r.LastName, &r.Email, &r.PasswordHash, &r.Role, &brigade); err != nil {
			return 0, err
		}
		if brigade.Valid {
			r.BrigadeID = &brigade.Int64
		}
		out = append(out, r)
		return r.ID, nil
	})
	return out, err
}

func (s *MySQLSource) readActivities(ctx context.Context) ([]ActivityRow, error) {
	cols, err := s.columns(ctx, "actividad")
	if err != nil || len(cols) == 0 {
		return nil, err
	}

	q := fmt.Sprintf(`SELECT idActividad, titulo, %s, fecha_inicio, fecha_fin, COALESCE(estado, ''), Brigada_idBrigada
		FROM actividad WHERE idActividad > ? ORDER BY idActividad LIMIT ?`,
		optionalColumn(cols, "descripcion"))

	var out []ActivityRow
	err = s.query(ctx, "actividad", q, func(rows *sql.Rows) (int64, error) {
		var r ActivityRow
		var ends sql.NullTime
		if err := rows.Scan(&r.ID, &r.Title, &r.Description, &r.StartsOn, &ends, &r.Status, &r.BrigadeID); err != nil {
			return 0, err
		}
		if ends.Valid {
			r.EndsOn = &ends.Time
		}
		out = append(out, r)
		return r.ID, nil
	})
	return out, err
}

func (s *MySQLSource) readShifts(ctx context.Context) ([]ShiftRow, error) {
	cols, err := s.columns(ctx, "turno")
	if err != nil || len(cols) == 0 {
		return nil, err
	}

	q := fmt.Sprintf(`SELECT idTurno, Brigada_idBrigada, fecha, CAST(hora_inicio AS CHAR), CAST(hora_fin AS CHAR),
			%s, %s, COALESCE(estado, ''), creado_en
		FROM turno WHERE idTurno > ? ORDER BY idTurno LIMIT ?`,
		optionalColumn(cols, "ubicacion"), optionalColumn(cols, "notas"))

	var out []ShiftRow
	err = s.query(ctx, "turno", q, func(rows *sql.Rows) (int64, error) {
		var r ShiftRow
		if err := rows.Scan(&r.ID, &r.BrigadeID, &r.Date, &r.StartTime, &r.EndTime,
			&r.Location, &r.Notes, &r.Status, &r.CreatedAt); err != nil {
			return 0, err
		}
		out = append(out, r)
		return r.ID, nil
	})
	return out, err
}

func (s *MySQLSource) readReports(ctx context.Context) ([]ReportRow, error) {
	cols, err := s.columns(ctx, "reporte_incidente")
	if err != nil || len(cols) == 0 {
		return nil, err
	}

	const q = `SELECT idReporte, titulo, descripcion, ubicacion, prioridad, estado,
			Brigada_idBrigada, creado_en, actualizado_en
		FROM reporte_incidente WHERE idReporte > ? ORDER BY idReporte LIMIT ?`

	var out []ReportRow
	err = s.query(ctx, "reporte_incidente", q, func(rows *sql.Rows) (int64, error) {
		var r ReportRow
		if err := rows.Scan(&r.ID, &r.Title, &r.Description, &r.Location, &r.Priority, &r.Status,
			&r.BrigadeID, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return 0, err
		}
		out = append(out, r)
		return r.ID, nil
	})
	return out, err
}
