package repository

import (
	"context"
	"fmt"

	"github.com/bigkaa/brigadas/internal/domain/model"
)

// UserRepository — доступ к таблице users.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// FindByIdentifier ищет пользователя учреждения по логину или email
	// (значение уже нормализовано). Учреждение определяется прямой
	// привязкой или, при её отсутствии, через бригаду пользователя.
	FindByIdentifier(ctx context.Context, institutionID int64, identifier string) (*model.User, error)
	// ListByInstitution возвращает пользователей учреждения; roles сужает выборку.
	ListByInstitution(ctx context.Context, institutionID int64, roles ...model.Role) ([]model.User, error)
	ListByBrigade(ctx context.Context, brigadeID int64) ([]model.User, error)
	Update(ctx context.Context, u *model.User) error
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	AssignBrigade(ctx context.Context, id int64, brigadeID *int64) error
	Delete(ctx context.Context, id int64) error
	CountByBrigade(ctx context.Context, brigadeID int64) (int, error)
	CountByInstitution(ctx context.Context, institutionID int64) (int, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}

type userRepo struct {
	db DBTX
}

// NewUserRepository создаёт репозиторий пользователей.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepo{db: db}
}

// userSelect — выборка пользователя с учреждением, вычисленным
// через COALESCE(прямая привязка, учреждение бригады).
const userSelect = `
	SELECT u.id, u.first_name, u.last_name, u.national_id, u.email, u.username,
		u.phone, u.password_hash, u.role, u.brigade_id,
		COALESCE(u.institution_id, b.institution_id),
		u.created_at, u.updated_at, COALESCE(b.name, '')
	FROM users u
	LEFT JOIN brigades b ON b.id = u.brigade_id`

func scanUser(row interface{ Scan(...any) error }, u *model.User) error {
	var role string
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.NationalID, &u.Email,
		&u.Username, &u.Phone, &u.PasswordHash, &role, &u.BrigadeID,
		&u.InstitutionID, &u.CreatedAt, &u.UpdatedAt, &u.BrigadeName)
	u.Role = model.Role(role)
	return err
}

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (first_name, last_name, national_id, email, username, phone,
			password_hash, role, brigade_id, institution_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		u.FirstName, u.LastName, u.NationalID, u.Email, u.Username, u.Phone,
		u.PasswordHash, string(u.Role), u.BrigadeID, u.InstitutionID,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return mapError(err, "создания пользователя")
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	u := &model.User{}
	if err := scanUser(r.db.QueryRow(ctx, userSelect+` WHERE u.id = $1`, id), u); err != nil {
		return nil, mapError(err, "получения пользователя")
	}
	return u, nil
}

func (r *userRepo) FindByIdentifier(ctx context.Context, institutionID int64, identifier string) (*model.User, error) {
	// Совпадение по логину приоритетнее совпадения по email.
	query := userSelect + `
		WHERE COALESCE(u.institution_id, b.institution_id) = $1
		  AND (u.username = $2 OR u.email = $2)
		ORDER BY (u.username = $2) DESC NULLS LAST, u.id
		LIMIT 1`

	u := &model.User{}
	if err := scanUser(r.db.QueryRow(ctx, query, institutionID, identifier), u); err != nil {
		return nil, mapError(err, "поиска пользователя")
	}
	return u, nil
}

func (r *userRepo) ListByInstitution(ctx context.Context, institutionID int64, roles ...model.Role) ([]model.User, error) {
	query := userSelect + ` WHERE COALESCE(u.institution_id, b.institution_id) = $1`
	args := []any{institutionID}
	if len(roles) > 0 {
		names := make([]string, len(roles))
		for i, role := range roles {
			names[i] = string(role)
		}
		query += ` AND u.role = ANY($2)`
		args = append(args, names)
	}
	query += ` ORDER BY u.first_name, u.last_name`

	return r.list(ctx, query, args...)
}

func (r *userRepo) ListByBrigade(ctx context.Context, brigadeID int64) ([]model.User, error) {
	return r.list(ctx, userSelect+` WHERE u.brigade_id = $1 ORDER BY u.first_name, u.last_name`, brigadeID)
}

func (r *userRepo) list(ctx context.Context, query string, args ...any) ([]model.User, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "получения списка пользователей")
	}
	defer rows.Close()

	var result []model.User
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("ошибка сканирования пользователя: %w", err)
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func (r *userRepo) Update(ctx context.Context, u *model.User) error {
	err := r.db.QueryRow(ctx, `
		UPDATE users
		SET first_name = $2, last_name = $3, national_id = $4, email = $5,
			username = $6, phone = $7, role = $8, brigade_id = $9, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		u.ID, u.FirstName, u.LastName, u.NationalID, u.Email,
		u.Username, u.Phone, string(u.Role), u.BrigadeID,
	).Scan(&u.UpdatedAt)
	return mapError(err, "обновления пользователя")
}

func (r *userRepo) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
	return checkAffected(tag, err, "обновления пароля")
}

func (r *userRepo) AssignBrigade(ctx context.Context, id int64, brigadeID *int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET brigade_id = $2, updated_at = now() WHERE id = $1`, id, brigadeID)
	return checkAffected(tag, err, "назначения бригады")
}

func (r *userRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return checkAffected(tag, err, "удаления пользователя")
}

func (r *userRepo) CountByBrigade(ctx context.Context, brigadeID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE brigade_id = $1`, brigadeID).Scan(&n)
	if err != nil {
		return 0, mapError(err, "подсчёта участников бригады")
	}
	return n, nil
}

func (r *userRepo) CountByInstitution(ctx context.Context, institutionID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM users u
		LEFT JOIN brigades b ON b.id = u.brigade_id
		WHERE COALESCE(u.institution_id, b.institution_id) = $1`, institutionID).Scan(&n)
	if err != nil {
		return 0, mapError(err, "подсчёта пользователей")
	}
	return n, nil
}

func (r *userRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, mapError(err, "проверки email")
	}
	return exists, nil
}

func (r *userRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, mapError(err, "проверки логина")
	}
	return exists, nil
}
