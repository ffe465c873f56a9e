package legacy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bigkaa/brigadas/internal/domain/model"
	"github.com/bigkaa/brigadas/internal/repository"
)

// Seed — файл начальных данных для демо- и dev-окружений.
//
//	institutions:
//	  - name: U.E. Rafael Urdaneta
//	    brigades:
//	      - name: Brigada Ecológica
//	        teacher: profe@example.org
//	    users:
//	      - first_name: Ana
//	        email: profe@example.org
//	        role: Profesor
//	        password: secreto1
//	        brigade: Brigada Ecológica
type Seed struct {
	Institutions []SeedInstitution `yaml:"institutions"`
}

type SeedInstitution struct {
	Name           string        `yaml:"name"`
	Address        string        `yaml:"address"`
	Phone          string        `yaml:"phone"`
	EducationLevel string        `yaml:"education_level"`
	Brigades       []SeedBrigade `yaml:"brigades"`
	Users          []SeedUser    `yaml:"users"`
}

type SeedBrigade struct {
	Name        string `yaml:"name"`
	ActionArea  string `yaml:"action_area"`
	Description string `yaml:"description"`
	Coordinator string `yaml:"coordinator"`
	Color       string `yaml:"color"`
	// Teacher — email владельца бригады из users того же учреждения.
	Teacher string `yaml:"teacher"`
}

type SeedUser struct {
	FirstName  string `yaml:"first_name"`
	LastName   string `yaml:"last_name"`
	NationalID string `yaml:"national_id"`
	Email      string `yaml:"email"`
	Username   string `yaml:"username"`
	Phone      string `yaml:"phone"`
	Role       string `yaml:"role"`
	Password   string `yaml:"password"`
	// Brigade — название бригады того же учреждения.
	Brigade string `yaml:"brigade"`
}

// ParseSeed читает и проверяет файл начальных данных.
func ParseSeed(r io.Reader) (*Seed, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Seed
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("ошибка разбора YAML: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Seed) validate() error {
	var errs []error
	for i, inst := range s.Institutions {
		if strings.TrimSpace(inst.Name) == "" {
			errs = append(errs, fmt.Errorf("institutions[%d]: пустое название", i))
			continue
		}
		brigades := make(map[string]bool)
		for j, b := range inst.Brigades {
			if strings.TrimSpace(b.Name) == "" {
				errs = append(errs, fmt.Errorf("%s: brigades[%d]: пустое название", inst.Name, j))
			}
			brigades[strings.ToLower(strings.TrimSpace(b.Name))] = true
		}
		emails := make(map[string]bool)
		for j, u := range inst.Users {
			where := fmt.Sprintf("%s: users[%d]", inst.Name, j)
			email := strings.ToLower(strings.TrimSpace(u.Email))
			if email == "" || strings.TrimSpace(u.FirstName) == "" {
				errs = append(errs, fmt.Errorf("%s: нужны first_name и email", where))
			}
			emails[email] = true
			if _, err := model.ParseRole(u.Role); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", where, err))
			}
			if u.Password == "" {
				errs = append(errs, fmt.Errorf("%s: пустой пароль", where))
			}
			if u.Brigade != "" && !brigades[strings.ToLower(strings.TrimSpace(u.Brigade))] {
				errs = append(errs, fmt.Errorf("%s: бригада %q не описана", where, u.Brigade))
			}
		}
		for _, b := range inst.Brigades {
			if b.Teacher != "" && !emails[strings.ToLower(strings.TrimSpace(b.Teacher))] {
				errs = append(errs, fmt.Errorf("%s: владелец бригады %q не описан в users", inst.Name, b.Teacher))
			}
		}
	}
	return errors.Join(errs...)
}

// Transactor выполняет функцию с репозиториями в одной транзакции.
type Transactor interface {
	InTx(ctx context.Context, fn func(repos *repository.Repositories) error) error
}

// PasswordHasher хеширует пароли.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
}

// SeedResult — число созданных записей. Уже существующие не меняются.
type SeedResult struct {
	Institutions int
	Brigades     int
	Users        int
}

// ApplySeed создаёт описанные записи, которых ещё нет: учреждения
// ищутся по названию, бригады по названию внутри учреждения,
// пользователи по email.
func ApplySeed(ctx context.Context, s *Seed, tx Transactor, hasher PasswordHasher, logger *slog.Logger) (*SeedResult, error) {
	logger = logger.With(slog.String("component", "seed"))
	res := &SeedResult{}

	err := tx.InTx(ctx, func(repos *repository.Repositories) error {
		existing, err := repos.Institutions.List(ctx)
		if err != nil {
			return err
		}
		instByName := make(map[string]int64, len(existing))
		for _, inst := range existing {
			instByName[strings.ToLower(inst.Name)] = inst.ID
		}

		for _, si := range s.Institutions {
			name := strings.TrimSpace(si.Name)
			instID, ok := instByName[strings.ToLower(name)]
			if !ok {
				inst := &model.Institution{
					Name:           name,
					Address:        strings.TrimSpace(si.Address),
					Phone:          strings.TrimSpace(si.Phone),
					EducationLevel: strings.TrimSpace(si.EducationLevel),
				}
				if err := repos.Institutions.Create(ctx, inst); err != nil {
					return fmt.Errorf("учреждение %s: %w", name, err)
				}
				instID = inst.ID
				res.Institutions++
				logger.Info("Учреждение создано", slog.String("name", name), slog.Int64("id", instID))
			}

			brigadeIDs, created, err := seedBrigades(ctx, repos, instID, si.Brigades)
			if err != nil {
				return err
			}
			res.Brigades += created

			userIDs, created, err := seedUsers(ctx, repos, hasher, instID, brigadeIDs, si.Users)
			if err != nil {
				return err
			}
			res.Users += created

			for _, sb := range si.Brigades {
				if sb.Teacher == "" {
					continue
				}
				teacherID := userIDs[strings.ToLower(strings.TrimSpace(sb.Teacher))]
				brigadeID := brigadeIDs[strings.ToLower(strings.TrimSpace(sb.Name))]
				if err := repos.Brigades.SetTeacher(ctx, brigadeID, &teacherID); err != nil {
					return fmt.Errorf("владелец бригады %s: %w", sb.Name, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func seedBrigades(ctx context.Context, repos *repository.Repositories, instID int64, brigades []SeedBrigade) (map[string]int64, int, error) {
	existing, err := repos.Brigades.ListByInstitution(ctx, instID)
	if err != nil {
		return nil, 0, err
	}
	ids := make(map[string]int64, len(existing)+len(brigades))
	for _, b := range existing {
		ids[strings.ToLower(b.Name)] = b.ID
	}

	created := 0
	for _, sb := range brigades {
		name := strings.TrimSpace(sb.Name)
		if _, ok := ids[strings.ToLower(name)]; ok {
			continue
		}
		area := strings.TrimSpace(sb.ActionArea)
		if area == "" {
			area = model.DefaultBrigadeArea
		}
		b := &model.Brigade{
			Name:          name,
			ActionArea:    truncateRunes(area, model.MaxActionAreaLen),
			Description:   strings.TrimSpace(sb.Description),
			Coordinator:   strings.TrimSpace(sb.Coordinator),
			Color:         strings.TrimSpace(sb.Color),
			InstitutionID: instID,
		}
		if err := repos.Brigades.Create(ctx, b); err != nil {
			return nil, 0, fmt.Errorf("бригада %s: %w", name, err)
		}
		ids[strings.ToLower(name)] = b.ID
		created++
	}
	return ids, created, nil
}

func seedUsers(
	ctx context.Context,
	repos *repository.Repositories,
	hasher PasswordHasher,
	instID int64,
	brigadeIDs map[string]int64,
	users []SeedUser,
) (map[string]int64, int, error) {
	ids := make(map[string]int64, len(users))
	created := 0

	for _, su := range users {
		email := strings.ToLower(strings.TrimSpace(su.Email))

		found, err := repos.Users.FindByIdentifier(ctx, instID, email)
		switch {
		case err == nil:
			ids[email] = found.ID
			continue
		case !errors.Is(err, repository.ErrNotFound):
			return nil, 0, err
		}

		role, _ := model.ParseRole(su.Role)
		hash, err := hasher.Hash(su.Password)
		if err != nil {
			return nil, 0, fmt.Errorf("пользователь %s: %w", email, err)
		}

		u := &model.User{
			FirstName:     strings.TrimSpace(su.FirstName),
			LastName:      strings.TrimSpace(su.LastName),
			NationalID:    optionalString(su.NationalID),
			Email:         email,
			Username:      optionalString(strings.ToLower(su.Username)),
			Phone:         optionalString(su.Phone),
			Role:          role,
			InstitutionID: &instID,
			PasswordHash:  hash,
		}
		if su.Brigade != "" {
			id := brigadeIDs[strings.ToLower(strings.TrimSpace(su.Brigade))]
			u.BrigadeID = &id
		}
		if err := repos.Users.Create(ctx, u); err != nil {
			return nil, 0, fmt.Errorf("пользователь %s: %w", email, err)
		}
		ids[email] = u.ID
		created++
	}
	return ids, created, nil
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
