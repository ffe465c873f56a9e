package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bigkaa/brigadas/internal/auth"
	"github.com/bigkaa/brigadas/internal/domain/model"
)

func newAuthService(f *fixture) *AuthService {
	return NewAuthService(f.db.repos().Users, f.db, f.hasher, testLogger())
}

func TestAuthenticate_Validation(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f)

	tests := []struct {
		name    string
		creds   Credentials
		wantKey string
	}{
		{"нет учреждения", Credentials{Identifier: "ana", Password: "x"}, "institution_required"},
		{"нет идентификатора", Credentials{InstitutionID: f.inst.ID, Identifier: "   ", Password: "x"}, "identifier_required"},
		{"нет пароля", Credentials{InstitutionID: f.inst.ID, Identifier: "ana", Password: " "}, "password_required"},
		{"неизвестный класс", Credentials{InstitutionID: f.inst.ID, Identifier: "ana", Password: "x", Class: "root"}, "login_class_invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.db.failWith = errors.New("хранилище не должно вызываться")
			defer func() { f.db.failWith = nil }()

			_, err := svc.Authenticate(context.Background(), tt.creds)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("ошибка = %v, ожидается ValidationError", err)
			}
			if ve.Key != tt.wantKey {
				t.Errorf("Key = %q, ожидается %q", ve.Key, tt.wantKey)
			}
		})
	}
}

func TestAuthenticate_Outcomes(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f)

	f.addUser(t, "Ana", model.RoleBrigadista, "secreto1", nil)
	teacher := f.addUser(t, "Pablo", model.RoleProfesor, "clave123", nil)
	director := f.addUser(t, "Rosa", model.RoleDirectivo, "admin123", nil)

	tests := []struct {
		name    string
		creds   Credentials
		wantID  int64
		wantErr error
	}{
		{"профессор по логину", Credentials{Identifier: "pablo", Password: "clave123", Class: "teacher"}, teacher.ID, nil},
		{"профессор по email в верхнем регистре", Credentials{Identifier: " PABLO@colegio.edu ", Password: "clave123"}, teacher.ID, nil},
		{"директор через форму admin", Credentials{Identifier: "rosa", Password: "admin123", Class: "admin"}, director.ID, nil},
		{"неверный пароль", Credentials{Identifier: "pablo", Password: "wrong"}, 0, ErrInvalidCredentials},
		{"неизвестный пользователь", Credentials{Identifier: "nadie", Password: "wrong"}, 0, ErrInvalidCredentials},
		{"профессор через форму admin", Credentials{Identifier: "pablo", Password: "clave123", Class: "admin"}, 0, ErrInvalidCredentials},
		{"бригадист через форму teacher", Credentials{Identifier: "ana", Password: "secreto1", Class: "teacher"}, 0, ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.creds.InstitutionID = f.inst.ID
			u, err := svc.Authenticate(context.Background(), tt.creds)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Fatalf("ошибка = %v, ожидается ровно %v", err, tt.wantErr)
				}
				if u != nil {
					t.Error("при отказе пользователь должен быть nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate() ошибка: %v", err)
			}
			if u.ID != tt.wantID {
				t.Errorf("ID = %d, ожидается %d", u.ID, tt.wantID)
			}
		})
	}
}

// Бригадист «ana» с неверным паролем через форму admin получает тот же
// отказ, что и несуществующий идентификатор.
func TestAuthenticate_RoleMismatchIndistinguishable(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f)
	f.addUser(t, "Ana", model.RoleBrigadista, "secreto1", nil)

	ctx := context.Background()
	_, errMismatch := svc.Authenticate(ctx, Credentials{InstitutionID: f.inst.ID, Identifier: "ana", Password: "wrong", Class: "admin"})
	_, errUnknown := svc.Authenticate(ctx, Credentials{InstitutionID: f.inst.ID, Identifier: "ghost", Password: "wrong", Class: "admin"})

	if errMismatch != ErrInvalidCredentials || errUnknown != ErrInvalidCredentials {
		t.Fatalf("ошибки = %v / %v, ожидается ErrInvalidCredentials в обоих случаях", errMismatch, errUnknown)
	}
	if errMismatch.Error() != errUnknown.Error() {
		t.Errorf("тексты отказов различаются: %q / %q", errMismatch, errUnknown)
	}
}

// Отказ для неизвестного идентификатора занимает столько же, сколько
// сравнение с настоящим bcrypt-хешем.
func TestAuthenticate_UnknownIdentifierTiming(t *testing.T) {
	if testing.Short() {
		t.Skip("пропуск замера времени в -short")
	}

	f := newFixture(t)
	f.hasher = auth.NewHasher(12)
	svc := newAuthService(f)
	f.addUser(t, "Ana", model.RoleBrigadista, "secreto1", nil)

	ctx := context.Background()
	measure := func(identifier string) time.Duration {
		start := time.Now()
		_, err := svc.Authenticate(ctx, Credentials{InstitutionID: f.inst.ID, Identifier: identifier, Password: "wrong"})
		if err != ErrInvalidCredentials {
			t.Fatalf("Authenticate(%s) = %v, ожидается ErrInvalidCredentials", identifier, err)
		}
		return time.Since(start)
	}

	known := measure("ana")
	unknown := measure("ghost")
	if unknown < known/4 {
		t.Errorf("отказ для неизвестного идентификатора слишком быстрый: %v против %v", unknown, known)
	}
}

func TestAuthenticate_ReadOnlyAndDeterministic(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f)
	f.addUser(t, "Ana", model.RoleBrigadista, "secreto1", nil)

	// Устаревший SHA-256 хеш принимается, но не перезаписывается.
	legacy := f.addUser(t, "Luis", model.RoleProfesor, "x", nil)
	f.db.users[legacy.ID].PasswordHash = auth.LegacyDigest("admin123")

	writes := f.db.writes
	creds := Credentials{InstitutionID: f.inst.ID, Identifier: "luis", Password: "admin123"}
	for i := 0; i < 3; i++ {
		u, err := svc.Authenticate(context.Background(), creds)
		if err != nil {
			t.Fatalf("попытка %d: %v", i, err)
		}
		if u.ID != legacy.ID {
			t.Fatalf("попытка %d: ID = %d, ожидается %d", i, u.ID, legacy.ID)
		}
	}
	if f.db.writes != writes {
		t.Errorf("Authenticate выполнил %d записей, ожидается 0", f.db.writes-writes)
	}
}

func TestAuthenticate_StoreUnavailable(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f)
	f.db.failWith = context.DeadlineExceeded

	_, err := svc.Authenticate(context.Background(), Credentials{InstitutionID: f.inst.ID, Identifier: "ana", Password: "x"})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("ошибка = %v, ожидается ErrStoreUnavailable", err)
	}
	if errors.Is(err, ErrInvalidCredentials) {
		t.Error("недоступность хранилища не должна выглядеть как неверные учётные данные")
	}
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f)

	valid := Registration{
		InstitutionName: "Liceo Andino",
		Address:         "Calle 5",
		Phone:           "555-0101",
		EducationLevel:  "Secundaria",
		FirstName:       "Marta",
		LastName:        "Ríos",
		Email:           "Marta@Liceo.edu",
		Username:        "Marta",
		Password:        "segura1",
		PasswordConfirm: "segura1",
	}

	inst, user, err := svc.Register(context.Background(), valid)
	if err != nil {
		t.Fatalf("Register() ошибка: %v", err)
	}
	if user.Role != model.RoleDirectivo {
		t.Errorf("Role = %q, ожидается Directivo", user.Role)
	}
	if user.Email != "marta@liceo.edu" || *user.Username != "marta" {
		t.Errorf("email/username не нормализованы: %q / %q", user.Email, *user.Username)
	}
	if user.InstitutionID == nil || *user.InstitutionID != inst.ID {
		t.Error("администратор должен быть привязан к новому учреждению")
	}

	brigades, _ := f.db.repos().Brigades.ListByInstitution(context.Background(), inst.ID)
	if len(brigades) != 1 || brigades[0].Name != model.DefaultBrigadeName {
		t.Errorf("бригады = %+v, ожидается одна %q", brigades, model.DefaultBrigadeName)
	}

	// Вход новым администратором.
	got, err := svc.Authenticate(context.Background(), Credentials{
		InstitutionID: inst.ID, Identifier: "marta", Password: "segura1", Class: "admin",
	})
	if err != nil || got.ID != user.ID {
		t.Fatalf("вход после регистрации: %v", err)
	}

	tests := []struct {
		name   string
		modify func(r *Registration)
		check  func(err error) bool
	}{
		{"пароли не совпадают", func(r *Registration) { r.PasswordConfirm = "otra123" }, isValidation("password_mismatch")},
		{"короткий пароль", func(r *Registration) { r.Password, r.PasswordConfirm = "abc", "abc" }, isValidation("password_too_short")},
		{"нет адреса", func(r *Registration) { r.Address = "" }, isValidation("institution_fields_required")},
		{"нет логина", func(r *Registration) { r.Username = " " }, isValidation("username_required")},
		{"роль не административная", func(r *Registration) { r.Role = "Profesor" }, func(err error) bool { return errors.Is(err, ErrInvalidRole) }},
		{"email занят", func(r *Registration) { r.InstitutionName = "Otro"; r.Username = "otro" }, isConflict("email_taken")},
		{"логин занят", func(r *Registration) { r.InstitutionName = "Otro"; r.Email = "otro@x.edu" }, isConflict("username_taken")},
		{"учреждение существует", func(r *Registration) { r.Email = "n@x.edu"; r.Username = "n" }, isConflict("institution_exists")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.modify(&r)
			_, _, err := svc.Register(context.Background(), r)
			if !tt.check(err) {
				t.Errorf("неожиданная ошибка: %v", err)
			}
		})
	}
}

func isValidation(key string) func(error) bool {
	return func(err error) bool {
		var ve *ValidationError
		return errors.As(err, &ve) && ve.Key == key
	}
}

func isConflict(key string) func(error) bool {
	return func(err error) bool {
		var ce *ConflictError
		return errors.As(err, &ce) && ce.Key == key && errors.Is(err, ErrConflict)
	}
}
