package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/bigkaa/brigadas/internal/auth"
	"github.com/bigkaa/brigadas/internal/domain/model"
)

// fixture — учреждение в fakeDB с хешером минимальной стоимости.
type fixture struct {
	db     *fakeDB
	hasher *auth.Hasher
	inst   *model.Institution
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{db: newFakeDB(), hasher: auth.NewHasher(bcrypt.MinCost)}
	f.inst = &model.Institution{Name: "Colegio Central"}
	if err := f.db.repos().Institutions.Create(context.Background(), f.inst); err != nil {
		t.Fatalf("создание учреждения: %v", err)
	}
	return f
}

func (f *fixture) addUser(t *testing.T, name string, role model.Role, password string, brigadeID *int64) *model.User {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	if err != nil {
		t.Fatalf("Hash() ошибка: %v", err)
	}
	username := strings.ToLower(name)
	u := &model.User{
		FirstName:     name,
		LastName:      "Test",
		Email:         username + "@colegio.edu",
		Username:      &username,
		PasswordHash:  hash,
		Role:          role,
		BrigadeID:     brigadeID,
		InstitutionID: &f.inst.ID,
	}
	if err := f.db.repos().Users.Create(context.Background(), u); err != nil {
		t.Fatalf("создание пользователя %s: %v", name, err)
	}
	return u
}

func (f *fixture) addBrigade(t *testing.T, name string, teacherID *int64) *model.Brigade {
	t.Helper()
	b := &model.Brigade{Name: name, InstitutionID: f.inst.ID, TeacherID: teacherID}
	if err := f.db.repos().Brigades.Create(context.Background(), b); err != nil {
		t.Fatalf("создание бригады %s: %v", name, err)
	}
	return b
}

func (f *fixture) session(u *model.User) *model.Session {
	now := time.Now()
	return &model.Session{
		ID:            "s-" + u.FirstName,
		UserID:        u.ID,
		FirstName:     u.FirstName,
		Role:          u.Role,
		BrigadeID:     u.BrigadeID,
		InstitutionID: f.inst.ID,
		CreatedAt:     now,
		ExpiresAt:     now.Add(time.Hour),
	}
}
