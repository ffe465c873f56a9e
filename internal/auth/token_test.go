package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/bigkaa/brigadas/internal/domain/model"
)

func TestTokenIssueParse(t *testing.T) {
	issuer := NewTokenIssuer("jwt-secret", "brigadas")
	now := time.Now().UTC()
	s := &model.Session{
		ID: "sid-1", UserID: 42, Role: model.RoleProfesor, InstitutionID: 3,
		CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}

	token, err := issuer.Issue(s)
	if err != nil {
		t.Fatalf("Issue() вернул ошибку: %v", err)
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse() вернул ошибку: %v", err)
	}
	if claims.SessionID != "sid-1" || claims.Subject != "42" || claims.Role != "Profesor" || claims.InstitutionID != 3 {
		t.Errorf("неверные claims: %+v", claims)
	}
}

func TestTokenParse_Rejects(t *testing.T) {
	issuer := NewTokenIssuer("jwt-secret", "brigadas")
	now := time.Now().UTC()

	expired, _ := issuer.Issue(&model.Session{ID: "s", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)})
	if _, err := issuer.Parse(expired); err == nil {
		t.Error("истёкший токен принят")
	}

	other := NewTokenIssuer("другой-секрет", "brigadas")
	foreign, _ := other.Issue(&model.Session{ID: "s", CreatedAt: now, ExpiresAt: now.Add(time.Hour)})
	if _, err := issuer.Parse(foreign); err == nil {
		t.Error("токен с чужой подписью принят")
	}

	wrongIss := NewTokenIssuer("jwt-secret", "otro")
	tok, _ := wrongIss.Issue(&model.Session{ID: "s", CreatedAt: now, ExpiresAt: now.Add(time.Hour)})
	if _, err := issuer.Parse(tok); err == nil {
		t.Error("токен с чужим issuer принят")
	}

	if _, err := issuer.Parse("abc.def.ghi"); err == nil {
		t.Error("мусорный токен принят")
	}
}

func TestTokensDisabled(t *testing.T) {
	issuer := NewTokenIssuer("", "brigadas")
	if issuer.Enabled() {
		t.Fatal("выпускающий без секрета должен быть отключён")
	}
	if _, err := issuer.Issue(&model.Session{}); !errors.Is(err, ErrTokensDisabled) {
		t.Errorf("Issue() err = %v, ожидается ErrTokensDisabled", err)
	}
	if _, err := issuer.Parse("x"); !errors.Is(err, ErrTokensDisabled) {
		t.Errorf("Parse() err = %v, ожидается ErrTokensDisabled", err)
	}
}
