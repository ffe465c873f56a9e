package model

import (
	"testing"
	"time"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{in: "Directivo", want: RoleDirectivo},
		{in: "  profesor ", want: RoleProfesor},
		{in: "brigadista   jefe", want: RoleBrigadistaJefe},
		{in: "SUBJEFE", want: RoleSubjefe},
		{in: "Conserje", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRole(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseRole(%q) = %q, хотели %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRoleValidAndAbbrev(t *testing.T) {
	for _, r := range AllRoles {
		if !r.Valid() {
			t.Errorf("роль %q должна быть допустимой", r)
		}
	}
	if Role("profesor").Valid() {
		t.Error("ненормализованное значение не должно считаться допустимым")
	}
	if RoleDirectivo.Abbrev() != "Dir." || RoleCoordinador.Abbrev() != "Coord." || RoleProfesor.Abbrev() != "Prof." {
		t.Error("неверные сокращения административных ролей")
	}
	if RoleSubjefe.Abbrev() != "Subjefe" {
		t.Errorf("Abbrev(Subjefe) = %q", RoleSubjefe.Abbrev())
	}
}

func TestSessionExpiredAndDisplayName(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := &Session{FirstName: "Ana", LastName: "Pérez", Role: RoleDirectivo, ExpiresAt: now}

	if !s.Expired(now) {
		t.Error("сессия должна истекать ровно в ExpiresAt")
	}
	if s.Expired(now.Add(-time.Second)) {
		t.Error("сессия не должна истекать до ExpiresAt")
	}
	if got := s.DisplayName(); got != "Dir. Ana Pérez" {
		t.Errorf("DisplayName() = %q", got)
	}
}
