// Пакет model — доменные модели сервиса «Бригады».
package model

import (
	"fmt"
	"strings"
)

// Role — роль пользователя. Набор значений закрыт: любое значение,
// не прошедшее ParseRole, в системе не существует.
type Role string

// Роли в том виде, в котором они хранятся в БД.
const (
	RoleDirectivo      Role = "Directivo"
	RoleCoordinador    Role = "Coordinador"
	RoleProfesor       Role = "Profesor"
	RoleBrigadistaJefe Role = "Brigadista Jefe"
	RoleSubjefe        Role = "Subjefe"
	RoleBrigadista     Role = "Brigadista"
)

// AllRoles — все роли в порядке убывания полномочий.
var AllRoles = []Role{
	RoleDirectivo,
	RoleCoordinador,
	RoleProfesor,
	RoleBrigadistaJefe,
	RoleSubjefe,
	RoleBrigadista,
}

// ParseRole разбирает роль без учёта регистра и лишних пробелов.
func ParseRole(s string) (Role, error) {
	norm := strings.Join(strings.Fields(s), " ")
	for _, r := range AllRoles {
		if strings.EqualFold(norm, string(r)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("неизвестная роль %q", s)
}

// Valid сообщает, входит ли значение в закрытый набор ролей.
func (r Role) Valid() bool {
	switch r {
	case RoleDirectivo, RoleCoordinador, RoleProfesor,
		RoleBrigadistaJefe, RoleSubjefe, RoleBrigadista:
		return true
	}
	return false
}

// Abbrev — короткая подпись роли для заголовков («Dir.», «Coord.», «Prof.»).
// Для ролей бригады возвращается полное название.
func (r Role) Abbrev() string {
	switch r {
	case RoleDirectivo:
		return "Dir."
	case RoleCoordinador:
		return "Coord."
	case RoleProfesor:
		return "Prof."
	default:
		return string(r)
	}
}
