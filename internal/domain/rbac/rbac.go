// Пакет rbac — классификация ролей и правила видимости данных.
// Все функции чистые: решение принимается по снимку сессии и
// переданным спискам, без обращения к хранилищу.
//
// Роли делятся на три непересекающихся класса:
//   - admin — Directivo, Coordinador;
//   - teacher — Profesor;
//   - brigade_member — Brigadista Jefe, Subjefe, Brigadista.
package rbac

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/bigkaa/brigadas/internal/domain/model"
)

// Class — класс роли.
type Class string

const (
	ClassNone          Class = ""
	ClassAdmin         Class = "admin"
	ClassTeacher       Class = "teacher"
	ClassBrigadeMember Class = "brigade_member"
)

// ClassOf возвращает класс роли. Для значения вне закрытого набора — ClassNone.
func ClassOf(r model.Role) Class {
	switch r {
	case model.RoleDirectivo, model.RoleCoordinador:
		return ClassAdmin
	case model.RoleProfesor:
		return ClassTeacher
	case model.RoleBrigadistaJefe, model.RoleSubjefe, model.RoleBrigadista:
		return ClassBrigadeMember
	}
	return ClassNone
}

// IsAdmin — Directivo или Coordinador.
func IsAdmin(r model.Role) bool { return ClassOf(r) == ClassAdmin }

// IsTeacher — Profesor.
func IsTeacher(r model.Role) bool { return ClassOf(r) == ClassTeacher }

// IsBrigadeMember — одна из трёх ролей бригады.
func IsBrigadeMember(r model.Role) bool { return ClassOf(r) == ClassBrigadeMember }

// LoginClass — ограничение ролей на форме входа.
type LoginClass string

const (
	LoginAny     LoginClass = "any"
	LoginTeacher LoginClass = "teacher"
	LoginAdmin   LoginClass = "admin"
)

// ParseLoginClass разбирает класс входа. Пустая строка означает LoginAny.
func ParseLoginClass(s string) (LoginClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return LoginAny, nil
	case "teacher":
		return LoginTeacher, nil
	case "admin":
		return LoginAdmin, nil
	}
	return "", fmt.Errorf("неизвестный класс входа %q", s)
}

// Accepts сообщает, может ли пользователь с ролью r войти через эту форму.
func (c LoginClass) Accepts(r model.Role) bool {
	switch c {
	case LoginTeacher:
		return IsTeacher(r)
	case LoginAdmin:
		return IsAdmin(r)
	case LoginAny:
		return ClassOf(r) != ClassNone
	}
	return false
}

// Ownership — отношение бригады к просматривающему профессору.
type Ownership string

const (
	OwnershipOwn   Ownership = "own"
	OwnershipOther Ownership = "other"
)

// BrigadeView — бригада в выдаче VisibleBrigades.
type BrigadeView struct {
	model.Brigade
	Ownership Ownership `json:"ownership,omitempty"`
	// Editable — результат CanMutateBrigade; клиент скрывает
	// кнопки изменения при false.
	Editable bool `json:"editable"`
}

// VisibleBrigades отбирает бригады, доступные сессии:
//   - admin видит все переданные бригады;
//   - teacher видит свои бригады и бригады профессоров своего учреждения,
//     свои идут первыми, внутри групп — по имени;
//   - остальные роли не видят ничего.
//
// teachers — пользователи, среди которых ищутся профессора учреждения.
func VisibleBrigades(viewer *model.Session, brigades []model.Brigade, teachers []model.User) []BrigadeView {
	if viewer == nil {
		return nil
	}

	switch ClassOf(viewer.Role) {
	case ClassAdmin:
		out := make([]BrigadeView, 0, len(brigades))
		for _, b := range brigades {
			out = append(out, BrigadeView{Brigade: b, Editable: CanMutateBrigade(viewer, &b)})
		}
		sortBrigadeViews(out)
		return out

	case ClassTeacher:
		colleagues := make(map[int64]bool)
		for _, u := range teachers {
			if IsTeacher(u.Role) && u.InstitutionID != nil && *u.InstitutionID == viewer.InstitutionID {
				colleagues[u.ID] = true
			}
		}

		out := make([]BrigadeView, 0, len(brigades))
		for _, b := range brigades {
			if b.TeacherID == nil {
				continue
			}
			switch {
			case *b.TeacherID == viewer.UserID:
				out = append(out, BrigadeView{Brigade: b, Ownership: OwnershipOwn, Editable: true})
			case colleagues[*b.TeacherID]:
				out = append(out, BrigadeView{Brigade: b, Ownership: OwnershipOther})
			}
		}
		sortBrigadeViews(out)
		return out
	}

	return nil
}

// sortBrigadeViews: свои раньше чужих, затем по имени с испанской сортировкой.
func sortBrigadeViews(views []BrigadeView) {
	coll := newCollator()
	sort.SliceStable(views, func(i, j int) bool {
		oi, oj := views[i].Ownership == OwnershipOther, views[j].Ownership == OwnershipOther
		if oi != oj {
			return !oi
		}
		return coll.CompareString(views[i].Name, views[j].Name) < 0
	})
}

// CanMutateBrigade — может ли сессия изменять или удалять бригаду:
// любой admin или профессор-владелец.
func CanMutateBrigade(viewer *model.Session, b *model.Brigade) bool {
	if viewer == nil || b == nil {
		return false
	}
	switch ClassOf(viewer.Role) {
	case ClassAdmin:
		return true
	case ClassTeacher:
		return b.TeacherID != nil && *b.TeacherID == viewer.UserID
	}
	return false
}

// CanCreateBrigade — создавать бригады могут admin и teacher.
func CanCreateBrigade(viewer *model.Session) bool {
	if viewer == nil {
		return false
	}
	return IsAdmin(viewer.Role) || IsTeacher(viewer.Role)
}

// Capabilities — разрешения сессии, по которым клиент строит меню.
type Capabilities struct {
	Class            Class `json:"class"`
	IsAdmin          bool  `json:"is_admin"`
	CanCreateBrigade bool  `json:"can_create_brigade"`
	CanManagePeople  bool  `json:"can_manage_people"`
	CanViewPeople    bool  `json:"can_view_people"`
	CanEditSettings  bool  `json:"can_edit_settings"`
	CanReport        bool  `json:"can_report"`
}

// CapabilitiesOf вычисляет разрешения сессии.
func CapabilitiesOf(viewer *model.Session) Capabilities {
	if viewer == nil {
		return Capabilities{}
	}
	class := ClassOf(viewer.Role)
	staff := class == ClassAdmin || class == ClassTeacher
	return Capabilities{
		Class:            class,
		IsAdmin:          class == ClassAdmin,
		CanCreateBrigade: CanCreateBrigade(viewer),
		CanManagePeople:  staff,
		CanViewPeople:    staff,
		CanEditSettings:  class == ClassAdmin,
		CanReport:        class != ClassNone,
	}
}

// CanManagePeople — создавать, изменять и удалять пользователей могут admin и teacher.
// Профессор не может управлять учётными записями администраторов.
func CanManagePeople(viewer *model.Session, target model.Role) bool {
	if viewer == nil {
		return false
	}
	switch ClassOf(viewer.Role) {
	case ClassAdmin:
		return target.Valid()
	case ClassTeacher:
		return IsBrigadeMember(target)
	}
	return false
}

// CanDeleteBrigade — бригаду можно удалить только без привязанных пользователей.
// При отказе возвращает сообщение с числом блокирующих пользователей.
func CanDeleteBrigade(memberCount int) (bool, string) {
	if memberCount <= 0 {
		return true, ""
	}
	return false, fmt.Sprintf(
		"No se puede eliminar: la brigada tiene %d usuario(s) asignado(s). Asigne o elimine los usuarios primero.",
		memberCount)
}

// People — список «бригадистов», разбитый на профессоров и учеников.
type People struct {
	Teachers []model.User `json:"teachers"`
	Students []model.User `json:"students"`
}

// VisiblePeople исключает административные роли и раскладывает
// остальных на профессоров и учеников, каждую группу по имени и фамилии.
func VisiblePeople(users []model.User) People {
	var p People
	for _, u := range users {
		switch ClassOf(u.Role) {
		case ClassTeacher:
			p.Teachers = append(p.Teachers, u)
		case ClassBrigadeMember:
			p.Students = append(p.Students, u)
		}
	}
	sortPeople(p.Teachers)
	sortPeople(p.Students)
	return p
}

// PeopleFilter — фильтр списка бригадистов. Пустые поля не фильтруют.
type PeopleFilter struct {
	// Name ищется в «имя фамилия» без учёта регистра.
	Name string
	// LastName ищется в фамилии без учёта регистра.
	LastName string
	// NationalID — подстрока номера документа.
	NationalID string
	// Role: «profesor», «estudiante»/«alumno» (все роли бригады) или точное имя роли.
	Role string
}

// Empty сообщает, что фильтр ничего не ограничивает.
func (f PeopleFilter) Empty() bool {
	return strings.TrimSpace(f.Name) == "" && strings.TrimSpace(f.LastName) == "" &&
		strings.TrimSpace(f.NationalID) == "" && strings.TrimSpace(f.Role) == ""
}

// FilterPeople применяет фильтр к видимым людям и возвращает единый
// список: профессора первыми, затем ученики.
func FilterPeople(users []model.User, f PeopleFilter) []model.User {
	p := VisiblePeople(users)
	all := make([]model.User, 0, len(p.Teachers)+len(p.Students))
	all = append(all, p.Teachers...)
	all = append(all, p.Students...)

	name := strings.ToLower(strings.TrimSpace(f.Name))
	lastName := strings.ToLower(strings.TrimSpace(f.LastName))
	nationalID := strings.TrimSpace(f.NationalID)
	role := strings.ToLower(strings.TrimSpace(f.Role))

	out := make([]model.User, 0, len(all))
	for _, u := range all {
		if name != "" && !strings.Contains(strings.ToLower(u.FirstName+" "+u.LastName), name) {
			continue
		}
		if lastName != "" && !strings.Contains(strings.ToLower(u.LastName), lastName) {
			continue
		}
		if nationalID != "" && (u.NationalID == nil || !strings.Contains(*u.NationalID, nationalID)) {
			continue
		}
		if role != "" && !matchRoleFilter(u.Role, role) {
			continue
		}
		out = append(out, u)
	}
	return out
}

func matchRoleFilter(r model.Role, filter string) bool {
	switch filter {
	case "profesor":
		return IsTeacher(r)
	case "estudiante", "alumno":
		return IsBrigadeMember(r)
	}
	return strings.ToLower(string(r)) == filter
}

func sortPeople(users []model.User) {
	coll := newCollator()
	sort.SliceStable(users, func(i, j int) bool {
		if c := coll.CompareString(users[i].FirstName, users[j].FirstName); c != 0 {
			return c < 0
		}
		return coll.CompareString(users[i].LastName, users[j].LastName) < 0
	})
}

// newCollator создаёт испанский коллатор без учёта регистра.
// Collator не потокобезопасен, поэтому создаётся на каждый вызов.
func newCollator() *collate.Collator {
	return collate.New(language.Spanish, collate.IgnoreCase)
}
