package legacy

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bigkaa/brigadas/internal/domain/model"
)

// Skip — строка исходной базы, которая не переносится.
type Skip struct {
	Table  string
	ID     int64
	Reason string
}

// Plan — данные в канонической схеме, готовые к записи.
type Plan struct {
	Institutions []model.Institution
	Brigades     []model.Brigade
	Users        []model.User
	Activities   []model.Activity
	Shifts       []model.Shift
	Reports      []model.Report
	Skipped      []Skip
}

func (p *Plan) skip(table string, id int64, format string, args ...any) {
	p.Skipped = append(p.Skipped, Skip{Table: table, ID: id, Reason: fmt.Sprintf(format, args...)})
}

// Старые значения статусов, которые отличаются от канонических.
var (
	activityStatuses = map[string]model.ActivityStatus{
		"pendiente":   model.ActivityPlanned,
		"planificada": model.ActivityPlanned,
		"en progreso": model.ActivityInProgress,
		"en curso":    model.ActivityInProgress,
		"completada":  model.ActivityFinished,
		"finalizada":  model.ActivityFinished,
		"cancelada":   model.ActivityCancelled,
	}
	shiftStatuses = map[string]model.ShiftStatus{
		"programado": model.ShiftScheduled,
		"completado": model.ShiftCompleted,
		"cancelado":  model.ShiftCancelled,
	}
	reportStatuses = map[string]model.ReportStatus{
		"en proceso": model.ReportOpen,
		"resuelto":   model.ReportResolved,
	}
	priorities = map[string]model.ReportPriority{
		"alta":  model.PriorityHigh,
		"media": model.PriorityMedium,
		"baja":  model.PriorityLow,
	}
)

func lookupKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// MapActivityStatus переводит статус активности; неизвестный — «Planificada».
func MapActivityStatus(s string) model.ActivityStatus {
	if st, ok := activityStatuses[lookupKey(s)]; ok {
		return st
	}
	return model.ActivityPlanned
}

// MapShiftStatus переводит статус смены; неизвестный — «Programado».
func MapShiftStatus(s string) model.ShiftStatus {
	if st, ok := shiftStatuses[lookupKey(s)]; ok {
		return st
	}
	return model.ShiftScheduled
}

// MapReportStatus переводит статус инцидента; неизвестный — «En Proceso».
func MapReportStatus(s string) model.ReportStatus {
	if st, ok := reportStatuses[lookupKey(s)]; ok {
		return st
	}
	return model.ReportOpen
}

// MapPriority переводит приоритет; неизвестный — «Media».
func MapPriority(s string) model.ReportPriority {
	if p, ok := priorities[lookupKey(s)]; ok {
		return p
	}
	return model.PriorityMedium
}

// truncateRunes обрезает строку до n символов.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// normalizeTime приводит "8:00" и "08:00:00" к виду HH:MM:SS.
func normalizeTime(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04", "3:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05"), true
		}
	}
	return "", false
}

// BuildPlan переводит строки исходной базы в каноническую схему.
// Идентификаторы сохраняются. Учреждение пользователя определяется
// через его бригаду: в исходной базе прямой связи нет.
func BuildPlan(d *Dump) *Plan {
	p := &Plan{}

	// Учреждения. Дубликаты имени сливаются в первое.
	instAlias := make(map[int64]int64)
	byName := make(map[string]int64)
	for _, r := range d.Institutions {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			p.skip("Institucion_Educativa", r.ID, "пустое название")
			continue
		}
		key := strings.ToLower(name)
		if first, ok := byName[key]; ok {
			instAlias[r.ID] = first
			p.skip("Institucion_Educativa", r.ID, "дубликат учреждения %d", first)
			continue
		}
		byName[key] = r.ID
		instAlias[r.ID] = r.ID
		p.Institutions = append(p.Institutions, model.Institution{
			ID:      r.ID,
			Name:    name,
			Address: strings.TrimSpace(r.Address),
			Phone:   strings.TrimSpace(r.Phone),
		})
	}

	// Бригады.
	brigadeInst := make(map[int64]int64)
	brigadeIdx := make(map[int64]int)
	for _, r := range d.Brigades {
		instID, ok := instAlias[r.InstitutionID]
		if !ok {
			p.skip("Brigada", r.ID, "учреждение %d не найдено", r.InstitutionID)
			continue
		}
		name := strings.TrimSpace(r.Name)
		if name == "" {
			p.skip("Brigada", r.ID, "пустое название")
			continue
		}
		area := strings.TrimSpace(r.ActionArea)
		if area == "" {
			area = model.DefaultBrigadeArea
		}
		brigadeInst[r.ID] = instID
		brigadeIdx[r.ID] = len(p.Brigades)
		p.Brigades = append(p.Brigades, model.Brigade{
			ID:            r.ID,
			Name:          name,
			ActionArea:    truncateRunes(area, model.MaxActionAreaLen),
			Description:   strings.TrimSpace(r.Description),
			Coordinator:   strings.TrimSpace(r.Coordinator),
			Color:         strings.TrimSpace(r.Color),
			InstitutionID: instID,
		})
	}

	// Пользователи.
	emails := make(map[string]int64)
	teachers := make(map[int64][]int64)
	for _, r := range d.Users {
		email := strings.ToLower(strings.TrimSpace(r.Email))
		if email == "" {
			p.skip("Usuario", r.ID, "пустой email")
			continue
		}
		if first, ok := emails[email]; ok {
			p.skip("Usuario", r.ID, "email %s уже занят пользователем %d", email, first)
			continue
		}
		role, err := model.ParseRole(r.Role)
		if err != nil {
			p.skip("Usuario", r.ID, "неизвестная роль %q", r.Role)
			continue
		}
		hash := strings.TrimSpace(r.PasswordHash)
		if hash == "" {
			p.skip("Usuario", r.ID, "пустой хеш пароля")
			continue
		}

		var brigadeID *int64
		var instID *int64
		if r.BrigadeID != nil {
			if inst, ok := brigadeInst[*r.BrigadeID]; ok {
				id := *r.BrigadeID
				brigadeID, instID = &id, &inst
			}
		}
		if instID == nil {
			p.skip("Usuario", r.ID, "учреждение не определено: нет бригады")
			continue
		}

		emails[email] = r.ID
		if role == model.RoleProfesor {
			teachers[*brigadeID] = append(teachers[*brigadeID], r.ID)
		}
		p.Users = append(p.Users, model.User{
			ID:            r.ID,
			FirstName:     strings.TrimSpace(r.FirstName),
			LastName:      strings.TrimSpace(r.LastName),
			Email:         email,
			Role:          role,
			BrigadeID:     brigadeID,
			InstitutionID: instID,
			PasswordHash:  hash,
		})
	}

	// Владельца бригады в исходной базе нет: единственный профессор
	// бригады становится её владельцем.
	for brigadeID, ids := range teachers {
		if len(ids) == 1 {
			teacherID := ids[0]
			p.Brigades[brigadeIdx[brigadeID]].TeacherID = &teacherID
		}
	}

	// Активности.
	for _, r := range d.Activities {
		if _, ok := brigadeInst[r.BrigadeID]; !ok {
			p.skip("actividad", r.ID, "бригада %d не найдена", r.BrigadeID)
			continue
		}
		if r.StartsOn.IsZero() {
			p.skip("actividad", r.ID, "нет даты начала")
			continue
		}
		a := model.Activity{
			ID:          r.ID,
			Title:       strings.TrimSpace(r.Title),
			Description: strings.TrimSpace(r.Description),
			StartsOn:    r.StartsOn,
			Status:      MapActivityStatus(r.Status),
			BrigadeID:   r.BrigadeID,
		}
		if r.EndsOn != nil && !r.EndsOn.Before(r.StartsOn) {
			ends := *r.EndsOn
			a.EndsOn = &ends
		}
		p.Activities = append(p.Activities, a)
	}

	// Смены.
	for _, r := range d.Shifts {
		if _, ok := brigadeInst[r.BrigadeID]; !ok {
			p.skip("turno", r.ID, "бригада %d не найдена", r.BrigadeID)
			continue
		}
		start, ok1 := normalizeTime(r.StartTime)
		end, ok2 := normalizeTime(r.EndTime)
		if !ok1 || !ok2 || end <= start {
			p.skip("turno", r.ID, "некорректное время %q-%q", r.StartTime, r.EndTime)
			continue
		}
		p.Shifts = append(p.Shifts, model.Shift{
			ID:        r.ID,
			BrigadeID: r.BrigadeID,
			Date:      r.Date,
			StartTime: start,
			EndTime:   end,
			Location:  strings.TrimSpace(r.Location),
			Notes:     strings.TrimSpace(r.Notes),
			Status:    MapShiftStatus(r.Status),
			CreatedAt: r.CreatedAt,
		})
	}

	// Инциденты.
	for _, r := range d.Reports {
		if _, ok := brigadeInst[r.BrigadeID]; !ok {
			p.skip("reporte_incidente", r.ID, "бригада %d не найдена", r.BrigadeID)
			continue
		}
		p.Reports = append(p.Reports, model.Report{
			ID:          r.ID,
			Title:       strings.TrimSpace(r.Title),
			Description: strings.TrimSpace(r.Description),
			Location:    strings.TrimSpace(r.Location),
			Priority:    MapPriority(r.Priority),
			Status:      MapReportStatus(r.Status),
			BrigadeID:   r.BrigadeID,
			CreatedAt:   r.CreatedAt,
			UpdatedAt:   r.UpdatedAt,
		})
	}

	return p
}
