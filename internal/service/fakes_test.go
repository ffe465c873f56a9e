package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bigkaa/brigadas/internal/domain/model"
	"github.com/bigkaa/brigadas/internal/repository"
)

// fakeDB — хранилище в памяти для тестов сервисов.
// failWith, если задан, возвращается всеми операциями.
type fakeDB struct {
	mu           sync.Mutex
	nextID       int64
	failWith     error
	institutions map[int64]*model.Institution
	users        map[int64]*model.User
	brigades     map[int64]*model.Brigade
	activities   map[int64]*model.Activity
	shifts       map[int64]*model.Shift
	reports      map[int64]*model.Report
	indicators   map[int64]*model.Indicator
	settings     map[string]*model.Setting
	writes       int
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		institutions: map[int64]*model.Institution{},
		users:        map[int64]*model.User{},
		brigades:     map[int64]*model.Brigade{},
		activities:   map[int64]*model.Activity{},
		shifts:       map[int64]*model.Shift{},
		reports:      map[int64]*model.Report{},
		indicators:   map[int64]*model.Indicator{},
		settings:     map[string]*model.Setting{},
	}
}

func (db *fakeDB) id() int64 {
	db.nextID++
	return db.nextID
}

func (db *fakeDB) repos() *repository.Repositories {
	return &repository.Repositories{
		Institutions: &fakeInstitutions{db},
		Users:        &fakeUsers{db},
		Brigades:     &fakeBrigades{db},
		Activities:   &fakeActivities{db},
		Shifts:       &fakeShifts{db},
		Reports:      &fakeReports{db},
		Indicators:   &fakeIndicators{db},
		Settings:     &fakeSettings{db},
	}
}

// InTx реализует Transactor без настоящей транзакции.
func (db *fakeDB) InTx(_ context.Context, fn func(*repository.Repositories) error) error {
	return fn(db.repos())
}

func (db *fakeDB) userInstitution(u *model.User) int64 {
	if u.InstitutionID != nil {
		return *u.InstitutionID
	}
	if u.BrigadeID != nil {
		if b, ok := db.brigades[*u.BrigadeID]; ok {
			return b.InstitutionID
		}
	}
	return 0
}

func (db *fakeDB) memberCount(brigadeID int64) int {
	n := 0
	for _, u := range db.users {
		if u.BrigadeID != nil && *u.BrigadeID == brigadeID {
			n++
		}
	}
	return n
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- учреждения ---

type fakeInstitutions struct{ db *fakeDB }

func (f *fakeInstitutions) Create(_ context.Context, inst *model.Institution) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.failWith != nil {
		return f.db.failWith
	}
	for _, other := range f.db.institutions {
		if strings.EqualFold(other.Name, inst.Name) {
			return repository.ErrConflict
		}
	}
	inst.ID = f.db.id()
	inst.CreatedAt = time.Now()
	cp := *inst
	f.db.institutions[inst.ID] = &cp
	f.db.writes++
	return nil
}

func (f *fakeInstitutions) GetByID(_ context.Context, id int64) (*model.Institution, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.failWith != nil {
		return nil, f.db.failWith
	}
	inst, ok := f.db.institutions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *inst
	return &cp, nil
}

func (f *fakeInstitutions) List(_ context.Context) ([]model.Institution, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.failWith != nil {
		return nil, f.db.failWith
	}
	var out []model.Institution
	for _, inst := range f.db.institutions {
		out = append(out, *inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeInstitutions) Update(_ context.Context, inst *model.Institution) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.institutions[inst.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *inst
	f.db.institutions[inst.ID] = &cp
	f.db.writes++
	return nil
}

func (f *fakeInstitutions) SetLogo(_ context.Context, id int64, logoPath *string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	inst, ok := f.db.institutions[id]
	if !ok {
		return repository.ErrNotFound
	}
	inst.LogoPath = logoPath
	f.db.writes++
	return nil
}

func (f *fakeInstitutions) Delete(_ context.Context, id int64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.institutions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.db.institutions, id)
	f.db.writes++
	return nil
}

func (f *fakeInstitutions) CountDependents(_ context.Context, id int64) (int, int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	users, brigades := 0, 0
	for _, u := range f.db.users {
		if f.db.userInstitution(u) == id {
			users++
		}
	}
	for _, b := range f.db.brigades {
		if b.InstitutionID == id {
			brigades++
		}
	}
	return users, brigades, nil
}

// --- пользователи ---

type fakeUsers struct{ db *fakeDB }

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.failWith != nil {
		return f.db.failWith
	}
	for _, other := range f.db.users {
		if other.Email == u.Email {
			return repository.ErrConflict
		}
	}
	u.ID = f.db.id()
	cp := *u
	f.db.users[u.ID] = &cp
	f.db.writes++
	return nil
}

func (f *fakeUsers) get(id int64) (*model.User, error) {
	u, ok := f.db.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	inst := f.db.userInstitution(u)
	if inst != 0 {
		cp.InstitutionID = &inst
	}
	return &cp, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.failWith != nil {
		return nil, f.db.failWith
	}
	return f.get(id)
}

func (f *fakeUsers) FindByIdentifier(_ context.Context, institutionID int64, identifier string) (*model.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.failWith != nil {
		return nil, f.db.failWith
	}
	var byEmail *model.User
	for _, u := range f.db.users {
		if f.db.userInstitution(u) != institutionID {
			continue
		}
		if u.Username != nil && *u.Username == identifier {
			return f.get(u.ID)
		}
		if u.Email == identifier && byEmail == nil {
			byEmail = u
		}
	}
	if byEmail == nil {
		return nil, repository.ErrNotFound
	}
	return f.get(byEmail.ID)
}

func (f *fakeUsers) ListByInstitution(_ context.Context, institutionID int64, roles ...model.Role) ([]model.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.failWith != nil {
		return nil, f.db.failWith
	}
	var out []model.User
	for _, u := range f.db.users {
		if f.db.userInstitution(u) != institutionID {
			continue
		}
		if len(roles) > 0 && !containsRole(roles, u.Role) {
			continue
		}
		cp, _ := f.get(u.ID)
		out = append(out, *cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func containsRole(roles []model.Role, r model.Role) bool {
	for _, x := range roles {
		if x == r {
			return true
		}
	}
	return false
}

func (f *fakeUsers) ListByBrigade(_ context.Context, brigadeID int64) ([]model.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.User
	for _, u := range f.db.users {
		if u.BrigadeID != nil && *u.BrigadeID == brigadeID {
			cp, _ := f.get(u.ID)
			out = append(out, *cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUsers) Update(_ context.Context, u *model.User) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	cur, ok := f.db.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cp := *u
	cp.PasswordHash = cur.PasswordHash
	f.db.users[u.ID] = &cp
	f.db.writes++
	return nil
}

func (f *fakeUsers) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	f.db.writes++
	return nil
}

func (f *fakeUsers) AssignBrigade(_ context.Context, id int64, brigadeID *int64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.BrigadeID = brigadeID
	f.db.writes++
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id int64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.db.users, id)
	f.db.writes++
	return nil
}

func (f *fakeUsers) CountByBrigade(_ context.Context, brigadeID int64) (int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	return f.db.memberCount(brigadeID), nil
}

func (f *fakeUsers) CountByInstitution(_ context.Context, institutionID int64) (int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	n := 0
	for _, u := range f.db.users {
		if f.db.userInstitution(u) == institutionID {
			n++
		}
	}
	return n, nil
}

func (f *fakeUsers) EmailExists(_ context.Context, email string) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, u := range f.db.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) UsernameExists(_ context.Context, username string) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, u := range f.db.users {
		if u.Username != nil && *u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

// --- бригады ---

type fakeBrigades struct{ db *fakeDB }

func (f *fakeBrigades) Create(_ context.Context, b *model.Brigade) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.failWith != nil {
		return f.db.failWith
	}
	b.ID = f.db.id()
	cp := *b
	f.db.brigades[b.ID] = &cp
	f.db.writes++
	return nil
}

func (f *fakeBrigades) GetByID(_ context.Context, id int64) (*model.Brigade, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.failWith != nil {
		return nil, f.db.failWith
	}
	b, ok := f.db.brigades[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	cp.MemberCount = f.db.memberCount(id)
	return &cp, nil
}

func (f *fakeBrigades) ListByInstitution(_ context.Context, institutionID int64) ([]model.Brigade, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.failWith != nil {
		return nil, f.db.failWith
	}
	var out []model.Brigade
	for _, b := range f.db.brigades {
		if b.InstitutionID == institutionID {
			cp := *b
			cp.MemberCount = f.db.memberCount(b.ID)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeBrigades) ListAll(_ context.Context) ([]model.Brigade, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.failWith != nil {
		return nil, f.db.failWith
	}
	out := make([]model.Brigade, 0, len(f.db.brigades))
	for _, b := range f.db.brigades {
		cp := *b
		cp.MemberCount = f.db.memberCount(b.ID)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeBrigades) Update(_ context.Context, b *model.Brigade) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.brigades[b.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *b
	f.db.brigades[b.ID] = &cp
	f.db.writes++
	return nil
}

func (f *fakeBrigades) SetDeputy(_ context.Context, id int64, deputyID *int64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	b, ok := f.db.brigades[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.DeputyID = deputyID
	f.db.writes++
	return nil
}

func (f *fakeBrigades) SetTeacher(_ context.Context, id int64, teacherID *int64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	b, ok := f.db.brigades[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.TeacherID = teacherID
	f.db.writes++
	return nil
}

func (f *fakeBrigades) Delete(_ context.Context, id int64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.brigades[id]; !ok {
		return repository.ErrNotFound
	}
	if f.db.memberCount(id) > 0 {
		return repository.ErrForeignKey
	}
	delete(f.db.brigades, id)
	f.db.writes++
	return nil
}

func (f *fakeBrigades) CountByInstitution(_ context.Context, institutionID int64) (int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	n := 0
	for _, b := range f.db.brigades {
		if b.InstitutionID == institutionID {
			n++
		}
	}
	return n, nil
}

// --- активности ---

type fakeActivities struct{ db *fakeDB }

func (f *fakeActivities) Create(_ context.Context, a *model.Activity) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	a.ID = f.db.id()
	cp := *a
	f.db.activities[a.ID] = &cp
	f.db.writes++
	return nil
}

func (f *fakeActivities) GetByID(_ context.Context, id int64) (*model.Activity, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	a, ok := f.db.activities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeActivities) inInstitution(institutionID int64) []model.Activity {
	var out []model.Activity
	for _, a := range f.db.activities {
		if b, ok := f.db.brigades[a.BrigadeID]; ok && b.InstitutionID == institutionID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (f *fakeActivities) ListRecent(_ context.Context, institutionID int64, limit int) ([]model.Activity, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := f.inInstitution(institutionID)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeActivities) ListByBrigade(_ context.Context, brigadeID int64) ([]model.Activity, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.Activity
	for _, a := range f.db.activities {
		if a.BrigadeID == brigadeID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeActivities) Update(_ context.Context, a *model.Activity) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.activities[a.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *a
	f.db.activities[a.ID] = &cp
	f.db.writes++
	return nil
}

func (f *fakeActivities) Delete(_ context.Context, id int64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.activities[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.db.activities, id)
	f.db.writes++
	return nil
}

func (f *fakeActivities) CountByStatus(_ context.Context, institutionID int64) (int, int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	active, finished := 0, 0
	for _, a := range f.inInstitution(institutionID) {
		switch a.Status {
		case model.ActivityFinished:
			finished++
		case model.ActivityCancelled:
		default:
			active++
		}
	}
	return active, finished, nil
}

func (f *fakeActivities) PerMonth(_ context.Context, institutionID int64, since time.Time) ([]model.MonthCount, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	counts := map[time.Time]int{}
	for _, a := range f.inInstitution(institutionID) {
		if a.StartsOn.Before(since) {
			continue
		}
		m := time.Date(a.StartsOn.Year(), a.StartsOn.Month(), 1, 0, 0, 0, 0, time.UTC)
		counts[m]++
	}
	var out []model.MonthCount
	for m, n := range counts {
		out = append(out, model.MonthCount{Month: m, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out, nil
}

// --- смены, инциденты, показатели, настройки ---

type fakeShifts struct{ db *fakeDB }

func (f *fakeShifts) Create(_ context.Context, s *model.Shift) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	s.ID = f.db.id()
	cp := *s
	f.db.shifts[s.ID] = &cp
	f.db.writes++
	return nil
}

func (f *fakeShifts) GetByID(_ context.Context, id int64) (*model.Shift, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	s, ok := f.db.shifts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeShifts) List(_ context.Context, institutionID int64, brigadeID *int64) ([]model.Shift, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.Shift
	for _, s := range f.db.shifts {
		b := f.db.brigades[s.BrigadeID]
		if b == nil || b.InstitutionID != institutionID || (brigadeID != nil && s.BrigadeID != *brigadeID) {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeShifts) UpdateStatus(_ context.Context, id int64, status model.ShiftStatus) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	s, ok := f.db.shifts[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.Status = status
	return nil
}

func (f *fakeShifts) Delete(_ context.Context, id int64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.shifts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.db.shifts, id)
	return nil
}

func (f *fakeShifts) Stats(_ context.Context, institutionID int64, _ *int64) (model.ShiftStats, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var st model.ShiftStats
	days := map[string]bool{}
	for _, s := range f.db.shifts {
		if b := f.db.brigades[s.BrigadeID]; b != nil && b.InstitutionID == institutionID {
			st.TotalShifts++
			days[s.Date.Format("2006-01-02")] = true
		}
	}
	st.DaysWithShifts = len(days)
	return st, nil
}

func (f *fakeShifts) CloseElapsed(_ context.Context, now time.Time) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var n int64
	for _, s := range f.db.shifts {
		end, _ := time.Parse("2006-01-02 15:04", s.Date.Format("2006-01-02")+" "+s.EndTime)
		if s.Status == model.ShiftScheduled && !end.After(now) {
			s.Status = model.ShiftCompleted
			n++
		}
	}
	return n, nil
}

type fakeReports struct{ db *fakeDB }

func (f *fakeReports) Create(_ context.Context, r *model.Report) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	r.ID = f.db.id()
	cp := *r
	f.db.reports[r.ID] = &cp
	f.db.writes++
	return nil
}

func (f *fakeReports) GetByID(_ context.Context, id int64) (*model.Report, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	r, ok := f.db.reports[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReports) List(_ context.Context, institutionID int64, _ *int64) ([]model.Report, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.Report
	for _, r := range f.db.reports {
		if b := f.db.brigades[r.BrigadeID]; b != nil && b.InstitutionID == institutionID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeReports) Update(_ context.Context, r *model.Report) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	cp := *r
	f.db.reports[r.ID] = &cp
	return nil
}

func (f *fakeReports) UpdateStatus(_ context.Context, id int64, status model.ReportStatus) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	r, ok := f.db.reports[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.Status = status
	return nil
}

func (f *fakeReports) Delete(_ context.Context, id int64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	delete(f.db.reports, id)
	return nil
}

func (f *fakeReports) Stats(_ context.Context, institutionID int64) (model.ReportStats, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var st model.ReportStats
	for _, r := range f.db.reports {
		if b := f.db.brigades[r.BrigadeID]; b == nil || b.InstitutionID != institutionID {
			continue
		}
		st.Total++
		if r.Status == model.ReportResolved {
			st.Resolved++
		} else {
			st.Open++
		}
	}
	return st, nil
}

type fakeIndicators struct{ db *fakeDB }

func (f *fakeIndicators) Create(_ context.Context, ind *model.Indicator) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	ind.ID = f.db.id()
	cp := *ind
	f.db.indicators[ind.ID] = &cp
	return nil
}

func (f *fakeIndicators) GetByID(_ context.Context, id int64) (*model.Indicator, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	ind, ok := f.db.indicators[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *ind
	return &cp, nil
}

func (f *fakeIndicators) List(_ context.Context, _ int64, filter repository.IndicatorFilter) ([]model.Indicator, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.Indicator
	for _, ind := range f.db.indicators {
		if filter.ActivityID != nil && ind.ActivityID != *filter.ActivityID {
			continue
		}
		if filter.Type != "" && !strings.EqualFold(filter.Type, ind.Type) {
			continue
		}
		out = append(out, *ind)
	}
	return out, nil
}

func (f *fakeIndicators) Update(_ context.Context, ind *model.Indicator) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	cp := *ind
	f.db.indicators[ind.ID] = &cp
	return nil
}

func (f *fakeIndicators) Delete(_ context.Context, id int64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	delete(f.db.indicators, id)
	return nil
}

func (f *fakeIndicators) Summary(_ context.Context, _ int64) ([]model.IndicatorSummary, error) {
	return nil, nil
}

func (f *fakeIndicators) InstitutionOf(_ context.Context, id int64) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	ind, ok := f.db.indicators[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	a := f.db.activities[ind.ActivityID]
	return f.db.brigades[a.BrigadeID].InstitutionID, nil
}

type fakeSettings struct{ db *fakeDB }

func settingKey(inst int64, key string) string {
	return strconv.FormatInt(inst, 10) + "/" + key
}

func (f *fakeSettings) Get(_ context.Context, institutionID int64, key string) (*model.Setting, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	s, ok := f.db.settings[settingKey(institutionID, key)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSettings) Upsert(_ context.Context, s *model.Setting) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	s.UpdatedAt = time.Now()
	cp := *s
	f.db.settings[settingKey(s.InstitutionID, s.Key)] = &cp
	return nil
}
