// dashboard.go — ключевые показатели учреждения для главного экрана.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/bigkaa/brigadas/internal/domain/model"
	"github.com/bigkaa/brigadas/internal/repository"
)

// dashboardMonths — глубина графика активностей по месяцам.
const dashboardMonths = 6

// DashboardService собирает сводку из нескольких репозиториев.
type DashboardService struct {
	repos  *repository.Repositories
	now    func() time.Time
	logger *slog.Logger
}

// NewDashboardService создаёт сервис сводки.
func NewDashboardService(repos *repository.Repositories, logger *slog.Logger) *DashboardService {
	return &DashboardService{
		repos:  repos,
		now:    time.Now,
		logger: logger.With(slog.String("component", "dashboard_service")),
	}
}

// Get возвращает сводку учреждения сессии.
func (s *DashboardService) Get(ctx context.Context, viewer *model.Session) (*model.Dashboard, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	inst := viewer.InstitutionID
	d := &model.Dashboard{}

	var err error
	if d.TotalBrigades, err = s.repos.Brigades.CountByInstitution(ctx, inst); err != nil {
		return nil, storeError(err, "подсчёт бригад")
	}
	if d.TotalUsers, err = s.repos.Users.CountByInstitution(ctx, inst); err != nil {
		return nil, storeError(err, "подсчёт пользователей")
	}
	if d.ActiveActivities, d.CompletedActivities, err = s.repos.Activities.CountByStatus(ctx, inst); err != nil {
		return nil, storeError(err, "подсчёт активностей")
	}
	if d.Reports, err = s.repos.Reports.Stats(ctx, inst); err != nil {
		return nil, storeError(err, "сводка инцидентов")
	}

	months := lastMonths(s.now(), dashboardMonths)
	counts, err := s.repos.Activities.PerMonth(ctx, inst, months[0])
	if err != nil {
		return nil, storeError(err, "активности по месяцам")
	}
	d.ActivitiesPerMonth = fillMonths(months, counts)
	return d, nil
}

// lastMonths возвращает первые дни n последних месяцев (включая текущий),
// от старого к новому.
func lastMonths(now time.Time, n int) []time.Time {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := 0; i < n; i++ {
		out[i] = first.AddDate(0, i-n+1, 0)
	}
	return out
}

// fillMonths дополняет выборку месяцами без активностей.
func fillMonths(months []time.Time, counts []model.MonthCount) []model.MonthCount {
	byMonth := make(map[string]int, len(counts))
	for _, c := range counts {
		byMonth[c.Month.Format("2006-01")] = c.Count
	}
	out := make([]model.MonthCount, len(months))
	for i, m := range months {
		out[i] = model.MonthCount{Month: m, Count: byMonth[m.Format("2006-01")]}
	}
	return out
}
