// activity.go — активности бригад.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/bigkaa/brigadas/internal/domain/model"
	"github.com/bigkaa/brigadas/internal/repository"
)

// defaultRecentLimit — размер ленты последних активностей.
const (
	defaultRecentLimit = 20
	maxRecentLimit     = 200
)

// ActivityInput — поля активности.
type ActivityInput struct {
	Title       string
	Description string
	StartsOn    time.Time
	EndsOn      *time.Time
	Status      string
	BrigadeID   int64
}

// ActivityService — сервис активностей.
type ActivityService struct {
	activities repository.ActivityRepository
	brigades   repository.BrigadeRepository
	logger     *slog.Logger
}

// NewActivityService создаёт сервис активностей.
func NewActivityService(
	activities repository.ActivityRepository,
	brigades repository.BrigadeRepository,
	logger *slog.Logger,
) *ActivityService {
	return &ActivityService{
		activities: activities,
		brigades:   brigades,
		logger:     logger.With(slog.String("component", "activity_service")),
	}
}

// Create создаёт активность бригады.
func (s *ActivityService) Create(ctx context.Context, viewer *model.Session, in ActivityInput) (*model.Activity, error) {
	a, err := activityFromInput(in)
	if err != nil {
		return nil, err
	}
	if _, err := mutableBrigade(ctx, s.brigades, viewer, a.BrigadeID); err != nil {
		return nil, err
	}
	if err := s.activities.Create(ctx, a); err != nil {
		return nil, storeError(err, "создание активности")
	}
	s.logger.Info("Активность создана", slog.Int64("activity_id", a.ID), slog.Int64("brigade_id", a.BrigadeID))
	return a, nil
}

// Get возвращает активность учреждения сессии.
func (s *ActivityService) Get(ctx context.Context, viewer *model.Session, id int64) (*model.Activity, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	a, err := s.activities.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "получение активности")
	}
	if _, err := loadBrigade(ctx, s.brigades, viewer, a.BrigadeID); err != nil {
		return nil, err
	}
	return a, nil
}

// Recent возвращает последние активности учреждения.
func (s *ActivityService) Recent(ctx context.Context, viewer *model.Session, limit int) ([]model.Activity, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	list, err := s.activities.ListRecent(ctx, viewer.InstitutionID, limit)
	if err != nil {
		return nil, storeError(err, "получение активностей")
	}
	return orEmpty(list), nil
}

// ByBrigade возвращает активности одной бригады.
func (s *ActivityService) ByBrigade(ctx context.Context, viewer *model.Session, brigadeID int64) ([]model.Activity, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	if _, err := loadBrigade(ctx, s.brigades, viewer, brigadeID); err != nil {
		return nil, err
	}
	list, err := s.activities.ListByBrigade(ctx, brigadeID)
	if err != nil {
		return nil, storeError(err, "получение активностей бригады")
	}
	return orEmpty(list), nil
}

// Update изменяет активность. Перенос в другую бригаду требует прав на обе.
func (s *ActivityService) Update(ctx context.Context, viewer *model.Session, id int64, in ActivityInput) (*model.Activity, error) {
	current, err := s.Get(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	if _, err := mutableBrigade(ctx, s.brigades, viewer, current.BrigadeID); err != nil {
		return nil, err
	}
	a, err := activityFromInput(in)
	if err != nil {
		return nil, err
	}
	if a.BrigadeID != current.BrigadeID {
		if _, err := mutableBrigade(ctx, s.brigades, viewer, a.BrigadeID); err != nil {
			return nil, err
		}
	}
	a.ID = id
	if err := s.activities.Update(ctx, a); err != nil {
		return nil, storeError(err, "обновление активности")
	}
	updated, err := s.activities.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "получение активности")
	}
	return updated, nil
}

// Delete удаляет активность вместе с её показателями.
func (s *ActivityService) Delete(ctx context.Context, viewer *model.Session, id int64) error {
	a, err := s.Get(ctx, viewer, id)
	if err != nil {
		return err
	}
	if _, err := mutableBrigade(ctx, s.brigades, viewer, a.BrigadeID); err != nil {
		return err
	}
	if err := s.activities.Delete(ctx, id); err != nil {
		return storeError(err, "удаление активности")
	}
	return nil
}

func activityFromInput(in ActivityInput) (*model.Activity, error) {
	a := &model.Activity{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		StartsOn:    in.StartsOn,
		EndsOn:      in.EndsOn,
		Status:      model.ActivityStatus(strings.TrimSpace(in.Status)),
		BrigadeID:   in.BrigadeID,
	}
	if a.Status == "" {
		a.Status = model.ActivityPlanned
	}
	switch {
	case a.Title == "":
		return nil, invalid("title_required")
	case a.BrigadeID <= 0:
		return nil, invalid("brigade_required")
	case a.StartsOn.IsZero():
		return nil, invalid("start_date_required")
	case a.EndsOn != nil && a.EndsOn.Before(a.StartsOn):
		return nil, invalid("end_before_start")
	case !a.Status.Valid():
		return nil, invalid("status_invalid")
	}
	return a, nil
}

// orEmpty заменяет nil-срез пустым для JSON-ответов.
func orEmpty[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
