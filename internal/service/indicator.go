// indicator.go — экологические показатели активностей.
package service

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/bigkaa/brigadas/internal/domain/model"
	"github.com/bigkaa/brigadas/internal/repository"
)

// IndicatorInput — поля показателя.
type IndicatorInput struct {
	ActivityID int64
	Type       string
	Value      float64
	Unit       string
}

// IndicatorService — сервис показателей. Права на показатель
// определяются бригадой его активности.
type IndicatorService struct {
	indicators repository.IndicatorRepository
	activities repository.ActivityRepository
	brigades   repository.BrigadeRepository
	logger     *slog.Logger
}

// NewIndicatorService создаёт сервис показателей.
func NewIndicatorService(
	indicators repository.IndicatorRepository,
	activities repository.ActivityRepository,
	brigades repository.BrigadeRepository,
	logger *slog.Logger,
) *IndicatorService {
	return &IndicatorService{
		indicators: indicators,
		activities: activities,
		brigades:   brigades,
		logger:     logger.With(slog.String("component", "indicator_service")),
	}
}

// Create регистрирует показатель.
func (s *IndicatorService) Create(ctx context.Context, viewer *model.Session, in IndicatorInput) (*model.Indicator, error) {
	ind, err := indicatorFromInput(in)
	if err != nil {
		return nil, err
	}
	if err := s.requireActivity(ctx, viewer, ind.ActivityID); err != nil {
		return nil, err
	}
	if err := s.indicators.Create(ctx, ind); err != nil {
		return nil, storeError(err, "создание показателя")
	}
	return ind, nil
}

// Get возвращает показатель учреждения сессии.
func (s *IndicatorService) Get(ctx context.Context, viewer *model.Session, id int64) (*model.Indicator, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	inst, err := s.indicators.InstitutionOf(ctx, id)
	if err != nil {
		return nil, storeError(err, "получение показателя")
	}
	if inst != viewer.InstitutionID {
		return nil, ErrNotFound
	}
	ind, err := s.indicators.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "получение показателя")
	}
	return ind, nil
}

// List возвращает показатели по активности и/или типу.
func (s *IndicatorService) List(ctx context.Context, viewer *model.Session, f repository.IndicatorFilter) ([]model.Indicator, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	f.Type = strings.TrimSpace(f.Type)
	list, err := s.indicators.List(ctx, viewer.InstitutionID, f)
	if err != nil {
		return nil, storeError(err, "получение показателей")
	}
	return orEmpty(list), nil
}

// Update изменяет показатель.
func (s *IndicatorService) Update(ctx context.Context, viewer *model.Session, id int64, in IndicatorInput) (*model.Indicator, error) {
	current, err := s.Get(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireActivity(ctx, viewer, current.ActivityID); err != nil {
		return nil, err
	}
	ind, err := indicatorFromInput(in)
	if err != nil {
		return nil, err
	}
	if ind.ActivityID != current.ActivityID {
		if err := s.requireActivity(ctx, viewer, ind.ActivityID); err != nil {
			return nil, err
		}
	}
	ind.ID = id
	ind.RecordedAt = current.RecordedAt
	if err := s.indicators.Update(ctx, ind); err != nil {
		return nil, storeError(err, "обновление показателя")
	}
	return ind, nil
}

// Delete удаляет показатель.
func (s *IndicatorService) Delete(ctx context.Context, viewer *model.Session, id int64) error {
	current, err := s.Get(ctx, viewer, id)
	if err != nil {
		return err
	}
	if err := s.requireActivity(ctx, viewer, current.ActivityID); err != nil {
		return err
	}
	if err := s.indicators.Delete(ctx, id); err != nil {
		return storeError(err, "удаление показателя")
	}
	return nil
}

// Summary возвращает итоги по типам и единицам.
func (s *IndicatorService) Summary(ctx context.Context, viewer *model.Session) ([]model.IndicatorSummary, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	list, err := s.indicators.Summary(ctx, viewer.InstitutionID)
	if err != nil {
		return nil, storeError(err, "сводка показателей")
	}
	return orEmpty(list), nil
}

// requireActivity проверяет право изменять бригаду активности.
func (s *IndicatorService) requireActivity(ctx context.Context, viewer *model.Session, activityID int64) error {
	if err := requireViewer(viewer); err != nil {
		return err
	}
	a, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		err = storeError(err, "получение активности")
		if isNotFound(err) {
			return invalid("activity_not_found")
		}
		return err
	}
	_, err = mutableBrigade(ctx, s.brigades, viewer, a.BrigadeID)
	return err
}

func indicatorFromInput(in IndicatorInput) (*model.Indicator, error) {
	ind := &model.Indicator{
		ActivityID: in.ActivityID,
		Type:       strings.TrimSpace(in.Type),
		Value:      in.Value,
		Unit:       strings.TrimSpace(in.Unit),
	}
	switch {
	case ind.ActivityID <= 0:
		return nil, invalid("activity_required")
	case ind.Type == "":
		return nil, invalid("indicator_type_required")
	case math.IsNaN(ind.Value) || math.IsInf(ind.Value, 0) || ind.Value < 0:
		return nil, invalid("value_invalid")
	}
	return ind, nil
}
