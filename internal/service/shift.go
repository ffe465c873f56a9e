// shift.go — смены (дежурства) бригад.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/bigkaa/brigadas/internal/domain/model"
	"github.com/bigkaa/brigadas/internal/repository"
)

// clockLayout — формат времени смены «ЧЧ:ММ».
const clockLayout = "15:04"

// ShiftInput — поля смены.
type ShiftInput struct {
	BrigadeID int64
	Date      time.Time
	StartTime string
	EndTime   string
	Location  string
	Notes     string
	Status    string
}

// ShiftService — сервис смен.
type ShiftService struct {
	shifts   repository.ShiftRepository
	brigades repository.BrigadeRepository
	now      func() time.Time
	logger   *slog.Logger
}

// NewShiftService создаёт сервис смен.
func NewShiftService(
	shifts repository.ShiftRepository,
	brigades repository.BrigadeRepository,
	logger *slog.Logger,
) *ShiftService {
	return &ShiftService{
		shifts:   shifts,
		brigades: brigades,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "shift_service")),
	}
}

// Create планирует смену бригады.
func (s *ShiftService) Create(ctx context.Context, viewer *model.Session, in ShiftInput) (*model.Shift, error) {
	sh, err := shiftFromInput(in)
	if err != nil {
		return nil, err
	}
	if _, err := mutableBrigade(ctx, s.brigades, viewer, sh.BrigadeID); err != nil {
		return nil, err
	}
	if err := s.shifts.Create(ctx, sh); err != nil {
		return nil, storeError(err, "создание смены")
	}
	return sh, nil
}

// List возвращает смены учреждения; brigadeID сужает выборку.
func (s *ShiftService) List(ctx context.Context, viewer *model.Session, brigadeID *int64) ([]model.Shift, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	if brigadeID != nil {
		if _, err := loadBrigade(ctx, s.brigades, viewer, *brigadeID); err != nil {
			return nil, err
		}
	}
	list, err := s.shifts.List(ctx, viewer.InstitutionID, brigadeID)
	if err != nil {
		return nil, storeError(err, "получение смен")
	}
	return orEmpty(list), nil
}

// Stats возвращает сводку по сменам.
func (s *ShiftService) Stats(ctx context.Context, viewer *model.Session, brigadeID *int64) (model.ShiftStats, error) {
	if err := requireViewer(viewer); err != nil {
		return model.ShiftStats{}, err
	}
	st, err := s.shifts.Stats(ctx, viewer.InstitutionID, brigadeID)
	if err != nil {
		return model.ShiftStats{}, storeError(err, "сводка смен")
	}
	return st, nil
}

// SetStatus меняет состояние смены.
func (s *ShiftService) SetStatus(ctx context.Context, viewer *model.Session, id int64, status string) error {
	st := model.ShiftStatus(strings.TrimSpace(status))
	if !st.Valid() {
		return invalid("status_invalid")
	}
	if _, err := s.mutableShift(ctx, viewer, id); err != nil {
		return err
	}
	if err := s.shifts.UpdateStatus(ctx, id, st); err != nil {
		return storeError(err, "обновление смены")
	}
	return nil
}

// Delete удаляет смену.
func (s *ShiftService) Delete(ctx context.Context, viewer *model.Session, id int64) error {
	if _, err := s.mutableShift(ctx, viewer, id); err != nil {
		return err
	}
	if err := s.shifts.Delete(ctx, id); err != nil {
		return storeError(err, "удаление смены")
	}
	return nil
}

// CloseElapsed завершает запланированные смены, время которых прошло.
// Вызывается планировщиком.
func (s *ShiftService) CloseElapsed(ctx context.Context) (int64, error) {
	n, err := s.shifts.CloseElapsed(ctx, s.now())
	if err != nil {
		return 0, storeError(err, "закрытие смен")
	}
	if n > 0 {
		s.logger.Info("Смены завершены", slog.Int64("count", n))
	}
	return n, nil
}

func (s *ShiftService) mutableShift(ctx context.Context, viewer *model.Session, id int64) (*model.Shift, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	sh, err := s.shifts.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "получение смены")
	}
	if _, err := mutableBrigade(ctx, s.brigades, viewer, sh.BrigadeID); err != nil {
		return nil, err
	}
	return sh, nil
}

func shiftFromInput(in ShiftInput) (*model.Shift, error) {
	sh := &model.Shift{
		BrigadeID: in.BrigadeID,
		Date:      in.Date,
		StartTime: strings.TrimSpace(in.StartTime),
		EndTime:   strings.TrimSpace(in.EndTime),
		Location:  strings.TrimSpace(in.Location),
		Notes:     strings.TrimSpace(in.Notes),
		Status:    model.ShiftStatus(strings.TrimSpace(in.Status)),
	}
	if sh.Status == "" {
		sh.Status = model.ShiftScheduled
	}
	if sh.BrigadeID <= 0 {
		return nil, invalid("brigade_required")
	}
	if sh.Date.IsZero() {
		return nil, invalid("date_required")
	}
	start, err := time.Parse(clockLayout, sh.StartTime)
	if err != nil {
		return nil, invalid("time_invalid")
	}
	end, err := time.Parse(clockLayout, sh.EndTime)
	if err != nil {
		return nil, invalid("time_invalid")
	}
	if !end.After(start) {
		return nil, invalid("end_before_start")
	}
	if !sh.Status.Valid() {
		return nil, invalid("status_invalid")
	}
	sh.StartTime = start.Format(clockLayout)
	sh.EndTime = end.Format(clockLayout)
	return sh, nil
}
