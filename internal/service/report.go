// report.go — сообщения об инцидентах.
package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bigkaa/brigadas/internal/domain/model"
	"github.com/bigkaa/brigadas/internal/domain/rbac"
	"github.com/bigkaa/brigadas/internal/repository"
)

// ReportInput — поля инцидента.
type ReportInput struct {
	Title       string
	Description string
	Location    string
	Priority    string
	BrigadeID   int64
}

// ReportService — сервис инцидентов.
type ReportService struct {
	reports  repository.ReportRepository
	brigades repository.BrigadeRepository
	users    repository.UserRepository
	logger   *slog.Logger
}

// NewReportService создаёт сервис инцидентов.
func NewReportService(
	reports repository.ReportRepository,
	brigades repository.BrigadeRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *ReportService {
	return &ReportService{
		reports:  reports,
		brigades: brigades,
		users:    users,
		logger:   logger.With(slog.String("component", "report_service")),
	}
}

// Create регистрирует инцидент. Участник бригады может сообщать
// об инцидентах своей бригады; остальные — по CanMutateBrigade.
func (s *ReportService) Create(ctx context.Context, viewer *model.Session, in ReportInput) (*model.Report, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	rep := &model.Report{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Location:    strings.TrimSpace(in.Location),
		Priority:    model.ReportPriority(strings.TrimSpace(in.Priority)),
		Status:      model.ReportOpen,
		BrigadeID:   in.BrigadeID,
	}
	if rep.Priority == "" {
		rep.Priority = model.PriorityMedium
	}
	switch {
	case rep.Title == "":
		return nil, invalid("title_required")
	case rep.BrigadeID <= 0:
		return nil, invalid("brigade_required")
	case !rep.Priority.Valid():
		return nil, invalid("priority_invalid")
	}

	b, err := loadBrigade(ctx, s.brigades, viewer, rep.BrigadeID)
	if err != nil {
		return nil, err
	}
	ownBrigade, err := memberOf(ctx, s.users, viewer, b.ID)
	if err != nil {
		return nil, err
	}
	if !ownBrigade && !rbac.CanMutateBrigade(viewer, b) {
		return nil, ErrForbidden
	}

	reporter := viewer.UserID
	rep.ReporterID = &reporter
	if err := s.reports.Create(ctx, rep); err != nil {
		return nil, storeError(err, "создание инцидента")
	}
	s.logger.Info("Инцидент зарегистрирован",
		slog.Int64("report_id", rep.ID),
		slog.String("priority", string(rep.Priority)),
	)
	return rep, nil
}

// List возвращает инциденты учреждения, новые первыми.
func (s *ReportService) List(ctx context.Context, viewer *model.Session, brigadeID *int64) ([]model.Report, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	list, err := s.reports.List(ctx, viewer.InstitutionID, brigadeID)
	if err != nil {
		return nil, storeError(err, "получение инцидентов")
	}
	return orEmpty(list), nil
}

// SetStatus переключает инцидент между «En Proceso» и «Resuelto».
func (s *ReportService) SetStatus(ctx context.Context, viewer *model.Session, id int64, status string) error {
	st := model.ReportStatus(strings.TrimSpace(status))
	if !st.Valid() {
		return invalid("status_invalid")
	}
	if _, err := s.mutableReport(ctx, viewer, id); err != nil {
		return err
	}
	if err := s.reports.UpdateStatus(ctx, id, st); err != nil {
		return storeError(err, "обновление инцидента")
	}
	return nil
}

// Delete удаляет инцидент.
func (s *ReportService) Delete(ctx context.Context, viewer *model.Session, id int64) error {
	if _, err := s.mutableReport(ctx, viewer, id); err != nil {
		return err
	}
	if err := s.reports.Delete(ctx, id); err != nil {
		return storeError(err, "удаление инцидента")
	}
	return nil
}

// Stats возвращает счётчики инцидентов учреждения.
func (s *ReportService) Stats(ctx context.Context, viewer *model.Session) (model.ReportStats, error) {
	if err := requireViewer(viewer); err != nil {
		return model.ReportStats{}, err
	}
	st, err := s.reports.Stats(ctx, viewer.InstitutionID)
	if err != nil {
		return model.ReportStats{}, storeError(err, "сводка инцидентов")
	}
	return st, nil
}

func (s *ReportService) mutableReport(ctx context.Context, viewer *model.Session, id int64) (*model.Report, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	rep, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "получение инцидента")
	}
	if _, err := mutableBrigade(ctx, s.brigades, viewer, rep.BrigadeID); err != nil {
		return nil, err
	}
	return rep, nil
}
