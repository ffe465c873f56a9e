// session.go — жизненный цикл сессий: вход, чтение, восстановление, выход.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/brigadas/internal/auth"
	"github.com/bigkaa/brigadas/internal/domain/model"
)

var sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "br_sessions_active",
	Help: "Число активных сессий в хранилище.",
})

// sweeper — хранилище, требующее явной очистки просроченных сессий.
type sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// SessionService управляет сессиями. Start, Restore и End
// выполняются по одному (single-writer).
type SessionService struct {
	store auth.SessionStore
	ttl   time.Duration
	now   func() time.Time
	// startedAt — момент создания сервиса. Восстанавливаются только
	// сессии, выданные до него: более поздние, отсутствующие в хранилище,
	// завершены выходом или очисткой.
	startedAt time.Time
	mu        sync.Mutex
	logger    *slog.Logger
}

// NewSessionService создаёт сервис сессий с временем жизни ttl.
func NewSessionService(store auth.SessionStore, ttl time.Duration, logger *slog.Logger) *SessionService {
	return &SessionService{
		store:     store,
		ttl:       ttl,
		now:       time.Now,
		startedAt: time.Now(),
		logger:    logger.With(slog.String("component", "session_service")),
	}
}

// Start создаёт сессию для аутентифицированного пользователя.
func (s *SessionService) Start(ctx context.Context, user *model.User, inst *model.Institution) (*model.Session, error) {
	if user == nil || inst == nil {
		return nil, fmt.Errorf("%w: нет пользователя или учреждения", ErrValidation)
	}

	now := s.now().UTC()
	sess := &model.Session{
		ID:              uuid.NewString(),
		UserID:          user.ID,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		Email:           user.Email,
		Role:            user.Role,
		BrigadeID:       user.BrigadeID,
		InstitutionID:   inst.ID,
		InstitutionName: inst.Name,
		LogoPath:        inst.LogoPath,
		CreatedAt:       now,
		ExpiresAt:       now.Add(s.ttl),
	}
	if user.Username != nil {
		sess.Username = *user.Username
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("сохранение сессии: %w: %v", ErrStoreUnavailable, err)
	}
	s.refreshGauge(ctx)

	s.logger.Info("Сессия создана",
		slog.String("session_id", sess.ID),
		slog.Int64("user_id", sess.UserID),
		slog.Time("expires_at", sess.ExpiresAt),
	)
	return sess, nil
}

// Current возвращает активную сессию или nil, nil.
func (s *SessionService) Current(ctx context.Context, id string) (*model.Session, error) {
	if id == "" {
		return nil, nil
	}
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("чтение сессии: %w: %v", ErrStoreUnavailable, err)
	}
	return sess, nil
}

// Restore возвращает сессию из хранилища, а если её там нет, но снимок
// выдан до запуска процесса и ещё действителен, сохраняет снимок обратно.
func (s *SessionService) Restore(ctx context.Context, snapshot *model.Session) (*model.Session, error) {
	if snapshot == nil || snapshot.ID == "" || snapshot.Expired(s.now()) {
		return nil, nil
	}

	sess, err := s.Current(ctx, snapshot.ID)
	if err != nil || sess != nil {
		return sess, err
	}
	if !snapshot.CreatedAt.Before(s.startedAt) {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	revoked, err := s.store.Revoked(ctx, snapshot.ID)
	if err != nil {
		return nil, fmt.Errorf("проверка отзыва сессии: %w: %v", ErrStoreUnavailable, err)
	}
	if revoked {
		s.logger.Warn("Отклонён снимок завершённой сессии",
			slog.String("session_id", snapshot.ID),
			slog.Int64("user_id", snapshot.UserID),
		)
		return nil, nil
	}

	if err := s.store.Save(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("восстановление сессии: %w: %v", ErrStoreUnavailable, err)
	}
	s.refreshGauge(ctx)

	s.logger.Info("Сессия восстановлена из снимка",
		slog.String("session_id", snapshot.ID),
		slog.Int64("user_id", snapshot.UserID),
	)
	return snapshot, nil
}

// End завершает сессию и отзывает её снимок на время жизни сессии.
// Пустой или неизвестный id — не ошибка.
func (s *SessionService) End(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("удаление сессии: %w: %v", ErrStoreUnavailable, err)
	}
	if err := s.store.Revoke(ctx, id, s.now().Add(s.ttl)); err != nil {
		return fmt.Errorf("отзыв сессии: %w: %v", ErrStoreUnavailable, err)
	}
	s.refreshGauge(ctx)

	s.logger.Info("Сессия завершена", slog.String("session_id", id))
	return nil
}

// Sweep удаляет просроченные сессии (если хранилище этого требует)
// и обновляет метрику активных сессий.
func (s *SessionService) Sweep(ctx context.Context) (int, error) {
	removed := 0
	if sw, ok := s.store.(sweeper); ok {
		n, err := sw.Sweep(ctx)
		if err != nil {
			return 0, err
		}
		removed = n
	}
	s.refreshGauge(ctx)
	return removed, nil
}

func (s *SessionService) refreshGauge(ctx context.Context) {
	n, err := s.store.Count(ctx)
	if err != nil {
		s.logger.Warn("Не удалось подсчитать сессии", slog.String("error", err.Error()))
		return
	}
	sessionsActive.Set(float64(n))
}
