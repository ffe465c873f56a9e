// store.go — хранилища активных сессий.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/bigkaa/brigadas/internal/domain/model"
)

// SessionStore — хранилище активных сессий.
// Get возвращает nil, nil для отсутствующей или истёкшей сессии.
// Delete для отсутствующего id — не ошибка.
// Revoke помечает id завершённым до момента until: такую сессию
// нельзя восстановить из снимка cookie.
type SessionStore interface {
	Save(ctx context.Context, s *model.Session) error
	Get(ctx context.Context, id string) (*model.Session, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	Revoke(ctx context.Context, id string, until time.Time) error
	Revoked(ctx context.Context, id string) (bool, error)
}

// MemoryStore — хранилище сессий в памяти процесса.
// Просроченные записи удаляются при чтении и периодическим Sweep.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	revoked  map[string]time.Time
	now      func() time.Time
}

// NewMemoryStore создаёт пустое хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*model.Session),
		revoked:  make(map[string]time.Time),
		now:      time.Now,
	}
}

func (m *MemoryStore) Save(_ context.Context, s *model.Session) error {
	cp := *s
	m.mu.Lock()
	m.sessions[s.ID] = &cp
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	if s.Expired(m.now()) {
		delete(m.sessions, id)
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions), nil
}

func (m *MemoryStore) Revoke(_ context.Context, id string, until time.Time) error {
	m.mu.Lock()
	m.revoked[id] = until
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Revoked(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	until, ok := m.revoked[id]
	if !ok {
		return false, nil
	}
	if !m.now().Before(until) {
		delete(m.revoked, id)
		return false, nil
	}
	return true, nil
}

// Sweep удаляет просроченные сессии и отметки об отзыве.
// Возвращает число удалённых сессий.
func (m *MemoryStore) Sweep(_ context.Context) (int, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	for id, until := range m.revoked {
		if !now.Before(until) {
			delete(m.revoked, id)
		}
	}
	return removed, nil
}
