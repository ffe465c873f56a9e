package auth

import (
	"context"
	"testing"
	"time"

	"github.com/bigkaa/brigadas/internal/domain/model"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	live := &model.Session{ID: "live", UserID: 1, ExpiresAt: now.Add(time.Hour)}
	stale := &model.Session{ID: "stale", UserID: 2, ExpiresAt: now.Add(-time.Minute)}

	for _, s := range []*model.Session{live, stale} {
		if err := store.Save(ctx, s); err != nil {
			t.Fatalf("Save(%s) вернул ошибку: %v", s.ID, err)
		}
	}

	got, err := store.Get(ctx, "live")
	if err != nil || got == nil || got.UserID != 1 {
		t.Fatalf("Get(live) = %+v, %v", got, err)
	}

	// Изменение возвращённой копии не затрагивает хранилище
	got.UserID = 99
	again, _ := store.Get(ctx, "live")
	if again.UserID != 1 {
		t.Error("Get() вернул ссылку на внутреннее состояние")
	}

	if got, _ := store.Get(ctx, "missing"); got != nil {
		t.Error("Get(missing) должен вернуть nil")
	}

	n, _ := store.Count(ctx)
	if n != 2 {
		t.Errorf("Count() = %d, ожидается 2", n)
	}

	removed, err := store.Sweep(ctx)
	if err != nil || removed != 1 {
		t.Errorf("Sweep() = %d, %v; ожидается 1", removed, err)
	}

	// Удаление идемпотентно
	for i := 0; i < 2; i++ {
		if err := store.Delete(ctx, "live"); err != nil {
			t.Fatalf("Delete() #%d вернул ошибку: %v", i+1, err)
		}
	}
	if n, _ := store.Count(ctx); n != 0 {
		t.Errorf("Count() после удаления = %d, ожидается 0", n)
	}
}

func TestMemoryStore_ExpiredOnRead(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store := NewMemoryStore()
	store.now = func() time.Time { return now }
	_ = store.Save(ctx, &model.Session{ID: "s", ExpiresAt: now.Add(time.Minute)})

	now = now.Add(2 * time.Minute)
	if got, _ := store.Get(ctx, "s"); got != nil {
		t.Error("истёкшая сессия возвращена")
	}
	if n, _ := store.Count(ctx); n != 0 {
		t.Errorf("истёкшая сессия не удалена при чтении, Count() = %d", n)
	}
}

func TestMemoryStore_Revoke(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	if ok, _ := store.Revoked(ctx, "s"); ok {
		t.Fatal("неотозванная сессия помечена отозванной")
	}
	if err := store.Revoke(ctx, "s", now.Add(time.Hour)); err != nil {
		t.Fatalf("Revoke() вернул ошибку: %v", err)
	}
	if ok, err := store.Revoked(ctx, "s"); !ok || err != nil {
		t.Errorf("Revoked(s) = %v, %v; ожидается true", ok, err)
	}

	// Отметка об отзыве не считается сессией
	if n, _ := store.Count(ctx); n != 0 {
		t.Errorf("Count() = %d, ожидается 0", n)
	}

	// По истечении срока Sweep удаляет отметку
	now = now.Add(2 * time.Hour)
	if _, err := store.Sweep(ctx); err != nil {
		t.Fatalf("Sweep() вернул ошибку: %v", err)
	}
	if len(store.revoked) != 0 {
		t.Errorf("после Sweep осталось %d отметок", len(store.revoked))
	}
	if ok, _ := store.Revoked(ctx, "s"); ok {
		t.Error("просроченная отметка всё ещё действует")
	}
}
