package openapi

import (
	"context"
	"testing"
)

func TestLoad(t *testing.T) {
	doc, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() ошибка: %v", err)
	}

	if len(doc.Servers) != 1 || doc.Servers[0].URL != "/api/v1" {
		t.Errorf("servers = %v, ожидается /api/v1", doc.Servers)
	}

	seen := make(map[string]string)
	for path, item := range doc.Paths.Map() {
		for method, op := range item.Operations() {
			if op.OperationID == "" {
				t.Errorf("%s %s: нет operationId", method, path)
				continue
			}
			if prev, ok := seen[op.OperationID]; ok {
				t.Errorf("operationId %q повторяется: %s и %s %s", op.OperationID, prev, method, path)
			}
			seen[op.OperationID] = method + " " + path
		}
	}

	// Публичные операции не требуют сессии.
	for _, path := range []string{"/institutions", "/institutions/{id}/logo", "/auth/login", "/auth/register"} {
		item := doc.Paths.Value(path)
		if item == nil {
			t.Errorf("%s отсутствует в контракте", path)
			continue
		}
		for method, op := range item.Operations() {
			if op.Security == nil || len(*op.Security) != 0 {
				t.Errorf("%s %s: ожидается security: []", method, path)
			}
		}
	}
}

func TestSpec(t *testing.T) {
	if len(Spec()) == 0 {
		t.Fatal("встроенный контракт пуст")
	}
}
