package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) errorDetail {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("декодирование тела: %v", err)
	}
	return body.Error
}

func TestWriters(t *testing.T) {
	tests := []struct {
		name       string
		write      func(http.ResponseWriter)
		wantStatus int
		wantCode   string
	}{
		{"validation", func(w http.ResponseWriter) { ValidationError(w, "x") }, http.StatusBadRequest, CodeValidationError},
		{"credentials", func(w http.ResponseWriter) { InvalidCredentials(w, "x") }, http.StatusUnauthorized, CodeInvalidCredentials},
		{"unauthorized", func(w http.ResponseWriter) { Unauthorized(w, "x") }, http.StatusUnauthorized, CodeUnauthorized},
		{"forbidden", func(w http.ResponseWriter) { Forbidden(w, "x") }, http.StatusForbidden, CodeForbidden},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "x") }, http.StatusNotFound, CodeNotFound},
		{"conflict", func(w http.ResponseWriter) { Conflict(w, "x") }, http.StatusConflict, CodeConflict},
		{"store", func(w http.ResponseWriter) { StoreUnavailable(w, "x") }, http.StatusServiceUnavailable, CodeStoreUnavailable},
		{"internal", func(w http.ResponseWriter) { InternalError(w, "x") }, http.StatusInternalServerError, CodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)
			if rec.Code != tt.wantStatus {
				t.Errorf("статус = %d, ожидается %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			if d := decode(t, rec); d.Code != tt.wantCode || d.Message != "x" {
				t.Errorf("тело = %+v", d)
			}
		})
	}
}

func TestBrigadeHasMembers_Count(t *testing.T) {
	rec := httptest.NewRecorder()
	BrigadeHasMembers(rec, 3, "tiene 3")

	d := decode(t, rec)
	if rec.Code != http.StatusConflict || d.Code != CodeBrigadeHasMembers {
		t.Fatalf("статус %d, код %q", rec.Code, d.Code)
	}
	if d.Count == nil || *d.Count != 3 {
		t.Errorf("count = %v, ожидается 3", d.Count)
	}
}

func TestFieldValidationError(t *testing.T) {
	rec := httptest.NewRecorder()
	FieldValidationError(rec, "email_invalid", "correo")
	if d := decode(t, rec); d.Field != "email_invalid" {
		t.Errorf("field = %q", d.Field)
	}
}
