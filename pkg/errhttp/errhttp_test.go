package errhttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	itemdomain "github.com/ghuser/itemregistry/services/item/domain"
	"github.com/ghuser/itemregistry/services/item/domain/models"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"ErrItemNotFound", itemdomain.ErrItemNotFound, http.StatusNotFound},
		{"wrapped ErrItemNotFound", fmt.Errorf("get item: %w", itemdomain.ErrItemNotFound), http.StatusNotFound},
		{"ErrItemAlreadyExists", itemdomain.ErrItemAlreadyExists, http.StatusConflict},
		{"pre-check duplicate", itemdomain.NewDuplicateItemError("X", models.GroupPrimary), http.StatusConflict},
		{"constraint duplicate", fmt.Errorf("save item: %w", itemdomain.NewConstraintViolationError("X", models.GroupPrimary)), http.StatusConflict},
		{"ErrInvalidItemName", fmt.Errorf("%w: too long", itemdomain.ErrInvalidItemName), http.StatusUnprocessableEntity},
		{"ErrInvalidGroup", itemdomain.ErrInvalidGroup, http.StatusUnprocessableEntity},
		{"unknown error", errors.New("something unexpected"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Status(tt.err); got != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, got)
			}
			w := httptest.NewRecorder()
			WriteError(w, tt.err)
			if w.Code != tt.wantStatus {
				t.Fatalf("WriteError status %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Header().Get("Content-Type") == "" {
				t.Fatal("Content-Type header not set")
			}
		})
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response body is not valid JSON: %v", err)
	}
	return body
}

func TestWriteError_DuplicateMessage(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, fmt.Errorf("update item: %w", itemdomain.NewConstraintViolationError("Widget", models.GroupSecondary)))

	want := "An item named 'Widget' already exists in the 'Secondary' group."
	if got := decode(t, w)["error"]; got != want {
		t.Fatalf("error = %q, want %q", got, want)
	}
}

func TestWriteError_HidesInternalDetail(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, fmt.Errorf("query item: %w", errors.New("pq: password authentication failed")))

	if got := decode(t, w)["error"]; got != http.StatusText(http.StatusInternalServerError) {
		t.Fatalf("expected generic message, got %q", got)
	}
}

func TestWriteError_NotFoundMessage(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, fmt.Errorf("get item: %w", itemdomain.ErrItemNotFound))

	if got := decode(t, w)["error"]; got != "item not found" {
		t.Fatalf("error = %q", got)
	}
}

func TestWriteError_ValidationFields(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, fmt.Errorf("%w: %q is not a valid choice", itemdomain.ErrInvalidGroup, "Tertiary"))

	body := decode(t, w)
	if body["error"] != "Validation failed" {
		t.Fatalf("unexpected error field: %v", body["error"])
	}
	fields, ok := body["fields"].(map[string]any)
	if !ok || fields["group"] == nil {
		t.Fatalf("expected fields.group, got %v", body["fields"])
	}
}
