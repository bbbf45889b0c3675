package validator_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgvalidator "github.com/ghuser/itemregistry/pkg/validator"
)

type itemReq struct {
	Name  string `json:"name"  validate:"required,min=1,max=10"`
	Group string `json:"group" validate:"required,oneof=Primary Secondary"`
}

type patchReq struct {
	Name  *string `json:"name"  validate:"omitempty,min=1,max=10"`
	Group *string `json:"group" validate:"omitempty,oneof=Primary Secondary"`
}

func ptr(s string) *string { return &s }

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		wantErr bool
	}{
		{"valid full", &itemReq{Name: "widget", Group: "Primary"}, false},
		{"missing fields", &itemReq{}, true},
		{"unknown group", &itemReq{Name: "widget", Group: "Tertiary"}, true},
		{"group is case-sensitive", &itemReq{Name: "widget", Group: "primary"}, true},
		{"empty patch", &patchReq{}, false},
		{"patch with valid group", &patchReq{Group: ptr("Secondary")}, false},
		{"patch with bad group", &patchReq{Group: ptr("Other")}, true},
		{"patch with long name", &patchReq{Name: ptr("12345678901")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pkgvalidator.Validate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestFormatValidationErrors(t *testing.T) {
	t.Run("required uses json field names", func(t *testing.T) {
		m := pkgvalidator.FormatValidationErrors(pkgvalidator.Validate(&itemReq{}))
		if m["name"] != "This field is required." || m["group"] != "This field is required." {
			t.Errorf("unexpected messages: %v", m)
		}
	})

	t.Run("max", func(t *testing.T) {
		m := pkgvalidator.FormatValidationErrors(pkgvalidator.Validate(&itemReq{Name: "12345678901", Group: "Primary"}))
		if m["name"] != "Ensure this field has no more than 10 characters." {
			t.Errorf("unexpected name message: %q", m["name"])
		}
	})

	t.Run("oneof lists the choices", func(t *testing.T) {
		m := pkgvalidator.FormatValidationErrors(pkgvalidator.Validate(&itemReq{Name: "w", Group: "Tertiary"}))
		want := `"Tertiary" is not a valid choice.`
		if m["group"] != want {
			t.Errorf("group message = %q, want %q", m["group"], want)
		}
	})

	t.Run("blank patch name", func(t *testing.T) {
		m := pkgvalidator.FormatValidationErrors(pkgvalidator.Validate(&patchReq{Name: ptr("")}))
		if m["name"] != "This field may not be blank." {
			t.Errorf("unexpected name message: %q", m["name"])
		}
	})

	t.Run("non-validation error", func(t *testing.T) {
		if m := pkgvalidator.FormatValidationErrors(http.ErrNoCookie); len(m) != 0 {
			t.Errorf("expected empty map, got %v", m)
		}
	})
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantOK   bool
		wantCode int
		wantBody string
	}{
		{"valid", `{"name":"widget","group":"Primary"}`, true, 0, ""},
		{"malformed JSON", `{bad json`, false, http.StatusBadRequest, "Invalid JSON"},
		{"empty body", ``, false, http.StatusBadRequest, "Request body is required"},
		{"trailing data", `{"name":"widget","group":"Primary"} {}`, false, http.StatusBadRequest, "Invalid JSON"},
		{"missing group", `{"name":"widget"}`, false, http.StatusUnprocessableEntity, "Validation failed"},
		{"invalid group", `{"name":"widget","group":"Nope"}`, false, http.StatusUnprocessableEntity, "not a valid choice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			req, ok := pkgvalidator.ValidateRequest[itemReq](w, r)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v (body %s)", ok, tt.wantOK, w.Body.String())
			}
			if ok {
				if req.Name != "widget" {
					t.Errorf("unexpected Name: %q", req.Name)
				}
				return
			}
			if w.Code != tt.wantCode {
				t.Errorf("expected %d, got %d", tt.wantCode, w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("expected %q in body, got: %s", tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestValidateRequest_BodyTooLarge(t *testing.T) {
	body := `{"name":"` + strings.Repeat("x", 64) + `","group":"Primary"}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.Body = http.MaxBytesReader(w, r.Body, 16)

	if _, ok := pkgvalidator.ValidateRequest[itemReq](w, r); ok {
		t.Fatal("expected ok=false for oversized body")
	}
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}
}
