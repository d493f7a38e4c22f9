package httpjson

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/trainhub/internal/app/system/authz"
)

func TestError_WritesEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, 409, CodeConflict, "already enrolled")

	if rec.Code != 409 {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body struct {
		Error ErrorDetail `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body.Error.Code != CodeConflict {
		t.Errorf("code = %q, want %q", body.Error.Code, CodeConflict)
	}
	if body.Error.Message != "already enrolled" {
		t.Errorf("message = %q", body.Error.Message)
	}
}

func TestRespond_NilWritesStatusOnly(t *testing.T) {
	rec := httptest.NewRecorder()
	Respond(rec, 204, nil)

	if rec.Code != 204 {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}
}

func TestFieldErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	FieldErrors(rec, "invalid course", map[string]string{"title": "required"})

	if rec.Code != 422 {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var body struct {
		Error ErrorDetail `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body.Error.Code != CodeValidationFailed {
		t.Errorf("code = %q, want %q", body.Error.Code, CodeValidationFailed)
	}
	if body.Error.Fields["title"] != "required" {
		t.Errorf("fields = %v", body.Error.Fields)
	}
}

func TestAuthzError_MapsSentinels(t *testing.T) {
	rec := httptest.NewRecorder()
	if !AuthzError(rec, authz.ErrPermissionDenied) {
		t.Fatal("expected ErrPermissionDenied to be handled")
	}
	if rec.Code != 403 {
		t.Errorf("status = %d, want 403", rec.Code)
	}

	rec = httptest.NewRecorder()
	if !AuthzError(rec, authz.ErrSelfActionForbidden) {
		t.Fatal("expected ErrSelfActionForbidden to be handled")
	}
	var body struct {
		Error ErrorDetail `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body.Error.Code != CodeSelfActionForbidden {
		t.Errorf("code = %q, want %q", body.Error.Code, CodeSelfActionForbidden)
	}

	rec = httptest.NewRecorder()
	if AuthzError(rec, errors.New("plain failure")) {
		t.Error("unrelated error should not be handled")
	}
}

func TestDecode(t *testing.T) {
	type payload struct {
		Title string `json:"title"`
	}

	t.Run("valid body", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"title":"Safety Basics"}`))
		var p payload
		if err := Decode(r, &p, 1<<20); err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if p.Title != "Safety Basics" {
			t.Errorf("title = %q", p.Title)
		}
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"title":"x","bogus":1}`))
		var p payload
		if err := Decode(r, &p, 1<<20); err == nil {
			t.Fatal("expected error for unknown field")
		}
	})

	t.Run("oversized body rejected", func(t *testing.T) {
		big := `{"title":"` + strings.Repeat("a", 100) + `"}`
		r := httptest.NewRequest("POST", "/", strings.NewReader(big))
		var p payload
		if err := Decode(r, &p, 16); err == nil {
			t.Fatal("expected error for oversized body")
		}
	})

	t.Run("trailing garbage rejected", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"title":"x"}{"title":"y"}`))
		var p payload
		if err := Decode(r, &p, 1<<20); err == nil {
			t.Fatal("expected error for trailing data")
		}
	})
}
