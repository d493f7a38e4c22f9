package gates_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/trainhub/internal/app/system/auth"
	"github.com/dalemusser/trainhub/internal/app/system/gates"
)

// Helper to create a request with user context
func withTestUser(r *http.Request, roles ...string) *http.Request {
	user := &auth.SessionUser{
		ID:    "507f1f77bcf86cd799439011", // Valid ObjectID hex
		Name:  "Test User",
		Email: "test@example.com",
		Roles: roles,
	}
	return auth.WithTestUser(r, user)
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response body is not the error envelope: %v", err)
	}
	return body.Error.Code
}

// Test RequireAuth

func TestRequireAuth_Authenticated(t *testing.T) {
	req := httptest.NewRequest("GET", "/protected", nil)
	req = withTestUser(req, "admin")
	rec := httptest.NewRecorder()

	result := gates.RequireAuth(rec, req)

	if !result.OK {
		t.Error("expected OK to be true for authenticated user")
	}
	if !result.Has("admin") {
		t.Errorf("Roles: got %v, want to contain %q", result.Roles, "admin")
	}
	if result.Name != "Test User" {
		t.Errorf("Name: got %q, want %q", result.Name, "Test User")
	}
	if result.UserID.IsZero() {
		t.Error("expected UserID to be set")
	}
}

func TestRequireAuth_NotAuthenticated(t *testing.T) {
	req := httptest.NewRequest("GET", "/protected", nil)
	rec := httptest.NewRecorder()

	result := gates.RequireAuth(rec, req)

	if result.OK {
		t.Error("expected OK to be false for unauthenticated user")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if code := errorCode(t, rec); code != "unauthorized" {
		t.Errorf("error code: got %q, want %q", code, "unauthorized")
	}
}

// Test RequireAdmin

func TestRequireAdmin_AsAdmin(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/users", nil)
	req = withTestUser(req, "admin")
	rec := httptest.NewRecorder()

	result := gates.RequireAdmin(rec, req)

	if !result.OK {
		t.Error("expected OK to be true for admin user")
	}
}

func TestRequireAdmin_AsSuperuser(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/users", nil)
	req = withTestUser(req, "superuser")
	rec := httptest.NewRecorder()

	result := gates.RequireAdmin(rec, req)

	if !result.OK {
		t.Error("expected OK to be true for superuser")
	}
}

func TestRequireAdmin_NotAuthenticated(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/users", nil)
	rec := httptest.NewRecorder()

	result := gates.RequireAdmin(rec, req)

	if result.OK {
		t.Error("expected OK to be false for unauthenticated user")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAdmin_AsDoorholder(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/users", nil)
	req = withTestUser(req, "doorholder")
	rec := httptest.NewRecorder()

	result := gates.RequireAdmin(rec, req)

	if result.OK {
		t.Error("expected OK to be false for doorholder")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}
	if code := errorCode(t, rec); code != "permission_denied" {
		t.Errorf("error code: got %q, want %q", code, "permission_denied")
	}
}

// Test RequireSuperuser

func TestRequireSuperuser_AdminDenied(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/settings", nil)
	req = withTestUser(req, "admin")
	rec := httptest.NewRecorder()

	result := gates.RequireSuperuser(rec, req)

	if result.OK {
		t.Error("expected OK to be false for admin at a superuser gate")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

// Test RequireAdminOrTeamLead

func TestRequireAdminOrTeamLead(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  bool
	}{
		{"admin", []string{"admin"}, true},
		{"superuser", []string{"superuser"}, true},
		{"team lead", []string{"team_lead"}, true},
		{"doorholder", []string{"doorholder"}, false},
		{"doorholder plus team lead", []string{"doorholder", "team_lead"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/reports/teams/x", nil)
			req = withTestUser(req, tt.roles...)
			rec := httptest.NewRecorder()

			result := gates.RequireAdminOrTeamLead(rec, req)

			if result.OK != tt.want {
				t.Errorf("OK: got %v, want %v", result.OK, tt.want)
			}
		})
	}
}

// Test RequireAnyRole

func TestRequireAnyRole_MatchesSecondRole(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/enrollments", nil)
	req = withTestUser(req, "doorholder")
	rec := httptest.NewRecorder()

	result := gates.RequireAnyRole(rec, req, "team_lead", "doorholder")

	if !result.OK {
		t.Error("expected OK to be true when one of the allowed roles matches")
	}
}

func TestRequireAnyRole_NoMatch(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/enrollments", nil)
	req = withTestUser(req, "doorholder")
	rec := httptest.NewRecorder()

	result := gates.RequireAnyRole(rec, req, "admin", "superuser")

	if result.OK {
		t.Error("expected OK to be false when no allowed role matches")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}
}
