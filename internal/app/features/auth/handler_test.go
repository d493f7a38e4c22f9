package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	featureauth "github.com/dalemusser/trainhub/internal/app/features/auth"
	"github.com/dalemusser/trainhub/internal/app/store/audit"
	"github.com/dalemusser/trainhub/internal/app/store/invites"
	membershipstore "github.com/dalemusser/trainhub/internal/app/store/memberships"
	userstore "github.com/dalemusser/trainhub/internal/app/store/users"
	sysauth "github.com/dalemusser/trainhub/internal/app/system/auth"
	"github.com/dalemusser/trainhub/internal/app/system/apitoken"
	"github.com/dalemusser/trainhub/internal/app/system/auditlog"
	"github.com/dalemusser/trainhub/internal/app/system/authutil"
	"github.com/dalemusser/trainhub/internal/app/system/authz"
	"github.com/dalemusser/trainhub/internal/app/system/ratelimit"
	"github.com/dalemusser/trainhub/internal/domain/models"
	"github.com/dalemusser/trainhub/internal/testutil"
)

func newHandler(t *testing.T, db *mongo.Database) *featureauth.Handler {
	t.Helper()
	sm, err := sysauth.NewSessionManager("0123456789abcdef0123456789abcdef", "test-session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	tokens := apitoken.NewManager("test-secret-test-secret-test-key", "trainhub-test", time.Hour)
	auditLog := auditlog.New(audit.New(db), zap.NewNop(), auditlog.Config{Auth: "db", Admin: "db"})
	limiter := ratelimit.NewLoginLimiter(ratelimit.DefaultLoginConfig())
	return featureauth.NewHandler(db, sm, tokens, auditLog, limiter, zap.NewNop())
}

func createPasswordUser(t *testing.T, db *mongo.Database, email, password string, roles ...string) models.User {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	hash, err := authutil.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u, err := userstore.New(db).Create(ctx, models.User{
		FullName:     "Login Tester",
		Email:        email,
		PasswordHash: hash,
		Roles:        roles,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func postJSON(t *testing.T, path string, body any) *http.Request {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestLoginSuccess(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db)
	createPasswordUser(t, db, "greeter@example.com", "correct horse battery", authz.RoleDoorholder)

	req := postJSON(t, "/api/v1/auth/login", map[string]string{
		"email":    "Greeter@Example.COM",
		"password": "correct horse battery",
	})
	rec := httptest.NewRecorder()
	h.ServeLogin(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Email       string   `json:"email"`
		Roles       []string `json:"roles"`
		PrimaryRole string   `json:"primary_role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if resp.Email != "greeter@example.com" || resp.PrimaryRole != authz.RoleDoorholder {
		t.Errorf("response = %+v", resp)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("login should set a session cookie")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db)
	createPasswordUser(t, db, "greeter@example.com", "correct horse battery", authz.RoleDoorholder)

	req := postJSON(t, "/api/v1/auth/login", map[string]string{
		"email":    "greeter@example.com",
		"password": "wrong",
	})
	rec := httptest.NewRecorder()
	h.ServeLogin(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestLoginUnknownEmailSameError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db)

	req := postJSON(t, "/api/v1/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "whatever",
	})
	rec := httptest.NewRecorder()
	h.ServeLogin(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	var resp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if resp.Error.Message != "invalid email or password" {
		t.Errorf("message = %q; must not reveal whether the account exists", resp.Error.Message)
	}
}

func TestLoginDeactivatedUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h := newHandler(t, db)

	u := createPasswordUser(t, db, "gone@example.com", "correct horse battery", authz.RoleDoorholder)
	if err := userstore.New(db).Deactivate(ctx, u.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	req := postJSON(t, "/api/v1/auth/login", map[string]string{
		"email":    "gone@example.com",
		"password": "correct horse battery",
	})
	rec := httptest.NewRecorder()
	h.ServeLogin(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestAcceptInvite(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h := newHandler(t, db)
	f := testutil.NewFixtures(t, db)

	admin := f.CreateAdmin(ctx, "Admin", "admin@example.com")
	team := f.CreateTeam(ctx, "Greeters")

	inv, err := invites.New(db).Create(ctx, models.Invite{
		Email:       "newbie@example.com",
		FullName:    "New Volunteer",
		Roles:       []string{authz.RoleDoorholder},
		TeamID:      &team.ID,
		CreatedByID: admin.ID,
	}, 48*time.Hour)
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}

	req := postJSON(t, "/api/v1/auth/invite/accept", map[string]string{
		"token":    inv.Token,
		"password": "a sturdy passphrase 9",
	})
	rec := httptest.NewRecorder()
	h.ServeAcceptInvite(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	u, err := userstore.New(db).GetByEmail(ctx, "newbie@example.com")
	if err != nil {
		t.Fatalf("account not created: %v", err)
	}
	if !u.HasRole(authz.RoleDoorholder) {
		t.Errorf("roles = %v, want doorholder from invite", u.Roles)
	}
	isMember, err := membershipstore.New(db).IsMemberOf(ctx, u.ID, team.ID)
	if err != nil || !isMember {
		t.Errorf("invited user should be a member of the invite's team (member=%v err=%v)", isMember, err)
	}

	// The token is single use.
	rec = httptest.NewRecorder()
	h.ServeAcceptInvite(rec, postJSON(t, "/api/v1/auth/invite/accept", map[string]string{
		"token":    inv.Token,
		"password": "a sturdy passphrase 9",
	}))
	if rec.Code != http.StatusConflict {
		t.Errorf("second accept status = %d, want 409", rec.Code)
	}
}

func TestAcceptInviteExpired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h := newHandler(t, db)
	f := testutil.NewFixtures(t, db)

	admin := f.CreateAdmin(ctx, "Admin", "admin@example.com")
	inv, err := invites.New(db).Create(ctx, models.Invite{
		Email:       "late@example.com",
		Roles:       []string{authz.RoleDoorholder},
		CreatedByID: admin.ID,
	}, -time.Hour)
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}

	rec := httptest.NewRecorder()
	h.ServeAcceptInvite(rec, postJSON(t, "/api/v1/auth/invite/accept", map[string]string{
		"token":    inv.Token,
		"password": "a sturdy passphrase 9",
	}))
	if rec.Code != http.StatusGone {
		t.Errorf("status = %d, want 410", rec.Code)
	}
}

func TestTokenIssuance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db)
	u := createPasswordUser(t, db, "api@example.com", "correct horse battery", authz.RoleAdmin)

	req := httptest.NewRequest("POST", "/api/v1/auth/token", nil)
	req = sysauth.WithTestUser(req, &sysauth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Roles: u.Roles,
	})
	rec := httptest.NewRecorder()
	h.ServeToken(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token     string `json:"token"`
		TokenType string `json:"token_type"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if resp.TokenType != "Bearer" || resp.Token == "" {
		t.Errorf("response = %+v", resp)
	}

	claims, err := apitoken.NewManager("test-secret-test-secret-test-key", "trainhub-test", time.Hour).Parse(resp.Token)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.Subject != u.ID.Hex() {
		t.Errorf("token subject = %q, want %q", claims.Subject, u.ID.Hex())
	}
}

func TestTokenRequiresAuth(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db)

	rec := httptest.NewRecorder()
	h.ServeToken(rec, httptest.NewRequest("POST", "/api/v1/auth/token", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
