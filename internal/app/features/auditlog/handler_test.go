package auditlog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/trainhub/internal/app/features/auditlog"
	"github.com/dalemusser/trainhub/internal/app/store/audit"
	"github.com/dalemusser/trainhub/internal/app/system/auth"
	"github.com/dalemusser/trainhub/internal/domain/models"
	"github.com/dalemusser/trainhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newRouter(t *testing.T, db *mongo.Database) http.Handler {
	t.Helper()
	return auditlog.Routes(auditlog.NewHandler(db, zap.NewNop()))
}

func get(t *testing.T, router http.Handler, u models.User, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	req = auth.WithTestUser(req, &auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Roles: u.Roles,
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type trailResponse struct {
	Events []struct {
		Category  string `json:"category"`
		EventType string `json:"event_type"`
	} `json:"events"`
	Total int64 `json:"total"`
}

func trail(t *testing.T, rec *httptest.ResponseRecorder) trailResponse {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp trailResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func logEvent(t *testing.T, ctx context.Context, db *mongo.Database, ev audit.Event) {
	t.Helper()
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	if err := audit.New(db).Log(ctx, ev); err != nil {
		t.Fatalf("log event: %v", err)
	}
}

func TestTrailAdminOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	f := testutil.NewFixtures(t, db)
	admin := f.CreateAdmin(ctx, "Alex Admin", "alex@example.com")
	lead := f.CreateTeamLead(ctx, "Lee Lead", "lee@example.com")
	door := f.CreateDoorholder(ctx, "Dana Door", "dana@example.com")

	logEvent(t, ctx, db, audit.Event{
		Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess,
		UserID: &door.ID, Success: true,
	})

	router := newRouter(t, db)

	if resp := trail(t, get(t, router, admin, "/")); resp.Total != 1 {
		t.Errorf("admin total = %d", resp.Total)
	}
	if rec := get(t, router, lead, "/"); rec.Code != http.StatusForbidden {
		t.Errorf("lead status = %d", rec.Code)
	}
	if rec := get(t, router, door, "/"); rec.Code != http.StatusForbidden {
		t.Errorf("doorholder status = %d", rec.Code)
	}
}

func TestTrailFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	f := testutil.NewFixtures(t, db)
	admin := f.CreateAdmin(ctx, "Alex Admin", "alex@example.com")
	door := f.CreateDoorholder(ctx, "Dana Door", "dana@example.com")
	team := f.CreateTeam(ctx, "Greeters")

	logEvent(t, ctx, db, audit.Event{
		Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess,
		UserID: &door.ID, Success: true,
	})
	logEvent(t, ctx, db, audit.Event{
		Category: audit.CategoryAdmin, EventType: audit.EventEnrolled,
		UserID: &door.ID, ActorID: &admin.ID, TeamID: &team.ID, Success: true,
	})
	logEvent(t, ctx, db, audit.Event{
		Category: audit.CategoryAuth, EventType: audit.EventLoginFailedWrongPassword,
		Success: false, FailureReason: "wrong_password",
		Timestamp: time.Now().UTC().Add(-72 * time.Hour),
	})

	router := newRouter(t, db)

	if resp := trail(t, get(t, router, admin, "/")); resp.Total != 3 {
		t.Fatalf("unfiltered total = %d", resp.Total)
	}
	if resp := trail(t, get(t, router, admin, "/?category="+audit.CategoryAdmin)); resp.Total != 1 {
		t.Errorf("category filter total = %d", resp.Total)
	}
	if resp := trail(t, get(t, router, admin, "/?actor_id="+admin.ID.Hex())); resp.Total != 1 {
		t.Errorf("actor filter total = %d", resp.Total)
	}
	if resp := trail(t, get(t, router, admin, "/?team_id="+team.ID.Hex())); resp.Total != 1 {
		t.Errorf("team filter total = %d", resp.Total)
	}
	since := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	if resp := trail(t, get(t, router, admin, "/?since="+since)); resp.Total != 2 {
		t.Errorf("since filter total = %d", resp.Total)
	}
	if rec := get(t, router, admin, "/?team_id=nope"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad team_id status = %d", rec.Code)
	}
}
