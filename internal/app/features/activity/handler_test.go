package activity_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/trainhub/internal/app/features/activity"
	activitystore "github.com/dalemusser/trainhub/internal/app/store/activity"
	"github.com/dalemusser/trainhub/internal/app/system/auth"
	"github.com/dalemusser/trainhub/internal/domain/models"
	"github.com/dalemusser/trainhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newRouter(t *testing.T, db *mongo.Database) http.Handler {
	t.Helper()
	return activity.Routes(activity.NewHandler(db, zap.NewNop()))
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

type feedResponse struct {
	Events []struct {
		UserID    primitive.ObjectID `json:"user_id"`
		EventType string             `json:"event_type"`
	} `json:"events"`
	Total int64 `json:"total"`
}

func feed(t *testing.T, rec *httptest.ResponseRecorder) feedResponse {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp feedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func record(t *testing.T, ctx context.Context, db *mongo.Database, ev activitystore.Event) {
	t.Helper()
	if err := activitystore.New(db).Record(ctx, ev); err != nil {
		t.Fatalf("record event: %v", err)
	}
}

func TestFeedScoping(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	f := testutil.NewFixtures(t, db)
	admin := f.CreateAdmin(ctx, "Alex Admin", "alex@example.com")
	lead := f.CreateTeamLead(ctx, "Lee Lead", "lee@example.com")
	door := f.CreateDoorholder(ctx, "Dana Door", "dana@example.com")
	outsider := f.CreateDoorholder(ctx, "Oscar Out", "oscar@example.com")
	team := f.CreateTeam(ctx, "Greeters")
	f.CreateMembership(ctx, team.ID, lead.ID, models.MembershipRoleLead)
	f.CreateMembership(ctx, team.ID, door.ID, models.MembershipRoleMember)

	record(t, ctx, db, activitystore.Event{UserID: door.ID, EventType: activitystore.EventLogin})
	record(t, ctx, db, activitystore.Event{UserID: door.ID, EventType: activitystore.EventLessonViewed})
	record(t, ctx, db, activitystore.Event{UserID: outsider.ID, EventType: activitystore.EventLogin})

	router := newRouter(t, db)

	if resp := feed(t, get(t, router, admin, "/")); resp.Total != 3 {
		t.Errorf("admin total = %d", resp.Total)
	}

	// Lead sees their member's events but not the outsider's.
	resp := feed(t, get(t, router, lead, "/"))
	if resp.Total != 2 {
		t.Fatalf("lead total = %d", resp.Total)
	}
	for _, ev := range resp.Events {
		if ev.UserID == outsider.ID {
			t.Errorf("lead sees outsider event")
		}
	}

	// A doorholder sees only their own trail.
	if resp := feed(t, get(t, router, door, "/")); resp.Total != 2 {
		t.Errorf("doorholder total = %d", resp.Total)
	}
	if resp := feed(t, get(t, router, outsider, "/")); resp.Total != 1 {
		t.Errorf("outsider total = %d", resp.Total)
	}

	// user_id outside the lead's scope intersects to an empty feed.
	if resp := feed(t, get(t, router, lead, "/?user_id="+outsider.ID.Hex())); resp.Total != 0 {
		t.Errorf("lead filtered to outsider total = %d", resp.Total)
	}
}

func TestFeedFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	f := testutil.NewFixtures(t, db)
	admin := f.CreateAdmin(ctx, "Alex Admin", "alex@example.com")
	door := f.CreateDoorholder(ctx, "Dana Door", "dana@example.com")
	course := f.CreateCourse(ctx, "Welcome Orientation")

	old := time.Now().UTC().Add(-48 * time.Hour)
	record(t, ctx, db, activitystore.Event{
		UserID: door.ID, EventType: activitystore.EventLogin, CreatedAt: old,
	})
	record(t, ctx, db, activitystore.Event{
		UserID: door.ID, EventType: activitystore.EventLessonViewed,
		CourseID: &course.ID, CourseTitle: course.Title,
	})

	router := newRouter(t, db)

	if resp := feed(t, get(t, router, admin, "/?event_type=lesson_viewed")); resp.Total != 1 {
		t.Errorf("event_type filter total = %d", resp.Total)
	}
	if resp := feed(t, get(t, router, admin, "/?course_id="+course.ID.Hex())); resp.Total != 1 {
		t.Errorf("course filter total = %d", resp.Total)
	}
	since := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	if resp := feed(t, get(t, router, admin, "/?since="+since)); resp.Total != 1 {
		t.Errorf("since filter total = %d", resp.Total)
	}
	if rec := get(t, router, admin, "/?since=yesterday"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad since status = %d", rec.Code)
	}
	if rec := get(t, router, admin, "/?user_id=nope"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad user_id status = %d", rec.Code)
	}
}
