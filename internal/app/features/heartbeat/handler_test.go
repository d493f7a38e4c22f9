package heartbeat_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/trainhub/internal/app/features/heartbeat"
	"github.com/dalemusser/trainhub/internal/app/store/sessions"
	"github.com/dalemusser/trainhub/internal/app/system/auth"
	"github.com/dalemusser/trainhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newSessionMgr(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef", "test-session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	return sm
}

// Heartbeats never fail loudly: whatever state the cookie or the
// session row is in, the endpoint answers 200.
func TestHeartbeatWithoutActivitySession(t *testing.T) {
	db := testutil.SetupTestDB(t)
	sm := newSessionMgr(t)
	h := heartbeat.NewHandler(sessions.New(db), sm, zap.NewNop())

	req := httptest.NewRequest("POST", "/heartbeat", nil)
	rec := httptest.NewRecorder()
	h.ServeHeartbeat(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestHeartbeatTouchesOpenSession(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := sessions.New(db)
	userID := primitive.NewObjectID()
	s, err := store.Start(ctx, userID, "10.0.0.1", "test-agent")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	sm := newSessionMgr(t)
	h := heartbeat.NewHandler(store, sm, zap.NewNop())

	// Seed the cookie with the activity session.
	seed := httptest.NewRequest("POST", "/heartbeat", nil)
	sess, err := sm.GetSession(seed)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	sess.Values["activity_session_id"] = s.ID.Hex()
	sess.Values["user_id"] = userID.Hex()
	seedRec := httptest.NewRecorder()
	if err := sess.Save(seed, seedRec); err != nil {
		t.Fatalf("save session: %v", err)
	}

	req := httptest.NewRequest("POST", "/heartbeat", nil)
	for _, c := range seedRec.Result().Cookies() {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHeartbeat(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	got, err := store.GetByID(ctx, s.ID)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if got.EndedAt != nil {
		t.Error("session should still be open after heartbeat")
	}
	if !got.LastSeenAt.After(s.LastSeenAt) && !got.LastSeenAt.Equal(s.LastSeenAt) {
		t.Errorf("LastSeenAt did not advance: %v -> %v", s.LastSeenAt, got.LastSeenAt)
	}
}

func TestHeartbeatStartsReplacementSession(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := sessions.New(db)
	userID := primitive.NewObjectID()
	s, err := store.Start(ctx, userID, "10.0.0.1", "test-agent")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if err := store.Close(ctx, s.ID, sessions.EndReasonInactive); err != nil {
		t.Fatalf("close session: %v", err)
	}

	sm := newSessionMgr(t)
	h := heartbeat.NewHandler(store, sm, zap.NewNop())

	seed := httptest.NewRequest("POST", "/heartbeat", nil)
	sess, _ := sm.GetSession(seed)
	sess.Values["activity_session_id"] = s.ID.Hex()
	sess.Values["user_id"] = userID.Hex()
	seedRec := httptest.NewRecorder()
	if err := sess.Save(seed, seedRec); err != nil {
		t.Fatalf("save session: %v", err)
	}

	req := httptest.NewRequest("POST", "/heartbeat", nil)
	for _, c := range seedRec.Result().Cookies() {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHeartbeat(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	// A fresh open session exists for the user.
	open, err := store.GetByUser(ctx, userID, 5)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	var found bool
	for _, got := range open {
		if got.ID != s.ID && got.EndedAt == nil {
			found = true
		}
	}
	if !found {
		t.Error("expected a replacement open session after heartbeat on a closed one")
	}
}
