package courses_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/trainhub/internal/app/features/courses"
	"github.com/dalemusser/trainhub/internal/app/store/audit"
	"github.com/dalemusser/trainhub/internal/app/system/auditlog"
	"github.com/dalemusser/trainhub/internal/app/system/auth"
	"github.com/dalemusser/trainhub/internal/domain/models"
	"github.com/dalemusser/trainhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newRouter(t *testing.T, db *mongo.Database) http.Handler {
	t.Helper()
	al := auditlog.New(audit.New(db), zap.NewNop(), auditlog.Config{Auth: "db", Admin: "db"})
	return courses.Routes(courses.NewHandler(db, al, zap.NewNop()))
}

func do(t *testing.T, router http.Handler, u models.User, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
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

func listTitles(t *testing.T, rec *httptest.ResponseRecorder) []string {
	t.Helper()
	var resp struct {
		Courses []models.Course `json:"courses"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse list response: %v", err)
	}
	titles := make([]string, 0, len(resp.Courses))
	for _, c := range resp.Courses {
		titles = append(titles, c.Title)
	}
	return titles
}

func TestCreateCourseScopePolicy(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	f := testutil.NewFixtures(t, db)
	admin := f.CreateAdmin(ctx, "Alex Admin", "alex@example.com")
	lead := f.CreateTeamLead(ctx, "Lee Lead", "lee@example.com")
	team := f.CreateTeam(ctx, "Parking")
	other := f.CreateTeam(ctx, "Kids Check-In")
	f.CreateMembership(ctx, team.ID, lead.ID, models.MembershipRoleLead)

	router := newRouter(t, db)

	// Admin creates a campus-wide course.
	rec := do(t, router, admin, "POST", "/", map[string]any{
		"title":  "Welcome Orientation",
		"policy": map[string]any{"kind": models.PolicyHonor},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin create status = %d: %s", rec.Code, rec.Body.String())
	}

	// A lead can create a course for a team they lead.
	rec = do(t, router, lead, "POST", "/", map[string]any{
		"title":   "Parking Safety",
		"scope":   models.CourseScopeTeam,
		"team_id": team.ID.Hex(),
		"policy":  map[string]any{"kind": models.PolicyHonor},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("lead team-course status = %d: %s", rec.Code, rec.Body.String())
	}

	// ...but not campus-wide courses.
	rec = do(t, router, lead, "POST", "/", map[string]any{
		"title":  "Campus Thing",
		"policy": map[string]any{"kind": models.PolicyHonor},
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("lead campus-course status = %d, want 403", rec.Code)
	}

	// ...and not for another team.
	rec = do(t, router, lead, "POST", "/", map[string]any{
		"title":   "Not Mine",
		"scope":   models.CourseScopeTeam,
		"team_id": other.ID.Hex(),
		"policy":  map[string]any{"kind": models.PolicyHonor},
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("lead foreign-team status = %d, want 403", rec.Code)
	}
}

func TestCreateCourseRejectsInvalidPolicy(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	f := testutil.NewFixtures(t, db)
	admin := f.CreateAdmin(ctx, "Alex Admin", "alex@example.com")

	router := newRouter(t, db)

	// Assessment without a passing score.
	rec := do(t, router, admin, "POST", "/", map[string]any{
		"title":  "Quiz Course",
		"policy": map[string]any{"kind": models.PolicyAssessment},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("assessment without score status = %d, want 422", rec.Code)
	}
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	if resp.Error.Code != "invalid_policy" {
		t.Errorf("code = %q, want invalid_policy", resp.Error.Code)
	}

	// Honor policy carrying assessment fields.
	rec = do(t, router, admin, "POST", "/", map[string]any{
		"title":  "Honor Course",
		"policy": map[string]any{"kind": models.PolicyHonor, "passing_score": 80},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("honor with score status = %d, want 422", rec.Code)
	}
}

func TestCatalogVisibility(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	f := testutil.NewFixtures(t, db)
	admin := f.CreateAdmin(ctx, "Alex Admin", "alex@example.com")
	door := f.CreateDoorholder(ctx, "Dana Door", "dana@example.com")
	outsider := f.CreateDoorholder(ctx, "Oscar Out", "oscar@example.com")
	team := f.CreateTeam(ctx, "Parking")
	f.CreateMembership(ctx, team.ID, door.ID, models.MembershipRoleMember)

	f.CreateCourse(ctx, "Welcome Orientation")
	f.CreateTeamCourse(ctx, "Parking Safety", team.ID)
	f.CreateArchivedCourse(ctx, "Old Course")

	router := newRouter(t, db)

	// Team member sees campus plus their team's courses.
	titles := listTitles(t, do(t, router, door, "GET", "/", nil))
	if len(titles) != 2 {
		t.Errorf("member titles = %v, want campus + team course", titles)
	}

	// Outsider sees campus only.
	titles = listTitles(t, do(t, router, outsider, "GET", "/", nil))
	if len(titles) != 1 || titles[0] != "Welcome Orientation" {
		t.Errorf("outsider titles = %v, want just Welcome Orientation", titles)
	}

	// Archived stays hidden from doorholders even when requested.
	titles = listTitles(t, do(t, router, outsider, "GET", "/?include_archived=true", nil))
	if len(titles) != 1 {
		t.Errorf("outsider archived titles = %v, want 1", titles)
	}

	// Admin sees everything with include_archived.
	titles = listTitles(t, do(t, router, admin, "GET", "/?include_archived=true", nil))
	if len(titles) != 3 {
		t.Errorf("admin titles = %v, want all 3", titles)
	}
}

func TestGetCourseAccess(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	f := testutil.NewFixtures(t, db)
	door := f.CreateDoorholder(ctx, "Dana Door", "dana@example.com")
	outsider := f.CreateDoorholder(ctx, "Oscar Out", "oscar@example.com")
	team := f.CreateTeam(ctx, "Parking")
	f.CreateMembership(ctx, team.ID, door.ID, models.MembershipRoleMember)
	course := f.CreateTeamCourse(ctx, "Parking Safety", team.ID)
	f.CreateLesson(ctx, course.ID, "Lot Layout", 1, true)
	f.CreateLesson(ctx, course.ID, "Cone Placement", 2, false)

	router := newRouter(t, db)

	rec := do(t, router, door, "GET", "/"+course.ID.Hex(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("member get status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Course  models.Course   `json:"course"`
		Lessons []models.Lesson `json:"lessons"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(resp.Lessons) != 2 || resp.Lessons[0].Position != 1 {
		t.Errorf("lessons = %+v, want 2 ordered lessons", resp.Lessons)
	}

	rec = do(t, router, outsider, "GET", "/"+course.ID.Hex(), nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("outsider get status = %d, want 403", rec.Code)
	}
}

func TestUpdateCourseEditableFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	f := testutil.NewFixtures(t, db)
	admin := f.CreateAdmin(ctx, "Alex Admin", "alex@example.com")
	door := f.CreateDoorholder(ctx, "Dana Door", "dana@example.com")
	course := f.CreateCourse(ctx, "Welcome Orientation")

	router := newRouter(t, db)

	soft := 14
	rec := do(t, router, admin, "PATCH", "/"+course.ID.Hex(), map[string]any{
		"title":              "Welcome Orientation v2",
		"soft_deadline_days": soft,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d: %s", rec.Code, rec.Body.String())
	}
	var updated models.Course
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if updated.Title != "Welcome Orientation v2" || updated.SoftDeadlineDays != 14 {
		t.Errorf("updated = %+v", updated)
	}
	if updated.UpdatedByName != admin.FullName {
		t.Errorf("updated_by_name = %q, want %q", updated.UpdatedByName, admin.FullName)
	}

	rec = do(t, router, admin, "PATCH", "/"+course.ID.Hex(), map[string]any{
		"soft_deadline_days": -3,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("negative deadline status = %d, want 422", rec.Code)
	}

	rec = do(t, router, door, "PATCH", "/"+course.ID.Hex(), map[string]any{"title": "Nope"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("doorholder patch status = %d, want 403", rec.Code)
	}
}

func TestLessonLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	f := testutil.NewFixtures(t, db)
	admin := f.CreateAdmin(ctx, "Alex Admin", "alex@example.com")
	course := f.CreateCourse(ctx, "Welcome Orientation")

	router := newRouter(t, db)
	base := "/" + course.ID.Hex() + "/lessons"

	var ids []string
	for i, title := range []string{"Intro", "Middle", "Wrap-Up"} {
		rec := do(t, router, admin, "POST", base, map[string]any{
			"title":        title,
			"content_type": models.LessonTypeVideo,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("add lesson %d status = %d: %s", i, rec.Code, rec.Body.String())
		}
		var lesson models.Lesson
		if err := json.Unmarshal(rec.Body.Bytes(), &lesson); err != nil {
			t.Fatalf("parse lesson: %v", err)
		}
		if lesson.Position != i+1 {
			t.Errorf("lesson %q position = %d, want %d", title, lesson.Position, i+1)
		}
		ids = append(ids, lesson.ID.Hex())
	}

	// Unknown content type.
	rec := do(t, router, admin, "POST", base, map[string]any{
		"title":        "Bad Type",
		"content_type": "hologram",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad content type status = %d, want 422", rec.Code)
	}

	// Script in a lesson body gets stripped.
	rec = do(t, router, admin, "POST", base, map[string]any{
		"title":        "Quiz Notes",
		"content_type": models.LessonTypeQuiz,
		"body":         `<p>Read this</p><script>alert(1)</script>`,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("quiz lesson status = %d: %s", rec.Code, rec.Body.String())
	}
	var quiz models.Lesson
	if err := json.Unmarshal(rec.Body.Bytes(), &quiz); err != nil {
		t.Fatalf("parse quiz lesson: %v", err)
	}
	if bytes.Contains([]byte(quiz.Body), []byte("script")) {
		t.Errorf("body not sanitized: %q", quiz.Body)
	}

	// Reverse the first three lessons, keep the quiz last.
	quizID := quiz.ID.Hex()
	rec = do(t, router, admin, "PUT", base+"/order", map[string]any{
		"order": []string{ids[2], ids[1], ids[0], quizID},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("reorder status = %d: %s", rec.Code, rec.Body.String())
	}
	var ordered struct {
		Lessons []models.Lesson `json:"lessons"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &ordered); err != nil {
		t.Fatalf("parse reorder response: %v", err)
	}
	if ordered.Lessons[0].Title != "Wrap-Up" || ordered.Lessons[2].Title != "Intro" {
		t.Errorf("order after reorder = %+v", ordered.Lessons)
	}

	// Partial order is rejected.
	rec = do(t, router, admin, "PUT", base+"/order", map[string]any{
		"order": []string{ids[0], ids[1]},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("partial order status = %d, want 422", rec.Code)
	}

	// Delete closes the position gap.
	rec = do(t, router, admin, "DELETE", fmt.Sprintf("%s/%s", base, ids[1]), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, router, admin, "GET", "/"+course.ID.Hex(), nil)
	var after struct {
		Lessons []models.Lesson `json:"lessons"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &after); err != nil {
		t.Fatalf("parse course response: %v", err)
	}
	if len(after.Lessons) != 3 {
		t.Fatalf("lessons after delete = %d, want 3", len(after.Lessons))
	}
	for i, l := range after.Lessons {
		if l.Position != i+1 {
			t.Errorf("lesson %q position = %d, want %d", l.Title, l.Position, i+1)
		}
	}
}

func TestArchiveAndRestoreCourse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	f := testutil.NewFixtures(t, db)
	admin := f.CreateAdmin(ctx, "Alex Admin", "alex@example.com")
	door := f.CreateDoorholder(ctx, "Dana Door", "dana@example.com")
	course := f.CreateCourse(ctx, "Welcome Orientation")

	router := newRouter(t, db)

	rec := do(t, router, admin, "POST", "/"+course.ID.Hex()+"/deactivate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("deactivate status = %d: %s", rec.Code, rec.Body.String())
	}
	var archived models.Course
	if err := json.Unmarshal(rec.Body.Bytes(), &archived); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if archived.Status != models.CourseStatusArchived {
		t.Errorf("status = %q, want archived", archived.Status)
	}

	// Archived course disappears from doorholder views.
	titles := listTitles(t, do(t, router, door, "GET", "/", nil))
	if len(titles) != 0 {
		t.Errorf("doorholder titles = %v, want none", titles)
	}
	rec = do(t, router, door, "GET", "/"+course.ID.Hex(), nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("doorholder get archived status = %d, want 403", rec.Code)
	}

	rec = do(t, router, admin, "POST", "/"+course.ID.Hex()+"/reactivate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reactivate status = %d: %s", rec.Code, rec.Body.String())
	}
	titles = listTitles(t, do(t, router, door, "GET", "/", nil))
	if len(titles) != 1 {
		t.Errorf("doorholder titles after restore = %v, want 1", titles)
	}
}
