package indexes_test

import (
	"testing"

	"github.com/dalemusser/trainhub/internal/app/system/indexes"
	"github.com/dalemusser/trainhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestEnsureAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// EnsureAll should succeed on a clean database
	err := indexes.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// First call
	err := indexes.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}

	// Second call should also succeed (idempotent)
	err = indexes.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func listIndexNames(t *testing.T, db *mongo.Database, coll string) map[string]bool {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes for %s failed: %v", coll, err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_CreatesUserIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names := listIndexNames(t, db, "users")
	for _, want := range []string{
		"uniq_users_email",
		"idx_users_active_nameci_id",
		"idx_users_roles_active_nameci_id",
		"idx_users_nameci_id",
	} {
		if !names[want] {
			t.Errorf("expected index %q to exist on users collection", want)
		}
	}
}

func TestEnsureAll_CreatesEnrollmentIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names := listIndexNames(t, db, "enrollments")
	for _, want := range []string{
		"uniq_enroll_user_course_live",
		"idx_enroll_course_status",
		"idx_enroll_user_status",
		"idx_enroll_team_status",
		"idx_enroll_status_harddeadline",
	} {
		if !names[want] {
			t.Errorf("expected index %q to exist on enrollments collection", want)
		}
	}
}

func TestEnsureAll_CreatesCertificateAndLessonIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	certNames := listIndexNames(t, db, "certificates")
	for _, want := range []string{
		"uniq_certs_number",
		"idx_certs_user_status",
		"idx_certs_course_status",
		"idx_certs_status_expires",
	} {
		if !certNames[want] {
			t.Errorf("expected index %q to exist on certificates collection", want)
		}
	}

	lessonNames := listIndexNames(t, db, "lessons")
	for _, want := range []string{
		"uniq_lessons_course_position",
		"idx_lessons_course_required",
	} {
		if !lessonNames[want] {
			t.Errorf("expected index %q to exist on lessons collection", want)
		}
	}
}

// The partial unique index must allow repeated (user, course) pairs as long
// as at most one is live.
func TestEnrollmentUniqueness_PartialOnArchived(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	coll := db.Collection("enrollments")
	user := bson.M{"user_id": "u1", "course_id": "c1"}

	if _, err := coll.InsertOne(ctx, bson.M{"user_id": user["user_id"], "course_id": user["course_id"], "archived": true}); err != nil {
		t.Fatalf("insert archived: %v", err)
	}
	if _, err := coll.InsertOne(ctx, bson.M{"user_id": user["user_id"], "course_id": user["course_id"], "archived": false}); err != nil {
		t.Fatalf("insert live after archived: %v", err)
	}
	// A second live row must violate the unique index.
	if _, err := coll.InsertOne(ctx, bson.M{"user_id": user["user_id"], "course_id": user["course_id"], "archived": false}); err == nil {
		t.Fatal("expected duplicate key error for second live enrollment")
	}
}
