package validators_test

import (
	"testing"
	"time"

	"github.com/dalemusser/trainhub/internal/app/system/validators"
	"github.com/dalemusser/trainhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEnsureAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// EnsureAll should succeed on a clean database
	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// First call
	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}

	// Second call should also succeed (idempotent)
	err = validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Verify collections exist
	expectedCollections := []string{
		"users",
		"teams",
		"team_memberships",
		"courses",
		"lessons",
		"enrollments",
		"lesson_progress",
		"assessment_attempts",
		"certificates",
		"announcements",
		"activity_events",
		"audit_events",
		"sessions",
		"invites",
		"login_records",
		"oauth_states",
		"site_settings",
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}

	collMap := make(map[string]bool)
	for _, name := range names {
		collMap[name] = true
	}

	for _, expected := range expectedCollections {
		if !collMap[expected] {
			t.Errorf("expected collection %q to exist", expected)
		}
	}
}

func TestUsersValidator_RequiredFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Try to insert user without required fields - should fail
	_, err = db.Collection("users").InsertOne(ctx, bson.M{
		"email": "partial@example.org",
	})
	if err == nil {
		t.Error("expected validation error when inserting user without required fields")
	}
}

func TestUsersValidator_ValidUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Insert valid user - should succeed
	_, err = db.Collection("users").InsertOne(ctx, bson.M{
		"full_name":    "Test User",
		"full_name_ci": "test user",
		"email":        "test.user@example.org",
		"roles":        bson.A{"doorholder"},
		"active":       true,
		"auth_method":  "password",
	})
	if err != nil {
		t.Errorf("Insert valid user failed: %v", err)
	}
}

func TestUsersValidator_InvalidRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Try to insert user with a role outside the enum - should fail
	_, err = db.Collection("users").InsertOne(ctx, bson.M{
		"full_name":    "Test User",
		"full_name_ci": "test user",
		"email":        "bad.role@example.org",
		"roles":        bson.A{"janitor"},
		"active":       true,
	})
	if err == nil {
		t.Error("expected validation error when inserting user with invalid role")
	}
}

func TestUsersValidator_EmptyRolesRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	_, err = db.Collection("users").InsertOne(ctx, bson.M{
		"full_name":    "No Roles",
		"full_name_ci": "no roles",
		"email":        "no.roles@example.org",
		"roles":        bson.A{},
		"active":       true,
	})
	if err == nil {
		t.Error("expected validation error when roles array is empty")
	}
}

func TestEnrollmentsValidator_InvalidStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	_, err = db.Collection("enrollments").InsertOne(ctx, bson.M{
		"user_id":   primitive.NewObjectID(),
		"course_id": primitive.NewObjectID(),
		"status":    "paused",
		"archived":  false,
	})
	if err == nil {
		t.Error("expected validation error for unknown enrollment status")
	}
}

func TestEnrollmentsValidator_ValidDocument(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	_, err = db.Collection("enrollments").InsertOne(ctx, bson.M{
		"user_id":    primitive.NewObjectID(),
		"course_id":  primitive.NewObjectID(),
		"status":     "not_started",
		"archived":   false,
		"created_at": time.Now(),
	})
	if err != nil {
		t.Errorf("Insert valid enrollment failed: %v", err)
	}
}

func TestCoursesValidator_InvalidScope(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	_, err = db.Collection("courses").InsertOne(ctx, bson.M{
		"title":    "Hospitality 101",
		"title_ci": "hospitality 101",
		"scope":    "district",
		"status":   "active",
		"policy":   bson.M{"kind": "honor"},
	})
	if err == nil {
		t.Error("expected validation error for unknown course scope")
	}
}

func TestCertificatesValidator_ValidDocument(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	_, err = db.Collection("certificates").InsertOne(ctx, bson.M{
		"number":    "CERT-20260101-ABCD1234",
		"user_id":   primitive.NewObjectID(),
		"course_id": primitive.NewObjectID(),
		"status":    "valid",
	})
	if err != nil {
		t.Errorf("Insert valid certificate failed: %v", err)
	}
}
