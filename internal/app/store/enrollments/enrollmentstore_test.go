package enrollments_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/trainhub/internal/app/store/enrollments"
	"github.com/dalemusser/trainhub/internal/domain/models"
	"github.com/dalemusser/trainhub/internal/testutil"
)

func TestStore_Enroll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := enrollments.New(db)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := f.CreateDoorholder(ctx, "Dana Hall", "dana@example.com")
	course := f.CreateCourse(ctx, "Welcome Team Basics")

	e, err := store.Enroll(ctx, models.Enrollment{
		UserID:   user.ID,
		CourseID: course.ID,
	}, course, enrollments.DeadlineDefaults{})
	if err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}

	if e.ID.IsZero() {
		t.Error("expected ID to be assigned")
	}
	if e.Status != models.EnrollmentNotStarted {
		t.Errorf("Status: got %q, want %q", e.Status, models.EnrollmentNotStarted)
	}
	if e.StartedAt != nil {
		t.Error("expected StartedAt to be nil")
	}
	if e.AttemptCount != 0 {
		t.Errorf("AttemptCount: got %d, want 0", e.AttemptCount)
	}
	if e.Archived {
		t.Error("expected Archived to be false")
	}
}

func TestStore_Enroll_Duplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := enrollments.New(db)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := f.CreateDoorholder(ctx, "Dana Hall", "dana@example.com")
	course := f.CreateCourse(ctx, "Welcome Team Basics")

	seed := models.Enrollment{UserID: user.ID, CourseID: course.ID}
	if _, err := store.Enroll(ctx, seed, course, enrollments.DeadlineDefaults{}); err != nil {
		t.Fatalf("first Enroll failed: %v", err)
	}

	_, err := store.Enroll(ctx, seed, course, enrollments.DeadlineDefaults{})
	if !errors.Is(err, enrollments.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestStore_Enroll_AfterArchiveAllowed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := enrollments.New(db)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := f.CreateDoorholder(ctx, "Dana Hall", "dana@example.com")
	course := f.CreateCourse(ctx, "Welcome Team Basics")

	seed := models.Enrollment{UserID: user.ID, CourseID: course.ID}
	if _, err := store.Enroll(ctx, seed, course, enrollments.DeadlineDefaults{}); err != nil {
		t.Fatalf("first Enroll failed: %v", err)
	}
	if _, err := store.ArchiveByUser(ctx, user.ID); err != nil {
		t.Fatalf("ArchiveByUser failed: %v", err)
	}

	// The partial unique index only covers live rows, so a fresh
	// enrollment for the same pair must succeed.
	if _, err := store.Enroll(ctx, seed, course, enrollments.DeadlineDefaults{}); err != nil {
		t.Fatalf("re-Enroll after archive failed: %v", err)
	}
}

func TestStore_Enroll_InactiveCourse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := enrollments.New(db)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := f.CreateDoorholder(ctx, "Dana Hall", "dana@example.com")
	course := f.CreateArchivedCourse(ctx, "Retired Course")

	_, err := store.Enroll(ctx, models.Enrollment{
		UserID:   user.ID,
		CourseID: course.ID,
	}, course, enrollments.DeadlineDefaults{})
	if !errors.Is(err, enrollments.ErrCourseInactive) {
		t.Errorf("expected ErrCourseInactive, got %v", err)
	}
}

func TestResolveDeadlines(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	explicit := now.AddDate(0, 0, 45)

	tests := []struct {
		name     string
		soft     *time.Time
		course   models.Course
		defaults enrollments.DeadlineDefaults
		want     *time.Time
	}{
		{
			name: "explicit wins over course and defaults",
			soft: &explicit,
			course: models.Course{
				Policy:           models.CompletionPolicy{Kind: models.PolicyHonor},
				SoftDeadlineDays: 7,
			},
			defaults: enrollments.DeadlineDefaults{SoftDays: 14},
			want:     &explicit,
		},
		{
			name: "course days win over defaults",
			course: models.Course{
				Policy:           models.CompletionPolicy{Kind: models.PolicyHonor},
				SoftDeadlineDays: 7,
			},
			defaults: enrollments.DeadlineDefaults{SoftDays: 14},
			want:     timePtr(now.AddDate(0, 0, 7)),
		},
		{
			name:     "defaults apply when course has none",
			course:   models.Course{Policy: models.CompletionPolicy{Kind: models.PolicyHonor}},
			defaults: enrollments.DeadlineDefaults{SoftDays: 14},
			want:     timePtr(now.AddDate(0, 0, 14)),
		},
		{
			name:   "all zero means no deadline",
			course: models.Course{Policy: models.CompletionPolicy{Kind: models.PolicyHonor}},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			soft, _ := enrollments.ResolveDeadlines(tt.soft, nil, tt.course, tt.defaults, now)
			switch {
			case tt.want == nil && soft != nil:
				t.Errorf("got %v, want nil", soft)
			case tt.want != nil && soft == nil:
				t.Errorf("got nil, want %v", tt.want)
			case tt.want != nil && !soft.Equal(*tt.want):
				t.Errorf("got %v, want %v", soft, tt.want)
			}
		})
	}
}

func TestStore_MarkOverdueBatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := enrollments.New(db)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	course := f.CreateCourse(ctx, "Welcome Team Basics")
	past := time.Now().UTC().Add(-time.Hour)

	overdueUser := f.CreateDoorholder(ctx, "Past Due", "past@example.com")
	e, err := store.Enroll(ctx, models.Enrollment{
		UserID:       overdueUser.ID,
		CourseID:     course.ID,
		HardDeadline: &past,
	}, course, enrollments.DeadlineDefaults{})
	if err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}

	onTimeUser := f.CreateDoorholder(ctx, "On Time", "ontime@example.com")
	if _, err := store.Enroll(ctx, models.Enrollment{
		UserID:   onTimeUser.ID,
		CourseID: course.ID,
	}, course, enrollments.DeadlineDefaults{}); err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}

	count, err := store.MarkOverdueBatch(ctx, time.Now())
	if err != nil {
		t.Fatalf("MarkOverdueBatch failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count: got %d, want 1", count)
	}

	got, err := store.GetByID(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.EnrollmentOverdue {
		t.Errorf("Status: got %q, want %q", got.Status, models.EnrollmentOverdue)
	}

	// Re-running the sweep is a no-op.
	count, err = store.MarkOverdueBatch(ctx, time.Now())
	if err != nil {
		t.Fatalf("second MarkOverdueBatch failed: %v", err)
	}
	if count != 0 {
		t.Errorf("second sweep count: got %d, want 0", count)
	}
}

func TestStore_ArchiveByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := enrollments.New(db)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := f.CreateDoorholder(ctx, "Dana Hall", "dana@example.com")
	c1 := f.CreateCourse(ctx, "Course One")
	c2 := f.CreateCourse(ctx, "Course Two")

	for _, c := range []models.Course{c1, c2} {
		if _, err := store.Enroll(ctx, models.Enrollment{UserID: user.ID, CourseID: c.ID}, c, enrollments.DeadlineDefaults{}); err != nil {
			t.Fatalf("Enroll failed: %v", err)
		}
	}

	count, err := store.ArchiveByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ArchiveByUser failed: %v", err)
	}
	if count != 2 {
		t.Errorf("count: got %d, want 2", count)
	}

	if _, err := store.GetLive(ctx, user.ID, c1.ID); !errors.Is(err, enrollments.ErrNotFound) {
		t.Errorf("expected ErrNotFound for archived enrollment, got %v", err)
	}
}

func TestEnrollment_EffectiveStatus(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		e    models.Enrollment
		want string
	}{
		{"no deadline", models.Enrollment{Status: models.EnrollmentInProgress}, models.EnrollmentInProgress},
		{"future deadline", models.Enrollment{Status: models.EnrollmentInProgress, HardDeadline: &future}, models.EnrollmentInProgress},
		{"past deadline in progress", models.Enrollment{Status: models.EnrollmentInProgress, HardDeadline: &past}, models.EnrollmentOverdue},
		{"past deadline not started", models.Enrollment{Status: models.EnrollmentNotStarted, HardDeadline: &past}, models.EnrollmentOverdue},
		{"completed never overdue", models.Enrollment{Status: models.EnrollmentCompleted, HardDeadline: &past}, models.EnrollmentCompleted},
		{"revoked never overdue", models.Enrollment{Status: models.EnrollmentRevoked, HardDeadline: &past}, models.EnrollmentRevoked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.EffectiveStatus(now); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func timePtr(t time.Time) *time.Time { return &t }
