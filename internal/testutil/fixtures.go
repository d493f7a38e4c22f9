package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/trainhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateTeam creates a test team with the given name.
// Returns the created team with its generated ID.
func (f *Fixtures) CreateTeam(ctx context.Context, name string) models.Team {
	f.t.Helper()

	now := time.Now().UTC()
	team := models.Team{
		ID:           primitive.NewObjectID(),
		Name:         name,
		NameCI:       text.Fold(name),
		MinistryArea: "Guest Services",
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("teams").InsertOne(ctx, team); err != nil {
		f.t.Fatalf("failed to create test team: %v", err)
	}
	return team
}

// CreateUser creates an active test user holding the given roles.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email string, roles ...string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		AuthMethod: "password",
		Roles:      roles,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateSuperuser creates a test superuser.
func (f *Fixtures) CreateSuperuser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, "superuser")
}

// CreateAdmin creates a test admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, "admin")
}

// CreateTeamLead creates a test team lead user. Membership rows are
// separate; call CreateMembership to attach the lead to a team.
func (f *Fixtures) CreateTeamLead(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, "team_lead")
}

// CreateDoorholder creates a test doorholder user.
func (f *Fixtures) CreateDoorholder(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, "doorholder")
}

// CreateInactiveUser creates a deactivated test user.
func (f *Fixtures) CreateInactiveUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:            primitive.NewObjectID(),
		FullName:      fullName,
		FullNameCI:    text.Fold(fullName),
		Email:         email,
		AuthMethod:    "password",
		Roles:         []string{"doorholder"},
		Active:        false,
		DeactivatedAt: &now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create inactive test user: %v", err)
	}
	return user
}

// CreateMembership creates a membership row linking a user to a team.
func (f *Fixtures) CreateMembership(ctx context.Context, teamID, userID primitive.ObjectID, role string) models.TeamMembership {
	f.t.Helper()

	membership := models.TeamMembership{
		ID:        primitive.NewObjectID(),
		TeamID:    teamID,
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := f.db.Collection("team_memberships").InsertOne(ctx, membership); err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}
	return membership
}

// CreateCourse creates an active campus-wide honor-policy course.
func (f *Fixtures) CreateCourse(ctx context.Context, title string) models.Course {
	f.t.Helper()
	return f.CreateCourseWithPolicy(ctx, title, models.CompletionPolicy{Kind: models.PolicyHonor}, models.CertificateConfig{})
}

// CreateCourseWithPolicy creates an active campus-wide course with the
// given completion policy and certificate config.
func (f *Fixtures) CreateCourseWithPolicy(ctx context.Context, title string, policy models.CompletionPolicy, cert models.CertificateConfig) models.Course {
	f.t.Helper()

	now := time.Now().UTC()
	course := models.Course{
		ID:          primitive.NewObjectID(),
		Title:       title,
		TitleCI:     text.Fold(title),
		Scope:       models.CourseScopeCampus,
		Policy:      policy,
		Certificate: cert,
		Status:      models.CourseStatusActive,
		OwnerID:     primitive.NewObjectID(),
		CreatedAt:   now,
	}

	if _, err := f.db.Collection("courses").InsertOne(ctx, course); err != nil {
		f.t.Fatalf("failed to create test course: %v", err)
	}
	return course
}

// CreateTeamCourse creates an active course owned by the given team.
func (f *Fixtures) CreateTeamCourse(ctx context.Context, title string, teamID primitive.ObjectID) models.Course {
	f.t.Helper()

	now := time.Now().UTC()
	course := models.Course{
		ID:        primitive.NewObjectID(),
		Title:     title,
		TitleCI:   text.Fold(title),
		Scope:     models.CourseScopeTeam,
		TeamID:    &teamID,
		Policy:    models.CompletionPolicy{Kind: models.PolicyHonor},
		Status:    models.CourseStatusActive,
		OwnerID:   primitive.NewObjectID(),
		CreatedAt: now,
	}

	if _, err := f.db.Collection("courses").InsertOne(ctx, course); err != nil {
		f.t.Fatalf("failed to create test team course: %v", err)
	}
	return course
}

// CreateArchivedCourse creates a course that no longer accepts enrollment.
func (f *Fixtures) CreateArchivedCourse(ctx context.Context, title string) models.Course {
	f.t.Helper()

	now := time.Now().UTC()
	course := models.Course{
		ID:        primitive.NewObjectID(),
		Title:     title,
		TitleCI:   text.Fold(title),
		Scope:     models.CourseScopeCampus,
		Policy:    models.CompletionPolicy{Kind: models.PolicyHonor},
		Status:    models.CourseStatusArchived,
		OwnerID:   primitive.NewObjectID(),
		CreatedAt: now,
	}

	if _, err := f.db.Collection("courses").InsertOne(ctx, course); err != nil {
		f.t.Fatalf("failed to create archived test course: %v", err)
	}
	return course
}

// CreateLesson creates a lesson at the given position in a course.
func (f *Fixtures) CreateLesson(ctx context.Context, courseID primitive.ObjectID, title string, position int, required bool) models.Lesson {
	f.t.Helper()

	lesson := models.Lesson{
		ID:          primitive.NewObjectID(),
		CourseID:    courseID,
		Title:       title,
		TitleCI:     text.Fold(title),
		Position:    position,
		Required:    required,
		ContentType: models.LessonTypeVideo,
		CreatedAt:   time.Now().UTC(),
	}

	if _, err := f.db.Collection("lessons").InsertOne(ctx, lesson); err != nil {
		f.t.Fatalf("failed to create test lesson: %v", err)
	}
	return lesson
}
