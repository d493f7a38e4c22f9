// internal/app/store/courses/coursestore.go
package courses

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/trainhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store manages the courses collection: the catalog of training
// courses, each carrying its completion policy and certificate config.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("courses")}
}

var (
	// ErrNotFound is returned when no course matches the given ID.
	ErrNotFound = errors.New("course not found")
	// ErrInvalidPolicy is returned for a completion policy that fails validation.
	ErrInvalidPolicy = errors.New("invalid completion policy")
	// ErrInvalidScope is returned for a scope/team combination that fails validation.
	ErrInvalidScope = errors.New("invalid course scope")
)

// ValidatePolicy checks a completion policy and certificate config for
// internal consistency. Assessment needs a passing score in (0,100];
// MaxAttempts below zero is meaningless; a non-expiring certificate
// must not carry a validity period and an expiring one must.
func ValidatePolicy(policy models.CompletionPolicy, cert models.CertificateConfig) error {
	if !models.IsValidPolicyKind(policy.Kind) {
		return ErrInvalidPolicy
	}
	if policy.Kind == models.PolicyAssessment {
		if policy.PassingScore <= 0 || policy.PassingScore > 100 {
			return ErrInvalidPolicy
		}
		if policy.MaxAttempts < 0 {
			return ErrInvalidPolicy
		}
	} else if policy.PassingScore != 0 || policy.MaxAttempts != 0 {
		return ErrInvalidPolicy
	}
	if cert.Enabled && cert.Expires && cert.ValidForDays <= 0 {
		return ErrInvalidPolicy
	}
	if !cert.Expires && cert.ValidForDays != 0 {
		return ErrInvalidPolicy
	}
	return nil
}

// Create inserts a new course after validating scope and policy. Scope,
// TeamID, Policy, and Certificate are fixed here for the life of the
// course; Update never touches them.
func (s *Store) Create(ctx context.Context, course models.Course) (models.Course, error) {
	if !models.IsValidCourseScope(course.Scope) {
		return models.Course{}, ErrInvalidScope
	}
	if course.Scope == models.CourseScopeTeam && course.TeamID == nil {
		return models.Course{}, ErrInvalidScope
	}
	if course.Scope == models.CourseScopeCampus && course.TeamID != nil {
		return models.Course{}, ErrInvalidScope
	}
	if err := ValidatePolicy(course.Policy, course.Certificate); err != nil {
		return models.Course{}, err
	}
	if course.SoftDeadlineDays < 0 || course.HardDeadlineDays < 0 {
		return models.Course{}, ErrInvalidScope
	}

	course.ID = primitive.NewObjectID()
	course.TitleCI = text.Fold(course.Title)
	course.Status = models.CourseStatusActive
	course.CreatedAt = time.Now().UTC()
	course.UpdatedAt = nil

	if _, err := s.c.InsertOne(ctx, course); err != nil {
		return models.Course{}, err
	}
	return course, nil
}

// GetByID loads a course by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Course, error) {
	var course models.Course
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&course); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Course{}, ErrNotFound
		}
		return models.Course{}, err
	}
	return course, nil
}

// GetByIDs loads multiple courses by their ObjectIDs.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Course
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update holds the course fields that stay editable after creation.
// Scope, owning team, and completion policy are immutable; changing
// them means creating a new course.
type Update struct {
	Title            string
	Description      string
	SoftDeadlineDays *int
	HardDeadlineDays *int
	Certificate      *models.CertificateConfig
}

// Update modifies a course's editable fields. Certificate config
// changes apply to future issuance only; already-issued certificates
// keep the expiry they were stamped with.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update, by primitive.ObjectID, byName string) error {
	now := time.Now().UTC()
	set := bson.M{
		"updated_at":      now,
		"updated_by_id":   by,
		"updated_by_name": byName,
	}
	if upd.Title != "" {
		set["title"] = upd.Title
		set["title_ci"] = text.Fold(upd.Title)
	}
	if upd.Description != "" {
		set["description"] = upd.Description
	}
	if upd.SoftDeadlineDays != nil {
		if *upd.SoftDeadlineDays < 0 {
			return ErrInvalidScope
		}
		set["soft_deadline_days"] = *upd.SoftDeadlineDays
	}
	if upd.HardDeadlineDays != nil {
		if *upd.HardDeadlineDays < 0 {
			return ErrInvalidScope
		}
		set["hard_deadline_days"] = *upd.HardDeadlineDays
	}
	if upd.Certificate != nil {
		if upd.Certificate.Enabled && upd.Certificate.Expires && upd.Certificate.ValidForDays <= 0 {
			return ErrInvalidPolicy
		}
		set["certificate"] = *upd.Certificate
	}

	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetActive archives or restores a course. An archived course stops
// accepting new enrollments; existing enrollments keep functioning.
func (s *Store) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	status := models.CourseStatusArchived
	if active {
		status = models.CourseStatusActive
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Find returns courses matching the given filter with optional find options.
// The caller is responsible for building the filter and options (pagination, sorting, projection).
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Course, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Course
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// VisibleFilter builds the catalog filter for a set of team IDs: all
// campus-wide courses plus courses owned by any of the given teams.
// Admins pass nil teamIDs with all=true to see everything.
func VisibleFilter(all bool, teamIDs []primitive.ObjectID, activeOnly bool) bson.M {
	filter := bson.M{}
	if activeOnly {
		filter["status"] = models.CourseStatusActive
	}
	if all {
		return filter
	}
	filter["$or"] = []bson.M{
		{"scope": models.CourseScopeCampus},
		{"team_id": bson.M{"$in": teamIDs}},
	}
	return filter
}

// Count returns the number of courses matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
