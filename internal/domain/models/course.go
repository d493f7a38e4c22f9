// internal/domain/models/course.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Course scopes. Scope is fixed at creation; a team-owned course is
// never reassigned to a different team or widened to campus.
const (
	CourseScopeCampus = "campus"
	CourseScopeTeam   = "team"
)

// Course statuses.
const (
	CourseStatusActive   = "active"
	CourseStatusArchived = "archived"
)

// Completion policy kinds. Exactly one governs how an enrollment
// reaches Completed; fixed at course creation.
const (
	PolicyHonor      = "honor"
	PolicyAssessment = "assessment"
	PolicyManual     = "manual"
)

// CompletionPolicy describes how an enrollment in this course completes.
//
// PassingScore and MaxAttempts are meaningful only for the assessment
// kind. MaxAttempts of zero means unlimited retries.
type CompletionPolicy struct {
	Kind         string `bson:"kind" json:"kind"` // honor | assessment | manual
	PassingScore int    `bson:"passing_score,omitempty" json:"passing_score,omitempty"`
	MaxAttempts  int    `bson:"max_attempts,omitempty" json:"max_attempts,omitempty"`
}

// CertificateConfig controls whether completing the course issues a
// certificate and whether that certificate expires.
//
// The config is read at issuance time only. Editing it later never
// touches certificates that were already issued.
type CertificateConfig struct {
	Enabled      bool `bson:"enabled" json:"enabled"`
	Expires      bool `bson:"expires" json:"expires"`
	ValidForDays int  `bson:"valid_for_days,omitempty" json:"valid_for_days,omitempty"`
}

// ValidFor returns the certificate lifetime as a duration.
func (cc CertificateConfig) ValidFor() time.Duration {
	return time.Duration(cc.ValidForDays) * 24 * time.Hour
}

// Course represents a training course: an ordered sequence of lessons
// plus the policy that decides when an enrollment counts as complete.
type Course struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title   string             `bson:"title" json:"title"`
	TitleCI string             `bson:"title_ci" json:"title_ci"` // lowercase, diacritics-stripped

	Description string `bson:"description,omitempty" json:"description,omitempty"`

	Scope  string              `bson:"scope" json:"scope"`                       // campus | team
	TeamID *primitive.ObjectID `bson:"team_id,omitempty" json:"team_id,omitempty"` // set iff scope == team

	Policy      CompletionPolicy  `bson:"policy" json:"policy"`
	Certificate CertificateConfig `bson:"certificate" json:"certificate"`

	Status string `bson:"status" json:"status"` // active | archived

	// Default deadline offsets in days, applied when an enrollment is
	// created without explicit deadlines. Zero means no deadline.
	SoftDeadlineDays int `bson:"soft_deadline_days,omitempty" json:"soft_deadline_days,omitempty"`
	HardDeadlineDays int `bson:"hard_deadline_days,omitempty" json:"hard_deadline_days,omitempty"`

	// OwnerID is the admin or team lead who created the course and
	// controls its policy.
	OwnerID   primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	OwnerName string             `bson:"owner_name,omitempty" json:"owner_name,omitempty"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`

	UpdatedByID   *primitive.ObjectID `bson:"updated_by_id,omitempty" json:"updated_by_id,omitempty"`
	UpdatedByName string              `bson:"updated_by_name,omitempty" json:"updated_by_name,omitempty"`
}

// TeamScoped returns true if the course is owned by a single team.
func (c *Course) TeamScoped() bool {
	return c.Scope == CourseScopeTeam
}

// IsActive returns true if the course accepts new enrollments.
func (c *Course) IsActive() bool {
	return c.Status == CourseStatusActive
}

// IsValidPolicyKind checks if a value is a valid completion policy kind.
func IsValidPolicyKind(kind string) bool {
	switch kind {
	case PolicyHonor, PolicyAssessment, PolicyManual:
		return true
	}
	return false
}

// IsValidCourseScope checks if a value is a valid course scope.
func IsValidCourseScope(scope string) bool {
	return scope == CourseScopeCampus || scope == CourseScopeTeam
}
