// internal/domain/models/enrollment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Enrollment statuses.
//
// Normal flow: not_started -> in_progress -> completed, with overdue as
// a reversible detour once the hard deadline passes. Revoked is reached
// only through an explicit certificate override.
const (
	EnrollmentNotStarted = "not_started"
	EnrollmentInProgress = "in_progress"
	EnrollmentCompleted  = "completed"
	EnrollmentOverdue    = "overdue"
	EnrollmentRevoked    = "revoked"
)

// How an enrollment reached Completed.
const (
	CompletionByHonor      = "honor"
	CompletionByAssessment = "assessment"
	CompletionByApproval   = "manual"
	CompletionByOverride   = "override"
)

// Enrollment ties one user to one course. At most one non-archived
// document exists per (user_id, course_id); the partial unique index
// enforces this across service instances.
type Enrollment struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID   primitive.ObjectID `bson:"user_id" json:"user_id"`
	CourseID primitive.ObjectID `bson:"course_id" json:"course_id"`

	// TeamID mirrors the course's owning team at enrollment time so
	// team-scoped reports never need a join back to courses.
	TeamID *primitive.ObjectID `bson:"team_id,omitempty" json:"team_id,omitempty"`

	Status string `bson:"status" json:"status"`

	EnrolledAt time.Time  `bson:"enrolled_at" json:"enrolled_at"`
	StartedAt  *time.Time `bson:"started_at,omitempty" json:"started_at,omitempty"`

	// Soft deadline is advisory only. Hard deadline flips the status to
	// overdue once passed without completion; it never blocks a later
	// completion.
	SoftDeadline *time.Time `bson:"soft_deadline,omitempty" json:"soft_deadline,omitempty"`
	HardDeadline *time.Time `bson:"hard_deadline,omitempty" json:"hard_deadline,omitempty"`

	CompletedAt      *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	CompletionMethod string     `bson:"completion_method,omitempty" json:"completion_method,omitempty"`

	AttemptCount int `bson:"attempt_count" json:"attempt_count"`

	CertificateID *primitive.ObjectID `bson:"certificate_id,omitempty" json:"certificate_id,omitempty"`

	// Archived is set when the enrolled user is deleted. Archived
	// enrollments are kept for audit and excluded from the uniqueness
	// constraint and from all active queries.
	Archived   bool       `bson:"archived" json:"archived"`
	ArchivedAt *time.Time `bson:"archived_at,omitempty" json:"archived_at,omitempty"`

	EnrolledByID   *primitive.ObjectID `bson:"enrolled_by_id,omitempty" json:"enrolled_by_id,omitempty"`
	EnrolledByName string              `bson:"enrolled_by_name,omitempty" json:"enrolled_by_name,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// EffectiveStatus returns the status as of now, accounting for a hard
// deadline that has passed but has not yet been persisted by the sweep.
// Completed and revoked enrollments are never reported overdue.
func (e *Enrollment) EffectiveStatus(now time.Time) string {
	if e.HardDeadline != nil && now.After(*e.HardDeadline) {
		switch e.Status {
		case EnrollmentNotStarted, EnrollmentInProgress:
			return EnrollmentOverdue
		}
	}
	return e.Status
}

// OverdueEligible reports whether the enrollment would be considered
// overdue at the given time if it is not completed first.
func (e *Enrollment) OverdueEligible(now time.Time) bool {
	return e.EffectiveStatus(now) == EnrollmentOverdue && e.Status != EnrollmentOverdue
}

// ValidTransition reports whether moving from one status to another is
// allowed in the normal (non-override) flow. Certificate overrides
// bypass this table: award forces completed and revoke forces revoked
// from any prior status.
func ValidTransition(from, to string) bool {
	switch from {
	case EnrollmentNotStarted:
		return to == EnrollmentInProgress || to == EnrollmentOverdue
	case EnrollmentInProgress:
		return to == EnrollmentCompleted || to == EnrollmentOverdue
	case EnrollmentOverdue:
		return to == EnrollmentCompleted
	}
	return false
}

// IsValidEnrollmentStatus checks if a value is a valid enrollment status.
func IsValidEnrollmentStatus(status string) bool {
	switch status {
	case EnrollmentNotStarted, EnrollmentInProgress, EnrollmentCompleted,
		EnrollmentOverdue, EnrollmentRevoked:
		return true
	}
	return false
}
