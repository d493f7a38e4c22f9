// internal/domain/models/assessmentattempt.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssessmentAttempt records one scored try at a course's assessment.
// Number is 1-based and strictly increasing per enrollment.
type AssessmentAttempt struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EnrollmentID primitive.ObjectID `bson:"enrollment_id" json:"enrollment_id"`
	UserID       primitive.ObjectID `bson:"user_id" json:"user_id"`
	CourseID     primitive.ObjectID `bson:"course_id" json:"course_id"`

	Number      int       `bson:"number" json:"number"`
	Score       int       `bson:"score" json:"score"` // 0..100
	Passed      bool      `bson:"passed" json:"passed"`
	SubmittedAt time.Time `bson:"submitted_at" json:"submitted_at"`
}
