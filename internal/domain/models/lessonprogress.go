// internal/domain/models/lessonprogress.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LessonProgress records that an enrolled user viewed one lesson.
// At most one document per (enrollment_id, lesson_id); repeat views
// keep the first timestamp.
type LessonProgress struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EnrollmentID primitive.ObjectID `bson:"enrollment_id" json:"enrollment_id"`
	LessonID     primitive.ObjectID `bson:"lesson_id" json:"lesson_id"`
	ViewedAt     time.Time          `bson:"viewed_at" json:"viewed_at"`
}
