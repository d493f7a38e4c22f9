// internal/domain/models/lesson.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Lesson is one step in a course's ordered sequence.
//
// Position is 1-based and unique within a course. Required lessons
// gate honor-policy completion; free lessons (Required=false) are
// supplemental and never block it.
type Lesson struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CourseID primitive.ObjectID `bson:"course_id" json:"course_id"`

	Title   string `bson:"title" json:"title"`
	TitleCI string `bson:"title_ci" json:"title_ci"`

	Position int  `bson:"position" json:"position"`
	Required bool `bson:"required" json:"required"`

	ContentType string `bson:"content_type" json:"content_type"` // see lessontypes.go
	ContentURL  string `bson:"content_url,omitempty" json:"content_url,omitempty"`
	Body        string `bson:"body,omitempty" json:"body,omitempty"` // sanitized HTML

	DurationMins int `bson:"duration_mins,omitempty" json:"duration_mins,omitempty"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}
