// internal/domain/models/lessontypes.go
package models

// Canonical lesson content type identifiers.
//
// These values are stored in the database in the Lesson.ContentType
// field and are used throughout the application as stable,
// language-agnostic keys. Human-facing labels should be provided via
// the presentation layer.
const (
	LessonTypeVideo       = "video"
	LessonTypePDF         = "pdf"
	LessonTypeQuiz        = "quiz"
	LessonTypeInteractive = "interactive"
	LessonTypeLink        = "link"
	LessonTypeLiveSession = "live_session"
)

// LessonTypes is the full set of allowed lesson content type
// identifiers. Any new type must be added here to be considered valid.
var LessonTypes = []string{
	LessonTypeVideo,
	LessonTypePDF,
	LessonTypeQuiz,
	LessonTypeInteractive,
	LessonTypeLink,
	LessonTypeLiveSession,
}

// DefaultLessonType is used when no specific type is provided.
const DefaultLessonType = LessonTypeVideo

// IsValidLessonType checks if a value is a valid lesson content type.
func IsValidLessonType(value string) bool {
	for _, t := range LessonTypes {
		if t == value {
			return true
		}
	}
	return false
}
