// internal/app/system/limits/limits.go
package limits

// Request body size limits for various features.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxJSONBody is the default cap for JSON request bodies.
	MaxJSONBody = 1 << 20 // 1 MB

	// MaxLessonContentSize is the cap for lesson create/update payloads,
	// which may carry embedded quiz definitions and long descriptions.
	MaxLessonContentSize = 2 << 20 // 2 MB

	// MaxAnnouncementSize is the cap for announcement bodies after
	// sanitization; larger posts should link out instead.
	MaxAnnouncementSize = 512 << 10 // 512 KB
)
