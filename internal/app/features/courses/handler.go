// internal/app/features/courses/handler.go
package courses

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	coursestore "github.com/dalemusser/trainhub/internal/app/store/courses"
	"github.com/dalemusser/trainhub/internal/app/store/lessons"
	membershipstore "github.com/dalemusser/trainhub/internal/app/store/memberships"
	"github.com/dalemusser/trainhub/internal/app/system/auditlog"
)

// Handler owns the course catalog endpoints: course CRUD, lesson
// management, and archiving.
type Handler struct {
	Courses     *coursestore.Store
	Lessons     *lessons.Store
	Memberships *membershipstore.Store
	AuditLog    *auditlog.Logger
	Log         *zap.Logger
}

// NewHandler wires the courses handler from the shared database handle.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Courses:     coursestore.New(db),
		Lessons:     lessons.New(db),
		Memberships: membershipstore.New(db),
		AuditLog:    audit,
		Log:         logger,
	}
}
