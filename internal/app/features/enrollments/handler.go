// Package enrollments exposes the enrollment lifecycle over HTTP:
// enrolling users into courses, recording lesson views and assessment
// attempts, manual completion approval, and certificate overrides.
package enrollments

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/dalemusser/trainhub/internal/app/store/activity"
	coursestore "github.com/dalemusser/trainhub/internal/app/store/courses"
	enrollmentstore "github.com/dalemusser/trainhub/internal/app/store/enrollments"
	lessonstore "github.com/dalemusser/trainhub/internal/app/store/lessons"
	membershipstore "github.com/dalemusser/trainhub/internal/app/store/memberships"
	settingsstore "github.com/dalemusser/trainhub/internal/app/store/settings"
	userstore "github.com/dalemusser/trainhub/internal/app/store/users"
	"github.com/dalemusser/trainhub/internal/app/system/auditlog"
)

// Handler bundles the stores the enrollment endpoints need.
type Handler struct {
	Enrollments *enrollmentstore.Store
	Courses     *coursestore.Store
	Lessons     *lessonstore.Store
	Users       *userstore.Store
	Memberships *membershipstore.Store
	Settings    *settingsstore.Store
	Activity    *activity.Store
	AuditLog    *auditlog.Logger
	Log         *zap.Logger
}

// NewHandler wires an enrollment handler against the given database.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Enrollments: enrollmentstore.New(db),
		Courses:     coursestore.New(db),
		Lessons:     lessonstore.New(db),
		Users:       userstore.New(db),
		Memberships: membershipstore.New(db),
		Settings:    settingsstore.New(db),
		Activity:    activity.New(db),
		AuditLog:    audit,
		Log:         logger,
	}
}
