// Package dashboard serves the per-role landing data: system stats for
// admins, per-team progress for leads, and the personal training view
// for doorholders. One endpoint, shaped by the actor's primary role.
package dashboard

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/dalemusser/trainhub/internal/app/store/announcements"
	certstore "github.com/dalemusser/trainhub/internal/app/store/certificates"
	coursestore "github.com/dalemusser/trainhub/internal/app/store/courses"
	enrollmentstore "github.com/dalemusser/trainhub/internal/app/store/enrollments"
	membershipstore "github.com/dalemusser/trainhub/internal/app/store/memberships"
	teamstore "github.com/dalemusser/trainhub/internal/app/store/teams"
	userstore "github.com/dalemusser/trainhub/internal/app/store/users"
)

// Handler bundles the stores the dashboard reads from.
type Handler struct {
	DB            *mongo.Database
	Users         *userstore.Store
	Teams         *teamstore.Store
	Courses       *coursestore.Store
	Enrollments   *enrollmentstore.Store
	Certificates  *certstore.Store
	Memberships   *membershipstore.Store
	Announcements *announcements.Store
	Log           *zap.Logger
}

// NewHandler wires a dashboard handler against the given database.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:            db,
		Users:         userstore.New(db),
		Teams:         teamstore.New(db),
		Courses:       coursestore.New(db),
		Enrollments:   enrollmentstore.New(db),
		Certificates:  certstore.New(db),
		Memberships:   membershipstore.New(db),
		Announcements: announcements.New(db),
		Log:           logger,
	}
}
