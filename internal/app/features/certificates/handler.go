// Package certificates exposes read-only certificate lookup: the
// scoped listing and the public-number lookup a lead uses to verify a
// doorholder's training.
package certificates

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	certstore "github.com/dalemusser/trainhub/internal/app/store/certificates"
	enrollmentstore "github.com/dalemusser/trainhub/internal/app/store/enrollments"
	membershipstore "github.com/dalemusser/trainhub/internal/app/store/memberships"
)

// Handler bundles the stores the certificate endpoints need.
type Handler struct {
	Certificates *certstore.Store
	Enrollments  *enrollmentstore.Store
	Memberships  *membershipstore.Store
	Log          *zap.Logger
}

// NewHandler wires a certificate handler against the given database.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Certificates: certstore.New(db),
		Enrollments:  enrollmentstore.New(db),
		Memberships:  membershipstore.New(db),
		Log:          logger,
	}
}
