// internal/app/features/activity/handler.go
package activity

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	activitystore "github.com/dalemusser/trainhub/internal/app/store/activity"
	membershipstore "github.com/dalemusser/trainhub/internal/app/store/memberships"
	userstore "github.com/dalemusser/trainhub/internal/app/store/users"
)

// Handler owns the activity feed endpoints.
type Handler struct {
	Activity    *activitystore.Store
	Users       *userstore.Store
	Memberships *membershipstore.Store
	Log         *zap.Logger
}

// NewHandler wires the activity handler from the shared database handle.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Activity:    activitystore.New(db),
		Users:       userstore.New(db),
		Memberships: membershipstore.New(db),
		Log:         logger,
	}
}
