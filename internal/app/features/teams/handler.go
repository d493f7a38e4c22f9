// internal/app/features/teams/handler.go
package teams

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	membershipstore "github.com/dalemusser/trainhub/internal/app/store/memberships"
	teamstore "github.com/dalemusser/trainhub/internal/app/store/teams"
	userstore "github.com/dalemusser/trainhub/internal/app/store/users"
	"github.com/dalemusser/trainhub/internal/app/system/auditlog"
)

// Handler owns the team registry endpoints: team CRUD and lead/member
// roster management.
type Handler struct {
	Teams       *teamstore.Store
	Memberships *membershipstore.Store
	Users       *userstore.Store
	AuditLog    *auditlog.Logger
	Log         *zap.Logger
}

// NewHandler wires the teams handler from the shared database handle.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Teams:       teamstore.New(db),
		Memberships: membershipstore.New(db),
		Users:       userstore.New(db),
		AuditLog:    audit,
		Log:         logger,
	}
}
