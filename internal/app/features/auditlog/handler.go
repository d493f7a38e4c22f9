// internal/app/features/auditlog/handler.go
package auditlog

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/dalemusser/trainhub/internal/app/store/audit"
	membershipstore "github.com/dalemusser/trainhub/internal/app/store/memberships"
)

// Handler owns the audit trail endpoints.
type Handler struct {
	Audit       *audit.Store
	Memberships *membershipstore.Store
	Log         *zap.Logger
}

// NewHandler wires the audit trail handler from the shared database handle.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Audit:       audit.New(db),
		Memberships: membershipstore.New(db),
		Log:         logger,
	}
}
