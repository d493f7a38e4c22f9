// internal/app/features/announcements/handler.go
package announcements

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	announcementstore "github.com/dalemusser/trainhub/internal/app/store/announcements"
	membershipstore "github.com/dalemusser/trainhub/internal/app/store/memberships"
	"github.com/dalemusser/trainhub/internal/app/system/auditlog"
)

// Handler owns the announcement endpoints.
type Handler struct {
	Announcements *announcementstore.Store
	Memberships   *membershipstore.Store
	AuditLog      *auditlog.Logger
	Log           *zap.Logger
}

// NewHandler wires the announcements handler from the shared database handle.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Announcements: announcementstore.New(db),
		Memberships:   membershipstore.New(db),
		AuditLog:      audit,
		Log:           logger,
	}
}
