// internal/app/features/settings/handler.go
package settings

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	settingsstore "github.com/dalemusser/trainhub/internal/app/store/settings"
	"github.com/dalemusser/trainhub/internal/app/system/auditlog"
)

// Handler owns the admin site-settings endpoints.
type Handler struct {
	Settings *settingsstore.Store
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

// NewHandler constructs a Handler bound to the given Mongo database.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Settings: settingsstore.New(db),
		AuditLog: audit,
		Log:      logger,
	}
}
