// internal/app/features/users/handler.go
package users

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/dalemusser/trainhub/internal/app/store/certificates"
	"github.com/dalemusser/trainhub/internal/app/store/enrollments"
	"github.com/dalemusser/trainhub/internal/app/store/invites"
	membershipstore "github.com/dalemusser/trainhub/internal/app/store/memberships"
	"github.com/dalemusser/trainhub/internal/app/store/sessions"
	settingsstore "github.com/dalemusser/trainhub/internal/app/store/settings"
	userstore "github.com/dalemusser/trainhub/internal/app/store/users"
	"github.com/dalemusser/trainhub/internal/app/system/auditlog"
	"github.com/dalemusser/trainhub/internal/app/system/mailer"
)

// Handler owns the user administration endpoints: listing, creation,
// profile edits, role grants, activation, deletion, and invites.
type Handler struct {
	DB           *mongo.Database
	Users        *userstore.Store
	Memberships  *membershipstore.Store
	Enrollments  *enrollments.Store
	Certificates *certificates.Store
	Invites      *invites.Store
	Settings     *settingsstore.Store
	Sessions     *sessions.Store
	AuditLog     *auditlog.Logger
	Log          *zap.Logger

	// Mail and BaseURL are set by the bootstrap layer. When Mail is
	// nil, invites are created without sending an email; the token in
	// the response is the only delivery channel.
	Mail    *mailer.Mailer
	BaseURL string
}

// NewHandler wires the users handler from the shared database handle.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:           db,
		Users:        userstore.New(db),
		Memberships:  membershipstore.New(db),
		Enrollments:  enrollments.New(db),
		Certificates: certificates.New(db),
		Invites:      invites.New(db),
		Settings:     settingsstore.New(db),
		Sessions:     sessions.New(db),
		AuditLog:     audit,
		Log:          logger,
	}
}
