// internal/app/features/settings/admin.go
package settings

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/trainhub/internal/app/store/audit"
	"github.com/dalemusser/trainhub/internal/app/system/auditlog"
	"github.com/dalemusser/trainhub/internal/app/system/authutil"
	"github.com/dalemusser/trainhub/internal/app/system/gates"
	"github.com/dalemusser/trainhub/internal/app/system/httpjson"
	"github.com/dalemusser/trainhub/internal/app/system/limits"
	"github.com/dalemusser/trainhub/internal/app/system/normalize"
	"github.com/dalemusser/trainhub/internal/app/system/timeouts"
	"github.com/dalemusser/trainhub/internal/app/system/timezones"
	"github.com/dalemusser/trainhub/internal/domain/models"
)

// ServeGetSettings handles GET /api/v1/settings.
func (h *Handler) ServeGetSettings(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	settings, err := h.Settings.Get(ctx)
	if err != nil {
		httpjson.Internal(w, h.Log, "load settings", err)
		return
	}
	httpjson.Respond(w, http.StatusOK, settings)
}

type saveRequest struct {
	SiteName                string `json:"site_name"`
	SupportEmail            string `json:"support_email"`
	Timezone                string `json:"timezone"`
	DefaultSoftDeadlineDays int    `json:"default_soft_deadline_days"`
	DefaultHardDeadlineDays int    `json:"default_hard_deadline_days"`
	ActivityRetentionDays   int    `json:"activity_retention_days"`
	InviteTTLHours          int    `json:"invite_ttl_hours"`
}

func (req *saveRequest) validate() map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(req.SiteName) == "" {
		fields["site_name"] = "required"
	}
	if req.SupportEmail != "" {
		if err := authutil.ValidateEmail(req.SupportEmail); err != nil {
			fields["support_email"] = "invalid"
		}
	}
	if req.Timezone != "" && !timezones.Valid(req.Timezone) {
		fields["timezone"] = "unknown timezone"
	}
	if req.DefaultSoftDeadlineDays < 0 {
		fields["default_soft_deadline_days"] = "must not be negative"
	}
	if req.DefaultHardDeadlineDays < 0 {
		fields["default_hard_deadline_days"] = "must not be negative"
	}
	if req.DefaultSoftDeadlineDays > 0 && req.DefaultHardDeadlineDays > 0 &&
		req.DefaultSoftDeadlineDays > req.DefaultHardDeadlineDays {
		fields["default_soft_deadline_days"] = "must not exceed the hard deadline"
	}
	if req.ActivityRetentionDays < 0 {
		fields["activity_retention_days"] = "must not be negative"
	}
	if req.InviteTTLHours <= 0 {
		fields["invite_ttl_hours"] = "must be positive"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// ServeSaveSettings handles PUT /api/v1/settings.
// Full replacement of the singleton; the change is audit logged with
// the actor and the new values.
func (h *Handler) ServeSaveSettings(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r)
	if !res.OK {
		return
	}

	var req saveRequest
	if err := httpjson.Decode(r, &req, limits.MaxJSONBody); err != nil {
		httpjson.BadRequest(w, "malformed JSON body")
		return
	}
	if fields := req.validate(); fields != nil {
		httpjson.FieldErrors(w, "invalid settings", fields)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	actorID := res.UserID
	settings := models.SiteSettings{
		SiteName:                strings.TrimSpace(req.SiteName),
		SupportEmail:            normalize.Email(req.SupportEmail),
		Timezone:                req.Timezone,
		DefaultSoftDeadlineDays: req.DefaultSoftDeadlineDays,
		DefaultHardDeadlineDays: req.DefaultHardDeadlineDays,
		ActivityRetentionDays:   req.ActivityRetentionDays,
		InviteTTLHours:          req.InviteTTLHours,
		UpdatedByID:             &actorID,
		UpdatedByName:           res.Name,
	}
	if err := h.Settings.Save(ctx, settings); err != nil {
		httpjson.Internal(w, h.Log, "save settings", err)
		return
	}

	h.AuditLog.Admin(r.Context(), r, auditlog.AdminAction{
		EventType: audit.EventSettingsUpdated,
		ActorID:   res.UserID,
		Details: map[string]string{
			"site_name":        settings.SiteName,
			"soft_days":        strconv.Itoa(settings.DefaultSoftDeadlineDays),
			"hard_days":        strconv.Itoa(settings.DefaultHardDeadlineDays),
			"retention_days":   strconv.Itoa(settings.ActivityRetentionDays),
			"invite_ttl_hours": strconv.Itoa(settings.InviteTTLHours),
		},
	})

	saved, err := h.Settings.Get(ctx)
	if err != nil {
		httpjson.Internal(w, h.Log, "reload settings", err)
		return
	}
	httpjson.Respond(w, http.StatusOK, saved)
}
