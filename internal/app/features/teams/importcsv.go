// internal/app/features/teams/importcsv.go
package teams

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dalemusser/trainhub/internal/app/policy/teampolicy"
	"github.com/dalemusser/trainhub/internal/app/store/audit"
	membershipstore "github.com/dalemusser/trainhub/internal/app/store/memberships"
	userstore "github.com/dalemusser/trainhub/internal/app/store/users"
	"github.com/dalemusser/trainhub/internal/app/system/csvutil"
	"github.com/dalemusser/trainhub/internal/app/system/httpjson"
	"github.com/dalemusser/trainhub/internal/app/system/timeouts"
	"github.com/dalemusser/trainhub/internal/domain/models"
)

// skippedRow reports a CSV row that passed validation but could not be
// placed on the team.
type skippedRow struct {
	Line   int    `json:"line"`
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// ServeImportRoster handles POST /api/v1/teams/{id}/members/import.
// The body is a CSV with columns full name, email. Every email must
// belong to an existing active account; unknown or deactivated
// addresses are reported back as skipped rather than failing the
// upload. Matched users are added as members.
func (h *Handler) ServeImportRoster(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	team, ok := h.teamFromURL(ctx, w, r)
	if !ok {
		return
	}
	if err := teampolicy.CanManageMembers(a, team.ID); err != nil {
		httpjson.AuthzError(w, err)
		return
	}

	body := http.MaxBytesReader(w, r.Body, csvutil.MaxUploadSize)
	defer body.Close()

	rows, rowErrs, err := csvutil.ScanRosterCSV(body)
	if err != nil {
		if errors.Is(err, csvutil.ErrTooManyRows) {
			httpjson.BadRequest(w, err.Error())
		} else {
			httpjson.BadRequest(w, "unreadable CSV body")
		}
		return
	}
	if len(rowErrs) > 0 {
		fields := make(map[string]string, len(rowErrs))
		for _, re := range rowErrs {
			fields["row "+strconv.Itoa(re.Line)] = re.Reason
		}
		httpjson.FieldErrors(w, "roster upload rejected: fix the listed rows and retry", fields)
		return
	}
	if len(rows) == 0 {
		httpjson.BadRequest(w, "CSV contains no roster rows")
		return
	}

	var (
		entries []membershipstore.MembershipEntry
		skipped []skippedRow
		seen    = make(map[string]bool, len(rows))
	)
	for _, row := range rows {
		if seen[row.Email] {
			skipped = append(skipped, skippedRow{Line: row.Line, Email: row.Email, Reason: "duplicate email in upload"})
			continue
		}
		seen[row.Email] = true

		user, err := h.Users.GetByEmail(ctx, row.Email)
		if err != nil {
			if errors.Is(err, userstore.ErrNotFound) {
				skipped = append(skipped, skippedRow{Line: row.Line, Email: row.Email, Reason: "no account with this email"})
				continue
			}
			httpjson.Internal(w, h.Log, "look up roster email", err)
			return
		}
		if !user.Active {
			skipped = append(skipped, skippedRow{Line: row.Line, Email: row.Email, Reason: "account is deactivated"})
			continue
		}
		entries = append(entries, membershipstore.MembershipEntry{
			UserID: user.ID,
			Role:   models.MembershipRoleMember,
		})
	}

	var result membershipstore.AddBatchResult
	if len(entries) > 0 {
		actorID := a.ID
		result, err = h.Memberships.AddBatch(ctx, team.ID, entries, &actorID)
		if err != nil {
			httpjson.Internal(w, h.Log, "import roster", err)
			return
		}
	}

	h.auditAdmin(r, audit.EventRosterImported, a, team.ID, nil, map[string]string{
		"rows":       strconv.Itoa(len(rows)),
		"added":      strconv.Itoa(result.Added),
		"duplicates": strconv.Itoa(result.Duplicates),
		"skipped":    strconv.Itoa(len(skipped)),
	})

	if skipped == nil {
		skipped = []skippedRow{}
	}
	httpjson.Respond(w, http.StatusOK, map[string]any{
		"added":      result.Added,
		"duplicates": result.Duplicates,
		"skipped":    skipped,
	})
}
