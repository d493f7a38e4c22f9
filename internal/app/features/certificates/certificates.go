// internal/app/features/certificates/certificates.go
package certificates

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dalemusser/trainhub/internal/app/policy/enrollmentpolicy"
	certstore "github.com/dalemusser/trainhub/internal/app/store/certificates"
	enrollmentstore "github.com/dalemusser/trainhub/internal/app/store/enrollments"
	"github.com/dalemusser/trainhub/internal/app/system/gates"
	"github.com/dalemusser/trainhub/internal/app/system/httpjson"
	"github.com/dalemusser/trainhub/internal/app/system/timeouts"
	"github.com/dalemusser/trainhub/internal/domain/models"
)

// certificateView is the wire shape: the stored row plus the lazily
// computed effective status, so a cert past its expiry reads expired
// even before the sweep persists it.
type certificateView struct {
	models.Certificate
	EffectiveStatus string `json:"effective_status"`
}

func viewOf(c models.Certificate, now time.Time) certificateView {
	return certificateView{Certificate: c, EffectiveStatus: c.EffectiveStatus(now)}
}

// ServeListCertificates handles GET /api/v1/certificates.
// Admins see everything; team leads see their own plus their team
// members'; doorholders see only their own. Optional filters: user_id,
// course_id.
func (h *Handler) ServeListCertificates(w http.ResponseWriter, r *http.Request) {
	a, ok := gates.ResolveActor(w, r, h.Memberships, h.Log)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	filter := bson.M{"archived": false}
	if !a.IsSuperuser() && !a.IsAdmin() {
		scope := []primitive.ObjectID{a.ID}
		if len(a.TeamsLed) > 0 {
			roster, err := h.Memberships.UsersInTeams(ctx, a.TeamsLed)
			if err != nil {
				httpjson.Internal(w, h.Log, "load team rosters", err)
				return
			}
			scope = append(scope, roster...)
		}
		filter["user_id"] = bson.M{"$in": scope}
	}

	q := r.URL.Query()
	if hex := q.Get("user_id"); hex != "" {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			httpjson.BadRequest(w, "invalid user_id")
			return
		}
		// Intersect with the visibility scope rather than replace it.
		if existing, scoped := filter["user_id"]; scoped {
			filter["$and"] = []bson.M{
				{"user_id": existing},
				{"user_id": id},
			}
			delete(filter, "user_id")
		} else {
			filter["user_id"] = id
		}
	}
	if hex := q.Get("course_id"); hex != "" {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			httpjson.BadRequest(w, "invalid course_id")
			return
		}
		filter["course_id"] = id
	}

	list, err := h.Certificates.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "issued_at", Value: -1}}))
	if err != nil {
		httpjson.Internal(w, h.Log, "list certificates", err)
		return
	}

	now := time.Now().UTC()
	views := make([]certificateView, 0, len(list))
	for _, c := range list {
		views = append(views, viewOf(c, now))
	}
	httpjson.Respond(w, http.StatusOK, map[string]any{"certificates": views})
}

// ServeGetCertificate handles GET /api/v1/certificates/{number}.
// Visibility follows the underlying enrollment: the holder, their
// leads, and admins.
func (h *Handler) ServeGetCertificate(w http.ResponseWriter, r *http.Request) {
	a, ok := gates.ResolveActor(w, r, h.Memberships, h.Log)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	cert, err := h.Certificates.GetByNumber(ctx, chi.URLParam(r, "number"))
	if err != nil {
		if errors.Is(err, certstore.ErrNotFound) {
			httpjson.NotFound(w, "certificate not found")
		} else {
			httpjson.Internal(w, h.Log, "load certificate", err)
		}
		return
	}

	e, err := h.Enrollments.GetByID(ctx, cert.EnrollmentID)
	if err != nil && !errors.Is(err, enrollmentstore.ErrNotFound) {
		httpjson.Internal(w, h.Log, "load enrollment", err)
		return
	}
	if err != nil || !enrollmentpolicy.CanViewEnrollment(a, &e) {
		// Hide existence from anyone outside the scope.
		httpjson.NotFound(w, "certificate not found")
		return
	}

	httpjson.Respond(w, http.StatusOK, viewOf(cert, time.Now().UTC()))
}
