// internal/app/system/gates/actor.go
package gates

import (
	"net/http"

	membershipstore "github.com/dalemusser/trainhub/internal/app/store/memberships"
	"github.com/dalemusser/trainhub/internal/app/system/authz"
	"github.com/dalemusser/trainhub/internal/app/system/httpjson"
	"go.uber.org/zap"
)

// ResolveActor authenticates the request and loads the teams the user
// leads, producing the Actor value the policy layer runs against.
// Writes a 401 (or 500 on a lookup failure) and returns ok=false when
// no actor can be resolved. The membership lookup only runs for users
// holding the team_lead role.
func ResolveActor(w http.ResponseWriter, r *http.Request, ms *membershipstore.Store, log *zap.Logger) (authz.Actor, bool) {
	res := RequireAuth(w, r)
	if !res.OK {
		return authz.Actor{}, false
	}

	actor := authz.Actor{ID: res.UserID, Name: res.Name, Roles: res.Roles}
	if res.Has(authz.RoleTeamLead) && ms != nil {
		teamIDs, err := ms.TeamsLedBy(r.Context(), res.UserID)
		if err != nil {
			httpjson.Internal(w, log, "load led teams", err)
			return authz.Actor{}, false
		}
		actor.TeamsLed = teamIDs
	}
	return actor, true
}
