// internal/app/system/authz/actor.go
package authz

import (
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Authorization failures surfaced by the policy layer. Handlers map
// these to 403 responses; SelfActionForbidden gets its own error code
// so clients can explain why the guard fired.
var (
	ErrPermissionDenied    = errors.New("permission denied")
	ErrSelfActionForbidden = errors.New("action not permitted on own account")
)

// Actor is the resolved identity an authorization decision runs
// against: who is acting, with which roles, leading which teams.
//
// TeamsLed is loaded once when the actor is resolved so policy checks
// stay pure functions over this value. An actor with no team_lead role
// always has an empty TeamsLed.
type Actor struct {
	ID       primitive.ObjectID
	Name     string
	Roles    []string
	TeamsLed []primitive.ObjectID
}

// Is reports whether the actor holds the given role.
func (a Actor) Is(role string) bool {
	return ContainsRole(a.Roles, role)
}

// IsSuperuser reports whether the actor holds the superuser role.
func (a Actor) IsSuperuser() bool {
	return a.Is(RoleSuperuser)
}

// IsAdmin reports whether the actor holds the admin role. This is the
// raw role check; precedence rules live in the policy packages.
func (a Actor) IsAdmin() bool {
	return a.Is(RoleAdmin)
}

// LeadsTeam reports whether teamID is among the teams the actor leads.
func (a Actor) LeadsTeam(teamID primitive.ObjectID) bool {
	for _, t := range a.TeamsLed {
		if t == teamID {
			return true
		}
	}
	return false
}

// IsSelf reports whether the given user is the actor.
func (a Actor) IsSelf(userID primitive.ObjectID) bool {
	return a.ID == userID
}

// ActorCtx resolves the acting user from the request context. The
// leads parameter supplies the teams the user leads; pass nil when the
// user has no team_lead role. Returns false when no valid user is
// signed in.
func ActorCtx(r *http.Request, leads []primitive.ObjectID) (Actor, bool) {
	roles, name, userID, ok := UserCtx(r)
	if !ok {
		return Actor{}, false
	}
	return Actor{ID: userID, Name: name, Roles: roles, TeamsLed: leads}, true
}
