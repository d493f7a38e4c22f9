// Package gates provides authorization gate functions for HTTP handlers.
// Gates check authentication and authorization, writing JSON error
// responses when checks fail.
//
// # Three-Tier Authorization Pattern
//
// TrainHub uses a three-tier authorization approach:
//
//  1. Route-Level Middleware (auth.RequireSignedIn, auth.RequireRole)
//     Applied in routes.go files for coarse-grained access control.
//     Example: sm.RequireRole("admin") ensures all routes in a group require admin.
//     When middleware handles role checking, handlers don't need gates.
//
//  2. Handler-Level Gates (this package)
//     Used in handlers that need role checks WITHOUT route-level middleware,
//     or need different role requirements than the route group.
//     Gates write JSON errors and return user context (roles, name, userID).
//     Example: gates.RequireAdminOrTeamLead for a handler in a mixed-access route.
//
//  3. Policy Layer (internal/app/policy/*)
//     Used for resource-specific authorization requiring database lookups.
//     Example: teampolicy.CanManageRoster checks if user can manage a specific team.
//     Policies return errors - callers map them through httpjson.AuthzError.
//
// # When to Use Each Tier
//
// Use middleware when: All routes in a group have the same role requirements.
// Use gates when: Individual handlers need different role checks than the route.
// Use policies when: Authorization depends on the specific resource being accessed.
//
// # Avoiding Redundancy
//
// Don't use gates in handlers that are behind role-specific middleware.
// If routes.go has RequireRole("admin"), handlers don't need gates.RequireAdmin.
// Instead, use authz.UserCtx(r) to get user context without re-checking role.
package gates

import (
	"net/http"

	"github.com/dalemusser/trainhub/internal/app/system/authz"
	"github.com/dalemusser/trainhub/internal/app/system/httpjson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Result contains the result of an authorization gate check.
type Result struct {
	Roles  []string
	Name   string
	UserID primitive.ObjectID
	OK     bool
}

// Has reports whether the gate resolved a user holding the given role.
func (res Result) Has(role string) bool {
	return authz.ContainsRole(res.Roles, role)
}

// RequireAuth ensures a user is authenticated.
// If not authenticated, it writes a 401 and returns OK=false.
func RequireAuth(w http.ResponseWriter, r *http.Request) Result {
	roles, name, uid, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Unauthorized(w)
		return Result{OK: false}
	}
	return Result{Roles: roles, Name: name, UserID: uid, OK: true}
}

// RequireSuperuser ensures the user is authenticated and holds the
// superuser role. Writes 401/403 on failure.
func RequireSuperuser(w http.ResponseWriter, r *http.Request) Result {
	return RequireAnyRole(w, r, authz.RoleSuperuser)
}

// RequireAdmin ensures the user is authenticated and holds the admin
// or superuser role. Writes 401/403 on failure.
func RequireAdmin(w http.ResponseWriter, r *http.Request) Result {
	return RequireAnyRole(w, r, authz.RoleSuperuser, authz.RoleAdmin)
}

// RequireAdminOrTeamLead ensures the user is authenticated and holds
// the superuser, admin, or team_lead role. Writes 401/403 on failure.
// Which teams a lead may touch is a policy-layer question; this gate
// only establishes the role.
func RequireAdminOrTeamLead(w http.ResponseWriter, r *http.Request) Result {
	return RequireAnyRole(w, r, authz.RoleSuperuser, authz.RoleAdmin, authz.RoleTeamLead)
}

// RequireAnyRole ensures the user is authenticated and holds at least
// one of the specified roles. Writes 401 when unauthenticated and 403
// when the role set does not intersect allowedRoles.
func RequireAnyRole(w http.ResponseWriter, r *http.Request, allowedRoles ...string) Result {
	roles, name, uid, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Unauthorized(w)
		return Result{OK: false}
	}

	for _, allowed := range allowedRoles {
		if authz.ContainsRole(roles, allowed) {
			return Result{Roles: roles, Name: name, UserID: uid, OK: true}
		}
	}

	httpjson.Forbidden(w, "")
	return Result{OK: false}
}
