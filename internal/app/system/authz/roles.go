// internal/app/system/authz/roles.go
package authz

import "strings"

// Canonical role identifiers, ordered by priority. A user holds a set
// of these; the set is never empty.
const (
	RoleSuperuser  = "superuser"
	RoleAdmin      = "admin"
	RoleTeamLead   = "team_lead"
	RoleDoorholder = "doorholder"
)

// AllRoles lists every valid role from highest to lowest priority.
// Priority matters only for picking a primary role (default landing
// view); authorization always consults the full set.
var AllRoles = []string{
	RoleSuperuser,
	RoleAdmin,
	RoleTeamLead,
	RoleDoorholder,
}

// IsValidRole checks if a value is a recognized role identifier.
func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// NormalizeRoles lowercases, trims, de-duplicates, and drops unknown
// values. The result preserves priority order regardless of input
// order. Returns nil if nothing valid remains.
func NormalizeRoles(roles []string) []string {
	seen := make(map[string]bool, len(roles))
	for _, r := range roles {
		r = strings.ToLower(strings.TrimSpace(r))
		if IsValidRole(r) {
			seen[r] = true
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for _, r := range AllRoles {
		if seen[r] {
			out = append(out, r)
		}
	}
	return out
}

// PrimaryRole returns the highest-priority role in the set, or "" for
// an empty set. Used for default-view routing only, never for
// authorization decisions.
func PrimaryRole(roles []string) string {
	best := len(AllRoles)
	for _, r := range roles {
		for i, known := range AllRoles {
			if r == known && i < best {
				best = i
			}
		}
	}
	if best == len(AllRoles) {
		return ""
	}
	return AllRoles[best]
}

// ContainsRole reports whether the set contains the given role.
func ContainsRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
