// internal/app/system/search/search.go
package search

import "strings"

// EmailPivotOK reports whether it’s safe & useful to pivot a paged search
// from name-based sorting to email-based sorting.
//
// We consider it safe to pivot when:
//   - The user is clearly searching by email (the query contains '@'), and
//   - The result set is constrained by the active filter. For listings that
//     live inside a team scope (e.g., the rosters a lead can see), we also
//     require that scope to keep the indexed path selective enough.
//
// Typical usage in team-scoped lists:
//
//	pivot := search.EmailPivotOK(query, active, len(teamIDs) > 0)
//	sortField := "full_name_ci"
//	if pivot {
//	    sortField = "email"
//	}
//
// For unscoped lists (e.g., the admin user directory), use EmailPivotGlobalOK.
//
//	pivot := search.EmailPivotGlobalOK(query, active)
func EmailPivotOK(search, active string, hasTeam bool) bool {
	qHasAt := strings.Contains(search, "@")
	activeFixed := equalsAnyFold(active, "true", "false")
	return qHasAt && activeFixed && hasTeam
}

// EmailPivotGlobalOK is a variant for global lists with no team constraint
// (e.g., the full user directory). Requires that the query looks like an
// email and the active filter is constrained, then pivots to sort by email.
func EmailPivotGlobalOK(search, active string) bool {
	qHasAt := strings.Contains(search, "@")
	activeFixed := equalsAnyFold(active, "true", "false")
	return qHasAt && activeFixed
}

func equalsAnyFold(s string, vals ...string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	for _, v := range vals {
		if s == strings.ToLower(v) {
			return true
		}
	}
	return false
}
