// internal/app/system/normalize/normalize.go
//
// Package normalize contains the canonical trims and case folds applied
// to user-supplied strings before they are validated, stored, or used
// in queries. Every write path and every query filter goes through
// these helpers so the database never sees two spellings of the same
// value.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// Name trims a display name, preserving case.
func Name(v string) string {
	return strings.TrimSpace(v)
}

// AuthMethod lowercases and trims an auth method value.
func AuthMethod(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// Status lowercases and trims a status value.
func Status(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// Role lowercases and trims a role value.
func Role(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// Roles applies Role to each element, dropping empties.
func Roles(vs []string) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if r := Role(v); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// QueryParam trims a free-text query parameter, preserving case.
func QueryParam(v string) string {
	return strings.TrimSpace(v)
}

// TeamID trims a team filter parameter. The sentinel "all" (any case)
// converts to empty, meaning no team filter.
func TeamID(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "all") {
		return ""
	}
	return v
}
