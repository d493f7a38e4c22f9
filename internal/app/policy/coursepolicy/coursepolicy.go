// Package coursepolicy provides authorization policies for the course
// catalog.
//
// Authorization rules:
//   - Superusers and admins can create courses in any scope and manage
//     any course.
//   - Team leads can create and manage courses owned by teams they
//     lead; they cannot touch campus-wide courses.
//   - Doorholders can view active courses visible to them but never
//     manage courses.
package coursepolicy

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/trainhub/internal/app/system/authz"
	"github.com/dalemusser/trainhub/internal/domain/models"
)

// CanCreateCourse decides whether the actor may create a course with
// the given scope. teamID is the owning team for team-scoped courses
// and nil for campus-wide ones.
func CanCreateCourse(a authz.Actor, scope string, teamID *primitive.ObjectID) error {
	if a.IsSuperuser() || a.IsAdmin() {
		return nil
	}
	if scope == models.CourseScopeTeam && teamID != nil && a.LeadsTeam(*teamID) {
		return nil
	}
	return authz.ErrPermissionDenied
}

// CanManageCourse decides whether the actor may edit, archive, or
// manage the lessons of the given course.
func CanManageCourse(a authz.Actor, course *models.Course) error {
	if a.IsSuperuser() || a.IsAdmin() {
		return nil
	}
	if course.TeamScoped() && course.TeamID != nil && a.LeadsTeam(*course.TeamID) {
		return nil
	}
	return authz.ErrPermissionDenied
}

// CanViewCourse reports whether the actor may see the course at all.
// memberOf reports whether the actor belongs to the owning team of a
// team-scoped course. Campus courses are visible to every signed-in
// user; archived courses stay visible to whoever could manage them and
// to users already holding data in them (the caller checks that).
func CanViewCourse(a authz.Actor, course *models.Course, memberOf bool) bool {
	if a.IsSuperuser() || a.IsAdmin() {
		return true
	}
	if !course.TeamScoped() {
		return course.IsActive()
	}
	if course.TeamID != nil && a.LeadsTeam(*course.TeamID) {
		return true
	}
	return memberOf && course.IsActive()
}
