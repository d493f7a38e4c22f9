// Package enrollmentpolicy provides authorization policies for the
// enrollment lifecycle: enrolling, recording progress, manual
// completion approval, and certificate overrides.
//
// Authorization rules:
//   - Superusers and admins can act on any enrollment, except that
//     only a superuser may override an enrollment belonging to a
//     superuser.
//   - Team leads can view and approve enrollments in courses owned by
//     teams they lead.
//   - Doorholders act only on their own enrollments, and progress is
//     always recorded by the learner themselves.
package enrollmentpolicy

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/trainhub/internal/app/system/authz"
	"github.com/dalemusser/trainhub/internal/domain/models"
)

// leadsEnrollmentTeam reports whether the enrollment's course belongs
// to a team the actor leads. The team is mirrored onto the enrollment
// at creation time.
func leadsEnrollmentTeam(a authz.Actor, e *models.Enrollment) bool {
	return e.TeamID != nil && a.LeadsTeam(*e.TeamID)
}

// CanEnroll decides whether the actor may enroll the given user in the
// given course. Users enroll themselves in courses visible to them;
// admins and superusers enroll anyone; a team lead enrolls users into
// courses owned by teams they lead.
func CanEnroll(a authz.Actor, userID primitive.ObjectID, course *models.Course) error {
	if a.IsSuperuser() || a.IsAdmin() {
		return nil
	}
	if a.IsSelf(userID) {
		return nil
	}
	if course.TeamScoped() && course.TeamID != nil && a.LeadsTeam(*course.TeamID) {
		return nil
	}
	return authz.ErrPermissionDenied
}

// CanViewEnrollment reports whether the actor may read the enrollment
// and its progress detail.
func CanViewEnrollment(a authz.Actor, e *models.Enrollment) bool {
	if a.IsSuperuser() || a.IsAdmin() {
		return true
	}
	if a.IsSelf(e.UserID) {
		return true
	}
	return leadsEnrollmentTeam(a, e)
}

// CanRecordProgress decides whether the actor may record a lesson view
// or assessment attempt on the enrollment. Progress belongs to the
// learner: nobody records it on another user's behalf, whatever their
// role. Overrides go through CanOverride instead.
func CanRecordProgress(a authz.Actor, e *models.Enrollment) error {
	if a.IsSelf(e.UserID) {
		return nil
	}
	return authz.ErrPermissionDenied
}

// CanApprove decides whether the actor may approve completion of a
// manual-approval enrollment. Leads approve within their teams; the
// learner never approves their own enrollment.
func CanApprove(a authz.Actor, e *models.Enrollment) error {
	if a.IsSelf(e.UserID) {
		return authz.ErrSelfActionForbidden
	}
	if a.IsSuperuser() || a.IsAdmin() {
		return nil
	}
	if leadsEnrollmentTeam(a, e) {
		return nil
	}
	return authz.ErrPermissionDenied
}

// CanOverride decides whether the actor may apply a certificate
// override (award, revoke, extend) to the enrollment. Overrides are a
// superuser/admin power; an admin may not override an enrollment held
// by a superuser, and nobody overrides their own records.
//
// ownerSuperuser marks enrollments whose user holds the superuser role.
func CanOverride(a authz.Actor, e *models.Enrollment, ownerSuperuser bool) error {
	if a.IsSelf(e.UserID) {
		return authz.ErrSelfActionForbidden
	}
	if a.IsSuperuser() {
		return nil
	}
	if a.IsAdmin() {
		if ownerSuperuser {
			return authz.ErrPermissionDenied
		}
		return nil
	}
	return authz.ErrPermissionDenied
}
