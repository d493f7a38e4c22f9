package userpolicy_test

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/trainhub/internal/app/policy/userpolicy"
	"github.com/dalemusser/trainhub/internal/app/system/authz"
)

func actor(roles []string, leads ...primitive.ObjectID) authz.Actor {
	return authz.Actor{ID: primitive.NewObjectID(), Roles: roles, TeamsLed: leads}
}

func TestCanCreateUser(t *testing.T) {
	if !userpolicy.CanCreateUser(actor([]string{authz.RoleAdmin})) {
		t.Error("admin should be able to create users")
	}
	if !userpolicy.CanCreateUser(actor([]string{authz.RoleSuperuser})) {
		t.Error("superuser should be able to create users")
	}
	if userpolicy.CanCreateUser(actor([]string{authz.RoleTeamLead})) {
		t.Error("team lead should not be able to create users")
	}
	if userpolicy.CanCreateUser(actor([]string{authz.RoleDoorholder})) {
		t.Error("doorholder should not be able to create users")
	}
}

func TestCanViewUser(t *testing.T) {
	team := primitive.NewObjectID()
	target := primitive.NewObjectID()

	if !userpolicy.CanViewUser(actor([]string{authz.RoleAdmin}), target, nil) {
		t.Error("admin should view any user")
	}

	lead := actor([]string{authz.RoleTeamLead}, team)
	if !userpolicy.CanViewUser(lead, target, []primitive.ObjectID{team}) {
		t.Error("lead should view members of teams they lead")
	}
	if userpolicy.CanViewUser(lead, target, []primitive.ObjectID{primitive.NewObjectID()}) {
		t.Error("lead should not view users outside their teams")
	}

	dh := actor([]string{authz.RoleDoorholder})
	if !userpolicy.CanViewUser(dh, dh.ID, nil) {
		t.Error("doorholder should view own profile")
	}
	if userpolicy.CanViewUser(dh, target, nil) {
		t.Error("doorholder should not view other users")
	}
}

func TestCanManageUser(t *testing.T) {
	admin := actor([]string{authz.RoleAdmin})
	su := actor([]string{authz.RoleSuperuser})
	target := primitive.NewObjectID()

	if err := userpolicy.CanManageUser(admin, target, false, false); err != nil {
		t.Errorf("admin managing ordinary user: %v", err)
	}
	if err := userpolicy.CanManageUser(admin, target, true, false); !errors.Is(err, authz.ErrPermissionDenied) {
		t.Errorf("admin managing superuser target = %v, want ErrPermissionDenied", err)
	}
	if err := userpolicy.CanManageUser(su, target, true, false); err != nil {
		t.Errorf("superuser managing superuser target: %v", err)
	}
	if err := userpolicy.CanManageUser(actor([]string{authz.RoleTeamLead}), target, false, false); !errors.Is(err, authz.ErrPermissionDenied) {
		t.Errorf("team lead managing user = %v, want ErrPermissionDenied", err)
	}
}

func TestCanManageUserSelfGuard(t *testing.T) {
	su := actor([]string{authz.RoleSuperuser})

	if err := userpolicy.CanManageUser(su, su.ID, true, true); !errors.Is(err, authz.ErrSelfActionForbidden) {
		t.Errorf("guarded self-action = %v, want ErrSelfActionForbidden", err)
	}
	// Plain profile edits on oneself are fine.
	if err := userpolicy.CanManageUser(su, su.ID, true, false); err != nil {
		t.Errorf("unguarded self edit: %v", err)
	}
}

func TestCanListUsers(t *testing.T) {
	if !userpolicy.CanListUsers(actor([]string{authz.RoleAdmin})) {
		t.Error("admin should list users")
	}
	if !userpolicy.CanListUsers(actor([]string{authz.RoleTeamLead}, primitive.NewObjectID())) {
		t.Error("lead with a team should list users")
	}
	if userpolicy.CanListUsers(actor([]string{authz.RoleTeamLead})) {
		t.Error("lead without teams should not list users")
	}
	if userpolicy.CanListUsers(actor([]string{authz.RoleDoorholder})) {
		t.Error("doorholder should not list users")
	}
}
