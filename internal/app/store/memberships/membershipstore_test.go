package membershipstore_test

import (
	"testing"

	membershipstore "github.com/dalemusser/trainhub/internal/app/store/memberships"
	"github.com/dalemusser/trainhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_AddMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	team := fixtures.CreateTeam(ctx, "Parking Crew")
	user := fixtures.CreateDoorholder(ctx, "Test Doorholder", "dh@example.com")

	err := store.AddMember(ctx, team.ID, user.ID, nil)
	if err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	count, err := db.Collection("team_memberships").CountDocuments(ctx, bson.M{
		"team_id": team.ID,
		"user_id": user.ID,
		"role":    "member",
	})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 membership, got %d", count)
	}
}

func TestStore_AddLead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	team := fixtures.CreateTeam(ctx, "Kids Check-In")
	lead := fixtures.CreateTeamLead(ctx, "Test Lead", "lead@example.com")

	err := store.AddLead(ctx, team.ID, lead.ID, nil)
	if err != nil {
		t.Fatalf("AddLead failed: %v", err)
	}

	var membership struct {
		Role string `bson:"role"`
	}
	err = db.Collection("team_memberships").FindOne(ctx, bson.M{
		"team_id": team.ID,
		"user_id": lead.ID,
	}).Decode(&membership)
	if err != nil {
		t.Fatalf("FindOne failed: %v", err)
	}
	if membership.Role != "lead" {
		t.Errorf("Role: got %q, want %q", membership.Role, "lead")
	}
}

func TestStore_Add_LeadAndMemberRows(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	team := fixtures.CreateTeam(ctx, "Production")
	user := fixtures.CreateUser(ctx, "Serving Lead", "both@example.com", "team_lead", "doorholder")

	// The same user may hold both roles on one team, as two rows
	if err := store.AddLead(ctx, team.ID, user.ID, nil); err != nil {
		t.Fatalf("AddLead failed: %v", err)
	}
	if err := store.AddMember(ctx, team.ID, user.ID, nil); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	count, _ := db.Collection("team_memberships").CountDocuments(ctx, bson.M{
		"team_id": team.ID,
		"user_id": user.ID,
	})
	if count != 2 {
		t.Errorf("expected 2 rows (lead + member), got %d", count)
	}
}

func TestStore_Add_Duplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	team := fixtures.CreateTeam(ctx, "Greeters")
	user := fixtures.CreateDoorholder(ctx, "Test Doorholder", "dh@example.com")

	if err := store.AddMember(ctx, team.ID, user.ID, nil); err != nil {
		t.Fatalf("first AddMember failed: %v", err)
	}

	err := store.AddMember(ctx, team.ID, user.ID, nil)
	if err != membershipstore.ErrDuplicateMembership {
		t.Errorf("expected ErrDuplicateMembership, got %v", err)
	}
}

func TestStore_Add_TeamNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fixtures.CreateDoorholder(ctx, "Test Doorholder", "dh@example.com")

	err := store.AddMember(ctx, primitive.NewObjectID(), user.ID, nil)
	if err != membershipstore.ErrTeamNotFound {
		t.Errorf("expected ErrTeamNotFound, got %v", err)
	}
}

func TestStore_Add_UserNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	team := fixtures.CreateTeam(ctx, "Ushers")

	err := store.AddMember(ctx, team.ID, primitive.NewObjectID(), nil)
	if err != membershipstore.ErrUserNotFound {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestStore_RemoveMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	team := fixtures.CreateTeam(ctx, "Parking Crew")
	user := fixtures.CreateDoorholder(ctx, "Test Doorholder", "dh@example.com")

	if err := store.AddMember(ctx, team.ID, user.ID, nil); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if err := store.RemoveMember(ctx, team.ID, user.ID); err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}

	count, _ := db.Collection("team_memberships").CountDocuments(ctx, bson.M{
		"team_id": team.ID,
		"user_id": user.ID,
	})
	if count != 0 {
		t.Errorf("expected 0 memberships after remove, got %d", count)
	}
}

func TestStore_RemoveLead_KeepsMemberRow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	team := fixtures.CreateTeam(ctx, "Production")
	user := fixtures.CreateUser(ctx, "Serving Lead", "both@example.com", "team_lead", "doorholder")

	if err := store.AddLead(ctx, team.ID, user.ID, nil); err != nil {
		t.Fatalf("AddLead failed: %v", err)
	}
	if err := store.AddMember(ctx, team.ID, user.ID, nil); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	// Stepping down as lead keeps the serving membership
	if err := store.RemoveLead(ctx, team.ID, user.ID); err != nil {
		t.Fatalf("RemoveLead failed: %v", err)
	}

	isLead, err := store.IsLeadOf(ctx, user.ID, team.ID)
	if err != nil {
		t.Fatalf("IsLeadOf failed: %v", err)
	}
	if isLead {
		t.Error("expected user to no longer be a lead")
	}
	isMember, err := store.IsMemberOf(ctx, user.ID, team.ID)
	if err != nil {
		t.Fatalf("IsMemberOf failed: %v", err)
	}
	if !isMember {
		t.Error("expected member row to survive lead removal")
	}
}

func TestStore_Remove_NonExistent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Remove should not error even if membership doesn't exist
	err := store.RemoveMember(ctx, primitive.NewObjectID(), primitive.NewObjectID())
	if err != nil {
		t.Errorf("RemoveMember should not error for non-existent membership: %v", err)
	}
}

func TestStore_TeamsLedBy(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	team1 := fixtures.CreateTeam(ctx, "Team One")
	team2 := fixtures.CreateTeam(ctx, "Team Two")
	team3 := fixtures.CreateTeam(ctx, "Team Three")
	lead := fixtures.CreateTeamLead(ctx, "Multi Lead", "lead@example.com")

	if err := store.AddLead(ctx, team1.ID, lead.ID, nil); err != nil {
		t.Fatalf("AddLead failed: %v", err)
	}
	if err := store.AddLead(ctx, team2.ID, lead.ID, nil); err != nil {
		t.Fatalf("AddLead failed: %v", err)
	}
	// Serving member of team3, not a lead
	if err := store.AddMember(ctx, team3.ID, lead.ID, nil); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	led, err := store.TeamsLedBy(ctx, lead.ID)
	if err != nil {
		t.Fatalf("TeamsLedBy failed: %v", err)
	}
	if len(led) != 2 {
		t.Errorf("expected 2 led teams, got %d", len(led))
	}

	all, err := store.TeamsOf(ctx, lead.ID)
	if err != nil {
		t.Fatalf("TeamsOf failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 teams total, got %d", len(all))
	}
}

func TestStore_ListForTeam(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	team := fixtures.CreateTeam(ctx, "Roster Team")
	lead := fixtures.CreateTeamLead(ctx, "Lead", "lead@example.com")
	dh1 := fixtures.CreateDoorholder(ctx, "DH One", "dh1@example.com")
	dh2 := fixtures.CreateDoorholder(ctx, "DH Two", "dh2@example.com")

	if err := store.AddLead(ctx, team.ID, lead.ID, nil); err != nil {
		t.Fatalf("AddLead failed: %v", err)
	}
	if err := store.AddMember(ctx, team.ID, dh1.ID, nil); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if err := store.AddMember(ctx, team.ID, dh2.ID, nil); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	all, err := store.ListForTeam(ctx, team.ID, "")
	if err != nil {
		t.Fatalf("ListForTeam failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 rows, got %d", len(all))
	}

	leads, err := store.ListForTeam(ctx, team.ID, "lead")
	if err != nil {
		t.Fatalf("ListForTeam failed: %v", err)
	}
	if len(leads) != 1 {
		t.Errorf("expected 1 lead row, got %d", len(leads))
	}

	members, err := store.ListForTeam(ctx, team.ID, "member")
	if err != nil {
		t.Fatalf("ListForTeam failed: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("expected 2 member rows, got %d", len(members))
	}
}

func TestStore_AddBatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	team := fixtures.CreateTeam(ctx, "Batch Team")
	dh1 := fixtures.CreateDoorholder(ctx, "DH One", "dh1@example.com")
	dh2 := fixtures.CreateDoorholder(ctx, "DH Two", "dh2@example.com")
	lead := fixtures.CreateTeamLead(ctx, "Lead", "lead@example.com")

	entries := []membershipstore.MembershipEntry{
		{UserID: dh1.ID, Role: "member"},
		{UserID: dh2.ID, Role: "member"},
		{UserID: lead.ID, Role: "lead"},
	}

	result, err := store.AddBatch(ctx, team.ID, entries, nil)
	if err != nil {
		t.Fatalf("AddBatch failed: %v", err)
	}
	if result.Added != 3 {
		t.Errorf("Added: got %d, want 3", result.Added)
	}
	if result.Duplicates != 0 {
		t.Errorf("Duplicates: got %d, want 0", result.Duplicates)
	}

	count, _ := db.Collection("team_memberships").CountDocuments(ctx, bson.M{"team_id": team.ID})
	if count != 3 {
		t.Errorf("expected 3 memberships, got %d", count)
	}
}

func TestStore_AddBatch_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	team := fixtures.CreateTeam(ctx, "Empty Batch Team")

	result, err := store.AddBatch(ctx, team.ID, nil, nil)
	if err != nil {
		t.Fatalf("AddBatch failed: %v", err)
	}
	if result.Added != 0 {
		t.Errorf("Added: got %d, want 0", result.Added)
	}
}

func TestStore_AddBatch_WithDuplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	team := fixtures.CreateTeam(ctx, "Dup Batch Team")
	dh1 := fixtures.CreateDoorholder(ctx, "DH One", "dh1@example.com")
	dh2 := fixtures.CreateDoorholder(ctx, "DH Two", "dh2@example.com")

	if err := store.AddMember(ctx, team.ID, dh1.ID, nil); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	entries := []membershipstore.MembershipEntry{
		{UserID: dh1.ID, Role: "member"}, // duplicate
		{UserID: dh2.ID, Role: "member"}, // new
	}

	result, err := store.AddBatch(ctx, team.ID, entries, nil)
	if err != nil {
		t.Fatalf("AddBatch failed: %v", err)
	}
	if result.Added != 1 {
		t.Errorf("Added: got %d, want 1", result.Added)
	}
	if result.Duplicates != 1 {
		t.Errorf("Duplicates: got %d, want 1", result.Duplicates)
	}
}

func TestStore_AddBatch_InvalidRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	team := fixtures.CreateTeam(ctx, "Bad Role Team")
	dh := fixtures.CreateDoorholder(ctx, "DH", "dh@example.com")

	entries := []membershipstore.MembershipEntry{
		{UserID: dh.ID, Role: "captain"},
	}

	_, err := store.AddBatch(ctx, team.ID, entries, nil)
	if err == nil {
		t.Fatal("expected error for invalid role")
	}
}

func TestStore_DeleteByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	team1 := fixtures.CreateTeam(ctx, "Team One")
	team2 := fixtures.CreateTeam(ctx, "Team Two")
	user := fixtures.CreateUser(ctx, "Leaving User", "bye@example.com", "team_lead", "doorholder")

	if err := store.AddLead(ctx, team1.ID, user.ID, nil); err != nil {
		t.Fatalf("AddLead failed: %v", err)
	}
	if err := store.AddMember(ctx, team1.ID, user.ID, nil); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if err := store.AddMember(ctx, team2.ID, user.ID, nil); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	deleted, err := store.DeleteByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("DeleteByUser failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("expected 3 rows deleted, got %d", deleted)
	}
}

func TestStore_CountPerTeam(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	team1 := fixtures.CreateTeam(ctx, "Team One")
	team2 := fixtures.CreateTeam(ctx, "Team Two")
	dh1 := fixtures.CreateDoorholder(ctx, "DH One", "dh1@example.com")
	dh2 := fixtures.CreateDoorholder(ctx, "DH Two", "dh2@example.com")
	lead := fixtures.CreateTeamLead(ctx, "Lead", "lead@example.com")

	if err := store.AddMember(ctx, team1.ID, dh1.ID, nil); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if err := store.AddMember(ctx, team1.ID, dh2.ID, nil); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if err := store.AddLead(ctx, team1.ID, lead.ID, nil); err != nil {
		t.Fatalf("AddLead failed: %v", err)
	}
	if err := store.AddMember(ctx, team2.ID, dh1.ID, nil); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	counts, err := store.CountPerTeam(ctx, []primitive.ObjectID{team1.ID, team2.ID}, "member")
	if err != nil {
		t.Fatalf("CountPerTeam failed: %v", err)
	}
	if counts[team1.ID] != 2 {
		t.Errorf("team1 member count: got %d, want 2", counts[team1.ID])
	}
	if counts[team2.ID] != 1 {
		t.Errorf("team2 member count: got %d, want 1", counts[team2.ID])
	}
}
