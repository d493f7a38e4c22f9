// internal/app/store/memberships/membershipstore.go
package membershipstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/trainhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store manages the team_memberships join collection. Lead and member
// rows are independent documents; a user serving and leading the same
// team holds two rows.
type Store struct {
	c     *mongo.Collection
	users *mongo.Collection
	teams *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:     db.Collection("team_memberships"),
		users: db.Collection("users"),
		teams: db.Collection("teams"),
	}
}

var (
	errBadRole = errors.New(`membership role must be "lead" or "member"`)

	// ErrDuplicateMembership is returned when the (team, user, role) row already exists.
	ErrDuplicateMembership = errors.New("user already holds this role on the team")
	// ErrUserNotFound is returned when the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrTeamNotFound is returned when the referenced team does not exist.
	ErrTeamNotFound = errors.New("team not found")
)

// AddLead records userID as a lead of teamID.
func (s *Store) AddLead(ctx context.Context, teamID, userID primitive.ObjectID, addedBy *primitive.ObjectID) error {
	return s.add(ctx, teamID, userID, models.MembershipRoleLead, addedBy)
}

// AddMember records userID as a serving member of teamID.
func (s *Store) AddMember(ctx context.Context, teamID, userID primitive.ObjectID, addedBy *primitive.ObjectID) error {
	return s.add(ctx, teamID, userID, models.MembershipRoleMember, addedBy)
}

// add creates a membership row after verifying both sides exist.
func (s *Store) add(ctx context.Context, teamID, userID primitive.ObjectID, role string, addedBy *primitive.ObjectID) error {
	if !models.IsValidMembershipRole(role) {
		return errBadRole
	}

	if err := s.teams.FindOne(ctx, bson.M{"_id": teamID}).Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrTeamNotFound
		}
		return err
	}
	if err := s.users.FindOne(ctx, bson.M{"_id": userID}).Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrUserNotFound
		}
		return err
	}

	doc := bson.M{
		"team_id":    teamID,
		"user_id":    userID,
		"role":       role,
		"created_at": time.Now().UTC(),
	}
	if addedBy != nil {
		doc["added_by_id"] = *addedBy
	}
	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateMembership
		}
		return err
	}
	return nil
}

// RemoveLead deletes the lead row for (teamID, userID). A team may end
// up with zero leads; that is allowed.
func (s *Store) RemoveLead(ctx context.Context, teamID, userID primitive.ObjectID) error {
	return s.remove(ctx, teamID, userID, models.MembershipRoleLead)
}

// RemoveMember deletes the member row for (teamID, userID).
func (s *Store) RemoveMember(ctx context.Context, teamID, userID primitive.ObjectID) error {
	return s.remove(ctx, teamID, userID, models.MembershipRoleMember)
}

func (s *Store) remove(ctx context.Context, teamID, userID primitive.ObjectID, role string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"team_id": teamID, "user_id": userID, "role": role})
	return err
}

// MembershipEntry represents a user to add to a team.
type MembershipEntry struct {
	UserID primitive.ObjectID
	Role   string // "lead" or "member"
}

// AddBatchResult contains counts from a batch membership add operation.
type AddBatchResult struct {
	Added      int
	Duplicates int
}

// AddBatch adds multiple memberships in one unordered bulk insert.
// Callers verify the users exist beforehand; this skips per-row
// lookups. Duplicates are counted, not treated as errors.
func (s *Store) AddBatch(ctx context.Context, teamID primitive.ObjectID, entries []MembershipEntry, addedBy *primitive.ObjectID) (AddBatchResult, error) {
	if len(entries) == 0 {
		return AddBatchResult{}, nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		if !models.IsValidMembershipRole(e.Role) {
			return AddBatchResult{}, errBadRole
		}
		doc := bson.M{
			"team_id":    teamID,
			"user_id":    e.UserID,
			"role":       e.Role,
			"created_at": now,
		}
		if addedBy != nil {
			doc["added_by_id"] = *addedBy
		}
		docs = append(docs, doc)
	}

	// ordered:false so every insert is attempted even when some rows
	// collide with existing memberships
	opts := options.InsertMany().SetOrdered(false)
	result, err := s.c.InsertMany(ctx, docs, opts)

	added := 0
	if result != nil {
		added = len(result.InsertedIDs)
	}
	duplicates := len(entries) - added

	// InsertMany with ordered:false surfaces duplicate keys as a
	// BulkWriteException. Duplicates are expected; anything else is not.
	if err != nil {
		if bulkErr, ok := err.(mongo.BulkWriteException); ok {
			for _, we := range bulkErr.WriteErrors {
				if we.Code != 11000 {
					return AddBatchResult{Added: added, Duplicates: duplicates}, err
				}
			}
			return AddBatchResult{Added: added, Duplicates: duplicates}, nil
		}
		return AddBatchResult{Added: added, Duplicates: duplicates}, err
	}

	return AddBatchResult{Added: added, Duplicates: duplicates}, nil
}

// IsLeadOf reports whether userID holds a lead row on teamID.
func (s *Store) IsLeadOf(ctx context.Context, userID, teamID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"team_id": teamID,
		"user_id": userID,
		"role":    models.MembershipRoleLead,
	}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsMemberOf reports whether userID holds any row on teamID.
func (s *Store) IsMemberOf(ctx context.Context, userID, teamID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"team_id": teamID, "user_id": userID}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// TeamsLedBy returns the IDs of every team the user leads. This feeds
// the per-request authorization scope for team leads.
func (s *Store) TeamsLedBy(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.teamIDs(ctx, bson.M{"user_id": userID, "role": models.MembershipRoleLead})
}

// TeamsOf returns the IDs of every team the user belongs to in any role.
func (s *Store) TeamsOf(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.teamIDs(ctx, bson.M{"user_id": userID})
}

func (s *Store) teamIDs(ctx context.Context, filter bson.M) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	seen := make(map[primitive.ObjectID]bool)
	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			TeamID primitive.ObjectID `bson:"team_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		if !seen[row.TeamID] {
			seen[row.TeamID] = true
			ids = append(ids, row.TeamID)
		}
	}
	return ids, cur.Err()
}

// UsersInTeams returns the distinct user IDs holding any membership in
// the given teams. Feeds the team-lead scope of the user list.
func (s *Store) UsersInTeams(ctx context.Context, teamIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if len(teamIDs) == 0 {
		return nil, nil
	}
	raw, err := s.c.Distinct(ctx, "user_id", bson.M{"team_id": bson.M{"$in": teamIDs}})
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ListForTeam returns all membership rows for a team, optionally
// filtered by role. An empty role returns both leads and members.
func (s *Store) ListForTeam(ctx context.Context, teamID primitive.ObjectID, role string) ([]models.TeamMembership, error) {
	filter := bson.M{"team_id": teamID}
	if role != "" {
		filter["role"] = role
	}
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var memberships []models.TeamMembership
	if err := cur.All(ctx, &memberships); err != nil {
		return nil, err
	}
	return memberships, nil
}

// ListForUser returns all membership rows for a user across teams.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.TeamMembership, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var memberships []models.TeamMembership
	if err := cur.All(ctx, &memberships); err != nil {
		return nil, err
	}
	return memberships, nil
}

// DeleteByTeam removes all membership rows for a team.
// Returns the number of documents deleted.
func (s *Store) DeleteByTeam(ctx context.Context, teamID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"team_id": teamID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByUser removes all membership rows for a user, lead and member
// alike. Part of the user-deletion cascade.
func (s *Store) DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountByTeam returns the count of membership rows for a team,
// optionally filtered by role.
func (s *Store) CountByTeam(ctx context.Context, teamID primitive.ObjectID, role string) (int64, error) {
	filter := bson.M{"team_id": teamID}
	if role != "" {
		filter["role"] = role
	}
	return s.c.CountDocuments(ctx, filter)
}

// CountPerTeam returns membership counts for multiple teams in one
// aggregation, optionally filtered by role. Feeds the team roster list.
func (s *Store) CountPerTeam(ctx context.Context, teamIDs []primitive.ObjectID, role string) (map[primitive.ObjectID]int, error) {
	result := make(map[primitive.ObjectID]int)
	if len(teamIDs) == 0 {
		return result, nil
	}

	match := bson.M{"team_id": bson.M{"$in": teamIDs}}
	if role != "" {
		match["role"] = role
	}
	cur, err := s.c.Aggregate(ctx, []bson.M{
		{"$match": match},
		{"$group": bson.M{"_id": "$team_id", "n": bson.M{"$sum": 1}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
			N  int                `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		result[row.ID] = row.N
	}
	return result, cur.Err()
}
