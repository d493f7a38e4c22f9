// internal/app/store/invites/invitestore.go
package invites

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/trainhub/internal/app/system/authz"
	"github.com/dalemusser/trainhub/internal/app/system/normalize"
	"github.com/dalemusser/trainhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store manages the invites collection: single-use onboarding tokens a
// lead or admin creates so a volunteer can set their own password.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("invites")}
}

var (
	// ErrNotFound is returned when no invite matches the token.
	ErrNotFound = errors.New("invite not found")
	// ErrExpired is returned for an invite past its expiry.
	ErrExpired = errors.New("invite has expired")
	// ErrAlreadyAccepted is returned when the token was already used.
	ErrAlreadyAccepted = errors.New("invite was already accepted")
	// ErrInvalidRole is returned when the invite's role set is empty or
	// contains unrecognized values.
	ErrInvalidRole = errors.New("invite must grant at least one valid role")
)

// Create issues a new invite token for the given address. Any earlier
// pending invites for the same address are superseded (deleted) so only
// the newest link works.
func (s *Store) Create(ctx context.Context, inv models.Invite, ttl time.Duration) (models.Invite, error) {
	inv.Roles = authz.NormalizeRoles(inv.Roles)
	if len(inv.Roles) == 0 {
		return models.Invite{}, ErrInvalidRole
	}

	now := time.Now().UTC()
	inv.ID = primitive.NewObjectID()
	inv.Email = normalize.Email(inv.Email)
	inv.EmailCI = text.Fold(inv.Email)
	inv.Token = uuid.NewString()
	inv.ExpiresAt = now.Add(ttl)
	inv.AcceptedAt = nil
	inv.CreatedAt = now

	if _, err := s.c.DeleteMany(ctx, bson.M{
		"email_ci":    inv.EmailCI,
		"accepted_at": nil,
	}); err != nil {
		return models.Invite{}, err
	}

	if _, err := s.c.InsertOne(ctx, inv); err != nil {
		if wafflemongo.IsDup(err) {
			// Token collision; UUIDs make this effectively unreachable.
			inv.Token = uuid.NewString()
			if _, err := s.c.InsertOne(ctx, inv); err != nil {
				return models.Invite{}, err
			}
			return inv, nil
		}
		return models.Invite{}, err
	}
	return inv, nil
}

// GetByToken looks up an invite and reports whether it is still usable.
func (s *Store) GetByToken(ctx context.Context, token string) (models.Invite, error) {
	var inv models.Invite
	if err := s.c.FindOne(ctx, bson.M{"token": token}).Decode(&inv); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Invite{}, ErrNotFound
		}
		return models.Invite{}, err
	}
	if inv.AcceptedAt != nil {
		return models.Invite{}, ErrAlreadyAccepted
	}
	if !time.Now().UTC().Before(inv.ExpiresAt) {
		return models.Invite{}, ErrExpired
	}
	return inv, nil
}

// MarkAccepted consumes the invite. The accepted_at guard in the filter
// makes a raced double-accept lose cleanly.
func (s *Store) MarkAccepted(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "accepted_at": nil},
		bson.M{"$set": bson.M{"accepted_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrAlreadyAccepted
	}
	return nil
}

// Revoke deletes a pending invite so its link stops working.
func (s *Store) Revoke(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "accepted_at": nil})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// PendingForEmail returns the newest pending invite for an address, if any.
func (s *Store) PendingForEmail(ctx context.Context, email string) (models.Invite, error) {
	var inv models.Invite
	err := s.c.FindOne(ctx, bson.M{
		"email_ci":    text.Fold(normalize.Email(email)),
		"accepted_at": nil,
	}).Decode(&inv)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Invite{}, ErrNotFound
		}
		return models.Invite{}, err
	}
	return inv, nil
}

// DeleteExpired removes invites past their expiry. A maintenance
// convenience; expired tokens are already unusable through GetByToken.
func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{
		"accepted_at": nil,
		"expires_at":  bson.M{"$lte": now.UTC()},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
