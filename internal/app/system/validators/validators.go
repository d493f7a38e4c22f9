// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/trainhub/internal/app/system/authz"
	"github.com/dalemusser/trainhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	// helper: ensure collection exists (with truthful logging) and then validator (if provided)
	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			// DocumentDB or other deployments may not support collMod/validators.
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	// Core collections with schema checks
	ensure("users", usersSchema())
	ensure("teams", teamsSchema())
	ensure("team_memberships", teamMembershipsSchema())
	ensure("courses", coursesSchema())
	ensure("lessons", lessonsSchema())
	ensure("enrollments", enrollmentsSchema())
	ensure("certificates", certificatesSchema())
	ensure("invites", invitesSchema())

	// These don't strictly need validators; we still ensure the collections exist.
	ensure("lesson_progress", nil)
	ensure("assessment_attempts", nil)
	ensure("announcements", nil)
	ensure("activity_events", nil)
	ensure("audit_events", nil)
	ensure("sessions", nil)
	ensure("login_records", nil)
	ensure("oauth_states", nil)
	ensure("site_settings", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

func enumOf(values []string) bson.A {
	out := bson.A{}
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "full_name_ci", "email", "roles", "active"},
			"properties": bson.M{
				"full_name":    bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"full_name_ci": bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"email":        bson.M{"bsonType": "string", "minLength": 3},
				"roles": bson.M{
					"bsonType": "array",
					"minItems": 1,
					"items":    bson.M{"enum": enumOf(authz.AllRoles)},
				},
				"active":      bson.M{"bsonType": "bool"},
				"auth_method": bson.M{"enum": bson.A{"password", "google"}},
				"phone":       bson.M{"bsonType": "string"},
			},
		},
	}
}

func teamsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "active"},
			"properties": bson.M{
				"name":          bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"name_ci":       bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"ministry_area": bson.M{"bsonType": "string"},
				"active":        bson.M{"bsonType": "bool"},
			},
		},
	}
}

func teamMembershipsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"team_id", "user_id", "role"},
			"properties": bson.M{
				"team_id":    bson.M{"bsonType": "objectId"},
				"user_id":    bson.M{"bsonType": "objectId"},
				"role":       bson.M{"enum": bson.A{models.MembershipRoleLead, models.MembershipRoleMember}},
				"created_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func coursesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "title_ci", "scope", "status", "policy"},
			"properties": bson.M{
				"title":    bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"title_ci": bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"scope":    bson.M{"enum": bson.A{models.CourseScopeCampus, models.CourseScopeTeam}},
				"team_id":  bson.M{"bsonType": bson.A{"objectId", "null"}},
				"status":   bson.M{"enum": bson.A{models.CourseStatusActive, models.CourseStatusArchived}},
				"policy": bson.M{
					"bsonType": "object",
					"required": bson.A{"kind"},
					"properties": bson.M{
						"kind": bson.M{"enum": bson.A{models.PolicyHonor, models.PolicyAssessment, models.PolicyManual}},
					},
				},
			},
		},
	}
}

func lessonsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"course_id", "title", "position", "content_type"},
			"properties": bson.M{
				"course_id":    bson.M{"bsonType": "objectId"},
				"title":        bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"position":     bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 1},
				"content_type": bson.M{"enum": enumOf(models.LessonTypes)},
				"required":     bson.M{"bsonType": "bool"},
			},
		},
	}
}

func enrollmentsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "course_id", "status", "archived"},
			"properties": bson.M{
				"user_id":   bson.M{"bsonType": "objectId"},
				"course_id": bson.M{"bsonType": "objectId"},
				"status": bson.M{"enum": bson.A{
					models.EnrollmentNotStarted,
					models.EnrollmentInProgress,
					models.EnrollmentCompleted,
					models.EnrollmentOverdue,
					models.EnrollmentRevoked,
				}},
				"completion_method": bson.M{"enum": bson.A{
					models.CompletionByHonor,
					models.CompletionByAssessment,
					models.CompletionByApproval,
					models.CompletionByOverride,
				}},
				"archived": bson.M{"bsonType": "bool"},
			},
		},
	}
}

func certificatesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"number", "user_id", "course_id", "status"},
			"properties": bson.M{
				"number":    bson.M{"bsonType": "string", "minLength": 1},
				"user_id":   bson.M{"bsonType": "objectId"},
				"course_id": bson.M{"bsonType": "objectId"},
				"status": bson.M{"enum": bson.A{
					models.CertStatusValid,
					models.CertStatusExpired,
					models.CertStatusRevoked,
				}},
			},
		},
	}
}

func invitesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "email_ci", "token", "roles", "expires_at"},
			"properties": bson.M{
				"email":    bson.M{"bsonType": "string", "minLength": 3},
				"email_ci": bson.M{"bsonType": "string", "minLength": 3},
				"token":    bson.M{"bsonType": "string", "minLength": 16},
				"roles": bson.M{
					"bsonType": "array",
					"minItems": 1,
					"items":    bson.M{"enum": enumOf(authz.AllRoles)},
				},
				"team_id":    bson.M{"bsonType": bson.A{"objectId", "null"}},
				"expires_at": bson.M{"bsonType": "date"},
			},
		},
	}
}
