package reportqueries

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dalemusser/trainhub/internal/app/policy/reportpolicy"
	"github.com/dalemusser/trainhub/internal/domain/models"
)

// ComplianceRow describes one enrolled user's standing against a
// course's certificate requirement.
type ComplianceRow struct {
	UserID           primitive.ObjectID `bson:"user_id" json:"user_id"`
	UserName         string             `bson:"user_name" json:"user_name"`
	Email            string             `bson:"email" json:"email"`
	EnrollmentStatus string             `bson:"enrollment_status" json:"enrollment_status"`
	CertStatus       string             `bson:"cert_status" json:"cert_status"` // valid | expired | revoked | none
	CertExpiresAt    *time.Time         `bson:"cert_expires_at" json:"cert_expires_at,omitempty"`
	Compliant        bool               `bson:"compliant" json:"compliant"`
}

// Compliance lists everyone enrolled in the given course together with
// whether they hold a currently-valid certificate for it. Users whose
// certificate lapsed, was revoked, or was never issued come back
// Compliant=false, which is the set that needs recertification.
func Compliance(ctx context.Context, db *mongo.Database, scope reportpolicy.Scope, courseID primitive.ObjectID) ([]ComplianceRow, error) {
	match := enrollmentMatch(scope)
	match["course_id"] = courseID

	pipeline := []bson.M{
		{"$match": match},
		{"$lookup": bson.M{
			"from":         "users",
			"localField":   "user_id",
			"foreignField": "_id",
			"as":           "user",
		}},
		{"$unwind": "$user"},
		{"$match": bson.M{"user.active": true}},
		{"$lookup": bson.M{
			"from":         "certificates",
			"localField":   "_id",
			"foreignField": "enrollment_id",
			"as":           "certs",
		}},
		{"$project": bson.M{
			"user_id":           1,
			"user_name":         "$user.full_name",
			"email":             "$user.email",
			"enrollment_status": "$status",
			"certs":             1,
		}},
		{"$sort": bson.M{"user_name": 1}},
	}

	cur, err := db.Collection("enrollments").Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	now := time.Now().UTC()
	var rows []ComplianceRow
	for cur.Next(ctx) {
		var raw struct {
			UserID           primitive.ObjectID   `bson:"user_id"`
			UserName         string               `bson:"user_name"`
			Email            string               `bson:"email"`
			EnrollmentStatus string               `bson:"enrollment_status"`
			Certs            []models.Certificate `bson:"certs"`
		}
		if err := cur.Decode(&raw); err != nil {
			return nil, err
		}

		row := ComplianceRow{
			UserID:           raw.UserID,
			UserName:         raw.UserName,
			Email:            raw.Email,
			EnrollmentStatus: raw.EnrollmentStatus,
			CertStatus:       "none",
		}
		// A re-awarded enrollment can carry an old revoked certificate
		// next to the live one; any currently-valid cert satisfies the
		// requirement.
		for i := range raw.Certs {
			c := &raw.Certs[i]
			if c.CurrentlyValid(now) {
				row.CertStatus = models.CertStatusValid
				row.CertExpiresAt = c.ExpiresAt
				row.Compliant = true
				break
			}
			row.CertStatus = c.EffectiveStatus(now)
			row.CertExpiresAt = c.ExpiresAt
		}
		rows = append(rows, row)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}
