package reportqueries

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dalemusser/trainhub/internal/app/policy/reportpolicy"
	"github.com/dalemusser/trainhub/internal/domain/models"
)

// Bucket is one histogram bar: the inclusive lower bound of the bucket
// and how many records fell into it.
type Bucket struct {
	Lower int64 `bson:"_id" json:"lower"`
	Count int64 `bson:"count" json:"count"`
}

// Boundaries for the time-in-progress histogram, in whole days.
var timeInProgressBoundaries = []int64{0, 1, 3, 7, 14, 30, 60, 90}

// TimeInProgress returns a histogram of days from first lesson view to
// completion over completed enrollments in scope. Enrollments
// completed by override without ever starting are excluded.
func TimeInProgress(ctx context.Context, db *mongo.Database, scope reportpolicy.Scope) ([]Bucket, error) {
	match := enrollmentMatch(scope)
	match["status"] = models.EnrollmentCompleted
	match["started_at"] = bson.M{"$ne": nil}
	match["completed_at"] = bson.M{"$ne": nil}

	const dayMillis = 24 * 60 * 60 * 1000

	pipeline := []bson.M{
		{"$match": match},
		{"$project": bson.M{
			"days": bson.M{"$floor": bson.M{"$divide": bson.A{
				bson.M{"$subtract": bson.A{"$completed_at", "$started_at"}},
				dayMillis,
			}}},
		}},
		{"$bucket": bson.M{
			"groupBy":    "$days",
			"boundaries": timeInProgressBoundaries,
			"default":    timeInProgressBoundaries[len(timeInProgressBoundaries)-1],
			"output":     bson.M{"count": bson.M{"$sum": 1}},
		}},
		{"$sort": bson.M{"_id": 1}},
	}

	cur, err := db.Collection("enrollments").Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []Bucket
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Score histogram boundaries: deciles, with 100 folded into the 90+
// bucket.
var scoreBoundaries = []int64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 101}

// ScoreDistribution returns a histogram of assessment scores for
// attempts in scope. Pass a courseID to restrict the report to one
// course; pass nil for every assessment course in scope. Attempts are
// joined back to their enrollment so the visibility filter applies.
func ScoreDistribution(ctx context.Context, db *mongo.Database, scope reportpolicy.Scope, courseID *primitive.ObjectID) ([]Bucket, error) {
	attemptMatch := bson.M{}
	if courseID != nil {
		attemptMatch["course_id"] = *courseID
	}

	// Rewrites the enrollment visibility filter to run after the
	// $unwind of the joined enrollment.
	enrollMatch := bson.M{}
	for k, v := range enrollmentMatch(scope) {
		if k == "$or" {
			ors := v.([]bson.M)
			scoped := make([]bson.M, 0, len(ors))
			for _, o := range ors {
				m := bson.M{}
				for ok, ov := range o {
					m["enrollment."+ok] = ov
				}
				scoped = append(scoped, m)
			}
			enrollMatch["$or"] = scoped
			continue
		}
		enrollMatch["enrollment."+k] = v
	}

	pipeline := []bson.M{
		{"$match": attemptMatch},
		{"$lookup": bson.M{
			"from":         "enrollments",
			"localField":   "enrollment_id",
			"foreignField": "_id",
			"as":           "enrollment",
		}},
		{"$unwind": "$enrollment"},
		{"$match": enrollMatch},
		{"$bucket": bson.M{
			"groupBy":    "$score",
			"boundaries": scoreBoundaries,
			"default":    int64(0),
			"output":     bson.M{"count": bson.M{"$sum": 1}},
		}},
		{"$sort": bson.M{"_id": 1}},
	}

	cur, err := db.Collection("assessment_attempts").Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []Bucket
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
