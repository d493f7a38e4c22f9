package reportqueries

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dalemusser/trainhub/internal/app/policy/reportpolicy"
	"github.com/dalemusser/trainhub/internal/domain/models"
)

// TeamCompletionRow aggregates enrollment outcomes for one team's
// courses.
type TeamCompletionRow struct {
	TeamID     primitive.ObjectID `bson:"_id" json:"team_id"`
	TeamName   string             `bson:"team_name" json:"team_name"`
	Total      int64              `bson:"total" json:"total"`
	Completed  int64              `bson:"completed" json:"completed"`
	InProgress int64              `bson:"in_progress" json:"in_progress"`
	Overdue    int64              `bson:"overdue" json:"overdue"`
}

// Rate returns the completion rate in [0,1], 0 for an empty team.
func (r TeamCompletionRow) Rate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Completed) / float64(r.Total)
}

// TeamCompletionRates groups live enrollments in team-scoped courses
// by owning team and counts outcomes. Campus-wide enrollments carry no
// team and are excluded.
func TeamCompletionRates(ctx context.Context, db *mongo.Database, scope reportpolicy.Scope) ([]TeamCompletionRow, error) {
	match := enrollmentMatch(scope)
	match["team_id"] = bson.M{"$ne": nil}
	if !scope.All && !scope.SelfOnly {
		// Leads report on their teams only, not their own records in
		// other teams' courses.
		delete(match, "$or")
		match["team_id"] = bson.M{"$in": scope.TeamIDs}
	}

	pipeline := []bson.M{
		{"$match": match},
		{"$group": bson.M{
			"_id":   "$team_id",
			"total": bson.M{"$sum": 1},
			"completed": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", models.EnrollmentCompleted}}, 1, 0,
			}}},
			"in_progress": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", models.EnrollmentInProgress}}, 1, 0,
			}}},
			"overdue": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", models.EnrollmentOverdue}}, 1, 0,
			}}},
		}},
		{"$lookup": bson.M{
			"from":         "teams",
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "team",
		}},
		{"$unwind": "$team"},
		{"$addFields": bson.M{"team_name": "$team.name"}},
		{"$project": bson.M{"team": 0}},
		{"$sort": bson.M{"team_name": 1}},
	}

	cur, err := db.Collection("enrollments").Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []TeamCompletionRow
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
