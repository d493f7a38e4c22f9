package reportqueries

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dalemusser/trainhub/internal/app/policy/reportpolicy"
	"github.com/dalemusser/trainhub/internal/domain/models"
)

// CourseAnalyticsRow holds popularity and effectiveness numbers for
// one course.
type CourseAnalyticsRow struct {
	CourseID    primitive.ObjectID `bson:"_id" json:"course_id"`
	CourseTitle string             `bson:"course_title" json:"course_title"`
	PolicyKind  string             `bson:"policy_kind" json:"policy_kind"`
	Enrolled    int64              `bson:"enrolled" json:"enrolled"`
	Completed   int64              `bson:"completed" json:"completed"`
	Overdue     int64              `bson:"overdue" json:"overdue"`
	Revoked     int64              `bson:"revoked" json:"revoked"`
}

// CompletionRate returns completed/enrolled in [0,1].
func (r CourseAnalyticsRow) CompletionRate() float64 {
	if r.Enrolled == 0 {
		return 0
	}
	return float64(r.Completed) / float64(r.Enrolled)
}

// CourseAnalytics groups live enrollments by course, producing
// enrollment counts (popularity) and completion counts
// (effectiveness), most popular first. Pass a courseID to restrict the
// report to a single course; pass nil for all courses in scope.
func CourseAnalytics(ctx context.Context, db *mongo.Database, scope reportpolicy.Scope, courseID *primitive.ObjectID) ([]CourseAnalyticsRow, error) {
	match := enrollmentMatch(scope)
	if courseID != nil {
		match["course_id"] = *courseID
	}

	pipeline := []bson.M{
		{"$match": match},
		{"$group": bson.M{
			"_id":      "$course_id",
			"enrolled": bson.M{"$sum": 1},
			"completed": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", models.EnrollmentCompleted}}, 1, 0,
			}}},
			"overdue": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", models.EnrollmentOverdue}}, 1, 0,
			}}},
			"revoked": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", models.EnrollmentRevoked}}, 1, 0,
			}}},
		}},
		{"$lookup": bson.M{
			"from":         "courses",
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "course",
		}},
		{"$unwind": "$course"},
		{"$addFields": bson.M{
			"course_title": "$course.title",
			"policy_kind":  "$course.policy.kind",
		}},
		{"$project": bson.M{"course": 0}},
		{"$sort": bson.M{"enrolled": -1, "course_title": 1}},
	}

	cur, err := db.Collection("enrollments").Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []CourseAnalyticsRow
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
