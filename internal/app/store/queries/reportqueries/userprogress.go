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

// UserProgressRow is one enrollment of the reported user, joined with
// its course and lesson-progress counts.
type UserProgressRow struct {
	EnrollmentID  primitive.ObjectID `bson:"_id" json:"enrollment_id"`
	CourseID      primitive.ObjectID `bson:"course_id" json:"course_id"`
	CourseTitle   string             `bson:"course_title" json:"course_title"`
	PolicyKind    string             `bson:"policy_kind" json:"policy_kind"`
	Status        string             `bson:"status" json:"status"`
	EnrolledAt    time.Time          `bson:"enrolled_at" json:"enrolled_at"`
	StartedAt     *time.Time         `bson:"started_at" json:"started_at,omitempty"`
	CompletedAt   *time.Time         `bson:"completed_at" json:"completed_at,omitempty"`
	SoftDeadline  *time.Time         `bson:"soft_deadline" json:"soft_deadline,omitempty"`
	HardDeadline  *time.Time         `bson:"hard_deadline" json:"hard_deadline,omitempty"`
	AttemptCount  int                `bson:"attempt_count" json:"attempt_count"`
	LessonsViewed int64              `bson:"lessons_viewed" json:"lessons_viewed"`
	LessonsTotal  int64              `bson:"lessons_total" json:"lessons_total"`
}

// UserProgress returns every live enrollment of the given user with
// course context and lesson counts. The scope must allow the user;
// callers check that with scope.AllowsUser or reportpolicy before
// calling, and the pipeline re-applies the scope match regardless.
func UserProgress(ctx context.Context, db *mongo.Database, scope reportpolicy.Scope, userID primitive.ObjectID) ([]UserProgressRow, error) {
	match := enrollmentMatch(scope)
	match["user_id"] = userID

	pipeline := []bson.M{
		{"$match": match},
		{"$lookup": bson.M{
			"from":         "courses",
			"localField":   "course_id",
			"foreignField": "_id",
			"as":           "course",
		}},
		{"$unwind": "$course"},
		{"$lookup": bson.M{
			"from":         "lesson_progress",
			"localField":   "_id",
			"foreignField": "enrollment_id",
			"as":           "progress",
		}},
		{"$lookup": bson.M{
			"from":         "lessons",
			"localField":   "course_id",
			"foreignField": "course_id",
			"as":           "lessons",
		}},
		{"$project": bson.M{
			"course_id":      1,
			"course_title":   "$course.title",
			"policy_kind":    "$course.policy.kind",
			"status":         1,
			"enrolled_at":    1,
			"started_at":     1,
			"completed_at":   1,
			"soft_deadline":  1,
			"hard_deadline":  1,
			"attempt_count":  1,
			"lessons_viewed": bson.M{"$size": "$progress"},
			"lessons_total":  bson.M{"$size": "$lessons"},
		}},
		{"$sort": bson.M{"enrolled_at": -1}},
	}

	cur, err := db.Collection("enrollments").Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []UserProgressRow
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	// Report deadline lapses that the sweep has not persisted yet.
	now := time.Now().UTC()
	for i := range rows {
		e := models.Enrollment{Status: rows[i].Status, HardDeadline: rows[i].HardDeadline}
		rows[i].Status = e.EffectiveStatus(now)
	}
	return rows, nil
}
