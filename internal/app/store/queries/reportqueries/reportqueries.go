// Package reportqueries provides read-only aggregation queries for
// reports. Every query takes a reportpolicy.Scope computed for the
// requesting user and folds it into the pipeline's first $match, so no
// row outside the caller's visibility ever leaves the database.
package reportqueries

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/dalemusser/trainhub/internal/app/policy/reportpolicy"
)

// enrollmentMatch builds the visibility filter applied to the
// enrollments collection. Archived enrollments never appear in
// reports.
func enrollmentMatch(scope reportpolicy.Scope) bson.M {
	match := bson.M{"archived": false}
	switch {
	case scope.All:
	case scope.SelfOnly:
		match["user_id"] = scope.UserID
	default:
		// Team leads see enrollments in their teams' courses plus
		// their own records.
		match["$or"] = []bson.M{
			{"team_id": bson.M{"$in": scope.TeamIDs}},
			{"user_id": scope.UserID},
		}
	}
	return match
}
