// internal/domain/models/team.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Team represents a serving team (a ministry area crew such as Parking
// or Kids Check-In) whose doorholders are trained together.
//
// NOTE:
//   - Lead/member lists are not embedded on Team.
//     All membership is stored in the team_memberships collection.
//   - A team may have zero leads; callers that care should warn, not fail.
type Team struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	NameCI       string             `bson:"name_ci" json:"name_ci"` // lowercase, diacritics-stripped
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	MinistryArea string             `bson:"ministry_area,omitempty" json:"ministry_area,omitempty"`

	Active bool `bson:"active" json:"active"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`

	CreatedByID   *primitive.ObjectID `bson:"created_by_id,omitempty" json:"created_by_id,omitempty"`
	CreatedByName string              `bson:"created_by_name,omitempty" json:"created_by_name,omitempty"`
}
