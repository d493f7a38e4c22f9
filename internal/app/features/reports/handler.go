// Package reports serves the read-only reporting API. Every endpoint
// computes a reportpolicy.Scope for the actor first and threads it into
// the aggregation pipelines, so a team lead's numbers never include
// enrollments outside the teams they lead.
package reports

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	coursestore "github.com/dalemusser/trainhub/internal/app/store/courses"
	membershipstore "github.com/dalemusser/trainhub/internal/app/store/memberships"
	teamstore "github.com/dalemusser/trainhub/internal/app/store/teams"
	userstore "github.com/dalemusser/trainhub/internal/app/store/users"
)

// Handler bundles what the report endpoints need. The aggregation
// queries take the raw database; the stores are for loading the
// subjects being reported on.
type Handler struct {
	DB          *mongo.Database
	Users       *userstore.Store
	Teams       *teamstore.Store
	Courses     *coursestore.Store
	Memberships *membershipstore.Store
	Log         *zap.Logger
}

// NewHandler wires a report handler against the given database.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:          db,
		Users:       userstore.New(db),
		Teams:       teamstore.New(db),
		Courses:     coursestore.New(db),
		Memberships: membershipstore.New(db),
		Log:         logger,
	}
}
