// internal/app/features/settings/zones.go
package settings

import (
	"net/http"

	"github.com/dalemusser/trainhub/internal/app/system/gates"
	"github.com/dalemusser/trainhub/internal/app/system/httpjson"
	"github.com/dalemusser/trainhub/internal/app/system/timezones"
)

type zoneView struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type zoneGroupView struct {
	Region string     `json:"region"`
	Zones  []zoneView `json:"zones"`
}

// ServeListTimezones handles GET /api/v1/settings/timezones.
// Returns the curated zone catalog grouped by region, for the
// settings page timezone picker.
func (h *Handler) ServeListTimezones(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r)
	if !res.OK {
		return
	}

	groups, err := timezones.Groups()
	if err != nil {
		httpjson.Internal(w, h.Log, "load timezone catalog", err)
		return
	}

	out := make([]zoneGroupView, 0, len(groups))
	for _, g := range groups {
		zones := make([]zoneView, 0, len(g.Zones))
		for _, z := range g.Zones {
			zones = append(zones, zoneView{ID: z.ID, Label: z.Label})
		}
		out = append(out, zoneGroupView{Region: g.Region, Zones: zones})
	}
	httpjson.Respond(w, http.StatusOK, map[string]any{"groups": out})
}
