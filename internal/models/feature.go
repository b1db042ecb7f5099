package models

import "time"

// Feature type constants
const (
	FeatureTrek    = "TREK"
	FeaturePOI     = "POI"
	FeatureService = "SERVICE"
	FeatureSignage = "SIGNAGE"
)

// Feature represents a trail-network entity (trek, point of interest,
// service, sign) positioned by a topology. Deletion is logical: deleted
// features keep their rows but are excluded from every relationship query.
type Feature struct {
	ID         int64  `json:"id" db:"id"`
	TopologyID int64  `json:"topologyId" db:"topology_id"`
	Type       string `json:"type" db:"type"`
	Name       string `json:"name" db:"name"`

	// Practice classifies the activity (hiking, cycling, ...); proximity
	// margins are configured per practice.
	Practice  string `json:"practice,omitempty" db:"practice"`
	Published bool   `json:"published" db:"published"`
	Deleted   bool   `json:"deleted" db:"deleted"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// TopologyRef returns the id of the topology positioning the feature.
// Feature satisfies the overlap package's HasTopology capability.
func (f *Feature) TopologyRef() int64 {
	return f.TopologyID
}

// FeatureFilter represents filter parameters for querying features
type FeatureFilter struct {
	Type      string `form:"type"`
	Practice  string `form:"practice"`
	Published bool   `form:"published"`
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
}
