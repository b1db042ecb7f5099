package models

import (
	"time"

	"github.com/geotrail/trailnet-backend-go/internal/geom"
)

// TopologyKind distinguishes line features (treks) from point features
// (POIs, services, signage)
type TopologyKind string

const (
	KindLine  TopologyKind = "LINE"
	KindPoint TopologyKind = "POINT"
)

// TopologyState tracks whether every path referenced by a topology still
// exists in the network
type TopologyState string

const (
	// StateValid: all referenced paths exist, derived fields are fresh or
	// recomputable.
	StateValid TopologyState = "VALID"
	// StateDegraded: at least one referenced path was deleted. Derived
	// fields retain their last computed values and are flagged stale until
	// the feature is resnapped.
	StateDegraded TopologyState = "DEGRADED"
)

// Aggregation binds one topology to a fractional range along one path.
// Positions are measured in the path's canonical direction; StartPosition >
// EndPosition means the topology traverses the path backwards. For point
// topologies StartPosition == EndPosition.
type Aggregation struct {
	ID            int64   `json:"id" db:"id"`
	TopologyID    int64   `json:"topologyId" db:"topology_id"`
	PathID        int64   `json:"pathId" db:"path_id"`
	StartPosition float64 `json:"startPosition" db:"start_position"`
	EndPosition   float64 `json:"endPosition" db:"end_position"`
	Order         int     `json:"order" db:"agg_order"`
	LateralOffset float64 `json:"lateralOffset" db:"lateral_offset"`
}

// Reversed reports whether the aggregation runs against the path's canonical
// direction
func (a Aggregation) Reversed() bool {
	return a.StartPosition > a.EndPosition
}

// IsPoint reports whether the aggregation covers a single position
func (a Aggregation) IsPoint() bool {
	return a.StartPosition == a.EndPosition
}

// DerivedFields is the cached output of topology derivation. It is a pure
// function of {network state, aggregations, offset} — never a second source
// of truth.
type DerivedFields struct {
	// Geom2D/Geom3D are multi-part: non-contiguous aggregation runs
	// legally produce disjoint parts.
	Geom2D []geom.Line `json:"geom2d"`
	Geom3D []geom.Line `json:"geom3d"`

	Length2D     float64 `json:"length2d"`
	Length3D     float64 `json:"length3d"`
	Ascent       float64 `json:"ascent"`
	Descent      float64 `json:"descent"`
	MinElevation float64 `json:"minElevation"`
	MaxElevation float64 `json:"maxElevation"`
	Slope        float64 `json:"slope"`

	// NoDataWarning is set when every raster sample along the geometry was
	// NoData and the metrics fell back to zero.
	NoDataWarning bool `json:"noDataWarning,omitempty"`
	// Stale is set while the topology is degraded: the values are the last
	// successfully computed ones.
	Stale bool `json:"stale,omitempty"`

	ComputedAt time.Time `json:"computedAt"`
}

// Topology represents a feature's position as an ordered composition of
// aggregations over the path network. Aggregations are owned exclusively;
// path references are weak (a deleted path degrades the topology, it never
// deletes it).
type Topology struct {
	ID   int64        `json:"id" db:"id"`
	Kind TopologyKind `json:"kind" db:"kind"`

	// Offset is a global lateral offset applied uniformly to the whole
	// geometry (parallel paths); each aggregation may add its own.
	Offset float64 `json:"offset" db:"offset"`

	Aggregations []Aggregation `json:"aggregations"`

	// FreeGeom is the source geometry of a free topology: one created
	// directly from a drawn line or point instead of aggregations, when
	// network-referencing is disabled. Mutually exclusive with Aggregations.
	FreeGeom geom.Line `json:"freeGeom,omitempty" db:"free_geom"`

	State   TopologyState `json:"state" db:"state"`
	Derived DerivedFields `json:"derived"`

	// Dirty marks the derived cache for lazy recomputation after a network
	// mutation touched a referenced path.
	Dirty bool `json:"-" db:"dirty"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// IsFree reports whether the topology carries its own geometry instead of
// referencing the path network
func (t *Topology) IsFree() bool {
	return len(t.Aggregations) == 0 && len(t.FreeGeom) > 0
}

// PathIDs returns the distinct path ids referenced by the topology
func (t *Topology) PathIDs() []int64 {
	seen := make(map[int64]bool, len(t.Aggregations))
	var ids []int64
	for _, agg := range t.Aggregations {
		if !seen[agg.PathID] {
			seen[agg.PathID] = true
			ids = append(ids, agg.PathID)
		}
	}
	return ids
}

// References reports whether any aggregation binds to the given path
func (t *Topology) References(pathID int64) bool {
	for _, agg := range t.Aggregations {
		if agg.PathID == pathID {
			return true
		}
	}
	return false
}
