// Package overlap answers spatial relationship queries between features
// positioned on the path network: which treks/POIs/services lie on or near a
// reference feature.
package overlap

import (
	"math"

	"github.com/geotrail/trailnet-backend-go/internal/geom"
	"github.com/geotrail/trailnet-backend-go/internal/models"
)

// Mode selects the relationship strategy, fixed once per deployment
type Mode string

const (
	// ModeTopological: features relate through shared path segments with
	// overlapping aggregation ranges.
	ModeTopological Mode = "TOPOLOGICAL"
	// ModeBuffered: features relate through buffered planar intersection
	// of their derived 2D geometries.
	ModeBuffered Mode = "BUFFERED"
)

// HasTopology is the capability every topology-bearing entity exposes.
// Feature-type relationship helpers are free functions over this interface;
// entity types never need modification to gain them.
type HasTopology interface {
	TopologyRef() int64
}

// Engine is the slice of the network the index reads. Geometry2D recomputes
// stale caches before returning; results are never cached here — validity
// depends on both feature sets and invalidating from this layer would be
// wrong too often.
type Engine interface {
	Topology(id int64) (models.Topology, bool)
	Derived(id int64) (models.DerivedFields, models.TopologyState, error)
	PathsWithinNetworkDistance(seedPathIDs []int64, maxDist float64) map[int64]bool
}

// Index evaluates overlap and proximity predicates in one of the two modes
type Index struct {
	mode          Mode
	margins       map[string]float64 // per feature type or practice
	defaultMargin float64
}

// New creates an index. margins maps feature types (or practices) to their
// buffer distance in meters; defaultMargin applies otherwise.
func New(mode Mode, margins map[string]float64, defaultMargin float64) *Index {
	if margins == nil {
		margins = map[string]float64{}
	}
	return &Index{mode: mode, margins: margins, defaultMargin: defaultMargin}
}

// Mode returns the configured strategy
func (ix *Index) Mode() Mode {
	return ix.mode
}

// Margin returns the configured buffer distance for a feature type
func (ix *Index) Margin(featureType string) float64 {
	if m, ok := ix.margins[featureType]; ok {
		return m
	}
	return ix.defaultMargin
}

// Query filters a relationship query
type Query struct {
	// FeatureType restricts candidates to one feature type ("" = all).
	FeatureType string
	// PublishedOnly drops unpublished candidates without changing the
	// base predicate.
	PublishedOnly bool
	// Practice, when set, keeps only candidates with a matching practice
	// (services on a trek are filtered by the trek's practice).
	Practice string
	// Margin overrides the configured margin when > 0.
	Margin float64
}

// Overlapping returns the ids of candidate features related to the reference
// feature under the configured mode. Results are deterministic and
// order-independent; logically-deleted candidates are always excluded.
func (ix *Index) Overlapping(eng Engine, candidates []models.Feature, ref HasTopology, q Query) ([]int64, error) {
	refTopo, ok := eng.Topology(ref.TopologyRef())
	if !ok {
		return nil, nil
	}

	margin := q.Margin
	if margin <= 0 {
		margin = ix.Margin(q.FeatureType)
	}

	var refGeom []geom.Line
	if ix.mode == ModeBuffered {
		derived, _, err := eng.Derived(refTopo.ID)
		if err != nil {
			return nil, err
		}
		refGeom = derived.Geom2D
	}

	var out []int64
	for i := range candidates {
		c := &candidates[i]
		if !ix.admissible(c, ref, q) {
			continue
		}

		related := false
		if ix.mode == ModeTopological {
			candTopo, ok := eng.Topology(c.TopologyID)
			if !ok {
				continue
			}
			related = TopologiesOverlap(&refTopo, &candTopo)
		} else {
			var err error
			related, err = ix.buffersIntersect(eng, refGeom, c.TopologyID, margin)
			if err != nil {
				continue // candidate degraded: skip, never fail the query
			}
		}
		if related {
			out = append(out, c.ID)
		}
	}
	return out, nil
}

// Near returns candidates within margin meters of the reference geometry.
// Used for cross-feature-type proximity; in topological deployments this
// still evaluates the buffered predicate, because point features snapped to
// the same segments relate by distance, not by range overlap.
func (ix *Index) Near(eng Engine, candidates []models.Feature, ref HasTopology, q Query) ([]int64, error) {
	derived, _, err := eng.Derived(ref.TopologyRef())
	if err != nil {
		return nil, err
	}

	margin := q.Margin
	if margin <= 0 {
		margin = ix.Margin(q.FeatureType)
	}

	var out []int64
	for i := range candidates {
		c := &candidates[i]
		if !ix.admissible(c, ref, q) {
			continue
		}
		related, err := ix.buffersIntersect(eng, derived.Geom2D, c.TopologyID, margin)
		if err != nil {
			continue
		}
		if related {
			out = append(out, c.ID)
		}
	}
	return out, nil
}

// NearOnNetwork returns candidates whose topologies lie on paths within
// maxDist meters of the reference's paths, walking the graph. Only
// meaningful in topological mode.
func (ix *Index) NearOnNetwork(eng Engine, candidates []models.Feature, ref HasTopology, maxDist float64, q Query) []int64 {
	refTopo, ok := eng.Topology(ref.TopologyRef())
	if !ok {
		return nil
	}
	reachable := eng.PathsWithinNetworkDistance(refTopo.PathIDs(), maxDist)

	var out []int64
	for i := range candidates {
		c := &candidates[i]
		if !ix.admissible(c, ref, q) {
			continue
		}
		candTopo, ok := eng.Topology(c.TopologyID)
		if !ok {
			continue
		}
		for _, pathID := range candTopo.PathIDs() {
			if reachable[pathID] {
				out = append(out, c.ID)
				break
			}
		}
	}
	return out
}

func (ix *Index) admissible(c *models.Feature, ref HasTopology, q Query) bool {
	if c.Deleted {
		return false
	}
	if c.TopologyID == ref.TopologyRef() {
		return false
	}
	if q.FeatureType != "" && c.Type != q.FeatureType {
		return false
	}
	if q.PublishedOnly && !c.Published {
		return false
	}
	if q.Practice != "" && c.Practice != q.Practice {
		return false
	}
	return true
}

func (ix *Index) buffersIntersect(eng Engine, refGeom []geom.Line, topologyID int64, margin float64) (bool, error) {
	derived, _, err := eng.Derived(topologyID)
	if err != nil {
		return false, err
	}
	return GeometriesWithin(refGeom, derived.Geom2D, margin), nil
}

// TopologiesOverlap is the topological-mode predicate: the topologies share
// at least one path with overlapping [start, end] ranges. Touching ranges
// count as overlapping. The predicate is symmetric.
func TopologiesOverlap(a, b *models.Topology) bool {
	ranges := make(map[int64][][2]float64)
	for _, agg := range a.Aggregations {
		lo := math.Min(agg.StartPosition, agg.EndPosition)
		hi := math.Max(agg.StartPosition, agg.EndPosition)
		ranges[agg.PathID] = append(ranges[agg.PathID], [2]float64{lo, hi})
	}

	for _, agg := range b.Aggregations {
		lo := math.Min(agg.StartPosition, agg.EndPosition)
		hi := math.Max(agg.StartPosition, agg.EndPosition)
		for _, r := range ranges[agg.PathID] {
			if hi >= r[0] && r[1] >= lo {
				return true
			}
		}
	}
	return false
}

// GeometriesWithin reports whether any part of a lies within margin meters
// of any part of b
func GeometriesWithin(a, b []geom.Line, margin float64) bool {
	for _, la := range a {
		for _, lb := range b {
			if la.MinDistance(lb) <= margin {
				return true
			}
		}
	}
	return false
}
