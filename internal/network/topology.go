package network

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/geotrail/trailnet-backend-go/internal/altimetry"
	"github.com/geotrail/trailnet-backend-go/internal/geom"
	"github.com/geotrail/trailnet-backend-go/internal/models"
)

// joinEpsilon is the planar distance (meters) under which consecutive
// aggregation sub-geometries are concatenated into one part.
const joinEpsilon = 0.001

// CreateTopology validates the aggregation set and registers a new topology.
// Derived fields are computed immediately.
func (n *Network) CreateTopology(kind models.TopologyKind, offset float64, aggs []models.Aggregation) (models.Topology, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.validateAggregations(kind, aggs); err != nil {
		return models.Topology{}, err
	}

	t := &models.Topology{
		ID:        n.nextTopoID,
		Kind:      kind,
		Offset:    offset,
		State:     models.StateValid,
		CreatedAt: time.Now(),
	}
	n.nextTopoID++
	t.Aggregations = n.adoptAggregations(t.ID, aggs)
	n.deriveLocked(t)
	n.topologies[t.ID] = t
	return snapshotTopology(t), nil
}

// CreateFreeTopology registers a topology positioned by its own geometry
// instead of path aggregations, used when network-referencing is disabled.
// Free topologies share the derived-field cache shape and never reference
// paths, so network mutations cannot degrade them.
func (n *Network) CreateFreeTopology(kind models.TopologyKind, offset float64, line geom.Line) (models.Topology, error) {
	if kind == models.KindPoint {
		if len(line) != 1 {
			return models.Topology{}, fmt.Errorf("%w: point topology needs exactly 1 coordinate, got %d",
				ErrNetworkMutation, len(line))
		}
	} else if len(line) < 2 {
		return models.Topology{}, fmt.Errorf("%w: free geometry needs at least 2 coordinates", ErrNetworkMutation)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	t := &models.Topology{
		ID:        n.nextTopoID,
		Kind:      kind,
		Offset:    offset,
		FreeGeom:  line.Clone(),
		State:     models.StateValid,
		CreatedAt: time.Now(),
	}
	n.nextTopoID++
	n.deriveLocked(t)
	n.topologies[t.ID] = t
	return snapshotTopology(t), nil
}

// Resnap replaces a topology's aggregation set, returning it to the valid
// state. This is the only transition out of Degraded.
func (n *Network) Resnap(id int64, aggs []models.Aggregation) (models.Topology, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	t, ok := n.topologies[id]
	if !ok {
		return models.Topology{}, fmt.Errorf("%w: id %d", ErrTopologyNotFound, id)
	}
	if err := n.validateAggregations(t.Kind, aggs); err != nil {
		return models.Topology{}, err
	}

	t.Aggregations = n.adoptAggregations(t.ID, aggs)
	t.State = models.StateValid
	t.UpdatedAt = time.Now()
	n.deriveLocked(t)
	return snapshotTopology(t), nil
}

// DeleteTopology removes a topology and its aggregations (cascade)
func (n *Network) DeleteTopology(id int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.topologies[id]; !ok {
		return fmt.Errorf("%w: id %d", ErrTopologyNotFound, id)
	}
	delete(n.topologies, id)
	return nil
}

// Derived returns the derived fields of a topology, recomputing them first
// if a network mutation marked them dirty. For a degraded topology the last
// successfully computed values are returned together with
// ErrTopologyDegraded.
func (n *Network) Derived(id int64) (models.DerivedFields, models.TopologyState, error) {
	n.mu.RLock()
	t, ok := n.topologies[id]
	if !ok {
		n.mu.RUnlock()
		return models.DerivedFields{}, "", fmt.Errorf("%w: id %d", ErrTopologyNotFound, id)
	}
	if t.State == models.StateDegraded {
		derived := t.Derived
		n.mu.RUnlock()
		return derived, models.StateDegraded, ErrTopologyDegraded
	}
	if !t.Dirty {
		derived := t.Derived
		n.mu.RUnlock()
		return derived, models.StateValid, nil
	}
	n.mu.RUnlock()

	// Dirty: recompute under the write lock. Re-check after upgrade, a
	// concurrent mutation may have beaten us to it or degraded the
	// topology meanwhile.
	n.mu.Lock()
	defer n.mu.Unlock()
	t, ok = n.topologies[id]
	if !ok {
		return models.DerivedFields{}, "", fmt.Errorf("%w: id %d", ErrTopologyNotFound, id)
	}
	if t.State == models.StateDegraded {
		return t.Derived, models.StateDegraded, ErrTopologyDegraded
	}
	if t.Dirty {
		n.deriveLocked(t)
	}
	if t.State == models.StateDegraded {
		return t.Derived, models.StateDegraded, ErrTopologyDegraded
	}
	return t.Derived, models.StateValid, nil
}

// validateAggregations enforces the structural invariants of an aggregation
// set on write paths. Caller holds the write lock.
func (n *Network) validateAggregations(kind models.TopologyKind, aggs []models.Aggregation) error {
	if len(aggs) == 0 {
		return fmt.Errorf("%w: topology needs at least one aggregation", ErrInvalidAggregationRange)
	}
	for _, agg := range aggs {
		if agg.StartPosition < 0 || agg.StartPosition > 1 || agg.EndPosition < 0 || agg.EndPosition > 1 {
			return fmt.Errorf("%w: positions [%v, %v] outside [0,1]",
				ErrInvalidAggregationRange, agg.StartPosition, agg.EndPosition)
		}
		if kind == models.KindPoint && !agg.IsPoint() {
			return fmt.Errorf("%w: point topology with ranged aggregation [%v, %v]",
				ErrInvalidAggregationRange, agg.StartPosition, agg.EndPosition)
		}
		if _, ok := n.paths[agg.PathID]; !ok {
			return fmt.Errorf("%w: id %d", ErrSegmentNotFound, agg.PathID)
		}
	}
	return nil
}

// adoptAggregations orders, renumbers and assigns ids to a caller-supplied
// aggregation set. Order ties keep insertion order. Caller holds the write
// lock.
func (n *Network) adoptAggregations(topologyID int64, aggs []models.Aggregation) []models.Aggregation {
	out := make([]models.Aggregation, len(aggs))
	copy(out, aggs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	for i := range out {
		out[i].ID = n.nextAggID
		n.nextAggID++
		out[i].TopologyID = topologyID
		out[i].Order = i
	}
	return out
}

// deriveLocked recomputes a topology's derived fields from the current
// network state: substring each aggregation, apply lateral offsets,
// concatenate contiguous runs, drape against the raster, and publish the
// whole cache at once. A free topology skips the aggregation walk and drapes
// its own geometry. Caller holds the write lock.
func (n *Network) deriveLocked(t *models.Topology) {
	var parts []geom.Line
	if t.IsFree() {
		part := t.FreeGeom.Clone()
		if t.Offset != 0 && len(part) > 1 {
			part = part.OffsetLeft(t.Offset)
		}
		parts = append(parts, part)
		n.publishDerivedLocked(t, parts)
		return
	}

	for _, agg := range t.Aggregations {
		p, ok := n.paths[agg.PathID]
		if !ok {
			// A referenced path vanished: degrade, keep the previous
			// derived values flagged stale.
			t.State = models.StateDegraded
			t.Derived.Stale = true
			t.Dirty = false
			return
		}

		sub := p.Geom.Substring(agg.StartPosition, agg.EndPosition)
		if offset := t.Offset + agg.LateralOffset; offset != 0 {
			sub = applyLateralOffset(sub, p.Geom, agg, offset)
		}
		parts = appendPart(parts, sub)
	}
	n.publishDerivedLocked(t, parts)
}

// publishDerivedLocked drapes the assembled parts and replaces the derived
// cache in one assignment. Caller holds the write lock.
func (n *Network) publishDerivedLocked(t *models.Topology, parts []geom.Line) {
	profiles := make([]altimetry.Profile, len(parts))
	geom3D := make([]geom.Line, len(parts))
	for i, part := range parts {
		profiles[i] = altimetry.Drape(part, n.sampler, n.sampleStep)
		geom3D[i] = profiles[i].Geom3D
	}
	combined := altimetry.Combine(profiles)

	t.Derived = models.DerivedFields{
		Geom2D:        parts,
		Geom3D:        geom3D,
		Length2D:      combined.Length2D,
		Length3D:      combined.Length3D,
		Ascent:        combined.Ascent,
		Descent:       combined.Descent,
		MinElevation:  combined.MinElevation,
		MaxElevation:  combined.MaxElevation,
		Slope:         combined.Slope,
		NoDataWarning: combined.AllNoData,
		ComputedAt:    time.Now(),
	}
	t.Dirty = false
	t.State = models.StateValid
}

// applyLateralOffset shifts a sub-geometry perpendicular to its direction of
// travel. Point aggregations have no direction of their own, so the offset
// is taken perpendicular to the parent path at that position.
func applyLateralOffset(sub geom.Line, parent geom.Line, agg models.Aggregation, offset float64) geom.Line {
	if len(sub) > 1 {
		return sub.OffsetLeft(offset)
	}
	if len(sub) == 0 || len(parent) < 2 {
		return sub
	}

	// Perpendicular direction of the parent around the aggregation point.
	const h = 1e-4
	t := agg.StartPosition
	a := parent.Interpolate(math.Max(0, t-h))
	b := parent.Interpolate(math.Min(1, t+h))
	dx := b.X - a.X
	dy := b.Y - a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return sub
	}
	return geom.Line{{
		X: sub[0].X - dy/length*offset,
		Y: sub[0].Y + dx/length*offset,
		Z: sub[0].Z,
	}}
}

// appendPart concatenates sub onto the last part when contiguous, otherwise
// starts a new part. Multi-part (disjoint) results are legal.
func appendPart(parts []geom.Line, sub geom.Line) []geom.Line {
	if len(sub) == 0 {
		return parts
	}
	if len(parts) > 0 {
		last := parts[len(parts)-1]
		if len(last) > 0 && len(sub) > 1 {
			tail := last[len(last)-1]
			head := sub[0]
			if math.Hypot(tail.X-head.X, tail.Y-head.Y) <= joinEpsilon {
				parts[len(parts)-1] = append(last, sub[1:]...)
				return parts
			}
		}
	}
	return append(parts, sub.Clone())
}
