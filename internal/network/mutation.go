package network

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/geotrail/trailnet-backend-go/internal/geom"
	"github.com/geotrail/trailnet-backend-go/internal/models"
)

// MutationRecord is the audit entry written for every committed network
// mutation
type MutationRecord struct {
	ID          string    `json:"id"`
	Op          string    `json:"op"`
	PathIDs     []int64   `json:"pathIds"`
	TopologyIDs []int64   `json:"topologyIds"`
	At          time.Time `json:"at"`
}

// MutationResult reports what a committed mutation changed, so callers can
// persist the affected records in one transaction.
type MutationResult struct {
	Record         MutationRecord
	Paths          []models.Path     // created or rewritten paths
	DeletedPathIDs []int64           // paths removed from the network
	Topologies     []models.Topology // topologies whose aggregations or state changed
}

// Split cuts a path at a fractional position strictly inside (0, 1). The
// first returned path keeps the original id. Every aggregation referencing
// the path is rescaled; one spanning the split point becomes two, preserving
// traversal order and lateral offset. All rewrites commit together or the
// operation fails with the network unchanged.
func (n *Network) Split(pathID int64, at float64) (*MutationResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	p, ok := n.paths[pathID]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrSegmentNotFound, pathID)
	}
	if at <= 0 || at >= 1 {
		return nil, fmt.Errorf("%w: split position %v not strictly inside (0,1)", ErrNetworkMutation, at)
	}

	a := &models.Path{
		ID:        p.ID,
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
	}
	b := &models.Path{
		ID:        n.nextPathID,
		Name:      p.Name,
		CreatedAt: time.Now(),
	}
	n.applyGeometry(a, p.Geom.Substring(0, at))
	n.applyGeometry(b, p.Geom.Substring(at, 1))

	affected := n.rewriteAggregations(pathID, func(agg models.Aggregation) []models.Aggregation {
		return splitAggregation(agg, a.ID, b.ID, at)
	})

	n.paths[a.ID] = a
	n.paths[b.ID] = b
	n.nextPathID++

	result := n.commit("split", []models.Path{*a, *b}, nil, affected)
	return result, nil
}

// splitAggregation maps one aggregation on the original path onto the two
// halves. Positions rescale into each half's [0,1] parameterization.
func splitAggregation(agg models.Aggregation, aID, bID int64, at float64) []models.Aggregation {
	toA := func(pos float64) float64 { return pos / at }
	toB := func(pos float64) float64 { return (pos - at) / (1 - at) }

	lo := math.Min(agg.StartPosition, agg.EndPosition)
	hi := math.Max(agg.StartPosition, agg.EndPosition)

	switch {
	case hi <= at:
		agg.PathID = aID
		agg.StartPosition = toA(agg.StartPosition)
		agg.EndPosition = toA(agg.EndPosition)
		return []models.Aggregation{agg}
	case lo >= at:
		agg.PathID = bID
		agg.StartPosition = toB(agg.StartPosition)
		agg.EndPosition = toB(agg.EndPosition)
		return []models.Aggregation{agg}
	}

	// Spans the split point: one aggregation per half, in traversal order.
	first := agg
	second := agg
	if !agg.Reversed() {
		first.PathID = aID
		first.StartPosition = toA(agg.StartPosition)
		first.EndPosition = 1
		second.PathID = bID
		second.StartPosition = 0
		second.EndPosition = toB(agg.EndPosition)
	} else {
		first.PathID = bID
		first.StartPosition = toB(agg.StartPosition)
		first.EndPosition = 0
		second.PathID = aID
		second.StartPosition = 1
		second.EndPosition = toA(agg.EndPosition)
	}
	return []models.Aggregation{first, second}
}

// Merge joins two paths sharing exactly one endpoint into one, legal only
// when no other path branches at the shared node. The merged path keeps the
// first path's id. Aggregations on either input rescale into the merged
// parameterization; contiguous ranges meeting at the shared node are joined.
func (n *Network) Merge(aID, bID int64) (*MutationResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	a, ok := n.paths[aID]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrSegmentNotFound, aID)
	}
	b, ok := n.paths[bID]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrSegmentNotFound, bID)
	}
	if aID == bID {
		return nil, fmt.Errorf("%w: cannot merge a path with itself", ErrNetworkMutation)
	}

	aStart, aEnd := NodeKeyOf(a.StartPoint()), NodeKeyOf(a.EndPoint())
	bStart, bEnd := NodeKeyOf(b.StartPoint()), NodeKeyOf(b.EndPoint())

	var shared NodeKey
	sharedCount := 0
	for _, ka := range []NodeKey{aStart, aEnd} {
		if ka == bStart || ka == bEnd {
			shared = ka
			sharedCount++
		}
	}
	if sharedCount != 1 {
		return nil, fmt.Errorf("%w: paths %d and %d must share exactly one endpoint", ErrNetworkMutation, aID, bID)
	}
	for _, other := range n.pathsTouchingLocked(shared, aID) {
		if other.ID != bID {
			return nil, fmt.Errorf("%w: node has a divergent branch (path %d)", ErrNetworkMutation, other.ID)
		}
	}

	// Orient A to end at the shared node and B to start there.
	reverseA := aStart == shared
	reverseB := bEnd == shared
	geomA := a.Geom.Clone()
	if reverseA {
		geomA = geomA.Reverse()
	}
	geomB := b.Geom.Clone()
	if reverseB {
		geomB = geomB.Reverse()
	}
	merged := append(geomA, geomB[1:]...)

	lenA := geomA.Length2D()
	lenB := geomB.Length2D()
	if lenA+lenB == 0 {
		return nil, fmt.Errorf("%w: merged geometry has zero length", ErrNetworkMutation)
	}
	scaleA := lenA / (lenA + lenB)

	remapA := func(pos float64) float64 {
		if reverseA {
			pos = 1 - pos
		}
		return pos * scaleA
	}
	remapB := func(pos float64) float64 {
		if reverseB {
			pos = 1 - pos
		}
		return scaleA + pos*(1-scaleA)
	}

	affected := n.rewriteAggregations2(aID, bID, func(agg models.Aggregation) []models.Aggregation {
		remap := remapA
		if agg.PathID == bID {
			remap = remapB
		}
		agg.PathID = aID
		agg.StartPosition = remap(agg.StartPosition)
		agg.EndPosition = remap(agg.EndPosition)
		return []models.Aggregation{agg}
	})

	mergedPath := &models.Path{
		ID:        aID,
		Name:      a.Name,
		CreatedAt: a.CreatedAt,
	}
	n.applyGeometry(mergedPath, merged)
	n.paths[aID] = mergedPath
	delete(n.paths, bID)

	// Aggregations that met at the shared node are now contiguous ranges
	// on one path; join them.
	for _, t := range affected {
		coalesceAggregations(t, aID)
	}

	result := n.commit("merge", []models.Path{*mergedPath}, []int64{bID}, affected)
	return result, nil
}

// coalesceAggregations joins consecutive aggregations of a topology that lie
// on the same path with contiguous ranges and equal lateral offsets
func coalesceAggregations(t *models.Topology, pathID int64) {
	if len(t.Aggregations) < 2 {
		return
	}

	out := t.Aggregations[:1]
	for _, cur := range t.Aggregations[1:] {
		prev := &out[len(out)-1]
		if prev.PathID == pathID && cur.PathID == pathID &&
			prev.LateralOffset == cur.LateralOffset &&
			math.Abs(prev.EndPosition-cur.StartPosition) < 1e-9 &&
			!prev.IsPoint() && !cur.IsPoint() {
			prev.EndPosition = cur.EndPosition
			continue
		}
		out = append(out, cur)
	}
	for i := range out {
		out[i].Order = i
	}
	t.Aggregations = out
}

// DeletePath removes a path from the network. Topologies referencing it are
// marked degraded: derived fields keep their last computed values, flagged
// stale, until the owning feature is resnapped. The feature itself is never
// deleted by this operation.
func (n *Network) DeletePath(pathID int64) (*MutationResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.paths[pathID]; !ok {
		return nil, fmt.Errorf("%w: id %d", ErrSegmentNotFound, pathID)
	}

	var affected []*models.Topology
	for _, t := range n.topologies {
		if t.References(pathID) {
			t.State = models.StateDegraded
			t.Derived.Stale = true
			t.Dirty = false
			t.UpdatedAt = time.Now()
			affected = append(affected, t)
		}
	}
	delete(n.paths, pathID)

	result := n.commit("delete", nil, []int64{pathID}, affected)
	return result, nil
}

// UpdateGeometry replaces a path's geometry, re-drapes it and marks every
// referencing topology for derived-field recomputation
func (n *Network) UpdateGeometry(pathID int64, line geom.Line) (*MutationResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	p, ok := n.paths[pathID]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrSegmentNotFound, pathID)
	}
	if len(line) < 2 {
		return nil, fmt.Errorf("%w: path geometry needs at least 2 coordinates", ErrNetworkMutation)
	}

	n.applyGeometry(p, line)

	var affected []*models.Topology
	for _, t := range n.topologies {
		if t.References(pathID) && t.State != models.StateDegraded {
			t.Dirty = true
			affected = append(affected, t)
		}
	}

	result := n.commit("update_geometry", []models.Path{*p}, nil, affected)
	return result, nil
}

// rewriteAggregations applies fn to every aggregation referencing pathID and
// returns the affected topologies. Orders renumber sequentially after the
// rewrite. Caller holds the write lock.
func (n *Network) rewriteAggregations(pathID int64, fn func(models.Aggregation) []models.Aggregation) []*models.Topology {
	return n.rewriteAggregations2(pathID, pathID, fn)
}

func (n *Network) rewriteAggregations2(pathA, pathB int64, fn func(models.Aggregation) []models.Aggregation) []*models.Topology {
	var affected []*models.Topology
	for _, t := range n.topologies {
		touched := false
		var rewritten []models.Aggregation
		for _, agg := range t.Aggregations {
			if agg.PathID != pathA && agg.PathID != pathB {
				rewritten = append(rewritten, agg)
				continue
			}
			touched = true
			for _, repl := range fn(agg) {
				if repl.ID == agg.ID && len(rewritten) > 0 && rewritten[len(rewritten)-1].ID == agg.ID {
					// Second half of a split aggregation needs its own id.
					repl.ID = n.nextAggID
					n.nextAggID++
				}
				rewritten = append(rewritten, repl)
			}
		}
		if !touched {
			continue
		}
		for i := range rewritten {
			rewritten[i].Order = i
		}
		t.Aggregations = rewritten
		if t.State != models.StateDegraded {
			t.Dirty = true
		}
		t.UpdatedAt = time.Now()
		affected = append(affected, t)
	}
	return affected
}

// commit records the audit entry and snapshots the result. Caller holds the
// write lock; by the time it runs every staged change is already applied, so
// a reader acquiring the lock next observes the fully-new state.
func (n *Network) commit(op string, paths []models.Path, deleted []int64, affected []*models.Topology) *MutationResult {
	record := MutationRecord{
		ID: uuid.NewString(),
		Op: op,
		At: time.Now(),
	}
	for _, p := range paths {
		record.PathIDs = append(record.PathIDs, p.ID)
	}
	record.PathIDs = append(record.PathIDs, deleted...)

	topologies := make([]models.Topology, 0, len(affected))
	for _, t := range affected {
		record.TopologyIDs = append(record.TopologyIDs, t.ID)
		topologies = append(topologies, snapshotTopology(t))
	}
	n.audit = append(n.audit, record)

	log.Printf("[Propagator] %s committed (mutation=%s, paths=%v, topologies=%v)",
		op, record.ID, record.PathIDs, record.TopologyIDs)

	return &MutationResult{
		Record:         record,
		Paths:          paths,
		DeletedPathIDs: deleted,
		Topologies:     topologies,
	}
}

// AuditTrail returns the mutation records committed since startup
func (n *Network) AuditTrail() []MutationRecord {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]MutationRecord, len(n.audit))
	copy(out, n.audit)
	return out
}
