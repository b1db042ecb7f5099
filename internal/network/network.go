// Package network implements the topology / linear referencing engine: the
// path graph, topology derivation, and the mutation operations that keep
// aggregations consistent as the graph changes.
package network

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/geotrail/trailnet-backend-go/internal/altimetry"
	"github.com/geotrail/trailnet-backend-go/internal/dem"
	"github.com/geotrail/trailnet-backend-go/internal/geom"
	"github.com/geotrail/trailnet-backend-go/internal/models"
)

// nodeEpsilon is the coordinate quantum (meters) within which two path
// endpoints are considered the same intersection node.
const nodeEpsilon = 0.001

// NodeKey identifies an intersection node by quantized planar coordinates
type NodeKey struct {
	X int64
	Y int64
}

// Network is the shared mutable state of the engine: every path segment and
// every topology, guarded by one RWMutex. Mutations are serialized; reads of
// derived state take the read lock and never observe a partial rewrite.
type Network struct {
	mu sync.RWMutex

	paths      map[int64]*models.Path
	topologies map[int64]*models.Topology

	sampler    dem.Sampler
	sampleStep float64

	nextPathID int64
	nextTopoID int64
	nextAggID  int64

	audit []MutationRecord
}

// New creates an empty network draping geometry against the given sampler.
// sampleStep is the densification interval for elevation sampling (meters).
func New(sampler dem.Sampler, sampleStep float64) *Network {
	return &Network{
		paths:      make(map[int64]*models.Path),
		topologies: make(map[int64]*models.Topology),
		sampler:    sampler,
		sampleStep: sampleStep,
		nextPathID: 1,
		nextTopoID: 1,
		nextAggID:  1,
	}
}

// Load replaces the engine state with persisted records, typically at
// startup. Derived caches are marked dirty so they recompute against the
// current raster on first read.
func (n *Network) Load(paths []models.Path, topologies []models.Topology) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.paths = make(map[int64]*models.Path, len(paths))
	for i := range paths {
		p := paths[i]
		n.paths[p.ID] = &p
		if p.ID >= n.nextPathID {
			n.nextPathID = p.ID + 1
		}
	}

	n.topologies = make(map[int64]*models.Topology, len(topologies))
	for i := range topologies {
		t := topologies[i]
		if t.State != models.StateDegraded {
			t.Dirty = true
		}
		n.topologies[t.ID] = &t
		if t.ID >= n.nextTopoID {
			n.nextTopoID = t.ID + 1
		}
		for _, agg := range t.Aggregations {
			if agg.ID >= n.nextAggID {
				n.nextAggID = agg.ID + 1
			}
		}
	}
}

// AddPath creates a path segment from 2D geometry, drapes it against the
// raster and computes its altimetry fields.
func (n *Network) AddPath(name string, line geom.Line) (models.Path, error) {
	if len(line) < 2 {
		return models.Path{}, fmt.Errorf("%w: path geometry needs at least 2 coordinates", ErrNetworkMutation)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	p := &models.Path{
		ID:        n.nextPathID,
		Name:      name,
		CreatedAt: time.Now(),
	}
	n.nextPathID++
	n.applyGeometry(p, line)
	n.paths[p.ID] = p
	return *p, nil
}

// applyGeometry drapes a 2D line and writes geometry + altimetry fields.
// Caller holds the write lock.
func (n *Network) applyGeometry(p *models.Path, line geom.Line) {
	profile := altimetry.Drape(line, n.sampler, n.sampleStep)
	p.Geom = profile.Geom3D
	p.Length2D = profile.Length2D
	p.Length3D = profile.Length3D
	p.Ascent = profile.Ascent
	p.Descent = profile.Descent
	p.MinElevation = profile.MinElevation
	p.MaxElevation = profile.MaxElevation
	p.Slope = profile.Slope
	if profile.AllNoData {
		p.MinElevation = 0
		p.MaxElevation = 0
	}
	p.UpdatedAt = time.Now()
}

// Path returns a snapshot of the path with the given id
func (n *Network) Path(id int64) (models.Path, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	p, ok := n.paths[id]
	if !ok {
		return models.Path{}, false
	}
	return *p, true
}

// Paths returns snapshots of all path segments
func (n *Network) Paths() []models.Path {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]models.Path, 0, len(n.paths))
	for _, p := range n.paths {
		out = append(out, *p)
	}
	return out
}

// Topology returns a snapshot of the topology with the given id
func (n *Network) Topology(id int64) (models.Topology, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	t, ok := n.topologies[id]
	if !ok {
		return models.Topology{}, false
	}
	return snapshotTopology(t), true
}

// Topologies returns snapshots of all topologies
func (n *Network) Topologies() []models.Topology {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]models.Topology, 0, len(n.topologies))
	for _, t := range n.topologies {
		out = append(out, snapshotTopology(t))
	}
	return out
}

// snapshotTopology copies a topology for release outside the lock. Slices in
// DerivedFields are shared: derivation replaces them wholesale and never
// mutates them in place.
func snapshotTopology(t *models.Topology) models.Topology {
	out := *t
	out.Aggregations = make([]models.Aggregation, len(t.Aggregations))
	copy(out.Aggregations, t.Aggregations)
	return out
}

// NodeKeyOf quantizes a coordinate to its intersection-node key
func NodeKeyOf(p geom.Point) NodeKey {
	return NodeKey{
		X: int64(math.Round(p.X / nodeEpsilon)),
		Y: int64(math.Round(p.Y / nodeEpsilon)),
	}
}

// PathsTouching returns the paths having an endpoint at the given node
func (n *Network) PathsTouching(node geom.Point) []models.Path {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.pathsTouchingLocked(NodeKeyOf(node), -1)
}

// pathsTouchingLocked lists paths with an endpoint at key, excluding the
// path with id exclude. Caller holds a lock.
func (n *Network) pathsTouchingLocked(key NodeKey, exclude int64) []models.Path {
	var out []models.Path
	for _, p := range n.paths {
		if p.ID == exclude {
			continue
		}
		if NodeKeyOf(p.StartPoint()) == key || NodeKeyOf(p.EndPoint()) == key {
			out = append(out, *p)
		}
	}
	return out
}
