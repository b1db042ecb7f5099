package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geotrail/trailnet-backend-go/internal/models"
)

func TestSplitGeometry(t *testing.T) {
	n := newTestNetwork()
	p := addPath(t, n, "p", straight(0, 0, 100, 0))

	res, err := n.Split(p.ID, 0.3)
	require.NoError(t, err)
	require.Len(t, res.Paths, 2)

	a, b := res.Paths[0], res.Paths[1]
	assert.Equal(t, p.ID, a.ID) // first half keeps the original id
	assert.InDelta(t, 30.0, a.Length2D, 1e-9)
	assert.InDelta(t, 70.0, b.Length2D, 1e-9)
	assert.InDelta(t, 30.0, a.EndPoint().X, 1e-9)
	assert.InDelta(t, 30.0, b.StartPoint().X, 1e-9)
	assert.Equal(t, p.Name, b.Name)
}

func TestSplitRescalesSpanningAggregation(t *testing.T) {
	n := newTestNetwork()
	p := addPath(t, n, "p", straight(0, 0, 100, 0))
	topo, err := n.CreateTopology(models.KindLine, 0, []models.Aggregation{agg(p.ID, 0.2, 0.8, 0)})
	require.NoError(t, err)

	res, err := n.Split(p.ID, 0.3)
	require.NoError(t, err)
	aID, bID := res.Paths[0].ID, res.Paths[1].ID

	got, ok := n.Topology(topo.ID)
	require.True(t, ok)
	require.Len(t, got.Aggregations, 2)

	first, second := got.Aggregations[0], got.Aggregations[1]
	assert.Equal(t, aID, first.PathID)
	assert.InDelta(t, 0.2/0.3, first.StartPosition, 1e-9)
	assert.Equal(t, 1.0, first.EndPosition)
	assert.Equal(t, 0, first.Order)

	assert.Equal(t, bID, second.PathID)
	assert.Equal(t, 0.0, second.StartPosition)
	assert.InDelta(t, 0.5/0.7, second.EndPosition, 1e-9)
	assert.Equal(t, 1, second.Order)
	assert.NotEqual(t, first.ID, second.ID)

	// The covered extent is unchanged
	derived, state, err := n.Derived(topo.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateValid, state)
	assert.InDelta(t, 60.0, derived.Length2D, 1e-9)
	assert.Len(t, derived.Geom2D, 1)
}

func TestSplitAggregationOnOneSide(t *testing.T) {
	n := newTestNetwork()
	p := addPath(t, n, "p", straight(0, 0, 100, 0))
	topo, err := n.CreateTopology(models.KindLine, 0, []models.Aggregation{agg(p.ID, 0.5, 0.9, 0)})
	require.NoError(t, err)

	res, err := n.Split(p.ID, 0.3)
	require.NoError(t, err)
	bID := res.Paths[1].ID

	got, _ := n.Topology(topo.ID)
	require.Len(t, got.Aggregations, 1)
	assert.Equal(t, bID, got.Aggregations[0].PathID)
	assert.InDelta(t, 0.2/0.7, got.Aggregations[0].StartPosition, 1e-9)
	assert.InDelta(t, 0.6/0.7, got.Aggregations[0].EndPosition, 1e-9)
}

func TestSplitReversedSpanningAggregation(t *testing.T) {
	n := newTestNetwork()
	p := addPath(t, n, "p", straight(0, 0, 100, 0))
	topo, err := n.CreateTopology(models.KindLine, 0, []models.Aggregation{agg(p.ID, 0.8, 0.2, 0)})
	require.NoError(t, err)

	res, err := n.Split(p.ID, 0.5)
	require.NoError(t, err)
	aID, bID := res.Paths[0].ID, res.Paths[1].ID

	got, _ := n.Topology(topo.ID)
	require.Len(t, got.Aggregations, 2)

	// Traversal order preserved: second half of the original path first
	first, second := got.Aggregations[0], got.Aggregations[1]
	assert.Equal(t, bID, first.PathID)
	assert.InDelta(t, 0.6, first.StartPosition, 1e-9)
	assert.Equal(t, 0.0, first.EndPosition)
	assert.Equal(t, aID, second.PathID)
	assert.Equal(t, 1.0, second.StartPosition)
	assert.InDelta(t, 0.4, second.EndPosition, 1e-9)

	derived, _, err := n.Derived(topo.ID)
	require.NoError(t, err)
	assert.InDelta(t, 60.0, derived.Length2D, 1e-9)
}

func TestSplitInvalidPosition(t *testing.T) {
	n := newTestNetwork()
	p := addPath(t, n, "p", straight(0, 0, 100, 0))

	for _, at := range []float64{0, 1, -0.5, 1.5} {
		_, err := n.Split(p.ID, at)
		assert.ErrorIs(t, err, ErrNetworkMutation)
	}

	_, err := n.Split(99, 0.5)
	assert.ErrorIs(t, err, ErrSegmentNotFound)
}

func TestMergeRestoresSplitTopology(t *testing.T) {
	n := newTestNetwork()
	p := addPath(t, n, "p", straight(0, 0, 100, 0))
	topo, err := n.CreateTopology(models.KindLine, 0, []models.Aggregation{agg(p.ID, 0.2, 0.8, 0)})
	require.NoError(t, err)

	res, err := n.Split(p.ID, 0.3)
	require.NoError(t, err)
	aID, bID := res.Paths[0].ID, res.Paths[1].ID

	merged, err := n.Merge(aID, bID)
	require.NoError(t, err)
	require.Len(t, merged.Paths, 1)
	assert.Equal(t, aID, merged.Paths[0].ID)
	assert.InDelta(t, 100.0, merged.Paths[0].Length2D, 1e-9)
	assert.Equal(t, []int64{bID}, merged.DeletedPathIDs)

	// Contiguous halves coalesce back into one aggregation
	got, _ := n.Topology(topo.ID)
	require.Len(t, got.Aggregations, 1)
	assert.Equal(t, aID, got.Aggregations[0].PathID)
	assert.InDelta(t, 0.2, got.Aggregations[0].StartPosition, 1e-9)
	assert.InDelta(t, 0.8, got.Aggregations[0].EndPosition, 1e-9)

	derived, state, err := n.Derived(topo.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateValid, state)
	assert.InDelta(t, 60.0, derived.Length2D, 1e-9)
}

func TestMergeOpposingDirections(t *testing.T) {
	n := newTestNetwork()
	a := addPath(t, n, "a", straight(0, 0, 30, 0))
	b := addPath(t, n, "b", straight(100, 0, 30, 0)) // drawn toward the shared node

	topo, err := n.CreateTopology(models.KindLine, 0, []models.Aggregation{agg(b.ID, 0, 1, 0)})
	require.NoError(t, err)

	res, err := n.Merge(a.ID, b.ID)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, res.Paths[0].Length2D, 1e-9)

	// B gets reversed into the merged orientation, so its [0,1] range lands
	// on [1, 0.3] of the merged path.
	got, _ := n.Topology(topo.ID)
	require.Len(t, got.Aggregations, 1)
	assert.Equal(t, a.ID, got.Aggregations[0].PathID)
	assert.InDelta(t, 1.0, got.Aggregations[0].StartPosition, 1e-9)
	assert.InDelta(t, 0.3, got.Aggregations[0].EndPosition, 1e-9)

	derived, _, err := n.Derived(topo.ID)
	require.NoError(t, err)
	assert.InDelta(t, 70.0, derived.Length2D, 1e-9)
}

func TestMergeRejectsDivergentBranch(t *testing.T) {
	n := newTestNetwork()
	a := addPath(t, n, "a", straight(0, 0, 100, 0))
	b := addPath(t, n, "b", straight(100, 0, 200, 0))
	addPath(t, n, "branch", straight(100, 0, 100, 100))

	_, err := n.Merge(a.ID, b.ID)
	assert.ErrorIs(t, err, ErrNetworkMutation)
}

func TestMergeRejectsDisjointPaths(t *testing.T) {
	n := newTestNetwork()
	a := addPath(t, n, "a", straight(0, 0, 100, 0))
	b := addPath(t, n, "b", straight(500, 0, 600, 0))

	_, err := n.Merge(a.ID, b.ID)
	assert.ErrorIs(t, err, ErrNetworkMutation)

	_, err = n.Merge(a.ID, a.ID)
	assert.ErrorIs(t, err, ErrNetworkMutation)

	_, err = n.Merge(a.ID, 99)
	assert.ErrorIs(t, err, ErrSegmentNotFound)
}

func TestDeletePathDegradesTopology(t *testing.T) {
	n := newTestNetwork()
	p1 := addPath(t, n, "p1", straight(0, 0, 100, 0))
	p2 := addPath(t, n, "p2", straight(0, 0, 200, 0))

	topo, err := n.CreateTopology(models.KindLine, 0, []models.Aggregation{agg(p1.ID, 0, 1, 0)})
	require.NoError(t, err)

	res, err := n.DeletePath(p1.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{p1.ID}, res.DeletedPathIDs)
	require.Len(t, res.Topologies, 1)
	assert.Equal(t, models.StateDegraded, res.Topologies[0].State)

	// Last computed values survive, flagged stale
	derived, state, err := n.Derived(topo.ID)
	assert.ErrorIs(t, err, ErrTopologyDegraded)
	assert.Equal(t, models.StateDegraded, state)
	assert.True(t, derived.Stale)
	assert.InDelta(t, 100.0, derived.Length2D, 1e-9)

	// Resnapping is the only way back to valid
	moved, err := n.Resnap(topo.ID, []models.Aggregation{agg(p2.ID, 0, 1, 0)})
	require.NoError(t, err)
	assert.Equal(t, models.StateValid, moved.State)

	derived, state, err = n.Derived(topo.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateValid, state)
	assert.False(t, derived.Stale)
	assert.InDelta(t, 200.0, derived.Length2D, 1e-9)
}

func TestDeletePathUnknown(t *testing.T) {
	n := newTestNetwork()
	_, err := n.DeletePath(42)
	assert.ErrorIs(t, err, ErrSegmentNotFound)
}

func TestUpdateGeometryMarksDirty(t *testing.T) {
	n := newTestNetwork()
	p := addPath(t, n, "p", straight(0, 0, 100, 0))
	topo, err := n.CreateTopology(models.KindLine, 0, []models.Aggregation{agg(p.ID, 0, 1, 0)})
	require.NoError(t, err)

	res, err := n.UpdateGeometry(p.ID, straight(0, 0, 200, 0))
	require.NoError(t, err)
	assert.InDelta(t, 200.0, res.Paths[0].Length2D, 1e-9)

	derived, _, err := n.Derived(topo.ID)
	require.NoError(t, err)
	assert.InDelta(t, 200.0, derived.Length2D, 1e-9)
}

func TestUpdateGeometryValidation(t *testing.T) {
	n := newTestNetwork()
	p := addPath(t, n, "p", straight(0, 0, 100, 0))

	_, err := n.UpdateGeometry(99, straight(0, 0, 1, 0))
	assert.ErrorIs(t, err, ErrSegmentNotFound)

	_, err = n.UpdateGeometry(p.ID, nil)
	assert.ErrorIs(t, err, ErrNetworkMutation)
}

func TestAuditTrail(t *testing.T) {
	n := newTestNetwork()
	p := addPath(t, n, "p", straight(0, 0, 100, 0))

	_, err := n.Split(p.ID, 0.5)
	require.NoError(t, err)
	res, err := n.DeletePath(p.ID)
	require.NoError(t, err)

	trail := n.AuditTrail()
	require.Len(t, trail, 2)
	assert.Equal(t, "split", trail[0].Op)
	assert.Equal(t, "delete", trail[1].Op)
	assert.NotEmpty(t, trail[0].ID)
	assert.NotEqual(t, trail[0].ID, trail[1].ID)
	assert.Equal(t, res.Record.ID, trail[1].ID)
}
