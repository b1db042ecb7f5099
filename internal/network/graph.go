package network

import (
	"container/heap"

	"github.com/geotrail/trailnet-backend-go/internal/models"
)

// PathsWithinNetworkDistance returns the ids of every path reachable from
// the given seed paths by walking the graph, accumulating at most maxDist
// meters of 2D path length beyond the seeds. The seeds themselves are always
// included.
func (n *Network) PathsWithinNetworkDistance(seedPathIDs []int64, maxDist float64) map[int64]bool {
	n.mu.RLock()
	defer n.mu.RUnlock()

	reached := make(map[int64]bool)
	dist := make(map[NodeKey]float64)
	pq := &nodeQueue{}
	heap.Init(pq)

	push := func(key NodeKey, d float64) {
		if prev, ok := dist[key]; !ok || d < prev {
			dist[key] = d
			heap.Push(pq, nodeItem{key: key, dist: d})
		}
	}

	for _, id := range seedPathIDs {
		p, ok := n.paths[id]
		if !ok {
			continue
		}
		reached[id] = true
		push(NodeKeyOf(p.StartPoint()), 0)
		push(NodeKeyOf(p.EndPoint()), 0)
	}

	for pq.Len() > 0 {
		item := heap.Pop(pq).(nodeItem)
		if item.dist > dist[item.key] {
			continue
		}
		for _, p := range n.pathsTouchingLocked(item.key, -1) {
			if item.dist <= maxDist {
				reached[p.ID] = true
			}
			next := item.dist + p.Length2D
			if next > maxDist {
				continue
			}
			far := farEndKey(&p, item.key)
			push(far, next)
		}
	}
	return reached
}

func farEndKey(p *models.Path, from NodeKey) NodeKey {
	start := NodeKeyOf(p.StartPoint())
	if start == from {
		return NodeKeyOf(p.EndPoint())
	}
	return start
}

type nodeItem struct {
	key  NodeKey
	dist float64
}

type nodeQueue []nodeItem

func (q nodeQueue) Len() int            { return len(q) }
func (q nodeQueue) Less(i, j int) bool  { return q[i].dist < q[j].dist }
func (q nodeQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x interface{}) { *q = append(*q, x.(nodeItem)) }
func (q *nodeQueue) Pop() interface{} {
	old := *q
	item := old[len(old)-1]
	*q = old[:len(old)-1]
	return item
}
