package overlap

import (
	"sort"

	"github.com/geotrail/trailnet-backend-go/internal/models"
)

// Feature-type relationship helpers. These are the read-only derived
// accessors topology-bearing entities gain without modifying their own
// definition: free functions over HasTopology and the index.

// TreksOn returns treks related to the reference feature
func TreksOn(ix *Index, eng Engine, candidates []models.Feature, ref HasTopology, publishedOnly bool) ([]int64, error) {
	ids, err := ix.Overlapping(eng, candidates, ref, Query{
		FeatureType:   models.FeatureTrek,
		PublishedOnly: publishedOnly,
	})
	return sorted(ids), err
}

// POIsOn returns POIs on or near the reference feature. POIs are point
// features: proximity uses the buffered predicate in both modes.
func POIsOn(ix *Index, eng Engine, candidates []models.Feature, ref HasTopology, publishedOnly bool) ([]int64, error) {
	ids, err := ix.Near(eng, candidates, ref, Query{
		FeatureType:   models.FeaturePOI,
		PublishedOnly: publishedOnly,
	})
	return sorted(ids), err
}

// ServicesOn returns services near the reference feature, restricted to the
// given practice when non-empty (a trek only lists services matching its
// practice)
func ServicesOn(ix *Index, eng Engine, candidates []models.Feature, ref HasTopology, practice string, publishedOnly bool) ([]int64, error) {
	ids, err := ix.Near(eng, candidates, ref, Query{
		FeatureType:   models.FeatureService,
		PublishedOnly: publishedOnly,
		Practice:      practice,
	})
	return sorted(ids), err
}

// SignagesOn returns signage near the reference feature
func SignagesOn(ix *Index, eng Engine, candidates []models.Feature, ref HasTopology) ([]int64, error) {
	ids, err := ix.Near(eng, candidates, ref, Query{FeatureType: models.FeatureSignage})
	return sorted(ids), err
}

// sorted keeps results deterministic regardless of candidate order
func sorted(ids []int64) []int64 {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
