package altimetry

import (
	"math"

	"github.com/geotrail/trailnet-backend-go/internal/geom"
	"github.com/geotrail/trailnet-backend-go/internal/stats"
)

// ProfilePoint is one sample of an elevation profile: cumulative 2D distance
// from the start of the feature, and the elevation there.
type ProfilePoint struct {
	Distance  float64 `json:"distance"`
	Elevation float64 `json:"elevation"`
}

// ProfileSummary describes the elevation distribution along a profile
type ProfileSummary struct {
	MeanElevation float64 `json:"meanElevation"`
	Median        float64 `json:"median"`
	Quartile1     float64 `json:"q1"`
	Quartile3     float64 `json:"q3"`
}

// ElevationProfile flattens a draped multi-part geometry into distance /
// elevation pairs. Part boundaries continue the cumulative distance, so a
// disjoint topology still yields one monotone profile.
func ElevationProfile(parts []geom.Line) []ProfilePoint {
	var out []ProfilePoint
	var walked float64
	for _, part := range parts {
		for i, p := range part {
			if i > 0 {
				walked += math.Hypot(p.X-part[i-1].X, p.Y-part[i-1].Y)
			}
			out = append(out, ProfilePoint{Distance: walked, Elevation: p.Z})
		}
	}
	return out
}

// Summarize computes distribution statistics over a profile
func Summarize(profile []ProfilePoint) ProfileSummary {
	if len(profile) == 0 {
		return ProfileSummary{}
	}
	elevations := make([]float64, len(profile))
	for i, p := range profile {
		elevations[i] = p.Elevation
	}
	return ProfileSummary{
		MeanElevation: stats.Mean(elevations),
		Median:        stats.Quantile(elevations, 0.5),
		Quartile1:     stats.Quantile(elevations, 0.25),
		Quartile3:     stats.Quantile(elevations, 0.75),
	}
}
