package altimetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geotrail/trailnet-backend-go/internal/geom"
)

func TestElevationProfile(t *testing.T) {
	parts := []geom.Line{
		{{X: 0, Y: 0, Z: 100}, {X: 100, Y: 0, Z: 150}},
		{{X: 500, Y: 0, Z: 150}, {X: 560, Y: 0, Z: 120}},
	}

	profile := ElevationProfile(parts)
	require.Len(t, profile, 4)

	assert.Equal(t, ProfilePoint{Distance: 0, Elevation: 100}, profile[0])
	assert.Equal(t, ProfilePoint{Distance: 100, Elevation: 150}, profile[1])
	// The gap between parts adds no distance
	assert.Equal(t, ProfilePoint{Distance: 100, Elevation: 150}, profile[2])
	assert.Equal(t, ProfilePoint{Distance: 160, Elevation: 120}, profile[3])
}

func TestElevationProfileEmpty(t *testing.T) {
	assert.Empty(t, ElevationProfile(nil))
	assert.Empty(t, ElevationProfile([]geom.Line{{}}))
}

func TestSummarize(t *testing.T) {
	profile := []ProfilePoint{
		{Distance: 0, Elevation: 100},
		{Distance: 10, Elevation: 200},
		{Distance: 20, Elevation: 300},
		{Distance: 30, Elevation: 400},
		{Distance: 40, Elevation: 500},
	}

	s := Summarize(profile)
	assert.InDelta(t, 300.0, s.MeanElevation, 1e-9)
	assert.InDelta(t, 300.0, s.Median, 1e-9)
	assert.InDelta(t, 200.0, s.Quartile1, 1e-9)
	assert.InDelta(t, 400.0, s.Quartile3, 1e-9)

	assert.Equal(t, ProfileSummary{}, Summarize(nil))
}
