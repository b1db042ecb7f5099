package altimetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geotrail/trailnet-backend-go/internal/dem"
	"github.com/geotrail/trailnet-backend-go/internal/geom"
)

type samplerFunc func(x, y float64) (float64, bool)

func (f samplerFunc) Sample(x, y float64) (float64, bool) { return f(x, y) }

func flatLine(length float64) geom.Line {
	return geom.Line{{X: 0, Y: 0}, {X: length, Y: 0}}
}

func TestDrapeFlat(t *testing.T) {
	p := Drape(flatLine(100), dem.Constant(50), 25)

	assert.InDelta(t, 100.0, p.Length2D, 1e-9)
	assert.InDelta(t, 100.0, p.Length3D, 1e-9)
	assert.Equal(t, 0.0, p.Ascent)
	assert.Equal(t, 0.0, p.Descent)
	assert.Equal(t, 50.0, p.MinElevation)
	assert.Equal(t, 50.0, p.MaxElevation)
	assert.Equal(t, 0.0, p.Slope)
	assert.False(t, p.AllNoData)
	for _, pt := range p.Geom3D {
		assert.Equal(t, 50.0, pt.Z)
	}
}

func TestDrapeRamp(t *testing.T) {
	ramp := samplerFunc(func(x, y float64) (float64, bool) { return x / 10, true })
	p := Drape(flatLine(100), ramp, 25)

	assert.InDelta(t, 10.0, p.Ascent, 1e-9)
	assert.Equal(t, 0.0, p.Descent)
	assert.InDelta(t, 0.0, p.MinElevation, 1e-9)
	assert.InDelta(t, 10.0, p.MaxElevation, 1e-9)
	assert.InDelta(t, 0.1, p.Slope, 1e-9)
	assert.Greater(t, p.Length3D, p.Length2D)
}

func TestDrapeDensifies(t *testing.T) {
	p := Drape(flatLine(100), dem.Constant(0), 25)
	assert.Len(t, p.Geom3D, 5)
}

func TestDrapeNoDataCarryForward(t *testing.T) {
	ramp := samplerFunc(func(x, y float64) (float64, bool) {
		if x == 50 {
			return 0, false
		}
		return x / 10, true
	})
	p := Drape(flatLine(100), ramp, 25)

	require.Len(t, p.Geom3D, 5)
	// The gap at x=50 takes the last valid elevation
	assert.Equal(t, 2.5, p.Geom3D[2].Z)
	// NoData samples do not contribute to ascent
	assert.InDelta(t, 10.0, p.Ascent, 1e-9)
	assert.False(t, p.AllNoData)
}

func TestDrapeLeadingNoData(t *testing.T) {
	ramp := samplerFunc(func(x, y float64) (float64, bool) {
		if x < 40 {
			return 0, false
		}
		return x / 10, true
	})
	p := Drape(flatLine(100), ramp, 25)

	// Leading gap takes the first valid sample
	assert.Equal(t, 5.0, p.Geom3D[0].Z)
	assert.Equal(t, 5.0, p.Geom3D[1].Z)
	assert.InDelta(t, 5.0, p.Ascent, 1e-9)
	assert.InDelta(t, 5.0, p.MinElevation, 1e-9)
}

func TestDrapeAllNoData(t *testing.T) {
	p := Drape(flatLine(100), dem.NoData(), 25)

	assert.True(t, p.AllNoData)
	assert.InDelta(t, 100.0, p.Length2D, 1e-9)
	assert.Equal(t, 0.0, p.Length3D)
	assert.Equal(t, 0.0, p.Ascent)
	assert.Equal(t, 0.0, p.Descent)
	for _, pt := range p.Geom3D {
		assert.Equal(t, 0.0, pt.Z)
	}
}

func TestDrapeDegenerate(t *testing.T) {
	p := Drape(geom.Line{{X: 10, Y: 10}}, dem.Constant(30), 25)

	require.Len(t, p.Geom3D, 1)
	assert.Equal(t, 30.0, p.Geom3D[0].Z)
	assert.Equal(t, 0.0, p.Length2D)
	assert.Equal(t, 0.0, p.Ascent)
	assert.False(t, p.AllNoData)

	empty := Drape(nil, dem.Constant(30), 25)
	assert.True(t, empty.AllNoData)
}

func TestDrapeDeterministic(t *testing.T) {
	ramp := samplerFunc(func(x, y float64) (float64, bool) { return x/10 + y/20, true })
	l := geom.Line{{X: 0, Y: 0}, {X: 60, Y: 40}, {X: 120, Y: 0}}

	a := Drape(l, ramp, 25)
	b := Drape(l, ramp, 25)
	assert.Equal(t, a, b)
}

func TestCombine(t *testing.T) {
	a := Drape(flatLine(100), dem.Constant(50), 25)
	b := Drape(flatLine(60), dem.Constant(100), 25)

	out := Combine([]Profile{a, b})
	assert.InDelta(t, 160.0, out.Length2D, 1e-9)
	assert.InDelta(t, 160.0, out.Length3D, 1e-9)
	assert.Equal(t, 50.0, out.MinElevation)
	assert.Equal(t, 100.0, out.MaxElevation)
	assert.InDelta(t, 50.0/160.0, out.Slope, 1e-9)
	assert.False(t, out.AllNoData)
}

func TestCombineAllNoData(t *testing.T) {
	a := Drape(flatLine(100), dem.NoData(), 25)
	out := Combine([]Profile{a})

	assert.True(t, out.AllNoData)
	assert.Equal(t, 0.0, out.MinElevation)
	assert.Equal(t, 0.0, out.MaxElevation)
	assert.InDelta(t, 100.0, out.Length2D, 1e-9)
}

func TestCombinePartialNoData(t *testing.T) {
	a := Drape(flatLine(100), dem.NoData(), 25)
	b := Drape(flatLine(60), dem.Constant(80), 25)

	out := Combine([]Profile{a, b})
	assert.False(t, out.AllNoData)
	assert.Equal(t, 80.0, out.MinElevation)
	assert.Equal(t, 80.0, out.MaxElevation)
	assert.InDelta(t, 160.0, out.Length2D, 1e-9)
}
