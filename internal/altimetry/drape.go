// Package altimetry derives 3D geometry and elevation metrics from 2D
// geometry and an elevation raster. Drape is a pure function: identical
// (geometry, raster, step) inputs always produce identical output, which the
// topology derived-field cache relies on.
package altimetry

import (
	"math"

	"github.com/geotrail/trailnet-backend-go/internal/dem"
	"github.com/geotrail/trailnet-backend-go/internal/geom"
)

// Profile holds the 3D geometry and scalar metrics derived from a 2D line
type Profile struct {
	Geom3D       geom.Line `json:"geom3d"`
	Length2D     float64   `json:"length2d"`
	Length3D     float64   `json:"length3d"`
	Ascent       float64   `json:"ascent"`
	Descent      float64   `json:"descent"`
	MinElevation float64   `json:"minElevation"`
	MaxElevation float64   `json:"maxElevation"`
	Slope        float64   `json:"slope"`

	// AllNoData is set when every sample along the line fell on NoData.
	// Metrics are all zero in that case; the caller surfaces it as a
	// warning, not a failure.
	AllNoData bool `json:"allNoData,omitempty"`
}

// Drape samples the raster along the line and returns the 3D line plus
// metrics. The line is densified so that no chord exceeds maxStep meters
// before sampling; NoData samples carry the last valid elevation forward so
// polyline continuity is preserved, and are excluded from ascent/descent
// accumulation.
func Drape(line geom.Line, sampler dem.Sampler, maxStep float64) Profile {
	if len(line) == 0 {
		return Profile{AllNoData: true}
	}

	length2D := line.Length2D()
	if len(line) < 2 || length2D == 0 {
		// Degenerate input: lift to a constant elevation, all metrics zero.
		z, ok := sample(sampler, line[0])
		out := make(geom.Line, len(line))
		for i, p := range line {
			out[i] = geom.Point{X: p.X, Y: p.Y, Z: z}
		}
		return Profile{Geom3D: out, AllNoData: !ok}
	}

	dense := line.Densify(maxStep)
	geom3D := make(geom.Line, len(dense))
	valid := make([]bool, len(dense))

	anyValid := false
	firstValid := 0.0
	for i, p := range dense {
		z, ok := sample(sampler, p)
		geom3D[i] = geom.Point{X: p.X, Y: p.Y, Z: z}
		valid[i] = ok
		if ok && !anyValid {
			anyValid = true
			firstValid = z
		}
	}

	if !anyValid {
		for i := range geom3D {
			geom3D[i].Z = 0
		}
		return Profile{Geom3D: geom3D, Length2D: length2D, AllNoData: true}
	}

	// Carry elevations across NoData gaps: leading gaps take the first
	// valid sample, interior/trailing gaps the last one.
	last := firstValid
	for i := range geom3D {
		if valid[i] {
			last = geom3D[i].Z
		} else {
			geom3D[i].Z = last
		}
	}

	p := Profile{
		Geom3D:       geom3D,
		Length2D:     length2D,
		Length3D:     geom3D.Length3D(),
		MinElevation: math.Inf(1),
		MaxElevation: math.Inf(-1),
	}

	prev := math.NaN()
	for i := range geom3D {
		if !valid[i] {
			continue
		}
		z := geom3D[i].Z
		if z < p.MinElevation {
			p.MinElevation = z
		}
		if z > p.MaxElevation {
			p.MaxElevation = z
		}
		if !math.IsNaN(prev) {
			delta := z - prev
			if delta > 0 {
				p.Ascent += delta
			} else {
				p.Descent += -delta
			}
		}
		prev = z
	}

	if p.Length2D > 0 {
		p.Slope = (p.MaxElevation - p.MinElevation) / p.Length2D
	}
	return p
}

// Combine merges per-part profiles of a multi-part geometry into one.
// Lengths and ascent/descent sum; elevation extrema span all parts; slope is
// recomputed over the combined extent.
func Combine(parts []Profile) Profile {
	var out Profile
	out.MinElevation = math.Inf(1)
	out.MaxElevation = math.Inf(-1)
	out.AllNoData = true

	anyElevation := false
	for _, part := range parts {
		out.Length2D += part.Length2D
		out.Length3D += part.Length3D
		out.Ascent += part.Ascent
		out.Descent += part.Descent
		if !part.AllNoData {
			out.AllNoData = false
			anyElevation = true
			if part.MinElevation < out.MinElevation {
				out.MinElevation = part.MinElevation
			}
			if part.MaxElevation > out.MaxElevation {
				out.MaxElevation = part.MaxElevation
			}
		}
	}

	if !anyElevation {
		out.MinElevation = 0
		out.MaxElevation = 0
		out.Ascent = 0
		out.Descent = 0
		return out
	}
	if out.Length2D > 0 {
		out.Slope = (out.MaxElevation - out.MinElevation) / out.Length2D
	}
	return out
}

func sample(sampler dem.Sampler, p geom.Point) (float64, bool) {
	if sampler == nil {
		return 0, false
	}
	return sampler.Sample(p.X, p.Y)
}
