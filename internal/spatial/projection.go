package spatial

import (
	"math"

	"github.com/golang/geo/s2"
)

// Projection converts between geographic coordinates (lat/lon degrees) and
// local planar coordinates (meters east/north of a fixed origin), using an
// equirectangular approximation scaled at the origin latitude. Adequate for
// the extent of a single trail network; the engine itself only ever sees the
// planar side.
type Projection struct {
	origin s2.LatLng
	cosLat float64
}

// NewProjection creates a projection centered on the given origin
func NewProjection(originLat, originLon float64) *Projection {
	origin := s2.LatLngFromDegrees(originLat, originLon)
	return &Projection{
		origin: origin,
		cosLat: math.Cos(origin.Lat.Radians()),
	}
}

// ToPlanar converts lat/lon degrees to planar meters relative to the origin
func (p *Projection) ToPlanar(lat, lon float64) (x, y float64) {
	ll := s2.LatLngFromDegrees(lat, lon)
	x = (ll.Lng.Radians() - p.origin.Lng.Radians()) * p.cosLat * EarthRadiusMeters
	y = (ll.Lat.Radians() - p.origin.Lat.Radians()) * EarthRadiusMeters
	return x, y
}

// ToGeographic converts planar meters back to lat/lon degrees
func (p *Projection) ToGeographic(x, y float64) (lat, lon float64) {
	latRad := p.origin.Lat.Radians() + y/EarthRadiusMeters
	lonRad := p.origin.Lng.Radians()
	if p.cosLat != 0 {
		lonRad += x / (p.cosLat * EarthRadiusMeters)
	}
	return latRad * 180 / math.Pi, lonRad * 180 / math.Pi
}
