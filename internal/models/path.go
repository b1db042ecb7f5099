package models

import (
	"time"

	"github.com/geotrail/trailnet-backend-go/internal/geom"
)

// Path represents one edge of the trail network graph: a segment with known
// 3D geometry between two intersection nodes. Adjacency is derived from the
// endpoint coordinates, never stored.
type Path struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`

	// Geometry (projected planar meters; Z from the elevation raster)
	Geom geom.Line `json:"geom" db:"geom"`

	// Altimetry fields, recomputed from Geom on every create/edit
	Length2D     float64 `json:"length2d" db:"length_2d"`
	Length3D     float64 `json:"length3d" db:"length_3d"`
	Ascent       float64 `json:"ascent" db:"ascent"`
	Descent      float64 `json:"descent" db:"descent"`
	MinElevation float64 `json:"minElevation" db:"min_elevation"`
	MaxElevation float64 `json:"maxElevation" db:"max_elevation"`
	Slope        float64 `json:"slope" db:"slope"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// StartPoint returns the first coordinate of the path geometry
func (p *Path) StartPoint() geom.Point {
	if len(p.Geom) == 0 {
		return geom.Point{}
	}
	return p.Geom[0]
}

// EndPoint returns the last coordinate of the path geometry
func (p *Path) EndPoint() geom.Point {
	if len(p.Geom) == 0 {
		return geom.Point{}
	}
	return p.Geom[len(p.Geom)-1]
}
