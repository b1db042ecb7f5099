package dem

import "math"

// Sampler provides point access to a digital elevation model. The second
// return value is false when the location falls outside the raster or on a
// NoData cell.
type Sampler interface {
	Sample(x, y float64) (float64, bool)
}

// Interpolation selects how the grid resolves samples between cell centers
type Interpolation int

const (
	Nearest Interpolation = iota
	Bilinear
)

// Grid is an in-memory elevation raster over projected planar coordinates.
// Values are stored row-major with row 0 at the northern (max Y) edge, the
// layout used by ESRI ASCII grids.
type Grid struct {
	originX  float64 // X of the lower-left corner
	originY  float64 // Y of the lower-left corner
	cellSize float64
	cols     int
	rows     int
	nodata   float64
	values   []float64
	interp   Interpolation
}

// NewGrid creates a grid raster from row-major values (row 0 = north edge)
func NewGrid(originX, originY, cellSize float64, cols, rows int, nodata float64, values []float64, interp Interpolation) *Grid {
	return &Grid{
		originX:  originX,
		originY:  originY,
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		nodata:   nodata,
		values:   values,
		interp:   interp,
	}
}

// CellSize returns the raster resolution in meters
func (g *Grid) CellSize() float64 {
	return g.cellSize
}

// at returns the value of cell (col, row) with row 0 at the north edge
func (g *Grid) at(col, row int) (float64, bool) {
	if col < 0 || col >= g.cols || row < 0 || row >= g.rows {
		return 0, false
	}
	v := g.values[row*g.cols+col]
	if v == g.nodata {
		return 0, false
	}
	return v, true
}

// Sample returns the elevation at planar coordinates (x, y)
func (g *Grid) Sample(x, y float64) (float64, bool) {
	// Fractional cell coordinates, measured from the lower-left corner to
	// cell centers.
	fx := (x-g.originX)/g.cellSize - 0.5
	fy := (y-g.originY)/g.cellSize - 0.5

	if g.interp == Nearest {
		return g.nearest(fx, fy)
	}

	col0 := int(fx)
	row0bottom := int(fy)
	if fx < 0 {
		col0--
	}
	if fy < 0 {
		row0bottom--
	}
	tx := fx - float64(col0)
	ty := fy - float64(row0bottom)

	// Convert bottom-up row indices to the stored top-down layout.
	rowLo := g.rows - 1 - row0bottom
	rowHi := rowLo - 1

	v00, ok00 := g.at(col0, rowLo)
	v10, ok10 := g.at(col0+1, rowLo)
	v01, ok01 := g.at(col0, rowHi)
	v11, ok11 := g.at(col0+1, rowHi)

	if ok00 && ok10 && ok01 && ok11 {
		bottom := v00*(1-tx) + v10*tx
		top := v01*(1-tx) + v11*tx
		return bottom*(1-ty) + top*ty, true
	}

	// Any NoData corner degrades to nearest-neighbor.
	return g.nearest(fx, fy)
}

// nearest resolves fractional cell coordinates to the closest cell. Floor
// keeps rounding consistent for negative coordinates, so points just outside
// the west/south edge report NoData instead of clamping onto the edge cell.
func (g *Grid) nearest(fx, fy float64) (float64, bool) {
	col := int(math.Floor(fx + 0.5))
	row := g.rows - 1 - int(math.Floor(fy+0.5))
	return g.at(col, row)
}

// Constant returns a sampler that reports the same elevation everywhere.
// Used when no DEM is configured.
func Constant(elevation float64) Sampler {
	return constantSampler(elevation)
}

type constantSampler float64

func (c constantSampler) Sample(x, y float64) (float64, bool) {
	return float64(c), true
}

// NoData returns a sampler with no coverage at all
func NoData() Sampler {
	return noDataSampler{}
}

type noDataSampler struct{}

func (noDataSampler) Sample(x, y float64) (float64, bool) {
	return 0, false
}
