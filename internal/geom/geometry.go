package geom

import (
	"math"
)

// Point represents a 3D point in projected planar coordinates (meters).
// Z carries the sampled elevation; it is 0 for geometry that has not been
// draped against the elevation raster yet.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Line represents an ordered polyline of 3D points.
type Line []Point

// Length2D calculates the planar length of the line in meters
func (l Line) Length2D() float64 {
	var total float64
	for i := 1; i < len(l); i++ {
		total += math.Hypot(l[i].X-l[i-1].X, l[i].Y-l[i-1].Y)
	}
	return total
}

// Length3D calculates the length of the line including elevation deltas
func (l Line) Length3D() float64 {
	var total float64
	for i := 1; i < len(l); i++ {
		dx := l[i].X - l[i-1].X
		dy := l[i].Y - l[i-1].Y
		dz := l[i].Z - l[i-1].Z
		total += math.Sqrt(dx*dx + dy*dy + dz*dz)
	}
	return total
}

// Clone returns a deep copy of the line
func (l Line) Clone() Line {
	out := make(Line, len(l))
	copy(out, l)
	return out
}

// Reverse returns the line with vertex order inverted
func (l Line) Reverse() Line {
	out := make(Line, len(l))
	for i, p := range l {
		out[len(l)-1-i] = p
	}
	return out
}

// Interpolate returns the point at fractional position t (by 2D arc length).
// t is clamped to [0, 1].
func (l Line) Interpolate(t float64) Point {
	if len(l) == 0 {
		return Point{}
	}
	if len(l) == 1 || t <= 0 {
		return l[0]
	}
	if t >= 1 {
		return l[len(l)-1]
	}

	target := t * l.Length2D()
	var walked float64
	for i := 1; i < len(l); i++ {
		seg := math.Hypot(l[i].X-l[i-1].X, l[i].Y-l[i-1].Y)
		if walked+seg >= target {
			if seg == 0 {
				return l[i-1]
			}
			f := (target - walked) / seg
			return Point{
				X: l[i-1].X + f*(l[i].X-l[i-1].X),
				Y: l[i-1].Y + f*(l[i].Y-l[i-1].Y),
				Z: l[i-1].Z + f*(l[i].Z-l[i-1].Z),
			}
		}
		walked += seg
	}
	return l[len(l)-1]
}

// Substring extracts the sub-line between fractional positions from and to
// (by 2D arc length). When from > to the result is returned in reversed
// direction. When from == to the result is a single-point line.
func (l Line) Substring(from, to float64) Line {
	if len(l) < 2 {
		return l.Clone()
	}

	reversed := false
	if from > to {
		from, to = to, from
		reversed = true
	}
	from = clamp01(from)
	to = clamp01(to)

	if from == to {
		return Line{l.Interpolate(from)}
	}

	total := l.Length2D()
	start := from * total
	end := to * total

	out := Line{l.Interpolate(from)}
	var walked float64
	for i := 1; i < len(l); i++ {
		seg := math.Hypot(l[i].X-l[i-1].X, l[i].Y-l[i-1].Y)
		d := walked + seg
		if d > start && d < end {
			out = append(out, l[i])
		}
		walked = d
		if walked >= end {
			break
		}
	}
	out = append(out, l.Interpolate(to))

	if reversed {
		out = out.Reverse()
	}
	return out
}

// Densify inserts intermediate vertices so that no 2D chord between
// consecutive vertices exceeds maxStep meters. maxStep <= 0 is a no-op.
func (l Line) Densify(maxStep float64) Line {
	if maxStep <= 0 || len(l) < 2 {
		return l.Clone()
	}

	out := Line{l[0]}
	for i := 1; i < len(l); i++ {
		seg := math.Hypot(l[i].X-l[i-1].X, l[i].Y-l[i-1].Y)
		if seg > maxStep {
			n := int(math.Ceil(seg / maxStep))
			for k := 1; k < n; k++ {
				f := float64(k) / float64(n)
				out = append(out, Point{
					X: l[i-1].X + f*(l[i].X-l[i-1].X),
					Y: l[i-1].Y + f*(l[i].Y-l[i-1].Y),
					Z: l[i-1].Z + f*(l[i].Z-l[i-1].Z),
				})
			}
		}
		out = append(out, l[i])
	}
	return out
}

// OffsetLeft translates the line perpendicular to its direction of travel.
// Positive d shifts to the left, negative to the right. Interior vertices use
// the averaged normal of their adjacent segments.
func (l Line) OffsetLeft(d float64) Line {
	if d == 0 || len(l) < 2 {
		return l.Clone()
	}

	normals := make([][2]float64, len(l)-1)
	for i := 1; i < len(l); i++ {
		dx := l[i].X - l[i-1].X
		dy := l[i].Y - l[i-1].Y
		length := math.Hypot(dx, dy)
		if length == 0 {
			normals[i-1] = [2]float64{0, 0}
			continue
		}
		normals[i-1] = [2]float64{-dy / length, dx / length}
	}

	out := make(Line, len(l))
	for i, p := range l {
		var nx, ny float64
		switch {
		case i == 0:
			nx, ny = normals[0][0], normals[0][1]
		case i == len(l)-1:
			nx, ny = normals[len(normals)-1][0], normals[len(normals)-1][1]
		default:
			nx = normals[i-1][0] + normals[i][0]
			ny = normals[i-1][1] + normals[i][1]
			length := math.Hypot(nx, ny)
			if length == 0 {
				nx, ny = normals[i][0], normals[i][1]
			} else {
				nx, ny = nx/length, ny/length
			}
		}
		out[i] = Point{X: p.X + d*nx, Y: p.Y + d*ny, Z: p.Z}
	}
	return out
}

// LocatePoint returns the fractional position (by 2D arc length) of the
// point on the line closest to p.
func (l Line) LocatePoint(p Point) float64 {
	if len(l) < 2 {
		return 0
	}

	best := math.Inf(1)
	var bestDist float64
	var walked float64
	for i := 1; i < len(l); i++ {
		seg := math.Hypot(l[i].X-l[i-1].X, l[i].Y-l[i-1].Y)
		d, f := pointSegmentDistance(p, l[i-1], l[i])
		if d < best {
			best = d
			bestDist = walked + f*seg
		}
		walked += seg
	}
	if walked == 0 {
		return 0
	}
	return bestDist / walked
}

// DistanceToPoint returns the minimum 2D distance from p to the line
func (l Line) DistanceToPoint(p Point) float64 {
	if len(l) == 0 {
		return 0
	}
	if len(l) == 1 {
		return math.Hypot(p.X-l[0].X, p.Y-l[0].Y)
	}

	best := math.Inf(1)
	for i := 1; i < len(l); i++ {
		d, _ := pointSegmentDistance(p, l[i-1], l[i])
		if d < best {
			best = d
		}
	}
	return best
}

// MinDistance returns the minimum 2D distance between two lines. A result of
// 0 means the lines touch or cross. buffer(m).intersects(other) is equivalent
// to MinDistance(other) <= m for m >= 0.
func (l Line) MinDistance(other Line) float64 {
	if len(l) == 0 || len(other) == 0 {
		return math.Inf(1)
	}
	if len(l) == 1 {
		return other.DistanceToPoint(l[0])
	}
	if len(other) == 1 {
		return l.DistanceToPoint(other[0])
	}

	best := math.Inf(1)
	for i := 1; i < len(l); i++ {
		for j := 1; j < len(other); j++ {
			d := segmentSegmentDistance(l[i-1], l[i], other[j-1], other[j])
			if d < best {
				best = d
			}
			if best == 0 {
				return 0
			}
		}
	}
	return best
}

// pointSegmentDistance returns the 2D distance from p to segment [a, b] and
// the fractional projection of p onto the segment.
func pointSegmentDistance(p, a, b Point) (float64, float64) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y), 0
	}

	f := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	if f < 0 {
		f = 0
	} else if f > 1 {
		f = 1
	}
	cx := a.X + f*dx
	cy := a.Y + f*dy
	return math.Hypot(p.X-cx, p.Y-cy), f
}

// segmentSegmentDistance returns the minimum 2D distance between segments
// [a1, a2] and [b1, b2]. Crossing segments yield 0.
func segmentSegmentDistance(a1, a2, b1, b2 Point) float64 {
	if segmentsCross(a1, a2, b1, b2) {
		return 0
	}

	d1, _ := pointSegmentDistance(a1, b1, b2)
	d2, _ := pointSegmentDistance(a2, b1, b2)
	d3, _ := pointSegmentDistance(b1, a1, a2)
	d4, _ := pointSegmentDistance(b2, a1, a2)
	return math.Min(math.Min(d1, d2), math.Min(d3, d4))
}

func segmentsCross(a1, a2, b1, b2 Point) bool {
	d1 := cross2D(b1, b2, a1)
	d2 := cross2D(b1, b2, a2)
	d3 := cross2D(a1, a2, b1)
	d4 := cross2D(a1, a2, b2)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

func cross2D(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
