package geom

// Simplify simplifies a line using the Ramer-Douglas-Peucker algorithm.
// epsilon is the maximum planar deviation (meters) from the original line.
func Simplify(line Line, epsilon float64) Line {
	if epsilon <= 0 || len(line) < 3 {
		return line.Clone()
	}

	maxDist := 0.0
	maxIndex := 0
	for i := 1; i < len(line)-1; i++ {
		d, _ := pointSegmentDistance(line[i], line[0], line[len(line)-1])
		if d > maxDist {
			maxDist = d
			maxIndex = i
		}
	}

	if maxDist > epsilon {
		left := Simplify(line[:maxIndex+1], epsilon)
		right := Simplify(line[maxIndex:], epsilon)

		result := make(Line, len(left)+len(right)-1)
		copy(result, left)
		copy(result[len(left):], right[1:])
		return result
	}

	return Line{line[0], line[len(line)-1]}
}
