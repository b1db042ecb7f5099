package dem

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadASCIIGrid loads an ESRI ASCII grid file (.asc): a six-line header
// (ncols, nrows, xllcorner, yllcorner, cellsize, NODATA_value) followed by
// nrows lines of ncols values, north row first.
func LoadASCIIGrid(path string, interp Interpolation) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open DEM file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	header := map[string]float64{}
	var values []float64

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)

		// Header lines are "key value" pairs; data lines are all numeric.
		if len(fields) == 2 {
			if _, err := strconv.ParseFloat(fields[0], 64); err != nil {
				v, err := strconv.ParseFloat(fields[1], 64)
				if err != nil {
					return nil, fmt.Errorf("invalid header line %q: %w", line, err)
				}
				header[strings.ToLower(fields[0])] = v
				continue
			}
		}

		for _, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid raster value %q: %w", field, err)
			}
			values = append(values, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read DEM file: %w", err)
	}

	cols := int(header["ncols"])
	rows := int(header["nrows"])
	cellSize := header["cellsize"]
	if cols <= 0 || rows <= 0 || cellSize <= 0 {
		return nil, fmt.Errorf("invalid DEM header: ncols=%d nrows=%d cellsize=%v", cols, rows, cellSize)
	}
	if len(values) != cols*rows {
		return nil, fmt.Errorf("DEM value count %d does not match %dx%d grid", len(values), cols, rows)
	}

	nodata, ok := header["nodata_value"]
	if !ok {
		nodata = -9999
	}

	return NewGrid(header["xllcorner"], header["yllcorner"], cellSize, cols, rows, nodata, values, interp), nil
}
