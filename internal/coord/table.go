package coord

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Table holds the map units covered by one tile (not one pixel) for each
// zoom level, indexed by zoom.
type Table []float64

// UnitsPerTile returns the map units spanned by a tile at zoom z.
func (t Table) UnitsPerTile(z int) (float64, bool) {
	if z < 0 || z >= len(t) {
		return 0, false
	}
	return t[z], true
}

// MaxZoom returns the highest zoom level present in the table, or -1 if empty.
func (t Table) MaxZoom() int { return len(t) - 1 }

// String renders the table as a comma-separated list, the same form
// accepted by ParseTable.
func (t Table) String() string {
	parts := make([]string, len(t))
	for i, v := range t {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

// ParseTable parses a comma-separated list of per-zoom resolutions
// (map units per tile). Every value must be finite and positive.
func ParseTable(s string) (Table, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty resolution list")
	}
	fields := strings.Split(s, ",")
	t := make(Table, 0, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("resolution for zoom %d: %w", i, err)
		}
		if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, fmt.Errorf("resolution for zoom %d must be positive, got %v", i, v)
		}
		t = append(t, v)
	}
	return t, nil
}

// FromPixelResolutions builds a Table from map-units-per-pixel values, the
// form tile matrix sets usually publish.
func FromPixelResolutions(perPixel []float64, tileSize int) Table {
	t := make(Table, len(perPixel))
	for i, r := range perPixel {
		t[i] = r * float64(tileSize)
	}
	return t
}
