package coord

import (
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
)

// Grid describes a tiled map coordinate system: the dataset extent in map
// units and the per-zoom resolutions. Tile (0, 0) sits at the top-left
// corner of Bounds; y grows downwards.
type Grid struct {
	Name        string
	EPSG        int
	Bounds      orb.Bound
	Resolutions Table
}

// ForName returns a built-in grid by name ("mercator", "lv95").
// Returns nil if the name is unknown.
func ForName(name string) *Grid {
	switch strings.ToLower(name) {
	case "mercator", "webmercator", "3857", "epsg:3857", "900913":
		return SphericalMercator()
	case "lv95", "2056", "epsg:2056":
		return SwissLV95()
	default:
		return nil
	}
}

// ForEPSG returns the built-in grid for an EPSG code, or nil.
func ForEPSG(epsg int) *Grid {
	switch epsg {
	case 3857:
		return SphericalMercator()
	case 2056:
		return SwissLV95()
	default:
		return nil
	}
}

// TilesAcross returns the number of tile columns and rows needed to cover
// the grid's bounds at zoom z. The last column/row may be partial.
func (g *Grid) TilesAcross(z int) (cols, rows int, err error) {
	upt, ok := g.Resolutions.UnitsPerTile(z)
	if !ok {
		return 0, 0, fmt.Errorf("zoom %d not in resolution table (max %d)", z, g.Resolutions.MaxZoom())
	}
	return tilesCeil(g.Bounds.Max[0]-g.Bounds.Min[0], upt), tilesCeil(g.Bounds.Max[1]-g.Bounds.Min[1], upt), nil
}

// TileRange returns the inclusive range of tile columns and rows at zoom z
// that intersect bbox (in map units), clamped to the grid.
func (g *Grid) TileRange(z int, bbox orb.Bound) (minX, minY, maxX, maxY int, err error) {
	cols, rows, err := g.TilesAcross(z)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	upt := g.Resolutions[z]
	minX = clamp(int(math.Floor((bbox.Min[0]-g.Bounds.Min[0])/upt)), 0, cols-1)
	maxX = clamp(int(math.Ceil((bbox.Max[0]-g.Bounds.Min[0])/upt-epsilon))-1, 0, cols-1)
	minY = clamp(int(math.Floor((g.Bounds.Max[1]-bbox.Max[1])/upt)), 0, rows-1)
	maxY = clamp(int(math.Ceil((g.Bounds.Max[1]-bbox.Min[1])/upt-epsilon))-1, 0, rows-1)
	return minX, minY, maxX, maxY, nil
}

// epsilon absorbs float error when an extent is an exact multiple of the
// tile span.
const epsilon = 1e-9

func tilesCeil(span, upt float64) int {
	n := int(math.Ceil(span/upt - epsilon))
	if n < 1 {
		n = 1
	}
	return n
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
