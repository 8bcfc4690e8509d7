package coord

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	// EarthRadius is the spherical Mercator sphere radius in meters.
	EarthRadius = 6378137.0
	// OriginShift is half the equatorial circumference, the extent of the
	// spherical Mercator square on each side of the origin.
	OriginShift = EarthRadius * math.Pi
	// DefaultTileSize is the standard web map tile dimension.
	DefaultTileSize = 256
	// MercatorMaxZoom is the deepest zoom level in the default table.
	MercatorMaxZoom = 30
)

// MercatorProj4 is the proj4 definition of the default projection. It is
// informational only; reprojection belongs to the rendering engine.
const MercatorProj4 = "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0.0 +k=1.0 +units=m +nadgrids=@null +wktext +no_defs +over"

// SphericalMercator returns the EPSG:3857 grid for zoom 0 to MercatorMaxZoom.
func SphericalMercator() *Grid {
	return &Grid{
		Name: "mercator",
		EPSG: 3857,
		Bounds: orb.Bound{
			Min: orb.Point{-OriginShift, -OriginShift},
			Max: orb.Point{OriginShift, OriginShift},
		},
		Resolutions: MercatorTable(MercatorMaxZoom),
	}
}

// MercatorTable returns map units per tile for zoom 0..maxZoom. Zoom 0 is one
// tile spanning the whole circumference; every level halves the span.
func MercatorTable(maxZoom int) Table {
	t := make(Table, maxZoom+1)
	for z := range t {
		t[z] = MercatorUnitsPerTile(z)
	}
	return t
}

// MercatorUnitsPerTile returns the width of one tile in meters at zoom z.
func MercatorUnitsPerTile(z int) float64 {
	return 2 * OriginShift / float64(uint64(1)<<uint(z))
}
