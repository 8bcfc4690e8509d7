package coord

import "github.com/paulmach/orb"

// lv95PixelResolutions are the swisstopo WMTS resolutions (meters per pixel)
// for EPSG:2056, zoom 0 to 28.
var lv95PixelResolutions = []float64{
	4000, 3750, 3500, 3250, 3000, 2750, 2500, 2250, 2000, 1750,
	1500, 1250, 1000, 750, 650, 500, 250, 100, 50, 20,
	10, 5, 2.5, 2, 1.5, 1, 0.5, 0.25, 0.1,
}

// SwissLV95 returns the swisstopo LV95 (EPSG:2056) grid. The extent is not a
// whole number of tiles at most zoom levels, so tiles along the right and
// bottom edges are clipped.
func SwissLV95() *Grid {
	return &Grid{
		Name: "lv95",
		EPSG: 2056,
		Bounds: orb.Bound{
			Min: orb.Point{2_420_000, 1_030_000},
			Max: orb.Point{2_900_000, 1_350_000},
		},
		Resolutions: FromPixelResolutions(lv95PixelResolutions, DefaultTileSize),
	}
}
