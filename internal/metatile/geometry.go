package metatile

import (
	"fmt"
	"image"
	"math"

	"github.com/paulmach/orb"

	"github.com/pspoerri/metatiler/internal/encode"
)

// SubTile is one output tile within a metatile. Width and Height are smaller
// than the nominal tile size only where the dataset bounds clip the tile.
type SubTile struct {
	Z, X, Y       int
	Width, Height int
}

// Key returns the tile identifier "format,z,x,y".
func (s SubTile) Key(f encode.Format) string {
	return TileKey(f, s.Z, s.X, s.Y)
}

// TileKey formats a tile identifier.
func TileKey(f encode.Format, z, x, y int) string {
	return fmt.Sprintf("%s,%d,%d,%d", f.String(), z, x, y)
}

// Geometry is the derived layout of one metatile.
type Geometry struct {
	Z int
	// X, Y is the metatile origin in tile coordinates, aligned to the
	// metatile factor.
	X, Y int
	// Width, Height are the raster dimensions in pixels.
	Width, Height int
	// BBox is the map-unit extent, clipped to the dataset bounds.
	BBox     orb.Bound
	TileSize int
	// Tiles lists sub-tiles column by column: x ascending, then y
	// ascending from the top edge.
	Tiles []SubTile
}

// Compute derives the metatile containing req.Tile. The request must be
// valid (see Request.Validate); Compute performs no checks.
func Compute(req Request) Geometry {
	m := req.Metatile
	ts := req.TileSize
	z := int(req.Tile.Z)

	// Start at a metatile boundary.
	x := int(req.Tile.X)
	y := int(req.Tile.Y)
	x -= x % m
	y -= y % m

	unitsPerTile := req.Resolutions[z]
	unitsPerPixel := unitsPerTile / float64(ts)

	b := req.Bounds
	minx := b.Min[0] + float64(x)*unitsPerTile
	maxx := b.Min[0] + float64(x+m)*unitsPerTile
	maxy := b.Max[1] - float64(y)*unitsPerTile
	miny := b.Max[1] - float64(y+m)*unitsPerTile

	// Never extend past the dataset. Tile rows count down from the top
	// edge, so only the right and bottom edges can overshoot.
	maxx = math.Min(maxx, b.Max[0])
	miny = math.Max(miny, b.Min[1])
	minx = math.Max(minx, b.Min[0])
	maxy = math.Min(maxy, b.Max[1])

	// An edge tile clipped to under half a pixel still gets one pixel, so
	// every tile Validate accepts appears in the walk below.
	cols := min(m, spanned(maxx-minx, unitsPerTile))
	rows := min(m, spanned(maxy-miny, unitsPerTile))
	width := max(pixels(maxx-minx, unitsPerPixel, cols*ts), (cols-1)*ts+1)
	height := max(pixels(maxy-miny, unitsPerPixel, rows*ts), (rows-1)*ts+1)

	g := Geometry{
		Z:        z,
		X:        x,
		Y:        y,
		Width:    width,
		Height:   height,
		BBox:     orb.Bound{Min: orb.Point{minx, miny}, Max: orb.Point{maxx, maxy}},
		TileSize: ts,
	}

	// Walk in pixel space so the sub-tiles partition the raster exactly.
	for dx := 0; dx*ts < width; dx++ {
		for dy := 0; dy*ts < height; dy++ {
			g.Tiles = append(g.Tiles, SubTile{
				Z:      z,
				X:      x + dx,
				Y:      y + dy,
				Width:  min(ts, width-dx*ts),
				Height: min(ts, height-dy*ts),
			})
		}
	}
	return g
}

// spanEpsilon absorbs float error when a span is an exact multiple of the
// tile size.
const spanEpsilon = 1e-9

// spanned returns how many tiles of size unitsPerTile a span starting on a
// tile edge touches, at least 1.
func spanned(span, unitsPerTile float64) int {
	return max(1, int(math.Ceil(span/unitsPerTile-spanEpsilon)))
}

// pixels converts a map-unit span to a whole pixel count in [1, limit].
func pixels(span, unitsPerPixel float64, limit int) int {
	n := int(math.Round(span / unitsPerPixel))
	if n < 1 {
		n = 1
	}
	if n > limit {
		n = limit
	}
	return n
}

// Offset returns the pixel position of s within the metatile raster.
func (g Geometry) Offset(s SubTile) image.Point {
	return image.Pt((s.X-g.X)*g.TileSize, (s.Y-g.Y)*g.TileSize)
}

// Region returns the pixel rectangle of s within the metatile raster.
func (g Geometry) Region(s SubTile) image.Rectangle {
	off := g.Offset(s)
	return image.Rect(off.X, off.Y, off.X+s.Width, off.Y+s.Height)
}

// Keys returns the identifiers of all sub-tiles in geometry order.
func (g Geometry) Keys(f encode.Format) []string {
	keys := make([]string, len(g.Tiles))
	for i, t := range g.Tiles {
		keys[i] = t.Key(f)
	}
	return keys
}

// Clipped reports whether s is smaller than the nominal tile size.
func (g Geometry) Clipped(s SubTile) bool {
	return s.Width != g.TileSize || s.Height != g.TileSize
}
