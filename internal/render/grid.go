package render

import (
	"fmt"
	"image"

	"github.com/pspoerri/metatiler/internal/encode"
)

// Grid is a feature-id raster used for interactivity (UTFGrid) output.
// Cell value 0 means "no feature".
type Grid struct {
	w, h     int
	keys     []uint32
	features map[uint32]encode.GridFeature
	painted  bool
}

var _ Raster = (*Grid)(nil)

// NewGrid returns an empty width x height grid.
func NewGrid(width, height int) *Grid {
	return &Grid{
		w:        width,
		h:        height,
		keys:     make([]uint32, width*height),
		features: make(map[uint32]encode.GridFeature),
	}
}

func (g *Grid) Width() int    { return g.w }
func (g *Grid) Height() int   { return g.h }
func (g *Grid) Painted() bool { return g.painted }

// Register associates key with f. Keys must be non-zero and stable for a
// feature across renders, since solid grid tiles are cached by key.
func (g *Grid) Register(key uint32, f encode.GridFeature) {
	g.features[key] = f
}

// Set assigns key to cell (x, y) and marks the grid as painted.
func (g *Grid) Set(x, y int, key uint32) {
	if x < 0 || y < 0 || x >= g.w || y >= g.h {
		return
	}
	g.keys[y*g.w+x] = key
	if key != 0 {
		g.painted = true
	}
}

// KeyAt returns the key stored at (x, y).
func (g *Grid) KeyAt(x, y int) uint32 { return g.keys[y*g.w+x] }

// Feature looks up a registered feature.
func (g *Grid) Feature(key uint32) (encode.GridFeature, bool) {
	f, ok := g.features[key]
	return f, ok
}

func (g *Grid) View(rect image.Rectangle) View {
	return &gridView{g: g, rect: rect.Intersect(image.Rect(0, 0, g.w, g.h))}
}

type gridView struct {
	g    *Grid
	rect image.Rectangle
}

func (v *gridView) Bounds() image.Rectangle { return v.rect }

func (v *gridView) KeyAt(x, y int) uint32 { return v.g.KeyAt(x, y) }

func (v *gridView) Feature(key uint32) (encode.GridFeature, bool) { return v.g.Feature(key) }

func (v *gridView) IsSolid() (bool, uint32, error) {
	if v.rect.Empty() {
		return false, 0, fmt.Errorf("solidity probe on empty region %v", v.rect)
	}
	first := v.g.KeyAt(v.rect.Min.X, v.rect.Min.Y)
	for y := v.rect.Min.Y; y < v.rect.Max.Y; y++ {
		row := v.g.keys[y*v.g.w+v.rect.Min.X : y*v.g.w+v.rect.Max.X]
		for _, k := range row {
			if k != first {
				return false, 0, nil
			}
		}
	}
	return true, first, nil
}

func (v *gridView) Encode(f encode.Format, opts encode.GridOptions) ([]byte, error) {
	if !f.IsGrid() {
		return nil, fmt.Errorf("cannot encode grid region as %q", f.Token)
	}
	return encode.EncodeUTFGrid(v, opts)
}
