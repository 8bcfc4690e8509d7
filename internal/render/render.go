// Package render defines the rendering-engine boundary: engines paint a
// Raster covering a map extent, and rasters expose per-region views that can
// be probed for uniformity and encoded.
package render

import (
	"context"
	"image"

	"github.com/paulmach/orb"

	"github.com/pspoerri/metatiler/internal/encode"
)

// Options are passed to Engine.Render.
type Options struct {
	// Variables are exposed to the engine's style, e.g. {"zoom": 4}.
	Variables map[string]any
	// Scale is the rendering scale factor (1 = nominal).
	Scale float64
}

// Engine renders a map extent into a raster. Engines are stateful and not
// safe for concurrent use; they are lent out by a pool.
type Engine interface {
	// Resize sets the output size in pixels.
	Resize(width, height int)
	// SetExtent sets the map-unit bounding box mapped onto the output.
	SetExtent(bbox orb.Bound)
	// Render paints into r, which must match the configured size.
	Render(ctx context.Context, r Raster, opts Options) error
}

// Raster is a rendered image or feature grid.
type Raster interface {
	Width() int
	Height() int
	// View returns the sub-region rect. rect must lie within the raster.
	View(rect image.Rectangle) View
	// Painted reports whether the engine drew any content.
	Painted() bool
}

// View is a rectangular region of a Raster.
type View interface {
	Bounds() image.Rectangle
	// IsSolid reports whether every pixel (or grid cell) in the region has
	// the same value, and returns that value. Image pixels use the PackRGBA
	// layout; grid cells are feature keys.
	IsSolid() (solid bool, value uint32, err error)
	// Encode encodes the region in format f. Grid options apply only to
	// grid formats.
	Encode(f encode.Format, opts encode.GridOptions) ([]byte, error)
}

// NewRaster allocates the raster type matching format f: a feature grid
// for grid formats, an RGBA image otherwise.
func NewRaster(f encode.Format, width, height int) Raster {
	if f.IsGrid() {
		return NewGrid(width, height)
	}
	return NewImage(width, height)
}

// Release returns pooled raster memory. The raster must not be used afterwards.
func Release(r Raster) {
	if im, ok := r.(*Image); ok {
		im.Release()
	}
}
