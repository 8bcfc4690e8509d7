// Package canvas is a minimal rendering engine that fills GeoJSON polygons
// over a background color. It implements render.Engine so that metatiles
// can be rendered without an external map renderer.
package canvas

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/image/vector"

	"github.com/pspoerri/metatiler/internal/encode"
	"github.com/pspoerri/metatiler/internal/render"
)

// Style controls how features are drawn.
type Style struct {
	Background color.RGBA
	Fill       color.RGBA
	// Layer names the features in grid output.
	Layer string
	// IDProperty selects the feature property used as the grid id. Empty
	// uses the GeoJSON feature id, falling back to the feature index.
	IDProperty string
}

// Canvas renders a fixed feature set. A Canvas is not safe for concurrent
// use; pool one per worker.
type Canvas struct {
	style    Style
	features []*geojson.Feature

	width, height int
	extent        orb.Bound
	rast          *vector.Rasterizer
}

var _ render.Engine = (*Canvas)(nil)

// New returns a canvas drawing fc, whose coordinates must be in the map
// units of the tile grid.
func New(fc *geojson.FeatureCollection, style Style) *Canvas {
	c := &Canvas{style: style, rast: vector.NewRasterizer(0, 0)}
	if fc != nil {
		c.features = fc.Features
	}
	return c
}

func (c *Canvas) Resize(width, height int) {
	c.width, c.height = width, height
}

func (c *Canvas) SetExtent(bbox orb.Bound) { c.extent = bbox }

// Render draws the background and every feature intersecting the extent.
func (c *Canvas) Render(ctx context.Context, r render.Raster, opts render.Options) error {
	if r.Width() != c.width || r.Height() != c.height {
		return fmt.Errorf("canvas: raster %dx%d does not match size %dx%d", r.Width(), r.Height(), c.width, c.height)
	}
	if c.extent.Max[0] <= c.extent.Min[0] || c.extent.Max[1] <= c.extent.Min[1] {
		return fmt.Errorf("canvas: empty extent %v", c.extent)
	}

	switch r := r.(type) {
	case *render.Image:
		return c.renderImage(ctx, r)
	case *render.Grid:
		return c.renderGrid(ctx, r)
	default:
		return fmt.Errorf("canvas: unsupported raster %T", r)
	}
}

func (c *Canvas) renderImage(ctx context.Context, im *render.Image) error {
	dst := im.RGBA()
	draw.Draw(dst, dst.Rect, &image.Uniform{C: c.style.Background}, image.Point{}, draw.Src)
	fill := &image.Uniform{C: c.style.Fill}

	painted := false
	for _, f := range c.features {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !c.trace(f.Geometry) {
			continue
		}
		c.rast.Draw(dst, dst.Rect, fill, image.Point{})
		painted = true
	}
	im.SetPainted(painted)
	return nil
}

func (c *Canvas) renderGrid(ctx context.Context, g *render.Grid) error {
	mask := image.NewAlpha(image.Rect(0, 0, c.width, c.height))
	for i, f := range c.features {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !c.trace(f.Geometry) {
			continue
		}
		// Keys follow feature order so they are stable across renders.
		key := uint32(i + 1)
		g.Register(key, encode.GridFeature{
			ID:         c.featureID(i, f),
			Layer:      c.style.Layer,
			Properties: f.Properties,
		})

		clear(mask.Pix)
		c.rast.Draw(mask, mask.Rect, image.Opaque, image.Point{})
		for y := 0; y < c.height; y++ {
			row := mask.Pix[y*mask.Stride : y*mask.Stride+c.width]
			for x, a := range row {
				if a >= 0x80 {
					g.Set(x, y, key)
				}
			}
		}
	}
	return nil
}

func (c *Canvas) featureID(i int, f *geojson.Feature) string {
	if c.style.IDProperty != "" {
		if v, ok := f.Properties[c.style.IDProperty]; ok {
			return fmt.Sprint(v)
		}
	}
	if f.ID != nil {
		return fmt.Sprint(f.ID)
	}
	return fmt.Sprint(i)
}

// trace loads the polygon rings of geom into the rasterizer in pixel space.
// It reports false when geom has no area inside the extent.
func (c *Canvas) trace(geom orb.Geometry) bool {
	if geom == nil || !geom.Bound().Intersects(c.extent) {
		return false
	}
	var polys []orb.Polygon
	switch g := geom.(type) {
	case orb.Polygon:
		polys = append(polys, g)
	case orb.MultiPolygon:
		polys = append(polys, g...)
	case orb.Bound:
		polys = append(polys, g.ToPolygon())
	case orb.Collection:
		for _, sub := range g {
			switch s := sub.(type) {
			case orb.Polygon:
				polys = append(polys, s)
			case orb.MultiPolygon:
				polys = append(polys, s...)
			}
		}
	}
	if len(polys) == 0 {
		return false
	}

	c.rast.Reset(c.width, c.height)
	sx := float64(c.width) / (c.extent.Max[0] - c.extent.Min[0])
	sy := float64(c.height) / (c.extent.Max[1] - c.extent.Min[1])
	for _, p := range polys {
		for _, ring := range p {
			if len(ring) < 3 {
				continue
			}
			for j, pt := range ring {
				x := float32((pt[0] - c.extent.Min[0]) * sx)
				y := float32((c.extent.Max[1] - pt[1]) * sy)
				if j == 0 {
					c.rast.MoveTo(x, y)
				} else {
					c.rast.LineTo(x, y)
				}
			}
			c.rast.ClosePath()
		}
	}
	return true
}
