package metatile

import (
	"image"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/stretchr/testify/require"

	"github.com/pspoerri/metatiler/internal/coord"
	"github.com/pspoerri/metatiler/internal/encode"
)

// testGrid is 2.5 x 1.5 tiles at zoom 0, so the right column and bottom row
// are clipped.
func testGrid() *coord.Grid {
	return &coord.Grid{
		Name:        "test",
		Bounds:      orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1000, 600}},
		Resolutions: coord.Table{400},
	}
}

func request(g *coord.Grid, z, x, y, m int) Request {
	return Request{
		Tile:        maptile.New(uint32(x), uint32(y), maptile.Zoom(z)),
		Metatile:    m,
		TileSize:    256,
		Format:      encode.MustParseFormat("png"),
		Resolutions: g.Resolutions,
		Bounds:      g.Bounds,
		Scale:       1,
	}
}

func TestCompute_Aligned(t *testing.T) {
	merc := coord.SphericalMercator()
	g := Compute(request(merc, 2, 3, 1, 2))

	require.Equal(t, 2, g.X)
	require.Equal(t, 0, g.Y)
	require.Equal(t, 512, g.Width)
	require.Equal(t, 512, g.Height)
	require.InDelta(t, 0, g.BBox.Min[0], 1e-6)
	require.InDelta(t, 0, g.BBox.Min[1], 1e-6)
	require.InDelta(t, coord.OriginShift, g.BBox.Max[0], 1e-6)
	require.InDelta(t, coord.OriginShift, g.BBox.Max[1], 1e-6)

	require.Equal(t, []string{"png,2,2,0", "png,2,2,1", "png,2,3,0", "png,2,3,1"}, g.Keys(encode.MustParseFormat("png")))
	require.Equal(t, image.Pt(256, 0), g.Offset(g.Tiles[2]))
}

func TestCompute_SingleTile(t *testing.T) {
	g := Compute(request(coord.SphericalMercator(), 4, 5, 7, 1))
	require.Len(t, g.Tiles, 1)
	require.Equal(t, SubTile{Z: 4, X: 5, Y: 7, Width: 256, Height: 256}, g.Tiles[0])
	require.Equal(t, 256, g.Width)
	require.Equal(t, 256, g.Height)
}

func TestCompute_ClippedBottomRight(t *testing.T) {
	g := Compute(request(testGrid(), 0, 2, 1, 2))

	require.Equal(t, 2, g.X)
	require.Equal(t, 0, g.Y)
	require.Equal(t, 128, g.Width)
	require.Equal(t, 384, g.Height)
	require.Equal(t, orb.Bound{Min: orb.Point{800, 0}, Max: orb.Point{1000, 600}}, g.BBox)
	require.Equal(t, []SubTile{
		{Z: 0, X: 2, Y: 0, Width: 128, Height: 256},
		{Z: 0, X: 2, Y: 1, Width: 128, Height: 128},
	}, g.Tiles)
	require.True(t, g.Clipped(g.Tiles[0]))
	require.Equal(t, image.Rect(0, 256, 128, 384), g.Region(g.Tiles[1]))
}

func TestCompute_ClippedInterior(t *testing.T) {
	g := Compute(request(testGrid(), 0, 1, 0, 2))
	require.Equal(t, 0, g.X)
	require.Equal(t, 512, g.Width)
	require.Equal(t, 384, g.Height)
	require.Equal(t, []SubTile{
		{Z: 0, X: 0, Y: 0, Width: 256, Height: 256},
		{Z: 0, X: 0, Y: 1, Width: 256, Height: 128},
		{Z: 0, X: 1, Y: 0, Width: 256, Height: 256},
		{Z: 0, X: 1, Y: 1, Width: 256, Height: 128},
	}, g.Tiles)
	require.False(t, g.Clipped(g.Tiles[0]))
	require.True(t, g.Clipped(g.Tiles[1]))
}

func TestCompute_SubPixelEdge(t *testing.T) {
	// The third column is 0.5 units wide, a third of a pixel.
	grid := &coord.Grid{
		Name:        "sliver",
		Bounds:      orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{800.5, 400}},
		Resolutions: coord.Table{400},
	}
	req := request(grid, 0, 2, 0, 4)
	require.NoError(t, req.Validate())

	g := Compute(req)
	require.Equal(t, 513, g.Width)
	require.Equal(t, 256, g.Height)
	require.Equal(t, []string{"png,0,0,0", "png,0,1,0", "png,0,2,0"}, g.Keys(req.Format))
	require.Equal(t, SubTile{Z: 0, X: 2, Y: 0, Width: 1, Height: 256}, g.Tiles[2])
	checkGeometry(t, req, g)

	g = Compute(request(grid, 0, 2, 0, 1))
	require.Equal(t, []SubTile{{Z: 0, X: 2, Y: 0, Width: 1, Height: 256}}, g.Tiles)

	require.ErrorIs(t, request(grid, 0, 3, 0, 1).Validate(), ErrInvalidRequest)
}

// TestCompute_Properties walks every tile of a few zoom levels and checks
// alignment, containment, column-major order and that the sub-tiles
// partition the raster.
func TestCompute_Properties(t *testing.T) {
	grids := []*coord.Grid{coord.SphericalMercator(), coord.SwissLV95(), testGrid()}
	for _, grid := range grids {
		for z := 0; z <= min(4, grid.Resolutions.MaxZoom()); z++ {
			cols, rows, err := grid.TilesAcross(z)
			require.NoError(t, err)
			for _, m := range []int{1, 2, 3, 4, 8} {
				for x := 0; x < cols; x++ {
					for y := 0; y < rows; y++ {
						req := request(grid, z, x, y, m)
						require.NoError(t, req.Validate(), "%s z%d/%d/%d", grid.Name, z, x, y)
						checkGeometry(t, req, Compute(req))
					}
				}
			}
		}
	}
}

func checkGeometry(t *testing.T, req Request, g Geometry) {
	t.Helper()
	m := req.Metatile
	require.Zero(t, g.X%m)
	require.Zero(t, g.Y%m)
	require.LessOrEqual(t, g.X, int(req.Tile.X))
	require.Less(t, int(req.Tile.X), g.X+m)
	require.LessOrEqual(t, g.Y, int(req.Tile.Y))
	require.Less(t, int(req.Tile.Y), g.Y+m)

	require.GreaterOrEqual(t, g.BBox.Min[0], req.Bounds.Min[0])
	require.GreaterOrEqual(t, g.BBox.Min[1], req.Bounds.Min[1])
	require.LessOrEqual(t, g.BBox.Max[0], req.Bounds.Max[0])
	require.LessOrEqual(t, g.BBox.Max[1], req.Bounds.Max[1])
	require.Less(t, g.BBox.Min[0], g.BBox.Max[0])
	require.Less(t, g.BBox.Min[1], g.BBox.Max[1])

	raster := image.Rect(0, 0, g.Width, g.Height)
	area := 0
	for i, st := range g.Tiles {
		r := g.Region(st)
		if i > 0 {
			prev := g.Tiles[i-1]
			require.True(t, st.X > prev.X || (st.X == prev.X && st.Y == prev.Y+1), "column-major order")
		}
		for _, other := range g.Tiles[:i] {
			require.False(t, r.Overlaps(g.Region(other)), "%v overlaps %v", st, other)
		}
		require.True(t, r.In(raster))
		require.LessOrEqual(t, st.Width, req.TileSize)
		require.LessOrEqual(t, st.Height, req.TileSize)
		area += r.Dx() * r.Dy()
	}
	require.Equal(t, g.Width*g.Height, area)
}

func TestRequest_Validate(t *testing.T) {
	merc := coord.SphericalMercator()
	tests := []struct {
		name string
		req  Request
	}{
		{"factor", request(merc, 2, 0, 0, 0)},
		{"zoom", request(merc, 31, 0, 0, 1)},
		{"outside x", request(merc, 1, 2, 0, 1)},
		{"outside y", request(testGrid(), 0, 0, 2, 1)},
		{"unknown format", func() Request {
			r := request(merc, 1, 0, 0, 1)
			r.Format = encode.Format{Token: "bmp"}
			return r
		}()},
		{"empty bounds", func() Request {
			r := request(merc, 1, 0, 0, 1)
			r.Bounds = orb.Bound{}
			return r
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.req.Validate(), ErrInvalidRequest)
		})
	}
	require.NoError(t, request(testGrid(), 0, 2, 1, 4).Validate())
}
