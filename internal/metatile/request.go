package metatile

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"

	"github.com/pspoerri/metatiler/internal/coord"
	"github.com/pspoerri/metatiler/internal/encode"
	"github.com/pspoerri/metatiler/internal/stats"
)

// Request asks for the metatile containing Tile.
type Request struct {
	Tile maptile.Tile
	// Metatile is the number of tiles per metatile side.
	Metatile int
	// TileSize is the nominal tile size in pixels.
	TileSize    int
	Format      encode.Format
	Resolutions coord.Table
	// Bounds is the dataset extent in map units.
	Bounds orb.Bound
	Scale  float64
	// Grid configures UTFGrid output for grid formats.
	Grid encode.GridOptions
	// Stats receives counters for this render. Nil falls back to the
	// source's sink.
	Stats stats.Sink
}

// Key returns the identifier of the requested tile.
func (r Request) Key() string {
	return TileKey(r.Format, int(r.Tile.Z), int(r.Tile.X), int(r.Tile.Y))
}

// Validate checks the preconditions Compute relies on.
func (r Request) Validate() error {
	if r.Metatile < 1 {
		return fmt.Errorf("%w: metatile factor %d < 1", ErrInvalidRequest, r.Metatile)
	}
	if r.TileSize < 1 {
		return fmt.Errorf("%w: tile size %d < 1", ErrInvalidRequest, r.TileSize)
	}
	if r.Format.Kind == encode.KindUnknown {
		return fmt.Errorf("%w: unknown format %q", ErrInvalidRequest, r.Format.Token)
	}
	if r.Bounds.Max[0] <= r.Bounds.Min[0] || r.Bounds.Max[1] <= r.Bounds.Min[1] {
		return fmt.Errorf("%w: empty bounds %v", ErrInvalidRequest, r.Bounds)
	}
	z := int(r.Tile.Z)
	upt, ok := r.Resolutions.UnitsPerTile(z)
	if !ok {
		return fmt.Errorf("%w: zoom %d not in resolution table (max %d)", ErrInvalidRequest, z, r.Resolutions.MaxZoom())
	}
	if upt <= 0 {
		return fmt.Errorf("%w: non-positive resolution %v at zoom %d", ErrInvalidRequest, upt, z)
	}
	if int(r.Tile.X) >= spanned(r.Bounds.Max[0]-r.Bounds.Min[0], upt) ||
		int(r.Tile.Y) >= spanned(r.Bounds.Max[1]-r.Bounds.Min[1], upt) {
		return fmt.Errorf("%w: tile z%d/%d/%d outside dataset bounds", ErrInvalidRequest, z, r.Tile.X, r.Tile.Y)
	}
	return nil
}
