// Package metatile renders aligned blocks of map tiles with a single
// engine call and slices the result into individually encoded tiles.
// Uniform tiles share one encoded buffer through a solid-tile cache.
package metatile

import (
	"context"
	"fmt"
	"time"

	"github.com/karlseguin/ccache/v3"
	"github.com/paulmach/orb/maptile"
	"github.com/sirupsen/logrus"
	"github.com/teris-io/shortid"
	"golang.org/x/sync/singleflight"

	"github.com/pspoerri/metatiler/internal/coord"
	"github.com/pspoerri/metatiler/internal/encode"
	"github.com/pspoerri/metatiler/internal/render"
	"github.com/pspoerri/metatiler/internal/solidcache"
	"github.com/pspoerri/metatiler/internal/stats"
)

// EnginePool lends out rendering engines. *pool.Pool[render.Engine]
// satisfies it.
type EnginePool interface {
	Acquire(ctx context.Context) (render.Engine, error)
	Release(e render.Engine)
}

// Options configures a Source.
type Options struct {
	// TileGrid supplies the resolution table and dataset bounds.
	TileGrid *coord.Grid
	// TileSize is the nominal tile size in pixels (default 256).
	TileSize int
	// Metatile is the number of tiles per metatile side (default 1).
	Metatile int
	// Scale is passed to the engine (default 1).
	Scale float64
	Pool  EnginePool
	// AcquireTimeout bounds the wait for an engine. It does not apply to
	// the render itself. Zero waits as long as the caller's context.
	AcquireTimeout time.Duration
	// SolidCache holds encoded uniform tiles. Nil uses a bounded LRU of
	// solidcache.DefaultCapacity entries.
	SolidCache solidcache.Cache
	// Stats receives counters when a request does not carry its own sink.
	Stats  stats.Sink
	Logger logrus.FieldLogger
	// EncodeConcurrency bounds concurrent sub-tile encodes per metatile.
	// Zero or less means unbounded.
	EncodeConcurrency int
	// ResultTTL keeps whole metatile results for GetTile so that sibling
	// tiles are served without re-rendering. Zero disables the cache.
	ResultTTL time.Duration
	// ResultCapacity bounds the number of cached metatile results.
	ResultCapacity int
	// Interactivity configures grid (utf) output.
	Interactivity encode.GridOptions
}

// Source renders metatiles for one tile grid.
type Source struct {
	grid          *coord.Grid
	tileSize      int
	metatile      int
	scale         float64
	pool          EnginePool
	acquireWait   time.Duration
	cache         solidcache.Cache
	stats         stats.Sink
	log           logrus.FieldLogger
	concurrency   int
	interactivity encode.GridOptions

	newID func() (string, error)

	ttl      time.Duration
	results  *ccache.Cache[*Tiles]
	inflight singleflight.Group
}

// DefaultResultCapacity is the number of metatile results GetTile keeps
// when Options.ResultCapacity is unset.
const DefaultResultCapacity = 256

// NewSource validates opts and returns a Source.
func NewSource(opts Options) (*Source, error) {
	if opts.TileGrid == nil {
		return nil, fmt.Errorf("metatile: tile grid is required")
	}
	if opts.Pool == nil {
		return nil, fmt.Errorf("metatile: engine pool is required")
	}
	if opts.TileSize == 0 {
		opts.TileSize = coord.DefaultTileSize
	}
	if opts.Metatile == 0 {
		opts.Metatile = 1
	}
	if opts.TileSize < 1 || opts.Metatile < 1 {
		return nil, fmt.Errorf("metatile: tile size %d and factor %d must be positive", opts.TileSize, opts.Metatile)
	}
	if opts.Scale == 0 {
		opts.Scale = 1
	}
	if opts.SolidCache == nil {
		opts.SolidCache = solidcache.New(solidcache.DefaultCapacity)
	}
	if opts.Stats == nil {
		opts.Stats = stats.Discard
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	s := &Source{
		grid:          opts.TileGrid,
		tileSize:      opts.TileSize,
		metatile:      opts.Metatile,
		scale:         opts.Scale,
		pool:          opts.Pool,
		acquireWait:   opts.AcquireTimeout,
		cache:         opts.SolidCache,
		stats:         opts.Stats,
		log:           opts.Logger,
		concurrency:   opts.EncodeConcurrency,
		interactivity: opts.Interactivity,
		ttl:           opts.ResultTTL,
	}
	s.newID = shortid.Generate
	if s.ttl > 0 {
		capacity := opts.ResultCapacity
		if capacity < 1 {
			capacity = DefaultResultCapacity
		}
		prune := uint32(capacity / 10)
		if prune < 1 {
			prune = 1
		}
		s.results = ccache.New(ccache.Configure[*Tiles]().MaxSize(int64(capacity)).ItemsToPrune(prune))
	}
	return s, nil
}

// Grid returns the tile grid the source renders.
func (s *Source) Grid() *coord.Grid { return s.grid }

// Metatile returns the metatile factor.
func (s *Source) Metatile() int { return s.metatile }

// Request builds a request for tile z/x/y in format f using the source's
// settings.
func (s *Source) Request(f encode.Format, z, x, y int) Request {
	return Request{
		Tile:        maptile.New(uint32(x), uint32(y), maptile.Zoom(z)),
		Metatile:    s.metatile,
		TileSize:    s.tileSize,
		Format:      f,
		Resolutions: s.grid.Resolutions,
		Bounds:      s.grid.Bounds,
		Scale:       s.scale,
		Grid:        s.interactivity,
	}
}

// GetTile returns one encoded tile. Concurrent calls for tiles of the same
// metatile share a single render, and with a result TTL configured the
// whole metatile is kept so that its siblings are served from memory.
func (s *Source) GetTile(ctx context.Context, f encode.Format, z, x, y int) (Tile, error) {
	req := s.Request(f, z, x, y)
	if err := req.Validate(); err != nil {
		return Tile{}, err
	}
	key := req.Key()
	m := req.Metatile
	metaKey := TileKey(f, z, x-x%m, y-y%m)

	if tiles := s.cached(metaKey); tiles != nil {
		if t, ok := tiles.Get(key); ok {
			return t, nil
		}
	}

	ch := s.inflight.DoChan(metaKey, func() (any, error) {
		if tiles := s.cached(metaKey); tiles != nil {
			return tiles, nil
		}
		// The render is shared; one caller giving up must not cancel it.
		rctx := context.WithoutCancel(ctx)
		p, err := s.RenderMetatile(rctx, req)
		if err != nil {
			return nil, err
		}
		tiles, err := p.Wait(rctx)
		if err != nil {
			return nil, err
		}
		if s.results != nil {
			s.results.Set(metaKey, tiles, s.ttl)
		}
		return tiles, nil
	})

	select {
	case <-ctx.Done():
		return Tile{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Tile{}, res.Err
		}
		t, ok := res.Val.(*Tiles).Get(key)
		if !ok {
			return Tile{}, fmt.Errorf("%w: tile %s missing from metatile %s", ErrRender, key, metaKey)
		}
		return t, nil
	}
}

func (s *Source) cached(metaKey string) *Tiles {
	if s.results == nil {
		return nil
	}
	if item := s.results.Get(metaKey); item != nil && !item.Expired() {
		return item.Value()
	}
	return nil
}

// Close releases the result cache.
func (s *Source) Close() {
	if s.results != nil {
		s.results.Stop()
	}
}
