package metatile

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pspoerri/metatiler/internal/encode"
	"github.com/pspoerri/metatiler/internal/render"
	"github.com/pspoerri/metatiler/internal/stats"
)

// Pending is a metatile render in progress. The tile keys are known as soon
// as the render is scheduled; the tiles arrive once it completes.
type Pending struct {
	geom  Geometry
	keys  []string
	done  chan struct{}
	tiles *Tiles
	err   error
}

// Keys returns the identifiers of every tile the render will produce, in
// geometry order.
func (p *Pending) Keys() []string { return p.keys }

// Geometry returns the metatile layout.
func (p *Pending) Geometry() Geometry { return p.geom }

// Done is closed when the render has finished.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Result returns the outcome of a finished render. It must only be called
// after Done is closed.
func (p *Pending) Result() (*Tiles, error) { return p.tiles, p.err }

// Wait blocks until the render finishes or ctx is done.
func (p *Pending) Wait(ctx context.Context) (*Tiles, error) {
	select {
	case <-p.done:
		return p.tiles, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RenderMetatile schedules a render of the metatile containing req.Tile and
// returns immediately. ctx bounds engine acquisition (further limited by
// Options.AcquireTimeout) and is passed to the engine; encodes already
// dispatched are not cancelled.
func (s *Source) RenderMetatile(ctx context.Context, req Request) (*Pending, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	g := Compute(req)
	p := &Pending{geom: g, done: make(chan struct{})}
	if len(g.Tiles) == 1 {
		p.keys = []string{req.Key()}
	} else {
		p.keys = g.Keys(req.Format)
	}

	sink := req.Stats
	if sink == nil {
		sink = s.stats
	}
	log := s.log.WithFields(logrus.Fields{
		"job":    s.jobID(g, req.Format),
		"z":      g.Z,
		"x":      g.X,
		"y":      g.Y,
		"format": req.Format.String(),
	})

	go func() {
		defer close(p.done)
		p.tiles, p.err = s.run(ctx, req, g, p.keys, sink, log)
		if p.err != nil {
			log.WithError(p.err).Debug("metatile failed")
		}
	}()
	return p, nil
}

// jobID returns a short random ID for log correlation, falling back to the
// metatile key if the generator fails.
func (s *Source) jobID(g Geometry, f encode.Format) string {
	id, err := s.newID()
	if err != nil {
		key := TileKey(f, g.Z, g.X, g.Y)
		s.log.WithError(err).WithField("metatile", key).Warn("generating job id")
		return key
	}
	return id
}

func (s *Source) run(ctx context.Context, req Request, g Geometry, keys []string, sink stats.Sink, log logrus.FieldLogger) (*Tiles, error) {
	log.WithFields(logrus.Fields{
		"width":  g.Width,
		"height": g.Height,
		"tiles":  len(g.Tiles),
	}).Debug("rendering metatile")

	raster := render.NewRaster(req.Format, g.Width, g.Height)
	defer render.Release(raster)

	if err := s.render(ctx, req, g, raster, sink); err != nil {
		return nil, err
	}
	if len(g.Tiles) == 1 {
		return s.single(ctx, req, g, keys[0], raster, sink, log)
	}
	return s.slice(ctx, req, g, keys, raster, sink, log)
}

// render acquires an engine, configures it for g and paints raster. The
// engine goes back to the pool exactly once, after Render has returned.
func (s *Source) render(ctx context.Context, req Request, g Geometry, raster render.Raster, sink stats.Sink) (err error) {
	var (
		engine   render.Engine
		acquired bool
	)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: tile z%d/%d/%d: panic: %v", ErrRender, g.Z, g.X, g.Y, r)
		}
		if acquired {
			s.pool.Release(engine)
		}
	}()

	actx := ctx
	if s.acquireWait > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, s.acquireWait)
		defer cancel()
	}
	engine, err = s.pool.Acquire(actx)
	if err != nil {
		return fmt.Errorf("%w: tile z%d/%d/%d: %w", ErrPoolAcquire, g.Z, g.X, g.Y, err)
	}
	acquired = true

	engine.Resize(g.Width, g.Height)
	engine.SetExtent(g.BBox)
	opts := render.Options{
		Variables: map[string]any{"zoom": g.Z},
		Scale:     req.Scale,
	}
	sink.Inc(stats.Render)
	if err := engine.Render(ctx, raster, opts); err != nil {
		return fmt.Errorf("%w: tile z%d/%d/%d: %w", ErrRender, g.Z, g.X, g.Y, err)
	}
	return nil
}
