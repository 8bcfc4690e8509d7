package metatile

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pspoerri/metatiler/internal/encode"
	"github.com/pspoerri/metatiler/internal/render"
	"github.com/pspoerri/metatiler/internal/stats"
)

// Fingerprint identifies the content of a solid tile: the format token
// followed by "r,g,b,a" for images, or the feature key for grids.
func Fingerprint(f encode.Format, value uint32) string {
	if f.IsGrid() {
		return strconv.FormatUint(uint64(value), 10)
	}
	c := render.UnpackRGBA(value)
	return fmt.Sprintf("%s%d,%d,%d,%d", f.String(), c.R, c.G, c.B, c.A)
}

// cacheKey qualifies fp with the region size for tiles clipped by the
// dataset bounds, so a clipped solid tile never reuses a full-size buffer.
func cacheKey(fp string, region image.Rectangle, clipped bool) string {
	if !clipped {
		return fp
	}
	return fmt.Sprintf("%s@%dx%d", fp, region.Dx(), region.Dy())
}

func (s *Source) single(ctx context.Context, req Request, g Geometry, key string, raster render.Raster, sink stats.Sink, log logrus.FieldLogger) (*Tiles, error) {
	st := g.Tiles[0]
	t, err := s.extract(ctx, req, sink, raster, g.Region(st), g.Clipped(st), key, log)
	if err != nil {
		return nil, err
	}
	tiles := newTiles(1)
	tiles.set(key, t)
	return tiles, nil
}

// slice extracts and encodes every sub-tile concurrently. Siblings of a
// failing tile still run to completion; the first error wins.
func (s *Source) slice(ctx context.Context, req Request, g Geometry, keys []string, raster render.Raster, sink stats.Sink, log logrus.FieldLogger) (*Tiles, error) {
	out := make([]Tile, len(g.Tiles))
	var eg errgroup.Group
	if s.concurrency > 0 {
		eg.SetLimit(s.concurrency)
	}
	for i, st := range g.Tiles {
		eg.Go(func() error {
			t, err := s.extract(ctx, req, sink, raster, g.Region(st), g.Clipped(st), keys[i], log)
			if err != nil {
				return err
			}
			out[i] = t
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	tiles := newTiles(len(out))
	for i, t := range out {
		tiles.set(keys[i], t)
	}
	return tiles, nil
}

// extract probes one region for uniformity and encodes it, serving solid
// regions from the solid cache when possible.
func (s *Source) extract(ctx context.Context, req Request, sink stats.Sink, raster render.Raster, region image.Rectangle, clipped bool, key string, log logrus.FieldLogger) (t Tile, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: panic: %v", ErrEncode, key, r)
		}
	}()

	view := raster.View(region)
	solid, value, err := view.IsSolid()
	if err != nil {
		return Tile{}, fmt.Errorf("%w: %s: %w", ErrEncode, key, err)
	}

	sink.Inc(stats.Total)
	headers := http.Header{}
	headers.Set("Content-Type", encode.ContentType(req.Format))

	var fp, ck string
	if solid {
		sink.Inc(stats.Solid)
		if raster.Painted() {
			sink.Inc(stats.SolidPainted)
		}
		fp = Fingerprint(req.Format, value)
		ck = cacheKey(fp, region, clipped)
		data, ok, err := s.cache.Get(ctx, ck)
		if err != nil {
			log.WithError(err).WithField("fingerprint", ck).Warn("solid cache lookup failed")
		} else if ok {
			return Tile{Data: data, Headers: headers, Solid: fp}, nil
		}
	}

	data, err := view.Encode(req.Format, req.Grid)
	if err != nil {
		return Tile{}, fmt.Errorf("%w: %s: %w", ErrEncode, key, err)
	}
	sink.Inc(stats.Encoded)

	if solid {
		if err := s.cache.Set(ctx, ck, data); err != nil {
			log.WithError(err).WithField("fingerprint", ck).Warn("solid cache store failed")
		}
	}
	return Tile{Data: data, Headers: headers, Solid: fp}, nil
}
