package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pspoerri/metatiler/internal/encode"
	"github.com/pspoerri/metatiler/internal/metatile"
)

type renderer struct {
	src      *metatile.Source
	format   encode.Format
	out      string
	workers  int
	progress bool
	log      logrus.FieldLogger
}

// renderRange renders every metatile intersecting bbox for zooms
// minZoom..maxZoom.
func (r *renderer) renderRange(ctx context.Context, bbox orb.Bound, minZoom, maxZoom int) error {
	grid := r.src.Grid()
	if maxZoom > grid.Resolutions.MaxZoom() {
		maxZoom = grid.Resolutions.MaxZoom()
	}
	if minZoom < 0 || minZoom > maxZoom {
		return fmt.Errorf("invalid zoom range %d-%d", minZoom, maxZoom)
	}

	m := r.src.Metatile()
	for z := minZoom; z <= maxZoom; z++ {
		minX, minY, maxX, maxY, err := grid.TileRange(z, bbox)
		if err != nil {
			return err
		}
		var origins [][2]int
		for x := minX - minX%m; x <= maxX; x += m {
			for y := minY - minY%m; y <= maxY; y += m {
				origins = append(origins, [2]int{x, y})
			}
		}
		r.log.WithFields(logrus.Fields{"z": z, "metatiles": len(origins)}).Debug("zoom level")

		var bar *progressbar.ProgressBar
		if r.progress {
			bar = progressbar.NewOptions(len(origins),
				progressbar.OptionSetWidth(25),
				progressbar.OptionSetDescription(fmt.Sprintf("zoom: %v", z)),
			)
		}

		eg, ectx := errgroup.WithContext(ctx)
		eg.SetLimit(r.workers)
		for _, o := range origins {
			eg.Go(func() error {
				if err := r.renderOne(ectx, z, o[0], o[1]); err != nil {
					return err
				}
				if bar != nil {
					_ = bar.Add(1)
				}
				return nil
			})
		}
		err = eg.Wait()
		if bar != nil {
			_ = bar.Finish()
			fmt.Fprintln(os.Stderr)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) renderOne(ctx context.Context, z, x, y int) error {
	p, err := r.src.RenderMetatile(ctx, r.src.Request(r.format, z, x, y))
	if err != nil {
		return err
	}
	tiles, err := p.Wait(ctx)
	if err != nil {
		return err
	}

	ext := encode.FileExtension(r.format)
	var werr error
	tiles.Each(func(key string, t metatile.Tile) bool {
		tz, tx, ty, err := parseKey(key)
		if err != nil {
			werr = err
			return false
		}
		path := tilePath(r.out, tz, tx, ty, ext)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			werr = err
			return false
		}
		if err := os.WriteFile(path, t.Data, 0o644); err != nil {
			werr = fmt.Errorf("writing tile %s: %w", key, err)
			return false
		}
		return true
	})
	return werr
}

// parseKey splits a "format,z,x,y" tile key. The format token itself may
// not contain commas.
func parseKey(key string) (z, x, y int, err error) {
	parts := strings.Split(key, ",")
	if len(parts) != 4 {
		return 0, 0, 0, fmt.Errorf("malformed tile key %q", key)
	}
	var v [3]int
	for i, p := range parts[1:] {
		if v[i], err = strconv.Atoi(p); err != nil {
			return 0, 0, 0, fmt.Errorf("malformed tile key %q: %w", key, err)
		}
	}
	return v[0], v[1], v[2], nil
}
