// Command metarender renders metatiles covering a bounding box with the
// built-in polygon engine and writes the sliced tiles to a directory as
// z/x/y files, reporting render and solid-tile statistics.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/carlmjohnson/versioninfo"
	"github.com/iancoleman/strcase"
	"github.com/joho/godotenv"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/project"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/pspoerri/metatiler/internal/canvas"
	"github.com/pspoerri/metatiler/internal/config"
	"github.com/pspoerri/metatiler/internal/logging"
	"github.com/pspoerri/metatiler/internal/metatile"
	"github.com/pspoerri/metatiler/internal/pool"
	"github.com/pspoerri/metatiler/internal/render"
	"github.com/pspoerri/metatiler/internal/stats"
)

const (
	CONFIG   string = `config`
	ENVFILE  string = `envfile`
	OUTPUT   string = `output`
	BBOX     string = `bbox`
	LONLAT   string = `lonlat`
	MINZOOM  string = `minzoom`
	MAXZOOM  string = `maxzoom`
	FORMAT   string = `format`
	METATILE string = `metatile`
	FEATURES string = `features`
	METRICS  string = `metrics`
	LOGLEVEL string = `loglevel`
	QUIET    string = `quiet`
)

func envVars(name string) []string {
	return []string{strcase.ToScreamingSnake(config.EnvPrefix + "_" + name)}
}

func main() {
	app := cli.NewApp()
	app.Name = "metarender"
	app.Usage = "Render metatiles over a bounding box and slice them into tiles"
	app.Version = versioninfo.Short()

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    CONFIG,
			Aliases: []string{"c"},
			Usage:   "Config file (yaml, toml or json)",
			EnvVars: envVars(CONFIG),
		},
		&cli.StringFlag{
			Name:  ENVFILE,
			Usage: "Load environment overrides from this dotenv file if it exists",
			Value: ".env",
		},
		&cli.StringFlag{
			Name:     OUTPUT,
			Aliases:  []string{"o"},
			Usage:    "Output directory; tiles are written as <z>/<x>/<y>.<ext>",
			Required: true,
			EnvVars:  envVars(OUTPUT),
		},
		&cli.StringFlag{
			Name:    BBOX,
			Aliases: []string{"b"},
			Usage:   "Bounding box minx,miny,maxx,maxy in grid units (default: whole grid)",
			EnvVars: envVars(BBOX),
		},
		&cli.BoolFlag{
			Name:    LONLAT,
			Usage:   "Bounding box is given in WGS84 longitude/latitude (mercator grid only)",
			EnvVars: envVars(LONLAT),
		},
		&cli.IntFlag{
			Name:    MINZOOM,
			Usage:   "Lowest zoom level to render",
			Value:   0,
			EnvVars: envVars(MINZOOM),
		},
		&cli.IntFlag{
			Name:    MAXZOOM,
			Usage:   "Highest zoom level to render",
			Value:   3,
			EnvVars: envVars(MAXZOOM),
		},
		&cli.StringFlag{
			Name:    FORMAT,
			Aliases: []string{"f"},
			Usage:   "Tile format token, e.g. png, png8, jpeg80, webp, utf (overrides config)",
		},
		&cli.IntFlag{
			Name:    METATILE,
			Aliases: []string{"m"},
			Usage:   "Tiles per metatile side (overrides config)",
		},
		&cli.StringFlag{
			Name:  FEATURES,
			Usage: "GeoJSON polygons to draw (overrides config)",
		},
		&cli.StringFlag{
			Name:  METRICS,
			Usage: "Write Prometheus text-format counters to this file when done",
		},
		&cli.StringFlag{
			Name:  LOGLEVEL,
			Usage: "Log level (overrides config)",
		},
		&cli.BoolFlag{
			Name:    QUIET,
			Aliases: []string{"q"},
			Usage:   "Disable the progress bar",
		},
	}

	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if _, err := os.Stat(c.String(ENVFILE)); err == nil {
		if err := godotenv.Load(c.String(ENVFILE)); err != nil {
			return fmt.Errorf("loading %s: %w", c.String(ENVFILE), err)
		}
	}

	cfg, err := config.Load(c.String(CONFIG))
	if err != nil {
		return err
	}
	if c.IsSet(FORMAT) {
		cfg.Format = c.String(FORMAT)
	}
	if c.IsSet(METATILE) {
		cfg.Metatile = c.Int(METATILE)
	}
	if c.IsSet(FEATURES) {
		cfg.Style.Features = c.String(FEATURES)
	}
	if c.IsSet(LOGLEVEL) {
		cfg.Log.Level = c.String(LOGLEVEL)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, closeLog, err := logging.New(logging.Options{Level: cfg.Log.Level, Dir: cfg.Log.Dir})
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	format, err := cfg.TileFormat()
	if err != nil {
		return err
	}
	grid, err := cfg.TileGrid()
	if err != nil {
		return err
	}
	bbox := grid.Bounds
	if c.IsSet(BBOX) {
		bbox, err = parseBBox(c.String(BBOX))
		if err != nil {
			return err
		}
		if c.Bool(LONLAT) {
			if grid.EPSG != 3857 {
				return fmt.Errorf("--%s needs the mercator grid, have %s", LONLAT, grid.Name)
			}
			bbox = project.Bound(bbox, project.WGS84.ToMercator)
		}
	}

	style, err := cfg.CanvasStyle()
	if err != nil {
		return err
	}
	var fc *geojson.FeatureCollection
	if cfg.Style.Features != "" {
		fc, err = canvas.LoadFeatures(cfg.Style.Features, cfg.Style.FeaturesWGS84)
		if err != nil {
			return err
		}
		log.WithField("features", len(fc.Features)).Info("loaded features")
	}
	engines := pool.New(pool.Options[render.Engine]{
		Size: cfg.Pool.Size,
		Factory: func() (render.Engine, error) {
			return canvas.New(fc, style), nil
		},
	})

	cache, closeCache, err := cfg.SolidCache(ctx)
	if err != nil {
		return err
	}
	defer closeCache()

	counters := stats.NewCounters()
	reg := prometheus.NewRegistry()
	prom, err := stats.NewPrometheus(reg, "metarender")
	if err != nil {
		return err
	}

	opts, err := cfg.SourceOptions(engines, cache, stats.Tee(counters, prom), log)
	if err != nil {
		return err
	}
	src, err := metatile.NewSource(opts)
	if err != nil {
		return err
	}
	defer src.Close()

	r := &renderer{
		src:      src,
		format:   format,
		out:      c.String(OUTPUT),
		workers:  cfg.Pool.Size,
		progress: !c.Bool(QUIET),
		log:      log,
	}
	log.WithFields(logrus.Fields{
		"grid":     grid.Name,
		"format":   format.String(),
		"metatile": cfg.Metatile,
		"bbox":     bbox,
	}).Info("rendering")

	renderErr := r.renderRange(ctx, bbox, c.Int(MINZOOM), c.Int(MAXZOOM))

	if err := engines.Drain(context.WithoutCancel(ctx)); err != nil {
		log.WithError(err).Warn("draining engine pool")
	}
	snap := counters.Snapshot()
	log.WithFields(logrus.Fields{
		"renders":       snap.Render,
		"tiles":         snap.Total,
		"solid":         snap.Solid,
		"solid_painted": snap.SolidPainted,
		"encoded":       snap.Encoded,
	}).Info("done")

	if path := c.String(METRICS); path != "" {
		if err := prometheus.WriteToTextfile(path, reg); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	if errors.Is(renderErr, context.Canceled) {
		return errors.New("interrupted")
	}
	return renderErr
}

// parseBBox parses "minx,miny,maxx,maxy".
func parseBBox(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("bbox %q: want minx,miny,maxx,maxy", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("bbox %q: %w", s, err)
		}
		v[i] = f
	}
	if v[2] <= v[0] || v[3] <= v[1] {
		return orb.Bound{}, fmt.Errorf("bbox %q is empty", s)
	}
	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
}

// tilePath returns out/z/x/y.ext.
func tilePath(out string, z, x, y int, ext string) string {
	return filepath.Join(out, strconv.Itoa(z), strconv.Itoa(x), strconv.Itoa(y)+ext)
}
