package config

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pspoerri/metatiler/internal/canvas"
	"github.com/pspoerri/metatiler/internal/encode"
	"github.com/pspoerri/metatiler/internal/metatile"
	"github.com/pspoerri/metatiler/internal/solidcache"
	"github.com/pspoerri/metatiler/internal/stats"
)

// SolidCache builds the configured solid-tile cache: an in-process cache,
// fronting redis when an address is set. The returned close func releases
// both.
func (c *Config) SolidCache(ctx context.Context) (solidcache.Cache, func(), error) {
	local := solidcache.New(c.Cache.Capacity)
	closeLocal := func() {
		if l, ok := local.(*solidcache.LRU); ok {
			l.Close()
		}
	}
	if c.Redis.Addr == "" {
		return local, closeLocal, nil
	}

	remote, err := solidcache.NewRedis(solidcache.RedisOptions{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		Prefix:   c.Redis.Prefix,
		TTL:      c.Redis.TTL,
	})
	if err != nil {
		closeLocal()
		return nil, nil, err
	}
	if err := remote.Ping(ctx); err != nil {
		_ = remote.Close()
		closeLocal()
		return nil, nil, fmt.Errorf("connecting to redis %s: %w", c.Redis.Addr, err)
	}
	return solidcache.NewTiered(local, remote), func() {
		closeLocal()
		_ = remote.Close()
	}, nil
}

// GridOptions returns the UTFGrid settings.
func (c *Config) GridOptions() encode.GridOptions {
	return encode.GridOptions{
		Layer:      c.Grid.Layer,
		Fields:     c.Grid.Fields,
		Resolution: c.Grid.Resolution,
	}
}

// CanvasStyle parses the built-in engine style.
func (c *Config) CanvasStyle() (canvas.Style, error) {
	bg, err := canvas.ParseColor(c.Style.Background)
	if err != nil {
		return canvas.Style{}, fmt.Errorf("style background: %w", err)
	}
	fill, err := canvas.ParseColor(c.Style.Fill)
	if err != nil {
		return canvas.Style{}, fmt.Errorf("style fill: %w", err)
	}
	return canvas.Style{
		Background: bg,
		Fill:       fill,
		Layer:      c.Grid.Layer,
		IDProperty: c.Style.IDProperty,
	}, nil
}

// SourceOptions converts the config into metatile source options. The
// caller supplies the engine pool and solid cache.
func (c *Config) SourceOptions(p metatile.EnginePool, cache solidcache.Cache, sink stats.Sink, log logrus.FieldLogger) (metatile.Options, error) {
	grid, err := c.TileGrid()
	if err != nil {
		return metatile.Options{}, err
	}
	return metatile.Options{
		TileGrid:          grid,
		TileSize:          c.TileSize,
		Metatile:          c.Metatile,
		Scale:             c.Scale,
		Pool:              p,
		AcquireTimeout:    c.Pool.AcquireTimeout,
		SolidCache:        cache,
		Stats:             sink,
		Logger:            log,
		EncodeConcurrency: c.Encode.Concurrency,
		ResultTTL:         c.Cache.ResultTTL,
		ResultCapacity:    c.Cache.Results,
		Interactivity:     c.GridOptions(),
	}, nil
}
