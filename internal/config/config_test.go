package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pspoerri/metatiler/internal/coord"
	"github.com/pspoerri/metatiler/internal/encode"
	"github.com/pspoerri/metatiler/internal/solidcache"
	"github.com/pspoerri/metatiler/internal/stats"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "png", cfg.Format)
	require.Equal(t, 256, cfg.TileSize)
	require.Equal(t, 4, cfg.Metatile)
	require.Equal(t, 1.0, cfg.Scale)
	require.Equal(t, "mercator", cfg.Projection)
	require.Equal(t, 4096, cfg.Cache.Capacity)
	require.Equal(t, time.Minute, cfg.Cache.ResultTTL)
	require.Equal(t, 30*time.Second, cfg.Pool.AcquireTimeout)
	require.Equal(t, "metatiler:solid:", cfg.Redis.Prefix)
	require.Equal(t, 4, cfg.Grid.Resolution)
	require.True(t, cfg.Style.FeaturesWGS84)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, "metatiler.yaml", `
format: jpeg80
metatile: 8
projection: lv95
cache:
  capacity: 0
grid:
  layer: land
  fields: [name]
`)
	t.Setenv("METATILER_METATILE", "2")
	t.Setenv("METATILER_POOL_SIZE", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "jpeg80", cfg.Format)
	require.Equal(t, 2, cfg.Metatile)
	require.Equal(t, 7, cfg.Pool.Size)
	require.Equal(t, 0, cfg.Cache.Capacity)
	require.Equal(t, encode.GridOptions{Layer: "land", Fields: []string{"name"}, Resolution: 4}, cfg.GridOptions())

	g, err := cfg.TileGrid()
	require.NoError(t, err)
	require.Equal(t, "lv95", g.Name)

	f, err := cfg.TileFormat()
	require.NoError(t, err)
	require.Equal(t, encode.KindJPEG, f.Kind)
	require.Equal(t, 80, f.Quality)
}

func TestLoad_Custom(t *testing.T) {
	path := writeConfig(t, "metatiler.toml", `
projection = "custom"
resolutions = "4,2,1"
bounds = [0, 0, 1024, 512]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	g, err := cfg.TileGrid()
	require.NoError(t, err)
	require.Equal(t, coord.Table{1024, 512, 256}, g.Resolutions)
	require.Equal(t, 1024.0, g.Bounds.Max[0])
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"metatile", "metatile: 0\n"},
		{"projection", "projection: robinson\n"},
		{"format", "format: bmp\n"},
		{"custom without resolutions", "projection: custom\nbounds: [0, 0, 1, 1]\n"},
		{"custom bounds", "projection: custom\nresolutions: \"1\"\nbounds: [0, 0, 1]\n"},
		{"log level", "log:\n  level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "c.yaml", tt.body))
			require.Error(t, err)
		})
	}
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestSourceOptions(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cache, closeCache, err := cfg.SolidCache(context.Background())
	require.NoError(t, err)
	defer closeCache()
	require.IsType(t, &solidcache.LRU{}, cache)

	opts, err := cfg.SourceOptions(nil, cache, stats.Discard, nil)
	require.NoError(t, err)
	require.Equal(t, 4, opts.Metatile)
	require.Equal(t, 256, opts.ResultCapacity)
	require.Equal(t, 30*time.Second, opts.AcquireTimeout)
	require.Equal(t, "mercator", opts.TileGrid.Name)

	style, err := cfg.CanvasStyle()
	require.NoError(t, err)
	require.EqualValues(t, 255, style.Background.A)
}
