// Package config loads metatiler settings from a file and METATILER_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/paulmach/orb"
	"github.com/spf13/viper"

	"github.com/pspoerri/metatiler/internal/coord"
	"github.com/pspoerri/metatiler/internal/encode"
)

// EnvPrefix prefixes environment overrides, e.g. METATILER_METATILE=8 or
// METATILER_REDIS_ADDR=localhost:6379.
const EnvPrefix = "METATILER"

type Config struct {
	Format   string  `mapstructure:"format" default:"png" validate:"required"`
	TileSize int     `mapstructure:"tilesize" default:"256" validate:"gte=1,lte=4096"`
	Metatile int     `mapstructure:"metatile" default:"4" validate:"gte=1,lte=64"`
	Scale    float64 `mapstructure:"scale" default:"1" validate:"gt=0"`

	// Projection selects a built-in grid. "custom" uses Resolutions and
	// Bounds instead.
	Projection string `mapstructure:"projection" default:"mercator" validate:"oneof=mercator lv95 custom"`
	// Resolutions is a comma-separated list of map units per pixel, one per
	// zoom level starting at 0.
	Resolutions string    `mapstructure:"resolutions" validate:"required_if=Projection custom"`
	Bounds      []float64 `mapstructure:"bounds" validate:"required_if=Projection custom,omitempty,len=4"`

	Pool   Pool   `mapstructure:"pool"`
	Encode Encode `mapstructure:"encode"`
	Cache  Cache  `mapstructure:"cache"`
	Redis  Redis  `mapstructure:"redis"`
	Grid   Grid   `mapstructure:"grid"`
	Style  Style  `mapstructure:"style"`
	Log    Log    `mapstructure:"log"`
}

type Pool struct {
	Size           int           `mapstructure:"size" default:"4" validate:"gte=1"`
	AcquireTimeout time.Duration `mapstructure:"acquiretimeout" default:"30s"`
}

type Encode struct {
	// Concurrency bounds concurrent sub-tile encodes per metatile; 0 is
	// unbounded.
	Concurrency int `mapstructure:"concurrency" validate:"gte=0"`
}

type Cache struct {
	// Capacity bounds the in-process solid cache; 0 keeps every entry.
	Capacity int `mapstructure:"capacity" default:"4096" validate:"gte=0"`
	// ResultTTL keeps whole metatiles for sibling tile lookups.
	ResultTTL time.Duration `mapstructure:"resultttl" default:"1m"`
	// Results bounds the number of kept metatiles.
	Results int `mapstructure:"results" default:"256" validate:"gte=1"`
}

type Redis struct {
	Addr     string        `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db" validate:"gte=0"`
	Prefix   string        `mapstructure:"prefix" default:"metatiler:solid:"`
	TTL      time.Duration `mapstructure:"ttl" default:"24h"`
}

type Grid struct {
	Layer      string   `mapstructure:"layer"`
	Fields     []string `mapstructure:"fields"`
	Resolution int      `mapstructure:"resolution" default:"4" validate:"gte=1"`
}

type Style struct {
	Background string `mapstructure:"background" default:"#aad3df"`
	Fill       string `mapstructure:"fill" default:"#f2efe9"`
	// Features is a GeoJSON file drawn by the built-in engine.
	Features string `mapstructure:"features"`
	// FeaturesWGS84 projects feature coordinates from lon/lat to Mercator.
	FeaturesWGS84 bool   `mapstructure:"featureswgs84" default:"true"`
	IDProperty    string `mapstructure:"idproperty"`
}

type Log struct {
	Level string `mapstructure:"level" default:"info" validate:"oneof=panic fatal error warn warning info debug trace"`
	Dir   string `mapstructure:"dir"`
}

// Load reads path (YAML, TOML or JSON by extension; empty for none),
// applies environment overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}
	bindEnv(v, reflect.TypeOf(*cfg), "")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindEnv registers every mapstructure key so AutomaticEnv applies to
// Unmarshal, which only sees keys viper already knows.
func bindEnv(v *viper.Viper, t reflect.Type, prefix string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		key := f.Tag.Get("mapstructure")
		if key == "" {
			continue
		}
		if prefix != "" {
			key = prefix + "." + key
		}
		if f.Type.Kind() == reflect.Struct && f.Type != reflect.TypeOf(time.Duration(0)) {
			bindEnv(v, f.Type, key)
			continue
		}
		_ = v.BindEnv(key)
	}
}

// Validate checks field constraints and that the format and grid resolve.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.TileFormat(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.TileGrid(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// TileFormat parses Format.
func (c *Config) TileFormat() (encode.Format, error) {
	return encode.ParseFormat(c.Format)
}

// TileGrid resolves the configured projection to a grid.
func (c *Config) TileGrid() (*coord.Grid, error) {
	if c.Projection != "custom" {
		g := coord.ForName(c.Projection)
		if g == nil {
			return nil, fmt.Errorf("unknown projection %q", c.Projection)
		}
		return g, nil
	}
	perPixel, err := coord.ParseTable(c.Resolutions)
	if err != nil {
		return nil, err
	}
	if len(c.Bounds) != 4 {
		return nil, errors.New("custom projection needs bounds minx,miny,maxx,maxy")
	}
	b := orb.Bound{Min: orb.Point{c.Bounds[0], c.Bounds[1]}, Max: orb.Point{c.Bounds[2], c.Bounds[3]}}
	if b.Max[0] <= b.Min[0] || b.Max[1] <= b.Min[1] {
		return nil, fmt.Errorf("empty bounds %v", c.Bounds)
	}
	return &coord.Grid{
		Name:        "custom",
		Bounds:      b,
		Resolutions: coord.FromPixelResolutions(perPixel, c.TileSize),
	}, nil
}
