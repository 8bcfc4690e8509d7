package canvas

import (
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/project"
)

// LoadFeatures reads a GeoJSON feature collection. With toMercator set,
// coordinates are taken as WGS84 longitude/latitude and projected to
// spherical Mercator; otherwise they must already be in grid map units.
func LoadFeatures(path string, toMercator bool) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading features: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing features %s: %w", path, err)
	}
	if toMercator {
		for _, f := range fc.Features {
			f.Geometry = project.Geometry(f.Geometry, project.WGS84.ToMercator)
		}
	}
	return fc, nil
}

// ParseColor parses "#rrggbb", "#rrggbbaa" or "r,g,b[,a]".
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		if len(hex) != 6 && len(hex) != 8 {
			return color.RGBA{}, fmt.Errorf("invalid color %q", s)
		}
		if len(hex) == 6 {
			hex += "ff"
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	ch := [4]uint8{0, 0, 0, 255}
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		ch[i] = uint8(v)
	}
	return color.RGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, nil
}
