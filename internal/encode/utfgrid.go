package encode

import (
	"encoding/json"
	"fmt"
	"image"
	"strings"
)

// GridOptions controls UTFGrid encoding.
type GridOptions struct {
	// Layer is the interactivity layer; features from other layers are
	// encoded as empty cells.
	Layer string
	// Fields restricts the attributes written to "data". Empty keeps all.
	Fields []string
	// Resolution is the pixel step between sampled cells (default 4).
	Resolution int
}

// DefaultGridResolution is the UTFGrid cell size in pixels.
const DefaultGridResolution = 4

// GridFeature is one feature referenced from a grid cell.
type GridFeature struct {
	ID         string
	Layer      string
	Properties map[string]any
}

// GridSource is a region of a feature grid. KeyAt returns 0 for empty cells.
type GridSource interface {
	Bounds() image.Rectangle
	KeyAt(x, y int) uint32
	Feature(key uint32) (GridFeature, bool)
}

type utfGrid struct {
	Grid []string                  `json:"grid"`
	Keys []string                  `json:"keys"`
	Data map[string]map[string]any `json:"data"`
}

// EncodeUTFGrid samples src every opts.Resolution pixels and encodes the
// result as UTFGrid JSON.
func EncodeUTFGrid(src GridSource, opts GridOptions) ([]byte, error) {
	res := opts.Resolution
	if res <= 0 {
		res = DefaultGridResolution
	}
	b := src.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("utfgrid: empty region %v", b)
	}

	out := utfGrid{Keys: []string{""}, Data: map[string]map[string]any{}}
	index := map[string]int{"": 0}
	var row strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += res {
		row.Reset()
		for x := b.Min.X; x < b.Max.X; x += res {
			id := ""
			if key := src.KeyAt(x, y); key != 0 {
				if f, ok := src.Feature(key); ok && (opts.Layer == "" || f.Layer == opts.Layer) {
					id = f.ID
					if _, seen := out.Data[id]; !seen {
						out.Data[id] = selectFields(f.Properties, opts.Fields)
					}
				}
			}
			i, ok := index[id]
			if !ok {
				i = len(out.Keys)
				index[id] = i
				out.Keys = append(out.Keys, id)
			}
			row.WriteRune(gridRune(i))
		}
		out.Grid = append(out.Grid, row.String())
	}
	return json.Marshal(out)
}

// gridRune maps a key index to its UTFGrid code point: offset by 32 and
// skipping '"' (34) and '\' (92), which would need escaping in JSON.
func gridRune(i int) rune {
	c := i + 32
	if c >= 34 {
		c++
	}
	if c >= 92 {
		c++
	}
	return rune(c)
}

// GridIndex is the inverse of gridRune.
func GridIndex(r rune) int {
	c := int(r)
	if c >= 93 {
		c--
	}
	if c >= 35 {
		c--
	}
	return c - 32
}

func selectFields(props map[string]any, fields []string) map[string]any {
	if len(fields) == 0 {
		out := make(map[string]any, len(props))
		for k, v := range props {
			out[k] = v
		}
		return out
	}
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := props[f]; ok {
			out[f] = v
		}
	}
	return out
}
