package metatile

import (
	"net/http"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Tile is one encoded output tile.
type Tile struct {
	Data    []byte
	Headers http.Header
	// Solid is the content fingerprint when every pixel of the tile is
	// identical, empty otherwise.
	Solid string
}

// Tiles maps tile identifiers to tiles, iterating in geometry order.
type Tiles struct {
	m *orderedmap.OrderedMap[string, Tile]
}

func newTiles(n int) *Tiles {
	return &Tiles{m: orderedmap.New[string, Tile](n)}
}

func (t *Tiles) set(key string, tile Tile) { t.m.Set(key, tile) }

// Get returns the tile with the given identifier.
func (t *Tiles) Get(key string) (Tile, bool) { return t.m.Get(key) }

// Len returns the number of tiles.
func (t *Tiles) Len() int { return t.m.Len() }

// Keys returns all identifiers in geometry order.
func (t *Tiles) Keys() []string {
	keys := make([]string, 0, t.m.Len())
	for p := t.m.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// Each calls fn for every tile in geometry order until fn returns false.
func (t *Tiles) Each(fn func(key string, tile Tile) bool) {
	for p := t.m.Oldest(); p != nil; p = p.Next() {
		if !fn(p.Key, p.Value) {
			return
		}
	}
}
