// Package stats collects per-source rendering counters. A Sink is passed
// explicitly into each render instead of mutating process-wide state.
package stats

import (
	"fmt"
	"sync/atomic"
)

// Counter names one rendering statistic.
type Counter int

const (
	// Render counts render invocations (one per metatile attempt).
	Render Counter = iota
	// Total counts tiles extracted from rendered metatiles.
	Total
	// Solid counts tiles whose pixels are all identical.
	Solid
	// SolidPainted counts solid tiles from rasters with drawn content.
	SolidPainted
	// Encoded counts tiles that went through the encoder (cache misses).
	Encoded

	numCounters
)

func (c Counter) String() string {
	switch c {
	case Render:
		return "render"
	case Total:
		return "total"
	case Solid:
		return "solid"
	case SolidPainted:
		return "solid_painted"
	case Encoded:
		return "encoded"
	default:
		return fmt.Sprintf("counter(%d)", int(c))
	}
}

// Sink receives counter increments. Implementations must be safe for
// concurrent use.
type Sink interface {
	Inc(c Counter)
}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Inc(Counter) {}

// Counters is an in-memory Sink.
type Counters struct {
	c [numCounters]atomic.Int64
}

// NewCounters returns zeroed counters.
func NewCounters() *Counters { return &Counters{} }

func (s *Counters) Inc(c Counter) {
	if c >= 0 && c < numCounters {
		s.c[c].Add(1)
	}
}

// Get returns the current value of c.
func (s *Counters) Get(c Counter) int64 {
	if c < 0 || c >= numCounters {
		return 0
	}
	return s.c[c].Load()
}

// Snapshot is a point-in-time copy of Counters.
type Snapshot struct {
	Render       int64 `json:"render"`
	Total        int64 `json:"total"`
	Solid        int64 `json:"solid"`
	SolidPainted int64 `json:"solidPainted"`
	Encoded      int64 `json:"encoded"`
}

// Snapshot reads all counters.
func (s *Counters) Snapshot() Snapshot {
	return Snapshot{
		Render:       s.Get(Render),
		Total:        s.Get(Total),
		Solid:        s.Get(Solid),
		SolidPainted: s.Get(SolidPainted),
		Encoded:      s.Get(Encoded),
	}
}

// Tee fans increments out to several sinks. Nil sinks are skipped.
func Tee(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type multi []Sink

func (m multi) Inc(c Counter) {
	for _, s := range m {
		s.Inc(c)
	}
}
