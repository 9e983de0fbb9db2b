// Package indicator computes moving averages and relative strength oscillators over daily series.
//
// Every function is pure: inputs are never mutated and an empty input yields an empty output.
// Missing observations are represented as invalid null.Float values.
package indicator

import (
	"sort"
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

// Series is a sequence of values keyed by ascending, unique timestamps
type Series struct {
	Times  []time.Time
	Values []null.Float
}

// NewSeries builds a series of valid values. Extra entries of the longer slice are dropped.
func NewSeries(times []time.Time, values []float64) Series {
	n := min(len(times), len(values))
	s := Series{Times: make([]time.Time, n), Values: make([]null.Float, n)}
	for i := 0; i < n; i++ {
		s.Times[i] = times[i]
		s.Values[i] = null.FloatFrom(values[i])
	}
	return s
}

// FromDecimals builds a series from stored decimal prices
func FromDecimals(times []time.Time, values []decimal.Decimal) Series {
	n := min(len(times), len(values))
	s := Series{Times: make([]time.Time, n), Values: make([]null.Float, n)}
	for i := 0; i < n; i++ {
		s.Times[i] = times[i]
		s.Values[i] = null.FloatFrom(values[i].InexactFloat64())
	}
	return s
}

// Len returns the number of points
func (s Series) Len() int {
	return len(s.Times)
}

// Floats returns the values with nulls as nil
func (s Series) Floats() []*float64 {
	out := make([]*float64, len(s.Values))
	for i, v := range s.Values {
		out[i] = v.Ptr()
	}
	return out
}

// Reindex returns s looked up at times; timestamps missing from s become null
func Reindex(s Series, times []time.Time) Series {
	lookup := make(map[time.Time]null.Float, s.Len())
	for i, t := range s.Times {
		lookup[t.UTC()] = s.Values[i]
	}

	out := Series{Times: make([]time.Time, len(times)), Values: make([]null.Float, len(times))}
	for i, t := range times {
		out.Times[i] = t
		out.Values[i] = lookup[t.UTC()]
	}
	return out
}

// align returns the sorted union of both series' timestamps and each series reindexed onto it
func align(a, b Series) ([]time.Time, Series, Series) {
	seen := make(map[time.Time]bool, a.Len()+b.Len())
	union := make([]time.Time, 0, a.Len()+b.Len())
	for _, times := range [][]time.Time{a.Times, b.Times} {
		for _, t := range times {
			key := t.UTC()
			if seen[key] {
				continue
			}
			seen[key] = true
			union = append(union, key)
		}
	}
	sort.Slice(union, func(i, j int) bool { return union[i].Before(union[j]) })
	return union, Reindex(a, union), Reindex(b, union)
}
