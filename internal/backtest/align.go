// Package backtest implements the single-symbol backtesting engine: aligning
// bars with indicator series, deriving long/flat signals from a pluggable
// rule, simulating trades over the aligned table, and reducing the result
// into a performance summary.
//
// The engine is deterministic and free of IO: identical inputs always
// produce identical trade logs and equity curves. Each call owns all of its
// state, so distinct symbols can be processed concurrently by the caller.
package backtest

import (
	"math"
	"time"

	"algotrade/internal/domain"
)

// Row is one date of the aligned table: the bar's close joined with every
// indicator value for that date. Indicator values are NaN during warm-up or
// when the series has no sample for the date.
type Row struct {
	Date   time.Time
	Close  float64
	Volume int64
	Values map[string]float64
	Signal domain.Signal
}

// Value returns the named indicator value, or NaN when the row has none.
func (r Row) Value(name string) float64 {
	v, ok := r.Values[name]
	if !ok {
		return math.NaN()
	}
	return v
}

// Defined reports whether every named indicator has a usable value in this
// row.
func (r Row) Defined(names ...string) bool {
	for _, name := range names {
		if math.IsNaN(r.Value(name)) {
			return false
		}
	}
	return true
}

// Align joins a date-ordered bar sequence with named indicator series into
// one gap-free table keyed by trading date. The join is strictly on date: a
// date present in bars but missing from an indicator series yields NaN for
// that indicator, never a fabricated number. Output ordering follows bars.
//
// Duplicate or non-monotonic bar dates return a *MisalignedDataError.
func Align(bars []domain.Bar, indicators map[string][]domain.IndicatorSample) ([]Row, error) {
	// Index each indicator series by calendar date.
	byDate := make(map[string]map[string]float64, len(indicators))
	for name, samples := range indicators {
		idx := make(map[string]float64, len(samples))
		for _, s := range samples {
			idx[dateKey(s.Date)] = s.Value
		}
		byDate[name] = idx
	}

	rows := make([]Row, 0, len(bars))
	var prev time.Time
	for i, b := range bars {
		if i > 0 && !b.Date.After(prev) {
			return nil, &MisalignedDataError{
				Symbol: b.Symbol,
				Index:  i,
				Prev:   prev,
				Date:   b.Date,
			}
		}
		prev = b.Date

		values := make(map[string]float64, len(indicators))
		key := dateKey(b.Date)
		for name, idx := range byDate {
			v, ok := idx[key]
			if !ok {
				v = math.NaN()
			}
			values[name] = v
		}

		rows = append(rows, Row{
			Date:   b.Date,
			Close:  b.Close,
			Volume: b.Volume,
			Values: values,
			Signal: domain.SignalUndefined,
		})
	}
	return rows, nil
}

// dateKey normalises a timestamp to its calendar day for joining.
func dateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
