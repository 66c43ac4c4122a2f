// Package domain defines the core data types shared across the algotrade
// system: bars, indicator samples, signals, simulated trades, equity points,
// and performance summaries.
package domain

import (
	"fmt"
	"time"
)

// Signal is the discrete desired position state derived from indicators.
type Signal int

const (
	// SignalUndefined marks a row whose indicators are still warming up.
	// Undefined rows are excluded from simulation.
	SignalUndefined Signal = iota
	// SignalFlat means no position should be held.
	SignalFlat
	// SignalLong means a long position should be held.
	SignalLong
)

// String returns the signal name for logging.
func (s Signal) String() string {
	switch s {
	case SignalFlat:
		return "flat"
	case SignalLong:
		return "long"
	default:
		return "undefined"
	}
}

// Bar is one day's OHLCV data for a symbol. Bars are immutable once ingested.
type Bar struct {
	Symbol string
	Date   time.Time // calendar day, midnight UTC
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// IndicatorSample is a single dated value of a named indicator series. Value
// is NaN while the indicator has insufficient history (warm-up).
type IndicatorSample struct {
	Date  time.Time
	Value float64
}

// Trade is a simulated round trip. Exit fields are meaningful only once
// Closed is true; the simulator closes every trade by the end of a run,
// force-closing at the last available price if the series ends long.
type Trade struct {
	Symbol      string
	EntryDate   time.Time
	EntryPrice  float64
	ExitDate    time.Time
	ExitPrice   float64
	Quantity    int64
	RealizedPnL float64
	Closed      bool
	ForceClosed bool
}

// String renders a trade for logs and notifications.
func (t Trade) String() string {
	if !t.Closed {
		return fmt.Sprintf("%s open %d @ %.2f on %s",
			t.Symbol, t.Quantity, t.EntryPrice, t.EntryDate.Format("2006-01-02"))
	}
	return fmt.Sprintf("%s %d @ %.2f (%s) -> %.2f (%s) pnl %.2f",
		t.Symbol, t.Quantity, t.EntryPrice, t.EntryDate.Format("2006-01-02"),
		t.ExitPrice, t.ExitDate.Format("2006-01-02"), t.RealizedPnL)
}

// EquityPoint is one mark-to-market snapshot of the simulated account.
// TotalEquity is always Cash + PositionValue.
type EquityPoint struct {
	Date          time.Time
	Cash          float64
	PositionValue float64
	TotalEquity   float64
}

// PerformanceSummary holds the reduced metrics of one symbol's backtest.
// It is derived once and never mutated.
type PerformanceSummary struct {
	Symbol         string
	Rule           string
	TotalReturnPct float64
	NumTrades      int
	WinRatePct     float64
	MaxDrawdownPct float64
	FinalEquity    float64
}
