// Package rules provides the built-in signal rules that ship with algotrade
// and a Registry for constructing them from configuration.
package rules

import (
	"algotrade/internal/backtest"
	"algotrade/internal/domain"
	"algotrade/internal/indicator"
)

// Compile-time interface checks.
var _ backtest.Rule = (*SMACross)(nil)
var _ backtest.Rule = (*RSIThreshold)(nil)

// ---------------------------------------------------------------------------
// SMACross
// ---------------------------------------------------------------------------

// SMACross signals long while the short-period moving average is above the
// long-period one, flat otherwise.
type SMACross struct {
	shortCol string
	longCol  string
}

// NewSMACross creates an SMACross rule over the canonical SMA columns for
// the given short and long periods.
func NewSMACross(short, long int) *SMACross {
	return &SMACross{
		shortCol: indicator.SMAName(short),
		longCol:  indicator.SMAName(long),
	}
}

// Name returns "sma-cross".
func (r *SMACross) Name() string { return "sma-cross" }

// Indicators returns the two moving-average columns the rule reads.
func (r *SMACross) Indicators() []string {
	return []string{r.shortCol, r.longCol}
}

// Evaluate returns long while the short average exceeds the long average.
func (r *SMACross) Evaluate(row backtest.Row, _ domain.Signal) domain.Signal {
	if row.Value(r.shortCol) > row.Value(r.longCol) {
		return domain.SignalLong
	}
	return domain.SignalFlat
}

// ---------------------------------------------------------------------------
// RSIThreshold
// ---------------------------------------------------------------------------

// RSIThreshold signals long when the oscillator drops below the entry bound
// (oversold) and flat when it rises above the exit bound (overbought).
// Inside the band it holds the prior side, so a position entered on an
// oversold reading is not churned while the index normalises.
type RSIThreshold struct {
	col        string
	enterBelow float64
	exitAbove  float64
}

// NewRSIThreshold creates an RSIThreshold rule over the canonical RSI column
// for the given period with the given entry and exit bounds.
func NewRSIThreshold(period int, enterBelow, exitAbove float64) *RSIThreshold {
	return &RSIThreshold{
		col:        indicator.RSIName(period),
		enterBelow: enterBelow,
		exitAbove:  exitAbove,
	}
}

// Name returns "rsi-threshold".
func (r *RSIThreshold) Name() string { return "rsi-threshold" }

// Indicators returns the oscillator column the rule reads.
func (r *RSIThreshold) Indicators() []string {
	return []string{r.col}
}

// Evaluate applies the threshold band. A prior of SignalUndefined (start of
// series) resolves to flat inside the band.
func (r *RSIThreshold) Evaluate(row backtest.Row, prior domain.Signal) domain.Signal {
	v := row.Value(r.col)
	switch {
	case v < r.enterBelow:
		return domain.SignalLong
	case v > r.exitAbove:
		return domain.SignalFlat
	case prior == domain.SignalLong:
		return domain.SignalLong
	default:
		return domain.SignalFlat
	}
}
