// Package store defines storage interfaces for persisting bars, simulated
// trades, performance summaries, and exported classifier features.
package store

import (
	"context"
	"time"

	"algotrade/internal/backtest"
	"algotrade/internal/domain"
)

// BarCache persists daily bars between runs so repeated backtests do not
// refetch the same history.
type BarCache interface {
	// WriteBars persists a batch of bars, merging with any already cached.
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns cached bars for the given symbol within [start, end].
	ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols present in the cache.
	ListSymbols(ctx context.Context) ([]string, error)
}

// FeatureSink exports labelled feature rows for an external classifier.
type FeatureSink interface {
	// WriteFeatures persists the feature set for a symbol, replacing any
	// previous export.
	WriteFeatures(ctx context.Context, symbol string, fs backtest.FeatureSet) error
}

// ReportSink records the outputs of a backtest run: the trade log and the
// reduced performance summary.
type ReportSink interface {
	// SaveTrades appends the simulated trades of one run under the rule name.
	SaveTrades(ctx context.Context, rule string, trades []domain.Trade) error

	// SaveSummary appends one performance summary row.
	SaveSummary(ctx context.Context, s domain.PerformanceSummary) error

	// ListSummaries returns the most recent summaries for a symbol, newest
	// first, up to limit.
	ListSummaries(ctx context.Context, symbol string, limit int) ([]domain.PerformanceSummary, error)

	// ListTrades returns the most recent trades for a symbol, newest first,
	// up to limit.
	ListTrades(ctx context.Context, symbol string, limit int) ([]domain.Trade, error)
}
