// Package runner drives the per-symbol backtest pipeline: load bars, compute
// indicators, align, signal, simulate, summarize, and persist the results.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"algotrade/internal/backtest"
	"algotrade/internal/domain"
	"algotrade/internal/fetch"
	"algotrade/internal/indicator"
	"algotrade/internal/notify"
	"algotrade/internal/store"
)

// Options configures a Runner. Source, Cache, Reports, Features, and Notifier
// are all optional; a nil Source means bars come from the cache alone.
type Options struct {
	Source   fetch.BarSource
	Cache    store.BarCache
	Reports  store.ReportSink
	Features store.FeatureSink
	Notifier notify.Notifier

	StartingCash float64
	LookbackDays int
	MaxWorkers   int

	// Now is the clock used to anchor the lookback window. Defaults to
	// time.Now.
	Now func() time.Time
}

// Report is the outcome of one run across all requested symbols. Failed maps
// each symbol that could not be processed to its error; failures never abort
// the other symbols.
type Report struct {
	Summaries []domain.PerformanceSummary
	Failed    map[string]error
}

// Runner executes backtests for a set of symbols under one rule.
type Runner struct {
	rule backtest.Rule
	opts Options
	log  *slog.Logger
}

// New creates a Runner for the given rule.
func New(rule backtest.Rule, opts Options) *Runner {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{
		rule: rule,
		opts: opts,
		log:  slog.Default().With("rule", rule.Name()),
	}
}

// Run backtests every symbol, fanning out across a bounded worker pool, and
// returns the collected summaries. Symbols are processed independently; one
// symbol's failure is recorded in the report and the rest continue. The run
// digest is sent to the notifier when one is configured.
func (r *Runner) Run(ctx context.Context, symbols []string) (*Report, error) {
	report := &Report{Failed: make(map[string]error)}

	symCh := make(chan string, len(symbols))
	for _, sym := range symbols {
		symCh <- sym
	}
	close(symCh)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	workers := min(r.opts.MaxWorkers, len(symbols))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range symCh {
				if ctx.Err() != nil {
					return
				}
				summary, err := r.runSymbol(ctx, sym)
				mu.Lock()
				if err != nil {
					report.Failed[sym] = err
					r.log.Error("symbol failed", "symbol", sym, "err", err)
				} else {
					report.Summaries = append(report.Summaries, *summary)
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if ctx.Err() != nil {
		return report, ctx.Err()
	}

	if r.opts.Notifier != nil {
		msg := notify.RunDigest(report.Summaries, report.Failed)
		if err := r.opts.Notifier.Notify(ctx, msg); err != nil {
			r.log.Error("notification failed", "err", err)
		}
	}

	r.log.Info("run complete", "ok", len(report.Summaries), "failed", len(report.Failed))
	return report, nil
}

// runSymbol executes the whole pipeline for one symbol.
func (r *Runner) runSymbol(ctx context.Context, symbol string) (*domain.PerformanceSummary, error) {
	bars, err := r.loadBars(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars for %s", symbol)
	}

	// Copy before appending: the rule owns its Indicators() backing array.
	columns := append([]string(nil), r.rule.Indicators()...)
	columns = dedupe(append(columns, store.FeatureColumns()...))
	series, err := indicator.Compute(bars, columns)
	if err != nil {
		return nil, err
	}

	rows, err := backtest.Align(bars, series)
	if err != nil {
		return nil, err
	}
	signalled := backtest.ApplySignals(rows, r.rule)

	res, err := backtest.Simulate(symbol, signalled, r.opts.StartingCash)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		r.log.Warn("skipped entry", "symbol", symbol, "detail", w.String())
	}

	summary, err := backtest.Summarize(symbol, res.Trades, res.Curve, r.opts.StartingCash)
	if err != nil {
		if errors.Is(err, backtest.ErrEmptyCurve) {
			return nil, fmt.Errorf("%s: all rows undefined: %w", symbol, err)
		}
		return nil, err
	}
	summary.Rule = r.rule.Name()

	if err := r.persist(ctx, symbol, signalled, res, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// loadBars fetches bars from the source when one is configured, caching them
// for later offline runs, and reads the cache otherwise.
func (r *Runner) loadBars(ctx context.Context, symbol string) ([]domain.Bar, error) {
	start, end := fetch.LookbackWindow(r.opts.Now(), r.opts.LookbackDays)

	if r.opts.Source == nil {
		if r.opts.Cache == nil {
			return nil, fmt.Errorf("no bar source or cache configured")
		}
		return r.opts.Cache.ReadBars(ctx, symbol, start, end)
	}

	bars, err := r.opts.Source.DailyBars(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if r.opts.Cache != nil {
		// Cache failures do not fail the run; the bars are already in hand.
		if err := r.opts.Cache.WriteBars(ctx, bars); err != nil {
			r.log.Error("caching bars failed", "symbol", symbol, "err", err)
		}
	}
	return bars, nil
}

// persist writes the trade log, summary, feature export, and per-symbol
// digest to whichever sinks are configured.
func (r *Runner) persist(ctx context.Context, symbol string, rows []backtest.Row, res *backtest.SimResult, summary *domain.PerformanceSummary) error {
	if r.opts.Reports != nil {
		if err := r.opts.Reports.SaveTrades(ctx, r.rule.Name(), res.Trades); err != nil {
			return fmt.Errorf("saving trades for %s: %w", symbol, err)
		}
		if err := r.opts.Reports.SaveSummary(ctx, *summary); err != nil {
			return fmt.Errorf("saving summary for %s: %w", symbol, err)
		}
	}

	if r.opts.Features != nil {
		fs := backtest.Features(rows, store.FeatureColumns())
		if err := r.opts.Features.WriteFeatures(ctx, symbol, fs); err != nil {
			return fmt.Errorf("writing features for %s: %w", symbol, err)
		}
	}

	if r.opts.Notifier != nil {
		if err := r.opts.Notifier.Notify(ctx, notify.Digest(*summary)); err != nil {
			r.log.Error("symbol notification failed", "symbol", symbol, "err", err)
		}
	}
	return nil
}

// dedupe returns the names with duplicates removed, first occurrence wins.
// The input is never written to; callers pass slices whose backing arrays
// they do not own (rule.Indicators()).
func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
