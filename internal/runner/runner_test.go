package runner

import (
	"context"
	"strings"
	"testing"
	"time"

	"algotrade/internal/backtest"
	"algotrade/internal/domain"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubSource struct {
	bars map[string][]domain.Bar
}

func (s *stubSource) DailyBars(_ context.Context, symbol string, _, _ time.Time) ([]domain.Bar, error) {
	return s.bars[symbol], nil
}

type stubCache struct {
	bars    map[string][]domain.Bar
	written [][]domain.Bar
}

func (c *stubCache) WriteBars(_ context.Context, bars []domain.Bar) error {
	c.written = append(c.written, bars)
	return nil
}

func (c *stubCache) ReadBars(_ context.Context, symbol string, _, _ time.Time) ([]domain.Bar, error) {
	return c.bars[symbol], nil
}

func (c *stubCache) ListSymbols(context.Context) ([]string, error) {
	return nil, nil
}

type stubReports struct {
	trades    []domain.Trade
	summaries []domain.PerformanceSummary
}

func (r *stubReports) SaveTrades(_ context.Context, _ string, trades []domain.Trade) error {
	r.trades = append(r.trades, trades...)
	return nil
}

func (r *stubReports) SaveSummary(_ context.Context, s domain.PerformanceSummary) error {
	r.summaries = append(r.summaries, s)
	return nil
}

func (r *stubReports) ListSummaries(context.Context, string, int) ([]domain.PerformanceSummary, error) {
	return nil, nil
}

func (r *stubReports) ListTrades(context.Context, string, int) ([]domain.Trade, error) {
	return nil, nil
}

type stubFeatures struct {
	symbols []string
}

func (f *stubFeatures) WriteFeatures(_ context.Context, symbol string, _ backtest.FeatureSet) error {
	f.symbols = append(f.symbols, symbol)
	return nil
}

type stubNotifier struct {
	messages []string
}

func (n *stubNotifier) Notify(_ context.Context, msg string) error {
	n.messages = append(n.messages, msg)
	return nil
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

var fixedNow = time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

func fixtureBars(symbol string, closes ...float64) []domain.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = domain.Bar{
			Symbol: symbol,
			Date:   start.AddDate(0, 0, i),
			Open:   c, High: c, Low: c, Close: c,
			Volume: 1000,
		}
	}
	return bars
}

// alwaysAbove is a band rule over the bar close: long above the bound, flat
// below it, prior side when exactly on it. It reads no indicator columns, so
// every row is defined.
func alwaysAbove(bound float64) backtest.Rule {
	return backtest.RuleFunc{
		RuleName: "close-above",
		Fn: func(row backtest.Row, prior domain.Signal) domain.Signal {
			switch {
			case row.Close > bound:
				return domain.SignalLong
			case row.Close < bound:
				return domain.SignalFlat
			case prior == domain.SignalLong:
				return domain.SignalLong
			default:
				return domain.SignalFlat
			}
		},
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestRunnerRun(t *testing.T) {
	source := &stubSource{bars: map[string][]domain.Bar{
		"TEST": fixtureBars("TEST", 10, 12, 11, 15, 14),
	}}
	reports := &stubReports{}
	features := &stubFeatures{}
	notifier := &stubNotifier{}

	r := New(alwaysAbove(11), Options{
		Source:       source,
		Reports:      reports,
		Features:     features,
		Notifier:     notifier,
		StartingCash: 100,
		LookbackDays: 60,
		MaxWorkers:   2,
		Now:          func() time.Time { return fixedNow },
	})

	report, err := r.Run(context.Background(), []string{"TEST", "EMPTY"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(report.Summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(report.Summaries))
	}
	s := report.Summaries[0]
	if s.Symbol != "TEST" || s.Rule != "close-above" {
		t.Errorf("summary = %s/%s, want TEST/close-above", s.Symbol, s.Rule)
	}
	if s.FinalEquity != 116 {
		t.Errorf("FinalEquity = %v, want 116", s.FinalEquity)
	}

	// A symbol with no bars fails without aborting the rest.
	if _, ok := report.Failed["EMPTY"]; !ok {
		t.Error("EMPTY should be recorded in Failed")
	}

	if len(reports.trades) != 1 || len(reports.summaries) != 1 {
		t.Errorf("report sink got %d trades, %d summaries, want 1 and 1",
			len(reports.trades), len(reports.summaries))
	}
	if len(features.symbols) != 1 || features.symbols[0] != "TEST" {
		t.Errorf("feature sink got %v, want [TEST]", features.symbols)
	}

	// One per-symbol digest plus the run digest.
	if len(notifier.messages) != 2 {
		t.Fatalf("notifier got %d messages, want 2", len(notifier.messages))
	}
	last := notifier.messages[len(notifier.messages)-1]
	if !strings.Contains(last, "1 ok, 1 failed") {
		t.Errorf("run digest missing counts:\n%s", last)
	}
}

func TestRunnerCachesFetchedBars(t *testing.T) {
	source := &stubSource{bars: map[string][]domain.Bar{
		"TEST": fixtureBars("TEST", 10, 12, 13),
	}}
	cache := &stubCache{}

	r := New(alwaysAbove(11), Options{
		Source:       source,
		Cache:        cache,
		StartingCash: 100,
		LookbackDays: 60,
		Now:          func() time.Time { return fixedNow },
	})

	if _, err := r.Run(context.Background(), []string{"TEST"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(cache.written) != 1 || len(cache.written[0]) != 3 {
		t.Errorf("cache writes = %v, want one batch of 3 bars", cache.written)
	}
}

func TestRunnerOfflineFromCache(t *testing.T) {
	cache := &stubCache{bars: map[string][]domain.Bar{
		"TEST": fixtureBars("TEST", 10, 12, 11, 15, 14),
	}}

	r := New(alwaysAbove(11), Options{
		Cache:        cache,
		StartingCash: 100,
		LookbackDays: 60,
		Now:          func() time.Time { return fixedNow },
	})

	report, err := r.Run(context.Background(), []string{"TEST"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(report.Summaries))
	}
	if report.Summaries[0].FinalEquity != 116 {
		t.Errorf("FinalEquity = %v, want 116", report.Summaries[0].FinalEquity)
	}
}

func TestRunnerNoSourceNoCache(t *testing.T) {
	r := New(alwaysAbove(11), Options{
		StartingCash: 100,
		LookbackDays: 60,
		Now:          func() time.Time { return fixedNow },
	})

	report, err := r.Run(context.Background(), []string{"TEST"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Failed) != 1 {
		t.Errorf("Failed = %v, want the symbol recorded", report.Failed)
	}
}

func TestDedupe(t *testing.T) {
	in := []string{"sma_20", "rsi_14", "sma_20", "macd", "rsi_14"}
	orig := append([]string(nil), in...)

	got := dedupe(in)

	want := []string{"sma_20", "rsi_14", "macd"}
	if len(got) != len(want) {
		t.Fatalf("dedupe = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dedupe[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	// The input slice is left untouched.
	for i := range orig {
		if in[i] != orig[i] {
			t.Fatalf("dedupe mutated its input: %v, want %v", in, orig)
		}
	}
}

func TestRunColumnsDoNotLeakIntoRule(t *testing.T) {
	// A rule whose Indicators slice has spare capacity: appending feature
	// columns to it in place would overwrite the backing array.
	cols := make([]string, 1, 8)
	cols[0] = "sma_20"
	rule := backtest.RuleFunc{
		RuleName: "spare-capacity",
		Columns:  cols,
		Fn: func(row backtest.Row, _ domain.Signal) domain.Signal {
			return domain.SignalFlat
		},
	}
	// Not enough history to define sma_20: the run fails per symbol, but the
	// column assembly still happens first.
	cache := &stubCache{bars: map[string][]domain.Bar{
		"TEST": fixtureBars("TEST", 10, 11),
	}}
	r := New(rule, Options{
		Cache:        cache,
		StartingCash: 100,
		LookbackDays: 60,
		Now:          func() time.Time { return fixedNow },
	})
	if _, err := r.Run(context.Background(), []string{"TEST"}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	backing := cols[:cap(cols)]
	for i := 1; i < len(backing); i++ {
		if backing[i] != "" {
			t.Fatalf("rule's Indicators backing array was written to at %d: %q", i, backing[i])
		}
	}
}
