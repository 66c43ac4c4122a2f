// Package fetch retrieves daily OHLCV bars from the Alpaca market-data API
// and normalises them into domain bars for the backtest engine.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"algotrade/internal/config"
	"algotrade/internal/domain"
	"algotrade/internal/util"
)

// BarSource provides daily bars for a symbol over a date range. Implementations
// must return bars sorted by date with at most one bar per calendar day.
type BarSource interface {
	DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)
}

// Compile-time interface check.
var _ BarSource = (*AlpacaSource)(nil)

// ---------------------------------------------------------------------------
// AlpacaSource
// ---------------------------------------------------------------------------

// AlpacaSource fetches daily bars from the Alpaca market-data API. It
// rate-limits requests to stay under the provider quota and retries transient
// failures with exponential backoff.
type AlpacaSource struct {
	client      *marketdata.Client
	feed        string
	limiter     *util.RateLimiter
	maxAttempts int
	log         *slog.Logger
}

// NewAlpacaSource creates an AlpacaSource from the Alpaca credentials and the
// fetch parameters.
func NewAlpacaSource(ac config.Alpaca, fc config.FetchConfig) *AlpacaSource {
	opts := marketdata.ClientOpts{
		APIKey:    ac.APIKey,
		APISecret: ac.APISecret,
	}
	if ac.DataURL != "" {
		opts.BaseURL = ac.DataURL
	}

	feed := ac.Feed
	if feed == "" {
		feed = "iex"
	}

	return &AlpacaSource{
		client:      marketdata.NewClient(opts),
		feed:        feed,
		limiter:     util.NewRateLimiter(fc.RateLimitPerMin),
		maxAttempts: fc.MaxAttempts,
		log:         slog.Default().With("source", "alpaca"),
	}
}

// DailyBars fetches daily bars for one symbol over [start, end].
func (s *AlpacaSource) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var raw []marketdata.Bar
	err := util.Retry(ctx, s.maxAttempts, time.Second, func() error {
		var err error
		raw, err = s.client.GetBars(symbol, marketdata.GetBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     start,
			End:       end,
			Feed:      marketdata.Feed(s.feed),
		})
		if err != nil {
			s.log.Warn("GetBars failed", "symbol", symbol, "err", err)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetching bars for %s: %w", symbol, err)
	}

	bars := make([]domain.Bar, 0, len(raw))
	for _, ab := range raw {
		bars = append(bars, fromAlpaca(symbol, ab))
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	s.log.Debug("fetched bars", "symbol", symbol, "count", len(bars))
	return bars, nil
}

// fromAlpaca maps an Alpaca bar onto a domain bar, collapsing the session
// timestamp to its calendar day.
func fromAlpaca(symbol string, ab marketdata.Bar) domain.Bar {
	return domain.Bar{
		Symbol: symbol,
		Date:   DayOf(ab.Timestamp),
		Open:   ab.Open,
		High:   ab.High,
		Low:    ab.Low,
		Close:  ab.Close,
		Volume: int64(ab.Volume),
	}
}

// DayOf truncates a timestamp to midnight UTC of its calendar day.
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// LookbackWindow returns the [start, end] range covering the given number of
// calendar days ending yesterday. The current session is excluded because its
// bar is still forming.
func LookbackWindow(now time.Time, days int) (time.Time, time.Time) {
	end := DayOf(now).AddDate(0, 0, -1)
	start := end.AddDate(0, 0, -days)
	return start, end
}
