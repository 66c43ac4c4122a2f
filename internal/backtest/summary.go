package backtest

import (
	"algotrade/internal/domain"
)

// Summarize reduces a trade log and equity curve into a PerformanceSummary.
// Force-closed trades count as closed. A run with no closed trades reports a
// win rate of zero rather than failing. Summarizing an empty curve returns
// ErrEmptyCurve.
func Summarize(symbol string, trades []domain.Trade, curve []domain.EquityPoint, startingCash float64) (*domain.PerformanceSummary, error) {
	if len(curve) == 0 {
		return nil, ErrEmptyCurve
	}

	var closed, wins int
	for _, t := range trades {
		if !t.Closed {
			continue
		}
		closed++
		if t.RealizedPnL > 0 {
			wins++
		}
	}

	winRate := 0.0
	if closed > 0 {
		winRate = float64(wins) / float64(closed) * 100
	}

	final := curve[len(curve)-1].TotalEquity

	return &domain.PerformanceSummary{
		Symbol:         symbol,
		TotalReturnPct: (final - startingCash) / startingCash * 100,
		NumTrades:      closed,
		WinRatePct:     winRate,
		MaxDrawdownPct: maxDrawdownPct(curve),
		FinalEquity:    final,
	}, nil
}

// maxDrawdownPct returns the largest peak-to-trough decline of the total
// equity sequence, as a percentage of the peak at that point.
func maxDrawdownPct(curve []domain.EquityPoint) float64 {
	var peak, maxDD float64
	for _, p := range curve {
		if p.TotalEquity > peak {
			peak = p.TotalEquity
		}
		if peak > 0 {
			dd := (peak - p.TotalEquity) / peak * 100
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}
