package backtest

import (
	"fmt"
	"math"
	"time"

	"algotrade/internal/domain"
)

// SimResult is the output of one simulation run: the closed trade log, the
// per-row equity curve, and any non-fatal warnings raised along the way.
type SimResult struct {
	Trades   []domain.Trade
	Curve    []domain.EquityPoint
	Warnings []InsufficientCashWarning
}

// Simulate walks the aligned rows in date order and converts signal
// transitions into simulated buy/sell events under a single-position,
// full-cash-or-nothing sizing model:
//
//   - flat -> long: open a trade at the row's close; quantity is
//     floor(cash/close). A quantity of zero raises an
//     InsufficientCashWarning and the position stays flat.
//   - long -> flat: close the open trade at the row's close and realise the
//     PnL.
//   - no transition: mark the open position (if any) to the row's close.
//
// Rows with an undefined signal are skipped entirely. One EquityPoint is
// emitted per processed row. A position still open when the series ends is
// force-closed at the last processed close.
func Simulate(symbol string, rows []Row, startingCash float64) (*SimResult, error) {
	if startingCash <= 0 {
		return nil, fmt.Errorf("backtest: starting cash must be positive, got %v", startingCash)
	}

	res := &SimResult{}
	cash := startingCash
	var open *domain.Trade
	var lastClose float64
	var lastDate time.Time

	for _, row := range rows {
		if row.Signal == domain.SignalUndefined {
			continue
		}
		lastClose, lastDate = row.Close, row.Date

		switch {
		case row.Signal == domain.SignalLong && open == nil:
			qty := int64(math.Floor(cash / row.Close))
			if qty == 0 {
				res.Warnings = append(res.Warnings, InsufficientCashWarning{
					Date:  row.Date,
					Close: row.Close,
					Cash:  cash,
				})
				break
			}
			cash -= float64(qty) * row.Close
			open = &domain.Trade{
				Symbol:     symbol,
				EntryDate:  row.Date,
				EntryPrice: row.Close,
				Quantity:   qty,
			}

		case row.Signal == domain.SignalFlat && open != nil:
			cash += float64(open.Quantity) * row.Close
			open.ExitDate = row.Date
			open.ExitPrice = row.Close
			open.RealizedPnL = float64(open.Quantity) * (row.Close - open.EntryPrice)
			open.Closed = true
			res.Trades = append(res.Trades, *open)
			open = nil
		}

		point := domain.EquityPoint{Date: row.Date, Cash: cash}
		if open != nil {
			point.PositionValue = float64(open.Quantity) * row.Close
		}
		point.TotalEquity = point.Cash + point.PositionValue
		res.Curve = append(res.Curve, point)
	}

	// Force-close a position left open at the end of the series so every
	// recorded trade has a realised outcome.
	if open != nil {
		open.ExitDate = lastDate
		open.ExitPrice = lastClose
		open.RealizedPnL = float64(open.Quantity) * (lastClose - open.EntryPrice)
		open.Closed = true
		open.ForceClosed = true
		res.Trades = append(res.Trades, *open)
	}

	return res, nil
}
