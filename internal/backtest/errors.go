package backtest

import (
	"errors"
	"fmt"
	"time"
)

// ErrEmptyCurve is returned by Summarize when there are no simulated equity
// points to reduce.
var ErrEmptyCurve = errors.New("backtest: empty equity curve")

// MisalignedDataError reports a duplicate or out-of-order date in an input
// bar sequence. It is fatal to that symbol's run but must not abort other
// symbols.
type MisalignedDataError struct {
	Symbol string
	Index  int
	Prev   time.Time
	Date   time.Time
}

func (e *MisalignedDataError) Error() string {
	return fmt.Sprintf("backtest: misaligned bars for %s at index %d: %s does not follow %s",
		e.Symbol, e.Index, e.Date.Format("2006-01-02"), e.Prev.Format("2006-01-02"))
}

// InsufficientCashWarning records a long signal that could not open a
// position because available cash floors to zero quantity. The simulation
// continues flat; the warning is surfaced for logging and reporting.
type InsufficientCashWarning struct {
	Date  time.Time
	Close float64
	Cash  float64
}

func (w InsufficientCashWarning) String() string {
	return fmt.Sprintf("insufficient cash on %s: %.2f available at close %.2f",
		w.Date.Format("2006-01-02"), w.Cash, w.Close)
}
