package domain

import (
	"math"
	"testing"
	"time"
)

func TestTypesExist(t *testing.T) {
	// Verify Bar can be instantiated with zero values.
	bar := Bar{}
	if bar.Symbol != "" {
		t.Error("expected empty Symbol for zero-value Bar")
	}
	if !bar.Date.IsZero() {
		t.Error("expected zero Date for zero-value Bar")
	}
	if bar.Open != 0 || bar.High != 0 || bar.Low != 0 || bar.Close != 0 {
		t.Error("expected zero OHLC values for zero-value Bar")
	}
	if bar.Volume != 0 {
		t.Error("expected zero Volume for zero-value Bar")
	}

	// A zero-value Trade is open, not closed.
	trade := Trade{}
	if trade.Closed {
		t.Error("zero-value Trade should not be closed")
	}
	if trade.ForceClosed {
		t.Error("zero-value Trade should not be force-closed")
	}

	// Verify the signal zero value is undefined, not flat or long.
	var sig Signal
	if sig != SignalUndefined {
		t.Errorf("zero-value Signal = %v, want SignalUndefined", sig)
	}
}

func TestSignalString(t *testing.T) {
	if got := SignalLong.String(); got != "long" {
		t.Errorf("SignalLong.String() = %q, want %q", got, "long")
	}
	if got := SignalFlat.String(); got != "flat" {
		t.Errorf("SignalFlat.String() = %q, want %q", got, "flat")
	}
	if got := SignalUndefined.String(); got != "undefined" {
		t.Errorf("SignalUndefined.String() = %q, want %q", got, "undefined")
	}
}

func TestIndicatorSampleNaN(t *testing.T) {
	s := IndicatorSample{
		Date:  time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Value: math.NaN(),
	}
	if !math.IsNaN(s.Value) {
		t.Error("expected NaN warm-up value to survive assignment")
	}
}

func TestTradeString(t *testing.T) {
	entry := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	exit := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)

	open := Trade{Symbol: "AAPL", EntryDate: entry, EntryPrice: 185.5, Quantity: 10}
	if got := open.String(); got != "AAPL open 10 @ 185.50 on 2024-03-01" {
		t.Errorf("open trade String() = %q", got)
	}

	closed := Trade{
		Symbol: "AAPL", EntryDate: entry, EntryPrice: 185.5,
		ExitDate: exit, ExitPrice: 190.0, Quantity: 10,
		RealizedPnL: 45.0, Closed: true,
	}
	want := "AAPL 10 @ 185.50 (2024-03-01) -> 190.00 (2024-03-08) pnl 45.00"
	if got := closed.String(); got != want {
		t.Errorf("closed trade String() = %q, want %q", got, want)
	}
}
