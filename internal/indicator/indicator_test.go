package indicator

import (
	"math"
	"testing"
	"time"

	"algotrade/internal/domain"
)

// barsFromCloses builds a daily bar series with the given closes starting at
// 2024-01-01.
func barsFromCloses(closes []float64) []domain.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = domain.Bar{
			Symbol: "TEST",
			Date:   start.AddDate(0, 0, i),
			Open:   c, High: c, Low: c, Close: c,
			Volume: 1000,
		}
	}
	return bars
}

func TestSMA(t *testing.T) {
	bars := barsFromCloses([]float64{1, 2, 3, 4, 5})
	got := SMA(bars, 3)

	if len(got) != 5 {
		t.Fatalf("SMA returned %d samples, want 5", len(got))
	}
	for i := 0; i < 2; i++ {
		if !math.IsNaN(got[i].Value) {
			t.Errorf("SMA[%d] = %v, want NaN during warm-up", i, got[i].Value)
		}
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		if got[i+2].Value != w {
			t.Errorf("SMA[%d] = %v, want %v", i+2, got[i+2].Value, w)
		}
	}

	// Dates carry over from the bars.
	if !got[0].Date.Equal(bars[0].Date) {
		t.Errorf("SMA[0].Date = %v, want %v", got[0].Date, bars[0].Date)
	}
}

func TestEMASeed(t *testing.T) {
	bars := barsFromCloses([]float64{2, 4, 6, 8})
	got := EMA(bars, 3)

	if !math.IsNaN(got[0].Value) || !math.IsNaN(got[1].Value) {
		t.Error("EMA warm-up samples should be NaN")
	}
	// Seed is the simple average of the first 3 closes.
	if got[2].Value != 4 {
		t.Errorf("EMA seed = %v, want 4", got[2].Value)
	}
	// alpha = 0.5 for period 3: 0.5*8 + 0.5*4 = 6.
	if got[3].Value != 6 {
		t.Errorf("EMA[3] = %v, want 6", got[3].Value)
	}
}

func TestRSIMonotonicSeries(t *testing.T) {
	// Strictly rising closes: RSI pegs at 100 once defined.
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	got := RSI(barsFromCloses(closes), 14)

	for i := 0; i < 14; i++ {
		if !math.IsNaN(got[i].Value) {
			t.Errorf("RSI[%d] = %v, want NaN during warm-up", i, got[i].Value)
		}
	}
	for i := 14; i < len(got); i++ {
		if got[i].Value != 100 {
			t.Errorf("RSI[%d] = %v, want 100 for all-gain series", i, got[i].Value)
		}
	}
}

func TestRSIFlatSeries(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 50
	}
	got := RSI(barsFromCloses(closes), 14)

	if got[14].Value != 50 {
		t.Errorf("RSI of flat series = %v, want 50", got[14].Value)
	}
}

func TestRSIBounds(t *testing.T) {
	closes := []float64{44, 47, 45, 50, 48, 52, 49, 53, 51, 55, 52, 56, 54, 58, 55, 59, 57, 60}
	got := RSI(barsFromCloses(closes), 14)

	for i := 14; i < len(got); i++ {
		v := got[i].Value
		if math.IsNaN(v) || v < 0 || v > 100 {
			t.Errorf("RSI[%d] = %v, want a value in [0, 100]", i, v)
		}
	}
}

func TestRSITooShortSeries(t *testing.T) {
	got := RSI(barsFromCloses([]float64{1, 2, 3}), 14)
	for i, s := range got {
		if !math.IsNaN(s.Value) {
			t.Errorf("RSI[%d] = %v, want NaN when series is shorter than period", i, s.Value)
		}
	}
}

func TestMACDWarmup(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i%7)
	}
	line, sig, hist := MACD(barsFromCloses(closes), 12, 26, 9)

	// MACD line defined from the slow EMA's first value.
	if !math.IsNaN(line[24].Value) {
		t.Errorf("MACD line[24] = %v, want NaN before slow warm-up", line[24].Value)
	}
	if math.IsNaN(line[25].Value) {
		t.Error("MACD line[25] should be defined")
	}

	// Signal line needs a further 9-period warm-up on top of the MACD line.
	if !math.IsNaN(sig[32].Value) {
		t.Errorf("MACD signal[32] = %v, want NaN before signal warm-up", sig[32].Value)
	}
	if math.IsNaN(sig[33].Value) {
		t.Error("MACD signal[33] should be defined")
	}

	// Histogram is line minus signal wherever both are defined.
	for i := 33; i < len(hist); i++ {
		want := line[i].Value - sig[i].Value
		if math.Abs(hist[i].Value-want) > 1e-12 {
			t.Errorf("MACD hist[%d] = %v, want %v", i, hist[i].Value, want)
		}
	}
}

func TestCompute(t *testing.T) {
	bars := barsFromCloses([]float64{1, 2, 3, 4, 5, 6})

	series, err := Compute(bars, []string{"sma_3", "rsi_2", "macd", "macd_hist"})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	// The MACD family arrives together even when only part of it is asked for.
	for _, name := range []string{"sma_3", "rsi_2", MACDName, MACDSignalName, MACDHistName} {
		s, ok := series[name]
		if !ok {
			t.Fatalf("Compute missing column %q", name)
		}
		if len(s) != len(bars) {
			t.Errorf("column %q has %d samples, want %d", name, len(s), len(bars))
		}
	}
	if got := series["sma_3"][2].Value; got != 2 {
		t.Errorf("sma_3[2] = %v, want 2", got)
	}
}

func TestComputeUnknownColumn(t *testing.T) {
	bars := barsFromCloses([]float64{1, 2, 3})

	if _, err := Compute(bars, []string{"vwap_5"}); err == nil {
		t.Error("Compute should reject an unknown column name")
	}
	if _, err := Compute(bars, []string{"sma_zero"}); err == nil {
		t.Error("Compute should reject a malformed period")
	}
	if _, err := Compute(bars, []string{"sma_0"}); err == nil {
		t.Error("Compute should reject a non-positive period")
	}
}
