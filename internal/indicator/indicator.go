// Package indicator computes technical indicator series over daily bars.
// Every function is a pure function of its input series and returns one
// sample per input bar, with NaN values during the indicator's warm-up
// window. Callers decide what to do with undefined samples; nothing here
// fabricates numbers for dates the indicator cannot cover.
package indicator

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"algotrade/internal/domain"
)

// Canonical column names for the MACD family, shared between the indicator
// computation and consumers that reference columns by name.
const (
	MACDName       = "macd"
	MACDSignalName = "macd_signal"
	MACDHistName   = "macd_hist"
)

// SMAName returns the canonical column name of an SMA with the given period.
func SMAName(period int) string { return fmt.Sprintf("sma_%d", period) }

// EMAName returns the canonical column name of an EMA with the given period.
func EMAName(period int) string { return fmt.Sprintf("ema_%d", period) }

// RSIName returns the canonical column name of an RSI with the given period.
func RSIName(period int) string { return fmt.Sprintf("rsi_%d", period) }

// SMA returns the simple moving average of bar closes over period. The first
// period-1 samples are NaN.
func SMA(bars []domain.Bar, period int) []domain.IndicatorSample {
	out := make([]domain.IndicatorSample, len(bars))

	var sum float64
	for i, b := range bars {
		sum += b.Close
		if i >= period {
			sum -= bars[i-period].Close
		}

		value := math.NaN()
		if i >= period-1 {
			value = sum / float64(period)
		}
		out[i] = domain.IndicatorSample{Date: b.Date, Value: value}
	}
	return out
}

// EMA returns the exponential moving average of bar closes over period,
// seeded with the simple average of the first period closes. The first
// period-1 samples are NaN.
func EMA(bars []domain.Bar, period int) []domain.IndicatorSample {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	values := emaSeries(closes, period)

	out := make([]domain.IndicatorSample, len(bars))
	for i, b := range bars {
		out[i] = domain.IndicatorSample{Date: b.Date, Value: values[i]}
	}
	return out
}

// RSI returns the Wilder relative strength index of bar closes over period.
// The first period samples are NaN: the index needs period close-to-close
// changes before it is defined.
func RSI(bars []domain.Bar, period int) []domain.IndicatorSample {
	out := make([]domain.IndicatorSample, len(bars))
	for i, b := range bars {
		out[i] = domain.IndicatorSample{Date: b.Date, Value: math.NaN()}
	}
	if len(bars) <= period {
		return out
	}

	// Seed averages from the first period changes.
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := bars[i].Close - bars[i-1].Close
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period].Value = rsiValue(avgGain, avgLoss)

	// Wilder smoothing for the rest of the series.
	for i := period + 1; i < len(bars); i++ {
		change := bars[i].Close - bars[i-1].Close
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i].Value = rsiValue(avgGain, avgLoss)
	}
	return out
}

// MACD returns the moving average convergence/divergence line, its signal
// line, and the histogram for the given fast/slow/signal periods. Warm-up
// samples are NaN; the signal line and histogram warm up later than the
// MACD line itself.
func MACD(bars []domain.Bar, fast, slow, signal int) (line, sig, hist []domain.IndicatorSample) {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	fastEMA := emaSeries(closes, fast)
	slowEMA := emaSeries(closes, slow)

	macd := make([]float64, len(bars))
	for i := range macd {
		macd[i] = fastEMA[i] - slowEMA[i] // NaN propagates through subtraction
	}

	sigValues := emaSeriesFrom(macd, slow-1, signal)

	line = make([]domain.IndicatorSample, len(bars))
	sig = make([]domain.IndicatorSample, len(bars))
	hist = make([]domain.IndicatorSample, len(bars))
	for i, b := range bars {
		line[i] = domain.IndicatorSample{Date: b.Date, Value: macd[i]}
		sig[i] = domain.IndicatorSample{Date: b.Date, Value: sigValues[i]}
		hist[i] = domain.IndicatorSample{Date: b.Date, Value: macd[i] - sigValues[i]}
	}
	return line, sig, hist
}

// Default MACD periods.
const (
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
)

// Compute evaluates the named indicator columns over the bars. Names follow
// the canonical forms sma_N, ema_N, rsi_N, macd, macd_signal, macd_hist;
// the MACD family always uses the default 12/26/9 periods. Duplicate names
// are computed once. An unrecognised name is an error.
func Compute(bars []domain.Bar, names []string) (map[string][]domain.IndicatorSample, error) {
	out := make(map[string][]domain.IndicatorSample, len(names))
	for _, name := range names {
		if _, done := out[name]; done {
			continue
		}
		switch {
		case name == MACDName, name == MACDSignalName, name == MACDHistName:
			line, sig, hist := MACD(bars, MACDFast, MACDSlow, MACDSignal)
			out[MACDName] = line
			out[MACDSignalName] = sig
			out[MACDHistName] = hist
		case strings.HasPrefix(name, "sma_"):
			p, err := parsePeriod(name, "sma_")
			if err != nil {
				return nil, err
			}
			out[name] = SMA(bars, p)
		case strings.HasPrefix(name, "ema_"):
			p, err := parsePeriod(name, "ema_")
			if err != nil {
				return nil, err
			}
			out[name] = EMA(bars, p)
		case strings.HasPrefix(name, "rsi_"):
			p, err := parsePeriod(name, "rsi_")
			if err != nil {
				return nil, err
			}
			out[name] = RSI(bars, p)
		default:
			return nil, fmt.Errorf("indicator: unknown column %q", name)
		}
	}
	return out, nil
}

func parsePeriod(name, prefix string) (int, error) {
	p, err := strconv.Atoi(strings.TrimPrefix(name, prefix))
	if err != nil || p <= 0 {
		return 0, fmt.Errorf("indicator: bad period in column %q", name)
	}
	return p, nil
}

// rsiValue converts smoothed average gain/loss into the 0-100 index.
func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// emaSeries computes an EMA over values, seeded with the simple average of
// the first period entries. Entries before index period-1 are NaN.
func emaSeries(values []float64, period int) []float64 {
	return emaSeriesFrom(values, 0, period)
}

// emaSeriesFrom is emaSeries starting at offset: entries before
// offset+period-1 are NaN and the seed averages values[offset:offset+period].
// It lets the MACD signal line warm up on top of an already-warming series.
func emaSeriesFrom(values []float64, offset, period int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	seedEnd := offset + period - 1
	if period <= 0 || seedEnd >= len(values) {
		return out
	}

	var sum float64
	for i := offset; i <= seedEnd; i++ {
		sum += values[i]
	}
	out[seedEnd] = sum / float64(period)

	alpha := 2.0 / (float64(period) + 1)
	for i := seedEnd + 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}
