package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"algotrade/internal/backtest"
	"algotrade/internal/domain"
	"algotrade/internal/indicator"
)

// Compile-time interface checks.
var _ BarCache = (*ParquetStore)(nil)
var _ FeatureSink = (*ParquetStore)(nil)

// ParquetStore implements BarCache and FeatureSink using Parquet files on disk.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a new ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// BarRecord is the Parquet schema for daily bar data.
type BarRecord struct {
	Symbol string  `parquet:"symbol"`
	Date   int64   `parquet:"date,timestamp(millisecond)"` // Unix ms, midnight UTC
	Open   float64 `parquet:"open"`
	High   float64 `parquet:"high"`
	Low    float64 `parquet:"low"`
	Close  float64 `parquet:"close"`
	Volume int64   `parquet:"volume"`
}

// FeatureRecord is the Parquet schema for exported classifier features. The
// column set is fixed; feature sets missing a column export NaN for it.
type FeatureRecord struct {
	Date       int64   `parquet:"date,timestamp(millisecond)"`
	Close      float64 `parquet:"close"`
	Volume     int64   `parquet:"volume"`
	RSI14      float64 `parquet:"rsi_14"`
	SMA20      float64 `parquet:"sma_20"`
	SMA50      float64 `parquet:"sma_50"`
	MACD       float64 `parquet:"macd"`
	MACDSignal float64 `parquet:"macd_signal"`
	MACDHist   float64 `parquet:"macd_hist"`
	NextDayUp  bool    `parquet:"next_day_up"`
}

// FeatureColumns returns the indicator columns of the on-disk feature schema,
// in record order.
func FeatureColumns() []string {
	return []string{
		indicator.RSIName(14),
		indicator.SMAName(20),
		indicator.SMAName(50),
		indicator.MACDName,
		indicator.MACDSignalName,
		indicator.MACDHistName,
	}
}

// ---------------------------------------------------------------------------
// BarCache implementation
// ---------------------------------------------------------------------------

// WriteBars writes bar data to Parquet files organized by symbol and year.
// Each symbol+year combination produces a separate file at:
//
//	<DataDir>/daily/<SYMBOL>/<YYYY>.parquet
func (s *ParquetStore) WriteBars(_ context.Context, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	type key struct {
		symbol string
		year   int
	}
	groups := make(map[key][]BarRecord)
	for _, b := range bars {
		k := key{symbol: b.Symbol, year: b.Date.Year()}
		groups[k] = append(groups[k], BarRecord{
			Symbol: b.Symbol,
			Date:   b.Date.UnixMilli(),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		})
	}

	for k, records := range groups {
		path := s.barPath(k.symbol, k.year)

		// Read existing records to merge.
		existing, _ := readParquetFile[BarRecord](path)
		merged := mergeBarRecords(existing, records)

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing bars for %s/%d: %w", k.symbol, k.year, err)
		}
	}
	return nil
}

// ReadBars reads cached bars for the given symbol and date range, sorted by
// date.
func (s *ParquetStore) ReadBars(_ context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	var bars []domain.Bar
	for year := start.Year(); year <= end.Year(); year++ {
		path := s.barPath(symbol, year)

		records, err := readParquetFile[BarRecord](path)
		if err != nil {
			// No file for this year.
			continue
		}

		for _, r := range records {
			d := time.UnixMilli(r.Date).UTC()
			if (d.Equal(start) || d.After(start)) && (d.Equal(end) || d.Before(end)) {
				bars = append(bars, domain.Bar{
					Symbol: r.Symbol,
					Date:   d,
					Open:   r.Open,
					High:   r.High,
					Low:    r.Low,
					Close:  r.Close,
					Volume: r.Volume,
				})
			}
		}
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// ListSymbols lists all symbols present in the bar cache.
func (s *ParquetStore) ListSymbols(_ context.Context) ([]string, error) {
	dir := filepath.Join(s.DataDir, "daily")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var symbols []string
	for _, e := range entries {
		if e.IsDir() {
			symbols = append(symbols, e.Name())
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

// ---------------------------------------------------------------------------
// FeatureSink implementation
// ---------------------------------------------------------------------------

// WriteFeatures writes the feature set to <DataDir>/features/<SYMBOL>.parquet,
// replacing any previous export for the symbol.
func (s *ParquetStore) WriteFeatures(_ context.Context, symbol string, fs backtest.FeatureSet) error {
	idx := make(map[string]int, len(fs.Columns))
	for i, c := range fs.Columns {
		idx[c] = i
	}
	col := func(row backtest.FeatureRow, name string) float64 {
		if i, ok := idx[name]; ok {
			return row.Values[i]
		}
		return row.Row.Value(name)
	}

	records := make([]FeatureRecord, 0, len(fs.Rows))
	for _, row := range fs.Rows {
		records = append(records, FeatureRecord{
			Date:       row.Row.Date.UnixMilli(),
			Close:      row.Row.Close,
			Volume:     row.Row.Volume,
			RSI14:      col(row, indicator.RSIName(14)),
			SMA20:      col(row, indicator.SMAName(20)),
			SMA50:      col(row, indicator.SMAName(50)),
			MACD:       col(row, indicator.MACDName),
			MACDSignal: col(row, indicator.MACDSignalName),
			MACDHist:   col(row, indicator.MACDHistName),
			NextDayUp:  row.NextDayUp,
		})
	}

	path := s.featurePath(symbol)
	if err := writeParquetFile(path, records); err != nil {
		return fmt.Errorf("writing features for %s: %w", symbol, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Path helpers
// ---------------------------------------------------------------------------

// barPath returns the filesystem path for a bar Parquet file.
// Layout: <dataDir>/daily/<SYMBOL>/<YYYY>.parquet
func (s *ParquetStore) barPath(symbol string, year int) string {
	return filepath.Join(s.DataDir, "daily", strings.ToUpper(symbol), fmt.Sprintf("%d.parquet", year))
}

// featurePath returns the filesystem path for a feature Parquet file.
// Layout: <dataDir>/features/<SYMBOL>.parquet
func (s *ParquetStore) featurePath(symbol string) string {
	return filepath.Join(s.DataDir, "features", strings.ToUpper(symbol)+".parquet")
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// mergeBarRecords deduplicates bar records by (symbol, date), preferring new
// records over existing ones. Results are sorted by date.
func mergeBarRecords(existing, incoming []BarRecord) []BarRecord {
	type key struct {
		symbol string
		date   int64
	}
	seen := make(map[key]BarRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[key{r.Symbol, r.Date}] = r
	}
	for _, r := range incoming {
		seen[key{r.Symbol, r.Date}] = r
	}

	merged := make([]BarRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Date < merged[j].Date
	})
	return merged
}
