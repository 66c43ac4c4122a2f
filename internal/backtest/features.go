package backtest

// FeatureSet is a plain tabular view of the aligned table's indicator
// columns plus a next-day-direction label, for consumption by an external
// classifier. The engine derives it and nothing more; model training lives
// outside this repository.
type FeatureSet struct {
	Columns []string
	Rows    []FeatureRow
}

// FeatureRow is one labelled observation. Values is aligned with the
// FeatureSet's Columns. NextDayUp is true when the following date's close is
// strictly above this date's close.
type FeatureRow struct {
	Row       Row
	Values    []float64
	NextDayUp bool
}

// Features extracts the named columns from the aligned rows and labels each
// row with the next day's direction. The final row has no next day and is
// dropped, as is any row where a requested column is undefined — a
// classifier cannot consume NaNs.
func Features(rows []Row, columns []string) FeatureSet {
	fs := FeatureSet{Columns: columns}

	for i := 0; i+1 < len(rows); i++ {
		if !rows[i].Defined(columns...) {
			continue
		}
		values := make([]float64, len(columns))
		for j, c := range columns {
			values[j] = rows[i].Value(c)
		}
		fs.Rows = append(fs.Rows, FeatureRow{
			Row:       rows[i],
			Values:    values,
			NextDayUp: rows[i+1].Close > rows[i].Close,
		})
	}
	return fs
}
