package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"algotrade/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ ReportSink = (*SQLiteStore)(nil)

// SQLiteStore implements ReportSink backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, runs the
// schema migration, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// migrate creates the trades and summaries tables if they do not exist.
func (s *SQLiteStore) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS trades (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol        TEXT    NOT NULL,
	rule          TEXT    NOT NULL,
	entry_date    TEXT    NOT NULL,
	entry_price   REAL    NOT NULL,
	exit_date     TEXT    NOT NULL,
	exit_price    REAL    NOT NULL,
	quantity      INTEGER NOT NULL,
	realized_pnl  REAL    NOT NULL,
	force_closed  INTEGER NOT NULL,
	created_at    TEXT    NOT NULL DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);

CREATE TABLE IF NOT EXISTS summaries (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol           TEXT    NOT NULL,
	rule             TEXT    NOT NULL,
	total_return_pct REAL    NOT NULL,
	num_trades       INTEGER NOT NULL,
	win_rate_pct     REAL    NOT NULL,
	max_drawdown_pct REAL    NOT NULL,
	final_equity     REAL    NOT NULL,
	created_at       TEXT    NOT NULL DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_summaries_symbol ON summaries(symbol);
`
	_, err := s.db.Exec(schema)
	return err
}

// ---------------------------------------------------------------------------
// ReportSink implementation
// ---------------------------------------------------------------------------

const dateLayout = "2006-01-02"

// SaveTrades appends the simulated trades of one run under the rule name.
func (s *SQLiteStore) SaveTrades(ctx context.Context, rule string, trades []domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trades (symbol, rule, entry_date, entry_price, exit_date, exit_price, quantity, realized_pnl, force_closed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range trades {
		_, err := stmt.ExecContext(ctx,
			t.Symbol, rule,
			t.EntryDate.Format(dateLayout), t.EntryPrice,
			t.ExitDate.Format(dateLayout), t.ExitPrice,
			t.Quantity, t.RealizedPnL, boolToInt(t.ForceClosed),
		)
		if err != nil {
			return fmt.Errorf("inserting trade %s: %w", t, err)
		}
	}
	return tx.Commit()
}

// SaveSummary appends one performance summary row.
func (s *SQLiteStore) SaveSummary(ctx context.Context, sum domain.PerformanceSummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO summaries (symbol, rule, total_return_pct, num_trades, win_rate_pct, max_drawdown_pct, final_equity)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sum.Symbol, sum.Rule, sum.TotalReturnPct, sum.NumTrades,
		sum.WinRatePct, sum.MaxDrawdownPct, sum.FinalEquity,
	)
	if err != nil {
		return fmt.Errorf("inserting summary for %s: %w", sum.Symbol, err)
	}
	return nil
}

// ListSummaries returns the most recent summaries for a symbol, newest first.
func (s *SQLiteStore) ListSummaries(ctx context.Context, symbol string, limit int) ([]domain.PerformanceSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, rule, total_return_pct, num_trades, win_rate_pct, max_drawdown_pct, final_equity
		FROM summaries WHERE symbol = ? ORDER BY id DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PerformanceSummary
	for rows.Next() {
		var sum domain.PerformanceSummary
		if err := rows.Scan(&sum.Symbol, &sum.Rule, &sum.TotalReturnPct, &sum.NumTrades,
			&sum.WinRatePct, &sum.MaxDrawdownPct, &sum.FinalEquity); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// ListTrades returns the most recent trades for a symbol, newest first. Every
// stored trade is closed; the simulator never persists an open position.
func (s *SQLiteStore) ListTrades(ctx context.Context, symbol string, limit int) ([]domain.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, entry_date, entry_price, exit_date, exit_price, quantity, realized_pnl, force_closed
		FROM trades WHERE symbol = ? ORDER BY id DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Trade
	for rows.Next() {
		var (
			t           domain.Trade
			entry, exit string
			forced      int
		)
		if err := rows.Scan(&t.Symbol, &entry, &t.EntryPrice, &exit, &t.ExitPrice,
			&t.Quantity, &t.RealizedPnL, &forced); err != nil {
			return nil, err
		}
		if t.EntryDate, err = time.ParseInLocation(dateLayout, entry, time.UTC); err != nil {
			return nil, fmt.Errorf("parsing entry date %q: %w", entry, err)
		}
		if t.ExitDate, err = time.ParseInLocation(dateLayout, exit, time.UTC); err != nil {
			return nil, fmt.Errorf("parsing exit date %q: %w", exit, err)
		}
		t.Closed = true
		t.ForceClosed = forced != 0
		out = append(out, t)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
