package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"algotrade/internal/domain"
)

func TestDigest(t *testing.T) {
	s := domain.PerformanceSummary{
		Symbol:         "AAPL",
		Rule:           "sma-cross",
		TotalReturnPct: 16.0,
		NumTrades:      3,
		WinRatePct:     66.7,
		MaxDrawdownPct: 8.25,
		FinalEquity:    116000,
	}

	got := Digest(s)
	for _, want := range []string{
		"AAPL (sma-cross)",
		"return 16.00%",
		"equity 116000.00",
		"trades 3",
		"win rate 66.7%",
		"max drawdown 8.25%",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Digest missing %q:\n%s", want, got)
		}
	}
}

func TestRunDigest(t *testing.T) {
	summaries := []domain.PerformanceSummary{
		{Symbol: "AAPL", TotalReturnPct: 16.0, NumTrades: 3},
		{Symbol: "MSFT", TotalReturnPct: -2.5, NumTrades: 1},
	}
	failed := map[string]error{
		"GOOGL": errors.New("no bars"),
	}

	got := RunDigest(summaries, failed)
	if !strings.HasPrefix(got, "backtest run: 2 ok, 1 failed") {
		t.Errorf("unexpected header:\n%s", got)
	}
	if !strings.Contains(got, "AAPL +16.00% (3 trades)") {
		t.Errorf("missing AAPL line:\n%s", got)
	}
	if !strings.Contains(got, "MSFT -2.50% (1 trades)") {
		t.Errorf("missing MSFT line:\n%s", got)
	}
	if !strings.Contains(got, "GOOGL failed: no bars") {
		t.Errorf("missing failure line:\n%s", got)
	}
	if strings.HasSuffix(got, "\n") {
		t.Error("digest should not end with a newline")
	}
}

func TestFromConfigFallsBackToLog(t *testing.T) {
	n, err := FromConfig("", 0)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if _, ok := n.(*LogNotifier); !ok {
		t.Fatalf("FromConfig without credentials = %T, want *LogNotifier", n)
	}
	if err := n.Notify(context.Background(), "hello"); err != nil {
		t.Errorf("LogNotifier.Notify: %v", err)
	}
}
