package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"algotrade/internal/backtest/rules"
	"algotrade/internal/config"
	"algotrade/internal/runner"
	"algotrade/internal/store"
	"algotrade/internal/util"
)

// backtest runs the engine offline against the Parquet bar cache: no market
// data fetch, no report sink, no notifications. Results go to stdout.
func main() {
	symbolsFlag := flag.String("symbols", "", "comma-separated symbols, overrides the config list")
	flag.Parse()

	cfgPath := "config/algotrade.yaml"
	if p := os.Getenv("ALGOTRADE_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	util.SetDefault(util.NewLogger(cfg.Logging.Level, cfg.Logging.Format))

	pstore := store.NewParquetStore(cfg.Storage.DataDir)

	symbols := cfg.Symbols
	if *symbolsFlag != "" {
		symbols = splitSymbols(*symbolsFlag)
	}
	if len(symbols) == 0 {
		// Fall back to every cached symbol.
		symbols, err = pstore.ListSymbols(context.Background())
		if err != nil {
			log.Fatalf("listing cached symbols: %v", err)
		}
	}
	if len(symbols) == 0 {
		log.Fatal("no symbols configured and the bar cache is empty")
	}

	rule, err := rules.FromConfig(cfg.Backtest.Rule)
	if err != nil {
		log.Fatalf("building rule: %v", err)
	}

	r := runner.New(rule, runner.Options{
		Cache:        pstore,
		StartingCash: cfg.Backtest.StartingCash,
		LookbackDays: cfg.Fetch.LookbackDays,
		MaxWorkers:   cfg.Fetch.MaxWorkers,
	})

	report, err := r.Run(context.Background(), symbols)
	if err != nil {
		log.Fatalf("run error: %v", err)
	}

	fmt.Printf("%-8s %10s %8s %10s %10s %12s\n",
		"SYMBOL", "RETURN%", "TRADES", "WINRATE%", "MAXDD%", "EQUITY")
	for _, s := range report.Summaries {
		fmt.Printf("%-8s %10.2f %8d %10.1f %10.2f %12.2f\n",
			s.Symbol, s.TotalReturnPct, s.NumTrades, s.WinRatePct, s.MaxDrawdownPct, s.FinalEquity)
	}
	for sym, err := range report.Failed {
		fmt.Printf("%-8s failed: %v\n", sym, err)
	}
}

func splitSymbols(s string) []string {
	var out []string
	for _, sym := range strings.Split(s, ",") {
		if sym = strings.ToUpper(strings.TrimSpace(sym)); sym != "" {
			out = append(out, sym)
		}
	}
	return out
}
