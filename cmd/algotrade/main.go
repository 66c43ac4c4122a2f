package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"algotrade/internal/backtest/rules"
	"algotrade/internal/config"
	"algotrade/internal/fetch"
	"algotrade/internal/notify"
	"algotrade/internal/runner"
	"algotrade/internal/store"
	"algotrade/internal/util"
)

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

	// Dual logger: stdout + /tmp log file.
	logFileName := fmt.Sprintf("/tmp/algotrade-%s.log", time.Now().Format("2006-01-02"))
	logFile, err := os.Create(logFileName)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	w := io.MultiWriter(os.Stdout, logFile)
	util.SetDefault(util.NewLoggerTo(w, cfg.Logging.Level, cfg.Logging.Format))

	symbols := cfg.Symbols
	if *symbolsFlag != "" {
		symbols = splitSymbols(*symbolsFlag)
	}
	if len(symbols) == 0 {
		log.Fatal("no symbols configured")
	}

	rule, err := rules.FromConfig(cfg.Backtest.Rule)
	if err != nil {
		log.Fatalf("building rule: %v", err)
	}

	pstore := store.NewParquetStore(cfg.Storage.DataDir)

	reports, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening report store: %v", err)
	}
	defer reports.Close()

	notifier, err := notify.FromConfig(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		log.Fatalf("creating notifier: %v", err)
	}

	r := runner.New(rule, runner.Options{
		Source:       fetch.NewAlpacaSource(cfg.Alpaca, cfg.Fetch),
		Cache:        pstore,
		Reports:      reports,
		Features:     pstore,
		Notifier:     notifier,
		StartingCash: cfg.Backtest.StartingCash,
		LookbackDays: cfg.Fetch.LookbackDays,
		MaxWorkers:   cfg.Fetch.MaxWorkers,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, err := r.Run(ctx, symbols)
	if err != nil {
		log.Fatalf("run error: %v", err)
	}
	if len(report.Failed) == len(symbols) {
		log.Fatal("every symbol failed")
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
