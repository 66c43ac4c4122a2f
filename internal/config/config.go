package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the algotrade system. The
// backtest engine itself never reads it; only the cmd entrypoints do.
type Config struct {
	Symbols  []string       `yaml:"symbols"`
	Storage  Storage        `yaml:"storage"`
	Alpaca   Alpaca         `yaml:"alpaca"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Backtest BacktestConfig `yaml:"backtest"`
	Telegram Telegram       `yaml:"telegram"`
	Logging  Logging        `yaml:"logging"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Alpaca holds credentials and endpoints for the Alpaca market-data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	DataURL   string `yaml:"data_url"`
	Feed      string `yaml:"feed"`
}

// FetchConfig controls daily bar fetching behaviour.
type FetchConfig struct {
	LookbackDays    int `yaml:"lookback_days"`
	RateLimitPerMin int `yaml:"rate_limit_per_min"`
	MaxAttempts     int `yaml:"max_attempts"`
	MaxWorkers      int `yaml:"max_workers"`
}

// BacktestConfig defines the simulation parameters and the signal rule.
type BacktestConfig struct {
	StartingCash float64    `yaml:"starting_cash"`
	Rule         RuleConfig `yaml:"rule"`
}

// RuleConfig selects and parameterises the signal rule by name. Only the
// fields relevant to the named rule are consulted.
type RuleConfig struct {
	Name        string  `yaml:"name"`         // "sma-cross" or "rsi-threshold"
	ShortPeriod int     `yaml:"short_period"` // sma-cross
	LongPeriod  int     `yaml:"long_period"`  // sma-cross
	RSIPeriod   int     `yaml:"rsi_period"`   // rsi-threshold
	EnterBelow  float64 `yaml:"enter_below"`  // rsi-threshold
	ExitAbove   float64 `yaml:"exit_above"`   // rsi-threshold
}

// Telegram holds the notification channel credentials. Both fields empty
// means notifications fall back to the log.
type Telegram struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, applies environment variable overrides, and fills defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Telegram.ChatID = id
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Standard Alpaca env vars (highest priority — canonical names used by SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}

// applyDefaults fills unset fields with workable defaults: SMA 20/50 cross,
// RSI(14) with a 30/70 band.
func applyDefaults(cfg *Config) {
	if cfg.Fetch.LookbackDays == 0 {
		cfg.Fetch.LookbackDays = 180
	}
	if cfg.Fetch.RateLimitPerMin == 0 {
		cfg.Fetch.RateLimitPerMin = 200
	}
	if cfg.Fetch.MaxAttempts == 0 {
		cfg.Fetch.MaxAttempts = 3
	}
	if cfg.Fetch.MaxWorkers == 0 {
		cfg.Fetch.MaxWorkers = 4
	}

	if cfg.Backtest.StartingCash == 0 {
		cfg.Backtest.StartingCash = 100000
	}
	if cfg.Backtest.Rule.Name == "" {
		cfg.Backtest.Rule.Name = "sma-cross"
	}
	if cfg.Backtest.Rule.ShortPeriod == 0 {
		cfg.Backtest.Rule.ShortPeriod = 20
	}
	if cfg.Backtest.Rule.LongPeriod == 0 {
		cfg.Backtest.Rule.LongPeriod = 50
	}
	if cfg.Backtest.Rule.RSIPeriod == 0 {
		cfg.Backtest.Rule.RSIPeriod = 14
	}
	if cfg.Backtest.Rule.EnterBelow == 0 {
		cfg.Backtest.Rule.EnterBelow = 30
	}
	if cfg.Backtest.Rule.ExitAbove == 0 {
		cfg.Backtest.Rule.ExitAbove = 70
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// validate rejects configurations the engine cannot run with.
func (cfg *Config) validate() error {
	if cfg.Backtest.StartingCash < 0 {
		return fmt.Errorf("backtest.starting_cash must be positive, got %v", cfg.Backtest.StartingCash)
	}
	if cfg.Backtest.Rule.ShortPeriod >= cfg.Backtest.Rule.LongPeriod {
		return fmt.Errorf("backtest.rule: short_period %d must be below long_period %d",
			cfg.Backtest.Rule.ShortPeriod, cfg.Backtest.Rule.LongPeriod)
	}
	return nil
}
