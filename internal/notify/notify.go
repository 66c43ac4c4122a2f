// Package notify delivers backtest results to an operator: a Telegram
// channel when credentials are configured, the application log otherwise.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"algotrade/internal/domain"
)

// Notifier delivers a plain-text message to the operator.
type Notifier interface {
	Notify(ctx context.Context, msg string) error
}

// Compile-time interface checks.
var _ Notifier = (*TelegramNotifier)(nil)
var _ Notifier = (*LogNotifier)(nil)

// ---------------------------------------------------------------------------
// TelegramNotifier
// ---------------------------------------------------------------------------

// TelegramNotifier sends messages to a fixed Telegram chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *slog.Logger
}

// NewTelegramNotifier creates a TelegramNotifier from a bot token and the
// destination chat ID. It fails if the token is rejected by the Telegram API.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	return &TelegramNotifier{
		bot:    bot,
		chatID: chatID,
		log:    slog.Default().With("notifier", "telegram"),
	}, nil
}

// Notify sends the message to the configured chat.
func (n *TelegramNotifier) Notify(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := n.bot.Send(tgbotapi.NewMessage(n.chatID, msg)); err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	n.log.Debug("sent", "chars", len(msg))
	return nil
}

// ---------------------------------------------------------------------------
// LogNotifier
// ---------------------------------------------------------------------------

// LogNotifier writes notifications to the application log. It is the fallback
// when no Telegram credentials are configured.
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier creates a LogNotifier on the default logger.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: slog.Default().With("notifier", "log")}
}

// Notify logs the message at info level.
func (n *LogNotifier) Notify(_ context.Context, msg string) error {
	n.log.Info("notification", "msg", msg)
	return nil
}

// ---------------------------------------------------------------------------
// Message building
// ---------------------------------------------------------------------------

// FromConfig returns a TelegramNotifier when both token and chat ID are set,
// a LogNotifier otherwise.
func FromConfig(token string, chatID int64) (Notifier, error) {
	if token == "" || chatID == 0 {
		return NewLogNotifier(), nil
	}
	return NewTelegramNotifier(token, chatID)
}

// Digest renders one symbol's performance summary as a notification message.
func Digest(s domain.PerformanceSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", s.Symbol, s.Rule)
	fmt.Fprintf(&b, "return %.2f%%  equity %.2f\n", s.TotalReturnPct, s.FinalEquity)
	fmt.Fprintf(&b, "trades %d  win rate %.1f%%  max drawdown %.2f%%", s.NumTrades, s.WinRatePct, s.MaxDrawdownPct)
	return b.String()
}

// RunDigest renders the digest for a whole run: one line per summary plus a
// line for each symbol that failed.
func RunDigest(summaries []domain.PerformanceSummary, failed map[string]error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "backtest run: %d ok, %d failed\n", len(summaries), len(failed))
	for _, s := range summaries {
		fmt.Fprintf(&b, "%s %+.2f%% (%d trades)\n", s.Symbol, s.TotalReturnPct, s.NumTrades)
	}
	syms := make([]string, 0, len(failed))
	for sym := range failed {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	for _, sym := range syms {
		fmt.Fprintf(&b, "%s failed: %v\n", sym, failed[sym])
	}
	return strings.TrimRight(b.String(), "\n")
}
