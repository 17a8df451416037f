// Package notify pushes a one-line Telegram message whenever a Verdict
// transitions to EXECUTED or CLOSED. It is an optional collaborator: the
// core's control flow (Aggregator, Agent Panel, Consensus, Backtest) never
// depends on a Notifier being present or reachable. Grounded on the
// teacher's internal/telegram/bot.go (BotAPI construction, zerolog usage),
// generalized from an interactive trade-fill-alert command bot down to a
// single outbound notification path.
package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/signalforge/equityedge/internal/errkind"
	"github.com/signalforge/equityedge/internal/verdict"
)

// Config configures the Telegram notifier.
type Config struct {
	BotToken string
	ChatID   int64
	Debug    bool
}

// Notifier sends verdict-lifecycle alerts to a single configured chat.
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// New authorizes against the Telegram Bot API, the same call the teacher's
// NewBot makes, but without registering any inbound command handlers —
// this notifier only ever sends.
func New(cfg Config) (*Notifier, error) {
	if cfg.BotToken == "" {
		return nil, errkind.BadInputf("notify.New", "bot token is required")
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, errkind.New(errkind.Unavailable, "notify.New", fmt.Errorf("authorize telegram bot: %w", err))
	}
	api.Debug = cfg.Debug

	log.Info().Str("username", api.Self.UserName).Msg("notify: telegram bot authorized")
	return &Notifier{api: api, chatID: cfg.ChatID}, nil
}

// NotifyTransition sends a one-line alert when v has just moved to EXECUTED
// or CLOSED; any other status is a silent no-op, since spec.md's verdict-
// notifier scope names only these two transitions.
func (n *Notifier) NotifyTransition(ctx context.Context, v verdict.Verdict) error {
	line := formatLine(v)
	if line == "" {
		return nil
	}

	msg := tgbotapi.NewMessage(n.chatID, line)
	if _, err := n.api.Send(msg); err != nil {
		return errkind.Transientf("notify.NotifyTransition", err)
	}
	return nil
}

// formatLine renders v's one-line alert text, or "" if v's status is not
// one of the two the notifier cares about. Pulled out as a pure function so
// message formatting is testable without a live Telegram API token.
func formatLine(v verdict.Verdict) string {
	switch v.Status {
	case verdict.Executed:
		return fmt.Sprintf("%s EXECUTED: %s @ %.2f, size %d", v.Ticker, v.SignalType, v.EntryPrice, v.PositionSize)
	case verdict.Closed:
		pnl := "n/a"
		if v.ClosedPnL != nil {
			pnl = fmt.Sprintf("%.2f", *v.ClosedPnL)
		}
		return fmt.Sprintf("%s CLOSED: %s, pnl %s", v.Ticker, v.SignalType, pnl)
	default:
		return ""
	}
}
