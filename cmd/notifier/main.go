// notifier is a minimal long-running process that watches the persistence
// store for Verdicts entering EXECUTED or CLOSED and pushes a one-line
// Telegram alert for each, using the teacher's go-telegram-bot-api
// dependency. Grounded on the teacher's cmd/telegram-bot/main.go (signal
// handling, zerolog setup), generalized from an interactive command bot
// down to a poll-and-announce loop: this module has no inbound Telegram
// surface, only the outbound notifier in internal/notify.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/signalforge/equityedge/internal/breaker"
	"github.com/signalforge/equityedge/internal/config"
	"github.com/signalforge/equityedge/internal/notify"
	"github.com/signalforge/equityedge/internal/persistence"
	"github.com/signalforge/equityedge/internal/verdict"
)

var (
	configPath   = flag.String("config", "", "path to config.yaml (optional; defaults applied otherwise)")
	pollInterval = flag.Duration("poll-interval", 15*time.Second, "how often to check for new EXECUTED/CLOSED verdicts")
	verbose      = flag.Bool("verbose", false, "enable debug logging")
)

func main() {
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	breakers := breaker.NewManager(breaker.Default())
	repo, err := persistence.NewPgx(ctx, breakers)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect persistence adapter")
	}
	defer repo.Close()

	notifier, err := notify.New(notify.Config{
		BotToken: cfg.Telegram.BotToken,
		ChatID:   cfg.Telegram.ChatID,
		Debug:    cfg.Telegram.Debug,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to authorize telegram bot")
	}

	log.Info().Dur("poll_interval", *pollInterval).Msg("notifier: watching for verdict transitions")
	run(ctx, repo, notifier, *pollInterval)
}

// announcer is the subset of internal/notify.Notifier the poll loop needs.
type announcer interface {
	NotifyTransition(ctx context.Context, v verdict.Verdict) error
}

// run polls repo every interval for EXECUTED/CLOSED verdicts and announces
// each one exactly once per process lifetime. State resets on restart —
// acceptable for a best-effort alert channel that is never the system of
// record (spec §6.2's Notifier is explicitly an optional collaborator).
func run(ctx context.Context, repo persistence.Repository, notifier announcer, interval time.Duration) {
	announced := make(map[string]bool)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("notifier: shutting down")
			return
		case <-ticker.C:
			pollOnce(ctx, repo, notifier, announced)
		}
	}
}

func pollOnce(ctx context.Context, repo persistence.Repository, notifier announcer, announced map[string]bool) {
	for _, status := range []verdict.VerdictStatus{verdict.Executed, verdict.Closed} {
		status := status
		verdicts, err := repo.ListVerdicts(ctx, persistence.ListFilter{Status: &status})
		if err != nil {
			log.Warn().Err(err).Str("status", string(status)).Msg("notifier: failed to list verdicts")
			continue
		}
		for _, v := range verdicts {
			key := v.ID + ":" + string(v.Status)
			if announced[key] {
				continue
			}
			if err := notifier.NotifyTransition(ctx, v); err != nil {
				log.Warn().Err(err).Str("verdict_id", v.ID).Msg("notifier: send failed")
				continue
			}
			announced[key] = true
		}
	}
}
