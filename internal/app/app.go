// Package app wires the Data Aggregator, Agent Panel, Consensus Engine,
// Persistence boundary, and Backtest Engine into the seven transport-
// agnostic operations of spec §6.2. It is deliberately thin: every piece of
// domain logic lives in the collaborator packages, and App only sequences
// calls and applies the two cross-cutting policies (best-effort batching,
// best-effort notification) that don't belong to any one of them.
package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/signalforge/equityedge/internal/agents"
	"github.com/signalforge/equityedge/internal/backtest"
	"github.com/signalforge/equityedge/internal/consensus"
	"github.com/signalforge/equityedge/internal/errkind"
	"github.com/signalforge/equityedge/internal/market"
	"github.com/signalforge/equityedge/internal/persistence"
	"github.com/signalforge/equityedge/internal/sentiment"
	"github.com/signalforge/equityedge/internal/ticker"
	"github.com/signalforge/equityedge/internal/verdict"
)

// maxBatchConcurrency bounds how many tickers GenerateBatch analyzes at
// once, so a large watchlist doesn't fan out one goroutine per ticker
// against the LLM endpoint and market/sentiment provider chains at once.
const maxBatchConcurrency = 4

// Notifier is the subset of internal/notify.Notifier the App depends on.
// Declared here rather than imported directly so App has no hard
// dependency on Telegram; a nil Notifier disables notification entirely.
type Notifier interface {
	NotifyTransition(ctx context.Context, v verdict.Verdict) error
}

// App holds every collaborator the seven operations need. All fields are
// safe for concurrent use by multiple goroutines; App itself carries no
// mutable state of its own.
type App struct {
	market    *market.Aggregator
	sentiment *sentiment.Aggregator
	panel     *agents.Panel
	consensus *consensus.Engine
	repo      persistence.Repository
	backtest  *backtest.Engine
	notifier  Notifier
	weights   map[string]float64
}

// New builds an App. notifier may be nil, in which case status transitions
// are persisted but never announced.
func New(
	marketAgg *market.Aggregator,
	sentimentAgg *sentiment.Aggregator,
	panel *agents.Panel,
	consensusEngine *consensus.Engine,
	repo persistence.Repository,
	backtestEngine *backtest.Engine,
	notifier Notifier,
	weights map[string]float64,
) *App {
	return &App{
		market:    marketAgg,
		sentiment: sentimentAgg,
		panel:     panel,
		consensus: consensusEngine,
		repo:      repo,
		backtest:  backtestEngine,
		notifier:  notifier,
		weights:   weights,
	}
}

// GenerateSignal runs the full pipeline for one ticker: fetch market and
// sentiment data, analyze with the Agent Panel, consense into a Verdict,
// and persist it. A nil current price (every market provider and the cache
// both failed) is the one hard failure; every other degraded condition
// surfaces as a Warning on the returned Verdict instead.
func (a *App) GenerateSignal(ctx context.Context, t ticker.Ticker) (verdict.Verdict, error) {
	if err := t.Validate(); err != nil {
		return verdict.Verdict{}, errkind.BadInputf("app.GenerateSignal", "invalid ticker: %w", err)
	}

	mkt := a.market.Fetch(ctx, t)
	if mkt.CurrentPrice == nil {
		return verdict.Verdict{}, errkind.Unavailablef("app.GenerateSignal", "no market price available for %s", t)
	}

	sent := a.sentiment.Fetch(ctx, t)
	agentVerdicts := a.panel.Analyze(ctx, t, mkt, sent)

	v := a.consensus.Consense(t, *mkt.CurrentPrice, agentVerdicts, a.weights)
	v.Warnings = append(v.Warnings, mkt.Warnings...)

	if err := a.repo.SaveVerdict(ctx, v); err != nil {
		return verdict.Verdict{}, errkind.Transientf("app.GenerateSignal", err)
	}
	return v, nil
}

// GenerateBatch runs GenerateSignal for each ticker, bounded to
// maxBatchConcurrency concurrent analyses. One ticker's failure never
// aborts the others — it is logged and omitted from the result, matching
// the Data Aggregator's own degrade-rather-than-fail posture (spec §3).
func (a *App) GenerateBatch(ctx context.Context, tickers []ticker.Ticker) ([]verdict.Verdict, error) {
	if len(tickers) == 0 {
		return nil, errkind.BadInputf("app.GenerateBatch", "no tickers given")
	}

	results := make([]verdict.Verdict, len(tickers))
	ok := make([]bool, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxBatchConcurrency)
	for i, t := range tickers {
		i, t := i, t
		g.Go(func() error {
			v, err := a.GenerateSignal(gctx, t)
			if err != nil {
				log.Warn().Err(err).Str("ticker", string(t)).Msg("app: dropping ticker from batch")
				return nil
			}
			results[i] = v
			ok[i] = true
			return nil
		})
	}
	_ = g.Wait() // per-ticker errors are swallowed above; this only reports context cancellation

	if err := ctx.Err(); err != nil {
		return nil, errkind.New(errkind.Transient, "app.GenerateBatch", err)
	}

	out := make([]verdict.Verdict, 0, len(tickers))
	for i := range results {
		if ok[i] {
			out = append(out, results[i])
		}
	}
	return out, nil
}

// ListSignals applies filter, then paginates in memory: Repository.
// ListVerdicts has no limit/offset of its own (spec §6.1's adapters return
// the full filtered set), so pagination is this operation's job. limit <= 0
// means "no limit".
func (a *App) ListSignals(ctx context.Context, filter persistence.ListFilter, offset, limit int) ([]verdict.Verdict, error) {
	all, err := a.repo.ListVerdicts(ctx, filter)
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []verdict.Verdict{}, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

// GetSignal loads one Verdict by ID.
func (a *App) GetSignal(ctx context.Context, id string) (verdict.Verdict, error) {
	return a.repo.LoadVerdict(ctx, id)
}

// UpdateSignalStatus applies a lifecycle transition and, on success,
// notifies best-effort: a notification failure is logged but never turns a
// successful status update into an error.
func (a *App) UpdateSignalStatus(ctx context.Context, id string, to verdict.VerdictStatus, pnl *float64, notes string) (verdict.Verdict, error) {
	v, err := a.repo.UpdateStatus(ctx, id, to, pnl, notes)
	if err != nil {
		return verdict.Verdict{}, err
	}

	if a.notifier != nil {
		if err := a.notifier.NotifyTransition(ctx, v); err != nil {
			log.Warn().Err(err).Str("verdict_id", id).Msg("app: notification failed")
		}
	}
	return v, nil
}

// selectCandidates loads the BUY Verdicts created within [start, end] —
// step 1 of spec §4.4, kept here rather than in internal/backtest so the
// Engine stays free of a Repository dependency.
func (a *App) selectCandidates(ctx context.Context, start, end time.Time) ([]verdict.Verdict, error) {
	all, err := a.repo.ListVerdicts(ctx, persistence.ListFilter{CreatedAfter: &start, CreatedBefore: &end})
	if err != nil {
		return nil, err
	}
	candidates := make([]verdict.Verdict, 0, len(all))
	for _, v := range all {
		if v.SignalType == verdict.SignalBuy {
			candidates = append(candidates, v)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].CreatedAt.Before(candidates[j].CreatedAt) })
	return candidates, nil
}

// RunBacktest selects BUY Verdicts in req's date range and replays them
// through the Backtest Engine for req.Mode, then persists the Report.
func (a *App) RunBacktest(ctx context.Context, req backtest.Request) (backtest.Report, error) {
	candidates, err := a.selectCandidates(ctx, req.Start, req.End)
	if err != nil {
		return backtest.Report{}, err
	}

	report, err := a.backtest.Run(ctx, req, candidates)
	if err != nil {
		return backtest.Report{}, err
	}

	if err := a.repo.SaveBacktest(ctx, report); err != nil {
		return backtest.Report{}, errkind.Transientf("app.RunBacktest", err)
	}
	return report, nil
}

// CompareBacktestModes selects the same candidate set once, then runs all
// three allocation modes over it, persisting each resulting Report.
func (a *App) CompareBacktestModes(ctx context.Context, req backtest.Request) ([]backtest.Report, error) {
	candidates, err := a.selectCandidates(ctx, req.Start, req.End)
	if err != nil {
		return nil, err
	}

	reports, err := a.backtest.CompareModes(ctx, req, candidates)
	if err != nil {
		return nil, err
	}

	for _, report := range reports {
		if err := a.repo.SaveBacktest(ctx, report); err != nil {
			return nil, errkind.Transientf("app.CompareBacktestModes", fmt.Errorf("mode %s: %w", report.Mode, err))
		}
	}
	return reports, nil
}
