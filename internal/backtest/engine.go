package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/signalforge/equityedge/internal/errkind"
	"github.com/signalforge/equityedge/internal/verdict"
)

// Engine replays selected BUY Verdicts through the rank/allocate/simulate/
// aggregate pipeline (spec §4.4). It holds no mutable state; a single
// Engine value is safe to share across concurrent backtest requests.
type Engine struct {
	prices PriceHistory
}

// NewEngine builds a backtest Engine over the given price history source.
func NewEngine(prices PriceHistory) *Engine {
	return &Engine{prices: prices}
}

// contributingAgents lists the non-failed agent names on a Verdict, in
// panel registration order (the order AgentVerdicts was already persisted
// in), for the Report's per-agent attribution step.
func contributingAgents(v verdict.Verdict) []string {
	out := make([]string, 0, len(v.AgentVerdicts))
	for _, av := range v.AgentVerdicts {
		if !av.Failed {
			out = append(out, av.AgentName)
		}
	}
	return out
}

// Run executes one mode's full pipeline over candidates, which must already
// be the selected (signal_type = BUY, created_at in range) Verdicts — step
// 1 of spec §4.4 is the caller's persistence query, not this package's
// concern, so Engine has no Repository dependency of its own.
func (e *Engine) Run(ctx context.Context, req Request, candidates []verdict.Verdict) (Report, error) {
	if req.Mode != CoreFocus && req.Mode != Balanced && req.Mode != Diversified {
		return Report{}, errkind.BadInputf("backtest", "unknown allocation mode %q", req.Mode)
	}
	if len(candidates) == 0 {
		return Report{}, errkind.InvalidStatef("backtest", "no BUY verdicts in range %s to %s", req.Start.Format("2006-01-02"), req.End.Format("2006-01-02"))
	}

	holdPeriod := req.HoldPeriodDays
	if holdPeriod <= 0 {
		holdPeriod = defaultHoldPeriodDays
	}

	ranked := rank(candidates)
	slots := allocate(req.Mode, len(ranked))

	report := Report{
		ID:              uuid.NewString(),
		Mode:            req.Mode,
		Start:           req.Start,
		End:             req.End,
		StartingCapital: req.StartingCapital,
		CreatedAt:       time.Now().UTC(),
	}

	trades := make([]Trade, 0, len(slots))
	for _, slot := range slots {
		select {
		case <-ctx.Done():
			return Report{}, errkind.New(errkind.Transient, "backtest", ctx.Err())
		default:
		}

		rv := ranked[slot.rank-1]
		v := rv.v
		if v.TargetPrice == nil || v.StopLoss == nil || v.EntryPrice <= 0 {
			report.Warnings = append(report.Warnings, fmt.Sprintf("verdict %s: missing risk parameters, skipped", v.ID))
			continue
		}

		_, shares := positionSize(req.StartingCapital, slot.allocationPct, v.EntryPrice)
		if shares <= 0 {
			report.Warnings = append(report.Warnings, fmt.Sprintf("verdict %s: allocation too small for one share, skipped", v.ID))
			continue
		}

		trade := Trade{
			VerdictID:          v.ID,
			Ticker:             v.Ticker,
			Rank:               slot.rank,
			AllocationPct:      slot.allocationPct,
			EntryDate:          v.CreatedAt,
			EntryPrice:         v.EntryPrice,
			Shares:             shares,
			ContributingAgents: contributingAgents(v),
		}

		simulated, err := simulate(ctx, e.prices, trade, *v.TargetPrice, *v.StopLoss, holdPeriod)
		if err != nil {
			log.Warn().Err(err).Str("verdict_id", v.ID).Msg("backtest: dropping trade, missing price history")
			report.Warnings = append(report.Warnings, fmt.Sprintf("verdict %s: %v", v.ID, err))
			continue
		}
		trades = append(trades, simulated)
	}

	report.Trades = trades
	report.TotalPnL, report.TotalReturnPct, report.WinRate, report.Sharpe, report.MaxDrawdownPct = aggregate(trades, req.StartingCapital)
	report.AgentAttribution = attributeByAgent(trades)

	return report, nil
}

// CompareModes runs steps 2-5 independently for all three modes over the
// same selected candidates, per spec §4.4's compare-modes operation.
func (e *Engine) CompareModes(ctx context.Context, req Request, candidates []verdict.Verdict) ([]Report, error) {
	modes := []Mode{CoreFocus, Balanced, Diversified}
	reports := make([]Report, 0, len(modes))
	for _, m := range modes {
		r := req
		r.Mode = m
		report, err := e.Run(ctx, r, candidates)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}
