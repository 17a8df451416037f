// Package persistence defines the storage boundary for Verdicts and
// BacktestReports, plus a reference Postgres adapter and an in-memory
// adapter for tests. Nothing in the core control flow depends on either
// adapter being present; callers program against the Repository interface.
package persistence

import (
	"context"
	"time"

	"github.com/signalforge/equityedge/internal/backtest"
	"github.com/signalforge/equityedge/internal/ticker"
	"github.com/signalforge/equityedge/internal/verdict"
)

// ListFilter narrows list_verdicts by optional ticker/status/date range.
type ListFilter struct {
	Ticker    *ticker.Ticker
	Status    *verdict.VerdictStatus
	CreatedAfter, CreatedBefore *time.Time
}

// Repository is the persistence boundary spec §6.1 names:
// save_verdict/load_verdict/list_verdicts/update_status plus the backtest
// mirror. Any adapter (Postgres, in-memory, a future store) implements this.
type Repository interface {
	SaveVerdict(ctx context.Context, v verdict.Verdict) error
	LoadVerdict(ctx context.Context, id string) (verdict.Verdict, error)
	ListVerdicts(ctx context.Context, filter ListFilter) ([]verdict.Verdict, error)
	UpdateStatus(ctx context.Context, id string, to verdict.VerdictStatus, pnl *float64, notes string) (verdict.Verdict, error)

	SaveBacktest(ctx context.Context, r backtest.Report) error
	LoadBacktest(ctx context.Context, id string) (backtest.Report, error)
	ListBacktests(ctx context.Context) ([]backtest.Report, error)
}
