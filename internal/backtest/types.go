// Package backtest implements the Backtest Engine: it replays persisted
// BUY Verdicts against one of three allocation policies and produces
// per-trade P&L plus portfolio-level metrics. Grounded on the teacher's
// pkg/backtest (engine.go's trade-simulation shape, metrics.go's
// annualized-volatility/Sharpe formula), generalized from the teacher's
// tick-by-tick crypto equity-curve replay to daily-bar equity-signal replay.
package backtest

import (
	"time"

	"github.com/signalforge/equityedge/internal/ticker"
)

// Mode selects an allocation policy (spec §4.4).
type Mode string

const (
	CoreFocus   Mode = "CORE_FOCUS"
	Balanced    Mode = "BALANCED"
	Diversified Mode = "DIVERSIFIED"
)

// ExitReason records why a simulated trade closed.
type ExitReason string

const (
	TakeProfit   ExitReason = "TAKE_PROFIT"
	StopLossHit  ExitReason = "STOP_LOSS"
	HoldPeriodEnd ExitReason = "HOLD_PERIOD_END"
)

// Request is the run_backtest operation's input (spec §6.2).
type Request struct {
	Start, End       time.Time
	Mode             Mode
	StartingCapital  float64
	HoldPeriodDays   int // default 30 when zero
}

// Trade is one simulated position, from allocation through exit.
type Trade struct {
	VerdictID      string
	Ticker         ticker.Ticker
	Rank           int
	AllocationPct  float64
	EntryDate      time.Time
	EntryPrice     float64
	Shares         int
	ExitDate       time.Time
	ExitPrice      float64
	ExitReason     ExitReason
	PnL            float64
	ReturnPct      float64
	ContributingAgents []string // non-failed agent names on the source Verdict
}

// AgentAttribution is one agent's win-rate/average-pnl across the trades
// whose source Verdict carried a non-failed verdict from it.
type AgentAttribution struct {
	AgentName  string
	Trades     int
	WinRate    float64
	AveragePnL float64
}

// Report is the run_backtest operation's output (spec §6.2 BacktestReport).
type Report struct {
	ID              string
	Mode            Mode
	Start, End      time.Time
	StartingCapital float64
	Trades          []Trade
	TotalPnL        float64
	TotalReturnPct  float64
	WinRate         float64
	Sharpe          float64
	MaxDrawdownPct  float64
	AgentAttribution []AgentAttribution
	Warnings        []string // per-trade data problems that caused a drop
	CreatedAt       time.Time
}
