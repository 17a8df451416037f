// Package verdict defines the AgentVerdict and Verdict value types shared
// between the Agent Panel, Consensus Engine, Persistence boundary, and
// Backtest Engine, plus the signal-level score mapping and the Thresholds
// shared by the agents and the Consensus Engine.
package verdict

import (
	"time"

	"github.com/signalforge/equityedge/internal/errkind"
	"github.com/signalforge/equityedge/internal/ticker"
)

// SignalLevel is the five-level classification an individual agent (or the
// score-mapping function) produces.
type SignalLevel string

const (
	StrongSell SignalLevel = "STRONG_SELL"
	Sell       SignalLevel = "SELL"
	Hold       SignalLevel = "HOLD"
	Buy        SignalLevel = "BUY"
	StrongBuy  SignalLevel = "STRONG_BUY"
)

// SignalType is the three-level consensus collapse persisted on a Verdict.
type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalSell SignalType = "SELL"
	SignalHold SignalType = "HOLD"
)

// VerdictStatus is the Verdict lifecycle state. Transitions are linear and
// monotonic: PENDING -> APPROVED -> EXECUTED -> CLOSED.
type VerdictStatus string

const (
	Pending  VerdictStatus = "PENDING"
	Approved VerdictStatus = "APPROVED"
	Executed VerdictStatus = "EXECUTED"
	Closed   VerdictStatus = "CLOSED"
)

var statusOrder = map[VerdictStatus]int{
	Pending:  0,
	Approved: 1,
	Executed: 2,
	Closed:   3,
}

// CanTransition reports whether moving from `from` to `to` is a legal,
// single-step forward transition.
func CanTransition(from, to VerdictStatus) bool {
	fi, fok := statusOrder[from]
	ti, tok := statusOrder[to]
	return fok && tok && ti == fi+1
}

// ScoreToLevel maps a raw score in [-1,1] to a five-level SignalLevel using
// the thresholds table (tunable, defaults below). Used by the Predictor and
// the LLM-backed agents; the Consensus Engine applies the same Buy/Sell
// cutoffs directly to its blended score.
func ScoreToLevel(score float64, thresholds Thresholds) SignalLevel {
	switch {
	case score >= thresholds.StrongBuy:
		return StrongBuy
	case score >= thresholds.Buy:
		return Buy
	case score > thresholds.Sell && score < thresholds.Buy:
		return Hold
	case score <= thresholds.StrongSell:
		return StrongSell
	case score <= thresholds.Sell:
		return Sell
	default:
		return Hold
	}
}

// Thresholds configures the score-to-level cutoffs. Defaults are ±0.1 for
// BUY/SELL and ±0.5 for STRONG_BUY/STRONG_SELL, per the current spec
// defaults — tunable, never hardcoded downstream.
type Thresholds struct {
	StrongBuy  float64
	Buy        float64
	Sell       float64
	StrongSell float64
}

// DefaultThresholds returns the spec's current default cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{StrongBuy: 0.5, Buy: 0.1, Sell: -0.1, StrongSell: -0.5}
}

// AgentVerdict is one agent's contribution to a signal request.
type AgentVerdict struct {
	AgentName string            `json:"agent_name"`
	Signal    SignalLevel       `json:"signal"`
	RawScore  float64           `json:"raw_score"`
	// Confidence is in [0,1].
	Confidence float64           `json:"confidence"`
	Reasoning  string            `json:"reasoning"`
	DataUsed   map[string]string `json:"data_used"`
	Failed     bool              `json:"failed"`
}

// Validate enforces the AgentVerdict invariants from spec §8: raw_score and
// confidence ranges, and failed => HOLD with confidence 0.
func (a AgentVerdict) Validate() error {
	if a.RawScore < -1 || a.RawScore > 1 {
		return errkind.Fatalf("AgentVerdict.Validate", errRange{"raw_score", a.RawScore})
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		return errkind.Fatalf("AgentVerdict.Validate", errRange{"confidence", a.Confidence})
	}
	if a.Failed && (a.Signal != Hold || a.Confidence != 0) {
		return errkind.Fatalf("AgentVerdict.Validate", errRange{"failed verdict", 0})
	}
	if a.Reasoning == "" {
		return errkind.Fatalf("AgentVerdict.Validate", errRange{"reasoning", 0})
	}
	return nil
}

type errRange struct {
	field string
	value float64
}

func (e errRange) Error() string { return e.field + " out of range or invalid" }

// Verdict is the persisted consensus output.
type Verdict struct {
	ID          string        `json:"id"`
	Ticker      ticker.Ticker `json:"ticker"`
	CreatedAt   time.Time     `json:"created_at"`
	SignalType  SignalType    `json:"signal_type"`
	Confidence  float64       `json:"confidence"`
	EntryPrice  float64       `json:"entry_price"`
	StopLoss    *float64      `json:"stop_loss,omitempty"`
	TargetPrice *float64      `json:"target_price,omitempty"`
	// PositionSize is an integer share count, >= 0; 0 iff SignalType == HOLD.
	PositionSize   int            `json:"position_size"`
	Status         VerdictStatus  `json:"status"`
	AgentVerdicts  []AgentVerdict `json:"agent_verdicts"`
	ClosedPnL      *float64       `json:"closed_pnl,omitempty"`
	Notes          string         `json:"notes,omitempty"`
	Warnings       []string       `json:"warnings,omitempty"`
}

// Transition validates and applies a status transition, returning an
// InvalidState error for any non-monotonic or repeated move.
func (v *Verdict) Transition(to VerdictStatus, pnl *float64, notes string) error {
	if !CanTransition(v.Status, to) {
		return errkind.InvalidStatef("Verdict.Transition", "illegal transition %s -> %s", v.Status, to)
	}
	v.Status = to
	if notes != "" {
		v.Notes = notes
	}
	if to == Closed && pnl != nil {
		v.ClosedPnL = pnl
	}
	return nil
}
