// Package consensus implements the Consensus Engine: it turns a panel's
// []AgentVerdict into a single persisted Verdict with a blended score,
// agreement ratio, risk parameters, and a position size.
package consensus

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/signalforge/equityedge/internal/ticker"
	"github.com/signalforge/equityedge/internal/verdict"
)

// splitTolerance is the weighted-mass tie-breaking tolerance (spec §4.3).
const splitTolerance = 1e-6

// RiskConfig configures stop-loss/target-price distances and position sizing.
type RiskConfig struct {
	StopLossPct      float64 // S, default 0.10
	TargetPct        float64 // T1, default 0.25
	Capital          float64 // default 50,000
	MaxPositionPct   float64 // default 0.10
	SignalThresholds verdict.Thresholds
}

// DefaultRiskConfig returns the spec's current default values.
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		StopLossPct:      0.10,
		TargetPct:        0.25,
		Capital:          50_000,
		MaxPositionPct:   0.10,
		SignalThresholds: verdict.DefaultThresholds(),
	}
}

// Engine computes Verdicts from AgentVerdict panels. Engine holds only
// immutable configuration; Consense is a pure function of its arguments, so
// one Engine is safely shared across concurrent requests (spec §5: the core
// is a stateless per-request pipeline).
type Engine struct {
	cfg RiskConfig
}

// NewEngine builds a consensus Engine with the given tunable risk config.
func NewEngine(cfg RiskConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Consense combines agentVerdicts for t at entryPrice into one Verdict.
// weights maps agent name to its weight (App passes the configured panel
// weights); an agent absent from weights defaults to 1.0.
// A non-positive entryPrice forces signal_type HOLD with zero position size
// (the division guard spec.md's open question names explicitly), regardless
// of what the agents concluded.
func (e *Engine) Consense(t ticker.Ticker, entryPrice float64, agentVerdicts []verdict.AgentVerdict, weights map[string]float64) verdict.Verdict {
	v := verdict.Verdict{
		ID:            uuid.NewString(),
		Ticker:        t,
		CreatedAt:     time.Now().UTC(),
		EntryPrice:    entryPrice,
		Status:        verdict.Pending,
		AgentVerdicts: agentVerdicts,
	}

	active := nonFailed(agentVerdicts)
	if len(active) == 0 {
		v.SignalType = verdict.SignalHold
		v.Confidence = 0
		log.Warn().Str("ticker", string(t)).Msg("all agents failed; consensus forced to HOLD")
		return v
	}

	blended, agreement := blend(active, weights)
	v.Confidence = clamp(0.5*math.Abs(blended)+0.5*agreement, 0, 1)

	switch {
	case isSplit(active, weights):
		v.SignalType = verdict.SignalHold
		v.Confidence = agreement
	case blended >= e.cfg.SignalThresholds.Buy:
		v.SignalType = verdict.SignalBuy
	case blended <= e.cfg.SignalThresholds.Sell:
		v.SignalType = verdict.SignalSell
	default:
		v.SignalType = verdict.SignalHold
	}
	if entryPrice <= 0 {
		v.SignalType = verdict.SignalHold
	}

	if v.SignalType != verdict.SignalHold && entryPrice > 0 {
		e.applyRisk(&v, entryPrice)
	}
	v.PositionSize = e.positionSize(v, entryPrice)

	return v
}

func nonFailed(vs []verdict.AgentVerdict) []verdict.AgentVerdict {
	out := make([]verdict.AgentVerdict, 0, len(vs))
	for _, v := range vs {
		if !v.Failed {
			out = append(out, v)
		}
	}
	return out
}

func weightFor(weights map[string]float64, agentName string) float64 {
	if w, ok := weights[agentName]; ok && w != 0 {
		return w
	}
	return 1.0
}

// blend computes blended_score and agreement_ratio per spec §4.3:
// contribution = weight * confidence * raw_score, blended_score = sum of
// contributions / sum of (weight * confidence); agreement_ratio is the
// majority-direction agent share among {positive, negative, zero}.
func blend(vs []verdict.AgentVerdict, weights map[string]float64) (blended, agreement float64) {
	var numerator, denominator float64
	var positive, negative, zero int

	for _, v := range vs {
		w := weightFor(weights, v.AgentName)
		numerator += w * v.Confidence * v.RawScore
		denominator += w * v.Confidence

		switch {
		case v.RawScore > 0:
			positive++
		case v.RawScore < 0:
			negative++
		default:
			zero++
		}
	}

	if denominator > 0 {
		blended = numerator / denominator
	}

	majority := positive
	if negative > majority {
		majority = negative
	}
	if zero > majority {
		majority = zero
	}
	agreement = float64(majority) / float64(len(vs))

	return blended, agreement
}

// isSplit reports a true tie between positive and negative weighted mass
// within the spec's 1e-6 tolerance.
func isSplit(vs []verdict.AgentVerdict, weights map[string]float64) bool {
	var pos, neg float64
	for _, v := range vs {
		mass := weightFor(weights, v.AgentName) * v.Confidence
		if v.RawScore > 0 {
			pos += mass
		} else if v.RawScore < 0 {
			neg += mass
		}
	}
	return pos > 0 && neg > 0 && math.Abs(pos-neg) < splitTolerance
}

func (e *Engine) applyRisk(v *verdict.Verdict, entryPrice float64) {
	var stopLoss, target float64
	if v.SignalType == verdict.SignalBuy {
		stopLoss = entryPrice * (1 - e.cfg.StopLossPct)
		target = entryPrice * (1 + e.cfg.TargetPct)
	} else {
		stopLoss = entryPrice * (1 + e.cfg.StopLossPct)
		target = entryPrice * (1 - e.cfg.TargetPct)
	}
	v.StopLoss = &stopLoss
	v.TargetPrice = &target
}

func (e *Engine) positionSize(v verdict.Verdict, entryPrice float64) int {
	if v.SignalType == verdict.SignalHold || entryPrice <= 0 {
		return 0
	}
	maxPositionValue := e.cfg.Capital * e.cfg.MaxPositionPct
	scaledValue := maxPositionValue * v.Confidence
	return int(math.Floor(scaledValue / entryPrice))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
