// Package agents implements the four-member analyst panel: three LLM-backed
// agents (Contrarian, Growth, MultiModal) and one deterministic rule-based
// agent (Predictor). Agents never share mutable state and may be invoked
// concurrently; each satisfies the same three-method contract so the panel
// can hold them as plain interface values with no runtime type registry.
package agents

import (
	"context"

	"github.com/signalforge/equityedge/internal/market"
	"github.com/signalforge/equityedge/internal/sentiment"
	"github.com/signalforge/equityedge/internal/ticker"
	"github.com/signalforge/equityedge/internal/verdict"
)

// Agent is the common contract every panel member satisfies.
type Agent interface {
	// Name is unique within a panel.
	Name() string
	// Weight is this agent's current contribution weight, default 1.0.
	// May change between requests via SetWeights on the owning Panel.
	Weight() float64
	// Analyze must never panic out of this boundary; internal errors are
	// caught by the panel wrapper and converted to a failed HOLD verdict.
	Analyze(ctx context.Context, t ticker.Ticker, mkt market.Snapshot, sent sentiment.Snapshot) verdict.AgentVerdict
}

// clamp restricts v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// failedHold builds the standard failed=true HOLD verdict an agent reports
// when it cannot complete analysis, per spec §4.2's common contract.
func failedHold(agentName, reason string) verdict.AgentVerdict {
	return verdict.AgentVerdict{
		AgentName:  agentName,
		Signal:     verdict.Hold,
		RawScore:   0,
		Confidence: 0,
		Reasoning:  "Analysis failed: " + reason,
		Failed:     true,
	}
}
