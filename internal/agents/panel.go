package agents

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/signalforge/equityedge/internal/market"
	"github.com/signalforge/equityedge/internal/sentiment"
	"github.com/signalforge/equityedge/internal/ticker"
	"github.com/signalforge/equityedge/internal/verdict"
)

// DefaultDeadline is the panel-wide shared deadline for one analysis pass
// (spec §4.2, "shared deadline (default 30s)").
const DefaultDeadline = 30 * time.Second

// weightSetter is implemented by every concrete agent via embedding
// BaseAgent; it is unexported so only this package's Panel can hot-swap weights.
type weightSetter interface {
	setWeight(float64)
}

// Panel is a concrete, ordered set of agents built once at startup from
// configuration — there is no runtime type registry or subprocess
// indirection, per the capability-based re-architecture this module follows.
type Panel struct {
	agents   []Agent
	deadline time.Duration
}

// NewPanel builds a Panel over agents in registration order. That order is
// the order AgentVerdicts are returned in, independent of completion order.
func NewPanel(deadline time.Duration, agents ...Agent) *Panel {
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	return &Panel{agents: agents, deadline: deadline}
}

// SetWeights atomically updates weights for any named agent present in the
// panel, between requests, per spec §9's weight hot-swap hook. Unknown names
// are ignored.
func (p *Panel) SetWeights(weights map[string]float64) {
	for _, a := range p.agents {
		ws, ok := a.(weightSetter)
		if !ok {
			continue
		}
		if w, ok := weights[a.Name()]; ok {
			ws.setWeight(w)
		}
	}
}

// Analyze runs every agent concurrently with a shared deadline. An agent
// that panics, errors internally, or does not finish before the deadline
// contributes a failed=true HOLD instead of aborting the whole panel.
// Results are returned in panel registration order.
func (p *Panel) Analyze(ctx context.Context, t ticker.Ticker, mkt market.Snapshot, sent sentiment.Snapshot) []verdict.AgentVerdict {
	ctx, cancel := context.WithTimeout(ctx, p.deadline)
	defer cancel()

	results := make([]verdict.AgentVerdict, len(p.agents))
	g, gctx := errgroup.WithContext(ctx)

	for i, a := range p.agents {
		i, a := i, a
		g.Go(func() error {
			v := safeAnalyze(gctx, a, t, mkt, sent)
			if gctx.Err() != nil {
				v = failedHold(a.Name(), "panel deadline exceeded")
			}
			results[i] = v
			return nil
		})
	}
	_ = g.Wait() // agent goroutines never return an error; failures are encoded in the verdict
	return results
}

// safeAnalyze wraps a single agent's Analyze call so a panic never escapes
// the panel boundary, per spec §4.2's common contract.
func safeAnalyze(ctx context.Context, a Agent, t ticker.Ticker, mkt market.Snapshot, sent sentiment.Snapshot) (result verdict.AgentVerdict) {
	defer func() {
		if r := recover(); r != nil {
			result = failedHold(a.Name(), fmt.Sprintf("panic: %v", r))
		}
	}()
	return a.Analyze(ctx, t, mkt, sent)
}
