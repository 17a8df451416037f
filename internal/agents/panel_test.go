package agents

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalforge/equityedge/internal/market"
	"github.com/signalforge/equityedge/internal/sentiment"
	"github.com/signalforge/equityedge/internal/ticker"
	"github.com/signalforge/equityedge/internal/verdict"
)

type stubAgent struct {
	BaseAgent
	verdict verdict.AgentVerdict
	delay   time.Duration
	panics  bool
}

func (s *stubAgent) Analyze(ctx context.Context, t ticker.Ticker, mkt market.Snapshot, sent sentiment.Snapshot) verdict.AgentVerdict {
	if s.panics {
		panic("boom")
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
		}
	}
	return s.verdict
}

func newStub(name string, v verdict.AgentVerdict) *stubAgent {
	return &stubAgent{BaseAgent: NewBase(name), verdict: v}
}

func TestPanelPreservesRegistrationOrder(t *testing.T) {
	a1 := newStub("first", verdict.AgentVerdict{AgentName: "first", Signal: verdict.Buy, Reasoning: "x"})
	a2 := newStub("second", verdict.AgentVerdict{AgentName: "second", Signal: verdict.Sell, Reasoning: "y"})
	a2.delay = 20 * time.Millisecond // finishes after a1, but must still be position 1

	panel := NewPanel(time.Second, a1, a2)
	results := panel.Analyze(context.Background(), ticker.Ticker("NVDA"), market.Snapshot{}, sentiment.Snapshot{})

	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].AgentName)
	assert.Equal(t, "second", results[1].AgentName)
}

func TestPanelRecoversPanic(t *testing.T) {
	a1 := newStub("safe", verdict.AgentVerdict{AgentName: "safe", Signal: verdict.Hold, Reasoning: "ok"})
	a1.panics = true

	panel := NewPanel(time.Second, a1)
	results := panel.Analyze(context.Background(), ticker.Ticker("NVDA"), market.Snapshot{}, sentiment.Snapshot{})

	require.Len(t, results, 1)
	assert.True(t, results[0].Failed)
	assert.Contains(t, results[0].Reasoning, "Analysis failed: panic")
}

func TestPanelDeadlineProducesFailedHold(t *testing.T) {
	slow := newStub("slow", verdict.AgentVerdict{AgentName: "slow", Signal: verdict.Buy, Reasoning: "late"})
	slow.delay = 100 * time.Millisecond

	panel := NewPanel(10*time.Millisecond, slow)
	results := panel.Analyze(context.Background(), ticker.Ticker("NVDA"), market.Snapshot{}, sentiment.Snapshot{})

	require.Len(t, results, 1)
	assert.True(t, results[0].Failed)
	assert.Equal(t, verdict.Hold, results[0].Signal)
}

func TestPanelSetWeightsOnlyAffectsNamedAgents(t *testing.T) {
	a1 := newStub("alpha", verdict.AgentVerdict{})
	a2 := newStub("beta", verdict.AgentVerdict{})
	panel := NewPanel(time.Second, a1, a2)

	panel.SetWeights(map[string]float64{"alpha": 2.5, "unknown": 9})

	assert.Equal(t, 2.5, a1.Weight())
	assert.Equal(t, 1.0, a2.Weight())
}
