package agents

import (
	"context"
	"fmt"

	"github.com/signalforge/equityedge/internal/indicators"
	"github.com/signalforge/equityedge/internal/llmclient"
	"github.com/signalforge/equityedge/internal/market"
	"github.com/signalforge/equityedge/internal/sentiment"
	"github.com/signalforge/equityedge/internal/ticker"
	"github.com/signalforge/equityedge/internal/verdict"
)

const growthSystemPrompt = `You are a momentum/growth equity analyst. Strong positive momentum with ` +
	`positive sentiment favors BUY; negative momentum favors avoidance; an overbought reading without ` +
	`sentiment confirmation should be skipped (favor HOLD). Respond with strict JSON only: ` +
	`{"recommendation": "BUY"|"SELL"|"HOLD", "confidence": 1-5, "reasoning": "..."}`

const momentumWindowDays = 30

// Growth is the LLM-backed agent that reasons over 30-day momentum,
// sentiment, and volume trend (spec §4.2 agent 2).
type Growth struct {
	BaseAgent
	client     *llmclient.Client
	indicators *indicators.Service
}

// NewGrowth builds the Growth agent against its configured model client.
func NewGrowth(client *llmclient.Client, ind *indicators.Service) *Growth {
	return &Growth{BaseAgent: NewBase("growth"), client: client, indicators: ind}
}

// Analyze implements Agent.
func (g *Growth) Analyze(ctx context.Context, t ticker.Ticker, mkt market.Snapshot, sent sentiment.Snapshot) verdict.AgentVerdict {
	momentum := 0.0
	if closes := oldestFirstCloses(mkt.Historical); len(closes) >= 2 {
		if m, err := g.indicators.CalculateMomentum(closes, momentumWindowDays); err == nil {
			momentum = m
		}
	}

	sentimentScore := clamp(sent.CombinedSentiment, -1, 1)
	if !sent.Available {
		sentimentScore = 0
	}

	prompt := fmt.Sprintf(
		"Ticker: %s\n30-day momentum: %s\nAggregate sentiment: %s\nVolume trend: %s",
		t, fmtFloat(momentum), fmtFloat(sentimentScore), mkt.VolumeTrend,
	)

	v, err := callLLM(ctx, g.client, g.Name(), growthSystemPrompt, prompt)
	if err != nil {
		return failedHold(g.Name(), err.Error())
	}
	return v
}

// oldestFirstCloses reverses market.Snapshot's newest-first bars into the
// oldest-first order indicator functions expect.
func oldestFirstCloses(bars []market.DailyBar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[len(bars)-1-i] = b.Close
	}
	return closes
}
