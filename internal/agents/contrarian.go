package agents

import (
	"context"
	"fmt"

	"github.com/signalforge/equityedge/internal/llmclient"
	"github.com/signalforge/equityedge/internal/market"
	"github.com/signalforge/equityedge/internal/sentiment"
	"github.com/signalforge/equityedge/internal/ticker"
	"github.com/signalforge/equityedge/internal/verdict"
)

const contrarianSystemPrompt = `You are a contrarian equity analyst. You favor BUY when sentiment is ` +
	`negative and the stock is oversold (RSI < 30); you favor SELL when sentiment is positive and ` +
	`the stock is overbought (RSI > 70). Respond with strict JSON only: ` +
	`{"recommendation": "BUY"|"SELL"|"HOLD", "confidence": 1-5, "reasoning": "..."}`

// Contrarian is the LLM-backed agent applying the contrarian rule: negative
// sentiment + oversold favors BUY, positive sentiment + overbought favors
// SELL (spec §4.2 agent 1).
type Contrarian struct {
	BaseAgent
	client *llmclient.Client
}

// NewContrarian builds the Contrarian agent against its configured model client.
func NewContrarian(client *llmclient.Client) *Contrarian {
	return &Contrarian{BaseAgent: NewBase("contrarian"), client: client}
}

// Analyze implements Agent.
func (c *Contrarian) Analyze(ctx context.Context, t ticker.Ticker, mkt market.Snapshot, sent sentiment.Snapshot) verdict.AgentVerdict {
	price := 0.0
	if mkt.CurrentPrice != nil {
		price = *mkt.CurrentPrice
	}
	rsi := mkt.RSI()
	sentimentScore := clamp(sent.CombinedSentiment, -1, 1)
	if !sent.Available {
		sentimentScore = 0
	}

	prompt := fmt.Sprintf(
		"Ticker: %s\nCurrent price: %s\nRSI: %s\nAggregate sentiment: %s\nMention count: %d",
		t, fmtFloat(price), fmtFloat(rsi), fmtFloat(sentimentScore), sent.Reddit.Count+sent.News.Count,
	)

	v, err := callLLM(ctx, c.client, c.Name(), contrarianSystemPrompt, prompt)
	if err != nil {
		return failedHold(c.Name(), err.Error())
	}
	return v
}
