package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/signalforge/equityedge/internal/llmclient"
	"github.com/signalforge/equityedge/internal/market"
	"github.com/signalforge/equityedge/internal/sentiment"
	"github.com/signalforge/equityedge/internal/ticker"
	"github.com/signalforge/equityedge/internal/verdict"
)

const multiModalSystemPrompt = `You are a multi-modal equity analyst synthesizing numeric indicators ` +
	`with a qualitative summary of recent news and social commentary. Respond with strict JSON only: ` +
	`{"recommendation": "BUY"|"SELL"|"HOLD", "confidence": 1-5, "reasoning": "..."}`

// MultiModal is the LLM-backed agent receiving the same numeric features as
// Contrarian plus a compact textual summary of recent news/social activity
// (spec §4.2 agent 3).
type MultiModal struct {
	BaseAgent
	client *llmclient.Client
}

// NewMultiModal builds the MultiModal agent against its configured model client.
func NewMultiModal(client *llmclient.Client) *MultiModal {
	return &MultiModal{BaseAgent: NewBase("multimodal"), client: client}
}

// Analyze implements Agent.
func (m *MultiModal) Analyze(ctx context.Context, t ticker.Ticker, mkt market.Snapshot, sent sentiment.Snapshot) verdict.AgentVerdict {
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
		"Ticker: %s\nCurrent price: %s\nRSI: %s\nAggregate sentiment: %s\nVolume trend: %s\n\n%s",
		t, fmtFloat(price), fmtFloat(rsi), fmtFloat(sentimentScore), mkt.VolumeTrend, textSummary(sent),
	)

	v, err := callLLM(ctx, m.client, m.Name(), multiModalSystemPrompt, prompt)
	if err != nil {
		return failedHold(m.Name(), err.Error())
	}
	return v
}

// textSummary builds a compact textual digest of the sentiment snapshot's
// source activity, standing in for a news/social snippet feed.
func textSummary(sent sentiment.Snapshot) string {
	var b strings.Builder
	b.WriteString("Recent activity summary: ")
	if sent.News.Available {
		fmt.Fprintf(&b, "%d news articles (score %s); ", sent.News.Count, fmtFloat(sent.News.Score))
	} else {
		b.WriteString("no news coverage available; ")
	}
	if sent.Reddit.Available {
		fmt.Fprintf(&b, "%d social mentions (score %s).", sent.Reddit.Count, fmtFloat(sent.Reddit.Score))
	} else {
		b.WriteString("no social coverage available.")
	}
	return b.String()
}
