package agents

import (
	"context"
	"fmt"

	"github.com/signalforge/equityedge/internal/indicators"
	"github.com/signalforge/equityedge/internal/market"
	"github.com/signalforge/equityedge/internal/sentiment"
	"github.com/signalforge/equityedge/internal/ticker"
	"github.com/signalforge/equityedge/internal/verdict"
)

// Predictor is the deterministic, rule-based baseline agent (spec §4.2
// agent 4): a weighted score from RSI (mean-reversion), short-horizon
// momentum, and sentiment, mapped through the shared score-to-level
// thresholds. It always succeeds given non-empty inputs, serving as the
// always-available member of the panel even when every LLM vendor is down.
//
// Component weights (rsi 0.4 / momentum 0.3 / sentiment 0.3) and the
// momentum scale factor are this implementation's resolution of an
// otherwise unspecified weighting — recorded in the project's design notes.
type Predictor struct {
	BaseAgent
	indicators  *indicators.Service
	thresholds  verdict.Thresholds
	rsiWeight   float64
	momWeight   float64
	sentWeight  float64
	momentumDay int
}

// NewPredictor builds the Predictor agent with the given score-mapping
// thresholds (shared with the Consensus Engine).
func NewPredictor(ind *indicators.Service, thresholds verdict.Thresholds) *Predictor {
	return &Predictor{
		BaseAgent:   NewBase("predictor"),
		indicators:  ind,
		thresholds:  thresholds,
		rsiWeight:   0.4,
		momWeight:   0.3,
		sentWeight:  0.3,
		momentumDay: momentumWindowDays,
	}
}

// Analyze implements Agent.
func (p *Predictor) Analyze(ctx context.Context, t ticker.Ticker, mkt market.Snapshot, sent sentiment.Snapshot) verdict.AgentVerdict {
	rsi := mkt.RSI() // already defaults to 50 and clamps per Snapshot.RSI

	momentum := 0.0
	if closes := oldestFirstCloses(mkt.Historical); len(closes) >= 2 {
		if m, err := p.indicators.CalculateMomentum(closes, p.momentumDay); err == nil {
			momentum = m
		}
	}

	sentimentScore := clamp(sent.CombinedSentiment, -1, 1)
	if !sent.Available {
		sentimentScore = 0
	}

	rsiTerm := clamp((50-rsi)/50, -1, 1)
	momTerm := clamp(momentum*5, -1, 1)

	rawScore := clamp(p.rsiWeight*rsiTerm+p.momWeight*momTerm+p.sentWeight*sentimentScore, -1, 1)
	confidence := clamp(0.2+0.8*absFloat(rawScore), 0, 1)

	return verdict.AgentVerdict{
		AgentName:  p.Name(),
		Signal:     verdict.ScoreToLevel(rawScore, p.thresholds),
		RawScore:   rawScore,
		Confidence: confidence,
		Reasoning: fmt.Sprintf(
			"weighted score %s from rsi=%s momentum=%s sentiment=%s",
			fmtFloat(rawScore), fmtFloat(rsi), fmtFloat(momentum), fmtFloat(sentimentScore),
		),
		DataUsed: map[string]string{
			"rsi":       fmtFloat(rsi),
			"momentum":  fmtFloat(momentum),
			"sentiment": fmtFloat(sentimentScore),
		},
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
