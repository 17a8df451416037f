package agents

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalforge/equityedge/internal/indicators"
	"github.com/signalforge/equityedge/internal/market"
	"github.com/signalforge/equityedge/internal/sentiment"
	"github.com/signalforge/equityedge/internal/ticker"
	"github.com/signalforge/equityedge/internal/verdict"
)

func bars(closes []float64) []market.DailyBar {
	// market.Snapshot.Historical is newest-first.
	out := make([]market.DailyBar, len(closes))
	now := time.Now()
	for i, c := range closes {
		out[len(closes)-1-i] = market.DailyBar{Date: now.AddDate(0, 0, -(len(closes) - 1 - i)), Close: c}
	}
	return out
}

func TestPredictorOversoldNegativeSentimentProducesBuy(t *testing.T) {
	p := NewPredictor(indicators.NewService(), verdict.DefaultThresholds())
	price := 100.0
	mkt := market.Snapshot{
		CurrentPrice: &price,
		Indicators:   map[string]float64{"rsi": 20},
		Historical:   bars([]float64{90, 95, 100, 105, 110}),
	}
	sent := sentiment.Snapshot{Available: true, CombinedSentiment: -0.5}

	v := p.Analyze(context.Background(), ticker.Ticker("NVDA"), mkt, sent)

	assert.False(t, v.Failed)
	assert.Equal(t, verdict.Buy, v.Signal)
	assert.GreaterOrEqual(t, v.RawScore, -1.0)
	assert.LessOrEqual(t, v.RawScore, 1.0)
	assert.NotEmpty(t, v.Reasoning)
}

func TestPredictorIsDeterministic(t *testing.T) {
	p := NewPredictor(indicators.NewService(), verdict.DefaultThresholds())
	price := 50.0
	mkt := market.Snapshot{CurrentPrice: &price, Indicators: map[string]float64{"rsi": 65}, Historical: bars([]float64{48, 49, 50, 51, 52})}
	sent := sentiment.Snapshot{Available: true, CombinedSentiment: 0.3}

	v1 := p.Analyze(context.Background(), ticker.Ticker("NVDA"), mkt, sent)
	v2 := p.Analyze(context.Background(), ticker.Ticker("NVDA"), mkt, sent)

	require.Equal(t, v1, v2)
}

func TestPredictorMissingInputsFallBackToNeutral(t *testing.T) {
	p := NewPredictor(indicators.NewService(), verdict.DefaultThresholds())
	mkt := market.Snapshot{} // no price, no RSI, no historical
	sent := sentiment.Snapshot{}

	v := p.Analyze(context.Background(), ticker.Ticker("NVDA"), mkt, sent)

	assert.False(t, v.Failed)
	assert.Equal(t, verdict.Hold, v.Signal)
	assert.Equal(t, 0.0, v.RawScore)
}
