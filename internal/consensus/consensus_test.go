package consensus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalforge/equityedge/internal/ticker"
	"github.com/signalforge/equityedge/internal/verdict"
)

func TestConsenseAllFailedProducesHoldWithZeroConfidence(t *testing.T) {
	e := NewEngine(DefaultRiskConfig())
	agents := []verdict.AgentVerdict{
		{AgentName: "a", Signal: verdict.Hold, Failed: true},
		{AgentName: "b", Signal: verdict.Hold, Failed: true},
	}

	v := e.Consense(ticker.Ticker("NVDA"), 100, agents, nil)

	assert.Equal(t, verdict.SignalHold, v.SignalType)
	assert.Equal(t, 0.0, v.Confidence)
	assert.Nil(t, v.StopLoss)
	assert.Equal(t, 0, v.PositionSize)
	assert.Len(t, v.AgentVerdicts, 2)
}

func TestConsenseUnanimousBuyProducesRiskParams(t *testing.T) {
	e := NewEngine(DefaultRiskConfig())
	agents := []verdict.AgentVerdict{
		{AgentName: "a", RawScore: 0.8, Confidence: 0.9},
		{AgentName: "b", RawScore: 0.6, Confidence: 0.8},
	}

	v := e.Consense(ticker.Ticker("NVDA"), 100, agents, nil)

	require.Equal(t, verdict.SignalBuy, v.SignalType)
	require.NotNil(t, v.StopLoss)
	require.NotNil(t, v.TargetPrice)
	assert.InDelta(t, 90.0, *v.StopLoss, 1e-9)
	assert.InDelta(t, 125.0, *v.TargetPrice, 1e-9)
	assert.Greater(t, v.PositionSize, 0)
}

func TestConsenseTrueSplitIsHold(t *testing.T) {
	e := NewEngine(DefaultRiskConfig())
	agents := []verdict.AgentVerdict{
		{AgentName: "a", RawScore: 1.0, Confidence: 0.5},
		{AgentName: "b", RawScore: -1.0, Confidence: 0.5},
	}

	v := e.Consense(ticker.Ticker("NVDA"), 100, agents, nil)

	assert.Equal(t, verdict.SignalHold, v.SignalType)
	assert.InDelta(t, 0.5, v.Confidence, 1e-9) // equals agreement_ratio on a tie
}

func TestConsenseNonPositiveEntryPriceForcesZeroPositionSize(t *testing.T) {
	e := NewEngine(DefaultRiskConfig())
	agents := []verdict.AgentVerdict{
		{AgentName: "a", RawScore: 0.9, Confidence: 0.9},
	}

	v := e.Consense(ticker.Ticker("NVDA"), 0, agents, nil)

	assert.Equal(t, 0, v.PositionSize)
	assert.Nil(t, v.StopLoss)
}

func TestConsenseIsDeterministic(t *testing.T) {
	e := NewEngine(DefaultRiskConfig())
	agents := []verdict.AgentVerdict{
		{AgentName: "a", RawScore: 0.3, Confidence: 0.7},
		{AgentName: "b", RawScore: -0.1, Confidence: 0.4},
	}
	weights := map[string]float64{"a": 1.5, "b": 1.0}

	v1 := e.Consense(ticker.Ticker("NVDA"), 50, agents, weights)
	v2 := e.Consense(ticker.Ticker("NVDA"), 50, agents, weights)

	assert.Equal(t, v1.SignalType, v2.SignalType)
	assert.Equal(t, v1.Confidence, v2.Confidence)
	assert.Equal(t, v1.PositionSize, v2.PositionSize)
}

func TestConsenseWeightsShiftBlendedScore(t *testing.T) {
	e := NewEngine(DefaultRiskConfig())
	agents := []verdict.AgentVerdict{
		{AgentName: "bullish", RawScore: 1.0, Confidence: 1.0},
		{AgentName: "bearish", RawScore: -1.0, Confidence: 1.0},
	}

	equal := e.Consense(ticker.Ticker("NVDA"), 100, agents, map[string]float64{"bullish": 1, "bearish": 1})
	skewed := e.Consense(ticker.Ticker("NVDA"), 100, agents, map[string]float64{"bullish": 3, "bearish": 1})

	assert.Equal(t, verdict.SignalHold, equal.SignalType)
	assert.Equal(t, verdict.SignalBuy, skewed.SignalType)
}
