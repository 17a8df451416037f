package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalforge/equityedge/internal/verdict"
)

func TestSchemaToVerdictNormalizesConfidenceAndScore(t *testing.T) {
	v, err := schemaToVerdict("contrarian", llmVerdictSchema{Recommendation: "BUY", Confidence: 4, Reasoning: "oversold"})
	require.NoError(t, err)
	assert.Equal(t, 0.8, v.Confidence)
	assert.InDelta(t, 0.8, v.RawScore, 1e-9)
	assert.Equal(t, verdict.StrongBuy, v.Signal)
}

func TestSchemaToVerdictSellIsNegative(t *testing.T) {
	v, err := schemaToVerdict("contrarian", llmVerdictSchema{Recommendation: "SELL", Confidence: 2, Reasoning: "overbought"})
	require.NoError(t, err)
	assert.InDelta(t, -0.4, v.RawScore, 1e-9)
}

func TestSchemaToVerdictRejectsInvalidRecommendation(t *testing.T) {
	_, err := schemaToVerdict("contrarian", llmVerdictSchema{Recommendation: "MAYBE", Confidence: 3, Reasoning: "x"})
	assert.Error(t, err)
}

func TestSchemaToVerdictRejectsOutOfRangeConfidence(t *testing.T) {
	_, err := schemaToVerdict("contrarian", llmVerdictSchema{Recommendation: "HOLD", Confidence: 9, Reasoning: "x"})
	assert.Error(t, err)
}

func TestSchemaToVerdictRejectsMissingReasoning(t *testing.T) {
	_, err := schemaToVerdict("contrarian", llmVerdictSchema{Recommendation: "HOLD", Confidence: 3})
	assert.Error(t, err)
}
