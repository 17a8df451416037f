package agents

import (
	"context"
	"fmt"

	"github.com/signalforge/equityedge/internal/errkind"
	"github.com/signalforge/equityedge/internal/llmclient"
	"github.com/signalforge/equityedge/internal/verdict"
)

// llmVerdictSchema is the strict schema every LLM-backed agent's prompt asks
// for: recommendation in {BUY,SELL,HOLD}, confidence on a 1-5 scale,
// reasoning. Agent wrappers normalize this into an AgentVerdict.
type llmVerdictSchema struct {
	Recommendation string `json:"recommendation"`
	Confidence     int    `json:"confidence"`
	Reasoning      string `json:"reasoning"`
}

// callLLM sends systemPrompt+userPrompt through client, parses the strict
// recommendation/confidence/reasoning schema, and converts it into an
// AgentVerdict. Any transport, parse, or schema-validation failure is
// returned as an error for the caller to fold into a failed HOLD.
func callLLM(ctx context.Context, client *llmclient.Client, agentName, systemPrompt, userPrompt string) (verdict.AgentVerdict, error) {
	raw, err := client.CompleteWithSystem(ctx, systemPrompt, userPrompt)
	if err != nil {
		return verdict.AgentVerdict{}, err
	}

	var schema llmVerdictSchema
	if err := llmclient.ParseJSONResponse(raw, &schema); err != nil {
		return verdict.AgentVerdict{}, err
	}

	return schemaToVerdict(agentName, schema)
}

// schemaToVerdict normalizes the raw LLM schema into an AgentVerdict:
// confidence 1..5 is divided by 5 to land in [0,1]; raw_score is
// recommendation times confidence, +1 for BUY, -1 for SELL, 0 for HOLD.
func schemaToVerdict(agentName string, schema llmVerdictSchema) (verdict.AgentVerdict, error) {
	var direction float64
	switch schema.Recommendation {
	case "BUY":
		direction = 1
	case "SELL":
		direction = -1
	case "HOLD":
		direction = 0
	default:
		return verdict.AgentVerdict{}, errkind.BadInputf(agentName, "invalid recommendation %q", schema.Recommendation)
	}

	if schema.Confidence < 1 || schema.Confidence > 5 {
		return verdict.AgentVerdict{}, errkind.BadInputf(agentName, "confidence %d out of range 1..5", schema.Confidence)
	}
	if schema.Reasoning == "" {
		return verdict.AgentVerdict{}, errkind.BadInputf(agentName, "missing reasoning")
	}

	confidence := float64(schema.Confidence) / 5.0
	rawScore := direction * confidence

	return verdict.AgentVerdict{
		AgentName:  agentName,
		Signal:     verdict.ScoreToLevel(rawScore, verdict.DefaultThresholds()),
		RawScore:   rawScore,
		Confidence: confidence,
		Reasoning:  schema.Reasoning,
		DataUsed:   map[string]string{},
	}, nil
}

func fmtFloat(v float64) string { return fmt.Sprintf("%.4f", v) }
