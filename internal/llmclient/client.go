package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/signalforge/equityedge/internal/breaker"
	"github.com/signalforge/equityedge/internal/errkind"
	"github.com/signalforge/equityedge/internal/ratelimit"
	"github.com/signalforge/equityedge/internal/retry"
)

// Config configures a single model-backed Client.
type Config struct {
	Endpoint    string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Client talks to one chat-completions endpoint/model, with rate limiting,
// an independent circuit breaker keyed by model name, and jittered retry —
// all three-stage per spec: a failure in one model's breaker never touches
// another model's.
type Client struct {
	cfg        Config
	httpClient *http.Client
	breakers   *breaker.Manager
	limiter    *ratelimit.Registry
	retryCfg   retry.Config
}

// New builds a Client sharing the panel-wide breaker manager and rate-limit
// registry, so each model gets its own breaker/bucket keyed by model name.
func New(cfg Config, breakers *breaker.Manager, limiter *ratelimit.Registry) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:8080/v1/chat/completions"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2000
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breakers:   breakers,
		limiter:    limiter,
		retryCfg:   retry.Default(),
	}
}

// Model returns the configured model name, used as the breaker/limiter key.
func (c *Client) Model() string { return c.cfg.Model }

// Complete sends a chat completion request, rate-limited, breaker-guarded,
// and retried with jittered backoff on Transient failures only.
func (c *Client) Complete(ctx context.Context, messages []ChatMessage) (*ChatResponse, error) {
	op := "llmclient." + c.cfg.Model

	if err := c.limiter.Wait(ctx, op, c.cfg.Model); err != nil {
		return nil, err
	}

	var resp *ChatResponse
	err := retry.Do(ctx, c.retryCfg, op, func(ctx context.Context) error {
		result, err := c.breakers.Execute(c.cfg.Model, func() (any, error) {
			return c.doComplete(ctx, messages)
		})
		if err != nil {
			return err
		}
		resp = result.(*ChatResponse)
		return nil
	})
	return resp, err
}

// CompleteWithSystem is a convenience wrapper for a system+user prompt pair,
// returning the first choice's raw text content.
func (c *Client) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.Complete(ctx, []ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errkind.BadInputf("llmclient."+c.cfg.Model, "no choices in LLM response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) doComplete(ctx context.Context, messages []ChatMessage) (*ChatResponse, error) {
	op := "llmclient." + c.cfg.Model

	body, err := json.Marshal(ChatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return nil, errkind.Fatalf(op, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errkind.Fatalf(op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errkind.Transientf(op, err)
	}
	defer resp.Body.Close()
	duration := time.Since(start)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errkind.Transientf(op, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		msg := string(respBody)
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			msg = errResp.Error.Message
		}
		return nil, classifyHTTPStatus(op, resp.StatusCode, msg)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, errkind.BadInputf(op, "parse response: %v", err)
	}

	log.Debug().Str("model", c.cfg.Model).Int("prompt_tokens", chatResp.Usage.PromptTokens).
		Int("completion_tokens", chatResp.Usage.CompletionTokens).Dur("duration", duration).
		Msg("llm completion succeeded")

	return &chatResp, nil
}

func classifyHTTPStatus(op string, status int, msg string) error {
	switch {
	case status == http.StatusTooManyRequests, status >= 500:
		return errkind.Transientf(op, fmt.Errorf("http %d: %s", status, msg))
	default:
		return errkind.BadInputf(op, "http %d: %s", status, msg)
	}
}
