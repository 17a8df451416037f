package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/signalforge/equityedge/internal/errkind"
	"github.com/signalforge/equityedge/internal/ticker"
)

var httpClient = &http.Client{Timeout: 10 * time.Second}

// NewsAPIProvider adapts a news-sentiment REST endpoint.
type NewsAPIProvider struct {
	baseURL string
	apiKey  string
}

// NewNewsAPIProvider builds the news sentiment source.
func NewNewsAPIProvider(baseURL, apiKey string) *NewsAPIProvider {
	return &NewsAPIProvider{baseURL: baseURL, apiKey: apiKey}
}

func (p *NewsAPIProvider) News(ctx context.Context, t ticker.Ticker) (SourceReading, error) {
	var body struct {
		ArticleCount uint64  `json:"article_count"`
		Score        float64 `json:"sentiment_score"`
	}
	url := fmt.Sprintf("%s/sentiment?symbol=%s&apikey=%s", p.baseURL, t, p.apiKey)
	if err := getJSON(ctx, url, &body); err != nil {
		return SourceReading{}, err
	}
	return SourceReading{Count: body.ArticleCount, Score: clamp(body.Score), Available: true}, nil
}

// RedditProvider adapts a social-sentiment REST endpoint (Reddit mentions/score).
type RedditProvider struct {
	baseURL string
	apiKey  string
}

// NewRedditProvider builds the social sentiment source.
func NewRedditProvider(baseURL, apiKey string) *RedditProvider {
	return &RedditProvider{baseURL: baseURL, apiKey: apiKey}
}

func (p *RedditProvider) Social(ctx context.Context, t ticker.Ticker) (SourceReading, error) {
	var body struct {
		Mentions uint64  `json:"mentions"`
		Score    float64 `json:"score"`
	}
	url := fmt.Sprintf("%s/reddit/sentiment?symbol=%s&apikey=%s", p.baseURL, t, p.apiKey)
	if err := getJSON(ctx, url, &body); err != nil {
		return SourceReading{}, err
	}
	return SourceReading{Count: body.Mentions, Score: clamp(body.Score), Available: true}, nil
}

func clamp(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

func getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errkind.Fatalf("sentiment.getJSON", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return errkind.Transientf("sentiment.getJSON", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return errkind.Transientf("sentiment.getJSON", fmt.Errorf("http %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return errkind.New(errkind.BadInput, "sentiment.getJSON", fmt.Errorf("http %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errkind.New(errkind.BadInput, "sentiment.getJSON", fmt.Errorf("malformed body: %w", err))
	}
	return nil
}
