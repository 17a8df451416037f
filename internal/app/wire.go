package app

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/signalforge/equityedge/internal/agents"
	"github.com/signalforge/equityedge/internal/backtest"
	"github.com/signalforge/equityedge/internal/breaker"
	"github.com/signalforge/equityedge/internal/cache"
	"github.com/signalforge/equityedge/internal/config"
	"github.com/signalforge/equityedge/internal/consensus"
	"github.com/signalforge/equityedge/internal/errkind"
	"github.com/signalforge/equityedge/internal/indicators"
	"github.com/signalforge/equityedge/internal/llmclient"
	"github.com/signalforge/equityedge/internal/market"
	"github.com/signalforge/equityedge/internal/persistence"
	"github.com/signalforge/equityedge/internal/ratelimit"
	"github.com/signalforge/equityedge/internal/sentiment"
	"github.com/signalforge/equityedge/internal/ticker"
)

// chainPriceHistory adapts a market.Chain's Historical call into the
// backtest package's PriceHistory contract, the production counterpart to
// the fake the package's own tests use. It fetches newest-first bars
// enough to cover [from,to] and leaves sorting/truncation to the simulator.
type chainPriceHistory struct {
	chain *market.Chain
}

func (c chainPriceHistory) Bars(ctx context.Context, t ticker.Ticker, from, to time.Time) ([]market.DailyBar, error) {
	days := int(to.Sub(from).Hours()/24) + 14 // pad for weekends/holidays
	if days < 1 {
		days = 1
	}
	bars, _, _, err := c.chain.Historical(ctx, t, days)
	if err != nil {
		return nil, err
	}
	out := make([]market.DailyBar, 0, len(bars))
	for _, b := range bars {
		if !b.Date.Before(from) && !b.Date.After(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

// Wire builds every collaborator from cfg and assembles the App, per
// SPEC_FULL.md §6.2's domain-stack wiring: real HTTP providers for market
// and sentiment data, an LLM-backed panel plus the deterministic Predictor,
// and the backtest engine over a Chain-backed price history. repo and
// notifier are constructed by the caller (cmd/signalctl, cmd/notifier) since
// their lifecycle (pool Close, bot shutdown) outlives a single Wire call.
func Wire(ctx context.Context, cfg *config.Config, repo persistence.Repository, notifier Notifier) (*App, error) {
	breakers := breaker.NewManager(breaker.Default())
	marketLimits := ratelimit.NewRegistry(5, 10)
	llmLimits := ratelimit.NewRegistry(1, 3)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.GetRedisAddr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	store := cache.New(redisClient)

	marketProviders := make([]market.Provider, 0, len(cfg.Market.Providers))
	for _, p := range cfg.Market.Providers {
		switch p.Name {
		case "polygon":
			marketProviders = append(marketProviders, market.NewPolygonProvider(p.BaseURL, p.APIKey))
		case "finnhub":
			marketProviders = append(marketProviders, market.NewFinnhubProvider(p.BaseURL, p.APIKey))
		case "alpha_vantage":
			marketProviders = append(marketProviders, market.NewAlphaVantageProvider(p.BaseURL, p.APIKey))
		}
	}
	if len(marketProviders) == 0 {
		return nil, errkind.BadInputf("app.Wire", "no market providers configured")
	}
	chain := market.NewChain(marketProviders, breakers, marketLimits, store)
	marketAgg := market.NewAggregator(chain)

	var newsProvider sentiment.NewsProvider
	var socialProvider sentiment.SocialProvider
	for _, p := range cfg.Sentiment.NewsProviders {
		newsProvider = sentiment.NewNewsAPIProvider(p.BaseURL, p.APIKey)
		break
	}
	for _, p := range cfg.Sentiment.SocialProviders {
		socialProvider = sentiment.NewRedditProvider(p.BaseURL, p.APIKey)
		break
	}
	sentAgg := sentiment.NewAggregator(newsProvider, socialProvider)

	thresholds := cfg.Panel.Thresholds.ToVerdict()
	ind := indicators.NewService()
	predictor := agents.NewPredictor(ind, thresholds)

	panelAgents := []agents.Agent{predictor}
	llmClient := llmclient.New(llmclient.Config{
		Endpoint:    cfg.LLM.Endpoint,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout(),
	}, breakers, llmLimits)
	panelAgents = append(panelAgents,
		agents.NewContrarian(llmClient),
		agents.NewGrowth(llmClient, ind),
		agents.NewMultiModal(llmClient),
	)
	panel := agents.NewPanel(cfg.Panel.Deadline(), panelAgents...)

	consensusEngine := consensus.NewEngine(cfg.Consensus.ToEngineConfig())
	btEngine := backtest.NewEngine(chainPriceHistory{chain: chain})

	return New(marketAgg, sentAgg, panel, consensusEngine, repo, btEngine, notifier, cfg.Panel.Weights), nil
}
