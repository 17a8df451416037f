package market

import (
	"context"
	"time"

	"github.com/signalforge/equityedge/internal/breaker"
	"github.com/signalforge/equityedge/internal/cache"
	"github.com/signalforge/equityedge/internal/errkind"
	"github.com/signalforge/equityedge/internal/ratelimit"
	"github.com/signalforge/equityedge/internal/retry"
	"github.com/signalforge/equityedge/internal/ticker"
)

// Provider is a single market-data vendor adapter. Implementations (Polygon,
// Finnhub, Alpha Vantage style HTTPS JSON clients) satisfy this to take part
// in the provider chain.
type Provider interface {
	// Name uniquely identifies the provider for breaker/cache/rate-limit keys.
	Name() string
	Quote(ctx context.Context, t ticker.Ticker) (float64, error)
	Historical(ctx context.Context, t ticker.Ticker, days int) ([]DailyBar, error)
	Indicators(ctx context.Context, t ticker.Ticker) (map[string]float64, error)
}

// TTLs for the three cached operations, per spec §4.1 defaults.
const (
	QuoteTTL      = 60 * time.Second
	HistoricalTTL = time.Hour
	IndicatorsTTL = 15 * time.Minute
)

// Chain tries a sequence of Providers in order for each operation, applying
// retry, circuit breaking, rate limiting, and write-through caching with
// stale fallback uniformly across all of them.
type Chain struct {
	providers []Provider
	breakers  *breaker.Manager
	limits    *ratelimit.Registry
	cache     *cache.Store
	retryCfg  retry.Config
}

// NewChain builds a provider chain in the given priority order.
func NewChain(providers []Provider, breakers *breaker.Manager, limits *ratelimit.Registry, store *cache.Store) *Chain {
	return &Chain{providers: providers, breakers: breakers, limits: limits, cache: store, retryCfg: retry.Default()}
}

func cacheKey(op string, t ticker.Ticker, source string) string {
	return "market:" + op + ":" + string(t) + ":" + source
}

// Quote returns the current price, the provider that supplied it (on a cache
// fallback, the provider whose cached quote was used), and whether the value
// is a stale cache hit.
func (c *Chain) Quote(ctx context.Context, t ticker.Ticker) (price float64, source string, stale bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for _, p := range c.providers {
		val, cacheErr := c.tryProvider(ctx, "quote", t, p, func(ctx context.Context) (any, error) {
			return p.Quote(ctx, t)
		})
		if cacheErr == nil {
			return val.(float64), p.Name(), false, nil
		}
	}

	// All providers failed: return the cached quote of the first provider, in
	// chain order, that has one, fresh or stale.
	for _, p := range c.providers {
		var v float64
		res := c.cache.Get(ctx, cacheKey("quote", t, p.Name()), QuoteTTL, &v)
		if res.Hit {
			return v, p.Name(), res.Stale, nil
		}
	}

	return 0, "", false, errkind.Unavailablef("market.Chain.Quote", "all providers exhausted for %s, no cache", t)
}

// Historical returns the historical bar series from the first provider to
// succeed, or a cached/stale-cached series on full failure.
func (c *Chain) Historical(ctx context.Context, t ticker.Ticker, days int) ([]DailyBar, string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for _, p := range c.providers {
		val, cacheErr := c.tryProvider(ctx, "historical", t, p, func(ctx context.Context) (any, error) {
			return p.Historical(ctx, t, days)
		})
		if cacheErr == nil {
			return val.([]DailyBar), p.Name(), false, nil
		}
	}

	for _, p := range c.providers {
		var bars []DailyBar
		res := c.cache.Get(ctx, cacheKey("historical", t, p.Name()), HistoricalTTL, &bars)
		if res.Hit {
			return bars, p.Name(), res.Stale, nil
		}
	}

	return nil, "", false, errkind.Unavailablef("market.Chain.Historical", "all providers exhausted for %s, no cache", t)
}

// Indicators returns technical indicators from the first provider to
// succeed, or a cached/stale-cached map on full failure.
func (c *Chain) Indicators(ctx context.Context, t ticker.Ticker) (map[string]float64, string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for _, p := range c.providers {
		val, cacheErr := c.tryProvider(ctx, "indicators", t, p, func(ctx context.Context) (any, error) {
			return p.Indicators(ctx, t)
		})
		if cacheErr == nil {
			return val.(map[string]float64), p.Name(), false, nil
		}
	}

	for _, p := range c.providers {
		var ind map[string]float64
		res := c.cache.Get(ctx, cacheKey("indicators", t, p.Name()), IndicatorsTTL, &ind)
		if res.Hit {
			return ind, p.Name(), res.Stale, nil
		}
	}

	return nil, "", false, errkind.Unavailablef("market.Chain.Indicators", "all providers exhausted for %s, no cache", t)
}

// tryProvider executes fetch against a single provider through its rate
// limiter, circuit breaker and retry policy, writing a successful result
// through to the cache.
func (c *Chain) tryProvider(ctx context.Context, op string, t ticker.Ticker, p Provider, fetch func(context.Context) (any, error)) (any, error) {
	key := p.Name()

	if err := c.limits.Allow(op+"."+key, key); err != nil {
		return nil, err
	}

	result, err := c.breakers.Execute(key, func() (any, error) {
		var out any
		retryErr := retry.Do(ctx, c.retryCfg, op+"."+key, func(ctx context.Context) error {
			v, err := fetch(ctx)
			if err != nil {
				return classify(err)
			}
			out = v
			return nil
		})
		return out, retryErr
	})
	if err != nil {
		return nil, err
	}

	ttl := ttlFor(op)
	c.cache.Set(cacheKey(op, t, key), ttl, result)
	return result, nil
}

func ttlFor(op string) time.Duration {
	switch op {
	case "quote":
		return QuoteTTL
	case "historical":
		return HistoricalTTL
	default:
		return IndicatorsTTL
	}
}

// classify upgrades a bare provider error into a Transient errkind.Error so
// it engages retry, unless the provider already classified it (e.g. a
// BadInput from a malformed ticker it rejected outright).
func classify(err error) error {
	if errkind.KindOf(err) != "" {
		return err
	}
	return errkind.Transientf("market.provider", err)
}
