package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalforge/equityedge/internal/agents"
	"github.com/signalforge/equityedge/internal/backtest"
	"github.com/signalforge/equityedge/internal/breaker"
	"github.com/signalforge/equityedge/internal/cache"
	"github.com/signalforge/equityedge/internal/consensus"
	"github.com/signalforge/equityedge/internal/errkind"
	"github.com/signalforge/equityedge/internal/market"
	"github.com/signalforge/equityedge/internal/persistence"
	"github.com/signalforge/equityedge/internal/ratelimit"
	"github.com/signalforge/equityedge/internal/sentiment"
	"github.com/signalforge/equityedge/internal/ticker"
	"github.com/signalforge/equityedge/internal/verdict"
)

// fakeMarketProvider is a single-vendor Provider stub: always returns the
// same price and a flat 30-bar history, never touching the network.
type fakeMarketProvider struct {
	name  string
	price float64
	fail  bool
}

func (p *fakeMarketProvider) Name() string { return p.name }

func (p *fakeMarketProvider) Quote(ctx context.Context, t ticker.Ticker) (float64, error) {
	if p.fail {
		return 0, errkind.Transientf(p.name, assertErr("provider down"))
	}
	return p.price, nil
}

func (p *fakeMarketProvider) Historical(ctx context.Context, t ticker.Ticker, days int) ([]market.DailyBar, error) {
	if p.fail {
		return nil, errkind.Transientf(p.name, assertErr("provider down"))
	}
	bars := make([]market.DailyBar, 0, days)
	now := time.Now().UTC()
	for i := 0; i < days; i++ {
		d := now.AddDate(0, 0, -i)
		bars = append(bars, market.DailyBar{Date: d, Open: p.price, High: p.price + 1, Low: p.price - 1, Close: p.price, Volume: 1000})
	}
	return bars, nil
}

func (p *fakeMarketProvider) Indicators(ctx context.Context, t ticker.Ticker) (map[string]float64, error) {
	if p.fail {
		return nil, errkind.Transientf(p.name, assertErr("provider down"))
	}
	return map[string]float64{"rsi": 25}, nil
}

type simpleErr string

func (e simpleErr) Error() string { return string(e) }

func assertErr(msg string) error { return simpleErr(msg) }

type fakeNewsProvider struct{ score float64 }

func (p fakeNewsProvider) News(ctx context.Context, t ticker.Ticker) (sentiment.SourceReading, error) {
	return sentiment.SourceReading{Count: 10, Score: p.score, Available: true}, nil
}

type fakeSocialProvider struct{ score float64 }

func (p fakeSocialProvider) Social(ctx context.Context, t ticker.Ticker) (sentiment.SourceReading, error) {
	return sentiment.SourceReading{Count: 20, Score: p.score, Available: true}, nil
}

// fakeAgent is a minimal agents.Agent: fixed signal, no LLM, no panic.
type fakeAgent struct {
	agents.BaseAgent
	av verdict.AgentVerdict
}

func newFakeAgent(name string, av verdict.AgentVerdict) *fakeAgent {
	a := &fakeAgent{BaseAgent: agents.NewBase(name)}
	av.AgentName = name
	a.av = av
	return a
}

func (a *fakeAgent) Analyze(ctx context.Context, t ticker.Ticker, mkt market.Snapshot, sent sentiment.Snapshot) verdict.AgentVerdict {
	return a.av
}

func newTestChain(t *testing.T, price float64) *market.Chain {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := cache.New(client)
	breakers := breaker.NewManager(breaker.Default())
	limits := ratelimit.NewRegistry(100, 100)
	provider := &fakeMarketProvider{name: "fake", price: price}
	return market.NewChain([]market.Provider{provider}, breakers, limits, store)
}

func newTestApp(t *testing.T, price float64) (*App, *persistence.Memory) {
	t.Helper()
	chain := newTestChain(t, price)
	marketAgg := market.NewAggregator(chain)
	sentAgg := sentiment.NewAggregator(fakeNewsProvider{score: 0.2}, fakeSocialProvider{score: 0.3})

	oversold := newFakeAgent("contrarian", verdict.AgentVerdict{
		Signal: verdict.StrongBuy, RawScore: 0.6, Confidence: 0.8, Reasoning: "oversold bounce expected",
		DataUsed: map[string]string{"rsi": "25"},
	})
	growth := newFakeAgent("growth", verdict.AgentVerdict{
		Signal: verdict.Buy, RawScore: 0.4, Confidence: 0.7, Reasoning: "momentum positive",
		DataUsed: map[string]string{"momentum": "0.05"},
	})
	panel := agents.NewPanel(time.Second, oversold, growth)

	consensusEngine := consensus.NewEngine(consensus.DefaultRiskConfig())
	repo := persistence.NewMemory()
	btEngine := backtest.NewEngine(fakeBacktestPrices{price: price})

	weights := map[string]float64{"contrarian": 1.0, "growth": 1.0}
	return New(marketAgg, sentAgg, panel, consensusEngine, repo, btEngine, nil, weights), repo
}

type fakeBacktestPrices struct{ price float64 }

func (f fakeBacktestPrices) Bars(ctx context.Context, t ticker.Ticker, from, to time.Time) ([]market.DailyBar, error) {
	var bars []market.DailyBar
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		bars = append(bars, market.DailyBar{Date: d, Open: f.price, High: f.price * 1.3, Low: f.price * 0.95, Close: f.price})
	}
	return bars, nil
}

func TestGenerateSignalPersistsAndReturnsVerdict(t *testing.T) {
	a, repo := newTestApp(t, 100)

	v, err := a.GenerateSignal(context.Background(), "NVDA")
	require.NoError(t, err)
	assert.Equal(t, ticker.Ticker("NVDA"), v.Ticker)
	assert.NotEmpty(t, v.ID)

	loaded, err := repo.LoadVerdict(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.ID, loaded.ID)
}

func TestGenerateSignalRejectsInvalidTicker(t *testing.T) {
	a, _ := newTestApp(t, 100)
	_, err := a.GenerateSignal(context.Background(), "")
	assert.True(t, errkind.Is(err, errkind.BadInput))
}

func TestGenerateBatchSkipsInvalidTickerButKeepsOthers(t *testing.T) {
	a, _ := newTestApp(t, 100)
	results, err := a.GenerateBatch(context.Background(), []ticker.Ticker{"NVDA", "", "AAPL"})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestListSignalsPaginates(t *testing.T) {
	a, _ := newTestApp(t, 100)
	ctx := context.Background()
	for _, tk := range []ticker.Ticker{"AAA", "BBB", "CCC"} {
		_, err := a.GenerateSignal(ctx, tk)
		require.NoError(t, err)
	}

	page, err := a.ListSignals(ctx, persistence.ListFilter{}, 1, 1)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestUpdateSignalStatusAppliesTransition(t *testing.T) {
	a, _ := newTestApp(t, 100)
	ctx := context.Background()

	v, err := a.GenerateSignal(ctx, "NVDA")
	require.NoError(t, err)

	updated, err := a.UpdateSignalStatus(ctx, v.ID, verdict.Approved, nil, "looks good")
	require.NoError(t, err)
	assert.Equal(t, verdict.Approved, updated.Status)
}

func TestRunBacktestOverGeneratedSignals(t *testing.T) {
	a, _ := newTestApp(t, 100)
	ctx := context.Background()

	start := time.Now().UTC().Add(-time.Hour)
	_, err := a.GenerateSignal(ctx, "NVDA")
	require.NoError(t, err)
	end := time.Now().UTC().Add(time.Hour)

	report, err := a.RunBacktest(ctx, backtest.Request{
		Start: start, End: end, Mode: backtest.CoreFocus, StartingCapital: 50000, HoldPeriodDays: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, backtest.CoreFocus, report.Mode)
}

func TestCompareBacktestModesReturnsThreeReports(t *testing.T) {
	a, _ := newTestApp(t, 100)
	ctx := context.Background()

	start := time.Now().UTC().Add(-time.Hour)
	_, err := a.GenerateSignal(ctx, "NVDA")
	require.NoError(t, err)
	end := time.Now().UTC().Add(time.Hour)

	reports, err := a.CompareBacktestModes(ctx, backtest.Request{
		Start: start, End: end, StartingCapital: 50000, HoldPeriodDays: 10,
	})
	require.NoError(t, err)
	assert.Len(t, reports, 3)
}
