package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalforge/equityedge/internal/errkind"
	"github.com/signalforge/equityedge/internal/market"
	"github.com/signalforge/equityedge/internal/ticker"
	"github.com/signalforge/equityedge/internal/verdict"
)

// fakePriceHistory serves canned daily bars per ticker, oldest-first,
// starting from an arbitrary anchor date and walking forward one calendar
// day per bar.
type fakePriceHistory struct {
	closes map[ticker.Ticker][]float64
	highs  map[ticker.Ticker][]float64
	lows   map[ticker.Ticker][]float64
}

func (f fakePriceHistory) Bars(_ context.Context, t ticker.Ticker, from, _ time.Time) ([]market.DailyBar, error) {
	closes, ok := f.closes[t]
	if !ok {
		return nil, errkind.BadInputf("fakePriceHistory", "no data for %s", t)
	}
	out := make([]market.DailyBar, len(closes))
	for i, c := range closes {
		bar := market.DailyBar{Date: from.AddDate(0, 0, i), Close: c, Open: c, High: c, Low: c}
		if f.highs != nil {
			bar.High = f.highs[t][i]
		}
		if f.lows != nil {
			bar.Low = f.lows[t][i]
		}
		out[i] = bar
	}
	return out, nil
}

func buyVerdict(id string, tkr ticker.Ticker, entry, stop, target, confidence float64, agents ...string) verdict.Verdict {
	avs := make([]verdict.AgentVerdict, 0, len(agents))
	for _, a := range agents {
		avs = append(avs, verdict.AgentVerdict{AgentName: a})
	}
	return verdict.Verdict{
		ID:            id,
		Ticker:        tkr,
		CreatedAt:     time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		SignalType:    verdict.SignalBuy,
		Confidence:    confidence,
		EntryPrice:    entry,
		StopLoss:      &stop,
		TargetPrice:   &target,
		AgentVerdicts: avs,
	}
}

func TestRunCoreFocusTakeProfitProducesWinningTrade(t *testing.T) {
	candidates := []verdict.Verdict{
		buyVerdict("v1", "NVDA", 100, 90, 125, 0.9, "predictor", "growth"),
	}
	prices := fakePriceHistory{
		closes: map[ticker.Ticker][]float64{"NVDA": {100, 108, 125}},
		highs:  map[ticker.Ticker][]float64{"NVDA": {101, 110, 130}},
		lows:  map[ticker.Ticker][]float64{"NVDA": {99, 105, 120}},
	}
	e := NewEngine(prices)

	report, err := e.Run(context.Background(), Request{
		Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		Mode:  CoreFocus, StartingCapital: 50_000, HoldPeriodDays: 30,
	}, candidates)

	require.NoError(t, err)
	require.Len(t, report.Trades, 1)
	trade := report.Trades[0]
	assert.Equal(t, TakeProfit, trade.ExitReason)
	assert.Equal(t, 0.60, trade.AllocationPct)
	assert.Greater(t, trade.PnL, 0.0)
	assert.Equal(t, 1.0, report.WinRate)
	require.Len(t, report.AgentAttribution, 2)
}

func TestRunStopLossWinsOnSameDayCollision(t *testing.T) {
	candidates := []verdict.Verdict{buyVerdict("v1", "NVDA", 100, 90, 125, 0.9)}
	prices := fakePriceHistory{
		closes: map[ticker.Ticker][]float64{"NVDA": {85}},
		highs:  map[ticker.Ticker][]float64{"NVDA": {130}}, // crosses target...
		lows:   map[ticker.Ticker][]float64{"NVDA": {80}},  // ...and stop, same day
	}
	e := NewEngine(prices)

	report, err := e.Run(context.Background(), Request{
		Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		Mode:  CoreFocus, StartingCapital: 50_000, HoldPeriodDays: 30,
	}, candidates)

	require.NoError(t, err)
	require.Len(t, report.Trades, 1)
	assert.Equal(t, StopLossHit, report.Trades[0].ExitReason)
	assert.Less(t, report.Trades[0].PnL, 0.0)
}

func TestRunHoldPeriodEndWhenNoExitTriggered(t *testing.T) {
	candidates := []verdict.Verdict{buyVerdict("v1", "NVDA", 100, 90, 125, 0.9)}
	prices := fakePriceHistory{
		closes: map[ticker.Ticker][]float64{"NVDA": {101, 102, 103}},
		highs:  map[ticker.Ticker][]float64{"NVDA": {102, 103, 104}},
		lows:   map[ticker.Ticker][]float64{"NVDA": {99, 100, 101}},
	}
	e := NewEngine(prices)

	report, err := e.Run(context.Background(), Request{
		Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		Mode:  CoreFocus, StartingCapital: 50_000, HoldPeriodDays: 3,
	}, candidates)

	require.NoError(t, err)
	require.Len(t, report.Trades, 1)
	assert.Equal(t, HoldPeriodEnd, report.Trades[0].ExitReason)
	assert.Equal(t, 103.0, report.Trades[0].ExitPrice)
}

func TestRunMissingHistoryDropsTradeWithWarning(t *testing.T) {
	candidates := []verdict.Verdict{buyVerdict("v1", "GHOST", 100, 90, 125, 0.9)}
	e := NewEngine(fakePriceHistory{})

	report, err := e.Run(context.Background(), Request{
		Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		Mode:  CoreFocus, StartingCapital: 50_000,
	}, candidates)

	require.NoError(t, err)
	assert.Empty(t, report.Trades)
	assert.NotEmpty(t, report.Warnings)
}

func TestRunEmptySelectionIsInvalidState(t *testing.T) {
	e := NewEngine(fakePriceHistory{})
	_, err := e.Run(context.Background(), Request{Mode: CoreFocus, StartingCapital: 50_000}, nil)
	assert.True(t, errkind.Is(err, errkind.InvalidState))
}

func TestRunUnknownModeIsBadInput(t *testing.T) {
	e := NewEngine(fakePriceHistory{})
	candidates := []verdict.Verdict{buyVerdict("v1", "NVDA", 100, 90, 125, 0.9)}
	_, err := e.Run(context.Background(), Request{Mode: "NOT_A_MODE", StartingCapital: 50_000}, candidates)
	assert.True(t, errkind.Is(err, errkind.BadInput))
}

func TestCompareModesReturnsThreeReportsOverSameSelection(t *testing.T) {
	candidates := []verdict.Verdict{
		buyVerdict("v1", "NVDA", 100, 90, 125, 0.9),
		buyVerdict("v2", "AMD", 50, 45, 62, 0.8),
	}
	prices := fakePriceHistory{
		closes: map[ticker.Ticker][]float64{"NVDA": {101, 102}, "AMD": {51, 52}},
		highs:  map[ticker.Ticker][]float64{"NVDA": {102, 103}, "AMD": {52, 53}},
		lows:   map[ticker.Ticker][]float64{"NVDA": {99, 100}, "AMD": {49, 50}},
	}
	e := NewEngine(prices)

	reports, err := e.CompareModes(context.Background(), Request{
		Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		StartingCapital: 50_000, HoldPeriodDays: 2,
	}, candidates)

	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, CoreFocus, reports[0].Mode)
	assert.Equal(t, Balanced, reports[1].Mode)
	assert.Equal(t, Diversified, reports[2].Mode)
}

func TestRankSortsDescendingByComposite(t *testing.T) {
	low := buyVerdict("low", "A", 100, 95, 110, 0.5)
	high := buyVerdict("high", "B", 100, 90, 140, 0.9)
	ranked := rank([]verdict.Verdict{low, high})
	assert.Equal(t, "high", ranked[0].v.ID)
	assert.Equal(t, "low", ranked[1].v.ID)
}

func TestSharpeRatioZeroStdDevReturnsZero(t *testing.T) {
	assert.Equal(t, 0.0, sharpeRatio([]float64{0.01, 0.01, 0.01}))
}

func TestMaxDrawdownTracksRunningPeak(t *testing.T) {
	trades := []Trade{{PnL: 1000}, {PnL: -2000}, {PnL: 500}}
	dd := maxDrawdown(trades, 10_000)
	assert.InDelta(t, 2000.0/11000.0, dd, 1e-9)
}
