package backtest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/signalforge/equityedge/internal/market"
	"github.com/signalforge/equityedge/internal/ticker"
)

// PriceHistory is the simulator's only external dependency: daily OHLC bars
// for a ticker over a date range, in any order (simulate sorts them oldest
// first). Satisfied in production by internal/app's chainPriceHistory, an
// adapter over the market provider chain; a fake in-memory implementation
// backs the package's tests.
type PriceHistory interface {
	Bars(ctx context.Context, t ticker.Ticker, from, to time.Time) ([]market.DailyBar, error)
}

const defaultHoldPeriodDays = 30

// simulate replays one allocated trade day by day from entryDate, per spec
// §4.4 step 4. The first matching exit condition wins; when a single day's
// bar would trigger both TAKE_PROFIT and STOP_LOSS, STOP_LOSS wins (the
// conservative assumption the spec names explicitly). Returns an error
// (never a panic) when no price history is available for the ticker —
// callers drop the trade and record a warning per the failure semantics in
// spec §4.4.
func simulate(ctx context.Context, prices PriceHistory, t Trade, targetPrice, stopLoss float64, holdPeriodDays int) (Trade, error) {
	if holdPeriodDays <= 0 {
		holdPeriodDays = defaultHoldPeriodDays
	}

	horizon := t.EntryDate.AddDate(0, 0, holdPeriodDays+7) // pad for weekends/holidays
	bars, err := prices.Bars(ctx, t.Ticker, t.EntryDate, horizon)
	if err != nil {
		return Trade{}, fmt.Errorf("backtest: fetch history for %s: %w", t.Ticker, err)
	}
	if len(bars) == 0 {
		return Trade{}, fmt.Errorf("backtest: no price history for %s from %s", t.Ticker, t.EntryDate.Format("2006-01-02"))
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	if len(bars) > holdPeriodDays {
		bars = bars[:holdPeriodDays]
	}

	for _, bar := range bars {
		hitStop := bar.Low <= stopLoss
		hitTarget := bar.High >= targetPrice
		switch {
		case hitStop:
			t.ExitDate = bar.Date
			t.ExitPrice = stopLoss
			t.ExitReason = StopLossHit
			return finish(t), nil
		case hitTarget:
			t.ExitDate = bar.Date
			t.ExitPrice = targetPrice
			t.ExitReason = TakeProfit
			return finish(t), nil
		}
	}

	last := bars[len(bars)-1]
	t.ExitDate = last.Date
	t.ExitPrice = last.Close
	t.ExitReason = HoldPeriodEnd
	return finish(t), nil
}

func finish(t Trade) Trade {
	t.PnL = float64(t.Shares) * (t.ExitPrice - t.EntryPrice)
	if t.EntryPrice > 0 {
		t.ReturnPct = (t.ExitPrice - t.EntryPrice) / t.EntryPrice
	}
	return t
}
