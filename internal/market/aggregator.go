package market

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/signalforge/equityedge/internal/ticker"
)

// HistoricalDays is the default depth requested from the provider chain,
// capped at the snapshot's 100-bar invariant.
const HistoricalDays = 100

// Aggregator produces one Snapshot per ticker by running the quote,
// historical, and indicators operations concurrently against a Chain.
type Aggregator struct {
	chain *Chain
}

// NewAggregator builds an Aggregator over the given provider chain.
func NewAggregator(chain *Chain) *Aggregator {
	return &Aggregator{chain: chain}
}

// Fetch builds a Snapshot for t. Each of the three operations fails
// independently into an absent field rather than aborting the whole
// snapshot, per spec §4.1's degraded-response semantics.
func (a *Aggregator) Fetch(ctx context.Context, t ticker.Ticker) Snapshot {
	snap := Snapshot{Ticker: t, AsOf: time.Now().UTC(), Indicators: map[string]float64{}}

	var quotePrice float64
	var quoteSource string
	var quoteStale bool
	var historical []DailyBar
	var indicators map[string]float64

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		price, source, stale, err := a.chain.Quote(gctx, t)
		if err != nil {
			snap.Warnings = append(snap.Warnings, "current_price unavailable: "+err.Error())
			return nil
		}
		quotePrice, quoteSource, quoteStale = price, source, stale
		return nil
	})

	g.Go(func() error {
		bars, _, _, err := a.chain.Historical(gctx, t, HistoricalDays)
		if err != nil {
			snap.Warnings = append(snap.Warnings, "historical unavailable: "+err.Error())
			return nil
		}
		if len(bars) > 100 {
			bars = bars[:100]
		}
		historical = bars
		return nil
	})

	g.Go(func() error {
		ind, _, _, err := a.chain.Indicators(gctx, t)
		if err != nil {
			snap.Warnings = append(snap.Warnings, "indicators unavailable: "+err.Error())
			return nil
		}
		indicators = ind
		return nil
	})

	_ = g.Wait() // sub-goroutines never return an error; failures become warnings

	if quoteSource != "" {
		p := quotePrice
		snap.CurrentPrice = &p
		snap.SourceUsed = quoteSource
		if quoteStale {
			snap.SourceUsed = "stale_" + quoteSource
			snap.Warnings = append(snap.Warnings, "current_price served from stale cache")
		}
	}
	snap.Historical = historical
	if indicators != nil {
		snap.Indicators = indicators
	}
	snap.VolumeTrend = volumeTrend(historical)

	return snap
}

// volumeTrend compares the most recent bar's volume against the trailing
// average of the prior bars (historical is newest-first).
func volumeTrend(bars []DailyBar) VolumeTrend {
	if len(bars) < 2 {
		return VolumeUnknown
	}
	recent := bars[0].Volume
	var sum float64
	n := len(bars) - 1
	if n > 10 {
		n = 10
	}
	for i := 1; i <= n; i++ {
		sum += bars[i].Volume
	}
	avg := sum / float64(n)
	if avg == 0 {
		return VolumeUnknown
	}
	switch {
	case recent > avg*1.1:
		return VolumeIncreasing
	case recent < avg*0.9:
		return VolumeDecreasing
	default:
		return VolumeNeutral
	}
}
