// Package market implements the market-data half of the Data Aggregator:
// the provider chain (Primary -> Secondary -> Tertiary), per-operation
// caching, and the MarketSnapshot it produces.
package market

import (
	"time"

	"github.com/signalforge/equityedge/internal/ticker"
)

// VolumeTrend tags the direction of recent trading volume.
type VolumeTrend string

const (
	VolumeIncreasing VolumeTrend = "increasing"
	VolumeDecreasing VolumeTrend = "decreasing"
	VolumeNeutral    VolumeTrend = "neutral"
	VolumeUnknown    VolumeTrend = "unknown"
)

// DailyBar is one OHLCV bar.
type DailyBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Snapshot is the Aggregator's market-data output for one ticker. Its
// invariant: if CurrentPrice is non-nil, at least one provider responded or
// a non-expired cache hit was returned.
type Snapshot struct {
	Ticker ticker.Ticker `json:"ticker"`
	AsOf   time.Time     `json:"as_of"`

	// CurrentPrice is nil when every provider failed and no cache entry
	// (fresh or stale) was available.
	CurrentPrice *float64 `json:"current_price,omitempty"`

	// Historical is newest-first, length 0-100.
	Historical []DailyBar `json:"historical"`

	// Indicators maps indicator name (e.g. "rsi") to value. Missing when
	// no provider/cache supplied it.
	Indicators map[string]float64 `json:"indicators"`

	VolumeTrend VolumeTrend `json:"volume_trend"`

	// SourceUsed names the provider that delivered CurrentPrice (on a cache
	// fallback, the provider whose cached quote was used), prefixed "stale_"
	// when that quote came from stale cache; empty when CurrentPrice is nil.
	SourceUsed string `json:"source_used"`

	// Warnings records which fields came back absent or stale, surfaced to
	// the caller as Degraded metadata rather than failing the request.
	Warnings []string `json:"warnings,omitempty"`
}

// RSI returns the snapshot's RSI indicator, defaulted to the neutral value
// 50 when absent, per the Agent Panel's edge-case policy (spec §4.2).
func (s Snapshot) RSI() float64 {
	if v, ok := s.Indicators["rsi"]; ok {
		return clamp(v, 0, 100)
	}
	return 50
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
