package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalforge/equityedge/internal/backtest"
	"github.com/signalforge/equityedge/internal/errkind"
	"github.com/signalforge/equityedge/internal/ticker"
	"github.com/signalforge/equityedge/internal/verdict"
)

func sampleVerdict(id string) verdict.Verdict {
	return verdict.Verdict{
		ID:         id,
		Ticker:     ticker.Ticker("NVDA"),
		CreatedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		SignalType: verdict.SignalBuy,
		Confidence: 0.8,
		EntryPrice: 100,
		Status:     verdict.Pending,
	}
}

func TestMemorySaveAndLoadRoundTrips(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	v := sampleVerdict("v1")

	require.NoError(t, m.SaveVerdict(ctx, v))
	got, err := m.LoadVerdict(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, v, got)
}

func TestMemoryLoadMissingIsBadInput(t *testing.T) {
	m := NewMemory()
	_, err := m.LoadVerdict(context.Background(), "missing")
	assert.True(t, errkind.Is(err, errkind.BadInput))
}

func TestMemoryListVerdictsFiltersAndOrders(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	v1 := sampleVerdict("v1")
	v2 := sampleVerdict("v2")
	v2.Ticker = "AMD"
	v2.CreatedAt = v1.CreatedAt.Add(time.Hour)

	require.NoError(t, m.SaveVerdict(ctx, v2))
	require.NoError(t, m.SaveVerdict(ctx, v1))

	nvda := ticker.Ticker("NVDA")
	out, err := m.ListVerdicts(ctx, ListFilter{Ticker: &nvda})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "v1", out[0].ID)

	all, err := m.ListVerdicts(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "v1", all[0].ID) // ordered by created_at ascending
	assert.Equal(t, "v2", all[1].ID)
}

func TestMemoryUpdateStatusAppliesLegalTransition(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.SaveVerdict(ctx, sampleVerdict("v1")))

	updated, err := m.UpdateStatus(ctx, "v1", verdict.Approved, nil, "looks good")
	require.NoError(t, err)
	assert.Equal(t, verdict.Approved, updated.Status)
	assert.Equal(t, "looks good", updated.Notes)
}

func TestMemoryUpdateStatusRejectsIllegalTransition(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.SaveVerdict(ctx, sampleVerdict("v1")))

	_, err := m.UpdateStatus(ctx, "v1", verdict.Closed, nil, "")
	assert.True(t, errkind.Is(err, errkind.InvalidState))
}

func TestMemoryBacktestRoundTrips(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	r := backtest.Report{ID: "r1", Mode: backtest.CoreFocus, StartingCapital: 50_000}

	require.NoError(t, m.SaveBacktest(ctx, r))
	got, err := m.LoadBacktest(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, r, got)

	all, err := m.ListBacktests(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

var _ Repository = (*Memory)(nil)
