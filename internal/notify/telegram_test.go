package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/signalforge/equityedge/internal/errkind"
	"github.com/signalforge/equityedge/internal/ticker"
	"github.com/signalforge/equityedge/internal/verdict"
)

func TestNewRequiresBotToken(t *testing.T) {
	_, err := New(Config{})
	assert.True(t, errkind.Is(err, errkind.BadInput))
}

func TestNewWithLiveToken(t *testing.T) {
	t.Skip("requires a real Telegram bot token")
}

func TestFormatLineExecuted(t *testing.T) {
	v := verdict.Verdict{Ticker: ticker.Ticker("NVDA"), Status: verdict.Executed, SignalType: verdict.SignalBuy, EntryPrice: 120.5, PositionSize: 10}
	assert.Equal(t, "NVDA EXECUTED: BUY @ 120.50, size 10", formatLine(v))
}

func TestFormatLineClosedWithPnL(t *testing.T) {
	pnl := 42.0
	v := verdict.Verdict{Ticker: ticker.Ticker("NVDA"), Status: verdict.Closed, SignalType: verdict.SignalBuy, ClosedPnL: &pnl}
	assert.Equal(t, "NVDA CLOSED: BUY, pnl 42.00", formatLine(v))
}

func TestFormatLineClosedWithoutPnLShowsNA(t *testing.T) {
	v := verdict.Verdict{Ticker: ticker.Ticker("NVDA"), Status: verdict.Closed, SignalType: verdict.SignalSell}
	assert.Equal(t, "NVDA CLOSED: SELL, pnl n/a", formatLine(v))
}

func TestFormatLineOtherStatusIsSilent(t *testing.T) {
	v := verdict.Verdict{Status: verdict.Pending}
	assert.Equal(t, "", formatLine(v))
	v.Status = verdict.Approved
	assert.Equal(t, "", formatLine(v))
}
