package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalforge/equityedge/internal/errkind"
)

func TestLoadAppliesDefaultsWithNoConfigFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "equityedge", cfg.App.Name)
	assert.Equal(t, 30000, cfg.Panel.DeadlineMS)
	assert.Equal(t, 0.10, cfg.Consensus.StopLossPct)
	assert.Equal(t, 30, cfg.Backtest.DefaultHoldPeriodDays)
}

func TestValidateRejectsInvalidStopLossPct(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Consensus.StopLossPct = 1.5

	err = cfg.Validate()
	assert.True(t, errkind.Is(err, errkind.BadInput))
}

func TestValidateRejectsBuyThresholdBelowSell(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Consensus.Thresholds.Buy = -0.2
	cfg.Consensus.Thresholds.Sell = -0.1

	assert.Error(t, cfg.Validate())
}

func TestConsensusConfigConvertsToEngineConfig(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	rc := cfg.Consensus.ToEngineConfig()
	assert.Equal(t, cfg.Consensus.StopLossPct, rc.StopLossPct)
	assert.Equal(t, cfg.Consensus.Thresholds.Buy, rc.SignalThresholds.Buy)
}

func TestLLMConfigTimeoutConvertsMillisecondsToDuration(t *testing.T) {
	cfg := LLMConfig{TimeoutMS: 15000}
	assert.Equal(t, 15000, int(cfg.Timeout().Milliseconds()))
}
