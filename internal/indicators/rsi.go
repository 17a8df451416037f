package indicators

import (
	"fmt"

	"github.com/cinar/indicator/v2/momentum"
)

// Signal tags an indicator reading as oversold/overbought/neutral.
type Signal string

const (
	SignalOversold   Signal = "oversold"
	SignalOverbought Signal = "overbought"
	SignalNeutral    Signal = "neutral"
)

// RSIResult is the outcome of an RSI calculation.
type RSIResult struct {
	Value  float64
	Signal Signal
}

// CalculateRSI computes the Relative Strength Index over closing prices
// (oldest-first) using the given look-back period (typically 14).
func (s *Service) CalculateRSI(closes []float64, period int) (*RSIResult, error) {
	if period < 1 || period > len(closes) {
		return nil, fmt.Errorf("invalid period: %d (must be between 1 and %d)", period, len(closes))
	}

	pricesChan := make(chan float64, len(closes))
	for _, p := range closes {
		pricesChan <- p
	}
	close(pricesChan)

	rsiIndicator := momentum.NewRsiWithPeriod[float64](period)
	rsiChan := rsiIndicator.Compute(pricesChan)

	var rsiValues []float64
	for val := range rsiChan {
		rsiValues = append(rsiValues, val)
	}
	if len(rsiValues) == 0 {
		return nil, fmt.Errorf("no RSI values calculated")
	}

	current := rsiValues[len(rsiValues)-1]
	sig := SignalNeutral
	switch {
	case current < 30:
		sig = SignalOversold
	case current > 70:
		sig = SignalOverbought
	}

	return &RSIResult{Value: current, Signal: sig}, nil
}
