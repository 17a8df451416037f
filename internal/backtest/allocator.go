package backtest

import "math"

// allocationSlot is one rank's allocation_pct under a given mode.
type allocationSlot struct {
	rank          int
	allocationPct float64
}

// allocate returns the allocation table for mode (spec §4.4 step 3), sized
// to the number of ranked verdicts actually available (fewer candidates
// than slots simply leaves the remaining slots unused, not an error).
func allocate(mode Mode, available int) []allocationSlot {
	var table []allocationSlot
	switch mode {
	case CoreFocus:
		table = []allocationSlot{{1, 0.60}, {2, 0.10}, {3, 0.10}, {4, 0.10}}
	case Balanced:
		table = []allocationSlot{{1, 0.40}, {2, 0.125}, {3, 0.125}, {4, 0.125}, {5, 0.125}}
	case Diversified:
		table = []allocationSlot{{1, 0.16}, {2, 0.16}, {3, 0.16}, {4, 0.16}, {5, 0.16}}
	default:
		return nil
	}
	if available >= len(table) {
		return table
	}
	return table[:available]
}

// positionSize computes position_value and shares for one allocation slot
// at entryPrice, per spec §4.4: position_value = capital * pct, shares =
// floor(position_value / entry_price).
func positionSize(capital, allocationPct, entryPrice float64) (positionValue float64, shares int) {
	positionValue = capital * allocationPct
	if entryPrice <= 0 {
		return positionValue, 0
	}
	return positionValue, int(math.Floor(positionValue / entryPrice))
}
