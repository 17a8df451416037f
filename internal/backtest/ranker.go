package backtest

import (
	"sort"

	"github.com/signalforge/equityedge/internal/verdict"
)

// rankedVerdict pairs a selected BUY Verdict with its composite score.
type rankedVerdict struct {
	v          verdict.Verdict
	composite  float64
}

// rank scores and sorts selected BUY verdicts descending by
// composite = confidence * expected_return * (1 / risk_factor), per spec
// §4.4 step 2. Verdicts missing stop_loss/target_price (should not occur
// for BUY signals, but defends against a malformed record) sort last with
// composite 0 rather than panicking on a nil dereference.
func rank(verdicts []verdict.Verdict) []rankedVerdict {
	out := make([]rankedVerdict, 0, len(verdicts))
	for _, v := range verdicts {
		composite := 0.0
		if v.TargetPrice != nil && v.StopLoss != nil && v.EntryPrice > 0 {
			expectedReturn := (*v.TargetPrice - v.EntryPrice) / v.EntryPrice
			riskFactor := (v.EntryPrice - *v.StopLoss) / v.EntryPrice
			if riskFactor != 0 {
				composite = v.Confidence * expectedReturn * (1 / riskFactor)
			}
		}
		out = append(out, rankedVerdict{v: v, composite: composite})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].composite > out[j].composite
	})
	return out
}
