package backtest

import "math"

// tradingDaysPerYear is the annualization factor the teacher's metrics.go
// uses for volatility/Sharpe (math.Sqrt(252)).
const tradingDaysPerYear = 252

// dailyReturn is one day's fractional portfolio return, used for Sharpe.
type dailyReturn struct {
	value float64
}

// aggregate computes total_pnl, total_return_pct, win_rate, sharpe, and
// max_drawdown_pct from the completed trades, per spec §4.4 step 5. sharpe
// treats the trade-return series as the daily-return series (one "day" per
// realized trade), matching the spec's `mean/stddev * sqrt(252)` formula
// without requiring a synthetic equity curve the spec doesn't otherwise ask
// for.
func aggregate(trades []Trade, startingCapital float64) (totalPnL, totalReturnPct, winRate, sharpe, maxDrawdownPct float64) {
	if len(trades) == 0 {
		return 0, 0, 0, 0, 0
	}

	var wins int
	returns := make([]float64, 0, len(trades))
	for _, t := range trades {
		totalPnL += t.PnL
		if t.PnL > 0 {
			wins++
		}
		returns = append(returns, t.ReturnPct)
	}
	totalReturnPct = totalPnL / startingCapital
	winRate = float64(wins) / float64(len(trades))
	sharpe = sharpeRatio(returns)
	maxDrawdownPct = maxDrawdown(trades, startingCapital)
	return
}

// sharpeRatio implements spec §4.4's `mean(daily_returns) / stddev(daily_returns)
// * sqrt(252)`, returning 0 when stddev is 0 (flat or single-trade series).
func sharpeRatio(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var sumSq float64
	for _, r := range returns {
		d := r - mean
		sumSq += d * d
	}
	stddev := math.Sqrt(sumSq / float64(len(returns)))
	if stddev == 0 {
		return 0
	}
	return (mean / stddev) * math.Sqrt(tradingDaysPerYear)
}

// maxDrawdown replays the trade sequence (in report order, i.e. allocation/
// rank order) as a running equity curve and returns the largest peak-to-
// trough fractional decline, per spec §4.4's `(peak - value) / peak`.
func maxDrawdown(trades []Trade, startingCapital float64) float64 {
	equity := startingCapital
	peak := startingCapital
	var worst float64
	for _, t := range trades {
		equity += t.PnL
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			dd := (peak - equity) / peak
			if dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

// attributeByAgent computes per-agent win_rate and average_pnl across the
// trades whose source Verdict carried a non-failed verdict from that agent,
// per spec §4.4 step 5.
func attributeByAgent(trades []Trade) []AgentAttribution {
	type acc struct {
		trades int
		wins   int
		pnl    float64
	}
	byAgent := map[string]*acc{}
	order := make([]string, 0)

	for _, t := range trades {
		for _, agent := range t.ContributingAgents {
			a, ok := byAgent[agent]
			if !ok {
				a = &acc{}
				byAgent[agent] = a
				order = append(order, agent)
			}
			a.trades++
			a.pnl += t.PnL
			if t.PnL > 0 {
				a.wins++
			}
		}
	}

	out := make([]AgentAttribution, 0, len(order))
	for _, name := range order {
		a := byAgent[name]
		out = append(out, AgentAttribution{
			AgentName:  name,
			Trades:     a.trades,
			WinRate:    float64(a.wins) / float64(a.trades),
			AveragePnL: a.pnl / float64(a.trades),
		})
	}
	return out
}
