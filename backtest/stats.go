package backtest

import "math"

// profitFactorCap is reported when there are wins but no losses.
const profitFactorCap = 999

// aggregate fills the summary fields of res from its accumulated trade list.
// Trades swept as still-open at end of stream carry no realized P&L and are
// excluded from every ratio.
func aggregate(res *Results) {
	var (
		closed     int
		wins       int
		losses     int
		grossWin   float64
		grossLoss  float64
		largestWin float64
		largestMin float64
	)

	for _, t := range res.Trades {
		if t.ExitReason == ExitOpen {
			res.OpenTrades++
			continue
		}
		closed++
		res.TotalPips += t.Pips
		res.TotalProfit += t.Profit
		if t.Profit > 0 {
			wins++
			grossWin += t.Profit
			if t.Profit > largestWin {
				largestWin = t.Profit
			}
		} else if t.Profit < 0 {
			losses++
			grossLoss += -t.Profit
			if t.Profit < largestMin {
				largestMin = t.Profit
			}
		}
	}

	res.TotalTrades = closed
	res.WinningTrades = wins
	res.LosingTrades = losses
	if closed > 0 {
		res.WinRatePct = round2(float64(wins) / float64(closed) * 100)
	}
	switch {
	case grossLoss > 0:
		res.ProfitFactor = grossWin / grossLoss
	case grossWin > 0:
		res.ProfitFactor = profitFactorCap
	default:
		res.ProfitFactor = 0
	}
	if wins > 0 {
		res.AverageWin = grossWin / float64(wins)
	}
	if losses > 0 {
		res.AverageLoss = -grossLoss / float64(losses)
	}
	res.LargestWin = largestWin
	res.LargestLoss = largestMin
	res.MaxEquityDrawdownPct = round2(res.MaxEquityDrawdownPct)
	res.MaxBalanceDrawdownPct = round2(res.MaxBalanceDrawdownPct)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
