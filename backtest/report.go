package backtest

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

func WriteResultsJSON(w io.Writer, res *Results) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// WriteSummary writes a human-readable run summary. Monetary values are
// rendered at exactly two decimals; the underlying float64 results are
// untouched.
func WriteSummary(w io.Writer, res *Results) error {
	money := func(v float64) string {
		return decimal.NewFromFloat(v).Round(2).StringFixed(2)
	}

	status := "completed"
	if !res.Completed {
		status = "CANCELLED (partial)"
	}

	_, err := fmt.Fprintf(w, `Backtest %s
Balance:       %s -> %s
Trades:        %d closed (%d won / %d lost), %d left open
Win rate:      %.2f%%
Total pips:    %.1f
Total profit:  %s
Profit factor: %.2f
Drawdown:      %s (%.2f%%) equity, %s (%.2f%%) balance
Avg win/loss:  %s / %s
Max win/loss:  %s / %s
Ticks:         %d
`,
		status,
		money(res.InitialBalance), money(res.FinalBalance),
		res.TotalTrades, res.WinningTrades, res.LosingTrades, res.OpenTrades,
		res.WinRatePct,
		res.TotalPips,
		money(res.TotalProfit),
		res.ProfitFactor,
		money(res.MaxEquityDrawdown), res.MaxEquityDrawdownPct,
		money(res.MaxBalanceDrawdown), res.MaxBalanceDrawdownPct,
		money(res.AverageWin), money(res.AverageLoss),
		money(res.LargestWin), money(res.LargestLoss),
		res.TicksProcessed,
	)
	return err
}
