package backtest

import "strings"

// PipValue returns the pip size for a symbol: 0.01 for JPY pairs, 0.1 for
// gold, 0.0001 for everything else.
func PipValue(symbol string) float64 {
	s := strings.ToUpper(symbol)
	switch {
	case strings.Contains(s, "JPY"):
		return 0.01
	case strings.Contains(s, "XAU"), strings.Contains(s, "GOLD"):
		return 0.1
	default:
		return 0.0001
	}
}

// Pips converts an entry/exit price move into signed pips for the given
// direction.
func Pips(entry, exit float64, dir Direction, symbol string) float64 {
	diff := exit - entry
	if dir == DirectionSell {
		diff = entry - exit
	}
	return diff / PipValue(symbol)
}

// Profit converts pips into dollars at the fixed $10 per pip per standard lot
// convention.
func Profit(pips, lots float64) float64 {
	return pips * 10 * lots
}
