package backtest

import "math"

type RiskMode string

const (
	RiskPercentage RiskMode = "percentage"
	RiskFixedLot   RiskMode = "fixed_lot"
	RiskRuleBased  RiskMode = "rule_based"
)

// minLot is the smallest tradable size; every mode floors to it.
const minLot = 0.01

// RiskConfig controls initial balance and position sizing.
type RiskConfig struct {
	InitialBalance float64  `json:"initial_balance" yaml:"initial_balance"`
	Mode           RiskMode `json:"mode" yaml:"mode"`

	// percentage mode
	RiskPct float64 `json:"risk_pct" yaml:"risk_pct"`

	// fixed_lot mode
	FixedLot float64 `json:"fixed_lot" yaml:"fixed_lot"`

	// rule_based mode: RuleLot lots per full RuleAmount of balance
	RuleAmount float64 `json:"rule_amount" yaml:"rule_amount"`
	RuleLot    float64 `json:"rule_lot" yaml:"rule_lot"`
}

// LotSize computes the lot size for a new position from the current balance
// and the stop distance in pips.
func LotSize(risk RiskConfig, balance, slPips float64) float64 {
	switch risk.Mode {
	case RiskPercentage:
		slPips = math.Abs(slPips)
		if slPips == 0 {
			return minLot
		}
		lots := (balance * risk.RiskPct / 100) / (slPips * 10)
		lots = math.Round(lots*100) / 100
		if lots < minLot {
			return minLot
		}
		return lots
	case RiskFixedLot:
		if risk.FixedLot <= 0 {
			return minLot
		}
		return risk.FixedLot
	case RiskRuleBased:
		if risk.RuleAmount <= 0 || risk.RuleLot <= 0 {
			return minLot
		}
		lots := math.Floor(balance/risk.RuleAmount) * risk.RuleLot
		if lots < minLot {
			return minLot
		}
		return lots
	default:
		return minLot
	}
}
