package backtest

import (
	"math"
	"testing"
)

func TestLotSizePercentage(t *testing.T) {
	risk := RiskConfig{Mode: RiskPercentage, RiskPct: 1}

	// 1% of 10000 over 50 pips at $10/pip
	if got := LotSize(risk, 10_000, 50); math.Abs(got-0.2) > 1e-9 {
		t.Fatalf("lot = %v, want 0.2", got)
	}
	// sign of the stop distance must not matter
	if got := LotSize(risk, 10_000, -50); math.Abs(got-0.2) > 1e-9 {
		t.Fatalf("lot = %v, want 0.2", got)
	}
	// tiny balance floors at the minimum
	if got := LotSize(risk, 10, 200); got != 0.01 {
		t.Fatalf("lot = %v, want floor 0.01", got)
	}
	// zero stop distance cannot divide
	if got := LotSize(risk, 10_000, 0); got != 0.01 {
		t.Fatalf("lot = %v, want floor 0.01", got)
	}
}

func TestLotSizeFixed(t *testing.T) {
	if got := LotSize(RiskConfig{Mode: RiskFixedLot, FixedLot: 0.5}, 10_000, 50); got != 0.5 {
		t.Fatalf("lot = %v, want 0.5", got)
	}
	if got := LotSize(RiskConfig{Mode: RiskFixedLot}, 10_000, 50); got != 0.01 {
		t.Fatalf("unset fixed lot = %v, want 0.01", got)
	}
}

func TestLotSizeRuleBased(t *testing.T) {
	risk := RiskConfig{Mode: RiskRuleBased, RuleAmount: 1000, RuleLot: 0.02}

	// lot size steps with each full RuleAmount of balance
	if got := LotSize(risk, 5_500, 50); math.Abs(got-0.10) > 1e-9 {
		t.Fatalf("lot = %v, want 0.10", got)
	}
	if got := LotSize(risk, 999, 50); got != 0.01 {
		t.Fatalf("lot = %v, want floor 0.01", got)
	}
}

func TestLotSizeUnknownMode(t *testing.T) {
	if got := LotSize(RiskConfig{Mode: "martingale"}, 10_000, 50); got != 0.01 {
		t.Fatalf("lot = %v, want 0.01", got)
	}
}

// The floor holds across modes and balances.
func TestLotSizeNeverBelowFloor(t *testing.T) {
	modes := []RiskMode{RiskPercentage, RiskFixedLot, RiskRuleBased, "bogus"}
	balances := []float64{0, 1, 99, 10_000, 1_000_000}
	for _, m := range modes {
		for _, b := range balances {
			got := LotSize(RiskConfig{Mode: m, RiskPct: 0.5, RuleAmount: 500, RuleLot: 0.01}, b, 75)
			if got < 0.01 {
				t.Fatalf("mode %s balance %v: lot %v below floor", m, b, got)
			}
		}
	}
}
