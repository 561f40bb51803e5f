package backtest

type BreakevenMode string

const (
	BreakevenOff       BreakevenMode = "off"
	BreakevenAfterTPs  BreakevenMode = "after_tp"
	BreakevenAfterPips BreakevenMode = "after_pips"
)

// StrategyConfig controls how open positions are managed tick by tick.
type StrategyConfig struct {
	// ActiveTPs lists the 1-based take-profit levels in play. Empty means
	// every level the signal provides a price for.
	ActiveTPs []int `json:"active_tps" yaml:"active_tps"`

	// PartialClosePct of the original lot size is closed at each
	// intermediate level when PartialClose is on.
	PartialClose    bool    `json:"partial_close" yaml:"partial_close"`
	PartialClosePct float64 `json:"partial_close_pct" yaml:"partial_close_pct"`

	// CloseAllAtTP closes the full remaining size once this level (or a
	// later one) is hit. 0 disables the threshold.
	CloseAllAtTP int `json:"close_all_at_tp" yaml:"close_all_at_tp"`

	Trailing     bool    `json:"trailing" yaml:"trailing"`
	TrailingPips float64 `json:"trailing_pips" yaml:"trailing_pips"`

	Breakeven     BreakevenMode `json:"breakeven" yaml:"breakeven"`
	BreakevenTPs  int           `json:"breakeven_tps" yaml:"breakeven_tps"`
	BreakevenPips float64       `json:"breakeven_pips" yaml:"breakeven_pips"`
}

// ProgressFunc receives best-effort tick-count notifications. It must not
// influence the run outcome.
type ProgressFunc func(ticksProcessed int64)

// RunConfig is the full engine configuration for one run.
type RunConfig struct {
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Risk     RiskConfig     `json:"risk" yaml:"risk"`

	// ProgressEvery is the tick interval between Progress calls.
	ProgressEvery int64        `json:"-" yaml:"-"`
	Progress      ProgressFunc `json:"-" yaml:"-"`
}

const defaultProgressEvery = 100_000

func DefaultRunConfig() RunConfig {
	return RunConfig{
		Strategy: StrategyConfig{
			PartialClosePct: 50,
			Breakeven:       BreakevenOff,
		},
		Risk: RiskConfig{
			InitialBalance: 10_000,
			Mode:           RiskPercentage,
			RiskPct:        1,
		},
		ProgressEvery: defaultProgressEvery,
	}
}

func (c RunConfig) withDefaults() RunConfig {
	if c.Risk.InitialBalance <= 0 {
		c.Risk.InitialBalance = 10_000
	}
	if c.Strategy.PartialClosePct <= 0 {
		c.Strategy.PartialClosePct = 50
	}
	if c.Strategy.Breakeven == "" {
		c.Strategy.Breakeven = BreakevenOff
	}
	if c.ProgressEvery <= 0 {
		c.ProgressEvery = defaultProgressEvery
	}
	return c
}
