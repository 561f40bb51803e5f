package backtest

import "time"

type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// Opposite returns the reversed trade direction.
func (d Direction) Opposite() Direction {
	if d == DirectionBuy {
		return DirectionSell
	}
	return DirectionBuy
}

func (d Direction) Valid() bool {
	return d == DirectionBuy || d == DirectionSell
}

type ExitReason string

const (
	ExitTP1        ExitReason = "tp1"
	ExitTP2        ExitReason = "tp2"
	ExitTP3        ExitReason = "tp3"
	ExitTP4        ExitReason = "tp4"
	ExitSL         ExitReason = "sl"
	ExitTrailingSL ExitReason = "trailing_sl"
	ExitOpen       ExitReason = "open"
)

// MaxTPLevels is the number of take-profit slots a signal can carry (TP1..TP4).
const MaxTPLevels = 4

// Tick is a single bid/ask quote. Ticks are borrowed by the engine for one
// iteration step and never retained.
type Tick struct {
	Time time.Time
	Bid  float64
	Ask  float64
}

// Signal is a parsed trade signal. Signals are produced by an external parser
// and consumed read-only. EntryPrice 0 means market entry at trigger time.
// TakeProfits is addressed by slot index (0 = TP1 .. 3 = TP4); a zero price
// means the slot is unset.
type Signal struct {
	ID          string    `json:"id" yaml:"id"`
	Symbol      string    `json:"symbol" yaml:"symbol"`
	Direction   Direction `json:"direction" yaml:"direction"`
	EntryPrice  float64   `json:"entry_price" yaml:"entry_price"`
	StopLoss    float64   `json:"stop_loss" yaml:"stop_loss"`
	TakeProfits []float64 `json:"take_profits" yaml:"take_profits"`
	Timestamp   string    `json:"timestamp" yaml:"timestamp"`
}

// TP returns the price for a 1-based level, or 0 when the slot is unset.
func (s Signal) TP(level int) float64 {
	if level < 1 || level > len(s.TakeProfits) {
		return 0
	}
	return s.TakeProfits[level-1]
}

// ClosedTrade is the immutable record emitted when a position fully closes
// (or is swept as still-open at end of stream).
type ClosedTrade struct {
	ID         string     `json:"id"`
	SignalID   string     `json:"signal_id"`
	Symbol     string     `json:"symbol"`
	Direction  Direction  `json:"direction"`
	EntryPrice float64    `json:"entry_price"`
	EntryTime  string     `json:"entry_time"`
	ExitPrice  float64    `json:"exit_price"`
	ExitTime   string     `json:"exit_time"`
	ExitReason ExitReason `json:"exit_reason"`
	LotSize    float64    `json:"lot_size"`
	Pips       float64    `json:"pips"`
	Profit     float64    `json:"profit"`
	Balance    float64    `json:"balance"`
	Equity     float64    `json:"equity"`
}

type EquityPoint struct {
	Time    string  `json:"time"`
	Equity  float64 `json:"equity"`
	Balance float64 `json:"balance"`
}

type RunStatus string

const (
	StatusCompleted RunStatus = "completed"
	StatusCancelled RunStatus = "cancelled"
)

// Results is the aggregate outcome of a run, computed once at the end from
// the accumulated trade list.
type Results struct {
	Status         RunStatus `json:"status"`
	Completed      bool      `json:"completed"`
	StartTime      string    `json:"start_time"`
	EndTime        string    `json:"end_time"`
	InitialBalance float64   `json:"initial_balance"`
	FinalBalance   float64   `json:"final_balance"`
	FinalEquity    float64   `json:"final_equity"`

	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	OpenTrades    int     `json:"open_trades"`
	WinRatePct    float64 `json:"win_rate_pct"`
	TotalPips     float64 `json:"total_pips"`
	TotalProfit   float64 `json:"total_profit"`
	ProfitFactor  float64 `json:"profit_factor"`

	MaxEquityDrawdown     float64 `json:"max_equity_drawdown"`
	MaxEquityDrawdownPct  float64 `json:"max_equity_drawdown_pct"`
	MaxBalanceDrawdown    float64 `json:"max_balance_drawdown"`
	MaxBalanceDrawdownPct float64 `json:"max_balance_drawdown_pct"`

	AverageWin  float64 `json:"average_win"`
	AverageLoss float64 `json:"average_loss"`
	LargestWin  float64 `json:"largest_win"`
	LargestLoss float64 `json:"largest_loss"`

	TicksProcessed int64         `json:"ticks_processed"`
	Trades         []ClosedTrade `json:"trades"`
	EquityCurve    []EquityPoint `json:"equity_curve"`
}

const stampLayout = "2006-01-02 15:04:05"
