package backtest

import (
	"context"
	"io"
	"math"
	"reflect"
	"testing"
)

// sliceSource is a test tick source that tracks consumption and close
// calls.
type sliceSource struct {
	ticks    []Tick
	pos      int
	consumed int
	closed   bool
}

func (s *sliceSource) Next() (Tick, error) {
	if s.pos >= len(s.ticks) {
		return Tick{}, io.EOF
	}
	t := s.ticks[s.pos]
	s.pos++
	s.consumed++
	return t, nil
}

func (s *sliceSource) Close() error {
	s.closed = true
	return nil
}

func runCfg() RunConfig {
	cfg := DefaultRunConfig()
	cfg.Risk = RiskConfig{InitialBalance: 10_000, Mode: RiskPercentage, RiskPct: 1}
	return cfg
}

func TestRunSingleTakeProfit(t *testing.T) {
	src := &sliceSource{ticks: []Tick{
		tickAt(0, 1.0999, 1.1000),
		tickAt(1, 1.1020, 1.1022),
		tickAt(2, 1.1050, 1.1052),
	}}
	signals := []Signal{buySignal(1.0950, 1.1050)}

	res, err := NewRunner(runCfg()).Run(context.Background(), src, signals)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !src.closed {
		t.Fatal("source must be closed")
	}
	if len(res.Trades) != 1 {
		t.Fatalf("trades = %d, want 1", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.ExitReason != ExitTP1 {
		t.Fatalf("exit reason = %s, want tp1", tr.ExitReason)
	}
	if math.Abs(tr.LotSize-0.2) > 1e-9 {
		t.Fatalf("lot = %v, want 0.2", tr.LotSize)
	}
	if math.Abs(tr.Pips-50) > 1e-6 {
		t.Fatalf("pips = %v, want 50", tr.Pips)
	}
	if math.Abs(tr.Profit-100) > 1e-6 {
		t.Fatalf("profit = %v, want 100", tr.Profit)
	}
	if math.Abs(res.FinalBalance-10_100) > 1e-6 {
		t.Fatalf("balance = %v, want 10100", res.FinalBalance)
	}
	if res.WinRatePct != 100 || res.ProfitFactor != profitFactorCap {
		t.Fatalf("win rate %v / profit factor %v unexpected", res.WinRatePct, res.ProfitFactor)
	}
}

func TestRunStopHitFirst(t *testing.T) {
	src := &sliceSource{ticks: []Tick{
		tickAt(0, 1.0999, 1.1000),
		tickAt(1, 1.0950, 1.0952),
		tickAt(2, 1.1050, 1.1052),
	}}
	signals := []Signal{buySignal(1.0950, 1.1050)}

	res, err := NewRunner(runCfg()).Run(context.Background(), src, signals)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	tr := res.Trades[0]
	if tr.ExitReason != ExitSL {
		t.Fatalf("exit reason = %s, want sl", tr.ExitReason)
	}
	if math.Abs(tr.Pips+50) > 1e-6 || math.Abs(tr.Profit+100) > 1e-6 {
		t.Fatalf("pips/profit = %v/%v, want -50/-100", tr.Pips, tr.Profit)
	}
	if math.Abs(res.FinalBalance-9_900) > 1e-6 {
		t.Fatalf("balance = %v, want 9900", res.FinalBalance)
	}
	// early termination: the third tick is never needed
	if src.consumed != 2 {
		t.Fatalf("consumed %d ticks, want 2", src.consumed)
	}
}

func TestRunPartialCloseAcrossTwoLevels(t *testing.T) {
	cfg := runCfg()
	cfg.Strategy.PartialClose = true
	cfg.Strategy.PartialClosePct = 50

	src := &sliceSource{ticks: []Tick{
		tickAt(0, 1.0999, 1.1000),
		tickAt(1, 1.1050, 1.1052),
		tickAt(2, 1.1100, 1.1102),
	}}
	signals := []Signal{buySignal(1.0950, 1.1050, 1.1100)}

	res, err := NewRunner(cfg).Run(context.Background(), src, signals)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Trades) != 1 {
		t.Fatalf("trades = %d, want exactly 1", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.ExitReason != ExitTP2 {
		t.Fatalf("exit reason = %s, want tp2", tr.ExitReason)
	}
	// weighted: 50 pips on half the size, 100 pips on the other half
	if math.Abs(tr.Pips-75) > 1e-6 {
		t.Fatalf("weighted pips = %v, want 75", tr.Pips)
	}
	if math.Abs(tr.Profit-150) > 1e-6 {
		t.Fatalf("profit = %v, want 150", tr.Profit)
	}
	if math.Abs(res.FinalBalance-10_150) > 1e-6 {
		t.Fatalf("balance = %v, want 10150", res.FinalBalance)
	}
	// initial point plus one per realized close
	if len(res.EquityCurve) != 3 {
		t.Fatalf("equity points = %d, want 3", len(res.EquityCurve))
	}
}

func TestRunEmptySignals(t *testing.T) {
	src := &sliceSource{ticks: []Tick{tickAt(0, 1.1, 1.1)}}
	_, err := NewRunner(runCfg()).Run(context.Background(), src, nil)
	if err != ErrNoSignals {
		t.Fatalf("err = %v, want ErrNoSignals", err)
	}
	if !src.closed {
		t.Fatal("source must be closed on error exits")
	}
}

func TestRunNoTimestampedSignals(t *testing.T) {
	src := &sliceSource{ticks: []Tick{tickAt(0, 1.1, 1.1)}}
	signals := []Signal{
		{ID: "a", Symbol: "EURUSD", Direction: DirectionBuy, StopLoss: 1.09},
		{ID: "b", Symbol: "EURUSD", Direction: "hold", StopLoss: 1.09, Timestamp: "2024-01-02"},
	}
	_, err := NewRunner(runCfg()).Run(context.Background(), src, signals)
	if err != ErrNoTimestampedSignals {
		t.Fatalf("err = %v, want ErrNoTimestampedSignals", err)
	}
	if src.consumed != 0 {
		t.Fatalf("consumed %d ticks before failing, want 0", src.consumed)
	}
}

func TestRunLeftoverPositionReportedOpen(t *testing.T) {
	src := &sliceSource{ticks: []Tick{
		tickAt(0, 1.0999, 1.1000),
		tickAt(1, 1.1010, 1.1012),
	}}
	signals := []Signal{buySignal(1.0950, 1.1050)}

	res, err := NewRunner(runCfg()).Run(context.Background(), src, signals)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Trades) != 1 {
		t.Fatalf("trades = %d, want 1", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.ExitReason != ExitOpen {
		t.Fatalf("exit reason = %s, want open", tr.ExitReason)
	}
	if tr.Pips != 0 || tr.Profit != 0 {
		t.Fatalf("open trade must carry zero P&L, got %v/%v", tr.Pips, tr.Profit)
	}
	if tr.ExitPrice != tr.EntryPrice {
		t.Fatalf("open trade reported at %v, want entry %v", tr.ExitPrice, tr.EntryPrice)
	}
	if res.OpenTrades != 1 || res.TotalTrades != 0 {
		t.Fatalf("open=%d closed=%d, want 1/0", res.OpenTrades, res.TotalTrades)
	}
	if math.Abs(res.FinalBalance-10_000) > 1e-9 {
		t.Fatalf("balance = %v, want unchanged 10000", res.FinalBalance)
	}
}

func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &sliceSource{ticks: []Tick{tickAt(0, 1.0999, 1.1000)}}
	res, err := NewRunner(runCfg()).Run(ctx, src, []Signal{buySignal(1.0950, 1.1050)})
	if err != nil {
		t.Fatalf("cancellation is not an error, got %v", err)
	}
	if res.Completed || res.Status != StatusCancelled {
		t.Fatalf("status = %s completed = %v, want cancelled/false", res.Status, res.Completed)
	}
	if src.consumed != 0 {
		t.Fatalf("consumed %d ticks after cancel, want 0", src.consumed)
	}
	if !src.closed {
		t.Fatal("source must be closed on cancellation")
	}
}

func TestRunSignalsSortedByTriggerTime(t *testing.T) {
	late := buySignal(1.0950, 1.1050)
	late.ID = "late"
	late.Timestamp = "2024-01-02 10:00:02"
	early := buySignal(1.0950, 1.1050)
	early.ID = "early"
	early.Timestamp = "2024-01-02 10:00:00"

	src := &sliceSource{ticks: []Tick{
		tickAt(0, 1.0999, 1.1000),
		tickAt(2, 1.1000, 1.1002),
		tickAt(3, 1.1050, 1.1052),
	}}
	res, err := NewRunner(runCfg()).Run(context.Background(), src, []Signal{late, early})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Trades) != 2 {
		t.Fatalf("trades = %d, want 2", len(res.Trades))
	}
	if res.Trades[0].SignalID != "early" {
		t.Fatalf("first close from %s, want early (opened first)", res.Trades[0].SignalID)
	}
}

// Identical inputs must produce identical results, wall-clock fields aside.
func TestRunIdempotent(t *testing.T) {
	run := func() *Results {
		cfg := runCfg()
		cfg.Strategy.PartialClose = true
		cfg.Strategy.PartialClosePct = 50
		src := &sliceSource{ticks: []Tick{
			tickAt(0, 1.0999, 1.1000),
			tickAt(1, 1.1050, 1.1052),
			tickAt(2, 1.0950, 1.0952),
		}}
		res, err := NewRunner(cfg).Run(context.Background(), src, []Signal{buySignal(1.0950, 1.1050, 1.1100)})
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		res.StartTime, res.EndTime = "", ""
		return res
	}

	a, b := run(), run()
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("results differ between identical runs:\n%+v\n%+v", a, b)
	}
}

func TestRunDrawdownNonNegative(t *testing.T) {
	cfg := runCfg()
	src := &sliceSource{ticks: []Tick{
		tickAt(0, 1.0999, 1.1000),
		tickAt(1, 1.0950, 1.0952),
	}}
	res, err := NewRunner(cfg).Run(context.Background(), src, []Signal{buySignal(1.0950, 1.1050)})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.MaxEquityDrawdown < 0 || res.MaxBalanceDrawdown < 0 {
		t.Fatalf("negative drawdown: %v / %v", res.MaxEquityDrawdown, res.MaxBalanceDrawdown)
	}
	if math.Abs(res.MaxEquityDrawdown-100) > 1e-6 {
		t.Fatalf("equity drawdown = %v, want 100", res.MaxEquityDrawdown)
	}
}
