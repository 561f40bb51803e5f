package backtest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"
)

var (
	// ErrNoSignals is returned when the signal list is empty.
	ErrNoSignals = errors.New("backtest: no signals")
	// ErrNoTimestampedSignals is returned when no signal carries a
	// parseable trigger timestamp.
	ErrNoTimestampedSignals = errors.New("backtest: no signals with parseable timestamps")
)

// TickSource is a pull-based, forward-only, single-pass tick stream. Next
// returns io.EOF at end of stream. The engine closes the source on every
// exit path.
type TickSource interface {
	Next() (Tick, error)
	Close() error
}

// Runner drives one backtest: it sorts signals, streams ticks, opens
// positions at their trigger time and books every close into the balance,
// equity curve and drawdown trackers.
type Runner struct {
	cfg RunConfig
}

func NewRunner(cfg RunConfig) *Runner {
	return &Runner{cfg: cfg.withDefaults()}
}

type timedSignal struct {
	Signal
	at time.Time
}

// Run executes the backtest. Cancellation via ctx is not an error: the
// partial result is returned with Status cancelled and Completed false.
func (r *Runner) Run(ctx context.Context, src TickSource, signals []Signal) (*Results, error) {
	defer src.Close()

	if len(signals) == 0 {
		return nil, ErrNoSignals
	}

	// Signals with an unusable direction or timestamp are excluded, not
	// fatal.
	timed := make([]timedSignal, 0, len(signals))
	for _, s := range signals {
		if !s.Direction.Valid() {
			continue
		}
		at, ok := ParseSignalTime(s.Timestamp)
		if !ok {
			continue
		}
		timed = append(timed, timedSignal{Signal: s, at: at})
	}
	if len(timed) == 0 {
		return nil, ErrNoTimestampedSignals
	}
	sort.SliceStable(timed, func(i, j int) bool { return timed[i].at.Before(timed[j].at) })

	balance := r.cfg.Risk.InitialBalance
	equity := balance
	maxEquity, maxBalance := equity, balance

	res := &Results{
		InitialBalance: balance,
		StartTime:      time.Now().UTC().Format(stampLayout),
	}
	res.EquityCurve = append(res.EquityCurve, EquityPoint{
		Time:    timed[0].at.Format(stampLayout),
		Equity:  equity,
		Balance: balance,
	})

	bk := newBook(r.cfg.Strategy)
	next := 0
	var ticks int64
	var lastTick Tick
	haveTick := false
	cancelled := false

	for {
		select {
		case <-ctx.Done():
			cancelled = true
		default:
		}
		if cancelled {
			break
		}

		tick, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("tick source: %w", err)
		}
		ticks++
		lastTick, haveTick = tick, true
		if r.cfg.Progress != nil && ticks%r.cfg.ProgressEvery == 0 {
			r.cfg.Progress(ticks)
		}

		// open signals whose trigger time has arrived
		for next < len(timed) && !timed[next].at.After(tick.Time) {
			s := timed[next].Signal
			entry := tick.Ask
			if s.Direction == DirectionSell {
				entry = tick.Bid
			}
			slPips := Pips(entry, s.StopLoss, s.Direction, s.Symbol)
			if s.StopLoss <= 0 {
				slPips = 0
			}
			lots := LotSize(r.cfg.Risk, balance, slPips)
			bk.open(s, tick, lots)
			next++
		}

		for _, ev := range bk.onTick(tick) {
			balance += ev.profit
			equity = balance
			if balance > maxBalance {
				maxBalance = balance
			}
			if equity > maxEquity {
				maxEquity = equity
			}
			if dd := maxEquity - equity; dd > res.MaxEquityDrawdown {
				res.MaxEquityDrawdown = dd
				if maxEquity > 0 {
					res.MaxEquityDrawdownPct = dd / maxEquity * 100
				}
			}
			if dd := maxBalance - balance; dd > res.MaxBalanceDrawdown {
				res.MaxBalanceDrawdown = dd
				if maxBalance > 0 {
					res.MaxBalanceDrawdownPct = dd / maxBalance * 100
				}
			}
			res.EquityCurve = append(res.EquityCurve, EquityPoint{
				Time:    ev.time.Format(stampLayout),
				Equity:  equity,
				Balance: balance,
			})
			if ev.final {
				p := ev.pos
				res.Trades = append(res.Trades, ClosedTrade{
					ID:         fmt.Sprintf("trade-%d", len(res.Trades)+1),
					SignalID:   p.signal.ID,
					Symbol:     p.signal.Symbol,
					Direction:  p.signal.Direction,
					EntryPrice: p.entryPrice,
					EntryTime:  p.entryTime.Format(stampLayout),
					ExitPrice:  ev.price,
					ExitTime:   ev.time.Format(stampLayout),
					ExitReason: ev.reason,
					LotSize:    p.initialLots,
					Pips:       p.realizedPips,
					Profit:     p.realizedProfit,
					Balance:    balance,
					Equity:     equity,
				})
			}
		}

		// all signals opened and nothing left open: no later tick can
		// change the outcome
		if next == len(timed) && bk.empty() {
			break
		}
	}

	// Positions still open when the stream ends are reported at entry price
	// with zero realized P&L; diagnostic, not realized.
	for _, p := range bk.positions {
		exitTime := p.entryTime
		if haveTick {
			exitTime = lastTick.Time
		}
		res.Trades = append(res.Trades, ClosedTrade{
			ID:         fmt.Sprintf("trade-%d", len(res.Trades)+1),
			SignalID:   p.signal.ID,
			Symbol:     p.signal.Symbol,
			Direction:  p.signal.Direction,
			EntryPrice: p.entryPrice,
			EntryTime:  p.entryTime.Format(stampLayout),
			ExitPrice:  p.entryPrice,
			ExitTime:   exitTime.Format(stampLayout),
			ExitReason: ExitOpen,
			LotSize:    p.initialLots,
			Balance:    balance,
			Equity:     equity,
		})
	}

	res.TicksProcessed = ticks
	res.FinalBalance = balance
	res.FinalEquity = equity
	aggregate(res)

	res.Status = StatusCompleted
	res.Completed = true
	if cancelled {
		res.Status = StatusCancelled
		res.Completed = false
	}
	res.EndTime = time.Now().UTC().Format(stampLayout)
	return res, nil
}
