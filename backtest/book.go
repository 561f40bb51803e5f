package backtest

import "time"

// position is the mutable state of one open simulated trade. It is owned
// exclusively by the book and never leaves the package.
type position struct {
	signal     Signal
	entryPrice float64
	entryTime  time.Time

	stop     float64
	trailing bool // stop has been moved by the trailing ratchet

	initialLots float64
	remaining   float64

	highest float64
	lowest  float64

	levelsHit [MaxTPLevels + 1]bool // 1-based
	hitCount  int

	realizedPips   float64 // weighted by the fraction of lots closed per stage
	realizedProfit float64
}

// closeEvent is one realized (partial or final) close. Final events remove
// the position from the book.
type closeEvent struct {
	pos    *position
	price  float64
	time   time.Time
	reason ExitReason
	lots   float64
	pips   float64 // stage pips at this exit price
	profit float64 // stage dollar profit
	final  bool
}

// book tracks all currently open positions and applies the exit rules to
// each incoming tick.
type book struct {
	cfg       StrategyConfig
	positions []*position
}

func newBook(cfg StrategyConfig) *book {
	return &book{cfg: cfg}
}

func (b *book) empty() bool { return len(b.positions) == 0 }

func (b *book) open(sig Signal, tick Tick, lots float64) *position {
	// entry at the worse side of the spread; extremes start from the side
	// a closing trade would realize
	entry, exitSide := tick.Ask, tick.Bid
	if sig.Direction == DirectionSell {
		entry, exitSide = tick.Bid, tick.Ask
	}
	p := &position{
		signal:      sig,
		entryPrice:  entry,
		entryTime:   tick.Time,
		stop:        sig.StopLoss,
		initialLots: lots,
		remaining:   lots,
		highest:     exitSide,
		lowest:      exitSide,
	}
	b.positions = append(b.positions, p)
	return p
}

// onTick evaluates every open position against one tick, in open order, and
// returns the realized close events. Fully closed positions are dropped.
func (b *book) onTick(tick Tick) []closeEvent {
	var events []closeEvent
	kept := b.positions[:0]
	for _, p := range b.positions {
		evs, closed := b.eval(p, tick)
		events = append(events, evs...)
		if !closed {
			kept = append(kept, p)
		}
	}
	b.positions = kept
	return events
}

// eval applies the fixed per-tick rule order: price extremes, trailing
// ratchet, breakeven clamp, stop-loss, take-profit ladder. The stop always
// wins over a take-profit in the same tick.
func (b *book) eval(p *position, tick Tick) ([]closeEvent, bool) {
	dir := p.signal.Direction
	sym := p.signal.Symbol
	exitSide := tick.Bid // price a closing trade would realize
	if dir == DirectionSell {
		exitSide = tick.Ask
	}

	// 1. price extremes on the closing side
	if exitSide > p.highest {
		p.highest = exitSide
	}
	if exitSide < p.lowest {
		p.lowest = exitSide
	}

	// 2. trailing ratchet, favorable direction only
	if b.cfg.Trailing && b.cfg.TrailingPips > 0 {
		dist := b.cfg.TrailingPips * PipValue(sym)
		if dir == DirectionBuy {
			if cand := p.highest - dist; cand > p.stop {
				p.stop = cand
				p.trailing = true
			}
		} else {
			if cand := p.lowest + dist; p.stop == 0 || cand < p.stop {
				p.stop = cand
				p.trailing = true
			}
		}
	}

	// 3. breakeven clamp once the trigger condition holds
	if b.breakevenTriggered(p, exitSide) {
		if dir == DirectionBuy {
			if p.stop < p.entryPrice {
				p.stop = p.entryPrice
			}
		} else {
			if p.stop == 0 || p.stop > p.entryPrice {
				p.stop = p.entryPrice
			}
		}
	}

	// 4. stop-loss
	if p.stop > 0 {
		hit := tick.Bid <= p.stop
		if dir == DirectionSell {
			hit = tick.Ask >= p.stop
		}
		if hit {
			reason := ExitSL
			if p.trailing {
				reason = ExitTrailingSL
			}
			ev := p.closeStage(p.stop, p.remaining, tick.Time, reason, true)
			return []closeEvent{ev}, true
		}
	}

	// 5. take-profit ladder, ascending levels
	var events []closeEvent
	for level := 1; level <= MaxTPLevels; level++ {
		price := p.signal.TP(level)
		if price <= 0 || !b.levelActive(level) || p.levelsHit[level] {
			continue
		}
		hit := tick.Bid >= price
		if dir == DirectionSell {
			hit = tick.Ask <= price
		}
		if !hit {
			continue
		}

		p.levelsHit[level] = true
		p.hitCount++

		closeAll := b.remainingActiveLevels(p) == 0 ||
			(b.cfg.CloseAllAtTP > 0 && level >= b.cfg.CloseAllAtTP)
		switch {
		case closeAll:
			events = append(events, p.closeStage(price, p.remaining, tick.Time, tpReason(level), true))
			return events, true
		case b.cfg.PartialClose:
			lots := p.initialLots * b.cfg.PartialClosePct / 100
			if lots >= p.remaining-1e-9 {
				events = append(events, p.closeStage(price, p.remaining, tick.Time, tpReason(level), true))
				return events, true
			}
			events = append(events, p.closeStage(price, lots, tick.Time, tpReason(level), false))
		default:
			// level recorded; only the terminal level moves the balance
		}
	}
	return events, false
}

func (b *book) breakevenTriggered(p *position, exitSide float64) bool {
	switch b.cfg.Breakeven {
	case BreakevenAfterTPs:
		return b.cfg.BreakevenTPs > 0 && p.hitCount >= b.cfg.BreakevenTPs
	case BreakevenAfterPips:
		if b.cfg.BreakevenPips <= 0 {
			return false
		}
		return Pips(p.entryPrice, exitSide, p.signal.Direction, p.signal.Symbol) >= b.cfg.BreakevenPips
	default:
		return false
	}
}

// levelActive reports whether a 1-based TP level is in the configured active
// set (empty set means all levels).
func (b *book) levelActive(level int) bool {
	if len(b.cfg.ActiveTPs) == 0 {
		return true
	}
	for _, l := range b.cfg.ActiveTPs {
		if l == level {
			return true
		}
	}
	return false
}

// remainingActiveLevels counts active, priced levels not yet hit.
func (b *book) remainingActiveLevels(p *position) int {
	n := 0
	for level := 1; level <= MaxTPLevels; level++ {
		if p.signal.TP(level) > 0 && b.levelActive(level) && !p.levelsHit[level] {
			n++
		}
	}
	return n
}

// closeStage realizes lots at price, accumulating weighted pips and dollar
// profit on the position.
func (p *position) closeStage(price, lots float64, t time.Time, reason ExitReason, final bool) closeEvent {
	if final {
		lots = p.remaining
	}
	pips := Pips(p.entryPrice, price, p.signal.Direction, p.signal.Symbol)
	profit := Profit(pips, lots)
	p.realizedPips += pips * (lots / p.initialLots)
	p.realizedProfit += profit
	p.remaining -= lots
	return closeEvent{
		pos:    p,
		price:  price,
		time:   t,
		reason: reason,
		lots:   lots,
		pips:   pips,
		profit: profit,
		final:  final,
	}
}

func tpReason(level int) ExitReason {
	switch level {
	case 1:
		return ExitTP1
	case 2:
		return ExitTP2
	case 3:
		return ExitTP3
	default:
		return ExitTP4
	}
}
