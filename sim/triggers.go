package sim

import (
	"math"

	"github.com/rustyeddy/risingsun/indicators"
	"github.com/rustyeddy/risingsun/ledger"
	"github.com/rustyeddy/risingsun/market"
)

// Boundary is the recurring forced-closure cutoff Base + n*Interval.
// It moves forward as the scan passes it, independent of any position.
type Boundary struct {
	Base     int
	Interval int
	n        int
}

// Index is the active boundary. It saturates at math.MaxInt.
func (b *Boundary) Index() int {
	if b.n > 0 && b.Interval > (math.MaxInt-b.Base)/b.n {
		return math.MaxInt
	}
	return b.Base + b.n*b.Interval
}

// N is the number of boundaries already passed.
func (b *Boundary) N() int {
	return b.n
}

// Advance moves past every boundary at or before scan index i.
func (b *Boundary) Advance(i int) {
	if b.Interval <= 0 {
		return
	}
	for i >= b.Index() && b.Index() < math.MaxInt {
		b.n++
	}
}

func (b *Boundary) reset() {
	b.n = 0
}

// entrySignal reports whether index i triggers a long entry filled at the
// next close. The last index can never signal: there is no next close.
func entrySignal(i int, candles []market.Candle, rows []indicators.Row) bool {
	if i+1 >= len(candles) {
		return false
	}
	r := rows[i]
	if !r.TrendUp || !r.TrendDefined() {
		return false
	}
	c := candles[i]
	return r.EMA.Above(c.High) && candles[i+1].Close > c.High
}

// exitTrigger classifies the close at index i against an open position.
// Stop-loss wins over target, target over forced closure.
func exitTrigger(p Position, closePx float64, forced bool) (ledger.Kind, bool) {
	switch {
	case closePx <= p.StopLoss:
		return ledger.StopLossExit, true
	case closePx >= p.Target:
		return ledger.TargetExit, true
	case forced:
		return ledger.ForcedExit, true
	}
	return 0, false
}
