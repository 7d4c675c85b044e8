// Package indicators provides technical analysis indicators for trading
package indicators

import (
	"fmt"

	"github.com/rustyeddy/risingsun/market"
)

// Indicator computes a single streaming value from candles.
// It is deterministic and safe to use in replay and backtests.
type Indicator interface {
	// Name returns a stable identifier like "EMA(20)" or "ATR(14)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next *closed* candle and updates internal state.
	Update(c market.Candle)

	// Ready reports whether Value() is meaningful (warmup completed).
	Ready() bool

	// Value returns the current indicator value. If !Ready(), it returns 0;
	// callers should always check Ready().
	Value() float64
}

// Value is an optional indicator reading. The zero Value is undefined.
type Value struct {
	Float64 float64
	Valid   bool
}

// Some returns a defined Value.
func Some(f float64) Value {
	return Value{Float64: f, Valid: true}
}

// Above reports whether v is defined and strictly greater than x.
// An undefined value never satisfies a comparison.
func (v Value) Above(x float64) bool {
	return v.Valid && v.Float64 > x
}

// Below reports whether v is defined and strictly less than x.
func (v Value) Below(x float64) bool {
	return v.Valid && v.Float64 < x
}

func (v Value) String() string {
	if !v.Valid {
		return ""
	}
	return fmt.Sprintf("%.6f", v.Float64)
}

// Row is the per-candle indicator output, aligned 1:1 with the candles.
// Only the band on the active side of the trend is ever defined.
type Row struct {
	TrendUp   bool
	UpperBand Value
	LowerBand Value
	EMA       Value
}

// TrendDefined reports whether the trend at this row rests on a warmed-up
// band. During ATR warm-up TrendUp only carries the seed.
func (r Row) TrendDefined() bool {
	if r.TrendUp {
		return r.LowerBand.Valid
	}
	return r.UpperBand.Valid
}

// Params selects the indicator settings for Compute.
type Params struct {
	ATRPeriod  int
	Multiplier float64
	EMAPeriod  int
}

func (p Params) Validate() error {
	if p.ATRPeriod <= 0 {
		return fmt.Errorf("atr period must be positive, got %d", p.ATRPeriod)
	}
	if p.Multiplier <= 0 {
		return fmt.Errorf("supertrend multiplier must be positive, got %g", p.Multiplier)
	}
	if p.EMAPeriod <= 0 {
		return fmt.Errorf("ema period must be positive, got %d", p.EMAPeriod)
	}
	return nil
}

// Warmup is the number of candles needed before every column of a Row
// can be defined.
func (p Params) Warmup() int {
	return max(p.ATRPeriod, p.EMAPeriod)
}

// Compute returns Supertrend rows with the EMA of closes filled in.
func Compute(candles []market.Candle, p Params) ([]Row, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	rows, err := Supertrend(candles, p.ATRPeriod, p.Multiplier)
	if err != nil {
		return nil, err
	}
	ema := Stream(NewEMA(p.EMAPeriod), candles)
	for i := range rows {
		rows[i].EMA = ema[i]
	}
	return rows, nil
}

// Stream resets ind and feeds it candles in order, returning its value
// after each one. Values before warm-up are undefined.
func Stream(ind Indicator, candles []market.Candle) []Value {
	ind.Reset()
	out := make([]Value, len(candles))
	for i, c := range candles {
		ind.Update(c)
		if ind.Ready() {
			out[i] = Some(ind.Value())
		}
	}
	return out
}
