package indicators

import (
	"fmt"

	"github.com/rustyeddy/risingsun/market"
)

// ExponentialMA is a streaming Exponential Moving Average indicator
type ExponentialMA struct {
	period     int
	multiplier float64
	ema        float64
	count      int
	warmupSum  float64
}

// NewEMA creates a new Exponential Moving Average indicator with the given period
func NewEMA(period int) *ExponentialMA {
	return &ExponentialMA{
		period:     period,
		multiplier: 2.0 / float64(period+1),
	}
}

func (e *ExponentialMA) Name() string {
	return fmt.Sprintf("EMA(%d)", e.period)
}

func (e *ExponentialMA) Warmup() int {
	return e.period
}

func (e *ExponentialMA) Reset() {
	e.ema = 0
	e.count = 0
	e.warmupSum = 0
}

func (e *ExponentialMA) Update(c market.Candle) {
	e.Add(c.Close)
}

// Add consumes a raw value rather than a candle close.
func (e *ExponentialMA) Add(x float64) {
	if e.count < e.period {
		// During warmup, accumulate sum for initial SMA
		e.warmupSum += x
		e.count++
		if e.count == e.period {
			e.ema = e.warmupSum / float64(e.period)
		}
		return
	}
	e.ema = (x-e.ema)*e.multiplier + e.ema
}

func (e *ExponentialMA) Ready() bool {
	return e.count >= e.period
}

func (e *ExponentialMA) Value() float64 {
	if !e.Ready() {
		return 0
	}
	return e.ema
}

// EMA calculates the Exponential Moving Average of values for the given
// period. The first defined value, at index period-1, is the simple
// average of the first period values.
func EMA(values []float64, period int) ([]Value, error) {
	if period <= 0 {
		return nil, fmt.Errorf("period must be positive, got %d", period)
	}

	e := NewEMA(period)
	out := make([]Value, len(values))
	for i, x := range values {
		e.Add(x)
		if e.Ready() {
			out[i] = Some(e.Value())
		}
	}
	return out, nil
}

// DEMA calculates the Double Exponential Moving Average, 2*EMA - EMA(EMA).
// It is defined from index 2*period-2.
func DEMA(values []float64, period int) ([]Value, error) {
	if period <= 0 {
		return nil, fmt.Errorf("period must be positive, got %d", period)
	}

	first := NewEMA(period)
	second := NewEMA(period)
	out := make([]Value, len(values))
	for i, x := range values {
		first.Add(x)
		if !first.Ready() {
			continue
		}
		second.Add(first.Value())
		if second.Ready() {
			out[i] = Some(2*first.Value() - second.Value())
		}
	}
	return out, nil
}
