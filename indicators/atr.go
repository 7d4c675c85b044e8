package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/risingsun/market"
)

// trueRange calculates the True Range for a candle given the previous close.
func trueRange(current market.Candle, prevClose float64) float64 {
	highLow := current.High - current.Low
	highClose := math.Abs(current.High - prevClose)
	lowClose := math.Abs(prevClose - current.Low)

	return math.Max(highLow, math.Max(highClose, lowClose))
}

// TrueRange returns one true range per candle. The first candle has no
// previous close, so its range is high-low.
func TrueRange(candles []market.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		if i == 0 {
			out[i] = c.High - c.Low
			continue
		}
		out[i] = trueRange(c, candles[i-1].Close)
	}
	return out
}

// ewm is an adjusted exponentially weighted mean with alpha = 1/period.
// Each observation i samples back carries weight (1-alpha)^i and the
// result is normalised by the sum of weights. It reports a value only once
// period observations have been seen.
type ewm struct {
	period int
	decay  float64
	num    float64
	den    float64
	count  int
}

func newEWM(period int) ewm {
	return ewm{period: period, decay: 1 - 1/float64(period)}
}

func (m *ewm) add(x float64) {
	m.num = x + m.decay*m.num
	m.den = 1 + m.decay*m.den
	m.count++
}

func (m *ewm) ready() bool {
	return m.count >= m.period
}

func (m *ewm) value() float64 {
	if !m.ready() {
		return 0
	}
	return m.num / m.den
}

// ATR smooths a true range series with alpha = 1/period. Indices before
// period samples have been observed are undefined.
func ATR(tr []float64, period int) ([]Value, error) {
	if period <= 0 {
		return nil, fmt.Errorf("period must be positive, got %d", period)
	}

	m := newEWM(period)
	out := make([]Value, len(tr))
	for i, x := range tr {
		m.add(x)
		if m.ready() {
			out[i] = Some(m.value())
		}
	}
	return out, nil
}

// AverageTrueRange is a streaming Average True Range indicator
type AverageTrueRange struct {
	period    int
	m         ewm
	prevClose float64
	havePrev  bool
}

// NewATR creates a new Average True Range indicator with the given period
func NewATR(period int) *AverageTrueRange {
	return &AverageTrueRange{
		period: period,
		m:      newEWM(period),
	}
}

func (a *AverageTrueRange) Name() string {
	return fmt.Sprintf("ATR(%d)", a.period)
}

func (a *AverageTrueRange) Warmup() int {
	return a.period
}

func (a *AverageTrueRange) Reset() {
	a.m = newEWM(a.period)
	a.prevClose = 0
	a.havePrev = false
}

func (a *AverageTrueRange) Update(c market.Candle) {
	tr := c.High - c.Low
	if a.havePrev {
		tr = trueRange(c, a.prevClose)
	}
	a.m.add(tr)
	a.prevClose = c.Close
	a.havePrev = true
}

func (a *AverageTrueRange) Ready() bool {
	return a.m.ready()
}

func (a *AverageTrueRange) Value() float64 {
	return a.m.value()
}
