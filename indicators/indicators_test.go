package indicators

import (
	"testing"

	"github.com/rustyeddy/risingsun/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floats(vals []Value) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		if v.Valid {
			out[i] = v.Float64
		} else {
			out[i] = -1
		}
	}
	return out
}

func TestTrueRange(t *testing.T) {
	t.Parallel()

	candles := []market.Candle{
		{High: 110, Low: 100, Close: 105},
		{High: 112, Low: 108, Close: 110}, // gap up: |112-105| = 7
		{High: 111, Low: 101, Close: 102}, // plain range 10
		{High: 100, Low: 95, Close: 96},   // gap down: |102-95| = 7
	}
	assert.Equal(t, []float64{10, 7, 10, 7}, TrueRange(candles))
	assert.Empty(t, TrueRange(nil))
}

func TestATR_Smoothing(t *testing.T) {
	t.Parallel()

	atr, err := ATR([]float64{1, 2, 3}, 2)
	require.NoError(t, err)
	require.Len(t, atr, 3)

	assert.False(t, atr[0].Valid)
	require.True(t, atr[1].Valid)
	assert.InDelta(t, 2.5/1.5, atr[1].Float64, 1e-12)
	require.True(t, atr[2].Valid)
	assert.InDelta(t, 4.25/1.75, atr[2].Float64, 1e-12)
}

func TestATR_ConstantRange(t *testing.T) {
	t.Parallel()

	atr, err := ATR([]float64{2, 2, 2, 2}, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, -1, 2, 2}, floats(atr))
}

func TestATR_WarmupLongerThanSeries(t *testing.T) {
	t.Parallel()

	atr, err := ATR([]float64{3, 4, 5}, 12)
	require.NoError(t, err)
	for i, v := range atr {
		assert.False(t, v.Valid, "index %d", i)
	}
}

func TestATR_BadPeriod(t *testing.T) {
	t.Parallel()

	_, err := ATR([]float64{1}, 0)
	assert.Error(t, err)
}

func TestEMA(t *testing.T) {
	t.Parallel()

	ema, err := EMA([]float64{1, 2, 3, 4, 5}, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, -1, 2, 3, 4}, floats(ema))

	_, err = EMA(nil, -1)
	assert.Error(t, err)
}

func TestDEMA(t *testing.T) {
	t.Parallel()

	dema, err := DEMA([]float64{1, 2, 3, 4}, 2)
	require.NoError(t, err)
	got := floats(dema)
	assert.Equal(t, -1.0, got[0])
	assert.Equal(t, -1.0, got[1])
	assert.InDelta(t, 3.0, got[2], 1e-12)
	assert.InDelta(t, 4.0, got[3], 1e-12)
}

func TestValueComparisons(t *testing.T) {
	t.Parallel()

	var undef Value
	assert.False(t, undef.Above(-1e9))
	assert.False(t, undef.Below(1e9))
	assert.Equal(t, "", undef.String())

	v := Some(2)
	assert.True(t, v.Above(1))
	assert.False(t, v.Above(2))
	assert.True(t, v.Below(3))
	assert.Equal(t, "2.000000", v.String())
}

func TestParams(t *testing.T) {
	t.Parallel()

	p := Params{ATRPeriod: 12, Multiplier: 3, EMAPeriod: 5}
	assert.NoError(t, p.Validate())
	assert.Equal(t, 12, p.Warmup())

	assert.Error(t, Params{ATRPeriod: 0, Multiplier: 3, EMAPeriod: 5}.Validate())
	assert.Error(t, Params{ATRPeriod: 1, Multiplier: 0, EMAPeriod: 5}.Validate())
	assert.Error(t, Params{ATRPeriod: 1, Multiplier: 1, EMAPeriod: 0}.Validate())
}

func TestCompute_FillsEMA(t *testing.T) {
	t.Parallel()

	candles := []market.Candle{
		{High: 10, Low: 8, Close: 9},
		{High: 11, Low: 9, Close: 10},
		{High: 12, Low: 10, Close: 11},
	}
	rows, err := Compute(candles, Params{ATRPeriod: 1, Multiplier: 1, EMAPeriod: 2})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.False(t, rows[0].EMA.Valid)
	assert.InDelta(t, 9.5, rows[1].EMA.Float64, 1e-12)

	_, err = Compute(candles, Params{})
	assert.Error(t, err)
}
