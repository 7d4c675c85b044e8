package market

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	good := []Candle{
		{Timestamp: 1, Open: 10, High: 12, Low: 9, Close: 11},
		{Timestamp: 2, Open: 11, High: 13, Low: 10, Close: 12},
	}

	tests := []struct {
		name    string
		candles []Candle
		minLen  int
		wantNil bool
		fatal   bool
		short   bool
		idx     []int
	}{
		{name: "clean", candles: good, wantNil: true},
		{name: "short", candles: good, minLen: 5, short: true},
		{
			name: "timestamps not increasing",
			candles: []Candle{
				{Timestamp: 2, Open: 10, High: 12, Low: 9, Close: 11},
				{Timestamp: 2, Open: 10, High: 12, Low: 9, Close: 11},
			},
			fatal: true,
			idx:   []int{1},
		},
		{
			name:    "high below low",
			candles: []Candle{{Timestamp: 1, Open: 10, High: 9, Low: 10, Close: 10}},
			fatal:   true,
			idx:     []int{0},
		},
		{
			name:    "high below close",
			candles: []Candle{{Timestamp: 1, Open: 10, High: 11, Low: 9, Close: 12}},
			fatal:   true,
			idx:     []int{0},
		},
		{
			name:    "NaN high",
			candles: []Candle{{Timestamp: 1, Open: 10, High: math.NaN(), Low: 9, Close: 10}},
			fatal:   true,
			idx:     []int{0},
		},
		{
			name: "infinite close",
			candles: []Candle{
				{Timestamp: 1, Open: 10, High: 12, Low: 9, Close: 11},
				{Timestamp: 2, Open: 10, High: 11, Low: 9, Close: math.Inf(1)},
			},
			fatal: true,
			idx:   []int{1},
		},
		{
			name:    "low above open",
			candles: []Candle{{Timestamp: 1, Open: 8, High: 11, Low: 9, Close: 10}},
			fatal:   true,
			idx:     []int{0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.candles, tt.minLen)
			if tt.wantNil {
				assert.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			assert.Equal(t, tt.fatal, err.Fatal())
			assert.Equal(t, tt.short, err.Short)
			var got []int
			for _, p := range err.Problems {
				got = append(got, p.Index)
			}
			assert.Equal(t, tt.idx, got)
			assert.NotEmpty(t, err.Error())
		})
	}
}

func TestInputErrorMessage(t *testing.T) {
	t.Parallel()

	e := &InputError{Short: true, Need: 12, Got: 3}
	assert.Equal(t, "candle series too short: need 12, got 3", e.Error())
}

func TestCloses(t *testing.T) {
	t.Parallel()

	got := Closes([]Candle{{Close: 1}, {Close: 2.5}})
	assert.Equal(t, []float64{1, 2.5}, got)
}
