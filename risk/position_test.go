package risk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSize_FixedBudget(t *testing.T) {
	t.Parallel()

	p, err := Size(110, 100, 500, 4, RoundNone)
	require.NoError(t, err)

	assert.InDelta(t, 10.0, p.RiskPerShare, 1e-12)
	assert.InDelta(t, 50.0, p.Quantity, 1e-12)
	assert.InDelta(t, 150.0, p.Target, 1e-12)
	assert.InDelta(t, 500.0, PlannedRisk(p.Quantity, p.Entry, p.Stop), 1e-9)
	assert.InDelta(t, 4.0, RR(p.Entry, p.Stop, p.Target), 1e-12)
}

func TestSize_FractionalQuantityKept(t *testing.T) {
	t.Parallel()

	p, err := Size(103, 100, 500, 2, RoundNone)
	require.NoError(t, err)
	assert.InDelta(t, 500.0/3.0, p.Quantity, 1e-12)
}

func TestSize_ZeroRisk(t *testing.T) {
	t.Parallel()

	_, err := Size(100, 100, 500, 2, RoundNone)
	assert.ErrorIs(t, err, ErrZeroRisk)
}

func TestSize_NonPositiveQuantity(t *testing.T) {
	t.Parallel()

	// 500/1000 = 0.5 floors to 0
	_, err := Size(1100, 100, 500, 2, RoundFloor)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNonPositiveQuantity))

	_, err = Size(110, 100, -5, 2, RoundNone)
	assert.ErrorIs(t, err, ErrNonPositiveQuantity)
}

func TestRoundingApply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		r    Rounding
		in   float64
		want float64
	}{
		{"none", RoundNone, 166.666, 166.666},
		{"floor", RoundFloor, 166.666, 166},
		{"nearest up", RoundNearest, 166.5, 167},
		{"nearest down", RoundNearest, 166.4, 166},
		{"ceil", RoundCeil, 166.01, 167},
		{"floor float noise", RoundFloor, 24.9999999999, 25},
		{"ceil float noise", RoundCeil, 25.0000000001, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, tt.r.Apply(tt.in), 1e-9)
		})
	}
}

func TestParseRounding(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Rounding{
		"":        RoundNone,
		"none":    RoundNone,
		"Floor":   RoundFloor,
		"round":   RoundNearest,
		"nearest": RoundNearest,
		" ceil ":  RoundCeil,
	} {
		got, err := ParseRounding(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseRounding("truncate")
	assert.Error(t, err)

	assert.Equal(t, "floor", RoundFloor.String())
	assert.Equal(t, "Rounding(9)", Rounding(9).String())
}

func TestRMultiple(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, -1.0, RMultiple(-500, 500), 1e-12)
	assert.InDelta(t, 4.0, RMultiple(2000, 500), 1e-12)
	assert.Equal(t, 0.0, RMultiple(10, 0))
	assert.Equal(t, 0.0, RR(1, 1, 2))
}
