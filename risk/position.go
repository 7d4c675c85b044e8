package risk

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrZeroRisk means entry and stop coincide, so sizing is undefined.
	ErrZeroRisk = errors.New("zero risk per share")

	// ErrNonPositiveQuantity means the sized quantity came out <= 0.
	ErrNonPositiveQuantity = errors.New("non-positive quantity")
)

// Rounding selects how a real-valued quantity is turned into an order size.
type Rounding int

const (
	// RoundNone keeps the fractional quantity budget/risk as is.
	RoundNone Rounding = iota
	RoundFloor
	RoundNearest
	RoundCeil
)

var roundingNames = map[Rounding]string{
	RoundNone:    "none",
	RoundFloor:   "floor",
	RoundNearest: "nearest",
	RoundCeil:    "ceil",
}

func (r Rounding) String() string {
	if s, ok := roundingNames[r]; ok {
		return s
	}
	return fmt.Sprintf("Rounding(%d)", int(r))
}

// ParseRounding accepts none, floor, nearest (or round) and ceil.
// The empty string is none.
func ParseRounding(s string) (Rounding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return RoundNone, nil
	case "floor":
		return RoundFloor, nil
	case "nearest", "round":
		return RoundNearest, nil
	case "ceil":
		return RoundCeil, nil
	}
	return RoundNone, fmt.Errorf("unknown rounding %q (supported: none, floor, nearest, ceil)", s)
}

// Apply rounds q to whole units. q is first rounded to 9 decimal places,
// so 24.999999999 from float division floors to 25.
func (r Rounding) Apply(q float64) float64 {
	if r == RoundNone || math.IsNaN(q) || math.IsInf(q, 0) {
		return q
	}

	d := decimal.NewFromFloat(q).Round(9)
	switch r {
	case RoundFloor:
		d = d.Floor()
	case RoundNearest:
		d = d.Round(0)
	case RoundCeil:
		d = d.Ceil()
	}
	return d.InexactFloat64()
}

// Plan is a sized long entry.
type Plan struct {
	Entry        float64
	Stop         float64
	Target       float64
	RiskPerShare float64
	Quantity     float64
}

// Size plans a long position that loses budget if the stop is hit.
//
//	risk     = |entry - stop|
//	quantity = rounding(budget / risk)
//	target   = entry + risk*rewardRisk
func Size(entry, stop, budget, rewardRisk float64, r Rounding) (Plan, error) {
	p := Plan{
		Entry:        entry,
		Stop:         stop,
		RiskPerShare: math.Abs(entry - stop),
	}
	if p.RiskPerShare == 0 {
		return p, ErrZeroRisk
	}

	p.Quantity = r.Apply(budget / p.RiskPerShare)
	if !(p.Quantity > 0) {
		return p, fmt.Errorf("%w: %g", ErrNonPositiveQuantity, p.Quantity)
	}

	p.Target = entry + p.RiskPerShare*rewardRisk
	return p, nil
}
