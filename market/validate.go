package market

import (
	"fmt"
	"math"
	"strings"
)

// Problem describes one rejected candle.
type Problem struct {
	Index  int
	Reason string
}

// InputError reports a candle series that cannot be simulated as is.
//
// Short is set when the series is well formed but shorter than the largest
// indicator warm-up; callers may still run it, the affected prefix simply
// has no indicator values.
type InputError struct {
	Problems []Problem
	Short    bool
	Need     int
	Got      int
}

func (e *InputError) Error() string {
	if len(e.Problems) == 0 && e.Short {
		return fmt.Sprintf("candle series too short: need %d, got %d", e.Need, e.Got)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d malformed candle(s)", len(e.Problems))
	for i, p := range e.Problems {
		if i == 5 {
			fmt.Fprintf(&sb, "; ... %d more", len(e.Problems)-i)
			break
		}
		fmt.Fprintf(&sb, "; [%d] %s", p.Index, p.Reason)
	}
	return sb.String()
}

// Fatal reports whether the series has malformed rows. A series that is
// only short is not fatal.
func (e *InputError) Fatal() bool {
	return len(e.Problems) > 0
}

// Validate checks ordering and OHLC consistency. minLen is the largest
// warm-up period the caller needs; pass 0 to skip the length check.
// It returns nil when the series is clean.
func Validate(candles []Candle, minLen int) *InputError {
	e := &InputError{Need: minLen, Got: len(candles)}

	for i, c := range candles {
		if i > 0 && c.Timestamp <= candles[i-1].Timestamp {
			e.Problems = append(e.Problems, Problem{i, fmt.Sprintf("timestamp %d not after %d", c.Timestamp, candles[i-1].Timestamp)})
		}
		switch {
		case !finite(c.Open, c.High, c.Low, c.Close):
			e.Problems = append(e.Problems, Problem{i, "price not finite"})
		case c.High < c.Low:
			e.Problems = append(e.Problems, Problem{i, "high below low"})
		case c.High < c.Open || c.High < c.Close:
			e.Problems = append(e.Problems, Problem{i, "high below open/close"})
		case c.Low > c.Open || c.Low > c.Close:
			e.Problems = append(e.Problems, Problem{i, "low above open/close"})
		}
	}

	if minLen > 0 && len(candles) < minLen {
		e.Short = true
	}
	if len(e.Problems) == 0 && !e.Short {
		return nil
	}
	return e
}

func finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
