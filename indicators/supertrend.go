package indicators

import (
	"fmt"

	"github.com/rustyeddy/risingsun/market"
)

// Supertrend computes the trend direction and the active band per candle.
//
// Bands are hl2 -/+ multiplier*ATR. Once a trend is in force the support
// band never drops and the resistance band never rises until the close
// breaks through the previous band. The inactive band is undefined.
func Supertrend(candles []market.Candle, atrPeriod int, multiplier float64) ([]Row, error) {
	if multiplier <= 0 {
		return nil, fmt.Errorf("multiplier must be positive, got %g", multiplier)
	}
	if atrPeriod <= 0 {
		return nil, fmt.Errorf("period must be positive, got %d", atrPeriod)
	}
	atr := Stream(NewATR(atrPeriod), candles)

	n := len(candles)
	rows := make([]Row, n)
	if n == 0 {
		return rows, nil
	}

	upper := make([]Value, n)
	lower := make([]Value, n)
	for i, c := range candles {
		if !atr[i].Valid {
			continue
		}
		mid := (c.High + c.Low) / 2
		upper[i] = Some(mid + multiplier*atr[i].Float64)
		lower[i] = Some(mid - multiplier*atr[i].Float64)
	}

	up := true
	for i := range candles {
		if i > 0 {
			closePx := candles[i].Close
			switch {
			case upper[i-1].Below(closePx):
				up = true
			case lower[i-1].Above(closePx):
				up = false
			default:
				// trend persists; ratchet the active band
				if up && lower[i].Valid && lower[i-1].Above(lower[i].Float64) {
					lower[i] = lower[i-1]
				}
				if !up && upper[i].Valid && upper[i-1].Below(upper[i].Float64) {
					upper[i] = upper[i-1]
				}
			}
		}

		if up {
			upper[i] = Value{}
		} else {
			lower[i] = Value{}
		}
		rows[i] = Row{TrendUp: up, UpperBand: upper[i], LowerBand: lower[i]}
	}
	return rows, nil
}
