package market

import "time"

// Candle represents OHLC (Open, High, Low, Close) candlestick data for one
// fixed interval. Timestamp is the candle open in unix seconds.
type Candle struct {
	Timestamp int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Time returns the candle open as a UTC time.
func (c Candle) Time() time.Time {
	return time.Unix(c.Timestamp, 0).UTC()
}

// Closes returns the close prices of candles in order.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}
