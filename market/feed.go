package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// CandleFeed yields candles one at a time.
// Implementations should be deterministic and return (ok=false, err=nil) at EOF.
type CandleFeed interface {
	Next() (c Candle, ok bool, err error)
	Close() error
}

// CSVCandleFeed reads candle CSV rows:
//
//	time,open,high,low,close[,volume]
//
// where time is unix seconds, RFC3339 or RFC3339Nano.
//
// It optionally filters candles to [From, To) if provided.
// Header row ("time,...") is allowed.
// Empty/short rows are skipped.
type CSVCandleFeed struct {
	c    io.Closer
	r    *csv.Reader
	from time.Time
	to   time.Time

	sawFirst bool
}

func NewCSVCandleFeed(path string, from, to time.Time) (*CSVCandleFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	feed := NewCSVCandleReader(f, from, to)
	feed.c = f
	return feed, nil
}

// NewCSVCandleReader wraps an already open reader. Close is a no-op.
func NewCSVCandleReader(r io.Reader, from, to time.Time) *CSVCandleFeed {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return &CSVCandleFeed{r: cr, from: from, to: to}
}

// Close closes the underlying file. Calling it again is a no-op.
func (f *CSVCandleFeed) Close() error {
	if f.c == nil {
		return nil
	}
	c := f.c
	f.c = nil
	return c.Close()
}

func (f *CSVCandleFeed) Next() (Candle, bool, error) {
	for {
		row, err := f.r.Read()
		if err == io.EOF {
			return Candle{}, false, nil
		}
		if err != nil {
			return Candle{}, false, err
		}
		if len(row) == 0 {
			continue
		}

		// Allow a single header row
		if !f.sawFirst {
			f.sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "time") {
				continue
			}
		}

		c, ok, err := parseCandleRow(row)
		if err != nil {
			return Candle{}, false, err
		}
		if !ok {
			continue
		}
		if !inRange(c.Time(), f.from, f.to) {
			continue
		}
		return c, true, nil
	}
}

// ReadAll drains the feed and closes it.
func ReadAll(feed CandleFeed) ([]Candle, error) {
	defer feed.Close()

	var out []Candle
	for {
		c, ok, err := feed.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, c)
	}
}

func parseCandleRow(row []string) (Candle, bool, error) {
	// Need at least: time,open,high,low,close
	if len(row) < 5 {
		return Candle{}, false, nil
	}

	ts := strings.TrimSpace(row[0])
	if ts == "" {
		return Candle{}, false, nil
	}
	unix, err := parseTimestamp(ts)
	if err != nil {
		return Candle{}, false, err
	}

	var px [4]float64
	for i := range px {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
		if err != nil {
			return Candle{}, false, fmt.Errorf("bad price %q: %w", row[i+1], err)
		}
		px[i] = v
	}

	c := Candle{
		Timestamp: unix,
		Open:      px[0],
		High:      px[1],
		Low:       px[2],
		Close:     px[3],
	}
	if len(row) > 5 && strings.TrimSpace(row[5]) != "" {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[5]), 64)
		if err != nil {
			return Candle{}, false, fmt.Errorf("bad volume %q: %w", row[5], err)
		}
		c.Volume = v
	}
	return c, true, nil
}

func parseTimestamp(ts string) (int64, error) {
	if n, err := strconv.ParseInt(ts, 10, 64); err == nil {
		return n, nil
	}
	// Accept RFC3339 or RFC3339Nano.
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		t2, err2 := time.Parse(time.RFC3339Nano, ts)
		if err2 != nil {
			return 0, fmt.Errorf("bad time %q: %w", ts, err)
		}
		t = t2
	}
	return t.Unix(), nil
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}
