package market

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVCandleFeed_ParsesRows(t *testing.T) {
	t.Parallel()

	data := `time,open,high,low,close,volume
1700000000,100,105,99,102,1000
2023-11-14T22:28:20Z,102,107,101,105,
,1,2,3,4
1700001800,105,108
`
	feed := NewCSVCandleReader(strings.NewReader(data), time.Time{}, time.Time{})
	candles, err := ReadAll(feed)
	require.NoError(t, err)
	require.Len(t, candles, 2)

	assert.Equal(t, Candle{Timestamp: 1700000000, Open: 100, High: 105, Low: 99, Close: 102, Volume: 1000}, candles[0])
	assert.Equal(t, int64(1700000900), candles[1].Timestamp)
	assert.Equal(t, 0.0, candles[1].Volume)
}

func TestCSVCandleFeed_NoHeader(t *testing.T) {
	t.Parallel()

	data := "1700000000,100,105,99,102\n1700000900,102,107,101,105\n"
	candles, err := ReadAll(NewCSVCandleReader(strings.NewReader(data), time.Time{}, time.Time{}))
	require.NoError(t, err)
	assert.Len(t, candles, 2)
}

func TestCSVCandleFeed_BadPrice(t *testing.T) {
	t.Parallel()

	data := "1700000000,100,abc,99,102\n"
	_, err := ReadAll(NewCSVCandleReader(strings.NewReader(data), time.Time{}, time.Time{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad price")
}

func TestCSVCandleFeed_BadTime(t *testing.T) {
	t.Parallel()

	data := "yesterday,100,105,99,102\n"
	_, err := ReadAll(NewCSVCandleReader(strings.NewReader(data), time.Time{}, time.Time{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad time")
}

func TestCSVCandleFeed_Range(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "candles.csv")
	data := "1000,1,1,1,1\n2000,1,1,1,1\n3000,1,1,1,1\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	feed, err := NewCSVCandleFeed(path, time.Unix(2000, 0), time.Unix(3000, 0))
	require.NoError(t, err)
	candles, err := ReadAll(feed)
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, int64(2000), candles[0].Timestamp)
}

func TestNewCSVCandleFeed_Missing(t *testing.T) {
	t.Parallel()

	_, err := NewCSVCandleFeed(filepath.Join(t.TempDir(), "nope.csv"), time.Time{}, time.Time{})
	assert.Error(t, err)
}
