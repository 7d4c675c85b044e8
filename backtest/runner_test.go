package backtest

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/risingsun/journal"
	"github.com/rustyeddy/risingsun/market"
	"github.com/rustyeddy/risingsun/metrics"
	"github.com/rustyeddy/risingsun/sim"
)

func testParams() sim.Params {
	return sim.Params{
		ATRPeriod:        12,
		Multiplier:       3,
		EMAPeriod:        5,
		RewardRisk:       4,
		RiskBudget:       500,
		ForcedClosure:    true,
		BoundaryBase:     71,
		BoundaryInterval: 75,
	}
}

func randomWalk(seed int64, n int) []market.Candle {
	rng := rand.New(rand.NewSource(seed))
	out := make([]market.Candle, n)
	px := 100.0
	for i := range out {
		o := px
		px += rng.NormFloat64() * 1.5
		if px < 5 {
			px = 5
		}
		out[i] = market.Candle{
			Timestamp: 1_700_000_000 + int64(i)*900,
			Open:      o,
			High:      max(o, px) + rng.Float64(),
			Low:       min(o, px) - rng.Float64(),
			Close:     px,
		}
	}
	return out
}

func toCSV(candles []market.Candle) string {
	var b strings.Builder
	b.WriteString("time,open,high,low,close\n")
	g := func(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }
	for _, c := range candles {
		b.WriteString(strings.Join([]string{
			strconv.FormatInt(c.Timestamp, 10), g(c.Open), g(c.High), g(c.Low), g(c.Close),
		}, ","))
		b.WriteByte('\n')
	}
	return b.String()
}

func feedOf(candles []market.Candle) market.CandleFeed {
	return market.NewCSVCandleReader(strings.NewReader(toCSV(candles)), time.Time{}, time.Time{})
}

type errFeed struct{ closed bool }

func (e *errFeed) Next() (market.Candle, bool, error) {
	return market.Candle{}, false, errors.New("mock error")
}

func (e *errFeed) Close() error {
	e.closed = true
	return nil
}

func fixedNow() time.Time {
	return time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
}

func TestRunnerValidation(t *testing.T) {
	t.Parallel()

	r := &Runner{}

	_, err := r.Run(context.Background(), Job{Instrument: "X"})
	assert.ErrorContains(t, err, "Feed is required")

	f := &errFeed{}
	_, err = r.Run(context.Background(), Job{Feed: f})
	assert.ErrorContains(t, err, "Instrument is required")
	assert.True(t, f.closed)

	f = &errFeed{}
	_, err = r.Run(context.Background(), Job{Instrument: "X", Feed: f, Params: testParams()})
	assert.ErrorContains(t, err, "mock error")
	assert.True(t, f.closed)

	_, err = r.Run(context.Background(), Job{Instrument: "X", Feed: feedOf(randomWalk(1, 10)), Params: sim.Params{}})
	assert.ErrorIs(t, err, sim.ErrInvalidParams)
}

func TestRunnerCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&Runner{}).Run(ctx, Job{Instrument: "X", Feed: feedOf(randomWalk(1, 10)), Params: testParams()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunnerMalformedCandles(t *testing.T) {
	t.Parallel()

	candles := randomWalk(1, 50)
	candles[10].Timestamp = candles[9].Timestamp

	_, err := (&Runner{}).Run(context.Background(), Job{Instrument: "X", Feed: feedOf(candles), Params: testParams()})
	var ierr *market.InputError
	require.ErrorAs(t, err, &ierr)
	assert.True(t, ierr.Fatal())
}

func TestRunnerMatchesSimulator(t *testing.T) {
	t.Parallel()

	candles := randomWalk(42, 2000)

	s, err := sim.New(testParams())
	require.NoError(t, err)
	want, err := s.Run(candles)
	require.NoError(t, err)

	r := &Runner{Now: fixedNow}
	out, err := r.Run(context.Background(), Job{
		RunID:      "R1",
		Instrument: "NIFTY",
		Dataset:    "walk-42",
		Timeframe:  "15m",
		Feed:       feedOf(candles),
		Params:     testParams(),
	})
	require.NoError(t, err)

	assert.Equal(t, want.Ledger.Rows(), out.Result.Ledger.Rows())
	assert.Equal(t, "R1", out.Run.RunID)
	assert.Equal(t, fixedNow(), out.Run.Created)
	assert.Equal(t, StrategyName, out.Run.Strategy)
	assert.Equal(t, 2000, out.Run.Candles)
	assert.Equal(t, candles[0].Time(), out.Run.Start)
	assert.Equal(t, candles[1999].Time(), out.Run.End)
	assert.Equal(t, Summarize(want.Ledger), out.Summary)
	assert.Equal(t, out.Summary.Trades, out.Run.Trades)
	assert.InDelta(t, want.Ledger.NetPnL(), out.Run.NetPnL, 1e-9)
	assert.Equal(t, want.Open != nil, out.Run.OpenAtEnd)
	if want.Open != nil {
		last := candles[len(candles)-1].Close
		assert.Contains(t, out.Run.Notes, fmt.Sprintf(
			"position opened at %d still open at end of data, unrealized %.2f",
			want.Open.EntryIndex, sim.UnrealizedPL(*want.Open, last)))
	}
}

func TestRunnerGeneratesRunID(t *testing.T) {
	t.Parallel()

	out, err := (&Runner{}).Run(context.Background(), Job{
		Instrument: "NIFTY",
		Feed:       feedOf(randomWalk(3, 100)),
		Params:     testParams(),
	})
	require.NoError(t, err)
	assert.Len(t, out.Run.RunID, 26)
}

func TestRunnerShortSeriesNote(t *testing.T) {
	t.Parallel()

	out, err := (&Runner{}).Run(context.Background(), Job{
		Instrument: "NIFTY",
		Feed:       feedOf(randomWalk(3, 5)),
		Params:     testParams(),
	})
	require.NoError(t, err)
	require.NotNil(t, out.Result.Short)
	assert.Contains(t, out.Run.Notes, "only 5 candles, indicators need 12 to warm up")
	assert.Zero(t, out.Result.Ledger.Len())
}

func TestRunnerJournalKeepsNotes(t *testing.T) {
	t.Parallel()

	j, err := journal.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	r := &Runner{Journal: j, Now: fixedNow}
	out, err := r.Run(context.Background(), Job{
		RunID:      "R1",
		Instrument: "NIFTY",
		Feed:       feedOf(randomWalk(3, 5)),
		Params:     testParams(),
	})
	require.NoError(t, err)

	got, err := j.GetRun("R1")
	require.NoError(t, err)
	assert.Equal(t, out.Run.Notes, got.Notes)
}

func TestRunnerJournalsAndObserves(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	j, err := journal.NewSQLite(filepath.Join(dir, "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	m := metrics.New()
	r := &Runner{Journal: j, Metrics: m, OrgDir: dir, Now: fixedNow}

	out, err := r.Run(context.Background(), Job{
		RunID:      "R1",
		Instrument: "NIFTY",
		Feed:       feedOf(randomWalk(1, 2000)),
		Params:     testParams(),
		Config:     []byte("strategy: {}\n"),
	})
	require.NoError(t, err)

	got, err := j.GetRun("R1")
	require.NoError(t, err)
	assert.Equal(t, out.Run.Trades, got.Trades)
	assert.Equal(t, out.Run.Config, got.Config)
	assert.InDelta(t, out.Run.NetPnL, got.NetPnL, 1e-9)

	back, err := j.LoadLedger("R1")
	require.NoError(t, err)
	assert.Equal(t, out.Result.Ledger.Rows(), back.Rows())

	org, err := os.ReadFile(filepath.Join(dir, "R1.org"))
	require.NoError(t, err)
	assert.Contains(t, string(org), ":RUN_ID:      R1")

	path := filepath.Join(dir, "m.prom")
	require.NoError(t, m.WriteTextfile(path))
	prom, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "risingsun_candles_total 2000")
}

func TestRunAllKeepsJobOrder(t *testing.T) {
	t.Parallel()

	seeds := []int64{1, 2, 3, 4, 5, 6}
	jobs := make([]Job, len(seeds))
	for i, seed := range seeds {
		jobs[i] = Job{
			RunID:      "R" + strconv.Itoa(i),
			Instrument: "I" + strconv.Itoa(i),
			Feed:       feedOf(randomWalk(seed, 500+int(seed)*100)),
			Params:     testParams(),
		}
	}

	dir := t.TempDir()
	j, err := journal.NewSQLite(filepath.Join(dir, "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	out, err := (&Runner{Journal: j}).RunAll(context.Background(), jobs)
	require.NoError(t, err)
	require.Len(t, out, len(jobs))

	for i, o := range out {
		assert.Equal(t, "I"+strconv.Itoa(i), o.Run.Instrument)
		assert.Equal(t, 500+int(seeds[i])*100, o.Run.Candles)

		s, err := sim.New(testParams())
		require.NoError(t, err)
		want, err := s.Run(randomWalk(seeds[i], 500+int(seeds[i])*100))
		require.NoError(t, err)
		assert.Equal(t, want.Ledger.Rows(), o.Result.Ledger.Rows())
	}

	runs, err := j.ListRuns()
	require.NoError(t, err)
	assert.Len(t, runs, len(jobs))
}

func TestRunAllJoinsErrors(t *testing.T) {
	t.Parallel()

	jobs := []Job{
		{Instrument: "OK", Feed: feedOf(randomWalk(1, 100)), Params: testParams()},
		{Instrument: "BAD", Feed: &errFeed{}, Params: testParams()},
	}

	out, err := (&Runner{}).RunAll(context.Background(), jobs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job 1 (BAD)")
	assert.Equal(t, "OK", out[0].Run.Instrument)
	assert.Empty(t, out[1].Run.Instrument)
}
