// Package backtest drives a candle feed through the simulator and records
// the result.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/risingsun/journal"
	"github.com/rustyeddy/risingsun/market"
	"github.com/rustyeddy/risingsun/metrics"
	"github.com/rustyeddy/risingsun/pkg/id"
	"github.com/rustyeddy/risingsun/pkg/logger"
	"github.com/rustyeddy/risingsun/sim"
)

const StrategyName = "supertrend_ema"

// Job is one instrument and dataset to simulate.
type Job struct {
	RunID      string // generated when empty
	Instrument string
	Dataset    string
	Timeframe  string
	Feed       market.CandleFeed
	Params     sim.Params
	Config     []byte // recorded with the run
}

// Outcome is everything a finished job produced.
type Outcome struct {
	Run     journal.Run
	Result  sim.Result
	Summary Summary
	Candles []market.Candle
}

// Runner runs jobs. Journal, Metrics and OrgDir are optional.
type Runner struct {
	Journal journal.Journal
	Metrics *metrics.Metrics
	OrgDir  string
	Log     *zap.Logger

	// Now stamps runs; time.Now when nil.
	Now func() time.Time

	mu sync.Mutex // serialises journal writes
}

func (r *Runner) logger() *zap.Logger {
	if r.Log == nil {
		return logger.Nop()
	}
	return r.Log
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now().UTC()
	}
	return r.Now().UTC()
}

// Run executes one job:
//  1. read every candle from the feed
//  2. validate, compute indicators and simulate
//  3. summarise, journal and observe metrics
func (r *Runner) Run(ctx context.Context, job Job) (Outcome, error) {
	if job.Feed == nil {
		return Outcome{}, fmt.Errorf("backtest: Feed is required")
	}
	defer job.Feed.Close()

	if job.Instrument == "" {
		return Outcome{}, fmt.Errorf("backtest: Instrument is required")
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	created := r.now()
	runID := job.RunID
	switch {
	case runID != "":
	case r.Now == nil:
		runID = id.New()
	default:
		runID = id.At(created)
	}
	log := r.logger().With(
		zap.String("run_id", runID),
		zap.String("instrument", job.Instrument),
	)

	candles, err := market.ReadAll(job.Feed)
	if err != nil {
		return Outcome{}, fmt.Errorf("backtest: read candles: %w", err)
	}

	s, err := sim.New(job.Params, sim.WithLogger(log))
	if err != nil {
		return Outcome{}, err
	}

	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	log.Info("run started",
		zap.String("dataset", job.Dataset),
		zap.Int("candles", len(candles)),
	)

	started := time.Now()
	res, err := s.Run(candles)
	if err != nil {
		log.Error("run failed", zap.Error(err))
		return Outcome{}, fmt.Errorf("backtest: %s: %w", job.Instrument, err)
	}
	elapsed := time.Since(started)

	sum := Summarize(res.Ledger)
	run := journal.Run{
		RunID:        runID,
		Created:      created,
		Instrument:   job.Instrument,
		Dataset:      job.Dataset,
		Timeframe:    job.Timeframe,
		Strategy:     StrategyName,
		Config:       job.Config,
		RewardRisk:   job.Params.RewardRisk,
		RiskBudget:   job.Params.RiskBudget,
		Candles:      len(candles),
		Trades:       sum.Trades,
		Wins:         sum.Wins,
		Losses:       sum.Losses,
		StopLosses:   sum.StopLosses,
		Targets:      sum.Targets,
		Forced:       sum.Forced,
		Rejected:     len(res.Rejections),
		OpenAtEnd:    res.Open != nil,
		NetPnL:       sum.NetPnL,
		WinRate:      sum.WinRate,
		ProfitFactor: sum.ProfitFactor,
		MaxDrawdown:  sum.MaxDrawdown,
		AvgR:         sum.AvgR,
		Notes:        notes(res, candles),
	}
	if len(candles) > 0 {
		run.Start = candles[0].Time()
		run.End = candles[len(candles)-1].Time()
	}

	if err := r.record(run, res); err != nil {
		return Outcome{}, err
	}

	if r.Metrics != nil {
		r.Metrics.Observe(job.Instrument, len(candles), res, elapsed)
	}

	log.Info("run finished",
		zap.Int("candles", len(candles)),
		zap.Int("events", res.Ledger.Len()),
		zap.Int("trades", sum.Trades),
		zap.Int("rejected", len(res.Rejections)),
		zap.Float64("net_pnl", sum.NetPnL),
		zap.Duration("execution_time", elapsed),
	)

	return Outcome{Run: run, Result: res, Summary: sum, Candles: candles}, nil
}

func (r *Runner) record(run journal.Run, res sim.Result) error {
	if r.Journal != nil {
		r.mu.Lock()
		err := journal.Record(r.Journal, run, res.Ledger)
		r.mu.Unlock()
		if err != nil {
			return fmt.Errorf("backtest: journal %s: %w", run.RunID, err)
		}
	}

	if r.OrgDir != "" {
		path := filepath.Join(r.OrgDir, run.RunID+".org")
		if err := journal.WriteOrg(path, run, res.Ledger.Events()); err != nil {
			return fmt.Errorf("backtest: org report: %w", err)
		}
	}
	return nil
}

func notes(res sim.Result, candles []market.Candle) []string {
	var out []string
	if res.Short != nil {
		out = append(out, fmt.Sprintf("only %d candles, indicators need %d to warm up",
			res.Short.Got, res.Short.Need))
	}
	for _, d := range res.Rejections {
		out = append(out, d.Error())
	}
	if res.Open != nil && len(candles) > 0 {
		last := candles[len(candles)-1].Close
		out = append(out, fmt.Sprintf("position opened at %d still open at end of data, unrealized %.2f",
			res.Open.EntryIndex, sim.UnrealizedPL(*res.Open, last)))
	}
	return out
}

// RunAll runs jobs in parallel, one goroutine per job, each with its own
// simulator. Outcomes come back in job order; a failed job leaves a zero
// Outcome in its slot and its error in the joined error.
func (r *Runner) RunAll(ctx context.Context, jobs []Job) ([]Outcome, error) {
	out := make([]Outcome, len(jobs))
	errs := make([]error, len(jobs))

	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, err := r.Run(ctx, job)
			if err != nil {
				errs[i] = fmt.Errorf("job %d (%s): %w", i, job.Instrument, err)
				return
			}
			out[i] = o
		}()
	}
	wg.Wait()

	return out, errors.Join(errs...)
}
