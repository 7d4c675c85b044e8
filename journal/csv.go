package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/rustyeddy/risingsun/ledger"
)

// CSV writes events and runs to two CSV files.
type CSV struct {
	events *csv.Writer
	runs   *csv.Writer
	ef, rf *os.File
}

var runsHeader = []string{
	"run_id", "created", "instrument", "dataset", "timeframe", "strategy",
	"reward_risk", "risk_budget", "start", "end", "candles",
	"trades", "wins", "losses", "stop_losses", "targets", "forced", "rejected", "open_at_end",
	"net_pnl", "win_rate", "profit_factor", "max_drawdown", "avg_r",
}

func NewCSV(eventsPath, runsPath string) (*CSV, error) {
	ef, err := os.Create(eventsPath)
	if err != nil {
		return nil, err
	}
	rf, err := os.Create(runsPath)
	if err != nil {
		ef.Close()
		return nil, err
	}

	ew := csv.NewWriter(ef)
	rw := csv.NewWriter(rf)

	if err := writeHeader(ew, append([]string{"run_id"}, ledger.Header...)); err != nil {
		ef.Close()
		rf.Close()
		return nil, err
	}
	if err := writeHeader(rw, runsHeader); err != nil {
		ef.Close()
		rf.Close()
		return nil, err
	}

	return &CSV{ew, rw, ef, rf}, nil
}

func (j *CSV) RecordEvent(runID string, e ledger.TradeEvent) error {
	if err := j.events.Write(append([]string{runID}, ledger.Row(e)...)); err != nil {
		return err
	}
	j.events.Flush()
	return j.events.Error()
}

func (j *CSV) RecordRun(r Run) error {
	err := j.runs.Write([]string{
		r.RunID,
		r.Created.UTC().Format(time.RFC3339),
		r.Instrument,
		r.Dataset,
		r.Timeframe,
		r.Strategy,
		f(r.RewardRisk),
		f(r.RiskBudget),
		r.Start.UTC().Format(time.RFC3339),
		r.End.UTC().Format(time.RFC3339),
		strconv.Itoa(r.Candles),
		strconv.Itoa(r.Trades),
		strconv.Itoa(r.Wins),
		strconv.Itoa(r.Losses),
		strconv.Itoa(r.StopLosses),
		strconv.Itoa(r.Targets),
		strconv.Itoa(r.Forced),
		strconv.Itoa(r.Rejected),
		strconv.FormatBool(r.OpenAtEnd),
		f(r.NetPnL),
		f(r.WinRate),
		f(r.ProfitFactor),
		f(r.MaxDrawdown),
		f(r.AvgR),
	})
	if err != nil {
		return err
	}

	j.runs.Flush()
	return j.runs.Error()
}

func (j *CSV) Close() error {
	j.events.Flush()
	if err := j.events.Error(); err != nil {
		return err
	}
	j.runs.Flush()
	if err := j.runs.Error(); err != nil {
		return err
	}

	if err := j.ef.Close(); err != nil {
		return err
	}
	if err := j.rf.Close(); err != nil {
		return err
	}
	return nil
}

func writeHeader(w *csv.Writer, header []string) error {
	if err := w.Write(header); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
