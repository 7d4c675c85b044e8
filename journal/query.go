package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rustyeddy/risingsun/ledger"
)

const runColumns = `run_id, created, instrument, dataset, timeframe, strategy, config,
	reward_risk, risk_budget, start_time, end_time, candles,
	trades, wins, losses, stop_losses, targets, forced, rejected, open_at_end,
	net_pnl, win_rate, profit_factor, max_drawdown, avg_r, notes`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		r     Run
		notes string
	)
	err := s.Scan(
		&r.RunID, &r.Created, &r.Instrument, &r.Dataset, &r.Timeframe, &r.Strategy, &r.Config,
		&r.RewardRisk, &r.RiskBudget, &r.Start, &r.End, &r.Candles,
		&r.Trades, &r.Wins, &r.Losses, &r.StopLosses, &r.Targets, &r.Forced, &r.Rejected, &r.OpenAtEnd,
		&r.NetPnL, &r.WinRate, &r.ProfitFactor, &r.MaxDrawdown, &r.AvgR, &notes,
	)
	if notes != "" {
		r.Notes = strings.Split(notes, "\n")
	}
	return r, err
}

// GetRun returns a single run by ID.
func (j *SQLite) GetRun(runID string) (Run, error) {
	row := j.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)

	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, fmt.Errorf("run %q not found", runID)
		}
		return Run{}, err
	}
	return r, nil
}

// ListRuns returns all runs, newest first.
func (j *SQLite) ListRuns() ([]Run, error) {
	rows, err := j.db.Query(`SELECT ` + runColumns + ` FROM runs ORDER BY created DESC, run_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEvents returns the events of a run in emission order.
func (j *SQLite) ListEvents(runID string) ([]ledger.TradeEvent, error) {
	rows, err := j.db.Query(`
		SELECT idx, time, kind, price, quantity, stop_loss, target, risk_per_share, pnl, cumulative_pnl
		FROM events
		WHERE run_id = ?
		ORDER BY id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.TradeEvent
	for rows.Next() {
		var (
			e    ledger.TradeEvent
			kind string
		)
		if err := rows.Scan(
			&e.Index,
			&e.Timestamp,
			&kind,
			&e.Price,
			&e.Quantity,
			&e.StopLoss,
			&e.Target,
			&e.RiskPerShare,
			&e.PnL,
			&e.CumulativePnL,
		); err != nil {
			return nil, err
		}
		if e.Kind, err = ledger.ParseKind(kind); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadLedger rebuilds the ledger of a run.
func (j *SQLite) LoadLedger(runID string) (*ledger.Ledger, error) {
	events, err := j.ListEvents(runID)
	if err != nil {
		return nil, err
	}
	l := ledger.New()
	for _, e := range events {
		if err := l.Append(e); err != nil {
			return nil, err
		}
	}
	return l, nil
}
