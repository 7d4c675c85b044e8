package journal

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/risingsun/ledger"
)

type SQLite struct {
	db *sql.DB
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordRun(r Run) error {
	return insertRun(j.db, r)
}

func (j *SQLite) RecordEvent(runID string, e ledger.TradeEvent) error {
	return insertEvent(j.db, runID, e)
}

// RecordAll stores a run and its ledger in one transaction. Nothing is
// written when any insert fails.
func (j *SQLite) RecordAll(r Run, l *ledger.Ledger) error {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}

	if err := insertRun(tx, r); err != nil {
		tx.Rollback()
		return err
	}
	for i := 0; i < l.Len(); i++ {
		if err := insertEvent(tx, r.RunID, l.At(i)); err != nil {
			tx.Rollback()
			return fmt.Errorf("record event %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

func insertRun(x execer, r Run) error {
	_, err := x.Exec(`
		INSERT INTO runs
		(run_id, created, instrument, dataset, timeframe, strategy, config,
		 reward_risk, risk_budget, start_time, end_time, candles,
		 trades, wins, losses, stop_losses, targets, forced, rejected, open_at_end,
		 net_pnl, win_rate, profit_factor, max_drawdown, avg_r, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Instrument, r.Dataset, r.Timeframe, r.Strategy, r.Config,
		r.RewardRisk, r.RiskBudget, r.Start, r.End, r.Candles,
		r.Trades, r.Wins, r.Losses, r.StopLosses, r.Targets, r.Forced, r.Rejected, r.OpenAtEnd,
		r.NetPnL, r.WinRate, r.ProfitFactor, r.MaxDrawdown, r.AvgR, strings.Join(r.Notes, "\n"),
	)
	return err
}

func insertEvent(x execer, runID string, e ledger.TradeEvent) error {
	_, err := x.Exec(`
		INSERT INTO events
		(run_id, idx, time, kind, price, quantity, stop_loss, target, risk_per_share, pnl, cumulative_pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, e.Index, e.Timestamp, e.Kind.String(), e.Price, e.Quantity,
		e.StopLoss, e.Target, e.RiskPerShare, e.PnL, e.CumulativePnL,
	)
	return err
}
