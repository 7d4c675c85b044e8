// Package journal persists simulation runs and their trade ledgers.
package journal

import (
	"time"

	"github.com/rustyeddy/risingsun/ledger"
)

// Run is one simulation run and its headline results.
type Run struct {
	RunID      string
	Created    time.Time
	Instrument string
	Dataset    string
	Timeframe  string
	Strategy   string
	Config     []byte // strategy config as YAML

	RewardRisk float64
	RiskBudget float64

	// Candle range simulated
	Start   time.Time
	End     time.Time
	Candles int

	// Results
	Trades     int
	Wins       int
	Losses     int
	StopLosses int
	Targets    int
	Forced     int
	Rejected   int
	OpenAtEnd  bool

	NetPnL       float64
	WinRate      float64
	ProfitFactor float64
	MaxDrawdown  float64
	AvgR         float64

	Notes []string
}

// Journal records runs and the events of their ledgers.
type Journal interface {
	RecordRun(Run) error
	RecordEvent(runID string, e ledger.TradeEvent) error
	Close() error
}

// RecordLedger writes every event of l in order.
func RecordLedger(j Journal, runID string, l *ledger.Ledger) error {
	for _, e := range l.All() {
		if err := j.RecordEvent(runID, e); err != nil {
			return err
		}
	}
	return nil
}

// Record stores a run and its ledger. Journals that can write both
// atomically do so; others get the run followed by each event.
func Record(j Journal, r Run, l *ledger.Ledger) error {
	if a, ok := j.(interface {
		RecordAll(Run, *ledger.Ledger) error
	}); ok {
		return a.RecordAll(r, l)
	}
	if err := j.RecordRun(r); err != nil {
		return err
	}
	return RecordLedger(j, r.RunID, l)
}
