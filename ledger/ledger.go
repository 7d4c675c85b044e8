package ledger

import (
	"database/sql"
	"fmt"
	"iter"
	"strconv"
)

// Ledger is an append-only sequence of TradeEvents in emission order.
// Events are never reordered or mutated once appended.
type Ledger struct {
	events []TradeEvent
	cum    float64
}

func New() *Ledger {
	return &Ledger{}
}

// Append adds e to the end of the ledger. Events must arrive in
// non-decreasing index order.
func (l *Ledger) Append(e TradeEvent) error {
	if n := len(l.events); n > 0 && e.Index < l.events[n-1].Index {
		return fmt.Errorf("ledger: event index %d precedes last index %d", e.Index, l.events[n-1].Index)
	}
	if e.Kind.IsExit() {
		if !e.PnL.Valid || !e.CumulativePnL.Valid {
			return fmt.Errorf("ledger: %s event at %d missing pnl", e.Kind, e.Index)
		}
		l.cum = e.CumulativePnL.Float64
	}
	l.events = append(l.events, e)
	return nil
}

func (l *Ledger) Len() int {
	return len(l.events)
}

// At returns the i-th event.
func (l *Ledger) At(i int) TradeEvent {
	return l.events[i]
}

// Events returns a copy of all events.
func (l *Ledger) Events() []TradeEvent {
	out := make([]TradeEvent, len(l.events))
	copy(out, l.events)
	return out
}

// All iterates events in order.
func (l *Ledger) All() iter.Seq2[int, TradeEvent] {
	return func(yield func(int, TradeEvent) bool) {
		for i, e := range l.events {
			if !yield(i, e) {
				return
			}
		}
	}
}

// NetPnL is the sum of all exit PnLs.
func (l *Ledger) NetPnL() float64 {
	sum := 0.0
	for _, e := range l.events {
		if e.Kind.IsExit() {
			sum += e.PnL.Float64
		}
	}
	return sum
}

// CumulativePnL is the running total carried on the last exit.
func (l *Ledger) CumulativePnL() float64 {
	return l.cum
}

// CountByKind counts events per Kind. Every Kind is present in the map.
func (l *Ledger) CountByKind() map[Kind]int {
	out := make(map[Kind]int, len(Kinds))
	for _, k := range Kinds {
		out[k] = 0
	}
	for _, e := range l.events {
		out[e.Kind]++
	}
	return out
}

// Open returns the trailing Entry that has no matching exit, if any.
// A position still open when the candles run out is left this way.
func (l *Ledger) Open() (TradeEvent, bool) {
	n := len(l.events)
	if n == 0 || l.events[n-1].Kind != Entry {
		return TradeEvent{}, false
	}
	return l.events[n-1], true
}

// Header is the column order used by Rows.
var Header = []string{
	"index", "time", "kind", "price", "quantity",
	"stop_loss", "target", "risk_per_share", "pnl", "cumulative_pnl",
}

// Rows renders the ledger as string rows matching Header. Absent values
// are empty cells.
func (l *Ledger) Rows() [][]string {
	out := make([][]string, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, Row(e))
	}
	return out
}

// Row renders a single event in Header order.
func Row(e TradeEvent) []string {
	return []string{
		strconv.Itoa(e.Index),
		strconv.FormatInt(e.Timestamp, 10),
		e.Kind.String(),
		f(e.Price),
		f(e.Quantity),
		nf(e.StopLoss),
		nf(e.Target),
		nf(e.RiskPerShare),
		nf(e.PnL),
		nf(e.CumulativePnL),
	}
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

func nf(x sql.NullFloat64) string {
	if !x.Valid {
		return ""
	}
	return f(x.Float64)
}
