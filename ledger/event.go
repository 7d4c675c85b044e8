// Package ledger holds the ordered, append-only record of simulated trade
// events produced by a simulation run.
package ledger

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Kind classifies a TradeEvent.
type Kind int

const (
	Entry Kind = iota
	StopLossExit
	TargetExit
	ForcedExit
)

var kindNames = [...]string{
	Entry:        "entry",
	StopLossExit: "stop_loss",
	TargetExit:   "target",
	ForcedExit:   "forced",
}

// Kinds lists every Kind in a stable order.
var Kinds = []Kind{Entry, StopLossExit, TargetExit, ForcedExit}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsExit reports whether k closes a position.
func (k Kind) IsExit() bool {
	return k == StopLossExit || k == TargetExit || k == ForcedExit
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown event kind %q", s)
}

// TradeEvent is one entry or exit row.
//
// StopLoss, Target and RiskPerShare are set on entries only; PnL and
// CumulativePnL are set on exits only.
type TradeEvent struct {
	Index     int
	Timestamp int64
	Kind      Kind
	Price     float64
	Quantity  float64

	StopLoss     sql.NullFloat64
	Target       sql.NullFloat64
	RiskPerShare sql.NullFloat64

	PnL           sql.NullFloat64
	CumulativePnL sql.NullFloat64
}

// Time returns the event candle time in UTC.
func (e TradeEvent) Time() time.Time {
	return time.Unix(e.Timestamp, 0).UTC()
}

// Float wraps f as a defined optional value.
func Float(f float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: f, Valid: true}
}
