package sim

// State is the simulator position state.
type State int

const (
	Flat State = iota
	Long
)

func (s State) String() string {
	if s == Long {
		return "long"
	}
	return "flat"
}

// Position is the single open position. It only carries meaning while
// State is Long; the zero Position is flat.
type Position struct {
	State        State
	EntryIndex   int
	EntryPrice   float64
	StopLoss     float64
	Target       float64
	Quantity     float64
	RiskPerShare float64
}
