// Package sim runs the single-position trade simulation over a candle
// series and its indicator rows.
package sim

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rustyeddy/risingsun/indicators"
	"github.com/rustyeddy/risingsun/ledger"
	"github.com/rustyeddy/risingsun/market"
	"github.com/rustyeddy/risingsun/pkg/logger"
	"github.com/rustyeddy/risingsun/risk"
)

var (
	ErrInvalidParams = errors.New("invalid params")

	ErrZeroRisk            = risk.ErrZeroRisk
	ErrNonPositiveQuantity = risk.ErrNonPositiveQuantity
)

// DomainError is a rejected entry. The scan skips it and keeps going.
type DomainError struct {
	Index int
	Err   error
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("entry at %d rejected: %v", e.Index, e.Err)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Params configures a simulation. There are no hidden defaults; see
// config.Default for the values the strategy was tuned with.
type Params struct {
	ATRPeriod  int
	Multiplier float64
	EMAPeriod  int

	RewardRisk float64 // target distance in multiples of risk per share
	RiskBudget float64 // cash lost if the stop is hit
	Rounding   risk.Rounding

	// The boundary is tracked and checked even when ForcedClosure is off.
	ForcedClosure    bool
	BoundaryBase     int
	BoundaryInterval int

	// Cooldown is the number of bars after an exit during which no new
	// entry is taken. 0 disables it.
	Cooldown int
}

func (p Params) Indicators() indicators.Params {
	return indicators.Params{
		ATRPeriod:  p.ATRPeriod,
		Multiplier: p.Multiplier,
		EMAPeriod:  p.EMAPeriod,
	}
}

func (p Params) Validate() error {
	if err := p.Indicators().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if p.RewardRisk <= 0 {
		return fmt.Errorf("%w: reward/risk must be positive, got %g", ErrInvalidParams, p.RewardRisk)
	}
	if p.RiskBudget <= 0 {
		return fmt.Errorf("%w: risk budget must be positive, got %g", ErrInvalidParams, p.RiskBudget)
	}
	if p.BoundaryBase <= 0 {
		return fmt.Errorf("%w: boundary base must be positive, got %d", ErrInvalidParams, p.BoundaryBase)
	}
	if p.BoundaryInterval <= 0 {
		return fmt.Errorf("%w: boundary interval must be positive, got %d", ErrInvalidParams, p.BoundaryInterval)
	}
	if p.Cooldown < 0 {
		return fmt.Errorf("%w: cooldown must not be negative, got %d", ErrInvalidParams, p.Cooldown)
	}
	if _, ok := roundingOK[p.Rounding]; !ok {
		return fmt.Errorf("%w: unknown rounding %s", ErrInvalidParams, p.Rounding)
	}
	return nil
}

var roundingOK = map[risk.Rounding]struct{}{
	risk.RoundNone:    {},
	risk.RoundFloor:   {},
	risk.RoundNearest: {},
	risk.RoundCeil:    {},
}

// Result is the outcome of one run.
type Result struct {
	Ledger     *ledger.Ledger
	Rows       []indicators.Row
	Rejections []*DomainError

	// Open is the position left open when the candles ran out, or nil.
	Open *Position

	// Short is set when the series was shorter than the indicator warm-up.
	Short *market.InputError
}

// Simulator owns all mutable state of a run. One Simulator must not be
// shared between goroutines; run independent series on independent
// Simulators.
type Simulator struct {
	params Params
	log    *zap.Logger

	pos           Position
	boundary      Boundary
	cooldownUntil int
	cum           float64
	ledger        *ledger.Ledger
	rejections    []*DomainError
}

type Option func(*Simulator)

// WithLogger sets the logger. Entries and exits are logged at debug,
// rejected entries at warn.
func WithLogger(l *zap.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.log = l
		}
	}
}

// New validates p and returns a Simulator.
func New(p Params, opts ...Option) (*Simulator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{
		params: p,
		log:    logger.Nop(),
		boundary: Boundary{
			Base:     p.BoundaryBase,
			Interval: p.BoundaryInterval,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Simulator) Params() Params {
	return s.params
}

// Run validates candles, computes indicators and simulates. Malformed
// candles are an error; a series that is merely short runs with the
// warning attached to the Result.
func (s *Simulator) Run(candles []market.Candle) (Result, error) {
	ip := s.params.Indicators()

	var short *market.InputError
	if ierr := market.Validate(candles, ip.Warmup()); ierr != nil {
		if ierr.Fatal() {
			return Result{}, ierr
		}
		short = ierr
		s.log.Warn("candle series shorter than warm-up",
			zap.Int("need", ierr.Need),
			zap.Int("got", ierr.Got),
		)
	}

	rows, err := indicators.Compute(candles, ip)
	if err != nil {
		return Result{}, err
	}

	res, err := s.Simulate(candles, rows)
	if err != nil {
		return Result{}, err
	}
	res.Short = short
	return res, nil
}

// Simulate scans candles with precomputed rows. State is reset first, so
// calling it twice with the same input gives the same ledger.
func (s *Simulator) Simulate(candles []market.Candle, rows []indicators.Row) (Result, error) {
	if len(rows) != len(candles) {
		return Result{}, fmt.Errorf("sim: %d indicator rows for %d candles", len(rows), len(candles))
	}

	s.reset()
	for i := range candles {
		if err := s.step(i, candles, rows); err != nil {
			return Result{}, err
		}
	}

	res := Result{
		Ledger:     s.ledger,
		Rows:       rows,
		Rejections: s.rejections,
	}
	if s.pos.State == Long {
		open := s.pos
		res.Open = &open
		s.log.Debug("position left open at end of data",
			zap.Int("entry_index", open.EntryIndex),
			zap.Float64("entry_price", open.EntryPrice),
		)
	}
	return res, nil
}

func (s *Simulator) reset() {
	s.pos = Position{}
	s.boundary.reset()
	s.cooldownUntil = -1
	s.cum = 0
	s.ledger = ledger.New()
	s.rejections = nil
}

// step evaluates index i. At most one transition fires per index.
func (s *Simulator) step(i int, candles []market.Candle, rows []indicators.Row) error {
	var err error
	switch s.pos.State {
	case Flat:
		if i > s.cooldownUntil && entrySignal(i, candles, rows) {
			err = s.enter(i, candles)
		}
	case Long:
		forced := s.params.ForcedClosure && i >= s.boundary.Index()
		if kind, ok := exitTrigger(s.pos, candles[i].Close, forced); ok {
			err = s.exit(i, candles[i], kind)
		}
	}
	s.boundary.Advance(i)
	return err
}

func (s *Simulator) enter(i int, candles []market.Candle) error {
	signal, next := candles[i], candles[i+1]
	stop := min(signal.Low, next.Low)

	plan, err := risk.Size(next.Close, stop, s.params.RiskBudget, s.params.RewardRisk, s.params.Rounding)
	if err != nil {
		derr := &DomainError{Index: i, Err: err}
		s.rejections = append(s.rejections, derr)
		s.log.Warn("entry rejected",
			zap.Int("index", i),
			zap.Float64("entry", next.Close),
			zap.Float64("stop", stop),
			zap.Error(err),
		)
		return nil
	}

	s.pos = Position{
		State:        Long,
		EntryIndex:   i + 1,
		EntryPrice:   plan.Entry,
		StopLoss:     plan.Stop,
		Target:       plan.Target,
		Quantity:     plan.Quantity,
		RiskPerShare: plan.RiskPerShare,
	}

	s.log.Debug("entry",
		zap.Int("index", i),
		zap.Float64("price", plan.Entry),
		zap.Float64("stop", plan.Stop),
		zap.Float64("target", plan.Target),
		zap.Float64("quantity", plan.Quantity),
	)

	return s.ledger.Append(ledger.TradeEvent{
		Index:        i,
		Timestamp:    signal.Timestamp,
		Kind:         ledger.Entry,
		Price:        plan.Entry,
		Quantity:     plan.Quantity,
		StopLoss:     ledger.Float(plan.Stop),
		Target:       ledger.Float(plan.Target),
		RiskPerShare: ledger.Float(plan.RiskPerShare),
	})
}

func (s *Simulator) exit(i int, c market.Candle, kind ledger.Kind) error {
	pnl := realizedPL(s.pos, c.Close)
	s.cum += pnl

	ev := ledger.TradeEvent{
		Index:         i,
		Timestamp:     c.Timestamp,
		Kind:          kind,
		Price:         c.Close,
		Quantity:      s.pos.Quantity,
		PnL:           ledger.Float(pnl),
		CumulativePnL: ledger.Float(s.cum),
	}

	s.log.Debug("exit",
		zap.Int("index", i),
		zap.Stringer("kind", kind),
		zap.Float64("price", c.Close),
		zap.Float64("pnl", pnl),
		zap.Float64("cumulative_pnl", s.cum),
		zap.Int("boundaries_passed", s.boundary.N()),
	)

	s.pos = Position{}
	s.cooldownUntil = i + s.params.Cooldown
	return s.ledger.Append(ev)
}
