package backtest

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/rustyeddy/risingsun/journal"
	"github.com/rustyeddy/risingsun/ledger"
	"github.com/rustyeddy/risingsun/risk"
)

// Summary holds trade statistics derived from a ledger. Only closed
// trades count; a trailing open entry is ignored.
type Summary struct {
	Trades     int
	Wins       int
	Losses     int
	StopLosses int
	Targets    int
	Forced     int

	NetPnL       float64
	GrossProfit  float64
	GrossLoss    float64 // positive
	WinRate      float64 // 0..1
	ProfitFactor float64 // 0 when there are no losses
	MaxDrawdown  float64 // largest drop of cumulative PnL from its running peak
	AvgR         float64 // mean realised R multiple
}

// Summarize walks l pairing each exit with its entry.
func Summarize(l *ledger.Ledger) Summary {
	var (
		s     Summary
		entry ledger.TradeEvent
		peak  float64
		cum   float64
		sumR  float64
	)

	for _, e := range l.All() {
		if e.Kind == ledger.Entry {
			entry = e
			continue
		}

		pnl := e.PnL.Float64
		s.Trades++
		switch {
		case pnl > 0:
			s.Wins++
			s.GrossProfit += pnl
		case pnl < 0:
			s.Losses++
			s.GrossLoss -= pnl
		}

		switch e.Kind {
		case ledger.StopLossExit:
			s.StopLosses++
		case ledger.TargetExit:
			s.Targets++
		case ledger.ForcedExit:
			s.Forced++
		}

		if entry.StopLoss.Valid {
			planned := risk.PlannedRisk(entry.Quantity, entry.Price, entry.StopLoss.Float64)
			sumR += risk.RMultiple(pnl, planned)
		}

		cum += pnl
		peak = math.Max(peak, cum)
		s.MaxDrawdown = math.Max(s.MaxDrawdown, peak-cum)
	}

	s.NetPnL = l.NetPnL()
	if s.Trades > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Trades)
		s.AvgR = sumR / float64(s.Trades)
	}
	if s.GrossLoss > 0 {
		s.ProfitFactor = s.GrossProfit / s.GrossLoss
	}
	return s
}

func PrintRun(w io.Writer, r journal.Run) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", r.RunID)
	fmt.Fprintf(w, "Created:       %s\n", r.Created.Format(time.RFC3339))
	fmt.Fprintf(w, "Strategy:      %s\n", r.Strategy)
	fmt.Fprintf(w, "Instrument:    %s\n", r.Instrument)
	if r.Timeframe != "" {
		fmt.Fprintf(w, "Timeframe:     %s\n", r.Timeframe)
	}
	fmt.Fprintf(w, "Dataset:       %s\n", r.Dataset)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, "--------------------------------------------------")
	if r.Candles > 0 {
		fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
		fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Candles:       %d\n", r.Candles)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Strategy Configuration")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Risk per Trade: %.2f\n", r.RiskBudget)
	fmt.Fprintf(w, "Risk/Reward:   %.2f\n", r.RewardRisk)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", r.Trades)
	fmt.Fprintf(w, "Wins:          %d\n", r.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", r.Losses)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", r.WinRate*100)
	fmt.Fprintf(w, "Stop Losses:   %d\n", r.StopLosses)
	fmt.Fprintf(w, "Targets:       %d\n", r.Targets)
	fmt.Fprintf(w, "Forced:        %d\n", r.Forced)
	if r.Rejected > 0 {
		fmt.Fprintf(w, "Rejected:      %d\n", r.Rejected)
	}
	if r.OpenAtEnd {
		fmt.Fprintln(w, "Open at End:   yes")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Net P/L:       %.2f\n", r.NetPnL)
	if r.ProfitFactor > 0 {
		fmt.Fprintf(w, "Profit Factor: %.2f\n", r.ProfitFactor)
	}
	if r.MaxDrawdown > 0 {
		fmt.Fprintf(w, "Max Drawdown:  %.2f\n", r.MaxDrawdown)
	}
	if r.Trades > 0 {
		fmt.Fprintf(w, "Average R:     %.2f\n", r.AvgR)
	}

	if len(r.Notes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Observations")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, note := range r.Notes {
			fmt.Fprintf(w, "- %s\n", note)
		}
	}

	fmt.Fprintln(w)
}
