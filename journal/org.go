package journal

import (
	"bytes"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/rustyeddy/risingsun/ledger"
	"github.com/rustyeddy/risingsun/risk"
)

// Report is the data behind the Org-mode run report.
type Report struct {
	Run
	Events []ledger.TradeEvent
}

var orgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
	"opt": func(v sql.NullFloat64) string {
		if !v.Valid {
			return ""
		}
		return fmt.Sprintf("%.2f", v.Float64)
	},
	"stamp": func(e ledger.TradeEvent) string {
		return e.Time().Format("2006-01-02 15:04")
	},
}

var orgTemplate = template.Must(template.New("run").Funcs(orgFuncs).Parse(OrgTemplate))

// FormatOrg renders the report for r and its events.
func FormatOrg(r Run, events []ledger.TradeEvent) (string, error) {
	var buf bytes.Buffer
	if err := orgTemplate.Execute(&buf, Report{Run: r, Events: events}); err != nil {
		return "", fmt.Errorf("render org report: %w", err)
	}
	return buf.String(), nil
}

// WriteOrg renders the report to path.
func WriteOrg(path string, r Run, events []ledger.TradeEvent) error {
	s, err := FormatOrg(r, events)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(s), 0644)
}

// FormatEventOrg renders a single event as an Org list item.
func FormatEventOrg(e ledger.TradeEvent) string {
	var b strings.Builder

	fmt.Fprintf(&b, "- [%s] %s #%d @ %.5f x %.4f",
		e.Time().Format("2006-01-02 15:04"), e.Kind, e.Index, e.Price, e.Quantity)
	if e.StopLoss.Valid {
		fmt.Fprintf(&b, " SL %.5f", e.StopLoss.Float64)
	}
	if e.Target.Valid {
		fmt.Fprintf(&b, " TP %.5f", e.Target.Float64)
	}
	if e.StopLoss.Valid && e.Target.Valid {
		fmt.Fprintf(&b, " RR %.2f", risk.RR(e.Price, e.StopLoss.Float64, e.Target.Float64))
	}
	if e.PnL.Valid {
		fmt.Fprintf(&b, " PnL %.2f", e.PnL.Float64)
	}
	if e.CumulativePnL.Valid {
		fmt.Fprintf(&b, " (cum %.2f)", e.CumulativePnL.Float64)
	}
	return b.String()
}

const OrgTemplate = `* BACKTEST: {{if .Strategy}}{{.Strategy}}{{else}}supertrend_ema{{end}} {{.Instrument}} {{if .Timeframe}}{{.Timeframe}}{{else}}(timeframe?){{end}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:INSTRUMENT:  {{.Instrument}}
:DATASET:     {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:CANDLES:     {{.Candles}}
:NET_PL:      {{printf "%.2f" .NetPnL}}
:MAX_DD:      {{printf "%.2f" .MaxDrawdown}}
:TRADES:      {{.Trades}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:WIN_RATE:    {{printf "%.2f" (mul100 .WinRate)}}
:PROFIT_FAC:  {{if ne .ProfitFactor 0.0}}{{printf "%.2f" .ProfitFactor}}{{else}}(profit-factor?){{end}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Strategy Parameters
| Parameter       | Value |
|-----------------+-------|
| R:R             | {{printf "%.2f" .RewardRisk}} |
| Risk per Trade  | {{printf "%.2f" .RiskBudget}} |
{{- if .Config }}

#+begin_src yaml
{{printf "%s" .Config}}#+end_src
{{- end }}

** Performance Summary
- Net P/L:          *{{printf "%.2f" .NetPnL}}*
- Max Drawdown:     *{{printf "%.2f" .MaxDrawdown}}*
- Win Rate:         *{{printf "%.2f" (mul100 .WinRate)}}%*
- Profit Factor:    *{{if ne .ProfitFactor 0.0}}{{printf "%.2f" .ProfitFactor}}{{else}}(profit-factor?){{end}}*
- Average R:        *{{printf "%.2f" .AvgR}}*

** Exit Distribution
| Outcome   | Count |
|-----------+-------|
| Stop loss | {{.StopLosses}} |
| Target    | {{.Targets}} |
| Forced    | {{.Forced}} |
| Rejected  | {{.Rejected}} |
| Open      | {{if .OpenAtEnd}}1{{else}}0{{end}} |

{{- if .Events }}

** Trades
| # | Time | Kind | Price | Qty | Stop | Target | PnL | Cum PnL |
|---+------+------+-------+-----+------+--------+-----+---------|
{{- range .Events }}
| {{.Index}} | {{stamp .}} | {{.Kind}} | {{printf "%.5f" .Price}} | {{printf "%.4f" .Quantity}} | {{opt .StopLoss}} | {{opt .Target}} | {{opt .PnL}} | {{opt .CumulativePnL}} |
{{- end }}
{{- end }}

{{- if .Notes }}

** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}
`
