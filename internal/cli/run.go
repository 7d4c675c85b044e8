package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/risingsun/backtest"
	"github.com/rustyeddy/risingsun/config"
	"github.com/rustyeddy/risingsun/journal"
	"github.com/rustyeddy/risingsun/market"
	"github.com/rustyeddy/risingsun/metrics"
)

// overrides are run flags that replace config values when set.
type overrides struct {
	instrument string
	from, to   string

	atrPeriod  int
	multiplier float64
	emaPeriod  int
	rewardRisk float64
	budget     float64
	rounding   string
	noForced   bool
	cooldown   int

	journalType string
	dbPath      string
	orgDir      string
	textfile    string
}

func (o *overrides) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed

	if changed("instrument") {
		cfg.Data.Instrument = o.instrument
	}
	if changed("from") {
		cfg.Data.From = o.from
	}
	if changed("to") {
		cfg.Data.To = o.to
	}
	if changed("atr") {
		cfg.Strategy.ATRPeriod = o.atrPeriod
	}
	if changed("mult") {
		cfg.Strategy.Multiplier = o.multiplier
	}
	if changed("ema") {
		cfg.Strategy.EMAPeriod = o.emaPeriod
	}
	if changed("rr") {
		cfg.Strategy.RewardRisk = o.rewardRisk
	}
	if changed("budget") {
		cfg.Sizing.RiskBudget = o.budget
	}
	if changed("rounding") {
		cfg.Sizing.Rounding = o.rounding
	}
	if o.noForced {
		cfg.Session.ForcedClosure = false
	}
	if changed("cooldown") {
		cfg.Session.Cooldown = o.cooldown
	}
	if changed("db") {
		cfg.Journal.Type = "sqlite"
		cfg.Journal.DBPath = o.dbPath
	}
	if changed("journal") {
		cfg.Journal.Type = o.journalType
	}
	if changed("org-dir") {
		cfg.Journal.OrgDir = o.orgDir
	}
	if changed("metrics") {
		cfg.Metrics.Textfile = o.textfile
	}
}

func (o *overrides) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.instrument, "instrument", "i", "", "Instrument name (single dataset only)")
	f.StringVar(&o.from, "from", "", "Optional RFC3339 start time")
	f.StringVar(&o.to, "to", "", "Optional RFC3339 end time")

	f.IntVar(&o.atrPeriod, "atr", 0, "ATR period")
	f.Float64Var(&o.multiplier, "mult", 0, "Supertrend band multiplier")
	f.IntVar(&o.emaPeriod, "ema", 0, "EMA period")
	f.Float64Var(&o.rewardRisk, "rr", 0, "Target as a multiple of risk per share")
	f.Float64Var(&o.budget, "budget", 0, "Cash risked per trade")
	f.StringVar(&o.rounding, "rounding", "", "Quantity rounding: none|floor|nearest|ceil")
	f.BoolVar(&o.noForced, "no-forced", false, "Disable the periodic forced closure")
	f.IntVar(&o.cooldown, "cooldown", 0, "Bars after an exit with no new entry")

	f.StringVar(&o.journalType, "journal", "", "Journal type: csv|sqlite|none")
	f.StringVarP(&o.dbPath, "db", "d", "", "SQLite journal DB (implies --journal sqlite)")
	f.StringVar(&o.orgDir, "org-dir", "", "Directory for Org run reports")
	f.StringVar(&o.textfile, "metrics", "", "Prometheus textfile to write after the run")
}

func newRunCmd(rc *RootConfig) *cobra.Command {
	var o overrides

	cmd := &cobra.Command{
		Use:   "run [candles.csv ...]",
		Short: "Simulate one or more candle files",
		Long: `Run the Supertrend/EMA simulation over candle CSV files
(time,open,high,low,close[,volume]). Without arguments the config's
data.path is used. Several files run in parallel, one per instrument;
the instrument name is taken from the file name.

Example:
  risingsun run --config nifty.yaml
  risingsun run data/NIFTY.csv data/BANKNIFTY.csv --db runs.sqlite`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rc.LoadConfig()
			if err != nil {
				return err
			}
			o.apply(cmd, cfg)

			if len(args) == 1 && !cmd.Flags().Changed("instrument") {
				cfg.Data.Instrument = instrumentFromPath(args[0])
			}
			if len(args) > 0 {
				cfg.Data.Path = args[0]
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			params, err := cfg.SimParams()
			if err != nil {
				return err
			}
			strategy, err := cfg.StrategyYAML()
			if err != nil {
				return err
			}
			from, to, err := cfg.Data.Range()
			if err != nil {
				return err
			}

			paths := args
			if len(paths) == 0 {
				paths = []string{cfg.Data.Path}
			}

			jobs := make([]backtest.Job, 0, len(paths))
			for _, p := range paths {
				feed, err := market.NewCSVCandleFeed(p, from, to)
				if err != nil {
					for _, j := range jobs {
						j.Feed.Close()
					}
					return err
				}
				inst := cfg.Data.Instrument
				if len(paths) > 1 {
					inst = instrumentFromPath(p)
				}
				jobs = append(jobs, backtest.Job{
					Instrument: inst,
					Dataset:    p,
					Timeframe:  cfg.Data.Timeframe,
					Feed:       feed,
					Params:     params,
					Config:     strategy,
				})
			}

			j, err := openJournal(cfg.Journal)
			if err != nil {
				for _, job := range jobs {
					job.Feed.Close()
				}
				return err
			}
			if j != nil {
				defer j.Close()
			}

			runner := &backtest.Runner{
				Journal: j,
				OrgDir:  cfg.Journal.OrgDir,
				Log:     rc.Log,
			}
			if cfg.Metrics.Textfile != "" {
				runner.Metrics = metrics.New()
			}

			outcomes, runErr := runner.RunAll(context.Background(), jobs)
			for _, oc := range outcomes {
				if oc.Run.RunID != "" {
					backtest.PrintRun(cmd.OutOrStdout(), oc.Run)
				}
			}

			if runner.Metrics != nil {
				if err := runner.Metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
					rc.Log.Error("write metrics", zap.Error(err))
				}
			}
			return runErr
		},
	}

	o.register(cmd)
	return cmd
}

// openJournal returns nil for the "none" type.
func openJournal(jc config.JournalConfig) (journal.Journal, error) {
	switch jc.Type {
	case "sqlite":
		j, err := journal.NewSQLite(jc.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		return j, nil
	case "csv":
		j, err := journal.NewCSV(jc.EventsFile, jc.RunsFile)
		if err != nil {
			return nil, fmt.Errorf("open csv journal: %w", err)
		}
		return j, nil
	default:
		return nil, nil
	}
}

func instrumentFromPath(p string) string {
	base := filepath.Base(p)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
