package cli

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/risingsun/indicators"
	"github.com/rustyeddy/risingsun/market"
)

func newIndicatorsCmd(rc *RootConfig) *cobra.Command {
	var (
		withDEMA bool
		p        indicators.Params
	)

	cmd := &cobra.Command{
		Use:   "indicators <candles.csv>",
		Short: "Print Supertrend and EMA rows for a candle file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rc.LoadConfig()
			if err != nil {
				return err
			}
			ip := indicators.Params{
				ATRPeriod:  cfg.Strategy.ATRPeriod,
				Multiplier: cfg.Strategy.Multiplier,
				EMAPeriod:  cfg.Strategy.EMAPeriod,
			}
			if cmd.Flags().Changed("atr") {
				ip.ATRPeriod = p.ATRPeriod
			}
			if cmd.Flags().Changed("mult") {
				ip.Multiplier = p.Multiplier
			}
			if cmd.Flags().Changed("ema") {
				ip.EMAPeriod = p.EMAPeriod
			}

			feed, err := market.NewCSVCandleFeed(args[0], time.Time{}, time.Time{})
			if err != nil {
				return err
			}
			candles, err := market.ReadAll(feed)
			if err != nil {
				return err
			}
			if ierr := market.Validate(candles, ip.Warmup()); ierr != nil {
				if ierr.Fatal() {
					return ierr
				}
				rc.Log.Warn("candle series shorter than warm-up",
					zap.Int("need", ierr.Need),
					zap.Int("got", ierr.Got),
				)
			}

			rows, err := indicators.Compute(candles, ip)
			if err != nil {
				return err
			}

			atr, err := indicators.ATR(indicators.TrueRange(candles), ip.ATRPeriod)
			if err != nil {
				return err
			}

			var dema []indicators.Value
			if withDEMA {
				if dema, err = indicators.DEMA(market.Closes(candles), ip.EMAPeriod); err != nil {
					return err
				}
			}

			return writeRows(cmd, candles, rows, atr, dema)
		},
	}

	cmd.Flags().IntVar(&p.ATRPeriod, "atr", 0, "ATR period")
	cmd.Flags().Float64Var(&p.Multiplier, "mult", 0, "Supertrend band multiplier")
	cmd.Flags().IntVar(&p.EMAPeriod, "ema", 0, "EMA period")
	cmd.Flags().BoolVar(&withDEMA, "dema", false, "Add a DEMA column over the EMA period")

	return cmd
}

func writeRows(cmd *cobra.Command, candles []market.Candle, rows []indicators.Row, atr, dema []indicators.Value) error {
	w := csv.NewWriter(cmd.OutOrStdout())

	header := []string{"index", "time", "open", "high", "low", "close", "trend", "upper", "lower", "ema"}
	if dema != nil {
		header = append(header, "dema")
	}
	header = append(header, "atr")
	if err := w.Write(header); err != nil {
		return err
	}

	for i, c := range candles {
		r := rows[i]
		trend := ""
		if r.TrendDefined() {
			trend = "down"
			if r.TrendUp {
				trend = "up"
			}
		}
		rec := []string{
			strconv.Itoa(i),
			c.Time().Format(time.RFC3339),
			f(c.Open), f(c.High), f(c.Low), f(c.Close),
			trend,
			r.UpperBand.String(),
			r.LowerBand.String(),
			r.EMA.String(),
		}
		if dema != nil {
			rec = append(rec, dema[i].String())
		}
		rec = append(rec, atr[i].String())
		if err := w.Write(rec); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
