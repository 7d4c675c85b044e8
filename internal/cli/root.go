// Package cli wires the risingsun command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/risingsun/config"
	"github.com/rustyeddy/risingsun/pkg/logger"
)

const version = "0.3.0"

// RootConfig carries the persistent flags and what PersistentPreRunE
// builds from them.
type RootConfig struct {
	ConfigPath string
	LogLevel   string

	Log *zap.Logger
}

// LoadConfig returns the config file named by --config, or the defaults.
func (rc *RootConfig) LoadConfig() (*config.Config, error) {
	if rc.ConfigPath == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(rc.ConfigPath)
}

func NewRootCmd() *cobra.Command {
	rc := &RootConfig{}

	cmd := &cobra.Command{
		Use:   "risingsun",
		Short: "Supertrend/EMA trade simulator",
		Long: `Risingsun replays price candles through a Supertrend trend filter and an
EMA entry condition, sizes each trade from a fixed risk budget and records
the resulting entries and exits.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&rc.ConfigPath, "config", "", "Path to config file (optional)")
	cmd.PersistentFlags().StringVar(&rc.LogLevel, "log-level", "info", "Log level: debug|info|warn|error")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		l, err := logger.New(rc.LogLevel)
		if err != nil {
			return err
		}
		rc.Log = l
		return nil
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if rc.Log != nil {
			_ = rc.Log.Sync()
		}
	}

	cmd.AddCommand(
		newRunCmd(rc),
		newIndicatorsCmd(rc),
		newConfigCmd(rc),
		newJournalCmd(rc),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "risingsun version %s\n", version)
		},
	})

	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
