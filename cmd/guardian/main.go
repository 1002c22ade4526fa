package main

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	appName = "guardian"
	version = "v1.2.0"
)

var (
	flagConfig   string
	flagLogLevel string
	flagLogJSON  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Portfolio structural risk synthesis engine",
		Version: version,
		Long: `Guardian analyzes a portfolio snapshot along two independent axes —
co-movement with the market benchmark and category concentration — and
synthesizes both into a single risk judgment grounded in historical
stress scenarios.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
	}

	// Accept underscore spellings (--log_level) alongside the canonical
	// dashed names.
	rootCmd.PersistentFlags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a YAML config file (defaults apply when empty)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false, "Emit JSON logs instead of console output")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newScenariosCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func setupLogging() {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(flagLogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if !flagLogJSON {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
