package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/xspread/pairdisco/internal/config"
	"github.com/xspread/pairdisco/internal/obs"
	"github.com/xspread/pairdisco/internal/pipeline"
)

const version = "v0.1.0"

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	var (
		configDir   string
		metricsAddr string
	)

	rootCmd := &cobra.Command{
		Use:     "pairdisco",
		Short:   "Discover tradable pairs across spot and futures venues",
		Version: version,
		Long: `pairdisco scans eight exchange venue/market sources, normalizes their
instrument listings into a single canonical registry, pairs spot and futures
legs per configured direction, validates liveness over each venue's
websocket feed, and atomically publishes the result for downstream readers.`,
	}
	rootCmd.PersistentFlags().StringVar(&configDir, "config", ".", "directory containing config.toml, exchanges.toml, directions.toml")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address for the duration of the run")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the discovery pipeline once and publish its output",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(configDir, metricsAddr)
		},
	}
	rootCmd.AddCommand(runCmd)
	rootCmd.RunE = runCmd.RunE

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("pairdisco failed")
		os.Exit(pipeline.ExitIOOrConfigError)
	}
}

func runOnce(configDir, metricsAddr string) error {
	cfg, err := config.Load(configDir + "/config.toml")
	if err != nil {
		log.Error().Err(err).Msg("failed to load config.toml")
		os.Exit(pipeline.ExitIOOrConfigError)
	}
	exchanges, err := config.LoadExchanges(configDir + "/exchanges.toml")
	if err != nil {
		log.Error().Err(err).Msg("failed to load exchanges.toml")
		os.Exit(pipeline.ExitIOOrConfigError)
	}
	directions, err := config.LoadDirections(configDir + "/directions.toml")
	if err != nil {
		log.Error().Err(err).Msg("failed to load directions.toml")
		os.Exit(pipeline.ExitIOOrConfigError)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metrics *obs.Registry
	if metricsAddr != "" {
		metrics = obs.NewRegistry()
		go func() {
			if err := obs.Serve(ctx, metricsAddr, log.Logger); err != nil {
				log.Warn().Err(err).Msg("metrics server exited")
			}
		}()
	}

	result := pipeline.Run(ctx, cfg, exchanges, directions, log.Logger, metrics)
	if result.Err != nil {
		log.Error().Err(result.Err).Str("run_id", result.RunID).Int("exit_code", result.ExitCode).Msg("pipeline run did not complete successfully")
	} else {
		log.Info().Str("run_id", result.RunID).Int("num_symbols", len(result.Registry.Records)).Int("num_directions", len(result.Directions)).Msg("pipeline run complete")
	}
	os.Exit(result.ExitCode)
	return nil
}
