package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/claimdrop/internal/adapters/horizon"
	logadapter "github.com/bft-labs/claimdrop/internal/adapters/log"
	"github.com/bft-labs/claimdrop/internal/adapters/metrics"
	"github.com/bft-labs/claimdrop/internal/cliconfig"
	"github.com/bft-labs/claimdrop/internal/ports"
)

// session is the per-invocation wiring shared by every subcommand.
type session struct {
	cfg    *cliconfig.Config
	logger *logadapter.ZerologAdapter
	events ports.Events
	runID  string
}

// setup resolves configuration (flags > env > file > defaults), validates it
// for command, and builds the logger and metrics.
func setup(cmd *cobra.Command, cfg *cliconfig.Config, opts *rootOptions, command string) (*session, error) {
	if err := cliconfig.LoadDotEnv(opts.envFile); err != nil {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfgFile := opts.configPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(cfg, fc, changed); err != nil {
			return nil, err
		}
	} else if opts.configPath != "" {
		return nil, fmt.Errorf("config file %s not found", opts.configPath)
	}

	if err := cliconfig.ApplyEnvConfig(cfg, changed); err != nil {
		return nil, err
	}
	if err := cfg.Validate(command); err != nil {
		return nil, err
	}

	zl, err := cfg.Logger(os.Stderr)
	if err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	logger := logadapter.NewZerologAdapter(zl).With(
		ports.String("run_id", runID),
		ports.String("command", command),
	)
	logger.Logger().Debug().Interface("config", cfg.Masked()).Msg("configuration")

	s := &session{cfg: cfg, logger: logger, events: ports.NopEvents{}, runID: runID}

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		s.events = metrics.NewRecorder(reg)
		if _, err := metrics.Serve(cmd.Context(), cfg.MetricsAddr, reg, logger); err != nil {
			return nil, fmt.Errorf("start metrics server: %w", err)
		}
	}
	return s, nil
}

// ledger connects to the configured Horizon server.
func (s *session) ledger() (*horizon.Client, error) {
	network, err := s.cfg.NetworkProfile()
	if err != nil {
		return nil, err
	}
	return horizon.New(horizon.Config{
		URL:               network.HorizonURL,
		Timeout:           s.cfg.RequestTimeout,
		RequestsPerSecond: s.cfg.RequestsPerSecond,
		AppName:           "claimdrop",
	}, s.logger)
}
