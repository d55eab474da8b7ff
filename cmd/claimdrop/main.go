package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	logadapter "github.com/bft-labs/claimdrop/internal/adapters/log"
	"github.com/bft-labs/claimdrop/internal/cliconfig"
)

const helpDescription = `
Distribute an asset to a list of accounts as time-locked claimable balances,
then reclaim whatever was not claimed once the window closes.

Stages:
  generate  build and sign one transaction per 100 recipients into a CSV artifact
  sign      add a second signature to every envelope of an artifact
  submit    submit an artifact's envelopes in order and report each outcome
  collect   reclaim balances addressed to the collector after the window closes

Configure via $HOME/.claimdrop/config.toml, CLAIMDROP_* environment variables
(optionally from a .env file), or flags. Flags win over environment, which wins
over the file.
`

var exampleUsage = strings.TrimSpace(`
  claimdrop generate --asset DROP:GISSUER... --accounts-file accounts.csv \
      --base-amount 2.5 --start-date 2021-08-16T00:00:00Z --end-date 2021-09-16T00:00:00Z
  claimdrop sign --xdr-file generated_xdrs_1629072000.csv
  claimdrop submit --xdr-file generated_xdrs_1629072000_signed.csv
  claimdrop submit --watch ./artifacts
  claimdrop collect --asset DROP:GISSUER... --network public
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// rootOptions are flags that only steer configuration loading.
type rootOptions struct {
	configPath string
	envFile    string
}

func newRootCmd(cfg *cliconfig.Config, opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "claimdrop",
		Short:         "Airdrop an asset as claimable balances and reclaim what is left",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "path to config file (default: $HOME/.claimdrop/config.toml)")
	pf.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded into the environment if present")

	pf.StringVar(&cfg.Network, "network", cfg.Network, "network: testnet or public")
	pf.StringVar(&cfg.HorizonURL, "horizon-url", cfg.HorizonURL, "Horizon URL override (defaults to the network's public Horizon)")
	pf.DurationVar(&cfg.RequestTimeout, "request-timeout", cfg.RequestTimeout, "timeout for each Horizon request")
	pf.Float64Var(&cfg.RequestsPerSecond, "requests-per-second", cfg.RequestsPerSecond, "Horizon request rate limit (0 = unlimited)")
	pf.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address (e.g. :9090)")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	pf.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: console or json")

	root.AddCommand(
		newGenerateCmd(cfg, opts),
		newSignCmd(cfg, opts),
		newSubmitCmd(cfg, opts),
		newCollectCmd(cfg, opts),
	)
	return root
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var opts rootOptions

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(&cfg, &opts)
	if err := root.ExecuteContext(ctx); err != nil {
		log := logadapter.NewConsoleLogger(os.Stderr, zerolog.InfoLevel)
		if cfg.LogFormat == "json" {
			log = logadapter.NewJSONLogger(os.Stderr, zerolog.InfoLevel)
		}
		log.Error().Err(err).Msg("claimdrop")
		stop()
		os.Exit(1)
	}
}
