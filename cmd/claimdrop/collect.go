package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bft-labs/claimdrop/internal/app"
	"github.com/bft-labs/claimdrop/internal/cliconfig"
	"github.com/bft-labs/claimdrop/internal/domain"
	"github.com/bft-labs/claimdrop/internal/ports"
)

func newCollectCmd(cfg *cliconfig.Config, opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Reclaim unclaimed balances after the window closes",
		Long: `Repeatedly fetches claimable balances of --asset that the collector can
claim and reclaims each page in one transaction, until none remain. A page
identical to the previous one is reported as stagnant.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := setup(cmd, cfg, opts, cliconfig.CommandCollect)
			if err != nil {
				return err
			}
			cc, err := cfg.CollectorConfig()
			if err != nil {
				return err
			}
			ledger, err := s.ledger()
			if err != nil {
				return err
			}
			collector, err := app.NewCollector(cc, ledger, s.logger, s.events)
			if err != nil {
				return err
			}

			res, err := collector.Run(cmd.Context())
			if errors.Is(err, domain.ErrInterrupted) {
				s.logger.Warn("collection interrupted", ports.Int("reclaimed", res.Reclaimed))
				err = nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d balances reclaimed in %d iterations, %d failures\n",
				res.Reclaimed, res.Iterations, res.Failures)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.Asset, "asset", cfg.Asset, "asset to reclaim as CODE:ISSUER")
	f.StringVar(&cfg.CollectorPublic, "collector-public", cfg.CollectorPublic, "collector account (checked against the secret)")
	f.StringVar(&cfg.CollectorSecret, "collector-secret", cfg.CollectorSecret, "collector signing key (prefer CLAIMDROP_COLLECTOR_SECRET)")
	f.IntVar(&cfg.PageSize, "page-size", cfg.PageSize, "balances reclaimed per transaction (max 100)")
	f.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "pause between iterations")
	f.IntVar(&cfg.FetchAttempts, "fetch-attempts", cfg.FetchAttempts, "attempts per page fetch before giving up")
	return cmd
}
