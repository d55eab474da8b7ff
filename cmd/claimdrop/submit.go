package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bft-labs/claimdrop/internal/adapters/csvfile"
	"github.com/bft-labs/claimdrop/internal/adapters/watch"
	"github.com/bft-labs/claimdrop/internal/app"
	"github.com/bft-labs/claimdrop/internal/cliconfig"
	"github.com/bft-labs/claimdrop/internal/domain"
	"github.com/bft-labs/claimdrop/internal/ports"
)

// errSubmitFailed is returned when at least one envelope was not accepted.
var errSubmitFailed = errors.New("one or more envelopes were not accepted")

func newSubmitCmd(cfg *cliconfig.Config, opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit an artifact's envelopes in order",
		Long: `Submits every envelope of --xdr-file sequentially and logs one classified
outcome per envelope. Timeouts and 503/504 responses are retried up to
--max-retries times. With --watch, new *_signed.csv files appearing in the
directory are submitted as they settle until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := setup(cmd, cfg, opts, cliconfig.CommandSubmit)
			if err != nil {
				return err
			}
			return runSubmit(cmd, s)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.XDRFile, "xdr-file", cfg.XDRFile, "artifact to submit")
	f.StringVar(&cfg.Watch, "watch", cfg.Watch, "directory to watch for new signed artifacts")
	f.IntVar(&cfg.MaxRetries, "max-retries", cfg.MaxRetries, "retries per envelope for timeouts and 503/504 responses")
	return cmd
}

func runSubmit(cmd *cobra.Command, s *session) error {
	ctx := cmd.Context()

	sc, err := s.cfg.SubmitterConfig()
	if err != nil {
		return err
	}
	ledger, err := s.ledger()
	if err != nil {
		return err
	}
	submitter, err := app.NewSubmitter(sc, ledger, csvfile.NewReader(), s.logger, s.events)
	if err != nil {
		return err
	}

	submitFile := func(ctx context.Context, path string) error {
		rep, err := submitter.SubmitFile(ctx, path)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d submitted, %d accepted, %d failed\n",
			path, len(rep.Outcomes), rep.Succeeded, rep.Failed)
		if rep.Failed > 0 {
			return fmt.Errorf("%s: %w", path, errSubmitFailed)
		}
		return nil
	}

	if s.cfg.XDRFile != "" {
		err := submitFile(ctx, s.cfg.XDRFile)
		if errors.Is(err, domain.ErrInterrupted) {
			s.logger.Warn("submission interrupted", ports.String("file", s.cfg.XDRFile))
			return nil
		}
		if err != nil {
			return err
		}
	}

	if s.cfg.Watch == "" {
		return nil
	}

	w, err := watch.New(watch.Config{Dir: s.cfg.Watch, Suffix: "_signed.csv"}, s.logger)
	if err != nil {
		return err
	}
	defer w.Close()

	s.logger.Info("watching for signed artifacts", ports.String("dir", s.cfg.Watch))
	return w.Run(ctx, submitFile)
}
