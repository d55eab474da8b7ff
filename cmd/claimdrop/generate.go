package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/bft-labs/claimdrop/internal/adapters/csvfile"
	"github.com/bft-labs/claimdrop/internal/adapters/progress"
	"github.com/bft-labs/claimdrop/internal/app"
	"github.com/bft-labs/claimdrop/internal/cliconfig"
	"github.com/bft-labs/claimdrop/internal/domain"
	"github.com/bft-labs/claimdrop/internal/ports"
)

func newGenerateCmd(cfg *cliconfig.Config, opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Build and sign claimable balance transactions for a recipients CSV",
		Long: `Reads account,multiplier rows, builds one transaction per page of up to 100
recipients with consecutive sequence numbers, signs each with the distribution
key, and writes the envelopes to generated_xdrs_<unix>.csv in --output-dir.
Malformed rows are reported and skipped. On interrupt every envelope signed so
far is kept in the artifact.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := setup(cmd, cfg, opts, cliconfig.CommandGenerate)
			if err != nil {
				return err
			}
			return runGenerate(cmd, s)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.Asset, "asset", cfg.Asset, "asset to distribute as CODE:ISSUER")
	f.StringVar(&cfg.DistributionPublic, "distribution-public", cfg.DistributionPublic, "distribution account (checked against the secret)")
	f.StringVar(&cfg.DistributionSecret, "distribution-secret", cfg.DistributionSecret, "distribution signing key (prefer CLAIMDROP_DISTRIBUTION_SECRET)")
	f.StringVar(&cfg.CollectorPublic, "collector-public", cfg.CollectorPublic, "account allowed to reclaim after the window closes")
	f.StringVar(&cfg.AccountsFile, "accounts-file", cfg.AccountsFile, "CSV of account,multiplier rows")
	f.StringVar(&cfg.BaseAmount, "base-amount", cfg.BaseAmount, "amount per unit of multiplier")
	f.StringVar(&cfg.StartDate, "start-date", cfg.StartDate, "claims open at this time (RFC3339 or YYYY-MM-DD, UTC)")
	f.StringVar(&cfg.EndDate, "end-date", cfg.EndDate, "claims close and reclaim opens at this time")
	f.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "directory for the generated artifact")
	f.IntVar(&cfg.StartOffset, "start-offset", cfg.StartOffset, "skip this many valid recipients (resume a previous run)")
	f.IntVar(&cfg.PageSize, "page-size", cfg.PageSize, "recipients per transaction (max 100)")
	f.BoolVar(&cfg.Resume, "resume", cfg.Resume, "continue from the offset recorded by the last run in --output-dir")
	return cmd
}

func runGenerate(cmd *cobra.Command, s *session) error {
	ctx := cmd.Context()
	repo := progress.NewFileRepository(s.cfg.OutputDir)

	if s.cfg.Resume {
		last, err := repo.Load(ctx)
		if err != nil {
			return fmt.Errorf("load progress: %w", err)
		}
		if off, ok := last.ResumeOffset(s.cfg.AccountsFile); ok {
			s.logger.Info("resuming previous run",
				ports.Int("start_offset", off),
				ports.String("previous_artifact", last.Artifact),
			)
			s.cfg.StartOffset = off
		} else {
			s.logger.Warn("no progress recorded for accounts file; starting at --start-offset",
				ports.String("progress_file", repo.Path()),
			)
		}
	}

	gc, err := s.cfg.GeneratorConfig()
	if err != nil {
		return err
	}

	list, err := csvfile.LoadRecipients(ctx, s.cfg.AccountsFile)
	if err != nil {
		return err
	}
	for _, r := range list.Rejected {
		s.events.RecordSkipped()
		s.logger.Warn("record skipped",
			ports.Int("line", r.Line),
			ports.String("value", r.Value),
			ports.String("reason", r.Reason),
		)
	}
	s.logger.Info("recipients loaded",
		ports.String("file", s.cfg.AccountsFile),
		ports.Int("rows", list.Rows),
		ports.Int("valid", len(list.Recipients)),
		ports.Int("skipped", len(list.Rejected)),
	)

	ledger, err := s.ledger()
	if err != nil {
		return err
	}
	gen, err := app.NewGenerator(gc, ledger, s.logger, s.events)
	if err != nil {
		return err
	}

	w, err := csvfile.NewWriter(filepath.Join(s.cfg.OutputDir, csvfile.ArtifactName(time.Now())))
	if err != nil {
		return err
	}

	res, err := gen.Run(ctx, list.Recipients, w)
	if saveErr := repo.Save(context.WithoutCancel(ctx), progressOf(s.cfg.AccountsFile, res, err)); saveErr != nil {
		s.logger.Error("failed to record progress", ports.String("progress_file", repo.Path()), ports.Err(saveErr))
	}
	if errors.Is(err, domain.ErrInterrupted) {
		s.logger.Warn("generation interrupted; built envelopes were kept",
			ports.String("artifact", res.Path),
			ports.Int("envelopes", res.Envelopes),
			ports.Int("resume_offset", res.NextOffset),
		)
		err = nil
	}
	if err != nil {
		return err
	}

	if res.Path != "" {
		fmt.Fprintln(cmd.OutOrStdout(), res.Path)
	}
	if res.SkippedPages > 0 {
		return fmt.Errorf("%d pages were not built, see %s: %w", res.SkippedPages, repo.Path(), errRecipientsSkipped)
	}
	return nil
}

// errRecipientsSkipped is returned when a page of valid recipients could not
// be built.
var errRecipientsSkipped = errors.New("recipients were not distributed")

// progressOf records where a generate run stopped.
func progressOf(accountsFile string, res app.GenerateResult, runErr error) progress.Progress {
	p := progress.Progress{
		AccountsFile: accountsFile,
		NextOffset:   res.NextOffset,
		Artifact:     res.Path,
		Envelopes:    res.Envelopes,
		Outcome:      res.Outcome,
	}
	if runErr != nil && !errors.Is(runErr, domain.ErrInterrupted) {
		p.Error = runErr.Error()
	}
	for _, r := range res.Skipped {
		p.Skipped = append(p.Skipped, progress.Range{Offset: r.Offset, Count: r.Count, Reason: r.Reason})
	}
	return p
}
