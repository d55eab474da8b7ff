package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/bft-labs/claimdrop/internal/domain"
	"github.com/bft-labs/claimdrop/internal/ports"
	"github.com/bft-labs/claimdrop/internal/txbuild"
)

// SubmitterConfig configures envelope replay.
type SubmitterConfig struct {
	Network domain.NetworkProfile

	// MaxRetries is how many times a retryable outcome is resubmitted
	// unchanged. Zero reports it and moves on.
	MaxRetries int

	BackoffInitial time.Duration
	BackoffMax     time.Duration

	// Clock is used for retry backoff. Defaults to the real clock.
	Clock clockwork.Clock
}

// Validate checks the config and fills defaults.
func (c *SubmitterConfig) Validate() error {
	if c.Network.Passphrase == "" {
		return domain.ConfigError("network", "passphrase must be set")
	}
	if c.MaxRetries < 0 {
		return domain.ConfigError("max_retries", "must not be negative")
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	return nil
}

// SubmitReport holds one outcome per envelope submitted, in file order.
type SubmitReport struct {
	Path      string
	Total     int
	Outcomes  []domain.Outcome
	Succeeded int
	Failed    int
}

// Submitter replays persisted envelopes to the network in order.
type Submitter struct {
	cfg    SubmitterConfig
	ledger ports.Ledger
	reader ports.EnvelopeReader
	logger ports.Logger
	events ports.Events
}

// NewSubmitter creates a submitter after validating cfg.
func NewSubmitter(cfg SubmitterConfig, ledger ports.Ledger, reader ports.EnvelopeReader, logger ports.Logger, events ports.Events) (*Submitter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if events == nil {
		events = ports.NopEvents{}
	}
	return &Submitter{cfg: cfg, ledger: ledger, reader: reader, logger: logger, events: events}, nil
}

// SubmitFile reads the artifact at path and submits every envelope.
func (s *Submitter) SubmitFile(ctx context.Context, path string) (SubmitReport, error) {
	envelopes, err := s.reader.ReadEnvelopes(ctx, path)
	if err != nil {
		return SubmitReport{Path: path}, err
	}
	rep, err := s.Submit(ctx, envelopes)
	rep.Path = path
	return rep, err
}

// Submit decodes and checks every envelope against the network before
// submitting any, then submits them sequentially. A failed submission is
// classified and reported; it does not stop later envelopes. Cancellation
// stops before the next envelope and returns domain.ErrInterrupted.
func (s *Submitter) Submit(ctx context.Context, envelopes []string) (SubmitReport, error) {
	rep := SubmitReport{Total: len(envelopes)}

	hashes := make([]string, len(envelopes))
	for i, env := range envelopes {
		tx, err := txbuild.Decode(env)
		if err != nil {
			return rep, fmt.Errorf("envelope %d: %w", i, err)
		}
		if err := txbuild.VerifyNetwork(tx, s.cfg.Network.Passphrase); err != nil {
			return rep, fmt.Errorf("envelope %d: %w", i, err)
		}
		if hashes[i], err = txbuild.Hash(tx, s.cfg.Network.Passphrase); err != nil {
			return rep, fmt.Errorf("envelope %d: %w", i, err)
		}
	}

	for i, env := range envelopes {
		if ctx.Err() != nil {
			s.logger.Warn("submit interrupted",
				ports.Int("submitted", len(rep.Outcomes)),
				ports.Int("remaining", len(envelopes)-i),
			)
			return rep, domain.ErrInterrupted
		}

		s.logger.Info("submitting envelope",
			ports.Int("index", i),
			ports.String("hash", hashes[i]),
		)
		out := s.submitOne(ctx, i, hashes[i], env)
		rep.Outcomes = append(rep.Outcomes, out)
		s.events.Submitted(ports.StageSubmit, out.Kind)

		if out.Failed() {
			rep.Failed++
			s.logger.Error("submission failed",
				ports.Int("index", i),
				ports.String("outcome", out.Kind.String()),
				ports.String("reason", out.Reason()),
				ports.String("hash", out.Hash),
				ports.Err(out.Err),
			)
			continue
		}
		rep.Succeeded++
		s.events.EnvelopePersisted(ports.StageSubmit)
		s.logger.Info("submission accepted", ports.Int("index", i), ports.String("hash", out.Hash))
	}

	s.logger.Info("submit finished",
		ports.Int("total", rep.Total),
		ports.Int("succeeded", rep.Succeeded),
		ports.Int("failed", rep.Failed),
	)
	return rep, nil
}

// submitOne submits env, resubmitting unchanged on retryable outcomes up to
// MaxRetries times.
func (s *Submitter) submitOne(ctx context.Context, index int, hash, env string) domain.Outcome {
	b := newBackoff(s.cfg.Clock, s.cfg.BackoffInitial, s.cfg.BackoffMax)

	for attempt := 0; ; attempt++ {
		submitted, err := s.ledger.SubmitEnvelope(ctx, env)
		if submitted == "" {
			submitted = hash
		}
		out := domain.Classify(submitted, err)
		if !out.Kind.Retryable() || attempt >= s.cfg.MaxRetries {
			return out
		}

		s.logger.Warn("retrying submission",
			ports.Int("index", index),
			ports.Int("attempt", attempt+1),
			ports.String("reason", out.Reason()),
			ports.Duration("backoff", b.Current()),
		)
		if werr := b.Wait(ctx); werr != nil {
			return out
		}
	}
}
