package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/strkey"

	"github.com/bft-labs/claimdrop/internal/domain"
	"github.com/bft-labs/claimdrop/internal/ports"
	"github.com/bft-labs/claimdrop/internal/txbuild"
)

// GeneratorConfig describes one distribution run.
type GeneratorConfig struct {
	Network domain.NetworkProfile

	// Distribution funds, sequences and signs every transaction.
	Distribution *keypair.Full

	// Collector may reclaim balances after the window closes.
	Collector string

	Asset      domain.Asset
	Window     domain.ClaimWindow
	BaseAmount decimal.Decimal

	// PageSize is the number of recipients per transaction, at most
	// domain.MaxOperationsPerTransaction. Zero means the maximum.
	PageSize int

	// StartOffset skips recipients already distributed by an earlier run.
	StartOffset int
}

// Validate reports configuration errors before any network call.
func (c GeneratorConfig) Validate() error {
	if c.Network.Passphrase == "" {
		return domain.ConfigError("network", "passphrase must be set")
	}
	if c.Distribution == nil {
		return domain.ConfigError("distribution_secret", "must be set")
	}
	if !strkey.IsValidEd25519PublicKey(c.Collector) {
		return domain.ConfigError("collector_public", "invalid account %q", c.Collector)
	}
	if err := c.Asset.Validate(); err != nil {
		return err
	}
	if !c.Window.NotBefore.Before(c.Window.NotAfter) {
		return domain.ConfigError("end_date", "must be after start_date")
	}
	if !c.BaseAmount.IsPositive() {
		return domain.ConfigError("base_amount", "must be positive")
	}
	if c.PageSize < 0 || c.PageSize > domain.MaxOperationsPerTransaction {
		return domain.ConfigError("page_size", "must be between 1 and %d", domain.MaxOperationsPerTransaction)
	}
	if c.StartOffset < 0 {
		return domain.ConfigError("start_offset", "must not be negative")
	}
	return nil
}

// GenerateResult summarizes a generator run.
type GenerateResult struct {
	// Path is the finalized artifact, empty when nothing was built.
	Path string

	Envelopes  int
	Operations int

	// Rejected holds recipients left out of their page because their
	// amount cannot be represented on the ledger.
	Rejected []*domain.RecordError

	// SkippedPages counts pages the builder rejected. Skipped lists the
	// recipient range of each; those recipients were not distributed.
	SkippedPages int
	Skipped      []SkippedRange

	// NextOffset is the index of the first recipient not yet processed,
	// usable as StartOffset for a follow-up run. Recipients in Skipped lie
	// before it and must be handled separately.
	NextOffset int

	// Hashes holds the transaction hash of each persisted envelope.
	Hashes []string

	// Outcome is "done", "aborted" or OutcomeFailed.
	Outcome string
}

// OutcomeFailed marks a run that stopped on an error other than interruption.
const OutcomeFailed = "failed"

// SkippedRange is a page of recipients whose transaction could not be built.
type SkippedRange struct {
	Offset int
	Count  int
	Reason string
}

// Generator is the pipeline driver: it pages recipients, builds and signs
// one transaction per page, and persists every envelope as it goes.
type Generator struct {
	cfg    GeneratorConfig
	ledger ports.Ledger
	logger ports.Logger
	events ports.Events
}

// NewGenerator creates a generator after validating cfg.
func NewGenerator(cfg GeneratorConfig, ledger ports.Ledger, logger ports.Logger, events ports.Events) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if events == nil {
		events = ports.NopEvents{}
	}
	return &Generator{cfg: cfg, ledger: ledger, logger: logger, events: events}, nil
}

// Run builds the distribution for recipients into w.
//
// Cancelling ctx is observed at every page boundary. Whatever the exit path,
// every envelope signed so far has been appended to w and w is closed
// before Run returns. An interrupted run returns domain.ErrInterrupted along
// with the partial result.
func (g *Generator) Run(ctx context.Context, recipients []domain.Recipient, w ports.EnvelopeWriter) (res GenerateResult, err error) {
	lc := NewLifecycle(ports.StageGenerate, g.logger)
	_ = lc.TransitionTo(PhaseBuilding, "start")

	pager := domain.NewPager(recipients, g.cfg.StartOffset, g.cfg.PageSize)
	res.NextOffset = pager.Offset()

	defer func() {
		if lc.Phase() == PhaseBuilding {
			_ = lc.TransitionTo(PhaseFinalizing, "complete")
		} else {
			_ = lc.TransitionTo(PhaseFinalizing, "interrupted")
		}

		path, cerr := w.Close()
		res.Path = path
		if cerr != nil {
			err = errors.Join(err, fmt.Errorf("finalize artifact: %w", cerr))
		}

		_ = lc.TransitionTo(PhaseDone, "finalized")
		res.Outcome = lc.Outcome()
		if lc.Aborted() && err == nil {
			err = domain.ErrInterrupted
		}
		if err != nil && !errors.Is(err, domain.ErrInterrupted) {
			res.Outcome = OutcomeFailed
		}

		g.logger.Info("generate finished",
			ports.String("outcome", res.Outcome),
			ports.Int("recipients", len(recipients)),
			ports.Int("envelopes", res.Envelopes),
			ports.Int("operations", res.Operations),
			ports.Int("rejected", len(res.Rejected)),
			ports.Int("skipped_pages", res.SkippedPages),
			ports.Int("next_offset", res.NextOffset),
			ports.String("artifact", res.Path),
		)
	}()

	abort := func(reason string) {
		_ = lc.TransitionTo(PhaseAborting, reason)
	}

	source := g.cfg.Distribution.Address()
	current, err := g.ledger.AccountSequence(ctx, source)
	if err != nil {
		if ctx.Err() != nil {
			abort("interrupted while loading account")
			return res, nil
		}
		return res, fmt.Errorf("load distribution account: %w", err)
	}
	fee, err := g.ledger.BaseFee(ctx)
	if err != nil {
		if ctx.Err() != nil {
			abort("interrupted while fetching fee")
			return res, nil
		}
		return res, fmt.Errorf("fetch base fee: %w", err)
	}

	builder, err := txbuild.NewBuilder(txbuild.Config{
		Source:     source,
		Collector:  g.cfg.Collector,
		Asset:      g.cfg.Asset,
		Window:     g.cfg.Window,
		BaseAmount: g.cfg.BaseAmount,
		BaseFee:    fee,
	})
	if err != nil {
		return res, err
	}

	alloc := domain.FromAccountSequence(current)
	g.logger.Info("generate started",
		ports.String("source", source),
		ports.Int64("first_sequence", alloc.Peek()),
		ports.Int64("base_fee", fee),
		ports.Int("offset", pager.Offset()),
		ports.Int("pages", pager.Pages()),
	)

	for {
		if ctx.Err() != nil {
			abort("interrupted at page boundary")
			return res, nil
		}

		page, ok := pager.Peek()
		if !ok {
			return res, nil
		}

		span := len(page)
		page = g.payable(page, &res)

		seq := alloc.Peek()
		tx, err := builder.BuildPage(page, alloc)
		if err != nil {
			g.skipPage(pager.Offset(), span, page, err, &res)
			pager.Advance()
			res.NextOffset = pager.Offset()
			continue
		}
		if tx == nil {
			pager.Advance()
			res.NextOffset = pager.Offset()
			continue
		}

		envelope, err := txbuild.Sign(tx, g.cfg.Network.Passphrase, g.cfg.Distribution)
		if err != nil {
			return res, fmt.Errorf("sign page at offset %d: %w", pager.Offset(), err)
		}
		hash, err := txbuild.Hash(tx, g.cfg.Network.Passphrase)
		if err != nil {
			return res, fmt.Errorf("hash page at offset %d: %w", pager.Offset(), err)
		}
		g.events.PageBuilt(ports.StageGenerate, len(page))

		if err := w.Append(envelope); err != nil {
			return res, fmt.Errorf("persist page at offset %d: %w", pager.Offset(), err)
		}
		g.events.EnvelopePersisted(ports.StageGenerate)

		res.Envelopes++
		res.Operations += len(page)
		res.Hashes = append(res.Hashes, hash)
		g.logger.Info("page persisted",
			ports.Int("offset", pager.Offset()),
			ports.Int("operations", len(page)),
			ports.Int64("sequence", seq),
			ports.String("hash", hash),
		)

		pager.Advance()
		res.NextOffset = pager.Offset()
	}
}

// payable drops recipients whose amount the ledger cannot hold, reporting
// each one, so a single row never poisons its page.
func (g *Generator) payable(page []domain.Recipient, res *GenerateResult) []domain.Recipient {
	out := make([]domain.Recipient, 0, len(page))
	for _, r := range page {
		if rerr := domain.CheckPayable(g.cfg.BaseAmount, r); rerr != nil {
			res.Rejected = append(res.Rejected, rerr)
			g.events.RecordSkipped()
			g.logger.Warn("record skipped",
				ports.Int("line", rerr.Line),
				ports.String("value", rerr.Value),
				ports.String("reason", rerr.Reason),
			)
			continue
		}
		out = append(out, r)
	}
	return out
}

// skipPage reports every recipient of a page that failed to build.
// The range covers span recipients starting at offset.
func (g *Generator) skipPage(offset, span int, page []domain.Recipient, cause error, res *GenerateResult) {
	res.SkippedPages++
	res.Skipped = append(res.Skipped, SkippedRange{Offset: offset, Count: span, Reason: cause.Error()})
	g.logger.Error("page skipped",
		ports.Int("offset", offset),
		ports.Int("size", len(page)),
		ports.Err(cause),
	)
	for _, r := range page {
		g.events.RecordSkipped()
		g.logger.Error("recipient not distributed",
			ports.Int("line", r.Line),
			ports.String("account", r.Address),
			ports.Int64("multiplier", r.Multiplier),
			ports.String("reason", cause.Error()),
		)
	}
}
