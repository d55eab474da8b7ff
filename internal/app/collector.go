package app

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stellar/go/keypair"

	"github.com/bft-labs/claimdrop/internal/domain"
	"github.com/bft-labs/claimdrop/internal/ports"
	"github.com/bft-labs/claimdrop/internal/txbuild"
)

// CollectorConfig configures the reclaim loop.
type CollectorConfig struct {
	Network domain.NetworkProfile

	// Collector is claimant on every balance and signs every reclaim.
	Collector *keypair.Full

	Asset domain.Asset

	// PageSize bounds balances fetched and reclaimed per iteration.
	// Zero means domain.MaxOperationsPerTransaction.
	PageSize int

	// PollInterval is the pause between iterations. Zero means none.
	PollInterval time.Duration

	// FetchAttempts bounds tries per balance fetch before Run fails.
	// Zero means 1.
	FetchAttempts int

	BackoffInitial time.Duration
	BackoffMax     time.Duration

	// Clock is used for polling and backoff. Defaults to the real clock.
	Clock clockwork.Clock
}

// Validate checks the config and fills defaults.
func (c *CollectorConfig) Validate() error {
	if c.Network.Passphrase == "" {
		return domain.ConfigError("network", "passphrase must be set")
	}
	if c.Collector == nil {
		return domain.ConfigError("collector_secret", "must be set")
	}
	if err := c.Asset.Validate(); err != nil {
		return err
	}
	if c.PageSize < 0 || c.PageSize > domain.MaxOperationsPerTransaction {
		return domain.ConfigError("page_size", "must be between 1 and %d", domain.MaxOperationsPerTransaction)
	}
	if c.PageSize == 0 {
		c.PageSize = domain.MaxOperationsPerTransaction
	}
	if c.PollInterval < 0 {
		return domain.ConfigError("poll_interval", "must not be negative")
	}
	if c.FetchAttempts <= 0 {
		c.FetchAttempts = 1
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	return nil
}

// CollectResult summarizes a collection run.
type CollectResult struct {
	Iterations int

	// Reclaimed counts balances in transactions that were accepted.
	Reclaimed int

	// Failures counts classified submission failures.
	Failures int

	// Stagnant counts pages identical to the previous page.
	Stagnant int

	Outcome string
}

// Collector reclaims claimable balances addressed to the collector account
// until none remain or ctx is cancelled.
type Collector struct {
	cfg    CollectorConfig
	ledger ports.Ledger
	logger ports.Logger
	events ports.Events
	retry  *backoff
}

// NewCollector creates a collector after validating cfg.
func NewCollector(cfg CollectorConfig, ledger ports.Ledger, logger ports.Logger, events ports.Events) (*Collector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if events == nil {
		events = ports.NopEvents{}
	}
	return &Collector{
		cfg:    cfg,
		ledger: ledger,
		logger: logger,
		events: events,
		retry:  newBackoff(cfg.Clock, cfg.BackoffInitial, cfg.BackoffMax),
	}, nil
}

// Run drives the loop. Submission failures are classified and logged; only
// an exhausted fetch, a build failure or cancellation ends the loop early.
// Cancellation returns domain.ErrInterrupted.
func (c *Collector) Run(ctx context.Context) (CollectResult, error) {
	lc := NewLifecycle(ports.StageCollect, c.logger)
	_ = lc.TransitionTo(PhaseBuilding, "start")

	var res CollectResult
	finish := func(err error) (CollectResult, error) {
		if ctx.Err() != nil && lc.Phase() == PhaseBuilding {
			_ = lc.TransitionTo(PhaseAborting, "interrupted")
		}
		_ = lc.TransitionTo(PhaseFinalizing, "stop")
		_ = lc.TransitionTo(PhaseDone, "stop")
		res.Outcome = lc.Outcome()
		if lc.Aborted() {
			err = domain.ErrInterrupted
		}
		c.logger.Info("collect finished",
			ports.String("outcome", res.Outcome),
			ports.Int("iterations", res.Iterations),
			ports.Int("reclaimed", res.Reclaimed),
			ports.Int("failures", res.Failures),
			ports.Int("stagnant_pages", res.Stagnant),
		)
		return res, err
	}

	address := c.cfg.Collector.Address()
	var previous []string

	for {
		if ctx.Err() != nil {
			return finish(nil)
		}

		ids, err := c.fetch(ctx, address)
		if err != nil {
			if ctx.Err() != nil {
				return finish(nil)
			}
			return finish(err)
		}
		if len(ids) == 0 {
			c.logger.Info("no claimable balances left", ports.String("collector", address))
			return finish(nil)
		}

		res.Iterations++
		if previous != nil && slices.Equal(previous, ids) {
			res.Stagnant++
			c.events.StagnantPage()
			c.logger.Warn("claimable balance page unchanged since last iteration; reclaims are not clearing balances",
				ports.Int("iteration", res.Iterations),
				ports.Int("balances", len(ids)),
				ports.String("first_balance", ids[0]),
			)
		}
		previous = ids

		out, err := c.reclaim(ctx, address, ids)
		if err != nil {
			if ctx.Err() != nil {
				return finish(nil)
			}
			return finish(err)
		}

		c.events.Submitted(ports.StageCollect, out.Kind)
		if out.Failed() {
			res.Failures++
			c.logger.Error("reclaim failed",
				ports.Int("iteration", res.Iterations),
				ports.String("outcome", out.Kind.String()),
				ports.String("reason", out.Reason()),
				ports.String("hash", out.Hash),
				ports.Err(out.Err),
			)
		} else {
			res.Reclaimed += len(ids)
			c.events.EnvelopePersisted(ports.StageCollect)
			c.logger.Info("reclaimed balances",
				ports.Int("iteration", res.Iterations),
				ports.Int("balances", len(ids)),
				ports.String("hash", out.Hash),
			)
		}

		if err := c.pause(ctx); err != nil {
			return finish(nil)
		}
	}
}

// fetch lists balances, retrying with backoff up to FetchAttempts times.
// A successful fetch resets the backoff for the next iteration.
func (c *Collector) fetch(ctx context.Context, address string) ([]string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.FetchAttempts; attempt++ {
		ids, err := c.ledger.ClaimableBalances(ctx, address, c.cfg.Asset, c.cfg.PageSize)
		if err == nil {
			c.retry.Reset()
			return ids, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		c.logger.Warn("fetch claimable balances failed",
			ports.Int("attempt", attempt),
			ports.Int("max_attempts", c.cfg.FetchAttempts),
			ports.Err(err),
		)
		if attempt == c.cfg.FetchAttempts {
			break
		}
		if err := c.retry.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("fetch claimable balances after %d attempts: %w", c.cfg.FetchAttempts, lastErr)
}

// reclaim builds, signs and submits one reclaim transaction. Submission
// failures are returned as a classified outcome, not an error.
func (c *Collector) reclaim(ctx context.Context, address string, ids []string) (domain.Outcome, error) {
	current, err := c.ledger.AccountSequence(ctx, address)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("load collector account: %w", err)
	}
	fee, err := c.ledger.BaseFee(ctx)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("fetch base fee: %w", err)
	}

	alloc := domain.FromAccountSequence(current)
	tx, err := txbuild.BuildReclaim(address, alloc.Next(), fee, c.cfg.Asset.ClaimbackMemo(), ids)
	if err != nil {
		return domain.Outcome{}, err
	}
	c.events.PageBuilt(ports.StageCollect, len(ids))

	envelope, err := txbuild.Sign(tx, c.cfg.Network.Passphrase, c.cfg.Collector)
	if err != nil {
		return domain.Outcome{}, err
	}
	hash, err := txbuild.Hash(tx, c.cfg.Network.Passphrase)
	if err != nil {
		return domain.Outcome{}, err
	}

	submitted, err := c.ledger.SubmitEnvelope(ctx, envelope)
	if submitted != "" {
		hash = submitted
	}
	return domain.Classify(hash, err), nil
}

func (c *Collector) pause(ctx context.Context) error {
	if c.cfg.PollInterval == 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.cfg.Clock.After(c.cfg.PollInterval):
		return nil
	}
}
