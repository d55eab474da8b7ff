package app

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/txnbuild"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/claimdrop/internal/domain"
	"github.com/bft-labs/claimdrop/internal/txbuild"
)

func newCollectorConfig(t *testing.T) CollectorConfig {
	t.Helper()
	network, err := domain.ParseNetwork(domain.NetworkTestnet, "")
	require.NoError(t, err)
	return CollectorConfig{
		Network:        network,
		Collector:      keypair.MustRandom(),
		Asset:          domain.Asset{Code: "DROP", Issuer: keypair.MustRandom().Address()},
		BackoffInitial: time.Millisecond,
		BackoffMax:     2 * time.Millisecond,
	}
}

func TestCollectReclaimsUntilEmpty(t *testing.T) {
	cfg := newCollectorConfig(t)
	ledger := newFakeLedger()
	ledger.sequences[cfg.Collector.Address()] = 7
	ledger.pages = [][]string{
		{balanceID('a'), balanceID('b')},
		{balanceID('c')},
	}
	events := &countingEvents{}

	c, err := NewCollector(cfg, ledger, &recordingLogger{}, events)
	require.NoError(t, err)

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, res.Iterations)
	require.Equal(t, 3, res.Reclaimed)
	require.Zero(t, res.Failures)
	require.Zero(t, res.Stagnant)
	require.Equal(t, "done", res.Outcome)

	subs := ledger.submissions()
	require.Len(t, subs, 2)
	tx, err := txbuild.Decode(subs[0])
	require.NoError(t, err)
	require.Equal(t, int64(8), tx.SourceAccount().Sequence)
	require.Equal(t, txnbuild.MemoText("DROP claimback"), tx.Memo())
	require.Len(t, tx.Operations(), 2)
	claim, ok := tx.Operations()[0].(*txnbuild.ClaimClaimableBalance)
	require.True(t, ok)
	require.Equal(t, balanceID('a'), claim.BalanceID)
	require.NoError(t, txbuild.VerifyNetwork(tx, cfg.Network.Passphrase))

	require.Equal(t, []domain.OutcomeKind{domain.OutcomeSuccess, domain.OutcomeSuccess}, events.outcomes)
}

func TestCollectWarnsOncePerStagnantRepeat(t *testing.T) {
	cfg := newCollectorConfig(t)
	page := []string{balanceID('a'), balanceID('b')}
	ledger := newFakeLedger()
	ledger.pages = [][]string{page, page, page}
	ledger.submit = func(int, string) (string, error) {
		return "", &domain.SubmitError{
			Status:          http.StatusBadRequest,
			TransactionCode: "tx_failed",
			OperationCodes:  []string{"op_cannot_claim", "op_cannot_claim"},
		}
	}
	logger := &recordingLogger{}
	events := &countingEvents{}

	c, err := NewCollector(cfg, ledger, logger, events)
	require.NoError(t, err)

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, res.Iterations)
	require.Equal(t, 3, res.Failures)
	require.Equal(t, 2, res.Stagnant)
	require.Equal(t, 2, events.stagnant)
	require.Equal(t, 2, logger.count("warn", "claimable balance page unchanged"))
	require.Equal(t, 3, logger.count("error", "reclaim failed"))
	require.Len(t, ledger.submissions(), 3)
}

func TestCollectRetriesFetch(t *testing.T) {
	cfg := newCollectorConfig(t)
	cfg.FetchAttempts = 3
	ledger := newFakeLedger()
	ledger.fetchErrs = []error{errors.New("boom"), errors.New("boom")}
	ledger.pages = [][]string{{balanceID('a')}}

	c, err := NewCollector(cfg, ledger, &recordingLogger{}, nil)
	require.NoError(t, err)

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.Reclaimed)
	require.Equal(t, 4, ledger.fetches)

	// Two failures grew the delay; the successful fetch reset it.
	require.Equal(t, cfg.BackoffInitial, c.retry.Current())
}

func TestCollectGivesUpAfterFetchAttempts(t *testing.T) {
	cfg := newCollectorConfig(t)
	cfg.FetchAttempts = 2
	ledger := newFakeLedger()
	ledger.fetchErrs = []error{errors.New("boom"), errors.New("boom"), errors.New("boom")}

	c, err := NewCollector(cfg, ledger, &recordingLogger{}, nil)
	require.NoError(t, err)

	_, err = c.Run(context.Background())
	require.ErrorContains(t, err, "after 2 attempts")
	require.Equal(t, 2, ledger.fetches)
}

func TestCollectInterruptedWhilePolling(t *testing.T) {
	cfg := newCollectorConfig(t)
	clock := clockwork.NewFakeClock()
	cfg.Clock = clock
	cfg.PollInterval = time.Minute

	page := []string{balanceID('a')}
	ledger := newFakeLedger()
	ledger.pages = [][]string{page, page, page, page}

	c, err := NewCollector(cfg, ledger, &recordingLogger{}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type result struct {
		res CollectResult
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := c.Run(ctx)
		done <- result{res, err}
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()

	// First pause: advance into the second iteration.
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	clock.Advance(time.Minute)

	// Second pause: interrupt instead.
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	cancel()

	select {
	case r := <-done:
		require.ErrorIs(t, r.err, domain.ErrInterrupted)
		require.Equal(t, 2, r.res.Iterations)
		require.Equal(t, 1, r.res.Stagnant)
		require.Equal(t, "aborted", r.res.Outcome)
	case <-time.After(5 * time.Second):
		t.Fatal("collector did not stop")
	}
}

func TestCollectorConfigValidate(t *testing.T) {
	cfg := newCollectorConfig(t)
	cfg.Collector = nil
	_, err := NewCollector(cfg, newFakeLedger(), &recordingLogger{}, nil)
	require.ErrorIs(t, err, domain.ErrInvalidConfig)

	cfg = newCollectorConfig(t)
	cfg.PageSize = 500
	_, err = NewCollector(cfg, newFakeLedger(), &recordingLogger{}, nil)
	require.ErrorIs(t, err, domain.ErrInvalidConfig)

	cfg = newCollectorConfig(t)
	cfg.PollInterval = -time.Second
	_, err = NewCollector(cfg, newFakeLedger(), &recordingLogger{}, nil)
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
}
