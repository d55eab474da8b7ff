package txbuild

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"

	"github.com/bft-labs/claimdrop/internal/domain"
)

// Config describes the distribution every page is built for.
type Config struct {
	// Source is the distribution account that funds and sequences every page.
	Source string

	// Collector may reclaim a balance once the window closes.
	Collector string

	Asset      domain.Asset
	Window     domain.ClaimWindow
	BaseAmount decimal.Decimal

	// BaseFee is the per-operation fee in stroops; raised to the ledger
	// minimum when lower.
	BaseFee int64
}

// Builder builds one create-claimable-balance transaction per page.
type Builder struct {
	cfg       Config
	asset     txnbuild.CreditAsset
	recipient xdr.ClaimPredicate
	collector xdr.ClaimPredicate
}

// NewBuilder precomputes the asset and both claim predicates.
func NewBuilder(cfg Config) (*Builder, error) {
	if err := cfg.Asset.Validate(); err != nil {
		return nil, err
	}
	if !cfg.BaseAmount.IsPositive() {
		return nil, domain.ConfigError("base amount", "%s must be positive", cfg.BaseAmount)
	}
	if cfg.BaseFee < txnbuild.MinBaseFee {
		cfg.BaseFee = txnbuild.MinBaseFee
	}

	recipient, err := PredicateXDR(domain.RecipientPredicate(cfg.Window))
	if err != nil {
		return nil, fmt.Errorf("recipient predicate: %w", err)
	}
	collector, err := PredicateXDR(domain.CollectorPredicate(cfg.Window))
	if err != nil {
		return nil, fmt.Errorf("collector predicate: %w", err)
	}

	return &Builder{
		cfg:       cfg,
		asset:     txnbuild.CreditAsset{Code: cfg.Asset.Code, Issuer: cfg.Asset.Issuer},
		recipient: recipient,
		collector: collector,
	}, nil
}

// Amount returns the quantized amount a recipient receives.
func (b *Builder) Amount(r domain.Recipient) decimal.Decimal {
	return domain.Quantize(b.cfg.BaseAmount, r.Multiplier)
}

// BuildPage builds an unsigned transaction with one claimable balance per
// recipient, in page order. The whole page shares one sequence number taken
// from alloc. An empty page returns (nil, nil) and allocates nothing.
// A rejected page returns an error and leaves alloc untouched.
func (b *Builder) BuildPage(page []domain.Recipient, alloc *domain.SequenceAllocator) (*txnbuild.Transaction, error) {
	if len(page) == 0 {
		return nil, nil
	}
	if len(page) > domain.MaxOperationsPerTransaction {
		return nil, fmt.Errorf("page of %d recipients exceeds %d operations", len(page), domain.MaxOperationsPerTransaction)
	}

	ops := make([]txnbuild.Operation, 0, len(page))
	for _, r := range page {
		recipientPred := b.recipient
		collectorPred := b.collector
		ops = append(ops, &txnbuild.CreateClaimableBalance{
			Destinations: []txnbuild.Claimant{
				txnbuild.NewClaimant(r.Address, &recipientPred),
				txnbuild.NewClaimant(b.cfg.Collector, &collectorPred),
			},
			Asset:  b.asset,
			Amount: domain.FormatAmount(b.Amount(r)),
		})
	}

	tx, err := newTransaction(b.cfg.Source, alloc.Peek(), b.cfg.BaseFee, b.cfg.Asset.AirdropMemo(), ops)
	if err != nil {
		return nil, err
	}
	alloc.Next()
	return tx, nil
}

// BuildReclaim builds one claim operation per balance ID, sourced from and
// sequenced by the collector account.
func BuildReclaim(collector string, seq, baseFee int64, memo string, balanceIDs []string) (*txnbuild.Transaction, error) {
	if len(balanceIDs) == 0 {
		return nil, domain.ErrEmptyPage
	}
	if len(balanceIDs) > domain.MaxOperationsPerTransaction {
		return nil, fmt.Errorf("page of %d balances exceeds %d operations", len(balanceIDs), domain.MaxOperationsPerTransaction)
	}
	if baseFee < txnbuild.MinBaseFee {
		baseFee = txnbuild.MinBaseFee
	}

	ops := make([]txnbuild.Operation, 0, len(balanceIDs))
	for _, id := range balanceIDs {
		ops = append(ops, &txnbuild.ClaimClaimableBalance{
			BalanceID:     id,
			SourceAccount: collector,
		})
	}
	return newTransaction(collector, seq, baseFee, memo, ops)
}

func newTransaction(source string, seq, baseFee int64, memo string, ops []txnbuild.Operation) (*txnbuild.Transaction, error) {
	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &txnbuild.SimpleAccount{AccountID: source, Sequence: seq},
		IncrementSequenceNum: false,
		Operations:           ops,
		BaseFee:              baseFee,
		Memo:                 txnbuild.MemoText(memo),
		Preconditions:        txnbuild.Preconditions{TimeBounds: txnbuild.NewInfiniteTimeout()},
	})
	if err != nil {
		return nil, fmt.Errorf("build transaction (seq %d): %w", seq, err)
	}
	return tx, nil
}
