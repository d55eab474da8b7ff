package ports

import (
	"context"

	"github.com/bft-labs/claimdrop/internal/domain"
)

// Ledger is the slice of the network client the core needs.
// Implementations talk to Horizon; tests use in-memory fakes.
type Ledger interface {
	// AccountSequence returns the account's current sequence number.
	AccountSequence(ctx context.Context, address string) (int64, error)

	// BaseFee returns the per-operation fee in stroops.
	BaseFee(ctx context.Context) (int64, error)

	// SubmitEnvelope submits a base64 XDR envelope and returns its hash.
	// Rejections are reported as *domain.SubmitError.
	SubmitEnvelope(ctx context.Context, envelope string) (string, error)

	// ClaimableBalances returns up to limit balance IDs claimable by claimant
	// for the given asset, in ledger order.
	ClaimableBalances(ctx context.Context, claimant string, asset domain.Asset, limit int) ([]string, error)
}
