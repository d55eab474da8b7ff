// Package domain contains the core entities and value objects for claimdrop.
//
// This package is the innermost layer. It knows nothing about Horizon, files,
// or logging; it holds the rules that decide what a distribution looks like.
//
// # Entities
//
//   - [Recipient]: one account and the integer multiplier of the base amount
//   - [Asset]: the single credit asset being distributed
//   - [ClaimWindow]: the [notBefore, notAfter) interval gating claims
//   - [Predicate]: time predicates for recipients and the collector
//   - [SequenceAllocator]: hands out sequence numbers from one account snapshot
//   - [Pager]: a cursor over the recipient list in pages of at most 100
//   - [Outcome]: the classified result of a submission
//   - [NetworkProfile]: endpoint plus network passphrase, chosen once per run
//
// # Amounts
//
// Ledger amounts are fixed point with 7 fractional digits. [Quantize] uses
// exact decimal arithmetic and truncates toward zero.
package domain
