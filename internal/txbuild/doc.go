// Package txbuild turns pages of recipients and pages of claimable balances
// into ledger transactions, and decodes, verifies and co-signs persisted
// envelopes.
//
// Every transaction built here uses an infinite time bound so that an
// artifact can be signed and submitted long after it was generated. The
// sequence number is the only thing that orders or invalidates it.
package txbuild
