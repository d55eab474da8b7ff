// Package ports defines the interfaces that connect the application layer to
// infrastructure adapters.
//
// # Port Interfaces
//
//   - [Ledger]: account snapshot, base fee, submission, claimable balances
//   - [EnvelopeWriter]: persists signed envelopes as they are built
//   - [EnvelopeReader]: reads a persisted artifact back in file order
//   - [Logger]: structured logging abstraction
//   - [Events]: counters for pages, envelopes and submissions
//
// The application layer (internal/app) depends only on these interfaces.
// Adapters in internal/adapters implement them with Horizon, CSV files,
// zerolog and Prometheus.
package ports
