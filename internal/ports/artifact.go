package ports

import "context"

// EnvelopeWriter persists signed envelopes in build order.
//
// Append writes through to durable intermediate storage so a crash loses at
// most the envelope being written. Close finalizes the artifact and must be
// called on every exit path, including interruption.
type EnvelopeWriter interface {
	Append(envelope string) error

	// Close finalizes the artifact and returns its path. When nothing was
	// appended no artifact is produced and the path is empty.
	Close() (string, error)
}

// EnvelopeReader reads a persisted artifact in file order.
type EnvelopeReader interface {
	ReadEnvelopes(ctx context.Context, path string) ([]string, error)
}
