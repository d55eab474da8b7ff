package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent error conditions in the claimdrop domain.
// Check them with errors.Is.
var (
	// ErrInvalidConfig is returned when configuration validation fails.
	// It is fatal and reported before any network call.
	ErrInvalidConfig = errors.New("claimdrop: invalid configuration")

	// ErrInvalidRecord marks a malformed input row. The row is skipped.
	ErrInvalidRecord = errors.New("claimdrop: invalid record")

	// ErrEmptyPage is returned when a page yields no operations to build.
	ErrEmptyPage = errors.New("claimdrop: empty page")

	// ErrNetworkMismatch is returned when an envelope was signed for a
	// different network than the one declared for this stage.
	ErrNetworkMismatch = errors.New("claimdrop: network mismatch")

	// ErrInterrupted reports that a run stopped on request before finishing.
	// Work built before the interruption has still been persisted.
	ErrInterrupted = errors.New("claimdrop: interrupted")

	// ErrInvalidTransition is returned for a run phase change the state
	// machine does not allow.
	ErrInvalidTransition = errors.New("claimdrop: invalid phase transition")
)

// ConfigError wraps ErrInvalidConfig with the offending setting.
func ConfigError(field, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, field, fmt.Sprintf(format, args...))
}
