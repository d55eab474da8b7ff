package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stellar/go/strkey"
)

// Recipient is a single entry of the distribution list.
type Recipient struct {
	// Address is the recipient account (G... strkey).
	Address string

	// Multiplier scales the base amount for this recipient.
	Multiplier int64

	// Line is the zero-based input row the recipient was read from.
	Line int
}

// RecordError describes why an input row was rejected.
type RecordError struct {
	// Line is the zero-based row number in the input.
	Line int

	// Value is the account column as read, for diagnostics.
	Value string

	// Reason is a short human-readable cause.
	Reason string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d (%q): %s", e.Line, e.Value, e.Reason)
}

// Unwrap lets callers match record errors with errors.Is(err, ErrInvalidRecord).
func (e *RecordError) Unwrap() error {
	return ErrInvalidRecord
}

// ParseRecord converts one tabular row into a Recipient.
// The row must hold an account address followed by a non-negative integer
// multiplier. Extra columns are ignored.
func ParseRecord(line int, row []string) (Recipient, *RecordError) {
	if len(row) < 2 {
		value := ""
		if len(row) == 1 {
			value = row[0]
		}
		return Recipient{}, &RecordError{Line: line, Value: value, Reason: "expected account and multiplier columns"}
	}

	address := strings.TrimSpace(row[0])
	if !strkey.IsValidEd25519PublicKey(address) {
		return Recipient{}, &RecordError{Line: line, Value: row[0], Reason: "invalid account address"}
	}

	multiplier, err := strconv.ParseInt(strings.TrimSpace(row[1]), 10, 64)
	if err != nil {
		return Recipient{}, &RecordError{Line: line, Value: row[0], Reason: fmt.Sprintf("invalid multiplier %q", row[1])}
	}
	if multiplier < 0 {
		return Recipient{}, &RecordError{Line: line, Value: row[0], Reason: fmt.Sprintf("negative multiplier %d", multiplier)}
	}

	return Recipient{Address: address, Multiplier: multiplier, Line: line}, nil
}
