package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// OutcomeKind classifies the result of a transaction submission.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeRetryable
	OutcomeOperationFailure
	OutcomeTransactionFailure
	OutcomeUnknownFailure
)

// String returns a human-readable representation of the kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeOperationFailure:
		return "operation_failure"
	case OutcomeTransactionFailure:
		return "transaction_failure"
	case OutcomeUnknownFailure:
		return "unknown_failure"
	default:
		return "unknown"
	}
}

// Retryable reports whether resubmitting the same envelope unchanged is safe.
// Only timeouts and 503/504 qualify; everything else needs a human or a
// rebuild with a fresh sequence number.
func (k OutcomeKind) Retryable() bool {
	return k == OutcomeRetryable
}

// Outcome is the classified result of one submission.
type Outcome struct {
	Kind OutcomeKind

	// Hash is the transaction hash, when known.
	Hash string

	// Reasons holds the failing operation codes (OutcomeOperationFailure)
	// or the single transaction code (OutcomeTransactionFailure).
	Reasons []string

	// Err is the underlying error for any non-success outcome.
	Err error
}

// Failed returns true for every kind other than success.
func (o Outcome) Failed() bool {
	return o.Kind != OutcomeSuccess
}

// Reason joins Reasons for logging.
func (o Outcome) Reason() string {
	return strings.Join(o.Reasons, ", ")
}

// SubmitError is the ledger adapter's description of a rejected submission.
type SubmitError struct {
	// Status is the HTTP status returned by the ledger API, 0 if none.
	Status int

	// TransactionCode is the transaction-level result code, e.g. tx_bad_seq.
	TransactionCode string

	// OperationCodes holds one result code per operation, in order.
	OperationCodes []string

	// Err is the transport or decoding error, if any.
	Err error
}

func (e *SubmitError) Error() string {
	switch {
	case len(e.OperationCodes) > 0:
		return fmt.Sprintf("submit failed (status %d): %s [%s]", e.Status, e.TransactionCode, strings.Join(e.OperationCodes, ", "))
	case e.TransactionCode != "":
		return fmt.Sprintf("submit failed (status %d): %s", e.Status, e.TransactionCode)
	case e.Err != nil:
		return fmt.Sprintf("submit failed (status %d): %v", e.Status, e.Err)
	default:
		return fmt.Sprintf("submit failed (status %d)", e.Status)
	}
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// unknownReason is reported when a rejection carries no result codes.
const unknownReason = "unknown_reason"

// Classify maps a submission result onto an Outcome.
func Classify(hash string, err error) Outcome {
	if err == nil {
		return Outcome{Kind: OutcomeSuccess, Hash: hash}
	}

	out := Outcome{Hash: hash, Err: err}

	var serr *SubmitError
	if errors.As(err, &serr) {
		switch {
		case serr.Status == http.StatusServiceUnavailable || serr.Status == http.StatusGatewayTimeout:
			out.Kind = OutcomeRetryable
			out.Reasons = []string{http.StatusText(serr.Status)}
		case failingOperations(serr.OperationCodes) != nil:
			out.Kind = OutcomeOperationFailure
			out.Reasons = failingOperations(serr.OperationCodes)
		case serr.TransactionCode != "":
			out.Kind = OutcomeTransactionFailure
			out.Reasons = []string{serr.TransactionCode}
		case serr.Status != 0:
			out.Kind = OutcomeTransactionFailure
			out.Reasons = []string{unknownReason}
		case isTimeout(serr.Err):
			out.Kind = OutcomeRetryable
			out.Reasons = []string{"timeout"}
		default:
			out.Kind = OutcomeUnknownFailure
		}
		return out
	}

	if isTimeout(err) {
		out.Kind = OutcomeRetryable
		out.Reasons = []string{"timeout"}
		return out
	}

	out.Kind = OutcomeUnknownFailure
	return out
}

// failingOperations returns "op[i]=code" for every non-success operation code.
func failingOperations(codes []string) []string {
	var failed []string
	for i, c := range codes {
		if c == "" || c == "op_success" {
			continue
		}
		failed = append(failed, fmt.Sprintf("op[%d]=%s", i, c))
	}
	return failed
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
