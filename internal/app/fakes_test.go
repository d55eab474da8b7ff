package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stellar/go/keypair"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/claimdrop/internal/domain"
	"github.com/bft-labs/claimdrop/internal/ports"
	"github.com/bft-labs/claimdrop/internal/txbuild"
)

// recordingLogger keeps every message for assertions.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

type logEntry struct {
	level  string
	msg    string
	fields []ports.Field
}

func (l *recordingLogger) add(level, msg string, fields []ports.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, fields: fields})
}

func (l *recordingLogger) Debug(msg string, fields ...ports.Field) { l.add("debug", msg, fields) }
func (l *recordingLogger) Info(msg string, fields ...ports.Field)  { l.add("info", msg, fields) }
func (l *recordingLogger) Warn(msg string, fields ...ports.Field)  { l.add("warn", msg, fields) }
func (l *recordingLogger) Error(msg string, fields ...ports.Field) { l.add("error", msg, fields) }

func (l *recordingLogger) count(level, prefix string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.level == level && strings.HasPrefix(e.msg, prefix) {
			n++
		}
	}
	return n
}

// countingEvents implements ports.Events.
type countingEvents struct {
	mu        sync.Mutex
	pages     int
	persisted int
	skipped   int
	stagnant  int
	outcomes  []domain.OutcomeKind
}

func (e *countingEvents) PageBuilt(string, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pages++
}

func (e *countingEvents) EnvelopePersisted(string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.persisted++
}

func (e *countingEvents) RecordSkipped() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.skipped++
}

func (e *countingEvents) Submitted(_ string, kind domain.OutcomeKind) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.outcomes = append(e.outcomes, kind)
}

func (e *countingEvents) StagnantPage() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stagnant++
}

// fakeLedger implements ports.Ledger in memory.
type fakeLedger struct {
	mu        sync.Mutex
	sequences map[string]int64
	fee       int64
	seqErr    error

	// submit decides the result of each submission; nil accepts.
	submit    func(n int, envelope string) (string, error)
	submitted []string

	// pages are returned by successive ClaimableBalances calls; once
	// exhausted an empty page is returned.
	pages     [][]string
	fetchErrs []error
	fetches   int
}

var _ ports.Ledger = (*fakeLedger)(nil)

func newFakeLedger() *fakeLedger {
	return &fakeLedger{sequences: map[string]int64{}, fee: 100}
}

func (l *fakeLedger) AccountSequence(ctx context.Context, address string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seqErr != nil {
		return 0, l.seqErr
	}
	return l.sequences[address], ctx.Err()
}

func (l *fakeLedger) BaseFee(context.Context) (int64, error) {
	return l.fee, nil
}

func (l *fakeLedger) SubmitEnvelope(_ context.Context, envelope string) (string, error) {
	l.mu.Lock()
	n := len(l.submitted)
	l.submitted = append(l.submitted, envelope)
	submit := l.submit
	l.mu.Unlock()

	if submit == nil {
		return "", nil
	}
	return submit(n, envelope)
}

func (l *fakeLedger) ClaimableBalances(context.Context, string, domain.Asset, int) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := l.fetches
	l.fetches++
	if n < len(l.fetchErrs) && l.fetchErrs[n] != nil {
		return nil, l.fetchErrs[n]
	}
	idx := n - len(l.fetchErrs)
	if idx < 0 || idx >= len(l.pages) {
		return nil, nil
	}
	return l.pages[idx], nil
}

func (l *fakeLedger) submissions() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.submitted...)
}

// memoryWriter implements ports.EnvelopeWriter in memory.
type memoryWriter struct {
	rows     []string
	closed   bool
	path     string
	onAppend func(n int)
	failAt   int
}

func (w *memoryWriter) Append(envelope string) error {
	if w.closed {
		return errors.New("closed")
	}
	if w.failAt > 0 && len(w.rows)+1 == w.failAt {
		return errors.New("disk full")
	}
	w.rows = append(w.rows, envelope)
	if w.onAppend != nil {
		w.onAppend(len(w.rows))
	}
	return nil
}

func (w *memoryWriter) Close() (string, error) {
	if w.closed {
		return "", errors.New("closed twice")
	}
	w.closed = true
	if len(w.rows) == 0 {
		return "", nil
	}
	if w.path == "" {
		w.path = "memory.csv"
	}
	return w.path, nil
}

// memoryReader implements ports.EnvelopeReader.
type memoryReader map[string][]string

func (r memoryReader) ReadEnvelopes(_ context.Context, path string) ([]string, error) {
	envs, ok := r[path]
	if !ok {
		return nil, errors.New("no such artifact")
	}
	return envs, nil
}

func balanceID(c byte) string {
	return "00000000" + strings.Repeat(string(c), 64)
}

// signedEnvelope builds a one-operation transaction from source at seq,
// signed for passphrase.
func signedEnvelope(t *testing.T, source *keypair.Full, seq int64, passphrase string) string {
	t.Helper()
	tx, err := txbuild.BuildReclaim(source.Address(), seq, 100, "TEST claimback", []string{balanceID('a')})
	require.NoError(t, err)
	env, err := txbuild.Sign(tx, passphrase, source)
	require.NoError(t, err)
	return env
}
