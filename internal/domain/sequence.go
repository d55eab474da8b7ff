package domain

// SequenceAllocator hands out sequence numbers for one source account.
//
// It is seeded once from an account snapshot and never re-reads the
// network. If the account's real sequence moves underneath it (another
// transaction from the same account elsewhere), later transactions are
// rejected by the network with a bad-sequence error. That divergence is
// accepted and surfaced, not corrected here.
//
// A SequenceAllocator is not safe for concurrent use; the generator is its
// only caller.
type SequenceAllocator struct {
	next int64
}

// NewSequenceAllocator returns an allocator whose first Next is first.
func NewSequenceAllocator(first int64) *SequenceAllocator {
	return &SequenceAllocator{next: first}
}

// FromAccountSequence seeds an allocator from the account's current
// sequence number. The account's next transaction must use current+1.
func FromAccountSequence(current int64) *SequenceAllocator {
	return NewSequenceAllocator(current + 1)
}

// Next returns the next unused sequence number and advances by one.
func (a *SequenceAllocator) Next() int64 {
	n := a.next
	a.next++
	return n
}

// Peek returns the value the next call to Next will return.
func (a *SequenceAllocator) Peek() int64 {
	return a.next
}
