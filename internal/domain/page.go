package domain

// MaxOperationsPerTransaction is the ledger's per-transaction operation ceiling.
const MaxOperationsPerTransaction = 100

// Pager walks an immutable recipient list in pages.
// It never mutates the list; it advances an offset, so a run can be
// resumed from any index.
type Pager struct {
	recipients []Recipient
	offset     int
	size       int
}

// NewPager returns a pager starting at offset. Page sizes outside
// [1, MaxOperationsPerTransaction] are clamped to the ceiling.
func NewPager(recipients []Recipient, offset, size int) *Pager {
	if size <= 0 || size > MaxOperationsPerTransaction {
		size = MaxOperationsPerTransaction
	}
	if offset < 0 {
		offset = 0
	}
	if offset > len(recipients) {
		offset = len(recipients)
	}
	return &Pager{recipients: recipients, offset: offset, size: size}
}

// Peek returns the current page without advancing, and false when the list
// is exhausted.
func (p *Pager) Peek() ([]Recipient, bool) {
	if p.offset >= len(p.recipients) {
		return nil, false
	}
	end := p.offset + p.size
	if end > len(p.recipients) {
		end = len(p.recipients)
	}
	return p.recipients[p.offset:end:end], true
}

// Advance moves past the current page.
func (p *Pager) Advance() {
	page, ok := p.Peek()
	if !ok {
		return
	}
	p.offset += len(page)
}

// Offset returns the index of the first recipient not yet consumed.
func (p *Pager) Offset() int {
	return p.offset
}

// Remaining returns how many recipients are left.
func (p *Pager) Remaining() int {
	return len(p.recipients) - p.offset
}

// Pages returns the number of pages left.
func (p *Pager) Pages() int {
	r := p.Remaining()
	return (r + p.size - 1) / p.size
}
