package ports

import "github.com/bft-labs/claimdrop/internal/domain"

// Stage names used in events and logs.
const (
	StageGenerate = "generate"
	StageCollect  = "collect"
	StageSign     = "sign"
	StageSubmit   = "submit"
)

// Events receives pipeline progress notifications.
// Implementations must be safe for concurrent use and must not block.
type Events interface {
	PageBuilt(stage string, operations int)
	EnvelopePersisted(stage string)
	RecordSkipped()
	Submitted(stage string, kind domain.OutcomeKind)
	StagnantPage()
}

// NopEvents discards every event.
type NopEvents struct{}

func (NopEvents) PageBuilt(string, int) {}
func (NopEvents) EnvelopePersisted(string) {}
func (NopEvents) RecordSkipped() {}
func (NopEvents) Submitted(string, domain.OutcomeKind) {}
func (NopEvents) StagnantPage() {}
