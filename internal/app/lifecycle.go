package app

import (
	"fmt"
	"sync"

	"github.com/bft-labs/claimdrop/internal/domain"
	"github.com/bft-labs/claimdrop/internal/ports"
)

// Phase is the state of one stage run.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseBuilding
	PhaseAborting
	PhaseFinalizing
	PhaseDone
)

// String returns a human-readable representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseBuilding:
		return "building"
	case PhaseAborting:
		return "aborting"
	case PhaseFinalizing:
		return "finalizing"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// Lifecycle is the run state machine:
//
//	idle -> building -> finalizing -> done
//	           |             ^
//	           +-> aborting -+
//
// Finalizing is reachable from both building and aborting, so the
// persistence step runs on every exit path.
type Lifecycle struct {
	mu      sync.RWMutex
	phase   Phase
	aborted bool
	stage   string
	logger  ports.Logger
}

// NewLifecycle creates a lifecycle in the idle phase.
func NewLifecycle(stage string, logger ports.Logger) *Lifecycle {
	return &Lifecycle{
		phase:  PhaseIdle,
		stage:  stage,
		logger: logger,
	}
}

// Phase returns the current phase.
func (l *Lifecycle) Phase() Phase {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.phase
}

// Aborted reports whether the run passed through the aborting phase.
func (l *Lifecycle) Aborted() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.aborted
}

// Outcome is "aborted" for interrupted runs and the phase name otherwise.
func (l *Lifecycle) Outcome() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.aborted && l.phase == PhaseDone {
		return "aborted"
	}
	return l.phase.String()
}

// TransitionTo moves to next, or returns ErrInvalidTransition.
func (l *Lifecycle) TransitionTo(next Phase, reason string) error {
	l.mu.Lock()
	prev := l.phase

	if !validTransition(prev, next) {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, prev, next)
	}

	l.phase = next
	if next == PhaseAborting {
		l.aborted = true
	}
	l.mu.Unlock()

	l.logger.Debug("phase transition",
		ports.String("stage", l.stage),
		ports.String("from", prev.String()),
		ports.String("to", next.String()),
		ports.String("reason", reason),
	)
	return nil
}

func validTransition(from, to Phase) bool {
	switch from {
	case PhaseIdle:
		return to == PhaseBuilding
	case PhaseBuilding:
		return to == PhaseAborting || to == PhaseFinalizing
	case PhaseAborting:
		return to == PhaseFinalizing
	case PhaseFinalizing:
		return to == PhaseDone
	default:
		return false
	}
}
