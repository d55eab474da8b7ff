package domain

import "time"

// ClaimWindow is the half-open interval [NotBefore, NotAfter) in which a
// recipient may claim. The collector may reclaim from NotAfter on.
type ClaimWindow struct {
	NotBefore time.Time
	NotAfter  time.Time
}

// NewClaimWindow validates and returns a window. Both ends are truncated to
// whole seconds, the resolution of on-ledger time predicates. An empty or
// inverted window is a configuration error.
func NewClaimWindow(notBefore, notAfter time.Time) (ClaimWindow, error) {
	notBefore = notBefore.Truncate(time.Second)
	notAfter = notAfter.Truncate(time.Second)
	if !notBefore.Before(notAfter) {
		return ClaimWindow{}, ConfigError("claim window", "start %s must be before end %s",
			notBefore.UTC().Format(time.RFC3339), notAfter.UTC().Format(time.RFC3339))
	}
	return ClaimWindow{NotBefore: notBefore, NotAfter: notAfter}, nil
}

// Contains reports whether t falls inside [NotBefore, NotAfter).
func (w ClaimWindow) Contains(t time.Time) bool {
	return !t.Before(w.NotBefore) && t.Before(w.NotAfter)
}
