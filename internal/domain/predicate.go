package domain

import "time"

// PredicateKind enumerates the predicate node types used by claimdrop.
type PredicateKind int

const (
	PredicateAnd PredicateKind = iota + 1
	PredicateNot
	PredicateBeforeAbsolute
)

// String returns a human-readable representation of the kind.
func (k PredicateKind) String() string {
	switch k {
	case PredicateAnd:
		return "and"
	case PredicateNot:
		return "not"
	case PredicateBeforeAbsolute:
		return "before_absolute_time"
	default:
		return "unknown"
	}
}

// Predicate is a boolean time predicate tree. It is pure data; the ledger
// enforces it on-chain. Eval exists so the policy can be checked offline.
type Predicate struct {
	Kind     PredicateKind
	Children []Predicate

	// Before is the exclusive bound for PredicateBeforeAbsolute, truncated
	// to whole seconds as the ledger stores it.
	Before time.Time
}

// And returns the conjunction of two predicates.
func And(left, right Predicate) Predicate {
	return Predicate{Kind: PredicateAnd, Children: []Predicate{left, right}}
}

// Not negates a predicate.
func Not(p Predicate) Predicate {
	return Predicate{Kind: PredicateNot, Children: []Predicate{p}}
}

// BeforeAbsolute is true while the close time is strictly before t.
func BeforeAbsolute(t time.Time) Predicate {
	return Predicate{Kind: PredicateBeforeAbsolute, Before: t.Truncate(time.Second)}
}

// Eval evaluates the predicate at the given instant.
func (p Predicate) Eval(at time.Time) bool {
	switch p.Kind {
	case PredicateAnd:
		for _, c := range p.Children {
			if !c.Eval(at) {
				return false
			}
		}
		return true
	case PredicateNot:
		return len(p.Children) == 1 && !p.Children[0].Eval(at)
	case PredicateBeforeAbsolute:
		return at.Before(p.Before)
	default:
		return false
	}
}

// RecipientPredicate is true iff NotBefore <= now < NotAfter.
func RecipientPredicate(w ClaimWindow) Predicate {
	return And(
		Not(BeforeAbsolute(w.NotBefore)),
		BeforeAbsolute(w.NotAfter),
	)
}

// CollectorPredicate is true iff now >= NotAfter.
func CollectorPredicate(w ClaimWindow) Predicate {
	return Not(BeforeAbsolute(w.NotAfter))
}
