package txbuild

import (
	"fmt"

	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"

	"github.com/bft-labs/claimdrop/internal/domain"
)

// PredicateXDR converts a domain predicate tree to its XDR form.
func PredicateXDR(p domain.Predicate) (xdr.ClaimPredicate, error) {
	switch p.Kind {
	case domain.PredicateAnd:
		if len(p.Children) != 2 {
			return xdr.ClaimPredicate{}, fmt.Errorf("and predicate needs 2 operands, got %d", len(p.Children))
		}
		left, err := PredicateXDR(p.Children[0])
		if err != nil {
			return xdr.ClaimPredicate{}, err
		}
		right, err := PredicateXDR(p.Children[1])
		if err != nil {
			return xdr.ClaimPredicate{}, err
		}
		return txnbuild.AndPredicate(left, right), nil
	case domain.PredicateNot:
		if len(p.Children) != 1 {
			return xdr.ClaimPredicate{}, fmt.Errorf("not predicate needs 1 operand, got %d", len(p.Children))
		}
		inner, err := PredicateXDR(p.Children[0])
		if err != nil {
			return xdr.ClaimPredicate{}, err
		}
		return txnbuild.NotPredicate(inner), nil
	case domain.PredicateBeforeAbsolute:
		return txnbuild.BeforeAbsoluteTimePredicate(p.Before.Unix()), nil
	default:
		return xdr.ClaimPredicate{}, fmt.Errorf("unsupported predicate %s", p.Kind)
	}
}
