package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// AmountPrecision is the number of fractional digits the ledger stores.
const AmountPrecision = 7

// MaxAmount is the largest amount one balance can hold: math.MaxInt64 stroops.
var MaxAmount = decimal.New(math.MaxInt64, -AmountPrecision)

// Quantize returns base*multiplier truncated toward zero to 7 fractional
// digits. A zero multiplier yields zero.
func Quantize(base decimal.Decimal, multiplier int64) decimal.Decimal {
	return base.Mul(decimal.NewFromInt(multiplier)).Truncate(AmountPrecision)
}

// FormatAmount renders an amount with exactly 7 fractional digits.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(AmountPrecision)
}

// ParseBaseAmount parses a strictly positive decimal base amount.
func ParseBaseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ConfigError("base amount", "%q is not a decimal", s)
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, ConfigError("base amount", "%s must be positive", s)
	}
	return d, nil
}

// CheckPayable rejects a recipient whose quantized amount exceeds MaxAmount.
// Such a row would make the ledger reject its whole page.
func CheckPayable(base decimal.Decimal, r Recipient) *RecordError {
	amount := Quantize(base, r.Multiplier)
	if amount.GreaterThan(MaxAmount) {
		return &RecordError{
			Line:   r.Line,
			Value:  r.Address,
			Reason: fmt.Sprintf("amount %s exceeds ledger maximum %s", FormatAmount(amount), FormatAmount(MaxAmount)),
		}
	}
	return nil
}
