// internal/domain/money.go
package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// Ledger columns hold float64 values, which carry about 15 significant
// decimal digits exactly.
const maxFloatExponent = 308

// StorableAmount returns d as the ledger columns will hold it. ok is false
// when d has no finite float64 form.
func StorableAmount(d decimal.Decimal) (stored decimal.Decimal, ok bool) {
	// Checked first: converting a huge exponent is expensive.
	if exp := d.Exponent(); exp > maxFloatExponent || exp < -maxFloatExponent-16 {
		return decimal.Zero, false
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}
