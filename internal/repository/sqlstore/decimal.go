// internal/repository/sqlstore/decimal.go
package sqlstore

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// toDecimal converts a scanned REAL / DOUBLE PRECISION value. A non-finite
// value cannot be represented and is reported instead of converted.
func toDecimal(column string, value float64) (decimal.Decimal, error) {
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return decimal.Zero, fmt.Errorf("%s holds non-finite value %v", column, value)
	}
	return decimal.NewFromFloat(value), nil
}
