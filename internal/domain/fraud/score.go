package fraud

import (
	"github.com/shopspring/decimal"
)

// NormalClass is the classifier label of legitimate transactions
const NormalClass = 0

var hundred = decimal.NewFromInt(100)

// RiskScore converts class probabilities into a 0-100 risk score:
// (1 - P(normal)) * 100 rounded to two decimals. A classifier that does not
// know the normal class yields the maximum score.
func RiskScore(classes []int, probabilities []float64) (decimal.Decimal, error) {
	if len(classes) == 0 || len(classes) != len(probabilities) {
		return decimal.Zero, ErrInvalidProbabilities
	}

	safe := decimal.Zero
	for i, class := range classes {
		p := probabilities[i]
		if p < 0 || p > 1 {
			return decimal.Zero, ErrInvalidProbabilities
		}
		if class == NormalClass {
			safe = decimal.NewFromFloat(p)
		}
	}

	return decimal.NewFromInt(1).Sub(safe).Mul(hundred).Round(2), nil
}
