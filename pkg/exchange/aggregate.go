package exchange

import "github.com/shopspring/decimal"

// MarginWithheld sums the margin locked in the given positions.
func MarginWithheld(positions []Position) decimal.Decimal {
	total := decimal.Zero
	for _, p := range positions {
		total = total.Add(p.Margin)
	}
	return total
}

// CalculateProfit sums the profit and loss of the given positions.
func CalculateProfit(positions []Position) decimal.Decimal {
	total := decimal.Zero
	for _, p := range positions {
		total = total.Add(p.Pl)
	}
	return total
}
