package pricing

import "math"

// Epsilon is the tolerance used when comparing monetary values at commit
// boundaries (split balancing, credit limits). One cent.
const Epsilon = 0.01

// Totals is the invoice-level aggregate. The invariant net = subtotal + tax -
// discount holds at all times; subtotal is the tax-exclusive base of every
// line regardless of each line's own inclusion flag. Net may go negative on a
// return-dominant invoice.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Discount float64 `json:"discount"`
	Net      float64 `json:"net"`
}

// Aggregate folds computed lines and a discount into invoice totals.
// Re-aggregating unchanged inputs yields bit-identical output, which callers
// rely on to skip redundant state updates.
func Aggregate(lines []LineAmounts, discount float64, vatEnabled bool) Totals {
	var subtotal, tax float64
	for _, l := range lines {
		if vatEnabled {
			subtotal += l.Total - l.TaxAmount
			tax += l.TaxAmount
		} else {
			subtotal += l.Total
		}
	}

	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Discount: discount,
		Net:      subtotal + tax - discount,
	}
}

// InferVATEnabled reconstructs the VAT flag from a stored invoice. Once an
// invoice is loaded for editing, recomputation uses this frozen flag rather
// than the live company setting, so historical tax treatment never changes
// silently.
func InferVATEnabled(storedTax float64, lines []LineAmounts) bool {
	if storedTax > 0 {
		return true
	}
	for _, l := range lines {
		if l.TaxAmount > 0 {
			return true
		}
	}
	return false
}

// Round2 rounds to two decimals for presentation. Internal accumulation stays
// unrounded.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ApproxEqual reports whether two monetary values agree within Epsilon.
func ApproxEqual(a, b float64) bool {
	return math.Abs(a-b) <= Epsilon
}
