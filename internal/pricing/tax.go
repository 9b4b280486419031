package pricing

// LineAmounts is the computed monetary state of a single invoice line.
// Total and TaxAmount are always derived from quantity, unit price and the
// line's frozen tax-inclusion flag; they are never set independently.
type LineAmounts struct {
	Total     float64 `json:"total"`
	TaxAmount float64 `json:"tax_amount"`
}

// ComputeLine derives a line's total and tax amount.
//
// With VAT disabled or a non-positive rate the line carries no tax. An
// inclusive price already contains VAT, so the total stays quantity*unitPrice
// and the tax is backed out of it; an exclusive price has the tax added on
// top. Negative quantities (return lines) flow through unchanged: the tax
// scales linearly and sign-correctly.
//
// Values are kept unrounded; rounding to two decimals happens only at
// presentation time so that invoice totals summed from many lines do not
// accumulate drift.
func ComputeLine(quantity, unitPrice float64, taxInclusive, vatEnabled bool, vatRatePercent float64) LineAmounts {
	base := quantity * unitPrice

	if !vatEnabled || vatRatePercent <= 0 {
		return LineAmounts{Total: base, TaxAmount: 0}
	}

	if taxInclusive {
		net := base / (1 + vatRatePercent/100)
		return LineAmounts{Total: base, TaxAmount: base - net}
	}

	tax := base * vatRatePercent / 100
	return LineAmounts{Total: base + tax, TaxAmount: tax}
}
