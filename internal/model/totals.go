package model

import "github.com/shopspring/decimal"

// LineAmounts holds the computed parts of one line.
type LineAmounts struct {
	Net   decimal.Decimal
	Tax   decimal.Decimal
	Total decimal.Decimal
}

// ComputeLine returns net = qty*price, tax = net*rate and total = net+tax.
func ComputeLine(qty, price, rate decimal.Decimal) LineAmounts {
	net := qty.Mul(price)
	tax := net.Mul(rate)
	return LineAmounts{Net: net, Tax: tax, Total: net.Add(tax)}
}

// Totals accumulates document totals over its lines.
type Totals struct {
	Subtotal decimal.Decimal
	TaxTotal decimal.Decimal
}

// Add folds one line into the running totals.
func (t *Totals) Add(l LineAmounts) {
	t.Subtotal = t.Subtotal.Add(l.Net)
	t.TaxTotal = t.TaxTotal.Add(l.Tax)
}

// Total is subtotal plus tax, rounded to cents.
func (t Totals) Total() decimal.Decimal {
	return t.Subtotal.Add(t.TaxTotal).Round(2)
}
