// Package pricing computes the monetary view of a cart. Everything here
// is a pure function over a cart snapshot; the cart itself never stores
// a derived total.
package pricing

import (
	"github.com/community-vercel/alwaqas-pos/internal/cart"
	"github.com/community-vercel/alwaqas-pos/internal/domain"
	"github.com/community-vercel/alwaqas-pos/internal/money"
)

// Totals is the derived monetary summary of a cart.
type Totals struct {
	Subtotal      float64
	ItemDiscounts float64
	GrandTotal    float64
}

// LineSubtotal is quantity x unit price, rounded.
func LineSubtotal(l cart.Line) float64 {
	return money.Round2(float64(l.Quantity) * l.UnitPrice)
}

// LineDiscountAmount computes a single line's discount. A fixed
// discount is clamped to the line subtotal so a line can never price
// below zero.
func LineDiscountAmount(l cart.Line) float64 {
	sub := LineSubtotal(l)
	switch l.DiscountType {
	case domain.DiscountPercentage:
		return money.Round2(float64(l.Quantity) * l.UnitPrice * l.DiscountValue / 100)
	case domain.DiscountFixed:
		d := money.Round2(l.DiscountValue)
		if d > sub {
			return sub
		}
		return d
	default:
		return 0
	}
}

// LineTotal is the line subtotal minus its discount.
func LineTotal(l cart.Line) float64 {
	return money.Round2(LineSubtotal(l) - LineDiscountAmount(l))
}

// Compute derives totals from the cart. Per-line values are rounded
// before summing so fractions cannot accumulate across lines. A manual
// grand-total override, when set, replaces the computed grand total.
func Compute(c *cart.Cart) Totals {
	var sub, disc float64
	for _, l := range c.Lines() {
		sub += LineSubtotal(l)
		disc += LineDiscountAmount(l)
	}

	t := Totals{
		Subtotal:      money.Round2(sub),
		ItemDiscounts: money.Round2(disc),
	}

	if v, ok := c.ManualGrandTotal(); ok {
		t.GrandTotal = money.Round2(v)
		return t
	}

	gt := t.Subtotal - t.ItemDiscounts
	if gt < 0 {
		gt = 0
	}
	t.GrandTotal = money.Round2(gt)
	return t
}

// Change is the amount returned to the customer, never negative.
func Change(paid, grandTotal float64) float64 {
	ch := money.Round2(paid) - money.Round2(grandTotal)
	if ch < 0 {
		ch = 0
	}
	return money.Round2(ch)
}
