// Package pricing derives wholesale and retail prices from product attributes.
// All amounts are rounded half-up to 2 decimal places with exact decimal
// arithmetic so repeated derivations never drift.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/freshconcept/gms-ordering/internal/catalog"
)

// ErrZeroWeight is returned by RetailPerKg when a retail override is set but
// the product has no weight to divide by. Callers must guard weight > 0.
var ErrZeroWeight = errors.New("pricing: approximate weight must be greater than zero")

// taxFactor bakes the fixed 6% VAT markup into the retail formulas.
var (
	taxFactor = decimal.NewFromFloat(1.06)
	one       = decimal.NewFromInt(1)
)

// Wholesale returns the supplier cost-basis price for one unit:
// pricePerKg × approximateWeight. Returns 0.00 when either input is zero.
func Wholesale(p *catalog.Product) decimal.Decimal {
	if p.PricePerKg.IsZero() || p.ApproximateWeight.IsZero() {
		return decimal.Zero
	}
	return p.PricePerKg.Mul(p.ApproximateWeight).Round(2)
}

// Retail returns the customer-facing unit price. A nonzero manual override
// wins unchanged; otherwise pricePerKg × weight × 1.06 × (1 + margin).
func Retail(p *catalog.Product) decimal.Decimal {
	if p.RetailPriceOverride != nil && !p.RetailPriceOverride.IsZero() {
		return *p.RetailPriceOverride
	}
	if p.PricePerKg.IsZero() || p.ApproximateWeight.IsZero() {
		return decimal.Zero
	}
	return p.PricePerKg.
		Mul(p.ApproximateWeight).
		Mul(taxFactor).
		Mul(one.Add(p.MarginRate)).
		Round(2)
}

// RetailPerKg returns the retail price per kilogram. With an override set the
// override is spread over the unit weight, which requires weight > 0.
func RetailPerKg(p *catalog.Product) (decimal.Decimal, error) {
	if p.RetailPriceOverride != nil && !p.RetailPriceOverride.IsZero() {
		if p.ApproximateWeight.IsZero() {
			return decimal.Zero, ErrZeroWeight
		}
		return p.RetailPriceOverride.Div(p.ApproximateWeight).Round(2), nil
	}
	if p.PricePerKg.IsZero() {
		return decimal.Zero, nil
	}
	return p.PricePerKg.
		Mul(taxFactor).
		Mul(one.Add(p.MarginRate)).
		Round(2), nil
}
