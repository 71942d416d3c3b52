package catalog

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// Product is a charcuterie product offered to GMS customers.
// Wholesale and retail prices are derived by the pricing package,
// never stored; RetailPriceOverride is the only escape hatch.
type Product struct {
	ID                  uuid.UUID        `json:"id" db:"id"`
	Name                string           `json:"name" db:"name"`
	Description         string           `json:"description" db:"description"`
	PricePerKg          decimal.Decimal  `json:"price_per_kg" db:"price_per_kg"`
	MarginRate          decimal.Decimal  `json:"margin_rate" db:"margin_rate"`
	RetailPriceOverride *decimal.Decimal `json:"retail_price_override,omitempty" db:"retail_price_override"`
	ApproximateWeight   decimal.Decimal  `json:"approximate_weight" db:"approximate_weight"`
	MinimumQuantity     int              `json:"minimum_quantity" db:"minimum_quantity"`
	IsActive            bool             `json:"is_active" db:"is_active"`
	CreatedAt           time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at" db:"updated_at"`
}

// DefaultMarginRate applies when a product is created without an explicit margin.
var DefaultMarginRate = decimal.NewFromFloat(0.30)

// MarginPercentage returns the margin rate as a whole percentage for display.
func (p *Product) MarginPercentage() int {
	return int(p.MarginRate.Mul(decimal.NewFromInt(100)).IntPart())
}
