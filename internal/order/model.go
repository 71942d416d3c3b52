package order

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

var allowedTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusConfirmed: true,
		StatusCancelled: true,
	},
	StatusConfirmed: {
		StatusCancelled: true,
	},
	StatusCancelled: {},
}

// Item is one product line in an order. UnitPrice and TotalPrice are frozen
// copies of the wholesale price at order time: historical orders keep their
// value when the product's price changes later.
type Item struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	OrderID    uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID  uuid.UUID       `json:"product_id" db:"product_id"`
	Quantity   int             `json:"quantity" db:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price" db:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price" db:"total_price"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// Order is one bulk purchase order from a GMS customer for a concrete
// delivery date. Totals are always derived from the items, never stored.
type Order struct {
	ID           uuid.UUID `json:"id" db:"id"`
	CustomerID   uuid.UUID `json:"customer_id" db:"customer_id"`
	OrderDate    time.Time `json:"order_date" db:"order_date"`
	DeliveryDate time.Time `json:"delivery_date" db:"delivery_date"`
	Status       Status    `json:"status" db:"status"`
	Notes        string    `json:"notes,omitempty" db:"notes"`
	Items        []Item    `json:"items" db:"-"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// TotalAmount sums the frozen line totals of the current items.
func (o *Order) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.TotalPrice)
	}
	return total
}

// TotalItems sums the quantities of the current items.
func (o *Order) TotalItems() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}
