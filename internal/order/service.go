package order

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/freshconcept/gms-ordering/internal/catalog"
	"github.com/freshconcept/gms-ordering/internal/customer"
	"github.com/freshconcept/gms-ordering/internal/pricing"
)

var (
	// ErrNoDeliveryWindow means the customer's schedule has no configured
	// delivery days, so no target date can be resolved.
	ErrNoDeliveryWindow = errors.New("no delivery window available")

	ErrStatusAlreadySet        = errors.New("status is already set to the desired value")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
)

type QuantityErrorCode string

const (
	CodeInvalidQuantity QuantityErrorCode = "invalid_quantity"
	CodeBelowMinimum    QuantityErrorCode = "below_minimum"
)

// QuantityError is a per-product validation failure on the bulk form.
type QuantityError struct {
	Code    QuantityErrorCode `json:"code"`
	Minimum int               `json:"minimum,omitempty"`
}

func (e QuantityError) Message() string {
	if e.Code == CodeBelowMinimum {
		return fmt.Sprintf("Minimum: %d", e.Minimum)
	}
	return "Enter a valid number"
}

// BulkOrderResult carries either the upserted order ID or the complete
// validation error set plus the raw entered tokens for redisplay.
type BulkOrderResult struct {
	OrderID uuid.UUID                   `json:"order_id,omitempty"`
	Created bool                        `json:"created"`
	Errors  map[uuid.UUID]QuantityError `json:"errors,omitempty"`
	Entered map[uuid.UUID]string        `json:"entered,omitempty"`
}

func (r *BulkOrderResult) Ok() bool {
	return len(r.Errors) == 0
}

// FormProduct is one catalog row on the bulk order form, with derived prices
// and the quantities from the customer's last orders aligned positionally.
type FormProduct struct {
	Product             catalog.Product `json:"product"`
	WholesalePrice      decimal.Decimal `json:"wholesale_price"`
	RetailPrice         decimal.Decimal `json:"retail_price"`
	MarginPercentage    int             `json:"margin_percentage"`
	LastOrderQuantities []int           `json:"last_order_quantities"`
}

// BulkOrderForm is the redisplay payload for the order form boundary.
type BulkOrderForm struct {
	Products            []FormProduct     `json:"products"`
	LastOrderIDs        []uuid.UUID       `json:"last_order_ids"`
	LastOrderDates      []time.Time       `json:"last_order_dates"`
	NextDeliveryDayName string            `json:"next_delivery_day_name,omitempty"`
	NextDeliveryDate    *time.Time        `json:"next_delivery_date,omitempty"`
	CanOrder            bool              `json:"can_order"`
	ExistingOrderID     *uuid.UUID        `json:"existing_order_id,omitempty"`
	Prefill             map[uuid.UUID]int `json:"prefill"`
}

type Service interface {
	PlaceBulkOrder(ctx context.Context, cust *customer.Customer, entered map[uuid.UUID]string, notes string, now time.Time) (*BulkOrderResult, error)
	BulkOrderForm(ctx context.Context, cust *customer.Customer, now time.Time) (*BulkOrderForm, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetOrdersByCustomerID(ctx context.Context, customerID uuid.UUID) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) error
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
}

type service struct {
	orders   Repository
	products catalog.Repository
}

func NewService(orders Repository, products catalog.Repository) Service {
	return &service{orders: orders, products: products}
}

// lastOrdersShown is how many past orders the form shows per product.
const lastOrdersShown = 3

// PlaceBulkOrder validates the entered quantity tokens against the active
// catalog and idempotently creates or wholly replaces the order for the
// customer's next delivery date. One now snapshot drives every date decision.
func (s *service) PlaceBulkOrder(ctx context.Context, cust *customer.Customer, entered map[uuid.UUID]string, notes string, now time.Time) (*BulkOrderResult, error) {
	result := &BulkOrderResult{
		Errors:  make(map[uuid.UUID]QuantityError),
		Entered: entered,
	}

	next, ok := cust.DeliverySchedule.Next(now)
	if !ok {
		log.Warn().Stringer("customer_id", cust.ID).Msg("service: customer has no delivery days configured")
		return result, ErrNoDeliveryWindow
	}

	products, err := s.products.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list active products: %w", err)
	}

	quantities := make(map[uuid.UUID]int, len(products))
	for i := range products {
		p := &products[i]
		qty, qtyErr := parseQuantityToken(entered[p.ID])
		if qtyErr != nil {
			result.Errors[p.ID] = QuantityError{Code: CodeInvalidQuantity}
			continue
		}
		if qty > 0 && qty < p.MinimumQuantity {
			result.Errors[p.ID] = QuantityError{Code: CodeBelowMinimum, Minimum: p.MinimumQuantity}
			continue
		}
		quantities[p.ID] = qty
	}

	// The whole operation aborts on any validation error; the caller gets
	// the complete error set in one pass, never a partial write.
	if !result.Ok() {
		return result, nil
	}

	items := make([]Item, 0, len(products))
	for i := range products {
		p := &products[i]
		qty := quantities[p.ID]
		if qty == 0 {
			continue
		}
		unitPrice := pricing.Wholesale(p)
		items = append(items, Item{
			ProductID:  p.ID,
			Quantity:   qty,
			UnitPrice:  unitPrice,
			TotalPrice: unitPrice.Mul(decimal.NewFromInt(int64(qty))),
		})
	}

	existing, err := s.orders.FindByCustomerAndDeliveryDate(ctx, cust.ID, next.Date)
	if err != nil && !errors.Is(err, ErrOrderNotFound) {
		return nil, fmt.Errorf("service: failed to look up existing order: %w", err)
	}

	if existing != nil {
		if err := s.orders.ReplaceItems(ctx, existing.ID, items); err != nil {
			return nil, fmt.Errorf("service: failed to replace items for order %s: %w", existing.ID, err)
		}
		result.OrderID = existing.ID
		log.Info().Stringer("order_id", existing.ID).Stringer("customer_id", cust.ID).Int("items", len(items)).Msg("service: existing order replaced")
		return result, nil
	}

	newOrder := &Order{
		CustomerID:   cust.ID,
		OrderDate:    now,
		DeliveryDate: next.Date,
		Status:       StatusPending,
		Notes:        notes,
		Items:        items,
	}
	orderID, err := s.orders.CreateOrder(ctx, newOrder)
	if err != nil {
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	result.OrderID = orderID
	result.Created = true
	log.Info().Stringer("order_id", orderID).Stringer("customer_id", cust.ID).Int("items", len(items)).Msg("service: order created")
	return result, nil
}

// parseQuantityToken maps a raw form token to a quantity. Empty means zero;
// anything unparsable or negative is rejected.
func parseQuantityToken(token string) (int, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, nil
	}
	qty, err := strconv.Atoi(token)
	if err != nil {
		return 0, err
	}
	if qty < 0 {
		return 0, fmt.Errorf("quantity must not be negative, got %d", qty)
	}
	return qty, nil
}

// BulkOrderForm assembles the form payload: active products with derived
// prices, quantities from the last orders, the next delivery slot, and
// prefill values when an order for that date already exists.
func (s *service) BulkOrderForm(ctx context.Context, cust *customer.Customer, now time.Time) (*BulkOrderForm, error) {
	products, err := s.products.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list active products: %w", err)
	}

	recent, err := s.orders.RecentOrders(ctx, cust.ID, lastOrdersShown)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch recent orders: %w", err)
	}

	// (order, product) -> quantity lookup, 0-filled on misses below.
	type orderProduct struct {
		orderID   uuid.UUID
		productID uuid.UUID
	}
	quantityByOrderProduct := make(map[orderProduct]int)
	lastOrderIDs := make([]uuid.UUID, 0, len(recent))
	lastOrderDates := make([]time.Time, 0, len(recent))
	for _, o := range recent {
		lastOrderIDs = append(lastOrderIDs, o.ID)
		lastOrderDates = append(lastOrderDates, o.OrderDate)
		for _, item := range o.Items {
			quantityByOrderProduct[orderProduct{o.ID, item.ProductID}] = item.Quantity
		}
	}

	form := &BulkOrderForm{
		Products:       make([]FormProduct, 0, len(products)),
		LastOrderIDs:   lastOrderIDs,
		LastOrderDates: lastOrderDates,
		Prefill:        make(map[uuid.UUID]int, len(products)),
	}

	for i := range products {
		p := products[i]
		lastQuantities := make([]int, len(lastOrderIDs))
		for j, orderID := range lastOrderIDs {
			lastQuantities[j] = quantityByOrderProduct[orderProduct{orderID, p.ID}]
		}
		form.Products = append(form.Products, FormProduct{
			Product:             p,
			WholesalePrice:      pricing.Wholesale(&p),
			RetailPrice:         pricing.Retail(&p),
			MarginPercentage:    p.MarginPercentage(),
			LastOrderQuantities: lastQuantities,
		})
	}

	next, ok := cust.DeliverySchedule.Next(now)
	if !ok {
		return form, nil
	}
	form.NextDeliveryDayName = next.DayName
	nextDate := next.Date
	form.NextDeliveryDate = &nextDate
	form.CanOrder = cust.DeliverySchedule.CanOrder(next.Day, now)

	existing, err := s.orders.FindByCustomerAndDeliveryDate(ctx, cust.ID, next.Date)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return form, nil
		}
		return nil, fmt.Errorf("service: failed to look up existing order: %w", err)
	}

	existingID := existing.ID
	form.ExistingOrderID = &existingID
	for i := range products {
		form.Prefill[products[i].ID] = 0
	}
	for _, item := range existing.Items {
		form.Prefill[item.ProductID] = item.Quantity
	}

	return form, nil
}

func (s *service) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.orders.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}
	return o, nil
}

func (s *service) GetOrdersByCustomerID(ctx context.Context, customerID uuid.UUID) ([]Order, error) {
	orders, err := s.orders.GetOrdersByCustomerID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch customer orders: %w", err)
	}
	return orders, nil
}

func (s *service) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) error {
	current, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("service: failed to get order for status update: %w", err)
	}

	if current.Status == newStatus {
		return ErrStatusAlreadySet
	}

	if !allowedTransitions[current.Status][newStatus] {
		log.Warn().
			Stringer("order_id", orderID).
			Stringer("current_status", current.Status).
			Stringer("new_status", newStatus).
			Msg("service: invalid status transition attempt")
		return fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, current.Status, newStatus)
	}

	if err := s.orders.UpdateStatus(ctx, orderID, newStatus); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("service: failed to update order status: %w", err)
	}

	log.Info().Stringer("order_id", orderID).Stringer("old_status", current.Status).Stringer("new_status", newStatus).Msg("service: order status updated")
	return nil
}

func (s *service) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	if err := s.orders.Delete(ctx, orderID); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("service: failed to delete order: %w", err)
	}
	return nil
}
