package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var ErrOrderNotFound = errors.New("order not found")

type Repository interface {
	CreateOrder(ctx context.Context, o *Order) (uuid.UUID, error)
	ReplaceItems(ctx context.Context, orderID uuid.UUID, items []Item) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetOrdersByCustomerID(ctx context.Context, customerID uuid.UUID) ([]Order, error)
	RecentOrders(ctx context.Context, customerID uuid.UUID, limit int) ([]Order, error)
	FindByCustomerAndDeliveryDate(ctx context.Context, customerID uuid.UUID, deliveryDate time.Time) (*Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) error
	Delete(ctx context.Context, orderID uuid.UUID) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const orderColumns = `id, customer_id, order_date, delivery_date, status, notes, created_at, updated_at`
const itemColumns = `id, order_id, product_id, quantity, unit_price, total_price, created_at, updated_at`

func (r *postgresRepository) CreateOrder(ctx context.Context, o *Order) (orderID uuid.UUID, err error) {
	finalOrderID := o.ID
	if finalOrderID == uuid.Nil {
		genID, genErr := uuid.NewV4()
		if genErr != nil {
			return uuid.Nil, fmt.Errorf("repository: failed to generate order ID: %w", genErr)
		}
		finalOrderID = genID
	}
	o.ID = finalOrderID

	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id_attempted", finalOrderID).Msg("Failed to rollback transaction after panic")
			}
			panic(p)
		} else if err != nil {
			log.Warn().Err(err).Stringer("order_id_attempted", finalOrderID).Msg("Transaction for CreateOrder failed, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id_attempted", finalOrderID).Msg("Failed to rollback transaction")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				log.Error().Err(commitErr).Stringer("order_id", finalOrderID).Msg("Failed to commit transaction")
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	queryOrder := `
		INSERT INTO orders (id, customer_id, order_date, delivery_date, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = tx.Exec(ctx, queryOrder,
		finalOrderID,
		o.CustomerID,
		o.OrderDate,
		o.DeliveryDate,
		string(o.Status),
		o.Notes,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to insert order: %w", err)
	}

	err = r.insertItems(ctx, tx, finalOrderID, o.Items)
	if err != nil {
		return uuid.Nil, err
	}

	return finalOrderID, nil
}

// ReplaceItems discards every existing line item of the order and inserts the
// given set, in one transaction. The order header is kept.
func (r *postgresRepository) ReplaceItems(ctx context.Context, orderID uuid.UUID, items []Item) (err error) {
	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", orderID).Msg("Failed to rollback transaction after panic")
			}
			panic(p)
		} else if err != nil {
			log.Warn().Err(err).Stringer("order_id", orderID).Msg("Transaction for ReplaceItems failed, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", orderID).Msg("Failed to rollback transaction")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				log.Error().Err(commitErr).Stringer("order_id", orderID).Msg("Failed to commit transaction")
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	cmdTag, err := tx.Exec(ctx, `UPDATE orders SET updated_at = $1 WHERE id = $2`, time.Now().UTC(), orderID)
	if err != nil {
		return fmt.Errorf("repository: failed to touch order %s: %w", orderID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		err = ErrOrderNotFound
		return err
	}

	_, err = tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("repository: failed to delete items for order %s: %w", orderID, err)
	}

	err = r.insertItems(ctx, tx, orderID, items)
	return err
}

func (r *postgresRepository) insertItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, items []Item) error {
	queryItem := `
		INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, total_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for i := range items {
		item := &items[i]

		itemID, genErr := uuid.NewV4()
		if genErr != nil {
			return fmt.Errorf("repository: failed to generate order item ID: %w", genErr)
		}
		item.ID = itemID
		item.OrderID = orderID

		now := time.Now().UTC()
		item.CreatedAt = now
		item.UpdatedAt = now

		_, err := tx.Exec(ctx, queryItem,
			item.ID,
			orderID,
			item.ProductID,
			item.Quantity,
			item.UnitPrice,
			item.TotalPrice,
			item.CreatedAt,
			item.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to insert order item for order %s: %w", orderID, err)
		}
	}
	return nil
}

func (r *postgresRepository) GetOrderByID(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	queryOrder := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var (
		o     Order
		notes *string
	)
	err := r.db.QueryRow(ctx, queryOrder, orderID).Scan(
		&o.ID,
		&o.CustomerID,
		&o.OrderDate,
		&o.DeliveryDate,
		&o.Status,
		&notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", orderID, err)
	}
	if notes != nil {
		o.Notes = *notes
	}

	o.Items, err = r.itemsForOrders(ctx, []uuid.UUID{orderID})
	if err != nil {
		return nil, err
	}

	return &o, nil
}

func (r *postgresRepository) GetOrdersByCustomerID(ctx context.Context, customerID uuid.UUID) ([]Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE customer_id = $1
		ORDER BY order_date DESC
	`
	return r.queryOrdersWithItems(ctx, query, customerID)
}

// RecentOrders returns the customer's latest orders, newest first, items
// included. Used for the last-order quantity columns on the bulk form.
func (r *postgresRepository) RecentOrders(ctx context.Context, customerID uuid.UUID, limit int) ([]Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE customer_id = $1
		ORDER BY order_date DESC
		LIMIT $2
	`
	return r.queryOrdersWithItems(ctx, query, customerID, limit)
}

func (r *postgresRepository) queryOrdersWithItems(ctx context.Context, query string, args ...any) ([]Order, error) {
	orderRows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer orderRows.Close()

	ordersMap := make(map[uuid.UUID]*Order)
	var orderIDs []uuid.UUID

	for orderRows.Next() {
		var (
			o     Order
			notes *string
		)
		err := orderRows.Scan(
			&o.ID,
			&o.CustomerID,
			&o.OrderDate,
			&o.DeliveryDate,
			&o.Status,
			&notes,
			&o.CreatedAt,
			&o.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		if notes != nil {
			o.Notes = *notes
		}
		o.Items = make([]Item, 0)
		ordersMap[o.ID] = &o
		orderIDs = append(orderIDs, o.ID)
	}

	if err = orderRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}

	if len(orderIDs) == 0 {
		return []Order{}, nil
	}

	items, err := r.itemsForOrders(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if o, ok := ordersMap[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}

	resultOrders := make([]Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		if o, ok := ordersMap[id]; ok {
			resultOrders = append(resultOrders, *o)
		}
	}

	return resultOrders, nil
}

func (r *postgresRepository) itemsForOrders(ctx context.Context, orderIDs []uuid.UUID) ([]Item, error) {
	query := `SELECT ` + itemColumns + ` FROM order_items WHERE order_id = ANY($1)`

	rows, err := r.db.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var item Item
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,
			&item.TotalPrice,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items: %w", err)
	}

	return items, nil
}

// FindByCustomerAndDeliveryDate returns the first order matching the exact
// delivery date, or ErrOrderNotFound when the customer has none.
func (r *postgresRepository) FindByCustomerAndDeliveryDate(ctx context.Context, customerID uuid.UUID, deliveryDate time.Time) (*Order, error) {
	query := `
		SELECT id
		FROM orders
		WHERE customer_id = $1 AND delivery_date = $2
		ORDER BY created_at
		LIMIT 1
	`

	var orderID uuid.UUID
	err := r.db.QueryRow(ctx, query, customerID, deliveryDate).Scan(&orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to find order for customer %s on %s: %w", customerID, deliveryDate.Format("2006-01-02"), err)
	}

	return r.GetOrderByID(ctx, orderID)
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	cmdTag, err := r.db.Exec(ctx, query, string(newStatus), time.Now().UTC(), orderID)
	if err != nil {
		return fmt.Errorf("repository: failed to update order status %s: %w", orderID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// Delete removes the order; its items go with it via the FK cascade.
func (r *postgresRepository) Delete(ctx context.Context, orderID uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("repository: failed to delete order %s: %w", orderID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}
