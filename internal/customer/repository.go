package customer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/freshconcept/gms-ordering/internal/schedule"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrCustomerExists   = errors.New("customer with this number, user, VAT or phone already exists")
)

const uniqueViolationCode = "23505"

type Repository interface {
	Create(ctx context.Context, c *Customer) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Customer, error)
	Update(ctx context.Context, c *Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]Customer, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const customerColumns = `id, user_id, customer_number, company_name, address, vat_number, contact_person, phone_number, delivery_schedule, created_at, updated_at`

func (r *postgresRepository) Create(ctx context.Context, c *Customer) (uuid.UUID, error) {
	if c.ID == uuid.Nil {
		genID, err := uuid.NewV4()
		if err != nil {
			return uuid.Nil, fmt.Errorf("repository: failed to generate customer ID: %w", err)
		}
		c.ID = genID
	}

	scheduleJSON, err := c.DeliverySchedule.MarshalJSONB()
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to encode delivery schedule: %w", err)
	}

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	query := `
		INSERT INTO customers (id, user_id, customer_number, company_name, address, vat_number, contact_person, phone_number, delivery_schedule, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $11)
	`
	_, err = r.db.Exec(ctx, query,
		c.ID,
		c.UserID,
		c.CustomerNumber,
		c.CompanyName,
		c.Address,
		c.VATNumber,
		c.ContactPerson,
		c.PhoneNumber,
		scheduleJSON,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return uuid.Nil, ErrCustomerExists
		}
		return uuid.Nil, fmt.Errorf("repository: failed to insert customer: %w", err)
	}

	return c.ID, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Customer, error) {
	return r.getOne(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
}

func (r *postgresRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*Customer, error) {
	return r.getOne(ctx, `SELECT `+customerColumns+` FROM customers WHERE user_id = $1`, userID)
}

func (r *postgresRepository) getOne(ctx context.Context, query string, arg any) (*Customer, error) {
	var (
		c            Customer
		vatNumber    *string
		scheduleJSON []byte
	)
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&c.ID,
		&c.UserID,
		&c.CustomerNumber,
		&c.CompanyName,
		&c.Address,
		&vatNumber,
		&c.ContactPerson,
		&c.PhoneNumber,
		&scheduleJSON,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("repository: failed to select customer: %w", err)
	}

	if vatNumber != nil {
		c.VATNumber = *vatNumber
	}
	c.DeliverySchedule, err = schedule.ScheduleFromJSONB(scheduleJSON)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to decode schedule for customer %s: %w", c.ID, err)
	}

	return &c, nil
}

func (r *postgresRepository) Update(ctx context.Context, c *Customer) error {
	scheduleJSON, err := c.DeliverySchedule.MarshalJSONB()
	if err != nil {
		return fmt.Errorf("repository: failed to encode delivery schedule: %w", err)
	}

	query := `
		UPDATE customers
		SET customer_number = $1, company_name = $2, address = $3, vat_number = NULLIF($4, ''),
		    contact_person = $5, phone_number = $6, delivery_schedule = $7, updated_at = $8
		WHERE id = $9
	`
	cmdTag, err := r.db.Exec(ctx, query,
		c.CustomerNumber,
		c.CompanyName,
		c.Address,
		c.VATNumber,
		c.ContactPerson,
		c.PhoneNumber,
		scheduleJSON,
		time.Now().UTC(),
		c.ID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrCustomerExists
		}
		return fmt.Errorf("repository: failed to update customer %s: %w", c.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrCustomerNotFound
	}

	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete customer %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrCustomerNotFound
	}

	return nil
}

func (r *postgresRepository) List(ctx context.Context) ([]Customer, error) {
	rows, err := r.db.Query(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY company_name`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query customers: %w", err)
	}
	defer rows.Close()

	customers := make([]Customer, 0)
	for rows.Next() {
		var (
			c            Customer
			vatNumber    *string
			scheduleJSON []byte
		)
		err := rows.Scan(
			&c.ID,
			&c.UserID,
			&c.CustomerNumber,
			&c.CompanyName,
			&c.Address,
			&vatNumber,
			&c.ContactPerson,
			&c.PhoneNumber,
			&scheduleJSON,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan customer: %w", err)
		}
		if vatNumber != nil {
			c.VATNumber = *vatNumber
		}
		c.DeliverySchedule, err = schedule.ScheduleFromJSONB(scheduleJSON)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to decode schedule for customer %s: %w", c.ID, err)
		}
		customers = append(customers, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating customers: %w", err)
	}

	return customers, nil
}
