package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshconcept/gms-ordering/internal/customer"
	"github.com/freshconcept/gms-ordering/internal/order"
)

type mockOrderService struct {
	placeBulkOrderFunc func(ctx context.Context, cust *customer.Customer, entered map[uuid.UUID]string, notes string, now time.Time) (*order.BulkOrderResult, error)
	bulkOrderFormFunc  func(ctx context.Context, cust *customer.Customer, now time.Time) (*order.BulkOrderForm, error)
	getOrderByIDFunc   func(ctx context.Context, id uuid.UUID) (*order.Order, error)
}

func (m *mockOrderService) PlaceBulkOrder(ctx context.Context, cust *customer.Customer, entered map[uuid.UUID]string, notes string, now time.Time) (*order.BulkOrderResult, error) {
	return m.placeBulkOrderFunc(ctx, cust, entered, notes, now)
}

func (m *mockOrderService) BulkOrderForm(ctx context.Context, cust *customer.Customer, now time.Time) (*order.BulkOrderForm, error) {
	return m.bulkOrderFormFunc(ctx, cust, now)
}

func (m *mockOrderService) GetOrderByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return m.getOrderByIDFunc(ctx, id)
}

func (m *mockOrderService) GetOrdersByCustomerID(ctx context.Context, customerID uuid.UUID) ([]order.Order, error) {
	return nil, nil
}

func (m *mockOrderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus order.Status) error {
	return nil
}

func (m *mockOrderService) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	return nil
}

type mockCustomerRepository struct {
	getByUserIDFunc func(ctx context.Context, userID uuid.UUID) (*customer.Customer, error)
}

func (m *mockCustomerRepository) Create(ctx context.Context, c *customer.Customer) (uuid.UUID, error) {
	return uuid.Nil, nil
}
func (m *mockCustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	return nil, customer.ErrCustomerNotFound
}
func (m *mockCustomerRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*customer.Customer, error) {
	return m.getByUserIDFunc(ctx, userID)
}
func (m *mockCustomerRepository) Update(ctx context.Context, c *customer.Customer) error { return nil }
func (m *mockCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error         { return nil }
func (m *mockCustomerRepository) List(ctx context.Context) ([]customer.Customer, error) {
	return nil, nil
}

func newTestRouter(svc order.Service, customers customer.Repository) *chi.Mux {
	r := chi.NewRouter()
	NewBulkOrderHandler(svc, customers).RegisterRoutes(r)
	return r
}

func TestBulkOrderHandler_Submit(t *testing.T) {
	userID := uuid.Must(uuid.FromString("123e4567-e89b-42d3-a456-426614174000"))
	custID := uuid.Must(uuid.FromString("550e8400-e29b-41d4-a716-446655440000"))
	productID := uuid.Must(uuid.FromString("9f1c7e8a-3b2d-4c5e-8f6a-1b2c3d4e5f60"))
	orderID := uuid.Must(uuid.FromString("7c9e6679-7425-40de-944b-e07fc1f90ae7"))

	customers := &mockCustomerRepository{
		getByUserIDFunc: func(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
			if id != userID {
				return nil, customer.ErrCustomerNotFound
			}
			return &customer.Customer{ID: custID, UserID: userID}, nil
		},
	}

	tests := []struct {
		name           string
		body           string
		placeBulkOrder func(ctx context.Context, cust *customer.Customer, entered map[uuid.UUID]string, notes string, now time.Time) (*order.BulkOrderResult, error)
		expectedStatus int
	}{
		{
			name: "created",
			body: fmt.Sprintf(`{"user_id":%q,"quantities":{"quantity_%s":"10"}}`, userID, productID),
			placeBulkOrder: func(ctx context.Context, cust *customer.Customer, entered map[uuid.UUID]string, notes string, now time.Time) (*order.BulkOrderResult, error) {
				assert.Equal(t, custID, cust.ID)
				assert.Equal(t, map[uuid.UUID]string{productID: "10"}, entered)
				return &order.BulkOrderResult{OrderID: orderID, Created: true}, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "replaced",
			body: fmt.Sprintf(`{"user_id":%q,"quantities":{%q:"15"}}`, userID, productID),
			placeBulkOrder: func(ctx context.Context, cust *customer.Customer, entered map[uuid.UUID]string, notes string, now time.Time) (*order.BulkOrderResult, error) {
				return &order.BulkOrderResult{OrderID: orderID, Created: false}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "validation_errors",
			body: fmt.Sprintf(`{"user_id":%q,"quantities":{%q:"abc"}}`, userID, productID),
			placeBulkOrder: func(ctx context.Context, cust *customer.Customer, entered map[uuid.UUID]string, notes string, now time.Time) (*order.BulkOrderResult, error) {
				return &order.BulkOrderResult{
					Errors:  map[uuid.UUID]order.QuantityError{productID: {Code: order.CodeInvalidQuantity}},
					Entered: entered,
				}, nil
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "no_delivery_window",
			body: fmt.Sprintf(`{"user_id":%q,"quantities":{%q:"10"}}`, userID, productID),
			placeBulkOrder: func(ctx context.Context, cust *customer.Customer, entered map[uuid.UUID]string, notes string, now time.Time) (*order.BulkOrderResult, error) {
				return &order.BulkOrderResult{Entered: entered}, order.ErrNoDeliveryWindow
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "invalid_json",
			body:           `{invalid json}`,
			placeBulkOrder: nil,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockOrderService{placeBulkOrderFunc: tt.placeBulkOrder}
			r := newTestRouter(svc, customers)

			req := httptest.NewRequest(http.MethodPost, "/orders/bulk", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestBulkOrderHandler_Submit_ValidationPayload(t *testing.T) {
	userID := uuid.Must(uuid.FromString("123e4567-e89b-42d3-a456-426614174000"))
	productID := uuid.Must(uuid.FromString("9f1c7e8a-3b2d-4c5e-8f6a-1b2c3d4e5f60"))

	customers := &mockCustomerRepository{
		getByUserIDFunc: func(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
			return &customer.Customer{ID: uuid.Must(uuid.NewV4()), UserID: id}, nil
		},
	}
	svc := &mockOrderService{
		placeBulkOrderFunc: func(ctx context.Context, cust *customer.Customer, entered map[uuid.UUID]string, notes string, now time.Time) (*order.BulkOrderResult, error) {
			return &order.BulkOrderResult{
				Errors: map[uuid.UUID]order.QuantityError{
					productID: {Code: order.CodeBelowMinimum, Minimum: 5},
				},
				Entered: entered,
			}, nil
		},
	}

	body := fmt.Sprintf(`{"user_id":%q,"quantities":{%q:"2"}}`, userID, productID)
	req := httptest.NewRequest(http.MethodPost, "/orders/bulk", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	newTestRouter(svc, customers).ServeHTTP(w, req)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp bulkSubmitErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "below_minimum", resp.Errors[productID.String()].Code)
	assert.Equal(t, 5, resp.Errors[productID.String()].Minimum)
	assert.Equal(t, "Minimum: 5", resp.Errors[productID.String()].Message)
	assert.Equal(t, "2", resp.Entered[productID.String()])
}

func TestBulkOrderHandler_Unauthorized(t *testing.T) {
	customers := &mockCustomerRepository{
		getByUserIDFunc: func(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
			return nil, customer.ErrCustomerNotFound
		},
	}
	svc := &mockOrderService{}

	req := httptest.NewRequest(http.MethodGet, "/orders/bulk?user_id=123e4567-e89b-42d3-a456-426614174000", nil)
	w := httptest.NewRecorder()
	newTestRouter(svc, customers).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBulkOrderHandler_SuccessOwnership(t *testing.T) {
	userID := uuid.Must(uuid.FromString("123e4567-e89b-42d3-a456-426614174000"))
	custID := uuid.Must(uuid.FromString("550e8400-e29b-41d4-a716-446655440000"))
	otherCustID := uuid.Must(uuid.FromString("660e8400-e29b-41d4-a716-446655440111"))
	orderID := uuid.Must(uuid.FromString("7c9e6679-7425-40de-944b-e07fc1f90ae7"))

	customers := &mockCustomerRepository{
		getByUserIDFunc: func(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
			return &customer.Customer{ID: custID, UserID: userID}, nil
		},
	}

	t.Run("owner_sees_summary", func(t *testing.T) {
		svc := &mockOrderService{
			getOrderByIDFunc: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
				return &order.Order{ID: id, CustomerID: custID}, nil
			},
		}
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/orders/bulk/success/%s?user_id=%s", orderID, userID), nil)
		w := httptest.NewRecorder()
		newTestRouter(svc, customers).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("cross_customer_access_redirects_silently", func(t *testing.T) {
		svc := &mockOrderService{
			getOrderByIDFunc: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
				return &order.Order{ID: id, CustomerID: otherCustID}, nil
			},
		}
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/orders/bulk/success/%s?user_id=%s", orderID, userID), nil)
		w := httptest.NewRecorder()
		newTestRouter(svc, customers).ServeHTTP(w, req)
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/orders/bulk", w.Header().Get("Location"))
	})

	t.Run("missing_order_redirects_silently", func(t *testing.T) {
		svc := &mockOrderService{
			getOrderByIDFunc: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
				return nil, order.ErrOrderNotFound
			},
		}
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/orders/bulk/success/%s?user_id=%s", orderID, userID), nil)
		w := httptest.NewRecorder()
		newTestRouter(svc, customers).ServeHTTP(w, req)
		assert.Equal(t, http.StatusSeeOther, w.Code)
	})
}
