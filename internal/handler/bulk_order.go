package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/freshconcept/gms-ordering/internal/customer"
	"github.com/freshconcept/gms-ordering/internal/order"
)

// BulkOrderHandler serves the customer-facing bulk order flow: the form
// payload, the submit endpoint and the success page.
type BulkOrderHandler struct {
	orders    order.Service
	customers customer.Repository
	validate  *validator.Validate
}

func NewBulkOrderHandler(orders order.Service, customers customer.Repository) *BulkOrderHandler {
	return &BulkOrderHandler{
		orders:    orders,
		customers: customers,
		validate:  validator.New(),
	}
}

func (h *BulkOrderHandler) RegisterRoutes(router chi.Router) {
	router.Get("/orders/bulk", h.handleForm)
	router.Post("/orders/bulk", h.handleSubmit)
	router.Get("/orders/bulk/success/{orderID}", h.handleSuccess)
}

// customerForRequest resolves the linked customer profile for the calling
// user, the Unauthorized case being a user without one.
func (h *BulkOrderHandler) customerForRequest(w http.ResponseWriter, r *http.Request, rawUserID string) *customer.Customer {
	userID, err := uuid.FromString(rawUserID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "user_id must be a valid UUID")
		return nil
	}

	cust, err := h.customers.GetByUserID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, customer.ErrCustomerNotFound) {
			respondWithError(w, http.StatusUnauthorized, "no customer profile linked to this user")
			return nil
		}
		log.Error().Err(err).Msg("Failed to resolve customer profile")
		respondWithError(w, http.StatusInternalServerError, "failed to resolve customer profile")
		return nil
	}
	return cust
}

type bulkFormResponse struct {
	Customer     *customer.Customer   `json:"customer"`
	Form         *order.BulkOrderForm `json:"form"`
	DeliveryDays []string             `json:"delivery_days"`
}

func (h *BulkOrderHandler) handleForm(w http.ResponseWriter, r *http.Request) {
	cust := h.customerForRequest(w, r, r.URL.Query().Get("user_id"))
	if cust == nil {
		return
	}

	form, err := h.orders.BulkOrderForm(r.Context(), cust, time.Now())
	if err != nil {
		log.Error().Err(err).Stringer("customer_id", cust.ID).Msg("Failed to build bulk order form")
		respondWithError(w, http.StatusInternalServerError, "failed to build order form")
		return
	}

	respondWithJSON(w, http.StatusOK, bulkFormResponse{
		Customer:     cust,
		Form:         form,
		DeliveryDays: cust.DeliverySchedule.DeliveryDays(),
	})
}

type bulkSubmitRequest struct {
	UserID     string            `json:"user_id" validate:"required,uuid4"`
	Quantities map[string]string `json:"quantities" validate:"required"`
	Notes      string            `json:"notes"`
}

type bulkSubmitErrorResponse struct {
	Errors  map[string]quantityErrorPayload `json:"errors"`
	Entered map[string]string               `json:"entered"`
}

type quantityErrorPayload struct {
	Code    string `json:"code"`
	Minimum int    `json:"minimum,omitempty"`
	Message string `json:"message"`
}

func (h *BulkOrderHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req bulkSubmitRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request payload: %v", err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Validation failed: %v", err))
		return
	}

	cust := h.customerForRequest(w, r, req.UserID)
	if cust == nil {
		return
	}

	// Tokens arrive keyed by "quantity_<productID>" or the bare product ID;
	// anything that is not a product UUID is rejected outright.
	entered := make(map[uuid.UUID]string, len(req.Quantities))
	for key, token := range req.Quantities {
		productID, err := uuid.FromString(strings.TrimPrefix(key, "quantity_"))
		if err != nil {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("invalid product id %q", key))
			return
		}
		entered[productID] = token
	}

	result, err := h.orders.PlaceBulkOrder(r.Context(), cust, entered, req.Notes, time.Now())
	if err != nil {
		if errors.Is(err, order.ErrNoDeliveryWindow) {
			respondWithJSON(w, http.StatusConflict, map[string]any{
				"error":   "No delivery date available. Please contact support.",
				"entered": stringifyEntered(result.Entered),
			})
			return
		}
		log.Error().Err(err).Stringer("customer_id", cust.ID).Msg("Failed to place bulk order")
		respondWithError(w, http.StatusInternalServerError, "failed to place order")
		return
	}

	if !result.Ok() {
		errorsPayload := make(map[string]quantityErrorPayload, len(result.Errors))
		for productID, qtyErr := range result.Errors {
			errorsPayload[productID.String()] = quantityErrorPayload{
				Code:    string(qtyErr.Code),
				Minimum: qtyErr.Minimum,
				Message: qtyErr.Message(),
			}
		}
		respondWithJSON(w, http.StatusUnprocessableEntity, bulkSubmitErrorResponse{
			Errors:  errorsPayload,
			Entered: stringifyEntered(result.Entered),
		})
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	respondWithJSON(w, status, map[string]any{
		"order_id": result.OrderID,
		"created":  result.Created,
	})
}

func stringifyEntered(entered map[uuid.UUID]string) map[string]string {
	out := make(map[string]string, len(entered))
	for id, token := range entered {
		out[id.String()] = token
	}
	return out
}

type orderSummaryResponse struct {
	Order       *order.Order `json:"order"`
	TotalAmount string       `json:"total_amount"`
	TotalItems  int          `json:"total_items"`
}

// handleSuccess shows the placed order. A missing order or one belonging to
// another customer silently redirects back to the form instead of erroring.
func (h *BulkOrderHandler) handleSuccess(w http.ResponseWriter, r *http.Request) {
	cust := h.customerForRequest(w, r, r.URL.Query().Get("user_id"))
	if cust == nil {
		return
	}

	orderID, err := uuid.FromString(chi.URLParam(r, "orderID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "order id must be a valid UUID")
		return
	}

	o, err := h.orders.GetOrderByID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			http.Redirect(w, r, "/orders/bulk", http.StatusSeeOther)
			return
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("Failed to get order for success page")
		respondWithError(w, http.StatusInternalServerError, "failed to get order")
		return
	}

	if o.CustomerID != cust.ID {
		http.Redirect(w, r, "/orders/bulk", http.StatusSeeOther)
		return
	}

	respondWithJSON(w, http.StatusOK, orderSummaryResponse{
		Order:       o,
		TotalAmount: o.TotalAmount().StringFixed(2),
		TotalItems:  o.TotalItems(),
	})
}
