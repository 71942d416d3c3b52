package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/freshconcept/gms-ordering/internal/order"
)

// OrderAdminHandler is the employee/admin surface over orders: listing,
// status transitions and deletion.
type OrderAdminHandler struct {
	orders   order.Service
	validate *validator.Validate
}

func NewOrderAdminHandler(orders order.Service) *OrderAdminHandler {
	return &OrderAdminHandler{orders: orders, validate: validator.New()}
}

func (h *OrderAdminHandler) RegisterRoutes(router chi.Router) {
	router.Get("/orders", h.handleListByCustomer)
	router.Get("/orders/{id}", h.handleGet)
	router.Patch("/orders/{id}/status", h.handleUpdateStatus)
	router.Delete("/orders/{id}", h.handleDelete)
}

func (h *OrderAdminHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}

	o, err := h.orders.GetOrderByID(r.Context(), id)
	if err != nil {
		if !errors.Is(err, order.ErrOrderNotFound) {
			log.Error().Err(err).Stringer("order_id", id).Msg("Failed to get order")
		}
		respondWithError(w, mapErrorToStatusCode(err), "failed to get order")
		return
	}

	respondWithJSON(w, http.StatusOK, orderSummaryResponse{
		Order:       o,
		TotalAmount: o.TotalAmount().StringFixed(2),
		TotalItems:  o.TotalItems(),
	})
}

func (h *OrderAdminHandler) handleListByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuid.FromString(r.URL.Query().Get("customer_id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "customer_id must be a valid UUID")
		return
	}

	orders, err := h.orders.GetOrdersByCustomerID(r.Context(), customerID)
	if err != nil {
		log.Error().Err(err).Stringer("customer_id", customerID).Msg("Failed to list orders")
		respondWithError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	respondWithJSON(w, http.StatusOK, orders)
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed cancelled"`
}

func (h *OrderAdminHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}

	var req updateStatusRequest
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

	if err := h.orders.UpdateOrderStatus(r.Context(), id, order.Status(req.Status)); err != nil {
		if errors.Is(err, order.ErrStatusAlreadySet) {
			respondWithJSON(w, http.StatusOK, map[string]string{"status": req.Status})
			return
		}
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

func (h *OrderAdminHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}

	if err := h.orders.DeleteOrder(r.Context(), id); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), "failed to delete order")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
