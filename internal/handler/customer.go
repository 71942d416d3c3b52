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

	"github.com/freshconcept/gms-ordering/internal/customer"
	"github.com/freshconcept/gms-ordering/internal/schedule"
)

// CustomerHandler is the back-office CRUD surface for GMS customer profiles,
// including their delivery schedules.
type CustomerHandler struct {
	customers customer.Repository
	validate  *validator.Validate
}

func NewCustomerHandler(customers customer.Repository) *CustomerHandler {
	return &CustomerHandler{customers: customers, validate: validator.New()}
}

func (h *CustomerHandler) RegisterRoutes(router chi.Router) {
	router.Get("/customers", h.handleList)
	router.Post("/customers", h.handleCreate)
	router.Get("/customers/{id}", h.handleGet)
	router.Put("/customers/{id}", h.handleUpdate)
	router.Delete("/customers/{id}", h.handleDelete)
}

type customerRequest struct {
	UserID           string            `json:"user_id" validate:"required,uuid4"`
	CustomerNumber   string            `json:"customer_number" validate:"required"`
	CompanyName      string            `json:"company_name" validate:"required"`
	Address          string            `json:"address" validate:"required"`
	VATNumber        string            `json:"vat_number"`
	ContactPerson    string            `json:"contact_person" validate:"required"`
	PhoneNumber      string            `json:"phone_number" validate:"required"`
	DeliverySchedule schedule.Schedule `json:"delivery_schedule"`
}

func (h *CustomerHandler) decodeCustomer(w http.ResponseWriter, r *http.Request) (*customer.Customer, bool) {
	var req customerRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request payload: %v", err))
		return nil, false
	}
	if err := h.validate.Struct(req); err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Validation failed: %v", err))
		return nil, false
	}

	userID, err := uuid.FromString(req.UserID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "user_id must be a valid UUID")
		return nil, false
	}

	if req.DeliverySchedule == nil {
		req.DeliverySchedule = schedule.Schedule{}
	}

	c := &customer.Customer{
		UserID:           userID,
		CustomerNumber:   req.CustomerNumber,
		CompanyName:      req.CompanyName,
		Address:          req.Address,
		VATNumber:        req.VATNumber,
		ContactPerson:    req.ContactPerson,
		PhoneNumber:      req.PhoneNumber,
		DeliverySchedule: req.DeliverySchedule,
	}
	if err := c.Validate(); err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return nil, false
	}
	return c, true
}

func (h *CustomerHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	c, ok := h.decodeCustomer(w, r)
	if !ok {
		return
	}

	if _, err := h.customers.Create(r.Context(), c); err != nil {
		if !errors.Is(err, customer.ErrCustomerExists) {
			log.Error().Err(err).Msg("Failed to create customer")
		}
		respondWithError(w, mapErrorToStatusCode(err), "failed to create customer")
		return
	}

	respondWithJSON(w, http.StatusCreated, c)
}

func (h *CustomerHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}

	c, err := h.customers.GetByID(r.Context(), id)
	if err != nil {
		if !errors.Is(err, customer.ErrCustomerNotFound) {
			log.Error().Err(err).Stringer("customer_id", id).Msg("Failed to get customer")
		}
		respondWithError(w, mapErrorToStatusCode(err), "failed to get customer")
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

func (h *CustomerHandler) handleList(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customers.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list customers")
		respondWithError(w, http.StatusInternalServerError, "failed to list customers")
		return
	}
	respondWithJSON(w, http.StatusOK, customers)
}

func (h *CustomerHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}

	c, ok := h.decodeCustomer(w, r)
	if !ok {
		return
	}
	c.ID = id

	if err := h.customers.Update(r.Context(), c); err != nil {
		if !errors.Is(err, customer.ErrCustomerNotFound) && !errors.Is(err, customer.ErrCustomerExists) {
			log.Error().Err(err).Stringer("customer_id", id).Msg("Failed to update customer")
		}
		respondWithError(w, mapErrorToStatusCode(err), "failed to update customer")
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

func (h *CustomerHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}

	if err := h.customers.Delete(r.Context(), id); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), "failed to delete customer")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
