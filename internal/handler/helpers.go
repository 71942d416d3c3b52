package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/freshconcept/gms-ordering/internal/catalog"
	"github.com/freshconcept/gms-ordering/internal/customer"
	"github.com/freshconcept/gms-ordering/internal/identity"
	"github.com/freshconcept/gms-ordering/internal/order"
)

// respondWithError sends a JSON error payload.
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON sends a JSON response.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, customer.ErrCustomerNotFound),
		errors.Is(err, identity.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, identity.ErrUsernameExists),
		errors.Is(err, customer.ErrCustomerExists),
		errors.Is(err, order.ErrNoDeliveryWindow):
		return http.StatusConflict
	case errors.Is(err, identity.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, order.ErrStatusAlreadySet),
		errors.Is(err, order.ErrInvalidStatusTransition),
		errors.Is(err, customer.ErrInvalidVATNumber),
		errors.Is(err, customer.ErrInvalidPhoneNumber):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
