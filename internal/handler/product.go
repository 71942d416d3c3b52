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
	"github.com/shopspring/decimal"

	"github.com/freshconcept/gms-ordering/internal/catalog"
	"github.com/freshconcept/gms-ordering/internal/pricing"
)

// ProductHandler is the back-office CRUD surface for the catalog. Responses
// include the derived prices so the admin view never recomputes them.
type ProductHandler struct {
	products catalog.Repository
	validate *validator.Validate
}

func NewProductHandler(products catalog.Repository) *ProductHandler {
	return &ProductHandler{products: products, validate: validator.New()}
}

func (h *ProductHandler) RegisterRoutes(router chi.Router) {
	router.Get("/products", h.handleList)
	router.Post("/products", h.handleCreate)
	router.Get("/products/{id}", h.handleGet)
	router.Put("/products/{id}", h.handleUpdate)
	router.Delete("/products/{id}", h.handleDelete)
}

type productRequest struct {
	Name                string           `json:"name" validate:"required"`
	Description         string           `json:"description"`
	PricePerKg          decimal.Decimal  `json:"price_per_kg"`
	MarginRate          decimal.Decimal  `json:"margin_rate"`
	RetailPriceOverride *decimal.Decimal `json:"retail_price_override"`
	ApproximateWeight   decimal.Decimal  `json:"approximate_weight"`
	MinimumQuantity     int              `json:"minimum_quantity" validate:"min=0"`
	IsActive            bool             `json:"is_active"`
}

type productResponse struct {
	catalog.Product
	WholesalePrice string `json:"wholesale_price"`
	RetailPrice    string `json:"retail_price"`
	RetailPerKg    string `json:"retail_price_per_kg,omitempty"`
}

func toProductResponse(p catalog.Product) productResponse {
	resp := productResponse{
		Product:        p,
		WholesalePrice: pricing.Wholesale(&p).StringFixed(2),
		RetailPrice:    pricing.Retail(&p).StringFixed(2),
	}
	if perKg, err := pricing.RetailPerKg(&p); err == nil {
		resp.RetailPerKg = perKg.StringFixed(2)
	}
	return resp
}

func (h *ProductHandler) decodeProduct(w http.ResponseWriter, r *http.Request) (*productRequest, bool) {
	var req productRequest

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
	return &req, true
}

func (h *ProductHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	p := catalog.Product{
		Name:                req.Name,
		Description:         req.Description,
		PricePerKg:          req.PricePerKg,
		MarginRate:          req.MarginRate,
		RetailPriceOverride: req.RetailPriceOverride,
		ApproximateWeight:   req.ApproximateWeight,
		MinimumQuantity:     req.MinimumQuantity,
		IsActive:            req.IsActive,
	}
	if _, err := h.products.Create(r.Context(), &p); err != nil {
		log.Error().Err(err).Msg("Failed to create product")
		respondWithError(w, mapErrorToStatusCode(err), "failed to create product")
		return
	}

	respondWithJSON(w, http.StatusCreated, toProductResponse(p))
}

func (h *ProductHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}

	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		if !errors.Is(err, catalog.ErrProductNotFound) {
			log.Error().Err(err).Stringer("product_id", id).Msg("Failed to get product")
		}
		respondWithError(w, mapErrorToStatusCode(err), "failed to get product")
		return
	}

	respondWithJSON(w, http.StatusOK, toProductResponse(*p))
}

func (h *ProductHandler) handleList(w http.ResponseWriter, r *http.Request) {
	var (
		products []catalog.Product
		err      error
	)
	if r.URL.Query().Get("active") == "true" {
		products, err = h.products.ListActive(r.Context())
	} else {
		products, err = h.products.List(r.Context())
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to list products")
		respondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *ProductHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}

	req, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	p := catalog.Product{
		ID:                  id,
		Name:                req.Name,
		Description:         req.Description,
		PricePerKg:          req.PricePerKg,
		MarginRate:          req.MarginRate,
		RetailPriceOverride: req.RetailPriceOverride,
		ApproximateWeight:   req.ApproximateWeight,
		MinimumQuantity:     req.MinimumQuantity,
		IsActive:            req.IsActive,
	}
	if err := h.products.Update(r.Context(), &p); err != nil {
		if !errors.Is(err, catalog.ErrProductNotFound) {
			log.Error().Err(err).Stringer("product_id", id).Msg("Failed to update product")
		}
		respondWithError(w, mapErrorToStatusCode(err), "failed to update product")
		return
	}

	respondWithJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *ProductHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}

	if err := h.products.Delete(r.Context(), id); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), "failed to delete product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
