package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/freshconcept/gms-ordering/internal/identity"
)

type AuthHandler struct {
	users    identity.Service
	validate *validator.Validate
}

func NewAuthHandler(users identity.Service) *AuthHandler {
	return &AuthHandler{users: users, validate: validator.New()}
}

func (h *AuthHandler) RegisterRoutes(router chi.Router) {
	router.Post("/auth/register", h.handleRegister)
	router.Post("/auth/login", h.handleLogin)
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=customer employee admin"`
}

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest

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

	role, err := identity.ParseRole(req.Role)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	u := &identity.User{
		Username: req.Username,
		Email:    req.Email,
		Role:     role,
	}
	created, err := h.users.Register(r.Context(), u, req.Password)
	if err != nil {
		log.Error().Err(err).Str("username", req.Username).Msg("Failed to register user")
		respondWithError(w, mapErrorToStatusCode(err), "failed to register user")
		return
	}

	respondWithJSON(w, http.StatusCreated, userResponse{
		ID:        created.ID,
		Username:  created.Username,
		Email:     created.Email,
		Role:      string(created.Role),
		CreatedAt: created.CreatedAt,
	})
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	User        userResponse `json:"user"`
	LandingPath string       `json:"landing_path"`
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest

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

	u, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), "invalid username or password")
		return
	}

	respondWithJSON(w, http.StatusOK, loginResponse{
		User: userResponse{
			ID:        u.ID,
			Username:  u.Username,
			Email:     u.Email,
			Role:      string(u.Role),
			CreatedAt: u.CreatedAt,
		},
		LandingPath: identity.LandingPath(u.Role),
	})
}
