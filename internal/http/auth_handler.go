package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fracki1010/edu-cart-backend/internal/domain"
)

type UserOperations interface {
	Register(ctx context.Context, name, username, email, password string) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, string, error)
}

type AuthHandler struct {
	users UserOperations
}

func NewAuthHandler(users UserOperations) *AuthHandler {
	return &AuthHandler{users: users}
}

type RegisterRequestDTO struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequestDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponseDTO struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Username    string `json:"username"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	user, err := h.users.Register(r.Context(), req.Name, req.Username, req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	user, token, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, TokenResponseDTO{
		AccessToken: token,
		TokenType:   "bearer",
		ID:          user.ID,
		Name:        user.Name,
		Username:    user.Username,
	})
}
