package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fracki1010/edu-cart-backend/internal/domain"
)

type CategoryOperations interface {
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error)
	CreateCategory(ctx context.Context, c *domain.Category) error
	UpdateCategory(ctx context.Context, c *domain.Category) error
	DeleteCategory(ctx context.Context, id int64) error
}

type CategoryHandler struct {
	catalog CategoryOperations
}

func NewCategoryHandler(catalog CategoryOperations) *CategoryHandler {
	return &CategoryHandler{catalog: catalog}
}

type CategoryRequestDTO struct {
	Name string `json:"name"`
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if categories == nil {
		categories = []*domain.Category{}
	}

	respondJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "categoryID")
	if !ok {
		return
	}

	category, err := h.catalog.GetCategoryByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, category)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "invalid_name", "name is required")
		return
	}

	category := &domain.Category{Name: req.Name}
	if err := h.catalog.CreateCategory(r.Context(), category); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, category)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "categoryID")
	if !ok {
		return
	}

	var req CategoryRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "invalid_name", "name is required")
		return
	}

	category := &domain.Category{ID: id, Name: req.Name}
	if err := h.catalog.UpdateCategory(r.Context(), category); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, category)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "categoryID")
	if !ok {
		return
	}

	if err := h.catalog.DeleteCategory(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
