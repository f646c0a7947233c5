package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fracki1010/edu-cart-backend/internal/domain"
)

type ProductOperations interface {
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error)
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id int64) error
}

type ProductHandler struct {
	catalog ProductOperations
}

func NewProductHandler(catalog ProductOperations) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

type ProductRequestDTO struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Rating      int             `json:"rating"`
	CategoryID  *int64          `json:"category_id"`
	ImageURL    string          `json:"image_url"`
}

func (dto *ProductRequestDTO) validate() (code, message string, ok bool) {
	if dto.Name == "" {
		return "invalid_name", "name is required", false
	}
	if dto.Price.IsNegative() {
		return "invalid_price", "price must not be negative", false
	}
	return "", "", true
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.ProductFilter{
		Categories: r.URL.Query()["categories"],
	}
	if raw := r.URL.Query().Get("price_min"); raw != "" {
		min, err := decimal.NewFromString(raw)
		if err != nil || min.IsNegative() {
			respondError(w, http.StatusBadRequest, "invalid_price_min", "price_min must be a non-negative number")
			return
		}
		filter.PriceMin = &min
	}
	if raw := r.URL.Query().Get("price_max"); raw != "" {
		max, err := decimal.NewFromString(raw)
		if err != nil || max.IsNegative() {
			respondError(w, http.StatusBadRequest, "invalid_price_max", "price_max must be a non-negative number")
			return
		}
		filter.PriceMax = &max
	}

	products, err := h.catalog.ListProducts(r.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if products == nil {
		products = []*domain.Product{}
	}

	respondJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "productID")
	if !ok {
		return
	}

	product, err := h.catalog.GetProductByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if code, msg, ok := req.validate(); !ok {
		respondError(w, http.StatusBadRequest, code, msg)
		return
	}

	product := &domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Rating:      req.Rating,
		CategoryID:  req.CategoryID,
		ImageURL:    req.ImageURL,
	}
	if err := h.catalog.CreateProduct(r.Context(), product); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "productID")
	if !ok {
		return
	}

	var req ProductRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if code, msg, ok := req.validate(); !ok {
		respondError(w, http.StatusBadRequest, code, msg)
		return
	}

	product := &domain.Product{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Rating:      req.Rating,
		CategoryID:  req.CategoryID,
		ImageURL:    req.ImageURL,
	}
	if err := h.catalog.UpdateProduct(r.Context(), product); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "productID")
	if !ok {
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_id", param+" must be a positive integer")
		return 0, false
	}
	return id, true
}
