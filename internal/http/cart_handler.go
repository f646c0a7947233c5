package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fracki1010/edu-cart-backend/internal/domain"
)

// CartOperations is the surface of the cart service the transport layer
// consumes.
type CartOperations interface {
	GetCart(ctx context.Context, userID int64) (*domain.Cart, error)
	AddOrUpdateItem(ctx context.Context, userID, productID int64, quantity int) (*domain.Cart, error)
	SetItemQuantity(ctx context.Context, userID, productID int64, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, productID int64) (bool, error)
	EmptyCart(ctx context.Context, userID int64) (bool, error)
}

type CartHandler struct {
	carts CartOperations
}

func NewCartHandler(carts CartOperations) *CartHandler {
	return &CartHandler{carts: carts}
}

type CartItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type CartItemResponseDTO struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Product   *domain.Product `json:"product"`
	AddedAt   time.Time       `json:"added_at"`
}

type CartResponseDTO struct {
	ID     int64                 `json:"id"`
	UserID int64                 `json:"user_id"`
	Items  []CartItemResponseDTO `json:"items"`
	Total  decimal.Decimal       `json:"total"`
}

func toCartResponse(cart *domain.Cart) CartResponseDTO {
	resp := CartResponseDTO{
		ID:     cart.ID,
		UserID: cart.UserID,
		Items:  make([]CartItemResponseDTO, 0, len(cart.Items)),
		Total:  cart.Total(),
	}
	for _, item := range cart.Items {
		resp.Items = append(resp.Items, CartItemResponseDTO{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal(),
			Product:   item.Product,
			AddedAt:   item.AddedAt,
		})
	}
	return resp
}

// cartUserID returns the authenticated identity after cross-checking it
// against the {userID} path parameter. The token is the source of truth; a
// mismatching path never grants access to another user's cart.
func cartUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return 0, false
	}

	pathID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || pathID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_user_id", "user id must be a positive integer")
		return 0, false
	}
	if pathID != userID {
		respondError(w, http.StatusForbidden, "forbidden", "cart belongs to another user")
		return 0, false
	}
	return userID, true
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := cartUserID(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.GetCart(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartResponse(cart))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := cartUserID(w, r)
	if !ok {
		return
	}

	var req CartItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}
	if req.Quantity <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be positive")
		return
	}

	cart, err := h.carts.AddOrUpdateItem(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartResponse(cart))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	userID, ok := cartUserID(w, r)
	if !ok {
		return
	}

	var req CartItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	// quantity <= 0 deliberately passes through: the service removes the item.
	cart, err := h.carts.SetItemQuantity(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartResponse(cart))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := cartUserID(w, r)
	if !ok {
		return
	}

	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	removed, err := h.carts.RemoveItem(r.Context(), userID, productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !removed {
		respondError(w, http.StatusNotFound, "not_found", "cart item not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := cartUserID(w, r)
	if !ok {
		return
	}

	cleared, err := h.carts.EmptyCart(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !cleared {
		respondError(w, http.StatusNotFound, "not_found", "cart not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
