package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Rating      int             `json:"rating"`
	CategoryID  *int64          `json:"category_id,omitempty"`
	Category    *Category       `json:"category,omitempty"`
	ImageURL    string          `json:"image_url"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ProductFilter narrows catalog listings. Nil price bounds and an empty
// category list mean "no constraint".
type ProductFilter struct {
	Categories []string
	PriceMin   *decimal.Decimal
	PriceMax   *decimal.Decimal
}
