package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is the per-user shopping cart aggregate. At most one Cart row exists
// per user; the items slice carries the joined product detail so callers
// never re-fetch the catalog.
type Cart struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem is identified by (CartID, ProductID); there is no surrogate id.
// Quantity is always positive: a quantity of zero or less means the row is
// deleted instead.
type CartItem struct {
	CartID    int64     `json:"-"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Product   *Product  `json:"product,omitempty"`
	AddedAt   time.Time `json:"added_at"`
}

// Subtotal is derived from the joined product price at read time and never
// persisted, so catalog price changes are reflected on the next read.
func (i CartItem) Subtotal() decimal.Decimal {
	if i.Product == nil {
		return decimal.Zero
	}
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Total sums the derived item subtotals.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Item returns the item for productID, or nil if the cart has none.
func (c *Cart) Item(productID int64) *CartItem {
	for idx := range c.Items {
		if c.Items[idx].ProductID == productID {
			return &c.Items[idx]
		}
	}
	return nil
}
