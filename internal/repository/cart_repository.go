package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/fracki1010/edu-cart-backend/internal/domain"
)

const pgUniqueViolation = "23505"

type CartRepo struct {
	db *sql.DB
}

func NewCartRepo(db *sql.DB) *CartRepo {
	return &CartRepo{db: db}
}

// GetCartByUser loads the cart row together with every item and its joined
// product in one query, so the service layer never issues N+1 lookups.
func (r *CartRepo) GetCartByUser(ctx context.Context, userID int64) (*domain.Cart, error) {
	query := `SELECT c.id, c.user_id, c.created_at, c.updated_at
	          FROM carts c WHERE c.user_id = $1`

	var cart domain.Cart
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&cart.ID,
		&cart.UserID,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query cart by user: %w", err)
	}

	items, err := r.loadItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items
	return &cart, nil
}

func (r *CartRepo) loadItems(ctx context.Context, cartID int64) ([]domain.CartItem, error) {
	query := `SELECT ci.cart_id, ci.product_id, ci.quantity, ci.added_at,
	                 p.id, p.name, p.description, p.price, p.rating, p.category_id, p.image_url,
	                 p.created_at, p.updated_at,
	                 cat.id, cat.name
	          FROM cart_items ci
	          JOIN products p ON p.id = ci.product_id
	          LEFT JOIN categories cat ON cat.id = p.category_id
	          WHERE ci.cart_id = $1`

	rows, err := r.db.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var (
			item        domain.CartItem
			product     domain.Product
			description sql.NullString
			categoryID  sql.NullInt64
			catID       sql.NullInt64
			catName     sql.NullString
		)
		if err := rows.Scan(
			&item.CartID,
			&item.ProductID,
			&item.Quantity,
			&item.AddedAt,
			&product.ID,
			&product.Name,
			&description,
			&product.Price,
			&product.Rating,
			&categoryID,
			&product.ImageURL,
			&product.CreatedAt,
			&product.UpdatedAt,
			&catID,
			&catName,
		); err != nil {
			return nil, fmt.Errorf("scan cart item row: %w", err)
		}
		product.Description = description.String
		if categoryID.Valid {
			product.CategoryID = &categoryID.Int64
		}
		if catID.Valid {
			product.Category = &domain.Category{ID: catID.Int64, Name: catName.String}
		}
		item.Product = &product
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}

// GetOrCreateCart inserts a cart row for the user and, when a concurrent
// call wins the insert race, falls back to fetching the winner's row. The
// unique constraint on carts.user_id is what guarantees at most one row.
func (r *CartRepo) GetOrCreateCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	cart, err := r.GetCartByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, ErrCartNotFound) {
		return nil, err
	}

	query := `INSERT INTO carts (user_id, created_at, updated_at)
	          VALUES ($1, NOW(), NOW())
	          RETURNING id, user_id, created_at, updated_at`

	var created domain.Cart
	insertErr := r.db.QueryRowContext(ctx, query, userID).Scan(
		&created.ID,
		&created.UserID,
		&created.CreatedAt,
		&created.UpdatedAt,
	)
	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == pgUniqueViolation {
			// Lost the race; the other caller's row is the cart.
			return r.GetCartByUser(ctx, userID)
		}
		return nil, fmt.Errorf("insert cart: %w", insertErr)
	}
	return &created, nil
}

func (r *CartRepo) GetItem(ctx context.Context, cartID, productID int64) (*domain.CartItem, error) {
	query := `SELECT cart_id, product_id, quantity, added_at
	          FROM cart_items WHERE cart_id = $1 AND product_id = $2`

	var item domain.CartItem
	err := r.db.QueryRowContext(ctx, query, cartID, productID).Scan(
		&item.CartID,
		&item.ProductID,
		&item.Quantity,
		&item.AddedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query cart item: %w", err)
	}
	return &item, nil
}

// AddItem is a plain insert. A duplicate (cart_id, product_id) maps to
// ErrItemExists so the caller can route the race to an atomic increment.
func (r *CartRepo) AddItem(ctx context.Context, cartID, productID int64, quantity int) error {
	query := `INSERT INTO cart_items (cart_id, product_id, quantity, added_at)
	          VALUES ($1, $2, $3, NOW())`

	_, err := r.db.ExecContext(ctx, query, cartID, productID, quantity)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return ErrItemExists
		}
		return fmt.Errorf("insert cart item: %w", err)
	}
	return nil
}

// IncrementItemQuantity executes the addition inside the store so two
// concurrent increments never net to a lost update.
func (r *CartRepo) IncrementItemQuantity(ctx context.Context, cartID, productID int64, delta int) error {
	query := `UPDATE cart_items SET quantity = quantity + $3
	          WHERE cart_id = $1 AND product_id = $2`

	res, err := r.db.ExecContext(ctx, query, cartID, productID, delta)
	if err != nil {
		return fmt.Errorf("increment cart item quantity: %w", err)
	}
	return requireRow(res, ErrItemNotFound)
}

func (r *CartRepo) SetItemQuantity(ctx context.Context, cartID, productID int64, quantity int) error {
	query := `UPDATE cart_items SET quantity = $3
	          WHERE cart_id = $1 AND product_id = $2`

	res, err := r.db.ExecContext(ctx, query, cartID, productID, quantity)
	if err != nil {
		return fmt.Errorf("set cart item quantity: %w", err)
	}
	return requireRow(res, ErrItemNotFound)
}

func (r *CartRepo) RemoveItem(ctx context.Context, cartID, productID int64) error {
	query := `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`

	res, err := r.db.ExecContext(ctx, query, cartID, productID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	return requireRow(res, ErrItemNotFound)
}

// ClearCart deletes every item; the cart row itself is retained for reuse.
func (r *CartRepo) ClearCart(ctx context.Context, cartID int64) error {
	query := `DELETE FROM cart_items WHERE cart_id = $1`

	if _, err := r.db.ExecContext(ctx, query, cartID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func requireRow(res sql.Result, absent error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return absent
	}
	return nil
}
