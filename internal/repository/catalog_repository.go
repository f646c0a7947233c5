package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/fracki1010/edu-cart-backend/internal/domain"
)

type CatalogRepo struct {
	db *sql.DB
}

func NewCatalogRepo(db *sql.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

const productColumns = `p.id, p.name, p.description, p.price, p.rating, p.category_id, p.image_url,
	                 p.created_at, p.updated_at, cat.id, cat.name`

func (r *CatalogRepo) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	var (
		conds []string
		args  []interface{}
	)
	if len(filter.Categories) > 0 {
		args = append(args, pq.Array(filter.Categories))
		conds = append(conds, fmt.Sprintf("cat.name = ANY($%d)", len(args)))
	}
	if filter.PriceMin != nil {
		args = append(args, *filter.PriceMin)
		conds = append(conds, fmt.Sprintf("p.price >= $%d", len(args)))
	}
	if filter.PriceMax != nil {
		args = append(args, *filter.PriceMax)
		conds = append(conds, fmt.Sprintf("p.price <= $%d", len(args)))
	}

	query := `SELECT ` + productColumns + `
	          FROM products p
	          LEFT JOIN categories cat ON cat.id = p.category_id`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY p.id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		product, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

func (r *CatalogRepo) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + `
	          FROM products p
	          LEFT JOIN categories cat ON cat.id = p.category_id
	          WHERE p.id = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return product, nil
}

func scanProduct(scan func(...interface{}) error) (*domain.Product, error) {
	var (
		product     domain.Product
		description sql.NullString
		categoryID  sql.NullInt64
		catID       sql.NullInt64
		catName     sql.NullString
	)
	err := scan(
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
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan product row: %w", err)
	}
	product.Description = description.String
	if categoryID.Valid {
		product.CategoryID = &categoryID.Int64
	}
	if catID.Valid {
		product.Category = &domain.Category{ID: catID.Int64, Name: catName.String}
	}
	return &product, nil
}

func (r *CatalogRepo) CreateProduct(ctx context.Context, p *domain.Product) error {
	query := `INSERT INTO products (name, description, price, rating, category_id, image_url, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	          RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		p.Name,
		nullString(p.Description),
		p.Price,
		p.Rating,
		nullInt64(p.CategoryID),
		p.ImageURL,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *CatalogRepo) UpdateProduct(ctx context.Context, p *domain.Product) error {
	query := `UPDATE products
	          SET name = $2, description = $3, price = $4, rating = $5, category_id = $6,
	              image_url = $7, updated_at = NOW()
	          WHERE id = $1
	          RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		p.ID,
		p.Name,
		nullString(p.Description),
		p.Price,
		p.Rating,
		nullInt64(p.CategoryID),
		p.ImageURL,
	).Scan(&p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (r *CatalogRepo) DeleteProduct(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return requireRow(res, ErrProductNotFound)
}

func (r *CatalogRepo) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		categories = append(categories, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return categories, nil
}

func (r *CatalogRepo) GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error) {
	var c domain.Category
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query category by id: %w", err)
	}
	return &c, nil
}

func (r *CatalogRepo) CreateCategory(ctx context.Context, c *domain.Category) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO categories (name) VALUES ($1) RETURNING id`, c.Name).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *CatalogRepo) UpdateCategory(ctx context.Context, c *domain.Category) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = $2 WHERE id = $1`, c.ID, c.Name)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireRow(res, ErrCategoryNotFound)
}

func (r *CatalogRepo) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireRow(res, ErrCategoryNotFound)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
