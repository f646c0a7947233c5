package service

import (
	"context"
	"errors"

	"github.com/fracki1010/edu-cart-backend/internal/domain"
	"github.com/fracki1010/edu-cart-backend/internal/repository"
)

// CatalogService wraps product and category persistence. There are no
// business rules here beyond checking that a referenced category exists.
type CatalogService struct {
	repo repository.CatalogRepository
}

func NewCatalogService(repo repository.CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	return s.repo.ListProducts(ctx, filter)
}

func (s *CatalogService) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.repo.GetProductByID(ctx, id)
	if errors.Is(err, repository.ErrProductNotFound) {
		return nil, ErrProductNotFound
	}
	return product, err
}

func (s *CatalogService) CreateProduct(ctx context.Context, p *domain.Product) error {
	if p.CategoryID != nil {
		if _, err := s.repo.GetCategoryByID(ctx, *p.CategoryID); err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return ErrCategoryNotFound
			}
			return err
		}
	}
	return s.repo.CreateProduct(ctx, p)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, p *domain.Product) error {
	err := s.repo.UpdateProduct(ctx, p)
	if errors.Is(err, repository.ErrProductNotFound) {
		return ErrProductNotFound
	}
	return err
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	err := s.repo.DeleteProduct(ctx, id)
	if errors.Is(err, repository.ErrProductNotFound) {
		return ErrProductNotFound
	}
	return err
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *CatalogService) GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error) {
	category, err := s.repo.GetCategoryByID(ctx, id)
	if errors.Is(err, repository.ErrCategoryNotFound) {
		return nil, ErrCategoryNotFound
	}
	return category, err
}

func (s *CatalogService) CreateCategory(ctx context.Context, c *domain.Category) error {
	return s.repo.CreateCategory(ctx, c)
}

func (s *CatalogService) UpdateCategory(ctx context.Context, c *domain.Category) error {
	err := s.repo.UpdateCategory(ctx, c)
	if errors.Is(err, repository.ErrCategoryNotFound) {
		return ErrCategoryNotFound
	}
	return err
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	err := s.repo.DeleteCategory(ctx, id)
	if errors.Is(err, repository.ErrCategoryNotFound) {
		return ErrCategoryNotFound
	}
	return err
}
