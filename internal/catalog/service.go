package catalog

import (
	"context"
	"fmt"

	"github.com/dulces-mila/mila-backend/internal/shared"
)

// Service coordinates catalog operations.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// GetProduct returns a product by id.
func (s *Service) GetProduct(ctx context.Context, id int64) (*Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// ListProducts returns products, optionally only active ones.
func (s *Service) ListProducts(ctx context.Context, activeOnly bool) ([]Product, error) {
	return s.repo.ListProducts(ctx, activeOnly)
}

// CreateProduct validates and persists a new product.
func (s *Service) CreateProduct(ctx context.Context, p Product) (*Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetCategory(ctx, p.CategoryID); err != nil {
		return nil, fmt.Errorf("catalog: verify category: %w", err)
	}
	if p.Status == "" {
		p.Status = ProductActive
	}
	id, err := s.repo.CreateProduct(ctx, p)
	if err != nil {
		return nil, err
	}
	return s.repo.GetProduct(ctx, id)
}

// UpdateProduct validates and persists changes to an existing product.
func (s *Service) UpdateProduct(ctx context.Context, p Product) (*Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetCategory(ctx, p.CategoryID); err != nil {
		return nil, fmt.Errorf("catalog: verify category: %w", err)
	}
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.GetProduct(ctx, p.ID)
}

// DeleteProduct removes a product.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return s.repo.DeleteProduct(ctx, id)
}

// GetCategory returns a category by id.
func (s *Service) GetCategory(ctx context.Context, id int64) (*Category, error) {
	return s.repo.GetCategory(ctx, id)
}

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

// CreateCategory persists a new category.
func (s *Service) CreateCategory(ctx context.Context, c Category) (*Category, error) {
	if c.Name == "" {
		return nil, fmt.Errorf("catalog: category name required: %w", shared.ErrInvalidArgument)
	}
	id, err := s.repo.CreateCategory(ctx, c)
	if err != nil {
		return nil, err
	}
	return s.repo.GetCategory(ctx, id)
}

// UpdateCategory persists changes to a category.
func (s *Service) UpdateCategory(ctx context.Context, c Category) (*Category, error) {
	if c.Name == "" {
		return nil, fmt.Errorf("catalog: category name required: %w", shared.ErrInvalidArgument)
	}
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}
	return s.repo.GetCategory(ctx, c.ID)
}

// DeleteCategory removes a category.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	return s.repo.DeleteCategory(ctx, id)
}

func validateProduct(p Product) error {
	if p.Name == "" {
		return fmt.Errorf("catalog: product name required: %w", shared.ErrInvalidArgument)
	}
	if p.Price < 0 {
		return fmt.Errorf("catalog: price must be >= 0: %w", shared.ErrInvalidArgument)
	}
	if p.Stock < 0 {
		return fmt.Errorf("catalog: stock must be >= 0: %w", shared.ErrInvalidArgument)
	}
	if p.Status != "" && p.Status != ProductActive && p.Status != ProductInactive {
		return fmt.Errorf("catalog: unknown status %q: %w", p.Status, shared.ErrInvalidArgument)
	}
	return nil
}
