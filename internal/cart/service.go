package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/dulces-mila/mila-backend/internal/catalog"
	"github.com/dulces-mila/mila-backend/internal/shared"
	"github.com/dulces-mila/mila-backend/internal/users"
)

// UserDirectory resolves user ids. Satisfied by users.Repository.
type UserDirectory interface {
	Get(ctx context.Context, id int64) (*users.User, error)
}

// ProductDirectory resolves product ids. Satisfied by catalog.Repository.
type ProductDirectory interface {
	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)
}

// Service coordinates cart operations. Stock is deliberately not checked
// here; availability is validated only at checkout.
type Service struct {
	repo     RepositoryPort
	userDir  UserDirectory
	products ProductDirectory
}

// NewService builds Service.
func NewService(repo RepositoryPort, userDir UserDirectory, products ProductDirectory) *Service {
	return &Service{repo: repo, userDir: userDir, products: products}
}

// GetOrCreate fetches the user's cart, creating an empty one on first
// access. Fails with shared.ErrNotFound when the user id is unknown.
func (s *Service) GetOrCreate(ctx context.Context, userID int64) (*Cart, error) {
	c, err := s.repo.GetByUser(ctx, userID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrCartNotFound) {
		return nil, err
	}

	if _, err := s.userDir.Get(ctx, userID); err != nil {
		return nil, fmt.Errorf("cart: verify user: %w", err)
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetCart(ctx, userID); err == nil {
			return nil
		} else if !errors.Is(err, ErrCartNotFound) {
			return err
		}
		_, err := tx.CreateCart(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByUser(ctx, userID)
}

// AddItem puts quantity units of a product into the user's cart. When the
// product is already present the quantities are merged into the existing
// line; a second line is never created.
func (s *Service) AddItem(ctx context.Context, userID, productID int64, quantity int) (*Cart, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("cart: quantity must be positive: %w", shared.ErrInvalidArgument)
	}
	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		return nil, fmt.Errorf("cart: verify product %d: %w", productID, err)
	}
	c, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetCart(ctx, userID)
		if err != nil {
			return err
		}
		for _, item := range current.Items {
			if item.ProductID == productID {
				return tx.UpdateItemQuantity(ctx, item.ID, item.Quantity+quantity)
			}
		}
		return tx.InsertItem(ctx, c.ID, productID, quantity)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByUser(ctx, userID)
}

// RemoveItem drops the line for a product. Removing a product that is not
// in the cart is a no-op, not an error.
func (s *Service) RemoveItem(ctx context.Context, userID, productID int64) (*Cart, error) {
	c, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.DeleteItem(ctx, c.ID, productID)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByUser(ctx, userID)
}

// Clear empties the cart. The cart row itself persists.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	c, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.DeleteAllItems(ctx, c.ID)
	})
}
