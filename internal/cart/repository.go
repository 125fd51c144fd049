package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dulces-mila/mila-backend/internal/catalog"
	"github.com/dulces-mila/mila-backend/internal/platform/db"
)

// RepositoryPort abstracts repository usage for the cart service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetByUser(ctx context.Context, userID int64) (*Cart, error)
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	GetCart(ctx context.Context, userID int64) (*Cart, error)
	CreateCart(ctx context.Context, userID int64) (int64, error)
	InsertItem(ctx context.Context, cartID, productID int64, quantity int) error
	UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error
	DeleteItem(ctx context.Context, cartID, productID int64) error
	DeleteAllItems(ctx context.Context, cartID int64) error
}

// Repository persists carts in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// GetByUser loads the cart with its items and product details.
func (r *Repository) GetByUser(ctx context.Context, userID int64) (*Cart, error) {
	return loadCart(ctx, r.pool, userID)
}

func (r *txRepo) GetCart(ctx context.Context, userID int64) (*Cart, error) {
	return loadCart(ctx, r.tx, userID)
}

func (r *txRepo) CreateCart(ctx context.Context, userID int64) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO carts (user_id) VALUES ($1) RETURNING id`, userID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("cart: create: %w", err)
	}
	return id, nil
}

func (r *txRepo) InsertItem(ctx context.Context, cartID, productID int64, quantity int) error {
	_, err := r.tx.Exec(ctx,
		`INSERT INTO cart_items (cart_id, product_id, quantity) VALUES ($1, $2, $3)`,
		cartID, productID, quantity,
	)
	if err != nil {
		return fmt.Errorf("cart: insert item: %w", err)
	}
	return nil
}

func (r *txRepo) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error {
	_, err := r.tx.Exec(ctx, `UPDATE cart_items SET quantity = $2 WHERE id = $1`, itemID, quantity)
	if err != nil {
		return fmt.Errorf("cart: update item: %w", err)
	}
	return nil
}

func (r *txRepo) DeleteItem(ctx context.Context, cartID, productID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
	if err != nil {
		return fmt.Errorf("cart: delete item: %w", err)
	}
	return nil
}

func (r *txRepo) DeleteAllItems(ctx context.Context, cartID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("cart: clear: %w", err)
	}
	return nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func loadCart(ctx context.Context, q querier, userID int64) (*Cart, error) {
	var c Cart
	err := q.QueryRow(ctx, `SELECT id, user_id FROM carts WHERE user_id = $1`, userID).Scan(&c.ID, &c.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("cart: get: %w", err)
	}

	rows, err := q.Query(ctx, `
		SELECT i.id, i.cart_id, i.product_id, i.quantity,
		       p.id, p.name, p.description, p.price, p.stock, p.image_url, p.status, p.category_id, p.created_at
		FROM cart_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.cart_id = $1
		ORDER BY i.id`, c.ID)
	if err != nil {
		return nil, fmt.Errorf("cart: load items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item CartItem
		var p catalog.Product
		if err := rows.Scan(
			&item.ID, &item.CartID, &item.ProductID, &item.Quantity,
			&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageURL, &p.Status, &p.CategoryID, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("cart: scan item: %w", err)
		}
		item.Product = &p
		c.Items = append(c.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &c, nil
}

var _ RepositoryPort = (*Repository)(nil)
