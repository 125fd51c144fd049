package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dulces-mila/mila-backend/internal/catalog"
	"github.com/dulces-mila/mila-backend/internal/platform/db"
	"github.com/dulces-mila/mila-backend/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*Sale, error)
	ListByUser(ctx context.Context, userID int64) ([]Sale, error)
}

// TxRepository exposes the operations that must share one transaction with
// the sale insert: locked product reads, stock writes, and cart drainage.
type TxRepository interface {
	GetProductForUpdate(ctx context.Context, id int64) (*catalog.Product, error)
	UpdateProductStock(ctx context.Context, id int64, stock int) error
	InsertSale(ctx context.Context, sale Sale) (int64, error)
	InsertSaleLines(ctx context.Context, saleID int64, lines []SaleLine) error
	GetCartItems(ctx context.Context, userID int64) ([]ItemRequest, error)
	ClearCart(ctx context.Context, userID int64) error
}

// Repository persists sales in PostgreSQL.
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
// Serialization failures surface as shared.ErrTxConflict.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// Get loads one sale with its lines.
func (r *Repository) Get(ctx context.Context, id int64) (*Sale, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, user_id, sold_at, net_amount, tax_amount, total_amount FROM sales WHERE id = $1`, id)
	sale, err := scanSale(row)
	if err != nil {
		return nil, err
	}
	lines, err := r.loadLines(ctx, []int64{sale.ID})
	if err != nil {
		return nil, err
	}
	sale.Lines = lines[sale.ID]
	return sale, nil
}

// ListByUser returns the user's sales in reverse-chronological order.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]Sale, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, sold_at, net_amount, tax_amount, total_amount
		 FROM sales WHERE user_id = $1 ORDER BY sold_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("sales: list: %w", err)
	}
	defer rows.Close()

	var result []Sale
	var ids []int64
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *sale)
		ids = append(ids, sale.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return result, nil
	}

	lines, err := r.loadLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range result {
		result[i].Lines = lines[result[i].ID]
	}
	return result, nil
}

func (r *Repository) loadLines(ctx context.Context, saleIDs []int64) (map[int64][]SaleLine, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, sale_id, product_id, quantity, unit_price, subtotal
		 FROM sale_lines WHERE sale_id = ANY($1) ORDER BY id`, saleIDs)
	if err != nil {
		return nil, fmt.Errorf("sales: load lines: %w", err)
	}
	defer rows.Close()

	result := make(map[int64][]SaleLine)
	for rows.Next() {
		var l SaleLine
		if err := rows.Scan(&l.ID, &l.SaleID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.Subtotal); err != nil {
			return nil, fmt.Errorf("sales: scan line: %w", err)
		}
		result[l.SaleID] = append(result[l.SaleID], l)
	}
	return result, rows.Err()
}

func (r *txRepo) GetProductForUpdate(ctx context.Context, id int64) (*catalog.Product, error) {
	var p catalog.Product
	err := r.tx.QueryRow(ctx,
		`SELECT id, name, price, stock, status FROM products WHERE id = $1 FOR UPDATE`, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("sales: product %d: %w", id, shared.ErrNotFound)
		}
		return nil, fmt.Errorf("sales: lock product %d: %w", id, err)
	}
	return &p, nil
}

func (r *txRepo) UpdateProductStock(ctx context.Context, id int64, stock int) error {
	_, err := r.tx.Exec(ctx, `UPDATE products SET stock = $2 WHERE id = $1`, id, stock)
	if err != nil {
		return fmt.Errorf("sales: update stock %d: %w", id, err)
	}
	return nil
}

func (r *txRepo) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx,
		`INSERT INTO sales (user_id, sold_at, net_amount, tax_amount, total_amount)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		sale.UserID, sale.Date, sale.NetAmount, sale.TaxAmount, sale.Total,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("sales: insert sale: %w", err)
	}
	return id, nil
}

func (r *txRepo) InsertSaleLines(ctx context.Context, saleID int64, lines []SaleLine) error {
	for _, l := range lines {
		_, err := r.tx.Exec(ctx,
			`INSERT INTO sale_lines (sale_id, product_id, quantity, unit_price, subtotal)
			 VALUES ($1, $2, $3, $4, $5)`,
			saleID, l.ProductID, l.Quantity, l.UnitPrice, l.Subtotal,
		)
		if err != nil {
			return fmt.Errorf("sales: insert line: %w", err)
		}
	}
	return nil
}

func (r *txRepo) GetCartItems(ctx context.Context, userID int64) ([]ItemRequest, error) {
	rows, err := r.tx.Query(ctx,
		`SELECT i.product_id, i.quantity
		 FROM cart_items i JOIN carts c ON c.id = i.cart_id
		 WHERE c.user_id = $1 ORDER BY i.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("sales: read cart: %w", err)
	}
	defer rows.Close()

	var items []ItemRequest
	for rows.Next() {
		var it ItemRequest
		if err := rows.Scan(&it.ProductID, &it.Quantity); err != nil {
			return nil, fmt.Errorf("sales: scan cart item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *txRepo) ClearCart(ctx context.Context, userID int64) error {
	_, err := r.tx.Exec(ctx,
		`DELETE FROM cart_items WHERE cart_id IN (SELECT id FROM carts WHERE user_id = $1)`, userID)
	if err != nil {
		return fmt.Errorf("sales: clear cart: %w", err)
	}
	return nil
}

func scanSale(row pgx.Row) (*Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.UserID, &s.Date, &s.NetAmount, &s.TaxAmount, &s.Total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("sales: scan sale: %w", err)
	}
	return &s, nil
}

var _ RepositoryPort = (*Repository)(nil)
