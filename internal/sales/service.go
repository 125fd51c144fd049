package sales

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dulces-mila/mila-backend/internal/catalog"
	"github.com/dulces-mila/mila-backend/internal/shared"
	"github.com/dulces-mila/mila-backend/internal/users"
)

// UserDirectory resolves user ids. Satisfied by users.Repository.
type UserDirectory interface {
	Get(ctx context.Context, id int64) (*users.User, error)
}

// AuditPort abstracts audit logging. Satisfied by shared.AuditLogger.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ReceiptNotifier is told about completed sales after commit. Delivery is
// best-effort and never fails the checkout.
type ReceiptNotifier interface {
	SaleRecorded(ctx context.Context, sale *Sale) error
}

// Service is the sale transaction engine. Each RealizeSale call is one
// all-or-nothing unit of work: either every stock decrement and the sale
// record commit together, or nothing changes.
type Service struct {
	repo     RepositoryPort
	userDir  UserDirectory
	audit    AuditPort
	notifier ReceiptNotifier
}

// NewService builds Service. audit and notifier may be nil.
func NewService(repo RepositoryPort, userDir UserDirectory, audit AuditPort, notifier ReceiptNotifier) *Service {
	return &Service{repo: repo, userDir: userDir, audit: audit, notifier: notifier}
}

// RealizeSale converts the requested items into a persisted Sale,
// decrementing stock. The whole batch is validated against locked product
// rows before any stock is written; any failure rolls the transaction back
// so no partial mutation is ever visible. A shared.ErrTxConflict result is
// safe to retry from scratch.
func (s *Service) RealizeSale(ctx context.Context, userID int64, items []ItemRequest) (*Sale, error) {
	if err := validateItems(items); err != nil {
		return nil, err
	}
	if _, err := s.userDir.Get(ctx, userID); err != nil {
		return nil, fmt.Errorf("sales: verify user %d: %w", userID, err)
	}

	var sale *Sale
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		sale, err = s.realize(ctx, tx, userID, items)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx, sale)
	return sale, nil
}

// CheckoutCart realizes the caller's current cart and empties it, all in
// the same transaction as the stock decrements and the sale insert.
func (s *Service) CheckoutCart(ctx context.Context, userID int64) (*Sale, error) {
	if _, err := s.userDir.Get(ctx, userID); err != nil {
		return nil, fmt.Errorf("sales: verify user %d: %w", userID, err)
	}

	var sale *Sale
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		items, err := tx.GetCartItems(ctx, userID)
		if err != nil {
			return err
		}
		if err := validateItems(items); err != nil {
			return err
		}
		sale, err = s.realize(ctx, tx, userID, items)
		if err != nil {
			return err
		}
		return tx.ClearCart(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx, sale)
	return sale, nil
}

// ListForUser returns the user's sales, newest first.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]Sale, error) {
	if _, err := s.userDir.Get(ctx, userID); err != nil {
		return nil, fmt.Errorf("sales: verify user %d: %w", userID, err)
	}
	return s.repo.ListByUser(ctx, userID)
}

// Get returns a single sale by id. Ownership is enforced at the HTTP
// layer, where the caller's identity is known.
func (s *Service) Get(ctx context.Context, id int64) (*Sale, error) {
	return s.repo.Get(ctx, id)
}

// realize runs inside the transaction. Product rows are locked in
// ascending id order so concurrent checkouts queue instead of deadlocking,
// the entire batch is validated, and only then is any stock written. The
// price snapshot for each line comes from the same locked read as the
// stock check.
func (s *Service) realize(ctx context.Context, tx TxRepository, userID int64, items []ItemRequest) (*Sale, error) {
	required := make(map[int64]int, len(items))
	for _, it := range items {
		required[it.ProductID] += it.Quantity
	}
	ids := make([]int64, 0, len(required))
	for id := range required {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	products := make(map[int64]*catalog.Product, len(ids))
	for _, id := range ids {
		p, err := tx.GetProductForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		products[id] = p
	}
	for _, id := range ids {
		if p := products[id]; p.Stock < required[id] {
			return nil, insufficientStock(p.ID, p.Name, required[id], p.Stock)
		}
	}

	for _, id := range ids {
		p := products[id]
		if err := tx.UpdateProductStock(ctx, id, p.Stock-required[id]); err != nil {
			return nil, err
		}
	}

	lines := make([]SaleLine, 0, len(items))
	var total int64
	for _, it := range items {
		price := products[it.ProductID].Price
		subtotal := price * int64(it.Quantity)
		lines = append(lines, SaleLine{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: price,
			Subtotal:  subtotal,
		})
		total += subtotal
	}
	net, tax := splitTax(total)

	sale := Sale{
		UserID:    userID,
		Date:      time.Now().UTC(),
		NetAmount: net,
		TaxAmount: tax,
		Total:     total,
	}
	saleID, err := tx.InsertSale(ctx, sale)
	if err != nil {
		return nil, err
	}
	if err := tx.InsertSaleLines(ctx, saleID, lines); err != nil {
		return nil, err
	}

	sale.ID = saleID
	for i := range lines {
		lines[i].SaleID = saleID
	}
	sale.Lines = lines
	return &sale, nil
}

// afterCommit records the audit trail and hands the sale to the receipt
// notifier. Both are best-effort.
func (s *Service) afterCommit(ctx context.Context, sale *Sale) {
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  sale.UserID,
			Action:   "sales:checkout",
			Entity:   "sale",
			EntityID: fmt.Sprintf("%d", sale.ID),
			Meta: map[string]any{
				"total":      sale.Total,
				"monto_neto": sale.NetAmount,
				"monto_iva":  sale.TaxAmount,
				"lines":      len(sale.Lines),
			},
		})
	}
	if s.notifier != nil {
		_ = s.notifier.SaleRecorded(ctx, sale)
	}
}

func validateItems(items []ItemRequest) error {
	if len(items) == 0 {
		return fmt.Errorf("sales: empty item list: %w", shared.ErrInvalidArgument)
	}
	for _, it := range items {
		if it.ProductID <= 0 {
			return fmt.Errorf("sales: invalid product id %d: %w", it.ProductID, shared.ErrInvalidArgument)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("sales: quantity must be positive for product %d: %w", it.ProductID, shared.ErrInvalidArgument)
		}
	}
	return nil
}
