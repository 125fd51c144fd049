package sales

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dulces-mila/mila-backend/internal/catalog"
	"github.com/dulces-mila/mila-backend/internal/shared"
	"github.com/dulces-mila/mila-backend/internal/users"
)

// memoryRepo emulates the transactional repository: every WithTx call works
// on a staged copy of the product table and commits it only when the
// callback succeeds, and transactions are serialized like row locks would.
type memoryRepo struct {
	mu       sync.Mutex
	products map[int64]*catalog.Product
	sales    []Sale
	carts    map[int64][]ItemRequest
	nextID   int64

	failNext error
}

type memoryTx struct {
	repo    *memoryRepo
	staged  map[int64]*catalog.Product
	sales   []Sale
	cleared []int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		products: make(map[int64]*catalog.Product),
		carts:    make(map[int64][]ItemRequest),
	}
}

func (r *memoryRepo) addProduct(id int64, name string, price int64, stock int) {
	r.products[id] = &catalog.Product{ID: id, Name: name, Price: price, Stock: stock, Status: catalog.ProductActive}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}

	staged := make(map[int64]*catalog.Product, len(r.products))
	for id, p := range r.products {
		cp := *p
		staged[id] = &cp
	}
	tx := &memoryTx{repo: r, staged: staged}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.products = staged
	r.sales = append(r.sales, tx.sales...)
	for _, userID := range tx.cleared {
		delete(r.carts, userID)
	}
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (*Sale, error) {
	for i := range r.sales {
		if r.sales[i].ID == id {
			return &r.sales[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) ListByUser(ctx context.Context, userID int64) ([]Sale, error) {
	var result []Sale
	for i := len(r.sales) - 1; i >= 0; i-- {
		if r.sales[i].UserID == userID {
			result = append(result, r.sales[i])
		}
	}
	return result, nil
}

func (tx *memoryTx) GetProductForUpdate(ctx context.Context, id int64) (*catalog.Product, error) {
	p, ok := tx.staged[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (tx *memoryTx) UpdateProductStock(ctx context.Context, id int64, stock int) error {
	p, ok := tx.staged[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.Stock = stock
	return nil
}

func (tx *memoryTx) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	tx.repo.nextID++
	sale.ID = tx.repo.nextID
	tx.sales = append(tx.sales, sale)
	return sale.ID, nil
}

func (tx *memoryTx) InsertSaleLines(ctx context.Context, saleID int64, lines []SaleLine) error {
	for i := range tx.sales {
		if tx.sales[i].ID == saleID {
			copied := make([]SaleLine, len(lines))
			copy(copied, lines)
			for j := range copied {
				copied[j].SaleID = saleID
			}
			tx.sales[i].Lines = copied
		}
	}
	return nil
}

func (tx *memoryTx) GetCartItems(ctx context.Context, userID int64) ([]ItemRequest, error) {
	return tx.repo.carts[userID], nil
}

func (tx *memoryTx) ClearCart(ctx context.Context, userID int64) error {
	tx.cleared = append(tx.cleared, userID)
	return nil
}

type memoryUserDir struct {
	known map[int64]bool
}

func (d *memoryUserDir) Get(ctx context.Context, id int64) (*users.User, error) {
	if !d.known[id] {
		return nil, shared.ErrNotFound
	}
	return &users.User{ID: id, Status: users.StatusActive}, nil
}

func newTestService(repo *memoryRepo) *Service {
	return NewService(repo, &memoryUserDir{known: map[int64]bool{1: true, 2: true}}, nil, nil)
}

func TestRealizeSaleDecrementsStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(10, "Alfajor", 1000, 10)
	svc := newTestService(repo)

	sale, err := svc.RealizeSale(context.Background(), 1, []ItemRequest{{ProductID: 10, Quantity: 3}})
	require.NoError(t, err)

	require.Equal(t, 7, repo.products[10].Stock)
	require.Len(t, sale.Lines, 1)
	require.Equal(t, int64(1000), sale.Lines[0].UnitPrice)
	require.Equal(t, int64(3000), sale.Lines[0].Subtotal)
	require.Equal(t, int64(3000), sale.Total)
	require.Equal(t, sale.Total, sale.NetAmount+sale.TaxAmount)
	require.WithinDuration(t, time.Now().UTC(), sale.Date, time.Minute)
}

func TestRealizeSaleAtomicOnInsufficientStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Brazo de reina", 2000, 3)
	repo.addProduct(2, "Torta curicana", 5000, 0)
	svc := newTestService(repo)

	_, err := svc.RealizeSale(context.Background(), 1, []ItemRequest{
		{ProductID: 1, Quantity: 1},
		{ProductID: 2, Quantity: 1},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Contains(t, err.Error(), "Torta curicana")

	// No stock anywhere in the batch may change.
	require.Equal(t, 3, repo.products[1].Stock)
	require.Equal(t, 0, repo.products[2].Stock)
	require.Empty(t, repo.sales)
}

func TestRealizeSaleUnknownProductAborts(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Chilenito", 800, 5)
	svc := newTestService(repo)

	_, err := svc.RealizeSale(context.Background(), 1, []ItemRequest{
		{ProductID: 1, Quantity: 1},
		{ProductID: 99, Quantity: 1},
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Equal(t, 5, repo.products[1].Stock)
}

func TestRealizeSaleUnknownUser(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Chilenito", 800, 5)
	svc := newTestService(repo)

	_, err := svc.RealizeSale(context.Background(), 42, []ItemRequest{{ProductID: 1, Quantity: 1}})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRealizeSaleInvalidArguments(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Chilenito", 800, 5)
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.RealizeSale(ctx, 1, nil)
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = svc.RealizeSale(ctx, 1, []ItemRequest{{ProductID: 1, Quantity: 0}})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = svc.RealizeSale(ctx, 1, []ItemRequest{{ProductID: 1, Quantity: -2}})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)
	require.Equal(t, 5, repo.products[1].Stock)
}

func TestTaxSplit(t *testing.T) {
	// 1190 / 1.19 = 1000 exactly.
	net, tax := splitTax(1190)
	require.Equal(t, int64(1000), net)
	require.Equal(t, int64(190), tax)

	// 1000 / 1.19 = 840.336..., rounds to 840.
	net, tax = splitTax(1000)
	require.Equal(t, int64(840), net)
	require.Equal(t, int64(160), tax)

	net, tax = splitTax(0)
	require.Zero(t, net)
	require.Zero(t, tax)
}

func TestTaxSplitEndToEnd(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Pie de limon", 1190, 2)
	svc := newTestService(repo)

	sale, err := svc.RealizeSale(context.Background(), 1, []ItemRequest{{ProductID: 1, Quantity: 1}})
	require.NoError(t, err)
	require.Equal(t, int64(1190), sale.Total)
	require.Equal(t, int64(1000), sale.NetAmount)
	require.Equal(t, int64(190), sale.TaxAmount)
}

func TestSaleSnapshotImmuneToRepricing(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Berlin", 1000, 10)
	svc := newTestService(repo)
	ctx := context.Background()

	sale, err := svc.RealizeSale(ctx, 1, []ItemRequest{{ProductID: 1, Quantity: 2}})
	require.NoError(t, err)

	repo.products[1].Price = 2000

	stored, err := svc.Get(ctx, sale.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1000), stored.Lines[0].UnitPrice)
	require.Equal(t, int64(2000), stored.Lines[0].Subtotal)
}

func TestDuplicateProductIDsValidatedAgainstSum(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Calzon roto", 500, 3)
	svc := newTestService(repo)

	// 2 + 2 > 3: must fail even though each line alone would fit.
	_, err := svc.RealizeSale(context.Background(), 1, []ItemRequest{
		{ProductID: 1, Quantity: 2},
		{ProductID: 1, Quantity: 2},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Equal(t, 3, repo.products[1].Stock)

	// 1 + 2 = 3 fits and produces one line per requested item.
	sale, err := svc.RealizeSale(context.Background(), 1, []ItemRequest{
		{ProductID: 1, Quantity: 1},
		{ProductID: 1, Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, sale.Lines, 2)
	require.Equal(t, 0, repo.products[1].Stock)
}

func TestRetryAfterConflictSucceeds(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Kuchen", 3000, 5)
	svc := newTestService(repo)
	ctx := context.Background()

	repo.failNext = shared.ErrTxConflict
	_, err := svc.RealizeSale(ctx, 1, []ItemRequest{{ProductID: 1, Quantity: 2}})
	require.ErrorIs(t, err, shared.ErrTxConflict)
	require.Equal(t, 5, repo.products[1].Stock)

	// Retrying from scratch with unchanged stock yields the same result a
	// first-attempt success would have.
	sale, err := svc.RealizeSale(ctx, 1, []ItemRequest{{ProductID: 1, Quantity: 2}})
	require.NoError(t, err)
	require.Equal(t, int64(6000), sale.Total)
	require.Equal(t, 3, repo.products[1].Stock)
	require.Len(t, repo.sales, 1)
}

func TestConcurrentExhaustionSellsLastUnitOnce(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Ultima torta", 10000, 1)
	svc := newTestService(repo)

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := svc.RealizeSale(context.Background(), 1, []ItemRequest{{ProductID: 1, Quantity: 1}})
			results <- err
		}()
	}

	var failures, successes int
	for i := 0; i < 2; i++ {
		if err := <-results; err != nil {
			require.ErrorIs(t, err, ErrInsufficientStock)
			failures++
		} else {
			successes++
		}
	}
	require.Equal(t, 1, successes)
	require.Equal(t, 1, failures)
	require.Equal(t, 0, repo.products[1].Stock)
	require.Len(t, repo.sales, 1)
}

func TestCheckoutCartClearsCartAtomically(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Empolvado", 700, 10)
	repo.addProduct(2, "Merengue", 900, 4)
	repo.carts[1] = []ItemRequest{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}}
	svc := newTestService(repo)

	sale, err := svc.CheckoutCart(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int64(700*2+900), sale.Total)
	require.Equal(t, 8, repo.products[1].Stock)
	require.Equal(t, 3, repo.products[2].Stock)
	require.Empty(t, repo.carts[1])
}

func TestCheckoutCartEmptyCartRejected(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	_, err := svc.CheckoutCart(context.Background(), 1)
	require.ErrorIs(t, err, shared.ErrInvalidArgument)
}

func TestCheckoutCartKeepsCartOnFailure(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Alfajor", 1000, 1)
	repo.carts[1] = []ItemRequest{{ProductID: 1, Quantity: 5}}
	svc := newTestService(repo)

	_, err := svc.CheckoutCart(context.Background(), 1)
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Equal(t, 1, repo.products[1].Stock)
	require.Len(t, repo.carts[1], 1)
}

func TestListForUserNewestFirst(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Alfajor", 1000, 10)
	svc := newTestService(repo)
	ctx := context.Background()

	first, err := svc.RealizeSale(ctx, 1, []ItemRequest{{ProductID: 1, Quantity: 1}})
	require.NoError(t, err)
	second, err := svc.RealizeSale(ctx, 1, []ItemRequest{{ProductID: 1, Quantity: 2}})
	require.NoError(t, err)
	_, err = svc.RealizeSale(ctx, 2, []ItemRequest{{ProductID: 1, Quantity: 1}})
	require.NoError(t, err)

	sales, err := svc.ListForUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	require.Equal(t, second.ID, sales[0].ID)
	require.Equal(t, first.ID, sales[1].ID)
}
