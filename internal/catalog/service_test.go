package catalog

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dulces-mila/mila-backend/internal/shared"
)

type memoryRepo struct {
	products   map[int64]Product
	categories map[int64]Category
	nextID     int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		products:   map[int64]Product{},
		categories: map[int64]Category{},
		nextID:     1,
	}
}

func (m *memoryRepo) GetProduct(_ context.Context, id int64) (*Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, shared.ErrNotFound)
	}
	return &p, nil
}

func (m *memoryRepo) ListProducts(_ context.Context, activeOnly bool) ([]Product, error) {
	var out []Product
	for _, p := range m.products {
		if activeOnly && p.Status != ProductActive {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryRepo) CreateProduct(_ context.Context, p Product) (int64, error) {
	p.ID = m.nextID
	m.nextID++
	m.products[p.ID] = p
	return p.ID, nil
}

func (m *memoryRepo) UpdateProduct(_ context.Context, p Product) error {
	if _, ok := m.products[p.ID]; !ok {
		return fmt.Errorf("product %d: %w", p.ID, shared.ErrNotFound)
	}
	m.products[p.ID] = p
	return nil
}

func (m *memoryRepo) DeleteProduct(_ context.Context, id int64) error {
	if _, ok := m.products[id]; !ok {
		return fmt.Errorf("product %d: %w", id, shared.ErrNotFound)
	}
	delete(m.products, id)
	return nil
}

func (m *memoryRepo) GetCategory(_ context.Context, id int64) (*Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, fmt.Errorf("category %d: %w", id, shared.ErrNotFound)
	}
	return &c, nil
}

func (m *memoryRepo) ListCategories(_ context.Context) ([]Category, error) {
	var out []Category
	for _, c := range m.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryRepo) CreateCategory(_ context.Context, c Category) (int64, error) {
	c.ID = m.nextID
	m.nextID++
	m.categories[c.ID] = c
	return c.ID, nil
}

func (m *memoryRepo) UpdateCategory(_ context.Context, c Category) error {
	if _, ok := m.categories[c.ID]; !ok {
		return fmt.Errorf("category %d: %w", c.ID, shared.ErrNotFound)
	}
	m.categories[c.ID] = c
	return nil
}

func (m *memoryRepo) DeleteCategory(_ context.Context, id int64) error {
	if _, ok := m.categories[id]; !ok {
		return fmt.Errorf("category %d: %w", id, shared.ErrNotFound)
	}
	delete(m.categories, id)
	return nil
}

var _ RepositoryPort = (*memoryRepo)(nil)

func newTestService(t *testing.T) (*Service, *memoryRepo, Category) {
	t.Helper()
	repo := newMemoryRepo()
	svc := NewService(repo)
	cat, err := svc.CreateCategory(context.Background(), Category{Name: "Tortas"})
	require.NoError(t, err)
	return svc, repo, *cat
}

func TestCreateProduct(t *testing.T) {
	svc, _, cat := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, Product{
		Name:       "Torta de mil hojas",
		Price:      15990,
		Stock:      4,
		CategoryID: cat.ID,
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, ProductActive, created.Status)
	require.Equal(t, int64(15990), created.Price)
}

func TestCreateProductValidation(t *testing.T) {
	svc, _, cat := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		product Product
	}{
		{"empty name", Product{Price: 100, CategoryID: cat.ID}},
		{"negative price", Product{Name: "x", Price: -1, CategoryID: cat.ID}},
		{"negative stock", Product{Name: "x", Price: 100, Stock: -1, CategoryID: cat.ID}},
		{"unknown status", Product{Name: "x", Price: 100, Status: "ARCHIVADO", CategoryID: cat.ID}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateProduct(ctx, tc.product)
			require.ErrorIs(t, err, shared.ErrInvalidArgument)
		})
	}
}

func TestCreateProductUnknownCategory(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateProduct(context.Background(), Product{Name: "x", Price: 100, CategoryID: 999})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListProductsActiveOnly(t *testing.T) {
	svc, _, cat := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, Product{Name: "activo", Price: 100, CategoryID: cat.ID})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, Product{Name: "inactivo", Price: 100, Status: ProductInactive, CategoryID: cat.ID})
	require.NoError(t, err)

	all, err := svc.ListProducts(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)

	active, err := svc.ListProducts(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "activo", active[0].Name)
}

func TestUpdateProduct(t *testing.T) {
	svc, _, cat := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, Product{Name: "brazo de reina", Price: 5990, Stock: 2, CategoryID: cat.ID})
	require.NoError(t, err)

	created.Price = 6490
	created.Stock = 8
	updated, err := svc.UpdateProduct(ctx, *created)
	require.NoError(t, err)
	require.Equal(t, int64(6490), updated.Price)
	require.Equal(t, 8, updated.Stock)
}

func TestDeleteProductNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	require.ErrorIs(t, svc.DeleteProduct(context.Background(), 42), shared.ErrNotFound)
}

func TestCategoryLifecycle(t *testing.T) {
	svc, _, cat := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, Category{})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	cat.Name = "Tortas y kuchen"
	updated, err := svc.UpdateCategory(ctx, cat)
	require.NoError(t, err)
	require.Equal(t, "Tortas y kuchen", updated.Name)

	list, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.DeleteCategory(ctx, cat.ID))
	_, err = svc.GetCategory(ctx, cat.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
