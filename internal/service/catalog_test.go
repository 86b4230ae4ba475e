package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neusearch/product-assistant/internal/adapter/store"
	"github.com/neusearch/product-assistant/internal/domain"
	"github.com/neusearch/product-assistant/internal/port"
)

// fakeCatalogStore is a CatalogStore test double.
type fakeCatalogStore struct {
	products []domain.Product
	err      error
	inserted []domain.Product
	nextID   int64
}

func (f *fakeCatalogStore) InsertProduct(_ context.Context, p *domain.Product) (*domain.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	stored := *p
	stored.ID = f.nextID
	f.inserted = append(f.inserted, stored)
	f.products = append(f.products, stored)
	return &stored, nil
}

func (f *fakeCatalogStore) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, port.ErrProductNotFound
}

func (f *fakeCatalogStore) GetProductByTitle(_ context.Context, title string) (*domain.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.products {
		if p.Title == title {
			return &p, nil
		}
	}
	return nil, port.ErrProductNotFound
}

func (f *fakeCatalogStore) ListProducts(_ context.Context, offset, limit int) ([]domain.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	if offset >= len(f.products) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.products) {
		end = len(f.products)
	}
	return f.products[offset:end], nil
}

func (f *fakeCatalogStore) ListProductsByCategory(_ context.Context, category string) ([]domain.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Product
	for _, p := range f.products {
		if strings.Contains(strings.ToLower(p.Category), strings.ToLower(category)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalogStore) CountProducts(_ context.Context) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return len(f.products), nil
}

func staticCatalog(t *testing.T) *store.StaticCatalog {
	t.Helper()
	catalog, err := store.LoadStaticCatalog()
	require.NoError(t, err)
	return catalog
}

func TestCatalogList_PrefersStore(t *testing.T) {
	fake := &fakeCatalogStore{products: furnitureCandidates()[:2]}
	svc := NewCatalogService(fake, staticCatalog(t))

	products := svc.List(context.Background(), 0, 100)
	assert.Equal(t, fake.products, products)
}

func TestCatalogList_StoreErrorServesFallback(t *testing.T) {
	svc := NewCatalogService(&fakeCatalogStore{err: errors.New("connection refused")}, staticCatalog(t))

	products := svc.List(context.Background(), 0, 100)
	require.Len(t, products, 5)
	assert.Equal(t, "Valencia Fabric Sofa 3 Seater", products[0].Title)
}

func TestCatalogList_EmptyStoreServesFallback(t *testing.T) {
	svc := NewCatalogService(&fakeCatalogStore{}, staticCatalog(t))

	products := svc.List(context.Background(), 0, 100)
	assert.Len(t, products, 5)
}

func TestCatalogList_FallbackPagination(t *testing.T) {
	svc := NewCatalogService(&fakeCatalogStore{err: errors.New("down")}, staticCatalog(t))

	page := svc.List(context.Background(), 1, 2)
	require.Len(t, page, 2)
	assert.Equal(t, int64(2), page[0].ID)
	assert.Equal(t, int64(3), page[1].ID)

	assert.Empty(t, svc.List(context.Background(), 10, 2))
}

func TestCatalogGet_FallbackByID(t *testing.T) {
	svc := NewCatalogService(&fakeCatalogStore{err: errors.New("down")}, staticCatalog(t))

	p, err := svc.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Archer Queen Bed with Storage", p.Title)

	_, err = svc.Get(context.Background(), 42)
	assert.ErrorIs(t, err, port.ErrProductNotFound)
}

func TestCatalogGet_StoreMissFallsBack(t *testing.T) {
	svc := NewCatalogService(&fakeCatalogStore{}, staticCatalog(t))

	p, err := svc.Get(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Wardrobe 3 Door with Mirror", p.Title)
}

func TestCatalogByCategory_FallbackFilter(t *testing.T) {
	svc := NewCatalogService(&fakeCatalogStore{err: errors.New("down")}, staticCatalog(t))

	bedroom := svc.ListByCategory(context.Background(), "BEDROOM")
	require.Len(t, bedroom, 2)
	assert.Equal(t, "Archer Queen Bed with Storage", bedroom[0].Title)
	assert.Equal(t, "Wardrobe 3 Door with Mirror", bedroom[1].Title)

	assert.Empty(t, svc.ListByCategory(context.Background(), "garage"))
}

func TestCatalogByCategory_Deterministic(t *testing.T) {
	svc := NewCatalogService(&fakeCatalogStore{err: errors.New("down")}, staticCatalog(t))

	first := svc.ListByCategory(context.Background(), "bedroom")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, svc.ListByCategory(context.Background(), "bedroom"))
	}
}
