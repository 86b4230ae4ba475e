package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/neusearch/product-assistant/internal/adapter/store"
	"github.com/neusearch/product-assistant/internal/domain"
	"github.com/neusearch/product-assistant/internal/port"
)

// CatalogService resolves catalog reads. It prefers the relational store;
// when the store errors or has no rows it serves the static bundled
// catalog with the same pagination and filter semantics, so callers
// cannot tell the source apart by response shape.
type CatalogService struct {
	store    port.CatalogStore
	fallback *store.StaticCatalog
}

// NewCatalogService creates a catalog resolution service.
func NewCatalogService(catalogStore port.CatalogStore, fallback *store.StaticCatalog) *CatalogService {
	return &CatalogService{store: catalogStore, fallback: fallback}
}

// List returns a page of products.
func (s *CatalogService) List(ctx context.Context, offset, limit int) []domain.Product {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 100
	}

	products, err := s.store.ListProducts(ctx, offset, limit)
	if err != nil {
		slog.Warn("catalog store list failed, serving static catalog", "error", err)
	}
	if len(products) > 0 {
		return products
	}

	return paginate(s.fallback.Products(), offset, limit)
}

// Get returns a product by id, falling back to the static catalog.
func (s *CatalogService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.store.GetProduct(ctx, id)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, port.ErrProductNotFound) {
		slog.Warn("catalog store get failed, serving static catalog", "id", id, "error", err)
	}

	for _, fp := range s.fallback.Products() {
		if fp.ID == id {
			return &fp, nil
		}
	}
	return nil, port.ErrProductNotFound
}

// ListByCategory returns products whose category contains the given name,
// case-insensitively.
func (s *CatalogService) ListByCategory(ctx context.Context, category string) []domain.Product {
	products, err := s.store.ListProductsByCategory(ctx, category)
	if err != nil {
		slog.Warn("catalog store category list failed, serving static catalog", "category", category, "error", err)
	}
	if len(products) > 0 {
		return products
	}

	needle := strings.ToLower(category)
	var matched []domain.Product
	for _, p := range s.fallback.Products() {
		if strings.Contains(strings.ToLower(p.Category), needle) {
			matched = append(matched, p)
		}
	}
	if matched == nil {
		matched = []domain.Product{}
	}
	return matched
}

func paginate(products []domain.Product, offset, limit int) []domain.Product {
	if offset >= len(products) {
		return []domain.Product{}
	}
	end := offset + limit
	if end > len(products) {
		end = len(products)
	}
	return products[offset:end]
}
