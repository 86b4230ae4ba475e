package port

import (
	"context"

	"github.com/neusearch/product-assistant/internal/domain"
)

// CatalogStore abstracts the relational product catalog. Any method may fail
// with a connectivity error at any time; callers treat errors like empty
// results and resolve from the static catalog instead.
type CatalogStore interface {
	InsertProduct(ctx context.Context, p *domain.Product) (*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	GetProductByTitle(ctx context.Context, title string) (*domain.Product, error)
	ListProducts(ctx context.Context, offset, limit int) ([]domain.Product, error)
	ListProductsByCategory(ctx context.Context, category string) ([]domain.Product, error)
	CountProducts(ctx context.Context) (int, error)
}

// ProductIndex persists indexed documents and answers nearest-neighbor
// queries by semantic similarity. Upsert replaces whole documents by
// identifier; it never prunes documents missing from the input.
type ProductIndex interface {
	Upsert(ctx context.Context, products []domain.Product) error
	Query(ctx context.Context, text string, k int) ([]domain.Product, error)
	Count(ctx context.Context) (int, error)
}

// Interpreter turns a query plus a non-empty candidate set into a
// recommendation or a clarification. It never fails: any internal error
// switches it to a deterministic fallback for that call.
type Interpreter interface {
	Interpret(ctx context.Context, query string, candidates []domain.Product) domain.Response
}
