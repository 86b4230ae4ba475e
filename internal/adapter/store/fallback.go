package store

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/neusearch/product-assistant/internal/domain"
)

//go:embed data/products.json
var fallbackFS embed.FS

// StaticCatalog is the immutable bundled product set served when the
// relational catalog is unreachable or empty. Loaded once at startup;
// the same input always yields the same slice.
type StaticCatalog struct {
	products []domain.Product
}

// LoadStaticCatalog parses the bundled product data.
func LoadStaticCatalog() (*StaticCatalog, error) {
	raw, err := fallbackFS.ReadFile("data/products.json")
	if err != nil {
		return nil, fmt.Errorf("read fallback catalog: %w", err)
	}

	var products []domain.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("decode fallback catalog: %w", err)
	}

	return &StaticCatalog{products: products}, nil
}

// Products returns a copy of the full fallback set so callers cannot
// mutate the bundled records.
func (c *StaticCatalog) Products() []domain.Product {
	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out
}

// Len returns the number of bundled products.
func (c *StaticCatalog) Len() int {
	return len(c.products)
}
