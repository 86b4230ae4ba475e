package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/neusearch/product-assistant/internal/domain"
	"github.com/neusearch/product-assistant/internal/port"
)

// IngestResult reports what a single ingestion run did.
type IngestResult struct {
	Stored  int `json:"stored"`
	Indexed int `json:"indexed"`
}

// CatalogStatus reports data availability across both backing stores.
type CatalogStatus struct {
	DatabaseProducts int    `json:"database_products"`
	VectorProducts   int    `json:"vector_products"`
	Status           string `json:"status"`
}

// IngestService populates the catalog store and the embedding index from a
// product batch. Titles are the de-duplication key: a product whose title
// already exists in the catalog adopts the stored id instead of inserting a
// second row. Catalog-store failures are absorbed per product so the index
// still gets the batch when the database is down.
type IngestService struct {
	store port.CatalogStore
	index port.ProductIndex
}

// NewIngestService creates an ingestion service.
func NewIngestService(catalogStore port.CatalogStore, index port.ProductIndex) *IngestService {
	return &IngestService{store: catalogStore, index: index}
}

// Ingest stores and indexes up to maxProducts of the given batch.
func (s *IngestService) Ingest(ctx context.Context, products []domain.Product, maxProducts int) (IngestResult, error) {
	if maxProducts > 0 && len(products) > maxProducts {
		products = products[:maxProducts]
	}
	if len(products) == 0 {
		return IngestResult{}, nil
	}

	result := IngestResult{}
	batch := make([]domain.Product, 0, len(products))

	for _, p := range products {
		existing, err := s.store.GetProductByTitle(ctx, p.Title)
		switch {
		case err == nil:
			p.ID = existing.ID
		case errors.Is(err, port.ErrProductNotFound):
			stored, insertErr := s.store.InsertProduct(ctx, &p)
			if insertErr != nil {
				slog.Warn("catalog insert failed, indexing anyway", "title", p.Title, "error", insertErr)
				break
			}
			p.ID = stored.ID
			result.Stored++
		default:
			slog.Warn("catalog lookup failed, indexing anyway", "title", p.Title, "error", err)
		}
		batch = append(batch, p)
	}

	if err := s.index.Upsert(ctx, batch); err != nil {
		return result, fmt.Errorf("index products: %w", err)
	}
	result.Indexed = len(batch)

	slog.Info("ingestion complete", "stored", result.Stored, "indexed", result.Indexed)
	return result, nil
}

// Status reports how much data each backing store holds. Store errors are
// reported as zero counts rather than failures.
func (s *IngestService) Status(ctx context.Context) CatalogStatus {
	dbCount, err := s.store.CountProducts(ctx)
	if err != nil {
		slog.Warn("catalog count failed", "error", err)
		dbCount = 0
	}

	indexCount, err := s.index.Count(ctx)
	if err != nil {
		slog.Warn("index count failed", "error", err)
		indexCount = 0
	}

	status := "no_data"
	if dbCount > 0 || indexCount > 0 {
		status = "ready"
	}

	return CatalogStatus{
		DatabaseProducts: dbCount,
		VectorProducts:   indexCount,
		Status:           status,
	}
}
