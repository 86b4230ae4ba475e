package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/neusearch/product-assistant/internal/domain"
	"github.com/neusearch/product-assistant/internal/port"
)

const (
	candidateCount     = 8
	defaultSearchLimit = 10
)

const noResultsMessage = "I'm sorry, I couldn't find any products matching your query. " +
	"Could you try describing what you're looking for in a different way?"

var noResultsQuestions = []string{
	"What type of furniture are you looking for?",
	"What room is this for?",
}

// DiscoveryService is the end-to-end handler for a discovery query: it
// retrieves candidates from the embedding index, hands them to the
// interpreter, and assembles the response. It owns no state and never
// retries; every step either succeeds (possibly via its own fallback) or
// produces a terminal response.
type DiscoveryService struct {
	index       port.ProductIndex
	interpreter port.Interpreter
}

// NewDiscoveryService creates a discovery service.
func NewDiscoveryService(index port.ProductIndex, interpreter port.Interpreter) *DiscoveryService {
	return &DiscoveryService{index: index, interpreter: interpreter}
}

// Discover turns a free-text query into a discovery response. The only
// error it returns is port.ErrEmptyQuery; backend failures are absorbed
// into the no-results tier.
func (s *DiscoveryService) Discover(ctx context.Context, query string) (domain.Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.Response{}, port.ErrEmptyQuery
	}

	candidates, err := s.index.Query(ctx, query, candidateCount)
	if err != nil {
		slog.Warn("index query failed", "query", query, "error", err)
		candidates = nil
	}

	if len(candidates) == 0 {
		return domain.NoResults(noResultsMessage, noResultsQuestions), nil
	}

	return s.interpreter.Interpret(ctx, query, candidates), nil
}

// Search exposes the raw semantic search without interpretation.
func (s *DiscoveryService) Search(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, port.ErrEmptyQuery
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	products, err := s.index.Query(ctx, query, limit)
	if err != nil {
		slog.Warn("index search failed", "query", query, "error", err)
		return []domain.Product{}, nil
	}
	return products, nil
}
