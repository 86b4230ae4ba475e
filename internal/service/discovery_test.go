package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neusearch/product-assistant/internal/domain"
	"github.com/neusearch/product-assistant/internal/port"
)

// fakeIndex is a ProductIndex test double.
type fakeIndex struct {
	products []domain.Product
	err      error
	gotText  string
	gotK     int
}

func (f *fakeIndex) Upsert(_ context.Context, _ []domain.Product) error { return f.err }

func (f *fakeIndex) Query(_ context.Context, text string, k int) ([]domain.Product, error) {
	f.gotText = text
	f.gotK = k
	if f.err != nil {
		return nil, f.err
	}
	if k > len(f.products) {
		k = len(f.products)
	}
	return f.products[:k], nil
}

func (f *fakeIndex) Count(_ context.Context) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return len(f.products), nil
}

// fakeInterpreter records its input and returns a canned response.
type fakeInterpreter struct {
	resp          domain.Response
	gotQuery      string
	gotCandidates []domain.Product
	calls         int
}

func (f *fakeInterpreter) Interpret(_ context.Context, query string, candidates []domain.Product) domain.Response {
	f.calls++
	f.gotQuery = query
	f.gotCandidates = candidates
	return f.resp
}

// fakeChatModel is a ChatModel test double.
type fakeChatModel struct {
	reply string
	err   error
}

func (f *fakeChatModel) ModelName() string { return "fake-model" }

func (f *fakeChatModel) Chat(_ context.Context, _ string, _ string) (string, error) {
	return f.reply, f.err
}

func furnitureCandidates() []domain.Product {
	return []domain.Product{
		{ID: 1, Title: "Valencia Fabric Sofa 3 Seater", Category: "Living Room", Price: 8999},
		{ID: 2, Title: "Archer Queen Bed with Storage", Category: "Bedroom", Price: 12999},
		{ID: 3, Title: "Dining Table 4 Seater with Chairs", Category: "Dining Room", Price: 15999},
		{ID: 4, Title: "Study Table with Chair", Category: "Study Room", Price: 6999},
		{ID: 5, Title: "Wardrobe 3 Door with Mirror", Category: "Bedroom", Price: 18999},
	}
}

// assertOneVariant checks that exactly the fields of the declared variant
// are populated.
func assertOneVariant(t *testing.T, resp domain.Response) {
	t.Helper()
	switch resp.Type {
	case domain.ResponseRecommendation:
		assert.Empty(t, resp.ClarifyingQuestions)
	case domain.ResponseClarification:
		assert.Empty(t, resp.Products)
		assert.NotEmpty(t, resp.ClarifyingQuestions)
	case domain.ResponseNoResults:
		assert.Empty(t, resp.Products)
	default:
		t.Fatalf("unknown response type %q", resp.Type)
	}
}

func TestDiscover_EmptyQuery(t *testing.T) {
	svc := NewDiscoveryService(&fakeIndex{}, &fakeInterpreter{})

	_, err := svc.Discover(context.Background(), "")
	assert.ErrorIs(t, err, port.ErrEmptyQuery)
}

func TestDiscover_WhitespaceQuery(t *testing.T) {
	interp := &fakeInterpreter{}
	svc := NewDiscoveryService(&fakeIndex{products: furnitureCandidates()}, interp)

	_, err := svc.Discover(context.Background(), "   ")
	assert.ErrorIs(t, err, port.ErrEmptyQuery)
	assert.Zero(t, interp.calls)
}

func TestDiscover_EmptyIndexReturnsNoResults(t *testing.T) {
	interp := &fakeInterpreter{}
	svc := NewDiscoveryService(&fakeIndex{}, interp)

	resp, err := svc.Discover(context.Background(), "a cozy sofa")
	require.NoError(t, err)

	assert.Equal(t, domain.ResponseNoResults, resp.Type)
	assert.NotEmpty(t, resp.Message)
	assert.Empty(t, resp.Products)
	assert.Len(t, resp.ClarifyingQuestions, 2)
	assert.Zero(t, interp.calls, "interpreter must not run on the no-results branch")
	assertOneVariant(t, resp)
}

func TestDiscover_IndexErrorAbsorbedAsNoResults(t *testing.T) {
	svc := NewDiscoveryService(&fakeIndex{err: errors.New("index corrupted")}, &fakeInterpreter{})

	resp, err := svc.Discover(context.Background(), "bookshelf")
	require.NoError(t, err, "backend failures must never reach the caller")
	assert.Equal(t, domain.ResponseNoResults, resp.Type)
	assert.Len(t, resp.ClarifyingQuestions, 2)
}

func TestDiscover_PassesCandidatesToInterpreter(t *testing.T) {
	candidates := furnitureCandidates()
	idx := &fakeIndex{products: candidates}
	interp := &fakeInterpreter{resp: domain.Recommendation("here you go", candidates[:2])}
	svc := NewDiscoveryService(idx, interp)

	resp, err := svc.Discover(context.Background(), "  bedroom furniture  ")
	require.NoError(t, err)

	assert.Equal(t, "bedroom furniture", interp.gotQuery, "query is trimmed before use")
	assert.Equal(t, candidates, interp.gotCandidates)
	assert.Equal(t, 8, idx.gotK)
	assert.Equal(t, domain.ResponseRecommendation, resp.Type)
	assert.Equal(t, "here you go", resp.Message)
	assert.Equal(t, candidates[:2], resp.Products)
	assertOneVariant(t, resp)
}

func TestDiscover_InterpreterResultUnmodified(t *testing.T) {
	clarification := domain.Clarification("which room?", []string{"What room is this for?"})
	svc := NewDiscoveryService(
		&fakeIndex{products: furnitureCandidates()},
		&fakeInterpreter{resp: clarification},
	)

	resp, err := svc.Discover(context.Background(), "something nice")
	require.NoError(t, err)
	assert.Equal(t, clarification, resp)
	assertOneVariant(t, resp)
}

func TestSearch_DefaultLimit(t *testing.T) {
	idx := &fakeIndex{products: furnitureCandidates()}
	svc := NewDiscoveryService(idx, &fakeInterpreter{})

	products, err := svc.Search(context.Background(), "table", 0)
	require.NoError(t, err)
	assert.Equal(t, 10, idx.gotK)
	assert.Len(t, products, 5)
}

func TestSearch_EmptyQuery(t *testing.T) {
	svc := NewDiscoveryService(&fakeIndex{}, &fakeInterpreter{})

	_, err := svc.Search(context.Background(), " ", 5)
	assert.ErrorIs(t, err, port.ErrEmptyQuery)
}

func TestSearch_IndexErrorReturnsEmpty(t *testing.T) {
	svc := NewDiscoveryService(&fakeIndex{err: errors.New("boom")}, &fakeInterpreter{})

	products, err := svc.Search(context.Background(), "table", 5)
	require.NoError(t, err)
	assert.Empty(t, products)
}
