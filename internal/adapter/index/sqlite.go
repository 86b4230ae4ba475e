package index

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/neusearch/product-assistant/internal/domain"
	"github.com/neusearch/product-assistant/internal/port"
)

// Index is a SQLite-backed embedding index over product text. It lives in
// its own database file, so it keeps answering similarity queries when the
// relational catalog is down. Documents are replaced whole by identifier;
// ranking is brute-force cosine similarity over all stored vectors.
type Index struct {
	db       *sql.DB
	embedder port.Embedder
	path     string
}

// NewIndex opens (or creates) the index database at dataDir/index.db.
func NewIndex(dataDir string, embedder port.Embedder) (*Index, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "index.db")

	// WAL mode lets discovery reads run alongside an ingestion write.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			doc_id INTEGER PRIMARY KEY,
			seq INTEGER NOT NULL,
			search_text TEXT NOT NULL,
			metadata TEXT NOT NULL,
			vector BLOB NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating documents table: %w", err)
	}

	return &Index{db: db, embedder: embedder, path: dbPath}, nil
}

// Close closes the index database.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// Path returns the index database file path.
func (ix *Index) Path() string {
	return ix.path
}

// Upsert synthesizes an indexed document per product and replaces any
// existing entry sharing the same identifier. Documents absent from the
// input are left untouched.
func (ix *Index) Upsert(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	texts := make([]string, len(products))
	for i, p := range products {
		texts[i] = synthesizeText(p)
	}

	vectors, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed products: %w", err)
	}
	if len(vectors) != len(products) {
		return fmt.Errorf("embed products: got %d vectors for %d products", len(vectors), len(products))
	}

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var nextSeq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM documents`).Scan(&nextSeq); err != nil {
		return fmt.Errorf("next seq: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (doc_id, seq, search_text, metadata, vector)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			search_text = excluded.search_text,
			metadata = excluded.metadata,
			vector = excluded.vector
	`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i, p := range products {
		metadata, err := encodeMetadata(p)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			documentID(p), nextSeq, texts[i], metadata, encodeVector(vectors[i]),
		); err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
		nextSeq++
	}

	return tx.Commit()
}

// Query embeds the text and returns up to k products ranked by cosine
// similarity, highest first, ties broken by insertion order.
func (ix *Index) Query(ctx context.Context, text string, k int) ([]domain.Product, error) {
	if k <= 0 {
		return []domain.Product{}, nil
	}

	queryVector, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := ix.db.QueryContext(ctx, `SELECT metadata, vector FROM documents ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	defer rows.Close()

	type scored struct {
		metadata string
		score    float64
	}
	var candidates []scored

	for rows.Next() {
		var metadata string
		var blob []byte
		if err := rows.Scan(&metadata, &blob); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		candidates = append(candidates, scored{
			metadata: metadata,
			score:    cosineSimilarity(queryVector, decodeVector(blob)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	// Stable sort over the seq-ordered slice keeps earliest-inserted first
	// among equal scores.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if k > len(candidates) {
		k = len(candidates)
	}

	products := make([]domain.Product, 0, k)
	for _, c := range candidates[:k] {
		p, err := decodeMetadata(c.metadata)
		if err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
		products = append(products, p)
	}
	return products, nil
}

// Count returns the number of indexed documents.
func (ix *Index) Count(ctx context.Context) (int, error) {
	var count int
	if err := ix.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

// documentID keys a document by the product id when set, else by a hash of
// the lowercased title. Two id-less products sharing a title therefore map
// to the same document and the last write wins.
func documentID(p domain.Product) int64 {
	if p.ID != 0 {
		return p.ID
	}
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(p.Title)))
	return int64(h.Sum64())
}

// synthesizeText concatenates present product attributes into a single
// search text. Absent attributes are omitted rather than stored as empty
// placeholders that would dilute the similarity signal.
func synthesizeText(p domain.Product) string {
	var parts []string

	if p.Title != "" {
		parts = append(parts, "Title: "+p.Title)
	}
	if p.Description != "" {
		parts = append(parts, "Description: "+p.Description)
	}
	if p.Category != "" {
		parts = append(parts, "Category: "+p.Category)
	}
	if len(p.Features) > 0 {
		parts = append(parts, "Features: "+strings.Join(p.Features, ", "))
	}
	if p.Brand != "" {
		parts = append(parts, "Brand: "+p.Brand)
	}
	if len(p.AdditionalAttributes) > 0 {
		keys := make([]string, 0, len(p.AdditionalAttributes))
		for k := range p.AdditionalAttributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, k+": "+p.AdditionalAttributes[k])
		}
	}

	return strings.Join(parts, " | ")
}

// docMetadata is the denormalized copy of a product stored next to its
// vector, so a similarity hit can be turned back into a full product
// without a catalog round trip. Features and additional attributes are
// kept serialized and decoded on read.
type docMetadata struct {
	ID                   int64   `json:"id"`
	Title                string  `json:"title"`
	Price                float64 `json:"price"`
	Description          string  `json:"description"`
	ImageURL             string  `json:"image_url"`
	Category             string  `json:"category"`
	Brand                string  `json:"brand"`
	Availability         string  `json:"availability"`
	ProductURL           string  `json:"product_url"`
	Features             string  `json:"features"`
	AdditionalAttributes string  `json:"additional_attributes"`
}

func encodeMetadata(p domain.Product) (string, error) {
	features, err := json.Marshal(p.Features)
	if err != nil {
		return "", err
	}
	attrs, err := json.Marshal(p.AdditionalAttributes)
	if err != nil {
		return "", err
	}

	raw, err := json.Marshal(docMetadata{
		ID:                   p.ID,
		Title:                p.Title,
		Price:                p.Price,
		Description:          p.Description,
		ImageURL:             p.ImageURL,
		Category:             p.Category,
		Brand:                p.Brand,
		Availability:         p.Availability,
		ProductURL:           p.ProductURL,
		Features:             string(features),
		AdditionalAttributes: string(attrs),
	})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeMetadata(raw string) (domain.Product, error) {
	var m docMetadata
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return domain.Product{}, err
	}

	p := domain.Product{
		ID:           m.ID,
		Title:        m.Title,
		Price:        m.Price,
		Description:  m.Description,
		ImageURL:     m.ImageURL,
		Category:     m.Category,
		Brand:        m.Brand,
		Availability: m.Availability,
		ProductURL:   m.ProductURL,
	}
	if err := json.Unmarshal([]byte(m.Features), &p.Features); err != nil {
		return domain.Product{}, err
	}
	if err := json.Unmarshal([]byte(m.AdditionalAttributes), &p.AdditionalAttributes); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

// encodeVector packs a float32 slice as a little-endian blob.
func encodeVector(v []float32) []byte {
	blob := make([]byte, 4*len(v))
	for i, val := range v {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(val))
	}
	return blob
}

func decodeVector(blob []byte) []float32 {
	v := make([]float32, len(blob)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return v
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
