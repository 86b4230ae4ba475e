package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/neusearch/product-assistant/internal/domain"
	"github.com/neusearch/product-assistant/internal/port"
)

// PostgresStore handles all relational catalog operations.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection and returns a store instance.
// A failed ping is returned alongside the store rather than aborting:
// every read path treats store errors as empty results and resolves
// from the static catalog, so the service stays up without Postgres.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &PostgresStore{db: db}

	if err := db.PingContext(context.Background()); err != nil {
		return s, fmt.Errorf("ping database: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// EnsureSchema creates the products table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS products (
			id BIGSERIAL PRIMARY KEY,
			title VARCHAR(500) NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			description TEXT,
			features JSONB,
			image_url VARCHAR(1000),
			category VARCHAR(200),
			brand VARCHAR(200),
			availability VARCHAR(100),
			product_url VARCHAR(1000),
			additional_attributes JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const productColumns = `id, title, price, COALESCE(description, ''), COALESCE(features::text, '[]'),
	COALESCE(image_url, ''), COALESCE(category, ''), COALESCE(brand, ''), COALESCE(availability, ''),
	COALESCE(product_url, ''), COALESCE(additional_attributes::text, '{}'), created_at, updated_at`

// InsertProduct inserts a new product record and returns the stored row.
func (s *PostgresStore) InsertProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	features, err := json.Marshal(p.Features)
	if err != nil {
		return nil, fmt.Errorf("marshal features: %w", err)
	}
	attrs, err := json.Marshal(p.AdditionalAttributes)
	if err != nil {
		return nil, fmt.Errorf("marshal attributes: %w", err)
	}

	query := `INSERT INTO products (title, price, description, features, image_url, category, brand, availability, product_url, additional_attributes)
	          VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7, $8, $9, $10::jsonb)
	          RETURNING ` + productColumns

	row := s.db.QueryRowContext(ctx, query,
		p.Title, p.Price, p.Description, string(features), p.ImageURL,
		p.Category, p.Brand, p.Availability, p.ProductURL, string(attrs),
	)

	stored, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	return stored, nil
}

// GetProduct retrieves a product by ID.
func (s *PostgresStore) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// GetProductByTitle retrieves a product by its exact title. Titles are the
// de-duplication key during ingestion.
func (s *PostgresStore) GetProductByTitle(ctx context.Context, title string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE title = $1`

	p, err := scanProduct(s.db.QueryRowContext(ctx, query, title))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product by title: %w", err)
	}
	return p, nil
}

// ListProducts returns products with offset/limit pagination.
func (s *PostgresStore) ListProducts(ctx context.Context, offset, limit int) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY id OFFSET $1 LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// ListProductsByCategory returns products whose category contains the given
// name, case-insensitively.
func (s *PostgresStore) ListProductsByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	pattern := "%" + category + "%"
	query := `SELECT ` + productColumns + ` FROM products WHERE category ILIKE $1 ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, pattern)
	if err != nil {
		return nil, fmt.Errorf("list products by category: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// CountProducts returns the number of catalog rows.
func (s *PostgresStore) CountProducts(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	var features, attrs string

	err := row.Scan(
		&p.ID, &p.Title, &p.Price, &p.Description, &features,
		&p.ImageURL, &p.Category, &p.Brand, &p.Availability,
		&p.ProductURL, &attrs, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(features), &p.Features); err != nil {
		return nil, fmt.Errorf("decode features: %w", err)
	}
	if err := json.Unmarshal([]byte(attrs), &p.AdditionalAttributes); err != nil {
		return nil, fmt.Errorf("decode attributes: %w", err)
	}
	return &p, nil
}

func scanProducts(rows *sql.Rows) ([]domain.Product, error) {
	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}
