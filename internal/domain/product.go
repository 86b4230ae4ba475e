package domain

import "time"

// Product is a canonical catalog entity. Title and price are required;
// everything else came off the product page and may be absent.
type Product struct {
	ID                   int64             `json:"id"                    db:"id"`
	Title                string            `json:"title"                 db:"title"`
	Price                float64           `json:"price"                 db:"price"`
	Description          string            `json:"description"           db:"description"`
	Features             []string          `json:"features"              db:"features"`
	ImageURL             string            `json:"image_url"             db:"image_url"`
	Category             string            `json:"category"              db:"category"`
	Brand                string            `json:"brand"                 db:"brand"`
	Availability         string            `json:"availability"          db:"availability"`
	ProductURL           string            `json:"product_url"           db:"product_url"`
	AdditionalAttributes map[string]string `json:"additional_attributes" db:"additional_attributes"`
	CreatedAt            time.Time         `json:"created_at"            db:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"            db:"updated_at"`
}
