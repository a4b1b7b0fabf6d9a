// Package catalog imports products from gzipped JSON-lines files stored
// locally or in S3.
package catalog

import (
	"context"

	"coffee-on/internal/model"

	"github.com/shopspring/decimal"
)

// Entry is one product line of a catalog file.
type Entry struct {
	Name        string          `json:"nome"`
	Description string          `json:"descricao"`
	Price       decimal.Decimal `json:"preco"`
	Stock       int             `json:"estoque"`
	Active      *bool           `json:"ativo"`
	Category    string          `json:"categoria"`
	Slug        string          `json:"slug"`
	Image       *string         `json:"imagem"`
}

// Batch is the parsed content of one catalog file.
type Batch struct {
	Source  string
	Entries []Entry
	Skipped int
}

// Loader reads a catalog file.
type Loader interface {
	// Load reads a gzipped catalog file and returns its entries.
	Load(ctx context.Context, path string) (*Batch, error)
}

// Store persists imported products.
type Store interface {
	UpsertBySlug(ctx context.Context, product *model.Product) (bool, error)
}
