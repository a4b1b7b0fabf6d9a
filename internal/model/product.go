package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategorySubscription marks products that unlock the subscription discount.
const CategorySubscription = "ASSINATURA"

// Product represents an item in the catalogue.
type Product struct {
	ID          int64           `json:"id" db:"id"`
	Name        string          `json:"nome" db:"nome"`
	Description string          `json:"descricao" db:"descricao"`
	Price       decimal.Decimal `json:"preco" db:"preco"`
	Stock       int             `json:"estoque" db:"estoque"`
	Active      bool            `json:"ativo" db:"ativo"`
	Category    string          `json:"categoria" db:"categoria"`
	Slug        string          `json:"slug" db:"slug"`
	Image       *string         `json:"imagem" db:"imagem"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// IsSubscription reports whether buying the product unlocks the subscription discount.
func (p *Product) IsSubscription() bool {
	return p.Category == CategorySubscription
}

// CreateProductRequest represents the payload for creating a product.
type CreateProductRequest struct {
	Name        string           `json:"nome"`
	Description string           `json:"descricao"`
	Price       *decimal.Decimal `json:"preco"`
	Stock       int              `json:"estoque"`
	Active      *bool            `json:"ativo,omitempty"`
	Category    string           `json:"categoria"`
	Image       *string          `json:"imagem,omitempty"`
}

// ProductPatch is a partial update of a product; nil fields are left untouched.
type ProductPatch struct {
	Name        *string          `json:"nome,omitempty"`
	Description *string          `json:"descricao,omitempty"`
	Price       *decimal.Decimal `json:"preco,omitempty"`
	Stock       *int             `json:"estoque,omitempty"`
	Active      *bool            `json:"ativo,omitempty"`
	Category    *string          `json:"categoria,omitempty"`
	Image       *string          `json:"imagem,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil && p.Stock == nil &&
		p.Active == nil && p.Category == nil && p.Image == nil
}

// CreateProductResponse is returned after a product is created.
type CreateProductResponse struct {
	ID      int64  `json:"id"`
	Slug    string `json:"slug"`
	Message string `json:"message"`
}
