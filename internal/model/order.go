package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusCreated   OrderStatus = "CRIADO"
	StatusPaid      OrderStatus = "PAGO"
	StatusShipped   OrderStatus = "ENVIADO"
	StatusCanceled  OrderStatus = "CANCELADO"
	StatusCompleted OrderStatus = "CONCLUIDO"
)

// Valid reports whether s is one of the five known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusCreated, StatusPaid, StatusShipped, StatusCanceled, StatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether no further status change is allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == StatusCanceled || s == StatusCompleted
}

// Order represents a purchase placed by an account.
type Order struct {
	ID                   int64           `json:"id" db:"id"`
	UserID               uuid.UUID       `json:"usuario_id" db:"usuario_id"`
	Status               OrderStatus     `json:"status" db:"status"`
	Obs                  string          `json:"obs" db:"obs"`
	Address              string          `json:"endereco" db:"endereco"`
	Feedback             *string         `json:"feedback" db:"feedback"`
	GrossTotal           decimal.Decimal `json:"total_bruto" db:"total_bruto"`
	DiscountTotal        decimal.Decimal `json:"total_desconto" db:"total_desconto"`
	NetTotal             decimal.Decimal `json:"total_final" db:"total_final"`
	SubscriptionDiscount decimal.Decimal `json:"desconto_assinatura" db:"desconto_assinatura"`
	CashbackDiscount     decimal.Decimal `json:"desconto_cashback" db:"desconto_cashback"`
	CashbackCredited     bool            `json:"-" db:"cashback_creditado"`
	ItemCount            int             `json:"total_itens" db:"total_itens"`
	CreatedAt            time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at" db:"updated_at"`
}

// OrderItem represents a line item in an order.
type OrderItem struct {
	ID           int64           `json:"id" db:"id"`
	OrderID      int64           `json:"pedido_id" db:"pedido_id"`
	ProductID    int64           `json:"produto_id" db:"produto_id"`
	Quantity     int             `json:"quantidade" db:"quantidade"`
	UnitPrice    decimal.Decimal `json:"preco_unitario" db:"preco_unitario"`
	Discount     decimal.Decimal `json:"desconto" db:"desconto"`
	Subtotal     decimal.Decimal `json:"subtotal" db:"subtotal"`
	ProductName  string          `json:"nome,omitempty" db:"nome"`
	ProductImage *string         `json:"imagem,omitempty" db:"imagem"`
}

// OrderDetail is an order together with its line items.
type OrderDetail struct {
	Order
	Items []OrderItem `json:"itens"`
}

// OrderRequest represents the request payload for placing an order.
type OrderRequest struct {
	Items   []OrderItemRequest `json:"itens"`
	Obs     string             `json:"obs"`
	Address string             `json:"endereco"`
}

// UnmarshalJSON leaves Items nil when "itens" is not a well-formed list, so the
// caller reports an empty order instead of a decoding failure.
func (r *OrderRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Items   json.RawMessage `json:"itens"`
		Obs     string          `json:"obs"`
		Address string          `json:"endereco"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Obs = raw.Obs
	r.Address = raw.Address
	r.Items = nil
	if len(raw.Items) > 0 {
		var items []OrderItemRequest
		if err := json.Unmarshal(raw.Items, &items); err == nil {
			r.Items = items
		}
	}
	return nil
}

// OrderItemRequest represents a single item in an order request.
type OrderItemRequest struct {
	ProductID int64            `json:"produtoId"`
	Quantity  int              `json:"quantidade"`
	Price     *decimal.Decimal `json:"preco"`
}

// PlaceOrderResponse is returned after an order is placed.
type PlaceOrderResponse struct {
	Message              string          `json:"message"`
	OrderID              int64           `json:"pedidoId"`
	GrossTotal           decimal.Decimal `json:"totalBruto"`
	SubscriptionDiscount decimal.Decimal `json:"descontoAssinatura"`
	CashbackDiscount     decimal.Decimal `json:"descontoCashback"`
	NetTotal             decimal.Decimal `json:"totalFinal"`
}

// OrderPatch is the administrative partial update of an order. Nil fields are
// left untouched; an empty status is treated as absent.
type OrderPatch struct {
	Status   *OrderStatus `json:"status,omitempty"`
	Obs      *string      `json:"obs,omitempty"`
	Feedback *string      `json:"feedback,omitempty"`
}

// Normalize drops an empty status so it does not count as a change.
func (p OrderPatch) Normalize() OrderPatch {
	if p.Status != nil && *p.Status == "" {
		p.Status = nil
	}
	return p
}

// IsEmpty reports whether the patch changes nothing.
func (p OrderPatch) IsEmpty() bool {
	return p.Status == nil && p.Obs == nil && p.Feedback == nil
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}
