package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coffee-on/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

const orderColumns = `
	p.id, p.usuario_id, p.status, p.obs, p.endereco, p.feedback,
	p.total_bruto, p.total_desconto, p.total_final,
	p.desconto_assinatura, p.desconto_cashback, p.cashback_creditado,
	p.created_at, p.updated_at`

func scanOrder(row pgx.Row, o *model.Order, extra ...any) error {
	dest := []any{
		&o.ID, &o.UserID, &o.Status, &o.Obs, &o.Address, &o.Feedback,
		&o.GrossTotal, &o.DiscountTotal, &o.NetTotal,
		&o.SubscriptionDiscount, &o.CashbackDiscount, &o.CashbackCredited,
		&o.CreatedAt, &o.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// HasRecentSubscription reports whether the account bought a subscription product
// in a PAGO order created strictly after since.
func (r *orderRepository) HasRecentSubscription(ctx context.Context, tx pgx.Tx, userID uuid.UUID, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM pedidos p
			JOIN pedido_produto pp ON pp.pedido_id = p.id
			JOIN produtos pr ON pr.id = pp.produto_id
			WHERE p.usuario_id = $1
			  AND p.status = $2
			  AND p.created_at > $3
			  AND pr.categoria = $4
		)
	`

	var exists bool
	err := tx.QueryRow(ctx, query, userID, model.StatusPaid, since, model.CategorySubscription).Scan(&exists)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to check subscription")
		return false, fmt.Errorf("failed to check subscription: %w", err)
	}

	return exists, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO pedidos (
			usuario_id, status, obs, endereco,
			total_bruto, total_desconto, total_final,
			desconto_assinatura, desconto_cashback
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		order.UserID,
		order.Status,
		order.Obs,
		order.Address,
		order.GrossTotal,
		order.DiscountTotal,
		order.NetTotal,
		order.SubscriptionDiscount,
		order.CashbackDiscount,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("user_id", order.UserID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Int64("order_id", order.ID).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO pedido_produto (pedido_id, produto_id, quantidade, preco_unitario, desconto)
		VALUES ($1, $2, $3, $4, $5)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice, item.Discount)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Int64("order_id", items[i].OrderID).
				Int64("product_id", items[i].ProductID).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.OrderDetail, error) {
	orderQuery := `
		SELECT` + orderColumns + `,
			(SELECT COUNT(*) FROM pedido_produto pp WHERE pp.pedido_id = p.id)
		FROM pedidos p
		WHERE p.id = $1
	`

	var detail model.OrderDetail
	err := scanOrder(r.pool.QueryRow(ctx, orderQuery, id), &detail.Order, &detail.ItemCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("order_id", id).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("order_id", id).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	itemsQuery := `
		SELECT pp.id, pp.pedido_id, pp.produto_id, pp.quantidade,
		       pp.preco_unitario, pp.desconto, pp.subtotal, pr.nome, pr.imagem
		FROM pedido_produto pp
		JOIN produtos pr ON pr.id = pp.produto_id
		WHERE pp.pedido_id = $1
		ORDER BY pp.id
	`

	rows, err := r.pool.Query(ctx, itemsQuery, id)
	if err != nil {
		r.logger.Error().
			Err(err).
			Int64("order_id", id).
			Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	detail.Items = []model.OrderItem{}
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,
			&item.Discount,
			&item.Subtotal,
			&item.ProductName,
			&item.ProductImage,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		detail.Items = append(detail.Items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return &detail, nil
}

// List retrieves orders newest first, optionally restricted to one account.
func (r *orderRepository) List(ctx context.Context, userID *uuid.UUID) ([]model.Order, error) {
	query := `
		SELECT` + orderColumns + `,
			COUNT(pp.id)
		FROM pedidos p
		LEFT JOIN pedido_produto pp ON pp.pedido_id = p.id
		WHERE ($1::uuid IS NULL OR p.usuario_id = $1)
		GROUP BY p.id
		ORDER BY p.created_at DESC, p.id DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		var o model.Order
		if err := scanOrder(rows, &o, &o.ItemCount); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// LockByID reads an order with FOR UPDATE.
func (r *orderRepository) LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Order, error) {
	query := `
		SELECT` + orderColumns + `
		FROM pedidos p
		WHERE p.id = $1
		FOR UPDATE
	`

	var o model.Order
	if err := scanOrder(tx.QueryRow(ctx, query, id), &o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("order_id", id).Msg("failed to lock order")
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}

	return &o, nil
}

// ApplyPatch writes the non-nil patch fields in one parameterized statement.
func (r *orderRepository) ApplyPatch(ctx context.Context, tx pgx.Tx, id int64, patch model.OrderPatch, markCredited bool) error {
	query := `
		UPDATE pedidos
		SET status = COALESCE($2, status),
		    obs = COALESCE($3, obs),
		    feedback = COALESCE($4, feedback),
		    cashback_creditado = cashback_creditado OR $5,
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, id, patch.Status, patch.Obs, patch.Feedback, markCredited)
	if err != nil {
		r.logger.Error().Err(err).Int64("order_id", id).Msg("failed to update order")
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	r.logger.Debug().
		Int64("order_id", id).
		Bool("cashback_credited", markCredited).
		Msg("order updated successfully")

	return nil
}
