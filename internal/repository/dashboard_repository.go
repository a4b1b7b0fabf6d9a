package repository

import (
	"context"
	"fmt"

	"coffee-on/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type dashboardRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewDashboardRepository creates a new PostgreSQL-backed dashboard repository.
func NewDashboardRepository(pool *pgxpool.Pool, logger zerolog.Logger) DashboardRepository {
	return &dashboardRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "dashboard").Logger(),
	}
}

func (r *dashboardRepository) Totals(ctx context.Context) (model.DashboardTotals, error) {
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(total_final) FILTER (WHERE status = $1), 0),
		       COALESCE(ROUND(SUM(total_final) FILTER (WHERE status = $1) / NULLIF(COUNT(*), 0), 2), 0)
		FROM pedidos
	`

	var t model.DashboardTotals
	if err := r.pool.QueryRow(ctx, query, model.StatusPaid).Scan(&t.OrderCount, &t.Sales, &t.AverageTicket); err != nil {
		r.logger.Error().Err(err).Msg("failed to query totals")
		return model.DashboardTotals{}, fmt.Errorf("failed to query totals: %w", err)
	}

	return t, nil
}

func (r *dashboardRepository) MonthlySales(ctx context.Context, months int) ([]model.MonthlySales, error) {
	query := `
		SELECT to_char(created_at, 'YYYY-MM') AS mes, SUM(total_final)
		FROM pedidos
		WHERE status = $1
		GROUP BY mes
		ORDER BY mes DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, model.StatusPaid, months)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query monthly sales")
		return nil, fmt.Errorf("failed to query monthly sales: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.MonthlySales, error) {
		var m model.MonthlySales
		err := row.Scan(&m.Month, &m.Total)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan monthly sales: %w", err)
	}
	return out, nil
}

func (r *dashboardRepository) TopProducts(ctx context.Context, limit int) ([]model.ProductSales, error) {
	query := `
		SELECT pr.nome, SUM(pp.quantidade), SUM(pp.subtotal) AS total_vendido
		FROM pedido_produto pp
		JOIN produtos pr ON pr.id = pp.produto_id
		JOIN pedidos pe ON pe.id = pp.pedido_id
		WHERE pe.status = $1
		GROUP BY pr.id, pr.nome
		ORDER BY total_vendido DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, model.StatusPaid, limit)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query top products")
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.ProductSales, error) {
		var p model.ProductSales
		err := row.Scan(&p.Name, &p.Quantity, &p.Revenue)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan top products: %w", err)
	}
	return out, nil
}

func (r *dashboardRepository) TopCustomers(ctx context.Context, limit int) ([]model.CustomerSpend, error) {
	query := `
		SELECT u.nome, SUM(p.total_final) AS total_gasto, COUNT(p.id)
		FROM pedidos p
		JOIN usuarios u ON u.id = p.usuario_id
		WHERE p.status = $1
		GROUP BY u.id, u.nome
		ORDER BY total_gasto DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, model.StatusPaid, limit)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query top customers")
		return nil, fmt.Errorf("failed to query top customers: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.CustomerSpend, error) {
		var c model.CustomerSpend
		err := row.Scan(&c.Name, &c.Spent, &c.Orders)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan top customers: %w", err)
	}
	return out, nil
}
