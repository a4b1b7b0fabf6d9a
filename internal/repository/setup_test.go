package repository

import (
	"context"
	"testing"
	"time"

	"coffee-on/internal/database"
	"coffee-on/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts a PostgreSQL container and applies the application schema.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if testing.Short() {
		t.Skip("skipping repository test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, database.Migrate(ctx, pool, zerolog.Nop()))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// seedUser inserts an account with the given cashback balance.
func seedUser(t *testing.T, pool *pgxpool.Pool, email string, cashback string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO usuarios (id, nome, email, senha_hash, role, cashbacktotal)
		VALUES ($1, $2, $3, 'hash', 'USER', $4)`,
		id, "User "+email, email, decimal.RequireFromString(cashback),
	)
	require.NoError(t, err)
	return id
}

// seedProduct inserts a product and returns its ID.
func seedProduct(t *testing.T, pool *pgxpool.Pool, name, slug, category, price string) int64 {
	t.Helper()

	var id int64
	err := pool.QueryRow(context.Background(), `
		INSERT INTO produtos (nome, preco, estoque, categoria, slug)
		VALUES ($1, $2, 10, $3, $4)
		RETURNING id`,
		name, decimal.RequireFromString(price), category, slug,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// seedOrder inserts an order with one line item at the given creation time.
func seedOrder(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID, productID int64, status model.OrderStatus, createdAt time.Time, net string) int64 {
	t.Helper()

	ctx := context.Background()
	amount := decimal.RequireFromString(net)

	var id int64
	err := pool.QueryRow(ctx, `
		INSERT INTO pedidos (usuario_id, status, total_bruto, total_final, created_at, updated_at)
		VALUES ($1, $2, $3, $3, $4, $4)
		RETURNING id`,
		userID, status, amount, createdAt,
	).Scan(&id)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `
		INSERT INTO pedido_produto (pedido_id, produto_id, quantidade, preco_unitario)
		VALUES ($1, $2, 1, $3)`,
		id, productID, amount,
	)
	require.NoError(t, err)
	return id
}
