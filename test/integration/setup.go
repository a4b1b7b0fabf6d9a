package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"coffee-on/internal/config"
	"coffee-on/internal/database"
	"coffee-on/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, a connection pool and the
// application schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	dbConfig := config.DatabaseConfig{
		MaxConnections:   20,
		MinConnections:   2,
		MaxConnLifetime:  300,
		StatementTimeout: 10 * time.Second,
	}

	logger := zerolog.Nop()
	pool, err := database.NewPoolFromURL(ctx, connStr, dbConfig, logger)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := database.Migrate(ctx, pool, logger); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// TestUser is a seeded account together with its clear-text password.
type TestUser struct {
	ID       uuid.UUID
	Email    string
	Password string
}

// SeedUser inserts an active account with the given role and cashback balance.
func SeedUser(t *testing.T, pool *pgxpool.Pool, email string, role model.Role, cashback string) TestUser {
	t.Helper()

	password := "senha-" + email
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	id := uuid.New()
	_, err = pool.Exec(context.Background(), `
		INSERT INTO usuarios (id, nome, email, senha_hash, role, cashbacktotal)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, "Cliente "+email, email, string(hash), role, decimal.RequireFromString(cashback),
	)
	if err != nil {
		t.Fatalf("failed to seed user %s: %v", email, err)
	}

	return TestUser{ID: id, Email: email, Password: password}
}

// TestProducts holds the IDs of the seeded catalog.
type TestProducts struct {
	Coffee       int64
	Grinder      int64
	Subscription int64
	Retired      int64
}

// SeedProducts inserts a small catalog, including a subscription plan and an
// inactive product.
func SeedProducts(t *testing.T, pool *pgxpool.Pool) TestProducts {
	t.Helper()

	products := []struct {
		name     string
		slug     string
		category string
		price    string
		active   bool
		id       *int64
	}{
		{"Café Especial 250g", "cafe-especial-250g", "CAFE", "50.00", true, nil},
		{"Moedor Manual", "moedor-manual", "ACESSORIO", "120.00", true, nil},
		{"Assinatura Mensal", "assinatura-mensal", model.CategorySubscription, "89.90", true, nil},
		{"Café Antigo", "cafe-antigo", "CAFE", "30.00", false, nil},
	}

	var ids TestProducts
	products[0].id = &ids.Coffee
	products[1].id = &ids.Grinder
	products[2].id = &ids.Subscription
	products[3].id = &ids.Retired

	for _, p := range products {
		err := pool.QueryRow(context.Background(), `
			INSERT INTO produtos (nome, preco, estoque, categoria, slug, ativo)
			VALUES ($1, $2, 100, $3, $4, $5)
			RETURNING id`,
			p.name, decimal.RequireFromString(p.price), p.category, p.slug, p.active,
		).Scan(p.id)
		if err != nil {
			t.Fatalf("failed to seed product %s: %v", p.slug, err)
		}
	}

	return ids
}

// SeedPaidOrder inserts a PAGO order with a single line item created at the
// given time. The order is marked as already credited.
func SeedPaidOrder(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID, productID int64, price string, createdAt time.Time) int64 {
	t.Helper()

	ctx := context.Background()
	amount := decimal.RequireFromString(price)

	var id int64
	err := pool.QueryRow(ctx, `
		INSERT INTO pedidos (usuario_id, status, total_bruto, total_final, cashback_creditado, created_at, updated_at)
		VALUES ($1, $2, $3, $3, TRUE, $4, $4)
		RETURNING id`,
		userID, model.StatusPaid, amount, createdAt,
	).Scan(&id)
	if err != nil {
		t.Fatalf("failed to seed order: %v", err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO pedido_produto (pedido_id, produto_id, quantidade, preco_unitario)
		VALUES ($1, $2, 1, $3)`,
		id, productID, amount,
	)
	if err != nil {
		t.Fatalf("failed to seed order item: %v", err)
	}

	return id
}

// Cashback reads the stored balance of an account.
func Cashback(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	err := pool.QueryRow(context.Background(),
		"SELECT cashbacktotal FROM usuarios WHERE id = $1", userID,
	).Scan(&balance)
	if err != nil {
		t.Fatalf("failed to read cashback: %v", err)
	}
	return balance
}

// CountRows returns the number of rows in table.
func CountRows(t *testing.T, pool *pgxpool.Pool, table string) int {
	t.Helper()

	var n int
	if err := pool.QueryRow(context.Background(), fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n); err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	return n
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"pedido_produto", "pedidos", "produtos", "admin_logs", "usuarios"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
