package repository

import (
	"context"
	"time"

	"coffee-on/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// UserChanges is a resolved partial update of an account row. Nil fields are
// left untouched.
type UserChanges struct {
	Name         *string
	Email        *string
	PasswordHash *string
	Role         *model.Role
	Active       *bool
	Subscriber   *bool
}

// UserRepository defines the interface for account data access operations.
type UserRepository interface {
	// Create inserts a new account. Returns model.ErrEmailTaken when the
	// e-mail is already registered.
	Create(ctx context.Context, user *model.User) error

	// GetByID retrieves an account by its ID. Returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)

	// GetByEmail retrieves an account by its e-mail. Returns nil when absent.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// List retrieves every account ordered by name.
	List(ctx context.Context) ([]model.User, error)

	// Update applies changes and reports whether the account exists.
	Update(ctx context.Context, id uuid.UUID, changes UserChanges) (bool, error)

	// Delete removes an account and reports whether it existed. Returns
	// model.ErrUserHasOrders when orders still reference it.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// SetResetCode stores a password reset code for the account with the given e-mail.
	SetResetCode(ctx context.Context, email, code string) (bool, error)

	// ResetPassword replaces the password hash when the reset code matches,
	// clearing the code. Reports whether a row matched.
	ResetPassword(ctx context.Context, email, code, passwordHash string) (bool, error)

	// GetCashbackForUpdate reads the cashback balance and locks the account
	// row until tx ends. Returns false when the account does not exist.
	GetCashbackForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (decimal.Decimal, bool, error)

	// SetCashback overwrites the cashback balance within tx.
	SetCashback(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) error

	// AddCashback increments the cashback balance within tx.
	AddCashback(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) error
}

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetAll retrieves products with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID. Returns nil when absent.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []int64) ([]model.Product, error)

	// SlugsWithPrefix lists the slugs equal to base or derived from it (base-N).
	SlugsWithPrefix(ctx context.Context, base string) ([]string, error)

	// Create inserts a product and fills in its ID and timestamps.
	Create(ctx context.Context, product *model.Product) error

	// Update applies a partial update and reports whether the product exists.
	Update(ctx context.Context, id int64, patch model.ProductPatch) (bool, error)

	// Delete removes a product and reports whether it existed. Returns
	// model.ErrProductInUse when order items reference it.
	Delete(ctx context.Context, id int64) (bool, error)

	// UpsertBySlug inserts the product or refreshes the row with the same
	// slug. Reports whether a new row was inserted.
	UpsertBySlug(ctx context.Context, product *model.Product) (bool, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// HasRecentSubscription reports whether the account has a PAGO order
	// created strictly after since that contains a subscription product.
	HasRecentSubscription(ctx context.Context, tx pgx.Tx, userID uuid.UUID, since time.Time) (bool, error)

	// CreateOrder inserts a new order within the provided transaction and
	// fills in its ID and timestamps.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order with its items enriched with product name
	// and image. Returns nil when absent.
	GetByID(ctx context.Context, id int64) (*model.OrderDetail, error)

	// List retrieves orders newest first, restricted to one account when
	// userID is not nil.
	List(ctx context.Context, userID *uuid.UUID) ([]model.Order, error)

	// LockByID reads an order and locks its row until tx ends. Returns nil
	// when absent.
	LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Order, error)

	// ApplyPatch writes the non-nil patch fields. When markCredited is true
	// the order is flagged as having credited its cashback.
	ApplyPatch(ctx context.Context, tx pgx.Tx, id int64, patch model.OrderPatch, markCredited bool) error
}

// AuditRepository persists audit log entries.
type AuditRepository interface {
	// Insert writes one entry to admin_logs.
	Insert(ctx context.Context, entry model.AuditEntry) error
}

// DashboardRepository runs the administrative sales aggregates.
type DashboardRepository interface {
	// Totals returns the order count, paid sales and average ticket.
	Totals(ctx context.Context) (model.DashboardTotals, error)

	// MonthlySales returns paid revenue for the most recent months, newest first.
	MonthlySales(ctx context.Context, months int) ([]model.MonthlySales, error)

	// TopProducts returns the best selling products by paid revenue.
	TopProducts(ctx context.Context, limit int) ([]model.ProductSales, error)

	// TopCustomers returns the accounts with the highest paid spend.
	TopCustomers(ctx context.Context, limit int) ([]model.CustomerSpend, error)
}
