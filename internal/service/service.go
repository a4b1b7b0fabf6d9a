package service

import (
	"context"

	"coffee-on/internal/model"

	"github.com/google/uuid"
)

// OrderService defines operations for order management.
type OrderService interface {
	// PlaceOrder prices and persists an order for the actor, redeeming
	// cashback and applying the subscription discount in one transaction.
	PlaceOrder(ctx context.Context, actor *model.Actor, req *model.OrderRequest) (*model.PlaceOrderResponse, error)

	// ListOrders returns the actor's orders, or every order for administrators.
	ListOrders(ctx context.Context, actor *model.Actor) ([]model.Order, error)

	// GetOrder retrieves an order with its items. Only the owner and
	// administrators may read it.
	GetOrder(ctx context.Context, actor *model.Actor, id int64) (*model.OrderDetail, error)

	// UpdateOrder applies an administrative patch, crediting cashback the
	// first time the order becomes PAGO.
	UpdateOrder(ctx context.Context, actor *model.Actor, id int64, patch model.OrderPatch) error
}

// ProductService defines operations for product management.
type ProductService interface {
	// GetAll retrieves all products with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// Create adds a product with a unique slug derived from its name.
	Create(ctx context.Context, actor *model.Actor, req *model.CreateProductRequest) (*model.Product, error)

	// Update applies a partial update to a product.
	Update(ctx context.Context, actor *model.Actor, id int64, patch model.ProductPatch) error

	// Delete removes a product that was never sold.
	Delete(ctx context.Context, actor *model.Actor, id int64) error
}

// AccountService defines account, session and password recovery operations.
type AccountService interface {
	// Register creates an account. actor may be nil for self sign-up.
	Register(ctx context.Context, actor *model.Actor, req *model.CreateUserRequest) (uuid.UUID, error)

	// Login checks the credentials and opens a session, returning its token.
	Login(ctx context.Context, req model.LoginRequest) (string, error)

	// Logout ends the session identified by token.
	Logout(ctx context.Context, token string) error

	// Authenticate resolves a session token into the current actor.
	Authenticate(ctx context.Context, token string) (*model.Actor, error)

	// List returns every account.
	List(ctx context.Context, actor *model.Actor) ([]model.User, error)

	// Get returns one account.
	Get(ctx context.Context, actor *model.Actor, id uuid.UUID) (*model.User, error)

	// Update applies a partial update. Non-administrators may only change
	// their own name, e-mail and password.
	Update(ctx context.Context, actor *model.Actor, id uuid.UUID, patch model.UserPatch) error

	// Delete removes an account.
	Delete(ctx context.Context, actor *model.Actor, id uuid.UUID) error

	// RequestPasswordReset e-mails a one-time code to the account owner.
	RequestPasswordReset(ctx context.Context, email string) error

	// ResetPassword exchanges a valid code for a new password.
	ResetPassword(ctx context.Context, req model.PasswordResetRequest) error
}

// DashboardService defines the administrative sales summary.
type DashboardService interface {
	// Summary aggregates totals, monthly sales and top products and customers.
	Summary(ctx context.Context, actor *model.Actor) (*model.DashboardSummary, error)
}
