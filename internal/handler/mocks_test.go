package handler

import (
	"context"
	"net/http"

	"coffee-on/internal/middleware"
	"coffee-on/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) PlaceOrder(ctx context.Context, actor *model.Actor, req *model.OrderRequest) (*model.PlaceOrderResponse, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PlaceOrderResponse), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, actor *model.Actor) ([]model.Order, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, actor *model.Actor, id int64) (*model.OrderDetail, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderDetail), args.Error(1)
}

func (m *MockOrderService) UpdateOrder(ctx context.Context, actor *model.Actor, id int64, patch model.OrderPatch) error {
	args := m.Called(ctx, actor, id, patch)
	return args.Error(0)
}

// MockProductService is a mock implementation of ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, actor *model.Actor, req *model.CreateProductRequest) (*model.Product, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, actor *model.Actor, id int64, patch model.ProductPatch) error {
	args := m.Called(ctx, actor, id, patch)
	return args.Error(0)
}

func (m *MockProductService) Delete(ctx context.Context, actor *model.Actor, id int64) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

// MockAccountService is a mock implementation of AccountService.
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Register(ctx context.Context, actor *model.Actor, req *model.CreateUserRequest) (uuid.UUID, error) {
	args := m.Called(ctx, actor, req)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockAccountService) Login(ctx context.Context, req model.LoginRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockAccountService) Logout(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockAccountService) Authenticate(ctx context.Context, token string) (*model.Actor, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Actor), args.Error(1)
}

func (m *MockAccountService) List(ctx context.Context, actor *model.Actor) ([]model.User, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockAccountService) Get(ctx context.Context, actor *model.Actor, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAccountService) Update(ctx context.Context, actor *model.Actor, id uuid.UUID, patch model.UserPatch) error {
	args := m.Called(ctx, actor, id, patch)
	return args.Error(0)
}

func (m *MockAccountService) Delete(ctx context.Context, actor *model.Actor, id uuid.UUID) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *MockAccountService) RequestPasswordReset(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockAccountService) ResetPassword(ctx context.Context, req model.PasswordResetRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// MockDashboardService is a mock implementation of DashboardService.
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Summary(ctx context.Context, actor *model.Actor) (*model.DashboardSummary, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DashboardSummary), args.Error(1)
}

func testActor(role model.Role) *model.Actor {
	return &model.Actor{UserID: uuid.New(), Email: "teste@coffeon.com", Role: role}
}

// withActor attaches an authenticated actor to the request.
func withActor(r *http.Request, actor *model.Actor) *http.Request {
	return r.WithContext(middleware.WithActor(r.Context(), actor))
}

// withURLParam sets a chi URL parameter on the request.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
