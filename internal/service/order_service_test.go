package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"coffee-on/internal/config"
	"coffee-on/internal/model"
	"coffee-on/internal/pricing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type orderFixture struct {
	svc      *orderService
	orders   *MockOrderRepository
	products *MockProductRepository
	users    *MockUserRepository
	tx       *MockTx
	audit    *auditSpy
}

func newOrderFixture(mode string) *orderFixture {
	f := &orderFixture{
		orders:   new(MockOrderRepository),
		products: new(MockProductRepository),
		users:    new(MockUserRepository),
		tx:       new(MockTx),
		audit:    &auditSpy{},
	}
	f.svc = NewOrderService(f.orders, f.products, f.users, f.audit, mode, zerolog.Nop()).(*orderService)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func (f *orderFixture) assertExpectations(t *testing.T) {
	f.orders.AssertExpectations(t)
	f.products.AssertExpectations(t)
	f.users.AssertExpectations(t)
	f.tx.AssertExpectations(t)
}

func decEq(want string) any {
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(dec(want)) })
}

func product(id int64, price string, active bool) model.Product {
	return model.Product{ID: id, Name: "Café", Price: dec(price), Active: active, Slug: "cafe"}
}

func TestOrderService_PlaceOrder_Success(t *testing.T) {
	ctx := context.Background()
	actor := userActor()

	tests := []struct {
		name             string
		items            []model.OrderItemRequest
		eligible         bool
		available        string
		wantGross        string
		wantSubscription string
		wantCashback     string
		wantNet          string
		wantRemaining    string
		wantObsBreakdown string
	}{
		{
			name:             "subscription and cashback",
			items:            []model.OrderItemRequest{{ProductID: 1, Quantity: 2, Price: decPtr("50")}},
			eligible:         true,
			available:        "5",
			wantGross:        "100",
			wantSubscription: "10",
			wantCashback:     "5",
			wantNet:          "85",
			wantRemaining:    "0",
			wantObsBreakdown: "Desconto assinatura: R$ 10.00, Cashback: R$ 5.00",
		},
		{
			name:             "cashback covers the whole order",
			items:            []model.OrderItemRequest{{ProductID: 1, Quantity: 1, Price: decPtr("50")}},
			eligible:         false,
			available:        "60",
			wantGross:        "50",
			wantSubscription: "0",
			wantCashback:     "50",
			wantNet:          "0",
			wantRemaining:    "10",
			wantObsBreakdown: "Desconto assinatura: R$ 0.00, Cashback: R$ 50.00",
		},
		{
			name: "no discounts over several items",
			items: []model.OrderItemRequest{
				{ProductID: 1, Quantity: 1, Price: decPtr("12.50")},
				{ProductID: 2, Quantity: 3, Price: decPtr("4.00")},
				{ProductID: 1, Quantity: 1, Price: decPtr("12.50")},
			},
			eligible:         false,
			available:        "0",
			wantGross:        "37",
			wantSubscription: "0",
			wantCashback:     "0",
			wantNet:          "37",
			wantRemaining:    "0",
			wantObsBreakdown: "Desconto assinatura: R$ 0.00, Cashback: R$ 0.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(config.PricingDeclared)

			f.products.On("GetByIDs", ctx, mock.AnythingOfType("[]int64")).
				Return([]model.Product{product(1, "1", true), product(2, "1", true)}, nil)
			f.orders.On("BeginTx", ctx).Return(f.tx, nil)
			f.users.On("GetCashbackForUpdate", ctx, f.tx, actor.UserID).Return(dec(tt.available), true, nil)
			f.orders.On("HasRecentSubscription", ctx, f.tx, actor.UserID, fixedNow.Add(-SubscriptionWindow)).
				Return(tt.eligible, nil)

			var stored *model.Order
			f.orders.On("CreateOrder", ctx, f.tx, mock.AnythingOfType("*model.Order")).
				Run(func(args mock.Arguments) {
					stored = args.Get(2).(*model.Order)
					stored.ID = 42
				}).
				Return(nil)
			f.orders.On("CreateOrderItems", ctx, f.tx, mock.MatchedBy(func(items []model.OrderItem) bool {
				if len(items) != len(tt.items) {
					return false
				}
				for i, item := range items {
					if item.OrderID != 42 || item.ProductID != tt.items[i].ProductID ||
						item.Quantity != tt.items[i].Quantity || !item.UnitPrice.Equal(*tt.items[i].Price) {
						return false
					}
				}
				return true
			})).Return(nil)
			f.users.On("SetCashback", ctx, f.tx, actor.UserID, decEq(tt.wantRemaining)).Return(nil)
			f.tx.On("Commit", ctx).Return(nil)

			resp, err := f.svc.PlaceOrder(ctx, actor, &model.OrderRequest{
				Items:   tt.items,
				Obs:     "sem açúcar",
				Address: "Rua A, 1",
			})

			require.NoError(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, int64(42), resp.OrderID)
			assert.Equal(t, "Pedido criado com sucesso", resp.Message)
			assert.True(t, resp.GrossTotal.Equal(dec(tt.wantGross)), "gross %s", resp.GrossTotal)
			assert.True(t, resp.SubscriptionDiscount.Equal(dec(tt.wantSubscription)), "subscription %s", resp.SubscriptionDiscount)
			assert.True(t, resp.CashbackDiscount.Equal(dec(tt.wantCashback)), "cashback %s", resp.CashbackDiscount)
			assert.True(t, resp.NetTotal.Equal(dec(tt.wantNet)), "net %s", resp.NetTotal)

			require.NotNil(t, stored)
			assert.Equal(t, model.StatusCreated, stored.Status)
			assert.Equal(t, actor.UserID, stored.UserID)
			assert.Equal(t, "Rua A, 1", stored.Address)
			assert.Equal(t, "sem açúcar | "+tt.wantObsBreakdown, stored.Obs)
			assert.True(t, stored.DiscountTotal.Equal(stored.SubscriptionDiscount.Add(stored.CashbackDiscount)))

			assert.True(t, f.tx.committed)
			assert.False(t, f.tx.rolledBack)
			assert.Equal(t, []string{"CREATE_ORDER_SUCCESS"}, f.audit.actions())
			f.assertExpectations(t)
		})
	}
}

func TestOrderService_PlaceOrder_Unauthenticated(t *testing.T) {
	f := newOrderFixture(config.PricingDeclared)

	resp, err := f.svc.PlaceOrder(context.Background(), nil, &model.OrderRequest{
		Items: []model.OrderItemRequest{{ProductID: 1, Quantity: 1, Price: decPtr("10")}},
	})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
	assert.Equal(t, []string{"CREATE_ORDER_UNAUTHORIZED"}, f.audit.actions())
	f.orders.AssertNotCalled(t, "BeginTx", mock.Anything)
}

func TestOrderService_PlaceOrder_EmptyOrder(t *testing.T) {
	tests := []struct {
		name string
		req  *model.OrderRequest
	}{
		{name: "nil request", req: nil},
		{name: "nil items", req: &model.OrderRequest{Obs: "x"}},
		{name: "empty items", req: &model.OrderRequest{Items: []model.OrderItemRequest{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(config.PricingDeclared)

			resp, err := f.svc.PlaceOrder(context.Background(), userActor(), tt.req)

			assert.Nil(t, resp)
			assert.ErrorIs(t, err, model.ErrEmptyOrder)
			assert.Equal(t, []string{"CREATE_ORDER_INVALID_ITEMS"}, f.audit.actions())
			f.orders.AssertNotCalled(t, "BeginTx", mock.Anything)
			f.products.AssertNotCalled(t, "GetByIDs", mock.Anything, mock.Anything)
		})
	}
}

func TestOrderService_PlaceOrder_InvalidLineItem(t *testing.T) {
	tests := []struct {
		name string
		item model.OrderItemRequest
	}{
		{name: "zero quantity", item: model.OrderItemRequest{ProductID: 1, Quantity: 0, Price: decPtr("10")}},
		{name: "negative quantity", item: model.OrderItemRequest{ProductID: 1, Quantity: -1, Price: decPtr("10")}},
		{name: "negative price", item: model.OrderItemRequest{ProductID: 1, Quantity: 1, Price: decPtr("-0.01")}},
		{name: "sub-cent negative price", item: model.OrderItemRequest{ProductID: 1, Quantity: 1, Price: decPtr("-0.004")}},
		{name: "quantity beyond range", item: model.OrderItemRequest{ProductID: 1, Quantity: pricing.MaxQuantity + 1, Price: decPtr("10")}},
		{name: "price beyond range", item: model.OrderItemRequest{ProductID: 1, Quantity: 1, Price: decPtr("10000000000")}},
		{name: "missing price", item: model.OrderItemRequest{ProductID: 1, Quantity: 1}},
		{name: "missing product", item: model.OrderItemRequest{Quantity: 1, Price: decPtr("10")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(config.PricingDeclared)

			resp, err := f.svc.PlaceOrder(context.Background(), userActor(), &model.OrderRequest{
				Items: []model.OrderItemRequest{{ProductID: 2, Quantity: 1, Price: decPtr("5")}, tt.item},
			})

			assert.Nil(t, resp)
			assert.ErrorIs(t, err, model.ErrInvalidLineItem)
			assert.Equal(t, []string{"CREATE_ORDER_INVALID_ITEM_FIELD"}, f.audit.actions())
			f.orders.AssertNotCalled(t, "BeginTx", mock.Anything)
		})
	}
}

func TestOrderService_PlaceOrder_UnknownProduct(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(config.PricingDeclared)

	f.products.On("GetByIDs", ctx, []int64{7, 99}).Return([]model.Product{product(7, "3", true)}, nil)

	resp, err := f.svc.PlaceOrder(ctx, userActor(), &model.OrderRequest{
		Items: []model.OrderItemRequest{
			{ProductID: 7, Quantity: 1, Price: decPtr("3")},
			{ProductID: 99, Quantity: 1, Price: decPtr("3")},
		},
	})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, model.ErrInvalidLineItem)
	f.orders.AssertNotCalled(t, "BeginTx", mock.Anything)
	f.assertExpectations(t)
}

func TestOrderService_PlaceOrder_ProductLookupFails(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(config.PricingDeclared)

	f.products.On("GetByIDs", ctx, []int64{1}).Return(nil, errors.New("connection refused"))

	resp, err := f.svc.PlaceOrder(ctx, userActor(), &model.OrderRequest{
		Items: []model.OrderItemRequest{{ProductID: 1, Quantity: 1, Price: decPtr("3")}},
	})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, model.ErrOrderCreationFailed)
	assert.Equal(t, []string{"CREATE_ORDER_ERROR"}, f.audit.actions())
}

func TestOrderService_PlaceOrder_CatalogPricing(t *testing.T) {
	ctx := context.Background()
	actor := userActor()

	t.Run("uses the catalog price", func(t *testing.T) {
		f := newOrderFixture(config.PricingCatalog)

		f.products.On("GetByIDs", ctx, []int64{1}).Return([]model.Product{product(1, "20.00", true)}, nil)
		f.orders.On("BeginTx", ctx).Return(f.tx, nil)
		f.users.On("GetCashbackForUpdate", ctx, f.tx, actor.UserID).Return(decimal.Zero, true, nil)
		f.orders.On("HasRecentSubscription", ctx, f.tx, actor.UserID, mock.AnythingOfType("time.Time")).Return(false, nil)
		f.orders.On("CreateOrder", ctx, f.tx, mock.AnythingOfType("*model.Order")).Return(nil)
		f.orders.On("CreateOrderItems", ctx, f.tx, mock.MatchedBy(func(items []model.OrderItem) bool {
			return len(items) == 1 && items[0].UnitPrice.Equal(dec("20"))
		})).Return(nil)
		f.users.On("SetCashback", ctx, f.tx, actor.UserID, decEq("0")).Return(nil)
		f.tx.On("Commit", ctx).Return(nil)

		resp, err := f.svc.PlaceOrder(ctx, actor, &model.OrderRequest{
			Items: []model.OrderItemRequest{{ProductID: 1, Quantity: 2, Price: decPtr("1.00")}},
		})

		require.NoError(t, err)
		assert.True(t, resp.GrossTotal.Equal(dec("40")))
		f.assertExpectations(t)
	})

	t.Run("declared price may be omitted", func(t *testing.T) {
		f := newOrderFixture(config.PricingCatalog)

		f.products.On("GetByIDs", ctx, []int64{1}).Return([]model.Product{product(1, "7.50", true)}, nil)
		f.orders.On("BeginTx", ctx).Return(f.tx, nil)
		f.users.On("GetCashbackForUpdate", ctx, f.tx, actor.UserID).Return(decimal.Zero, true, nil)
		f.orders.On("HasRecentSubscription", ctx, f.tx, actor.UserID, mock.AnythingOfType("time.Time")).Return(false, nil)
		f.orders.On("CreateOrder", ctx, f.tx, mock.AnythingOfType("*model.Order")).Return(nil)
		f.orders.On("CreateOrderItems", ctx, f.tx, mock.AnythingOfType("[]model.OrderItem")).Return(nil)
		f.users.On("SetCashback", ctx, f.tx, actor.UserID, decEq("0")).Return(nil)
		f.tx.On("Commit", ctx).Return(nil)

		resp, err := f.svc.PlaceOrder(ctx, actor, &model.OrderRequest{
			Items: []model.OrderItemRequest{{ProductID: 1, Quantity: 1}},
		})

		require.NoError(t, err)
		assert.True(t, resp.NetTotal.Equal(dec("7.5")))
	})

	t.Run("rejects inactive products", func(t *testing.T) {
		f := newOrderFixture(config.PricingCatalog)

		f.products.On("GetByIDs", ctx, []int64{1}).Return([]model.Product{product(1, "20.00", false)}, nil)

		resp, err := f.svc.PlaceOrder(ctx, actor, &model.OrderRequest{
			Items: []model.OrderItemRequest{{ProductID: 1, Quantity: 1, Price: decPtr("20")}},
		})

		assert.Nil(t, resp)
		assert.ErrorIs(t, err, model.ErrInvalidLineItem)
		f.orders.AssertNotCalled(t, "BeginTx", mock.Anything)
	})
}

func TestOrderService_PlaceOrder_RollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	actor := userActor()
	items := []model.OrderItemRequest{{ProductID: 1, Quantity: 1, Price: decPtr("10")}}

	tests := []struct {
		name    string
		setup   func(f *orderFixture)
		wantErr error
	}{
		{
			name: "begin fails",
			setup: func(f *orderFixture) {
				f.orders.On("BeginTx", ctx).Return(nil, errors.New("pool exhausted"))
			},
			wantErr: model.ErrOrderCreationFailed,
		},
		{
			name: "account vanished",
			setup: func(f *orderFixture) {
				f.orders.On("BeginTx", ctx).Return(f.tx, nil)
				f.users.On("GetCashbackForUpdate", ctx, f.tx, actor.UserID).Return(decimal.Zero, false, nil)
				f.tx.On("Rollback", ctx).Return(nil)
			},
			wantErr: model.ErrUnauthenticated,
		},
		{
			name: "subscription check fails",
			setup: func(f *orderFixture) {
				f.orders.On("BeginTx", ctx).Return(f.tx, nil)
				f.users.On("GetCashbackForUpdate", ctx, f.tx, actor.UserID).Return(dec("5"), true, nil)
				f.orders.On("HasRecentSubscription", ctx, f.tx, actor.UserID, mock.AnythingOfType("time.Time")).
					Return(false, errors.New("statement timeout"))
				f.tx.On("Rollback", ctx).Return(nil)
			},
			wantErr: model.ErrOrderCreationFailed,
		},
		{
			name: "item insert fails",
			setup: func(f *orderFixture) {
				f.orders.On("BeginTx", ctx).Return(f.tx, nil)
				f.users.On("GetCashbackForUpdate", ctx, f.tx, actor.UserID).Return(dec("5"), true, nil)
				f.orders.On("HasRecentSubscription", ctx, f.tx, actor.UserID, mock.AnythingOfType("time.Time")).Return(false, nil)
				f.orders.On("CreateOrder", ctx, f.tx, mock.AnythingOfType("*model.Order")).Return(nil)
				f.orders.On("CreateOrderItems", ctx, f.tx, mock.AnythingOfType("[]model.OrderItem")).
					Return(errors.New("foreign key violation"))
				f.tx.On("Rollback", ctx).Return(nil)
			},
			wantErr: model.ErrOrderCreationFailed,
		},
		{
			name: "commit fails",
			setup: func(f *orderFixture) {
				f.orders.On("BeginTx", ctx).Return(f.tx, nil)
				f.users.On("GetCashbackForUpdate", ctx, f.tx, actor.UserID).Return(dec("5"), true, nil)
				f.orders.On("HasRecentSubscription", ctx, f.tx, actor.UserID, mock.AnythingOfType("time.Time")).Return(false, nil)
				f.orders.On("CreateOrder", ctx, f.tx, mock.AnythingOfType("*model.Order")).Return(nil)
				f.orders.On("CreateOrderItems", ctx, f.tx, mock.AnythingOfType("[]model.OrderItem")).Return(nil)
				f.users.On("SetCashback", ctx, f.tx, actor.UserID, decEq("0")).Return(nil)
				f.tx.On("Commit", ctx).Return(errors.New("serialization failure"))
				f.tx.On("Rollback", ctx).Return(nil)
			},
			wantErr: model.ErrOrderCreationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(config.PricingDeclared)
			f.products.On("GetByIDs", ctx, []int64{1}).Return([]model.Product{product(1, "10", true)}, nil)
			tt.setup(f)

			resp, err := f.svc.PlaceOrder(ctx, actor, &model.OrderRequest{Items: items})

			assert.Nil(t, resp)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, []string{"CREATE_ORDER_ERROR"}, f.audit.actions())
			f.assertExpectations(t)
		})
	}
}

func TestOrderService_ListOrders(t *testing.T) {
	ctx := context.Background()

	t.Run("user sees own orders", func(t *testing.T) {
		f := newOrderFixture(config.PricingDeclared)
		actor := userActor()
		orders := []model.Order{{ID: 2, UserID: actor.UserID}, {ID: 1, UserID: actor.UserID}}

		f.orders.On("List", ctx, &actor.UserID).Return(orders, nil)

		got, err := f.svc.ListOrders(ctx, actor)

		require.NoError(t, err)
		assert.Equal(t, orders, got)
		assert.Equal(t, []string{"LIST_ORDERS_SUCCESS"}, f.audit.actions())
		f.assertExpectations(t)
	})

	t.Run("admin sees every order", func(t *testing.T) {
		f := newOrderFixture(config.PricingDeclared)

		f.orders.On("List", ctx, (*uuid.UUID)(nil)).Return([]model.Order{{ID: 3}, {ID: 1}}, nil)

		got, err := f.svc.ListOrders(ctx, adminActor())

		require.NoError(t, err)
		assert.Len(t, got, 2)
		f.assertExpectations(t)
	})

	t.Run("repository error", func(t *testing.T) {
		f := newOrderFixture(config.PricingDeclared)
		actor := userActor()

		f.orders.On("List", ctx, &actor.UserID).Return(nil, errors.New("boom"))

		got, err := f.svc.ListOrders(ctx, actor)

		assert.Error(t, err)
		assert.Nil(t, got)
		assert.Equal(t, []string{"LIST_ORDERS_ERROR"}, f.audit.actions())
	})

	t.Run("unauthenticated", func(t *testing.T) {
		f := newOrderFixture(config.PricingDeclared)

		_, err := f.svc.ListOrders(ctx, nil)

		assert.ErrorIs(t, err, model.ErrUnauthenticated)
	})
}

func TestOrderService_GetOrder(t *testing.T) {
	ctx := context.Background()
	owner := userActor()
	detail := &model.OrderDetail{
		Order: model.Order{ID: 5, UserID: owner.UserID, Status: model.StatusCreated},
		Items: []model.OrderItem{{ID: 1, OrderID: 5, ProductID: 1, Quantity: 1, ProductName: "Café"}},
	}

	tests := []struct {
		name       string
		actor      *model.Actor
		found      *model.OrderDetail
		wantCode   string
		wantAction string
	}{
		{name: "owner", actor: owner, found: detail, wantAction: "GET_ORDER_SUCCESS"},
		{name: "admin", actor: adminActor(), found: detail, wantAction: "GET_ORDER_SUCCESS"},
		{name: "other user", actor: userActor(), found: detail, wantCode: model.ErrCodeForbidden, wantAction: "GET_ORDER_FORBIDDEN"},
		{name: "missing order", actor: userActor(), found: nil, wantCode: model.ErrCodeNotFound, wantAction: "GET_ORDER_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(config.PricingDeclared)
			if tt.found != nil {
				f.orders.On("GetByID", ctx, int64(5)).Return(tt.found, nil)
			} else {
				f.orders.On("GetByID", ctx, int64(5)).Return(nil, nil)
			}

			got, err := f.svc.GetOrder(ctx, tt.actor, 5)

			if tt.wantCode != "" {
				de, ok := model.AsDomainError(err)
				require.True(t, ok, "expected domain error, got %v", err)
				assert.Equal(t, tt.wantCode, de.Code)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, detail, got)
			}
			assert.Equal(t, []string{tt.wantAction}, f.audit.actions())
		})
	}
}

func statusPtr(s model.OrderStatus) *model.OrderStatus { return &s }

func strPtr(s string) *string { return &s }

func TestOrderService_UpdateOrder_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   *model.Actor
		patch   model.OrderPatch
		wantErr error
	}{
		{name: "plain user", actor: userActor(), patch: model.OrderPatch{Status: statusPtr(model.StatusPaid)}, wantErr: errOrderAdminOnly},
		{name: "anonymous", actor: nil, patch: model.OrderPatch{Obs: strPtr("x")}, wantErr: errOrderAdminOnly},
		{name: "unknown status", actor: adminActor(), patch: model.OrderPatch{Status: statusPtr("PAID")}, wantErr: model.ErrInvalidStatus},
		{name: "empty patch", actor: adminActor(), patch: model.OrderPatch{}, wantErr: model.ErrNothingToUpdate},
		{name: "empty status only", actor: adminActor(), patch: model.OrderPatch{Status: statusPtr("")}, wantErr: model.ErrNothingToUpdate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(config.PricingDeclared)

			err := f.svc.UpdateOrder(ctx, tt.actor, 9, tt.patch)

			assert.ErrorIs(t, err, tt.wantErr)
			f.orders.AssertNotCalled(t, "BeginTx", mock.Anything)
		})
	}
}

func TestOrderService_UpdateOrder_Transitions(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	tests := []struct {
		name        string
		current     model.OrderStatus
		credited    bool
		patch       model.OrderPatch
		wantErr     error
		wantCredit  bool
		wantApplied bool
		wantAction  string
	}{
		{
			name:        "created to paid credits cashback",
			current:     model.StatusCreated,
			patch:       model.OrderPatch{Status: statusPtr(model.StatusPaid)},
			wantCredit:  true,
			wantApplied: true,
			wantAction:  "UPDATE_ORDER_SUCCESS",
		},
		{
			name:        "paid again does not credit twice",
			current:     model.StatusPaid,
			credited:    true,
			patch:       model.OrderPatch{Status: statusPtr(model.StatusPaid)},
			wantApplied: true,
			wantAction:  "UPDATE_ORDER_SUCCESS",
		},
		{
			name:        "paid to shipped",
			current:     model.StatusPaid,
			credited:    true,
			patch:       model.OrderPatch{Status: statusPtr(model.StatusShipped)},
			wantApplied: true,
			wantAction:  "UPDATE_ORDER_SUCCESS",
		},
		{
			name:        "feedback only",
			current:     model.StatusShipped,
			credited:    true,
			patch:       model.OrderPatch{Feedback: strPtr("ótimo")},
			wantApplied: true,
			wantAction:  "UPDATE_ORDER_SUCCESS",
		},
		{
			name:       "canceled order cannot be paid",
			current:    model.StatusCanceled,
			patch:      model.OrderPatch{Status: statusPtr(model.StatusPaid)},
			wantErr:    model.ErrOrderFinalized,
			wantAction: "UPDATE_ORDER_REJECTED",
		},
		{
			name:       "completed order cannot reopen",
			current:    model.StatusCompleted,
			credited:   true,
			patch:      model.OrderPatch{Status: statusPtr(model.StatusCreated)},
			wantErr:    model.ErrOrderFinalized,
			wantAction: "UPDATE_ORDER_REJECTED",
		},
		{
			name:        "completed order keeps accepting obs",
			current:     model.StatusCompleted,
			credited:    true,
			patch:       model.OrderPatch{Obs: strPtr("entregue na portaria")},
			wantApplied: true,
			wantAction:  "UPDATE_ORDER_SUCCESS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(config.PricingDeclared)
			order := &model.Order{
				ID:               9,
				UserID:           owner,
				Status:           tt.current,
				NetTotal:         dec("85.00"),
				CashbackCredited: tt.credited,
			}

			f.orders.On("BeginTx", ctx).Return(f.tx, nil)
			f.orders.On("LockByID", ctx, f.tx, int64(9)).Return(order, nil)
			if tt.wantCredit {
				f.users.On("AddCashback", ctx, f.tx, owner, decEq("8.50")).Return(nil)
			}
			if tt.wantApplied {
				f.orders.On("ApplyPatch", ctx, f.tx, int64(9), tt.patch, tt.wantCredit).Return(nil)
				f.tx.On("Commit", ctx).Return(nil)
			} else {
				f.tx.On("Rollback", ctx).Return(nil)
			}

			err := f.svc.UpdateOrder(ctx, adminActor(), 9, tt.patch)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				f.orders.AssertNotCalled(t, "ApplyPatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
			}
			if !tt.wantCredit {
				f.users.AssertNotCalled(t, "AddCashback", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
			assert.Equal(t, []string{tt.wantAction}, f.audit.actions())
			f.assertExpectations(t)
		})
	}
}

func TestOrderService_UpdateOrder_NotFound(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(config.PricingDeclared)

	f.orders.On("BeginTx", ctx).Return(f.tx, nil)
	f.orders.On("LockByID", ctx, f.tx, int64(404)).Return(nil, nil)
	f.tx.On("Rollback", ctx).Return(nil)

	err := f.svc.UpdateOrder(ctx, adminActor(), 404, model.OrderPatch{Status: statusPtr(model.StatusPaid)})

	assert.ErrorIs(t, err, model.ErrOrderNotFound)
	assert.Equal(t, []string{"UPDATE_ORDER_NOT_FOUND"}, f.audit.actions())
	f.assertExpectations(t)
}

func TestOrderService_UpdateOrder_CreditFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(config.PricingDeclared)
	owner := uuid.New()

	f.orders.On("BeginTx", ctx).Return(f.tx, nil)
	f.orders.On("LockByID", ctx, f.tx, int64(3)).
		Return(&model.Order{ID: 3, UserID: owner, Status: model.StatusCreated, NetTotal: dec("10")}, nil)
	f.users.On("AddCashback", ctx, f.tx, owner, decEq("1")).Return(errors.New("deadlock detected"))
	f.tx.On("Rollback", ctx).Return(nil)

	err := f.svc.UpdateOrder(ctx, adminActor(), 3, model.OrderPatch{Status: statusPtr(model.StatusPaid)})

	require.Error(t, err)
	_, isDomain := model.AsDomainError(err)
	assert.False(t, isDomain)
	assert.True(t, f.tx.rolledBack)
	assert.Equal(t, []string{"UPDATE_ORDER_ERROR"}, f.audit.actions())
	f.orders.AssertNotCalled(t, "ApplyPatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
