package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"coffee-on/internal/audit"
	"coffee-on/internal/config"
	"coffee-on/internal/model"
	"coffee-on/internal/pricing"
	"coffee-on/internal/repository"

	"github.com/rs/zerolog"
)

// SubscriptionWindow is how far back a paid subscription purchase keeps the
// subscription discount active.
const SubscriptionWindow = 30 * 24 * time.Hour

var (
	errOrderAccessDenied = model.NewDomainError(model.ErrCodeForbidden, "Acesso negado a este pedido.")
	errOrderAdminOnly    = model.NewDomainError(model.ErrCodeForbidden, "Apenas administradores podem atualizar pedidos.")
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	audit       audit.Recorder
	pricingMode string
	now         func() time.Time
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	recorder audit.Recorder,
	pricingMode string,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		audit:       recorder,
		pricingMode: pricingMode,
		now:         time.Now,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// PlaceOrder validates the request, then prices and persists the order, its
// items and the remaining cashback balance in one transaction.
func (s *orderService) PlaceOrder(ctx context.Context, actor *model.Actor, req *model.OrderRequest) (*model.PlaceOrderResponse, error) {
	if actor == nil {
		s.audit.Record(ctx, audit.Entry(nil, "CREATE_ORDER_UNAUTHORIZED", audit.ResourceOrders, "", nil))
		return nil, model.ErrUnauthenticated
	}

	if req == nil || len(req.Items) == 0 {
		s.audit.Record(ctx, audit.Entry(actor, "CREATE_ORDER_INVALID_ITEMS", audit.ResourceOrders, "", nil))
		return nil, model.ErrEmptyOrder
	}

	lines, err := s.resolveLineItems(ctx, req.Items)
	if err != nil {
		if errors.Is(err, model.ErrInvalidLineItem) {
			s.logger.Warn().Err(err).Str("user_id", actor.UserID.String()).Msg("invalid order item")
			s.audit.Record(ctx, audit.Entry(actor, "CREATE_ORDER_INVALID_ITEM_FIELD", audit.ResourceOrders, "",
				map[string]any{"error": err.Error()}))
			return nil, model.ErrInvalidLineItem
		}
		s.audit.Record(ctx, audit.Entry(actor, "CREATE_ORDER_ERROR", audit.ResourceOrders, "",
			map[string]any{"error": err.Error()}))
		return nil, model.ErrOrderCreationFailed
	}

	resp, err := s.placeInTx(ctx, actor, req, lines)
	if err != nil {
		s.audit.Record(ctx, audit.Entry(actor, "CREATE_ORDER_ERROR", audit.ResourceOrders, "",
			map[string]any{"error": err.Error()}))
		if de, ok := model.AsDomainError(err); ok {
			return nil, de
		}
		return nil, model.ErrOrderCreationFailed
	}

	s.audit.Record(ctx, audit.Entry(actor, "CREATE_ORDER_SUCCESS", audit.ResourceOrders, strconv.FormatInt(resp.OrderID, 10),
		map[string]any{
			"total_bruto":         resp.GrossTotal,
			"desconto_assinatura": resp.SubscriptionDiscount,
			"desconto_cashback":   resp.CashbackDiscount,
			"total_final":         resp.NetTotal,
		}))

	return resp, nil
}

func (s *orderService) placeInTx(ctx context.Context, actor *model.Actor, req *model.OrderRequest, lines []pricing.LineItem) (resp *model.PlaceOrderResponse, err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	available, found, err := s.userRepo.GetCashbackForUpdate(ctx, tx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cashback balance: %w", err)
	}
	if !found {
		s.logger.Warn().Str("user_id", actor.UserID.String()).Msg("session refers to a missing account")
		err = model.ErrUnauthenticated
		return nil, err
	}

	eligible, err := s.orderRepo.HasRecentSubscription(ctx, tx, actor.UserID, s.now().Add(-SubscriptionWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to check subscription: %w", err)
	}

	breakdown, err := pricing.Calculate(lines, eligible, available)
	if err != nil {
		return nil, err
	}
	breakdown = breakdown.Round(pricing.MoneyPlaces)

	order := &model.Order{
		UserID:               actor.UserID,
		Status:               model.StatusCreated,
		Obs:                  pricing.Observation(req.Obs, breakdown),
		Address:              req.Address,
		GrossTotal:           breakdown.Gross,
		DiscountTotal:        breakdown.TotalDiscount,
		NetTotal:             breakdown.Net,
		SubscriptionDiscount: breakdown.SubscriptionDiscount,
		CashbackDiscount:     breakdown.CashbackDiscount,
	}

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	items := make([]model.OrderItem, len(lines))
	for i, line := range lines {
		items[i] = model.OrderItem{
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		}
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}

	if err = s.userRepo.SetCashback(ctx, tx, actor.UserID, breakdown.CashbackRemaining); err != nil {
		return nil, fmt.Errorf("failed to update cashback balance: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("order_id", order.ID).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	s.logger.Info().
		Int64("order_id", order.ID).
		Str("user_id", actor.UserID.String()).
		Int("item_count", len(items)).
		Bool("subscription", eligible).
		Str("net_total", breakdown.Net.String()).
		Msg("order placed successfully")

	return &model.PlaceOrderResponse{
		Message:              "Pedido criado com sucesso",
		OrderID:              order.ID,
		GrossTotal:           breakdown.Gross,
		SubscriptionDiscount: breakdown.SubscriptionDiscount,
		CashbackDiscount:     breakdown.CashbackDiscount,
		NetTotal:             breakdown.Net,
	}, nil
}

// resolveLineItems validates the requested items and determines their unit
// prices. Every referenced product must exist; in catalog mode it must also
// be active and its current price replaces the declared one.
func (s *orderService) resolveLineItems(ctx context.Context, reqItems []model.OrderItemRequest) ([]pricing.LineItem, error) {
	catalogPricing := s.pricingMode == config.PricingCatalog

	lines := make([]pricing.LineItem, len(reqItems))
	ids := make([]int64, 0, len(reqItems))
	seen := make(map[int64]bool, len(reqItems))

	for i, item := range reqItems {
		line := pricing.LineItem{ProductID: item.ProductID, Quantity: item.Quantity}
		if !catalogPricing {
			if item.Price == nil {
				return nil, fmt.Errorf("item %d: missing price: %w", i, model.ErrInvalidLineItem)
			}
			if item.Price.IsNegative() {
				return nil, fmt.Errorf("item %d: negative price: %w", i, model.ErrInvalidLineItem)
			}
			line.UnitPrice = item.Price.Round(pricing.MoneyPlaces)
		}
		if err := pricing.Validate(line); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}

		lines[i] = line
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Int("product_count", len(ids)).Msg("failed to load order products")
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	byID := make(map[int64]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for i := range lines {
		product, ok := byID[lines[i].ProductID]
		if !ok {
			return nil, fmt.Errorf("item %d: unknown product %d: %w", i, lines[i].ProductID, model.ErrInvalidLineItem)
		}
		if catalogPricing {
			if !product.Active {
				return nil, fmt.Errorf("item %d: inactive product %d: %w", i, product.ID, model.ErrInvalidLineItem)
			}
			lines[i].UnitPrice = product.Price
		}
	}

	return lines, nil
}

// ListOrders returns the actor's own orders, or all orders for administrators.
func (s *orderService) ListOrders(ctx context.Context, actor *model.Actor) ([]model.Order, error) {
	if actor == nil {
		s.audit.Record(ctx, audit.Entry(nil, "LIST_ORDERS_UNAUTHORIZED", audit.ResourceOrders, "", nil))
		return nil, model.ErrUnauthenticated
	}

	owner := &actor.UserID
	if actor.IsAdmin() {
		owner = nil
	}

	orders, err := s.orderRepo.List(ctx, owner)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", actor.UserID.String()).Msg("failed to list orders")
		s.audit.Record(ctx, audit.Entry(actor, "LIST_ORDERS_ERROR", audit.ResourceOrders, "",
			map[string]any{"error": err.Error()}))
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	s.audit.Record(ctx, audit.Entry(actor, "LIST_ORDERS_SUCCESS", audit.ResourceOrders, "",
		map[string]any{"total": len(orders), "actorRole": actor.Role}))

	return orders, nil
}

// GetOrder retrieves an order with its items. A missing order is reported
// before ownership is checked.
func (s *orderService) GetOrder(ctx context.Context, actor *model.Actor, id int64) (*model.OrderDetail, error) {
	if actor == nil {
		return nil, model.ErrUnauthenticated
	}
	resourceID := strconv.FormatInt(id, 10)

	detail, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("order_id", id).Msg("failed to get order")
		s.audit.Record(ctx, audit.Entry(actor, "GET_ORDER_ERROR", audit.ResourceOrders, resourceID,
			map[string]any{"error": err.Error()}))
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if detail == nil {
		s.audit.Record(ctx, audit.Entry(actor, "GET_ORDER_NOT_FOUND", audit.ResourceOrders, resourceID, nil))
		return nil, model.ErrOrderNotFound
	}

	if !actor.IsAdmin() && detail.UserID != actor.UserID {
		s.logger.Warn().
			Int64("order_id", id).
			Str("user_id", actor.UserID.String()).
			Msg("order access denied")
		s.audit.Record(ctx, audit.Entry(actor, "GET_ORDER_FORBIDDEN", audit.ResourceOrders, resourceID, nil))
		return nil, errOrderAccessDenied
	}

	s.audit.Record(ctx, audit.Entry(actor, "GET_ORDER_SUCCESS", audit.ResourceOrders, resourceID,
		map[string]any{"total_itens": len(detail.Items)}))

	return detail, nil
}

// UpdateOrder applies an administrative patch. Status changes out of a
// terminal status are rejected; obs and feedback stay editable. The owner is
// credited once, the first time the order ends up PAGO.
func (s *orderService) UpdateOrder(ctx context.Context, actor *model.Actor, id int64, patch model.OrderPatch) error {
	resourceID := strconv.FormatInt(id, 10)

	if !actor.IsAdmin() {
		s.audit.Record(ctx, audit.Entry(actor, "UPDATE_ORDER_FORBIDDEN", audit.ResourceOrders, resourceID, nil))
		return errOrderAdminOnly
	}

	patch = patch.Normalize()
	if patch.Status != nil && !patch.Status.Valid() {
		s.audit.Record(ctx, audit.Entry(actor, "UPDATE_ORDER_INVALID_STATUS", audit.ResourceOrders, resourceID,
			map[string]any{"status": *patch.Status}))
		return model.ErrInvalidStatus
	}

	if patch.IsEmpty() {
		return model.ErrNothingToUpdate
	}

	credited, err := s.applyInTx(ctx, id, patch)
	if err != nil {
		if de, ok := model.AsDomainError(err); ok {
			action := "UPDATE_ORDER_REJECTED"
			if de == model.ErrOrderNotFound {
				action = "UPDATE_ORDER_NOT_FOUND"
			}
			s.audit.Record(ctx, audit.Entry(actor, action, audit.ResourceOrders, resourceID,
				map[string]any{"error": de.Message}))
			return de
		}
		s.audit.Record(ctx, audit.Entry(actor, "UPDATE_ORDER_ERROR", audit.ResourceOrders, resourceID,
			map[string]any{"error": err.Error()}))
		return fmt.Errorf("failed to update order: %w", err)
	}

	details := map[string]any{"cashback_creditado": credited}
	if patch.Status != nil {
		details["status"] = *patch.Status
	}
	if patch.Obs != nil {
		details["obs"] = *patch.Obs
	}
	if patch.Feedback != nil {
		details["feedback"] = *patch.Feedback
	}
	s.audit.Record(ctx, audit.Entry(actor, "UPDATE_ORDER_SUCCESS", audit.ResourceOrders, resourceID, details))

	return nil
}

// applyInTx locks the order, applies the patch and credits cashback when due.
// It reports whether cashback was credited.
func (s *orderService) applyInTx(ctx context.Context, id int64, patch model.OrderPatch) (credited bool, err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return false, err
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order, err := s.orderRepo.LockByID(ctx, tx, id)
	if err != nil {
		return false, err
	}
	if order == nil {
		err = model.ErrOrderNotFound
		return false, err
	}

	next := order.Status
	if patch.Status != nil {
		if order.Status.Terminal() && *patch.Status != order.Status {
			s.logger.Warn().
				Int64("order_id", id).
				Str("status", string(order.Status)).
				Str("requested", string(*patch.Status)).
				Msg("status change on finalized order rejected")
			err = model.ErrOrderFinalized
			return false, err
		}
		next = *patch.Status
	}

	credit := next == model.StatusPaid && !order.CashbackCredited
	if credit {
		amount := pricing.Accrual(order.NetTotal)
		if err = s.userRepo.AddCashback(ctx, tx, order.UserID, amount); err != nil {
			return false, err
		}
	}

	if err = s.orderRepo.ApplyPatch(ctx, tx, id, patch, credit); err != nil {
		return false, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("order_id", id).Msg("failed to commit transaction")
		return false, err
	}

	s.logger.Info().
		Int64("order_id", id).
		Str("status", string(next)).
		Bool("cashback_credited", credit).
		Msg("order updated successfully")

	return credit, nil
}
