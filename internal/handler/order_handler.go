package handler

import (
	"net/http"

	"coffee-on/internal/middleware"
	"coffee-on/internal/model"
	"coffee-on/internal/service"

	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /pedidos requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.OrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, "", h.logger)
		return
	}

	resp, err := h.service.PlaceOrder(r.Context(), middleware.ActorFrom(r.Context()), &req)
	if err != nil {
		writeError(w, err, model.ErrOrderCreationFailed.Message, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /pedidos requests.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context(), middleware.ActorFrom(r.Context()))
	if err != nil {
		writeError(w, err, "Erro ao listar pedidos", h.logger)
		return
	}

	if orders == nil {
		orders = []model.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// GetByID handles GET /pedidos/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		writeError(w, model.ErrOrderNotFound, "", h.logger)
		return
	}

	order, err := h.service.GetOrder(r.Context(), middleware.ActorFrom(r.Context()), id)
	if err != nil {
		writeError(w, err, "Erro ao buscar pedido", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Update handles PUT /pedidos/{id} requests.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		writeError(w, model.ErrOrderNotFound, "", h.logger)
		return
	}

	var patch model.OrderPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err, "", h.logger)
		return
	}

	if err := h.service.UpdateOrder(r.Context(), middleware.ActorFrom(r.Context()), id, patch); err != nil {
		writeError(w, err, "Erro ao atualizar pedido", h.logger)
		return
	}

	writeMessage(w, http.StatusOK, "Pedido atualizado com sucesso.")
}
