package handler

import (
	"net/http"

	"coffee-on/internal/middleware"
	"coffee-on/internal/model"
	"coffee-on/internal/service"

	"github.com/rs/zerolog"
)

// ProductHandler handles product-related HTTP requests.
type ProductHandler struct {
	service service.ProductService
	logger  zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With().Str("handler", "product").Logger(),
	}
}

// GetAll handles GET /api/produtos requests with pagination.
func (h *ProductHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, model.NewInvalidInputError("Parâmetro limit inválido"), "", h.logger)
		return
	}

	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, model.NewInvalidInputError("Parâmetro offset inválido"), "", h.logger)
		return
	}

	products, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err, "Erro ao listar produtos", h.logger)
		return
	}

	if products == nil {
		products = []model.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

// GetByID handles GET /api/produtos/{id} requests.
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		writeError(w, model.ErrProductNotFound, "", h.logger)
		return
	}

	product, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err, "Erro ao buscar produto", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// Create handles POST /api/produtos requests.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, "", h.logger)
		return
	}

	product, err := h.service.Create(r.Context(), middleware.ActorFrom(r.Context()), &req)
	if err != nil {
		writeError(w, err, "Erro ao criar produto", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, model.CreateProductResponse{
		ID:      product.ID,
		Slug:    product.Slug,
		Message: "Produto criado com sucesso",
	})
}

// Update handles PUT /api/produtos/{id} requests.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		writeError(w, model.ErrProductNotFound, "", h.logger)
		return
	}

	var patch model.ProductPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err, "", h.logger)
		return
	}

	if err := h.service.Update(r.Context(), middleware.ActorFrom(r.Context()), id, patch); err != nil {
		writeError(w, err, "Erro ao atualizar produto", h.logger)
		return
	}

	writeMessage(w, http.StatusOK, "Produto atualizado com sucesso")
}

// Delete handles DELETE /api/produtos/{id} requests.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		writeError(w, model.ErrProductNotFound, "", h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), middleware.ActorFrom(r.Context()), id); err != nil {
		writeError(w, err, "Erro ao remover produto", h.logger)
		return
	}

	writeMessage(w, http.StatusOK, "Produto removido com sucesso")
}
