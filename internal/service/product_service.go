package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"coffee-on/internal/audit"
	"coffee-on/internal/model"
	"coffee-on/internal/repository"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog"
)

const (
	defaultProductLimit = 10
	maxProductLimit     = 100
	fallbackSlug        = "produto"
	slugAttempts        = 3
)

var (
	errProductAdminOnly   = model.NewDomainError(model.ErrCodeForbidden, "Apenas administradores podem gerenciar produtos.")
	errProductRequired    = model.NewInvalidInputError("Nome e preço são obrigatórios.")
	errProductNegative    = model.NewInvalidInputError("Preço e estoque não podem ser negativos.")
	errProductEmptyName   = model.NewInvalidInputError("Nome não pode ser vazio.")
	errProductNothingToDo = model.NewDomainError(model.ErrCodeNothingToUpdate, "Nada para atualizar")
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	audit       audit.Recorder
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, recorder audit.Recorder, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		audit:       recorder,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// GetAll retrieves all products with pagination.
func (s *productService) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	if limit <= 0 {
		limit = defaultProductLimit
	}
	if limit > maxProductLimit {
		limit = maxProductLimit
	}
	if offset < 0 {
		offset = 0
	}

	products, err := s.productRepo.GetAll(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to get all products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("limit", limit).
		Int("offset", offset).
		Msg("retrieved products")

	return products, nil
}

// GetByID retrieves a single product by ID.
func (s *productService) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	if id <= 0 {
		s.logger.Warn().Int64("product_id", id).Msg("invalid product ID")
		return nil, model.ErrProductNotFound
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Int64("product_id", id).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

// Create validates the request and inserts the product under a slug derived
// from its name, suffixed with -1, -2, ... when already taken.
func (s *productService) Create(ctx context.Context, actor *model.Actor, req *model.CreateProductRequest) (*model.Product, error) {
	if !actor.IsAdmin() {
		s.audit.Record(ctx, audit.Entry(actor, "CREATE_PRODUCT_FORBIDDEN", audit.ResourceProducts, "", nil))
		return nil, errProductAdminOnly
	}

	if req == nil || strings.TrimSpace(req.Name) == "" || req.Price == nil {
		s.audit.Record(ctx, audit.Entry(actor, "CREATE_PRODUCT_INVALID", audit.ResourceProducts, "", nil))
		return nil, errProductRequired
	}

	if req.Price.IsNegative() || req.Stock < 0 {
		s.audit.Record(ctx, audit.Entry(actor, "CREATE_PRODUCT_NEGATIVE_VALUES", audit.ResourceProducts, "",
			map[string]any{"preco": *req.Price, "estoque": req.Stock}))
		return nil, errProductNegative
	}

	product := &model.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       *req.Price,
		Stock:       req.Stock,
		Active:      true,
		Category:    strings.ToUpper(strings.TrimSpace(req.Category)),
		Image:       req.Image,
	}
	if req.Active != nil {
		product.Active = *req.Active
	}

	var err error
	for attempt := 0; attempt < slugAttempts; attempt++ {
		product.Slug, err = s.uniqueSlug(ctx, product.Name)
		if err != nil {
			break
		}
		err = s.productRepo.Create(ctx, product)
		if de, ok := model.AsDomainError(err); ok && de.Code == model.ErrCodeConflict {
			s.logger.Debug().Str("slug", product.Slug).Msg("slug taken concurrently, retrying")
			continue
		}
		break
	}
	if err != nil {
		s.audit.Record(ctx, audit.Entry(actor, "CREATE_PRODUCT_ERROR", audit.ResourceProducts, "",
			map[string]any{"error": err.Error()}))
		if de, ok := model.AsDomainError(err); ok {
			return nil, de
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.audit.Record(ctx, audit.Entry(actor, "CREATE_PRODUCT_SUCCESS", audit.ResourceProducts, product.Slug,
		map[string]any{"nome": product.Name, "preco": product.Price, "estoque": product.Stock, "ativo": product.Active}))

	s.logger.Info().
		Int64("product_id", product.ID).
		Str("slug", product.Slug).
		Msg("product created successfully")

	return product, nil
}

// uniqueSlug returns the first free slug among base, base-1, base-2, ...
func (s *productService) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = fallbackSlug
	}

	existing, err := s.productRepo.SlugsWithPrefix(ctx, base)
	if err != nil {
		return "", fmt.Errorf("failed to check slug: %w", err)
	}

	taken := make(map[string]bool, len(existing))
	for _, sl := range existing {
		taken[sl] = true
	}

	candidate := base
	for n := 1; taken[candidate]; n++ {
		candidate = base + "-" + strconv.Itoa(n)
	}
	return candidate, nil
}

// Update applies a partial update to a product.
func (s *productService) Update(ctx context.Context, actor *model.Actor, id int64, patch model.ProductPatch) error {
	resourceID := strconv.FormatInt(id, 10)

	if !actor.IsAdmin() {
		s.audit.Record(ctx, audit.Entry(actor, "UPDATE_PRODUCT_FORBIDDEN", audit.ResourceProducts, resourceID, nil))
		return errProductAdminOnly
	}

	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return errProductEmptyName
	}
	if patch.Price != nil && patch.Price.IsNegative() {
		s.audit.Record(ctx, audit.Entry(actor, "UPDATE_PRODUCT_INVALID_PRICE", audit.ResourceProducts, resourceID,
			map[string]any{"preco": *patch.Price}))
		return model.NewInvalidInputError("Preço não pode ser negativo.")
	}
	if patch.Stock != nil && *patch.Stock < 0 {
		s.audit.Record(ctx, audit.Entry(actor, "UPDATE_PRODUCT_INVALID_STOCK", audit.ResourceProducts, resourceID,
			map[string]any{"estoque": *patch.Stock}))
		return model.NewInvalidInputError("Estoque não pode ser negativo.")
	}
	if patch.Category != nil {
		category := strings.ToUpper(strings.TrimSpace(*patch.Category))
		patch.Category = &category
	}

	if patch.IsEmpty() {
		return errProductNothingToDo
	}

	found, err := s.productRepo.Update(ctx, id, patch)
	if err != nil {
		s.audit.Record(ctx, audit.Entry(actor, "UPDATE_PRODUCT_ERROR", audit.ResourceProducts, resourceID,
			map[string]any{"error": err.Error()}))
		return fmt.Errorf("failed to update product: %w", err)
	}
	if !found {
		s.audit.Record(ctx, audit.Entry(actor, "UPDATE_PRODUCT_NOT_FOUND", audit.ResourceProducts, resourceID, nil))
		return model.ErrProductNotFound
	}

	s.audit.Record(ctx, audit.Entry(actor, "UPDATE_PRODUCT_SUCCESS", audit.ResourceProducts, resourceID, nil))

	return nil
}

// Delete removes a product. Products referenced by orders are kept.
func (s *productService) Delete(ctx context.Context, actor *model.Actor, id int64) error {
	resourceID := strconv.FormatInt(id, 10)

	if !actor.IsAdmin() {
		s.audit.Record(ctx, audit.Entry(actor, "DELETE_PRODUCT_FORBIDDEN", audit.ResourceProducts, resourceID, nil))
		return errProductAdminOnly
	}

	found, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrProductInUse) {
			s.audit.Record(ctx, audit.Entry(actor, "DELETE_PRODUCT_IN_USE", audit.ResourceProducts, resourceID, nil))
			return model.ErrProductInUse
		}
		s.audit.Record(ctx, audit.Entry(actor, "DELETE_PRODUCT_ERROR", audit.ResourceProducts, resourceID,
			map[string]any{"error": err.Error()}))
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if !found {
		s.audit.Record(ctx, audit.Entry(actor, "DELETE_PRODUCT_NOT_FOUND", audit.ResourceProducts, resourceID, nil))
		return model.ErrProductNotFound
	}

	s.audit.Record(ctx, audit.Entry(actor, "DELETE_PRODUCT_SUCCESS", audit.ResourceProducts, resourceID, nil))

	return nil
}
