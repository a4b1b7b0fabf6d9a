package repository

import (
	"context"
	"errors"
	"fmt"

	"coffee-on/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

const productColumns = `id, nome, descricao, preco, estoque, ativo, categoria, slug, imagem, created_at, updated_at`

func scanProduct(row pgx.Row, p *model.Product) error {
	return row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Active,
		&p.Category, &p.Slug, &p.Image, &p.CreatedAt, &p.UpdatedAt,
	)
}

func (r *productRepository) collect(rows pgx.Rows) ([]model.Product, error) {
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// GetAll retrieves products with pagination support.
func (r *productRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM produtos
		ORDER BY nome, id
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	return r.collect(rows)
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM produtos WHERE id = $1`

	var p model.Product
	if err := scanProduct(r.pool.QueryRow(ctx, query, id), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

// GetByIDs retrieves multiple products by their IDs.
func (r *productRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query := `SELECT ` + productColumns + ` FROM produtos WHERE id = ANY($1) ORDER BY id`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query products by IDs")
		return nil, fmt.Errorf("failed to query products by IDs: %w", err)
	}

	return r.collect(rows)
}

func (r *productRepository) SlugsWithPrefix(ctx context.Context, base string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT slug FROM produtos WHERE slug = $1 OR slug LIKE $1 || '-%'`, base)
	if err != nil {
		r.logger.Error().Err(err).Str("slug", base).Msg("failed to query slugs")
		return nil, fmt.Errorf("failed to query slugs: %w", err)
	}

	slugs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect slugs: %w", err)
	}
	return slugs, nil
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	query := `
		INSERT INTO produtos (nome, descricao, preco, estoque, ativo, categoria, slug, imagem)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		product.Name, product.Description, product.Price, product.Stock,
		product.Active, product.Category, product.Slug, product.Image,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.NewDomainError(model.ErrCodeConflict, "Slug já utilizado")
		}
		r.logger.Error().Err(err).Str("slug", product.Slug).Msg("failed to create product")
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

func (r *productRepository) Update(ctx context.Context, id int64, patch model.ProductPatch) (bool, error) {
	query := `
		UPDATE produtos
		SET nome = COALESCE($2, nome),
		    descricao = COALESCE($3, descricao),
		    preco = COALESCE($4, preco),
		    estoque = COALESCE($5, estoque),
		    ativo = COALESCE($6, ativo),
		    categoria = COALESCE($7, categoria),
		    imagem = COALESCE($8, imagem),
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id,
		patch.Name, patch.Description, patch.Price, patch.Stock,
		patch.Active, patch.Category, patch.Image,
	)
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to update product")
		return false, fmt.Errorf("failed to update product: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *productRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM produtos WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return true, model.ErrProductInUse
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to delete product")
		return false, fmt.Errorf("failed to delete product: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// UpsertBySlug relies on xmax being zero only for freshly inserted rows.
func (r *productRepository) UpsertBySlug(ctx context.Context, product *model.Product) (bool, error) {
	query := `
		INSERT INTO produtos (nome, descricao, preco, estoque, ativo, categoria, slug, imagem)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (slug) DO UPDATE
		SET nome = EXCLUDED.nome,
		    descricao = EXCLUDED.descricao,
		    preco = EXCLUDED.preco,
		    estoque = EXCLUDED.estoque,
		    ativo = EXCLUDED.ativo,
		    categoria = EXCLUDED.categoria,
		    imagem = EXCLUDED.imagem,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at, (xmax = 0)
	`

	var inserted bool
	err := r.pool.QueryRow(ctx, query,
		product.Name, product.Description, product.Price, product.Stock,
		product.Active, product.Category, product.Slug, product.Image,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt, &inserted)
	if err != nil {
		r.logger.Error().Err(err).Str("slug", product.Slug).Msg("failed to upsert product")
		return false, fmt.Errorf("failed to upsert product: %w", err)
	}

	return inserted, nil
}
