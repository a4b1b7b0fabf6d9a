package catalog

import (
	"context"
	"fmt"

	"coffee-on/internal/model"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Result summarises one import run.
type Result struct {
	Inserted int
	Updated  int
	Skipped  int
}

// Importer loads catalog files and upserts their products by slug.
type Importer struct {
	loader Loader
	store  Store
	logger zerolog.Logger
}

// NewImporter creates a new catalog importer.
func NewImporter(loader Loader, store Store, logger zerolog.Logger) *Importer {
	return &Importer{
		loader: loader,
		store:  store,
		logger: logger.With().Str("component", "catalog-importer").Logger(),
	}
}

// Import reads all files concurrently, then writes their entries in file
// order. Any unreadable file aborts the run before anything is written.
func (im *Importer) Import(ctx context.Context, files []string) (Result, error) {
	batches := make([]*Batch, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			batch, err := im.loader.Load(gctx, path)
			if err != nil {
				return fmt.Errorf("failed to load catalog file %s: %w", path, err)
			}
			batches[i] = batch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		im.logger.Error().Err(err).Msg("catalog import aborted")
		return Result{}, err
	}

	var res Result
	for _, batch := range batches {
		res.Skipped += batch.Skipped
		for _, entry := range batch.Entries {
			product := entry.toProduct()
			inserted, err := im.store.UpsertBySlug(ctx, product)
			if err != nil {
				return res, fmt.Errorf("failed to import %q from %s: %w", product.Slug, batch.Source, err)
			}
			if inserted {
				res.Inserted++
			} else {
				res.Updated++
			}
		}
	}

	im.logger.Info().
		Int("files", len(files)).
		Int("inserted", res.Inserted).
		Int("updated", res.Updated).
		Int("skipped", res.Skipped).
		Msg("catalog import finished")

	return res, nil
}

func (e Entry) toProduct() *model.Product {
	active := true
	if e.Active != nil {
		active = *e.Active
	}

	s := e.Slug
	if s == "" {
		s = slug.Make(e.Name)
	}

	return &model.Product{
		Name:        e.Name,
		Description: e.Description,
		Price:       e.Price.Round(2),
		Stock:       e.Stock,
		Active:      active,
		Category:    e.Category,
		Slug:        s,
		Image:       e.Image,
	}
}
