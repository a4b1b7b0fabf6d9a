package repository

import (
	"context"
	"fmt"

	"coffee-on/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type auditRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewAuditRepository creates a new PostgreSQL-backed audit log repository.
func NewAuditRepository(pool *pgxpool.Pool, logger zerolog.Logger) AuditRepository {
	return &auditRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "audit").Logger(),
	}
}

func (r *auditRepository) Insert(ctx context.Context, entry model.AuditEntry) error {
	query := `
		INSERT INTO admin_logs (usuario_id, action, resource, resource_id, details, ip, user_agent)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''), NULLIF($7, ''))
	`

	var details any
	if len(entry.Details) > 0 {
		details = entry.Details
	}

	_, err := r.pool.Exec(ctx, query,
		entry.UserID,
		entry.Action,
		entry.Resource,
		entry.ResourceID,
		details,
		entry.IP,
		entry.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	return nil
}
