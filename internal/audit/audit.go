// Package audit records administrative and security relevant actions.
// Recording is best effort: failures are logged and never reach the caller.
package audit

import (
	"context"
	"time"

	"coffee-on/internal/model"
	"coffee-on/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Resources named in audit entries.
const (
	ResourceOrders   = "pedidos"
	ResourceUsers    = "usuarios"
	ResourceProducts = "produtos"
	ResourceAuth     = "auth"
)

const writeTimeout = 3 * time.Second

// RequestInfo identifies the client behind a request.
type RequestInfo struct {
	IP        string
	UserAgent string
}

type requestInfoKey struct{}

// WithRequestInfo returns a context carrying info.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFrom returns the request info stored in ctx, if any.
func RequestInfoFrom(ctx context.Context) RequestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info
}

// Recorder writes audit entries.
type Recorder interface {
	Record(ctx context.Context, entry model.AuditEntry)
}

type recorder struct {
	repo   repository.AuditRepository
	logger zerolog.Logger
}

// NewRecorder creates a Recorder persisting to repo.
func NewRecorder(repo repository.AuditRepository, logger zerolog.Logger) Recorder {
	return &recorder{
		repo:   repo,
		logger: logger.With().Str("component", "audit").Logger(),
	}
}

// Record fills in client details from ctx and writes the entry. The write
// outlives cancellation of ctx but is bounded by its own timeout.
func (r *recorder) Record(ctx context.Context, entry model.AuditEntry) {
	info := RequestInfoFrom(ctx)
	if entry.IP == "" {
		entry.IP = info.IP
	}
	if entry.UserAgent == "" {
		entry.UserAgent = info.UserAgent
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	if err := r.repo.Insert(writeCtx, entry); err != nil {
		r.logger.Error().
			Err(err).
			Str("action", entry.Action).
			Str("resource", entry.Resource).
			Str("resource_id", entry.ResourceID).
			Msg("failed to record audit entry")
	}
}

// Entry builds an entry for the given actor. A nil actor leaves the user unset.
func Entry(actor *model.Actor, action, resource, resourceID string, details map[string]any) model.AuditEntry {
	var userID *uuid.UUID
	if actor != nil {
		id := actor.UserID
		userID = &id
	}
	return model.AuditEntry{
		UserID:     userID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    details,
	}
}
