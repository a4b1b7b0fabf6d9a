// Package session stores authenticated sessions outside the process so any
// instance of the API can resolve a session cookie.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"coffee-on/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Session is the state bound to a session token.
type Session struct {
	UserID    uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
}

// Actor converts the session into the caller identity used by services.
func (s *Session) Actor() *model.Actor {
	return &model.Actor{UserID: s.UserID, Email: s.Email, Role: s.Role}
}

// Store is the session lookup capability.
type Store interface {
	// Get returns the session for token, or nil when it is unknown or expired.
	Get(ctx context.Context, token string) (*Session, error)

	// Set stores the session under token for ttl.
	Set(ctx context.Context, token string, s Session, ttl time.Duration) error

	// Delete removes the session. Deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error
}

// NewToken returns a fresh opaque session token.
func NewToken() string {
	return uuid.NewString()
}

const keyPrefix = "coffee-on:session:"

type redisStore struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisStore creates a Store backed by Redis.
func NewRedisStore(client *redis.Client, logger zerolog.Logger) Store {
	return &redisStore{
		client: client,
		logger: logger.With().Str("component", "session-store").Logger(),
	}
}

func (r *redisStore) key(token string) string {
	return keyPrefix + token
}

func (r *redisStore) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, nil
	}

	raw, err := r.client.Get(ctx, r.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to read session")
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		r.logger.Warn().Err(err).Msg("discarding corrupt session")
		return nil, nil
	}

	return &s, nil
}

func (r *redisStore) Set(ctx context.Context, token string, s Session, ttl time.Duration) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := r.client.Set(ctx, r.key(token), raw, ttl).Err(); err != nil {
		r.logger.Error().Err(err).Msg("failed to store session")
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}

func (r *redisStore) Delete(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, r.key(token)).Err(); err != nil {
		r.logger.Error().Err(err).Msg("failed to delete session")
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
