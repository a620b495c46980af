package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound signals an absent or revoked session.
var ErrSessionNotFound = errors.New("session not found")

const sessionKeyPrefix = "admin_session:"

// SessionRepository stores admin console sessions in Redis. A session exists
// while its key is present; logout deletes the key and revokes the token
// immediately.
type SessionRepository struct {
	client *redis.Client
}

// NewSessionRepository creates a new instance of SessionRepository.
func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

// Save records a session id with its admin and a TTL.
func (r *SessionRepository) Save(ctx context.Context, sessionID, adminID string, ttl time.Duration) error {
	if err := r.client.Set(ctx, sessionKeyPrefix+sessionID, adminID, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get returns the admin id bound to the session.
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (string, error) {
	adminID, err := r.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrSessionNotFound
		}
		return "", fmt.Errorf("get session: %w", err)
	}
	return adminID, nil
}

// Delete revokes the session.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
