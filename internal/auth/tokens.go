package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/accessd/accessd/internal/platform/httpx"
)

// TokenStore issues and revokes opaque bearer tokens backed by Redis.
// Deleting a token revokes it immediately; expiry is enforced by the
// Redis TTL so no separate revocation list is needed.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

// Issue creates a token mapped to the user id.
func (ts *TokenStore) Issue(ctx context.Context, userID int64) (string, error) {
	token := uuid.NewString()
	if err := ts.client.Set(ctx, ts.key(token), strconv.FormatInt(userID, 10), ts.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve returns the user id a token was issued to.
func (ts *TokenStore) Resolve(ctx context.Context, token string) (int64, error) {
	raw, err := ts.client.Get(ctx, ts.key(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, httpx.ErrUnauthorized
		}
		return 0, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, httpx.ErrUnauthorized
	}
	return id, nil
}

// Revoke deletes a token. Revoking an unknown token is a no-op.
func (ts *TokenStore) Revoke(ctx context.Context, token string) error {
	err := ts.client.Del(ctx, ts.key(token)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// TTL exposes the configured token lifetime.
func (ts *TokenStore) TTL() time.Duration {
	return ts.ttl
}

func (ts *TokenStore) key(token string) string {
	return "auth:token:" + token
}
