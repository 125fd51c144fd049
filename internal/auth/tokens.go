// Package auth implements the authentication boundary: credential checks,
// opaque bearer tokens backed by Redis, and the middleware that resolves a
// request to an authenticated identity.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dulces-mila/mila-backend/internal/shared"
)

const tokenKeyPrefix = "mila:token:"

// ErrTokenInvalid indicates an unknown or expired bearer token.
var ErrTokenInvalid = errors.New("auth: invalid token")

// TokenStore issues and resolves opaque bearer tokens kept in Redis.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

type tokenPayload struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// Issue creates a fresh token for the identity and stores it with the
// configured TTL.
func (s *TokenStore) Issue(ctx context.Context, id shared.Identity) (string, error) {
	token := uuid.NewString()
	payload, err := json.Marshal(tokenPayload{UserID: id.UserID, Email: id.Email, Role: id.Role})
	if err != nil {
		return "", fmt.Errorf("auth: marshal token payload: %w", err)
	}
	if err := s.client.Set(ctx, tokenKeyPrefix+token, payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("auth: store token: %w", err)
	}
	return token, nil
}

// Resolve maps a bearer token back to the identity it was issued for.
func (s *TokenStore) Resolve(ctx context.Context, token string) (*shared.Identity, error) {
	if token == "" {
		return nil, ErrTokenInvalid
	}
	raw, err := s.client.Get(ctx, tokenKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("auth: resolve token: %w", err)
	}
	var payload tokenPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("auth: decode token payload: %w", err)
	}
	return &shared.Identity{UserID: payload.UserID, Email: payload.Email, Role: payload.Role}, nil
}

// Revoke deletes a token. Revoking an unknown token is not an error.
func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.client.Del(ctx, tokenKeyPrefix+token).Err()
}
