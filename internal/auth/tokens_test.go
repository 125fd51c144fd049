package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/dulces-mila/mila-backend/internal/shared"
)

func newTestStore(t *testing.T) (*TokenStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewTokenStore(client, time.Hour), mr
}

func TestIssueAndResolve(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	token, err := store.Issue(ctx, shared.Identity{UserID: 7, Email: "mila@dulcesmila.cl", Role: "CLIENTE"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	identity, err := store.Resolve(ctx, token)
	require.NoError(t, err)
	require.Equal(t, int64(7), identity.UserID)
	require.Equal(t, "mila@dulcesmila.cl", identity.Email)
	require.Equal(t, "CLIENTE", identity.Role)
}

func TestResolveUnknownToken(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Resolve(context.Background(), "does-not-exist")
	require.ErrorIs(t, err, ErrTokenInvalid)

	_, err = store.Resolve(context.Background(), "")
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestResolveExpiredToken(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	token, err := store.Issue(ctx, shared.Identity{UserID: 1, Email: "a@b.cl", Role: "CLIENTE"})
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	_, err = store.Resolve(ctx, token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRevoke(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	token, err := store.Issue(ctx, shared.Identity{UserID: 2, Email: "c@d.cl", Role: "ADMIN"})
	require.NoError(t, err)

	require.NoError(t, store.Revoke(ctx, token))
	_, err = store.Resolve(ctx, token)
	require.ErrorIs(t, err, ErrTokenInvalid)

	// Revoking again is a no-op.
	require.NoError(t, store.Revoke(ctx, token))
}
