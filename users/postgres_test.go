//go:build integration

package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgres(t *testing.T) *PostgresStore {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("tokengate_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, Migrate(ctx, dsn))
	// A second run is a no-op.
	require.NoError(t, Migrate(ctx, dsn))

	store, err := NewPostgresStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()
	s := setupPostgres(t)

	require.NoError(t, s.Ping(ctx))

	u := &User{Username: "alice", PasswordHash: "h1", Role: DefaultRole}
	require.NoError(t, s.Create(ctx, u))
	assert.NotEmpty(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	assert.ErrorIs(t, s.Create(ctx, &User{Username: "alice", PasswordHash: "h", Role: DefaultRole}), ErrUserExists)

	exists, err := s.ExistsByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.ExistsByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.UpdatePasswordHash(ctx, "alice", "h2"))
	got, err := s.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "h2", got.PasswordHash)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.GetByUsername(ctx, "bob")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, s.UpdatePasswordHash(ctx, "bob", "x"), ErrUserNotFound)
}

func TestPostgresVerifier(t *testing.T) {
	ctx := context.Background()
	s := setupPostgres(t)
	h := testHasher(t)

	_, err := NewRegistrar(s, h).Register(ctx, JoinRequest{Username: "alice", Password: "correct-password-123"})
	require.NoError(t, err)

	v, err := NewVerifier(s, h)
	require.NoError(t, err)
	id, err := v.Verify(ctx, "alice", "correct-password-123")
	require.NoError(t, err)
	assert.Equal(t, DefaultRole, id.Role)
}
