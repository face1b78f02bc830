//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantiq/esgpilot/internal/domain"
	"github.com/verdantiq/esgpilot/internal/testutil"
)

func TestAPIKeyRepository_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewAPIKeyRepository(pool)

	key := &domain.APIKey{
		ID:        uuid.NewString(),
		Name:      "ci-key",
		KeyHash:   "deadbeef",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, repo.Create(ctx, key))

	byID, err := repo.GetByID(ctx, key.ID)
	require.NoError(t, err)
	assert.Equal(t, "ci-key", byID.Name)
	assert.Nil(t, byID.RevokedAt)

	byHash, err := repo.GetByHash(ctx, "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, key.ID, byHash.ID)

	_, err = repo.GetByHash(ctx, "unknown-hash")
	assert.ErrorIs(t, err, domain.ErrAPIKeyNotFound)
}

func TestAPIKeyRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewAPIKeyRepository(pool)

	base := time.Now().UTC().Truncate(time.Microsecond)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &domain.APIKey{
			ID:        uuid.NewString(),
			Name:      fmt.Sprintf("key-%d", i),
			KeyHash:   fmt.Sprintf("hash-%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	keys, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 3)
	assert.Equal(t, "key-2", keys[0].Name)
	assert.Equal(t, "key-0", keys[2].Name)
}

func TestAPIKeyRepository_Revoke(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewAPIKeyRepository(pool)

	key := &domain.APIKey{
		ID:        uuid.NewString(),
		Name:      "to-revoke",
		KeyHash:   "cafef00d",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, repo.Create(ctx, key))

	require.NoError(t, repo.Revoke(ctx, key.ID))

	revoked, err := repo.GetByID(ctx, key.ID)
	require.NoError(t, err)
	require.NotNil(t, revoked.RevokedAt)

	// Revoking twice, or revoking a missing key, fails the same way.
	assert.ErrorIs(t, repo.Revoke(ctx, key.ID), domain.ErrAPIKeyNotFound)
	assert.ErrorIs(t, repo.Revoke(ctx, uuid.NewString()), domain.ErrAPIKeyNotFound)
}
