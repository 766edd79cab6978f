package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogadmin/storage"
	"blogadmin/storage/memory"
)

func TestSeed(t *testing.T) {
	ctx := context.Background()

	t.Run("fills an empty store", func(t *testing.T) {
		store := memory.New()
		require.NoError(t, storage.Seed(ctx, store))

		counts, err := store.Counts(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, counts.Total)
		assert.Positive(t, counts.Published)
		assert.Positive(t, counts.Draft)
		assert.Positive(t, counts.Archived)
	})

	t.Run("does not duplicate on a second run", func(t *testing.T) {
		store := memory.New()
		require.NoError(t, storage.Seed(ctx, store))
		require.NoError(t, storage.Seed(ctx, store))

		counts, err := store.Counts(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, counts.Total)
	})
}
