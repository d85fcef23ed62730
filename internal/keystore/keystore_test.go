package keystore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/iudanet/journalsync/internal/crypto"
)

const testPassphrase = "correct horse battery staple"

func setupStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keys.db")
	store, err := New(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store, path
}

func TestNew_CreatesBucket(t *testing.T) {
	store, path := setupStore(t)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.False(t, info.IsDir())

	err = store.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketKeys) == nil {
			return os.ErrNotExist
		}
		return nil
	})
	require.NoError(t, err)
}

func TestUnlock_FirstUseInitializes(t *testing.T) {
	ctx := context.Background()
	store, _ := setupStore(t)

	ok, err := store.Initialized(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.CreatedAt(ctx)
	require.ErrorIs(t, err, ErrNotInitialized)

	key, err := store.Unlock(ctx, testPassphrase)
	require.NoError(t, err)
	assert.Len(t, key, crypto.KeySize)

	ok, err = store.Initialized(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	created, err := store.CreatedAt(ctx)
	require.NoError(t, err)
	assert.False(t, created.IsZero())
}

func TestUnlock_SameKeyAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "keys.db")

	store, err := New(ctx, path)
	require.NoError(t, err)
	first, err := store.Unlock(ctx, testPassphrase)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = New(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	second, err := store.Unlock(ctx, testPassphrase)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestUnlock_WrongPassphrase(t *testing.T) {
	ctx := context.Background()
	store, _ := setupStore(t)

	_, err := store.Unlock(ctx, testPassphrase)
	require.NoError(t, err)

	_, err = store.Unlock(ctx, "a different passphrase")
	require.ErrorIs(t, err, ErrWrongPassphrase)
}

func TestUnlock_WeakPassphraseOnInit(t *testing.T) {
	ctx := context.Background()
	store, _ := setupStore(t)

	_, err := store.Unlock(ctx, "short")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 12")

	ok, err := store.Initialized(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "failed init must not persist a salt")

	_, err = store.Unlock(ctx, "")
	require.Error(t, err)
}

func TestUnlock_DistinctInstallsDistinctKeys(t *testing.T) {
	ctx := context.Background()
	a, _ := setupStore(t)
	b, _ := setupStore(t)

	ka, err := a.Unlock(ctx, testPassphrase)
	require.NoError(t, err)
	kb, err := b.Unlock(ctx, testPassphrase)
	require.NoError(t, err)

	assert.NotEqual(t, ka, kb, "per-install salt must differ")
}
