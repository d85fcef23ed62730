package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStorage creates an in-memory ledger with migrations applied.
func setupTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestNew_AppliesMigrations(t *testing.T) {
	s := setupTestStorage(t)

	for _, table := range []string{"sync_entries", "sync_log", "backups", "config", "data_types"} {
		var name string
		err := s.DB().QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, "table %s", table)
	}
}

func TestNew_ReopenFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	s, err := New(ctx, path)
	require.NoError(t, err)
	_, err = s.InitConfig(ctx, "local")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = New(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	cfg, err := s.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.ProviderType)
}
