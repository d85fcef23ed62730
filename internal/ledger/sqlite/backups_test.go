package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/journalsync/internal/ledger"
	"github.com/iudanet/journalsync/internal/models"
)

func TestBackups(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 3 {
		rec := &models.BackupRecord{
			Timestamp:         base.Add(time.Duration(i) * time.Hour),
			RemoteArchivePath: fmt.Sprintf("backups/b%d", i),
			TotalSize:         int64(100 * i),
			FileCount:         i,
			Status:            models.BackupComplete,
			Encrypted:         i%2 == 0,
		}
		require.NoError(t, s.AppendBackup(ctx, rec))
		assert.NotZero(t, rec.ID)
	}

	all, err := s.ListBackups(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "backups/b2", all[0].RemoteArchivePath, "newest first")
	assert.True(t, all[0].Encrypted)
	assert.Equal(t, int64(200), all[0].TotalSize)
	assert.True(t, base.Add(2*time.Hour).Equal(all[0].Timestamp))

	page, err := s.ListBackups(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "backups/b1", page[0].RemoteArchivePath)

	require.NoError(t, s.DeleteBackup(ctx, all[2].ID))
	require.ErrorIs(t, s.DeleteBackup(ctx, all[2].ID), ledger.ErrBackupNotFound)

	all, err = s.ListBackups(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAppendBackup_DuplicatePath(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	rec := &models.BackupRecord{Timestamp: time.Now(), RemoteArchivePath: "backups/x", Status: models.BackupPartial}
	require.NoError(t, s.AppendBackup(ctx, rec))

	dup := *rec
	require.Error(t, s.AppendBackup(ctx, &dup))
}
