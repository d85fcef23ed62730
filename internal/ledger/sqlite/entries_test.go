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

func newEntry(path, dataType string) *models.SyncEntry {
	return &models.SyncEntry{
		LocalPath:  path,
		RemotePath: "journal/" + path,
		Status:     models.StatusPending,
		Direction:  models.DirectionBidirectional,
		DataType:   dataType,
	}
}

func TestUpsertAndGetEntry(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	now := time.Now().UTC()
	res := models.ResolutionRemote
	entry := &models.SyncEntry{
		LocalPath:      "/data/a.png",
		RemotePath:     "journal/a.png",
		LocalModified:  &now,
		RemoteModified: &now,
		LastSync:       &now,
		Status:         models.StatusSynced,
		Direction:      models.DirectionUpload,
		DataType:       "screenshots",
		Size:           1234,
		Compressed:     true,
		Resolution:     &res,
	}
	require.NoError(t, s.UpsertEntry(ctx, entry))

	got, err := s.GetEntry(ctx, "/data/a.png")
	require.NoError(t, err)
	assert.Equal(t, entry.RemotePath, got.RemotePath)
	assert.Equal(t, entry.Status, got.Status)
	assert.Equal(t, entry.Direction, got.Direction)
	assert.Equal(t, entry.Size, got.Size)
	assert.True(t, got.Compressed)
	require.NotNil(t, got.LocalModified)
	assert.True(t, now.Equal(*got.LocalModified), "nanosecond precision is kept")
	require.NotNil(t, got.Resolution)
	assert.Equal(t, models.ResolutionRemote, *got.Resolution)

	entry.Status = models.StatusConflict
	entry.Conflict = true
	require.NoError(t, s.UpsertEntry(ctx, entry))

	got, err = s.GetEntry(ctx, "/data/a.png")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConflict, got.Status)
	assert.True(t, got.Conflict)
}

func TestUpsertEntry_RejectsInvalid(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	entry := newEntry("/a", "general")
	entry.Status = models.StatusSynced // no last sync

	err := s.UpsertEntry(ctx, entry)
	require.Error(t, err)

	_, err = s.GetEntry(ctx, "/a")
	require.ErrorIs(t, err, ledger.ErrEntryNotFound)
}

func TestGetEntry_NotFound(t *testing.T) {
	s := setupTestStorage(t)

	_, err := s.GetEntry(context.Background(), "/nope")
	require.ErrorIs(t, err, ledger.ErrEntryNotFound)
}

func TestListEntries(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	require.NoError(t, s.UpsertEntry(ctx, newEntry("/c", "trades")))
	require.NoError(t, s.UpsertEntry(ctx, newEntry("/a", "screenshots")))
	require.NoError(t, s.UpsertEntry(ctx, newEntry("/b", "trades")))

	tests := []struct {
		name      string
		dataTypes []string
		want      []string
	}{
		{name: "all", want: []string{"/a", "/b", "/c"}},
		{name: "one type", dataTypes: []string{"trades"}, want: []string{"/b", "/c"}},
		{name: "two types", dataTypes: []string{"trades", "screenshots"}, want: []string{"/a", "/b", "/c"}},
		{name: "unknown type", dataTypes: []string{"alerts"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := s.ListEntries(ctx, tt.dataTypes...)
			require.NoError(t, err)

			paths := make([]string, 0, len(entries))
			for _, e := range entries {
				paths = append(paths, e.LocalPath)
			}
			assert.Equal(t, tt.want, paths)
		})
	}
}

func TestCommitEntry_WritesLog(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	entry := newEntry("/a", "general")
	rec := models.NewLogRecord(models.ActionRegister, entry, nil)
	require.NoError(t, s.CommitEntry(ctx, entry, rec))
	assert.NotZero(t, rec.ID)

	logs, err := s.ListLogs(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.ActionRegister, logs[0].Action)
	assert.Equal(t, "/a", logs[0].LocalPath)
}

func TestCommitEntry_RollsBackOnInvalidEntry(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	entry := newEntry("/a", "general")
	entry.Conflict = true // status is pending
	err := s.CommitEntry(ctx, entry, models.NewLogRecord(models.ActionSync, entry, nil))
	require.Error(t, err)

	logs, err := s.ListLogs(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestRemoveEntry(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	entry := newEntry("/a", "general")
	require.NoError(t, s.UpsertEntry(ctx, entry))

	require.NoError(t, s.RemoveEntry(ctx, "/a", models.NewLogRecord(models.ActionUnregister, entry, nil)))
	_, err := s.GetEntry(ctx, "/a")
	require.ErrorIs(t, err, ledger.ErrEntryNotFound)

	err = s.RemoveEntry(ctx, "/a", models.NewLogRecord(models.ActionUnregister, entry, nil))
	require.ErrorIs(t, err, ledger.ErrEntryNotFound)

	logs, err := s.ListLogs(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 1, "failed removal must not leave a log record")
}

func TestDeleteEntry(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	require.NoError(t, s.UpsertEntry(ctx, newEntry("/a", "general")))
	require.NoError(t, s.DeleteEntry(ctx, "/a"))
	require.ErrorIs(t, s.DeleteEntry(ctx, "/a"), ledger.ErrEntryNotFound)
}

func TestListLogs_Paging(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	for i := range 5 {
		entry := newEntry(fmt.Sprintf("/f%d", i), "general")
		require.NoError(t, s.AppendLog(ctx, models.NewLogRecord(models.ActionSync, entry, nil)))
	}

	page, err := s.ListLogs(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "/f4", page[0].LocalPath, "newest first")
	assert.Equal(t, "/f3", page[1].LocalPath)

	page, err = s.ListLogs(ctx, 2, 4)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "/f0", page[0].LocalPath)

	all, err := s.ListLogs(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestAppendLog_Error(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	entry := newEntry("/a", "general")
	entry.Status = models.StatusError
	require.NoError(t, s.AppendLog(ctx, models.NewLogRecord(models.ActionError, entry, fmt.Errorf("boom"))))

	logs, err := s.ListLogs(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.NotNil(t, logs[0].Error)
	assert.Equal(t, "boom", *logs[0].Error)
	assert.Equal(t, models.StatusError, logs[0].Status)
}
