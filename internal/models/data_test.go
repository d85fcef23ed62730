package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncEntry_Validate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		entry   SyncEntry
		errMsg  string
		wantErr bool
	}{
		{
			name:  "pending entry",
			entry: SyncEntry{LocalPath: "/a", RemotePath: "a", Status: StatusPending},
		},
		{
			name:  "synced entry with last sync",
			entry: SyncEntry{LocalPath: "/a", RemotePath: "a", Status: StatusSynced, LastSync: &now},
		},
		{
			name:  "conflict entry",
			entry: SyncEntry{LocalPath: "/a", RemotePath: "a", Status: StatusConflict, Conflict: true},
		},
		{
			name:    "synced without last sync",
			entry:   SyncEntry{LocalPath: "/a", RemotePath: "a", Status: StatusSynced},
			wantErr: true,
			errMsg:  "last sync",
		},
		{
			name:    "conflict flag without status",
			entry:   SyncEntry{LocalPath: "/a", RemotePath: "a", Status: StatusPending, Conflict: true},
			wantErr: true,
			errMsg:  "conflict flag",
		},
		{
			name:    "conflict status without flag",
			entry:   SyncEntry{LocalPath: "/a", RemotePath: "a", Status: StatusConflict},
			wantErr: true,
			errMsg:  "conflict flag",
		},
		{
			name:    "empty local path",
			entry:   SyncEntry{RemotePath: "a", Status: StatusPending},
			wantErr: true,
			errMsg:  "local path",
		},
		{
			name:    "unknown status",
			entry:   SyncEntry{LocalPath: "/a", RemotePath: "a", Status: "bogus"},
			wantErr: true,
			errMsg:  "invalid status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSyncEntry_Clone(t *testing.T) {
	now := time.Now()
	res := ResolutionLocal
	orig := &SyncEntry{
		LocalPath:     "/a",
		RemotePath:    "a",
		Status:        StatusSynced,
		LastSync:      &now,
		LocalModified: &now,
		Resolution:    &res,
	}

	c := orig.Clone()
	assert.Equal(t, orig, c)

	later := now.Add(time.Hour)
	*c.LastSync = later
	*c.Resolution = ResolutionRemote
	assert.Equal(t, now, *orig.LastSync)
	assert.Equal(t, ResolutionLocal, *orig.Resolution)
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("")
	require.NoError(t, err)
	assert.Equal(t, DirectionBidirectional, d)

	d, err = ParseDirection("upload")
	require.NoError(t, err)
	assert.Equal(t, DirectionUpload, d)

	_, err = ParseDirection("sideways")
	require.Error(t, err)
}

func TestParseResolution(t *testing.T) {
	for _, s := range []string{"local", "remote", "manual"} {
		r, err := ParseResolution(s)
		require.NoError(t, err)
		assert.Equal(t, Resolution(s), r)
	}

	_, err := ParseResolution("newest")
	require.Error(t, err)
}

func TestNewLogRecord(t *testing.T) {
	entry := &SyncEntry{LocalPath: "/a", RemotePath: "a", Status: StatusError}

	rec := NewLogRecord(ActionError, entry, assert.AnError)
	assert.Equal(t, ActionError, rec.Action)
	assert.Equal(t, "/a", rec.LocalPath)
	assert.Equal(t, StatusError, rec.Status)
	require.NotNil(t, rec.Error)
	assert.Equal(t, assert.AnError.Error(), *rec.Error)

	rec = NewLogRecord(ActionSync, entry, nil)
	assert.Nil(t, rec.Error)
}
