package models

import "time"

// Action names an operation recorded in the sync log.
type Action string

const (
	ActionRegister        Action = "register"
	ActionUnregister      Action = "unregister"
	ActionSync            Action = "sync"
	ActionResolveConflict Action = "resolve_conflict"
	ActionError           Action = "error"
)

// SyncLogRecord is an immutable audit record of a state-changing operation.
type SyncLogRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	Error      *string   `json:"error,omitempty"`
	Action     Action    `json:"action"`
	LocalPath  string    `json:"local_path"`
	RemotePath string    `json:"remote_path"`
	Status     Status    `json:"status"`
	ID         int64     `json:"id"`
}

// NewLogRecord builds a log record for the entry's current state.
func NewLogRecord(action Action, entry *SyncEntry, err error) *SyncLogRecord {
	rec := &SyncLogRecord{
		Timestamp:  time.Now().UTC(),
		Action:     action,
		LocalPath:  entry.LocalPath,
		RemotePath: entry.RemotePath,
		Status:     entry.Status,
	}
	if err != nil {
		msg := err.Error()
		rec.Error = &msg
	}
	return rec
}

// BackupStatus tells whether every file made it into an archive.
type BackupStatus string

const (
	BackupComplete BackupStatus = "complete"
	BackupPartial  BackupStatus = "partial"
)

// BackupRecord is the catalog row of one archive.
type BackupRecord struct {
	Timestamp         time.Time    `json:"timestamp"`
	RemoteArchivePath string       `json:"remote_archive_path"`
	Status            BackupStatus `json:"status"`
	Note              string       `json:"note"`
	ID                int64        `json:"id"`
	TotalSize         int64        `json:"total_size"`
	FileCount         int          `json:"file_count"`
	Encrypted         bool         `json:"encrypted"`
}
