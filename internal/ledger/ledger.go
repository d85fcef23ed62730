// Package ledger defines the persistent store of sync state: tracked
// entries, the append-only action log, the backup catalog, the engine
// configuration and data type settings.
package ledger

import (
	"context"
	"time"

	"github.com/iudanet/journalsync/internal/config"
	"github.com/iudanet/journalsync/internal/models"
)

// EntryStore persists one SyncEntry per tracked local path.
type EntryStore interface {
	// UpsertEntry creates or replaces the entry keyed by its local path.
	// The entry is validated before it is written.
	UpsertEntry(ctx context.Context, entry *models.SyncEntry) error

	// GetEntry returns ErrEntryNotFound for untracked paths.
	GetEntry(ctx context.Context, localPath string) (*models.SyncEntry, error)

	// ListEntries returns all entries ordered by local path, optionally
	// restricted to the given data types.
	ListEntries(ctx context.Context, dataTypes ...string) ([]*models.SyncEntry, error)

	// DeleteEntry returns ErrEntryNotFound for untracked paths.
	DeleteEntry(ctx context.Context, localPath string) error

	// CommitEntry upserts the entry and appends the log record in one transaction.
	CommitEntry(ctx context.Context, entry *models.SyncEntry, rec *models.SyncLogRecord) error

	// RemoveEntry deletes the entry and appends the log record in one transaction.
	RemoveEntry(ctx context.Context, localPath string, rec *models.SyncLogRecord) error
}

// LogStore is the append-only audit trail.
type LogStore interface {
	AppendLog(ctx context.Context, rec *models.SyncLogRecord) error
	// ListLogs returns records newest first. limit <= 0 means no limit.
	ListLogs(ctx context.Context, limit, offset int) ([]*models.SyncLogRecord, error)
}

// BackupStore is the backup catalog.
type BackupStore interface {
	// AppendBackup stores the record and sets its ID.
	AppendBackup(ctx context.Context, rec *models.BackupRecord) error
	// ListBackups returns records newest first. limit <= 0 means no limit.
	ListBackups(ctx context.Context, limit, offset int) ([]*models.BackupRecord, error)
	DeleteBackup(ctx context.Context, id int64) error
}

// ConfigStore owns the engine configuration key-value table.
type ConfigStore interface {
	// InitConfig seeds missing keys with defaults and pins the provider type.
	// It fails with config.ErrInvalid if a different provider was pinned before.
	InitConfig(ctx context.Context, providerType string) (config.EngineConfig, error)
	GetConfig(ctx context.Context) (config.EngineConfig, error)
	// UpdateConfig applies the patch atomically. Invalid patches leave the
	// stored configuration untouched and return config.ErrInvalid.
	UpdateConfig(ctx context.Context, patch config.Patch) (config.EngineConfig, error)
	SetLastSync(ctx context.Context, t time.Time) error
}

// DataTypeStore holds per data type policy.
type DataTypeStore interface {
	GetDataType(ctx context.Context, name string) (*models.DataTypeConfig, error)
	// ListDataTypes returns data types ordered by priority then name.
	ListDataTypes(ctx context.Context) ([]*models.DataTypeConfig, error)
	// EnsureDataType returns the stored data type, creating it with
	// defaults on first use.
	EnsureDataType(ctx context.Context, name string) (*models.DataTypeConfig, error)
	UpsertDataType(ctx context.Context, dt *models.DataTypeConfig) error
}

// Ledger is the complete sync state store.
type Ledger interface {
	EntryStore
	LogStore
	BackupStore
	ConfigStore
	DataTypeStore
	Close() error
}
