// Package app composes the ledger, provider, engine, backup manager and
// scheduler into the operations exposed by the daemon and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/journalsync/internal/backup"
	"github.com/iudanet/journalsync/internal/config"
	"github.com/iudanet/journalsync/internal/engine"
	"github.com/iudanet/journalsync/internal/keystore"
	"github.com/iudanet/journalsync/internal/ledger"
	"github.com/iudanet/journalsync/internal/ledger/sqlite"
	"github.com/iudanet/journalsync/internal/models"
	"github.com/iudanet/journalsync/internal/provider"
	"github.com/iudanet/journalsync/internal/scheduler"
)

// App is the sync engine with all its collaborators.
type App struct {
	ledger    ledger.Ledger
	keys      *keystore.Store
	engine    *engine.Engine
	backups   *backup.Manager
	scheduler *scheduler.Scheduler
	logger    *slog.Logger
}

// Deps are the collaborators New wires together.
type Deps struct {
	Ledger   ledger.Ledger
	Provider provider.Provider
	// Keys is optional; without it backups cannot be encrypted.
	Keys *keystore.Store
	// Key is an already unlocked backup key.
	Key     []byte
	Logger  *slog.Logger
	Backoff time.Duration
}

// New builds the application from opened collaborators. The provider type
// is pinned in the ledger on first use.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg, err := deps.Ledger.InitConfig(ctx, deps.Provider.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}

	a := &App{
		ledger: deps.Ledger,
		keys:   deps.Keys,
		logger: deps.Logger,
	}

	a.engine = engine.New(deps.Ledger, deps.Provider, cfg, deps.Logger)
	a.backups = backup.NewManager(deps.Ledger, deps.Provider, a.engine, deps.Logger, backup.WithKey(deps.Key))

	var opts []scheduler.Option
	if deps.Backoff > 0 {
		opts = append(opts, scheduler.WithBackoff(deps.Backoff))
	}
	a.scheduler = scheduler.New(cfg, a.runSync, a.runBackup, deps.Logger, opts...)
	a.engine.Subscribe(a.scheduler.Apply)

	if cfg.EncryptionEnabled && len(deps.Key) == 0 {
		deps.Logger.Warn("Backup encryption is enabled but no passphrase was provided; backups will fail until unlocked")
	}
	return a, nil
}

// Open opens every collaborator described by settings.
func Open(ctx context.Context, s *config.Settings, logger *slog.Logger) (*App, error) {
	store, err := sqlite.New(ctx, s.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	p, err := OpenProvider(ctx, s)
	if err != nil {
		store.Close()
		return nil, err
	}

	keys, err := keystore.New(ctx, s.KeystorePath)
	if err != nil {
		store.Close()
		return nil, err
	}

	var key []byte
	if s.Passphrase != "" {
		key, err = keys.Unlock(ctx, s.Passphrase)
		if err != nil {
			keys.Close()
			store.Close()
			return nil, fmt.Errorf("failed to unlock backup key: %w", err)
		}
	}

	a, err := New(ctx, Deps{
		Ledger:   store,
		Provider: p,
		Keys:     keys,
		Key:      key,
		Logger:   logger,
	})
	if err != nil {
		keys.Close()
		store.Close()
		return nil, err
	}

	logger.Info("Application opened",
		"db", s.DBPath,
		"provider", p.Name(),
		"encryption_key", len(key) > 0)
	return a, nil
}

// Close stops the scheduler and releases storage.
func (a *App) Close() error {
	a.scheduler.Stop()

	var errs []error
	if a.keys != nil {
		errs = append(errs, a.keys.Close())
	}
	errs = append(errs, a.ledger.Close())
	return errors.Join(errs...)
}

// Start launches the background loops.
func (a *App) Start(ctx context.Context) {
	a.scheduler.Start(ctx)
}

// Unlock derives the backup key from passphrase and hands it to the backup manager.
func (a *App) Unlock(ctx context.Context, passphrase string) error {
	if a.keys == nil {
		return fmt.Errorf("no keystore configured")
	}
	key, err := a.keys.Unlock(ctx, passphrase)
	if err != nil {
		return err
	}
	a.backups.SetKey(key)
	a.logger.Info("Backup key unlocked")
	return nil
}

// NeedsKey reports whether backups are encrypted under the current
// configuration and no key has been unlocked yet.
func (a *App) NeedsKey() bool {
	return a.engine.Config().EncryptionEnabled && !a.backups.HasKey()
}

func (a *App) runSync(ctx context.Context) error {
	_, err := a.engine.SyncAll(ctx)
	return err
}

func (a *App) runBackup(ctx context.Context) error {
	if _, err := a.backups.CreateBackup(ctx); err != nil {
		return err
	}
	_, err := a.backups.CleanupOldBackups(ctx)
	return err
}

// RegisterFile starts tracking a file.
func (a *App) RegisterFile(ctx context.Context, req engine.RegisterRequest) (*models.SyncEntry, error) {
	return a.engine.RegisterFile(ctx, req)
}

// UnregisterFile stops tracking a file.
func (a *App) UnregisterFile(ctx context.Context, localPath string, deleteRemote bool) error {
	return a.engine.UnregisterFile(ctx, localPath, deleteRemote)
}

// SyncFile reconciles one file.
func (a *App) SyncFile(ctx context.Context, localPath string) (*engine.SyncResult, error) {
	return a.engine.SyncFile(ctx, localPath)
}

// SyncAll reconciles every file of the given data types, or all files.
func (a *App) SyncAll(ctx context.Context, dataTypes ...string) (*engine.BatchResult, error) {
	return a.engine.SyncAll(ctx, dataTypes...)
}

// GetSyncStatus reports one file or all files.
func (a *App) GetSyncStatus(ctx context.Context, localPath string) (*engine.StatusReport, error) {
	return a.engine.GetSyncStatus(ctx, localPath)
}

// GetSyncLogs returns log records newest first.
func (a *App) GetSyncLogs(ctx context.Context, limit, offset int) ([]*models.SyncLogRecord, error) {
	return a.engine.GetSyncLogs(ctx, limit, offset)
}

// ResolveConflict settles a flagged conflict.
func (a *App) ResolveConflict(ctx context.Context, localPath string, resolution models.Resolution) (*models.SyncEntry, error) {
	return a.engine.ResolveConflict(ctx, localPath, resolution)
}

// GetConfig reads the stored configuration.
func (a *App) GetConfig(ctx context.Context) (config.EngineConfig, error) {
	return a.engine.GetConfig(ctx)
}

// UpdateConfig applies key-value updates. The scheduler picks up the new
// intervals immediately.
func (a *App) UpdateConfig(ctx context.Context, values map[string]string) (config.EngineConfig, error) {
	patch, err := config.ParsePatch(values)
	if err != nil {
		return config.EngineConfig{}, err
	}
	return a.engine.UpdateConfig(ctx, patch)
}

// GetDataTypes lists data types.
func (a *App) GetDataTypes(ctx context.Context) ([]*models.DataTypeConfig, error) {
	return a.engine.GetDataTypes(ctx)
}

// UpdateDataType creates or updates a data type.
func (a *App) UpdateDataType(ctx context.Context, name string, upd engine.DataTypeUpdate) (*models.DataTypeConfig, error) {
	return a.engine.UpdateDataType(ctx, name, upd)
}

// CreateBackup archives the tracked files.
func (a *App) CreateBackup(ctx context.Context) (*models.BackupRecord, error) {
	return a.backups.CreateBackup(ctx)
}

// ListBackups returns catalog records newest first.
func (a *App) ListBackups(ctx context.Context, limit, offset int) ([]*models.BackupRecord, error) {
	return a.backups.ListBackups(ctx, limit, offset)
}

// RestoreBackup restores an archive to the original paths or targetFolder.
func (a *App) RestoreBackup(ctx context.Context, archivePath, targetFolder string) (*backup.RestoreResult, error) {
	return a.backups.RestoreBackup(ctx, archivePath, targetFolder)
}

// CleanupOldBackups applies the retention count.
func (a *App) CleanupOldBackups(ctx context.Context) (*backup.CleanupResult, error) {
	return a.backups.CleanupOldBackups(ctx)
}

// SchedulerStatus reports the background loops.
func (a *App) SchedulerStatus() scheduler.Status {
	return a.scheduler.Status()
}
