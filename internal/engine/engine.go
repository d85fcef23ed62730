// Package engine reconciles tracked local files with their remote copies.
//
// The engine owns the lifecycle of every SyncEntry: registration, one-file
// reconciliation, whole-ledger passes, conflict resolution and removal.
// State lives in the ledger; the engine keeps only a read-only snapshot of
// the engine configuration which is swapped, never mutated.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iudanet/journalsync/internal/config"
	"github.com/iudanet/journalsync/internal/ledger"
	"github.com/iudanet/journalsync/internal/models"
	"github.com/iudanet/journalsync/internal/provider"
	"github.com/iudanet/journalsync/internal/validation"
)

// Engine performs file reconciliation against one provider.
type Engine struct {
	ledger   ledger.Ledger
	provider provider.Provider
	logger   *slog.Logger
	cfg      atomic.Pointer[config.EngineConfig]
	locks    *pathLocks
	now      func() time.Time

	subMu       sync.Mutex
	subscribers []func(config.EngineConfig)
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the clock used for last_sync timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an engine using cfg as the initial configuration snapshot.
func New(l ledger.Ledger, p provider.Provider, cfg config.EngineConfig, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		ledger:   l,
		provider: p,
		logger:   logger.With(slog.String("component", "engine")),
		locks:    newPathLocks(),
		now:      time.Now,
	}
	e.cfg.Store(&cfg)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the current configuration snapshot.
func (e *Engine) Config() config.EngineConfig {
	return *e.cfg.Load()
}

// SetConfig replaces the configuration snapshot and notifies subscribers.
func (e *Engine) SetConfig(cfg config.EngineConfig) {
	e.cfg.Store(&cfg)

	e.subMu.Lock()
	subs := make([]func(config.EngineConfig), len(e.subscribers))
	copy(subs, e.subscribers)
	e.subMu.Unlock()

	for _, fn := range subs {
		fn(cfg)
	}
}

// Subscribe registers fn to be called after every configuration change.
func (e *Engine) Subscribe(fn func(config.EngineConfig)) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	e.subscribers = append(e.subscribers, fn)
}

// GetConfig reads the stored configuration.
func (e *Engine) GetConfig(ctx context.Context) (config.EngineConfig, error) {
	cfg, err := e.ledger.GetConfig(ctx)
	if err != nil {
		return config.EngineConfig{}, fmt.Errorf("failed to get config: %w", err)
	}
	return cfg, nil
}

// UpdateConfig validates and persists the patch, then swaps the snapshot.
// On error the stored configuration and the snapshot are untouched.
func (e *Engine) UpdateConfig(ctx context.Context, patch config.Patch) (config.EngineConfig, error) {
	cfg, err := e.ledger.UpdateConfig(ctx, patch)
	if err != nil {
		return config.EngineConfig{}, fmt.Errorf("failed to update config: %w", err)
	}
	e.SetConfig(cfg)
	e.logger.Info("Configuration updated",
		"auto_sync", cfg.AutoSyncEnabled,
		"sync_interval", cfg.SyncInterval,
		"conflict_resolution", cfg.ConflictResolution)
	return cfg, nil
}

// GetDataTypes lists data types ordered by priority.
func (e *Engine) GetDataTypes(ctx context.Context) ([]*models.DataTypeConfig, error) {
	types, err := e.ledger.ListDataTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list data types: %w", err)
	}
	return types, nil
}

// DataTypeUpdate is a partial data type update; nil fields are left unchanged.
type DataTypeUpdate struct {
	Enabled            *bool
	Priority           *int
	CompressionEnabled *bool
}

// UpdateDataType creates or updates a data type.
func (e *Engine) UpdateDataType(ctx context.Context, name string, upd DataTypeUpdate) (*models.DataTypeConfig, error) {
	if err := validation.ValidateDataTypeName(name); err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}
	if upd.Priority != nil && *upd.Priority < 0 {
		return nil, fmt.Errorf("%w: priority must not be negative", config.ErrInvalid)
	}

	dt, err := e.ledger.GetDataType(ctx, name)
	switch {
	case errors.Is(err, ledger.ErrDataTypeNotFound):
		dt = models.NewDataTypeConfig(name)
	case err != nil:
		return nil, fmt.Errorf("failed to get data type: %w", err)
	}

	if upd.Enabled != nil {
		dt.Enabled = *upd.Enabled
	}
	if upd.Priority != nil {
		dt.Priority = *upd.Priority
	}
	if upd.CompressionEnabled != nil {
		dt.CompressionEnabled = *upd.CompressionEnabled
	}

	if err := e.ledger.UpsertDataType(ctx, dt); err != nil {
		return nil, fmt.Errorf("failed to save data type: %w", err)
	}
	return dt, nil
}

// GetSyncLogs returns log records newest first.
func (e *Engine) GetSyncLogs(ctx context.Context, limit, offset int) ([]*models.SyncLogRecord, error) {
	logs, err := e.ledger.ListLogs(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync logs: %w", err)
	}
	return logs, nil
}

// getEntry maps the ledger miss to ErrNotRegistered.
func (e *Engine) getEntry(ctx context.Context, localPath string) (*models.SyncEntry, error) {
	entry, err := e.ledger.GetEntry(ctx, localPath)
	if errors.Is(err, ledger.ErrEntryNotFound) {
		return nil, fmt.Errorf("%s: %w", localPath, ErrNotRegistered)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return entry, nil
}
