package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iudanet/journalsync/internal/config"
	"github.com/iudanet/journalsync/internal/models"
	"github.com/iudanet/journalsync/internal/provider"
	"github.com/iudanet/journalsync/internal/validation"
)

// RegisterRequest describes a file to track.
type RegisterRequest struct {
	// Compress overrides the data type's compression setting when set.
	Compress   *bool
	LocalPath  string
	RemotePath string // defaults to remote_root/<basename>
	Direction  models.Direction
	DataType   string // defaults to "general"
}

// RegisterFile starts tracking a local file and performs one immediate sync.
// A failed initial sync is recorded in the ledger and does not fail the
// registration.
func (e *Engine) RegisterFile(ctx context.Context, req RegisterRequest) (*models.SyncEntry, error) {
	if req.LocalPath == "" {
		return nil, fmt.Errorf("%w: local path is required", config.ErrInvalid)
	}
	localPath, err := filepath.Abs(req.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve local path: %w", err)
	}

	info, err := os.Stat(localPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", localPath, ErrLocalFileMissing)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat local file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", config.ErrInvalid, localPath)
	}

	direction := req.Direction
	if direction == "" {
		direction = models.DirectionBidirectional
	}
	if _, err := models.ParseDirection(string(direction)); err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}

	dataType := req.DataType
	if dataType == "" {
		dataType = models.DefaultDataType
	}
	if err := validation.ValidateDataTypeName(dataType); err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}

	cfg := e.Config()
	remotePath := req.RemotePath
	if remotePath == "" {
		remotePath = DefaultRemotePath(cfg.RemoteRoot, localPath)
	}
	remotePath, err = provider.CleanPath(remotePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}

	dt, err := e.ledger.EnsureDataType(ctx, dataType)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure data type: %w", err)
	}
	compressed := dt.CompressionEnabled
	if req.Compress != nil {
		compressed = *req.Compress
	}

	unlock := e.locks.lock(localPath)
	entry, err := e.upsertRegistration(ctx, localPath, remotePath, direction, dataType, compressed)
	unlock()
	if err != nil {
		return nil, err
	}

	e.logger.Info("File registered",
		"local_path", entry.LocalPath,
		"remote_path", entry.RemotePath,
		"direction", entry.Direction,
		"data_type", entry.DataType)

	res, err := e.SyncFile(ctx, localPath)
	if err != nil {
		e.logger.Warn("Initial sync failed", "local_path", localPath, "error", err)
		// the failure is already in the log; report the stored state
		if stored, getErr := e.ledger.GetEntry(ctx, localPath); getErr == nil {
			return stored, nil
		}
		return entry, nil
	}
	return res.Entry, nil
}

func (e *Engine) upsertRegistration(ctx context.Context, localPath, remotePath string, direction models.Direction, dataType string, compressed bool) (*models.SyncEntry, error) {
	existing, err := e.getEntry(ctx, localPath)
	if err != nil && !errors.Is(err, ErrNotRegistered) {
		return nil, err
	}

	entry := &models.SyncEntry{
		LocalPath: localPath,
		Status:    models.StatusPending,
	}
	// re-registration to the same remote path keeps the recorded evidence
	if existing != nil && existing.RemotePath == remotePath && existing.Compressed == compressed {
		entry = existing.Clone()
		if entry.Status != models.StatusConflict {
			entry.Status = models.StatusPending
		}
	}
	entry.RemotePath = remotePath
	entry.Direction = direction
	entry.DataType = dataType
	entry.Compressed = compressed

	if err := e.ledger.CommitEntry(ctx, entry, models.NewLogRecord(models.ActionRegister, entry, nil)); err != nil {
		return nil, fmt.Errorf("failed to register file: %w", err)
	}
	return entry, nil
}

// DefaultRemotePath places the file under root using its base name.
func DefaultRemotePath(root, localPath string) string {
	return provider.Join(root, filepath.Base(localPath))
}

// UnregisterFile stops tracking a file. With deleteRemote the remote copy is
// removed first; a failed remote delete is logged and does not block removal.
func (e *Engine) UnregisterFile(ctx context.Context, localPath string, deleteRemote bool) error {
	if abs, err := filepath.Abs(localPath); err == nil {
		localPath = abs
	}

	unlock := e.locks.lock(localPath)
	defer unlock()

	entry, err := e.getEntry(ctx, localPath)
	if err != nil {
		return err
	}

	if deleteRemote {
		err := e.provider.Delete(ctx, entry.RemotePath)
		if err != nil && !errors.Is(err, provider.ErrNotFound) {
			e.logger.Warn("Failed to delete remote copy",
				"local_path", localPath,
				"remote_path", entry.RemotePath,
				"error", err)
			if logErr := e.ledger.AppendLog(ctx, models.NewLogRecord(models.ActionError, entry, err)); logErr != nil {
				e.logger.Error("Failed to append log", "error", logErr)
			}
		}
	}

	if err := e.ledger.RemoveEntry(ctx, localPath, models.NewLogRecord(models.ActionUnregister, entry, nil)); err != nil {
		return fmt.Errorf("failed to unregister file: %w", err)
	}

	e.logger.Info("File unregistered", "local_path", localPath, "delete_remote", deleteRemote)
	return nil
}
