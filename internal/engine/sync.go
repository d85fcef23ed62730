package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/iudanet/journalsync/internal/codec"
	"github.com/iudanet/journalsync/internal/conflict"
	"github.com/iudanet/journalsync/internal/metrics"
	"github.com/iudanet/journalsync/internal/models"
	"github.com/iudanet/journalsync/internal/provider"
)

const downloadTempPrefix = ".journalsync-"

// SyncResult is the outcome of reconciling one file.
type SyncResult struct {
	Entry    *models.SyncEntry `json:"entry"`
	Reason   string            `json:"reason"`
	Action   conflict.Action   `json:"action"`
	Conflict bool              `json:"conflict"`
}

// SyncFile reconciles one tracked file. Calls for the same path are
// serialized.
//
// Transient provider failures leave the entry unchanged; any other failure
// moves it to status error. Both append an error record to the log.
func (e *Engine) SyncFile(ctx context.Context, localPath string) (*SyncResult, error) {
	if abs, err := filepath.Abs(localPath); err == nil {
		localPath = abs
	}

	unlock := e.locks.lock(localPath)
	defer unlock()

	entry, err := e.getEntry(ctx, localPath)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := e.syncEntry(ctx, entry)
	metrics.SyncDuration.Observe(time.Since(start).Seconds())
	return res, err
}

func (e *Engine) syncEntry(ctx context.Context, entry *models.SyncEntry) (*SyncResult, error) {
	if entry.Status == models.StatusConflict {
		return nil, fmt.Errorf("%s: %w", entry.LocalPath, ErrConflictUnresolved)
	}

	cfg := e.Config()

	local, err := statLocal(entry.LocalPath)
	if err != nil {
		return nil, e.fail(ctx, entry, conflict.NoOp, err)
	}
	remote, err := e.statRemote(ctx, entry.RemotePath)
	if err != nil {
		return nil, e.fail(ctx, entry, conflict.NoOp, err)
	}

	d := conflict.Decide(conflict.Input{
		Entry:     entry,
		Local:     local,
		Remote:    remote,
		Policy:    cfg.ConflictResolution,
		Tolerance: cfg.ClockSkewTolerance,
	})

	next, err := e.apply(ctx, entry, d, remote != nil)
	if err != nil {
		return nil, e.fail(ctx, entry, d.Action, err)
	}

	if err := e.commit(ctx, next); err != nil {
		return nil, err
	}

	metrics.SyncFilesTotal.WithLabelValues(d.Action.String(), metrics.ResultOK).Inc()
	e.logger.Debug("File reconciled",
		"local_path", next.LocalPath,
		"action", d.Action.String(),
		"reason", d.Reason,
		"status", next.Status)

	return &SyncResult{
		Entry:    next,
		Action:   d.Action,
		Reason:   d.Reason,
		Conflict: d.Conflict,
	}, nil
}

// apply performs the decided transfer and returns the entry's next state.
func (e *Engine) apply(ctx context.Context, entry *models.SyncEntry, d conflict.Decision, remoteExists bool) (*models.SyncEntry, error) {
	next := entry.Clone()
	now := e.now().UTC()

	switch d.Action {
	case conflict.NoOp:
		// download-only entry whose remote copy does not exist
		if !remoteExists {
			return next, nil
		}
		next.Status = models.StatusSynced
		next.LastSync = &now

	case conflict.UploadLocal:
		meta, err := e.upload(ctx, entry)
		if err != nil {
			return nil, err
		}
		local, err := statLocal(entry.LocalPath)
		if err != nil {
			return nil, err
		}
		if local == nil {
			return nil, fmt.Errorf("local file vanished during upload")
		}
		markSynced(next, local.Modified, meta.LastModified, local.Size, now)
		if d.Conflict {
			setResolution(next, models.ResolutionLocal)
		}

	case conflict.DownloadRemote:
		meta, info, err := e.download(ctx, entry)
		if err != nil {
			return nil, err
		}
		markSynced(next, info.ModTime().UTC(), meta.LastModified, info.Size(), now)
		if d.Conflict {
			setResolution(next, models.ResolutionRemote)
		}

	case conflict.FlagConflict:
		next.Status = models.StatusConflict
		next.Conflict = true

	case conflict.DeleteRemote:
		if err := e.provider.Delete(ctx, entry.RemotePath); err != nil && !errors.Is(err, provider.ErrNotFound) {
			return nil, err
		}
		markDeleted(next)

	case conflict.MarkDeleted:
		markDeleted(next)
	}

	return next, nil
}

// commit persists next together with its sync log record.
func (e *Engine) commit(ctx context.Context, next *models.SyncEntry) error {
	if err := e.ledger.CommitEntry(ctx, next, models.NewLogRecord(models.ActionSync, next, nil)); err != nil {
		return fmt.Errorf("failed to commit entry: %w", err)
	}
	return nil
}

// fail records a failed reconciliation and returns err.
func (e *Engine) fail(ctx context.Context, entry *models.SyncEntry, action conflict.Action, err error) error {
	metrics.SyncFilesTotal.WithLabelValues(action.String(), metrics.ResultError).Inc()

	// the record must survive a cancelled caller
	ctx = context.WithoutCancel(ctx)

	if retryable(err) {
		e.logger.Warn("Sync failed, will retry",
			"local_path", entry.LocalPath,
			"remote_path", entry.RemotePath,
			"error", err)
		if logErr := e.ledger.AppendLog(ctx, models.NewLogRecord(models.ActionError, entry, err)); logErr != nil {
			e.logger.Error("Failed to append log", "error", logErr)
		}
		return err
	}

	e.logger.Error("Sync failed",
		"local_path", entry.LocalPath,
		"remote_path", entry.RemotePath,
		"error", err)

	next := entry.Clone()
	next.Status = models.StatusError
	next.Conflict = false
	if commitErr := e.ledger.CommitEntry(ctx, next, models.NewLogRecord(models.ActionError, next, err)); commitErr != nil {
		e.logger.Error("Failed to record sync error", "error", commitErr)
	}
	return err
}

// retryable reports whether a failure should leave the entry untouched.
func retryable(err error) bool {
	return provider.IsTransient(err) ||
		errors.Is(err, provider.ErrNotFound) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func markSynced(e *models.SyncEntry, localMod, remoteMod time.Time, size int64, now time.Time) {
	e.LocalModified = &localMod
	e.RemoteModified = &remoteMod
	e.Size = size
	e.Status = models.StatusSynced
	e.Conflict = false
	e.LastSync = &now
}

func markDeleted(e *models.SyncEntry) {
	e.LocalModified = nil
	e.RemoteModified = nil
	e.Status = models.StatusDeleted
	e.Conflict = false
}

func setResolution(e *models.SyncEntry, r models.Resolution) {
	e.Resolution = &r
}

// statLocal returns nil when the file does not exist.
func statLocal(localPath string) (*conflict.FileState, error) {
	info, err := os.Stat(localPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat local file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("local path %s is a directory", localPath)
	}
	return &conflict.FileState{Modified: info.ModTime().UTC(), Size: info.Size()}, nil
}

// statRemote returns nil when the object does not exist.
func (e *Engine) statRemote(ctx context.Context, remotePath string) (*conflict.FileState, error) {
	meta, err := e.provider.Stat(ctx, remotePath)
	if errors.Is(err, provider.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conflict.FileState{Modified: meta.LastModified.UTC(), Size: meta.Size}, nil
}

func (e *Engine) upload(ctx context.Context, entry *models.SyncEntry) (provider.Metadata, error) {
	f, err := os.Open(entry.LocalPath)
	if err != nil {
		return provider.Metadata{}, fmt.Errorf("failed to open local file: %w", err)
	}
	defer f.Close()

	if !entry.Compressed {
		info, err := f.Stat()
		if err != nil {
			return provider.Metadata{}, fmt.Errorf("failed to stat local file: %w", err)
		}
		return e.provider.Upload(ctx, entry.RemotePath, f, info.Size())
	}

	var buf bytes.Buffer
	if _, err := codec.CompressStream(&buf, f); err != nil {
		return provider.Metadata{}, err
	}
	return e.provider.Upload(ctx, entry.RemotePath, &buf, int64(buf.Len()))
}

// download writes the remote object next to the local path and renames it
// into place, so a failed transfer never leaves a partial file.
func (e *Engine) download(ctx context.Context, entry *models.SyncEntry) (provider.Metadata, os.FileInfo, error) {
	dir := filepath.Dir(entry.LocalPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return provider.Metadata{}, nil, fmt.Errorf("failed to create local directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, downloadTempPrefix+"*")
	if err != nil {
		return provider.Metadata{}, nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	var meta provider.Metadata
	if entry.Compressed {
		var buf bytes.Buffer
		meta, err = e.provider.Download(ctx, entry.RemotePath, &buf)
		if err == nil {
			_, err = codec.DecompressStream(tmp, &buf)
		}
	} else {
		meta, err = e.provider.Download(ctx, entry.RemotePath, tmp)
	}
	if err != nil {
		tmp.Close()
		return provider.Metadata{}, nil, err
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return provider.Metadata{}, nil, fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return provider.Metadata{}, nil, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, entry.LocalPath); err != nil {
		return provider.Metadata{}, nil, fmt.Errorf("failed to replace local file: %w", err)
	}

	info, err := os.Stat(entry.LocalPath)
	if err != nil {
		return provider.Metadata{}, nil, fmt.Errorf("failed to stat downloaded file: %w", err)
	}
	return meta, info, nil
}
