package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/iudanet/journalsync/internal/config"
	"github.com/iudanet/journalsync/internal/models"
)

// ResolveConflict settles a flagged conflict. Local uploads the local copy,
// remote downloads the remote copy and manual accepts both sides as they
// are now. On success the entry is synced and the resolution is recorded.
// A failed transfer leaves the entry in conflict.
func (e *Engine) ResolveConflict(ctx context.Context, localPath string, resolution models.Resolution) (*models.SyncEntry, error) {
	if _, err := models.ParseResolution(string(resolution)); err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}
	if abs, err := filepath.Abs(localPath); err == nil {
		localPath = abs
	}

	unlock := e.locks.lock(localPath)
	defer unlock()

	entry, err := e.getEntry(ctx, localPath)
	if err != nil {
		return nil, err
	}
	if entry.Status != models.StatusConflict {
		return nil, fmt.Errorf("%s: %w", localPath, ErrNoConflict)
	}

	next, err := e.resolve(ctx, entry, resolution)
	if err != nil {
		e.logger.Warn("Conflict resolution failed",
			"local_path", localPath,
			"resolution", resolution,
			"error", err)
		if logErr := e.ledger.AppendLog(context.WithoutCancel(ctx), models.NewLogRecord(models.ActionError, entry, err)); logErr != nil {
			e.logger.Error("Failed to append log", "error", logErr)
		}
		return nil, err
	}

	if err := e.ledger.CommitEntry(ctx, next, models.NewLogRecord(models.ActionResolveConflict, next, nil)); err != nil {
		return nil, fmt.Errorf("failed to commit resolution: %w", err)
	}

	e.logger.Info("Conflict resolved", "local_path", localPath, "resolution", resolution)
	return next, nil
}

func (e *Engine) resolve(ctx context.Context, entry *models.SyncEntry, resolution models.Resolution) (*models.SyncEntry, error) {
	next := entry.Clone()
	now := e.now().UTC()

	switch resolution {
	case models.ResolutionLocal:
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

	case models.ResolutionRemote:
		meta, info, err := e.download(ctx, entry)
		if err != nil {
			return nil, err
		}
		markSynced(next, info.ModTime().UTC(), meta.LastModified, info.Size(), now)

	case models.ResolutionManual:
		local, err := statLocal(entry.LocalPath)
		if err != nil {
			return nil, err
		}
		remote, err := e.statRemote(ctx, entry.RemotePath)
		if err != nil {
			return nil, err
		}
		next.LocalModified, next.RemoteModified = nil, nil
		if local != nil {
			next.LocalModified = &local.Modified
			next.Size = local.Size
		}
		if remote != nil {
			next.RemoteModified = &remote.Modified
		}
		next.Status = models.StatusSynced
		next.Conflict = false
		next.LastSync = &now
	}

	setResolution(next, resolution)
	return next, nil
}
