package backup

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/iudanet/journalsync/internal/metrics"
	"github.com/iudanet/journalsync/internal/provider"
)

// CleanupResult reports a retention run.
type CleanupResult struct {
	Errors  []string `json:"errors,omitempty"`
	Deleted int      `json:"deleted"`
}

// CleanupOldBackups keeps the newest backup_retention_count archives and
// removes the rest, oldest first. A failed remote delete is reported and the
// catalog record is removed regardless.
func (m *Manager) CleanupOldBackups(ctx context.Context) (*CleanupResult, error) {
	keep := m.cfg.Config().BackupRetentionCount

	records, err := m.store.ListBackups(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	result := &CleanupResult{}
	if keep < 1 || len(records) <= keep {
		return result, nil
	}

	excess := slices.Clone(records[keep:])
	slices.Reverse(excess)

	for _, rec := range excess {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		err := m.provider.Delete(ctx, rec.RemoteArchivePath)
		if err != nil && !errors.Is(err, provider.ErrNotFound) {
			m.logger.Warn("Failed to delete archive", "archive", rec.RemoteArchivePath, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", rec.RemoteArchivePath, err))
		}

		if err := m.store.DeleteBackup(ctx, rec.ID); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: failed to delete record: %v", rec.RemoteArchivePath, err))
			continue
		}
		result.Deleted++
		metrics.BackupsPrunedTotal.Inc()
	}

	m.logger.Info("Old backups cleaned up",
		"deleted", result.Deleted,
		"kept", keep,
		"errors", len(result.Errors))

	return result, nil
}
