package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/iudanet/journalsync/internal/models"
)

// StatusReport summarizes the sync state of one or all tracked files.
type StatusReport struct {
	LastSync        *time.Time            `json:"last_sync,omitempty"`
	Counts          map[models.Status]int `json:"counts"`
	Entries         []*models.SyncEntry   `json:"entries"`
	Total           int                   `json:"total"`
	AutoSyncEnabled bool                  `json:"auto_sync_enabled"`
}

// GetSyncStatus reports a single entry when localPath is set, otherwise all
// entries.
func (e *Engine) GetSyncStatus(ctx context.Context, localPath string) (*StatusReport, error) {
	var entries []*models.SyncEntry
	if localPath != "" {
		if abs, err := filepath.Abs(localPath); err == nil {
			localPath = abs
		}
		entry, err := e.getEntry(ctx, localPath)
		if err != nil {
			return nil, err
		}
		entries = []*models.SyncEntry{entry}
	} else {
		var err error
		entries, err = e.ledger.ListEntries(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list entries: %w", err)
		}
	}

	cfg, err := e.ledger.GetConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}

	report := &StatusReport{
		Entries:         entries,
		Total:           len(entries),
		Counts:          make(map[models.Status]int),
		LastSync:        cfg.LastSync,
		AutoSyncEnabled: cfg.AutoSyncEnabled,
	}
	for _, entry := range entries {
		report.Counts[entry.Status]++
	}
	return report, nil
}
