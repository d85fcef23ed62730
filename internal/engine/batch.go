package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iudanet/journalsync/internal/metrics"
	"github.com/iudanet/journalsync/internal/models"
)

// FileError is a per-file failure inside a batch.
type FileError struct {
	LocalPath string `json:"local_path"`
	Error     string `json:"error"`
}

// BatchResult aggregates a whole-ledger pass.
type BatchResult struct {
	Errors     []FileError `json:"errors,omitempty"`
	Total      int         `json:"total"`
	Successful int         `json:"successful"`
	Failed     int         `json:"failed"`
	Skipped    int         `json:"skipped"`
}

// SyncAll reconciles every tracked file, optionally restricted to the given
// data types. Disabled data types are excluded; entries waiting for conflict
// resolution are skipped. Data types run in ascending priority order, the
// files of one priority tier in parallel bounded by sync_workers.
//
// Per-file failures are collected and never abort the pass. A failure to
// read the ledger is returned as an error; a cancelled ctx stops the pass
// between tiers and returns the partial result with ctx.Err().
func (e *Engine) SyncAll(ctx context.Context, dataTypes ...string) (*BatchResult, error) {
	metrics.SyncBatchesTotal.Inc()
	start := time.Now()

	entries, err := e.ledger.ListEntries(ctx, dataTypes...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	types, err := e.ledger.ListDataTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list data types: %w", err)
	}

	tiers := planTiers(entries, types)
	result := &BatchResult{}
	var mu sync.Mutex

	workers := e.Config().SyncWorkers
	if workers < 1 {
		workers = 1
	}

	for _, tier := range tiers {
		if err := ctx.Err(); err != nil {
			break
		}

		var g errgroup.Group
		g.SetLimit(workers)

		for _, entry := range tier {
			if entry.Status == models.StatusConflict {
				mu.Lock()
				result.Total++
				result.Skipped++
				mu.Unlock()
				continue
			}

			g.Go(func() error {
				_, err := e.SyncFile(ctx, entry.LocalPath)

				mu.Lock()
				defer mu.Unlock()
				result.Total++
				switch {
				case errors.Is(err, ErrConflictUnresolved):
					result.Skipped++
				case err != nil:
					result.Failed++
					result.Errors = append(result.Errors, FileError{
						LocalPath: entry.LocalPath,
						Error:     err.Error(),
					})
				default:
					result.Successful++
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	if err := e.ledger.SetLastSync(context.WithoutCancel(ctx), e.now().UTC()); err != nil {
		e.logger.Error("Failed to update last sync time", "error", err)
	}

	e.logger.Info("Sync pass completed",
		"total", result.Total,
		"successful", result.Successful,
		"failed", result.Failed,
		"skipped", result.Skipped,
		"duration", time.Since(start))

	return result, ctx.Err()
}

// planTiers groups entries of enabled data types by priority, lowest first.
// Unknown data types are enabled with the default priority.
func planTiers(entries []*models.SyncEntry, types []*models.DataTypeConfig) [][]*models.SyncEntry {
	byName := make(map[string]*models.DataTypeConfig, len(types))
	for _, dt := range types {
		byName[dt.Name] = dt
	}

	byPriority := make(map[int][]*models.SyncEntry)
	for _, entry := range entries {
		dt, ok := byName[entry.DataType]
		if !ok {
			dt = models.NewDataTypeConfig(entry.DataType)
		}
		if !dt.Enabled {
			continue
		}
		byPriority[dt.Priority] = append(byPriority[dt.Priority], entry)
	}

	priorities := make([]int, 0, len(byPriority))
	for p := range byPriority {
		priorities = append(priorities, p)
	}
	slices.Sort(priorities)

	tiers := make([][]*models.SyncEntry, 0, len(priorities))
	for _, p := range priorities {
		tiers = append(tiers, byPriority[p])
	}
	return tiers
}
