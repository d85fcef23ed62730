package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/journalsync/internal/ledger"
	"github.com/iudanet/journalsync/internal/models"
)

const entryColumns = `
	local_path, remote_path, local_modified, remote_modified, status,
	last_sync, size, sync_direction, conflict, resolution, data_type, compressed
`

// UpsertEntry creates or replaces the entry keyed by its local path.
func (s *Storage) UpsertEntry(ctx context.Context, entry *models.SyncEntry) error {
	return upsertEntry(ctx, s.db, entry)
}

// CommitEntry upserts the entry and appends rec in one transaction.
func (s *Storage) CommitEntry(ctx context.Context, entry *models.SyncEntry, rec *models.SyncLogRecord) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := upsertEntry(ctx, tx, entry); err != nil {
			return err
		}
		return appendLog(ctx, tx, rec)
	})
}

func upsertEntry(ctx context.Context, db execer, entry *models.SyncEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid entry: %w", err)
	}

	var resolution sql.NullString
	if entry.Resolution != nil {
		resolution = sql.NullString{String: string(*entry.Resolution), Valid: true}
	}

	query := `
		INSERT INTO sync_entries (` + entryColumns + `, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(local_path) DO UPDATE SET
			remote_path = excluded.remote_path,
			local_modified = excluded.local_modified,
			remote_modified = excluded.remote_modified,
			status = excluded.status,
			last_sync = excluded.last_sync,
			size = excluded.size,
			sync_direction = excluded.sync_direction,
			conflict = excluded.conflict,
			resolution = excluded.resolution,
			data_type = excluded.data_type,
			compressed = excluded.compressed,
			updated_at = excluded.updated_at
	`

	_, err := db.ExecContext(ctx, query,
		entry.LocalPath,
		entry.RemotePath,
		timeToNull(entry.LocalModified),
		timeToNull(entry.RemoteModified),
		string(entry.Status),
		timeToNull(entry.LastSync),
		entry.Size,
		string(entry.Direction),
		boolToInt(entry.Conflict),
		resolution,
		entry.DataType,
		boolToInt(entry.Compressed),
		time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert entry: %w", err)
	}
	return nil
}

// GetEntry returns the entry for localPath or ledger.ErrEntryNotFound.
func (s *Storage) GetEntry(ctx context.Context, localPath string) (*models.SyncEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM sync_entries WHERE local_path = ?`

	entry, err := scanEntry(s.db.QueryRowContext(ctx, query, localPath))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return entry, nil
}

// ListEntries returns entries ordered by local path, optionally filtered by data type.
func (s *Storage) ListEntries(ctx context.Context, dataTypes ...string) ([]*models.SyncEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM sync_entries`
	args := make([]any, 0, len(dataTypes))
	if len(dataTypes) > 0 {
		placeholders := make([]string, len(dataTypes))
		for i, dt := range dataTypes {
			placeholders[i] = "?"
			args = append(args, dt)
		}
		query += ` WHERE data_type IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY local_path`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.SyncEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}
	return entries, nil
}

// DeleteEntry removes the entry for localPath.
func (s *Storage) DeleteEntry(ctx context.Context, localPath string) error {
	return deleteEntry(ctx, s.db, localPath)
}

// RemoveEntry deletes the entry and appends rec in one transaction.
func (s *Storage) RemoveEntry(ctx context.Context, localPath string, rec *models.SyncLogRecord) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := deleteEntry(ctx, tx, localPath); err != nil {
			return err
		}
		return appendLog(ctx, tx, rec)
	})
}

func deleteEntry(ctx context.Context, db execer, localPath string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM sync_entries WHERE local_path = ?`, localPath)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ledger.ErrEntryNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.SyncEntry, error) {
	entry := &models.SyncEntry{}
	var (
		localModified, remoteModified, lastSync sql.NullInt64
		resolution                              sql.NullString
		status, direction                       string
		conflict, compressed                    int
	)

	err := row.Scan(
		&entry.LocalPath,
		&entry.RemotePath,
		&localModified,
		&remoteModified,
		&status,
		&lastSync,
		&entry.Size,
		&direction,
		&conflict,
		&resolution,
		&entry.DataType,
		&compressed,
	)
	if err != nil {
		return nil, err
	}

	entry.LocalModified = nullToTime(localModified)
	entry.RemoteModified = nullToTime(remoteModified)
	entry.LastSync = nullToTime(lastSync)
	entry.Status = models.Status(status)
	entry.Direction = models.Direction(direction)
	entry.Conflict = intToBool(conflict)
	entry.Compressed = intToBool(compressed)
	if resolution.Valid {
		r := models.Resolution(resolution.String)
		entry.Resolution = &r
	}
	return entry, nil
}
