package sqlite

import (
	"context"
	"fmt"

	"github.com/iudanet/journalsync/internal/ledger"
	"github.com/iudanet/journalsync/internal/models"
)

// AppendBackup stores a catalog record and sets its ID.
func (s *Storage) AppendBackup(ctx context.Context, rec *models.BackupRecord) error {
	query := `
		INSERT INTO backups (timestamp, remote_archive_path, total_size, file_count, status, encrypted, note)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		rec.Timestamp.UnixNano(),
		rec.RemoteArchivePath,
		rec.TotalSize,
		rec.FileCount,
		string(rec.Status),
		boolToInt(rec.Encrypted),
		rec.Note,
	)
	if err != nil {
		return fmt.Errorf("failed to append backup: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get backup id: %w", err)
	}
	rec.ID = id
	return nil
}

// ListBackups returns catalog records newest first.
func (s *Storage) ListBackups(ctx context.Context, limit, offset int) ([]*models.BackupRecord, error) {
	query := `
		SELECT id, timestamp, remote_archive_path, total_size, file_count, status, encrypted, note
		FROM backups
		ORDER BY timestamp DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, sqliteLimit(limit), max(offset, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	defer rows.Close()

	records := make([]*models.BackupRecord, 0)
	for rows.Next() {
		rec := &models.BackupRecord{}
		var (
			ts        int64
			status    string
			encrypted int
		)
		if err := rows.Scan(&rec.ID, &ts, &rec.RemoteArchivePath, &rec.TotalSize, &rec.FileCount,
			&status, &encrypted, &rec.Note); err != nil {
			return nil, fmt.Errorf("failed to scan backup: %w", err)
		}
		rec.Timestamp = unixNanoToTime(ts)
		rec.Status = models.BackupStatus(status)
		rec.Encrypted = intToBool(encrypted)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate backups: %w", err)
	}
	return records, nil
}

// DeleteBackup removes a catalog record.
func (s *Storage) DeleteBackup(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM backups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete backup: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ledger.ErrBackupNotFound
	}
	return nil
}
