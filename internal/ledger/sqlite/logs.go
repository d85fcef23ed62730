package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iudanet/journalsync/internal/models"
)

// AppendLog appends an audit record and sets its ID.
func (s *Storage) AppendLog(ctx context.Context, rec *models.SyncLogRecord) error {
	return appendLog(ctx, s.db, rec)
}

func appendLog(ctx context.Context, db execer, rec *models.SyncLogRecord) error {
	query := `
		INSERT INTO sync_log (timestamp, action, local_path, remote_path, status, error)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := db.ExecContext(ctx, query,
		rec.Timestamp.UnixNano(),
		string(rec.Action),
		rec.LocalPath,
		rec.RemotePath,
		string(rec.Status),
		stringToNull(rec.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to append log: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		rec.ID = id
	}
	return nil
}

// ListLogs returns audit records newest first.
func (s *Storage) ListLogs(ctx context.Context, limit, offset int) ([]*models.SyncLogRecord, error) {
	query := `
		SELECT id, timestamp, action, local_path, remote_path, status, error
		FROM sync_log
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, sqliteLimit(limit), max(offset, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}
	defer rows.Close()

	records := make([]*models.SyncLogRecord, 0)
	for rows.Next() {
		rec := &models.SyncLogRecord{}
		var (
			ts             int64
			action, status string
			errMsg         sql.NullString
		)
		if err := rows.Scan(&rec.ID, &ts, &action, &rec.LocalPath, &rec.RemotePath, &status, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan log: %w", err)
		}
		rec.Timestamp = unixNanoToTime(ts)
		rec.Action = models.Action(action)
		rec.Status = models.Status(status)
		rec.Error = nullToString(errMsg)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate logs: %w", err)
	}
	return records, nil
}
