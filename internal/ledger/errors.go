package ledger

import "errors"

// Common ledger errors
var (
	// ErrEntryNotFound indicates that no sync entry exists for the path
	ErrEntryNotFound = errors.New("sync entry not found")

	// ErrDataTypeNotFound indicates that the data type was never configured
	ErrDataTypeNotFound = errors.New("data type not found")

	// ErrBackupNotFound indicates that the backup record does not exist
	ErrBackupNotFound = errors.New("backup record not found")
)
