package engine

import "errors"

// Engine errors
var (
	// ErrNotRegistered indicates that the local path is not tracked
	ErrNotRegistered = errors.New("file is not registered for sync")

	// ErrLocalFileMissing indicates that a file to register does not exist
	ErrLocalFileMissing = errors.New("local file does not exist")

	// ErrConflictUnresolved indicates that the entry waits for manual resolution
	ErrConflictUnresolved = errors.New("conflict must be resolved before sync")

	// ErrNoConflict indicates a resolution request for an entry that is not in conflict
	ErrNoConflict = errors.New("entry is not in conflict")
)
