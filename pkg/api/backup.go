package api

// RestoreRequest is the body of POST /api/v1/backups/restore. Files are
// restored to their original paths unless TargetFolder is set.
type RestoreRequest struct {
	ArchivePath  string `json:"archive_path"`
	TargetFolder string `json:"target_folder,omitempty"`
}

// UnlockRequest is the body of POST /api/v1/unlock.
type UnlockRequest struct {
	Passphrase string `json:"passphrase"`
}
