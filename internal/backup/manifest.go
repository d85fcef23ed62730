package backup

import (
	"encoding/json"
	"fmt"
	"time"
)

// ManifestName is the name of the manifest object inside an archive folder.
const ManifestName = "manifest.json"

// manifestVersion is bumped when the manifest layout changes.
const manifestVersion = 1

// Manifest describes the content of one archive.
type Manifest struct {
	CreatedAt time.Time      `json:"created_at"`
	ID        string         `json:"id"`
	Files     []ManifestFile `json:"files"`
	Version   int            `json:"version"`
	Encrypted bool           `json:"encrypted"`
}

// ManifestFile is one attempted file. Files with Error set were not stored.
type ManifestFile struct {
	LocalPath   string `json:"local_path"`
	ArchivePath string `json:"archive_path,omitempty"`
	Checksum    string `json:"sha256,omitempty"` // of the original content
	Error       string `json:"error,omitempty"`
	Size        int64  `json:"size"`
	StoredSize  int64  `json:"stored_size"`
	Compressed  bool   `json:"compressed"`
	Encrypted   bool   `json:"encrypted"`
}

func marshalManifest(m *Manifest) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("could not marshal manifest: %w", err)
	}
	return data, nil
}

func unmarshalManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("could not parse manifest, it may be corrupt: %w", err)
	}
	if m.Version > manifestVersion {
		return nil, fmt.Errorf("unsupported manifest version %d", m.Version)
	}
	return &m, nil
}
