package models

import (
	"fmt"
	"time"
)

// Status is the reconciliation state of a tracked file.
type Status string

const (
	StatusPending  Status = "pending"
	StatusSynced   Status = "synced"
	StatusConflict Status = "conflict"
	StatusDeleted  Status = "deleted"
	StatusError    Status = "error"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSynced, StatusConflict, StatusDeleted, StatusError:
		return true
	}
	return false
}

// Direction controls which side of a file is authoritative.
type Direction string

const (
	DirectionUpload        Direction = "upload"
	DirectionDownload      Direction = "download"
	DirectionBidirectional Direction = "bidirectional"
)

// ParseDirection parses a direction name. Empty input means bidirectional.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case "":
		return DirectionBidirectional, nil
	case DirectionUpload, DirectionDownload, DirectionBidirectional:
		return d, nil
	}
	return "", fmt.Errorf("unknown sync direction %q", s)
}

// Resolution is the strategy used to settle a flagged conflict.
type Resolution string

const (
	ResolutionLocal  Resolution = "local"
	ResolutionRemote Resolution = "remote"
	ResolutionManual Resolution = "manual"
)

// ParseResolution parses a resolution name.
func ParseResolution(s string) (Resolution, error) {
	switch r := Resolution(s); r {
	case ResolutionLocal, ResolutionRemote, ResolutionManual:
		return r, nil
	}
	return "", fmt.Errorf("unknown conflict resolution %q", s)
}

// DefaultDataType is assigned to files registered without a data type.
const DefaultDataType = "general"

// DefaultDataTypePriority is the priority of implicitly created data types.
const DefaultDataTypePriority = 100

// SyncEntry is the ledger row for one tracked local file.
type SyncEntry struct {
	LocalModified  *time.Time  `json:"local_modified,omitempty"`  // last observed local mtime
	RemoteModified *time.Time  `json:"remote_modified,omitempty"` // last observed remote LastModified
	LastSync       *time.Time  `json:"last_sync,omitempty"`       // last successful reconciliation
	Resolution     *Resolution `json:"resolution,omitempty"`      // last conflict resolution applied
	LocalPath      string      `json:"local_path"`
	RemotePath     string      `json:"remote_path"`
	Status         Status      `json:"status"`
	Direction      Direction   `json:"sync_direction"`
	DataType       string      `json:"data_type"`
	Size           int64       `json:"size"`
	Conflict       bool        `json:"conflict"`
	Compressed     bool        `json:"compressed"`
}

// Validate checks the entry invariants before it is persisted.
func (e *SyncEntry) Validate() error {
	if e.LocalPath == "" {
		return fmt.Errorf("local path cannot be empty")
	}
	if e.RemotePath == "" {
		return fmt.Errorf("remote path cannot be empty")
	}
	if !e.Status.Valid() {
		return fmt.Errorf("invalid status %q", e.Status)
	}
	if e.Conflict != (e.Status == StatusConflict) {
		return fmt.Errorf("conflict flag %t does not match status %q", e.Conflict, e.Status)
	}
	if e.Status == StatusSynced && e.LastSync == nil {
		return fmt.Errorf("synced entry must have last sync time")
	}
	return nil
}

// Clone returns a deep copy of the entry.
func (e *SyncEntry) Clone() *SyncEntry {
	c := *e
	c.LocalModified = cloneTime(e.LocalModified)
	c.RemoteModified = cloneTime(e.RemoteModified)
	c.LastSync = cloneTime(e.LastSync)
	if e.Resolution != nil {
		r := *e.Resolution
		c.Resolution = &r
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// DataTypeConfig groups files sharing priority and compression policy.
type DataTypeConfig struct {
	Name               string `json:"name"`
	Priority           int    `json:"priority"` // lower runs first
	Enabled            bool   `json:"enabled"`
	CompressionEnabled bool   `json:"compression_enabled"`
}

// NewDataTypeConfig returns the implicit configuration of an unknown data type.
func NewDataTypeConfig(name string) *DataTypeConfig {
	return &DataTypeConfig{
		Name:     name,
		Priority: DefaultDataTypePriority,
		Enabled:  true,
	}
}

// ConflictPolicy decides which side wins when both copies changed.
type ConflictPolicy string

const (
	PolicyNewest       ConflictPolicy = "newest"
	PolicyPreferLocal  ConflictPolicy = "prefer_local"
	PolicyPreferRemote ConflictPolicy = "prefer_remote"
	PolicyManual       ConflictPolicy = "manual"
)

// Valid reports whether p is a known policy.
func (p ConflictPolicy) Valid() bool {
	switch p {
	case PolicyNewest, PolicyPreferLocal, PolicyPreferRemote, PolicyManual:
		return true
	}
	return false
}
