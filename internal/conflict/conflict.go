// Package conflict decides how to reconcile one tracked file given its
// recorded state and freshly observed local and remote evidence.
// Decide is pure: it performs no I/O and never mutates its input.
package conflict

import (
	"time"

	"github.com/iudanet/journalsync/internal/models"
)

// Action is the transfer the engine should perform.
type Action int

const (
	// NoOp leaves both sides as they are.
	NoOp Action = iota
	// UploadLocal copies the local file to the remote path.
	UploadLocal
	// DownloadRemote copies the remote object to the local path.
	DownloadRemote
	// FlagConflict marks the entry as conflicted until resolved explicitly.
	FlagConflict
	// DeleteRemote removes the remote copy and marks the entry deleted.
	DeleteRemote
	// MarkDeleted marks the entry deleted; neither side exists.
	MarkDeleted
)

func (a Action) String() string {
	switch a {
	case NoOp:
		return "noop"
	case UploadLocal:
		return "upload"
	case DownloadRemote:
		return "download"
	case FlagConflict:
		return "flag_conflict"
	case DeleteRemote:
		return "delete_remote"
	case MarkDeleted:
		return "mark_deleted"
	default:
		return "unknown"
	}
}

// MarshalText encodes the action by name.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// FileState is freshly observed evidence about one side. A nil *FileState
// means the file does not exist on that side.
type FileState struct {
	Modified time.Time
	Size     int64
}

// Input bundles everything Decide needs.
type Input struct {
	Local     *FileState
	Remote    *FileState
	Entry     *models.SyncEntry
	Policy    models.ConflictPolicy
	Tolerance time.Duration
}

// Decision is the outcome of Decide.
type Decision struct {
	Reason string
	Action Action
	// Conflict is true when both sides changed since the last sync,
	// whichever way the policy settled it.
	Conflict bool
}

// Decide picks the action for one entry.
func Decide(in Input) Decision {
	dir := in.Entry.Direction

	if in.Local == nil {
		return decideLocalMissing(dir, in.Remote != nil)
	}

	if in.Remote == nil {
		if dir == models.DirectionDownload {
			return Decision{Action: NoOp, Reason: "remote missing, download only"}
		}
		return Decision{Action: UploadLocal, Reason: "remote missing"}
	}

	localChanged := changed(in.Entry.LocalModified, in.Local.Modified, in.Tolerance)
	remoteChanged := changed(in.Entry.RemoteModified, in.Remote.Modified, in.Tolerance)

	switch dir {
	case models.DirectionUpload:
		if localChanged || remoteChanged {
			return Decision{Action: UploadLocal, Reason: "upload only"}
		}
		return Decision{Action: NoOp, Reason: "unchanged"}
	case models.DirectionDownload:
		if localChanged || remoteChanged {
			return Decision{Action: DownloadRemote, Reason: "download only"}
		}
		return Decision{Action: NoOp, Reason: "unchanged"}
	}

	switch {
	case localChanged && remoteChanged:
		return resolve(in.Policy, in.Local.Modified, in.Remote.Modified, in.Tolerance)
	case localChanged:
		return Decision{Action: UploadLocal, Reason: "local changed"}
	case remoteChanged:
		return Decision{Action: DownloadRemote, Reason: "remote changed"}
	default:
		return Decision{Action: NoOp, Reason: "unchanged"}
	}
}

func decideLocalMissing(dir models.Direction, remoteExists bool) Decision {
	switch dir {
	case models.DirectionUpload:
		if remoteExists {
			return Decision{Action: DeleteRemote, Reason: "local deleted, upload only"}
		}
		return Decision{Action: MarkDeleted, Reason: "missing on both sides"}
	default:
		if remoteExists {
			return Decision{Action: DownloadRemote, Reason: "local missing"}
		}
		return Decision{Action: MarkDeleted, Reason: "missing on both sides"}
	}
}

func resolve(policy models.ConflictPolicy, local, remote time.Time, tolerance time.Duration) Decision {
	d := Decision{Conflict: true}
	switch policy {
	case models.PolicyPreferLocal:
		d.Action, d.Reason = UploadLocal, "conflict, prefer local"
	case models.PolicyPreferRemote:
		d.Action, d.Reason = DownloadRemote, "conflict, prefer remote"
	case models.PolicyManual:
		d.Action, d.Reason = FlagConflict, "conflict, manual resolution"
	default:
		if Newest(local, remote, tolerance) == Local {
			d.Action, d.Reason = UploadLocal, "conflict, local is newer"
		} else {
			d.Action, d.Reason = DownloadRemote, "conflict, remote is newer"
		}
	}
	return d
}

// Side identifies a copy of a file.
type Side int

const (
	Local Side = iota
	Remote
)

// Newest returns the side with the later timestamp. Timestamps within
// tolerance of each other count as equal and favor Local.
func Newest(local, remote time.Time, tolerance time.Duration) Side {
	if remote.Sub(local) > tolerance {
		return Remote
	}
	return Local
}

// changed reports whether fresh differs from the recorded timestamp by more
// than tolerance. Nothing recorded counts as changed.
func changed(recorded *time.Time, fresh time.Time, tolerance time.Duration) bool {
	if recorded == nil {
		return true
	}
	diff := fresh.Sub(*recorded)
	if diff < 0 {
		diff = -diff
	}
	return diff > tolerance
}
