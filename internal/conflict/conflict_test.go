package conflict

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iudanet/journalsync/internal/models"
)

var (
	t0  = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	t1  = t0.Add(time.Minute)
	t2  = t0.Add(2 * time.Minute)
	tol = 2 * time.Second
)

func ptr(t time.Time) *time.Time {
	return &t
}

func state(t time.Time) *FileState {
	return &FileState{Modified: t, Size: 10}
}

func entry(dir models.Direction, local, remote *time.Time) *models.SyncEntry {
	return &models.SyncEntry{
		LocalPath:      "/data/a.png",
		RemotePath:     "journal/a.png",
		Direction:      dir,
		LocalModified:  local,
		RemoteModified: remote,
		Status:         models.StatusSynced,
	}
}

func TestDecide(t *testing.T) {
	bi := models.DirectionBidirectional
	up := models.DirectionUpload
	down := models.DirectionDownload

	tests := []struct {
		name         string
		in           Input
		want         Action
		wantConflict bool
	}{
		{
			name: "first sync uploads",
			in:   Input{Entry: entry(bi, nil, nil), Local: state(t0)},
			want: UploadLocal,
		},
		{
			name: "download only with remote missing keeps local",
			in:   Input{Entry: entry(down, nil, nil), Local: state(t0)},
			want: NoOp,
		},
		{
			name: "local missing downloads",
			in:   Input{Entry: entry(bi, ptr(t0), ptr(t0)), Remote: state(t0)},
			want: DownloadRemote,
		},
		{
			name: "download only local missing downloads",
			in:   Input{Entry: entry(down, ptr(t0), ptr(t0)), Remote: state(t0)},
			want: DownloadRemote,
		},
		{
			name: "download only missing everywhere",
			in:   Input{Entry: entry(down, ptr(t0), ptr(t0))},
			want: MarkDeleted,
		},
		{
			name: "upload only local missing deletes remote",
			in:   Input{Entry: entry(up, ptr(t0), ptr(t0)), Remote: state(t0)},
			want: DeleteRemote,
		},
		{
			name: "upload only missing everywhere",
			in:   Input{Entry: entry(up, ptr(t0), ptr(t0))},
			want: MarkDeleted,
		},
		{
			name: "nothing changed",
			in:   Input{Entry: entry(bi, ptr(t0), ptr(t0)), Local: state(t0), Remote: state(t0), Tolerance: tol},
			want: NoOp,
		},
		{
			name: "change within tolerance is ignored",
			in: Input{
				Entry:     entry(bi, ptr(t0), ptr(t0)),
				Local:     state(t0.Add(time.Second)),
				Remote:    state(t0.Add(-time.Second)),
				Tolerance: tol,
			},
			want: NoOp,
		},
		{
			name: "local changed",
			in:   Input{Entry: entry(bi, ptr(t0), ptr(t0)), Local: state(t1), Remote: state(t0), Tolerance: tol},
			want: UploadLocal,
		},
		{
			name: "remote changed",
			in:   Input{Entry: entry(bi, ptr(t0), ptr(t0)), Local: state(t0), Remote: state(t1), Tolerance: tol},
			want: DownloadRemote,
		},
		{
			name: "upload only ignores remote change",
			in:   Input{Entry: entry(up, ptr(t0), ptr(t0)), Local: state(t0), Remote: state(t1), Tolerance: tol},
			want: UploadLocal,
		},
		{
			name: "download only ignores local change",
			in:   Input{Entry: entry(down, ptr(t0), ptr(t0)), Local: state(t1), Remote: state(t0), Tolerance: tol},
			want: DownloadRemote,
		},
		{
			name: "both changed newest local",
			in: Input{
				Entry: entry(bi, ptr(t0), ptr(t0)), Local: state(t2), Remote: state(t1),
				Policy: models.PolicyNewest, Tolerance: tol,
			},
			want:         UploadLocal,
			wantConflict: true,
		},
		{
			name: "both changed newest remote",
			in: Input{
				Entry: entry(bi, ptr(t0), ptr(t0)), Local: state(t1), Remote: state(t2),
				Policy: models.PolicyNewest, Tolerance: tol,
			},
			want:         DownloadRemote,
			wantConflict: true,
		},
		{
			name: "both changed newest tie favors local",
			in: Input{
				Entry: entry(bi, ptr(t0), ptr(t0)), Local: state(t1), Remote: state(t1.Add(time.Second)),
				Policy: models.PolicyNewest, Tolerance: tol,
			},
			want:         UploadLocal,
			wantConflict: true,
		},
		{
			name: "both changed prefer local",
			in: Input{
				Entry: entry(bi, ptr(t0), ptr(t0)), Local: state(t1), Remote: state(t2),
				Policy: models.PolicyPreferLocal, Tolerance: tol,
			},
			want:         UploadLocal,
			wantConflict: true,
		},
		{
			name: "both changed prefer remote",
			in: Input{
				Entry: entry(bi, ptr(t0), ptr(t0)), Local: state(t2), Remote: state(t1),
				Policy: models.PolicyPreferRemote, Tolerance: tol,
			},
			want:         DownloadRemote,
			wantConflict: true,
		},
		{
			name: "both changed manual flags",
			in: Input{
				Entry: entry(bi, ptr(t0), ptr(t0)), Local: state(t2), Remote: state(t1),
				Policy: models.PolicyManual, Tolerance: tol,
			},
			want:         FlagConflict,
			wantConflict: true,
		},
		{
			name: "nothing recorded with both present counts as conflict",
			in: Input{
				Entry: entry(bi, nil, nil), Local: state(t1), Remote: state(t1),
				Policy: models.PolicyNewest, Tolerance: tol,
			},
			want:         UploadLocal,
			wantConflict: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.in)
			assert.Equal(t, tt.want, got.Action, got.Reason)
			assert.Equal(t, tt.wantConflict, got.Conflict)
			assert.NotEmpty(t, got.Reason)
		})
	}
}

func TestDecide_DoesNotMutateEntry(t *testing.T) {
	e := entry(models.DirectionBidirectional, ptr(t0), ptr(t0))
	before := e.Clone()

	Decide(Input{Entry: e, Local: state(t2), Remote: state(t1), Policy: models.PolicyManual})
	assert.Equal(t, before, e)
}

func TestNewest_Symmetry(t *testing.T) {
	pairs := []struct {
		a, b time.Time
	}{
		{t0, t1},
		{t1, t0},
		{t0, t2},
		{t2, t1},
	}

	for _, p := range pairs {
		later := p.a
		if p.b.After(p.a) {
			later = p.b
		}

		// evaluate in both argument orders: the later timestamp always wins
		winnerAB := Newest(p.a, p.b, tol)
		winnerBA := Newest(p.b, p.a, tol)

		pickAB := p.a
		if winnerAB == Remote {
			pickAB = p.b
		}
		pickBA := p.b
		if winnerBA == Remote {
			pickBA = p.a
		}

		assert.Equal(t, later, pickAB)
		assert.Equal(t, later, pickBA)
	}
}

func TestNewest_TieFavorsLocal(t *testing.T) {
	assert.Equal(t, Local, Newest(t0, t0, 0))
	assert.Equal(t, Local, Newest(t0, t0.Add(tol), tol))
	assert.Equal(t, Local, Newest(t0.Add(tol), t0, tol))
	assert.Equal(t, Remote, Newest(t0, t0.Add(tol+time.Nanosecond), tol))
}

func TestDecide_RepeatedCallsAgree(t *testing.T) {
	in := Input{
		Entry:     entry(models.DirectionBidirectional, ptr(t0), ptr(t0)),
		Local:     state(t1),
		Remote:    state(t2),
		Policy:    models.PolicyNewest,
		Tolerance: tol,
	}
	first := Decide(in)
	for range 10 {
		assert.Equal(t, first, Decide(in))
	}
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "upload", UploadLocal.String())
	assert.Equal(t, "download", DownloadRemote.String())
	assert.Equal(t, "noop", NoOp.String())
	assert.Equal(t, "unknown", Action(99).String())
}
