package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/journalsync/internal/backup"
	"github.com/iudanet/journalsync/internal/config"
	"github.com/iudanet/journalsync/internal/engine"
	"github.com/iudanet/journalsync/internal/keystore"
	"github.com/iudanet/journalsync/internal/models"
	"github.com/iudanet/journalsync/internal/provider"
	"github.com/iudanet/journalsync/pkg/api"
)

// stubService implements Service; calls to methods without a func set panic.
type stubService struct {
	Service
	register      func(engine.RegisterRequest) (*models.SyncEntry, error)
	unregister    func(path string, deleteRemote bool) error
	syncFile      func(path string) (*engine.SyncResult, error)
	syncAll       func(types []string) (*engine.BatchResult, error)
	logs          func(limit, offset int) ([]*models.SyncLogRecord, error)
	resolve       func(path string, res models.Resolution) (*models.SyncEntry, error)
	updateConfig  func(map[string]string) (config.EngineConfig, error)
	updateType    func(name string, upd engine.DataTypeUpdate) (*models.DataTypeConfig, error)
	restoreBackup func(archive, target string) (*backup.RestoreResult, error)
}

func (s *stubService) RegisterFile(_ context.Context, req engine.RegisterRequest) (*models.SyncEntry, error) {
	return s.register(req)
}

func (s *stubService) UnregisterFile(_ context.Context, path string, deleteRemote bool) error {
	return s.unregister(path, deleteRemote)
}

func (s *stubService) SyncFile(_ context.Context, path string) (*engine.SyncResult, error) {
	return s.syncFile(path)
}

func (s *stubService) SyncAll(_ context.Context, types ...string) (*engine.BatchResult, error) {
	return s.syncAll(types)
}

func (s *stubService) GetSyncLogs(_ context.Context, limit, offset int) ([]*models.SyncLogRecord, error) {
	return s.logs(limit, offset)
}

func (s *stubService) ResolveConflict(_ context.Context, path string, res models.Resolution) (*models.SyncEntry, error) {
	return s.resolve(path, res)
}

func (s *stubService) UpdateConfig(_ context.Context, values map[string]string) (config.EngineConfig, error) {
	return s.updateConfig(values)
}

func (s *stubService) UpdateDataType(_ context.Context, name string, upd engine.DataTypeUpdate) (*models.DataTypeConfig, error) {
	return s.updateType(name, upd)
}

func (s *stubService) RestoreBackup(_ context.Context, archive, target string) (*backup.RestoreResult, error) {
	return s.restoreBackup(archive, target)
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) api.Response {
	t.Helper()
	var resp api.Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want int
	}{
		{name: "not registered", err: fmt.Errorf("sync: %w", engine.ErrNotRegistered), want: http.StatusNotFound},
		{name: "remote not found", err: provider.ErrNotFound, want: http.StatusNotFound},
		{name: "conflict unresolved", err: engine.ErrConflictUnresolved, want: http.StatusConflict},
		{name: "no conflict", err: engine.ErrNoConflict, want: http.StatusConflict},
		{name: "invalid config", err: fmt.Errorf("%w: bad", config.ErrInvalid), want: http.StatusBadRequest},
		{name: "local file missing", err: engine.ErrLocalFileMissing, want: http.StatusBadRequest},
		{name: "wrong passphrase", err: keystore.ErrWrongPassphrase, want: http.StatusForbidden},
		{name: "key unavailable", err: backup.ErrKeyUnavailable, want: http.StatusServiceUnavailable},
		{name: "permanent provider", err: provider.Permanent("upload", "a", errors.New("denied")), want: http.StatusBadGateway},
		{name: "transient provider", err: provider.Transient("upload", "a", errors.New("timeout")), want: http.StatusServiceUnavailable},
		{name: "canceled", err: context.Canceled, want: http.StatusServiceUnavailable},
		{name: "unknown", err: errors.New("disk on fire"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestHandler_Register(t *testing.T) {
	var got engine.RegisterRequest
	svc := &stubService{
		register: func(req engine.RegisterRequest) (*models.SyncEntry, error) {
			got = req
			now := time.Now().UTC()
			return &models.SyncEntry{
				LocalPath:  req.LocalPath,
				RemotePath: "journal/trades.db",
				Status:     models.StatusSynced,
				LastSync:   &now,
			}, nil
		},
	}
	h := New(svc, setupTestLogger())

	body := `{"local_path":"/data/trades.db","direction":"upload","data_type":"trade","compress":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Register(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, api.StatusOK, resp.Status)

	assert.Equal(t, "/data/trades.db", got.LocalPath)
	assert.Equal(t, models.DirectionUpload, got.Direction)
	assert.Equal(t, "trade", got.DataType)
	require.NotNil(t, got.Compress)
	assert.True(t, *got.Compress)
}

func TestHandler_RegisterErrors(t *testing.T) {
	tests := []struct {
		err        error
		name       string
		body       string
		wantStatus int
	}{
		{name: "malformed body", body: `{"local_path":`, wantStatus: http.StatusBadRequest},
		{name: "missing file", body: `{"local_path":"/nope"}`, err: engine.ErrLocalFileMissing, wantStatus: http.StatusBadRequest},
		{name: "internal", body: `{"local_path":"/a"}`, err: errors.New("database is locked"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{
				register: func(engine.RegisterRequest) (*models.SyncEntry, error) {
					return nil, tt.err
				},
			}
			h := New(svc, setupTestLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/files", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			h.Register(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.Equal(t, api.StatusError, resp.Status)
			assert.NotEmpty(t, resp.Error)
			assert.NotContains(t, resp.Error, "database is locked")
		})
	}
}

func TestHandler_Unregister(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantStatus   int
		wantCalled   bool
		wantDeleteRe bool
	}{
		{name: "missing path", query: "", wantStatus: http.StatusBadRequest},
		{name: "bad flag", query: "?path=/a&delete_remote=perhaps", wantStatus: http.StatusBadRequest},
		{name: "keep remote", query: "?path=/a", wantStatus: http.StatusOK, wantCalled: true},
		{name: "delete remote", query: "?path=/a&delete_remote=true", wantStatus: http.StatusOK, wantCalled: true, wantDeleteRe: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called, deleteRemote bool
			svc := &stubService{
				unregister: func(path string, del bool) error {
					called = true
					deleteRemote = del
					assert.Equal(t, "/a", path)
					return nil
				},
			}
			h := New(svc, setupTestLogger())

			req := httptest.NewRequest(http.MethodDelete, "/api/v1/files"+tt.query, nil)
			w := httptest.NewRecorder()
			h.Unregister(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCalled, called)
			assert.Equal(t, tt.wantDeleteRe, deleteRemote)
		})
	}
}

func TestHandler_Sync(t *testing.T) {
	t.Run("empty body syncs everything", func(t *testing.T) {
		var types []string
		svc := &stubService{
			syncAll: func(dt []string) (*engine.BatchResult, error) {
				types = dt
				return &engine.BatchResult{Total: 3, Successful: 3}, nil
			},
		}
		h := New(svc, setupTestLogger())

		w := httptest.NewRecorder()
		h.Sync(w, httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, types)
	})

	t.Run("data types", func(t *testing.T) {
		var types []string
		svc := &stubService{
			syncAll: func(dt []string) (*engine.BatchResult, error) {
				types = dt
				return &engine.BatchResult{}, nil
			},
		}
		h := New(svc, setupTestLogger())

		w := httptest.NewRecorder()
		h.Sync(w, httptest.NewRequest(http.MethodPost, "/api/v1/sync", strings.NewReader(`{"data_types":["trade","plan"]}`)))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"trade", "plan"}, types)
	})

	t.Run("single file in conflict", func(t *testing.T) {
		svc := &stubService{
			syncFile: func(path string) (*engine.SyncResult, error) {
				assert.Equal(t, "/data/plan.md", path)
				return nil, engine.ErrConflictUnresolved
			},
		}
		h := New(svc, setupTestLogger())

		w := httptest.NewRecorder()
		h.Sync(w, httptest.NewRequest(http.MethodPost, "/api/v1/sync", strings.NewReader(`{"local_path":"/data/plan.md"}`)))

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, engine.ErrConflictUnresolved.Error(), decodeResponse(t, w).Error)
	})

	t.Run("transient provider failure", func(t *testing.T) {
		svc := &stubService{
			syncFile: func(string) (*engine.SyncResult, error) {
				return nil, provider.Transient("stat", "journal/a", errors.New("connection reset"))
			},
		}
		h := New(svc, setupTestLogger())

		w := httptest.NewRecorder()
		h.Sync(w, httptest.NewRequest(http.MethodPost, "/api/v1/sync", strings.NewReader(`{"local_path":"/a"}`)))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestHandler_Logs(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantLimit  int
		wantOffset int
	}{
		{name: "defaults", query: "", wantStatus: http.StatusOK},
		{name: "paged", query: "?limit=20&offset=40", wantStatus: http.StatusOK, wantLimit: 20, wantOffset: 40},
		{name: "bad limit", query: "?limit=ten", wantStatus: http.StatusBadRequest},
		{name: "negative offset", query: "?offset=-1", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var limit, offset int
			svc := &stubService{
				logs: func(l, o int) ([]*models.SyncLogRecord, error) {
					limit, offset = l, o
					return []*models.SyncLogRecord{}, nil
				},
			}
			h := New(svc, setupTestLogger())

			w := httptest.NewRecorder()
			h.Logs(w, httptest.NewRequest(http.MethodGet, "/api/v1/logs"+tt.query, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestHandler_Resolve(t *testing.T) {
	svc := &stubService{
		resolve: func(path string, res models.Resolution) (*models.SyncEntry, error) {
			if res == models.ResolutionManual {
				return nil, fmt.Errorf("%s: %w", path, engine.ErrNoConflict)
			}
			return &models.SyncEntry{LocalPath: path, Status: models.StatusSynced, Resolution: &res}, nil
		},
	}
	h := New(svc, setupTestLogger())

	w := httptest.NewRecorder()
	h.Resolve(w, httptest.NewRequest(http.MethodPost, "/api/v1/conflicts/resolve",
		strings.NewReader(`{"local_path":"/a","resolution":"local"}`)))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.Resolve(w, httptest.NewRequest(http.MethodPost, "/api/v1/conflicts/resolve",
		strings.NewReader(`{"local_path":"/a","resolution":"manual"}`)))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandler_UpdateConfig(t *testing.T) {
	svc := &stubService{
		updateConfig: func(values map[string]string) (config.EngineConfig, error) {
			cfg := config.Default()
			patch, err := config.ParsePatch(values)
			if err != nil {
				return config.EngineConfig{}, err
			}
			return cfg.Apply(patch)
		},
	}
	h := New(svc, setupTestLogger())

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "valid", body: `{"sync_interval":"60","auto_sync_enabled":"true"}`, wantStatus: http.StatusOK},
		{name: "empty", body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "too short interval", body: `{"sync_interval":"1"}`, wantStatus: http.StatusBadRequest},
		{name: "unknown key", body: `{"colour":"blue"}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.UpdateConfig(w, httptest.NewRequest(http.MethodPatch, "/api/v1/config", strings.NewReader(tt.body)))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestHandler_UpdateDataType(t *testing.T) {
	var gotName string
	var gotUpd engine.DataTypeUpdate
	svc := &stubService{
		updateType: func(name string, upd engine.DataTypeUpdate) (*models.DataTypeConfig, error) {
			gotName, gotUpd = name, upd
			return models.NewDataTypeConfig(name), nil
		},
	}
	h := New(svc, setupTestLogger())

	r := chi.NewRouter()
	r.Put("/api/v1/datatypes/{name}", h.UpdateDataType)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/v1/datatypes/screenshot",
		strings.NewReader(`{"priority":5,"compression_enabled":false}`)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "screenshot", gotName)
	require.NotNil(t, gotUpd.Priority)
	assert.Equal(t, 5, *gotUpd.Priority)
	require.NotNil(t, gotUpd.CompressionEnabled)
	assert.False(t, *gotUpd.CompressionEnabled)
	assert.Nil(t, gotUpd.Enabled)
}

func TestHandler_RestoreBackup(t *testing.T) {
	svc := &stubService{
		restoreBackup: func(archive, target string) (*backup.RestoreResult, error) {
			return nil, provider.Permanent("download", archive, errors.New("access denied"))
		},
	}
	h := New(svc, setupTestLogger())

	w := httptest.NewRecorder()
	h.RestoreBackup(w, httptest.NewRequest(http.MethodPost, "/api/v1/backups/restore", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	h.RestoreBackup(w, httptest.NewRequest(http.MethodPost, "/api/v1/backups/restore",
		strings.NewReader(`{"archive_path":"backups/20260101T000000Z-abcd1234"}`)))
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
