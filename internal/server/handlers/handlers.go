// Package handlers implements the journalsync HTTP API on top of the
// application service.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/iudanet/journalsync/internal/backup"
	"github.com/iudanet/journalsync/internal/config"
	"github.com/iudanet/journalsync/internal/engine"
	"github.com/iudanet/journalsync/internal/keystore"
	"github.com/iudanet/journalsync/internal/models"
	"github.com/iudanet/journalsync/internal/provider"
	"github.com/iudanet/journalsync/internal/scheduler"
	"github.com/iudanet/journalsync/pkg/api"
)

// Service is the application surface served over HTTP.
type Service interface {
	RegisterFile(ctx context.Context, req engine.RegisterRequest) (*models.SyncEntry, error)
	UnregisterFile(ctx context.Context, localPath string, deleteRemote bool) error
	SyncFile(ctx context.Context, localPath string) (*engine.SyncResult, error)
	SyncAll(ctx context.Context, dataTypes ...string) (*engine.BatchResult, error)
	GetSyncStatus(ctx context.Context, localPath string) (*engine.StatusReport, error)
	GetSyncLogs(ctx context.Context, limit, offset int) ([]*models.SyncLogRecord, error)
	ResolveConflict(ctx context.Context, localPath string, resolution models.Resolution) (*models.SyncEntry, error)
	GetConfig(ctx context.Context) (config.EngineConfig, error)
	UpdateConfig(ctx context.Context, values map[string]string) (config.EngineConfig, error)
	GetDataTypes(ctx context.Context) ([]*models.DataTypeConfig, error)
	UpdateDataType(ctx context.Context, name string, upd engine.DataTypeUpdate) (*models.DataTypeConfig, error)
	CreateBackup(ctx context.Context) (*models.BackupRecord, error)
	ListBackups(ctx context.Context, limit, offset int) ([]*models.BackupRecord, error)
	RestoreBackup(ctx context.Context, archivePath, targetFolder string) (*backup.RestoreResult, error)
	CleanupOldBackups(ctx context.Context) (*backup.CleanupResult, error)
	Unlock(ctx context.Context, passphrase string) error
	SchedulerStatus() scheduler.Status
}

// Handler serves the /api/v1 endpoints.
type Handler struct {
	svc    Service
	logger *slog.Logger
}

// New creates the API handler.
func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		logger: logger.With(slog.String("component", "api")),
	}
}

// StatusCode maps service errors to HTTP status codes.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, engine.ErrNotRegistered), errors.Is(err, provider.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrConflictUnresolved), errors.Is(err, engine.ErrNoConflict):
		return http.StatusConflict
	case errors.Is(err, config.ErrInvalid), errors.Is(err, engine.ErrLocalFileMissing):
		return http.StatusBadRequest
	case errors.Is(err, keystore.ErrWrongPassphrase):
		return http.StatusForbidden
	case errors.Is(err, backup.ErrKeyUnavailable):
		return http.StatusServiceUnavailable
	case provider.IsPermanent(err):
		return http.StatusBadGateway
	case provider.IsTransient(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(api.Response{Status: api.StatusOK, Data: data}); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusCode(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal server error"
	} else {
		h.logger.Warn("Request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeErrorBody(w, status, msg)
}

func writeErrorBody(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.Response{Status: api.StatusError, Error: msg})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	return h.decodeBody(w, r, v, false)
}

// decodeOptional accepts an empty body.
func (h *Handler) decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	return h.decodeBody(w, r, v, true)
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if allowEmpty && errors.Is(err, io.EOF) {
		return true
	}
	if err != nil {
		h.logger.Warn("Failed to decode request", "path", r.URL.Path, "error", err)
		writeErrorBody(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// pagination parses limit and offset query parameters.
func pagination(r *http.Request) (limit, offset int, ok bool) {
	q := r.URL.Query()
	var err error
	if raw := q.Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
			return 0, 0, false
		}
	}
	if raw := q.Get("offset"); raw != "" {
		if offset, err = strconv.Atoi(raw); err != nil || offset < 0 {
			return 0, 0, false
		}
	}
	return limit, offset, true
}
