package handlers

import (
	"net/http"
	"strconv"

	"github.com/iudanet/journalsync/internal/engine"
	"github.com/iudanet/journalsync/internal/models"
	"github.com/iudanet/journalsync/pkg/api"
)

// Register handles POST /api/v1/files.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	entry, err := h.svc.RegisterFile(r.Context(), engine.RegisterRequest{
		Compress:   req.Compress,
		LocalPath:  req.LocalPath,
		RemotePath: req.RemotePath,
		Direction:  models.Direction(req.Direction),
		DataType:   req.DataType,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, entry)
}

// Unregister handles DELETE /api/v1/files?path=...&delete_remote=true.
func (h *Handler) Unregister(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	localPath := q.Get("path")
	if localPath == "" {
		writeErrorBody(w, http.StatusBadRequest, "path parameter is required")
		return
	}

	var deleteRemote bool
	if raw := q.Get("delete_remote"); raw != "" {
		var err error
		if deleteRemote, err = strconv.ParseBool(raw); err != nil {
			writeErrorBody(w, http.StatusBadRequest, "invalid delete_remote parameter")
			return
		}
	}

	if err := h.svc.UnregisterFile(r.Context(), localPath, deleteRemote); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, nil)
}

// Status handles GET /api/v1/status with an optional path parameter.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.GetSyncStatus(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

// Sync handles POST /api/v1/sync. A body naming a local path syncs that
// file; otherwise the whole ledger or the listed data types are synced.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	var req api.SyncRequest
	if !h.decodeOptional(w, r, &req) {
		return
	}

	if req.LocalPath != "" {
		res, err := h.svc.SyncFile(r.Context(), req.LocalPath)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusOK, res)
		return
	}

	res, err := h.svc.SyncAll(r.Context(), req.DataTypes...)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Info("Batch sync completed",
		"total", res.Total,
		"successful", res.Successful,
		"failed", res.Failed,
		"skipped", res.Skipped)
	h.writeJSON(w, http.StatusOK, res)
}

// Logs handles GET /api/v1/logs?limit=&offset=.
func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pagination(r)
	if !ok {
		writeErrorBody(w, http.StatusBadRequest, "invalid limit or offset")
		return
	}

	logs, err := h.svc.GetSyncLogs(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, logs)
}

// Resolve handles POST /api/v1/conflicts/resolve.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req api.ResolveRequest
	if !h.decode(w, r, &req) {
		return
	}

	entry, err := h.svc.ResolveConflict(r.Context(), req.LocalPath, models.Resolution(req.Resolution))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entry)
}
