package handlers

import (
	"net/http"

	"github.com/iudanet/journalsync/pkg/api"
)

// CreateBackup handles POST /api/v1/backups.
func (h *Handler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.CreateBackup(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, rec)
}

// ListBackups handles GET /api/v1/backups?limit=&offset=.
func (h *Handler) ListBackups(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pagination(r)
	if !ok {
		writeErrorBody(w, http.StatusBadRequest, "invalid limit or offset")
		return
	}

	records, err := h.svc.ListBackups(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, records)
}

// RestoreBackup handles POST /api/v1/backups/restore.
func (h *Handler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	var req api.RestoreRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.ArchivePath == "" {
		writeErrorBody(w, http.StatusBadRequest, "archive_path is required")
		return
	}

	res, err := h.svc.RestoreBackup(r.Context(), req.ArchivePath, req.TargetFolder)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// CleanupBackups handles POST /api/v1/backups/cleanup.
func (h *Handler) CleanupBackups(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.CleanupOldBackups(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// Unlock handles POST /api/v1/unlock. The passphrase is never logged.
func (h *Handler) Unlock(w http.ResponseWriter, r *http.Request) {
	var req api.UnlockRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Passphrase == "" {
		writeErrorBody(w, http.StatusBadRequest, "passphrase is required")
		return
	}

	if err := h.svc.Unlock(r.Context(), req.Passphrase); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, nil)
}
