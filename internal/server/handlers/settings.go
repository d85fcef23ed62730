package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iudanet/journalsync/internal/engine"
	"github.com/iudanet/journalsync/pkg/api"
)

// GetConfig handles GET /api/v1/config.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.svc.GetConfig(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, cfg.Values())
}

// UpdateConfig handles PATCH /api/v1/config. The update is applied
// atomically; a rejected value leaves every key unchanged.
func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req api.ConfigUpdate
	if !h.decode(w, r, &req) {
		return
	}
	if len(req) == 0 {
		writeErrorBody(w, http.StatusBadRequest, "no configuration keys given")
		return
	}

	cfg, err := h.svc.UpdateConfig(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Info("Configuration updated", "keys", len(req))
	h.writeJSON(w, http.StatusOK, cfg.Values())
}

// DataTypes handles GET /api/v1/datatypes.
func (h *Handler) DataTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.svc.GetDataTypes(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, types)
}

// UpdateDataType handles PUT /api/v1/datatypes/{name}.
func (h *Handler) UpdateDataType(w http.ResponseWriter, r *http.Request) {
	var req api.DataTypeUpdate
	if !h.decode(w, r, &req) {
		return
	}

	dt, err := h.svc.UpdateDataType(r.Context(), chi.URLParam(r, "name"), engine.DataTypeUpdate{
		Enabled:            req.Enabled,
		Priority:           req.Priority,
		CompressionEnabled: req.CompressionEnabled,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dt)
}

// Scheduler handles GET /api/v1/scheduler.
func (h *Handler) Scheduler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.svc.SchedulerStatus())
}
