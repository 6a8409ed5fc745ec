package api

import (
	"io"
	"net/http"

	"github.com/tmgate/tmgate/pkg/calibration"
)

// maxCalibrationBytes bounds uploaded artifacts. Fitted mappings hold at
// most two breakpoints per pooled block, so real artifacts are tiny.
const maxCalibrationBytes = 1 << 20

// handlePutCalibration validates and stores a calibration artifact for a
// project under the given name.
func (h *Handler) handlePutCalibration(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectID")
	name := r.PathValue("name")

	if _, err := h.store.GetProject(r.Context(), projectID); err != nil {
		writeError(w, http.StatusNotFound, "project not found: "+err.Error())
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxCalibrationBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	set, err := calibration.DecodeSet(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid calibration: "+err.Error())
		return
	}

	if err := h.storage.PutCalibration(r.Context(), projectID, name, data); err != nil {
		writeError(w, http.StatusInternalServerError, "store calibration: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    name,
		"metrics": set.Metrics(),
	})
}

// handleGetCalibration returns a stored calibration artifact verbatim.
func (h *Handler) handleGetCalibration(w http.ResponseWriter, r *http.Request) {
	data, err := h.storage.GetCalibration(r.Context(), r.PathValue("projectID"), r.PathValue("name"))
	if err != nil {
		writeError(w, http.StatusNotFound, "calibration not found: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
