// Package api implements the hosted TMGate REST API.
// It exposes scoring, batch runs and calibration artifacts backed by
// Postgres and blob storage.
package api

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/tmgate/tmgate/internal/artifact"
	"github.com/tmgate/tmgate/internal/runstore"
	"github.com/tmgate/tmgate/pkg/batch"
	"github.com/tmgate/tmgate/pkg/calibration"
	"github.com/tmgate/tmgate/pkg/progress"
	"github.com/tmgate/tmgate/pkg/scoring"
)

// Handler is the top-level API handler for the hosted TMGate service.
type Handler struct {
	db         *sql.DB
	store      *runstore.Service
	storage    artifact.StorageClient
	aggregator *scoring.Aggregator
	workers    int
	logger     *log.Logger

	// Live trackers for runs currently executing in this process.
	mu       sync.Mutex
	trackers map[string]*progress.Tracker
}

// NewHandler creates a new API handler.
func NewHandler(db *sql.DB, store *runstore.Service, storage artifact.StorageClient, aggregator *scoring.Aggregator, workers int, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	if workers < 1 {
		workers = 1
	}
	return &Handler{
		db:         db,
		store:      store,
		storage:    storage,
		aggregator: aggregator,
		workers:    workers,
		logger:     logger,
		trackers:   map[string]*progress.Tracker{},
	}
}

// RegisterRoutes registers all API routes on the given ServeMux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/score", h.handleScore)

	mux.HandleFunc("POST /api/v1/projects", h.handleCreateProject)
	mux.HandleFunc("GET /api/v1/projects", h.handleListProjects)

	mux.HandleFunc("POST /api/v1/projects/{projectID}/batches", h.handleCreateBatch)
	mux.HandleFunc("GET /api/v1/projects/{projectID}/batches", h.handleListBatches)
	mux.HandleFunc("GET /api/v1/batches/{runID}", h.handleGetBatch)
	mux.HandleFunc("GET /api/v1/batches/{runID}/progress", h.handleBatchProgress)
	mux.HandleFunc("GET /api/v1/batches/{runID}/decisions", h.handleBatchDecisions)

	mux.HandleFunc("PUT /api/v1/projects/{projectID}/calibrations/{name}", h.handlePutCalibration)
	mux.HandleFunc("GET /api/v1/projects/{projectID}/calibrations/{name}", h.handleGetCalibration)
}

func (h *Handler) trackRun(id string, tr *progress.Tracker) {
	h.mu.Lock()
	h.trackers[id] = tr
	h.mu.Unlock()
}

func (h *Handler) untrackRun(id string) {
	h.mu.Lock()
	delete(h.trackers, id)
	h.mu.Unlock()
}

func (h *Handler) liveTracker(id string) *progress.Tracker {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.trackers[id]
}

// loadMappings fetches and validates a project's calibration artifact.
// An empty name means score uncalibrated.
func (h *Handler) loadMappings(r *http.Request, projectID, name string) (calibration.Set, error) {
	if name == "" {
		return nil, nil
	}
	data, err := h.storage.GetCalibration(r.Context(), projectID, name)
	if err != nil {
		return nil, err
	}
	return calibration.DecodeSet(data)
}

func (h *Handler) driver(mappings calibration.Set, reporter batch.TMSReporter) *batch.Driver {
	return &batch.Driver{
		Aggregator: h.aggregator,
		Mappings:   mappings,
		Reporter:   reporter,
		Workers:    h.workers,
		Logger:     h.logger,
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
