package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/tmgate/tmgate/internal/runstore"
	"github.com/tmgate/tmgate/pkg/batch"
	"github.com/tmgate/tmgate/pkg/calibration"
	"github.com/tmgate/tmgate/pkg/progress"
)

// createBatchRequest is the JSON body for POST /api/v1/projects/{id}/batches.
type createBatchRequest struct {
	Calibration string       `json:"calibration,omitempty"`
	Units       []batch.Unit `json:"units"`
}

type createBatchResponse struct {
	RunID string `json:"run_id"`
	Total int    `json:"total"`
}

type runResponse struct {
	ID           string           `json:"id"`
	ProjectID    string           `json:"project_id"`
	Status       string           `json:"status"`
	Total        int              `json:"total"`
	Processed    int              `json:"processed"`
	Statistics   map[string]int64 `json:"statistics,omitempty"`
	ErrorMessage *string          `json:"error_message,omitempty"`
	CreatedAt    string           `json:"created_at"`
	UpdatedAt    string           `json:"updated_at"`
}

func runToResponse(run *runstore.Run) runResponse {
	return runResponse{
		ID:           run.ID,
		ProjectID:    run.ProjectID,
		Status:       run.Status,
		Total:        run.Total,
		Processed:    run.Processed,
		Statistics:   run.Statistics,
		ErrorMessage: run.ErrorMessage,
		CreatedAt:    run.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    run.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type decisionResponse struct {
	UnitID        string  `json:"unit_id"`
	WeightedScore float64 `json:"weighted_score"`
	Decision      string  `json:"decision"`
	MatchType     string  `json:"match_type"`
	MatchRate     float64 `json:"match_rate"`
	CreatedAt     string  `json:"created_at"`
}

// storeReporter persists each outcome as a decision row.
type storeReporter struct {
	store *runstore.Service
	runID string
}

func (r *storeReporter) Report(ctx context.Context, o batch.Outcome) error {
	return r.store.InsertDecision(ctx, r.runID, o)
}

// handleCreateBatch accepts a set of units, records a run, and scores the
// units asynchronously. The response returns immediately with the run ID;
// progress is polled via the progress endpoint.
func (h *Handler) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectID")

	var req createBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Units) == 0 {
		writeError(w, http.StatusBadRequest, "no units in batch")
		return
	}

	if _, err := h.store.GetProject(r.Context(), projectID); err != nil {
		writeError(w, http.StatusNotFound, "project not found: "+err.Error())
		return
	}

	// Resolve the calibration before accepting the batch so a bad artifact
	// fails the request, not the run.
	mappings, err := h.loadMappings(r, projectID, req.Calibration)
	if err != nil {
		writeError(w, http.StatusBadRequest, "load calibration: "+err.Error())
		return
	}

	runID, err := h.store.CreateRun(r.Context(), projectID, len(req.Units))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "create run: "+err.Error())
		return
	}

	tracker := progress.NewTracker(len(req.Units), nil, h.logger)
	h.trackRun(runID, tracker)

	go h.executeBatch(projectID, runID, mappings, req.Units, tracker)

	writeJSON(w, http.StatusAccepted, createBatchResponse{RunID: runID, Total: len(req.Units)})
}

// executeBatch runs a batch to completion in the background, detached from
// the request context, and persists the final summary and report blob.
func (h *Handler) executeBatch(projectID, runID string, mappings calibration.Set, units []batch.Unit, tracker *progress.Tracker) {
	defer h.untrackRun(runID)
	ctx := context.Background()

	if err := h.store.UpdateRunStatus(ctx, runID, runstore.StatusRunning, nil); err != nil {
		h.logger.Printf("run %s: update status: %v", runID, err)
	}

	d := h.driver(mappings, &storeReporter{store: h.store, runID: runID})
	summary, err := d.Run(ctx, batch.NewSliceSource(units), tracker)
	if err != nil {
		msg := err.Error()
		if uerr := h.store.UpdateRunStatus(ctx, runID, runstore.StatusFailed, &msg); uerr != nil {
			h.logger.Printf("run %s: update status: %v", runID, uerr)
		}
		return
	}

	if err := h.store.CompleteRun(ctx, runID, summary); err != nil {
		h.logger.Printf("run %s: complete: %v", runID, err)
	}

	if data, err := json.Marshal(summary); err == nil {
		if err := h.storage.PutReport(ctx, projectID, runID, data); err != nil {
			h.logger.Printf("run %s: store report: %v", runID, err)
		}
	}
}

// handleGetBatch returns the stored run row.
func (h *Handler) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	run, err := h.store.GetRun(r.Context(), r.PathValue("runID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "run not found: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, runToResponse(run))
}

// handleListBatches returns a project's runs.
func (h *Handler) handleListBatches(w http.ResponseWriter, r *http.Request) {
	runs, err := h.store.ListRuns(r.Context(), r.PathValue("projectID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list runs: "+err.Error())
		return
	}

	result := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		result = append(result, runToResponse(run))
	}
	writeJSON(w, http.StatusOK, result)
}

// handleBatchProgress returns the live snapshot for a running batch, or a
// snapshot reconstructed from the stored run row once it has finished.
func (h *Handler) handleBatchProgress(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("runID")

	if tracker := h.liveTracker(runID); tracker != nil {
		writeJSON(w, http.StatusOK, tracker.Progress())
		return
	}

	run, err := h.store.GetRun(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusNotFound, "run not found: "+err.Error())
		return
	}
	snap := progress.Snapshot{
		Total:      run.Total,
		Processed:  run.Processed,
		Statistics: run.Statistics,
	}
	if run.Total > 0 {
		snap.Percentage = float64(run.Processed) / float64(run.Total) * 100
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleBatchDecisions returns a run's persisted per-unit decisions.
func (h *Handler) handleBatchDecisions(w http.ResponseWriter, r *http.Request) {
	decisions, err := h.store.ListDecisions(r.Context(), r.PathValue("runID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list decisions: "+err.Error())
		return
	}

	result := make([]decisionResponse, 0, len(decisions))
	for _, d := range decisions {
		result = append(result, decisionResponse{
			UnitID:        d.UnitID,
			WeightedScore: d.WeightedScore,
			Decision:      d.Decision,
			MatchType:     d.MatchType,
			MatchRate:     d.MatchRate,
			CreatedAt:     d.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, result)
}
