package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/tmgate/tmgate/internal/runstore"
)

type createProjectRequest struct {
	Name       string `json:"name"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

type projectResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	CreatedAt  string `json:"created_at"`
}

func projectToResponse(p *runstore.Project) projectResponse {
	return projectResponse{
		ID:         p.ID,
		Name:       p.Name,
		SourceLang: p.SourceLang,
		TargetLang: p.TargetLang,
		CreatedAt:  p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Handler) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "project name is required")
		return
	}

	project, err := h.store.CreateProject(r.Context(), req.Name, req.SourceLang, req.TargetLang)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "create project: "+err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, projectToResponse(project))
}

func (h *Handler) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.store.ListProjects(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list projects: "+err.Error())
		return
	}

	result := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		result = append(result, projectToResponse(p))
	}
	writeJSON(w, http.StatusOK, result)
}
