// Package runstore persists TMGate state in Postgres: translation projects,
// batch runs and their lifecycle, and the per-unit decisions each run
// produced.
package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tmgate/tmgate/pkg/batch"
)

// Run lifecycle states.
const (
	StatusQueued    = "QUEUED"
	StatusRunning   = "RUNNING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// Service provides project and run management backed by Postgres.
type Service struct {
	db *sql.DB
}

// NewService creates a new runstore Service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Project is a translation project: one source/target language pair whose
// units share calibration and scoring configuration.
type Project struct {
	ID         string
	Name       string
	SourceLang string
	TargetLang string
	CreatedAt  time.Time
}

// Run is one batch execution over a project's translation units.
type Run struct {
	ID           string
	ProjectID    string
	Status       string
	Total        int
	Processed    int
	Statistics   map[string]int64
	ErrorMessage *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Decision is the persisted outcome for one translation unit in a run.
type Decision struct {
	ID            string
	RunID         string
	UnitID        string
	WeightedScore float64
	Decision      string
	MatchType     string
	MatchRate     float64
	CreatedAt     time.Time
}

// CreateProject creates a new project.
func (s *Service) CreateProject(ctx context.Context, name, sourceLang, targetLang string) (*Project, error) {
	p := &Project{}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO projects (id, name, source_lang, target_lang)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, name, source_lang, target_lang, created_at`,
		uuid.NewString(), name, sourceLang, targetLang,
	).Scan(&p.ID, &p.Name, &p.SourceLang, &p.TargetLang, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

// GetProject looks up a project by ID.
func (s *Service) GetProject(ctx context.Context, id string) (*Project, error) {
	p := &Project{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, source_lang, target_lang, created_at
		 FROM projects WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.SourceLang, &p.TargetLang, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	return p, nil
}

// ListProjects returns all projects, newest first.
func (s *Service) ListProjects(ctx context.Context) ([]*Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, source_lang, target_lang, created_at
		 FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p := &Project{}
		if err := rows.Scan(&p.ID, &p.Name, &p.SourceLang, &p.TargetLang, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// CreateRun records a new queued batch run and returns its ID.
func (s *Service) CreateRun(ctx context.Context, projectID string, total int) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, project_id, status, total) VALUES ($1, $2, $3, $4)`,
		id, projectID, StatusQueued, total,
	)
	if err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}
	return id, nil
}

// UpdateRunStatus updates the status and optional error message.
func (s *Service) UpdateRunStatus(ctx context.Context, id, status string, errMsg *string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = $1, error_message = $2, updated_at = now() WHERE id = $3`,
		status, errMsg, id,
	)
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	return nil
}

// CompleteRun marks a run completed and stores its final summary.
func (s *Service) CompleteRun(ctx context.Context, id string, summary *batch.Summary) error {
	stats, err := json.Marshal(summary.Statistics)
	if err != nil {
		return fmt.Errorf("marshal run statistics: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE runs SET status = $1, processed = $2, statistics = $3, updated_at = now()
		 WHERE id = $4`,
		StatusCompleted, summary.Processed, stats, id,
	)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return nil
}

// GetRun looks up a run by ID.
func (s *Service) GetRun(ctx context.Context, id string) (*Run, error) {
	r := &Run{}
	var stats []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, status, total, processed, statistics, error_message, created_at, updated_at
		 FROM runs WHERE id = $1`, id,
	).Scan(&r.ID, &r.ProjectID, &r.Status, &r.Total, &r.Processed, &stats,
		&r.ErrorMessage, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	if len(stats) > 0 {
		if err := json.Unmarshal(stats, &r.Statistics); err != nil {
			return nil, fmt.Errorf("unmarshal run statistics: %w", err)
		}
	}
	return r, nil
}

// ListRuns returns a project's runs, newest first.
func (s *Service) ListRuns(ctx context.Context, projectID string) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, status, total, processed, statistics, error_message, created_at, updated_at
		 FROM runs WHERE project_id = $1 ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r := &Run{}
		var stats []byte
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.Status, &r.Total, &r.Processed,
			&stats, &r.ErrorMessage, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if len(stats) > 0 {
			if err := json.Unmarshal(stats, &r.Statistics); err != nil {
				return nil, fmt.Errorf("unmarshal run statistics: %w", err)
			}
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// InsertDecision persists a scored outcome for one unit of a run.
func (s *Service) InsertDecision(ctx context.Context, runID string, o batch.Outcome) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO decisions (id, run_id, unit_id, weighted_score, decision, match_type, match_rate)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.NewString(), runID, o.UnitID, o.WeightedScore, string(o.Decision),
		string(o.MatchType), o.MatchRate,
	)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

// ListDecisions returns a run's decisions in insertion order.
func (s *Service) ListDecisions(ctx context.Context, runID string) ([]*Decision, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, unit_id, weighted_score, decision, match_type, match_rate, created_at
		 FROM decisions WHERE run_id = $1 ORDER BY created_at ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var decisions []*Decision
	for rows.Next() {
		d := &Decision{}
		if err := rows.Scan(&d.ID, &d.RunID, &d.UnitID, &d.WeightedScore,
			&d.Decision, &d.MatchType, &d.MatchRate, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}
