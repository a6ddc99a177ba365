package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"task-dashboard/client"
	"task-dashboard/logging"
	"task-dashboard/models"
)

var (
	ErrEmptyProjectFields   = errors.New("project name and owner must not be empty")
	ErrProjectNotFound      = errors.New("project not found")
	ErrInvalidProjectStatus = errors.New("invalid project status")
)

// BoardPosition is where a drag gesture started or ended: a status column and
// an index within it.
type BoardPosition struct {
	Status models.ProjectStatus `json:"status"`
	Index  int                  `json:"index"`
}

type BoardColumn struct {
	Status   models.ProjectStatus `json:"status"`
	Projects []models.Project     `json:"projects"`
}

type BoardMetrics struct {
	Total    int                          `json:"total"`
	ByStatus map[models.ProjectStatus]int `json:"byStatus"`
}

// BoardService owns the in-memory project list behind the kanban board.
// Column membership is derived from project status; position inside a column
// is implicit in list order.
type BoardService struct {
	mu       sync.Mutex
	api      *client.Client
	projects []models.Project
}

func NewBoardService(api *client.Client) *BoardService {
	return &BoardService{api: api}
}

func (b *BoardService) Load(ctx context.Context) error {
	projects, err := b.api.ListProjects(ctx)
	if err != nil {
		logging.Logger.Errorf("Event ID: PROJECTS_LOAD_FAILED, Description: Failed to load projects: %v", err)
		return fmt.Errorf("failed to load projects: %w", err)
	}
	b.mu.Lock()
	b.projects = projects
	b.mu.Unlock()
	return nil
}

func (b *BoardService) Projects() []models.Project {
	b.mu.Lock()
	defer b.mu.Unlock()
	snapshot := make([]models.Project, len(b.projects))
	copy(snapshot, b.projects)
	return snapshot
}

// Create adds a project at the start of the pipeline. Name and owner are both
// required.
func (b *BoardService) Create(ctx context.Context, name, owner string) (models.Project, error) {
	name = strings.TrimSpace(name)
	owner = strings.TrimSpace(owner)
	if name == "" || owner == "" {
		return models.Project{}, ErrEmptyProjectFields
	}

	draft := models.Project{Name: name, Owner: owner, Status: models.ProjectPending}
	created, err := b.api.CreateProject(ctx, draft)
	if err != nil {
		return models.Project{}, fmt.Errorf("failed to create project: %w", err)
	}

	b.mu.Lock()
	b.projects = append(b.projects, created)
	b.mu.Unlock()

	logging.Logger.Infof("Event ID: PROJECT_CREATED, Description: Created project %s (%q)", created.ID, created.Name)
	return created, nil
}

// DragEnd applies a board drag gesture. A missing destination, or one equal
// to the source, is a no-op. Otherwise the project moves to the destination
// column by updating its status; the backend response is canonical.
func (b *BoardService) DragEnd(ctx context.Context, projectID string, source BoardPosition, destination *BoardPosition) error {
	if destination == nil {
		return nil
	}
	if destination.Status == source.Status && destination.Index == source.Index {
		return nil
	}
	if !destination.Status.IsValid() {
		return ErrInvalidProjectStatus
	}

	b.mu.Lock()
	current, idx := b.findLocked(projectID)
	b.mu.Unlock()
	if idx < 0 {
		return ErrProjectNotFound
	}
	if current.Status == destination.Status {
		// Same column, different index: order is implicit in list order and
		// not persisted, so there is nothing to send.
		return nil
	}

	current.Status = destination.Status
	canonical, err := b.api.UpdateProject(ctx, projectID, current)
	if err != nil {
		return fmt.Errorf("failed to move project %s: %w", projectID, err)
	}

	b.mu.Lock()
	if _, idx := b.findLocked(projectID); idx >= 0 {
		b.projects[idx] = canonical
	}
	b.mu.Unlock()
	return nil
}

// Update edits a project's fields; the backend response is canonical.
func (b *BoardService) Update(ctx context.Context, projectID string, project models.Project) (models.Project, error) {
	if project.Status != "" && !project.Status.IsValid() {
		return models.Project{}, ErrInvalidProjectStatus
	}
	b.mu.Lock()
	current, idx := b.findLocked(projectID)
	b.mu.Unlock()
	if idx < 0 {
		return models.Project{}, ErrProjectNotFound
	}

	if project.Name == "" {
		project.Name = current.Name
	}
	if project.Owner == "" {
		project.Owner = current.Owner
	}
	if project.Status == "" {
		project.Status = current.Status
	}
	project.ID = projectID

	canonical, err := b.api.UpdateProject(ctx, projectID, project)
	if err != nil {
		return models.Project{}, fmt.Errorf("failed to update project %s: %w", projectID, err)
	}

	b.mu.Lock()
	if _, idx := b.findLocked(projectID); idx >= 0 {
		b.projects[idx] = canonical
	}
	b.mu.Unlock()
	return canonical, nil
}

func (b *BoardService) Delete(ctx context.Context, projectID string) error {
	b.mu.Lock()
	_, idx := b.findLocked(projectID)
	b.mu.Unlock()
	if idx < 0 {
		return ErrProjectNotFound
	}
	if err := b.api.DeleteProject(ctx, projectID); err != nil {
		return fmt.Errorf("failed to delete project %s: %w", projectID, err)
	}

	b.mu.Lock()
	if _, idx := b.findLocked(projectID); idx >= 0 {
		b.projects = append(b.projects[:idx], b.projects[idx+1:]...)
	}
	b.mu.Unlock()
	return nil
}

// findLocked returns the project and index for id. Callers must hold the lock.
func (b *BoardService) findLocked(id string) (models.Project, int) {
	for i, p := range b.projects {
		if p.ID == id {
			return p, i
		}
	}
	return models.Project{}, -1
}

// Columns derives the board columns in pipeline order, keeping list order
// within each column.
func (b *BoardService) Columns() []BoardColumn {
	projects := b.Projects()
	columns := make([]BoardColumn, 0, len(models.BoardPipeline))
	for _, status := range models.BoardPipeline {
		column := BoardColumn{Status: status}
		for _, p := range projects {
			if p.Status == status {
				column.Projects = append(column.Projects, p)
			}
		}
		columns = append(columns, column)
	}
	return columns
}

func (b *BoardService) Metrics() BoardMetrics {
	projects := b.Projects()
	metrics := BoardMetrics{Total: len(projects), ByStatus: map[models.ProjectStatus]int{}}
	for _, status := range models.BoardPipeline {
		metrics.ByStatus[status] = 0
	}
	for _, p := range projects {
		metrics.ByStatus[p.Status]++
	}
	return metrics
}
