package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"task-dashboard/models"
	"task-dashboard/services"

	"github.com/gorilla/mux"
)

// TaskHandler is the task view controller: it keeps the presentation-only
// filter state and translates user gestures into store operations.
type TaskHandler struct {
	mu       sync.Mutex
	store    *services.TaskStore
	registry *services.GroupRegistry
	filter   services.TaskFilter
}

func NewTaskHandler(store *services.TaskStore, registry *services.GroupRegistry) *TaskHandler {
	return &TaskHandler{store: store, registry: registry}
}

func (h *TaskHandler) currentFilter() services.TaskFilter {
	h.mu.Lock()
	f := h.filter
	h.mu.Unlock()
	f.Group = h.registry.Active()
	return f
}

// TasksView is the full snapshot the task page renders from: known groups,
// the active group, the filter state and the filtered, sorted task list.
type TasksView struct {
	Groups          []string            `json:"groups"`
	ActiveGroup     string              `json:"activeGroup"`
	Filters         services.TaskFilter `json:"filters"`
	Tasks           []models.Task       `json:"tasks"`
	CelebratingTask string              `json:"celebratingTaskId,omitempty"`
}

func (h *TaskHandler) GetTasksView(w http.ResponseWriter, r *http.Request) {
	f := h.currentFilter()
	view := TasksView{
		Groups:          h.registry.Names(),
		ActiveGroup:     f.Group,
		Filters:         f,
		Tasks:           services.ApplyFilter(h.store.Tasks(), f),
		CelebratingTask: h.store.Celebrating(),
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *TaskHandler) ReloadTasks(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Load(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	h.registry.Refresh(r.Context())
	h.GetTasksView(w, r)
}

func (h *TaskHandler) SelectGroup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Group string `json:"group"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := h.registry.SetActive(body.Group); err != nil {
		writeServiceError(w, err)
		return
	}
	h.GetTasksView(w, r)
}

func (h *TaskHandler) SetFilters(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Priority      *string `json:"priority"`
		Owner         *string `json:"owner"`
		Title         *string `json:"title"`
		ShowCompleted *bool   `json:"showCompleted"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	if body.Priority != nil {
		h.filter.Priority = *body.Priority
	}
	if body.Owner != nil {
		h.filter.Owner = *body.Owner
	}
	if body.Title != nil {
		h.filter.Title = *body.Title
	}
	if body.ShowCompleted != nil {
		h.filter.ShowCompleted = *body.ShowCompleted
	}
	h.mu.Unlock()

	h.GetTasksView(w, r)
}

// ToggleCreatedSort cycles the creation-date sort: unset, descending,
// ascending, then descending again.
func (h *TaskHandler) ToggleCreatedSort(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.filter.CreatedSort = services.NextCreatedSort(h.filter.CreatedSort)
	h.mu.Unlock()
	h.GetTasksView(w, r)
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var draft models.Task
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	created, err := h.store.Create(r.Context(), draft, h.registry.Active())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskID"]

	var patch services.TaskPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	updated, err := h.store.Update(r.Context(), taskID, patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskID"]
	if err := h.store.Delete(r.Context(), taskID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) ChangeTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskID"]

	var body struct {
		Status models.TaskStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	updated, err := h.store.ChangeStatus(r.Context(), taskID, body.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *TaskHandler) MoveTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskID"]

	var body struct {
		Group string `json:"group"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	moved, err := h.store.Move(r.Context(), taskID, body.Group)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, moved)
}

// ReorderTasks handles a drag gesture within the active group's visible list.
// The visible id sequence is derived from the current filter state, so hidden
// tasks keep their relative positions behind the visible ones.
func (h *TaskHandler) ReorderTasks(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Source      int `json:"source"`
		Destination int `json:"destination"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	f := h.currentFilter()
	visible := services.ApplyFilter(h.store.Tasks(), f)
	ids := make([]string, len(visible))
	for i, t := range visible {
		ids[i] = t.ID
	}

	if err := h.store.Reorder(r.Context(), f.Group, body.Source, body.Destination, ids); err != nil {
		// Partial persistence failures keep the optimistic local order; the
		// caller still gets told something went wrong.
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	h.GetTasksView(w, r)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeServiceError maps service errors onto HTTP statuses: validation input
// errors are 400, missing records 404, everything else failed at the backend.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyTitle),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrEmptyGroupName),
		errors.Is(err, services.ErrDeleteNotConfirmed),
		errors.Is(err, services.ErrEmptyProjectFields),
		errors.Is(err, services.ErrInvalidProjectStatus):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrGroupNotFound),
		errors.Is(err, services.ErrProjectNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusBadGateway)
	}
}
