package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"task-dashboard/client"
	"task-dashboard/logging"
	"task-dashboard/models"
)

var (
	ErrEmptyTitle    = errors.New("task title must not be empty")
	ErrTaskNotFound  = errors.New("task not found")
	ErrInvalidStatus = errors.New("invalid task status")
)

// TaskStore owns the in-memory task collection for the session. The backend
// is the system of record; the store's copy may be briefly stale between a
// local optimistic change and the next confirmed response. Mutations go
// through the API facade first and merge the canonical record on success,
// except reorder, which applies locally before persisting.
type TaskStore struct {
	mu        sync.Mutex
	api       *client.Client
	tasks     []models.Task
	seq       map[string]uint64
	listeners []func()

	celebrating    string
	celebrateTimer *time.Timer
	celebrationTTL time.Duration
}

func NewTaskStore(api *client.Client) *TaskStore {
	return &TaskStore{
		api:            api,
		seq:            map[string]uint64{},
		celebrationTTL: 4 * time.Second,
	}
}

// Subscribe registers a callback invoked after every collection change. The
// callback runs outside the store lock and may read the store freely.
func (s *TaskStore) Subscribe(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *TaskStore) notify() {
	s.mu.Lock()
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// Tasks returns a snapshot copy of the collection.
func (s *TaskStore) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make([]models.Task, len(s.tasks))
	copy(snapshot, s.tasks)
	return snapshot
}

// TasksInGroup returns every task of one group, unfiltered, in collection
// order.
func (s *TaskStore) TasksInGroup(group string) []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Task
	for _, t := range s.tasks {
		if t.Group == group {
			out = append(out, t)
		}
	}
	return out
}

func (s *TaskStore) Get(id string) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

// Celebrating reports the id of the task whose completion is currently being
// celebrated, or "".
func (s *TaskStore) Celebrating() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.celebrating
}

// Load replaces the whole collection with the backend's. On failure the
// collection keeps its last known good state and the error is returned for
// the caller to surface. Repeated loads with no intervening mutation converge
// to the same collection.
func (s *TaskStore) Load(ctx context.Context) error {
	tasks, err := s.api.ListTasks(ctx)
	if err != nil {
		logging.Logger.Errorf("Event ID: TASKS_LOAD_FAILED, Description: Failed to load tasks from backend: %v", err)
		return fmt.Errorf("failed to load tasks: %w", err)
	}

	s.mu.Lock()
	s.tasks = tasks
	s.seq = map[string]uint64{}
	s.mu.Unlock()
	s.notify()

	logging.Logger.Infof("Event ID: TASKS_LOADED, Description: Loaded %d tasks from backend", len(tasks))
	return nil
}

// Create validates the draft, assigns it to targetGroup and sends it to the
// backend. On success the canonical record (server identifier and timestamp
// win over anything client-side) is prepended to the collection. Nothing is
// inserted before the backend confirms. Every task belongs to exactly one
// group, so a blank target group is rejected before anything is sent.
func (s *TaskStore) Create(ctx context.Context, draft models.Task, targetGroup string) (models.Task, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return models.Task{}, ErrEmptyTitle
	}
	if strings.TrimSpace(targetGroup) == "" {
		return models.Task{}, ErrEmptyGroupName
	}

	draft.Group = targetGroup
	if draft.CreatedAt == "" {
		draft.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if draft.Status == "" {
		draft.Status = models.StatusPending
	}
	if draft.Priority == "" {
		draft.Priority = models.PriorityMedium
	}

	created, err := s.api.CreateTask(ctx, draft)
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to create task: %w", err)
	}

	s.mu.Lock()
	s.tasks = append([]models.Task{created}, s.tasks...)
	s.mu.Unlock()
	s.notify()

	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Created task %s in group %q", created.ID, created.Group)
	return created, nil
}

// TaskPatch is a partial task edit. Nil fields are left as they are.
type TaskPatch struct {
	Title    *string            `json:"title,omitempty"`
	Owner    *string            `json:"owner,omitempty"`
	DueDate  *string            `json:"dueDate,omitempty"`
	Priority *models.Priority   `json:"priority,omitempty"`
	Notes    *string            `json:"notes,omitempty"`
	Status   *models.TaskStatus `json:"status,omitempty"`
	Group    *string            `json:"group,omitempty"`
	Order    *int               `json:"order,omitempty"`
}

func (p TaskPatch) applyTo(t models.Task) models.Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Owner != nil {
		t.Owner = *p.Owner
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Group != nil {
		t.Group = *p.Group
	}
	if p.Order != nil {
		order := *p.Order
		t.Order = &order
	}
	return t
}

// Update applies the patch to the current record, sends the full record to the
// backend and replaces the local one with the canonical response. Every
// mutation takes a per-task sequence token; a response that is no longer the
// latest issued for its task is discarded instead of merged, so an older
// in-flight request cannot overwrite newer state.
func (s *TaskStore) Update(ctx context.Context, id string, patch TaskPatch) (models.Task, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return models.Task{}, ErrEmptyTitle
	}

	s.mu.Lock()
	current, idx := s.find(id)
	if idx < 0 {
		s.mu.Unlock()
		return models.Task{}, ErrTaskNotFound
	}
	merged := patch.applyTo(current)
	s.seq[id]++
	token := s.seq[id]
	s.mu.Unlock()

	canonical, err := s.api.UpdateTask(ctx, id, merged)
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to update task %s: %w", id, err)
	}

	if !s.merge(id, token, canonical) {
		return canonical, nil
	}
	s.notify()
	return canonical, nil
}

// merge replaces the record for id with canonical if token is still the
// latest issued for that id. Reports whether a merge happened.
func (s *TaskStore) merge(id string, token uint64, canonical models.Task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq[id] != token {
		logging.Logger.Warnf("Event ID: STALE_RESPONSE_DISCARDED, Description: Discarding stale update response for task %s", id)
		return false
	}
	if _, idx := s.find(id); idx >= 0 {
		s.tasks[idx] = canonical
		return true
	}
	return false
}

// find returns the record and index for id. Callers must hold the lock.
func (s *TaskStore) find(id string) (models.Task, int) {
	for i, t := range s.tasks {
		if t.ID == id {
			return t, i
		}
	}
	return models.Task{}, -1
}

// Delete removes the task after the backend confirms. The record stays
// visible and actionable until then. Dropping the sequence entry makes any
// still in-flight update response for the id stale, so it cannot resurrect
// the record.
func (s *TaskStore) Delete(ctx context.Context, id string) error {
	if _, ok := s.Get(id); !ok {
		return ErrTaskNotFound
	}
	if err := s.api.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task %s: %w", id, err)
	}

	s.mu.Lock()
	if _, idx := s.find(id); idx >= 0 {
		s.tasks = append(s.tasks[:idx], s.tasks[idx+1:]...)
	}
	delete(s.seq, id)
	s.mu.Unlock()
	s.notify()

	logging.Logger.Infof("Event ID: TASK_DELETED, Description: Deleted task %s", id)
	return nil
}

// ChangeStatus is Update specialized to the status field. Completing a task
// additionally raises a transient celebration signal, cleared after a bounded
// delay; it never blocks follow-up operations.
func (s *TaskStore) ChangeStatus(ctx context.Context, id string, status models.TaskStatus) (models.Task, error) {
	if !status.IsValid() {
		return models.Task{}, ErrInvalidStatus
	}
	task, err := s.Update(ctx, id, TaskPatch{Status: &status})
	if err != nil {
		return models.Task{}, err
	}
	if status == models.StatusDone {
		s.celebrate(id)
	}
	return task, nil
}

func (s *TaskStore) celebrate(id string) {
	s.mu.Lock()
	if s.celebrateTimer != nil {
		s.celebrateTimer.Stop()
	}
	s.celebrating = id
	s.celebrateTimer = time.AfterFunc(s.celebrationTTL, func() {
		s.mu.Lock()
		if s.celebrating == id {
			s.celebrating = ""
		}
		s.mu.Unlock()
		s.notify()
	})
	s.mu.Unlock()
	s.notify()
}

// Move is Update specialized to the group field. Moving a task to the group
// it is already in is a no-op.
func (s *TaskStore) Move(ctx context.Context, id string, targetGroup string) (models.Task, error) {
	current, ok := s.Get(id)
	if !ok {
		return models.Task{}, ErrTaskNotFound
	}
	if current.Group == targetGroup {
		return current, nil
	}
	return s.Update(ctx, id, TaskPatch{Group: &targetGroup})
}

// Reorder moves the visible task at sourceIndex to destinationIndex and
// assigns sequential order values 0..n-1 to the group: the permuted visible
// sequence first, then the currently hidden tasks of the group in their
// existing relative order. The new order is applied locally right away, then
// each changed value is persisted with an independent update call. A partial
// persistence failure leaves the local order as applied; there is no rollback.
func (s *TaskStore) Reorder(ctx context.Context, group string, sourceIndex, destinationIndex int, visibleOrderIDs []string) error {
	if sourceIndex == destinationIndex {
		return nil
	}
	if sourceIndex < 0 || sourceIndex >= len(visibleOrderIDs) ||
		destinationIndex < 0 || destinationIndex >= len(visibleOrderIDs) {
		return fmt.Errorf("reorder indexes out of range: %d -> %d of %d", sourceIndex, destinationIndex, len(visibleOrderIDs))
	}

	permuted := make([]string, 0, len(visibleOrderIDs))
	permuted = append(permuted, visibleOrderIDs[:sourceIndex]...)
	permuted = append(permuted, visibleOrderIDs[sourceIndex+1:]...)
	permuted = append(permuted[:destinationIndex], append([]string{visibleOrderIDs[sourceIndex]}, permuted[destinationIndex:]...)...)

	type pending struct {
		id     string
		record models.Task
		token  uint64
	}
	var changes []pending

	s.mu.Lock()
	visible := map[string]bool{}
	for _, id := range permuted {
		visible[id] = true
	}
	var hidden []models.Task
	for _, t := range s.tasks {
		if t.Group == group && !visible[t.ID] {
			hidden = append(hidden, t)
		}
	}
	SortTasks(hidden, SortNone)

	sequence := make([]string, 0, len(permuted)+len(hidden))
	sequence = append(sequence, permuted...)
	for _, t := range hidden {
		sequence = append(sequence, t.ID)
	}

	for position, id := range sequence {
		current, idx := s.find(id)
		if idx < 0 || current.Group != group {
			continue
		}
		if current.Order != nil && *current.Order == position {
			continue
		}
		order := position
		current.Order = &order
		s.tasks[idx] = current
		s.seq[id]++
		changes = append(changes, pending{id: id, record: current, token: s.seq[id]})
	}
	s.mu.Unlock()
	s.notify()

	var failed int
	for _, change := range changes {
		canonical, err := s.api.UpdateTask(ctx, change.id, change.record)
		if err != nil {
			failed++
			logging.Logger.Errorf("Event ID: REORDER_PERSIST_FAILED, Description: Failed to persist order for task %s: %v", change.id, err)
			continue
		}
		s.merge(change.id, change.token, canonical)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d order updates failed", failed, len(changes))
	}
	return nil
}

// RenameGroup rewrites the group of every member task in memory. The backend
// has already cascaded the rename server-side, so no per-task round trips.
func (s *TaskStore) RenameGroup(oldName, newName string) {
	s.mu.Lock()
	for i := range s.tasks {
		if s.tasks[i].Group == oldName {
			s.tasks[i].Group = newName
		}
	}
	s.mu.Unlock()
	s.notify()
}

// RemoveGroup drops every task of the group from the collection, mirroring
// the backend's cascading group delete.
func (s *TaskStore) RemoveGroup(name string) {
	s.mu.Lock()
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.Group == name {
			delete(s.seq, t.ID)
			continue
		}
		kept = append(kept, t)
	}
	s.tasks = kept
	s.mu.Unlock()
	s.notify()
}
