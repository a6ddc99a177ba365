package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"task-dashboard/models"
)

func taskIDs(tasks []models.Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

func TestStoreLoadReplacesCollection(t *testing.T) {
	backend := newFakeBackend()
	backend.addTask(models.Task{Title: "one", Group: "Q1"})
	backend.addTask(models.Task{Title: "two", Group: "Q2"})
	store := newTestStore(t, backend)

	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got := len(store.Tasks()); got != 2 {
		t.Fatalf("expected 2 tasks after load, got %d", got)
	}

	// Idempotent: a second load with no intervening mutation converges to the
	// same collection.
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("second Load returned error: %v", err)
	}
	if got := len(store.Tasks()); got != 2 {
		t.Fatalf("expected 2 tasks after reload, got %d", got)
	}
}

func TestStoreLoadFailureKeepsLastKnownGood(t *testing.T) {
	backend := newFakeBackend()
	backend.addTask(models.Task{Title: "one", Group: "Q1"})
	store := newTestStore(t, backend)

	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	backend.failNext("GET", "/tasks", 1)
	if err := store.Load(context.Background()); err == nil {
		t.Fatal("expected error from failed load")
	}
	if got := len(store.Tasks()); got != 1 {
		t.Fatalf("expected collection unchanged after failed load, got %d tasks", got)
	}
}

func TestStoreCreateInEmptyGroup(t *testing.T) {
	backend := newFakeBackend()
	store := newTestStore(t, backend)

	created, err := store.Create(context.Background(), models.Task{Title: "Draft report"}, "Q1")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected server-assigned identifier")
	}
	if created.Group != "Q1" {
		t.Fatalf("expected group Q1, got %q", created.Group)
	}
	if created.Status != models.StatusPending {
		t.Fatalf("expected default status pending, got %q", created.Status)
	}
	if created.Priority != models.PriorityMedium {
		t.Fatalf("expected default priority Medium, got %q", created.Priority)
	}

	view := ApplyFilter(store.Tasks(), TaskFilter{Group: "Q1"})
	if len(view) != 1 || view[0].Title != "Draft report" {
		t.Fatalf("expected exactly one task titled %q in Q1 view, got %+v", "Draft report", view)
	}
}

func TestStoreCreateRejectsEmptyTitle(t *testing.T) {
	backend := newFakeBackend()
	store := newTestStore(t, backend)

	_, err := store.Create(context.Background(), models.Task{Title: "   "}, "Q1")
	if !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
	if got := backend.requestCount("POST", "/tasks"); got != 0 {
		t.Fatalf("expected no network call for invalid draft, got %d", got)
	}
}

func TestStoreCreateRejectsBlankTargetGroup(t *testing.T) {
	backend := newFakeBackend()
	store := newTestStore(t, backend)
	registry := NewGroupRegistry(newTestClient(t, backend), store)

	// Nothing loaded, so no group is active; a create routed at the active
	// group must not produce a task outside every known group.
	if got := registry.Active(); got != "" {
		t.Fatalf("expected no active group before first load, got %q", got)
	}
	for _, target := range []string{registry.Active(), "   "} {
		if _, err := store.Create(context.Background(), models.Task{Title: "orphan"}, target); !errors.Is(err, ErrEmptyGroupName) {
			t.Fatalf("Create with target %q: expected ErrEmptyGroupName, got %v", target, err)
		}
	}
	if got := backend.requestCount("POST", "/tasks"); got != 0 {
		t.Fatalf("expected no network call for blank target group, got %d", got)
	}
	if got := len(store.Tasks()); got != 0 {
		t.Fatalf("expected no task records, got %d", got)
	}
}

func TestStoreCreateFailureLeavesCollectionUntouched(t *testing.T) {
	backend := newFakeBackend()
	store := newTestStore(t, backend)

	backend.failNext("POST", "/tasks", 1)
	if _, err := store.Create(context.Background(), models.Task{Title: "x"}, "Q1"); err == nil {
		t.Fatal("expected error from failed create")
	}
	if got := len(store.Tasks()); got != 0 {
		t.Fatalf("expected no optimistic insert to survive, got %d tasks", got)
	}
}

func TestStoreUpdateMergesCanonicalRecord(t *testing.T) {
	backend := newFakeBackend()
	seeded := backend.addTask(models.Task{Title: "old", Group: "Q1"})
	store := newTestStore(t, backend)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	title := "new title"
	updated, err := store.Update(context.Background(), seeded.ID, TaskPatch{Title: &title})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Title != "new title" {
		t.Fatalf("expected canonical title %q, got %q", "new title", updated.Title)
	}

	local, ok := store.Get(seeded.ID)
	if !ok || local.Title != "new title" {
		t.Fatalf("expected local record replaced in place, got %+v", local)
	}
}

func TestStoreUpdateFailureKeepsRecord(t *testing.T) {
	backend := newFakeBackend()
	seeded := backend.addTask(models.Task{Title: "old", Group: "Q1"})
	store := newTestStore(t, backend)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	backend.failNext("PUT", "/tasks/"+seeded.ID, 1)
	title := "new"
	if _, err := store.Update(context.Background(), seeded.ID, TaskPatch{Title: &title}); err == nil {
		t.Fatal("expected error from failed update")
	}

	local, _ := store.Get(seeded.ID)
	if local.Title != "old" {
		t.Fatalf("expected record untouched after failure, got title %q", local.Title)
	}
}

func TestStoreUpdateUnknownTask(t *testing.T) {
	store := newTestStore(t, newFakeBackend())
	title := "x"
	if _, err := store.Update(context.Background(), "missing", TaskPatch{Title: &title}); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestStoreDeleteWaitsForConfirmation(t *testing.T) {
	backend := newFakeBackend()
	seeded := backend.addTask(models.Task{Title: "x", Group: "Q1"})
	store := newTestStore(t, backend)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	backend.failNext("DELETE", "/tasks/"+seeded.ID, 1)
	if err := store.Delete(context.Background(), seeded.ID); err == nil {
		t.Fatal("expected error from failed delete")
	}
	if _, ok := store.Get(seeded.ID); !ok {
		t.Fatal("record must stay visible until the backend confirms removal")
	}

	if err := store.Delete(context.Background(), seeded.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, ok := store.Get(seeded.ID); ok {
		t.Fatal("expected record removed after confirmed delete")
	}
}

func TestStoreChangeStatusCelebratesCompletion(t *testing.T) {
	backend := newFakeBackend()
	seeded := backend.addTask(models.Task{Title: "x", Group: "Q1"})
	store := newTestStore(t, backend)
	store.celebrationTTL = 30 * time.Millisecond
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if _, err := store.ChangeStatus(context.Background(), seeded.ID, models.StatusDone); err != nil {
		t.Fatalf("ChangeStatus returned error: %v", err)
	}
	if got := store.Celebrating(); got != seeded.ID {
		t.Fatalf("expected celebration for %s, got %q", seeded.ID, got)
	}

	time.Sleep(100 * time.Millisecond)
	if got := store.Celebrating(); got != "" {
		t.Fatalf("expected celebration cleared after the delay, got %q", got)
	}
}

func TestStoreChangeStatusRejectsUnknownStatus(t *testing.T) {
	store := newTestStore(t, newFakeBackend())
	if _, err := store.ChangeStatus(context.Background(), "t1", models.TaskStatus("archived")); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestStoreMoveSameGroupIsNoop(t *testing.T) {
	backend := newFakeBackend()
	seeded := backend.addTask(models.Task{Title: "x", Group: "Q1"})
	store := newTestStore(t, backend)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if _, err := store.Move(context.Background(), seeded.ID, "Q1"); err != nil {
		t.Fatalf("Move returned error: %v", err)
	}
	if got := backend.requestCount("PUT", "/tasks/"+seeded.ID); got != 0 {
		t.Fatalf("expected no network call for same-group move, got %d", got)
	}

	moved, err := store.Move(context.Background(), seeded.ID, "Q2")
	if err != nil {
		t.Fatalf("Move returned error: %v", err)
	}
	if moved.Group != "Q2" {
		t.Fatalf("expected group Q2 after move, got %q", moved.Group)
	}
}

func TestStoreReorderIsAPermutation(t *testing.T) {
	backend := newFakeBackend()
	var ids []string
	for _, title := range []string{"a", "b", "c", "d"} {
		ids = append(ids, backend.addTask(models.Task{Title: title, Group: "Q1"}).ID)
	}
	store := newTestStore(t, backend)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	before := taskIDs(store.TasksInGroup("Q1"))
	if err := store.Reorder(context.Background(), "Q1", 0, 2, ids); err != nil {
		t.Fatalf("Reorder returned error: %v", err)
	}
	after := taskIDs(store.TasksInGroup("Q1"))

	sort.Strings(before)
	sort.Strings(after)
	if strings.Join(before, ",") != strings.Join(after, ",") {
		t.Fatalf("reorder must not change the id multiset: %v vs %v", before, after)
	}

	view := ApplyFilter(store.Tasks(), TaskFilter{Group: "Q1"})
	got := taskIDs(view)
	want := []string{ids[1], ids[2], ids[0], ids[3]}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected view order %v, got %v", want, got)
	}
	for i, task := range view {
		if task.Order == nil || *task.Order != i {
			t.Fatalf("expected sequential order %d at position %d, got %+v", i, i, task.Order)
		}
	}
}

func TestStoreReorderKeepsHiddenTasksBehindVisible(t *testing.T) {
	backend := newFakeBackend()
	a := backend.addTask(models.Task{Title: "a", Group: "Q1"})
	b := backend.addTask(models.Task{Title: "b", Group: "Q1"})
	done := backend.addTask(models.Task{Title: "done", Group: "Q1", Status: models.StatusDone})
	store := newTestStore(t, backend)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	// The done task is filtered out of the default view; reorder only the
	// visible pair.
	if err := store.Reorder(context.Background(), "Q1", 0, 1, []string{a.ID, b.ID}); err != nil {
		t.Fatalf("Reorder returned error: %v", err)
	}

	hidden, _ := store.Get(done.ID)
	if hidden.Order == nil || *hidden.Order != 2 {
		t.Fatalf("expected hidden task appended after visible sequence with order 2, got %+v", hidden.Order)
	}
}

func TestStoreReorderPartialFailureKeepsLocalOrder(t *testing.T) {
	backend := newFakeBackend()
	var ids []string
	for _, title := range []string{"a", "b", "c"} {
		ids = append(ids, backend.addTask(models.Task{Title: title, Group: "Q1"}).ID)
	}
	store := newTestStore(t, backend)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	backend.failNext("PUT", "/tasks/"+ids[1], 1)
	err := store.Reorder(context.Background(), "Q1", 2, 0, ids)
	if err == nil {
		t.Fatal("expected partial-failure error")
	}
	if !strings.Contains(err.Error(), "order updates failed") {
		t.Fatalf("expected partial-failure summary, got %v", err)
	}

	// No rollback: the optimistic local order stands.
	got := taskIDs(ApplyFilter(store.Tasks(), TaskFilter{Group: "Q1"}))
	want := []string{ids[2], ids[0], ids[1]}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected local order %v preserved, got %v", want, got)
	}
}

func TestStoreStaleUpdateResponseIsDiscarded(t *testing.T) {
	backend := newFakeBackend()
	seeded := backend.addTask(models.Task{Title: "orig", Group: "Q1"})
	store := newTestStore(t, backend)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	firstArrived := make(chan struct{})
	release := make(chan struct{})
	// A sync.Once would deadlock here: Once.Do blocks every concurrent
	// caller until the first call returns, so the second PUT would wait on
	// the first, which waits on release. CompareAndSwap blocks only the
	// first PUT.
	var first atomic.Bool
	first.Store(true)
	backend.mu.Lock()
	backend.onRequest = func(method, path string) {
		if method == "PUT" && first.CompareAndSwap(true, false) {
			close(firstArrived)
			<-release
		}
	}
	backend.mu.Unlock()

	slowDone := make(chan struct{})
	go func() {
		defer close(slowDone)
		title := "slow"
		store.Update(context.Background(), seeded.ID, TaskPatch{Title: &title})
	}()

	<-firstArrived
	title := "fast"
	if _, err := store.Update(context.Background(), seeded.ID, TaskPatch{Title: &title}); err != nil {
		t.Fatalf("second update returned error: %v", err)
	}

	close(release)
	<-slowDone

	local, _ := store.Get(seeded.ID)
	if local.Title != "fast" {
		t.Fatalf("stale response must not overwrite newer state, got title %q", local.Title)
	}
}

func TestStoreGroupCascades(t *testing.T) {
	backend := newFakeBackend()
	backend.addTask(models.Task{Title: "a", Group: "Jan"})
	backend.addTask(models.Task{Title: "b", Group: "Jan"})
	backend.addTask(models.Task{Title: "c", Group: "Feb"})
	store := newTestStore(t, backend)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	store.RenameGroup("Jan", "January")
	if got := len(store.TasksInGroup("January")); got != 2 {
		t.Fatalf("expected 2 tasks in renamed group, got %d", got)
	}
	if got := len(store.TasksInGroup("Jan")); got != 0 {
		t.Fatalf("expected old group empty after rename, got %d", got)
	}

	store.RemoveGroup("January")
	if got := len(store.Tasks()); got != 1 {
		t.Fatalf("expected only the Feb task to remain, got %d", got)
	}
	if store.Tasks()[0].Group != "Feb" {
		t.Fatalf("remove must delete exactly the named group's tasks")
	}
}
