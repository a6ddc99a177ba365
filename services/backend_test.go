package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"task-dashboard/client"
	"task-dashboard/models"

	"github.com/sony/gobreaker"
)

// fakeBackend is an in-memory stand-in for the remote REST API, just enough
// of it for the client facade to talk to.
type fakeBackend struct {
	mu       sync.Mutex
	tasks    []models.Task
	groups   []models.Group
	projects []models.Project
	nextID   int

	requests  []string
	failures  map[string]int
	onRequest func(method, path string)

	// groupNameTransform simulates server-side name normalization on create.
	groupNameTransform func(string) string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{failures: map[string]int{}}
}

func (f *fakeBackend) failNext(method, path string, times int) {
	f.mu.Lock()
	f.failures[method+" "+path] = times
	f.mu.Unlock()
}

func (f *fakeBackend) requestCount(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, r := range f.requests {
		if r == method+" "+path {
			count++
		}
	}
	return count
}

func (f *fakeBackend) addTask(t models.Task) models.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	if t.ID == "" {
		t.ID = fmt.Sprintf("t%d", f.nextID)
	}
	if t.CreatedAt == "" {
		t.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if t.Status == "" {
		t.Status = models.StatusPending
	}
	f.tasks = append(f.tasks, t)
	return t
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	key := r.Method + " " + r.URL.Path
	f.requests = append(f.requests, key)
	if f.failures[key] > 0 {
		f.failures[key]--
		f.mu.Unlock()
		http.Error(w, "backend unavailable", http.StatusInternalServerError)
		return
	}
	hook := f.onRequest
	f.mu.Unlock()

	if hook != nil {
		hook(r.Method, r.URL.Path)
	}

	switch {
	case r.URL.Path == "/tasks" && r.Method == http.MethodGet:
		f.mu.Lock()
		defer f.mu.Unlock()
		writeBody(w, http.StatusOK, f.tasks)

	case r.URL.Path == "/tasks" && r.Method == http.MethodPost:
		var draft models.Task
		json.NewDecoder(r.Body).Decode(&draft)
		writeBody(w, http.StatusCreated, f.addTask(draft))

	case strings.HasPrefix(r.URL.Path, "/tasks/"):
		id := strings.TrimPrefix(r.URL.Path, "/tasks/")
		f.mu.Lock()
		defer f.mu.Unlock()
		idx := -1
		for i, t := range f.tasks {
			if t.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodPut:
			var updated models.Task
			json.NewDecoder(r.Body).Decode(&updated)
			updated.ID = id
			f.tasks[idx] = updated
			writeBody(w, http.StatusOK, updated)
		case http.MethodDelete:
			f.tasks = append(f.tasks[:idx], f.tasks[idx+1:]...)
			w.WriteHeader(http.StatusNoContent)
		}

	case r.URL.Path == "/groups" && r.Method == http.MethodGet:
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.groups == nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeBody(w, http.StatusOK, f.groups)

	case r.URL.Path == "/groups" && r.Method == http.MethodPost:
		var body struct {
			Name string `json:"name"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		name := body.Name
		if f.groupNameTransform != nil {
			name = f.groupNameTransform(name)
		}
		group := models.Group{ID: fmt.Sprintf("g%d", len(f.groups)+1), Name: name}
		f.groups = append(f.groups, group)
		writeBody(w, http.StatusCreated, group)

	case strings.HasPrefix(r.URL.Path, "/groups/"):
		name := strings.TrimPrefix(r.URL.Path, "/groups/")
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.Method {
		case http.MethodPut:
			var body struct {
				NewName string `json:"newName"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			for i := range f.groups {
				if f.groups[i].Name == name {
					f.groups[i].Name = body.NewName
				}
			}
			for i := range f.tasks {
				if f.tasks[i].Group == name {
					f.tasks[i].Group = body.NewName
				}
			}
			w.WriteHeader(http.StatusOK)
		case http.MethodDelete:
			kept := f.tasks[:0]
			for _, t := range f.tasks {
				if t.Group != name {
					kept = append(kept, t)
				}
			}
			f.tasks = kept
			groups := f.groups[:0]
			for _, g := range f.groups {
				if g.Name != name {
					groups = append(groups, g)
				}
			}
			f.groups = groups
			w.WriteHeader(http.StatusOK)
		}

	case r.URL.Path == "/projects" && r.Method == http.MethodGet:
		f.mu.Lock()
		defer f.mu.Unlock()
		writeBody(w, http.StatusOK, f.projects)

	case r.URL.Path == "/projects" && r.Method == http.MethodPost:
		var draft models.Project
		json.NewDecoder(r.Body).Decode(&draft)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.nextID++
		draft.ID = fmt.Sprintf("p%d", f.nextID)
		f.projects = append(f.projects, draft)
		writeBody(w, http.StatusCreated, draft)

	case strings.HasPrefix(r.URL.Path, "/projects/"):
		id := strings.TrimPrefix(r.URL.Path, "/projects/")
		f.mu.Lock()
		defer f.mu.Unlock()
		idx := -1
		for i, p := range f.projects {
			if p.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodPut:
			var updated models.Project
			json.NewDecoder(r.Body).Decode(&updated)
			updated.ID = id
			f.projects[idx] = updated
			writeBody(w, http.StatusOK, updated)
		case http.MethodDelete:
			f.projects = append(f.projects[:idx], f.projects[idx+1:]...)
			w.WriteHeader(http.StatusNoContent)
		}

	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func writeBody(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func testBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: name,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 20
		},
	})
}

func newTestClient(t *testing.T, backend *fakeBackend) *client.Client {
	t.Helper()
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)
	return client.NewClient(server.URL, server.Client(),
		testBreaker("tasks"), testBreaker("groups"), testBreaker("projects"))
}

func newTestStore(t *testing.T, backend *fakeBackend) *TaskStore {
	t.Helper()
	return NewTaskStore(newTestClient(t, backend))
}
