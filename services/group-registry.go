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
	ErrEmptyGroupName     = errors.New("group name must not be empty")
	ErrGroupNotFound      = errors.New("group not found")
	ErrDeleteNotConfirmed = errors.New("group deletion requires confirmation")
)

// GroupsOf derives the set of group names referenced by tasks, duplicates
// collapsed, first-seen order preserved. Pure; recomputed on every read.
func GroupsOf(tasks []models.Task) []string {
	seen := map[string]bool{}
	var names []string
	for _, t := range tasks {
		if t.Group == "" || seen[t.Group] {
			continue
		}
		seen[t.Group] = true
		names = append(names, t.Group)
	}
	return names
}

// GroupRegistry keeps the de-duplicated set of known group names and the
// active group. Known names are the union of the explicitly listed or created
// groups and the groups inferred from task membership; the inferred part is
// derived fresh from the store on every read, never cached.
type GroupRegistry struct {
	mu       sync.Mutex
	api      *client.Client
	store    *TaskStore
	explicit []string
	active   string
}

func NewGroupRegistry(api *client.Client, store *TaskStore) *GroupRegistry {
	r := &GroupRegistry{api: api, store: store}
	// First successful load binds the active group to the first known name.
	store.Subscribe(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.active == "" {
			if names := r.namesLocked(); len(names) > 0 {
				r.active = names[0]
			}
		}
	})
	return r
}

// Refresh pulls the explicit group list from the backend. Variants without a
// group-listing endpoint fail here; the registry then runs on inferred names
// alone, which is not an error.
func (r *GroupRegistry) Refresh(ctx context.Context) {
	groups, err := r.api.ListGroups(ctx)
	if err != nil {
		logging.Logger.Infof("Event ID: GROUP_LISTING_UNAVAILABLE, Description: Group listing not available, using inferred groups: %v", err)
		return
	}

	r.mu.Lock()
	r.explicit = r.explicit[:0]
	seen := map[string]bool{}
	for _, g := range groups {
		if g.Name == "" || seen[g.Name] {
			continue
		}
		seen[g.Name] = true
		r.explicit = append(r.explicit, g.Name)
	}
	if r.active == "" {
		if names := r.namesLocked(); len(names) > 0 {
			r.active = names[0]
		}
	}
	r.mu.Unlock()
}

// namesLocked merges explicit and inferred names, explicit first, exact
// case-sensitive matching. Callers must hold the lock.
func (r *GroupRegistry) namesLocked() []string {
	names := make([]string, 0, len(r.explicit))
	seen := map[string]bool{}
	for _, name := range r.explicit {
		seen[name] = true
		names = append(names, name)
	}
	for _, name := range GroupsOf(r.store.Tasks()) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// Names returns the current registry snapshot.
func (r *GroupRegistry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.namesLocked()
}

func (r *GroupRegistry) Active() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// SetActive binds the active group to an explicit user selection.
func (r *GroupRegistry) SetActive(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, known := range r.namesLocked() {
		if known == name {
			r.active = name
			return nil
		}
	}
	return ErrGroupNotFound
}

// Create registers a group. The server-confirmed name is canonical (the
// backend may normalize it) and becomes the active group. On failure the
// registry is untouched.
func (r *GroupRegistry) Create(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyGroupName
	}

	created, err := r.api.CreateGroup(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to create group %q: %w", name, err)
	}

	r.mu.Lock()
	exists := false
	for _, existing := range r.explicit {
		if existing == created.Name {
			exists = true
			break
		}
	}
	if !exists {
		r.explicit = append(r.explicit, created.Name)
	}
	r.active = created.Name
	r.mu.Unlock()

	logging.Logger.Infof("Event ID: GROUP_CREATED, Description: Created group %q, now active", created.Name)
	return created.Name, nil
}

// Rename renames a group and cascades the new name to every member task in
// memory; the backend performs the server-side cascade. A blank or unchanged
// new name is a no-op.
func (r *GroupRegistry) Rename(ctx context.Context, oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" || newName == oldName {
		return nil
	}

	if err := r.api.RenameGroup(ctx, oldName, newName); err != nil {
		return fmt.Errorf("failed to rename group %q: %w", oldName, err)
	}

	r.store.RenameGroup(oldName, newName)

	r.mu.Lock()
	for i, name := range r.explicit {
		if name == oldName {
			r.explicit[i] = newName
			break
		}
	}
	if r.active == oldName {
		r.active = newName
	}
	r.mu.Unlock()

	logging.Logger.Infof("Event ID: GROUP_RENAMED, Description: Renamed group %q to %q", oldName, newName)
	return nil
}

// Delete removes a group and all of its member tasks. The caller must have
// passed an explicit confirmation gate; without it nothing is sent. When the
// active group is deleted, the first remaining group becomes active, or the
// active group unbinds if none remain.
func (r *GroupRegistry) Delete(ctx context.Context, name string, confirmed bool) error {
	if !confirmed {
		return ErrDeleteNotConfirmed
	}

	if err := r.api.DeleteGroup(ctx, name); err != nil {
		return fmt.Errorf("failed to delete group %q: %w", name, err)
	}

	r.store.RemoveGroup(name)

	r.mu.Lock()
	for i, existing := range r.explicit {
		if existing == name {
			r.explicit = append(r.explicit[:i], r.explicit[i+1:]...)
			break
		}
	}
	if r.active == name {
		r.active = ""
		if names := r.namesLocked(); len(names) > 0 {
			r.active = names[0]
		}
	}
	r.mu.Unlock()

	logging.Logger.Infof("Event ID: GROUP_DELETED, Description: Deleted group %q and its tasks", name)
	return nil
}
