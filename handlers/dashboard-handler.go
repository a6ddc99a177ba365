package handlers

import (
	"net/http"

	"task-dashboard/services"
)

type DashboardHandler struct {
	store    *services.TaskStore
	registry *services.GroupRegistry
}

func NewDashboardHandler(store *services.TaskStore, registry *services.GroupRegistry) *DashboardHandler {
	return &DashboardHandler{store: store, registry: registry}
}

// DashboardView aggregates one group's full task set (filters do not apply
// here). The group selector defaults to the active group.
type DashboardView struct {
	Groups  []string                  `json:"groups"`
	Summary services.DashboardSummary `json:"summary"`
}

func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	group := r.URL.Query().Get("group")
	if group == "" {
		group = h.registry.Active()
	}

	view := DashboardView{
		Groups:  h.registry.Names(),
		Summary: services.BuildDashboard(group, h.store.TasksInGroup(group)),
	}
	writeJSON(w, http.StatusOK, view)
}
