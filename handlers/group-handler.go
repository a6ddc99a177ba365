package handlers

import (
	"encoding/json"
	"net/http"

	"task-dashboard/services"

	"github.com/gorilla/mux"
)

type GroupHandler struct {
	registry *services.GroupRegistry
}

func NewGroupHandler(registry *services.GroupRegistry) *GroupHandler {
	return &GroupHandler{registry: registry}
}

func (h *GroupHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	name, err := h.registry.Create(r.Context(), body.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"name":        name,
		"activeGroup": h.registry.Active(),
	})
}

func (h *GroupHandler) RenameGroup(w http.ResponseWriter, r *http.Request) {
	oldName := mux.Vars(r)["groupName"]

	var body struct {
		NewName string `json:"newName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := h.registry.Rename(r.Context(), oldName, body.NewName); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"groups":      h.registry.Names(),
		"activeGroup": h.registry.Active(),
	})
}

// DeleteGroup requires confirm=true in the query; the confirmation dialog
// lives in the UI, but the gate is enforced here so an unconfirmed call can
// never cascade.
func (h *GroupHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["groupName"]
	confirmed := r.URL.Query().Get("confirm") == "true"

	if err := h.registry.Delete(r.Context(), name, confirmed); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"groups":      h.registry.Names(),
		"activeGroup": h.registry.Active(),
	})
}
