package handlers

import (
	"encoding/json"
	"net/http"

	"task-dashboard/models"
	"task-dashboard/services"

	"github.com/gorilla/mux"
)

type BoardHandler struct {
	board *services.BoardService
}

func NewBoardHandler(board *services.BoardService) *BoardHandler {
	return &BoardHandler{board: board}
}

type BoardView struct {
	Metrics services.BoardMetrics  `json:"metrics"`
	Columns []services.BoardColumn `json:"columns"`
}

func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, BoardView{
		Metrics: h.board.Metrics(),
		Columns: h.board.Columns(),
	})
}

func (h *BoardHandler) ReloadBoard(w http.ResponseWriter, r *http.Request) {
	if err := h.board.Load(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	h.GetBoard(w, r)
}

func (h *BoardHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name  string `json:"name"`
		Owner string `json:"owner"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	created, err := h.board.Create(r.Context(), body.Name, body.Owner)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *BoardHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectID"]

	var project models.Project
	if err := json.NewDecoder(r.Body).Decode(&project); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	updated, err := h.board.Update(r.Context(), projectID, project)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *BoardHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectID"]
	if err := h.board.Delete(r.Context(), projectID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DragProject applies a board drag gesture reported as source/destination
// positions; a null destination means the drag was dropped outside a column.
func (h *BoardHandler) DragProject(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectID"]

	var body struct {
		Source      services.BoardPosition  `json:"source"`
		Destination *services.BoardPosition `json:"destination"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := h.board.DragEnd(r.Context(), projectID, body.Source, body.Destination); err != nil {
		writeServiceError(w, err)
		return
	}
	h.GetBoard(w, r)
}
