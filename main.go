package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"task-dashboard/client"
	"task-dashboard/handlers"
	"task-dashboard/logging"
	"task-dashboard/services"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sony/gobreaker"
)

const (
	defaultAPIBaseURL     = "http://localhost:8080/api"
	defaultServerPort     = "8090"
	defaultWakeupInterval = 14 * time.Minute
)

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})
}

func main() {
	logging.InitLogger()
	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Task Dashboard...")

	if err := godotenv.Load(".env"); err != nil {
		logging.Logger.Warnf("Event ID: ENV_LOAD_WARNING, Description: No .env file loaded, using defaults: %v", err)
	}

	apiBaseURL := getEnv("API_BASE_URL", defaultAPIBaseURL)
	serverPort := getEnv("SERVER_PORT", defaultServerPort)

	wakeupInterval := defaultWakeupInterval
	if raw := os.Getenv("WAKEUP_INTERVAL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: Invalid WAKEUP_INTERVAL %q: %v", raw, err)
		}
		wakeupInterval = parsed
	}

	apiClient := client.NewClient(
		apiBaseURL,
		&http.Client{Timeout: 10 * time.Second},
		newBreaker("TasksAPICB"),
		newBreaker("GroupsAPICB"),
		newBreaker("ProjectsAPICB"),
	)
	logging.Logger.Infof("Event ID: BACKEND_CONFIGURED, Description: Using backend API at %s", apiBaseURL)

	store := services.NewTaskStore(apiClient)
	registry := services.NewGroupRegistry(apiClient, store)
	board := services.NewBoardService(apiClient)

	taskHandler := handlers.NewTaskHandler(store, registry)
	groupHandler := handlers.NewGroupHandler(registry)
	dashboardHandler := handlers.NewDashboardHandler(store, registry)
	boardHandler := handlers.NewBoardHandler(board)

	// One-shot initial load; the UI falls back to an empty state on failure
	// and the user can reload explicitly.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := store.Load(ctx); err != nil {
		logging.Logger.Warnf("Event ID: INITIAL_LOAD_FAILED, Description: Initial task load failed, starting empty: %v", err)
	}
	registry.Refresh(ctx)
	if err := board.Load(ctx); err != nil {
		logging.Logger.Warnf("Event ID: INITIAL_BOARD_LOAD_FAILED, Description: Initial project load failed, starting empty: %v", err)
	}
	cancel()

	apiClient.StartKeepAlive(context.Background(), wakeupInterval)

	r := mux.NewRouter()

	r.HandleFunc("/api/views/tasks", taskHandler.GetTasksView).Methods(http.MethodGet)
	r.HandleFunc("/api/views/tasks/reload", taskHandler.ReloadTasks).Methods(http.MethodPost)
	r.HandleFunc("/api/views/tasks/group", taskHandler.SelectGroup).Methods(http.MethodPost)
	r.HandleFunc("/api/views/tasks/filters", taskHandler.SetFilters).Methods(http.MethodPost)
	r.HandleFunc("/api/views/tasks/sort", taskHandler.ToggleCreatedSort).Methods(http.MethodPost)

	r.HandleFunc("/api/tasks", taskHandler.CreateTask).Methods(http.MethodPost)
	r.HandleFunc("/api/tasks/reorder", taskHandler.ReorderTasks).Methods(http.MethodPost)
	r.HandleFunc("/api/tasks/{taskID}", taskHandler.UpdateTask).Methods(http.MethodPut)
	r.HandleFunc("/api/tasks/{taskID}", taskHandler.DeleteTask).Methods(http.MethodDelete)
	r.HandleFunc("/api/tasks/{taskID}/status", taskHandler.ChangeTaskStatus).Methods(http.MethodPost)
	r.HandleFunc("/api/tasks/{taskID}/move", taskHandler.MoveTask).Methods(http.MethodPost)

	r.HandleFunc("/api/groups", groupHandler.CreateGroup).Methods(http.MethodPost)
	r.HandleFunc("/api/groups/{groupName}", groupHandler.RenameGroup).Methods(http.MethodPut)
	r.HandleFunc("/api/groups/{groupName}", groupHandler.DeleteGroup).Methods(http.MethodDelete)

	r.HandleFunc("/api/views/dashboard", dashboardHandler.GetDashboard).Methods(http.MethodGet)

	r.HandleFunc("/api/views/board", boardHandler.GetBoard).Methods(http.MethodGet)
	r.HandleFunc("/api/views/board/reload", boardHandler.ReloadBoard).Methods(http.MethodPost)
	r.HandleFunc("/api/projects", boardHandler.CreateProject).Methods(http.MethodPost)
	r.HandleFunc("/api/projects/{projectID}", boardHandler.UpdateProject).Methods(http.MethodPut)
	r.HandleFunc("/api/projects/{projectID}", boardHandler.DeleteProject).Methods(http.MethodDelete)
	r.HandleFunc("/api/projects/{projectID}/drag", boardHandler.DragProject).Methods(http.MethodPost)

	corsRouter := enableCORS(r)

	serverAddress := fmt.Sprintf(":%s", serverPort)
	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)

	if err := http.ListenAndServe(serverAddress, corsRouter); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}
