// Package api exposes the engine over a JSON HTTP surface plus a WebSocket
// event stream.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cesargomez89/versecache/internal/app"
	"github.com/cesargomez89/versecache/internal/domain"
	"github.com/cesargomez89/versecache/internal/events"
	"github.com/cesargomez89/versecache/internal/logger"
)

// ConnectionReader exposes the monitor's current snapshot.
type ConnectionReader interface {
	Info() domain.ConnectionInfo
}

// SyncRunner is the reconciler surface the API needs.
type SyncRunner interface {
	PerformFullSync(ctx context.Context) domain.SyncReport
	CheckForUpdates() ([]domain.OfflineContent, error)
	LastSyncAt() (time.Time, error)
}

type Handler struct {
	Tasks   *app.TaskService
	Content *app.ContentService
	Syncer  SyncRunner
	Monitor ConnectionReader
	Hub     *events.Hub
	Logger  *logger.Logger
}

func NewHandler(tasks *app.TaskService, content *app.ContentService, sync SyncRunner, monitor ConnectionReader, hub *events.Hub, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Default()
	}
	return &Handler{
		Tasks:   tasks,
		Content: content,
		Syncer:  sync,
		Monitor: monitor,
		Hub:     hub,
		Logger:  log.WithComponent("api"),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/downloads", h.CreateDownload)

		r.Get("/tasks", h.ListTasks)
		r.Get("/tasks/active", h.ListActiveTasks)
		r.Get("/tasks/{id}", h.GetTask)
		r.Post("/tasks/{id}/cancel", h.CancelTask)
		r.Post("/tasks/{id}/retry", h.RetryTask)
		r.Post("/tasks/{id}/pause", h.PauseTask)
		r.Post("/tasks/{id}/resume", h.ResumeTask)

		r.Get("/books", h.ListBooks)
		r.Get("/content", h.ListContent)
		r.Delete("/content/book/{id}", h.RemoveBookContent)
		r.Get("/verses", h.GetVerses)
		r.Get("/search", h.Search)
		r.Get("/stats", h.GetStats)
		r.Post("/cleanup", h.Cleanup)
		r.Post("/wipe", h.Wipe)

		r.Post("/sync", h.TriggerSync)
		r.Get("/sync/updates", h.SyncUpdates)
		r.Get("/connection", h.GetConnection)
	})

	r.Get("/ws/events", h.StreamEvents)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.Logger.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
