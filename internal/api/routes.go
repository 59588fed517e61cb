package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cesargomez89/versecache/internal/api/dto"
	"github.com/cesargomez89/versecache/internal/domain"
	"github.com/cesargomez89/versecache/internal/queue"
)

func (h *Handler) CreateDownload(w http.ResponseWriter, r *http.Request) {
	var req dto.DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		h.writeError(w, http.StatusBadRequest, dto.ToResponse(errs))
		return
	}

	var task *domain.DownloadTask
	var err error
	switch domain.TaskKind(req.Kind) {
	case domain.TaskKindBook:
		task, err = h.Tasks.EnqueueBook(req.BookID, req.BookName, req.Background)
	case domain.TaskKindChapter:
		task, err = h.Tasks.EnqueueChapter(req.BookID, req.BookName, req.Chapter, req.Background)
	case domain.TaskKindVerseRange:
		task, err = h.Tasks.EnqueueVerseRange(req.BookID, req.BookName, req.Chapter, req.Range(), req.Background)
	}

	if errors.Is(err, queue.ErrDuplicateTask) {
		h.writeJSON(w, http.StatusConflict, dto.NewTaskResponse(task))
		return
	}
	if err != nil {
		h.Logger.Error("Failed to enqueue task", "error", err)
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, dto.NewTaskResponse(task))
}

func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Tasks.ListTasks()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, dto.NewTaskListResponse(tasks))
}

func (h *Handler) ListActiveTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Tasks.ListActiveTasks()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, dto.NewTaskListResponse(tasks))
}

func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.Tasks.GetTask(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if task == nil {
		h.writeError(w, http.StatusNotFound, "task not found")
		return
	}
	h.writeJSON(w, http.StatusOK, dto.NewTaskResponse(task))
}

func (h *Handler) CancelTask(w http.ResponseWriter, r *http.Request) {
	h.taskTransition(w, chi.URLParam(r, "id"), h.Tasks.CancelTask)
}

func (h *Handler) RetryTask(w http.ResponseWriter, r *http.Request) {
	h.taskTransition(w, chi.URLParam(r, "id"), h.Tasks.RetryTask)
}

func (h *Handler) PauseTask(w http.ResponseWriter, r *http.Request) {
	h.taskTransition(w, chi.URLParam(r, "id"), h.Tasks.PauseTask)
}

func (h *Handler) ResumeTask(w http.ResponseWriter, r *http.Request) {
	h.taskTransition(w, chi.URLParam(r, "id"), h.Tasks.ResumeTask)
}

func (h *Handler) taskTransition(w http.ResponseWriter, id string, op func(string) error) {
	err := op(id)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	case errors.Is(err, queue.ErrTaskNotFound):
		h.writeError(w, http.StatusNotFound, "task not found")
	case errors.Is(err, queue.ErrInvalidState):
		h.writeError(w, http.StatusConflict, err.Error())
	default:
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.Content.ListBooks(r.Context())
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, books)
}

func (h *Handler) ListContent(w http.ResponseWriter, r *http.Request) {
	if bookParam := r.URL.Query().Get("book"); bookParam != "" {
		bookID, err := strconv.Atoi(bookParam)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid book id")
			return
		}
		records, err := h.Content.GetBookContent(bookID)
		if err != nil {
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		h.writeJSON(w, http.StatusOK, dto.NewContentListResponse(records))
		return
	}

	records, err := h.Content.ListContent()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, dto.NewContentListResponse(records))
}

func (h *Handler) RemoveBookContent(w http.ResponseWriter, r *http.Request) {
	bookID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid book id")
		return
	}
	if err := h.Content.RemoveBookContent(bookID); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetVerses(w http.ResponseWriter, r *http.Request) {
	bookID, err := strconv.Atoi(r.URL.Query().Get("book"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid book id")
		return
	}
	chapter, err := strconv.Atoi(r.URL.Query().Get("chapter"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid chapter")
		return
	}

	verses, err := h.Content.GetVerses(bookID, chapter)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, dto.NewVerseListResponse(verses))
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "missing query")
		return
	}

	results, err := h.Content.SearchVerses(query)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, dto.NewSearchListResponse(results))
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Content.GetStats()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	var req dto.CleanupRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	removed, err := h.Content.Cleanup(req.MaxAgeDays, req.MaxAccessCount)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, dto.CleanupResponse{Removed: removed})
}

func (h *Handler) Wipe(w http.ResponseWriter, r *http.Request) {
	if err := h.Content.Wipe(); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	report := h.Syncer.PerformFullSync(r.Context())
	status := http.StatusOK
	if report.Result == domain.SyncResultSkipped {
		status = http.StatusConflict
	}
	h.writeJSON(w, status, dto.NewSyncReportResponse(report))
}

func (h *Handler) SyncUpdates(w http.ResponseWriter, r *http.Request) {
	stale, err := h.Syncer.CheckForUpdates()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	last, err := h.Syncer.LastSyncAt()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]interface{}{
		"stale": dto.NewContentListResponse(stale),
	}
	if !last.IsZero() {
		resp["last_sync_at"] = last
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetConnection(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, dto.NewConnectionResponse(h.Monitor.Info()))
}
