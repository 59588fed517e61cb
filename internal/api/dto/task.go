package dto

import (
	"time"

	"github.com/cesargomez89/versecache/internal/domain"
)

// DownloadRequest is the body of POST /api/downloads.
type DownloadRequest struct {
	Kind       string `json:"kind"`
	BookName   string `json:"book_name"`
	Verses     string `json:"verses,omitempty"` // "start-end", verse_range only
	BookID     int    `json:"book_id"`
	Chapter    int    `json:"chapter,omitempty"`
	Background bool   `json:"background,omitempty"`
}

func (r *DownloadRequest) Validate() []ValidationError {
	var errs []ValidationError

	switch domain.TaskKind(r.Kind) {
	case domain.TaskKindBook:
	case domain.TaskKindChapter, domain.TaskKindVerseRange:
		if r.Chapter <= 0 {
			errs = append(errs, ValidationError{Field: "chapter", Message: "must be positive"})
		}
	default:
		errs = append(errs, ValidationError{Field: "kind", Message: "must be 'book', 'chapter' or 'verse_range'"})
	}

	if r.BookID <= 0 {
		errs = append(errs, ValidationError{Field: "book_id", Message: "must be positive"})
	}

	if domain.TaskKind(r.Kind) == domain.TaskKindVerseRange && r.Verses != "" {
		if _, err := domain.ParseVerseRange(r.Verses); err != nil {
			errs = append(errs, ValidationError{Field: "verses", Message: err.Error()})
		}
	}

	return errs
}

// Range parses the verse range field; call only after Validate.
func (r *DownloadRequest) Range() domain.VerseRange {
	if r.Verses == "" {
		return domain.VerseRange{}
	}
	rng, _ := domain.ParseVerseRange(r.Verses)
	return rng
}

type TaskResponse struct {
	ID          string  `json:"id"`
	Kind        string  `json:"kind"`
	Status      string  `json:"status"`
	BookName    string  `json:"book_name"`
	Error       string  `json:"error,omitempty"`
	CreatedAt   string  `json:"created_at"`
	StartedAt   string  `json:"started_at,omitempty"`
	CompletedAt string  `json:"completed_at,omitempty"`
	Progress    float64 `json:"progress"`
	BookID      int     `json:"book_id"`
	Chapter     int     `json:"chapter,omitempty"`
	VerseStart  int     `json:"verse_start,omitempty"`
	VerseEnd    int     `json:"verse_end,omitempty"`
	ItemsDone   int     `json:"items_done"`
	ItemsTotal  int     `json:"items_total"`
	RetryCount  int     `json:"retry_count"`
	Background  bool    `json:"background"`
}

func NewTaskResponse(t *domain.DownloadTask) TaskResponse {
	resp := TaskResponse{
		ID:         t.ID,
		Kind:       string(t.Kind),
		Status:     string(t.Status),
		BookID:     t.BookID,
		BookName:   t.BookName,
		Chapter:    t.Chapter,
		VerseStart: t.VerseStart,
		VerseEnd:   t.VerseEnd,
		Progress:   t.Progress,
		ItemsDone:  t.ItemsDone,
		ItemsTotal: t.ItemsTotal,
		RetryCount: t.RetryCount,
		Background: t.Background,
		CreatedAt:  t.CreatedAt.Format(time.RFC3339),
	}
	if t.StartedAt != nil {
		resp.StartedAt = t.StartedAt.Format(time.RFC3339)
	}
	if t.CompletedAt != nil {
		resp.CompletedAt = t.CompletedAt.Format(time.RFC3339)
	}
	if t.Error != nil {
		resp.Error = *t.Error
	}
	return resp
}

func NewTaskListResponse(tasks []domain.DownloadTask) []TaskResponse {
	out := make([]TaskResponse, len(tasks))
	for i := range tasks {
		out[i] = NewTaskResponse(&tasks[i])
	}
	return out
}
