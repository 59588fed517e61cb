package domain

import (
	"time"
)

type TaskKind string

const (
	TaskKindBook       TaskKind = "book"
	TaskKindChapter    TaskKind = "chapter"
	TaskKindVerseRange TaskKind = "verse_range"
)

type TaskStatus string

const (
	TaskStatusPending     TaskStatus = "pending"
	TaskStatusDownloading TaskStatus = "downloading"
	TaskStatusPaused      TaskStatus = "paused"
	TaskStatusCompleted   TaskStatus = "completed"
	TaskStatusFailed      TaskStatus = "failed"
)

// Terminal reports whether the status admits no further automatic transition.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// DownloadTask is a unit of download work tracked through its state machine.
type DownloadTask struct {
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	Error       *string    `json:"error,omitempty" db:"error"`
	ID          string     `json:"id" db:"id"`
	Kind        TaskKind   `json:"kind" db:"kind"`
	Status      TaskStatus `json:"status" db:"status"`
	BookName    string     `json:"book_name" db:"book_name"`
	BookID      int        `json:"book_id" db:"book_id"`
	Chapter     int        `json:"chapter" db:"chapter"` // 0 for whole-book tasks
	VerseStart  int        `json:"verse_start" db:"verse_start"`
	VerseEnd    int        `json:"verse_end" db:"verse_end"`
	Progress    float64    `json:"progress" db:"progress"` // 0-100
	ItemsDone   int        `json:"items_done" db:"items_done"`
	ItemsTotal  int        `json:"items_total" db:"items_total"`
	RetryCount  int        `json:"retry_count" db:"retry_count"`
	Background  bool       `json:"background" db:"background"`
}

// Range returns the task's verse range, or the wide default when none was
// requested. The upstream returns an empty body without an explicit range.
func (t *DownloadTask) Range() VerseRange {
	if t.VerseStart > 0 {
		return VerseRange{Start: t.VerseStart, End: t.VerseEnd}
	}
	return DefaultRange
}

// Verse is an immutable content unit keyed by (book, chapter, verse).
// Only the access-tracking fields mutate after creation.
type Verse struct {
	DownloadedAt   time.Time `json:"downloaded_at" db:"downloaded_at"`
	LastAccessedAt time.Time `json:"last_accessed_at" db:"last_accessed_at"`
	BookName       string    `json:"book_name" db:"book_name"`
	Testament      string    `json:"testament" db:"testament"`
	Text           string    `json:"text" db:"text"`
	BookID         int       `json:"book_id" db:"book_id"`
	Chapter        int       `json:"chapter" db:"chapter"`
	Verse          int       `json:"verse" db:"verse"`
	AccessCount    int       `json:"access_count" db:"access_count"`
}

// BookMeta describes one book of the corpus as reported by the upstream.
type BookMeta struct {
	Name      string `json:"name"`
	Testament string `json:"testament"`
	ID        int    `json:"id"`
	Chapters  int    `json:"chapters"`
}

// OfflineContent is a completion record for a cached logical unit: a whole
// book when Chapter is nil, otherwise a single chapter.
type OfflineContent struct {
	DownloadedAt   time.Time  `json:"downloaded_at" db:"downloaded_at"`
	LastAccessedAt time.Time  `json:"last_accessed_at" db:"last_accessed_at"`
	Chapter        *int       `json:"chapter,omitempty" db:"chapter"`
	ID             string     `json:"id" db:"id"`
	BookName       string     `json:"book_name" db:"book_name"`
	Testament      string     `json:"testament" db:"testament"`
	Status         TaskStatus `json:"status" db:"status"`
	BookID         int        `json:"book_id" db:"book_id"`
	VersesLoaded   int        `json:"verses_loaded" db:"verses_loaded"`
	VersesExpected int        `json:"verses_expected" db:"verses_expected"`
	SizeBytes      int64      `json:"size_bytes" db:"size_bytes"`
	Complete       bool       `json:"complete" db:"complete"`
}

type Quality string

const (
	QualityUnknown   Quality = "unknown"
	QualityExcellent Quality = "excellent"
	QualityGood      Quality = "good"
	QualityFair      Quality = "fair"
	QualityPoor      Quality = "poor"
)

// ConnectionInfo is a snapshot of the monitor's view of the network.
// It lives for the process lifetime only and is never persisted.
type ConnectionInfo struct {
	LastProbeAt   time.Time `json:"last_probe_at"`
	Quality       Quality   `json:"quality"`
	ConsecFails   int       `json:"consecutive_failures"`
	Online        bool      `json:"online"`
	ForcedOffline bool      `json:"forced_offline"`
}

// SuitableForDownloads reports whether the queue may start new work.
func (c ConnectionInfo) SuitableForDownloads() bool {
	return c.Online && (c.Quality == QualityExcellent || c.Quality == QualityGood)
}

type SyncResult string

const (
	SyncResultSuccess SyncResult = "success"
	SyncResultPartial SyncResult = "partial"
	SyncResultFailed  SyncResult = "failed"
	SyncResultSkipped SyncResult = "skipped"
)

// SyncReport summarizes one full-sync pass over the offline catalog.
type SyncReport struct {
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
	Result     SyncResult `json:"result"`
	Refreshed  int        `json:"refreshed"`
	Failed     int        `json:"failed"`
}

// StoreStats aggregates cache contents for display and eviction decisions.
type StoreStats struct {
	ByTestament map[string]int `json:"by_testament"`
	ByBook      map[string]int `json:"by_book"`
	Verses      int            `json:"verses"`
	Books       int            `json:"books"`
	Chapters    int            `json:"chapters"`
	SizeBytes   int64          `json:"size_bytes"`
}
