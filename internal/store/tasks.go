package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cesargomez89/versecache/internal/domain"
)

func (db *DB) CreateTask(task *domain.DownloadTask) error {
	_, err := db.NamedExec(`
		INSERT INTO download_tasks (id, kind, status, book_id, book_name, chapter, verse_start, verse_end, progress, items_done, items_total, retry_count, background, error, created_at, started_at, completed_at)
		VALUES (:id, :kind, :status, :book_id, :book_name, :chapter, :verse_start, :verse_end, :progress, :items_done, :items_total, :retry_count, :background, :error, :created_at, :started_at, :completed_at)
	`, task)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (db *DB) GetTask(id string) (*domain.DownloadTask, error) {
	var task domain.DownloadTask
	err := db.Get(&task, "SELECT * FROM download_tasks WHERE id = ?", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

// UpdateTask rewrites every mutable column from the given struct.
func (db *DB) UpdateTask(task *domain.DownloadTask) error {
	_, err := db.NamedExec(`
		UPDATE download_tasks SET
			status = :status,
			progress = :progress,
			items_done = :items_done,
			items_total = :items_total,
			retry_count = :retry_count,
			error = :error,
			started_at = :started_at,
			completed_at = :completed_at
		WHERE id = :id
	`, task)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

func (db *DB) UpdateTaskStatus(id string, status domain.TaskStatus) error {
	_, err := db.Exec("UPDATE download_tasks SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}
	return nil
}

func (db *DB) RemoveTask(id string) error {
	if _, err := db.Exec("DELETE FROM download_tasks WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to remove task: %w", err)
	}
	return nil
}

func (db *DB) ListTasks() ([]domain.DownloadTask, error) {
	var tasks []domain.DownloadTask
	err := db.Select(&tasks, "SELECT * FROM download_tasks ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// ListActiveTasks returns pending and downloading tasks oldest-created-first,
// the promotion order used by the scheduler.
func (db *DB) ListActiveTasks() ([]domain.DownloadTask, error) {
	var tasks []domain.DownloadTask
	err := db.Select(&tasks, `
		SELECT * FROM download_tasks
		WHERE status IN ('pending', 'downloading')
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active tasks: %w", err)
	}
	return tasks, nil
}

// GetActiveTaskForTarget finds a non-terminal task addressing the same
// logical unit, used to deduplicate enqueues.
func (db *DB) GetActiveTaskForTarget(kind domain.TaskKind, bookID, chapter int) (*domain.DownloadTask, error) {
	var task domain.DownloadTask
	err := db.Get(&task, `
		SELECT * FROM download_tasks
		WHERE kind = ? AND book_id = ? AND chapter = ? AND status IN ('pending', 'downloading', 'paused')
		LIMIT 1
	`, kind, bookID, chapter)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up active task: %w", err)
	}
	return &task, nil
}

// ResetStuckTasks returns tasks left in downloading by an unclean shutdown
// to pending so the scheduler picks them up again.
func (db *DB) ResetStuckTasks() error {
	_, err := db.Exec("UPDATE download_tasks SET status = ? WHERE status = ?",
		domain.TaskStatusPending, domain.TaskStatusDownloading)
	if err != nil {
		return fmt.Errorf("failed to reset stuck tasks: %w", err)
	}
	return nil
}

// PurgeFinishedTasks removes completed and failed tasks older than the
// retention window.
func (db *DB) PurgeFinishedTasks(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res, err := db.Exec(`
		DELETE FROM download_tasks
		WHERE status IN ('completed', 'failed') AND completed_at IS NOT NULL AND completed_at < ?
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge finished tasks: %w", err)
	}
	purged, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged tasks: %w", err)
	}
	return purged, nil
}
