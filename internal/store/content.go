package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cesargomez89/versecache/internal/domain"
)

// UpsertContent creates or replaces the completion record for the logical
// unit identified by (book, chapter).
func (db *DB) UpsertContent(c *domain.OfflineContent) error {
	_, err := db.NamedExec(`
		INSERT INTO offline_content (id, book_id, book_name, testament, chapter, verses_loaded, verses_expected, complete, size_bytes, status, downloaded_at, last_accessed_at)
		VALUES (:id, :book_id, :book_name, :testament, :chapter, :verses_loaded, :verses_expected, :complete, :size_bytes, :status, :downloaded_at, :last_accessed_at)
		ON CONFLICT(book_id, IFNULL(chapter, -1)) DO UPDATE SET
			book_name = excluded.book_name,
			testament = excluded.testament,
			verses_loaded = excluded.verses_loaded,
			verses_expected = excluded.verses_expected,
			complete = excluded.complete,
			size_bytes = excluded.size_bytes,
			status = excluded.status,
			downloaded_at = excluded.downloaded_at,
			last_accessed_at = excluded.last_accessed_at
	`, c)
	if err != nil {
		return fmt.Errorf("failed to upsert offline content: %w", err)
	}
	return nil
}

func (db *DB) GetContent(id string) (*domain.OfflineContent, error) {
	var c domain.OfflineContent
	err := db.Get(&c, "SELECT * FROM offline_content WHERE id = ?", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get offline content: %w", err)
	}
	return &c, nil
}

// GetContentByBook returns all completion records for a book, whole-book
// record first, then chapters in order.
func (db *DB) GetContentByBook(bookID int) ([]domain.OfflineContent, error) {
	var records []domain.OfflineContent
	err := db.Select(&records, `
		SELECT * FROM offline_content
		WHERE book_id = ?
		ORDER BY chapter IS NOT NULL, chapter ASC
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to list content for book %d: %w", bookID, err)
	}
	return records, nil
}

func (db *DB) ListContent() ([]domain.OfflineContent, error) {
	var records []domain.OfflineContent
	err := db.Select(&records, "SELECT * FROM offline_content ORDER BY book_id ASC, chapter IS NOT NULL, chapter ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list offline content: %w", err)
	}
	return records, nil
}

// ListStaleContent returns records whose last access is older than the
// cutoff, oldest first. Used by the reconciler to flag refresh candidates.
func (db *DB) ListStaleContent(olderThan time.Time) ([]domain.OfflineContent, error) {
	var records []domain.OfflineContent
	err := db.Select(&records, `
		SELECT * FROM offline_content
		WHERE last_accessed_at < ?
		ORDER BY last_accessed_at ASC
	`, olderThan)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale content: %w", err)
	}
	return records, nil
}

func (db *DB) RemoveContent(id string) error {
	if _, err := db.Exec("DELETE FROM offline_content WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to remove offline content: %w", err)
	}
	return nil
}

// RemoveBookContent deletes a book's completion records together with its
// cached verses.
func (db *DB) RemoveBookContent(bookID int) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin book removal: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM offline_content WHERE book_id = ?", bookID); err != nil {
		return fmt.Errorf("failed to remove content records for book %d: %w", bookID, err)
	}
	if _, err := tx.Exec("DELETE FROM verses WHERE book_id = ?", bookID); err != nil {
		return fmt.Errorf("failed to remove verses for book %d: %w", bookID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit book removal: %w", err)
	}
	return nil
}
