package store

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cesargomez89/versecache/internal/domain"
)

// StoreVerses upserts a batch of verses inside one transaction so a chapter
// is never half-written. Replaced rows keep their existing access fields; the
// remote source is authoritative for the content, not for usage tracking.
func (db *DB) StoreVerses(verses []domain.Verse, meta *domain.BookMeta) error {
	if len(verses) == 0 {
		return nil
	}

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin verse batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`
		INSERT INTO verses (book_id, chapter, verse, text, testament, book_name, downloaded_at, last_accessed_at, access_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(book_id, chapter, verse) DO UPDATE SET
			text = excluded.text,
			testament = excluded.testament,
			book_name = excluded.book_name,
			downloaded_at = excluded.downloaded_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare verse upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, v := range verses {
		testament := v.Testament
		bookName := v.BookName
		if meta != nil {
			if testament == "" {
				testament = meta.Testament
			}
			if bookName == "" {
				bookName = meta.Name
			}
		}

		downloadedAt := v.DownloadedAt
		if downloadedAt.IsZero() {
			downloadedAt = now
		}

		if _, err := stmt.Exec(v.BookID, v.Chapter, v.Verse, v.Text, testament, bookName, downloadedAt, now); err != nil {
			return fmt.Errorf("failed to upsert verse %d:%d:%d: %w", v.BookID, v.Chapter, v.Verse, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit verse batch: %w", err)
	}
	return nil
}

// GetVerses returns a chapter ordered by verse number. As a side effect it
// bumps access tracking on every returned verse; the counters feed search
// ranking and the eviction policy.
func (db *DB) GetVerses(bookID, chapter int) ([]domain.Verse, error) {
	var verses []domain.Verse
	err := db.Select(&verses, `
		SELECT book_id, chapter, verse, text, testament, book_name, downloaded_at, last_accessed_at, access_count
		FROM verses
		WHERE book_id = ? AND chapter = ?
		ORDER BY verse ASC
	`, bookID, chapter)
	if err != nil {
		return nil, fmt.Errorf("failed to select verses: %w", err)
	}

	if len(verses) > 0 {
		_, err = db.Exec(`
			UPDATE verses SET access_count = access_count + 1, last_accessed_at = ?
			WHERE book_id = ? AND chapter = ?
		`, time.Now(), bookID, chapter)
		if err != nil {
			return nil, fmt.Errorf("failed to bump verse access: %w", err)
		}
	}

	return verses, nil
}

// SearchResult is a verse with its relevance score attached.
type SearchResult struct {
	domain.Verse
	Score float64 `json:"score"`
}

// SearchVerses is a naive substring scan ranked by access count plus match
// bonuses. It is not full-text search; callers must assume nothing beyond
// "more accessed and more exact matches rank higher".
func (db *DB) SearchVerses(query string, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return nil, nil
	}

	var verses []domain.Verse
	err := db.Select(&verses, `
		SELECT book_id, chapter, verse, text, testament, book_name, downloaded_at, last_accessed_at, access_count
		FROM verses
		WHERE text COLLATE NOCASE LIKE '%' || ? || '%' ESCAPE '\'
	`, escapeLike(query))
	if err != nil {
		return nil, fmt.Errorf("failed to scan verses: %w", err)
	}

	lowered := strings.ToLower(query)
	results := make([]SearchResult, 0, len(verses))
	for _, v := range verses {
		score := float64(v.AccessCount) * accessWeight
		score += substringBonus
		if containsExactWord(v.Text, lowered) {
			score += exactWordBonus
		}
		results = append(results, SearchResult{Verse: v, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Relevance weights for SearchVerses.
const (
	accessWeight   = 0.5
	substringBonus = 10.0
	exactWordBonus = 25.0
)

// escapeLike neutralizes LIKE wildcards in user queries so "%" or "_" match
// literally instead of everything.
func escapeLike(query string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(query)
}

func containsExactWord(text, word string) bool {
	for _, field := range strings.Fields(strings.ToLower(text)) {
		if strings.Trim(field, ".,;:!?\"'()[]") == word {
			return true
		}
	}
	return false
}

// CleanupOldData deletes verses that are BOTH older than the age cutoff and
// below the access threshold. Frequently read old verses survive.
func (db *DB) CleanupOldData(maxAgeDays, maxAccessCount int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -maxAgeDays)
	res, err := db.Exec(`
		DELETE FROM verses
		WHERE last_accessed_at < ? AND access_count < ?
	`, cutoff, maxAccessCount)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up verses: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleaned rows: %w", err)
	}
	return deleted, nil
}

// ClearAllData wipes every table. Only ever called on explicit user action.
func (db *DB) ClearAllData() error {
	for _, table := range []string{"verses", "offline_content", "download_tasks"} {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}
