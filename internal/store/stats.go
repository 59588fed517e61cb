package store

import (
	"fmt"

	"github.com/cesargomez89/versecache/internal/domain"
)

// Rough per-row storage overhead beyond the verse text itself.
const verseRowOverhead = 96

// GetStats aggregates cache contents for display and eviction decisions.
func (db *DB) GetStats() (*domain.StoreStats, error) {
	stats := &domain.StoreStats{
		ByTestament: make(map[string]int),
		ByBook:      make(map[string]int),
	}

	var totals struct {
		Verses    int   `db:"verses"`
		Books     int   `db:"books"`
		Chapters  int   `db:"chapters"`
		TextBytes int64 `db:"text_bytes"`
	}
	err := db.Get(&totals, `
		SELECT
			COUNT(*) AS verses,
			COUNT(DISTINCT book_id) AS books,
			COUNT(DISTINCT book_id || ':' || chapter) AS chapters,
			IFNULL(SUM(LENGTH(text)), 0) AS text_bytes
		FROM verses
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate verse totals: %w", err)
	}

	stats.Verses = totals.Verses
	stats.Books = totals.Books
	stats.Chapters = totals.Chapters
	stats.SizeBytes = totals.TextBytes + int64(totals.Verses)*verseRowOverhead

	rows, err := db.Queryx("SELECT testament, COUNT(*) FROM verses GROUP BY testament")
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate by testament: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var testament string
		var count int
		if err := rows.Scan(&testament, &count); err != nil {
			return nil, fmt.Errorf("failed to scan testament row: %w", err)
		}
		stats.ByTestament[testament] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate testament rows: %w", err)
	}

	bookRows, err := db.Queryx("SELECT book_name, COUNT(*) FROM verses GROUP BY book_name")
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate by book: %w", err)
	}
	defer bookRows.Close()
	for bookRows.Next() {
		var book string
		var count int
		if err := bookRows.Scan(&book, &count); err != nil {
			return nil, fmt.Errorf("failed to scan book row: %w", err)
		}
		stats.ByBook[book] = count
	}
	if err := bookRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate book rows: %w", err)
	}

	return stats, nil
}
