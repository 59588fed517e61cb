package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/cesargomez89/versecache/internal/domain"
)

func makeVerse(book, chapter, verse int, text string) domain.Verse {
	return domain.Verse{
		BookID:   book,
		Chapter:  chapter,
		Verse:    verse,
		Text:     text,
		BookName: "Genesis",
	}
}

func TestStoreVerses_OrderedRead(t *testing.T) {
	db := setupTestDB(t)

	// Insert out of order; read must come back ordered by verse number
	verses := []domain.Verse{
		makeVerse(1, 1, 3, "third"),
		makeVerse(1, 1, 1, "first"),
		makeVerse(1, 1, 2, "second"),
	}
	meta := &domain.BookMeta{ID: 1, Name: "Genesis", Testament: "OT"}
	if err := db.StoreVerses(verses, meta); err != nil {
		t.Fatalf("StoreVerses failed: %v", err)
	}

	got, err := db.GetVerses(1, 1)
	if err != nil {
		t.Fatalf("GetVerses failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 verses, got %d", len(got))
	}
	for i, v := range got {
		if v.Verse != i+1 {
			t.Errorf("Expected verse %d at position %d, got %d", i+1, i, v.Verse)
		}
	}
	if got[0].Testament != "OT" {
		t.Errorf("Expected testament from book meta, got %q", got[0].Testament)
	}
}

func TestStoreVerses_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	meta := &domain.BookMeta{ID: 1, Name: "Genesis", Testament: "OT"}
	if err := db.StoreVerses([]domain.Verse{makeVerse(1, 1, 1, "old text")}, meta); err != nil {
		t.Fatalf("StoreVerses failed: %v", err)
	}
	if err := db.StoreVerses([]domain.Verse{makeVerse(1, 1, 1, "new text")}, meta); err != nil {
		t.Fatalf("Second StoreVerses failed: %v", err)
	}

	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM verses WHERE book_id = 1 AND chapter = 1 AND verse = 1"); err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 row for the key after rewrite, got %d", count)
	}

	got, _ := db.GetVerses(1, 1)
	if got[0].Text != "new text" {
		t.Errorf("Expected second write to replace, got %q", got[0].Text)
	}
}

func TestGetVerses_BumpsAccessTracking(t *testing.T) {
	db := setupTestDB(t)

	meta := &domain.BookMeta{ID: 1, Name: "Genesis", Testament: "OT"}
	if err := db.StoreVerses([]domain.Verse{makeVerse(1, 1, 1, "text")}, meta); err != nil {
		t.Fatalf("StoreVerses failed: %v", err)
	}

	if _, err := db.GetVerses(1, 1); err != nil {
		t.Fatalf("First GetVerses failed: %v", err)
	}
	if _, err := db.GetVerses(1, 1); err != nil {
		t.Fatalf("Second GetVerses failed: %v", err)
	}

	var count int
	if err := db.Get(&count, "SELECT access_count FROM verses WHERE book_id = 1 AND chapter = 1 AND verse = 1"); err != nil {
		t.Fatalf("Read access count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected access count 2 after two reads, got %d", count)
	}

	// Reading an empty chapter bumps nothing and is not an error
	empty, err := db.GetVerses(1, 99)
	if err != nil {
		t.Fatalf("GetVerses on empty chapter failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Expected no verses, got %d", len(empty))
	}
}

func TestSearchVerses_Ranking(t *testing.T) {
	db := setupTestDB(t)

	meta := &domain.BookMeta{ID: 1, Name: "Genesis", Testament: "OT"}
	verses := []domain.Verse{
		makeVerse(1, 1, 1, "In the beginning God created the heaven and the earth."),
		makeVerse(1, 1, 2, "And the earthly powers trembled."),
		makeVerse(1, 2, 1, "Nothing relevant here."),
	}
	if err := db.StoreVerses(verses, meta); err != nil {
		t.Fatalf("StoreVerses failed: %v", err)
	}

	// Bump access on chapter 1 so its verses outrank by usage
	if _, err := db.GetVerses(1, 1); err != nil {
		t.Fatalf("GetVerses failed: %v", err)
	}

	results, err := db.SearchVerses("earth", 10)
	if err != nil {
		t.Fatalf("SearchVerses failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(results))
	}
	// "earth." trims to an exact word match; "earthly" is substring only
	if results[0].Verse.Verse != 1 {
		t.Errorf("Expected exact-word verse ranked first, got verse %d", results[0].Verse.Verse)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("Expected descending scores, got %f then %f", results[0].Score, results[1].Score)
	}

	// Limit applies after ranking
	limited, err := db.SearchVerses("earth", 1)
	if err != nil {
		t.Fatalf("SearchVerses with limit failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("Expected 1 result with limit 1, got %d", len(limited))
	}

	// Blank query is a no-op
	none, err := db.SearchVerses("   ", 10)
	if err != nil {
		t.Fatalf("SearchVerses with blank query failed: %v", err)
	}
	if none != nil {
		t.Errorf("Expected nil results for blank query, got %d", len(none))
	}
}

func TestSearchVerses_WildcardsMatchLiterally(t *testing.T) {
	db := setupTestDB(t)

	meta := &domain.BookMeta{ID: 1, Name: "Genesis", Testament: "OT"}
	verses := []domain.Verse{
		makeVerse(1, 1, 1, "a tithe of 10% belongs to the storehouse"),
		makeVerse(1, 1, 2, "And God said, Let there be light."),
	}
	if err := db.StoreVerses(verses, meta); err != nil {
		t.Fatalf("StoreVerses failed: %v", err)
	}

	// A bare wildcard is a literal character, not match-all
	results, err := db.SearchVerses("%", 10)
	if err != nil {
		t.Fatalf("SearchVerses failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 match for %%, got %d", len(results))
	}
	if results[0].Verse.Verse != 1 {
		t.Errorf("Expected the verse containing a literal %%, got verse %d", results[0].Verse.Verse)
	}

	underscore, err := db.SearchVerses("_", 10)
	if err != nil {
		t.Fatalf("SearchVerses failed: %v", err)
	}
	if len(underscore) != 0 {
		t.Errorf("Expected no matches for _, got %d", len(underscore))
	}
}

func TestCleanupOldData_Conjunctive(t *testing.T) {
	db := setupTestDB(t)

	meta := &domain.BookMeta{ID: 1, Name: "Genesis", Testament: "OT"}
	verses := []domain.Verse{
		makeVerse(1, 1, 1, "old but loved"),
		makeVerse(1, 1, 2, "old and ignored"),
		makeVerse(1, 1, 3, "fresh"),
	}
	if err := db.StoreVerses(verses, meta); err != nil {
		t.Fatalf("StoreVerses failed: %v", err)
	}

	sixtyDaysAgo := time.Now().AddDate(0, 0, -60)
	mustExec(t, db, "UPDATE verses SET last_accessed_at = ?, access_count = 2000 WHERE verse = 1", sixtyDaysAgo)
	mustExec(t, db, "UPDATE verses SET last_accessed_at = ?, access_count = 5 WHERE verse = 2", sixtyDaysAgo)
	mustExec(t, db, "UPDATE verses SET access_count = 5 WHERE verse = 3")

	deleted, err := db.CleanupOldData(30, 1000)
	if err != nil {
		t.Fatalf("CleanupOldData failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted verse, got %d", deleted)
	}

	var remaining []int
	if err := db.Select(&remaining, "SELECT verse FROM verses ORDER BY verse"); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(remaining) != 2 || remaining[0] != 1 || remaining[1] != 3 {
		t.Errorf("Expected verses 1 and 3 to survive, got %v", remaining)
	}
}

func TestClearAllData(t *testing.T) {
	db := setupTestDB(t)

	meta := &domain.BookMeta{ID: 1, Name: "Genesis", Testament: "OT"}
	if err := db.StoreVerses([]domain.Verse{makeVerse(1, 1, 1, "text")}, meta); err != nil {
		t.Fatalf("StoreVerses failed: %v", err)
	}
	if err := db.CreateTask(&domain.DownloadTask{ID: "t", Kind: domain.TaskKindBook, Status: domain.TaskStatusPending, BookID: 1, CreatedAt: time.Now()}); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if err := db.UpsertContent(&domain.OfflineContent{ID: "c", BookID: 1, Status: domain.TaskStatusCompleted, DownloadedAt: time.Now(), LastAccessedAt: time.Now()}); err != nil {
		t.Fatalf("UpsertContent failed: %v", err)
	}

	if err := db.ClearAllData(); err != nil {
		t.Fatalf("ClearAllData failed: %v", err)
	}

	for _, table := range []string{"verses", "offline_content", "download_tasks"} {
		var count int
		if err := db.Get(&count, "SELECT COUNT(*) FROM "+table); err != nil {
			t.Fatalf("Count %s failed: %v", table, err)
		}
		if count != 0 {
			t.Errorf("Expected %s to be empty after wipe, got %d rows", table, count)
		}
	}
}

func TestGetStats(t *testing.T) {
	db := setupTestDB(t)

	ot := &domain.BookMeta{ID: 1, Name: "Genesis", Testament: "OT"}
	nt := &domain.BookMeta{ID: 40, Name: "Matthew", Testament: "NT"}

	var genesis []domain.Verse
	for c := 1; c <= 2; c++ {
		for v := 1; v <= 3; v++ {
			genesis = append(genesis, makeVerse(1, c, v, fmt.Sprintf("genesis %d:%d", c, v)))
		}
	}
	if err := db.StoreVerses(genesis, ot); err != nil {
		t.Fatalf("StoreVerses failed: %v", err)
	}

	matthew := domain.Verse{BookID: 40, Chapter: 1, Verse: 1, Text: "matthew 1:1", BookName: "Matthew"}
	if err := db.StoreVerses([]domain.Verse{matthew}, nt); err != nil {
		t.Fatalf("StoreVerses failed: %v", err)
	}

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.Verses != 7 {
		t.Errorf("Expected 7 verses, got %d", stats.Verses)
	}
	if stats.Books != 2 {
		t.Errorf("Expected 2 books, got %d", stats.Books)
	}
	if stats.Chapters != 3 {
		t.Errorf("Expected 3 chapters, got %d", stats.Chapters)
	}
	if stats.SizeBytes <= 0 {
		t.Error("Expected positive size estimate")
	}
	if stats.ByTestament["OT"] != 6 || stats.ByTestament["NT"] != 1 {
		t.Errorf("Unexpected testament distribution: %v", stats.ByTestament)
	}
	if stats.ByBook["Genesis"] != 6 || stats.ByBook["Matthew"] != 1 {
		t.Errorf("Unexpected book distribution: %v", stats.ByBook)
	}
}

func TestRemoveBookContent(t *testing.T) {
	db := setupTestDB(t)

	meta := &domain.BookMeta{ID: 1, Name: "Genesis", Testament: "OT"}
	if err := db.StoreVerses([]domain.Verse{makeVerse(1, 1, 1, "text")}, meta); err != nil {
		t.Fatalf("StoreVerses failed: %v", err)
	}
	if err := db.UpsertContent(&domain.OfflineContent{ID: "c1", BookID: 1, Status: domain.TaskStatusCompleted, DownloadedAt: time.Now(), LastAccessedAt: time.Now()}); err != nil {
		t.Fatalf("UpsertContent failed: %v", err)
	}

	if err := db.RemoveBookContent(1); err != nil {
		t.Fatalf("RemoveBookContent failed: %v", err)
	}

	var verses, records int
	db.Get(&verses, "SELECT COUNT(*) FROM verses WHERE book_id = 1")
	db.Get(&records, "SELECT COUNT(*) FROM offline_content WHERE book_id = 1")
	if verses != 0 || records != 0 {
		t.Errorf("Expected book data gone, got %d verses and %d records", verses, records)
	}
}

func mustExec(t *testing.T, db *DB, query string, args ...interface{}) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
}
