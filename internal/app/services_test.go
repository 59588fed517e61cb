package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/cesargomez89/versecache/internal/bible"
	"github.com/cesargomez89/versecache/internal/domain"
	"github.com/cesargomez89/versecache/internal/events"
	"github.com/cesargomez89/versecache/internal/queue"
	"github.com/cesargomez89/versecache/internal/store"
)

type stubFetcher struct {
	bible.Fetcher
	books []domain.BookMeta
}

func (f *stubFetcher) GetBooks(ctx context.Context) ([]domain.BookMeta, error) {
	return f.books, nil
}

type closedGate struct{}

func (closedGate) SuitableForDownloads() bool { return false }

func setupServices(t *testing.T) (*TaskService, *ContentService, *store.DB) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := store.NewSQLiteDB(dbPath)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	fetcher := &stubFetcher{books: []domain.BookMeta{{ID: 1, Name: "Genesis", Testament: "old", Chapters: 50}}}
	manager := queue.NewManager(db, fetcher, closedGate{}, events.NewHub(), nil)

	return NewTaskService(db, manager), NewContentService(db, fetcher), db
}

func TestEnqueueHelpersSetKind(t *testing.T) {
	tasks, _, _ := setupServices(t)

	book, err := tasks.EnqueueBook(1, "Genesis", false)
	if err != nil {
		t.Fatalf("EnqueueBook failed: %v", err)
	}
	if book.Kind != domain.TaskKindBook {
		t.Errorf("kind = %q, want book", book.Kind)
	}

	chapter, err := tasks.EnqueueChapter(2, "Exodus", 3, true)
	if err != nil {
		t.Fatalf("EnqueueChapter failed: %v", err)
	}
	if chapter.Kind != domain.TaskKindChapter || chapter.Chapter != 3 {
		t.Errorf("chapter task = %+v", chapter)
	}
	if !chapter.Background {
		t.Error("background flag lost")
	}

	ranged, err := tasks.EnqueueVerseRange(3, "Leviticus", 1, domain.VerseRange{Start: 1, End: 10}, false)
	if err != nil {
		t.Fatalf("EnqueueVerseRange failed: %v", err)
	}
	if ranged.VerseStart != 1 || ranged.VerseEnd != 10 {
		t.Errorf("range = %d-%d, want 1-10", ranged.VerseStart, ranged.VerseEnd)
	}

	listed, err := tasks.ListTasks()
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(listed) != 3 {
		t.Errorf("listed %d tasks, want 3", len(listed))
	}
}

func TestEnqueueDuplicateSurfaces(t *testing.T) {
	tasks, _, _ := setupServices(t)

	if _, err := tasks.EnqueueChapter(1, "Genesis", 1, false); err != nil {
		t.Fatalf("first enqueue failed: %v", err)
	}
	_, err := tasks.EnqueueChapter(1, "Genesis", 1, false)
	if !errors.Is(err, queue.ErrDuplicateTask) {
		t.Fatalf("expected ErrDuplicateTask, got %v", err)
	}
}

func TestListBooksUsesFetcher(t *testing.T) {
	_, content, _ := setupServices(t)

	books, err := content.ListBooks(context.Background())
	if err != nil {
		t.Fatalf("ListBooks failed: %v", err)
	}
	if len(books) != 1 || books[0].Name != "Genesis" {
		t.Errorf("books = %+v", books)
	}
}

func TestCleanupDefaults(t *testing.T) {
	_, content, db := setupServices(t)

	old := time.Now().Add(-90 * 24 * time.Hour)
	_, err := db.Exec(`
		INSERT INTO verses (book_id, chapter, verse, text, testament, book_name, downloaded_at, last_accessed_at, access_count)
		VALUES (1, 1, 1, 'old verse', 'old', 'Genesis', ?, ?, 0)
	`, old, old)
	if err != nil {
		t.Fatalf("failed to seed verse: %v", err)
	}

	removed, err := content.Cleanup(0, 0)
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
}

func TestWipeClearsEverything(t *testing.T) {
	tasks, content, db := setupServices(t)

	if _, err := tasks.EnqueueChapter(1, "Genesis", 1, false); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if err := content.Wipe(); err != nil {
		t.Fatalf("Wipe failed: %v", err)
	}

	listed, err := db.ListTasks()
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("tasks remain after wipe: %d", len(listed))
	}
}
