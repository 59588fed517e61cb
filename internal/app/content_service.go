package app

import (
	"context"

	"github.com/cesargomez89/versecache/internal/bible"
	"github.com/cesargomez89/versecache/internal/constants"
	"github.com/cesargomez89/versecache/internal/domain"
	"github.com/cesargomez89/versecache/internal/store"
)

// ContentService answers reads against the offline store, falling back to the
// upstream catalog for metadata that is not cached locally.
type ContentService struct {
	Repo    *store.DB
	Fetcher bible.Fetcher
}

func NewContentService(repo *store.DB, fetcher bible.Fetcher) *ContentService {
	return &ContentService{Repo: repo, Fetcher: fetcher}
}

func (s *ContentService) ListBooks(ctx context.Context) ([]domain.BookMeta, error) {
	return s.Fetcher.GetBooks(ctx)
}

func (s *ContentService) ListChapters(ctx context.Context, bookID int) ([]bible.ChapterInfo, error) {
	return s.Fetcher.GetChapters(ctx, bookID)
}

func (s *ContentService) ListContent() ([]domain.OfflineContent, error) {
	return s.Repo.ListContent()
}

func (s *ContentService) GetBookContent(bookID int) ([]domain.OfflineContent, error) {
	return s.Repo.GetContentByBook(bookID)
}

func (s *ContentService) RemoveBookContent(bookID int) error {
	return s.Repo.RemoveBookContent(bookID)
}

// GetVerses reads a chapter from the offline store. It never reaches for the
// network; missing content is an empty result, not an error.
func (s *ContentService) GetVerses(bookID, chapter int) ([]domain.Verse, error) {
	return s.Repo.GetVerses(bookID, chapter)
}

func (s *ContentService) SearchVerses(query string) ([]store.SearchResult, error) {
	return s.Repo.SearchVerses(query, constants.MaxSearchResults)
}

func (s *ContentService) GetStats() (*domain.StoreStats, error) {
	return s.Repo.GetStats()
}

// Cleanup evicts verses that are both old and rarely read. Zero arguments
// fall back to the defaults.
func (s *ContentService) Cleanup(maxAgeDays, maxAccessCount int) (int64, error) {
	if maxAgeDays <= 0 {
		maxAgeDays = constants.DefaultCleanupAgeDays
	}
	if maxAccessCount <= 0 {
		maxAccessCount = constants.DefaultCleanupAccess
	}
	return s.Repo.CleanupOldData(maxAgeDays, maxAccessCount)
}

func (s *ContentService) Wipe() error {
	return s.Repo.ClearAllData()
}
