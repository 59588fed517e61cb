package bible

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cesargomez89/versecache/internal/domain"
)

// CachedClient decorates a Fetcher with a short-lived read-through cache
// keyed by request shape. A hit returns with no network I/O.
type CachedClient struct {
	fetcher  Fetcher
	cache    Cache
	cacheTTL time.Duration
}

func NewCachedClient(fetcher Fetcher, cache Cache, cacheTTL time.Duration) *CachedClient {
	return &CachedClient{
		fetcher:  fetcher,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

func (c *CachedClient) GetBooks(ctx context.Context) ([]domain.BookMeta, error) {
	cacheKey := "books"

	data, err := c.cache.GetCache(cacheKey)
	if err != nil {
		return nil, err
	}
	if data != nil {
		var books []domain.BookMeta
		if err := json.Unmarshal(data, &books); err == nil {
			return books, nil
		}
	}

	books, err := c.fetcher.GetBooks(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(books); err == nil {
		c.cache.SetCache(cacheKey, data, c.cacheTTL)
	}

	return books, nil
}

func (c *CachedClient) GetChapters(ctx context.Context, bookID int) ([]ChapterInfo, error) {
	cacheKey := fmt.Sprintf("chapters:%d", bookID)

	data, err := c.cache.GetCache(cacheKey)
	if err != nil {
		return nil, err
	}
	if data != nil {
		var chapters []ChapterInfo
		if err := json.Unmarshal(data, &chapters); err == nil {
			return chapters, nil
		}
	}

	chapters, err := c.fetcher.GetChapters(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(chapters); err == nil {
		c.cache.SetCache(cacheKey, data, c.cacheTTL)
	}

	return chapters, nil
}

type cachedChapter struct {
	Meta   *domain.BookMeta `json:"meta"`
	Verses []domain.Verse   `json:"verses"`
}

func (c *CachedClient) GetVerses(ctx context.Context, bookID, chapter int, rng domain.VerseRange) ([]domain.Verse, *domain.BookMeta, error) {
	cacheKey := fmt.Sprintf("verses:%d:%d:%s", bookID, chapter, rng)

	data, err := c.cache.GetCache(cacheKey)
	if err != nil {
		return nil, nil, err
	}
	if data != nil {
		var cached cachedChapter
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached.Verses, cached.Meta, nil
		}
	}

	verses, meta, err := c.fetcher.GetVerses(ctx, bookID, chapter, rng)
	if err != nil {
		return nil, nil, err
	}

	if data, err := json.Marshal(cachedChapter{Meta: meta, Verses: verses}); err == nil {
		c.cache.SetCache(cacheKey, data, c.cacheTTL)
	}

	return verses, meta, nil
}

func (c *CachedClient) Search(ctx context.Context, query string) ([]domain.Verse, error) {
	cacheKey := fmt.Sprintf("search:%s", query)

	data, err := c.cache.GetCache(cacheKey)
	if err != nil {
		return nil, err
	}
	if data != nil {
		var verses []domain.Verse
		if err := json.Unmarshal(data, &verses); err == nil {
			return verses, nil
		}
	}

	verses, err := c.fetcher.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(verses); err == nil {
		c.cache.SetCache(cacheKey, data, c.cacheTTL)
	}

	return verses, nil
}

func (c *CachedClient) ClearCache() error {
	return c.cache.ClearCache()
}
