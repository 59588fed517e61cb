package bible

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cesargomez89/versecache/internal/constants"
	"github.com/cesargomez89/versecache/internal/domain"
	"github.com/cesargomez89/versecache/internal/httpclient"
)

// Fetcher is the contract the rest of the engine sees: structured text for a
// (book, chapter) key, nothing about storage.
type Fetcher interface {
	GetBooks(ctx context.Context) ([]domain.BookMeta, error)
	GetChapters(ctx context.Context, bookID int) ([]ChapterInfo, error)
	GetVerses(ctx context.Context, bookID, chapter int, rng domain.VerseRange) ([]domain.Verse, *domain.BookMeta, error)
	Search(ctx context.Context, query string) ([]domain.Verse, error)
}

// ChapterInfo describes one chapter of a book as reported by the upstream.
type ChapterInfo struct {
	Number int `json:"number"`
	Verses int `json:"verses"`
}

type Client struct {
	BaseURL string
	http    *httpclient.Client
}

func NewClient(baseURL string) *Client {
	inner := &http.Client{Timeout: constants.DefaultHTTPTimeout}
	return &Client{
		BaseURL: baseURL,
		http:    httpclient.NewClient(inner, constants.MinRequestInterval),
	}
}

func (c *Client) GetBooks(ctx context.Context) ([]domain.BookMeta, error) {
	body, err := c.get(ctx, c.BaseURL+"/books")
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}

	var resp booksResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, &ParseError{URL: c.BaseURL + "/books", Err: err}
	}

	books := make([]domain.BookMeta, 0, len(resp.Books))
	for _, b := range resp.Books {
		books = append(books, domain.BookMeta{
			ID:        b.ID,
			Name:      b.Name,
			Testament: b.Testament,
			Chapters:  b.Chapters,
		})
	}
	return books, nil
}

func (c *Client) GetChapters(ctx context.Context, bookID int) ([]ChapterInfo, error) {
	u := fmt.Sprintf("%s/chapters?book=%d", c.BaseURL, bookID)
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}

	var resp chaptersResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, &ParseError{URL: u, Err: err}
	}

	chapters := make([]ChapterInfo, 0, len(resp.Chapters))
	for _, ch := range resp.Chapters {
		chapters = append(chapters, ChapterInfo{Number: ch.Number, Verses: ch.Verses})
	}
	return chapters, nil
}

// GetVerses fetches one chapter. A verse range is always sent: the upstream
// returns an empty body when the range parameter is missing, so an empty
// body here means a request-building bug, not missing content.
func (c *Client) GetVerses(ctx context.Context, bookID, chapter int, rng domain.VerseRange) ([]domain.Verse, *domain.BookMeta, error) {
	if err := rng.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid verse range: %w", err)
	}

	u := fmt.Sprintf("%s/verses?book=%d&chapter=%d&range=%s", c.BaseURL, bookID, chapter, rng)
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	if len(body) == 0 {
		return nil, nil, &ParseError{URL: u, Err: fmt.Errorf("empty response body")}
	}

	var resp chapterResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, nil, &ParseError{URL: u, Err: err}
	}

	meta := &domain.BookMeta{
		ID:        resp.Book,
		Name:      resp.Name,
		Testament: resp.Testament,
	}

	now := time.Now()
	verses := make([]domain.Verse, 0, len(resp.Verses))
	for _, v := range resp.Verses {
		verses = append(verses, domain.Verse{
			BookID:       resp.Book,
			BookName:     resp.Name,
			Testament:    resp.Testament,
			Chapter:      resp.Number,
			Verse:        v.Number,
			Text:         v.Text,
			DownloadedAt: now,
		})
	}
	return verses, meta, nil
}

func (c *Client) Search(ctx context.Context, query string) ([]domain.Verse, error) {
	u := fmt.Sprintf("%s/search?q=%s", c.BaseURL, url.QueryEscape(query))
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}

	var resp searchResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, &ParseError{URL: u, Err: err}
	}

	verses := make([]domain.Verse, 0, len(resp.Verses))
	for _, v := range resp.Verses {
		verses = append(verses, domain.Verse{
			BookID:    v.Book,
			BookName:  v.Name,
			Testament: v.Testament,
			Chapter:   v.Chapter,
			Verse:     v.Number,
			Text:      v.Text,
		})
	}
	return verses, nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, u)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return stripBOM(body), nil
}

// stripBOM removes a UTF-8 byte-order mark some upstream mirrors prepend.
func stripBOM(body []byte) []byte {
	return bytes.TrimSpace(bytes.TrimPrefix(body, []byte{0xEF, 0xBB, 0xBF}))
}
