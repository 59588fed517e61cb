package dto

import (
	"time"

	"github.com/cesargomez89/versecache/internal/domain"
	"github.com/cesargomez89/versecache/internal/store"
)

type ContentResponse struct {
	ID             string `json:"id"`
	BookName       string `json:"book_name"`
	Testament      string `json:"testament,omitempty"`
	Status         string `json:"status"`
	DownloadedAt   string `json:"downloaded_at"`
	Chapter        *int   `json:"chapter,omitempty"`
	BookID         int    `json:"book_id"`
	VersesLoaded   int    `json:"verses_loaded"`
	VersesExpected int    `json:"verses_expected"`
	SizeBytes      int64  `json:"size_bytes"`
	Complete       bool   `json:"complete"`
}

func NewContentResponse(c *domain.OfflineContent) ContentResponse {
	return ContentResponse{
		ID:             c.ID,
		BookID:         c.BookID,
		BookName:       c.BookName,
		Testament:      c.Testament,
		Chapter:        c.Chapter,
		VersesLoaded:   c.VersesLoaded,
		VersesExpected: c.VersesExpected,
		Complete:       c.Complete,
		SizeBytes:      c.SizeBytes,
		Status:         string(c.Status),
		DownloadedAt:   c.DownloadedAt.Format(time.RFC3339),
	}
}

func NewContentListResponse(records []domain.OfflineContent) []ContentResponse {
	out := make([]ContentResponse, len(records))
	for i := range records {
		out[i] = NewContentResponse(&records[i])
	}
	return out
}

type VerseResponse struct {
	BookName string `json:"book_name"`
	Text     string `json:"text"`
	BookID   int    `json:"book_id"`
	Chapter  int    `json:"chapter"`
	Verse    int    `json:"verse"`
}

func NewVerseListResponse(verses []domain.Verse) []VerseResponse {
	out := make([]VerseResponse, len(verses))
	for i, v := range verses {
		out[i] = VerseResponse{
			BookID:   v.BookID,
			BookName: v.BookName,
			Chapter:  v.Chapter,
			Verse:    v.Verse,
			Text:     v.Text,
		}
	}
	return out
}

type SearchResultResponse struct {
	VerseResponse
	Score float64 `json:"score"`
}

func NewSearchListResponse(results []store.SearchResult) []SearchResultResponse {
	out := make([]SearchResultResponse, len(results))
	for i, r := range results {
		v := r.Verse
		out[i] = SearchResultResponse{
			VerseResponse: VerseResponse{
				BookID:   v.BookID,
				BookName: v.BookName,
				Chapter:  v.Chapter,
				Verse:    v.Verse,
				Text:     v.Text,
			},
			Score: r.Score,
		}
	}
	return out
}

type CleanupRequest struct {
	MaxAgeDays     int `json:"max_age_days,omitempty"`
	MaxAccessCount int `json:"max_access_count,omitempty"`
}

type CleanupResponse struct {
	Removed int64 `json:"removed"`
}

type SyncReportResponse struct {
	Result     string `json:"result"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
	Refreshed  int    `json:"refreshed"`
	Failed     int    `json:"failed"`
}

func NewSyncReportResponse(r domain.SyncReport) SyncReportResponse {
	return SyncReportResponse{
		Result:     string(r.Result),
		StartedAt:  r.StartedAt.Format(time.RFC3339),
		FinishedAt: r.FinishedAt.Format(time.RFC3339),
		Refreshed:  r.Refreshed,
		Failed:     r.Failed,
	}
}

type ConnectionResponse struct {
	Quality     string `json:"quality"`
	LastProbeAt string `json:"last_probe_at,omitempty"`
	ConsecFails int    `json:"consecutive_failures"`
	Online      bool   `json:"online"`
	Suitable    bool   `json:"suitable_for_downloads"`
}

func NewConnectionResponse(info domain.ConnectionInfo) ConnectionResponse {
	resp := ConnectionResponse{
		Online:      info.Online,
		Quality:     string(info.Quality),
		ConsecFails: info.ConsecFails,
		Suitable:    info.SuitableForDownloads(),
	}
	if !info.LastProbeAt.IsZero() {
		resp.LastProbeAt = info.LastProbeAt.Format(time.RFC3339)
	}
	return resp
}
