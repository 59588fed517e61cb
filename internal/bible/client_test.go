package bible

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cesargomez89/versecache/internal/domain"
)

func TestClient_GetBooks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/books" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<books>
			<book id="1" name="Genesis" testament="OT" chapters="50"/>
			<book id="40" name="Matthew" testament="NT" chapters="28"/>
		</books>`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	books, err := client.GetBooks(context.Background())
	if err != nil {
		t.Fatalf("GetBooks failed: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("Expected 2 books, got %d", len(books))
	}
	if books[0].Name != "Genesis" || books[0].Chapters != 50 || books[0].Testament != "OT" {
		t.Errorf("Unexpected first book: %+v", books[0])
	}
	if books[1].ID != 40 {
		t.Errorf("Expected book id 40, got %d", books[1].ID)
	}
}

func TestClient_GetVerses(t *testing.T) {
	var gotRange string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.URL.Query().Get("range")
		if gotRange == "" {
			// Upstream quirk: no range parameter yields an empty body
			return
		}
		w.Write([]byte(`<chapter book="1" name="Genesis" testament="OT" number="1">
			<verse number="1">In the beginning</verse>
			<verse number="2">And the earth was without form</verse>
		</chapter>`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	verses, meta, err := client.GetVerses(context.Background(), 1, 1, domain.DefaultRange)
	if err != nil {
		t.Fatalf("GetVerses failed: %v", err)
	}
	if gotRange != "1-200" {
		t.Errorf("Expected default range 1-200 to be sent, got %q", gotRange)
	}
	if len(verses) != 2 {
		t.Fatalf("Expected 2 verses, got %d", len(verses))
	}
	if verses[0].Text != "In the beginning" || verses[0].Verse != 1 {
		t.Errorf("Unexpected first verse: %+v", verses[0])
	}
	if verses[1].Chapter != 1 || verses[1].BookID != 1 {
		t.Errorf("Expected verse addressed to 1:1, got %d:%d", verses[1].BookID, verses[1].Chapter)
	}
	if meta == nil || meta.Name != "Genesis" || meta.Testament != "OT" {
		t.Errorf("Unexpected book meta: %+v", meta)
	}

	// Invalid range is rejected client-side
	if _, _, err := client.GetVerses(context.Background(), 1, 1, domain.VerseRange{Start: 5, End: 2}); err == nil {
		t.Error("Expected error for inverted range")
	}
}

func TestClient_GetVerses_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Simulates the missing-range upstream behaviour
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, _, err := client.GetVerses(context.Background(), 1, 1, domain.DefaultRange)
	if err == nil {
		t.Fatal("Expected error for empty body")
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("Expected *ParseError, got %T: %v", err, err)
	}
}

func TestClient_GetVerses_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<chapter><verse`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, _, err := client.GetVerses(context.Background(), 1, 1, domain.DefaultRange)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("Expected *ParseError for malformed xml, got %T: %v", err, err)
	}
}

func TestClient_StripsBOM(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{0xEF, 0xBB, 0xBF})
		w.Write([]byte(`<chapter book="1" name="Genesis" testament="OT" number="1"><verse number="1">text</verse></chapter>`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	verses, _, err := client.GetVerses(context.Background(), 1, 1, domain.DefaultRange)
	if err != nil {
		t.Fatalf("GetVerses with BOM failed: %v", err)
	}
	if len(verses) != 1 {
		t.Errorf("Expected 1 verse, got %d", len(verses))
	}
}

func TestClient_GetChapters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("book") != "1" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<chapters book="1">
			<chapter number="1" verses="31"/>
			<chapter number="2" verses="25"/>
		</chapters>`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	chapters, err := client.GetChapters(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetChapters failed: %v", err)
	}
	if len(chapters) != 2 {
		t.Fatalf("Expected 2 chapters, got %d", len(chapters))
	}
	if chapters[0].Number != 1 || chapters[0].Verses != 31 {
		t.Errorf("Unexpected first chapter: %+v", chapters[0])
	}
}

func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "beginning" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<results>
			<verse book="1" name="Genesis" testament="OT" chapter="1" number="1">In the beginning</verse>
		</results>`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	verses, err := client.Search(context.Background(), "beginning")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(verses) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(verses))
	}
	if verses[0].BookName != "Genesis" || verses[0].Verse != 1 {
		t.Errorf("Unexpected search result: %+v", verses[0])
	}
}
