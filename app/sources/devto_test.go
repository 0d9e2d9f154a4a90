package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nwohater/lackeynews/app/news"
)

const devtoListingJSON = `[
	{
		"id": 101,
		"title": "Understanding Goroutines",
		"url": "https://dev.to/alice/understanding-goroutines",
		"description": "A walkthrough of the scheduler",
		"published_at": "2026-08-30T10:00:00Z",
		"tag_list": ["Go", "Concurrency"],
		"user": {"name": "Alice Smith", "username": "alice"},
		"cover_image": "https://dev.to/covers/101.png",
		"positive_reactions_count": 42,
		"comments_count": 5
	},
	{
		"id": 102,
		"title": "No name set",
		"url": "https://dev.to/bob/no-name-set",
		"description": "",
		"published_at": "not-a-timestamp",
		"tag_list": [],
		"user": {"name": "", "username": "bob"},
		"positive_reactions_count": 1,
		"comments_count": 0
	},
	{
		"id": 103,
		"title": "Broken link",
		"url": "not a url",
		"published_at": "2026-08-29T10:00:00Z",
		"user": {"username": "carol"}
	}
]`

func newTestDevTo(server *httptest.Server) *DevTo {
	d := NewDevTo(server.Client(), "TestAgent/1.0")
	d.baseURL = server.URL
	return d
}

func TestDevToFieldMapping(t *testing.T) {
	var requestedQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedQuery = r.URL.RawQuery
		w.Write([]byte(devtoListingJSON))
	}))
	defer server.Close()

	d := newTestDevTo(server)
	articles, err := d.Fetch(context.Background(), news.FetchOptions{Limit: 10})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if requestedQuery != "per_page=10&top=7" {
		t.Errorf("Expected per_page=10&top=7 query, got: %q", requestedQuery)
	}

	// The entry without a parseable URL is dropped.
	if len(articles) != 2 {
		t.Fatalf("Expected 2 articles, got: %d", len(articles))
	}

	first := articles[0]
	if first.ID != "devto-101" {
		t.Errorf("Expected devto-101, got: %s", first.ID)
	}
	if first.Source != news.SourceDevTo {
		t.Errorf("Expected source %s, got: %s", news.SourceDevTo, first.Source)
	}
	if first.Author != "Alice Smith" {
		t.Errorf("Expected author Alice Smith, got: %s", first.Author)
	}
	if first.ImageURL != "https://dev.to/covers/101.png" {
		t.Errorf("Expected cover image URL, got: %s", first.ImageURL)
	}
	expectedTime := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	if !first.PublishedAt.Equal(expectedTime) {
		t.Errorf("Expected published at %v, got: %v", expectedTime, first.PublishedAt)
	}
	if len(first.Topics) != 2 || first.Topics[0] != "go" || first.Topics[1] != "concurrency" {
		t.Errorf("Expected lowercased topics [go concurrency], got: %v", first.Topics)
	}
	if first.Score == nil || *first.Score != 42 {
		t.Errorf("Expected score 42, got: %v", first.Score)
	}
	if first.CommentsCount == nil || *first.CommentsCount != 5 {
		t.Errorf("Expected 5 comments, got: %v", first.CommentsCount)
	}
}

func TestDevToAuthorFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(devtoListingJSON))
	}))
	defer server.Close()

	d := newTestDevTo(server)
	articles, err := d.Fetch(context.Background(), news.FetchOptions{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("Expected 2 articles, got: %d", len(articles))
	}

	// No display name set, the username stands in.
	if articles[1].Author != "bob" {
		t.Errorf("Expected username fallback bob, got: %s", articles[1].Author)
	}
	// An unparseable timestamp falls back to the current time.
	if time.Since(articles[1].PublishedAt) > time.Minute {
		t.Errorf("Expected recent fallback timestamp, got: %v", articles[1].PublishedAt)
	}
}

func TestDevToListingFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	d := newTestDevTo(server)
	if _, err := d.Fetch(context.Background(), news.FetchOptions{}); err == nil {
		t.Error("Expected error when the listing call fails")
	}
}
