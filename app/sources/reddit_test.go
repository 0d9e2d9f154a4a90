package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/nwohater/lackeynews/app/news"
)

type subredditRequest struct {
	subreddit string
	limit     string
}

// newRedditServer serves canned listings per subreddit and records every
// request it sees.
func newRedditServer(t *testing.T, listings map[string]string) (*httptest.Server, *[]subredditRequest, *sync.Mutex) {
	t.Helper()

	var mu sync.Mutex
	var requests []subredditRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 3 || parts[0] != "r" || parts[2] != "hot.json" {
			http.NotFound(w, r)
			return
		}
		subreddit := parts[1]

		mu.Lock()
		requests = append(requests, subredditRequest{subreddit: subreddit, limit: r.URL.Query().Get("limit")})
		mu.Unlock()

		listing, ok := listings[subreddit]
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(listing))
	}))
	t.Cleanup(server.Close)

	return server, &requests, &mu
}

func redditListingJSON(posts ...string) string {
	return fmt.Sprintf(`{"data": {"children": [%s]}}`, strings.Join(posts, ","))
}

func redditPostJSON(id, title, url string, score int) string {
	return fmt.Sprintf(`{"data": {"id": %q, "title": %q, "url": %q, "author": "someone", "subreddit": "Technology", "created_utc": 1756000000, "score": %d, "num_comments": 3}}`, id, title, url, score)
}

func newTestReddit(server *httptest.Server, registry *Registry) *Reddit {
	r := NewReddit(server.Client(), registry, "TestAgent/1.0")
	r.baseURL = server.URL
	return r
}

func TestRedditTopicFanOut(t *testing.T) {
	registry := &Registry{
		Subreddits: map[string][]string{
			"technology": {"t1", "t2"},
			"sports":     {"s1"},
		},
		DefaultSubreddits: []string{"technology", "worldnews", "programming"},
	}

	listings := map[string]string{
		"t1": redditListingJSON(redditPostJSON("a", "Post A", "https://example.com/a", 10)),
		"t2": redditListingJSON(redditPostJSON("b", "Post B", "https://example.com/b", 30)),
		"s1": redditListingJSON(redditPostJSON("c", "Post C", "https://example.com/c", 20)),
	}
	server, requests, mu := newRedditServer(t, listings)

	reddit := newTestReddit(server, registry)
	articles, err := reddit.Fetch(context.Background(), news.FetchOptions{Limit: 9, Topics: []string{"technology", "sports"}})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()

	if len(*requests) != 3 {
		t.Fatalf("Expected exactly 3 subreddit requests, got: %d", len(*requests))
	}

	queried := make([]string, 0, 3)
	for _, req := range *requests {
		queried = append(queried, req.subreddit)
		// ceil(9/3) items from each community
		if req.limit != "3" {
			t.Errorf("Expected limit=3 for r/%s, got: %s", req.subreddit, req.limit)
		}
	}
	sort.Strings(queried)
	if strings.Join(queried, ",") != "s1,t1,t2" {
		t.Errorf("Expected subreddits s1,t1,t2, got: %s", strings.Join(queried, ","))
	}

	// Merged results are sorted by score descending.
	if len(articles) != 3 {
		t.Fatalf("Expected 3 articles, got: %d", len(articles))
	}
	if articles[0].ID != "reddit-b" || articles[1].ID != "reddit-c" || articles[2].ID != "reddit-a" {
		t.Errorf("Expected score-descending order b,c,a, got: %s,%s,%s", articles[0].ID, articles[1].ID, articles[2].ID)
	}
}

func TestRedditDefaultSubredditsWhenNoTopicsMatch(t *testing.T) {
	registry := &Registry{
		Subreddits:        map[string][]string{"technology": {"t1"}},
		DefaultSubreddits: []string{"d1", "d2"},
	}

	listings := map[string]string{
		"d1": redditListingJSON(),
		"d2": redditListingJSON(),
	}
	server, requests, mu := newRedditServer(t, listings)

	reddit := newTestReddit(server, registry)
	if _, err := reddit.Fetch(context.Background(), news.FetchOptions{Topics: []string{"cooking"}}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(*requests) != 2 {
		t.Errorf("Expected the 2 default subreddits to be queried, got %d requests", len(*requests))
	}
}

func TestRedditFiltering(t *testing.T) {
	listing := redditListingJSON(
		redditPostJSON("keep", "Good post", "https://example.com/good", 5),
		redditPostJSON("self", "Self post", "https://www.reddit.com/r/technology/comments/abc", 90),
		redditPostJSON("gone", "[removed]", "https://example.com/removed", 80),
		redditPostJSON("bad", "Relative URL", "/not-absolute", 70),
	)
	registry := &Registry{
		Subreddits:        map[string][]string{"technology": {"technology"}},
		DefaultSubreddits: []string{"technology"},
	}
	server, _, _ := newRedditServer(t, map[string]string{"technology": listing})

	reddit := newTestReddit(server, registry)
	articles, err := reddit.Fetch(context.Background(), news.FetchOptions{Topics: []string{"technology"}})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(articles) != 1 {
		t.Fatalf("Expected 1 article after filtering, got: %d", len(articles))
	}
	if articles[0].ID != "reddit-keep" {
		t.Errorf("Expected reddit-keep to survive, got: %s", articles[0].ID)
	}
	if articles[0].Topics[0] != "technology" {
		t.Errorf("Expected lower-cased subreddit topic, got: %v", articles[0].Topics)
	}
	if articles[0].Score == nil || *articles[0].Score != 5 {
		t.Errorf("Expected score 5, got: %v", articles[0].Score)
	}
}

func TestRedditImageExtraction(t *testing.T) {
	listing := `{"data": {"children": [
		{"data": {"id": "p1", "title": "With preview", "url": "https://example.com/1", "author": "a", "subreddit": "tech", "created_utc": 1756000000, "score": 1, "num_comments": 0,
			"preview": {"images": [{"source": {"url": "https://preview.example.com/img.jpg?width=640&amp;crop=smart"}}]}}},
		{"data": {"id": "p2", "title": "With thumbnail", "url": "https://example.com/2", "author": "a", "subreddit": "tech", "created_utc": 1756000000, "score": 1, "num_comments": 0,
			"thumbnail": "https://thumbs.example.com/t.jpg"}},
		{"data": {"id": "p3", "title": "Self thumbnail", "url": "https://example.com/3", "author": "a", "subreddit": "tech", "created_utc": 1756000000, "score": 1, "num_comments": 0,
			"thumbnail": "self"}}
	]}}`
	registry := &Registry{
		Subreddits:        map[string][]string{"technology": {"technology"}},
		DefaultSubreddits: []string{"technology"},
	}
	server, _, _ := newRedditServer(t, map[string]string{"technology": listing})

	reddit := newTestReddit(server, registry)
	articles, err := reddit.Fetch(context.Background(), news.FetchOptions{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(articles) != 3 {
		t.Fatalf("Expected 3 articles, got: %d", len(articles))
	}

	byID := make(map[string]news.Article)
	for _, a := range articles {
		byID[a.ID] = a
	}

	// Preview URLs arrive HTML-entity encoded and must be decoded.
	if got := byID["reddit-p1"].ImageURL; got != "https://preview.example.com/img.jpg?width=640&crop=smart" {
		t.Errorf("Expected decoded preview URL, got: %q", got)
	}
	if got := byID["reddit-p2"].ImageURL; got != "https://thumbs.example.com/t.jpg" {
		t.Errorf("Expected thumbnail fallback, got: %q", got)
	}
	if got := byID["reddit-p3"].ImageURL; got != "" {
		t.Errorf("Expected no image for sentinel thumbnail, got: %q", got)
	}
}

func TestRedditSubredditFailureIsolation(t *testing.T) {
	registry := &Registry{
		Subreddits:        map[string][]string{"technology": {"good", "broken"}},
		DefaultSubreddits: []string{"good"},
	}
	// "broken" is absent from the listing map, so the server responds 500.
	server, _, _ := newRedditServer(t, map[string]string{
		"good": redditListingJSON(redditPostJSON("ok", "Still here", "https://example.com/ok", 1)),
	})

	reddit := newTestReddit(server, registry)
	articles, err := reddit.Fetch(context.Background(), news.FetchOptions{Topics: []string{"technology"}})
	if err != nil {
		t.Fatalf("Expected no error despite a failing subreddit, got: %v", err)
	}
	if len(articles) != 1 || articles[0].ID != "reddit-ok" {
		t.Errorf("Expected the healthy subreddit's article, got: %v", articles)
	}
}
