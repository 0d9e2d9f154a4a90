package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/nwohater/lackeynews/app/news"
)

const (
	hackerNewsBaseURL      = "https://hacker-news.firebaseio.com/v0"
	defaultHackerNewsLimit = 30
	hackerNewsConcurrency  = 8
)

// HackerNews fetches the ranked top-story list and resolves item details
// with a second round of calls.
type HackerNews struct {
	client    *http.Client
	userAgent string
	baseURL   string
}

func NewHackerNews(client *http.Client, userAgent string) *HackerNews {
	return &HackerNews{
		client:    client,
		userAgent: userAgent,
		baseURL:   hackerNewsBaseURL,
	}
}

func (h *HackerNews) Name() string { return "Hacker News" }

type hackerNewsItem struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Text        string `json:"text"`
	By          string `json:"by"`
	Time        int64  `json:"time"`
	Score       int    `json:"score"`
	Descendants *int   `json:"descendants"`
	Type        string `json:"type"`
}

// Fetch over-fetches detail records for twice the limit of ranked IDs,
// since some turn out to be jobs, polls or stories without an external
// URL, then truncates after filtering. Ranked order is preserved.
func (h *HackerNews) Fetch(ctx context.Context, opts news.FetchOptions) ([]news.Article, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultHackerNewsLimit
	}

	var ids []int
	if err := getJSON(ctx, h.client, h.baseURL+"/topstories.json", h.userAgent, &ids); err != nil {
		return nil, fmt.Errorf("failed to fetch ranked story IDs: %w", err)
	}

	if len(ids) > limit*2 {
		ids = ids[:limit*2]
	}

	items := make([]*hackerNewsItem, len(ids))
	sem := make(chan struct{}, hackerNewsConcurrency)
	var wg sync.WaitGroup

	for i, id := range ids {
		wg.Add(1)
		go func(i, id int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			var item hackerNewsItem
			url := h.baseURL + "/item/" + strconv.Itoa(id) + ".json"
			if err := getJSON(ctx, h.client, url, h.userAgent, &item); err != nil {
				slog.Warn("Story detail fetch failed", "id", id, "error", err)
				return
			}
			items[i] = &item
		}(i, id)
	}

	wg.Wait()

	articles := make([]news.Article, 0, limit)
	for _, item := range items {
		if item == nil || item.Type != "story" || !news.IsValidArticleURL(item.URL) {
			continue
		}

		article := news.Article{
			ID:            "hn-" + strconv.Itoa(item.ID),
			Title:         item.Title,
			URL:           item.URL,
			Source:        news.SourceHackerNews,
			Author:        item.By,
			PublishedAt:   time.Unix(item.Time, 0),
			Topics:        []string{"technology", "programming"},
			Score:         news.IntPtr(item.Score),
			CommentsCount: item.Descendants,
		}

		if item.Text != "" {
			article.Description = news.Summarize(item.Text)
		}

		articles = append(articles, article)
		if len(articles) == limit {
			break
		}
	}

	return articles, nil
}
