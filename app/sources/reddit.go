package sources

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nwohater/lackeynews/app/news"
)

const (
	redditBaseURL      = "https://www.reddit.com"
	defaultRedditLimit = 25
)

// Reddit fetches hot listings from the subreddits mapped to the requested
// topics.
type Reddit struct {
	client    *http.Client
	registry  *Registry
	userAgent string
	baseURL   string
}

func NewReddit(client *http.Client, registry *Registry, userAgent string) *Reddit {
	return &Reddit{
		client:    client,
		registry:  registry,
		userAgent: userAgent,
		baseURL:   redditBaseURL,
	}
}

func (r *Reddit) Name() string { return "Reddit" }

type redditListing struct {
	Data struct {
		Children []redditPost `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Data struct {
		ID          string         `json:"id"`
		Title       string         `json:"title"`
		URL         string         `json:"url"`
		SelfText    string         `json:"selftext"`
		Author      string         `json:"author"`
		Subreddit   string         `json:"subreddit"`
		CreatedUTC  float64        `json:"created_utc"`
		Score       int            `json:"score"`
		NumComments int            `json:"num_comments"`
		Thumbnail   string         `json:"thumbnail"`
		Preview     *redditPreview `json:"preview"`
	} `json:"data"`
}

type redditPreview struct {
	Images []struct {
		Source struct {
			URL string `json:"url"`
		} `json:"source"`
	} `json:"images"`
}

// Fetch queries every selected subreddit in parallel for its share of the
// limit, merges the results and keeps the highest-scored posts.
func (r *Reddit) Fetch(ctx context.Context, opts news.FetchOptions) ([]news.Article, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultRedditLimit
	}

	subreddits := r.registry.SubredditsFor(opts.Topics)
	perSubreddit := (limit + len(subreddits) - 1) / len(subreddits)

	results := make([][]news.Article, len(subreddits))
	var wg sync.WaitGroup

	for i, subreddit := range subreddits {
		wg.Add(1)
		go func(i int, subreddit string) {
			defer wg.Done()

			articles, err := r.fetchSubreddit(ctx, subreddit, perSubreddit)
			if err != nil {
				slog.Warn("Subreddit fetch failed", "subreddit", subreddit, "error", err)
				return
			}
			results[i] = articles
		}(i, subreddit)
	}

	wg.Wait()

	var articles []news.Article
	for _, batch := range results {
		articles = append(articles, batch...)
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return *articles[i].Score > *articles[j].Score
	})

	if len(articles) > limit {
		articles = articles[:limit]
	}

	return articles, nil
}

func (r *Reddit) fetchSubreddit(ctx context.Context, subreddit string, limit int) ([]news.Article, error) {
	url := fmt.Sprintf("%s/r/%s/hot.json?limit=%d", r.baseURL, subreddit, limit)

	var listing redditListing
	if err := getJSON(ctx, r.client, url, r.userAgent, &listing); err != nil {
		return nil, err
	}

	articles := make([]news.Article, 0, len(listing.Data.Children))
	for _, post := range listing.Data.Children {
		data := post.Data

		// Skip link-backs into reddit itself, removed posts and records
		// without a usable external URL.
		if strings.Contains(data.URL, "reddit.com") {
			continue
		}
		if data.Title == "" || strings.Contains(data.Title, "[removed]") {
			continue
		}
		if !news.IsValidArticleURL(data.URL) {
			continue
		}

		article := news.Article{
			ID:            "reddit-" + data.ID,
			Title:         data.Title,
			URL:           data.URL,
			Source:        news.SourceReddit,
			Author:        data.Author,
			ImageURL:      extractRedditImage(data.Preview, data.Thumbnail),
			PublishedAt:   time.Unix(int64(data.CreatedUTC), 0),
			Topics:        []string{strings.ToLower(data.Subreddit)},
			Score:         news.IntPtr(data.Score),
			CommentsCount: news.IntPtr(data.NumComments),
		}

		if data.SelfText != "" {
			article.Description = news.Truncate(data.SelfText, news.MaxDescriptionLength)
		}

		articles = append(articles, article)
	}

	return articles, nil
}

// extractRedditImage prefers the structured preview image, whose URL comes
// HTML-entity encoded, and falls back to the thumbnail unless it is one of
// reddit's "no thumbnail" sentinels.
func extractRedditImage(preview *redditPreview, thumbnail string) string {
	if preview != nil && len(preview.Images) > 0 && preview.Images[0].Source.URL != "" {
		return html.UnescapeString(preview.Images[0].Source.URL)
	}
	if thumbnail != "" && thumbnail != "self" && thumbnail != "default" && strings.HasPrefix(thumbnail, "http") {
		return thumbnail
	}
	return ""
}
