package sources

import (
	"cmp"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nwohater/lackeynews/app/news"
)

const (
	devtoBaseURL      = "https://dev.to/api"
	defaultDevToLimit = 30
)

// DevTo fetches the top articles of the last week from the Dev.to listing
// API in a single paginated call.
type DevTo struct {
	client    *http.Client
	userAgent string
	baseURL   string
}

func NewDevTo(client *http.Client, userAgent string) *DevTo {
	return &DevTo{
		client:    client,
		userAgent: userAgent,
		baseURL:   devtoBaseURL,
	}
}

func (d *DevTo) Name() string { return "Dev.to" }

type devtoArticle struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	PublishedAt string   `json:"published_at"`
	TagList     []string `json:"tag_list"`
	User        struct {
		Name     string `json:"name"`
		Username string `json:"username"`
	} `json:"user"`
	CoverImage             string `json:"cover_image"`
	PositiveReactionsCount int    `json:"positive_reactions_count"`
	CommentsCount          int    `json:"comments_count"`
}

func (d *DevTo) Fetch(ctx context.Context, opts news.FetchOptions) ([]news.Article, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultDevToLimit
	}

	url := fmt.Sprintf("%s/articles?per_page=%d&top=7", d.baseURL, limit)

	var payload []devtoArticle
	if err := getJSON(ctx, d.client, url, d.userAgent, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch articles: %w", err)
	}

	articles := make([]news.Article, 0, len(payload))
	for _, entry := range payload {
		if !news.IsValidArticleURL(entry.URL) {
			continue
		}

		publishedAt, err := time.Parse(time.RFC3339, entry.PublishedAt)
		if err != nil {
			publishedAt = time.Now()
		}

		topics := make([]string, 0, len(entry.TagList))
		for _, tag := range entry.TagList {
			topics = append(topics, strings.ToLower(tag))
		}

		articles = append(articles, news.Article{
			ID:            "devto-" + strconv.Itoa(entry.ID),
			Title:         entry.Title,
			URL:           entry.URL,
			Description:   news.Truncate(entry.Description, news.MaxDescriptionLength),
			Source:        news.SourceDevTo,
			Author:        cmp.Or(entry.User.Name, entry.User.Username),
			ImageURL:      entry.CoverImage,
			PublishedAt:   publishedAt,
			Topics:        topics,
			Score:         news.IntPtr(entry.PositiveReactionsCount),
			CommentsCount: news.IntPtr(entry.CommentsCount),
		})
	}

	return articles, nil
}
