package sources

import (
	"bytes"
	"context"
	"encoding/base64"
	"log/slog"
	"math/rand"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/nwohater/lackeynews/app/news"
)

const defaultRSSLimit = 50

// RSS fetches a rotating subset of the registry's RSS/Atom feeds, each
// bounded by a fixed per-feed timeout.
type RSS struct {
	client      *http.Client
	parser      *gofeed.Parser
	feeds       []Feed
	userAgent   string
	maxFeeds    int
	feedTimeout time.Duration
}

func NewRSS(client *http.Client, feeds []Feed, userAgent string, maxFeeds int, feedTimeout time.Duration) *RSS {
	if maxFeeds <= 0 {
		maxFeeds = 15
	}
	if feedTimeout <= 0 {
		feedTimeout = 5 * time.Second
	}
	return &RSS{
		client:      client,
		parser:      gofeed.NewParser(),
		feeds:       feeds,
		userAgent:   userAgent,
		maxFeeds:    maxFeeds,
		feedTimeout: feedTimeout,
	}
}

func (r *RSS) Name() string { return "RSS Feeds" }

func (r *RSS) Fetch(ctx context.Context, opts news.FetchOptions) ([]news.Article, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultRSSLimit
	}

	selected := r.selectFeeds(opts.Topics)
	if len(selected) == 0 {
		return nil, nil
	}

	results := make([][]news.Article, len(selected))
	done := make(chan int, len(selected))

	for i, feed := range selected {
		go func(i int, feed Feed) {
			results[i] = fetchWithTimeout(ctx, r.feedTimeout, func(ctx context.Context) []news.Article {
				return r.fetchFeed(ctx, feed)
			})
			done <- i
		}(i, feed)
	}

	for range selected {
		<-done
	}

	var articles []news.Article
	for _, batch := range results {
		articles = append(articles, batch...)
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})

	if len(articles) > limit {
		articles = articles[:limit]
	}

	return articles, nil
}

// selectFeeds narrows the registry to the feeds matching the requested
// topics and caps the result at maxFeeds. When more feeds match than the
// cap, a shuffled subset is taken so successive calls rotate through the
// registry instead of always favoring the same feeds.
func (r *RSS) selectFeeds(topics []string) []Feed {
	selected := feedsMatching(r.feeds, topics)
	if len(selected) == 0 {
		return nil
	}

	if len(selected) > r.maxFeeds {
		rand.Shuffle(len(selected), func(i, j int) {
			selected[i], selected[j] = selected[j], selected[i]
		})
		selected = selected[:r.maxFeeds]
	}

	return selected
}

// fetchFeed degrades to an empty result on any fetch or parse failure.
func (r *RSS) fetchFeed(ctx context.Context, feed Feed) []news.Article {
	data, err := fetchBytes(ctx, r.client, feed.URL, r.userAgent)
	if err != nil {
		slog.Warn("Feed fetch failed", "feed", feed.Name, "error", err)
		return nil
	}

	parsed, err := r.parser.Parse(bytes.NewReader(data))
	if err != nil {
		slog.Warn("Feed parse failed", "feed", feed.Name, "error", err)
		return nil
	}

	articles := make([]news.Article, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.Link == "" || !news.IsValidArticleURL(item.Link) {
			continue
		}

		publishedAt := time.Now()
		if item.PublishedParsed != nil {
			publishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			publishedAt = *item.UpdatedParsed
		}

		title := item.Title
		if title == "" {
			title = "Untitled"
		}

		articles = append(articles, news.Article{
			ID:          "rss-" + encodeFeedItemID(item.Link, item.Title, feed.Name),
			Title:       title,
			URL:         item.Link,
			Description: extractFeedDescription(item),
			Source:      news.SourceRSS,
			Author:      extractFeedAuthor(item, feed.Name),
			ImageURL:    extractFeedImage(item),
			PublishedAt: publishedAt,
			Topics:      append([]string(nil), feed.Topics...),
		})
	}

	return articles
}

// extractFeedImage prefers the structured media:content and
// media:thumbnail extensions, then the enclosure URL.
func extractFeedImage(item *gofeed.Item) string {
	if media, ok := item.Extensions["media"]; ok {
		for _, key := range []string{"content", "thumbnail"} {
			for _, ext := range media[key] {
				if url := ext.Attrs["url"]; url != "" {
					return url
				}
			}
		}
	}

	if len(item.Enclosures) > 0 && item.Enclosures[0] != nil {
		return item.Enclosures[0].URL
	}

	return ""
}

// extractFeedDescription takes the first non-empty of the item summary and
// its full content, stripped of markup and bounded.
func extractFeedDescription(item *gofeed.Item) string {
	if item.Description != "" {
		return news.Summarize(item.Description)
	}
	if item.Content != "" {
		return news.Summarize(item.Content)
	}
	return ""
}

// extractFeedAuthor falls back to the feed's own display name when the
// item carries no usable creator.
func extractFeedAuthor(item *gofeed.Item, feedName string) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	for _, author := range item.Authors {
		if author != nil && author.Name != "" {
			return author.Name
		}
	}
	return feedName
}

// encodeFeedItemID reduces link+title+feed name to a URL-safe token:
// base64 with non-alphanumeric characters stripped.
func encodeFeedItemID(link, title, feedName string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(link + "-" + title + "-" + feedName))
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, encoded)
}
