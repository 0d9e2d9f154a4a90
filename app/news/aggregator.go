package news

import (
	"context"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Aggregator fans out to every registered source concurrently, tolerates
// individual source failures, deduplicates the union by normalized URL and
// returns the merged list sorted newest first.
type Aggregator struct {
	sources []Source
}

func NewAggregator(sources ...Source) *Aggregator {
	return &Aggregator{sources: sources}
}

func (a *Aggregator) SourceCount() int {
	return len(a.sources)
}

func (a *Aggregator) Run(ctx context.Context, opts FetchOptions) *AggregatedNews {
	startedAt := time.Now()

	type outcome struct {
		articles []Article
		err      error
	}

	// Collect into a slice indexed by registration order so the dedup
	// tie-break stays deterministic regardless of completion order.
	outcomes := make([]outcome, len(a.sources))
	done := make(chan int, len(a.sources))

	for i, src := range a.sources {
		go func(i int, src Source) {
			articles, err := src.Fetch(ctx, opts)
			outcomes[i] = outcome{articles: articles, err: err}
			done <- i
		}(i, src)
	}

	for range a.sources {
		<-done
	}

	var articles []Article
	sources := make([]string, 0, len(a.sources))

	for i, src := range a.sources {
		if outcomes[i].err != nil {
			slog.Error("Source fetch failed", "source", src.Name(), "error", outcomes[i].err)
			continue
		}
		sources = append(sources, src.Name())
		articles = append(articles, outcomes[i].articles...)
	}

	unique := deduplicate(articles)

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].PublishedAt.After(unique[j].PublishedAt)
	})

	slog.Info("Aggregation completed",
		"articles", len(unique),
		"sources", len(sources),
		"duration", time.Since(startedAt).String())

	return &AggregatedNews{
		Articles:  unique,
		Sources:   sources,
		FetchedAt: startedAt,
	}
}

// deduplicate keeps the first occurrence of each normalized URL.
func deduplicate(articles []Article) []Article {
	seen := make(map[string]struct{}, len(articles))
	unique := make([]Article, 0, len(articles))

	for _, article := range articles {
		key := NormalizeURL(article.URL)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, article)
	}

	return unique
}

// NormalizeURL reduces a URL to its lower-cased scheme+host+path with any
// trailing slash, query string and fragment dropped. This triple is the
// identity used for cross-source deduplication.
func NormalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return strings.ToLower(raw)
	}
	return strings.ToLower(u.Scheme + "://" + u.Host + strings.TrimSuffix(u.Path, "/"))
}

// IsValidArticleURL reports whether raw parses as an absolute URL with a
// host. Adapters drop records that fail this check before they ever reach
// the aggregator.
func IsValidArticleURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
