package news

import (
	"context"
	"time"
)

// Source tags, one per upstream family.
const (
	SourceReddit     = "reddit"
	SourceHackerNews = "hackernews"
	SourceDevTo      = "devto"
	SourceRSS        = "rss"
)

// Article is the unified shape every upstream record is normalized into.
// Once built by an adapter an Article is never mutated.
type Article struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	Description   string    `json:"description,omitempty"`
	Source        string    `json:"source"`
	Author        string    `json:"author,omitempty"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	PublishedAt   time.Time `json:"publishedAt"`
	Topics        []string  `json:"topics"`
	Score         *int      `json:"score,omitempty"`
	CommentsCount *int      `json:"commentsCount,omitempty"`
}

// FetchOptions is passed unchanged to every source for one aggregation call.
// A zero Limit means "use the source's own default".
type FetchOptions struct {
	Limit  int
	Topics []string
}

// AggregatedNews is the result of a single aggregation run. Sources lists
// the names of the adapters that returned successfully, in registration
// order.
type AggregatedNews struct {
	Articles  []Article `json:"articles"`
	Sources   []string  `json:"sources"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Source is implemented by every upstream adapter. Fetch returns a
// best-effort list: partial sub-unit failures degrade to fewer articles,
// a returned error means the whole adapter produced nothing.
type Source interface {
	Name() string
	Fetch(ctx context.Context, opts FetchOptions) ([]Article, error)
}

// IntPtr is a convenience for the optional numeric Article fields.
func IntPtr(n int) *int {
	return &n
}
