package sources

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed sources.yml
var embeddedRegistry []byte

// Feed describes one RSS/Atom feed in the registry.
type Feed struct {
	URL    string   `yaml:"url"`
	Name   string   `yaml:"name"`
	Topics []string `yaml:"topics"`
}

// Registry holds the static source configuration: the topic to subreddit
// table and the feed list. It is loaded once at startup and never written
// afterwards.
type Registry struct {
	Subreddits        map[string][]string `yaml:"subreddits"`
	DefaultSubreddits []string            `yaml:"default_subreddits"`
	Feeds             []Feed              `yaml:"feeds"`
}

// LoadRegistry parses the registry from the given YAML file, or from the
// embedded defaults when path is empty.
func LoadRegistry(path string) (*Registry, error) {
	data := embeddedRegistry
	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read source registry: %w", err)
		}
		data = fileData
	}

	var registry Registry
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse source registry: %w", err)
	}

	if err := registry.validate(); err != nil {
		return nil, fmt.Errorf("invalid source registry: %w", err)
	}

	slog.Debug("Source registry loaded",
		"topics", len(registry.Subreddits),
		"feeds", len(registry.Feeds))

	return &registry, nil
}

func (r *Registry) validate() error {
	if len(r.Subreddits) == 0 {
		return fmt.Errorf("subreddit table is empty")
	}
	if len(r.DefaultSubreddits) == 0 {
		return fmt.Errorf("default subreddit list is empty")
	}
	if len(r.Feeds) == 0 {
		return fmt.Errorf("feed list is empty")
	}

	for i, feed := range r.Feeds {
		if feed.URL == "" {
			return fmt.Errorf("feed %d: URL is required", i)
		}
		if feed.Name == "" {
			return fmt.Errorf("feed %d (%s): name is required", i, feed.URL)
		}
		if len(feed.Topics) == 0 {
			return fmt.Errorf("feed %d (%s): at least one topic is required", i, feed.URL)
		}
	}

	return nil
}

// SubredditsFor maps the requested topics through the subreddit table,
// preserving first-seen order and dropping duplicates. When no topic is
// supplied or none match, the default general-news set is returned.
func (r *Registry) SubredditsFor(topics []string) []string {
	var subreddits []string
	seen := make(map[string]struct{})

	for _, topic := range topics {
		for _, sub := range r.Subreddits[strings.ToLower(topic)] {
			if _, ok := seen[sub]; ok {
				continue
			}
			seen[sub] = struct{}{}
			subreddits = append(subreddits, sub)
		}
	}

	if len(subreddits) == 0 {
		return append([]string(nil), r.DefaultSubreddits...)
	}
	return subreddits
}

// feedsMatching selects the feeds whose tag list intersects the requested
// topics, case-insensitively. With no topics every feed is eligible; with
// topics that match nothing the result is empty.
func feedsMatching(feeds []Feed, topics []string) []Feed {
	if len(topics) == 0 {
		return append([]Feed(nil), feeds...)
	}

	wanted := make(map[string]struct{}, len(topics))
	for _, topic := range topics {
		wanted[strings.ToLower(topic)] = struct{}{}
	}

	var selected []Feed
	for _, feed := range feeds {
		for _, topic := range feed.Topics {
			if _, ok := wanted[strings.ToLower(topic)]; ok {
				selected = append(selected, feed)
				break
			}
		}
	}

	return selected
}

// Topics returns the sorted distinct topic tags known to the registry,
// i.e. the subreddit table keys plus every feed tag.
func (r *Registry) Topics() []string {
	seen := make(map[string]struct{})
	for topic := range r.Subreddits {
		seen[strings.ToLower(topic)] = struct{}{}
	}
	for _, feed := range r.Feeds {
		for _, topic := range feed.Topics {
			seen[strings.ToLower(topic)] = struct{}{}
		}
	}

	topics := make([]string, 0, len(seen))
	for topic := range seen {
		topics = append(topics, topic)
	}
	sort.Strings(topics)

	return topics
}
