package news

import "strings"

// FilterByTopics keeps articles whose topic list intersects the requested
// topics, case-insensitively. An empty topic set is the identity.
func FilterByTopics(articles []Article, topics []string) []Article {
	if len(topics) == 0 {
		return articles
	}

	wanted := make(map[string]struct{}, len(topics))
	for _, topic := range topics {
		wanted[strings.ToLower(topic)] = struct{}{}
	}

	filtered := make([]Article, 0, len(articles))
	for _, article := range articles {
		for _, topic := range article.Topics {
			if _, ok := wanted[strings.ToLower(topic)]; ok {
				filtered = append(filtered, article)
				break
			}
		}
	}

	return filtered
}

// Search keeps articles whose title, description or author contains the
// query as a case-insensitive substring. A blank query is the identity.
func Search(articles []Article, query string) []Article {
	query = strings.TrimSpace(query)
	if query == "" {
		return articles
	}
	query = strings.ToLower(query)

	matched := make([]Article, 0, len(articles))
	for _, article := range articles {
		if strings.Contains(strings.ToLower(article.Title), query) ||
			(article.Description != "" && strings.Contains(strings.ToLower(article.Description), query)) ||
			(article.Author != "" && strings.Contains(strings.ToLower(article.Author), query)) {
			matched = append(matched, article)
		}
	}

	return matched
}
