package news

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// MaxDescriptionLength bounds descriptions derived from long-form content.
// One shared bound for every adapter.
const MaxDescriptionLength = 200

var strictPolicy = bluemonday.StrictPolicy()

// StripHTML removes all markup from s and decodes HTML entities, leaving
// plain text suitable for an Article description.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// Truncate bounds s to max runes.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// Summarize is the shared description pipeline: strip markup, then bound
// the result to MaxDescriptionLength.
func Summarize(s string) string {
	return Truncate(StripHTML(s), MaxDescriptionLength)
}
