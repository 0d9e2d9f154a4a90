package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nwohater/lackeynews/app/cfg"
	"github.com/nwohater/lackeynews/app/news"
	"github.com/nwohater/lackeynews/app/sources"
)

func NewHandler(aggregator AggregatorInterface, registry *sources.Registry, defaultLimit int) *Handler {
	return &Handler{
		aggregator:   aggregator,
		registry:     registry,
		defaultLimit: defaultLimit,
	}
}

// GetNews runs an aggregation pass scoped by the optional topics and
// limit query parameters.
func (h *Handler) GetNews(c *gin.Context) {
	opts := news.FetchOptions{
		Limit:  h.parseLimit(c.Query("limit")),
		Topics: parseTopics(c.Query("topics")),
	}

	result := h.aggregator.Run(c.Request.Context(), opts)

	if query := c.Query("q"); query != "" {
		result.Articles = news.Search(result.Articles, query)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// GetTopics lists the topic tags known to the feed registry.
func (h *Handler) GetTopics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.registry.Topics(),
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"version":   cfg.GetVersion(),
		"sources":   h.aggregator.SourceCount(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// parseLimit falls back to the configured default when the parameter is
// missing, malformed or out of range.
func (h *Handler) parseLimit(raw string) int {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return h.defaultLimit
	}
	return limit
}

func parseTopics(raw string) []string {
	if raw == "" {
		return nil
	}

	var topics []string
	for _, topic := range strings.Split(raw, ",") {
		topic = strings.TrimSpace(topic)
		if topic != "" {
			topics = append(topics, topic)
		}
	}
	return topics
}
