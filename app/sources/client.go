package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nwohater/lackeynews/app/news"
)

// getJSON issues a GET request with the configured User-Agent and decodes
// the JSON response body into v.
func getJSON(ctx context.Context, client *http.Client, url, userAgent string, v any) error {
	data, err := fetchBytes(ctx, client, url, userAgent)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func fetchBytes(ctx context.Context, client *http.Client, url, userAgent string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// fetchWithTimeout races fn against the budget and substitutes an empty
// result when the budget elapses first, so one slow sub-fetch cannot block
// a whole adapter.
func fetchWithTimeout(ctx context.Context, budget time.Duration, fn func(ctx context.Context) []news.Article) []news.Article {
	fetchCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	results := make(chan []news.Article, 1)
	go func() {
		results <- fn(fetchCtx)
	}()

	select {
	case articles := <-results:
		return articles
	case <-fetchCtx.Done():
		return nil
	}
}
