package news

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// NewsDataClient queries a NewsData.io-style search API, one request
// per configured search term. Requests are spaced by a fixed delay to
// stay inside free-tier rate limits; a failed term is skipped.
type NewsDataClient struct {
	baseURL      string
	apiKey       string
	terms        []string
	perTermLimit int
	delay        time.Duration
	httpClient   *http.Client
}

func NewNewsDataClient(baseURL, apiKey string, terms []string, perTermLimit int, delay time.Duration) *NewsDataClient {
	if perTermLimit <= 0 {
		perTermLimit = 10
	}
	return &NewsDataClient{
		baseURL:      baseURL,
		apiKey:       apiKey,
		terms:        terms,
		perTermLimit: perTermLimit,
		delay:        delay,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *NewsDataClient) Name() string {
	return "NewsData"
}

func (c *NewsDataClient) Fetch(ctx context.Context) ([]Article, error) {
	var articles []Article

	for i, term := range c.terms {
		if i > 0 && c.delay > 0 {
			select {
			case <-ctx.Done():
				return articles, ctx.Err()
			case <-time.After(c.delay):
			}
		}

		results, err := c.fetchTerm(ctx, term)
		if err != nil {
			slog.Warn("search term fetch failed", "term", term, "error", err)
			continue
		}
		articles = append(articles, results...)
	}

	return articles, nil
}

func (c *NewsDataClient) fetchTerm(ctx context.Context, term string) ([]Article, error) {
	q := url.Values{}
	q.Set("q", term)
	q.Set("language", "en")
	q.Set("size", fmt.Sprintf("%d", c.perTermLimit))
	if c.apiKey != "" {
		q.Set("apikey", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("newsdata request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsdata fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsdata status %d", resp.StatusCode)
	}

	var raw newsDataResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("newsdata decode: %w", err)
	}

	articles := make([]Article, 0, len(raw.Results))
	for _, item := range raw.Results {
		source := item.SourceID
		if source == "" {
			source = c.Name()
		}

		articles = append(articles, Article{
			Title:       item.Title,
			Description: item.Description,
			URL:         item.Link,
			Source:      source,
			PublishedAt: parseNewsDataTime(item.PubDate),
		})
	}

	return articles, nil
}

// NewsData returns "2006-01-02 15:04:05"; some mirrors use RFC3339.
func parseNewsDataTime(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

type newsDataResponse struct {
	Results []newsDataResult `json:"results"`
}

type newsDataResult struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
	SourceID    string `json:"source_id"`
	PubDate     string `json:"pubDate"`
}
