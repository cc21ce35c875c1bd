package news

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"sync"
	"time"
)

// HackerNewsClient pulls the newest story IDs and resolves each story
// individually. The aggregator has no topical search, so stories must
// pass a title regexp to be included at all.
type HackerNewsClient struct {
	baseURL     string
	limit       int
	titleFilter *regexp.Regexp
	httpClient  *http.Client
}

func NewHackerNewsClient(baseURL string, limit int, titleFilter *regexp.Regexp) *HackerNewsClient {
	if limit <= 0 {
		limit = 60
	}
	return &HackerNewsClient{
		baseURL:     baseURL,
		limit:       limit,
		titleFilter: titleFilter,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HackerNewsClient) Name() string {
	return "Hacker News"
}

func (c *HackerNewsClient) Fetch(ctx context.Context) ([]Article, error) {
	ids, err := c.fetchNewStoryIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("hackernews story ids: %w", err)
	}

	if len(ids) > c.limit {
		ids = ids[:c.limit]
	}

	var (
		mu       sync.Mutex
		articles []Article
		wg       sync.WaitGroup
	)

	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()

			story, err := c.fetchStory(ctx, id)
			if err != nil {
				slog.Warn("story fetch failed", "id", id, "error", err)
				return
			}
			if story.Title == "" {
				return
			}
			if c.titleFilter != nil && !c.titleFilter.MatchString(story.Title) {
				return
			}

			storyURL := story.URL
			if storyURL == "" {
				storyURL = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", id)
			}

			var published time.Time
			if story.Time > 0 {
				published = time.Unix(story.Time, 0)
			}

			mu.Lock()
			articles = append(articles, Article{
				Title:       story.Title,
				URL:         storyURL,
				Source:      c.Name(),
				PublishedAt: published,
			})
			mu.Unlock()
		}(id)
	}

	wg.Wait()
	return articles, nil
}

func (c *HackerNewsClient) fetchNewStoryIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := c.getJSON(ctx, c.baseURL+"/newstories.json", &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (c *HackerNewsClient) fetchStory(ctx context.Context, id int64) (*hnStory, error) {
	var story hnStory
	if err := c.getJSON(ctx, fmt.Sprintf("%s/item/%d.json", c.baseURL, id), &story); err != nil {
		return nil, err
	}
	return &story, nil
}

func (c *HackerNewsClient) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

type hnStory struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Time  int64  `json:"time"`
}
