package news

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// FeedConnector fetches RSS/Atom feeds from a fixed list of URLs.
// Each feed fails independently; a dead feed only loses its own items.
type FeedConnector struct {
	urls        []string
	titleFilter *regexp.Regexp
	parser      *gofeed.Parser
}

// NewFeedConnector builds a connector over the given feed URLs.
// titleFilter, when non-nil, rejects items before downstream work.
func NewFeedConnector(urls []string, titleFilter *regexp.Regexp) *FeedConnector {
	// The parser's default client has no timeout; a hung feed server
	// would stall the whole aggregation cycle.
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: 30 * time.Second}

	return &FeedConnector{
		urls:        urls,
		titleFilter: titleFilter,
		parser:      parser,
	}
}

func (c *FeedConnector) Name() string {
	return "RSS"
}

func (c *FeedConnector) Fetch(ctx context.Context) ([]Article, error) {
	var articles []Article

	for _, feedURL := range c.urls {
		feed, err := c.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			slog.Warn("feed fetch failed", "url", feedURL, "error", err)
			continue
		}

		source := feedHost(feedURL)

		for _, item := range feed.Items {
			if item.Title == "" {
				continue
			}
			if c.titleFilter != nil && !c.titleFilter.MatchString(item.Title) {
				continue
			}

			desc := item.Description
			if desc == "" {
				desc = item.Content
			}

			var published time.Time
			if item.PublishedParsed != nil {
				published = *item.PublishedParsed
			} else if item.UpdatedParsed != nil {
				published = *item.UpdatedParsed
			}

			articles = append(articles, Article{
				Title:       item.Title,
				Description: stripHTML(desc),
				URL:         item.Link,
				Source:      source,
				PublishedAt: published,
			})
		}
	}

	return articles, nil
}

func feedHost(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Host == "" {
		return feedURL
	}
	return u.Host
}

func stripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
