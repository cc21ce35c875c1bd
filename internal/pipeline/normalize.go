package pipeline

import (
	"regexp"
	"strings"
	"time"

	"bevbrain/internal/model"
	"bevbrain/pkg/news"
)

// Normalize converts raw connector records into the uniform article
// shape: titles trimmed (empty ones dropped), missing descriptions
// replaced with the display fallback, missing publish times set to now.
func Normalize(raw []news.Article, now time.Time) []model.Article {
	articles := make([]model.Article, 0, len(raw))
	for _, r := range raw {
		title := strings.TrimSpace(r.Title)
		if title == "" {
			continue
		}

		desc := strings.TrimSpace(r.Description)
		if desc == "" {
			desc = model.DefaultDescription
		}

		published := r.PublishedAt
		if published.IsZero() {
			published = now
		}

		articles = append(articles, model.Article{
			Title:       title,
			Description: desc,
			URL:         r.URL,
			Source:      r.Source,
			PublishedAt: published,
		})
	}
	return articles
}

// Dedupe removes articles sharing an identity key (title+url).
// The first-seen record wins; later duplicates are dropped silently.
func Dedupe(articles []model.Article) []model.Article {
	seen := make(map[string]bool, len(articles))
	out := make([]model.Article, 0, len(articles))
	for _, a := range articles {
		key := a.IdentityKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}

// FilterRelevant keeps only articles whose title, description or
// source matches the topical regexp. Rejected records never reach
// scoring and are not counted anywhere.
func FilterRelevant(articles []model.Article, relevance *regexp.Regexp) []model.Article {
	if relevance == nil {
		return articles
	}
	out := make([]model.Article, 0, len(articles))
	for _, a := range articles {
		if relevance.MatchString(a.Title + " " + a.Description + " " + a.Source) {
			out = append(out, a)
		}
	}
	return out
}
