package pipeline

import (
	"sort"
	"strings"
	"time"

	"bevbrain/internal/model"
)

const (
	weightRecency = 0.5
	weightMention = 0.3
	weightSource  = 0.2

	// Recency decays linearly to zero over a week.
	recencyWindow = 7 * 24 * time.Hour

	// Mention score saturates at this many distinct brand hits.
	mentionSaturation = 4

	defaultSourceWeight = 0.6
)

// SourceWeights maps hostname substrings to trust weights in [0,1].
type SourceWeights map[string]float64

// Lookup resolves a source string by substring match against the
// table keys, so "www.thedrinksbusiness.com" hits the
// "thedrinksbusiness.com" entry. Unknown sources get the default.
func (w SourceWeights) Lookup(source string) float64 {
	if source == "" {
		return defaultSourceWeight
	}
	s := strings.ToLower(source)
	for key, weight := range w {
		if strings.Contains(s, strings.ToLower(key)) {
			return weight
		}
	}
	return defaultSourceWeight
}

// DefaultSourceWeights mirrors the outlets the service trusts most.
func DefaultSourceWeights() SourceWeights {
	return SourceWeights{
		"thespiritsbusiness.com": 1.0,
		"thedrinksbusiness.com":  1.0,
		"liquor.com":             1.0,
		"vinepair.com":           1.0,
		"punchdrink.com":         0.9,
		"bloomberg.com":          0.9,
		"cnbc.com":               0.8,
		"hacker news":            0.4,
	}
}

// Score computes the composite relevance score for one article.
// Recomputed every cycle; never treated as identity.
func Score(a model.Article, weights SourceWeights, now time.Time) float64 {
	recency := recencyScore(a.PublishedAt, now)
	mention := mentionScore(a.MentionCount)
	source := weights.Lookup(a.Source)
	return weightRecency*recency + weightMention*mention + weightSource*source
}

func recencyScore(published, now time.Time) float64 {
	age := now.Sub(published)
	if age < 0 {
		// Future timestamps score as brand new.
		return 1
	}
	score := 1 - float64(age)/float64(recencyWindow)
	if score < 0 {
		return 0
	}
	return score
}

func mentionScore(count int) float64 {
	if count >= mentionSaturation {
		return 1
	}
	return float64(count) / mentionSaturation
}

// Named sort strategies. Unknown names fall back to SortByScore.
const (
	SortByScore  = "score"
	SortByNewest = "newest"
	SortByOldest = "oldest"
)

// Sort orders articles in place by the named strategy.
func Sort(articles []model.Article, strategy string) {
	switch strategy {
	case SortByNewest:
		sort.SliceStable(articles, func(i, j int) bool {
			return articles[i].PublishedAt.After(articles[j].PublishedAt)
		})
	case SortByOldest:
		sort.SliceStable(articles, func(i, j int) bool {
			return articles[i].PublishedAt.Before(articles[j].PublishedAt)
		})
	default:
		sort.SliceStable(articles, func(i, j int) bool {
			return articles[i].RelevanceScore > articles[j].RelevanceScore
		})
	}
}
