package model

import "time"

const (
	CategoryBeer       = "beer"
	CategoryWine       = "wine"
	CategorySpirits    = "spirits"
	CategoryRTD        = "rtd"
	CategoryRegulation = "regulation"
	CategoryTrend      = "trend"
	CategoryBusiness   = "business"
)

// DefaultDescription is shown when a source supplies no summary text.
const DefaultDescription = "Read more..."

type Article struct {
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	URL            string    `json:"url"`
	Source         string    `json:"source"`
	PublishedAt    time.Time `json:"published_at"`
	Category       string    `json:"category"`
	Brands         []string  `json:"brands"`
	Regions        []string  `json:"regions"`
	MentionCount   int       `json:"mention_count"`
	RelevanceScore float64   `json:"relevance_score"`
}

// IdentityKey is the duplicate-detection key within one aggregation run.
func (a Article) IdentityKey() string {
	return a.Title + "|" + a.URL
}

// Snapshot is the complete ranked result of one aggregation cycle.
// Replaced wholesale on every successful cycle, never merged.
type Snapshot struct {
	Articles   []Article `json:"articles"`
	LastUpdate time.Time `json:"last_update"`
}
