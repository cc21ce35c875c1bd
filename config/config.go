package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"bevbrain/internal/pipeline"
	"bevbrain/internal/taxonomy"
)

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Feeds []string `yaml:"feeds"`

	Search struct {
		BaseURL      string   `yaml:"base_url"`
		Terms        []string `yaml:"terms"`
		PerTermLimit int      `yaml:"per_term_limit"`
		DelayMs      int      `yaml:"delay_ms"`
	} `yaml:"search"`

	HackerNews struct {
		BaseURL    string `yaml:"base_url"`
		StoryLimit int    `yaml:"story_limit"`
	} `yaml:"hackernews"`

	Categories []struct {
		Name     string   `yaml:"name"`
		Keywords []string `yaml:"keywords"`
	} `yaml:"categories"`

	Brands []string `yaml:"brands"`

	States []struct {
		Name string `yaml:"name"`
		Abbr string `yaml:"abbr"`
	} `yaml:"states"`

	SourceWeights map[string]float64 `yaml:"source_weights"`

	RelevanceTerms []string `yaml:"relevance_terms"`

	RefreshInterval string `yaml:"refresh_interval"`
	DefaultSort     string `yaml:"default_sort"`

	Storage struct {
		Backend     string `yaml:"backend"` // "file" or "redis"
		Dir         string `yaml:"dir"`
		RedisPrefix string `yaml:"redis_prefix"`
	} `yaml:"storage"`
}

// Load reads the yaml config at path, falling back to compiled-in
// defaults when the file is absent. Env vars (PORT) overlay after;
// secrets (NEWSDATA_API_KEY, FETCH_TOKEN, REDIS_URL) are read by the
// callers that need them.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}

	cfg.Feeds = []string{
		"https://www.thespiritsbusiness.com/feed/",
		"https://www.thedrinksbusiness.com/feed/",
		"https://www.liquor.com/feed/",
		"https://vinepair.com/feed/",
		"https://punchdrink.com/feed/",
		"https://feeds.bloomberg.com/markets/news.rss",
		"https://www.cnbc.com/id/100003114/device/rss/rss.html",
	}

	cfg.Search.BaseURL = "https://newsdata.io/api/1/news"
	cfg.Search.Terms = []string{
		"beverage industry", "alcohol market", "beer brewing", "wine industry",
		"spirits market", "liquor regulations", "rtd drinks", "craft beverages",
	}
	cfg.Search.PerTermLimit = 10
	cfg.Search.DelayMs = 100

	cfg.HackerNews.BaseURL = "https://hacker-news.firebaseio.com/v0"
	cfg.HackerNews.StoryLimit = 60

	cfg.SourceWeights = pipeline.DefaultSourceWeights()

	cfg.RelevanceTerms = []string{
		"beer", "wine", "whiskey", "bourbon", "gin", "vodka", "rum", "tequila",
		"spirits", "distillery", "brewery", "cocktail", "mixology", "sommelier",
		"alcohol", "liquor", "rtd", "seltzer", "hard seltzer",
	}

	cfg.RefreshInterval = "30m"
	cfg.DefaultSort = pipeline.SortByScore

	cfg.Storage.Backend = "file"
	cfg.Storage.Dir = "data"
	cfg.Storage.RedisPrefix = "bevbrain"

	return cfg
}

func (c *Config) RefreshDuration() time.Duration {
	d, err := time.ParseDuration(c.RefreshInterval)
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}

func (c *Config) SearchDelay() time.Duration {
	if c.Search.DelayMs <= 0 {
		return 0
	}
	return time.Duration(c.Search.DelayMs) * time.Millisecond
}

// RelevanceRegexp compiles the topical filter applied after dedup.
func (c *Config) RelevanceRegexp() (*regexp.Regexp, error) {
	return termsRegexp(c.RelevanceTerms)
}

// TitleFilterRegexp is the cheap pre-filter connectors apply to item
// titles before anything else, built from the same term list.
func (c *Config) TitleFilterRegexp() (*regexp.Regexp, error) {
	return termsRegexp(c.RelevanceTerms)
}

func termsRegexp(terms []string) (*regexp.Regexp, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return regexp.Compile(`(?i)(` + strings.Join(quoted, "|") + `)`)
}

// CategoryTable resolves configured category groups, keeping the
// compiled-in taxonomy when the config names none.
func (c *Config) CategoryTable() []taxonomy.CategoryKeywords {
	if len(c.Categories) == 0 {
		return taxonomy.DefaultCategories()
	}
	out := make([]taxonomy.CategoryKeywords, 0, len(c.Categories))
	for _, g := range c.Categories {
		out = append(out, taxonomy.CategoryKeywords{Category: g.Name, Keywords: g.Keywords})
	}
	return out
}

func (c *Config) BrandList() []string {
	if len(c.Brands) == 0 {
		return taxonomy.DefaultBrands()
	}
	return c.Brands
}

func (c *Config) StateTable() []taxonomy.State {
	if len(c.States) == 0 {
		return taxonomy.DefaultStates()
	}
	out := make([]taxonomy.State, 0, len(c.States))
	for _, s := range c.States {
		out = append(out, taxonomy.State{Name: s.Name, Abbr: s.Abbr})
	}
	return out
}

func (c *Config) Weights() pipeline.SourceWeights {
	if len(c.SourceWeights) == 0 {
		return pipeline.DefaultSourceWeights()
	}
	return pipeline.SourceWeights(c.SourceWeights)
}
