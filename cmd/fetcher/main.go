package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"bevbrain/config"
	"bevbrain/internal/pipeline"
	"bevbrain/internal/store"
	"bevbrain/internal/taxonomy"
	"bevbrain/pkg/news"
)

// One-shot aggregation run: fetch, classify, score, persist, exit.
// Meant for cron-style deployments where the API only reads.
func main() {

	godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	titleFilter, err := cfg.TitleFilterRegexp()
	if err != nil {
		log.Fatalf("error compiling title filter: %v", err)
	}
	relevance, err := cfg.RelevanceRegexp()
	if err != nil {
		log.Fatalf("error compiling relevance filter: %v", err)
	}

	connectors := []news.Connector{
		news.NewFeedConnector(cfg.Feeds, titleFilter),
		news.NewNewsDataClient(
			cfg.Search.BaseURL,
			os.Getenv("NEWSDATA_API_KEY"),
			cfg.Search.Terms,
			cfg.Search.PerTermLimit,
			cfg.SearchDelay(),
		),
		news.NewHackerNewsClient(cfg.HackerNews.BaseURL, cfg.HackerNews.StoryLimit, titleFilter),
	}

	var snapStore store.SnapshotStore
	if cfg.Storage.Backend == "redis" {
		snapStore, err = store.NewRedisStore(os.Getenv("REDIS_URL"), cfg.Storage.RedisPrefix)
		if err != nil {
			log.Fatalf("error connecting to redis: %v", err)
		}
	} else {
		snapStore, err = store.NewFileStore(cfg.Storage.Dir)
		if err != nil {
			log.Fatalf("error opening file store: %v", err)
		}
	}

	agg := pipeline.NewAggregator(pipeline.Options{
		Connectors:  connectors,
		Matcher:     taxonomy.NewMatcher(cfg.CategoryTable(), cfg.BrandList(), cfg.StateTable()),
		Weights:     cfg.Weights(),
		Relevance:   relevance,
		Store:       snapStore,
		DefaultSort: cfg.DefaultSort,
	})

	count, err := agg.Refresh(context.Background())
	if err != nil {
		slog.Error("aggregation run failed", "error", err)
		os.Exit(1)
	}

	slog.Info("aggregation run complete", "count", count)
}
