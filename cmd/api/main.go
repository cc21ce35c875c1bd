package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"bevbrain/config"
	"bevbrain/internal/chat"
	"bevbrain/internal/handler"
	"bevbrain/internal/pipeline"
	"bevbrain/internal/store"
	"bevbrain/internal/taxonomy"
	"bevbrain/pkg/news"
)

func main() {

	godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	agg, err := buildAggregator(cfg)
	if err != nil {
		log.Fatalf("error building aggregator: %v", err)
	}

	responder := chat.NewResponder(
		chat.DefaultRules(),
		chat.DefaultFacts(),
		chat.DefaultFallbacks(),
		rand.New(rand.NewSource(time.Now().UnixNano())),
	)

	h := handler.NewArticleHandler(agg, responder, os.Getenv("FETCH_TOKEN"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initial fetch, then the periodic cycle. A failed cycle only
	// means consumers keep seeing the previous snapshot.
	go func() {
		if !agg.IsStale(ctx, cfg.RefreshDuration()) {
			slog.Info("snapshot still fresh, skipping initial fetch")
		} else if count, err := agg.Refresh(ctx); err != nil {
			slog.Warn("initial fetch failed", "error", err)
		} else {
			slog.Info("initial fetch complete", "count", count)
		}

		ticker := time.NewTicker(cfg.RefreshDuration())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := agg.Refresh(ctx); err != nil {
					slog.Error("scheduled fetch failed", "error", err)
				}
			}
		}
	}()

	r := gin.Default()

	allowedOrigins := cfg.Server.AllowedOrigins
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "X-Fetch-Token"},
	}))

	r.GET("/api/articles", h.GetArticles)
	r.GET("/api/brands", h.GetBrands)
	r.POST("/_fetch", h.TriggerFetch)
	r.POST("/api/chat", h.Chat)
	r.GET("/health", h.GetHealth)

	if err := r.Run(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}

func buildAggregator(cfg *config.Config) (*pipeline.Aggregator, error) {
	titleFilter, err := cfg.TitleFilterRegexp()
	if err != nil {
		return nil, fmt.Errorf("compiling title filter: %w", err)
	}
	relevance, err := cfg.RelevanceRegexp()
	if err != nil {
		return nil, fmt.Errorf("compiling relevance filter: %w", err)
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
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
	} else {
		snapStore, err = store.NewFileStore(cfg.Storage.Dir)
		if err != nil {
			return nil, fmt.Errorf("opening file store: %w", err)
		}
	}

	matcher := taxonomy.NewMatcher(cfg.CategoryTable(), cfg.BrandList(), cfg.StateTable())

	return pipeline.NewAggregator(pipeline.Options{
		Connectors:  connectors,
		Matcher:     matcher,
		Weights:     cfg.Weights(),
		Relevance:   relevance,
		Store:       snapStore,
		DefaultSort: cfg.DefaultSort,
	}), nil
}
