package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"bevbrain/internal/model"
	"bevbrain/internal/pipeline"
)

// Aggregator is the read/refresh surface the HTTP layer needs.
type Aggregator interface {
	GetArticles(ctx context.Context, f pipeline.Filter) ([]model.Article, error)
	BrandCounts(ctx context.Context) (map[string]int, error)
	LastUpdate(ctx context.Context) time.Time
	Refresh(ctx context.Context) (int, error)
	State() pipeline.State
}

// Responder answers chat messages from the canned rule table.
type Responder interface {
	Reply(message string) string
}

type ArticleHandler struct {
	agg        Aggregator
	chat       Responder
	fetchToken string
}

// NewArticleHandler builds the handler set. fetchToken, when set,
// gates POST /_fetch behind the X-Fetch-Token header.
func NewArticleHandler(agg Aggregator, chat Responder, fetchToken string) *ArticleHandler {
	return &ArticleHandler{agg: agg, chat: chat, fetchToken: fetchToken}
}

func (h *ArticleHandler) GetArticles(c *gin.Context) {
	filter := pipeline.Filter{
		Category: c.Query("category"),
		Brand:    c.Query("brand"),
		Region:   c.Query("region"),
		Query:    c.Query("q"),
		Days:     getQueryDays(c),
		Sort:     c.Query("sort"),
	}

	articles, err := h.agg.GetArticles(c.Request.Context(), filter)
	if err != nil {
		slog.Error("error reading articles", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Storage error"})
		return
	}

	res := ArticlesResponse{
		Articles: make([]ArticleResponse, 0, len(articles)),
		Total:    len(articles),
	}
	if last := h.agg.LastUpdate(c.Request.Context()); !last.IsZero() {
		res.LastUpdate = last.Format(time.RFC3339)
	}

	for _, a := range articles {
		res.Articles = append(res.Articles, ArticleResponse{
			Title:          a.Title,
			Description:    a.Description,
			URL:            a.URL,
			Source:         a.Source,
			PublishedAt:    a.PublishedAt.Format(time.RFC3339),
			Category:       a.Category,
			Brands:         a.Brands,
			Regions:        a.Regions,
			MentionCount:   a.MentionCount,
			RelevanceScore: a.RelevanceScore,
		})
	}

	c.JSON(http.StatusOK, res)
}

func (h *ArticleHandler) GetBrands(c *gin.Context) {
	counts, err := h.agg.BrandCounts(c.Request.Context())
	if err != nil {
		slog.Error("error counting brands", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Storage error"})
		return
	}
	c.JSON(http.StatusOK, BrandsResponse{Brands: counts})
}

func (h *ArticleHandler) TriggerFetch(c *gin.Context) {
	if h.fetchToken != "" && c.GetHeader("X-Fetch-Token") != h.fetchToken {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	count, err := h.agg.Refresh(c.Request.Context())
	if err != nil {
		slog.Error("error running aggregation cycle", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, FetchResponse{OK: true, Count: count})
}

func (h *ArticleHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message required"})
		return
	}
	c.JSON(http.StatusOK, ChatResponse{Reply: h.chat.Reply(req.Message)})
}

func (h *ArticleHandler) GetHealth(c *gin.Context) {
	_, err := h.agg.GetArticles(c.Request.Context(), pipeline.Filter{})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"storage": "disconnected",
			"state":   string(h.agg.State()),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"storage": "connected",
		"state":   string(h.agg.State()),
	})
}

func getQueryDays(c *gin.Context) int {
	raw := c.Query("days")
	if raw == "" {
		return 0
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 0 {
		slog.Warn("invalid query parameter, ignoring", "param", "days", "value", raw)
		return 0
	}
	return days
}
