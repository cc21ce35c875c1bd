package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"

	"bevbrain/internal/model"
	"bevbrain/internal/pipeline"
)

type fakeAggregator struct {
	articles   []model.Article
	brands     map[string]int
	lastUpdate time.Time
	refreshed  int
	lastFilter pipeline.Filter
	err        error
}

func (f *fakeAggregator) GetArticles(_ context.Context, filter pipeline.Filter) ([]model.Article, error) {
	f.lastFilter = filter
	return f.articles, f.err
}

func (f *fakeAggregator) BrandCounts(_ context.Context) (map[string]int, error) {
	return f.brands, f.err
}

func (f *fakeAggregator) LastUpdate(_ context.Context) time.Time {
	return f.lastUpdate
}

func (f *fakeAggregator) Refresh(_ context.Context) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.refreshed++
	return len(f.articles), nil
}

func (f *fakeAggregator) State() pipeline.State {
	return pipeline.StateIdle
}

type fakeResponder struct{}

func (fakeResponder) Reply(message string) string {
	return "canned: " + message
}

func newTestRouter(agg Aggregator, fetchToken string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewArticleHandler(agg, fakeResponder{}, fetchToken)
	r.GET("/api/articles", h.GetArticles)
	r.GET("/api/brands", h.GetBrands)
	r.POST("/_fetch", h.TriggerFetch)
	r.POST("/api/chat", h.Chat)
	r.GET("/health", h.GetHealth)
	return r
}

func TestGetArticles_ReturnsSnapshot(t *testing.T) {
	last := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	agg := &fakeAggregator{
		articles: []model.Article{
			{Title: "Whiskey prices rise", URL: "https://x.example/a", Category: model.CategorySpirits, Brands: []string{"Jameson"}, RelevanceScore: 0.8, PublishedAt: last},
		},
		lastUpdate: last,
	}
	r := newTestRouter(agg, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/articles", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var res ArticlesResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, "Whiskey prices rise", res.Articles[0].Title)
	assert.Equal(t, []string{"Jameson"}, res.Articles[0].Brands)
	assert.Equal(t, last.Format(time.RFC3339), res.LastUpdate)
}

func TestGetArticles_PassesFilters(t *testing.T) {
	agg := &fakeAggregator{}
	r := newTestRouter(agg, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/articles?category=beer&brand=Corona&region=Texas&q=import&days=7&sort=newest", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "beer", agg.lastFilter.Category)
	assert.Equal(t, "Corona", agg.lastFilter.Brand)
	assert.Equal(t, "Texas", agg.lastFilter.Region)
	assert.Equal(t, "import", agg.lastFilter.Query)
	assert.Equal(t, 7, agg.lastFilter.Days)
	assert.Equal(t, "newest", agg.lastFilter.Sort)
}

func TestGetArticles_StorageError(t *testing.T) {
	agg := &fakeAggregator{err: errors.New("storage down")}
	r := newTestRouter(agg, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/articles", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetBrands(t *testing.T) {
	agg := &fakeAggregator{brands: map[string]int{"Corona": 3, "Modelo": 1}}
	r := newTestRouter(agg, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/brands", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var res BrandsResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, 3, res.Brands["Corona"])
	assert.Equal(t, 1, res.Brands["Modelo"])
}

func TestTriggerFetch_NoTokenConfigured(t *testing.T) {
	agg := &fakeAggregator{articles: []model.Article{{Title: "a"}}}
	r := newTestRouter(agg, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/_fetch", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, agg.refreshed)

	var res FetchResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, true, res.OK)
	assert.Equal(t, 1, res.Count)
}

func TestTriggerFetch_TokenMismatch(t *testing.T) {
	agg := &fakeAggregator{}
	r := newTestRouter(agg, "secret")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/_fetch", nil)
	req.Header.Set("X-Fetch-Token", "wrong")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 0, agg.refreshed)
}

func TestTriggerFetch_TokenMatch(t *testing.T) {
	agg := &fakeAggregator{}
	r := newTestRouter(agg, "secret")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/_fetch", nil)
	req.Header.Set("X-Fetch-Token", "secret")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, agg.refreshed)
}

func TestChat(t *testing.T) {
	r := newTestRouter(&fakeAggregator{}, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{"message":"tell me about beer"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var res ChatResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, "canned: tell me about beer", res.Reply)
}

func TestChat_EmptyMessage(t *testing.T) {
	r := newTestRouter(&fakeAggregator{}, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetHealth(t *testing.T) {
	r := newTestRouter(&fakeAggregator{}, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var res map[string]string
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, "healthy", res["status"])
	assert.Equal(t, "idle", res["state"])
}

func TestGetHealth_Unhealthy(t *testing.T) {
	r := newTestRouter(&fakeAggregator{err: errors.New("storage down")}, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
