package pipeline

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"bevbrain/internal/model"
	"bevbrain/internal/taxonomy"
	"bevbrain/pkg/news"
)

type fakeConnector struct {
	name     string
	articles []news.Article
	err      error
	panics   bool
}

func (f *fakeConnector) Name() string { return f.name }

func (f *fakeConnector) Fetch(ctx context.Context) ([]news.Article, error) {
	if f.panics {
		panic("connector bug")
	}
	return f.articles, f.err
}

type memStore struct {
	snap    model.Snapshot
	saveErr error
	loadErr error
	saves   int
}

func (m *memStore) Save(_ context.Context, snap model.Snapshot) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.snap = snap
	m.saves++
	return nil
}

func (m *memStore) Load(_ context.Context) (model.Snapshot, error) {
	if m.loadErr != nil {
		return model.Snapshot{}, m.loadErr
	}
	return m.snap, nil
}

func (m *memStore) IsStale(_ context.Context, maxAge time.Duration) bool {
	return m.snap.LastUpdate.IsZero() || time.Since(m.snap.LastUpdate) > maxAge
}

var testRelevance = regexp.MustCompile(`(?i)(beer|wine|whiskey|alcohol|liquor|seltzer|brewery)`)

func newTestAggregator(store *memStore, now time.Time, connectors ...news.Connector) *Aggregator {
	return NewAggregator(Options{
		Connectors: connectors,
		Matcher:    taxonomy.NewMatcher(taxonomy.DefaultCategories(), taxonomy.DefaultBrands(), taxonomy.DefaultStates()),
		Weights:    DefaultSourceWeights(),
		Relevance:  testRelevance,
		Store:      store,
		Now:        func() time.Time { return now },
	})
}

func TestRefresh_FullCycle(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &memStore{}

	agg := newTestAggregator(store, now,
		&fakeConnector{name: "feeds", articles: []news.Article{
			{Title: "Corona and Modelo lift beer imports", URL: "https://x.example/beer", Source: "thedrinksbusiness.com", PublishedAt: now},
			{Title: "Stock markets rally", URL: "https://x.example/stocks", Source: "cnbc.com", PublishedAt: now},
		}},
		&fakeConnector{name: "search", articles: []news.Article{
			{Title: "Whiskey prices rise", URL: "https://x.example/a", Description: "first", PublishedAt: now},
		}},
	)

	count, err := agg.Refresh(context.Background())
	assert.Equal(t, nil, err)
	// The off-topic stocks article is dropped by the relevance filter.
	assert.Equal(t, 2, count)
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, now, store.snap.LastUpdate)
	assert.Equal(t, StateIdle, agg.State())

	for _, a := range store.snap.Articles {
		if a.RelevanceScore < 0 || a.RelevanceScore > 1 {
			t.Fatalf("score %v out of [0,1]", a.RelevanceScore)
		}
	}

	// Classification ran inside the cycle.
	byURL := make(map[string]model.Article)
	for _, a := range store.snap.Articles {
		byURL[a.URL] = a
	}
	beer := byURL["https://x.example/beer"]
	assert.Equal(t, model.CategoryBeer, beer.Category)
	assert.Equal(t, 2, beer.MentionCount)
}

func TestRefresh_DedupesAcrossConnectors(t *testing.T) {
	now := time.Now()
	store := &memStore{}

	dup := news.Article{Title: "Whiskey prices rise", URL: "https://x.example/a", PublishedAt: now}
	other := dup
	other.Description = "different description, same identity"

	agg := newTestAggregator(store, now,
		&fakeConnector{name: "one", articles: []news.Article{dup}},
		&fakeConnector{name: "two", articles: []news.Article{other}},
	)

	count, err := agg.Refresh(context.Background())
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, count)

	var ids []string
	seen := make(map[string]bool)
	for _, a := range store.snap.Articles {
		key := a.IdentityKey()
		if seen[key] {
			t.Fatalf("duplicate identity key %q survived", key)
		}
		seen[key] = true
		ids = append(ids, key)
	}
	assert.Equal(t, 1, len(ids))
}

func TestRefresh_PartialFailure(t *testing.T) {
	now := time.Now()
	store := &memStore{}

	agg := newTestAggregator(store, now,
		&fakeConnector{name: "dead", err: errors.New("connection refused")},
		&fakeConnector{name: "panicky", panics: true},
		&fakeConnector{name: "alive", articles: []news.Article{
			{Title: "Brewery opens in Texas", URL: "https://x.example/tx", PublishedAt: now},
		}},
	)

	count, err := agg.Refresh(context.Background())
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, store.saves)
}

func TestRefresh_AllFail_ServesCache(t *testing.T) {
	now := time.Now()
	store := &memStore{snap: model.Snapshot{
		Articles:   []model.Article{{Title: "cached", URL: "https://x.example/c"}},
		LastUpdate: now.Add(-time.Hour),
	}}

	agg := newTestAggregator(store, now,
		&fakeConnector{name: "one", err: errors.New("timeout")},
		&fakeConnector{name: "two", err: errors.New("dns")},
	)

	count, err := agg.Refresh(context.Background())
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, count)
	// The cached snapshot must not be overwritten.
	assert.Equal(t, 0, store.saves)
	assert.Equal(t, "cached", store.snap.Articles[0].Title)
}

func TestRefresh_AllFail_NoCache(t *testing.T) {
	agg := newTestAggregator(&memStore{}, time.Now(),
		&fakeConnector{name: "one", err: errors.New("timeout")},
	)

	_, err := agg.Refresh(context.Background())
	assert.NotEqual(t, nil, err)
}

func TestRefresh_SaveErrorPropagates(t *testing.T) {
	now := time.Now()
	store := &memStore{saveErr: errors.New("disk full")}

	agg := newTestAggregator(store, now,
		&fakeConnector{name: "ok", articles: []news.Article{
			{Title: "Wine news", URL: "https://x.example/w", PublishedAt: now},
		}},
	)

	_, err := agg.Refresh(context.Background())
	assert.NotEqual(t, nil, err)
}

func TestGetArticles_Filters(t *testing.T) {
	now := time.Now()
	store := &memStore{snap: model.Snapshot{
		Articles: []model.Article{
			{Title: "Beer in Texas", Category: model.CategoryBeer, Brands: []string{"Corona"}, Regions: []string{"Texas"}, PublishedAt: now, RelevanceScore: 0.9},
			{Title: "Wine abroad", Category: model.CategoryWine, PublishedAt: now.Add(-10 * 24 * time.Hour), RelevanceScore: 0.5},
			{Title: "Old beer story", Category: model.CategoryBeer, PublishedAt: now.Add(-10 * 24 * time.Hour), RelevanceScore: 0.7},
		},
		LastUpdate: now,
	}}

	agg := newTestAggregator(store, now)
	ctx := context.Background()

	got, err := agg.GetArticles(ctx, Filter{Category: model.CategoryBeer})
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(got))

	got, _ = agg.GetArticles(ctx, Filter{Category: model.CategoryBeer, Days: 7})
	assert.Equal(t, 1, len(got))
	assert.Equal(t, "Beer in Texas", got[0].Title)

	got, _ = agg.GetArticles(ctx, Filter{Brand: "corona"})
	assert.Equal(t, 1, len(got))

	got, _ = agg.GetArticles(ctx, Filter{Region: "Texas"})
	assert.Equal(t, 1, len(got))

	got, _ = agg.GetArticles(ctx, Filter{Region: "international"})
	assert.Equal(t, 2, len(got))

	got, _ = agg.GetArticles(ctx, Filter{Query: "abroad"})
	assert.Equal(t, 1, len(got))
	assert.Equal(t, "Wine abroad", got[0].Title)

	// AND across dimensions.
	got, _ = agg.GetArticles(ctx, Filter{Category: model.CategoryBeer, Region: "Texas", Query: "beer"})
	assert.Equal(t, 1, len(got))

	got, _ = agg.GetArticles(ctx, Filter{Sort: SortByNewest})
	assert.Equal(t, 3, len(got))
	assert.Equal(t, "Beer in Texas", got[0].Title)
}

func TestIsStale(t *testing.T) {
	store := &memStore{snap: model.Snapshot{LastUpdate: time.Now().Add(-time.Hour)}}
	agg := newTestAggregator(store, time.Now())

	assert.Equal(t, true, agg.IsStale(context.Background(), 30*time.Minute))
	assert.Equal(t, false, agg.IsStale(context.Background(), 2*time.Hour))
}

func TestBrandCounts(t *testing.T) {
	store := &memStore{snap: model.Snapshot{
		Articles: []model.Article{
			{Brands: []string{"Corona", "Modelo"}},
			{Brands: []string{"Corona"}},
			{},
		},
	}}

	agg := newTestAggregator(store, time.Now())
	counts, err := agg.BrandCounts(context.Background())
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, counts["Corona"])
	assert.Equal(t, 1, counts["Modelo"])
	assert.Equal(t, 2, len(counts))
}
