package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"bevbrain/internal/model"
	"bevbrain/internal/store"
	"bevbrain/internal/taxonomy"
	"bevbrain/pkg/news"
)

// State is the aggregator's current phase, visible to health checks.
type State string

const (
	StateIdle        State = "idle"
	StateFetching    State = "fetching"
	StateMerging     State = "merging"
	StateClassifying State = "classifying"
	StateScoring     State = "scoring"
	StateCached      State = "cached"
)

// Options wires an Aggregator. Everything is injected; the aggregator
// holds no ambient state beyond the phase it is in.
type Options struct {
	Connectors  []news.Connector
	Matcher     *taxonomy.Matcher
	Weights     SourceWeights
	Relevance   *regexp.Regexp
	Store       store.SnapshotStore
	DefaultSort string

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Aggregator runs the full cycle: fetch all connectors concurrently,
// normalize, dedupe, classify, score, rank, persist. It is the
// snapshot's single writer; consumers read through GetArticles.
type Aggregator struct {
	connectors  []news.Connector
	matcher     *taxonomy.Matcher
	weights     SourceWeights
	relevance   *regexp.Regexp
	store       store.SnapshotStore
	defaultSort string
	now         func() time.Time

	cycleMu sync.Mutex

	stateMu sync.RWMutex
	state   State
}

func NewAggregator(opts Options) *Aggregator {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	sortBy := opts.DefaultSort
	if sortBy == "" {
		sortBy = SortByScore
	}
	return &Aggregator{
		connectors:  opts.Connectors,
		matcher:     opts.Matcher,
		weights:     opts.Weights,
		relevance:   opts.Relevance,
		store:       opts.Store,
		defaultSort: sortBy,
		now:         now,
		state:       StateIdle,
	}
}

func (a *Aggregator) State() State {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.state
}

func (a *Aggregator) setState(s State) {
	a.stateMu.Lock()
	a.state = s
	a.stateMu.Unlock()
}

// Refresh runs one aggregation cycle and returns the number of
// articles retained. Cycles never overlap: a call arriving while one
// is in flight observes the cached snapshot instead. When every
// connector fails, the previous snapshot is served; an error is
// returned only when there is no snapshot to fall back to.
func (a *Aggregator) Refresh(ctx context.Context) (int, error) {
	if !a.cycleMu.TryLock() {
		slog.Info("aggregation cycle already running, serving cached snapshot")
		snap, err := a.store.Load(ctx)
		if err != nil {
			return 0, err
		}
		return len(snap.Articles), nil
	}
	defer a.cycleMu.Unlock()
	defer a.setState(StateIdle)

	started := a.now()

	a.setState(StateFetching)
	raw, succeeded := a.fetchAll(ctx)
	if succeeded == 0 {
		slog.Error("all connectors failed, falling back to cached snapshot")
		return a.cachedCount(ctx)
	}

	now := a.now()

	a.setState(StateMerging)
	articles := FilterRelevant(Dedupe(Normalize(raw, now)), a.relevance)

	a.setState(StateClassifying)
	for i := range articles {
		text := articles[i].Title + " " + articles[i].Description
		articles[i].Category = a.matcher.DetectCategory(text)
		articles[i].Brands = a.matcher.DetectBrands(text)
		articles[i].Regions = a.matcher.DetectRegions(text)
		articles[i].MentionCount = len(articles[i].Brands)
	}

	a.setState(StateScoring)
	for i := range articles {
		articles[i].RelevanceScore = Score(articles[i], a.weights, now)
	}
	Sort(articles, a.defaultSort)

	snap := model.Snapshot{Articles: articles, LastUpdate: now}
	if err := a.store.Save(ctx, snap); err != nil {
		slog.Error("error saving snapshot, previous snapshot remains", "error", err)
		return 0, fmt.Errorf("saving snapshot: %w", err)
	}

	a.setState(StateCached)
	slog.Info("aggregation cycle complete",
		"fetched", len(raw),
		"retained", len(articles),
		"sources_ok", succeeded,
		"sources_total", len(a.connectors),
		"duration", a.now().Sub(started).String(),
	)
	return len(articles), nil
}

// fetchAll fans out every connector and waits for all of them to
// settle. Partial results from connectors that succeeded are used
// even when others failed; a panicking connector only loses its own
// contribution.
func (a *Aggregator) fetchAll(ctx context.Context) ([]news.Article, int) {
	var (
		mu        sync.Mutex
		all       []news.Article
		succeeded int
		wg        sync.WaitGroup
	)

	for _, c := range a.connectors {
		wg.Add(1)
		go func(c news.Connector) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					slog.Error("connector panicked", "source", c.Name(), "panic", r)
				}
			}()

			articles, err := c.Fetch(ctx)
			if err != nil {
				slog.Warn("connector failed", "source", c.Name(), "error", err)
				if len(articles) == 0 {
					return
				}
				// Keep whatever arrived before the failure.
			}

			mu.Lock()
			all = append(all, articles...)
			succeeded++
			mu.Unlock()
		}(c)
	}

	wg.Wait()
	return all, succeeded
}

func (a *Aggregator) cachedCount(ctx context.Context) (int, error) {
	snap, err := a.store.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("all sources failed and cache unreadable: %w", err)
	}
	if len(snap.Articles) == 0 && snap.LastUpdate.IsZero() {
		return 0, errors.New("all sources failed and no cached snapshot exists")
	}
	return len(snap.Articles), nil
}

// Filter narrows the article list; dimensions combine with AND.
type Filter struct {
	Category string
	Brand    string
	Region   string
	Query    string
	Days     int
	Sort     string
}

// GetArticles reads the current snapshot and applies the filter.
// It never triggers a fetch; stale data is served as-is.
func (a *Aggregator) GetArticles(ctx context.Context, f Filter) ([]model.Article, error) {
	snap, err := a.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	now := a.now()
	out := make([]model.Article, 0, len(snap.Articles))
	for _, article := range snap.Articles {
		if a.matchesFilter(article, f, now) {
			out = append(out, article)
		}
	}

	sortBy := f.Sort
	if sortBy == "" {
		sortBy = a.defaultSort
	}
	Sort(out, sortBy)
	return out, nil
}

func (a *Aggregator) matchesFilter(article model.Article, f Filter, now time.Time) bool {
	if f.Category != "" && f.Category != "all" && article.Category != f.Category {
		return false
	}

	if f.Brand != "" {
		found := false
		for _, b := range article.Brands {
			if strings.EqualFold(b, f.Brand) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.Region != "" {
		switch strings.ToLower(f.Region) {
		case "all":
		case "usa":
			if len(article.Regions) == 0 {
				return false
			}
		case "national", "international":
			if len(article.Regions) > 0 {
				return false
			}
		default:
			found := false
			for _, r := range article.Regions {
				if strings.EqualFold(r, f.Region) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}

	if f.Query != "" {
		q := strings.ToLower(f.Query)
		haystack := strings.ToLower(article.Title + " " + article.Description + " " + article.Source)
		if !strings.Contains(haystack, q) {
			return false
		}
	}

	if f.Days > 0 {
		cutoff := now.Add(-time.Duration(f.Days) * 24 * time.Hour)
		if article.PublishedAt.Before(cutoff) {
			return false
		}
	}

	return true
}

// BrandCounts tallies brand mentions across the current snapshot.
func (a *Aggregator) BrandCounts(ctx context.Context) (map[string]int, error) {
	snap, err := a.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, article := range snap.Articles {
		for _, b := range article.Brands {
			counts[b]++
		}
	}
	return counts, nil
}

// IsStale reports whether the snapshot is older than maxAge.
func (a *Aggregator) IsStale(ctx context.Context, maxAge time.Duration) bool {
	return a.store.IsStale(ctx, maxAge)
}

// LastUpdate reports when the current snapshot was written.
func (a *Aggregator) LastUpdate(ctx context.Context) time.Time {
	snap, err := a.store.Load(ctx)
	if err != nil {
		return time.Time{}
	}
	return snap.LastUpdate
}
