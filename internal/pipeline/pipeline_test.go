package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/njpastrone/industry-trend-tracker/internal/model"
	"github.com/njpastrone/industry-trend-tracker/pkg/feeds"
	"github.com/njpastrone/industry-trend-tracker/pkg/llm"
	"github.com/njpastrone/industry-trend-tracker/pkg/market"
	"github.com/njpastrone/industry-trend-tracker/pkg/relevance"
)

type fakeStore struct {
	sectors      []model.Sector
	feeds        map[string][]model.Feed
	existingURLs map[string]struct{}
	signals      []model.SignalWithArticle
	financials   []model.Financials

	insertedArticles   []model.Article
	insertedSignals    []model.Signal
	insertedNarratives []*model.Narrative
	upserted           []model.Financials

	sectorsErr error
	insertErr  error
}

func (f *fakeStore) GetSectors() ([]model.Sector, error) {
	return f.sectors, f.sectorsErr
}

func (f *fakeStore) GetSectorFeeds(sectorID string) ([]model.Feed, error) {
	return f.feeds[sectorID], nil
}

func (f *fakeStore) GetExistingURLs(urls []string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for _, u := range urls {
		if _, ok := f.existingURLs[u]; ok {
			out[u] = struct{}{}
		}
	}
	return out, nil
}

func (f *fakeStore) InsertArticles(articles []model.Article) ([]model.Article, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	for i := range articles {
		articles[i].ID = fmt.Sprintf("article-%d", len(f.insertedArticles)+i+1)
	}
	f.insertedArticles = append(f.insertedArticles, articles...)
	return articles, nil
}

func (f *fakeStore) InsertSignals(signals []model.Signal) error {
	f.insertedSignals = append(f.insertedSignals, signals...)
	return nil
}

func (f *fakeStore) GetSectorSignals(sectorID string, filter model.SignalFilter) ([]model.SignalWithArticle, error) {
	return f.signals, nil
}

func (f *fakeStore) UpsertFinancials(fin model.Financials) error {
	f.upserted = append(f.upserted, fin)
	return nil
}

func (f *fakeStore) GetAllFinancials() ([]model.Financials, error) {
	return f.financials, nil
}

func (f *fakeStore) InsertNarrative(n *model.Narrative) error {
	f.insertedNarratives = append(f.insertedNarratives, n)
	return nil
}

func (f *fakeStore) ClearPipelineData() (model.PurgeStats, error) {
	return model.PurgeStats{}, nil
}

type fakeFetcher struct {
	items map[string][]feeds.Item
	err   error
}

func (f *fakeFetcher) Fetch(ctx context.Context, query string) ([]feeds.Item, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.items[query], nil
}

type fakeClassifier struct {
	classify func(sectorName string, titles []string) ([]llm.HeadlineResult, error)
	calls    int
}

func (f *fakeClassifier) ClassifyHeadlines(ctx context.Context, sectorName string, titles []string) ([]llm.HeadlineResult, error) {
	f.calls++
	return f.classify(sectorName, titles)
}

type fakeWriter struct {
	result *llm.NarrativeResult
	err    error
	calls  int
	inputs []llm.NarrativeInput
}

func (f *fakeWriter) WriteNarrative(ctx context.Context, input llm.NarrativeInput) (*llm.NarrativeResult, error) {
	f.calls++
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeMarket struct {
	closes map[string][]market.Candle
	err    error
}

func (f *fakeMarket) Closes(ctx context.Context, symbols []string) (map[string][]market.Candle, error) {
	return f.closes, f.err
}

func okClassifier() *fakeClassifier {
	return &fakeClassifier{classify: func(sectorName string, titles []string) ([]llm.HeadlineResult, error) {
		results := make([]llm.HeadlineResult, len(titles))
		for i := range titles {
			results[i] = llm.HeadlineResult{
				HeadlineIndex: i,
				Summary:       "sector development",
				SignalType:    model.SignalRegulatory,
				Sentiment:     model.SentimentNegative,
				IRRelevance:   0.7,
			}
		}
		return results, nil
	}}
}

func newTestPipeline(store *fakeStore, fetcher *fakeFetcher, classifier *fakeClassifier, writer *fakeWriter, mkt market.Client) *Pipeline {
	p := New(store, fetcher, classifier, writer, mkt)
	p.Workers = 1
	return p
}

func TestClassifyBatchFallsBackToIndividual(t *testing.T) {
	store := &fakeStore{}
	// The batch call fails outright; singles succeed except for three
	// poisoned titles.
	classifier := &fakeClassifier{classify: func(sectorName string, titles []string) ([]llm.HeadlineResult, error) {
		if len(titles) > 1 {
			return nil, errors.New("rate limited")
		}
		if titles[0] == "poisoned" {
			return nil, errors.New("still failing")
		}
		return []llm.HeadlineResult{{
			HeadlineIndex: 0,
			Summary:       "ok",
			SignalType:    model.SignalMacroEconomic,
			Sentiment:     model.SentimentNeutral,
			IRRelevance:   0.5,
		}}, nil
	}}
	p := newTestPipeline(store, nil, classifier, nil, nil)

	articles := make([]model.Article, 8)
	for i := range articles {
		articles[i] = model.Article{ID: fmt.Sprintf("a%d", i), Title: "Sector shift continues"}
	}
	articles[1].Title = "poisoned"
	articles[4].Title = "poisoned"
	articles[6].Title = "poisoned"

	signals := p.classifyArticles(context.Background(), "Energy", articles)

	assert.Equal(t, len(signals), 5)
	// 1 failed batch call + 8 singles.
	assert.Equal(t, classifier.calls, 9)
	for _, s := range signals {
		assert.NotEqual(t, s.ArticleID, "a1")
		assert.NotEqual(t, s.ArticleID, "a4")
		assert.NotEqual(t, s.ArticleID, "a6")
	}
}

func TestClassifyBatchEmptyResultsFallsBack(t *testing.T) {
	store := &fakeStore{}
	classifier := &fakeClassifier{classify: func(sectorName string, titles []string) ([]llm.HeadlineResult, error) {
		if len(titles) > 1 {
			return []llm.HeadlineResult{}, nil
		}
		return []llm.HeadlineResult{{HeadlineIndex: 0, SignalType: model.SignalESG, Sentiment: model.SentimentPositive, IRRelevance: 0.4}}, nil
	}}
	p := newTestPipeline(store, nil, classifier, nil, nil)

	signals := p.classifyArticles(context.Background(), "Utilities", []model.Article{
		{ID: "a1", Title: "Grid investment accelerates"},
		{ID: "a2", Title: "Renewables mandate expands"},
	})

	assert.Equal(t, len(signals), 2)
	assert.Equal(t, signals[0].SignalType, model.SignalESG)
}

func TestClassifyBatchDiscardsOutOfRangeIndex(t *testing.T) {
	classifier := &fakeClassifier{classify: func(sectorName string, titles []string) ([]llm.HeadlineResult, error) {
		return []llm.HeadlineResult{
			{HeadlineIndex: 0, SignalType: model.SignalRegulatory, Sentiment: model.SentimentNegative, IRRelevance: 0.9},
			{HeadlineIndex: 7, SignalType: model.SignalRegulatory, Sentiment: model.SentimentNegative, IRRelevance: 0.9},
		}, nil
	}}
	p := newTestPipeline(&fakeStore{}, nil, classifier, nil, nil)

	signals := p.classifyArticles(context.Background(), "Financials", []model.Article{
		{ID: "a1", Title: "Capital rules tighten"},
		{ID: "a2", Title: "Lending standards shift"},
	})

	assert.Equal(t, len(signals), 1)
	assert.Equal(t, signals[0].ArticleID, "a1")
}

func TestAssembleSignalOverridesSingleCompanyNews(t *testing.T) {
	result := llm.HeadlineResult{
		Summary:     "looks sector wide to the model",
		SignalType:  model.SignalEarningsTrend,
		Sentiment:   model.SentimentPositive,
		IRRelevance: 0.9,
	}

	s := assembleSignal(model.Article{ID: "a1", Title: "Pfizer announces layoffs"}, result)

	// The override resets type and relevance together.
	assert.Equal(t, s.SignalType, model.SignalNeutral)
	assert.Equal(t, s.IRRelevance, 0.0)
	assert.Equal(t, s.Sentiment, model.SentimentPositive)
}

func TestPreFilterAndOverrideAgree(t *testing.T) {
	// Both call sites use the same heuristic; a title that survives the
	// pre-filter must never be forced neutral by the override, and vice
	// versa.
	titles := []string{
		"FDA proposes sweeping new drug pricing rules affecting all pharmaceutical manufacturers",
		"Pfizer beats Q3 earnings estimates, raises full-year guidance",
		"Tech sector faces new antitrust scrutiny",
		"$NVDA surges on record data center revenue",
		"Apple CEO steps down after two decades",
		"Energy sector consolidation accelerates amid commodity volatility",
	}

	for _, title := range titles {
		flagged := relevance.IsSingleCompanyNews(title)
		s := assembleSignal(model.Article{ID: "a", Title: title}, llm.HeadlineResult{
			SignalType:  model.SignalRegulatory,
			Sentiment:   model.SentimentNegative,
			IRRelevance: 0.8,
		})
		overridden := s.SignalType == model.SignalNeutral && s.IRRelevance == 0

		if flagged != overridden {
			t.Fatalf("heuristic disagreement for %q: flagged=%v overridden=%v", title, flagged, overridden)
		}
	}
}

func TestAssembleSignalDefaultsAndClamps(t *testing.T) {
	s := assembleSignal(model.Article{ID: "a1", Title: "Sector outlook improves"}, llm.HeadlineResult{
		SignalType:  "made_up_type",
		Sentiment:   "bullish",
		IRRelevance: 1.8,
	})
	assert.Equal(t, s.SignalType, model.SignalNeutral)
	assert.Equal(t, s.Sentiment, model.SentimentNeutral)
	assert.Equal(t, s.IRRelevance, 1.0)

	s = assembleSignal(model.Article{ID: "a2", Title: "Sector outlook improves"}, llm.HeadlineResult{
		SignalType:  model.SignalCompetitive,
		Sentiment:   model.SentimentNegative,
		IRRelevance: -0.3,
	})
	assert.Equal(t, s.SignalType, model.SignalCompetitive)
	assert.Equal(t, s.Sentiment, model.SentimentNegative)
	assert.Equal(t, s.IRRelevance, 0.0)

	// Signal sentiment is a three-value set; "mixed" belongs to
	// narratives only and gets rewritten like any unknown value.
	s = assembleSignal(model.Article{ID: "a3", Title: "Sector outlook improves"}, llm.HeadlineResult{
		SignalType:  model.SignalCompetitive,
		Sentiment:   model.SentimentMixed,
		IRRelevance: 0.4,
	})
	assert.Equal(t, s.Sentiment, model.SentimentNeutral)
	assert.Equal(t, s.SignalType, model.SignalCompetitive)
	assert.Equal(t, s.IRRelevance, 0.4)
}

func TestProcessSectorEmptyFeedsShortCircuits(t *testing.T) {
	store := &fakeStore{
		feeds: map[string][]model.Feed{"s1": {{ID: "f1", SectorID: "s1", Query: "energy sector"}}},
	}
	classifier := okClassifier()
	p := newTestPipeline(store, &fakeFetcher{}, classifier, nil, nil)

	stats, err := p.processSector(context.Background(), model.Sector{ID: "s1", Name: "Energy"})

	assert.Equal(t, err, nil)
	assert.Equal(t, stats.Fetched, 0)
	assert.Equal(t, stats.New, 0)
	assert.Equal(t, stats.Signals, 0)
	assert.Equal(t, classifier.calls, 0)
	assert.Equal(t, len(store.insertedArticles), 0)
}

func TestProcessSectorDedupsAcrossStoreAndBatch(t *testing.T) {
	store := &fakeStore{
		feeds:        map[string][]model.Feed{"s1": {{ID: "f1", SectorID: "s1", Query: "tech sector"}}},
		existingURLs: map[string]struct{}{"https://x.test/known": {}},
	}
	fetcher := &fakeFetcher{items: map[string][]feeds.Item{
		"tech sector": {
			{Title: "Chip demand surges across the sector", URL: "https://x.test/a"},
			{Title: "Already stored headline", URL: "https://x.test/known"},
			{Title: "Chip demand surges across the sector", URL: "https://x.test/a"},
			{Title: "Cloud spending stabilizes industry-wide", URL: "https://x.test/b"},
		},
	}}
	p := newTestPipeline(store, fetcher, okClassifier(), nil, nil)

	stats, err := p.processSector(context.Background(), model.Sector{ID: "s1", Name: "Information Technology"})

	assert.Equal(t, err, nil)
	assert.Equal(t, stats.Fetched, 4)
	assert.Equal(t, stats.New, 2)
	assert.Equal(t, stats.Signals, 2)
	assert.Equal(t, len(store.insertedArticles), 2)
}

func TestProcessSectorPreFiltersSingleCompanyNews(t *testing.T) {
	store := &fakeStore{
		feeds: map[string][]model.Feed{"s1": {{ID: "f1", SectorID: "s1", Query: "healthcare sector"}}},
	}
	fetcher := &fakeFetcher{items: map[string][]feeds.Item{
		"healthcare sector": {
			{Title: "FDA tightens approval requirements for the drug industry", URL: "https://x.test/a"},
			{Title: "Pfizer announces layoffs", URL: "https://x.test/b"},
		},
	}}
	classifier := okClassifier()
	p := newTestPipeline(store, fetcher, classifier, nil, nil)

	stats, err := p.processSector(context.Background(), model.Sector{ID: "s1", Name: "Health Care"})

	assert.Equal(t, err, nil)
	assert.Equal(t, stats.Fetched, 2)
	assert.Equal(t, stats.New, 1)
	assert.Equal(t, len(store.insertedArticles), 1)
	assert.Equal(t, store.insertedArticles[0].URL, "https://x.test/a")
}

func TestRunSurvivesSectorRosterFailure(t *testing.T) {
	store := &fakeStore{sectorsErr: errors.New("connection refused")}
	p := newTestPipeline(store, &fakeFetcher{}, okClassifier(), &fakeWriter{}, &fakeMarket{})

	summary := p.Run(context.Background())

	assert.Equal(t, summary.Status, "completed")
	assert.NotEqual(t, summary.Error, "")
	assert.Equal(t, summary.SectorsProcessed, 0)
}

func TestRunIsolatesSectorFailures(t *testing.T) {
	store := &fakeStore{
		sectors: []model.Sector{
			{ID: "s1", Name: "Energy", ETFTicker: "XLE"},
			{ID: "s2", Name: "Utilities", ETFTicker: "XLU"},
		},
		feeds: map[string][]model.Feed{
			"s1": {{ID: "f1", SectorID: "s1", Query: "boom"}},
			"s2": {{ID: "f2", SectorID: "s2", Query: "utilities sector"}},
		},
	}
	fetcher := &fakeFetcher{items: map[string][]feeds.Item{
		"utilities sector": {{Title: "Rate case decisions reshape utility returns", URL: "https://x.test/u"}},
	}}
	classifier := &fakeClassifier{classify: func(sectorName string, titles []string) ([]llm.HeadlineResult, error) {
		if sectorName == "Energy" {
			panic("classifier meltdown")
		}
		return []llm.HeadlineResult{{HeadlineIndex: 0, SignalType: model.SignalRegulatory, Sentiment: model.SentimentNeutral, IRRelevance: 0.6}}, nil
	}}
	fetcher.items["boom"] = []feeds.Item{{Title: "Energy sector consolidation wave", URL: "https://x.test/e"}}

	p := newTestPipeline(store, fetcher, classifier, &fakeWriter{result: &llm.NarrativeResult{Sentiment: "neutral"}}, &fakeMarket{})

	summary := p.Run(context.Background())

	assert.Equal(t, summary.Status, "completed")
	assert.Equal(t, summary.SectorsProcessed, 2)

	failures := 0
	for _, stats := range summary.SectorDetails {
		if stats.Error != "" {
			failures++
		}
	}
	assert.Equal(t, failures, 1)
	assert.Equal(t, summary.TotalSignals, 1)
}

func TestSelectTopSignals(t *testing.T) {
	var signals []model.SignalWithArticle
	for i := 0; i < 11; i++ {
		signals = append(signals, model.SignalWithArticle{Signal: model.Signal{
			ID:          fmt.Sprintf("sig%d", i),
			SignalType:  model.SignalRegulatory,
			IRRelevance: float64(i) / 20.0,
		}})
	}
	for i := 0; i < 4; i++ {
		signals = append(signals, model.SignalWithArticle{Signal: model.Signal{
			SignalType:  model.SignalNeutral,
			IRRelevance: 0.99,
		}})
	}

	top := selectTopSignals(signals, narrativeMaxSignals)

	assert.Equal(t, len(top), 10)
	for i, s := range top {
		assert.NotEqual(t, s.SignalType, model.SignalNeutral)
		if i > 0 {
			if top[i-1].IRRelevance < s.IRRelevance {
				t.Fatalf("signals out of order at %d: %f < %f", i, top[i-1].IRRelevance, s.IRRelevance)
			}
		}
	}
	// Highest relevance first, lowest non-neutral dropped.
	assert.Equal(t, top[0].ID, "sig10")
}

func TestGenerateNarrativeSkipsQuietSector(t *testing.T) {
	store := &fakeStore{signals: []model.SignalWithArticle{
		{Signal: model.Signal{SignalType: model.SignalNeutral, IRRelevance: 0.9}},
	}}
	writer := &fakeWriter{result: &llm.NarrativeResult{}}
	p := newTestPipeline(store, nil, nil, writer, nil)

	narrative, err := p.generateNarrative(context.Background(), model.Sector{ID: "s1", Name: "Materials"}, nil)

	assert.Equal(t, err, nil)
	assert.Equal(t, narrative == nil, true)
	assert.Equal(t, writer.calls, 0)
	assert.Equal(t, len(store.insertedNarratives), 0)
}

func TestGenerateNarrativePersistsResult(t *testing.T) {
	store := &fakeStore{signals: []model.SignalWithArticle{
		{Signal: model.Signal{SignalType: model.SignalRegulatory, Sentiment: model.SentimentNegative, Summary: "New rules bite", IRRelevance: 0.8}},
		{Signal: model.Signal{SignalType: model.SignalMAndA, Sentiment: model.SentimentPositive, Summary: "Deal flow picks up", IRRelevance: 0.6}},
	}}
	writer := &fakeWriter{result: &llm.NarrativeResult{
		SummaryShort:    "Regulation and deals dominate.",
		SummaryFull:     "Longer form context for the IR team.",
		KeyThemes:       []string{"regulation", "consolidation"},
		IRTalkingPoints: []string{"address the new rules"},
		Sentiment:       "mixed",
	}}
	p := newTestPipeline(store, nil, nil, writer, nil)

	financials := &model.Financials{SectorID: "s1", Change7D: 1.2, Change30D: -0.5, VsSPY30D: 0.3}
	narrative, err := p.generateNarrative(context.Background(), model.Sector{ID: "s1", Name: "Industrials", ETFTicker: "XLI"}, financials)

	assert.Equal(t, err, nil)
	assert.Equal(t, narrative.SignalCount, 2)
	assert.Equal(t, narrative.Sentiment, "mixed")
	assert.Equal(t, len(store.insertedNarratives), 1)

	assert.Equal(t, writer.calls, 1)
	assert.Equal(t, writer.inputs[0].SectorName, "Industrials")
	assert.Equal(t, *writer.inputs[0].Change7D, 1.2)
	assert.Equal(t, len(writer.inputs[0].Signals), 2)
}

func TestGenerateNarrativeWriterFailureIsNotFatal(t *testing.T) {
	store := &fakeStore{signals: []model.SignalWithArticle{
		{Signal: model.Signal{SignalType: model.SignalRegulatory, IRRelevance: 0.8}},
	}}
	writer := &fakeWriter{err: errors.New("overloaded")}
	p := newTestPipeline(store, nil, nil, writer, nil)

	narrative, err := p.generateNarrative(context.Background(), model.Sector{ID: "s1", Name: "Energy"}, nil)

	assert.Equal(t, err, nil)
	assert.Equal(t, narrative == nil, true)
	assert.Equal(t, len(store.insertedNarratives), 0)
}

func TestRefreshFinancialsComputesRelativeMetrics(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	rising := func(start float64, step float64) []market.Candle {
		candles := make([]market.Candle, 30)
		for i := range candles {
			candles[i] = market.Candle{
				Date:  now.AddDate(0, 0, i-30),
				Close: start + step*float64(i),
			}
		}
		return candles
	}

	store := &fakeStore{sectors: []model.Sector{{ID: "s1", Name: "Energy", ETFTicker: "XLE"}}}
	mkt := &fakeMarket{closes: map[string][]market.Candle{
		"XLE": rising(100, 1),
		"SPY": rising(400, 1),
	}}
	p := newTestPipeline(store, nil, nil, nil, mkt)
	p.now = func() time.Time { return now }

	updated := p.refreshFinancials(context.Background(), store.sectors)

	assert.Equal(t, updated, 1)
	assert.Equal(t, len(store.upserted), 1)

	f := store.upserted[0]
	assert.Equal(t, f.SectorID, "s1")
	assert.Equal(t, f.ETFPrice, 129.0)
	// XLE outgrew SPY in percentage terms off a lower base.
	if f.VsSPY7D <= 0 {
		t.Fatalf("expected positive relative 7d change, got %f", f.VsSPY7D)
	}
	if f.VsSPY30D <= 0 {
		t.Fatalf("expected positive relative 30d change, got %f", f.VsSPY30D)
	}
}

func TestRefreshFinancialsSkipsThinHistory(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{sectors: []model.Sector{{ID: "s1", Name: "Energy", ETFTicker: "XLE"}}}
	mkt := &fakeMarket{closes: map[string][]market.Candle{
		"XLE": {{Date: now, Close: 90}},
		"SPY": {{Date: now.AddDate(0, 0, -1), Close: 400}, {Date: now, Close: 401}},
	}}
	p := newTestPipeline(store, nil, nil, nil, mkt)
	p.now = func() time.Time { return now }

	updated := p.refreshFinancials(context.Background(), store.sectors)

	assert.Equal(t, updated, 0)
	assert.Equal(t, len(store.upserted), 0)
}

func TestRefreshFinancialsMarketFailure(t *testing.T) {
	store := &fakeStore{sectors: []model.Sector{{ID: "s1", Name: "Energy", ETFTicker: "XLE"}}}
	p := newTestPipeline(store, nil, nil, nil, &fakeMarket{err: errors.New("upstream down")})

	updated := p.refreshFinancials(context.Background(), store.sectors)

	assert.Equal(t, updated, 0)
}
