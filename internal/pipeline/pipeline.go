// Package pipeline coordinates the scheduled intelligence run: per-sector
// fetch → dedup → filter → classify → store, then a financials refresh,
// then per-sector narrative generation.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/njpastrone/industry-trend-tracker/internal/model"
	"github.com/njpastrone/industry-trend-tracker/pkg/feeds"
	"github.com/njpastrone/industry-trend-tracker/pkg/llm"
	"github.com/njpastrone/industry-trend-tracker/pkg/market"
	"github.com/njpastrone/industry-trend-tracker/pkg/relevance"
)

// DefaultWorkers bounds sector-level parallelism for both fan-out phases.
const DefaultWorkers = 5

// Store is everything the pipeline needs from persistence. Implemented by
// repository.Store; tests substitute fakes.
type Store interface {
	GetSectors() ([]model.Sector, error)
	GetSectorFeeds(sectorID string) ([]model.Feed, error)
	GetExistingURLs(urls []string) (map[string]struct{}, error)
	InsertArticles(articles []model.Article) ([]model.Article, error)
	InsertSignals(signals []model.Signal) error
	GetSectorSignals(sectorID string, filter model.SignalFilter) ([]model.SignalWithArticle, error)
	UpsertFinancials(f model.Financials) error
	GetAllFinancials() ([]model.Financials, error)
	InsertNarrative(n *model.Narrative) error
	ClearPipelineData() (model.PurgeStats, error)
}

// RunRecorder caches the latest run summary (backed by Redis when
// configured). Failures are logged and ignored.
type RunRecorder interface {
	SaveLastRun(v any) error
}

type Pipeline struct {
	store      Store
	fetcher    feeds.Fetcher
	classifier llm.Classifier
	writer     llm.NarrativeWriter
	market     market.Client
	now        func() time.Time

	Workers  int
	Recorder RunRecorder
}

func New(store Store, fetcher feeds.Fetcher, classifier llm.Classifier, writer llm.NarrativeWriter, marketClient market.Client) *Pipeline {
	return &Pipeline{
		store:      store,
		fetcher:    fetcher,
		classifier: classifier,
		writer:     writer,
		market:     marketClient,
		now:        time.Now,
		Workers:    DefaultWorkers,
	}
}

// SectorStats is one sector's share of a run.
type SectorStats struct {
	Sector  string `json:"sector"`
	Feeds   int    `json:"feeds"`
	Fetched int    `json:"fetched"`
	New     int    `json:"new"`
	Signals int    `json:"signals"`
	Error   string `json:"error,omitempty"`
}

// RunSummary is the run's aggregate outcome. Status is always "completed":
// per-sector failures are itemized, never fatal.
type RunSummary struct {
	RunID               string        `json:"run_id"`
	Status              string        `json:"status"`
	ElapsedSeconds      float64       `json:"elapsed_seconds"`
	SectorsProcessed    int           `json:"sectors_processed"`
	TotalNewArticles    int           `json:"total_new_articles"`
	TotalSignals        int           `json:"total_signals"`
	FinancialsUpdated   int           `json:"financials_updated"`
	NarrativesGenerated int           `json:"narratives_generated"`
	SectorDetails       []SectorStats `json:"sector_details"`
	Error               string        `json:"error,omitempty"`
}

// Run executes the full pipeline and always returns a completed summary.
func (p *Pipeline) Run(ctx context.Context) RunSummary {
	start := time.Now()
	summary := RunSummary{
		RunID:  uuid.NewString(),
		Status: "completed",
	}

	slog.Info("pipeline started", "run_id", summary.RunID)

	// Fresh slate: a repeated run regenerates from the current headline set.
	purged, err := p.store.ClearPipelineData()
	if err != nil {
		slog.Error("clearing pipeline data failed", "error", err)
	} else {
		slog.Info("cleared old pipeline data",
			"articles", purged.ArticlesDeleted,
			"signals", purged.SignalsDeleted,
			"narratives", purged.NarrativesDeleted)
	}

	sectors, err := p.store.GetSectors()
	if err != nil {
		slog.Error("loading sector roster failed", "error", err)
		summary.Error = fmt.Sprintf("loading sector roster: %v", err)
		summary.ElapsedSeconds = round1(time.Since(start).Seconds())
		p.record(summary)
		return summary
	}

	summary.SectorDetails = p.processAllSectors(ctx, sectors)
	summary.SectorsProcessed = len(summary.SectorDetails)
	for _, stats := range summary.SectorDetails {
		summary.TotalNewArticles += stats.New
		summary.TotalSignals += stats.Signals
	}

	slog.Info("refreshing financials")
	summary.FinancialsUpdated = p.refreshFinancials(ctx, sectors)

	slog.Info("generating narratives")
	summary.NarrativesGenerated = p.generateAllNarratives(ctx, sectors)

	summary.ElapsedSeconds = round1(time.Since(start).Seconds())
	slog.Info("pipeline completed",
		"run_id", summary.RunID,
		"elapsed_seconds", summary.ElapsedSeconds,
		"new_articles", summary.TotalNewArticles,
		"signals", summary.TotalSignals,
		"narratives", summary.NarrativesGenerated)

	p.record(summary)
	return summary
}

// processAllSectors fans sector processing out over the worker pool.
// Results arrive in completion order.
func (p *Pipeline) processAllSectors(ctx context.Context, sectors []model.Sector) []SectorStats {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		details []SectorStats
	)
	sem := make(chan struct{}, p.workers())

	for _, sector := range sectors {
		wg.Add(1)
		go func(sector model.Sector) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			stats := p.processSectorSafe(ctx, sector)

			if stats.Error != "" {
				slog.Error("sector processing failed", "sector", sector.Name, "error", stats.Error)
			} else {
				slog.Info("sector processed", "sector", sector.Name, "new", stats.New, "signals", stats.Signals)
			}

			mu.Lock()
			details = append(details, stats)
			mu.Unlock()
		}(sector)
	}

	wg.Wait()
	return details
}

// processSectorSafe isolates one sector: errors and panics become an error
// entry in that sector's stats, never a run abort.
func (p *Pipeline) processSectorSafe(ctx context.Context, sector model.Sector) (stats SectorStats) {
	defer func() {
		if r := recover(); r != nil {
			stats.Sector = sector.Name
			stats.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	stats, err := p.processSector(ctx, sector)
	if err != nil {
		stats.Error = err.Error()
	}
	return stats
}

// processSector runs one sector sequentially: fetch → dedup → filter →
// insert → classify → store signals.
func (p *Pipeline) processSector(ctx context.Context, sector model.Sector) (SectorStats, error) {
	stats := SectorStats{Sector: sector.Name}

	sectorFeeds, err := p.store.GetSectorFeeds(sector.ID)
	if err != nil {
		return stats, err
	}
	stats.Feeds = len(sectorFeeds)

	var fetched []model.Article
	for _, feed := range sectorFeeds {
		items, err := p.fetcher.Fetch(ctx, feed.Query)
		if err != nil {
			slog.Warn("feed fetch failed", "sector", sector.Name, "query", feed.Query, "error", err)
			continue
		}
		for _, item := range items {
			fetched = append(fetched, model.Article{
				SectorID:    sector.ID,
				FeedID:      feed.ID,
				Title:       item.Title,
				URL:         item.URL,
				Source:      item.Source,
				PublishedAt: item.PublishedAt,
			})
		}
	}

	stats.Fetched = len(fetched)
	if len(fetched) == 0 {
		return stats, nil
	}

	urls := make([]string, len(fetched))
	for i, a := range fetched {
		urls[i] = a.URL
	}
	existing, err := p.store.GetExistingURLs(urls)
	if err != nil {
		return stats, err
	}

	// Dedup against the store and within this batch; first occurrence wins.
	seen := make(map[string]struct{})
	var fresh []model.Article
	for _, article := range fetched {
		if _, ok := existing[article.URL]; ok {
			continue
		}
		if _, ok := seen[article.URL]; ok {
			continue
		}
		seen[article.URL] = struct{}{}
		fresh = append(fresh, article)
	}

	// Pre-filter single-company noise before spending storage or
	// classification budget on it.
	var sectorWide []model.Article
	for _, article := range fresh {
		if !relevance.IsSingleCompanyNews(article.Title) {
			sectorWide = append(sectorWide, article)
		}
	}
	if filtered := len(fresh) - len(sectorWide); filtered > 0 {
		slog.Info("pre-filtered single-company articles", "sector", sector.Name, "count", filtered)
	}

	stats.New = len(sectorWide)
	if len(sectorWide) == 0 {
		return stats, nil
	}

	inserted, err := p.store.InsertArticles(sectorWide)
	if err != nil {
		slog.Warn("batch insert failed, falling back to per-row", "sector", sector.Name, "error", err)
		inserted = nil
		for _, article := range sectorWide {
			rows, err := p.store.InsertArticles([]model.Article{article})
			if err != nil {
				slog.Warn("article insert failed", "url", article.URL, "error", err)
				continue
			}
			inserted = append(inserted, rows...)
		}
	}
	if len(inserted) == 0 {
		return stats, nil
	}

	signals := p.classifyArticles(ctx, sector.Name, inserted)
	if len(signals) > 0 {
		if err := p.store.InsertSignals(signals); err != nil {
			return stats, err
		}
	}
	stats.Signals = len(signals)

	return stats, nil
}

func (p *Pipeline) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return DefaultWorkers
}

func (p *Pipeline) record(summary RunSummary) {
	if p.Recorder == nil {
		return
	}
	if err := p.Recorder.SaveLastRun(summary); err != nil {
		slog.Warn("saving run summary failed", "error", err)
	}
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
