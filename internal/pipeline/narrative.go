package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/njpastrone/industry-trend-tracker/internal/model"
	"github.com/njpastrone/industry-trend-tracker/pkg/llm"
)

const (
	narrativeWindowDays   = 7
	narrativeMinRelevance = 0.2
	narrativeMaxSignals   = 10
)

// generateAllNarratives fans narrative generation out per sector, bounded
// by the same worker pool size, and returns the count generated.
func (p *Pipeline) generateAllNarratives(ctx context.Context, sectors []model.Sector) int {
	financialsBySector := make(map[string]model.Financials)
	if all, err := p.store.GetAllFinancials(); err != nil {
		slog.Warn("loading financials for narratives failed", "error", err)
	} else {
		for _, f := range all {
			financialsBySector[f.SectorID] = f
		}
	}

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		generated int
	)
	sem := make(chan struct{}, p.workers())

	for _, sector := range sectors {
		wg.Add(1)
		go func(sector model.Sector) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			defer func() {
				if r := recover(); r != nil {
					slog.Error("narrative generation panicked", "sector", sector.Name, "panic", r)
				}
			}()

			var financials *model.Financials
			if f, ok := financialsBySector[sector.ID]; ok {
				financials = &f
			}

			narrative, err := p.generateNarrative(ctx, sector, financials)
			if err != nil {
				slog.Error("narrative generation failed", "sector", sector.Name, "error", err)
				return
			}
			if narrative == nil {
				return
			}

			mu.Lock()
			generated++
			mu.Unlock()
		}(sector)
	}

	wg.Wait()
	return generated
}

// generateNarrative synthesizes one sector's briefing from its top
// signals. A sector with no qualifying signals is a quiet sector, not an
// error: no LLM call is made and nil is returned.
func (p *Pipeline) generateNarrative(ctx context.Context, sector model.Sector, financials *model.Financials) (*model.Narrative, error) {
	signals, err := p.store.GetSectorSignals(sector.ID, model.SignalFilter{
		Days:         narrativeWindowDays,
		MinRelevance: narrativeMinRelevance,
	})
	if err != nil {
		return nil, err
	}

	top := selectTopSignals(signals, narrativeMaxSignals)
	if len(top) == 0 {
		slog.Info("no relevant signals, skipping narrative", "sector", sector.Name)
		return nil, nil
	}

	input := llm.NarrativeInput{
		SectorName: sector.Name,
		ETFTicker:  sector.ETFTicker,
	}
	for _, s := range top {
		input.Signals = append(input.Signals, llm.SignalLine{
			SignalType: s.SignalType,
			Sentiment:  s.Sentiment,
			Summary:    s.Summary,
		})
	}
	if financials != nil {
		input.Change7D = &financials.Change7D
		input.Change30D = &financials.Change30D
		input.VsSPY30D = &financials.VsSPY30D
	}

	result, err := p.writer.WriteNarrative(ctx, input)
	if err != nil {
		slog.Warn("narrative synthesis failed", "sector", sector.Name, "error", err)
		return nil, nil
	}

	narrative := &model.Narrative{
		SectorID:        sector.ID,
		SummaryShort:    result.SummaryShort,
		SummaryFull:     result.SummaryFull,
		KeyThemes:       result.KeyThemes,
		IRTalkingPoints: result.IRTalkingPoints,
		Sentiment:       result.Sentiment,
		SignalCount:     len(top),
	}
	if err := p.store.InsertNarrative(narrative); err != nil {
		return nil, err
	}

	return narrative, nil
}

// selectTopSignals keeps non-neutral signals in descending relevance
// order, capped at limit. The stable sort keeps tie order reproducible
// for identical input ordering.
func selectTopSignals(signals []model.SignalWithArticle, limit int) []model.SignalWithArticle {
	var selected []model.SignalWithArticle
	for _, s := range signals {
		if s.SignalType != model.SignalNeutral {
			selected = append(selected, s)
		}
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].IRRelevance > selected[j].IRRelevance
	})

	if len(selected) > limit {
		selected = selected[:limit]
	}
	return selected
}
