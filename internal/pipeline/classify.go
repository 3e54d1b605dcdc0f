package pipeline

import (
	"context"
	"log/slog"

	"github.com/njpastrone/industry-trend-tracker/internal/model"
	"github.com/njpastrone/industry-trend-tracker/pkg/llm"
	"github.com/njpastrone/industry-trend-tracker/pkg/relevance"
)

// ClassifyBatchSize is the number of headlines sent per LLM call.
const ClassifyBatchSize = 8

// classifyArticles classifies in batches and assembles signal records.
// Nothing is persisted here.
func (p *Pipeline) classifyArticles(ctx context.Context, sectorName string, articles []model.Article) []model.Signal {
	var signals []model.Signal
	for start := 0; start < len(articles); start += ClassifyBatchSize {
		end := min(start+ClassifyBatchSize, len(articles))
		signals = append(signals, p.classifyBatch(ctx, sectorName, articles[start:end])...)
	}
	return signals
}

// classifyBatch tries one call for the whole batch; any failure (API
// error, unparseable response, missing results) degrades to one call per
// article. An article whose singleton call also fails is dropped.
func (p *Pipeline) classifyBatch(ctx context.Context, sectorName string, batch []model.Article) []model.Signal {
	titles := make([]string, len(batch))
	for i, a := range batch {
		titles[i] = a.Title
	}

	results, err := p.classifier.ClassifyHeadlines(ctx, sectorName, titles)
	if err != nil || len(results) == 0 {
		if err != nil {
			slog.Warn("batch classification failed, falling back to individual", "sector", sectorName, "error", err)
		} else {
			slog.Warn("batch classification returned no results, falling back to individual", "sector", sectorName)
		}
		return p.classifyIndividually(ctx, sectorName, batch)
	}

	// Map results back by batch index; identity is the article, not the
	// response position.
	byIndex := make(map[int]llm.HeadlineResult, len(results))
	for _, r := range results {
		if r.HeadlineIndex < 0 || r.HeadlineIndex >= len(batch) {
			continue
		}
		byIndex[r.HeadlineIndex] = r
	}

	signals := make([]model.Signal, 0, len(byIndex))
	for idx := range batch {
		if r, ok := byIndex[idx]; ok {
			signals = append(signals, assembleSignal(batch[idx], r))
		}
	}
	return signals
}

func (p *Pipeline) classifyIndividually(ctx context.Context, sectorName string, batch []model.Article) []model.Signal {
	var signals []model.Signal
	for _, article := range batch {
		results, err := p.classifier.ClassifyHeadlines(ctx, sectorName, []string{article.Title})
		if err != nil || len(results) == 0 {
			slog.Warn("dropping article after failed classification", "sector", sectorName, "url", article.URL, "error", err)
			continue
		}
		signals = append(signals, assembleSignal(article, results[0]))
	}
	return signals
}

// assembleSignal turns one classification into a signal record. The
// single-company override runs after the model's own decision and always
// wins: type and relevance are reset together, never one without the
// other.
func assembleSignal(article model.Article, result llm.HeadlineResult) model.Signal {
	signalType := result.SignalType
	if !model.ValidSignalType(signalType) {
		signalType = model.SignalNeutral
	}

	irRelevance := result.IRRelevance
	if irRelevance < 0 {
		irRelevance = 0
	}
	if irRelevance > 1 {
		irRelevance = 1
	}

	if relevance.IsSingleCompanyNews(article.Title) {
		signalType = model.SignalNeutral
		irRelevance = 0
	}

	sentiment := result.Sentiment
	switch sentiment {
	case model.SentimentPositive, model.SentimentNegative, model.SentimentNeutral:
	default:
		sentiment = model.SentimentNeutral
	}

	return model.Signal{
		ArticleID:   article.ID,
		SectorID:    article.SectorID,
		Summary:     result.Summary,
		SignalType:  signalType,
		Sentiment:   sentiment,
		IRRelevance: irRelevance,
	}
}
