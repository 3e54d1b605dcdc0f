package llm

import "context"

// HeadlineResult is one classified headline from a batch call. The index
// refers to the position of the headline within the submitted batch.
type HeadlineResult struct {
	HeadlineIndex int
	Summary       string
	SignalType    string
	Sentiment     string
	IRRelevance   float64
}

// SignalLine is one signal rendered into the narrative prompt.
type SignalLine struct {
	SignalType string
	Sentiment  string
	Summary    string
}

// NarrativeInput carries everything the narrative prompt needs. Nil metric
// pointers render as "N/A".
type NarrativeInput struct {
	SectorName string
	ETFTicker  string
	Signals    []SignalLine
	Change7D   *float64
	Change30D  *float64
	VsSPY30D   *float64
}

type NarrativeResult struct {
	SummaryShort    string
	SummaryFull     string
	KeyThemes       []string
	IRTalkingPoints []string
	Sentiment       string
}

// Classifier submits one batch of headlines in a single model call and
// returns per-headline results. Implementations do not retry; the caller
// owns the fallback policy.
type Classifier interface {
	ClassifyHeadlines(ctx context.Context, sectorName string, titles []string) ([]HeadlineResult, error)
}

// NarrativeWriter turns a sector's top signals into a briefing.
type NarrativeWriter interface {
	WriteNarrative(ctx context.Context, input NarrativeInput) (*NarrativeResult, error)
}
