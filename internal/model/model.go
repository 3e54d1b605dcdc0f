package model

import "time"

// Signal types form a closed taxonomy; neutral is the safe default the
// classifier falls back to whenever a headline is not clearly sector-wide.
const (
	SignalRegulatory       = "regulatory"
	SignalAnalystSentiment = "analyst_sentiment"
	SignalEarningsTrend    = "earnings_trend"
	SignalMAndA            = "m_and_a"
	SignalCompetitive      = "competitive"
	SignalMacroEconomic    = "macro_economic"
	SignalESG              = "esg"
	SignalNeutral          = "neutral"
)

const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
	SentimentMixed    = "mixed"
)

// SignalTypeDescriptions backs the /api/config/signal-types endpoint.
var SignalTypeDescriptions = map[string]string{
	SignalRegulatory:       "Government regulation, policy changes, enforcement actions affecting the sector",
	SignalAnalystSentiment: "Sector-wide analyst actions, outlook changes, rating trends",
	SignalEarningsTrend:    "Patterns in earnings across the sector (beat/miss rates, guidance trends)",
	SignalMAndA:            "M&A activity, consolidation trends, deal flow",
	SignalCompetitive:      "Market structure changes, disruption, competitive dynamics",
	SignalMacroEconomic:    "Interest rates, commodities, FX, employment — as they affect this sector",
	SignalESG:              "ESG/sustainability trends, climate regulation, reporting changes",
	SignalNeutral:          "Not a meaningful sector signal",
}

// ValidSignalType reports whether s belongs to the taxonomy.
func ValidSignalType(s string) bool {
	_, ok := SignalTypeDescriptions[s]
	return ok
}

type Sector struct {
	ID        string
	Name      string
	GICSCode  string
	ETFTicker string
}

type Feed struct {
	ID       string
	SectorID string
	Query    string
	Active   bool
}

type Article struct {
	ID          string
	SectorID    string
	FeedID      string
	Title       string
	URL         string
	Source      string
	PublishedAt *time.Time
	FetchedAt   time.Time
}

type Signal struct {
	ID          string
	ArticleID   string
	SectorID    string
	Summary     string
	SignalType  string
	Sentiment   string
	IRRelevance float64
	CreatedAt   time.Time
}

// SignalWithArticle joins a signal with its source headline for API reads.
type SignalWithArticle struct {
	Signal
	ArticleTitle       string
	ArticleURL         string
	ArticleSource      string
	ArticlePublishedAt *time.Time
}

type Financials struct {
	SectorID  string
	ETFPrice  float64
	Change7D  float64
	Change30D float64
	ChangeYTD float64
	VsSPY7D   float64
	VsSPY30D  float64
	UpdatedAt time.Time
}

type Narrative struct {
	ID              string
	SectorID        string
	SummaryShort    string
	SummaryFull     string
	KeyThemes       []string
	IRTalkingPoints []string
	Sentiment       string
	SignalCount     int
	CreatedAt       time.Time
}

// PurgeStats reports what a fresh-slate purge removed.
type PurgeStats struct {
	ArticlesDeleted   int64
	SignalsDeleted    int64
	NarrativesDeleted int64
}

// SignalFilter narrows signal reads for both the API and the synthesizer.
// Zero values mean "no constraint" except Days and Limit, which callers
// default explicitly.
type SignalFilter struct {
	SectorID     string
	SignalType   string
	Sentiment    string
	MinRelevance float64
	Days         int
	Limit        int
}
