package handler

type FinancialsResponse struct {
	SectorID  string  `json:"sector_id"`
	ETFPrice  float64 `json:"etf_price"`
	Change7D  float64 `json:"change_7d"`
	Change30D float64 `json:"change_30d"`
	ChangeYTD float64 `json:"change_ytd"`
	VsSPY7D   float64 `json:"vs_spy_7d"`
	VsSPY30D  float64 `json:"vs_spy_30d"`
	UpdatedAt string  `json:"updated_at"`
}

// NarrativeSummaryResponse is the trimmed narrative embedded in sector
// list rows.
type NarrativeSummaryResponse struct {
	SummaryShort string   `json:"summary_short"`
	Sentiment    string   `json:"sentiment"`
	KeyThemes    []string `json:"key_themes"`
}

type NarrativeResponse struct {
	ID              string   `json:"id"`
	SectorID        string   `json:"sector_id"`
	SummaryShort    string   `json:"summary_short"`
	SummaryFull     string   `json:"summary_full"`
	KeyThemes       []string `json:"key_themes"`
	IRTalkingPoints []string `json:"ir_talking_points"`
	Sentiment       string   `json:"sentiment"`
	SignalCount     int      `json:"signal_count"`
	CreatedAt       string   `json:"created_at"`
}

type SignalResponse struct {
	ID                 string  `json:"id"`
	ArticleID          string  `json:"article_id"`
	SectorID           string  `json:"sector_id"`
	Summary            string  `json:"summary"`
	SignalType         string  `json:"signal_type"`
	Sentiment          string  `json:"sentiment"`
	IRRelevance        float64 `json:"ir_relevance"`
	CreatedAt          string  `json:"created_at"`
	ArticleTitle       string  `json:"article_title"`
	ArticleURL         string  `json:"article_url"`
	ArticleSource      string  `json:"article_source"`
	ArticlePublishedAt *string `json:"article_published_at"`
}

type SectorResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	GICSCode  string `json:"gics_code"`
	ETFTicker string `json:"etf_ticker"`
}

// SectorSummaryResponse is one row of the dashboard list: identity plus
// financials, non-neutral signal count, and the latest narrative teaser.
type SectorSummaryResponse struct {
	ID          string                    `json:"id"`
	Name        string                    `json:"name"`
	GICSCode    string                    `json:"gics_code"`
	ETFTicker   string                    `json:"etf_ticker"`
	Financials  *FinancialsResponse       `json:"financials"`
	SignalCount int                       `json:"signal_count"`
	Narrative   *NarrativeSummaryResponse `json:"narrative"`
}

type SectorDetailResponse struct {
	Sector             SectorResponse      `json:"sector"`
	Financials         *FinancialsResponse `json:"financials"`
	Narrative          *NarrativeResponse  `json:"narrative"`
	Signals            []SignalResponse    `json:"signals"`
	SignalCountsByType map[string]int      `json:"signal_counts_by_type"`
}

// InitResponse serves the combined dashboard load, one request instead
// of N+1.
type InitResponse struct {
	Sectors         []SectorSummaryResponse `json:"sectors"`
	LastPipelineRun *string                 `json:"last_pipeline_run"`
}

type FinancialsRefreshResponse struct {
	FinancialsUpdated int `json:"financials_updated"`
}
