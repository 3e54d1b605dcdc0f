package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/njpastrone/industry-trend-tracker/internal/model"
)

// SectorStore is the read surface the dashboard endpoints need.
// Implemented by repository.Store; tests substitute fakes.
type SectorStore interface {
	GetSectors() ([]model.Sector, error)
	GetSector(id string) (*model.Sector, error)
	GetAllFinancials() ([]model.Financials, error)
	GetFinancials(sectorID string) (*model.Financials, error)
	GetAllLatestNarratives() (map[string]model.Narrative, error)
	GetLatestNarrative(sectorID string) (*model.Narrative, error)
	GetSectorSignals(sectorID string, filter model.SignalFilter) ([]model.SignalWithArticle, error)
	SearchSignals(filter model.SignalFilter) ([]model.SignalWithArticle, error)
}

type SectorHandler struct {
	repository SectorStore
}

func NewSectorHandler(repository SectorStore) *SectorHandler {
	return &SectorHandler{repository: repository}
}

func (h *SectorHandler) GetHealth(c *gin.Context) {
	if _, err := h.repository.GetSectors(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "disconnected",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "connected",
	})
}

// GetInit serves the combined dashboard load: every sector summary plus
// the timestamp of the newest narrative as a proxy for the last run.
func (h *SectorHandler) GetInit(c *gin.Context) {
	days := getQueryDays(c)

	sectors, err := h.buildSectorSummaries(days)
	if err != nil {
		slog.Error("error building sector summaries", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	narratives, err := h.repository.GetAllLatestNarratives()
	if err != nil {
		slog.Error("error fetching narratives", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	var lastRun *string
	var newest time.Time
	for _, n := range narratives {
		if n.CreatedAt.After(newest) {
			newest = n.CreatedAt
			formatted := n.CreatedAt.Format(time.RFC3339)
			lastRun = &formatted
		}
	}

	c.JSON(http.StatusOK, InitResponse{
		Sectors:         sectors,
		LastPipelineRun: lastRun,
	})
}

func (h *SectorHandler) GetSectors(c *gin.Context) {
	days := getQueryDays(c)

	sectors, err := h.buildSectorSummaries(days)
	if err != nil {
		slog.Error("error building sector summaries", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, sectors)
}

func (h *SectorHandler) GetSectorDetail(c *gin.Context) {
	id := c.Param("id")
	days := getQueryDays(c)

	sector, err := h.repository.GetSector(id)
	if err != nil {
		slog.Error("error fetching sector", "error", err, "sector_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if sector == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Sector not found"})
		return
	}

	financials, err := h.repository.GetFinancials(id)
	if err != nil {
		slog.Error("error fetching financials", "error", err, "sector_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	narrative, err := h.repository.GetLatestNarrative(id)
	if err != nil {
		slog.Error("error fetching narrative", "error", err, "sector_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	// Counts come from the unfiltered window; the signal list honors the
	// type and sentiment filters.
	allSignals, err := h.repository.GetSectorSignals(id, model.SignalFilter{Days: days})
	if err != nil {
		slog.Error("error fetching signals", "error", err, "sector_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	counts := make(map[string]int)
	for _, s := range allSignals {
		counts[s.SignalType]++
	}

	signalType := c.Query("signal_type")
	sentiment := c.Query("sentiment")

	filtered := allSignals
	if signalType != "" || sentiment != "" {
		filtered, err = h.repository.GetSectorSignals(id, model.SignalFilter{
			Days:       days,
			SignalType: signalType,
			Sentiment:  sentiment,
		})
		if err != nil {
			slog.Error("error fetching filtered signals", "error", err, "sector_id", id)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
	}

	res := SectorDetailResponse{
		Sector: SectorResponse{
			ID:        sector.ID,
			Name:      sector.Name,
			GICSCode:  sector.GICSCode,
			ETFTicker: sector.ETFTicker,
		},
		Financials:         toFinancialsResponse(financials),
		Narrative:          toNarrativeResponse(narrative),
		Signals:            toSignalResponses(filtered),
		SignalCountsByType: counts,
	}

	c.JSON(http.StatusOK, res)
}

// SearchSignals is the cross-sector signal search.
func (h *SectorHandler) SearchSignals(c *gin.Context) {
	filter := model.SignalFilter{
		SectorID:     c.Query("sector_id"),
		SignalType:   c.Query("signal_type"),
		Sentiment:    c.Query("sentiment"),
		MinRelevance: getQueryFloat("min_relevance", 0.5, c),
		Days:         getQueryDays(c),
		Limit:        getQueryLimit(c),
	}

	signals, err := h.repository.SearchSignals(filter)
	if err != nil {
		slog.Error("error searching signals", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, toSignalResponses(signals))
}

func (h *SectorHandler) GetSignalTypes(c *gin.Context) {
	c.JSON(http.StatusOK, model.SignalTypeDescriptions)
}

func (h *SectorHandler) buildSectorSummaries(days int) ([]SectorSummaryResponse, error) {
	sectors, err := h.repository.GetSectors()
	if err != nil {
		return nil, err
	}

	allFinancials, err := h.repository.GetAllFinancials()
	if err != nil {
		return nil, err
	}
	financialsBySector := make(map[string]model.Financials, len(allFinancials))
	for _, f := range allFinancials {
		financialsBySector[f.SectorID] = f
	}

	narratives, err := h.repository.GetAllLatestNarratives()
	if err != nil {
		return nil, err
	}

	res := make([]SectorSummaryResponse, 0, len(sectors))
	for _, s := range sectors {
		signals, err := h.repository.GetSectorSignals(s.ID, model.SignalFilter{Days: days})
		if err != nil {
			return nil, err
		}
		signalCount := 0
		for _, sig := range signals {
			if sig.SignalType != model.SignalNeutral {
				signalCount++
			}
		}

		row := SectorSummaryResponse{
			ID:          s.ID,
			Name:        s.Name,
			GICSCode:    s.GICSCode,
			ETFTicker:   s.ETFTicker,
			SignalCount: signalCount,
		}
		if f, ok := financialsBySector[s.ID]; ok {
			row.Financials = toFinancialsResponse(&f)
		}
		if n, ok := narratives[s.ID]; ok {
			row.Narrative = &NarrativeSummaryResponse{
				SummaryShort: n.SummaryShort,
				Sentiment:    n.Sentiment,
				KeyThemes:    n.KeyThemes,
			}
		}

		res = append(res, row)
	}

	return res, nil
}

func toFinancialsResponse(f *model.Financials) *FinancialsResponse {
	if f == nil {
		return nil
	}
	return &FinancialsResponse{
		SectorID:  f.SectorID,
		ETFPrice:  f.ETFPrice,
		Change7D:  f.Change7D,
		Change30D: f.Change30D,
		ChangeYTD: f.ChangeYTD,
		VsSPY7D:   f.VsSPY7D,
		VsSPY30D:  f.VsSPY30D,
		UpdatedAt: f.UpdatedAt.Format(time.RFC3339),
	}
}

func toNarrativeResponse(n *model.Narrative) *NarrativeResponse {
	if n == nil {
		return nil
	}
	return &NarrativeResponse{
		ID:              n.ID,
		SectorID:        n.SectorID,
		SummaryShort:    n.SummaryShort,
		SummaryFull:     n.SummaryFull,
		KeyThemes:       n.KeyThemes,
		IRTalkingPoints: n.IRTalkingPoints,
		Sentiment:       n.Sentiment,
		SignalCount:     n.SignalCount,
		CreatedAt:       n.CreatedAt.Format(time.RFC3339),
	}
}

func toSignalResponses(signals []model.SignalWithArticle) []SignalResponse {
	res := make([]SignalResponse, 0, len(signals))
	for _, s := range signals {
		row := SignalResponse{
			ID:            s.ID,
			ArticleID:     s.ArticleID,
			SectorID:      s.SectorID,
			Summary:       s.Summary,
			SignalType:    s.SignalType,
			Sentiment:     s.Sentiment,
			IRRelevance:   s.IRRelevance,
			CreatedAt:     s.CreatedAt.Format(time.RFC3339),
			ArticleTitle:  s.ArticleTitle,
			ArticleURL:    s.ArticleURL,
			ArticleSource: s.ArticleSource,
		}
		if s.ArticlePublishedAt != nil {
			formatted := s.ArticlePublishedAt.Format(time.RFC3339)
			row.ArticlePublishedAt = &formatted
		}
		res = append(res, row)
	}
	return res
}

func getQueryDays(c *gin.Context) int {
	const defaultDays = 7

	days := getQueryInt("days", defaultDays, c)
	if days < 1 {
		slog.Warn("invalid query parameter, using default", "param", "days", "value", days, "default", defaultDays)
		return defaultDays
	}
	return days
}

func getQueryLimit(c *gin.Context) int {
	const (
		defaultLimit = 50
		maxLimit     = 200
	)

	limit := getQueryInt("limit", defaultLimit, c)
	if limit < 1 {
		slog.Warn("invalid query parameter, using default", "param", "limit", "value", limit, "default", defaultLimit)
		return defaultLimit
	}

	if limit > maxLimit {
		slog.Warn("query parameter exceeds max, clamping", "param", "limit", "value", limit, "max", maxLimit)
		return maxLimit
	}

	return limit
}

func getQueryInt(name string, defaultValue int, c *gin.Context) int {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("invalid query parameter, using default", "param", name, "value", raw, "default", defaultValue)
		return defaultValue
	}

	return value
}

func getQueryFloat(name string, defaultValue float64, c *gin.Context) float64 {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 || value > 1 {
		slog.Warn("invalid query parameter, using default", "param", name, "value", raw, "default", defaultValue)
		return defaultValue
	}

	return value
}
