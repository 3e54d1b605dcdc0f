package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// cleanJSONResponse strips code fences and surrounding prose so the model's
// answer can be unmarshaled directly.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	// Some model responses include extra prose around JSON.
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}

type rawHeadlineResult struct {
	HeadlineIndex *int     `json:"headline_index"`
	Summary       string   `json:"summary"`
	SignalType    string   `json:"signal_type"`
	Sentiment     string   `json:"sentiment"`
	IRRelevance   *float64 `json:"ir_relevance"`
}

// parseClassification validates a classification response. A response
// without a results array is an error (the caller treats the batch as
// failed); individual results with a missing or out-of-range index are
// discarded, and missing fields default to neutral/neutral/0.0.
func parseClassification(content string, batchSize int) ([]HeadlineResult, error) {
	var parsed struct {
		Results []rawHeadlineResult `json:"results"`
	}

	cleaned := cleanJSONResponse(content)
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w, content: %s", err, cleaned)
	}

	if parsed.Results == nil {
		return nil, fmt.Errorf("response missing results array, content: %s", cleaned)
	}

	var results []HeadlineResult
	for _, raw := range parsed.Results {
		if raw.HeadlineIndex == nil || *raw.HeadlineIndex < 0 || *raw.HeadlineIndex >= batchSize {
			continue
		}

		r := HeadlineResult{
			HeadlineIndex: *raw.HeadlineIndex,
			Summary:       raw.Summary,
			SignalType:    raw.SignalType,
			Sentiment:     raw.Sentiment,
		}
		if r.SignalType == "" {
			r.SignalType = "neutral"
		}
		if r.Sentiment == "" {
			r.Sentiment = "neutral"
		}
		if raw.IRRelevance != nil {
			r.IRRelevance = *raw.IRRelevance
		}

		results = append(results, r)
	}

	return results, nil
}

func parseNarrative(content string) (*NarrativeResult, error) {
	var parsed struct {
		SummaryShort    string   `json:"summary_short"`
		SummaryFull     string   `json:"summary_full"`
		KeyThemes       []string `json:"key_themes"`
		IRTalkingPoints []string `json:"ir_talking_points"`
		Sentiment       string   `json:"sentiment"`
	}

	cleaned := cleanJSONResponse(content)
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w, content: %s", err, cleaned)
	}

	result := NarrativeResult{
		SummaryShort:    parsed.SummaryShort,
		SummaryFull:     parsed.SummaryFull,
		KeyThemes:       parsed.KeyThemes,
		IRTalkingPoints: parsed.IRTalkingPoints,
		Sentiment:       parsed.Sentiment,
	}
	if result.Sentiment == "" {
		result.Sentiment = "neutral"
	}

	return &result, nil
}
