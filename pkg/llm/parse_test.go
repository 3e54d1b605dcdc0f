package llm

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestCleanJSONResponse(t *testing.T) {
	cases := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name:     "plain json untouched",
			content:  `{"results": []}`,
			expected: `{"results": []}`,
		},
		{
			name:     "json code fence stripped",
			content:  "```json\n{\"results\": []}\n```",
			expected: `{"results": []}`,
		},
		{
			name:     "bare code fence stripped",
			content:  "```\n{\"results\": []}\n```",
			expected: `{"results": []}`,
		},
		{
			name:     "surrounding prose trimmed",
			content:  "Here is the classification:\n{\"results\": []}\nLet me know if you need more.",
			expected: `{"results": []}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, cleanJSONResponse(tc.content))
		})
	}
}

func TestParseClassification(t *testing.T) {
	content := `{"results": [
		{"headline_index": 0, "summary": "Sector-wide rule change.", "signal_type": "regulatory", "sentiment": "negative", "ir_relevance": 0.8},
		{"headline_index": 1, "summary": "Single-company story."},
		{"headline_index": 9, "summary": "Out of range."},
		{"summary": "Missing index."}
	]}`

	results, err := parseClassification(content, 3)
	assert.Equal(t, err, nil)
	assert.Equal(t, 2, len(results))

	assert.Equal(t, 0, results[0].HeadlineIndex)
	assert.Equal(t, "regulatory", results[0].SignalType)
	assert.Equal(t, "negative", results[0].Sentiment)
	assert.Equal(t, 0.8, results[0].IRRelevance)

	// Missing fields default to neutral / neutral / 0.0.
	assert.Equal(t, 1, results[1].HeadlineIndex)
	assert.Equal(t, "neutral", results[1].SignalType)
	assert.Equal(t, "neutral", results[1].Sentiment)
	assert.Equal(t, 0.0, results[1].IRRelevance)
}

func TestParseClassificationFenced(t *testing.T) {
	content := "```json\n{\"results\": [{\"headline_index\": 0, \"signal_type\": \"macro_economic\", \"sentiment\": \"positive\", \"ir_relevance\": 0.5}]}\n```"

	results, err := parseClassification(content, 1)
	assert.Equal(t, err, nil)
	assert.Equal(t, 1, len(results))
	assert.Equal(t, "macro_economic", results[0].SignalType)
}

func TestParseClassificationMissingResults(t *testing.T) {
	_, err := parseClassification(`{"classifications": []}`, 8)
	assert.NotEqual(t, err, nil)
}

func TestParseClassificationInvalidJSON(t *testing.T) {
	_, err := parseClassification("the model refused to answer", 8)
	assert.NotEqual(t, err, nil)
}

func TestParseNarrative(t *testing.T) {
	content := `{
		"summary_short": "FDA pricing rules dominate the week.",
		"summary_full": "The FDA's proposed pricing framework...",
		"key_themes": ["Drug pricing overhaul", "Compliance cost pressure"],
		"ir_talking_points": ["We expect limited near-term margin impact."],
		"sentiment": "negative"
	}`

	result, err := parseNarrative(content)
	assert.Equal(t, err, nil)
	assert.Equal(t, "FDA pricing rules dominate the week.", result.SummaryShort)
	assert.Equal(t, 2, len(result.KeyThemes))
	assert.Equal(t, "negative", result.Sentiment)
}

func TestParseNarrativeDefaultsSentiment(t *testing.T) {
	result, err := parseNarrative(`{"summary_short": "Quiet week."}`)
	assert.Equal(t, err, nil)
	assert.Equal(t, "neutral", result.Sentiment)
}

func TestBuildClassificationPromptIndexesHeadlines(t *testing.T) {
	prompt := buildClassificationPrompt(ClassificationPromptTemplate, "Health Care",
		[]string{"First headline", "Second headline"}, mustDate(t, "2026-08-28"))

	assert.Equal(t, true, contains(prompt, "[0] First headline"))
	assert.Equal(t, true, contains(prompt, "[1] Second headline"))
	assert.Equal(t, true, contains(prompt, "Health Care"))
	assert.Equal(t, true, contains(prompt, "2026-08-28"))
}

func TestBuildNarrativePromptMissingMetrics(t *testing.T) {
	change := 2.5
	prompt := buildNarrativePrompt(NarrativePromptTemplate, NarrativeInput{
		SectorName: "Energy",
		ETFTicker:  "XLE",
		Signals:    []SignalLine{{SignalType: "regulatory", Sentiment: "negative", Summary: "New emissions rule."}},
		Change7D:   &change,
	}, mustDate(t, "2026-08-28"))

	assert.Equal(t, true, contains(prompt, "- [regulatory] [negative] New emissions rule."))
	assert.Equal(t, true, contains(prompt, "7D performance: 2.5%"))
	assert.Equal(t, true, contains(prompt, "30D performance: N/A"))
	assert.Equal(t, true, contains(prompt, "vs S&P 500 (30D): N/A"))
}
