package market

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const yahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// YahooClient fetches daily closes from the Yahoo Finance chart endpoint.
// Default provider: free, no API key.
type YahooClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewYahooClient() *YahooClient {
	return &YahooClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    yahooBaseURL,
	}
}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
	} `json:"chart"`
}

func (c *YahooClient) Closes(ctx context.Context, symbols []string) (map[string][]Candle, error) {
	result := make(map[string][]Candle, len(symbols))
	var lastErr error

	for _, symbol := range symbols {
		candles, err := c.fetchSymbol(ctx, symbol)
		if err != nil {
			slog.Warn("yahoo fetch failed", "symbol", symbol, "error", err)
			lastErr = err
			continue
		}
		result[symbol] = candles
	}

	if len(result) == 0 && lastErr != nil {
		return nil, lastErr
	}

	return result, nil
}

func (c *YahooClient) fetchSymbol(ctx context.Context, symbol string) ([]Candle, error) {
	url := fmt.Sprintf("%s/%s?interval=1d&range=6mo", c.baseURL, symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var apiResp yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, err
	}

	if len(apiResp.Chart.Result) == 0 || len(apiResp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no data in response")
	}

	result := apiResp.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	var candles []Candle
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == 0 {
			continue
		}
		candles = append(candles, Candle{
			Date:  time.Unix(ts, 0).UTC(),
			Close: quote.Close[i],
		})
	}

	return candles, nil
}
