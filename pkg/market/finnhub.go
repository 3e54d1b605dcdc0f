package market

import (
	"context"
	"log/slog"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"
)

// FinnhubClient is the alternate provider, selected when FINNHUB_API_KEY
// is configured.
type FinnhubClient struct {
	client *finnhub.DefaultApiService
}

func NewFinnhubClient(apiKey string) *FinnhubClient {
	cfg := finnhub.NewConfiguration()
	cfg.AddDefaultHeader("X-Finnhub-Token", apiKey)
	client := finnhub.NewAPIClient(cfg).DefaultApi
	return &FinnhubClient{client: client}
}

func (c *FinnhubClient) Closes(ctx context.Context, symbols []string) (map[string][]Candle, error) {
	to := time.Now()
	from := to.AddDate(0, -6, 0)

	result := make(map[string][]Candle, len(symbols))
	var lastErr error

	for _, symbol := range symbols {
		res, _, err := c.client.StockCandles(ctx).
			Symbol(symbol).
			Resolution("D").
			From(from.Unix()).
			To(to.Unix()).
			Execute()
		if err != nil {
			slog.Warn("finnhub fetch failed", "symbol", symbol, "error", err)
			lastErr = err
			continue
		}

		if res.GetS() != "ok" {
			slog.Warn("finnhub returned no data", "symbol", symbol, "status", res.GetS())
			continue
		}

		closes := res.GetC()
		timestamps := res.GetT()

		var candles []Candle
		for i, ts := range timestamps {
			if i >= len(closes) || closes[i] == 0 {
				continue
			}
			candles = append(candles, Candle{
				Date:  time.Unix(ts, 0).UTC(),
				Close: float64(closes[i]),
			})
		}
		result[symbol] = candles
	}

	if len(result) == 0 && lastErr != nil {
		return nil, lastErr
	}

	return result, nil
}
