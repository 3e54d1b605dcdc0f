package market

import (
	"context"
	"math"
	"time"
)

// Candle is one trading day's closing price.
type Candle struct {
	Date  time.Time
	Close float64
}

// Client returns roughly six months of daily closes per symbol, enough
// history for the year-to-date calculation. Symbols that could not be
// fetched are simply absent from the map.
type Client interface {
	Closes(ctx context.Context, symbols []string) (map[string][]Candle, error)
}

// Changes holds the derived performance metrics for one ticker.
type Changes struct {
	Price     float64
	Change7D  float64
	Change30D float64
	ChangeYTD float64
}

// ComputeChanges derives price performance from an ascending series of
// daily closes. 7D and 30D use trading-day approximations (5 and 21 rows);
// series shorter than the window fall back to the first close. Returns
// false when the series is too short to say anything.
func ComputeChanges(closes []Candle, now time.Time) (*Changes, bool) {
	if len(closes) < 2 {
		return nil, false
	}

	current := closes[len(closes)-1].Close

	ref7 := closes[0].Close
	if len(closes) >= 6 {
		ref7 = closes[len(closes)-6].Close
	}

	ref30 := closes[0].Close
	if len(closes) >= 22 {
		ref30 = closes[len(closes)-22].Close
	}

	if ref7 == 0 || ref30 == 0 {
		return nil, false
	}

	changes := Changes{
		Price:     round(current, 2),
		Change7D:  round((current-ref7)/ref7*100, 4),
		Change30D: round((current-ref30)/ref30*100, 4),
	}

	// YTD from the first trading day of the current year.
	year := now.Year()
	var ytdStart float64
	var ytdCount int
	for _, c := range closes {
		if c.Date.Year() != year {
			continue
		}
		if ytdCount == 0 {
			ytdStart = c.Close
		}
		ytdCount++
	}
	if ytdCount >= 2 && ytdStart != 0 {
		changes.ChangeYTD = round((current-ytdStart)/ytdStart*100, 4)
	}

	return &changes, true
}

func round(v float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}

// Round4 is exported for callers deriving relative performance.
func Round4(v float64) float64 {
	return round(v, 4)
}
