package feeds

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const (
	defaultBaseURL = "https://news.google.com/rss/search"
	fetchTimeout   = 15 * time.Second

	// Google News returns dozens of entries per query; only the first 10
	// are considered, the tail is mostly stale or duplicate coverage.
	maxItemsPerFeed = 10

	// Safety net on top of the when:7d query operator.
	maxItemAge = 7 * 24 * time.Hour
)

// Item is one feed entry normalized for the pipeline.
type Item struct {
	Title       string
	URL         string
	Source      string
	PublishedAt *time.Time
}

// Fetcher retrieves the current entries for one search query.
type Fetcher interface {
	Fetch(ctx context.Context, query string) ([]Item, error)
}

// GoogleNewsClient fetches Google News RSS search results.
type GoogleNewsClient struct {
	parser  *gofeed.Parser
	baseURL string
	now     func() time.Time
}

func NewGoogleNewsClient() *GoogleNewsClient {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: fetchTimeout}
	return &GoogleNewsClient{
		parser:  parser,
		baseURL: defaultBaseURL,
		now:     time.Now,
	}
}

func (c *GoogleNewsClient) Fetch(ctx context.Context, query string) ([]Item, error) {
	feedURL := fmt.Sprintf("%s?q=%s&hl=en-US&gl=US&ceid=US:en",
		c.baseURL, url.QueryEscape(query+" when:7d"))

	feed, err := c.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("google news fetch: %w", err)
	}

	cutoff := c.now().Add(-maxItemAge)

	// Cap on raw entries, then filter within that window.
	entries := feed.Items
	if len(entries) > maxItemsPerFeed {
		entries = entries[:maxItemsPerFeed]
	}

	var items []Item
	for _, entry := range entries {
		title := strings.TrimSpace(entry.Title)
		link := strings.TrimSpace(entry.Link)
		if title == "" || link == "" {
			continue
		}

		// Google News titles usually end with " - Source Name".
		var source string
		if idx := strings.LastIndex(title, " - "); idx >= 0 {
			source = strings.TrimSpace(title[idx+len(" - "):])
		}

		var publishedAt *time.Time
		if entry.PublishedParsed != nil {
			t := entry.PublishedParsed.UTC()
			publishedAt = &t
		}

		// Entries without a date are kept; the query operator already
		// bounds them loosely.
		if publishedAt != nil && publishedAt.Before(cutoff) {
			continue
		}

		items = append(items, Item{
			Title:       title,
			URL:         link,
			Source:      source,
			PublishedAt: publishedAt,
		})
	}

	return items, nil
}
