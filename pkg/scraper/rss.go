package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// FeedSource scrapes one RSS or Atom feed. Feed entries carry no
// deadline; the relevance filter and scorer decide what survives.
type FeedSource struct {
	SourceName string
	FeedURL    string
	Type       string

	client *http.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewFeedSource creates a feed source backed by the given HTTP client.
func NewFeedSource(name, url, feedType string, client *http.Client, logger *slog.Logger) *FeedSource {
	return &FeedSource{
		SourceName: name,
		FeedURL:    url,
		Type:       feedType,
		client:     client,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *FeedSource) Name() string { return s.SourceName }

// Scrape fetches and parses the feed, producing one record per entry.
func (s *FeedSource) Scrape(ctx context.Context) ([]Opportunity, error) {
	parser := gofeed.NewParser()
	parser.Client = s.client
	parser.UserAgent = browserUserAgent

	feed, err := parser.ParseURLWithContext(s.FeedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", s.FeedURL, err)
	}

	scrapedAt := timestamp(s.now())
	var opportunities []Opportunity
	for _, entry := range feed.Items {
		if entry.Title == "" {
			continue
		}

		published := ""
		if entry.PublishedParsed != nil {
			published = timestamp(*entry.PublishedParsed)
		}

		opportunities = append(opportunities, Opportunity{
			Title:       entry.Title,
			URL:         entry.Link,
			Description: clipDescription(stripHTML(entry.Description)),
			Source:      s.SourceName,
			SourceURL:   s.FeedURL,
			Type:        s.Type,
			ScrapedAt:   scrapedAt,
			PublishedAt: published,
		})
	}

	s.logger.Debug("Feed scraped", "source", s.SourceName, "entries", len(opportunities))
	return opportunities, nil
}
