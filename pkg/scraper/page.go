package scraper

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// listing page selectors shared by the aggregator sources; the cards
// differ per site but these cover the layouts we scrape.
const (
	listingCardSelector  = "article, .resource-card, .post-card, .listing-item"
	listingTitleSelector = "h2, h3, .title, a"
	listingDescSelector  = "p, .excerpt, .description"
)

// ListingSource scrapes an aggregator page that lists many
// opportunities as cards (GIJN, GFMD, and similar directories).
type ListingSource struct {
	SourceName string
	PageURL    string
	Type       string

	client *http.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewListingSource creates an aggregator page source.
func NewListingSource(name, url, oppType string, client *http.Client, logger *slog.Logger) *ListingSource {
	return &ListingSource{
		SourceName: name,
		PageURL:    url,
		Type:       oppType,
		client:     client,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *ListingSource) Name() string { return s.SourceName }

// Scrape fetches the listing page and produces one record per card
// that has a title. Cards without links or descriptions still count;
// the record simply carries less detail.
func (s *ListingSource) Scrape(ctx context.Context) ([]Opportunity, error) {
	doc, err := fetchDocument(ctx, s.client, s.PageURL)
	if err != nil {
		return nil, err
	}

	scrapedAt := timestamp(s.now())
	var opportunities []Opportunity

	doc.Find(listingCardSelector).Each(func(_ int, card *goquery.Selection) {
		title := strings.TrimSpace(card.Find(listingTitleSelector).First().Text())
		if title == "" {
			return
		}
		url, _ := card.Find("a[href]").First().Attr("href")
		description := strings.TrimSpace(card.Find(listingDescSelector).First().Text())

		opportunities = append(opportunities, Opportunity{
			Title:       title,
			URL:         url,
			Description: clipDescription(description),
			Source:      s.SourceName,
			SourceURL:   s.PageURL,
			Type:        s.Type,
			ScrapedAt:   scrapedAt,
			Deadline:    ExtractDeadline(description),
		})
	})

	s.logger.Debug("Listing scraped", "source", s.SourceName, "cards", len(opportunities))
	return opportunities, nil
}

// DirectSource scrapes a single organization's page for one curated
// opportunity. Curated Known* fields override whatever the page
// yields, and SkipFilter marks general-purpose funders that would
// otherwise fail the journalism relevance filter.
type DirectSource struct {
	SourceName       string
	PageURL          string
	Type             string
	KnownAmount      string
	KnownDeadline    string
	KnownDescription string
	KnownEligibility string
	SkipFilter       bool

	client *http.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewDirectSource creates a direct page source.
func NewDirectSource(src DirectSource, client *http.Client, logger *slog.Logger) *DirectSource {
	src.client = client
	src.logger = logger
	src.now = time.Now
	return &src
}

func (s *DirectSource) Name() string { return s.SourceName }

// Scrape fetches the organization page and extracts a single record.
// A fetch failure is not fatal: the source degrades to a stub record
// pointing at the page, with the error recorded on it, so the site
// still lists the opportunity.
func (s *DirectSource) Scrape(ctx context.Context) ([]Opportunity, error) {
	scrapedAt := timestamp(s.now())

	doc, err := fetchDocument(ctx, s.client, s.PageURL)
	if err != nil {
		s.logger.Warn("Direct source fetch failed, keeping stub record",
			"source", s.SourceName, "error", err)
		return []Opportunity{s.stubRecord(scrapedAt, err)}, nil
	}

	title := cleanPageTitle(strings.TrimSpace(doc.Find("h1, .page-title, title").First().Text()))
	if title == "" {
		title = s.SourceName
	}

	pageText := strings.Join(strings.Fields(doc.Text()), " ")

	description := ""
	if content := doc.Find("main, .content, article, #content").First(); content.Length() > 0 {
		var paragraphs []string
		content.Find("p").EachWithBreak(func(i int, p *goquery.Selection) bool {
			paragraphs = append(paragraphs, strings.TrimSpace(p.Text()))
			return i < 1 // first two paragraphs
		})
		description = clipDescription(strings.Join(paragraphs, " "))
	}
	if s.KnownDescription != "" {
		description = s.KnownDescription
	}

	funding := ExtractFundingAmount(pageText)
	if s.KnownAmount != "" {
		funding = s.KnownAmount
	}

	// The page's own deadline wins; the curated one fills in when the
	// page doesn't state a date in extractable form.
	deadline := ExtractDeadline(pageText)
	if deadline == "" {
		deadline = s.KnownDeadline
	}

	opp := Opportunity{
		Title:        title,
		URL:          s.PageURL,
		Description:  description,
		Source:       s.SourceName,
		SourceURL:    s.PageURL,
		Type:         s.Type,
		ScrapedAt:    scrapedAt,
		Deadline:     deadline,
		FundingSize:  funding,
		Eligibility:  s.KnownEligibility,
		BypassFilter: s.SkipFilter,
	}
	return []Opportunity{opp}, nil
}

func (s *DirectSource) stubRecord(scrapedAt string, err error) Opportunity {
	description := s.KnownDescription
	if description == "" {
		description = "Visit " + s.PageURL + " for more information."
	}
	return Opportunity{
		Title:        s.SourceName,
		URL:          s.PageURL,
		Description:  description,
		Source:       s.SourceName,
		SourceURL:    s.PageURL,
		Type:         s.Type,
		ScrapedAt:    scrapedAt,
		Deadline:     s.KnownDeadline,
		FundingSize:  s.KnownAmount,
		Eligibility:  s.KnownEligibility,
		BypassFilter: s.SkipFilter,
		ScrapeError:  err.Error(),
	}
}

// cleanPageTitle strips site-name suffixes from <title> style text.
func cleanPageTitle(title string) string {
	for _, sep := range []string{" | ", " - "} {
		if idx := strings.Index(title, sep); idx > 0 {
			title = title[:idx]
		}
	}
	return strings.TrimSpace(title)
}
