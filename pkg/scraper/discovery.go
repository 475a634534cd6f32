package scraper

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DiscoveredSourcesFile records every page the discovery pass has
// found and analyzed, relative to the data dir.
const DiscoveredSourcesFile = "discovered_sources.json"

// maxDiscoveryCandidates caps how many new pages one run analyzes.
const maxDiscoveryCandidates = 20

// aggregatorIndicators mark pages that list many opportunities.
var aggregatorIndicators = []string{
	"list of", "directory", "database", "opportunities", "grants available",
	"fellowships for", "funding opportunities", "resources for journalists",
	"grants for journalists", "journalism fellowships", "apply now",
	"upcoming deadlines", "open calls",
}

// opportunityIndicators mark pages describing a single opportunity.
var opportunityIndicators = []string{
	"apply", "application", "deadline", "eligibility", "how to apply",
	"submit", "fellowship program", "grant program", "award program",
	"stipend", "funding amount",
}

// discoveryLinkTerms are the anchor texts worth following from a seed.
var discoveryLinkTerms = []string{
	"fellowship", "grant", "funding", "opportunity", "apply", "program", "award",
}

// skipDomains are never worth analyzing: social media, search engines,
// and other generic sites that only produce noise.
var skipDomains = map[string]struct{}{
	"facebook.com": {}, "twitter.com": {}, "x.com": {}, "linkedin.com": {},
	"instagram.com": {}, "youtube.com": {}, "tiktok.com": {}, "reddit.com": {},
	"pinterest.com": {}, "amazon.com": {}, "ebay.com": {}, "wikipedia.org": {},
	"wikimedia.org": {}, "google.com": {}, "bing.com": {}, "yahoo.com": {},
	"medium.com": {},
}

// trustedDomains are established journalism organizations; pages on
// them start with a higher trust score.
var trustedDomains = map[string]struct{}{
	"journalism.org": {}, "nieman.harvard.edu": {}, "pulitzercenter.org": {},
	"ijnet.org": {}, "gijn.org": {}, "spj.org": {}, "ona.org": {},
	"poynter.org": {}, "cjr.org": {}, "niemanlab.org": {},
	"journalismfund.eu": {}, "journalism.co.uk": {}, "fij.org": {},
}

const (
	trustScoreTrusted = 10
	trustScoreDefault = 5
)

// DiscoveredSource is one analyzed candidate page.
type DiscoveredSource struct {
	URL           string `json:"url"`
	Title         string `json:"title,omitempty"`
	Description   string `json:"description,omitempty"`
	Domain        string `json:"domain"`
	PageType      string `json:"page_type"`
	TrustScore    int    `json:"trust_score"`
	ExternalLinks int    `json:"external_link_count"`
	DiscoveredAt  string `json:"discovered_at"`
}

// DiscoverySource crawls seed pages for links to sources the scraper
// doesn't know yet, analyzes the candidates, and persists what it
// finds. Candidates already in the store's known-source registry are
// skipped, and every new discovery is registered there so later runs
// don't re-analyze it. Pages that look like a single opportunity are
// returned as records, so discoveries flow through the same filter,
// dedup, and scoring pipeline as every other source.
type DiscoverySource struct {
	Seeds   []string
	DataDir string

	store  *Store
	client *http.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewDiscoverySource creates a discovery pass over the given seeds.
func NewDiscoverySource(seeds []string, dataDir string, store *Store, client *http.Client, logger *slog.Logger) *DiscoverySource {
	return &DiscoverySource{
		Seeds:   seeds,
		DataDir: dataDir,
		store:   store,
		client:  client,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *DiscoverySource) Name() string { return "Source Discovery" }

// Scrape runs one discovery pass and returns opportunity records for
// the candidate pages that describe a single opportunity. A seed that
// fails to fetch is logged and skipped.
func (s *DiscoverySource) Scrape(ctx context.Context) ([]Opportunity, error) {
	known, err := s.store.KnownSources(ctx)
	if err != nil {
		return nil, err
	}

	discoveredPath := filepath.Join(s.DataDir, DiscoveredSourcesFile)
	existing, err := loadDiscoveredSources(discoveredPath)
	if err != nil {
		return nil, err
	}
	existingURLs := make(map[string]struct{}, len(existing))
	for _, d := range existing {
		existingURLs[d.URL] = struct{}{}
	}

	var candidates []string
	seen := make(map[string]struct{})
	for _, seed := range s.Seeds {
		links, err := s.crawlSeed(ctx, seed)
		if err != nil {
			s.logger.Warn("Discovery seed crawl failed", "seed", seed, "error", err)
			continue
		}
		for _, link := range links {
			if _, dup := seen[link]; dup {
				continue
			}
			if _, found := existingURLs[link]; found {
				continue
			}
			if shouldSkipURL(link, known) {
				continue
			}
			seen[link] = struct{}{}
			candidates = append(candidates, link)
		}
	}
	if len(candidates) > maxDiscoveryCandidates {
		candidates = candidates[:maxDiscoveryCandidates]
	}
	s.logger.Info("Analyzing discovery candidates", "seeds", len(s.Seeds), "candidates", len(candidates))

	scrapedAt := timestamp(s.now())
	var discoveries []DiscoveredSource
	var opportunities []Opportunity
	for _, candidate := range candidates {
		result, err := s.analyzePage(ctx, candidate)
		if err != nil {
			s.logger.Debug("Discovery candidate fetch failed", "url", candidate, "error", err)
			continue
		}
		if result == nil {
			continue
		}
		s.logger.Debug("Discovered source", "url", result.URL, "type", result.PageType, "trust", result.TrustScore)
		discoveries = append(discoveries, *result)

		if err = s.store.TouchSource(ctx, result.URL, s.now()); err != nil {
			s.logger.Warn("Failed to register discovered source", "url", result.URL, "error", err)
		}

		if result.PageType == "opportunity" {
			opportunities = append(opportunities, Opportunity{
				Title:       result.Title,
				URL:         result.URL,
				Description: result.Description,
				Source:      "Discovered: " + result.Domain,
				SourceURL:   result.URL,
				Type:        "opportunity",
				ScrapedAt:   scrapedAt,
			})
		}
	}

	merged := append(existing, discoveries...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].TrustScore > merged[j].TrustScore
	})
	if err = saveDiscoveredSources(discoveredPath, merged); err != nil {
		return nil, err
	}

	s.logger.Info("Discovery pass complete", "new", len(discoveries), "total", len(merged), "opportunities", len(opportunities))
	return opportunities, nil
}

// crawlSeed collects the outbound links on one seed page whose anchor
// text suggests an opportunity or funding source.
func (s *DiscoverySource) crawlSeed(ctx context.Context, seed string) ([]string, error) {
	doc, err := fetchDocument(ctx, s.client, seed)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(seed)
	if err != nil {
		return nil, err
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		text := strings.ToLower(strings.TrimSpace(a.Text()))
		if !containsAny(text, discoveryLinkTerms) {
			return
		}
		href, _ := a.Attr("href")
		resolved, err := base.Parse(href)
		if err != nil {
			return
		}
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		resolved.Fragment = ""
		links = append(links, resolved.String())
	})
	return links, nil
}

// analyzePage classifies one candidate page. It returns nil for pages
// with no journalism or funding relevance.
func (s *DiscoverySource) analyzePage(ctx context.Context, pageURL string) (*DiscoveredSource, error) {
	doc, err := fetchDocument(ctx, s.client, pageURL)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	description, _ := doc.Find(`meta[name="description"]`).Attr("content")
	text := strings.ToLower(title + " " + description + " " + strings.Join(strings.Fields(doc.Text()), " "))

	if !containsAny(text, []string{"journalism", "journalist", "fellowship", "grant", "reporting", "investigative"}) {
		return nil, nil
	}

	aggregatorScore := countMatches(text, aggregatorIndicators)
	opportunityScore := countMatches(text, opportunityIndicators)
	externalLinks := countExternalLinks(doc, pageURL)

	pageType := "unknown"
	switch {
	case aggregatorScore > opportunityScore && externalLinks > 5:
		pageType = "aggregator"
	case opportunityScore > 0:
		pageType = "opportunity"
	}

	domain := urlDomain(pageURL)
	trust := trustScoreDefault
	if _, ok := trustedDomains[domain]; ok {
		trust = trustScoreTrusted
	}

	return &DiscoveredSource{
		URL:           pageURL,
		Title:         clipDescription(title),
		Description:   clipDescription(description),
		Domain:        domain,
		PageType:      pageType,
		TrustScore:    trust,
		ExternalLinks: externalLinks,
		DiscoveredAt:  timestamp(s.now()),
	}, nil
}

// shouldSkipURL filters out candidates on noise domains and pages the
// known-source registry already covers.
func shouldSkipURL(raw string, known map[string]struct{}) bool {
	if _, ok := known[raw]; ok {
		return true
	}
	if _, ok := skipDomains[urlDomain(raw)]; ok {
		return true
	}
	return false
}

func urlDomain(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
}

func countMatches(text string, keywords []string) int {
	count := 0
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			count++
		}
	}
	return count
}

func countExternalLinks(doc *goquery.Document, pageURL string) int {
	domain := urlDomain(pageURL)
	count := 0
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if strings.HasPrefix(href, "http") && urlDomain(href) != domain {
			count++
		}
	})
	return count
}

func loadDiscoveredSources(path string) ([]DiscoveredSource, error) {
	var discovered []DiscoveredSource
	if err := loadJSONFile(path, &discovered); err != nil {
		return nil, err
	}
	return discovered, nil
}

func saveDiscoveredSources(path string, discovered []DiscoveredSource) error {
	return saveJSONFile(path, discovered)
}
