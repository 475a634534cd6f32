package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// browserUserAgent is sent on page fetches; several funders block
// requests with a default client user agent.
const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// maxDescriptionLength caps scraped descriptions before they enter the
// dataset; pages get the full text via their source link.
const maxDescriptionLength = 500

// Source produces opportunity records from one upstream feed or page.
type Source interface {
	Name() string
	Scrape(ctx context.Context) ([]Opportunity, error)
}

// fetchDocument GETs a URL and parses the response body into a goquery
// document.
func fetchDocument(ctx context.Context, client *http.Client, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", url, err)
	}
	return doc, nil
}

// stripHTML reduces an HTML fragment to its trimmed text content.
// On parse failure the input is returned trimmed rather than dropped.
func stripHTML(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// clipDescription enforces maxDescriptionLength with an ellipsis.
func clipDescription(s string) string {
	if len(s) > maxDescriptionLength {
		return s[:maxDescriptionLength-3] + "..."
	}
	return s
}

// timestamp renders a scrape time the way the dataset stores times.
func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
