package scraper

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const testFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Wild Writing</title>
    <item>
      <title>New Essay Fellowship Open</title>
      <link>https://example.org/essay-fellowship</link>
      <description>&lt;p&gt;A &lt;b&gt;fellowship&lt;/b&gt; for essayists.&lt;/p&gt;</description>
      <pubDate>Mon, 02 Feb 2026 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title></title>
      <link>https://example.org/untitled</link>
    </item>
  </channel>
</rss>`

func TestFeedSource_Scrape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = io.WriteString(w, testFeedXML)
	}))
	defer server.Close()

	src := NewFeedSource("Wild Writing", server.URL, "newsletter", server.Client(), testLogger())
	got, err := src.Scrape(context.Background())
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record (untitled entries skipped), got %d", len(got))
	}

	opp := got[0]
	if opp.Title != "New Essay Fellowship Open" {
		t.Errorf("unexpected title %q", opp.Title)
	}
	if opp.URL != "https://example.org/essay-fellowship" {
		t.Errorf("unexpected url %q", opp.URL)
	}
	if opp.Description != "A fellowship for essayists." {
		t.Errorf("description HTML was not stripped: %q", opp.Description)
	}
	if opp.PublishedAt == "" {
		t.Error("published date was not captured")
	}
	if opp.Source != "Wild Writing" || opp.Type != "newsletter" {
		t.Errorf("source metadata missing: %+v", opp)
	}
}

const testListingHTML = `<html><body>
<article>
  <h3>Accountability Reporting Grant</h3>
  <a href="https://example.org/accountability">Apply</a>
  <p>Supports watchdog journalism. Deadline: May 1, 2026.</p>
</article>
<article>
  <h3></h3>
  <p>Card without a title is skipped.</p>
</article>
<div class="listing-item">
  <h2>Longform Fellowship</h2>
  <a href="https://example.org/longform">Details</a>
</div>
</body></html>`

func TestListingSource_Scrape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, testListingHTML)
	}))
	defer server.Close()

	src := NewListingSource("GIJN", server.URL, "grant/fellowship", server.Client(), testLogger())
	got, err := src.Scrape(context.Background())
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(got), got)
	}

	first := got[0]
	if first.Title != "Accountability Reporting Grant" {
		t.Errorf("unexpected title %q", first.Title)
	}
	if first.URL != "https://example.org/accountability" {
		t.Errorf("unexpected url %q", first.URL)
	}
	if first.Deadline != "may 1, 2026" {
		t.Errorf("deadline was not extracted from the card text, got %q", first.Deadline)
	}
	if got[1].Title != "Longform Fellowship" {
		t.Errorf("unexpected second record: %+v", got[1])
	}
}

const testDirectHTML = `<html>
<head><title>Creative Nonfiction Grant | Whiting Foundation</title></head>
<body>
<main>
  <h1>Creative Nonfiction Grant</h1>
  <p>The grant of $40,000 supports writers at work on a book.</p>
  <p>Applications due June 1, 2026.</p>
  <p>This third paragraph is not part of the description.</p>
</main>
</body></html>`

func TestDirectSource_Scrape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, testDirectHTML)
	}))
	defer server.Close()

	src := NewDirectSource(DirectSource{
		SourceName: "Whiting Foundation",
		PageURL:    server.URL,
		Type:       "grant",
	}, server.Client(), testLogger())

	got, err := src.Scrape(context.Background())
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}

	opp := got[0]
	if opp.Title != "Creative Nonfiction Grant" {
		t.Errorf("unexpected title %q", opp.Title)
	}
	if !strings.Contains(opp.Description, "supports writers") {
		t.Errorf("description missing page text: %q", opp.Description)
	}
	if strings.Contains(opp.Description, "third paragraph") {
		t.Errorf("description should stop after two paragraphs: %q", opp.Description)
	}
	if opp.FundingSize != "$40,000" {
		t.Errorf("funding amount not extracted, got %q", opp.FundingSize)
	}
	if opp.Deadline != "june 1, 2026" {
		t.Errorf("deadline not extracted, got %q", opp.Deadline)
	}
}

const testDirectNoDeadlineHTML = `<html>
<head><title>Rolling Fellowship</title></head>
<body><main>
<p>A fellowship for reporters covering local government.</p>
<p>Applications are reviewed on a rolling basis.</p>
</main></body></html>`

func TestDirectSource_KnownDeadline(t *testing.T) {
	t.Run("fallback when page has none", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, testDirectNoDeadlineHTML)
		}))
		defer server.Close()

		src := NewDirectSource(DirectSource{
			SourceName:    "Berkeley BCSP Ferriss Fellowship",
			PageURL:       server.URL,
			Type:          "fellowship",
			KnownDeadline: "January 31, 2026",
		}, server.Client(), testLogger())

		got, err := src.Scrape(context.Background())
		if err != nil {
			t.Fatalf("Scrape failed: %v", err)
		}
		if got[0].Deadline != "January 31, 2026" {
			t.Errorf("curated deadline should fill in, got %q", got[0].Deadline)
		}
	})

	t.Run("page deadline wins", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, testDirectHTML)
		}))
		defer server.Close()

		src := NewDirectSource(DirectSource{
			SourceName:    "Whiting Foundation",
			PageURL:       server.URL,
			Type:          "grant",
			KnownDeadline: "January 31, 2026",
		}, server.Client(), testLogger())

		got, err := src.Scrape(context.Background())
		if err != nil {
			t.Fatalf("Scrape failed: %v", err)
		}
		if got[0].Deadline != "june 1, 2026" {
			t.Errorf("extracted deadline should win over the curated one, got %q", got[0].Deadline)
		}
	})
}

func TestDirectSource_ScrapeFailureKeepsStub(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	src := NewDirectSource(DirectSource{
		SourceName:       "Emergent Ventures",
		PageURL:          server.URL,
		Type:             "grant",
		KnownAmount:      "$1,000 - $50,000",
		KnownDeadline:    "December 31, 2026",
		KnownDescription: "Fast grants for ideas that improve society.",
		SkipFilter:       true,
	}, server.Client(), testLogger())

	got, err := src.Scrape(context.Background())
	if err != nil {
		t.Fatalf("a failed fetch should degrade to a stub, not error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 stub record, got %d", len(got))
	}

	stub := got[0]
	if stub.ScrapeError == "" {
		t.Error("stub record should carry the scrape error")
	}
	if stub.Title != "Emergent Ventures" || stub.FundingSize != "$1,000 - $50,000" {
		t.Errorf("stub record lost curated fields: %+v", stub)
	}
	if stub.Deadline != "December 31, 2026" {
		t.Errorf("stub record lost its curated deadline: %q", stub.Deadline)
	}
	if !stub.BypassFilter {
		t.Error("stub record should keep its filter bypass")
	}
}
