package scraper

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"
	"sort"
	"time"
)

// Config holds the scraper's configuration.
type Config struct {
	// DataDir is where opportunities.json and archive.json live.
	DataDir string `json:"data_dir"`

	// DatabasePath is the SQLite database holding the archive and
	// known-source registry.
	DatabasePath string `json:"database_path"`

	// RequestTimeoutSec bounds each upstream fetch.
	RequestTimeoutSec int `json:"request_timeout_sec"`
}

// DefaultConfig returns a scraper Config with default values.
func DefaultConfig() *Config {
	return &Config{
		DataDir:           "./data",
		DatabasePath:      "./data/tracker.db?_journal_mode=WAL&_busy_timeout=5000",
		RequestTimeoutSec: 30,
	}
}

// RunStats summarizes one scrape run.
type RunStats struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Scraped    int
	Relevant   int
	Added      int
	Archived   int
	Active     int
}

// DefaultSources returns the curated source set: aggregator listings,
// newsletters, and direct organization pages.
func DefaultSources(client *http.Client, logger *slog.Logger) []Source {
	sources := []Source{
		NewListingSource("GIJN", "https://gijn.org/resource/grants-fellowships/", "grant/fellowship", client, logger),
		NewListingSource("GFMD", "https://gfmd.info/fundings/", "grant/fellowship", client, logger),
		NewListingSource("FundsForWriters", "https://fundsforwriters.com/grants/", "grant", client, logger),
		NewFeedSource("Wild Writing", "https://wildwriting.substack.com/feed", "newsletter", client, logger),
	}

	direct := []DirectSource{
		{
			SourceName: "NEA Creative Writing Fellowships",
			PageURL:    "https://www.arts.gov/grants/creative-writing-fellowships",
			Type:       "fellowship",
		},
		{
			SourceName: "Whiting Foundation",
			PageURL:    "https://www.whiting.org/writers/creative-nonfiction-grant",
			Type:       "grant",
		},
		{
			SourceName: "Fund for Investigative Journalism",
			PageURL:    "https://fij.org/grants/",
			Type:       "grant",
		},
		{
			SourceName: "PEN America Literary Awards",
			PageURL:    "https://pen.org/literary-awards/",
			Type:       "award",
		},
		{
			SourceName:       "Emergent Ventures",
			PageURL:          "https://www.mercatus.org/emergent-ventures",
			Type:             "grant",
			KnownAmount:      "$1,000 - $50,000",
			KnownDescription: "Fast grants for ideas that improve society. Funds ambitious projects including journalism, media, research, and writing. Rolling applications, no restrictions on profit-making.",
			KnownEligibility: "Open globally to anyone 13+. No citizenship or residency requirements.",
			SkipFilter:       true,
		},
		{
			SourceName:       "ACX Grants",
			PageURL:          "https://www.astralcodexten.com/p/apply-for-an-acx-grant-2025",
			Type:             "grant",
			KnownAmount:      "$5,000 - $100,000",
			KnownDescription: "Annual grants from Scott Alexander's Astral Codex Ten for diverse projects including research, writing, and creative ventures.",
			KnownEligibility: "Open to anyone with a compelling project idea.",
			SkipFilter:       true,
		},
		{
			SourceName:       "1517 Fund Medici Grant",
			PageURL:          "https://www.1517fund.com/",
			Type:             "grant",
			KnownAmount:      "$1,000 - $100,000",
			KnownDescription: "Micro-grants and R&D funding for early-stage builders and researchers. Supports experimental projects, writing, and ideas outside traditional institutions.",
			KnownEligibility: "Open to young builders, researchers, and creators globally.",
			SkipFilter:       true,
		},
		{
			SourceName:       "Awesome Foundation",
			PageURL:          "https://www.awesomefoundation.org/en",
			Type:             "grant",
			KnownAmount:      "$1,000",
			KnownDescription: "Monthly micro-grants for 'awesome' projects with no strings attached. 80+ local chapters worldwide funding arts, technology, community, and creative projects.",
			KnownEligibility: "Anyone can apply - individuals, groups, or organizations.",
			SkipFilter:       true,
		},
	}
	for _, src := range direct {
		sources = append(sources, NewDirectSource(src, client, logger))
	}
	for _, src := range jschoolSources {
		sources = append(sources, NewDirectSource(src, client, logger))
	}
	return sources
}

// jschoolSources are journalism-school fellowship pages. The Known*
// fields are verified fallbacks used when a page yields no extractable
// detail; they must match the actual fellowship sites, never guesses.
var jschoolSources = []DirectSource{
	{
		SourceName:       "Berkeley BCSP Ferriss Fellowship",
		PageURL:          "https://fellowships.journalism.berkeley.edu/bcsp/",
		Type:             "fellowship",
		KnownAmount:      "$10,000",
		KnownDeadline:    "January 31, 2026",
		KnownDescription: "Reporting grants supporting in-depth print and audio journalism on the science, policy, business, and culture of psychedelics. A project of the UC Berkeley Center for the Science of Psychedelics.",
		KnownEligibility: "Open to journalists of all nationalities and backgrounds. No residency requirement.",
	},
	{
		SourceName:       "NYU Matthew Power Award",
		PageURL:          "https://journalism.nyu.edu/about-us/awards-and-fellowships/matthew-power-literary-reporting-award/",
		Type:             "award",
		KnownAmount:      "$15,000",
		KnownDescription: "Honors ambitious, unconventional long-form narrative journalism that illuminates the human condition. Named after Matthew Power, who reported on overlooked people and places.",
		KnownEligibility: "Freelance writers working on narrative nonfiction. Project must be in progress but not yet completed.",
	},
	{
		SourceName:       "Columbia Journalism Fellowships",
		PageURL:          "https://journalism.columbia.edu/fellowships",
		Type:             "fellowship",
		KnownDescription: "Multiple fellowship programs including Knight-Bagehot (business/economics journalism), Stabile Center (investigative), and international programs. Varies by specific fellowship.",
		KnownEligibility: "Varies by program. Generally requires professional journalism experience.",
	},
	{
		SourceName:       "Knight-Wallace Fellowships",
		PageURL:          "https://wallacehouse.umich.edu/knight-wallace/",
		Type:             "fellowship",
		KnownAmount:      "$75,000 stipend",
		KnownDescription: "Eight-month residential fellowship at University of Michigan for study, reflection, and collaboration. Fellows design their own course of study across all university departments.",
		KnownEligibility: "Mid-career journalists (5+ years experience) from any medium. Must be able to relocate to Ann Arbor.",
	},
	{
		SourceName:       "Nieman Fellowships",
		PageURL:          "https://nieman.harvard.edu/fellowships/",
		Type:             "fellowship",
		KnownAmount:      "$75,000 stipend",
		KnownDescription: "Academic year at Harvard for journalists to pursue any course of study. Focus on professional development and expanding intellectual horizons. Access to all Harvard courses and resources.",
		KnownEligibility: "Mid-career journalists (5+ years experience). Strong preference for working journalists. Must relocate to Cambridge, MA.",
	},
	{
		SourceName:       "USC Annenberg Fellowships",
		PageURL:          "https://annenberg.usc.edu/journalism/fellowships",
		Type:             "fellowship",
		KnownDescription: "Various fellowship programs focusing on health journalism, specialized reporting, and professional development at USC in Los Angeles.",
		KnownEligibility: "Varies by specific fellowship program.",
	},
	{
		SourceName:       "Northwestern Medill Fellowships",
		PageURL:          "https://www.medill.northwestern.edu/professional-education/",
		Type:             "fellowship",
		KnownDescription: "Programs including the O'Brien Fellowship in Public Service Journalism supporting investigative and public interest reporting projects.",
		KnownEligibility: "Working journalists. Requirements vary by specific program.",
	},
}

// Runner orchestrates one scrape cycle: collect, filter, deduplicate,
// archive expired records, score, sort, and save.
type Runner struct {
	logger  *slog.Logger
	config  *Config
	store   *Store
	sources []Source
	now     func() time.Time
}

// NewRunner creates a Runner over the given sources and store.
func NewRunner(logger *slog.Logger, config *Config, store *Store, sources []Source) *Runner {
	return &Runner{
		logger:  logger,
		config:  config,
		store:   store,
		sources: sources,
		now:     time.Now,
	}
}

// Run executes one full scrape cycle and returns its stats. A failing
// source is logged and skipped; only dataset I/O failures are fatal.
func (r *Runner) Run(ctx context.Context) (RunStats, error) {
	stats := RunStats{StartedAt: r.now()}

	oppsPath := filepath.Join(r.config.DataDir, "opportunities.json")
	existing, err := LoadOpportunities(oppsPath)
	if err != nil {
		return stats, err
	}
	r.logger.Info("Starting scrape run", "existing", len(existing), "sources", len(r.sources))

	var scraped []Opportunity
	for _, source := range r.sources {
		results, err := source.Scrape(ctx)
		if err != nil {
			r.logger.Error("Source scrape failed", "source", source.Name(), "error", err)
			continue
		}
		r.logger.Info("Source scraped", "source", source.Name(), "found", len(results))
		scraped = append(scraped, results...)

		// The discovery source registers its own finds and has no
		// single page URL of its own.
		if u := sourceURL(source); u != "" {
			if err = r.store.TouchSource(ctx, u, r.now()); err != nil {
				r.logger.Warn("Failed to update source registry", "source", source.Name(), "error", err)
			}
		}
	}
	stats.Scraped = len(scraped)

	relevant := FilterRelevant(scraped)
	stats.Relevant = len(relevant)

	added := Deduplicate(relevant, existing)
	stats.Added = len(added)

	merged := append(existing, added...)

	active, err := r.archiveExpired(ctx, merged)
	if err != nil {
		return stats, err
	}
	stats.Archived = len(merged) - len(active)
	stats.Active = len(active)

	active = AddScores(active)
	sortOpportunities(active)

	if err = SaveOpportunities(oppsPath, active); err != nil {
		return stats, err
	}

	// Export the archive alongside the active dataset so the site can
	// render an archive page without touching the database.
	archive, err := r.store.Archive(ctx)
	if err != nil {
		return stats, err
	}
	archivePath := filepath.Join(r.config.DataDir, "archive.json")
	if err = SaveOpportunities(archivePath, archive); err != nil {
		return stats, err
	}

	stats.FinishedAt = r.now()
	if err = r.store.RecordRun(ctx, stats); err != nil {
		r.logger.Warn("Failed to record run stats", "error", err)
	}

	r.logger.Info("Scrape run complete",
		"scraped", stats.Scraped,
		"relevant", stats.Relevant,
		"added", stats.Added,
		"archived", stats.Archived,
		"active", stats.Active,
		"elapsed", stats.FinishedAt.Sub(stats.StartedAt).Round(time.Millisecond))
	return stats, nil
}

// archiveExpired moves expired records into the store and returns the
// still-active remainder.
func (r *Runner) archiveExpired(ctx context.Context, opps []Opportunity) ([]Opportunity, error) {
	now := r.now()
	active := make([]Opportunity, 0, len(opps))
	for _, o := range opps {
		if !IsExpired(o, now) {
			active = append(active, o)
			continue
		}
		o.ArchivedAt = timestamp(now)
		if err := r.store.ArchiveOpportunity(ctx, o); err != nil {
			return nil, err
		}
		r.logger.Debug("Archived expired opportunity", "title", o.Title, "deadline", o.Deadline)
	}
	return active, nil
}

// sortOpportunities orders records by relevance score (high first),
// then by deadline (soonest first), with deadline-less records last.
func sortOpportunities(opps []Opportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		if opps[i].RelevanceScore != opps[j].RelevanceScore {
			return opps[i].RelevanceScore > opps[j].RelevanceScore
		}
		ti, erri := ParseDeadline(opps[i].Deadline)
		tj, errj := ParseDeadline(opps[j].Deadline)
		if (erri == nil) != (errj == nil) {
			return erri == nil
		}
		if erri != nil {
			return false
		}
		return ti.Before(tj)
	})
}

// DefaultDiscoverySeeds are the aggregator pages the discovery pass
// crawls for links to sources the scraper doesn't know yet.
func DefaultDiscoverySeeds() []string {
	return []string{
		"https://gijn.org/resource/grants-fellowships/",
		"https://gfmd.info/fundings/",
		"https://ijnet.org/en/opportunities",
		"https://www.poynter.org/fellowships/",
	}
}

// sourceURL extracts the registry URL for a source.
func sourceURL(s Source) string {
	switch src := s.(type) {
	case *FeedSource:
		return src.FeedURL
	case *ListingSource:
		return src.PageURL
	case *DirectSource:
		return src.PageURL
	default:
		return ""
	}
}
