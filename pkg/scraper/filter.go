package scraper

import "strings"

// relevantKeywords indicate an opportunity is in scope for narrative
// journalism and nonfiction.
var relevantKeywords = []string{
	"journalism", "journalist", "investigative", "reporting", "reporter",
	"nonfiction", "non-fiction", "essay", "essayist", "narrative",
	"literary", "longform", "long-form", "feature writing",
	"magazine writing", "news", "media", "documentary",
	"public interest", "accountability", "watchdog",
}

// excludeKeywords indicate genres the tracker doesn't cover. An
// excluded match can still pass when strong journalism keywords are
// also present, e.g. a fellowship open to both poets and reporters.
var excludeKeywords = []string{
	"poetry", "poet", "fiction writing", "short story", "novel",
	"screenwriting", "screenplay", "playwriting", "playwright",
	"mfa program", "mfa degree", "creative writing mfa",
	"children's book", "young adult fiction", "romance writing",
}

// journalismOverrides rescue excluded records that clearly target
// journalists anyway.
var journalismOverrides = []string{
	"journalism", "journalist", "investigative", "reporting",
}

// validTypes are the opportunity categories worth tracking even when
// no topical keyword matches.
var validTypes = []string{
	"fellowship", "grant", "award", "prize", "fund", "scholarship",
}

// IsRelevant decides whether a scraped record belongs in the dataset.
// Curated records with BypassFilter set always pass.
func IsRelevant(o Opportunity) bool {
	if o.BypassFilter {
		return true
	}
	text := o.matchText()

	for _, keyword := range excludeKeywords {
		if strings.Contains(text, keyword) && !containsAny(text, journalismOverrides) {
			return false
		}
	}

	return containsAny(text, relevantKeywords) || containsAny(text, validTypes)
}

// FilterRelevant keeps only the relevant records from a scrape batch.
func FilterRelevant(opps []Opportunity) []Opportunity {
	relevant := make([]Opportunity, 0, len(opps))
	for _, o := range opps {
		if IsRelevant(o) {
			relevant = append(relevant, o)
		}
	}
	return relevant
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
