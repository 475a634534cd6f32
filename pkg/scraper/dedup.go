package scraper

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
)

// titleSimilarityThreshold is how close two normalized titles must be
// before the records count as duplicates.
const titleSimilarityThreshold = 0.9

var nonWordChars = regexp.MustCompile(`[^\w\s]`)

// NormalizeURL canonicalizes a URL for duplicate comparison: lowercase,
// no scheme, no www prefix, no query or fragment, no trailing slash.
func NormalizeURL(raw string) string {
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(raw))
	}
	host := strings.TrimPrefix(parsed.Host, "www.")
	path := strings.TrimRight(parsed.Path, "/")
	return host + path
}

// TitleSimilarity returns a 0..1 similarity ratio between two titles,
// computed as a normalized Levenshtein distance over the titles with
// punctuation stripped and case folded.
func TitleSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	na := normalizeTitle(a)
	nb := normalizeTitle(b)
	longest := max(len([]rune(na)), len([]rune(nb)))
	if longest == 0 {
		return 0
	}
	distance := levenshtein.ComputeDistance(na, nb)
	return 1 - float64(distance)/float64(longest)
}

func normalizeTitle(s string) string {
	return strings.TrimSpace(nonWordChars.ReplaceAllString(strings.ToLower(s), ""))
}

// IsDuplicate reports whether two records describe the same
// opportunity, by normalized URL equality or near-identical titles.
func IsDuplicate(a, b Opportunity) bool {
	if a.URL != "" && b.URL != "" && NormalizeURL(a.URL) == NormalizeURL(b.URL) {
		return true
	}
	return TitleSimilarity(a.Title, b.Title) >= titleSimilarityThreshold
}

// Deduplicate returns the records from opps that match nothing in
// existing and nothing accepted earlier in the same batch.
func Deduplicate(opps, existing []Opportunity) []Opportunity {
	seen := make([]Opportunity, len(existing))
	copy(seen, existing)

	var unique []Opportunity
	for _, opp := range opps {
		duplicate := false
		for _, other := range seen {
			if IsDuplicate(opp, other) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			unique = append(unique, opp)
			seen = append(seen, opp)
		}
	}
	return unique
}
