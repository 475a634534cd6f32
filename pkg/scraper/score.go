package scraper

import "strings"

// interestKeywords weight opportunities toward the topics the tracker's
// owner writes about. Higher weight means more relevant.
var interestKeywords = map[string]int{
	// Consciousness, meditation, psychedelics
	"consciousness": 10,
	"psychedelic":   10,
	"psychedelics":  10,
	"meditation":    10,
	"contemplative": 8,
	"phenomenology": 8,
	"neuroscience":  6,
	"mental health": 6,
	"philosophy":    6,
	"mind":          5,
	"brain":         5,
	"psychology":    4,

	// Political economy, anti-poverty
	"poverty":           10,
	"anti-poverty":      10,
	"economic justice":  10,
	"basic income":      10,
	"universal basic":   10,
	"ubi":               10,
	"political economy": 10,
	"inequality":        8,
	"social policy":     8,
	"welfare":           6,
	"progressive":       6,
	"economics":         5,
	"labor":             5,
	"workers":           5,
	"policy":            4,

	// Science writing
	"science":    5,
	"scientific": 4,
	"research":   3,

	// Narrative and longform
	"narrative":   4,
	"longform":    4,
	"long-form":   4,
	"literary":    4,
	"nonfiction":  3,
	"non-fiction": 3,
	"essay":       3,
	"feature":     2,
}

// usIndicators boost opportunities open to US-based applicants.
var usIndicators = []string{
	"north america", "united states", "u.s.", "us-based", "american",
}

// globalIndicators penalize opportunities restricted to other regions.
var globalIndicators = []string{
	"eastern europe", "africa", "asia", "latin america", "middle east",
	"european union", "eu countries", "ukraine", "global south",
}

const (
	usBoost           = 15
	noRegionBonus     = 5
	globalPenalty     = 5
	deadlineBonus     = 3
	fundingBonus      = 2
	titleBonusDivisor = 2
)

// Score computes a relevance score for one opportunity. Scores never
// go negative.
func Score(o Opportunity) int {
	title := strings.ToLower(o.Title)
	region := strings.ToLower(o.Region)
	text := strings.ToLower(o.Title + " " + o.Description + " " + o.Source)

	score := 0
	for keyword, weight := range interestKeywords {
		if strings.Contains(text, keyword) {
			score += weight
			// Keyword in the title is a stronger signal.
			if strings.Contains(title, keyword) {
				score += weight / titleBonusDivisor
			}
		}
	}

	usBased := false
	for _, indicator := range usIndicators {
		if strings.Contains(region, indicator) || strings.Contains(text, indicator) {
			usBased = true
			score += usBoost
			break
		}
	}

	// No stated region usually means US-based or open to US applicants.
	if strings.TrimSpace(region) == "" {
		score += noRegionBonus
	}

	if !usBased {
		for _, indicator := range globalIndicators {
			if strings.Contains(region, indicator) {
				score -= globalPenalty
				break
			}
		}
	}

	// Actionable records rank higher.
	if o.Deadline != "" {
		score += deadlineBonus
	}
	if o.FundingSize != "" {
		score += fundingBonus
	}

	if score < 0 {
		return 0
	}
	return score
}

// AddScores stamps every record with its relevance score.
func AddScores(opps []Opportunity) []Opportunity {
	for i := range opps {
		opps[i].RelevanceScore = Score(opps[i])
	}
	return opps
}
