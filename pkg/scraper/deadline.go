package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// deadlinePatterns match "Deadline: March 1, 2026" style phrases in
// scraped page text. All matching is done on lowercased text.
var deadlinePatterns = []*regexp.Regexp{
	regexp.MustCompile(`deadline[:\s]+(\w+\s+\d{1,2},?\s+\d{4})`),
	regexp.MustCompile(`applications?\s+due[:\s]+(\w+\s+\d{1,2},?\s+\d{4})`),
	regexp.MustCompile(`due[:\s]+(\w+\s+\d{1,2},?\s+\d{4})`),
	regexp.MustCompile(`closes?[:\s]+(\w+\s+\d{1,2},?\s+\d{4})`),
	regexp.MustCompile(`(\w+\s+\d{1,2},?\s+\d{4})\s+deadline`),
	regexp.MustCompile(`by\s+(\w+\s+\d{1,2},?\s+\d{4})`),
}

// fundingPatterns pull award amounts like "$5,000 - $50,000" or
// "up to $25,000" out of page text.
var fundingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:receives?|award(?:ed)?|stipend|grant|fellowship)[^$€£]*?([$€£][\d,]+(?:\s*[-–]\s*[$€£]?[\d,]+)?)`),
	regexp.MustCompile(`(?i)([$€£][\d,]+(?:\s*[-–]\s*[$€£]?[\d,]+)?)\s*(?:fellowship|award|grant|stipend|prize)`),
	regexp.MustCompile(`(?i)(up to\s*[$€£][\d,]+)`),
	regexp.MustCompile(`(?i)((?:USD|EUR|GBP)\s*[\d,]+(?:\s*[-–]\s*[\d,]+)?)`),
	regexp.MustCompile(`(?i)(?:amount|funding|support|receive)[^$€£]{0,30}([$€£][\d,]+(?:\s*[-–]\s*[$€£]?[\d,]+)?)`),
}

var (
	bareAmountPattern = regexp.MustCompile(`[$€£]([\d,]+)`)
	whitespaceRun     = regexp.MustCompile(`\s+`)
)

// ParseDeadline parses a free-form deadline string. Scraped deadlines
// arrive in whatever format the source used, so parsing is fuzzy.
func ParseDeadline(s string) (time.Time, error) {
	return dateparse.ParseAny(s)
}

// IsExpired reports whether an opportunity's deadline is strictly in
// the past. Records without a parseable deadline never expire.
func IsExpired(o Opportunity, now time.Time) bool {
	if o.Deadline == "" {
		return false
	}
	t, err := ParseDeadline(o.Deadline)
	if err != nil {
		return false
	}
	return t.Before(now)
}

// ExtractDeadline finds a deadline date phrase in free text, returning
// the raw matched date string or "" when nothing matches.
func ExtractDeadline(text string) string {
	lower := strings.ToLower(text)
	for _, pattern := range deadlinePatterns {
		if m := pattern.FindStringSubmatch(lower); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// ExtractFundingAmount finds an award or stipend amount in free text.
// After the labeled patterns it falls back to any bare currency amount
// in a plausible grant range.
func ExtractFundingAmount(text string) string {
	if text == "" {
		return ""
	}

	for _, pattern := range fundingPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			return whitespaceRun.ReplaceAllString(strings.TrimSpace(m[1]), " ")
		}
	}

	for _, m := range bareAmountPattern.FindAllStringSubmatch(text, -1) {
		value, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
		if err != nil {
			continue
		}
		if value >= 1000 && value <= 500000 {
			return "$" + m[1]
		}
	}
	return ""
}
