package scraper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

// Opportunity is one scraped fellowship, grant, or award. JSON field
// names match the dataset consumed by the site generator, so a record
// round-trips between the scraper and the site untouched.
type Opportunity struct {
	Title          string `json:"title"`
	URL            string `json:"url,omitempty"`
	Description    string `json:"description,omitempty"`
	Source         string `json:"source"`
	SourceURL      string `json:"source_url,omitempty"`
	Type           string `json:"type,omitempty"`
	ScrapedAt      string `json:"scraped_at,omitempty"`
	PublishedAt    string `json:"published_at,omitempty"`
	Deadline       string `json:"deadline,omitempty"`
	FundingSize    string `json:"funding_size,omitempty"`
	Eligibility    string `json:"eligibility,omitempty"`
	Region         string `json:"region,omitempty"`
	RelevanceScore int    `json:"relevance_score,omitempty"`
	ArchivedAt     string `json:"archived_at,omitempty"`

	// BypassFilter marks curated records that skip the relevance
	// filter, e.g. general-purpose grants that fund writing projects.
	BypassFilter bool `json:"bypass_filter,omitempty"`

	// ScrapeError is set on stub records produced when a direct
	// source could not be fetched.
	ScrapeError string `json:"scrape_error,omitempty"`
}

// matchText is the lowercased text the filter and scorer match
// keywords against.
func (o Opportunity) matchText() string {
	return strings.ToLower(o.Title + " " + o.Description + " " + o.Type)
}

// LoadOpportunities reads a JSON opportunity file. A missing file
// yields an empty list, matching the site loader's contract.
func LoadOpportunities(path string) ([]Opportunity, error) {
	opps := []Opportunity{}
	if err := loadJSONFile(path, &opps); err != nil {
		return nil, err
	}
	return opps, nil
}

// SaveOpportunities writes an opportunity file atomically, creating
// the parent directory if needed.
func SaveOpportunities(path string, opps []Opportunity) error {
	return saveJSONFile(path, opps)
}

// loadJSONFile reads a JSON data file into v. A missing file leaves v
// untouched and is not an error.
func loadJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err = json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// saveJSONFile writes a JSON data file atomically, creating the parent
// directory if needed.
func saveJSONFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
