package site

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Opportunity is a single record from the JSON dataset. Records are
// externally defined and pass through to templates without validation
// or transformation, so they stay untyped.
type Opportunity = map[string]any

const (
	// OpportunitiesFile is the active dataset, relative to the data dir.
	OpportunitiesFile = "opportunities.json"

	// ArchiveFile holds expired opportunities, relative to the data dir.
	ArchiveFile = "archive.json"
)

// LoadOpportunities reads the active opportunity list from the data
// directory. A missing file yields an empty list and no error; a file
// that exists but fails to parse is a build-input defect and returns
// an error that should abort the build.
func LoadOpportunities(dataDir string) ([]Opportunity, error) {
	return loadRecords(filepath.Join(dataDir, OpportunitiesFile))
}

// LoadArchive reads the archived opportunity list from the data
// directory, with the same missing-file and parse semantics as
// LoadOpportunities.
func LoadArchive(dataDir string) ([]Opportunity, error) {
	return loadRecords(filepath.Join(dataDir, ArchiveFile))
}

func loadRecords(path string) ([]Opportunity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Opportunity{}, nil
		}
		return nil, fmt.Errorf("failed to read data file %s: %w", path, err)
	}

	var records []Opportunity
	if err = json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse data file %s: %w", path, err)
	}
	return records, nil
}
