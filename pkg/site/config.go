package site

// Config holds all configuration options for the site generator.
type Config struct {
	// Title is the site title made available to every template.
	Title string `json:"title"`

	// BaseURL is the canonical URL of the deployed site, used for
	// absolute links in templates and the email digest.
	BaseURL string `json:"base_url"`

	// InputDir is the directory containing page templates, markdown
	// pages, and passthrough assets.
	InputDir string `json:"input_dir"`

	// IncludesDir is the directory containing layout and partial
	// templates, relative to InputDir.
	IncludesDir string `json:"includes_dir"`

	// OutputDir is the directory the rendered site is written to.
	OutputDir string `json:"output_dir"`

	// DataDir is the directory holding opportunities.json and archive.json.
	DataDir string `json:"data_dir"`

	// PassthroughDirs are directories under InputDir copied verbatim
	// into OutputDir without any transformation.
	PassthroughDirs []string `json:"passthrough_dirs"`
}

// DefaultConfig returns a Config with the standard directory layout.
func DefaultConfig() *Config {
	return &Config{
		Title:           "Fellowship & Grant Tracker",
		BaseURL:         "https://oshanjarow.github.io/fellowship-tracker",
		InputDir:        "./site",
		IncludesDir:     "_includes",
		OutputDir:       "./_site",
		DataDir:         "./data",
		PassthroughDirs: []string{"css"},
	}
}
