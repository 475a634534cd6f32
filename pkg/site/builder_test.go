package site

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// setupTestSite lays out a minimal site tree and data dir inside a
// temp root and returns a Builder configured against them.
func setupTestSite(tb testing.TB, dataJSON string) *Builder {
	tb.Helper()
	root := tb.TempDir()

	config := DefaultConfig()
	config.InputDir = filepath.Join(root, "site")
	config.OutputDir = filepath.Join(root, "_site")
	config.DataDir = filepath.Join(root, "data")

	includesDir := filepath.Join(config.InputDir, config.IncludesDir)
	for _, dir := range []string{includesDir, filepath.Join(config.InputDir, "css"), config.DataDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			tb.Fatalf("failed to create %s: %v", dir, err)
		}
	}

	files := map[string]string{
		filepath.Join(includesDir, "base.part.html"): `<html><title>{{.Title}}</title><body>{{.Content}}</body></html>`,
		filepath.Join(config.InputDir, "index.tmpl.html"): `{{range .Opportunities}}` +
			`<h2>{{.title}}</h2>` +
			`{{if isClosingSoon .deadline}}<span>CLOSING SOON</span>{{end}}` +
			`{{if isExpired .deadline}}<span>EXPIRED</span>{{end}}` +
			`<p>{{formatDate .deadline}}</p>` +
			`<p>{{truncate .description 20}}</p>` +
			`{{if .notes}}<div>{{markdown .notes}}</div>{{end}}` +
			`{{end}}`,
		filepath.Join(config.InputDir, "about.md"):         "# About\n\nTracks fellowships and grants.\n",
		filepath.Join(config.InputDir, "css", "style.css"): "body { color: #1A1A1A; }",
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			tb.Fatalf("failed to write %s: %v", path, err)
		}
	}

	if dataJSON != "" {
		dataPath := filepath.Join(config.DataDir, OpportunitiesFile)
		if err := os.WriteFile(dataPath, []byte(dataJSON), 0644); err != nil {
			tb.Fatalf("failed to write data file: %v", err)
		}
	}

	return newTestBuilderWithConfig(tb, config)
}

func newTestBuilderWithConfig(tb testing.TB, config *Config) *Builder {
	tb.Helper()
	b := newTestBuilder(tb)
	b.config = config
	return b
}

func TestBuilder_Build(t *testing.T) {
	data := `[
		{"title": "Far Future Fellowship", "deadline": "2099-01-01", "description": "A fellowship with a very long description that should be truncated somewhere.", "notes": "Apply *early* to be safe."},
		{"title": "Closing Grant", "deadline": "2026-03-10"},
		{"title": "Old Prize", "deadline": "2020-01-01"},
		{"title": "Open Fund"}
	]`
	b := setupTestSite(t, data)

	if err := b.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	index := readOutput(t, b, "index.html")
	if !strings.Contains(index, "Far Future Fellowship") {
		t.Error("index is missing an opportunity title")
	}
	if !strings.Contains(index, "Jan 1, 2099") {
		t.Error("index is missing a formatted deadline")
	}
	if strings.Count(index, "CLOSING SOON") != 1 {
		t.Errorf("expected exactly one closing-soon marker, index was:\n%s", index)
	}
	if strings.Count(index, "EXPIRED") != 1 {
		t.Errorf("expected exactly one expired marker, index was:\n%s", index)
	}
	if !strings.Contains(index, NoDeadline) {
		t.Error("record without a deadline should render the fallback text")
	}
	if !strings.Contains(index, "A fellowship with a ...") {
		t.Error("long description was not truncated at the requested length")
	}
	if !strings.Contains(index, "<em>early</em>") {
		t.Error("notes field was not rendered as markdown")
	}
}

func TestBuilder_Build_MarkdownPage(t *testing.T) {
	b := setupTestSite(t, "")
	if err := b.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	about := readOutput(t, b, "about.html")
	if !strings.Contains(about, "<h1") || !strings.Contains(about, "About") {
		t.Errorf("markdown page was not converted, got:\n%s", about)
	}
	if !strings.Contains(about, "<title>") {
		t.Error("markdown page was not wrapped in the base layout")
	}
}

func TestBuilder_Build_Passthrough(t *testing.T) {
	b := setupTestSite(t, "")
	if err := b.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	css := readOutput(t, b, filepath.Join("css", "style.css"))
	if css != "body { color: #1A1A1A; }" {
		t.Errorf("passthrough copy modified the file: %q", css)
	}
}

func TestBuilder_Build_EmptyData(t *testing.T) {
	b := setupTestSite(t, "")
	if err := b.Build(); err != nil {
		t.Fatalf("Build with missing data file should succeed, got: %v", err)
	}
	index := readOutput(t, b, "index.html")
	if strings.Contains(index, "<h2>") {
		t.Error("expected no opportunities rendered for a missing data file")
	}
}

func TestBuilder_Build_MalformedData(t *testing.T) {
	b := setupTestSite(t, `{definitely not a list`)
	if err := b.Build(); err == nil {
		t.Fatal("expected Build to fail on malformed data JSON")
	}
}

// TestBuilder_Build_ClosingSoonLive runs with the real clock and a
// deadline one week out, covering the end-to-end closing-soon path.
func TestBuilder_Build_ClosingSoonLive(t *testing.T) {
	deadline := time.Now().Add(7 * 24 * time.Hour).Format("2006-01-02")
	data := fmt.Sprintf(`[{"title": "Soon Fellowship", "deadline": %q}]`, deadline)

	b := setupTestSite(t, data)
	b.now = time.Now

	if err := b.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !strings.Contains(readOutput(t, b, "index.html"), "CLOSING SOON") {
		t.Error("a deadline one week out should be marked closing soon")
	}
}

func readOutput(tb testing.TB, b *Builder, rel string) string {
	tb.Helper()
	data, err := os.ReadFile(filepath.Join(b.config.OutputDir, rel))
	if err != nil {
		tb.Fatalf("failed to read output file %s: %v", rel, err)
	}
	return string(data)
}
