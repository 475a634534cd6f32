package site

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"github.com/yuin/goldmark"
)

const (
	templateExt = ".tmpl.html"
	partialExt  = ".part.html"
	markdownExt = ".md"
	baseLayout  = "base.part.html"
)

// Builder renders the site from the input directory into the output
// directory. It owns the template function map, the markdown converter,
// and the clock used by the deadline classification functions.
type Builder struct {
	logger   *slog.Logger
	config   *Config
	funcMap  template.FuncMap
	includes *template.Template
	md       goldmark.Markdown
	now      func() time.Time
}

// PageData is the data every page template is executed with.
type PageData struct {
	Title         string
	BaseURL       string
	Opportunities []Opportunity
	Archive       []Opportunity
	BuiltAt       time.Time

	// Content is the rendered body for markdown pages; empty for
	// regular page templates.
	Content template.HTML
}

// NewBuilder creates a Builder for the given configuration.
func NewBuilder(logger *slog.Logger, config *Config) *Builder {
	b := &Builder{
		logger: logger,
		config: config,
		md:     goldmark.New(),
		now:    time.Now,
	}
	b.funcMap = b.makeFuncMap()
	return b
}

func (b *Builder) makeFuncMap() template.FuncMap {
	return template.FuncMap{
		// Dates (funcs_dates.go)
		"formatDate":    b.formatDate,
		"isClosingSoon": b.isClosingSoon,
		"isExpired":     b.isExpired,

		// Text (funcs_text.go)
		"truncate": truncate,
		"markdown": b.markdown,
		"safeHTML": safeHTML,
		"slugify":  slugify,
	}
}

// Build renders the whole site: it loads the datasets, parses the
// includes, renders every page template and markdown page under the
// input directory, and copies the passthrough directories verbatim.
// A dataset that exists but fails to parse aborts the build.
func (b *Builder) Build() error {
	start := b.now()

	opportunities, err := LoadOpportunities(b.config.DataDir)
	if err != nil {
		return err
	}
	archive, err := LoadArchive(b.config.DataDir)
	if err != nil {
		return err
	}
	b.logger.Info("Loaded site data",
		"opportunities", len(opportunities), "archived", len(archive))

	if err = b.loadIncludes(); err != nil {
		return err
	}

	data := PageData{
		Title:         b.config.Title,
		BaseURL:       b.config.BaseURL,
		Opportunities: opportunities,
		Archive:       archive,
		BuiltAt:       start,
	}

	pages, err := b.renderPages(data)
	if err != nil {
		return err
	}

	for _, dir := range b.config.PassthroughDirs {
		src := filepath.Join(b.config.InputDir, dir)
		dst := filepath.Join(b.config.OutputDir, dir)
		if err = copyDir(src, dst); err != nil {
			return fmt.Errorf("failed to copy passthrough dir %s: %w", dir, err)
		}
	}

	b.logger.Info("Site build complete",
		"pages", pages,
		"output", b.config.OutputDir,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// loadIncludes parses the layout and partial templates. A site with no
// includes directory is still valid.
func (b *Builder) loadIncludes() error {
	pattern := filepath.Join(b.config.InputDir, b.config.IncludesDir, "*"+partialExt)

	parsed, err := template.New("").Funcs(b.funcMap).ParseGlob(pattern)
	if err != nil {
		if !strings.Contains(err.Error(), "pattern matches no files") {
			b.logger.Error("failed to parse include templates", "error", err)
			return err
		}
		parsed = template.New("").Funcs(b.funcMap)
	}
	b.includes = parsed
	return nil
}

// renderPages walks the input directory and renders every page
// template and markdown page it finds, returning the page count.
func (b *Builder) renderPages(data PageData) (int, error) {
	includesPath := filepath.Join(b.config.InputDir, b.config.IncludesDir)
	count := 0

	err := filepath.WalkDir(b.config.InputDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path == includesPath || b.isPassthrough(path) {
				return filepath.SkipDir
			}
			return nil
		}

		switch {
		case strings.HasSuffix(path, templateExt):
			if err := b.renderTemplatePage(path, data); err != nil {
				return err
			}
			count++
		case strings.HasSuffix(path, markdownExt):
			if err := b.renderMarkdownPage(path, data); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if count == 0 {
		b.logger.Warn("No page templates found", "input", b.config.InputDir)
	}
	return count, nil
}

func (b *Builder) isPassthrough(path string) bool {
	for _, dir := range b.config.PassthroughDirs {
		if path == filepath.Join(b.config.InputDir, dir) {
			return true
		}
	}
	return false
}

// renderTemplatePage renders one *.tmpl.html page into its output file.
func (b *Builder) renderTemplatePage(path string, data PageData) error {
	set, err := b.includes.Clone()
	if err != nil {
		return fmt.Errorf("failed to clone include templates: %w", err)
	}
	if _, err = set.ParseFiles(path); err != nil {
		return fmt.Errorf("failed to parse page template %s: %w", path, err)
	}

	var buf bytes.Buffer
	if err = set.ExecuteTemplate(&buf, filepath.Base(path), data); err != nil {
		return fmt.Errorf("failed to render page %s: %w", path, err)
	}

	out, err := b.outputPath(path, templateExt)
	if err != nil {
		return err
	}
	return writePage(out, &buf)
}

// renderMarkdownPage converts one markdown page to HTML and wraps it
// in the base layout when one is defined.
func (b *Builder) renderMarkdownPage(path string, data PageData) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read markdown page %s: %w", path, err)
	}

	var body bytes.Buffer
	if err = b.md.Convert(src, &body); err != nil {
		return fmt.Errorf("failed to convert markdown page %s: %w", path, err)
	}
	data.Content = template.HTML(body.String())

	var buf bytes.Buffer
	if b.includes.Lookup(baseLayout) != nil {
		if err = b.includes.ExecuteTemplate(&buf, baseLayout, data); err != nil {
			return fmt.Errorf("failed to render markdown page %s: %w", path, err)
		}
	} else {
		buf = body
	}

	out, err := b.outputPath(path, markdownExt)
	if err != nil {
		return err
	}
	return writePage(out, &buf)
}

// outputPath maps an input page path to its output .html path,
// preserving the directory layout under the input dir.
func (b *Builder) outputPath(path, ext string) (string, error) {
	rel, err := filepath.Rel(b.config.InputDir, path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve page path %s: %w", path, err)
	}
	rel = strings.TrimSuffix(rel, ext) + ".html"
	return filepath.Join(b.config.OutputDir, rel), nil
}

// writePage writes a rendered page atomically, creating parent
// directories as needed.
func writePage(path string, buf *bytes.Buffer) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output dir for %s: %w", path, err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(buf.Bytes())); err != nil {
		return fmt.Errorf("failed to write page %s: %w", path, err)
	}
	return nil
}

// copyDir copies a directory tree verbatim. A missing source directory
// is not an error, so a site without e.g. a css dir still builds.
func copyDir(src, dst string) error {
	info, err := os.Stat(src)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("passthrough source %s is not a directory", src)
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func(in *os.File) {
		_ = in.Close()
	}(in)

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
