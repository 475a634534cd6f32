package digest

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/oshanjarow/fellowship-tracker/pkg/scraper"
)

//go:embed digest.tmpl.html
var digestTemplate string

// Window is how far the digest looks in both directions: deadlines up
// to Window away count as closing soon, and records scraped within the
// last Window count as new.
const Window = 14 * 24 * time.Hour

// descriptionLimit bounds how much of a description the email shows.
const descriptionLimit = 200

// Config holds the digest's delivery settings. Credentials are never
// stored in the config file; they come from the environment.
type Config struct {
	// SMTPHost is the mail server to deliver through.
	SMTPHost string `json:"smtp_host"`

	// SMTPPort is the implicit-TLS submission port.
	SMTPPort int `json:"smtp_port"`

	// SiteURL is where the digest's call-to-action button points.
	SiteURL string `json:"site_url"`

	// DataDir is where opportunities.json lives.
	DataDir string `json:"data_dir"`
}

// DefaultConfig returns a digest Config with default values.
func DefaultConfig() *Config {
	return &Config{
		SMTPHost: "smtp.gmail.com",
		SMTPPort: 465,
		SiteURL:  "https://oshanjarow.github.io/fellowship-tracker",
		DataDir:  "./data",
	}
}

// Credentials are the sender's SMTP login, read from the environment.
type Credentials struct {
	Address  string
	Password string
}

// CredentialsFromEnv reads GMAIL_ADDRESS and GMAIL_APP_PASSWORD. Both
// must be set; the digest refuses to touch the network without them.
func CredentialsFromEnv() (Credentials, error) {
	creds := Credentials{
		Address:  os.Getenv("GMAIL_ADDRESS"),
		Password: os.Getenv("GMAIL_APP_PASSWORD"),
	}
	if creds.Address == "" {
		return creds, fmt.Errorf("GMAIL_ADDRESS is not set")
	}
	if creds.Password == "" {
		return creds, fmt.Errorf("GMAIL_APP_PASSWORD is not set")
	}
	return creds, nil
}

// ClosingSoon returns the opportunities whose deadline falls strictly
// after now and no more than Window later, soonest first.
func ClosingSoon(opps []scraper.Opportunity, now time.Time) []scraper.Opportunity {
	cutoff := now.Add(Window)
	type dated struct {
		opp      scraper.Opportunity
		deadline time.Time
	}
	var closing []dated
	for _, o := range opps {
		t, err := scraper.ParseDeadline(o.Deadline)
		if err != nil {
			continue
		}
		if t.After(now) && !t.After(cutoff) {
			closing = append(closing, dated{opp: o, deadline: t})
		}
	}
	sort.SliceStable(closing, func(i, j int) bool {
		return closing[i].deadline.Before(closing[j].deadline)
	})

	result := make([]scraper.Opportunity, len(closing))
	for i, d := range closing {
		result[i] = d.opp
	}
	return result
}

// NewlyScraped returns the opportunities first scraped within the last
// Window. Records without a parseable scrape stamp are skipped.
func NewlyScraped(opps []scraper.Opportunity, now time.Time) []scraper.Opportunity {
	cutoff := now.Add(-Window)
	var fresh []scraper.Opportunity
	for _, o := range opps {
		if o.ScrapedAt == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, o.ScrapedAt)
		if err != nil {
			continue
		}
		if !t.Before(cutoff) {
			fresh = append(fresh, o)
		}
	}
	return fresh
}

// entry is one opportunity card in the rendered email.
type entry struct {
	Title       string
	URL         string
	Source      string
	Type        string
	Deadline    string
	FundingSize string
	Description string
	Eligibility string
	ClosingSoon bool
}

// digestData is the template context for one digest.
type digestData struct {
	Date        string
	SiteURL     string
	ClosingSoon []entry
	New         []entry
}

func makeEntries(opps []scraper.Opportunity, closingSoon bool) []entry {
	entries := make([]entry, 0, len(opps))
	for _, o := range opps {
		description := o.Description
		if len(description) > descriptionLimit {
			description = description[:descriptionLimit] + "..."
		}
		entries = append(entries, entry{
			Title:       o.Title,
			URL:         o.URL,
			Source:      o.Source,
			Type:        o.Type,
			Deadline:    o.Deadline,
			FundingSize: o.FundingSize,
			Description: description,
			Eligibility: o.Eligibility,
			ClosingSoon: closingSoon,
		})
	}
	return entries
}

// BuildHTML renders the digest email body.
func BuildHTML(closing, fresh []scraper.Opportunity, siteURL string, now time.Time) (string, error) {
	tmpl, err := template.New("digest").Parse(digestTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse digest template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, digestData{
		Date:        now.Format("January 2, 2006"),
		SiteURL:     siteURL,
		ClosingSoon: makeEntries(closing, true),
		New:         makeEntries(fresh, false),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render digest: %w", err)
	}
	return buf.String(), nil
}

// Digest loads the dataset, renders the email, and sends it.
type Digest struct {
	logger *slog.Logger
	config *Config
	send   sendFunc
	now    func() time.Time
}

// NewDigest creates a Digest that delivers over SMTP.
func NewDigest(logger *slog.Logger, config *Config) *Digest {
	return &Digest{
		logger: logger,
		config: config,
		send:   sendMail,
		now:    time.Now,
	}
}

// Run builds the digest from the current dataset and emails it to the
// configured address. With nothing closing soon and nothing new the
// email is still sent, so the reader knows the tracker ran.
func (d *Digest) Run(ctx context.Context, creds Credentials) error {
	opps, err := scraper.LoadOpportunities(filepath.Join(d.config.DataDir, "opportunities.json"))
	if err != nil {
		return err
	}

	now := d.now()
	closing := ClosingSoon(opps, now)
	fresh := NewlyScraped(opps, now)
	d.logger.Info("Building digest", "total", len(opps), "closing_soon", len(closing), "new", len(fresh))

	html, err := BuildHTML(closing, fresh, d.config.SiteURL, now)
	if err != nil {
		return err
	}

	subject := "Fellowship & Grant Digest - " + now.Format("January 2, 2006")
	if err = d.send(ctx, d.config, creds, subject, html); err != nil {
		return fmt.Errorf("failed to send digest: %w", err)
	}
	d.logger.Info("Digest sent", "to", creds.Address)
	return nil
}
