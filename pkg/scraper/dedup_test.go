package scraper

import "testing"

func TestNormalizeURL(t *testing.T) {
	tests := []struct{ in, want string }{
		{"https://www.example.org/grants/", "example.org/grants"},
		{"http://example.org/grants?utm_source=x#apply", "example.org/grants"},
		{"HTTPS://EXAMPLE.ORG/Grants", "example.org/grants"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeURL(tt.in); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTitleSimilarity(t *testing.T) {
	if got := TitleSimilarity("Nieman Fellowship", "Nieman Fellowship!"); got < titleSimilarityThreshold {
		t.Errorf("punctuation-only difference should be near-identical, got %f", got)
	}
	if got := TitleSimilarity("Nieman Fellowship", "Knight Science Grant"); got >= titleSimilarityThreshold {
		t.Errorf("unrelated titles scored %f, want below threshold", got)
	}
	if got := TitleSimilarity("", "anything"); got != 0 {
		t.Errorf("empty title similarity = %f, want 0", got)
	}
}

func TestIsDuplicate(t *testing.T) {
	t.Run("url match", func(t *testing.T) {
		a := Opportunity{Title: "A totally different name", URL: "https://www.fij.org/grants/"}
		b := Opportunity{Title: "FIJ Grants", URL: "http://fij.org/grants"}
		if !IsDuplicate(a, b) {
			t.Error("same normalized URL should be a duplicate")
		}
	})

	t.Run("title match", func(t *testing.T) {
		a := Opportunity{Title: "Whiting Creative Nonfiction Grant"}
		b := Opportunity{Title: "Whiting Creative Nonfiction Grant!"}
		if !IsDuplicate(a, b) {
			t.Error("near-identical titles should be a duplicate")
		}
	})

	t.Run("distinct", func(t *testing.T) {
		a := Opportunity{Title: "Nieman Fellowship", URL: "https://nieman.harvard.edu/"}
		b := Opportunity{Title: "Pulitzer Center Grant", URL: "https://pulitzercenter.org/"}
		if IsDuplicate(a, b) {
			t.Error("unrelated records flagged as duplicates")
		}
	})
}

func TestDeduplicate(t *testing.T) {
	existing := []Opportunity{
		{Title: "Nieman Fellowship", URL: "https://nieman.harvard.edu/fellowship/"},
	}
	batch := []Opportunity{
		{Title: "Nieman Fellowship", URL: "http://www.nieman.harvard.edu/fellowship"}, // dup of existing
		{Title: "Pulitzer Center Grant", URL: "https://pulitzercenter.org/grants"},
		{Title: "Pulitzer Center Grant", URL: "https://pulitzercenter.org/grants/"}, // dup within batch
	}

	got := Deduplicate(batch, existing)
	if len(got) != 1 {
		t.Fatalf("expected 1 unique record, got %d", len(got))
	}
	if got[0].Title != "Pulitzer Center Grant" {
		t.Errorf("unexpected surviving record: %q", got[0].Title)
	}
}
