package scraper

import "testing"

func TestIsRelevant(t *testing.T) {
	tests := []struct {
		name string
		opp  Opportunity
		want bool
	}{
		{
			"journalism keyword",
			Opportunity{Title: "Investigative Reporting Fellowship"},
			true,
		},
		{
			"valid type only",
			Opportunity{Title: "Climate Research Grant", Description: "Supports field studies."},
			true,
		},
		{
			"excluded genre",
			Opportunity{Title: "Emerging Poet Residency", Description: "For poetry collections."},
			false,
		},
		{
			"excluded but journalism override",
			Opportunity{Title: "Poetry and Journalism Prize", Description: "Open to poets and reporters alike."},
			true,
		},
		{
			"irrelevant",
			Opportunity{Title: "Bake Sale", Description: "Community cookies."},
			false,
		},
		{
			"bypass filter",
			Opportunity{Title: "General Projects Micro-funding", BypassFilter: true},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRelevant(tt.opp); got != tt.want {
				t.Errorf("IsRelevant(%q) = %v, want %v", tt.opp.Title, got, tt.want)
			}
		})
	}
}

func TestFilterRelevant(t *testing.T) {
	opps := []Opportunity{
		{Title: "Narrative Journalism Fellowship"},
		{Title: "Sci-fi Novel Contest", Description: "Best short story wins."},
		{Title: "Documentary Fund"},
	}
	got := FilterRelevant(opps)
	if len(got) != 2 {
		t.Fatalf("expected 2 relevant records, got %d", len(got))
	}
	for _, o := range got {
		if o.Title == "Sci-fi Novel Contest" {
			t.Error("excluded genre survived the filter")
		}
	}
}
