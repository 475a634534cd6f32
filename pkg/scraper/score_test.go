package scraper

import "testing"

func TestScore(t *testing.T) {
	t.Run("keyword weights accumulate", func(t *testing.T) {
		base := Score(Opportunity{Title: "Writing opportunity"})
		scored := Score(Opportunity{Title: "Writing opportunity", Description: "on consciousness and meditation"})
		if scored <= base {
			t.Errorf("interest keywords should raise the score: base %d, scored %d", base, scored)
		}
	})

	t.Run("title bonus", func(t *testing.T) {
		inBody := Score(Opportunity{Title: "Fellowship", Description: "poverty reporting"})
		inTitle := Score(Opportunity{Title: "Poverty Fellowship", Description: "reporting"})
		if inTitle <= inBody {
			t.Errorf("keyword in title should score higher: body %d, title %d", inBody, inTitle)
		}
	})

	t.Run("us region boost", func(t *testing.T) {
		neutral := Score(Opportunity{Title: "Media Grant", Region: "anywhere"})
		us := Score(Opportunity{Title: "Media Grant", Region: "United States"})
		if us <= neutral {
			t.Errorf("US region should boost the score: neutral %d, us %d", neutral, us)
		}
	})

	t.Run("global region penalty", func(t *testing.T) {
		empty := Score(Opportunity{Title: "Media Grant"})
		global := Score(Opportunity{Title: "Media Grant", Region: "Global South"})
		if global >= empty {
			t.Errorf("non-US region should score lower than no region: empty %d, global %d", empty, global)
		}
	})

	t.Run("deadline and funding bonuses", func(t *testing.T) {
		bare := Score(Opportunity{Title: "Essay Prize"})
		full := Score(Opportunity{Title: "Essay Prize", Deadline: "2026-06-01", FundingSize: "$5,000"})
		if full != bare+deadlineBonus+fundingBonus {
			t.Errorf("expected deadline+funding bonuses: bare %d, full %d", bare, full)
		}
	})

	t.Run("never negative", func(t *testing.T) {
		if got := Score(Opportunity{Region: "Eastern Europe"}); got < 0 {
			t.Errorf("score went negative: %d", got)
		}
	})
}

func TestAddScores(t *testing.T) {
	opps := []Opportunity{
		{Title: "Consciousness Reporting Fellowship"},
		{Title: "Plain Listing"},
	}
	scored := AddScores(opps)
	if scored[0].RelevanceScore == 0 {
		t.Error("keyword-rich record should have a nonzero score")
	}
	if scored[0].RelevanceScore <= scored[1].RelevanceScore {
		t.Error("keyword-rich record should outscore a plain one")
	}
}
