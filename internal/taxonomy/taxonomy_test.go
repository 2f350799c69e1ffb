package taxonomy

import (
	"testing"
)

func TestLoadEmbeddedTables(t *testing.T) {
	tax, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(tax.Interests()) == 0 {
		t.Fatal("expected at least one interest")
	}

	for _, interest := range tax.Interests() {
		if !tax.Known(interest) {
			t.Errorf("interest %q should be known", interest)
		}
		if len(tax.PolicyAreas([]string{interest})) == 0 {
			t.Errorf("interest %q has no policy areas", interest)
		}
		if len(tax.Keywords([]string{interest})) == 0 {
			t.Errorf("interest %q has no keywords", interest)
		}
		if len(tax.StateSubjects([]string{interest})) == 0 {
			t.Errorf("interest %q has no state subjects", interest)
		}
		if len(tax.ImageTerms(interest)) == 0 {
			t.Errorf("interest %q has no image terms", interest)
		}
	}
}

func TestLoadRejectsMalformedTables(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing keywords", "\"Education\":\n  policy_areas: [\"Education\"]\n  state_subjects: [\"Schools\"]\n  image_terms: [\"classroom\"]\n"},
		{"empty image terms", "\"Education\":\n  policy_areas: [\"Education\"]\n  keywords: [\"school\"]\n  state_subjects: [\"Schools\"]\n  image_terms: []\n"},
		{"not yaml", ": : :"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parse([]byte(tc.yaml)); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestPolicyAreasDeduplicatesAcrossInterests(t *testing.T) {
	tax, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	areas := tax.PolicyAreas([]string{"Environment & Energy", "Environment & Energy"})
	seen := make(map[string]bool)
	for _, a := range areas {
		if seen[a] {
			t.Errorf("policy area %q returned twice", a)
		}
		seen[a] = true
	}
}

func TestPolicyAreasSkipsUnknownInterests(t *testing.T) {
	tax, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := tax.PolicyAreas([]string{"Underwater Basket Weaving"}); len(got) != 0 {
		t.Errorf("expected no policy areas for unknown interest, got %v", got)
	}
}

func TestMatchInterest(t *testing.T) {
	tax, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	interests := []string{"Environment & Energy", "Health & Social Welfare"}

	cases := []struct {
		name       string
		policyArea string
		title      string
		want       string
	}{
		{"policy area match", "Energy", "Some Act", "Environment & Energy"},
		{"case-insensitive area", "energy", "Some Act", "Environment & Energy"},
		{"keyword match in title", "", "Medicare Improvement Act", "Health & Social Welfare"},
		{"first listed interest wins", "Health", "Solar Energy Act", "Environment & Energy"},
		{"no match", "Taxation", "Postal Naming Act", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tax.MatchInterest(interests, tc.policyArea, tc.title)
			if got != tc.want {
				t.Errorf("MatchInterest(%q, %q) = %q, want %q", tc.policyArea, tc.title, got, tc.want)
			}
		})
	}
}
