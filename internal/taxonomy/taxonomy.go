// Package taxonomy provides the immutable interest lookup tables that drive
// legislative selection and image search. The tables are embedded at build
// time and injected into consumers at construction, never read as globals.
package taxonomy

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/kaptinlin/jsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed interests.yaml
var interestsYAML []byte

//go:embed schema.json
var schemaJSON []byte

// Entry describes one user-facing interest: the federal policy areas it maps
// to, title keywords for free-text matching, state-legislature subjects, and
// stock-photo search terms for the image cascade.
type Entry struct {
	PolicyAreas   []string `yaml:"policy_areas"`
	Keywords      []string `yaml:"keywords"`
	StateSubjects []string `yaml:"state_subjects"`
	ImageTerms    []string `yaml:"image_terms"`
}

// Taxonomy is an immutable interest → Entry table.
type Taxonomy struct {
	entries map[string]Entry
}

// Load parses and validates the embedded taxonomy tables.
func Load() (*Taxonomy, error) {
	return parse(interestsYAML)
}

func parse(data []byte) (*Taxonomy, error) {
	// Validate the raw document against the schema before decoding into the
	// typed form, so a malformed table fails at startup with a field-level
	// message rather than surfacing as empty lookups mid-pipeline.
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(schemaJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to compile taxonomy schema: %w", err)
	}

	result := schema.Validate(raw)
	if !result.IsValid() {
		var msgs []string
		for field, evalErr := range result.Errors {
			msgs = append(msgs, fmt.Sprintf("%s: %s", field, evalErr.Error()))
		}
		sort.Strings(msgs)
		return nil, fmt.Errorf("taxonomy validation failed: %s", strings.Join(msgs, "; "))
	}

	var entries map[string]Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode taxonomy: %w", err)
	}

	return &Taxonomy{entries: entries}, nil
}

// Known reports whether interest is a recognized taxonomy entry.
func (t *Taxonomy) Known(interest string) bool {
	_, ok := t.entries[interest]
	return ok
}

// Interests returns all known interest names, sorted.
func (t *Taxonomy) Interests() []string {
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PolicyAreas expands interests to the union of their federal policy areas.
// Unknown interests are skipped.
func (t *Taxonomy) PolicyAreas(interests []string) []string {
	return t.collect(interests, func(e Entry) []string { return e.PolicyAreas })
}

// Keywords expands interests to the union of their title keywords.
func (t *Taxonomy) Keywords(interests []string) []string {
	return t.collect(interests, func(e Entry) []string { return e.Keywords })
}

// StateSubjects expands interests to the union of their state-legislature
// subjects.
func (t *Taxonomy) StateSubjects(interests []string) []string {
	return t.collect(interests, func(e Entry) []string { return e.StateSubjects })
}

// ImageTerms returns the stock-photo search terms for a single interest, or
// nil if the interest is unknown.
func (t *Taxonomy) ImageTerms(interest string) []string {
	e, ok := t.entries[interest]
	if !ok {
		return nil
	}
	return e.ImageTerms
}

// MatchInterest returns the first of the given interests that the bill's
// policy area or title matches, preserving the caller's interest order so
// bucketing stays deterministic. Returns "" when nothing matches.
func (t *Taxonomy) MatchInterest(interests []string, policyArea, title string) string {
	lowerTitle := strings.ToLower(title)
	for _, interest := range interests {
		e, ok := t.entries[interest]
		if !ok {
			continue
		}
		for _, area := range e.PolicyAreas {
			if strings.EqualFold(area, policyArea) {
				return interest
			}
		}
		for _, kw := range e.Keywords {
			if strings.Contains(lowerTitle, strings.ToLower(kw)) {
				return interest
			}
		}
	}
	return ""
}

func (t *Taxonomy) collect(interests []string, pick func(Entry) []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, interest := range interests {
		e, ok := t.entries[interest]
		if !ok {
			continue
		}
		for _, v := range pick(e) {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}
