// Package profile turns a resume document into the structured signal used
// as the query side of matching.
package profile

import (
	"strings"

	"github.com/spigell/jobrec/internal/posting"
	"github.com/spigell/jobrec/internal/resume"
)

type Profile struct {
	// Skills are lower-cased and unique.
	Skills      []string    `json:"skills"`
	Experience  Experience  `json:"experience"`
	Education   Education   `json:"education"`
	Preferences Preferences `json:"preferences"`

	// Vector always has the embedding dimension and is never all-zero.
	Vector []float32 `json:"-"`
	// Text is the document that was embedded.
	Text string `json:"-"`
	// EmbeddingFallback is set when Vector came from the hashed fallback.
	EmbeddingFallback bool `json:"-"`
}

type Experience struct {
	TotalYears float64  `json:"totalYears"`
	Industries []string `json:"industries"`
	Roles      []string `json:"roles"`
	Companies  []string `json:"companies"`
}

type Education struct {
	Degrees []string `json:"degrees"`
	Majors  []string `json:"majors"`
	Schools []string `json:"schools"`
}

type Preferences struct {
	Locations   []string             `json:"locations"`
	JobTypes    []posting.JobType    `json:"jobTypes"`
	SalaryRange *posting.SalaryRange `json:"salaryRange,omitempty"`
}

// Override replaces the preference fields set in prefs.
func (p *Profile) Override(prefs *resume.Preferences) {
	if prefs == nil {
		return
	}
	if locations := unique(prefs.Locations, false); len(locations) > 0 {
		p.Preferences.Locations = locations
	}
	if len(prefs.JobTypes) > 0 {
		types := make([]posting.JobType, 0, len(prefs.JobTypes))
		for _, t := range unique(prefs.JobTypes, false) {
			types = append(types, posting.ParseJobType(t))
		}
		p.Preferences.JobTypes = types
	}
	if prefs.SalaryRange != nil {
		p.Preferences.SalaryRange = &posting.SalaryRange{Min: prefs.SalaryRange.Min, Max: prefs.SalaryRange.Max}
	}
}

// unique trims values, drops blanks and duplicates, and optionally lower-cases.
func unique(values []string, lower bool) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if lower {
			value = strings.ToLower(value)
		}
		if value == "" {
			continue
		}
		key := strings.ToLower(value)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, value)
	}
	return out
}
