package filtering

import (
	"strings"

	"github.com/spigell/jobrec/internal/posting"
)

// Criteria are the hard constraints a caller can put on postings. Zero
// values impose no constraint; all set fields are AND-combined.
type Criteria struct {
	// Keywords match when any of them appears in title, description or skills.
	Keywords        []string                `json:"keywords,omitempty" mapstructure:"keywords"`
	Location        string                  `json:"location,omitempty" mapstructure:"location"`
	ExperienceLevel posting.ExperienceLevel `json:"experienceLevel,omitempty" mapstructure:"level"`
	// SalaryMin is compared against the posting's salary maximum.
	SalaryMin float64 `json:"salaryMin,omitempty" mapstructure:"salary-min" binding:"gte=0"`
	Remote    *bool   `json:"remote,omitempty" mapstructure:"remote"`

	ExcludedCompanies []string `json:"excludedCompanies,omitempty" mapstructure:"excluded-companies"`
	ExcludeFile       string   `json:"-" mapstructure:"exclude-file"`
}

// IsZero reports whether no constraint is set.
func (c Criteria) IsZero() bool {
	return len(keywords(c.Keywords)) == 0 &&
		strings.TrimSpace(c.Location) == "" &&
		c.ExperienceLevel == "" &&
		c.SalaryMin <= 0 &&
		c.Remote == nil &&
		len(c.ExcludedCompanies) == 0 &&
		strings.TrimSpace(c.ExcludeFile) == ""
}

// Steps builds only the filters whose criteria are set, in a fixed order.
func Steps(c Criteria) []Filter {
	var steps []Filter
	if kw := keywords(c.Keywords); len(kw) > 0 {
		steps = append(steps, NewKeywords(kw))
	}
	if location := strings.TrimSpace(c.Location); location != "" {
		steps = append(steps, NewLocation(location))
	}
	if c.ExperienceLevel != "" {
		steps = append(steps, NewLevel(c.ExperienceLevel))
	}
	if c.SalaryMin > 0 {
		steps = append(steps, NewSalaryMin(c.SalaryMin))
	}
	if c.Remote != nil {
		steps = append(steps, NewRemote(*c.Remote))
	}
	if len(c.ExcludedCompanies) > 0 {
		steps = append(steps, NewExcludedCompanies(c.ExcludedCompanies))
	}
	if path := strings.TrimSpace(c.ExcludeFile); path != "" {
		steps = append(steps, NewExcludeFile(path))
	}
	return steps
}

func keywords(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.ToLower(strings.TrimSpace(value)); value != "" {
			out = append(out, value)
		}
	}
	return out
}
