// Package posting holds the job posting record and collections of postings.
package posting

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

const (
	IDField      = "ID"
	CompanyField = "Company"
)

type ExperienceLevel string

const (
	LevelEntry  ExperienceLevel = "entry"
	LevelMid    ExperienceLevel = "mid"
	LevelSenior ExperienceLevel = "senior"
	LevelLead   ExperienceLevel = "lead"
)

// Levels lists experience levels from junior to most senior.
var Levels = []ExperienceLevel{LevelEntry, LevelMid, LevelSenior, LevelLead}

// Rank returns the position of the level in Levels, or -1 when unknown.
func (l ExperienceLevel) Rank() int {
	for i, level := range Levels {
		if level == l {
			return i
		}
	}
	return -1
}

// ParseExperienceLevel accepts the canonical names and a few common aliases.
// Unknown values are returned lower-cased so validation can reject them.
func ParseExperienceLevel(s string) ExperienceLevel {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "entry", "entry-level", "entry_level", "junior", "intern":
		return LevelEntry
	case "mid", "middle", "mid-level", "intermediate":
		return LevelMid
	case "senior", "sr":
		return LevelSenior
	case "lead", "principal", "staff":
		return LevelLead
	default:
		return ExperienceLevel(v)
	}
}

func (l *ExperienceLevel) UnmarshalText(text []byte) error {
	*l = ParseExperienceLevel(string(text))
	return nil
}

type JobType string

const (
	FullTime   JobType = "full_time"
	PartTime   JobType = "part_time"
	Contract   JobType = "contract"
	Internship JobType = "internship"
)

// ParseJobType normalizes "full-time", "Full Time" and "full_time" to the same value.
func ParseJobType(s string) JobType {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.NewReplacer("-", "_", " ", "_").Replace(v)
	switch v {
	case "full_time", "fulltime":
		return FullTime
	case "part_time", "parttime":
		return PartTime
	case "contract", "contractor", "freelance":
		return Contract
	case "internship", "intern":
		return Internship
	default:
		return JobType(v)
	}
}

func (t *JobType) UnmarshalText(text []byte) error {
	*t = ParseJobType(string(text))
	return nil
}

type SalaryRange struct {
	Min float64 `json:"min" validate:"gte=0"`
	Max float64 `json:"max" validate:"gtefield=Min"`
}

type JobPosting struct {
	ID              string          `json:"id" validate:"required"`
	Title           string          `json:"title" validate:"required"`
	Company         string          `json:"company" validate:"required"`
	Location        string          `json:"location"`
	Description     string          `json:"description,omitempty"`
	RequiredSkills  []string        `json:"requiredSkills" validate:"dive,required"`
	PreferredSkills []string        `json:"preferredSkills,omitempty" validate:"dive,required"`
	ExperienceLevel ExperienceLevel `json:"experienceLevel" validate:"required,oneof=entry mid senior lead"`
	SalaryRange     *SalaryRange    `json:"salaryRange,omitempty"`
	JobType         JobType         `json:"jobType" validate:"required,oneof=full_time part_time contract internship"`
	Remote          bool            `json:"remote"`
	Benefits        []string        `json:"benefits,omitempty"`
	PostedDate      time.Time       `json:"postedDate"`
	ApplicationURL  string          `json:"applicationUrl,omitempty" validate:"omitempty,url"`
}

// Text is the document embedded for the posting: title, description and required skills.
func (p *JobPosting) Text() string {
	parts := make([]string, 0, 3)
	for _, part := range []string{p.Title, p.Description, strings.Join(p.RequiredSkills, ", ")} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, "\n")
}

// TextHash changes whenever Text changes.
func (p *JobPosting) TextHash() string {
	sum := sha256.Sum256([]byte(p.Text()))
	return hex.EncodeToString(sum[:])
}

// SearchText is the lower-cased text keyword filters match against.
func (p *JobPosting) SearchText() string {
	return strings.ToLower(strings.Join([]string{
		p.Title,
		p.Description,
		strings.Join(p.RequiredSkills, " "),
		strings.Join(p.PreferredSkills, " "),
	}, " "))
}

// Clone returns a deep copy so callers can never mutate shared postings.
func (p *JobPosting) Clone() *JobPosting {
	if p == nil {
		return nil
	}
	c := *p
	c.RequiredSkills = append([]string(nil), p.RequiredSkills...)
	c.PreferredSkills = append([]string(nil), p.PreferredSkills...)
	c.Benefits = append([]string(nil), p.Benefits...)
	if p.SalaryRange != nil {
		salary := *p.SalaryRange
		c.SalaryRange = &salary
	}
	return &c
}

// Normalize trims text fields, drops blank skills and fills the default job type.
func (p *JobPosting) Normalize() {
	p.ID = strings.TrimSpace(p.ID)
	p.Title = strings.TrimSpace(p.Title)
	p.Company = strings.TrimSpace(p.Company)
	p.Location = strings.TrimSpace(p.Location)
	p.Description = strings.TrimSpace(p.Description)
	p.RequiredSkills = compact(p.RequiredSkills)
	p.PreferredSkills = compact(p.PreferredSkills)
	p.Benefits = compact(p.Benefits)
	if p.JobType == "" {
		p.JobType = FullTime
	}
}

func (p *JobPosting) GetStringField(name string) string {
	switch name {
	case IDField:
		return p.ID
	case CompanyField:
		return p.Company
	default:
		return ""
	}
}

// NewerThan orders postings most recent first, then by id.
func (p *JobPosting) NewerThan(other *JobPosting) bool {
	if !p.PostedDate.Equal(other.PostedDate) {
		return p.PostedDate.After(other.PostedDate)
	}
	return p.ID < other.ID
}

func compact(values []string) []string {
	if len(values) == 0 {
		return values
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out
}
