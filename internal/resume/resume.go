// Package resume describes the resume document the engine reads.
package resume

import (
	"encoding/json"
	"strings"
)

type Document struct {
	PersonalInfo PersonalInfo `json:"personalInfo"`
	Experiences  []Experience `json:"experiences,omitempty"`
	Education    []Education  `json:"education,omitempty"`
	Skills       []Skill      `json:"skills,omitempty"`
	Projects     []Project    `json:"projects,omitempty"`
	Preferences  *Preferences `json:"preferences,omitempty"`

	// LegacyExperience is the singular spelling some producers still emit.
	LegacyExperience []Experience `json:"experience,omitempty"`
}

type PersonalInfo struct {
	Name     string `json:"name,omitempty"`
	Title    string `json:"title,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	Summary  string `json:"summary,omitempty"`
}

type Experience struct {
	Company      string   `json:"company,omitempty"`
	Position     string   `json:"position,omitempty"`
	StartDate    string   `json:"startDate,omitempty"`
	EndDate      string   `json:"endDate,omitempty"`
	Current      bool     `json:"current,omitempty"`
	Location     string   `json:"location,omitempty"`
	Description  string   `json:"description,omitempty"`
	Achievements []string `json:"achievements,omitempty"`
}

type Education struct {
	School string `json:"school,omitempty"`
	Degree string `json:"degree,omitempty"`
	Field  string `json:"field,omitempty"`
	Major  string `json:"major,omitempty"`
}

// Subject returns the major, falling back to the field of study.
func (e Education) Subject() string {
	if major := strings.TrimSpace(e.Major); major != "" {
		return major
	}
	return strings.TrimSpace(e.Field)
}

type Project struct {
	Name         string   `json:"name,omitempty"`
	Description  string   `json:"description,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
	Achievements []string `json:"achievements,omitempty"`
}

// Skill is either a bare string or an object with a name in JSON form.
type Skill struct {
	Name     string `json:"name"`
	Level    string `json:"level,omitempty"`
	Category string `json:"category,omitempty"`
}

func (s *Skill) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*s = Skill{Name: name}
		return nil
	}

	type plain Skill
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*s = Skill(decoded)
	return nil
}

// Preferences overrides the defaults the extractor would otherwise infer.
type Preferences struct {
	Locations   []string     `json:"locations,omitempty"`
	JobTypes    []string     `json:"jobTypes,omitempty"`
	SalaryRange *SalaryRange `json:"salaryRange,omitempty"`
}

type SalaryRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// AllExperience returns experience entries from both spellings.
func (d *Document) AllExperience() []Experience {
	if d == nil {
		return nil
	}
	out := make([]Experience, 0, len(d.Experiences)+len(d.LegacyExperience))
	out = append(out, d.Experiences...)
	out = append(out, d.LegacyExperience...)
	return out
}

// SkillNames returns the non-empty names of the explicit skills list.
func (d *Document) SkillNames() []string {
	if d == nil {
		return nil
	}
	names := make([]string, 0, len(d.Skills))
	for _, skill := range d.Skills {
		if name := strings.TrimSpace(skill.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// ExperienceText joins positions, descriptions and achievements.
func (d *Document) ExperienceText() string {
	var parts []string
	for _, exp := range d.AllExperience() {
		parts = appendNonEmpty(parts, exp.Position, exp.Description)
		parts = appendNonEmpty(parts, exp.Achievements...)
	}
	return strings.Join(parts, "\n")
}

// ProjectText joins project names, descriptions, technologies and achievements.
func (d *Document) ProjectText() string {
	if d == nil {
		return ""
	}
	var parts []string
	for _, project := range d.Projects {
		parts = appendNonEmpty(parts, project.Name, project.Description)
		parts = appendNonEmpty(parts, project.Technologies...)
		parts = appendNonEmpty(parts, project.Achievements...)
	}
	return strings.Join(parts, "\n")
}

// FreeText is every unstructured field the skill scanner should look at.
func (d *Document) FreeText() string {
	if d == nil {
		return ""
	}
	parts := appendNonEmpty(nil, d.PersonalInfo.Title, d.PersonalInfo.Summary)
	parts = appendNonEmpty(parts, d.ExperienceText(), d.ProjectText())
	return strings.Join(parts, "\n")
}

func appendNonEmpty(dst []string, values ...string) []string {
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			dst = append(dst, value)
		}
	}
	return dst
}
