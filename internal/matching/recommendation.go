package matching

import (
	"time"

	"github.com/spigell/jobrec/internal/posting"
)

type ReasonType string

const (
	SkillMatch      ReasonType = "skill_match"
	ExperienceMatch ReasonType = "experience_match"
	EducationMatch  ReasonType = "education_match"
	PreferenceMatch ReasonType = "preference_match"
)

type Reason struct {
	Type        ReasonType `json:"type"`
	Description string     `json:"description"`
	// Weight is in [0,1]; reasons are listed heaviest first.
	Weight float64 `json:"weight"`
}

// Breakdown holds the sub-scores behind MatchScore, each in [0,100].
type Breakdown struct {
	Skill      float64 `json:"skill"`
	Experience float64 `json:"experience"`
	Education  float64 `json:"education"`
	Preference float64 `json:"preference"`
}

type Recommendation struct {
	JobID           string               `json:"jobId"`
	Title           string               `json:"title"`
	Company         string               `json:"company"`
	Location        string               `json:"location"`
	MatchScore      int                  `json:"matchScore"`
	Reasons         []Reason             `json:"reasons"`
	RequiredSkills  []string             `json:"requiredSkills"`
	MissingSkills   []string             `json:"missingSkills"`
	GrowthPotential int                  `json:"growthPotential"`
	SalaryRange     *posting.SalaryRange `json:"salaryRange,omitempty"`
	ApplicationURL  string               `json:"applicationUrl,omitempty"`
	PostedDate      time.Time            `json:"postedDate"`
	Remote          bool                 `json:"remote"`

	Breakdown *Breakdown `json:"breakdown,omitempty"`
}

// NewRecommendation copies the posting fields of a recommendation; scores
// are left for the caller.
func NewRecommendation(job *posting.JobPosting) *Recommendation {
	rec := &Recommendation{
		JobID:          job.ID,
		Title:          job.Title,
		Company:        job.Company,
		Location:       job.Location,
		Reasons:        []Reason{},
		RequiredSkills: append([]string{}, job.RequiredSkills...),
		MissingSkills:  []string{},
		ApplicationURL: job.ApplicationURL,
		PostedDate:     job.PostedDate,
		Remote:         job.Remote,
	}
	if job.SalaryRange != nil {
		salary := *job.SalaryRange
		rec.SalaryRange = &salary
	}
	return rec
}
