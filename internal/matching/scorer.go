// Package matching scores one profile against one posting and explains the score.
package matching

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/spigell/jobrec/internal/posting"
	"github.com/spigell/jobrec/internal/profile"
	"github.com/spigell/jobrec/internal/taxonomy"
)

// Composite weights. They are policy, not request parameters.
const (
	SkillWeight      = 0.4
	ExperienceWeight = 0.3
	EducationWeight  = 0.2
	PreferenceWeight = 0.1
)

// Reason weights and emission thresholds.
const (
	skillReasonWeight      = 0.8
	experienceReasonWeight = 0.6
	educationReasonWeight  = 0.4
	preferenceReasonWeight = 0.3

	maxSkillReasons         = 3
	experienceReasonMinimum = 60
	preferenceReasonMinimum = 50
)

// Experience band scoring.
const (
	bandAboveCost = 20
	bandBelowCost = 40
)

// Education scoring.
const (
	degreeBaseline  = 60
	relevantSubject = 40
)

// Preference scoring: half for location, half for job type.
const (
	locationExact   = 50
	locationPartial = 25
	jobTypeMatch    = 50
)

// Growth potential heuristic.
const (
	growthBase         = 50
	growthEmerging     = 20
	growthEarlyCareer  = 15
	growthVeteran      = -10
	earlyCareerYears   = 3
	veteranCareerYears = 10
)

var ErrMalformedPosting = errors.New("malformed posting")

// Band lower bounds in years for entry, mid, senior and lead.
var bandFloors = []float64{0, 2, 5, 8}

type Scorer struct {
	taxonomy *taxonomy.Taxonomy
	synonyms *taxonomy.SynonymIndex
}

func NewScorer(tax *taxonomy.Taxonomy) *Scorer {
	if tax == nil {
		tax = taxonomy.Default()
	}
	return &Scorer{taxonomy: tax, synonyms: tax.SynonymIndex()}
}

// SkillsSimilar is symmetric: equal ignoring case, one contains the other,
// or both are in the same synonym cluster. Blank skills never match.
func (s *Scorer) SkillsSimilar(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	if a == b || strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	return s.synonyms.SameCluster(a, b)
}

// SkillMatch returns the skill score, the profile skills that matched a
// required skill and the required skills nobody matched.
func (s *Scorer) SkillMatch(skills, required []string) (score float64, matched, missing []string) {
	matched = []string{}
	for _, skill := range skills {
		for _, req := range required {
			if s.SkillsSimilar(skill, req) {
				matched = append(matched, skill)
				break
			}
		}
	}

	missing = []string{}
	for _, req := range required {
		covered := false
		for _, skill := range skills {
			if s.SkillsSimilar(skill, req) {
				covered = true
				break
			}
		}
		if !covered {
			missing = append(missing, req)
		}
	}

	denominator := math.Max(float64(len(required)), 1)
	score = math.Min(100, float64(len(matched))/denominator*100)
	return score, matched, missing
}

// Band maps total years to the index of an experience level.
func Band(years float64) int {
	band := 0
	for i, floor := range bandFloors {
		if years >= floor {
			band = i
		}
	}
	return band
}

// ExperienceScore is 100 inside the posting's band, minus 20 per band of
// over-qualification and 40 per band of under-qualification.
func ExperienceScore(years float64, level posting.ExperienceLevel) (float64, error) {
	target := level.Rank()
	if target < 0 {
		return 0, fmt.Errorf("%w: unknown experience level %q", ErrMalformedPosting, level)
	}

	diff := Band(years) - target
	score := 100.0
	switch {
	case diff > 0:
		score -= float64(diff * bandAboveCost)
	case diff < 0:
		score -= float64(-diff * bandBelowCost)
	}
	return clamp(score), nil
}

// EducationScore gives a baseline for any degree and a bonus when a major
// shares a word with the job title. No education data scores 0.
func EducationScore(edu profile.Education, title string) (score float64, relevant string) {
	if len(edu.Degrees) > 0 {
		score = degreeBaseline
	}

	titleWords := significantWords(title)
	for _, major := range edu.Majors {
		for word := range significantWords(major) {
			if _, ok := titleWords[word]; ok {
				return clamp(score + relevantSubject), major
			}
		}
	}
	return score, ""
}

// PreferenceScore credits location (remote, exact city, or partial overlap)
// and job type.
func PreferenceScore(prefs profile.Preferences, job *posting.JobPosting) (score float64, locationMatched, typeMatched bool) {
	location := 0.0
	if job.Remote {
		location = locationExact
	} else {
		jobLocation := strings.ToLower(strings.TrimSpace(job.Location))
		for _, pref := range prefs.Locations {
			pref = strings.ToLower(strings.TrimSpace(pref))
			if pref == "" || jobLocation == "" {
				continue
			}
			if pref == jobLocation {
				location = locationExact
				break
			}
			if strings.Contains(jobLocation, pref) || strings.Contains(pref, jobLocation) {
				location = math.Max(location, locationPartial)
			}
		}
	}

	for _, t := range prefs.JobTypes {
		if t == job.JobType {
			typeMatched = true
			break
		}
	}

	score = location
	if typeMatched {
		score += jobTypeMatch
	}
	return clamp(score), location > 0, typeMatched
}

// GrowthPotential is an advisory score independent of MatchScore.
func (s *Scorer) GrowthPotential(totalYears float64, required []string) int {
	potential := growthBase
	for _, skill := range required {
		if s.taxonomy.IsEmerging(skill) {
			potential += growthEmerging
			break
		}
	}
	if totalYears < earlyCareerYears {
		potential += growthEarlyCareer
	}
	if totalYears > veteranCareerYears {
		potential += growthVeteran
	}
	return int(clamp(float64(potential)))
}

// Score computes the composite recommendation for one posting.
func (s *Scorer) Score(p *profile.Profile, job *posting.JobPosting) (*Recommendation, error) {
	if p == nil {
		return nil, errors.New("profile is required")
	}
	if job == nil || strings.TrimSpace(job.ID) == "" {
		return nil, fmt.Errorf("%w: missing id", ErrMalformedPosting)
	}

	skill, matched, missing := s.SkillMatch(p.Skills, job.RequiredSkills)
	experience, err := ExperienceScore(p.Experience.TotalYears, job.ExperienceLevel)
	if err != nil {
		return nil, fmt.Errorf("posting %q: %w", job.ID, err)
	}
	education, relevantMajor := EducationScore(p.Education, job.Title)
	preference, locationMatched, typeMatched := PreferenceScore(p.Preferences, job)

	overall := math.Round(skill*SkillWeight + experience*ExperienceWeight + education*EducationWeight + preference*PreferenceWeight)

	rec := NewRecommendation(job)
	rec.MatchScore = int(clamp(overall))
	rec.MissingSkills = missing
	rec.GrowthPotential = s.GrowthPotential(p.Experience.TotalYears, job.RequiredSkills)
	rec.Breakdown = &Breakdown{Skill: skill, Experience: experience, Education: education, Preference: preference}

	var reasons []Reason
	for i, name := range matched {
		if i == maxSkillReasons {
			break
		}
		reasons = append(reasons, Reason{
			Type:        SkillMatch,
			Description: fmt.Sprintf("You have the required skill: %s", name),
			Weight:      skillReasonWeight,
		})
	}
	if experience >= experienceReasonMinimum {
		reasons = append(reasons, Reason{
			Type:        ExperienceMatch,
			Description: fmt.Sprintf("Your %s of experience fit a %s-level role", yearsLabel(p.Experience.TotalYears), job.ExperienceLevel),
			Weight:      experienceReasonWeight,
		})
	}
	if education > 0 {
		description := fmt.Sprintf("Your %s background is relevant to this role", relevantMajor)
		if relevantMajor == "" {
			description = fmt.Sprintf("You hold a %s degree", p.Education.Degrees[0])
		}
		reasons = append(reasons, Reason{Type: EducationMatch, Description: description, Weight: educationReasonWeight})
	}
	if preference >= preferenceReasonMinimum {
		reasons = append(reasons, Reason{
			Type:        PreferenceMatch,
			Description: preferenceDescription(job, locationMatched, typeMatched),
			Weight:      preferenceReasonWeight,
		})
	}

	SortReasons(reasons)
	if reasons != nil {
		rec.Reasons = reasons
	}
	return rec, nil
}

// SortReasons orders by weight, heaviest first, keeping insertion order on ties.
func SortReasons(reasons []Reason) {
	sort.SliceStable(reasons, func(i, j int) bool {
		return reasons[i].Weight > reasons[j].Weight
	})
}

func preferenceDescription(job *posting.JobPosting, locationMatched, typeMatched bool) string {
	switch {
	case locationMatched && job.Remote && typeMatched:
		return fmt.Sprintf("Remote %s role matches your preferences", jobTypeLabel(job.JobType))
	case locationMatched && job.Remote:
		return "Remote role matches your location preference"
	case locationMatched && typeMatched:
		return fmt.Sprintf("%s role in %s matches your preferences", capitalize(jobTypeLabel(job.JobType)), job.Location)
	case locationMatched:
		return fmt.Sprintf("Located in %s, matching your location preference", job.Location)
	default:
		return fmt.Sprintf("%s role matches your preferred job type", capitalize(jobTypeLabel(job.JobType)))
	}
}

func jobTypeLabel(t posting.JobType) string {
	return strings.ReplaceAll(string(t), "_", "-")
}

func yearsLabel(years float64) string {
	if years == 1 {
		return "1 year"
	}
	return fmt.Sprintf("%g years", years)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var stopWords = map[string]struct{}{"and": {}, "the": {}, "for": {}, "with": {}}

func significantWords(text string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, word := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 0x7f)
	}) {
		if len(word) < 3 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		words[word] = struct{}{}
	}
	return words
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
