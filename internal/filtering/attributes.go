package filtering

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spigell/jobrec/internal/posting"
)

type keywordsFilter struct {
	base
	keywords []string
}

// NewKeywords keeps postings mentioning any of the keywords.
func NewKeywords(keywords []string) Filter {
	return &keywordsFilter{keywords: keywords}
}

func (f *keywordsFilter) Name() string { return "keywords" }

func (f *keywordsFilter) Validate() error {
	if len(f.keywords) == 0 {
		return fmt.Errorf("at least one keyword is required")
	}
	return nil
}

func (f *keywordsFilter) Apply(_ context.Context, p *posting.Postings) (*posting.Postings, Step, error) {
	next, step := keep(p, func(job *posting.JobPosting) bool {
		text := job.SearchText()
		for _, keyword := range f.keywords {
			if strings.Contains(text, keyword) {
				return true
			}
		}
		return false
	})
	return next, step, nil
}

func (f *keywordsFilter) Status() Status {
	return f.status(f.Name(), map[string]string{"keywords": strings.Join(f.keywords, ",")})
}

type locationFilter struct {
	base
	location string
}

// NewLocation keeps postings in exactly this location, plus every remote posting.
func NewLocation(location string) Filter {
	return &locationFilter{location: location}
}

func (f *locationFilter) Name() string { return "location" }

func (f *locationFilter) Validate() error { return nil }

func (f *locationFilter) Apply(_ context.Context, p *posting.Postings) (*posting.Postings, Step, error) {
	next, step := keep(p, func(job *posting.JobPosting) bool {
		return job.Remote || strings.EqualFold(strings.TrimSpace(job.Location), f.location)
	})
	return next, step, nil
}

func (f *locationFilter) Status() Status {
	return f.status(f.Name(), map[string]string{"location": f.location})
}

type levelFilter struct {
	base
	level posting.ExperienceLevel
}

func NewLevel(level posting.ExperienceLevel) Filter {
	return &levelFilter{level: posting.ParseExperienceLevel(string(level))}
}

func (f *levelFilter) Name() string { return "experience_level" }

func (f *levelFilter) Validate() error {
	if f.level.Rank() < 0 {
		return fmt.Errorf("unknown experience level %q", f.level)
	}
	return nil
}

func (f *levelFilter) Apply(_ context.Context, p *posting.Postings) (*posting.Postings, Step, error) {
	next, step := keep(p, func(job *posting.JobPosting) bool {
		return job.ExperienceLevel == f.level
	})
	return next, step, nil
}

func (f *levelFilter) Status() Status {
	return f.status(f.Name(), map[string]string{"level": string(f.level)})
}

type salaryMinFilter struct {
	base
	min float64
}

// NewSalaryMin keeps postings whose salary maximum reaches min. Postings
// without a published salary are kept.
func NewSalaryMin(min float64) Filter {
	return &salaryMinFilter{min: min}
}

func (f *salaryMinFilter) Name() string { return "salary_min" }

func (f *salaryMinFilter) Validate() error {
	if f.min < 0 {
		return fmt.Errorf("minimum salary must not be negative")
	}
	return nil
}

func (f *salaryMinFilter) Apply(_ context.Context, p *posting.Postings) (*posting.Postings, Step, error) {
	next, step := keep(p, func(job *posting.JobPosting) bool {
		return job.SalaryRange == nil || job.SalaryRange.Max >= f.min
	})
	return next, step, nil
}

func (f *salaryMinFilter) Status() Status {
	return f.status(f.Name(), map[string]string{"min": strconv.FormatFloat(f.min, 'f', 0, 64)})
}

type remoteFilter struct {
	base
	remote bool
}

func NewRemote(remote bool) Filter {
	return &remoteFilter{remote: remote}
}

func (f *remoteFilter) Name() string { return "remote" }

func (f *remoteFilter) Validate() error { return nil }

func (f *remoteFilter) Apply(_ context.Context, p *posting.Postings) (*posting.Postings, Step, error) {
	next, step := keep(p, func(job *posting.JobPosting) bool {
		return job.Remote == f.remote
	})
	return next, step, nil
}

func (f *remoteFilter) Status() Status {
	return f.status(f.Name(), map[string]string{"remote": strconv.FormatBool(f.remote)})
}
