package posting

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

type Postings struct {
	Items []*JobPosting
}

func New(items ...*JobPosting) *Postings {
	return &Postings{Items: items}
}

func (p *Postings) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}

func (p *Postings) FindByID(id string) *JobPosting {
	for _, posting := range p.Items {
		if posting.ID == id {
			return posting
		}
	}
	return nil
}

func (p *Postings) IDs() []string {
	ids := make([]string, 0, len(p.Items))
	for _, posting := range p.Items {
		ids = append(ids, posting.ID)
	}
	return ids
}

// Keep retains postings matching pred, preserving order, and returns the ids of dropped postings.
func (p *Postings) Keep(pred func(*JobPosting) bool) []string {
	var dropped []string
	kept := p.Items[:0]
	for _, posting := range p.Items {
		if pred(posting) {
			kept = append(kept, posting)
			continue
		}
		dropped = append(dropped, posting.ID)
	}
	for i := len(kept); i < len(p.Items); i++ {
		p.Items[i] = nil
	}
	p.Items = kept
	return dropped
}

// Exclude removes postings whose field equals any target (case-insensitive)
// and returns the removed ids.
func (p *Postings) Exclude(field string, targets []string) []string {
	if len(targets) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		set[strings.ToLower(strings.TrimSpace(target))] = struct{}{}
	}
	return p.Keep(func(posting *JobPosting) bool {
		_, found := set[strings.ToLower(posting.GetStringField(field))]
		return !found
	})
}

// SortByRecency orders postings most recent first with id as tie-break.
func (p *Postings) SortByRecency() {
	sort.SliceStable(p.Items, func(i, j int) bool {
		return p.Items[i].NewerThan(p.Items[j])
	})
}

// Limit truncates the collection to at most n postings.
func (p *Postings) Limit(n int) {
	if n >= 0 && n < len(p.Items) {
		p.Items = p.Items[:n]
	}
}

func (p *Postings) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "postings_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ReportByCompany groups short posting summaries by company name.
func (p *Postings) ReportByCompany() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, posting := range p.Items {
		entry := map[string]string{
			"title":    posting.Title,
			"location": posting.Location,
			"level":    string(posting.ExperienceLevel),
			"type":     string(posting.JobType),
			"remote":   fmt.Sprintf("%t", posting.Remote),
			"skills":   strings.Join(posting.RequiredSkills, ", "),
		}
		if posting.ApplicationURL != "" {
			entry["url"] = posting.ApplicationURL
		}
		if posting.SalaryRange != nil {
			entry["salary"] = fmt.Sprintf("%.0f-%.0f", posting.SalaryRange.Min, posting.SalaryRange.Max)
		}
		report[posting.Company] = append(report[posting.Company], entry)
	}
	return report
}

func (p *Postings) ToExcluded() *ExcludedPostings {
	excluded := &ExcludedPostings{}
	now := time.Now().UTC()
	for _, posting := range p.Items {
		excluded.Items = append(excluded.Items, &ExcludedPosting{
			ID:         posting.ID,
			URL:        posting.ApplicationURL,
			Company:    posting.Company,
			ExcludedAt: now,
		})
	}
	return excluded
}

// ExcludedPostings is the list of postings a user dismissed; it is persisted as JSON.
type ExcludedPostings struct {
	Items []*ExcludedPosting
}

type ExcludedPosting struct {
	ID         string
	URL        string
	Company    string
	ExcludedAt time.Time
}

// ExcludedFromFile reads an exclude file. A missing or empty file yields an empty list.
func ExcludedFromFile(path string) (*ExcludedPostings, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ExcludedPostings{}, nil
		}
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedPostings{}, nil
	}

	var excluded ExcludedPostings
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

// Append adds entries whose id is not already present.
func (e *ExcludedPostings) Append(s *ExcludedPostings) {
	seen := make(map[string]struct{}, len(e.Items))
	for _, item := range e.Items {
		seen[item.ID] = struct{}{}
	}
	for _, item := range s.Items {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		e.Items = append(e.Items, item)
	}
}

func (e *ExcludedPostings) IDs() []string {
	ids := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

func (e *ExcludedPostings) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
