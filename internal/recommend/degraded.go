package recommend

import (
	"context"
	"hash/fnv"
	"math/rand/v2"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobrec/internal/matching"
	"github.com/spigell/jobrec/internal/posting"
)

const (
	placeholderMin = 60
	placeholderMax = 100

	degradedReason       = "Matches your profile"
	degradedReasonWeight = 0.5
)

// degraded answers from the most recent catalog postings. It never fails:
// an unavailable catalog or a failing filter yields an empty list.
func (c *call) degraded(ctx context.Context) []*matching.Recommendation {
	// The request deadline may be what sent us here.
	ctx = context.WithoutCancel(ctx)

	all, err := c.engine.catalog.All(ctx)
	if err != nil {
		c.logger.Warn("catalog unavailable in degraded mode", zap.Error(err))
		return []*matching.Recommendation{}
	}

	// Filtering compacts in place; the catalog's slice stays untouched.
	candidates := posting.New(append([]*posting.JobPosting(nil), all...)...)
	candidates.SortByRecency()
	candidates, err = c.filters.Run(ctx, candidates)
	if err != nil {
		// Postings that may violate the caller's constraints are never returned.
		c.logger.Warn("filtering in degraded mode failed", zap.Error(err))
		return []*matching.Recommendation{}
	}
	candidates.Limit(c.opts.limit())

	recs := make([]*matching.Recommendation, 0, candidates.Len())
	for _, job := range candidates.Items {
		rec := matching.NewRecommendation(job)
		rec.MatchScore = PlaceholderScore(job.ID, c.profile.Text)
		rec.Reasons = []matching.Reason{{
			Type:        matching.SkillMatch,
			Description: degradedReason,
			Weight:      degradedReasonWeight,
		}}
		rec.MissingSkills = MissingSkillsPlain(job.RequiredSkills, c.profile.Skills)
		rec.GrowthPotential = c.engine.scorer.GrowthPotential(c.profile.Experience.TotalYears, job.RequiredSkills)
		recs = append(recs, rec)
	}
	return recs
}

// PlaceholderScore is a deterministic pseudo-random score in [60,100] for
// the given posting and profile text.
func PlaceholderScore(postingID, profileText string) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(postingID))
	_, _ = h.Write([]byte(profileText))
	seed := h.Sum64()

	r := rand.New(rand.NewPCG(seed, seed>>1|1))
	return placeholderMin + r.IntN(placeholderMax-placeholderMin+1)
}

// MissingSkillsPlain lists required skills that no profile skill contains
// or is contained by, ignoring case. No synonym clusters are consulted.
func MissingSkillsPlain(required, skills []string) []string {
	missing := []string{}
	for _, req := range required {
		r := strings.ToLower(strings.TrimSpace(req))
		if r == "" {
			continue
		}
		found := false
		for _, skill := range skills {
			s := strings.ToLower(strings.TrimSpace(skill))
			if s != "" && (strings.Contains(r, s) || strings.Contains(s, r)) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, req)
		}
	}
	return missing
}
