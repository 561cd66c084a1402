package recommend

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobrec/internal/logger"
	"github.com/spigell/jobrec/internal/matching"
	"github.com/spigell/jobrec/internal/resume"
)

const (
	explainReasons = 3
	explainMissing = 3
)

// Explain scores a single posting for the resume and renders the result.
func (e *Engine) Explain(ctx context.Context, jobID string, doc *resume.Document, prefs *resume.Preferences) (string, error) {
	rec, err := e.Score(ctx, jobID, doc, prefs)
	if err != nil {
		return "", err
	}
	return FormatExplanation(rec), nil
}

// Score returns the full recommendation for one posting.
func (e *Engine) Score(ctx context.Context, jobID string, doc *resume.Document, prefs *resume.Preferences) (*matching.Recommendation, error) {
	log := logger.WithRequest(e.logger, RequestID(ctx)).With(zap.String(logger.FieldPostingID, jobID))

	job, ok := e.catalog.GetByID(strings.TrimSpace(jobID))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPostingNotFound, jobID)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	p := e.extract(ctx, doc, prefs)
	rec, err := e.scorer.Score(p, job)
	if err != nil {
		log.Warn("scoring posting failed", zap.Error(err))
		return nil, fmt.Errorf("scoring posting %s: %w", jobID, err)
	}

	log.Debug("posting scored", zap.Int("match_score", rec.MatchScore))
	return rec, nil
}

// FormatExplanation renders the top reasons and missing skills of a
// recommendation as short lines.
func FormatExplanation(rec *matching.Recommendation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s at %s: %d%% match\n", rec.Title, rec.Company, rec.MatchScore)

	if len(rec.Reasons) > 0 {
		b.WriteString("Why it fits:\n")
		for i, reason := range rec.Reasons {
			if i == explainReasons {
				break
			}
			fmt.Fprintf(&b, "  - %s\n", reason.Description)
		}
	}

	if len(rec.MissingSkills) > 0 {
		b.WriteString("Skills to develop:\n")
		for i, skill := range rec.MissingSkills {
			if i == explainMissing {
				break
			}
			fmt.Fprintf(&b, "  - %s\n", skill)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
