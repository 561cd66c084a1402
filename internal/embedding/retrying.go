package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jobrec/internal/utils"
)

const (
	DefaultMaxAttempts = 3
	DefaultBackoff     = 200 * time.Millisecond
	maxBackoff         = 5 * time.Second
)

// Retrying retries transient provider failures with exponential backoff.
// Errors marked Permanent and context errors are returned immediately.
type Retrying struct {
	Provider    Provider
	MaxAttempts int
	Backoff     time.Duration
	Logger      *zap.Logger
}

// NewRetrying wraps p, substituting defaults for non-positive settings.
func NewRetrying(p Provider, maxAttempts int, backoff time.Duration, logger *zap.Logger) *Retrying {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrying{Provider: p, MaxAttempts: maxAttempts, Backoff: backoff, Logger: logger}
}

func (r *Retrying) Name() string   { return r.Provider.Name() }
func (r *Retrying) Dimension() int { return r.Provider.Dimension() }
func (r *Retrying) Model() string  { return ModelOf(r.Provider) }

func (r *Retrying) Embed(ctx context.Context, text string) ([]float32, error) {
	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		vec, err := r.Provider.Embed(ctx, text)
		if err == nil && len(vec) == 0 {
			err = ErrEmptyEmbedding
		}
		if err == nil {
			return vec, nil
		}
		lastErr = err

		if IsPermanent(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			break
		}
		if attempt == attempts {
			break
		}

		delay := utils.Backoff(r.Backoff, maxBackoff, attempt)
		logger.Debug("embedding attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := utils.WaitFor(ctx, delay); err != nil {
			lastErr = err
			break
		}
	}

	return nil, fmt.Errorf("embedding with %s: %w", r.Provider.Name(), lastErr)
}
