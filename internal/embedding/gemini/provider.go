// Package gemini embeds text with the Gemini embedding models.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/jobrec/internal/embedding"
	"github.com/spigell/jobrec/internal/logger"
	"github.com/spigell/jobrec/internal/utils"
)

const (
	defaultModel    = "text-embedding-004"
	defaultTaskType = "SEMANTIC_SIMILARITY"
	// Quota errors asking to wait longer than this are not worth retrying
	// inside a single request.
	maxQuotaDelay = 10 * time.Second
	maxLogLength  = 120
)

var quotaDelayPattern = regexp.MustCompile(`(?i)retry (?:after|in) ([0-9]+(?:\.[0-9]+)?) ?(ms|s|sec|secs|seconds?)\b`)

type contentEmbedder interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Provider implements embedding.Provider on top of the Google GenAI client.
type Provider struct {
	models   contentEmbedder
	model    string
	dim      int
	taskType string
	logger   *zap.Logger
}

func New(ctx context.Context, apiKey, model string, dim int, log *zap.Logger) (*Provider, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if dim <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dim)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	return &Provider{
		models:   client.Models,
		model:    model,
		dim:      dim,
		taskType: defaultTaskType,
		logger:   logger.WithCommonFields(log, "gemini", model),
	}, nil
}

func (p *Provider) Name() string   { return "gemini" }
func (p *Provider) Model() string  { return p.model }
func (p *Provider) Dimension() int { return p.dim }

func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	if p == nil || p.models == nil {
		return nil, embedding.Permanent(errors.New("gemini provider is not initialized"))
	}

	p.logger.Debug("gemini embed content request",
		zap.Int("text_length", len(text)),
		zap.String("text_preview", utils.TruncateForLog(text, maxLogLength)),
	)

	dim := int32(p.dim)
	resp, err := p.models.EmbedContent(ctx, p.model, genai.Text(text), &genai.EmbedContentConfig{
		TaskType:             p.taskType,
		OutputDimensionality: &dim,
	})
	if err != nil {
		return nil, classify(fmt.Errorf("embed content: %w", err))
	}

	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		return nil, embedding.ErrEmptyEmbedding
	}

	return resp.Embeddings[0].Values, nil
}

// classify marks client errors and long quota waits as permanent so the
// retry wrapper gives up early.
func classify(err error) error {
	apiErr, ok := asAPIError(err)
	if !ok {
		return err
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		if delay, found := quotaDelay(apiErr.Message); found && delay > maxQuotaDelay {
			return embedding.Permanent(err)
		}
		return err
	case apiErr.Code >= http.StatusInternalServerError:
		return err
	case apiErr.Code >= http.StatusBadRequest:
		return embedding.Permanent(err)
	default:
		return err
	}
}

func asAPIError(err error) (genai.APIError, bool) {
	var value genai.APIError
	if errors.As(err, &value) {
		return value, true
	}
	var ptr *genai.APIError
	if errors.As(err, &ptr) && ptr != nil {
		return *ptr, true
	}
	return genai.APIError{}, false
}

func quotaDelay(message string) (time.Duration, bool) {
	match := quotaDelayPattern.FindStringSubmatch(message)
	if match == nil {
		return 0, false
	}

	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}

	unit := time.Second
	if strings.EqualFold(match[2], "ms") {
		unit = time.Millisecond
	}
	return time.Duration(value * float64(unit)), true
}
