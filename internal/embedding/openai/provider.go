// Package openai embeds text with the OpenAI embeddings endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/spigell/jobrec/internal/embedding"
	"github.com/spigell/jobrec/internal/logger"
	"github.com/spigell/jobrec/internal/utils"
)

const (
	defaultModel = openai.EmbeddingModelTextEmbedding3Small
	maxLogLength = 120
)

type embeddingsCreator interface {
	New(ctx context.Context, body openai.EmbeddingNewParams, opts ...option.RequestOption) (*openai.CreateEmbeddingResponse, error)
}

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// Dimension is requested from the API; text-embedding-3 models support shortening.
	Dimension int
}

// Provider implements embedding.Provider with the official OpenAI SDK.
type Provider struct {
	embeddings embeddingsCreator
	model      string
	dim        int
	logger     *zap.Logger
}

func New(cfg Config, log *zap.Logger) (*Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", cfg.Dimension)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		// Retries are handled by embedding.Retrying.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	client := openai.NewClient(opts...)

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = string(defaultModel)
	}

	return &Provider{
		embeddings: &client.Embeddings,
		model:      model,
		dim:        cfg.Dimension,
		logger:     logger.WithCommonFields(log, "openai", model),
	}, nil
}

func (p *Provider) Name() string   { return "openai" }
func (p *Provider) Model() string  { return p.model }
func (p *Provider) Dimension() int { return p.dim }

func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	if p == nil || p.embeddings == nil {
		return nil, embedding.Permanent(errors.New("openai provider is not initialized"))
	}

	// The endpoint rejects empty input.
	if strings.TrimSpace(text) == "" {
		text = " "
	}

	p.logger.Debug("openai embeddings request",
		zap.Int("text_length", len(text)),
		zap.String("text_preview", utils.TruncateForLog(text, maxLogLength)),
	)

	resp, err := p.embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:          openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model:          openai.EmbeddingModel(p.model),
		Dimensions:     openai.Int(int64(p.dim)),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, classify(fmt.Errorf("create embedding: %w", err))
	}

	if resp == nil || len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, embedding.ErrEmptyEmbedding
	}

	values := resp.Data[0].Embedding
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out, nil
}

func classify(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	switch {
	case apiErr.StatusCode == http.StatusTooManyRequests, apiErr.StatusCode >= http.StatusInternalServerError:
		return err
	case apiErr.StatusCode >= http.StatusBadRequest:
		return embedding.Permanent(err)
	default:
		return err
	}
}
