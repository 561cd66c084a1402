package openai

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/spigell/jobrec/internal/embedding"
)

type fakeEmbeddings struct {
	body openai.EmbeddingNewParams
	resp *openai.CreateEmbeddingResponse
	err  error
}

func (f *fakeEmbeddings) New(_ context.Context, body openai.EmbeddingNewParams, _ ...option.RequestOption) (*openai.CreateEmbeddingResponse, error) {
	f.body = body
	return f.resp, f.err
}

func TestEmbedConvertsValues(t *testing.T) {
	fake := &fakeEmbeddings{resp: &openai.CreateEmbeddingResponse{
		Data: []openai.Embedding{{Embedding: []float64{0.5, -0.25}}},
	}}
	p := &Provider{embeddings: fake, model: "text-embedding-3-small", dim: 2, logger: zap.NewNop()}

	vec, err := p.Embed(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.5 || vec[1] != -0.25 {
		t.Fatalf("unexpected vector: %v", vec)
	}

	if fake.body.Input.OfString.Value != " " {
		t.Fatalf("expected blank input to be padded, got %q", fake.body.Input.OfString.Value)
	}
	if fake.body.Dimensions.Value != 2 {
		t.Fatalf("expected dimensions 2, got %d", fake.body.Dimensions.Value)
	}
}

func TestEmbedEmptyData(t *testing.T) {
	p := &Provider{embeddings: &fakeEmbeddings{resp: &openai.CreateEmbeddingResponse{}}, dim: 2, logger: zap.NewNop()}

	if _, err := p.Embed(context.Background(), "x"); !errors.Is(err, embedding.ErrEmptyEmbedding) {
		t.Fatalf("expected ErrEmptyEmbedding, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		permanent bool
	}{
		{name: "rate limited", err: &openai.Error{StatusCode: http.StatusTooManyRequests}},
		{name: "server error", err: &openai.Error{StatusCode: http.StatusBadGateway}},
		{name: "unauthorized", err: &openai.Error{StatusCode: http.StatusUnauthorized}, permanent: true},
		{name: "transport", err: errors.New("dial tcp: timeout")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := embedding.IsPermanent(classify(tt.err)); got != tt.permanent {
				t.Fatalf("expected permanent=%v, got %v", tt.permanent, got)
			}
		})
	}
}

func TestNewValidatesConfig(t *testing.T) {
	if _, err := New(Config{Dimension: 8}, nil); err == nil {
		t.Fatalf("expected error without api key")
	}
	if _, err := New(Config{APIKey: "k"}, nil); err == nil {
		t.Fatalf("expected error without dimension")
	}

	p, err := New(Config{APIKey: "k", Dimension: 8}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Model() != string(openai.EmbeddingModelTextEmbedding3Small) || p.Dimension() != 8 {
		t.Fatalf("unexpected provider: %+v", p)
	}
}
