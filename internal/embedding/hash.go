package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"strings"
	"unicode"
)

const DefaultDimension = 256

// Hash is a deterministic, offline provider: a signed feature-hashed bag of
// words, L2-normalized. Texts with no usable tokens get a pseudo-random unit
// vector seeded from the text, so the result is never all-zero.
type Hash struct {
	dim int
}

func NewHash(dim int) *Hash {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &Hash{dim: dim}
}

func (h *Hash) Name() string   { return "hash" }
func (h *Hash) Dimension() int { return h.dim }

func (h *Hash) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float64, h.dim)
	for _, token := range Tokenize(text) {
		sum := hash64(token)
		idx := sum % uint64(h.dim)
		if sum>>63 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	if norm(vec) == 0 {
		seed := hash64(text)
		rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		for i := range vec {
			vec[i] = rng.NormFloat64()
		}
	}

	n := norm(vec)
	out := make([]float32, h.dim)
	for i, x := range vec {
		out[i] = float32(x / n)
	}
	return out, nil
}

// Tokenize lower-cases text and splits it into word tokens, keeping the
// characters that appear in technology names such as "c++", "c#" and "node.js".
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '+' || r == '#')
	})

	tokens := fields[:0]
	for _, field := range fields {
		field = strings.Trim(field, ".")
		if field != "" {
			tokens = append(tokens, field)
		}
	}
	return tokens
}

func hash64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

func norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
