// Package embedding turns text into fixed-length vectors.
package embedding

import (
	"context"
	"errors"
)

// Provider embeds text into vectors of Dimension() length.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
	Name() string
}

// Modeler is implemented by providers backed by a named remote model.
type Modeler interface {
	Model() string
}

// ModelOf returns the provider's model name, if it has one.
func ModelOf(p Provider) string {
	if m, ok := p.(Modeler); ok {
		return m.Model()
	}
	return ""
}

var ErrEmptyEmbedding = errors.New("provider returned an empty embedding")

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as one that retrying will not fix.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// IsZero reports whether every component of v is zero.
func IsZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
