package llm

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrMissingAPIKey is a configuration error: no credential was supplied.
	ErrMissingAPIKey = errors.New("missing API key")

	ErrUnknownProvider = errors.New("unknown LLM provider")
	ErrEmptyResponse   = errors.New("model returned no completion")
)

// Request is a single chat completion: one system message, one user message.
type Request struct {
	System      string
	Prompt      string
	Model       string   // client default when empty
	Temperature *float64 // client default when nil
	MaxTokens   int
}

// Generator sends a prompt to a hosted model and returns its reply text.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Name() string
}

// GenerationError wraps any failure of a generate call: transport,
// authentication, quota or a malformed reply.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsGenerationError reports whether err is a generation failure.
func IsGenerationError(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

func (f GeneratorFunc) Name() string { return "func" }
