// Package model routes completion requests to the LLM providers named in the
// models registry.
package model

import (
	"context"

	"github.com/harunnryd/eventcorner/internal/model/contract"
)

// ModelRouter picks a provider by registry name, falling back to the
// configured fallback model when the first choice fails.
type ModelRouter interface {
	Route(ctx context.Context, model string, req contract.CompletionRequest) (*contract.CompletionResponse, error)
	DefaultModel() string
	ListModels() []string
	Health(ctx context.Context) error
}

// Provider is one registry entry bound to its client. Type is the provider
// kind (openai, ollama, anthropic, gemini).
type Provider interface {
	Name() string
	Type() string
	Generate(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error)
	Health(ctx context.Context) error
}

var _ ModelRouter = (*DefaultModelRouter)(nil)
