package model

import (
	"context"
	"time"

	"github.com/harunnryd/eventcorner/internal/model/contract"
)

// generator is what every provider package implements.
type generator interface {
	Generate(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error)
	Health(ctx context.Context) error
}

// ProviderAdapter binds a provider client to its registry entry: the model
// name sent upstream and the per-request timeout.
type ProviderAdapter struct {
	provider     generator
	name         string
	providerType string
	timeout      time.Duration
}

func (a *ProviderAdapter) Generate(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	req.Model = a.name
	resp, err := a.provider.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Model == "" {
		resp.Model = a.name
	}
	return resp, nil
}

func (a *ProviderAdapter) Name() string {
	return a.name
}

func (a *ProviderAdapter) Type() string {
	return a.providerType
}

func (a *ProviderAdapter) Health(ctx context.Context) error {
	return a.provider.Health(ctx)
}
