package model

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/harunnryd/eventcorner/internal/config"
	ecerrors "github.com/harunnryd/eventcorner/internal/errors"
	"github.com/harunnryd/eventcorner/internal/logger"
	"github.com/harunnryd/eventcorner/internal/model/contract"
	anthropicProvider "github.com/harunnryd/eventcorner/internal/model/providers/anthropic"
	geminiProvider "github.com/harunnryd/eventcorner/internal/model/providers/gemini"
	openaiProvider "github.com/harunnryd/eventcorner/internal/model/providers/openai"
)

// DefaultModelRouter serves requests from the models registry.
type DefaultModelRouter struct {
	cfg       config.ModelsConfig
	providers map[string]Provider
	mapper    ecerrors.ErrorMapper
	mu        sync.RWMutex
}

type RouterOption func(*DefaultModelRouter)

// WithProvider registers p under name, replacing any registry entry of the
// same name.
func WithProvider(name string, p Provider) RouterOption {
	return func(r *DefaultModelRouter) {
		r.providers[name] = p
	}
}

// NewModelRouter builds a provider for every registry entry. Providers
// passed with WithProvider take precedence over registry entries.
func NewModelRouter(cfg config.ModelsConfig, opts ...RouterOption) (*DefaultModelRouter, error) {
	router := &DefaultModelRouter{
		cfg:       cfg,
		providers: make(map[string]Provider),
		mapper:    ecerrors.NewDefaultErrorMapper(),
	}

	if err := router.initProviders(); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(router)
	}

	if len(router.providers) == 0 {
		return nil, ecerrors.InvalidInput("no models configured")
	}
	return router, nil
}

// DefaultModel is the model used when a request names none.
func (r *DefaultModelRouter) DefaultModel() string {
	if r.cfg.Default != "" {
		return r.cfg.Default
	}
	models := r.ListModels()
	if len(models) == 0 {
		return ""
	}
	return models[0]
}

// Route routes a completion request to the appropriate provider
func (r *DefaultModelRouter) Route(ctx context.Context, model string, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	if model == "" {
		model = r.DefaultModel()
	}
	requestID := logger.GetRequestID(ctx)

	slog.Debug("Routing completion request", "model", model, "json_mode", req.JSONMode, "request_id", requestID)

	provider, err := r.resolveProvider(ctx, model)
	if err != nil {
		return nil, err
	}

	return r.executeWithFallback(ctx, provider, req, requestID)
}

// ListModels returns all registered model names, sorted.
func (r *DefaultModelRouter) ListModels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	models := make([]string, 0, len(r.providers))
	for name := range r.providers {
		models = append(models, name)
	}
	sort.Strings(models)
	return models
}

// Health checks the default model's provider.
func (r *DefaultModelRouter) Health(ctx context.Context) error {
	model := r.DefaultModel()

	r.mu.RLock()
	provider, ok := r.providers[model]
	r.mu.RUnlock()
	if !ok {
		return ecerrors.NotFound(fmt.Sprintf("model %s not found", model))
	}

	if err := provider.Health(ctx); err != nil {
		slog.Warn("Provider unhealthy", "model", model, "error", err)
		return ecerrors.WrapWithCategory(err, fmt.Sprintf("model %s unavailable", model), ecerrors.ErrTransient)
	}
	return nil
}

// initProviders initializes all providers from configuration
func (r *DefaultModelRouter) initProviders() error {
	for _, entry := range r.cfg.Registry {
		provider, err := createProvider(entry)
		if err != nil {
			slog.Warn("Failed to create provider", "provider", entry.Provider, "model", entry.Name, "error", err)
			continue
		}

		r.providers[entry.Name] = provider
		slog.Debug("Provider initialized", "name", entry.Name, "type", entry.Provider)
	}

	if len(r.providers) == 0 && len(r.cfg.Registry) > 0 {
		return ecerrors.Internal("no providers initialized")
	}

	return nil
}

// resolveProvider resolves a provider by model name with fallback
func (r *DefaultModelRouter) resolveProvider(ctx context.Context, model string) (Provider, error) {
	select {
	case <-ctx.Done():
		return nil, ecerrors.Wrap(ctx.Err(), "provider resolution cancelled")
	default:
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if provider, ok := r.providers[model]; ok {
		return provider, nil
	}

	slog.Warn("Model not found", "model", model)
	if r.cfg.Fallback != "" && model != r.cfg.Fallback {
		if fallback, ok := r.providers[r.cfg.Fallback]; ok {
			slog.Info("Trying fallback model", "model", model, "fallback", r.cfg.Fallback)
			return fallback, nil
		}
	}
	return nil, ecerrors.NotFound(fmt.Sprintf("model %s not found", model))
}

// executeWithFallback executes a request with fallback logic
func (r *DefaultModelRouter) executeWithFallback(ctx context.Context, provider Provider, req contract.CompletionRequest, requestID string) (*contract.CompletionResponse, error) {
	maxAttempts := r.cfg.MaxFallbackAttempts
	if maxAttempts <= 0 {
		maxAttempts = config.DefaultModelMaxFallbackAttempts
	}

	current := provider
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ecerrors.Wrap(ctx.Err(), "request execution cancelled")
		default:
		}

		resp, err := current.Generate(ctx, req)
		if err == nil {
			slog.Debug("Request completed", "model", current.Name(), "attempt", attempt+1, "request_id", requestID)
			return resp, nil
		}
		lastErr = err

		slog.Error("Provider request failed", "model", current.Name(), "type", current.Type(), "attempt", attempt+1, "error", err, "request_id", requestID)

		if r.cfg.Fallback == "" || current.Name() == r.cfg.Fallback {
			break
		}

		r.mu.RLock()
		fallback, ok := r.providers[r.cfg.Fallback]
		r.mu.RUnlock()
		if !ok {
			return nil, ecerrors.NotFound(fmt.Sprintf("fallback model %s not found", r.cfg.Fallback))
		}

		slog.Info("Attempting fallback", "from", current.Name(), "to", r.cfg.Fallback)
		current = fallback
	}

	return nil, ecerrors.WrapWithCategory(lastErr, "provider request failed", r.mapper.MapError(lastErr))
}

// createProvider creates a provider instance based on registry entry
func createProvider(entry config.ModelRegistry) (Provider, error) {
	timeout, err := config.DurationOrDefault(entry.RequestTimeout, config.DefaultModelRequestTimeout)
	if err != nil {
		return nil, ecerrors.InvalidInput(fmt.Sprintf("invalid request_timeout for model %s: %v", entry.Name, err))
	}

	adapter := &ProviderAdapter{
		name:         entry.Name,
		providerType: strings.ToLower(entry.Provider),
		timeout:      timeout,
	}

	switch adapter.providerType {
	case "openai":
		baseURL := entry.BaseURL
		if baseURL == "" {
			baseURL = config.DefaultOpenAIBaseURL
		}

		if entry.APIKey == "" {
			return nil, ecerrors.InvalidInput("API key required for OpenAI provider")
		}

		adapter.provider = openaiProvider.New(entry.APIKey, baseURL)

	case "ollama":
		baseURL := entry.BaseURL
		if baseURL == "" {
			baseURL = config.DefaultOllamaBaseURL
		}

		apiKey := entry.APIKey
		if apiKey == "" {
			apiKey = config.DefaultOllamaAPIKey
		}

		adapter.provider = openaiProvider.New(apiKey, baseURL)

	case "anthropic":
		if entry.APIKey == "" {
			return nil, ecerrors.InvalidInput("API key required for Anthropic provider")
		}

		adapter.provider = anthropicProvider.New(entry.APIKey, entry.BaseURL)

	case "gemini":
		if entry.APIKey == "" {
			return nil, ecerrors.InvalidInput("API key required for Gemini provider")
		}

		provider, err := geminiProvider.New(entry.APIKey)
		if err != nil {
			return nil, ecerrors.WrapWithCategory(err, "failed to create Gemini provider", ecerrors.ErrInternal)
		}
		adapter.provider = provider

	default:
		return nil, ecerrors.InvalidInput(fmt.Sprintf("unknown provider type: %s", entry.Provider))
	}

	return adapter, nil
}
