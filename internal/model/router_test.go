package model

import (
	"context"
	stdErrors "errors"
	"testing"

	"github.com/harunnryd/eventcorner/internal/config"
	ecerrors "github.com/harunnryd/eventcorner/internal/errors"
	"github.com/harunnryd/eventcorner/internal/model/contract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name      string
	reply     string
	err       error
	healthErr error
	calls     int
	lastReq   contract.CompletionRequest
}

func (f *fakeProvider) Generate(_ context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &contract.CompletionResponse{Content: f.reply, Model: f.name}, nil
}

func (f *fakeProvider) Name() string                     { return f.name }
func (f *fakeProvider) Type() string                     { return "fake" }
func (f *fakeProvider) Health(ctx context.Context) error { return f.healthErr }

func TestRouteUsesDefaultModel(t *testing.T) {
	primary := &fakeProvider{name: "primary", reply: "hi"}
	r, err := NewModelRouter(config.ModelsConfig{Default: "primary"}, WithProvider("primary", primary))
	require.NoError(t, err)

	resp, err := r.Route(context.Background(), "", contract.CompletionRequest{JSONMode: true})
	require.NoError(t, err)
	assert.Equal(t, "hi", resp.Content)
	assert.True(t, primary.lastReq.JSONMode)
	assert.Equal(t, "primary", r.DefaultModel())
}

func TestRouteFallsBackOnFailure(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: stdErrors.New("connection refused")}
	backup := &fakeProvider{name: "backup", reply: "from backup"}
	r, err := NewModelRouter(
		config.ModelsConfig{Default: "primary", Fallback: "backup"},
		WithProvider("primary", primary),
		WithProvider("backup", backup),
	)
	require.NoError(t, err)

	resp, err := r.Route(context.Background(), "primary", contract.CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "from backup", resp.Content)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, backup.calls)
}

func TestRouteUnknownModelUsesFallback(t *testing.T) {
	backup := &fakeProvider{name: "backup", reply: "ok"}
	r, err := NewModelRouter(config.ModelsConfig{Fallback: "backup"}, WithProvider("backup", backup))
	require.NoError(t, err)

	_, err = r.Route(context.Background(), "missing", contract.CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, backup.calls)
}

func TestRouteUnknownModelWithoutFallback(t *testing.T) {
	r, err := NewModelRouter(config.ModelsConfig{}, WithProvider("only", &fakeProvider{name: "only"}))
	require.NoError(t, err)

	_, err = r.Route(context.Background(), "missing", contract.CompletionRequest{})
	assert.ErrorIs(t, err, ecerrors.ErrNotFound)
}

func TestRouteFailureIsCategorised(t *testing.T) {
	cause := stdErrors.New("dial tcp 127.0.0.1:11434: connect: connection refused")
	primary := &fakeProvider{name: "primary", err: cause}
	r, err := NewModelRouter(config.ModelsConfig{Default: "primary"}, WithProvider("primary", primary))
	require.NoError(t, err)

	_, err = r.Route(context.Background(), "", contract.CompletionRequest{})
	assert.ErrorIs(t, err, ecerrors.ErrTransient)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, primary.calls)
}

func TestRouteCancelledContext(t *testing.T) {
	primary := &fakeProvider{name: "primary"}
	r, err := NewModelRouter(config.ModelsConfig{Default: "primary"}, WithProvider("primary", primary))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Route(ctx, "", contract.CompletionRequest{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, primary.calls)
}

func TestHealth(t *testing.T) {
	primary := &fakeProvider{name: "primary", healthErr: stdErrors.New("connection refused")}
	r, err := NewModelRouter(config.ModelsConfig{Default: "primary"}, WithProvider("primary", primary))
	require.NoError(t, err)
	assert.ErrorIs(t, r.Health(context.Background()), ecerrors.ErrTransient)

	primary.healthErr = nil
	assert.NoError(t, r.Health(context.Background()))
}

func TestNewModelRouterRegistry(t *testing.T) {
	r, err := NewModelRouter(config.ModelsConfig{
		Default: "llama3.2",
		Registry: []config.ModelRegistry{
			{Name: "llama3.2", Provider: "ollama"},
			{Name: "gpt-4o-mini", Provider: "openai"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3.2"}, r.ListModels(), "openai entry without a key is skipped")

	_, err = NewModelRouter(config.ModelsConfig{Registry: []config.ModelRegistry{{Name: "x", Provider: "unknown"}}})
	assert.ErrorIs(t, err, ecerrors.ErrInternal)

	_, err = NewModelRouter(config.ModelsConfig{})
	assert.ErrorIs(t, err, ecerrors.ErrInvalidInput)
}

func TestProviderAdapterSetsModelName(t *testing.T) {
	inner := &fakeProvider{name: "inner", reply: "ok"}
	adapter := &ProviderAdapter{provider: inner, name: "llama3.2", providerType: "ollama"}

	resp, err := adapter.Generate(context.Background(), contract.CompletionRequest{Model: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "llama3.2", inner.lastReq.Model)
	assert.Equal(t, "inner", resp.Model)
	assert.Equal(t, "ollama", adapter.Type())
}

func TestSystemPrompt(t *testing.T) {
	req := contract.CompletionRequest{Messages: []contract.Message{
		{Role: contract.RoleSystem, Content: "one"},
		{Role: contract.RoleUser, Content: "hi"},
		{Role: contract.RoleSystem, Content: "two"},
	}}
	assert.Equal(t, "one\n\ntwo", contract.SystemPrompt(req))
}
