package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/harunnryd/eventcorner/internal/auth"
	"github.com/harunnryd/eventcorner/internal/config"
	ecerrors "github.com/harunnryd/eventcorner/internal/errors"
	"github.com/harunnryd/eventcorner/internal/logger"
	"github.com/harunnryd/eventcorner/internal/transcript"

	"github.com/google/uuid"
)

const maxErrorBodyBytes = 64 * 1024

// Paths are the endpoint paths relative to the base URL.
type Paths struct {
	Extract string
	Chat    string
	Event   string
	Health  string
}

func DefaultPaths() Paths {
	return Paths{
		Extract: config.DefaultBackendExtractPath,
		Chat:    config.DefaultBackendChatPath,
		Event:   config.DefaultBackendEventPath,
		Health:  config.DefaultBackendHealthPath,
	}
}

// Client talks JSON to the event backend. One Client is bound to one auth context.
type Client struct {
	httpClient *http.Client
	baseURL    string
	paths      Paths
	session    auth.Context
	mapper     *ecerrors.DefaultErrorMapper
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

func WithPaths(p Paths) Option {
	return func(cl *Client) {
		def := DefaultPaths()
		if p.Extract == "" {
			p.Extract = def.Extract
		}
		if p.Chat == "" {
			p.Chat = def.Chat
		}
		if p.Event == "" {
			p.Event = def.Event
		}
		if p.Health == "" {
			p.Health = def.Health
		}
		cl.paths = p
	}
}

func WithAuth(ac auth.Context) Option {
	return func(cl *Client) {
		cl.session = ac
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		paths:      DefaultPaths(),
		mapper:     ecerrors.NewDefaultErrorMapper(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig builds a client from the backend config section.
func NewFromConfig(cfg config.BackendConfig, ac auth.Context) (*Client, error) {
	timeout, err := config.DurationOrDefault(cfg.Timeout, config.DefaultBackendTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse backend timeout: %w", err)
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ecerrors.InvalidInput("backend base url is required")
	}
	return New(cfg.BaseURL,
		WithHTTPClient(&http.Client{Timeout: timeout}),
		WithPaths(Paths{Extract: cfg.ExtractPath, Chat: cfg.ChatPath, Event: cfg.EventPath, Health: cfg.HealthPath}),
		WithAuth(ac),
	), nil
}

// ExtractEvent sends one conversation-extraction turn.
func (c *Client) ExtractEvent(ctx context.Context, req ExtractRequest) (*ExtractionResult, error) {
	if req.ConversationHistory == nil {
		req.ConversationHistory = []transcript.HistoryEntry{}
	}

	var resp ExtractResponse
	if err := c.do(ctx, http.MethodPost, c.paths.Extract, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Error != "" {
		return nil, ecerrors.Application(failureMessage("event extraction failed", resp.Error))
	}
	if resp.Result == nil {
		return nil, ecerrors.Transport("event extraction response has no result")
	}
	return resp.Result, nil
}

// Chat sends a single-turn assistant message.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	var resp ChatResponse
	if err := c.do(ctx, http.MethodPost, c.paths.Chat, req, &resp); err != nil {
		return "", err
	}
	if !resp.Success || resp.Error != "" {
		return "", ecerrors.Application(failureMessage("chat failed", resp.Error))
	}
	return resp.Response, nil
}

func (c *Client) GetEvent(ctx context.Context, id string) (*EventRecord, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ecerrors.InvalidInput("event id is required")
	}

	var resp GetEventResponse
	if err := c.do(ctx, http.MethodGet, c.eventPath(id), nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, ecerrors.Application(failureMessage("fetch event failed", resp.Message))
	}
	if resp.Event == nil {
		return nil, ecerrors.NotFound(fmt.Sprintf("event %s", id))
	}
	if resp.Event.ID == "" {
		resp.Event.ID = id
	}
	return resp.Event, nil
}

func (c *Client) UpdateEvent(ctx context.Context, id string, payload UpdatePayload) error {
	if strings.TrimSpace(id) == "" {
		return ecerrors.InvalidInput("event id is required")
	}

	var resp UpdateEventResponse
	if err := c.do(ctx, http.MethodPut, c.eventPath(id), payload, &resp); err != nil {
		return err
	}
	if !resp.Success || resp.Error != "" {
		msg := resp.Error
		if msg == "" {
			msg = resp.Message
		}
		return ecerrors.Application(failureMessage("update event failed", msg))
	}
	return nil
}

func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.do(ctx, http.MethodGet, c.paths.Health, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) eventPath(id string) string {
	return strings.TrimSuffix(c.paths.Event, "/") + "/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return ecerrors.WrapWithCategory(err, "encode request", ecerrors.ErrInvalidInput)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return ecerrors.WrapWithCategory(err, "build request", ecerrors.ErrTransport)
	}

	requestID := logger.GetRequestID(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session.Authenticated() {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("Backend request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return ecerrors.WrapWithCategory(err, fmt.Sprintf("%s %s", method, path), ecerrors.ErrTransport)
	}
	defer resp.Body.Close()

	slog.Debug("Backend request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return c.mapper.MapStatus(resp.StatusCode, errorMessageFromBody(raw))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return ecerrors.WrapWithCategory(err, "decode response", ecerrors.ErrTransport)
	}
	return nil
}

// errorMessageFromBody extracts error/message/detail from an error envelope.
func errorMessageFromBody(raw []byte) string {
	var env struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &env); err == nil {
		switch {
		case env.Error != "":
			return env.Error
		case env.Message != "":
			return env.Message
		case env.Detail != "":
			return env.Detail
		}
	}
	return strings.TrimSpace(string(raw))
}

func failureMessage(prefix, detail string) string {
	if strings.TrimSpace(detail) == "" {
		return prefix
	}
	return prefix + ": " + detail
}
