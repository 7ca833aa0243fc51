// Package assistant answers the two AI endpoints the front-ends call: free
// chat and conversational event extraction.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/harunnryd/eventcorner/internal/backend"
	"github.com/harunnryd/eventcorner/internal/config"
	ecerrors "github.com/harunnryd/eventcorner/internal/errors"
	"github.com/harunnryd/eventcorner/internal/logger"
	"github.com/harunnryd/eventcorner/internal/model/contract"
	"github.com/harunnryd/eventcorner/internal/transcript"
)

// Completer routes a completion to a model.
type Completer interface {
	Route(ctx context.Context, model string, req contract.CompletionRequest) (*contract.CompletionResponse, error)
}

type Options struct {
	// Model is the registry name; blank uses the router default.
	Model            string
	ChatPrompt       string
	ExtractionPrompt string
}

type Service struct {
	completer        Completer
	model            string
	chatPrompt       string
	extractionPrompt string
}

func NewService(completer Completer, opts Options) *Service {
	chatPrompt := strings.TrimSpace(opts.ChatPrompt)
	if chatPrompt == "" {
		chatPrompt = config.DefaultChatSystemPrompt
	}
	extractionPrompt := strings.TrimSpace(opts.ExtractionPrompt)
	if extractionPrompt == "" {
		extractionPrompt = config.DefaultExtractionSystemPrompt
	}
	return &Service{
		completer:        completer,
		model:            opts.Model,
		chatPrompt:       chatPrompt,
		extractionPrompt: extractionPrompt,
	}
}

// Chat answers one message. chatContext, when set, is passed to the model as
// an extra system message.
func (s *Service) Chat(ctx context.Context, message, chatContext string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ecerrors.InvalidInput("message is required")
	}

	messages := []contract.Message{{Role: contract.RoleSystem, Content: s.chatPrompt}}
	if c := strings.TrimSpace(chatContext); c != "" {
		messages = append(messages, contract.Message{Role: contract.RoleSystem, Content: "Context: " + c})
	}
	messages = append(messages, contract.Message{Role: contract.RoleUser, Content: message})

	started := time.Now()
	resp, err := s.completer.Route(ctx, s.model, contract.CompletionRequest{Messages: messages})
	if err != nil {
		return "", fmt.Errorf("chat failed: %w", err)
	}

	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return "", ecerrors.Internal("empty response from model")
	}

	slog.Info("Chat response generated",
		"request_id", logger.GetRequestID(ctx),
		"model", resp.Model,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return content, nil
}

// ConverseEvent runs one extraction turn. history is replayed before message
// and must not contain it. An answer that can't be parsed yields the fallback
// clarification rather than an error.
func (s *Service) ConverseEvent(ctx context.Context, message string, history []transcript.HistoryEntry) (*backend.ExtractionResult, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ecerrors.InvalidInput("message is required")
	}

	messages := make([]contract.Message, 0, len(history)+2)
	messages = append(messages, contract.Message{Role: contract.RoleSystem, Content: s.extractionPrompt})
	for _, entry := range history {
		messages = append(messages, contract.Message{Role: historyRole(entry.Role), Content: entry.Content})
	}
	messages = append(messages, contract.Message{Role: contract.RoleUser, Content: message})

	started := time.Now()
	resp, err := s.completer.Route(ctx, s.model, contract.CompletionRequest{Messages: messages, JSONMode: true})
	if err != nil {
		return nil, fmt.Errorf("event conversation failed: %w", err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return nil, ecerrors.Internal("empty response from model")
	}

	result, mode, parseErr := parseExtraction(resp.Content)
	if parseErr != nil {
		slog.Warn("Model answer is not valid JSON",
			"request_id", logger.GetRequestID(ctx),
			"error", parseErr,
			"raw", truncate(resp.Content, 200),
		)
	}

	slog.Info("Event conversation response generated",
		"request_id", logger.GetRequestID(ctx),
		"model", resp.Model,
		"parse_mode", string(mode),
		"needs_clarification", result.NeedsClarification,
		"history", len(history),
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return result, nil
}

func historyRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case contract.RoleAssistant:
		return contract.RoleAssistant
	case contract.RoleSystem:
		return contract.RoleSystem
	default:
		return contract.RoleUser
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
