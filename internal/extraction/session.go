package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/harunnryd/eventcorner/internal/auth"
	"github.com/harunnryd/eventcorner/internal/backend"
	ecerrors "github.com/harunnryd/eventcorner/internal/errors"
	"github.com/harunnryd/eventcorner/internal/eventdata"
	"github.com/harunnryd/eventcorner/internal/logger"
	"github.com/harunnryd/eventcorner/internal/notify"
	"github.com/harunnryd/eventcorner/internal/transcript"

	"github.com/oklog/ulid/v2"
)

const (
	GreetingMessage    = "Hi! I'm your event planning assistant. Tell me about the event you'd like to create: what it is, when and where it happens, and who it's for."
	FallbackMessage    = "Sorry, I encountered an error. Please try again."
	CompletionMessage  = "Great! I've extracted all the details for your event. Please review and edit if needed."
	DefaultQuestion    = "Could you tell me a bit more about your event?"
	failureNoticeTitle = "Failed to process your message"
)

// Extractor is the conversation-extraction endpoint.
type Extractor interface {
	ExtractEvent(ctx context.Context, req backend.ExtractRequest) (*backend.ExtractionResult, error)
}

// AcceptFunc receives the accepted event object.
type AcceptFunc func(data *eventdata.Object)

// Outcome is the result of one send cycle.
type Outcome int

const (
	OutcomeClarification Outcome = iota + 1
	OutcomeCompletion
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeClarification:
		return "clarification"
	case OutcomeCompletion:
		return "completion"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

type Options struct {
	Extractor Extractor
	Notifier  notify.Notifier
	OnAccept  AcceptFunc
	Auth      auth.Context
	Greeting  string
}

// Snapshot is an immutable view of the session after a change.
type Snapshot struct {
	SessionID       string
	Turns           []transcript.Turn
	LatestExtracted *eventdata.Object
	IsComplete      bool
	Pending         bool
	Closed          bool
}

// Session drives the conversational extraction. The backend owns the
// cumulative extraction state: every response replaces LatestExtracted.
type Session struct {
	id        string
	extractor Extractor
	notifier  notify.Notifier
	onAccept  AcceptFunc
	auth      auth.Context

	mu         sync.Mutex
	transcript *transcript.Transcript
	latest     *eventdata.Object
	complete   bool
	pending    bool
	closed     bool

	observers  map[int]func(Snapshot)
	nextObsKey int
}

func NewSession(opts Options) (*Session, error) {
	if opts.Extractor == nil {
		return nil, ecerrors.InvalidInput("extractor is required")
	}

	greeting := strings.TrimSpace(opts.Greeting)
	if greeting == "" {
		greeting = GreetingMessage
	}
	tr, err := transcript.New(transcript.Turn{Role: transcript.RoleAssistant, Content: greeting})
	if err != nil {
		return nil, err
	}

	return &Session{
		id:         ulid.Make().String(),
		extractor:  opts.Extractor,
		notifier:   notify.OrDiscard(opts.Notifier),
		onAccept:   opts.OnAccept,
		auth:       opts.Auth,
		transcript: tr,
		observers:  make(map[int]func(Snapshot)),
	}, nil
}

func (s *Session) ID() string {
	return s.id
}

// SendUserMessage runs one request/response cycle. The returned error is
// non-nil only when the message is rejected before anything is appended
// (blank text, call in flight, finished session). Backend failures are
// absorbed into a fallback turn plus a notification and reported as
// OutcomeFailure.
func (s *Session) SendUserMessage(ctx context.Context, text string) (Outcome, error) {
	if strings.TrimSpace(text) == "" {
		return 0, ecerrors.InvalidInput("message is required")
	}

	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return 0, ecerrors.InvalidInput("session is closed")
	case s.pending:
		s.mu.Unlock()
		return 0, ecerrors.Busy("extraction request already in flight")
	case s.complete:
		s.mu.Unlock()
		return 0, ecerrors.InvalidInput("event details are already complete")
	}

	history := s.transcript.History(s.transcript.Len())
	if err := s.transcript.Append(transcript.Turn{Role: transcript.RoleUser, Content: text}); err != nil {
		s.mu.Unlock()
		return 0, err
	}
	s.pending = true
	s.mu.Unlock()
	s.publish()

	ctx = logger.WithSessionID(ctx, s.id)
	started := time.Now()
	res, err := s.extractor.ExtractEvent(ctx, backend.ExtractRequest{
		Message:             text,
		ConversationHistory: history,
	})
	if err == nil {
		err = validateResult(res)
	}

	var outcome Outcome
	s.mu.Lock()
	s.pending = false
	if err != nil {
		outcome = OutcomeFailure
		s.appendLocked(transcript.Turn{Role: transcript.RoleAssistant, Content: FallbackMessage})
	} else if res.NeedsClarification {
		outcome = OutcomeClarification
		question := strings.TrimSpace(res.Question)
		if question == "" {
			question = DefaultQuestion
		}
		s.appendLocked(transcript.Turn{
			Role:           transcript.RoleAssistant,
			Content:        question,
			ExtractedSoFar: res.ExtractedSoFar,
			MissingFields:  res.MissingFields,
		})
		if !res.ExtractedSoFar.IsEmpty() {
			s.latest = res.ExtractedSoFar.Clone()
		}
	} else {
		outcome = OutcomeCompletion
		message := strings.TrimSpace(res.Message)
		if message == "" {
			message = CompletionMessage
		}
		s.appendLocked(transcript.Turn{Role: transcript.RoleAssistant, Content: message, IsComplete: true})
		s.latest = res.EventData.Clone()
		s.complete = true
	}
	s.mu.Unlock()

	slog.Info("Extraction turn finished",
		"session_id", s.id,
		"user_id", s.auth.UserID,
		"outcome", outcome.String(),
		"duration_ms", time.Since(started).Milliseconds(),
	)

	if err != nil {
		slog.Warn("Extraction request failed", "session_id", s.id, "category", ecerrors.Category(err), "error", err)
		s.notifier.Notify(ctx, notify.Notice{Level: notify.LevelError, Message: failureNoticeTitle, Err: err})
	}
	s.publish()
	return outcome, nil
}

// AcceptExtractedData hands the extracted object to the acceptance callback
// and closes the session. It does nothing unless the session is complete
// and holds data.
func (s *Session) AcceptExtractedData() bool {
	s.mu.Lock()
	if s.closed || !s.complete || s.latest == nil {
		s.mu.Unlock()
		return false
	}
	data := s.latest.Clone()
	s.closed = true
	s.mu.Unlock()

	if s.onAccept != nil {
		s.onAccept(data)
	}
	slog.Info("Extracted event accepted", "session_id", s.id, "fields", data.Len())
	s.publish()
	return true
}

// UpdatePreview edits one field of the latest extracted object. The
// transcript is never rewritten.
func (s *Session) UpdatePreview(key string, value eventdata.Value) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ecerrors.InvalidInput("field name is required")
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ecerrors.InvalidInput("session is closed")
	}
	if s.latest == nil {
		s.mu.Unlock()
		return ecerrors.InvalidInput("nothing has been extracted yet")
	}
	if value.Kind == eventdata.KindNull {
		s.latest.Delete(key)
	} else {
		s.latest.Set(key, value.Clone())
	}
	s.mu.Unlock()

	s.publish()
	return nil
}

// Close discards the session without accepting anything.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.publish()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every change.
func (s *Session) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	key := s.nextObsKey
	s.nextObsKey++
	s.observers[key] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, key)
		s.mu.Unlock()
	}
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		SessionID:       s.id,
		Turns:           s.transcript.Turns(),
		LatestExtracted: s.latest.Clone(),
		IsComplete:      s.complete,
		Pending:         s.pending,
		Closed:          s.closed,
	}
}

func (s *Session) appendLocked(turn transcript.Turn) {
	if err := s.transcript.Append(turn); err != nil {
		slog.Error("Failed to append turn", "session_id", s.id, "error", err)
	}
}

func (s *Session) publish() {
	s.mu.Lock()
	snap := s.snapshotLocked()
	observers := make([]func(Snapshot), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}

func validateResult(res *backend.ExtractionResult) error {
	if res == nil {
		return ecerrors.Transport("empty extraction result")
	}
	if !res.NeedsClarification && res.EventData.IsEmpty() {
		return ecerrors.Application(fmt.Sprintf("completion without event data (message %q)", res.Message))
	}
	return nil
}
