package widget

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/harunnryd/eventcorner/internal/auth"
	"github.com/harunnryd/eventcorner/internal/backend"
	ecerrors "github.com/harunnryd/eventcorner/internal/errors"
	"github.com/harunnryd/eventcorner/internal/logger"
	"github.com/harunnryd/eventcorner/internal/notify"
	"github.com/harunnryd/eventcorner/internal/transcript"

	"github.com/oklog/ulid/v2"
)

const (
	GreetingMessage = "Hi! I'm the Event Corner assistant. Ask me anything about events, tickets or your dashboard."
	FallbackMessage = "Sorry, I encountered an error. Please try again."
	EmptyReply      = "Sorry, I don't have an answer for that."
)

// Chatter is the single-turn chat endpoint.
type Chatter interface {
	Chat(ctx context.Context, req backend.ChatRequest) (string, error)
}

type Options struct {
	Chatter    Chatter
	Notifier   notify.Notifier
	Auth       auth.Context
	Visibility Visibility
	// ChatContext is forwarded as the optional context field of every request.
	ChatContext string
	Greeting    string
	Now         func() time.Time
}

type Snapshot struct {
	SessionID string
	Turns     []transcript.Turn
	Open      bool
	Pending   bool
}

// Session is the floating chat widget. Only the newest message is sent; no
// history is forwarded.
type Session struct {
	id          string
	chatter     Chatter
	notifier    notify.Notifier
	auth        auth.Context
	chatContext string
	now         func() time.Time

	mu         sync.Mutex
	transcript *transcript.Transcript
	open       bool
	pending    bool

	observers  map[int]func(Snapshot)
	nextObsKey int
}

// Mount constructs a widget session when the route and visitor qualify. When
// they don't, nothing is constructed and false is returned.
func Mount(ctx context.Context, route string, opts Options) (*Session, bool) {
	if !opts.Visibility.Visible(opts.Auth, route) {
		slog.DebugContext(ctx, "Widget hidden", "route", route, "authenticated", opts.Auth.Authenticated())
		return nil, false
	}
	if opts.Chatter == nil {
		slog.WarnContext(ctx, "Widget has no chat backend", "route", route)
		return nil, false
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	greeting := strings.TrimSpace(opts.Greeting)
	if greeting == "" {
		greeting = GreetingMessage
	}
	tr, err := transcript.New(transcript.Turn{Role: transcript.RoleAssistant, Content: greeting, CreatedAt: now()})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to seed widget transcript", "error", err)
		return nil, false
	}

	s := &Session{
		id:          ulid.Make().String(),
		chatter:     opts.Chatter,
		notifier:    notify.OrDiscard(opts.Notifier),
		auth:        opts.Auth,
		chatContext: strings.TrimSpace(opts.ChatContext),
		now:         now,
		transcript:  tr,
		observers:   make(map[int]func(Snapshot)),
	}
	slog.DebugContext(ctx, "Widget mounted", "session_id", s.id, "route", route)
	return s, true
}

func (s *Session) ID() string {
	return s.id
}

// Open shows the chat panel.
func (s *Session) Open() {
	s.setOpen(true)
}

// Close collapses the panel back to the launcher. The transcript is kept.
func (s *Session) Close() {
	s.setOpen(false)
}

func (s *Session) setOpen(open bool) {
	s.mu.Lock()
	changed := s.open != open
	s.open = open
	s.mu.Unlock()
	if changed {
		s.publish()
	}
}

// Send posts text as a single chat message. A non-nil error means the
// message was rejected and nothing was appended; backend failures become a
// fallback turn plus a notification.
func (s *Session) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ecerrors.InvalidInput("message is required")
	}

	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return ecerrors.Busy("chat request already in flight")
	}
	if err := s.transcript.Append(transcript.Turn{Role: transcript.RoleUser, Content: text, CreatedAt: s.now()}); err != nil {
		s.mu.Unlock()
		return err
	}
	s.pending = true
	s.mu.Unlock()
	s.publish()

	ctx = logger.WithSessionID(ctx, s.id)
	started := time.Now()
	reply, err := s.chatter.Chat(ctx, backend.ChatRequest{Message: text, Context: s.chatContext})

	content := strings.TrimSpace(reply)
	switch {
	case err != nil:
		content = FallbackMessage
	case content == "":
		content = EmptyReply
	}

	s.mu.Lock()
	s.pending = false
	if appendErr := s.transcript.Append(transcript.Turn{Role: transcript.RoleAssistant, Content: content, CreatedAt: s.now()}); appendErr != nil {
		slog.Error("Failed to append turn", "session_id", s.id, "error", appendErr)
	}
	s.mu.Unlock()

	if err != nil {
		slog.Warn("Chat request failed",
			"session_id", s.id,
			"user_id", s.auth.UserID,
			"category", ecerrors.Category(err),
			"error", err,
		)
		s.notifier.Notify(ctx, notify.Notice{Level: notify.LevelError, Message: "Failed to get a reply", Err: err})
	} else {
		slog.Debug("Chat turn finished", "session_id", s.id, "duration_ms", time.Since(started).Milliseconds())
	}
	s.publish()
	return nil
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

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
		SessionID: s.id,
		Turns:     s.transcript.Turns(),
		Open:      s.open,
		Pending:   s.pending,
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
