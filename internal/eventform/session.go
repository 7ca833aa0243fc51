package eventform

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/harunnryd/eventcorner/internal/auth"
	"github.com/harunnryd/eventcorner/internal/backend"
	"github.com/harunnryd/eventcorner/internal/config"
	ecerrors "github.com/harunnryd/eventcorner/internal/errors"
	"github.com/harunnryd/eventcorner/internal/notify"
)

type Phase int

const (
	PhaseLoading Phase = iota
	PhaseEditing
	PhaseSubmitting
	PhaseDone
	PhaseAborted
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseEditing:
		return "editing"
	case PhaseSubmitting:
		return "submitting"
	case PhaseDone:
		return "done"
	case PhaseAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Store is the record endpoint pair the form talks to.
type Store interface {
	GetEvent(ctx context.Context, id string) (*backend.EventRecord, error)
	UpdateEvent(ctx context.Context, id string, payload backend.UpdatePayload) error
}

// Navigator moves the front-end to another route.
type Navigator interface {
	Navigate(ctx context.Context, route string)
}

type NavigatorFunc func(ctx context.Context, route string)

func (f NavigatorFunc) Navigate(ctx context.Context, route string) {
	f(ctx, route)
}

type Options struct {
	Store     Store
	Notifier  notify.Notifier
	Navigator Navigator
	Auth      auth.Context
	// EventID comes from the route and is never changed by the session.
	EventID         string
	DefaultTimezone string
	AbortRoute      string
	// DetailRoute may contain a %s verb for the event id.
	DetailRoute string
}

type Snapshot struct {
	EventID        string
	Phase          Phase
	Draft          Draft
	TimezoneOffset string
	DirtyFields    []string
}

// Session is the edit flow of one event record.
type Session struct {
	eventID         string
	store           Store
	notifier        notify.Notifier
	navigator       Navigator
	auth            auth.Context
	defaultTimezone string
	abortRoute      string
	detailRoute     string

	mu    sync.Mutex
	phase Phase
	draft Draft
	dirty map[string]bool

	observers  map[int]func(Snapshot)
	nextObsKey int
}

func NewSession(opts Options) (*Session, error) {
	if opts.Store == nil {
		return nil, ecerrors.InvalidInput("event store is required")
	}
	if strings.TrimSpace(opts.EventID) == "" {
		return nil, ecerrors.InvalidInput("event id is required")
	}

	navigator := opts.Navigator
	if navigator == nil {
		navigator = NavigatorFunc(func(context.Context, string) {})
	}

	return &Session{
		eventID:         opts.EventID,
		store:           opts.Store,
		notifier:        notify.OrDiscard(opts.Notifier),
		navigator:       navigator,
		auth:            opts.Auth,
		defaultTimezone: orDefault(opts.DefaultTimezone, config.DefaultFormTimezone),
		abortRoute:      orDefault(opts.AbortRoute, config.DefaultFormAbortRoute),
		detailRoute:     orDefault(opts.DetailRoute, config.DefaultFormDetailRoute),
		phase:           PhaseLoading,
		dirty:           make(map[string]bool),
		observers:       make(map[int]func(Snapshot)),
	}, nil
}

// Load fetches the record and enters Editing. A fetch failure or a record
// owned by someone else aborts the session and navigates away.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != PhaseLoading {
		phase := s.phase
		s.mu.Unlock()
		return ecerrors.InvalidInput(fmt.Sprintf("cannot load in phase %s", phase))
	}
	s.mu.Unlock()

	if !s.auth.Authenticated() {
		return s.abort(ctx, ecerrors.Authorization("sign in to edit events"))
	}

	rec, err := s.store.GetEvent(ctx, s.eventID)
	if err != nil {
		return s.abort(ctx, fmt.Errorf("load event %s: %w", s.eventID, err))
	}
	if string(rec.CreatedBy) != s.auth.UserID {
		slog.Warn("Event owner mismatch",
			"event_id", s.eventID,
			"user_id", s.auth.UserID,
			"owner_id", string(rec.CreatedBy),
		)
		return s.abort(ctx, ecerrors.Authorization("you are not allowed to edit this event"))
	}

	s.mu.Lock()
	s.draft = draftFromRecord(rec, s.defaultTimezone)
	s.dirty = make(map[string]bool)
	s.phase = PhaseEditing
	s.mu.Unlock()

	slog.Info("Event loaded for editing", "event_id", s.eventID, "timeslots", len(rec.Timeslots))
	s.publish()
	return nil
}

func (s *Session) abort(ctx context.Context, err error) error {
	s.mu.Lock()
	s.phase = PhaseAborted
	s.mu.Unlock()

	level := notify.LevelError
	message := "Failed to load event"
	if ecerrors.IsCategory(err, ecerrors.ErrAuthorization) {
		level = notify.LevelWarning
		message = "You are not allowed to edit this event"
	}
	slog.Warn("Event form aborted", "event_id", s.eventID, "category", ecerrors.Category(err), "error", err)
	s.notifier.Notify(ctx, notify.Notice{Level: level, Message: message, Err: err})
	s.publish()
	s.navigator.Navigate(ctx, s.abortRoute)
	return err
}

// Set assigns a scalar field by its wire name.
func (s *Session) Set(field, value string) error {
	field = strings.TrimSpace(field)
	return s.edit(field, func(d *Draft) error {
		return d.set(field, value)
	})
}

// AddTag appends tag unless it is blank or already present (case-sensitive).
func (s *Session) AddTag(tag string) error {
	tag = strings.TrimSpace(tag)
	return s.edit("tags", func(d *Draft) error {
		if tag == "" || slices.Contains(d.Tags, tag) {
			return errUnchanged
		}
		d.Tags = append(d.Tags, tag)
		return nil
	})
}

func (s *Session) RemoveTag(tag string) error {
	return s.edit("tags", func(d *Draft) error {
		i := slices.Index(d.Tags, tag)
		if i < 0 {
			return ecerrors.NotFound(fmt.Sprintf("tag %q", tag))
		}
		d.Tags = slices.Delete(d.Tags, i, i+1)
		return nil
	})
}

// AddTimeslot appends a row and returns its client id.
func (s *Session) AddTimeslot(ts Timeslot) (string, error) {
	ts.ID = newClientID()
	err := s.edit("timeslots", func(d *Draft) error {
		d.Timeslots = append(d.Timeslots, ts)
		return nil
	})
	if err != nil {
		return "", err
	}
	return ts.ID, nil
}

// UpdateTimeslot replaces the row with ts.ID.
func (s *Session) UpdateTimeslot(ts Timeslot) error {
	return s.edit("timeslots", func(d *Draft) error {
		i := slices.IndexFunc(d.Timeslots, func(t Timeslot) bool { return t.ID == ts.ID })
		if i < 0 {
			return ecerrors.NotFound(fmt.Sprintf("timeslot %s", ts.ID))
		}
		d.Timeslots[i] = ts
		return nil
	})
}

func (s *Session) RemoveTimeslot(id string) error {
	return s.edit("timeslots", func(d *Draft) error {
		i := slices.IndexFunc(d.Timeslots, func(t Timeslot) bool { return t.ID == id })
		if i < 0 {
			return ecerrors.NotFound(fmt.Sprintf("timeslot %s", id))
		}
		d.Timeslots = slices.Delete(d.Timeslots, i, i+1)
		return nil
	})
}

// AddInfo appends an additional-info row and returns its client id. Blank
// rows are allowed while editing and dropped on submit.
func (s *Session) AddInfo(key, value string) (string, error) {
	entry := InfoEntry{ID: newClientID(), Key: key, Value: value}
	err := s.edit("additional_info", func(d *Draft) error {
		d.AdditionalInfo = append(d.AdditionalInfo, entry)
		return nil
	})
	if err != nil {
		return "", err
	}
	return entry.ID, nil
}

func (s *Session) UpdateInfo(entry InfoEntry) error {
	return s.edit("additional_info", func(d *Draft) error {
		i := slices.IndexFunc(d.AdditionalInfo, func(e InfoEntry) bool { return e.ID == entry.ID })
		if i < 0 {
			return ecerrors.NotFound(fmt.Sprintf("info entry %s", entry.ID))
		}
		d.AdditionalInfo[i] = entry
		return nil
	})
}

func (s *Session) RemoveInfo(id string) error {
	return s.edit("additional_info", func(d *Draft) error {
		i := slices.IndexFunc(d.AdditionalInfo, func(e InfoEntry) bool { return e.ID == id })
		if i < 0 {
			return ecerrors.NotFound(fmt.Sprintf("info entry %s", id))
		}
		d.AdditionalInfo = slices.Delete(d.AdditionalInfo, i, i+1)
		return nil
	})
}

var errUnchanged = stdErrors.New("unchanged")

func (s *Session) edit(field string, apply func(d *Draft) error) error {
	s.mu.Lock()
	if s.phase != PhaseEditing {
		phase := s.phase
		s.mu.Unlock()
		return ecerrors.InvalidInput(fmt.Sprintf("cannot edit in phase %s", phase))
	}
	if err := apply(&s.draft); err != nil {
		s.mu.Unlock()
		if stdErrors.Is(err, errUnchanged) {
			return nil
		}
		return err
	}
	s.dirty[field] = true
	s.mu.Unlock()

	s.publish()
	return nil
}

// Submit validates the draft and sends one update. On success the session is
// Done and the navigator is sent to the detail route; on failure the session
// returns to Editing with the draft intact.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	switch s.phase {
	case PhaseEditing:
	case PhaseSubmitting:
		s.mu.Unlock()
		return ecerrors.Busy("update already in flight")
	default:
		phase := s.phase
		s.mu.Unlock()
		return ecerrors.InvalidInput(fmt.Sprintf("cannot submit in phase %s", phase))
	}

	if err := s.draft.Validate(); err != nil {
		s.mu.Unlock()
		s.notifier.Notify(ctx, notify.Notice{Level: notify.LevelWarning, Message: "Please fill in the required fields", Err: err})
		return err
	}
	payload := s.draft.Payload()
	s.phase = PhaseSubmitting
	s.mu.Unlock()
	s.publish()

	err := s.store.UpdateEvent(ctx, s.eventID, payload)

	s.mu.Lock()
	if err != nil {
		s.phase = PhaseEditing
	} else {
		s.phase = PhaseDone
		s.dirty = make(map[string]bool)
	}
	s.mu.Unlock()
	s.publish()

	if err != nil {
		slog.Warn("Event update failed", "event_id", s.eventID, "category", ecerrors.Category(err), "error", err)
		s.notifier.Notify(ctx, notify.Notice{Level: notify.LevelError, Message: "Failed to update event", Err: err})
		return fmt.Errorf("update event %s: %w", s.eventID, err)
	}

	slog.Info("Event updated", "event_id", s.eventID, "user_id", s.auth.UserID)
	s.notifier.Notify(ctx, notify.Notice{Level: notify.LevelSuccess, Message: "Event updated successfully"})
	s.navigator.Navigate(ctx, s.DetailRoute())
	return nil
}

// DetailRoute is where a successful submit navigates to.
func (s *Session) DetailRoute() string {
	if strings.Contains(s.detailRoute, "%s") {
		return fmt.Sprintf(s.detailRoute, s.eventID)
	}
	return strings.TrimSuffix(s.detailRoute, "/") + "/" + s.eventID
}

func (s *Session) EventID() string {
	return s.eventID
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Dirty reports whether anything changed since the record was loaded.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.dirty) > 0
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
	dirty := make([]string, 0, len(s.dirty))
	for field := range s.dirty {
		dirty = append(dirty, field)
	}
	sort.Strings(dirty)

	return Snapshot{
		EventID:        s.eventID,
		Phase:          s.phase,
		Draft:          s.draft.Clone(),
		TimezoneOffset: s.draft.TimezoneOffset(),
		DirtyFields:    dirty,
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
