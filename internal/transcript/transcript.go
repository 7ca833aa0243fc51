package transcript

import (
	"sync"
	"time"

	ecerrors "github.com/harunnryd/eventcorner/internal/errors"
	"github.com/harunnryd/eventcorner/internal/eventdata"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one chat message. ExtractedSoFar and MissingFields are set only on
// assistant turns that still ask for clarification.
type Turn struct {
	Role           Role
	Content        string
	ExtractedSoFar *eventdata.Object
	MissingFields  []string
	IsComplete     bool
	CreatedAt      time.Time
}

// HistoryEntry is the wire projection of a turn sent back to the backend.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Transcript is an append-only, chronologically ordered list of turns.
type Transcript struct {
	mu    sync.RWMutex
	turns []Turn
}

func New(seed ...Turn) (*Transcript, error) {
	t := &Transcript{}
	for _, turn := range seed {
		if err := t.Append(turn); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Append adds a turn at the end. A complete turn must come from the assistant
// and nothing may follow it.
func (t *Transcript) Append(turn Turn) error {
	if turn.Role != RoleUser && turn.Role != RoleAssistant {
		return ecerrors.InvalidInput("unknown turn role " + string(turn.Role))
	}
	if turn.IsComplete && turn.Role != RoleAssistant {
		return ecerrors.InvalidInput("only assistant turns can complete a transcript")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if n := len(t.turns); n > 0 && t.turns[n-1].IsComplete {
		return ecerrors.InvalidInput("transcript is already complete")
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	t.turns = append(t.turns, cloneTurn(turn))
	return nil
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.turns)
}

// Turns returns a deep copy of all turns.
func (t *Transcript) Turns() []Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Turn, len(t.turns))
	for i, turn := range t.turns {
		out[i] = cloneTurn(turn)
	}
	return out
}

func (t *Transcript) Last() (Turn, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.turns) == 0 {
		return Turn{}, false
	}
	return cloneTurn(t.turns[len(t.turns)-1]), true
}

// HasComplete reports whether the terminal assistant turn has been appended.
func (t *Transcript) HasComplete() bool {
	last, ok := t.Last()
	return ok && last.IsComplete
}

// History projects the first n turns into wire entries. n outside [0, Len]
// is clamped.
func (t *Transcript) History(n int) []HistoryEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if n < 0 {
		n = 0
	}
	if n > len(t.turns) {
		n = len(t.turns)
	}
	out := make([]HistoryEntry, n)
	for i := 0; i < n; i++ {
		out[i] = HistoryEntry{Role: string(t.turns[i].Role), Content: t.turns[i].Content}
	}
	return out
}

func cloneTurn(turn Turn) Turn {
	turn.ExtractedSoFar = turn.ExtractedSoFar.Clone()
	if turn.MissingFields != nil {
		turn.MissingFields = append([]string(nil), turn.MissingFields...)
	}
	return turn
}
