package render

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/harunnryd/eventcorner/internal/notify"
	"github.com/harunnryd/eventcorner/internal/transcript"

	"charm.land/lipgloss/v2"
)

var (
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	completeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	launcherStyle  = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("99")).
			Padding(0, 1)

	noticeStyles = map[notify.Level]lipgloss.Style{
		notify.LevelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		notify.LevelSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		notify.LevelWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		notify.LevelError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

// TurnOptions controls how a turn is printed.
type TurnOptions struct {
	Timestamps bool
}

// Turn renders one chat turn.
func Turn(turn transcript.Turn, opts TurnOptions) string {
	var b strings.Builder

	label := assistantStyle.Render("assistant")
	if turn.Role == transcript.RoleUser {
		label = userStyle.Render("you")
	}
	if opts.Timestamps && !turn.CreatedAt.IsZero() {
		b.WriteString(mutedStyle.Render(turn.CreatedAt.Format("15:04")))
		b.WriteString(" ")
	}
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(turn.Content)

	if len(turn.MissingFields) > 0 {
		b.WriteString("\n  ")
		b.WriteString(mutedStyle.Render("missing: " + strings.Join(turn.MissingFields, ", ")))
	}
	if turn.IsComplete {
		b.WriteString("\n  ")
		b.WriteString(completeStyle.Render("complete, /preview to review and /accept to keep it"))
	}
	return b.String()
}

// Transcript renders every turn, one per line.
func Transcript(turns []transcript.Turn, opts TurnOptions) string {
	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		lines = append(lines, Turn(turn, opts))
	}
	return strings.Join(lines, "\n")
}

// Launcher is the collapsed chat widget.
func Launcher() string {
	return launcherStyle.Render("Chat with Event Corner")
}

// Notifier prints notices as one-line toasts.
type Notifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewNotifier(w io.Writer) *Notifier {
	return &Notifier{w: w}
}

func (n *Notifier) Notify(_ context.Context, notice notify.Notice) {
	style, ok := noticeStyles[notice.Level]
	if !ok {
		style = noticeStyles[notify.LevelInfo]
	}

	line := notice.Message
	if notice.Err != nil {
		line = fmt.Sprintf("%s: %v", line, notice.Err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.w, style.Render("["+string(notice.Level)+"] "+line))
}
