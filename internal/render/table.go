package render

import (
	"fmt"
	"strings"

	"github.com/harunnryd/eventcorner/internal/eventdata"
	"github.com/harunnryd/eventcorner/internal/eventform"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
)

type TableFormatter struct {
	headerStyle  lipgloss.Style
	keyStyle     lipgloss.Style
	cellStyle    lipgloss.Style
	dirtyStyle   lipgloss.Style
	oddRowStyle  lipgloss.Style
	evenRowStyle lipgloss.Style
	borderStyle  lipgloss.Style
}

func NewTableFormatter() *TableFormatter {
	purple := lipgloss.Color("99")
	gray := lipgloss.Color("245")
	lightGray := lipgloss.Color("241")
	amber := lipgloss.Color("214")

	return &TableFormatter{
		headerStyle: lipgloss.NewStyle().
			Foreground(purple).
			Bold(true).
			Align(lipgloss.Center).
			Padding(0, 1),
		keyStyle: lipgloss.NewStyle().
			Foreground(purple).
			Bold(true).
			Padding(0, 1),
		cellStyle: lipgloss.NewStyle().
			Padding(0, 1),
		dirtyStyle: lipgloss.NewStyle().
			Foreground(amber).
			Padding(0, 1),
		oddRowStyle: lipgloss.NewStyle().
			Foreground(gray).
			Padding(0, 1),
		evenRowStyle: lipgloss.NewStyle().
			Foreground(lightGray).
			Padding(0, 1),
		borderStyle: lipgloss.NewStyle().
			Foreground(purple),
	}
}

// FormatEvent renders one row per field, in the object's order.
func (f *TableFormatter) FormatEvent(obj *eventdata.Object) (string, error) {
	if obj.IsEmpty() {
		return "Nothing extracted yet", nil
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(f.borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return f.keyStyle
			}
			return f.cellStyle
		})

	for _, key := range obj.Keys() {
		v, _ := obj.Get(key)
		if v.Kind == eventdata.KindTimeslots {
			t.Row(key, formatSlots(v.Slots))
			continue
		}
		t.Row(key, truncateString(v.Text(), 60))
	}
	return t.String(), nil
}

func (f *TableFormatter) FormatDraft(snap eventform.Snapshot) (string, error) {
	view := newDraftView(snap)
	dirty := make(map[string]bool, len(view.DirtyFields))
	for _, field := range view.DirtyFields {
		dirty[field] = true
	}

	fields := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(f.borderStyle)

	rowFields := make([]string, 0, len(eventform.ScalarFields)+2)
	for _, field := range eventform.ScalarFields {
		fields.Row(field, truncateString(view.Fields[field], 50))
		rowFields = append(rowFields, field)
	}
	fields.Row("timezone_offset", view.TimezoneOffset)
	rowFields = append(rowFields, "")
	fields.Row("tags", strings.Join(view.Tags, ", "))
	rowFields = append(rowFields, "tags")

	fields.StyleFunc(func(row, col int) lipgloss.Style {
		if col == 0 {
			return f.keyStyle
		}
		if row >= 0 && row < len(rowFields) && dirty[rowFields[row]] {
			return f.dirtyStyle
		}
		return f.cellStyle
	})

	var b strings.Builder
	fmt.Fprintf(&b, "Event %s (%s)\n", view.EventID, view.Phase)
	b.WriteString(fields.String())

	if len(view.Timeslots) > 0 {
		slots := f.listTable("#", "Title", "Start", "End")
		for i, ts := range view.Timeslots {
			slots.Row(fmt.Sprint(i+1), truncateString(ts.Title, 24), ts.Start, ts.End)
		}
		b.WriteString("\nTimeslots\n")
		b.WriteString(slots.String())
	}

	if len(view.AdditionalInfo) > 0 {
		info := f.listTable("#", "Key", "Value")
		for i, e := range view.AdditionalInfo {
			info.Row(fmt.Sprint(i+1), truncateString(e.Key, 24), truncateString(e.Value, 40))
		}
		b.WriteString("\nAdditional info\n")
		b.WriteString(info.String())
	}

	return b.String(), nil
}

func (f *TableFormatter) listTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(f.borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return f.headerStyle
			case row%2 == 0:
				return f.evenRowStyle
			default:
				return f.oddRowStyle
			}
		}).
		Headers(headers...)
}

func formatSlots(slots []eventdata.Timeslot) string {
	lines := make([]string, 0, len(slots))
	for _, ts := range slots {
		lines = append(lines, fmt.Sprintf("%s: %s -> %s", ts.Title, ts.Start, ts.End))
	}
	return strings.Join(lines, "\n")
}

// truncateString cuts s to at most maxLen runes.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}
