package render

import (
	"fmt"
	"strings"

	"github.com/harunnryd/eventcorner/internal/eventdata"
	"github.com/harunnryd/eventcorner/internal/eventform"
)

type OutputFormat string

const (
	OutputFormatTable OutputFormat = "table"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
)

// EventFormatter renders an extracted event object and a form draft.
type EventFormatter interface {
	FormatEvent(*eventdata.Object) (string, error)
	FormatDraft(eventform.Snapshot) (string, error)
}

func NewFormatter(format OutputFormat) (EventFormatter, error) {
	switch format {
	case OutputFormatTable:
		return NewTableFormatter(), nil
	case OutputFormatJSON:
		return NewJSONFormatter(), nil
	case OutputFormatYAML:
		return NewYAMLFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (supported: table, json, yaml)", format)
	}
}

func ParseOutputFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	switch format {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("invalid output format: %s (supported: table, json, yaml)", s)
	}
}

// draftView is the serialisable shape of a form snapshot.
type draftView struct {
	EventID        string            `json:"event_id" yaml:"event_id"`
	Phase          string            `json:"phase" yaml:"phase"`
	Fields         map[string]string `json:"fields" yaml:"fields"`
	TimezoneOffset string            `json:"timezone_offset" yaml:"timezone_offset"`
	Tags           []string          `json:"tags" yaml:"tags"`
	Timeslots      []slotView        `json:"timeslots" yaml:"timeslots"`
	AdditionalInfo []infoView        `json:"additional_info" yaml:"additional_info"`
	DirtyFields    []string          `json:"dirty_fields,omitempty" yaml:"dirty_fields,omitempty"`
}

type slotView struct {
	Title       string `json:"title" yaml:"title"`
	Start       string `json:"start" yaml:"start"`
	End         string `json:"end" yaml:"end"`
	Color       string `json:"color,omitempty" yaml:"color,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type infoView struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

func newDraftView(snap eventform.Snapshot) draftView {
	d := snap.Draft
	view := draftView{
		EventID:        snap.EventID,
		Phase:          snap.Phase.String(),
		Fields:         make(map[string]string, len(eventform.ScalarFields)),
		TimezoneOffset: snap.TimezoneOffset,
		Tags:           append([]string{}, d.Tags...),
		Timeslots:      make([]slotView, 0, len(d.Timeslots)),
		AdditionalInfo: make([]infoView, 0, len(d.AdditionalInfo)),
		DirtyFields:    snap.DirtyFields,
	}
	for _, field := range eventform.ScalarFields {
		if v, err := d.Get(field); err == nil {
			view.Fields[field] = v
		}
	}
	for _, ts := range d.Timeslots {
		view.Timeslots = append(view.Timeslots, slotView{ts.Title, ts.Start, ts.End, ts.Color, ts.Description})
	}
	for _, e := range d.AdditionalInfo {
		view.AdditionalInfo = append(view.AdditionalInfo, infoView{e.Key, e.Value})
	}
	return view
}
