package render

import (
	"encoding/json"

	"github.com/harunnryd/eventcorner/internal/eventdata"
	"github.com/harunnryd/eventcorner/internal/eventform"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) FormatEvent(obj *eventdata.Object) (string, error) {
	if obj == nil {
		return "null", nil
	}
	data, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (f *JSONFormatter) FormatDraft(snap eventform.Snapshot) (string, error) {
	data, err := json.MarshalIndent(newDraftView(snap), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
