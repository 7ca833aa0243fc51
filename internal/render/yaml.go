package render

import (
	"encoding/json"
	"strings"

	"github.com/harunnryd/eventcorner/internal/eventdata"
	"github.com/harunnryd/eventcorner/internal/eventform"

	"gopkg.in/yaml.v3"
)

type YAMLFormatter struct{}

func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// FormatEvent keeps the object's key order: the JSON encoding is parsed as a
// YAML node tree and re-emitted in block style.
func (f *YAMLFormatter) FormatEvent(obj *eventdata.Object) (string, error) {
	if obj == nil {
		return "null", nil
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return "", err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return "", err
	}
	blockStyle(&node)

	data, err := yaml.Marshal(&node)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (f *YAMLFormatter) FormatDraft(snap eventform.Snapshot) (string, error) {
	data, err := yaml.Marshal(newDraftView(snap))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, child := range n.Content {
		blockStyle(child)
	}
}
