package assistant

import (
	"encoding/json"
	"strings"

	"github.com/harunnryd/eventcorner/internal/backend"
	ecerrors "github.com/harunnryd/eventcorner/internal/errors"
	"github.com/harunnryd/eventcorner/internal/eventdata"
)

type parseMode string

const (
	parseModeJSON      parseMode = "json"
	parseModeExtracted parseMode = "extracted"
	parseModeFallback  parseMode = "fallback"
)

const FallbackQuestion = "I'm having trouble understanding. Could you describe your event with more details?"

// FallbackMissingFields are reported when the model answer can't be parsed.
var FallbackMissingFields = []string{"title", "category", "venue_type", "timeslots"}

// parseExtraction decodes the model answer. Anything that is not a JSON
// object, even after stripping fences and surrounding prose, becomes the
// fallback clarification.
func parseExtraction(raw string) (*backend.ExtractionResult, parseMode, error) {
	normalized := cleanModelJSON(raw)

	if res, err := decodeExtraction(normalized); err == nil {
		return res, parseModeJSON, nil
	}
	if extracted := extractFirstBalancedJSON(normalized, '{', '}'); extracted != "" && extracted != normalized {
		if res, err := decodeExtraction(extracted); err == nil {
			return res, parseModeExtracted, nil
		}
	}

	return fallbackExtraction(), parseModeFallback, ecerrors.InvalidModelOutput("extraction answer is not a JSON object")
}

func decodeExtraction(raw string) (*backend.ExtractionResult, error) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, ecerrors.InvalidModelOutput("not a JSON object")
	}
	var res backend.ExtractionResult
	if err := json.Unmarshal([]byte(trimmed), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func fallbackExtraction() *backend.ExtractionResult {
	zero := 0.0
	return &backend.ExtractionResult{
		NeedsClarification: true,
		Question:           FallbackQuestion,
		ExtractedSoFar:     eventdata.NewObject(),
		MissingFields:      append([]string(nil), FallbackMissingFields...),
		Confidence:         &zero,
	}
}

func cleanModelJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func extractFirstBalancedJSON(input string, open, close byte) string {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(input); i++ {
		ch := input[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case open:
			if depth == 0 {
				start = i
			}
			depth++
		case close:
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				return strings.TrimSpace(input[start : i+1])
			}
		}
	}
	return ""
}
