package config

import (
	"fmt"
	"strings"
	"time"
)

// DurationOrDefault parses value, or defaultValue when value is blank.
// Timeouts must be positive.
func DurationOrDefault(value string, defaultValue string) (time.Duration, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		raw = strings.TrimSpace(defaultValue)
	}
	if raw == "" {
		return 0, fmt.Errorf("missing duration")
	}

	d, err := time.ParseDuration(raw)
	switch {
	case err != nil:
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	case d <= 0:
		return 0, fmt.Errorf("invalid duration %q: must be positive", raw)
	}
	return d, nil
}
