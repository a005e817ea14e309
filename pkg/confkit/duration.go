package confkit

import (
	"fmt"
	"strings"
	"time"
)

// ParsePositiveDuration parses raw as a time.Duration. An empty string
// yields zero; zero or negative durations are rejected.
func ParsePositiveDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", d)
	}
	return d, nil
}
