package moderation

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidDuration = errors.New("invalid duration format")

var durationUnits = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
}

// ParseDuration reads "<int><unit>" with unit one of s, m, h, d, e.g. "10m"
// or "2d". Zero and negative durations are rejected.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return 0, ErrInvalidDuration
	}

	unit, ok := durationUnits[s[len(s)-1]]
	if !ok {
		return 0, ErrInvalidDuration
	}

	n, err := strconv.Atoi(strings.TrimSpace(s[:len(s)-1]))
	if err != nil || n <= 0 {
		return 0, ErrInvalidDuration
	}

	d := time.Duration(n) * unit
	if d/unit != time.Duration(n) {
		return 0, ErrInvalidDuration
	}
	return d, nil
}
