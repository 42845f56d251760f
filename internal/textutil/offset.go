package textutil

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseOffset converts a subtitle time offset into seconds. Accepted forms
// are "HH:MM:SS", "MM:SS" and plain seconds; fractional seconds are allowed
// in the last field. An empty value is a zero offset.
func ParseOffset(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	parts := strings.Split(value, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("offset %q: expected HH:MM:SS, MM:SS or seconds", value)
	}
	var total float64
	for _, part := range parts {
		n, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return 0, fmt.Errorf("offset %q: %w", value, err)
		}
		if n < 0 {
			return 0, fmt.Errorf("offset %q: negative field", value)
		}
		total = total*60 + n
	}
	return total, nil
}
