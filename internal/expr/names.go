package expr

import (
	"fmt"
	"strings"
)

// NOTE: keep this list in sync with the fields timers expose via Lookup.
var knownFields = map[string]struct{}{
	"current_value": {},
	"tick_count":    {},
	"initial_value": {},
	"running":       {},
}

func normalizeField(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func validateFieldName(name string) (string, error) {
	n := normalizeField(name)
	if n == "" {
		return n, fmt.Errorf("field name missing")
	}
	if _, ok := knownFields[n]; !ok {
		return "", fmt.Errorf("unknown field '%s'", name)
	}
	return n, nil
}
